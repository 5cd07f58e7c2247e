// Copyright 2021 Upbound Inc
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//      http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package parser turns document bytes into a package ast concrete syntax
// tree, with error-recovery nodes standing in for malformed input rather
// than aborting.
package parser

import (
	"github.com/gnlang/gnls/internal/gn/source"
)

// TokenKind classifies a lexical token.
type TokenKind int

const (
	TokEOF TokenKind = iota
	TokIdent
	TokInt
	TokString
	TokPunct
	TokComment
)

// Token is one lexical unit plus its span and, for comments and strings,
// whether it was properly closed.
type Token struct {
	Kind       TokenKind
	Text       string
	Span       source.Span
	Terminated bool // meaningful only for TokString
}

// lexer scans document bytes into tokens one at a time. It never returns an
// error: malformed input (an unterminated string) becomes a Token whose
// Terminated field is false, and the parser decides what to do with it.
type lexer struct {
	src []byte
	pos int
}

func newLexer(src []byte) *lexer {
	return &lexer{src: src}
}

func isIdentStart(c byte) bool {
	return c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isIdentCont(c byte) bool {
	return isIdentStart(c) || (c >= '0' && c <= '9')
}

func isDigit(c byte) bool {
	return c >= '0' && c <= '9'
}

func isSpace(c byte) bool {
	return c == ' ' || c == '\t' || c == '\r' || c == '\n'
}

// next returns the next non-whitespace token, or a TokEOF token at end of
// input. Comments are returned as tokens (TokComment) rather than skipped,
// so the parser can implement comment-attachment (§4.C) itself.
func (l *lexer) next() Token {
	for l.pos < len(l.src) && isSpace(l.src[l.pos]) {
		l.pos++
	}
	start := l.pos
	if l.pos >= len(l.src) {
		return Token{Kind: TokEOF, Span: source.Span{Start: start, End: start}}
	}

	c := l.src[l.pos]
	switch {
	case c == '#':
		return l.lexComment(start)
	case c == '"':
		return l.lexString(start)
	case isIdentStart(c):
		return l.lexIdent(start)
	case isDigit(c):
		return l.lexInt(start)
	default:
		return l.lexPunct(start)
	}
}

func (l *lexer) lexComment(start int) Token {
	for l.pos < len(l.src) && l.src[l.pos] != '\n' {
		l.pos++
	}
	return Token{Kind: TokComment, Text: string(l.src[start:l.pos]), Span: source.Span{Start: start, End: l.pos}}
}

func (l *lexer) lexIdent(start int) Token {
	for l.pos < len(l.src) && isIdentCont(l.src[l.pos]) {
		l.pos++
	}
	return Token{Kind: TokIdent, Text: string(l.src[start:l.pos]), Span: source.Span{Start: start, End: l.pos}}
}

func (l *lexer) lexInt(start int) Token {
	for l.pos < len(l.src) && isDigit(l.src[l.pos]) {
		l.pos++
	}
	return Token{Kind: TokInt, Text: string(l.src[start:l.pos]), Span: source.Span{Start: start, End: l.pos}}
}

// lexString scans a double-quoted string literal, including its quotes, up
// to the closing quote, an unescaped newline, or end of file. An
// unterminated string's span deliberately includes the offending newline
// byte (scenario S3: `a = "bb\n` must produce an error node spanning
// `"bb\n`, not `"bb`), so the loop advances past the newline before
// slicing.
func (l *lexer) lexString(start int) Token {
	l.pos++ // opening quote
	for l.pos < len(l.src) {
		c := l.src[l.pos]
		if c == '\\' && l.pos+1 < len(l.src) {
			l.pos += 2
			continue
		}
		if c == '"' {
			l.pos++
			return Token{
				Kind:       TokString,
				Text:       string(l.src[start:l.pos]),
				Span:       source.Span{Start: start, End: l.pos},
				Terminated: true,
			}
		}
		if c == '\n' {
			l.pos++ // include the newline in the error span
			return Token{
				Kind:       TokString,
				Text:       string(l.src[start:l.pos]),
				Span:       source.Span{Start: start, End: l.pos},
				Terminated: false,
			}
		}
		l.pos++
	}
	// Ran off the end of the file still inside the string.
	return Token{
		Kind:       TokString,
		Text:       string(l.src[start:l.pos]),
		Span:       source.Span{Start: start, End: l.pos},
		Terminated: false,
	}
}

var twoCharPuncts = []string{"+=", "-=", "==", "!=", "<=", ">=", "&&", "||"}

func (l *lexer) lexPunct(start int) Token {
	rest := l.src[l.pos:]
	for _, p := range twoCharPuncts {
		if len(rest) >= 2 && string(rest[:2]) == p {
			l.pos += 2
			return Token{Kind: TokPunct, Text: p, Span: source.Span{Start: start, End: l.pos}}
		}
	}
	l.pos++
	return Token{Kind: TokPunct, Text: string(l.src[start:l.pos]), Span: source.Span{Start: start, End: l.pos}}
}
