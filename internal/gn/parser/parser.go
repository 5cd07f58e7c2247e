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

package parser

import (
	"strconv"

	"github.com/gnlang/gnls/internal/gn/ast"
	"github.com/gnlang/gnls/internal/gn/source"
)

// Parser drives a recursive-descent statement grammar with an embedded
// operator-precedence (Pratt) expression parser. It never fails: malformed
// input becomes ast.ErrorStmt / ast.ErrorExpr nodes and parsing continues.
type Parser struct {
	s *stream
}

// Parse parses the full contents of src into a *ast.File.
func Parse(src []byte) *ast.File {
	p := &Parser{s: newStream(src)}
	var stmts []ast.Statement
	for !p.s.atEOF() {
		stmts = append(stmts, p.parseStatement())
	}
	end := p.s.cur().Span.End
	return ast.NewFile(source.Span{Start: 0, End: end}, stmts)
}

// --- statements ---------------------------------------------------------

func (p *Parser) parseStatement() ast.Statement {
	comments := p.s.curComments()
	tok := p.s.cur()

	switch {
	case isPunct(tok, "}"):
		p.s.advance()
		return ast.NewErrorStmt(tok.Span, ast.UnmatchedBrace)

	case tok.Kind == TokIdent && tok.Text == "if":
		return p.parseCondition(comments)

	case tok.Kind == TokIdent && p.startsAssignmentOrCall(1):
		return p.parseAssignmentOrCall(comments)

	default:
		return p.parseUnknownStatement(comments)
	}
}

// startsAssignmentOrCall reports whether the identifier at the current
// position begins an assignment or call statement, by looking at the
// token n positions ahead (which must be the one immediately following the
// identifier).
func (p *Parser) startsAssignmentOrCall(n int) bool {
	next := p.s.peekAt(n)
	if next.Kind != TokPunct {
		return false
	}
	switch next.Text {
	case "(", "=", "+=", "-=", "[", ".":
		return true
	default:
		return false
	}
}

// isStatementStart reports whether the current token plausibly begins a
// new statement, used by error recovery to find a resynchronization point.
func (p *Parser) isStatementStart() bool {
	tok := p.s.cur()
	if tok.Kind == TokEOF || isPunct(tok, "}") {
		return true
	}
	if tok.Kind == TokIdent && tok.Text == "if" {
		return true
	}
	return tok.Kind == TokIdent && p.startsAssignmentOrCall(1)
}

// parseUnknownStatement consumes tokens that do not begin any recognized
// statement form, producing a single UnknownStatement error node and
// resynchronizing at the next plausible statement boundary.
func (p *Parser) parseUnknownStatement(comments []string) ast.Statement {
	start := p.s.cur().Span
	end := start
	// Always consume at least one token so the parser makes progress.
	t := p.s.advance()
	end = t.Span
	for !p.isStatementStart() {
		end = p.s.advance().Span
	}
	_ = comments // unknown statements carry no comments in the tree
	return ast.NewErrorStmt(source.Span{Start: start.Start, End: end.End}, ast.UnknownStatement)
}

// parseAssignmentOrCall parses either `lvalue assign-op expr` or
// `identifier '(' expr-list? ')' block?`, distinguishing on the token
// following the identifier.
func (p *Parser) parseAssignmentOrCall(comments []string) ast.Statement {
	identTok := p.s.advance()
	ident := ast.NewIdentifier(identTok.Span, identTok.Text)

	next := p.s.cur()
	switch {
	case isPunct(next, "("):
		return p.parseCallTail(ident, comments)
	case isPunct(next, "["):
		lv := p.parseArrayAccessTail(ident)
		return p.parseAssignmentTail(lv, comments)
	case isPunct(next, "."):
		lv := p.parseScopeAccessTail(ident)
		return p.parseAssignmentTail(lv, comments)
	default:
		return p.parseAssignmentTail(ident, comments)
	}
}

func (p *Parser) parseAssignmentTail(lhs ast.LValue, comments []string) ast.Statement {
	opTok := p.s.cur()
	var op ast.AssignOp
	switch {
	case isPunct(opTok, "="):
		op = ast.AssignEq
	case isPunct(opTok, "+="):
		op = ast.AssignPlusEq
	case isPunct(opTok, "-="):
		op = ast.AssignMinusEq
	default:
		// Not actually an assignment operator; treat as an unknown
		// statement starting at the lvalue.
		end := p.s.advance().Span
		for !p.isStatementStart() {
			end = p.s.advance().Span
		}
		return ast.NewErrorStmt(source.Span{Start: lhs.Span().Start, End: end.End}, ast.UnknownStatement)
	}
	p.s.advance()

	rhs := p.parseExpr(0)
	span := source.Union(lhs.Span(), rhs.Span())
	return ast.NewAssignment(span, lhs, op, rhs, comments)
}

// parseCondition parses `if (expr) block ('else' (condition | block))?`.
func (p *Parser) parseCondition(comments []string) ast.Statement {
	ifTok := p.s.advance() // 'if'
	p.expectPunct("(")
	cond := p.parseExpr(0)
	p.expectPunct(")")
	then := p.parseBlock()

	var elseIf *ast.Condition
	var elseBlock *ast.Block
	end := then.Span()
	if p.s.cur().Kind == TokIdent && p.s.cur().Text == "else" {
		p.s.advance()
		if p.s.cur().Kind == TokIdent && p.s.cur().Text == "if" {
			stmt := p.parseCondition(nil)
			if c, ok := stmt.(*ast.Condition); ok {
				elseIf = c
				end = c.Span()
			}
		} else {
			elseBlock = p.parseBlock()
			end = elseBlock.Span()
		}
	}

	span := source.Union(ifTok.Span, end)
	return ast.NewCondition(span, cond, then, elseIf, elseBlock, comments)
}

// parseBlock parses `'{' statement* '}'`. A missing closing brace is
// tolerated: the block simply ends at EOF.
func (p *Parser) parseBlock() *ast.Block {
	startTok := p.s.cur()
	if isPunct(startTok, "{") {
		p.s.advance()
	}
	var stmts []ast.Statement
	for !isPunct(p.s.cur(), "}") && !p.s.atEOF() {
		stmts = append(stmts, p.parseStatement())
	}
	end := p.s.cur().Span
	if isPunct(p.s.cur(), "}") {
		p.s.advance()
	}
	return ast.NewBlock(source.Span{Start: startTok.Span.Start, End: end.End}, stmts)
}

func (p *Parser) expectPunct(text string) {
	if isPunct(p.s.cur(), text) {
		p.s.advance()
	}
}

// --- lvalue tails --------------------------------------------------------

func (p *Parser) parseArrayAccessTail(base *ast.Identifier) ast.LValue {
	p.s.advance() // '['
	idx := p.parseExpr(0)
	end := p.s.cur().Span
	p.expectPunct("]")
	return ast.NewArrayAccess(source.Span{Start: base.Span().Start, End: end.End}, base, idx)
}

func (p *Parser) parseScopeAccessTail(base *ast.Identifier) ast.LValue {
	p.s.advance() // '.'
	memberTok := p.s.cur()
	var member *ast.Identifier
	if memberTok.Kind == TokIdent {
		p.s.advance()
		member = ast.NewIdentifier(memberTok.Span, memberTok.Text)
	} else {
		member = ast.NewIdentifier(source.Span{Start: memberTok.Span.Start, End: memberTok.Span.Start}, "")
	}
	return ast.NewScopeAccess(source.Union(base.Span(), member.Span()), base, member)
}

// --- calls ---------------------------------------------------------------

func (p *Parser) parseCallTail(fn *ast.Identifier, comments []string) *ast.Call {
	p.s.advance() // '('
	args := p.parseExprSeq(")")
	end := p.s.cur().Span
	p.expectPunct(")")

	var body *ast.Block
	if isPunct(p.s.cur(), "{") {
		body = p.parseBlock()
		end = body.Span()
	}
	return ast.NewCall(source.Union(fn.Span(), end), fn, args, body, comments)
}

// --- expressions (Pratt) --------------------------------------------------

// binOp maps a punctuation token to its ast.BinaryOp and binding power.
// Binding power increases with tightness; unary '!' and primaries bind
// tighter than every entry here.
func binOp(t Token) (ast.BinaryOp, int, bool) {
	if t.Kind != TokPunct {
		return 0, 0, false
	}
	switch t.Text {
	case "||":
		return ast.BinOr, 1, true
	case "&&":
		return ast.BinAnd, 2, true
	case "==":
		return ast.BinEq, 3, true
	case "!=":
		return ast.BinNeq, 3, true
	case "<":
		return ast.BinLt, 4, true
	case "<=":
		return ast.BinLte, 4, true
	case ">":
		return ast.BinGt, 4, true
	case ">=":
		return ast.BinGte, 4, true
	case "+":
		return ast.BinAdd, 5, true
	case "-":
		return ast.BinSub, 5, true
	default:
		return 0, 0, false
	}
}

func (p *Parser) parseExpr(minPrec int) ast.Expr {
	left := p.parseUnary()
	for {
		op, prec, ok := binOp(p.s.cur())
		if !ok || prec < minPrec {
			return left
		}
		p.s.advance()
		right := p.parseExpr(prec + 1) // left-associative
		left = ast.NewBinaryExpr(source.Union(left.Span(), right.Span()), op, left, right)
	}
}

func (p *Parser) parseUnary() ast.Expr {
	if isPunct(p.s.cur(), "!") {
		bangTok := p.s.advance()
		operand := p.parseUnary()
		return ast.NewUnaryExpr(source.Union(bangTok.Span, operand.Span()), ast.UnaryNot, operand)
	}
	return p.parsePrimary()
}

func (p *Parser) parsePrimary() ast.Expr {
	tok := p.s.cur()

	switch {
	case tok.Kind == TokInt:
		p.s.advance()
		v, _ := strconv.ParseInt(tok.Text, 10, 64)
		return ast.NewInteger(tok.Span, v)

	case tok.Kind == TokString:
		p.s.advance()
		return ast.NewStringExpr(tok.Span, tok.Text, tok.Terminated, parseEmbeds)

	case tok.Kind == TokIdent:
		p.s.advance()
		ident := ast.NewIdentifier(tok.Span, tok.Text)
		switch {
		case isPunct(p.s.cur(), "("):
			return p.parseCallTail(ident, nil)
		case isPunct(p.s.cur(), "["):
			return p.parseArrayAccessTail(ident).(ast.Expr)
		case isPunct(p.s.cur(), "."):
			return p.parseScopeAccessTail(ident).(ast.Expr)
		default:
			return ident
		}

	case isPunct(tok, "("):
		p.s.advance()
		inner := p.parseExpr(0)
		end := p.s.cur().Span
		p.expectPunct(")")
		return ast.NewParenExpr(source.Span{Start: tok.Span.Start, End: end.End}, inner)

	case isPunct(tok, "["):
		p.s.advance()
		elems := p.parseExprSeq("]")
		end := p.s.cur().Span
		p.expectPunct("]")
		return ast.NewList(source.Span{Start: tok.Span.Start, End: end.End}, elems)

	case isPunct(tok, "{"):
		return p.parseBlock()

	default:
		pos := tok.Span.Start
		if tok.Kind != TokEOF {
			p.s.advance()
		}
		return ast.NewErrorExpr(source.Span{Start: pos, End: pos}, ast.UnknownExpr)
	}
}

// parseExprSeq parses a comma-separated sequence of expressions up to, but
// not including, the close token (")" or "]") — callers consume the close
// token themselves so they can use its span. A missing comma between two
// successive elements is tolerated and marked with a zero-length
// MissingComma error expression (§4.C) rather than failing the whole
// sequence.
func (p *Parser) parseExprSeq(close string) []ast.Expr {
	var elems []ast.Expr
	if isPunct(p.s.cur(), close) || p.s.atEOF() {
		return elems
	}
	for {
		e := p.parseExpr(0)
		elems = append(elems, e)

		if isPunct(p.s.cur(), ",") {
			p.s.advance()
			if isPunct(p.s.cur(), close) || p.s.atEOF() {
				return elems
			}
			continue
		}
		if isPunct(p.s.cur(), close) || p.s.atEOF() {
			return elems
		}
		pos := e.Span().End
		elems = append(elems, ast.NewErrorExpr(source.Span{Start: pos, End: pos}, ast.MissingComma))
	}
}
