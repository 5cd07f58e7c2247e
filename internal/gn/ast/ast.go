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

// Package ast is the concrete syntax tree produced by package parser. Every
// node, including error-recovery nodes, carries its source span so that
// later stages (analysis, diagnostics, hover) never need to re-lex.
package ast

import "github.com/gnlang/gnls/internal/gn/source"

// Node is implemented by every CST node. Children returns direct children
// in source order; it never returns nil entries.
type Node interface {
	Span() source.Span
	Children() []Node
}

// Statement is a node that can appear directly inside a File or Block.
type Statement interface {
	Node
	statementNode()
}

// Expr is a node that can appear on the right-hand side of an assignment,
// inside a condition, or as a call argument.
type Expr interface {
	Node
	exprNode()
}

// LValue is a node that can appear on the left-hand side of an assignment.
type LValue interface {
	Expr
	lvalueNode()
}

// base embeds into every concrete node to provide Span() and hold the
// node's own span without repeating the field and method on every type.
type base struct {
	span source.Span
}

func (b base) Span() source.Span { return b.span }

// File is the root of a parsed document.
type File struct {
	base
	Statements []Statement
}

func NewFile(span source.Span, stmts []Statement) *File {
	return &File{base: base{span}, Statements: stmts}
}

func (f *File) Children() []Node {
	out := make([]Node, len(f.Statements))
	for i, s := range f.Statements {
		out[i] = s
	}
	return out
}

// Block is a brace-delimited statement list, the body of a template,
// target, if/else branch, or foreach.
type Block struct {
	base
	Statements []Statement
}

func NewBlock(span source.Span, stmts []Statement) *Block {
	return &Block{base: base{span}, Statements: stmts}
}

func (b *Block) Children() []Node {
	out := make([]Node, len(b.Statements))
	for i, s := range b.Statements {
		out[i] = s
	}
	return out
}

// exprNode lets a Block appear as a primary expression, e.g. the anonymous
// scope literal `x = { a = 1 }`.
func (b *Block) exprNode() {}

// Identifier is a bare name: a variable reference, a template/target type
// name, or the left side of a plain assignment.
type Identifier struct {
	base
	Name string
}

func NewIdentifier(span source.Span, name string) *Identifier {
	return &Identifier{base: base{span}, Name: name}
}

func (i *Identifier) Children() []Node { return nil }
func (i *Identifier) exprNode()        {}
func (i *Identifier) lvalueNode()      {}

// Integer is an integer literal.
type Integer struct {
	base
	Value int64
}

func NewInteger(span source.Span, v int64) *Integer {
	return &Integer{base: base{span}, Value: v}
}

func (n *Integer) Children() []Node { return nil }
func (n *Integer) exprNode()        {}

// Embed is one `${expr}` or `$identifier` substitution found inside a
// StringExpr's literal text, recorded lazily the first time Embeds is
// called.
type Embed struct {
	// ByteOffset is relative to the start of the StringExpr's raw text
	// (including the surrounding quotes).
	ByteOffset int
	Length     int
	Expr       Expr
}

// StringExpr is a double-quoted string literal. It may contain `$identifier`
// or `${expression}` substitutions; those are parsed lazily via Embeds
// since most strings in a GN file never use them.
type StringExpr struct {
	base
	Raw        string // including surrounding quotes
	Terminated bool

	embeds     []Embed
	embedsDone bool
	parseEmbeds func(raw string) []Embed
}

func NewStringExpr(span source.Span, raw string, terminated bool, parseEmbeds func(string) []Embed) *StringExpr {
	return &StringExpr{base: base{span}, Raw: raw, Terminated: terminated, parseEmbeds: parseEmbeds}
}

func (s *StringExpr) Children() []Node {
	embeds := s.Embeds()
	out := make([]Node, 0, len(embeds))
	for _, e := range embeds {
		if e.Expr != nil {
			out = append(out, e.Expr)
		}
	}
	return out
}
func (s *StringExpr) exprNode() {}

// Embeds returns the string's embedded substitutions, computing and caching
// them on first call.
func (s *StringExpr) Embeds() []Embed {
	if !s.embedsDone {
		if s.parseEmbeds != nil {
			s.embeds = s.parseEmbeds(s.Raw)
		}
		s.embedsDone = true
	}
	return s.embeds
}

// ArrayAccess is `base[index]`.
type ArrayAccess struct {
	base
	Base  Expr
	Index Expr
}

func NewArrayAccess(span source.Span, b, index Expr) *ArrayAccess {
	return &ArrayAccess{base: base{span}, Base: b, Index: index}
}

func (a *ArrayAccess) Children() []Node { return []Node{a.Base, a.Index} }
func (a *ArrayAccess) exprNode()        {}
func (a *ArrayAccess) lvalueNode()      {}

// ScopeAccess is `base.member`.
type ScopeAccess struct {
	base
	Base   Expr
	Member *Identifier
}

func NewScopeAccess(span source.Span, b Expr, member *Identifier) *ScopeAccess {
	return &ScopeAccess{base: base{span}, Base: b, Member: member}
}

func (s *ScopeAccess) Children() []Node { return []Node{s.Base, s.Member} }
func (s *ScopeAccess) exprNode()        {}
func (s *ScopeAccess) lvalueNode()      {}

// List is `[a, b, c]`. Elements may include *ErrorExpr markers in place of
// a missing element, e.g. for a MissingComma recovery point.
type List struct {
	base
	Elements []Expr
}

func NewList(span source.Span, elems []Expr) *List {
	return &List{base: base{span}, Elements: elems}
}

func (l *List) Children() []Node {
	out := make([]Node, len(l.Elements))
	for i, e := range l.Elements {
		out[i] = e
	}
	return out
}
func (l *List) exprNode() {}

// ParenExpr is a parenthesized expression, kept as its own node so spans
// and formatting can distinguish `(a)` from `a`.
type ParenExpr struct {
	base
	Inner Expr
}

func NewParenExpr(span source.Span, inner Expr) *ParenExpr {
	return &ParenExpr{base: base{span}, Inner: inner}
}

func (p *ParenExpr) Children() []Node { return []Node{p.Inner} }
func (p *ParenExpr) exprNode()        {}

// UnaryOp enumerates the single supported unary operator.
type UnaryOp int

const (
	UnaryNot UnaryOp = iota
)

// UnaryExpr is `!operand`.
type UnaryExpr struct {
	base
	Op      UnaryOp
	Operand Expr
}

func NewUnaryExpr(span source.Span, op UnaryOp, operand Expr) *UnaryExpr {
	return &UnaryExpr{base: base{span}, Op: op, Operand: operand}
}

func (u *UnaryExpr) Children() []Node { return []Node{u.Operand} }
func (u *UnaryExpr) exprNode()        {}

// BinaryOp enumerates supported binary operators, ordered low to high
// precedence.
type BinaryOp int

const (
	BinOr BinaryOp = iota
	BinAnd
	BinEq
	BinNeq
	BinLt
	BinLte
	BinGt
	BinGte
	BinAdd
	BinSub
)

// BinaryExpr is `left op right`.
type BinaryExpr struct {
	base
	Op    BinaryOp
	Left  Expr
	Right Expr
}

func NewBinaryExpr(span source.Span, op BinaryOp, left, right Expr) *BinaryExpr {
	return &BinaryExpr{base: base{span}, Op: op, Left: left, Right: right}
}

func (b *BinaryExpr) Children() []Node { return []Node{b.Left, b.Right} }
func (b *BinaryExpr) exprNode()        {}

// Call is both a statement (`target("name") { ... }`, `import(...)`) and a
// primary expression (`get_label_info(...)`); it implements both
// interfaces and callers distinguish by context, matching how GN itself
// treats a bare call as a statement.
type Call struct {
	base
	Func     *Identifier
	Args     []Expr
	Body     *Block // nil for a call with no trailing block
	Comments []string
}

func NewCall(span source.Span, fn *Identifier, args []Expr, body *Block, comments []string) *Call {
	return &Call{base: base{span}, Func: fn, Args: args, Body: body, Comments: comments}
}

func (c *Call) Children() []Node {
	out := make([]Node, 0, len(c.Args)+2)
	out = append(out, c.Func)
	for _, a := range c.Args {
		out = append(out, a)
	}
	if c.Body != nil {
		out = append(out, c.Body)
	}
	return out
}
func (c *Call) exprNode()      {}
func (c *Call) statementNode() {}

// AssignOp enumerates the three assignment operators GN supports.
type AssignOp int

const (
	AssignEq AssignOp = iota
	AssignPlusEq
	AssignMinusEq
)

// Assignment is `lvalue op expr`.
type Assignment struct {
	base
	LHS      LValue
	Op       AssignOp
	RHS      Expr
	Comments []string // comment lines immediately preceding this statement
}

func NewAssignment(span source.Span, lhs LValue, op AssignOp, rhs Expr, comments []string) *Assignment {
	return &Assignment{base: base{span}, LHS: lhs, Op: op, RHS: rhs, Comments: comments}
}

func (a *Assignment) Children() []Node { return []Node{a.LHS, a.RHS} }
func (a *Assignment) statementNode()   {}

// Condition is an if/else-if/else chain. Else is nil when there is no else
// branch; ElseIf is non-nil when the else branch is itself another `if`.
type Condition struct {
	base
	Cond     Expr
	Then     *Block
	ElseIf   *Condition
	Else     *Block
	Comments []string
}

func NewCondition(span source.Span, cond Expr, then *Block, elseIf *Condition, els *Block, comments []string) *Condition {
	return &Condition{base: base{span}, Cond: cond, Then: then, ElseIf: elseIf, Else: els, Comments: comments}
}

func (c *Condition) Children() []Node {
	out := []Node{c.Cond, c.Then}
	if c.ElseIf != nil {
		out = append(out, c.ElseIf)
	}
	if c.Else != nil {
		out = append(out, c.Else)
	}
	return out
}
func (c *Condition) statementNode() {}

// ErrorKind classifies an error-recovery node.
type ErrorKind int

const (
	// UnknownStatement marks a token sequence that could not be parsed as
	// any known statement form; the parser resynchronizes at the next
	// statement boundary.
	UnknownStatement ErrorKind = iota
	// UnmatchedBrace marks a `}` with no corresponding `{`. A block left
	// unclosed at EOF produces no error node; it simply ends there.
	UnmatchedBrace
	// MissingComma marks a zero-length point in a list or argument list
	// where a comma was expected but absent.
	MissingComma
	// UnterminatedString marks a string literal with no closing quote
	// before end of line or end of file.
	UnterminatedString
	// UnknownExpr marks a position where an expression was expected but
	// the token there starts none of the known primary expression forms.
	UnknownExpr
)

// ErrorStmt is a statement-position error-recovery node.
type ErrorStmt struct {
	base
	Kind ErrorKind
}

func NewErrorStmt(span source.Span, kind ErrorKind) *ErrorStmt {
	return &ErrorStmt{base: base{span}, Kind: kind}
}

func (e *ErrorStmt) Children() []Node { return nil }
func (e *ErrorStmt) statementNode()   {}

// ErrorExpr is an expression-position error-recovery node, most commonly a
// MissingComma marker inside a List or Call argument list.
type ErrorExpr struct {
	base
	Kind ErrorKind
}

func NewErrorExpr(span source.Span, kind ErrorKind) *ErrorExpr {
	return &ErrorExpr{base: base{span}, Kind: kind}
}

func (e *ErrorExpr) Children() []Node { return nil }
func (e *ErrorExpr) exprNode()        {}

// Diagnosis returns a short human-readable description of an error kind,
// used to build a syntax diagnostic message.
func (k ErrorKind) Diagnosis() string {
	switch k {
	case UnknownStatement:
		return "unrecognized statement"
	case UnmatchedBrace:
		return "unmatched '}'"
	case MissingComma:
		return "expected ',' between elements"
	case UnterminatedString:
		return "unterminated string literal"
	case UnknownExpr:
		return "expected an expression"
	default:
		return "syntax error"
	}
}

// Diagnosis returns e's diagnostic message.
func (e *ErrorStmt) Diagnosis() string { return e.Kind.Diagnosis() }

// Diagnosis returns e's diagnostic message.
func (e *ErrorExpr) Diagnosis() string { return e.Kind.Diagnosis() }
