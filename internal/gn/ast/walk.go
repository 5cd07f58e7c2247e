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

package ast

import "github.com/gnlang/gnls/internal/gn/source"

// Walker performs a pre-order, depth-first walk of a tree rooted at Node,
// one Next() call at a time. It is stack-based rather than recursive so
// callers can bail out early (e.g. once a span no longer contains a target
// offset) without unwinding Go call frames.
type Walker struct {
	stack []Node
}

// NewWalker returns a Walker positioned before root.
func NewWalker(root Node) *Walker {
	w := &Walker{}
	if root != nil {
		w.stack = append(w.stack, root)
	}
	return w
}

// Next returns the next node in pre-order, or (nil, false) when the walk is
// exhausted.
func (w *Walker) Next() (Node, bool) {
	if len(w.stack) == 0 {
		return nil, false
	}
	n := w.stack[len(w.stack)-1]
	w.stack = w.stack[:len(w.stack)-1]

	children := n.Children()
	for i := len(children) - 1; i >= 0; i-- {
		if children[i] != nil {
			w.stack = append(w.stack, children[i])
		}
	}
	return n, true
}

// Walk visits every node in the tree rooted at root in pre-order, calling
// visit for each. Walk stops early if visit returns false.
func Walk(root Node, visit func(Node) bool) {
	w := NewWalker(root)
	for {
		n, ok := w.Next()
		if !ok {
			return
		}
		if !visit(n) {
			return
		}
	}
}

// FilterWalker walks only the subtrees whose span contains offset, which
// makes position-sensitive queries (hover, completion, variables_at) avoid
// descending into unrelated parts of a large file.
type FilterWalker struct {
	offset int
	stack  []Node
}

// NewFilterWalker returns a FilterWalker that yields only nodes on the path
// to offset, innermost last.
func NewFilterWalker(root Node, offset int) *FilterWalker {
	w := &FilterWalker{offset: offset}
	if root != nil && spanContainsOffset(root.Span(), offset) {
		w.stack = append(w.stack, root)
	}
	return w
}

// Next returns the next node containing offset, in pre-order.
func (w *FilterWalker) Next() (Node, bool) {
	if len(w.stack) == 0 {
		return nil, false
	}
	n := w.stack[len(w.stack)-1]
	w.stack = w.stack[:len(w.stack)-1]

	children := n.Children()
	for i := len(children) - 1; i >= 0; i-- {
		c := children[i]
		if c != nil && spanContainsOffset(c.Span(), w.offset) {
			w.stack = append(w.stack, c)
		}
	}
	return n, true
}

func spanContainsOffset(s source.Span, offset int) bool {
	return s.Start <= offset && offset <= s.End
}

// PathTo returns every node containing offset, from root (first) to the
// innermost node containing it (last). It is the common case for hover and
// completion, which want "what am I inside of" rather than a generic walk.
func PathTo(root Node, offset int) []Node {
	var path []Node
	w := NewFilterWalker(root, offset)
	for {
		n, ok := w.Next()
		if !ok {
			break
		}
		path = append(path, n)
	}
	return path
}

// AsIdentifier downcasts n to *Identifier, or returns (nil, false).
func AsIdentifier(n Node) (*Identifier, bool) {
	i, ok := n.(*Identifier)
	return i, ok
}

// AsString downcasts n to *StringExpr, or returns (nil, false).
func AsString(n Node) (*StringExpr, bool) {
	s, ok := n.(*StringExpr)
	return s, ok
}

// AsCall downcasts n to *Call, or returns (nil, false).
func AsCall(n Node) (*Call, bool) {
	c, ok := n.(*Call)
	return c, ok
}

// AsAssignment downcasts n to *Assignment, or returns (nil, false).
func AsAssignment(n Node) (*Assignment, bool) {
	a, ok := n.(*Assignment)
	return a, ok
}

// AsError downcasts n to an error node, returning its Kind and true, or
// (0, false) if n is not an error node. An unterminated *StringExpr (§4.C)
// counts as an error node of kind UnterminatedString even though it is
// structurally a normal string literal, since it is the node that carries
// the offending span.
func AsError(n Node) (ErrorKind, bool) {
	switch e := n.(type) {
	case *ErrorStmt:
		return e.Kind, true
	case *ErrorExpr:
		return e.Kind, true
	case *StringExpr:
		if !e.Terminated {
			return UnterminatedString, true
		}
		return 0, false
	default:
		return 0, false
	}
}
