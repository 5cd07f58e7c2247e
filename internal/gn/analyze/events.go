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

package analyze

import (
	"github.com/gnlang/gnls/internal/gn/ast"
	"github.com/gnlang/gnls/internal/gn/gnpath"
	"github.com/gnlang/gnls/internal/gn/source"
)

// EventKind discriminates the shape an Event holds (§4.H).
type EventKind int

const (
	EvAssignment EventKind = iota
	EvImport
	EvDeclareArgs
	EvTemplate
	EvTarget
	EvConditions
	EvNewScope
)

// Event is one observable action in the source-ordered trace a block's
// statements are compiled to. Only the fields relevant to Kind are
// populated; the rest are zero.
type Event struct {
	Kind EventKind
	Span source.Span

	// EvAssignment
	VarName    string
	VarSpan    source.Span
	Assignment Node // *ast.Assignment, or nil for a synthetic forward_variables_from entry
	Comments   []string
	IsArgs     bool

	// EvImport
	ImportPath string

	// EvDeclareArgs: body is inlined (transparent to top-level iteration)
	Body []Event

	// EvTemplate
	TemplateName       string
	TemplateHeaderSpan source.Span

	// EvTarget
	TargetName       string
	TargetCall       Node // *ast.Call
	TargetHeaderSpan source.Span

	// EvConditions: each branch (then, chained else-if thens, final else)
	// flattened into its own event list, in source order.
	Branches [][]Event

	// EvNewScope: a block that introduces lexical scope, opaque to
	// top-level iteration but itself queryable by recursing in.
	ScopeEvents []Event
	ScopeBlock  *ast.Block
}

// eventBuilder carries the state threaded through one file's event-list
// construction: the workspace root and the directory `import` strings
// resolve relative to.
type eventBuilder struct {
	root       string
	currentDir string
}

func buildEvents(stmts []ast.Statement, root, currentDir string) []Event {
	b := &eventBuilder{root: root, currentDir: currentDir}
	return b.build(stmts, 0)
}

func (b *eventBuilder) build(stmts []ast.Statement, declareArgsDepth int) []Event {
	var events []Event
	for _, stmt := range stmts {
		switch s := stmt.(type) {
		case *ast.Assignment:
			name, span := lvalueBase(s.LHS)
			if name == "" {
				continue
			}
			events = append(events, Event{
				Kind:       EvAssignment,
				Span:       s.Span(),
				VarName:    name,
				VarSpan:    span,
				Assignment: s,
				Comments:   s.Comments,
				IsArgs:     declareArgsDepth > 0,
			})
		case *ast.Call:
			events = append(events, b.buildCall(s, declareArgsDepth)...)
		case *ast.Condition:
			events = append(events, b.buildCondition(s, declareArgsDepth))
		case *ast.ErrorStmt:
			// No event; syntax diagnostics pick this up from the AST directly.
		}
	}
	return events
}

func (b *eventBuilder) buildCall(call *ast.Call, declareArgsDepth int) []Event {
	switch call.Func.Name {
	case "import":
		raw, ok := singleStringArg(call.Args)
		if !ok {
			return nil
		}
		return []Event{{
			Kind:       EvImport,
			Span:       call.Span(),
			ImportPath: gnpath.ResolveFile(b.root, b.currentDir, raw),
		}}

	case "declare_args":
		var body []Event
		if call.Body != nil {
			body = b.build(call.Body.Statements, declareArgsDepth+1)
		}
		return []Event{{Kind: EvDeclareArgs, Span: call.Span(), Body: body}}

	case "foreach":
		// Inlined directly: no dedicated event, matching the "no new scope"
		// rule; the loop variable itself is handled by the diagnostics pass,
		// not by the event model.
		if call.Body == nil {
			return nil
		}
		return b.build(call.Body.Statements, declareArgsDepth)

	case "forward_variables_from":
		return b.buildForwardVariablesFrom(call, declareArgsDepth)

	case "template":
		var out []Event
		if name, ok := singleStringArg(call.Args); ok {
			out = append(out, Event{
				Kind:               EvTemplate,
				Span:               call.Span(),
				TemplateName:       name,
				TemplateHeaderSpan: call.Func.Span(),
			})
		}
		if call.Body != nil {
			out = append(out, Event{Kind: EvNewScope, Span: call.Body.Span(), ScopeBlock: call.Body, ScopeEvents: b.build(call.Body.Statements, 0)})
		}
		return out

	case "set_defaults":
		if call.Body == nil {
			return nil
		}
		return []Event{{Kind: EvNewScope, Span: call.Body.Span(), ScopeBlock: call.Body, ScopeEvents: b.build(call.Body.Statements, 0)}}

	default:
		var out []Event
		if name, ok := singleStringArg(call.Args); ok {
			out = append(out, Event{
				Kind:             EvTarget,
				Span:             call.Span(),
				TargetName:       name,
				TargetCall:       call,
				TargetHeaderSpan: call.Func.Span(),
			})
		}
		if call.Body != nil {
			out = append(out, Event{Kind: EvNewScope, Span: call.Body.Span(), ScopeBlock: call.Body, ScopeEvents: b.build(call.Body.Statements, 0)})
		}
		return out
	}
}

func (b *eventBuilder) buildForwardVariablesFrom(call *ast.Call, declareArgsDepth int) []Event {
	if len(call.Args) < 2 {
		return nil
	}
	list, ok := call.Args[1].(*ast.List)
	if !ok {
		return nil
	}
	var out []Event
	for _, elem := range list.Elements {
		str, ok := elem.(*ast.StringExpr)
		if !ok || !str.Terminated {
			continue
		}
		name := gnpath.Unquote(str.Raw)
		if name == "" {
			continue
		}
		out = append(out, Event{
			Kind:    EvAssignment,
			Span:    str.Span(),
			VarName: name,
			VarSpan: str.Span(),
			IsArgs:  declareArgsDepth > 0,
		})
	}
	return out
}

func (b *eventBuilder) buildCondition(cond *ast.Condition, declareArgsDepth int) Event {
	blocks := collectConditionBranches(cond)
	branches := make([][]Event, len(blocks))
	for i, blk := range blocks {
		branches[i] = b.build(blk.Statements, declareArgsDepth)
	}
	return Event{Kind: EvConditions, Span: cond.Span(), Branches: branches}
}

// collectConditionBranches flattens an if/else-if/.../else chain into an
// ordered list of blocks, one per branch (§4.H "Conditions([then_block,
// else_block, …])").
func collectConditionBranches(cond *ast.Condition) []*ast.Block {
	blocks := []*ast.Block{cond.Then}
	switch {
	case cond.ElseIf != nil:
		blocks = append(blocks, collectConditionBranches(cond.ElseIf)...)
	case cond.Else != nil:
		blocks = append(blocks, cond.Else)
	}
	return blocks
}

// topLevelIterate visits events at the lexical scope of block in source
// order, descending transparently through Conditions and DeclareArgs and
// stopping at NewScope (§4.H "Top-level event").
func topLevelIterate(events []Event, visit func(Event)) {
	for _, ev := range events {
		switch ev.Kind {
		case EvConditions:
			for _, branch := range ev.Branches {
				topLevelIterate(branch, visit)
			}
		case EvDeclareArgs:
			topLevelIterate(ev.Body, visit)
		default:
			visit(ev)
		}
	}
}

// findContainingScope returns the unique NewScope event in the top-level
// iteration of events whose span contains pos, if any.
func findContainingScope(events []Event, pos int) *Event {
	var found *Event
	topLevelIterate(events, func(ev Event) {
		if found != nil {
			return
		}
		if ev.Kind == EvNewScope && spanContainsPos(ev.Span, pos) {
			e := ev
			found = &e
		}
	})
	return found
}

func spanContainsPos(s source.Span, pos int) bool {
	return s.Start <= pos && pos <= s.End
}

// buildConfigImportEvent is the synthetic Import event every AnalyzedFile's
// event list is prefixed with (§4.H, §8 invariant 7).
func buildConfigImportEvent(buildConfigPath string) Event {
	return Event{Kind: EvImport, Span: source.Span{}, ImportPath: buildConfigPath}
}
