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

// Package analyze implements the two-tier semantic model (§4.G, §4.H):
// the shallow analyzer computes a file's exported environment, and the
// full analyzer builds the ordered event list that position-indexed
// queries are defined over.
package analyze

import "github.com/gnlang/gnls/internal/gn/source"

// Environment is a persistent, generic scope: a local map, a lexical
// parent link, and a list of imported environments, exactly the "chain of
// nodes" construction in the design notes (§9). It is shared by the
// variable, template, and target kinds via the type parameter. Sharing is
// by reference (no copy-on-import): Import just appends a pointer.
type Environment[T any] struct {
	locals  map[string]T
	parent  *Environment[T]
	imports []*Environment[T]
	merge   func(existing, incoming T) T
}

// NewEnvironment returns an empty environment. merge resolves a collision
// when Define is called twice for the same name: for variables it unions
// the assignment set; for templates and targets it keeps the first
// definition (§3 "Merge semantics").
func NewEnvironment[T any](merge func(existing, incoming T) T) *Environment[T] {
	return &Environment[T]{locals: make(map[string]T), merge: merge}
}

// NewChildEnvironment returns an environment lexically nested inside
// parent, used by the full analyzer's NewScope handling.
func NewChildEnvironment[T any](parent *Environment[T], merge func(existing, incoming T) T) *Environment[T] {
	e := NewEnvironment(merge)
	e.parent = parent
	return e
}

// Define records val under name in e's locals, merging with any existing
// local definition of the same name.
func (e *Environment[T]) Define(name string, val T) {
	if existing, ok := e.locals[name]; ok {
		e.locals[name] = e.merge(existing, val)
	} else {
		e.locals[name] = val
	}
}

// Import adds other as an imported environment of e, consulted by Get
// after locals and the parent chain, matching §3's "locals -> parent ->
// imports" lookup order.
func (e *Environment[T]) Import(other *Environment[T]) {
	if other == nil || other == e {
		return
	}
	e.imports = append(e.imports, other)
}

// Get resolves name, depth-first, consulting locals, then the parent
// chain, then imports, guarded against cycles by node identity (§9).
func (e *Environment[T]) Get(name string) (T, bool) {
	return e.get(name, make(map[*Environment[T]]bool))
}

func (e *Environment[T]) get(name string, visited map[*Environment[T]]bool) (T, bool) {
	var zero T
	if e == nil || visited[e] {
		return zero, false
	}
	visited[e] = true

	if v, ok := e.locals[name]; ok {
		return v, true
	}
	if v, ok := e.parent.get(name, visited); ok {
		return v, true
	}
	for _, imp := range e.imports {
		if v, ok := imp.get(name, visited); ok {
			return v, true
		}
	}
	return zero, false
}

// Names returns every name reachable from e (locals, parent chain, and
// imports), each exactly once, used for completion and workspace-symbol
// style queries. Order is unspecified.
func (e *Environment[T]) Names() []string {
	seen := map[string]bool{}
	visited := map[*Environment[T]]bool{}
	var out []string

	var walk func(env *Environment[T])
	walk = func(env *Environment[T]) {
		if env == nil || visited[env] {
			return
		}
		visited[env] = true
		for name := range env.locals {
			if !seen[name] {
				seen[name] = true
				out = append(out, name)
			}
		}
		walk(env.parent)
		for _, imp := range env.imports {
			walk(imp)
		}
	}
	walk(e)
	return out
}

// Local returns the locally (non-imported, non-inherited) defined value
// for name, used by diagnostics and hover which only ever want what a
// single file itself contributes.
func (e *Environment[T]) Local(name string) (T, bool) {
	v, ok := e.locals[name]
	return v, ok
}

// --- concrete entity kinds (§3) ------------------------------------------

// AnalyzedAssignment is one contributing assignment to a Variable.
type AnalyzedAssignment struct {
	Name         string
	VariableSpan source.Span
	Statement    Node // the *ast.Assignment, or nil for a synthetic
	// forward_variables_from entry
	Comments []string
}

// Node is the narrow view of a syntax node that these entity types keep:
// an *ast.Assignment for an assignment, an *ast.Call for a target.
type Node interface {
	Span() source.Span
}

// Variable is the accumulated set of assignments contributing a name,
// plus whether any of them lie inside a declare_args block.
type Variable struct {
	Assignments []AnalyzedAssignment
	IsArgs      bool
}

// MergeVariable unions two Variables' assignment sets.
func MergeVariable(existing, incoming Variable) Variable {
	out := Variable{
		Assignments: make([]AnalyzedAssignment, 0, len(existing.Assignments)+len(incoming.Assignments)),
		IsArgs:      existing.IsArgs || incoming.IsArgs,
	}
	out.Assignments = append(out.Assignments, existing.Assignments...)
	out.Assignments = append(out.Assignments, incoming.Assignments...)
	return out
}

// Template is a `template("name") { ... }` declaration.
type Template struct {
	Name       string
	HeaderSpan source.Span
	Span       source.Span
	Comments   []string
}

// MergeTemplate keeps the first-seen definition (§3).
func MergeTemplate(existing, _ Template) Template { return existing }

// Target is an invocation of a target-declaring function (a built-in
// target type, or any other call with a single string-literal argument).
type Target struct {
	Name       string
	Call       Node // the *ast.Call
	HeaderSpan source.Span
	Span       source.Span
}

// MergeTarget keeps the first-seen definition (§3).
func MergeTarget(existing, _ Target) Target { return existing }

// VarEnv, TemplateEnv, and TargetEnv are the three environment kinds every
// file analysis carries, one per §3 entity kind.
type (
	VarEnv      = Environment[Variable]
	TemplateEnv = Environment[Template]
	TargetEnv   = Environment[Target]
)

// NewVarEnv, NewTemplateEnv, and NewTargetEnv construct empty top-level
// environments of each kind with the appropriate merge policy.
func NewVarEnv() *VarEnv           { return NewEnvironment(MergeVariable) }
func NewTemplateEnv() *TemplateEnv { return NewEnvironment(MergeTemplate) }
func NewTargetEnv() *TargetEnv     { return NewEnvironment(MergeTarget) }

// Environments bundles the three environment kinds a single file
// contributes, corresponding to §3's "top-level environment" / "analyzed
// block" each hold one of.
type Environments struct {
	Vars      *VarEnv
	Templates *TemplateEnv
	Targets   *TargetEnv
}

// NewEnvironments returns three fresh, unrelated top-level environments.
func NewEnvironments() Environments {
	return Environments{Vars: NewVarEnv(), Templates: NewTemplateEnv(), Targets: NewTargetEnv()}
}

// ImportFrom imports each of other's three environments into the
// corresponding environment of e.
func (e Environments) ImportFrom(other Environments) {
	e.Vars.Import(other.Vars)
	e.Templates.Import(other.Templates)
	e.Targets.Import(other.Targets)
}
