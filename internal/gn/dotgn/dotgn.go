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

// Package dotgn evaluates a workspace-root `.gn` file far enough to
// extract its `buildconfig` assignment (§4.E). It understands exactly one
// construct and rejects everything else with a pinned diagnostic, rather
// than attempting anything resembling general GN evaluation.
package dotgn

import (
	"github.com/gnlang/gnls/internal/gn/ast"
	"github.com/gnlang/gnls/internal/gn/gnpath"
	"github.com/gnlang/gnls/internal/gn/parser"
	"github.com/gnlang/gnls/internal/gn/source"
)

// Diagnosis is a single-location parse/validation failure produced while
// evaluating a `.gn` file.
type Diagnosis struct {
	Message string
	Span    source.Span
}

// Evaluate parses the bytes of a workspace root's `.gn` file and resolves
// its `buildconfig` assignment to an absolute path. root is the
// workspace's root directory, used to resolve a "//"-prefixed value.
//
// Exactly one top-level `buildconfig = "<simple-string>"` assignment is
// accepted: a compound operator (`+=`/`-=`), a non-simple string (one
// containing `\` or `$`), more than one assignment, or no assignment at
// all each produce a Diagnosis pinned to the offending position instead of
// a result.
func Evaluate(root string, src []byte) (string, *Diagnosis) {
	file := parser.Parse(src)

	var found *ast.Assignment
	for _, stmt := range file.Statements {
		a, ok := stmt.(*ast.Assignment)
		if !ok {
			continue
		}
		id, ok := a.LHS.(*ast.Identifier)
		if !ok || id.Name != "buildconfig" {
			continue
		}
		if found != nil {
			return "", &Diagnosis{
				Message: "multiple 'buildconfig' assignments",
				Span:    a.Span(),
			}
		}
		found = a
	}

	if found == nil {
		return "", &Diagnosis{
			Message: "missing 'buildconfig = \"...\"' assignment",
			Span:    source.Span{Start: 0, End: 0},
		}
	}
	if found.Op != ast.AssignEq {
		return "", &Diagnosis{
			Message: "'buildconfig' must be assigned with '='",
			Span:    found.Span(),
		}
	}

	str, ok := found.RHS.(*ast.StringExpr)
	if !ok || !str.Terminated {
		return "", &Diagnosis{
			Message: "'buildconfig' must be assigned a string literal",
			Span:    found.RHS.Span(),
		}
	}
	content := gnpath.Unquote(str.Raw)
	if !gnpath.IsSimpleString(content) {
		return "", &Diagnosis{
			Message: "'buildconfig' string must not contain '\\' or '$'",
			Span:    str.Span(),
		}
	}

	return gnpath.ResolveFile(root, root, content), nil
}
