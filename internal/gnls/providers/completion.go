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

package providers

import (
	"time"

	"github.com/sourcegraph/go-lsp"

	"github.com/gnlang/gnls/internal/gn/analyze"
	"github.com/gnlang/gnls/internal/gn/builtins"
)

// Completion lists every name visible at offset: variables, templates,
// target types, and built-in functions, deduplicated by name.
func Completion(af *analyze.AnalyzedFile, offset int, requestTime time.Time) []lsp.CompletionItem {
	seen := map[string]bool{}
	var items []lsp.CompletionItem

	add := func(name string, kind lsp.CompletionItemKind, detail string) {
		if seen[name] {
			return
		}
		seen[name] = true
		items = append(items, lsp.CompletionItem{Label: name, Kind: kind, Detail: detail})
	}

	for _, name := range af.VariablesAt(offset, requestTime).Names() {
		add(name, lsp.CIKVariable, "variable")
	}
	for _, name := range af.TemplatesAt(offset, requestTime).Names() {
		add(name, lsp.CIKFunction, "template")
	}
	for _, name := range af.TargetsAt(offset, requestTime).Names() {
		add(name, lsp.CIKFunction, "target")
	}
	for name := range builtins.Functions {
		add(name, lsp.CIKFunction, "built-in function")
	}
	for name := range builtins.TargetTypes {
		add(name, lsp.CIKClass, "built-in target type")
	}
	for name := range builtins.Symbols {
		add(name, lsp.CIKVariable, "built-in")
	}
	return items
}
