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
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"

	"github.com/gnlang/gnls/internal/gn/parser"
	"github.com/gnlang/gnls/internal/gn/source"
)

// cmpSymbols compares symbol trees by shape (kind, name, nesting) and
// deliberately ignores Span: exact offsets are covered by the parser's own
// span-containment tests, and pinning them here would make this test brittle
// to whitespace changes in src.
func cmpSymbols(t *testing.T, got, want []Symbol) {
	t.Helper()
	if diff := cmp.Diff(want, got, cmpopts.IgnoreFields(Symbol{}, "Span")); diff != "" {
		t.Errorf("symbol tree mismatch (-want +got):\n%s", diff)
	}
}

func TestBuildSymbolsVariableAndTemplate(t *testing.T) {
	src := `
foo = 1
template("my_template") {
  sources = [ "a.cc" ]
}
`
	doc := source.NewDocument("/root/BUILD.gn", []byte(src), source.Version{})
	file := parser.Parse([]byte(src))

	got := BuildSymbols(doc, file.Statements)
	want := []Symbol{
		{Kind: SymVariable, Name: "foo"},
		{Kind: SymFunction, Name: `template("my_template")`, Children: []Symbol{
			{Kind: SymVariable, Name: "sources"},
		}},
	}
	cmpSymbols(t, got, want)
}

func TestBuildSymbolsIfElseChain(t *testing.T) {
	src := `
if (is_linux) {
  defines = [ "LINUX" ]
} else if (is_mac) {
  defines = [ "MAC" ]
} else {
  defines = [ "OTHER" ]
}
`
	doc := source.NewDocument("/root/BUILD.gn", []byte(src), source.Version{})
	file := parser.Parse([]byte(src))

	got := BuildSymbols(doc, file.Statements)
	want := []Symbol{
		{Kind: SymNamespace, Name: "if(is_linux)", Children: []Symbol{
			{Kind: SymVariable, Name: "defines"},
			{Kind: SymNamespace, Name: "else if(is_mac)", Children: []Symbol{
				{Kind: SymVariable, Name: "defines"},
				{Kind: SymNamespace, Name: "else", Children: []Symbol{
					{Kind: SymVariable, Name: "defines"},
				}},
			}},
		}},
	}
	cmpSymbols(t, got, want)
}

func TestBuildSymbolsSkipsErrorStatements(t *testing.T) {
	src := "@@@\nfoo = 1\n"
	doc := source.NewDocument("/root/BUILD.gn", []byte(src), source.Version{})
	file := parser.Parse([]byte(src))

	got := BuildSymbols(doc, file.Statements)
	want := []Symbol{
		{Kind: SymVariable, Name: "foo"},
	}
	cmpSymbols(t, got, want)
}
