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
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gnlang/gnls/internal/gn/ast"
)

func allErrors(root ast.Node) []ast.ErrorKind {
	var kinds []ast.ErrorKind
	ast.Walk(root, func(n ast.Node) bool {
		if k, ok := ast.AsError(n); ok {
			kinds = append(kinds, k)
		}
		return true
	})
	return kinds
}

func TestParseSmoke(t *testing.T) {
	src := "a = 1\nb += [1, 2]\nif (x) { c = 3 } else { c = 4 }"
	file := Parse([]byte(src))

	require.Len(t, file.Statements, 3)
	_, isAssign1 := file.Statements[0].(*ast.Assignment)
	_, isAssign2 := file.Statements[1].(*ast.Assignment)
	_, isCond := file.Statements[2].(*ast.Condition)
	assert.True(t, isAssign1)
	assert.True(t, isAssign2)
	assert.True(t, isCond)

	assert.Empty(t, allErrors(file))
}

func TestParseMissingComma(t *testing.T) {
	src := "a = [1, 2 3]"
	file := Parse([]byte(src))

	require.Len(t, file.Statements, 1)
	assign, ok := file.Statements[0].(*ast.Assignment)
	require.True(t, ok)

	list, ok := assign.RHS.(*ast.List)
	require.True(t, ok)
	require.Len(t, list.Elements, 4)

	marker, ok := list.Elements[2].(*ast.ErrorExpr)
	require.True(t, ok)
	assert.Equal(t, ast.MissingComma, marker.Kind)
	assert.Equal(t, 9, marker.Span().Start)
	assert.Equal(t, 9, marker.Span().End)
}

func TestParseUnterminatedString(t *testing.T) {
	src := "a = \"bb\n"
	file := Parse([]byte(src))

	errs := allErrors(file)
	require.Len(t, errs, 1)
	assert.Equal(t, ast.UnterminatedString, errs[0])

	assign := file.Statements[0].(*ast.Assignment)
	str, ok := assign.RHS.(*ast.StringExpr)
	require.True(t, ok)
	assert.False(t, str.Terminated)
	assert.Equal(t, "\"bb\n", str.Raw)
}

func TestSpanContainment(t *testing.T) {
	src := `import("//build/config.gni")
template("mylib") {
  sources = [ "a.cc", "b.cc" ]
}
if (is_linux) {
  defines = [ "LINUX" ]
} else if (is_mac) {
  defines = [ "MAC" ]
} else {
  defines = [ "OTHER" ]
}`
	file := Parse([]byte(src))
	assert.Empty(t, allErrors(file))

	var check func(n ast.Node)
	check = func(n ast.Node) {
		for _, c := range n.Children() {
			if c == nil {
				continue
			}
			assert.True(t, n.Span().Contains(c.Span()), "span of %T does not contain child %T", n, c)
			check(c)
		}
	}
	check(file)
}

func TestCommentAttachment(t *testing.T) {
	src := "# leading comment\na = 1\n\n# orphaned by blank line\n\nb = 2"
	file := Parse([]byte(src))
	require.Len(t, file.Statements, 2)

	a := file.Statements[0].(*ast.Assignment)
	assert.Equal(t, []string{"# leading comment"}, a.Comments)

	b := file.Statements[1].(*ast.Assignment)
	assert.Empty(t, b.Comments)
}

func TestStringEmbeds(t *testing.T) {
	src := `a = "hello $name and ${1 + 2}"`
	file := Parse([]byte(src))
	assign := file.Statements[0].(*ast.Assignment)
	str := assign.RHS.(*ast.StringExpr)

	embeds := str.Embeds()
	require.Len(t, embeds, 2)

	ident, ok := embeds[0].Expr.(*ast.Identifier)
	require.True(t, ok)
	assert.Equal(t, "name", ident.Name)

	_, ok = embeds[1].Expr.(*ast.BinaryExpr)
	require.True(t, ok)
}

func TestUnknownStatementRecovers(t *testing.T) {
	src := "@@@\na = 1"
	file := Parse([]byte(src))
	require.Len(t, file.Statements, 2)

	_, ok := file.Statements[0].(*ast.ErrorStmt)
	require.True(t, ok)

	_, ok = file.Statements[1].(*ast.Assignment)
	require.True(t, ok)
}
