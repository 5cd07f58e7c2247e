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
	"strings"

	"github.com/gnlang/gnls/internal/gn/ast"
	"github.com/gnlang/gnls/internal/gn/gnpath"
)

// CollectLinks walks file looking for string literals that are navigable
// references (§4.H): a simple string naming an existing file becomes a
// LinkFile, and a simple string shaped like a build label becomes a
// LinkTarget, resolved against currentPath's BUILD.gn. exists is used to
// confirm a file reference actually resolves to something on disk before
// it is reported as a link, so an ordinary quoted string that merely
// contains a slash doesn't turn into a broken navigation target.
func CollectLinks(file *ast.File, root, currentDir, currentPath string, exists func(string) bool) []Link {
	var links []Link
	var visit func(n ast.Node)
	visit = func(n ast.Node) {
		if n == nil {
			return
		}
		if str, ok := n.(*ast.StringExpr); ok {
			if link, ok := classifyStringLink(str, root, currentDir, currentPath, exists); ok {
				links = append(links, link)
			}
		}
		for _, c := range n.Children() {
			visit(c)
		}
	}
	for _, s := range file.Statements {
		visit(s)
	}
	return links
}

func classifyStringLink(str *ast.StringExpr, root, currentDir, currentPath string, exists func(string) bool) (Link, bool) {
	if !str.Terminated {
		return Link{}, false
	}
	content := gnpath.Unquote(str.Raw)
	if !gnpath.IsSimpleString(content) {
		return Link{}, false
	}
	if content == "" {
		return Link{}, false
	}

	if gnpath.LooksLikeLabel(content) {
		label, ok := gnpath.ResolveLabel(root, currentPath, content)
		if !ok {
			return Link{}, false
		}
		return Link{Kind: LinkTarget, Path: label.BuildFile, Name: label.Name, Span: str.Span()}, true
	}

	if !looksLikeFileReference(content) {
		return Link{}, false
	}
	resolved := gnpath.ResolveFile(root, currentDir, content)
	if exists == nil || !exists(resolved) {
		return Link{}, false
	}
	return Link{Kind: LinkFile, Path: resolved, Span: str.Span()}, true
}

// looksLikeFileReference filters out strings that are plainly not paths
// (flag values, target names used bare, single words with no extension)
// before an existence check is even attempted.
func looksLikeFileReference(s string) bool {
	return strings.Contains(s, ".")
}
