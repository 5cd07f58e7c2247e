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

// Package gnpath implements the path and label resolution grammar (§6,
// §4.H) shared by the `.gn` evaluator, the shallow analyzer's import
// resolution, and the full analyzer's link collection.
package gnpath

import (
	"path/filepath"
	"strings"
)

// ResolveFile resolves a string appearing where a file path is expected.
// `//x/y` resolves against root; anything else resolves against
// currentDir, the directory of the file the string appeared in.
func ResolveFile(root, currentDir, raw string) string {
	if rel, ok := strings.CutPrefix(raw, "//"); ok {
		return filepath.Join(root, rel)
	}
	return filepath.Join(currentDir, raw)
}

// IsSimpleString reports whether raw (the string's content, without
// surrounding quotes) contains neither escapes nor interpolation, matching
// the "simple string literal" glossary term used by the `.gn` evaluator,
// link collection and go-to-definition on string literals.
func IsSimpleString(raw string) bool {
	return !strings.ContainsAny(raw, "\\$")
}

// Unquote strips the surrounding double quotes from a string token's raw
// text. It assumes raw begins with `"`; if raw is not properly terminated
// the trailing quote may be absent, in which case the text after the
// opening quote is returned unchanged.
func Unquote(raw string) string {
	if len(raw) == 0 || raw[0] != '"' {
		return raw
	}
	inner := raw[1:]
	if len(inner) > 0 && inner[len(inner)-1] == '"' {
		inner = inner[:len(inner)-1]
	}
	return inner
}

// LooksLikeLabel reports whether a string is shaped like a GN label
// (contains ':' or starts with "//") rather than a plain file reference.
func LooksLikeLabel(s string) bool {
	return strings.Contains(s, ":") || strings.HasPrefix(s, "//")
}

// Label is a resolved target reference: the BUILD.gn file that defines it,
// and the target name within that file.
type Label struct {
	BuildFile string
	Name      string
}

// ResolveLabel resolves a label string found in a file located at
// currentBuildFile (a path ending in "BUILD.gn") within a workspace rooted
// at root, per §4.H's four forms:
//
//	//dir:name  -> <root>/dir/BUILD.gn, target "name"
//	//dir       -> <root>/dir/BUILD.gn, target = last path segment
//	:name       -> same file,           target "name"
//	rel:name    -> <dir of currentBuildFile>/rel/BUILD.gn, target "name"
func ResolveLabel(root, currentBuildFile, label string) (Label, bool) {
	switch {
	case strings.HasPrefix(label, "//"):
		rest := strings.TrimPrefix(label, "//")
		dir, name, hasColon := strings.Cut(rest, ":")
		if !hasColon {
			dir = rest
			name = lastSegment(rest)
		}
		return Label{BuildFile: filepath.Join(root, dir, "BUILD.gn"), Name: name}, true

	case strings.HasPrefix(label, ":"):
		return Label{BuildFile: currentBuildFile, Name: strings.TrimPrefix(label, ":")}, true

	default:
		dir, name, hasColon := strings.Cut(label, ":")
		if !hasColon {
			return Label{}, false
		}
		base := filepath.Dir(currentBuildFile)
		return Label{BuildFile: filepath.Join(base, dir, "BUILD.gn"), Name: name}, true
	}
}

func lastSegment(p string) string {
	p = strings.TrimSuffix(p, "/")
	if i := strings.LastIndex(p, "/"); i >= 0 {
		return p[i+1:]
	}
	return p
}
