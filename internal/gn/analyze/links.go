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

import "github.com/gnlang/gnls/internal/gn/source"

// LinkKind discriminates the two shapes of AnalyzedLink (§3).
type LinkKind int

const (
	LinkFile LinkKind = iota
	LinkTarget
)

// Link is a navigable reference discovered in a string literal: either a
// plain file path or a build-label target reference (§4.H).
type Link struct {
	Kind LinkKind
	Path string // resolved absolute file path (the BUILD.gn for LinkTarget)
	Name string // target name; empty for LinkFile
	Span source.Span
}
