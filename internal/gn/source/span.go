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

// Package source holds the document model and byte<->position conversion
// that every later stage of analysis is built on.
package source

// Span is an inclusive-exclusive byte range into the bytes of the document
// that produced it. A zero-length span (Start == End) is valid and is used
// for synthetic and error-recovery nodes.
type Span struct {
	Start int
	End   int
}

// Contains reports whether s fully contains o.
func (s Span) Contains(o Span) bool {
	return s.Start <= o.Start && o.End <= s.End
}

// Len returns the number of bytes the span covers.
func (s Span) Len() int {
	return s.End - s.Start
}

// Union returns the smallest span containing both s and o. It is used to
// compute a parent span from the span of its first and last child.
func Union(a, b Span) Span {
	s := a
	if b.Start < s.Start {
		s.Start = b.Start
	}
	if b.End > s.End {
		s.End = b.End
	}
	return s
}
