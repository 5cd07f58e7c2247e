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

package source

import "time"

// VersionKind discriminates the origin of a Document's content.
type VersionKind int

const (
	// OnDisk indicates the document's bytes were read from the filesystem.
	OnDisk VersionKind = iota
	// InMemory indicates the document's bytes are an editor overlay.
	InMemory
	// AnalysisError is a sentinel used by analyses built over a document
	// that could not be read at all.
	AnalysisError
)

// Version tags a Document with enough information to detect staleness.
// OnDisk documents carry the file's modification time; InMemory documents
// carry the editor's revision counter for that buffer.
type Version struct {
	Kind     VersionKind
	ModTime  time.Time
	Revision int
}

// Equal reports whether two versions refer to the same content.
func (v Version) Equal(o Version) bool {
	if v.Kind != o.Kind {
		return false
	}
	switch v.Kind {
	case InMemory:
		return v.Revision == o.Revision
	case OnDisk:
		return v.ModTime.Equal(o.ModTime)
	default:
		return true
	}
}

// Document is an immutable snapshot of a file's bytes, plus the line index
// built over them. Once created, a Document's bytes and index are never
// reallocated; a new edit produces a new Document rather than mutating this
// one.
type Document struct {
	Path    string
	Bytes   []byte
	Ver     Version
	Lines   *LineIndex
}

// NewDocument constructs a Document, building its line index eagerly since
// almost every consumer needs it.
func NewDocument(path string, b []byte, ver Version) *Document {
	return &Document{
		Path:  path,
		Bytes: b,
		Ver:   ver,
		Lines: NewLineIndex(b),
	}
}

// Text returns the document's bytes as a string.
func (d *Document) Text() string {
	return string(d.Bytes)
}

// Slice returns the bytes covered by span.
func (d *Document) Slice(span Span) []byte {
	if span.Start < 0 || span.End > len(d.Bytes) || span.Start > span.End {
		return nil
	}
	return d.Bytes[span.Start:span.End]
}
