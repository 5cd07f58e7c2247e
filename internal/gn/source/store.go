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

import (
	"os"
	"sync"

	"github.com/crossplane/crossplane-runtime/pkg/errors"
	"github.com/spf13/afero"
)

const (
	errReadFile = "failed to read file"
	errStatFile = "failed to stat file"
)

// ErrNotFound is returned by Read and ReadVersion when path has neither an
// in-memory overlay nor a backing file on disk.
var ErrNotFound = errors.New("document not found")

// Store is the single source of truth for document bytes. It layers an
// editor's in-memory overlays (opened buffers) over an afero.Fs backing
// store, exactly as a language server's "give me the current text of this
// file" call must. A single coarse-grained mutex guards the overlay map;
// document construction itself (building a LineIndex) happens outside the
// lock.
type Store struct {
	fs afero.Fs

	mu       sync.Mutex
	overlays map[string]*Document
}

// NewStore constructs a Store backed by fs. Use afero.NewOsFs() in
// production and afero.NewMemMapFs() in tests.
func NewStore(fs afero.Fs) *Store {
	return &Store{
		fs:       fs,
		overlays: make(map[string]*Document),
	}
}

// ReadVersion reports the Version a Read of path would currently produce,
// without reading the bytes. It is the cheap half of cache verification
// (§5/§4.F): checking staleness should not require reading file contents.
func (s *Store) ReadVersion(path string) (Version, error) {
	if ver, ok := s.overlayVersion(path); ok {
		return ver, nil
	}
	info, err := s.fs.Stat(path)
	if err != nil {
		if isNotExist(err) {
			return Version{}, ErrNotFound
		}
		return Version{}, errors.Wrap(err, errStatFile)
	}
	return Version{Kind: OnDisk, ModTime: info.ModTime()}, nil
}

// Read returns the current Document for path: the in-memory overlay if one
// is loaded, otherwise the on-disk contents.
func (s *Store) Read(path string) (*Document, error) {
	if doc, ok := s.overlayDoc(path); ok {
		return doc, nil
	}
	b, err := afero.ReadFile(s.fs, path)
	if err != nil {
		if isNotExist(err) {
			return nil, ErrNotFound
		}
		return nil, errors.Wrap(err, errReadFile)
	}
	info, err := s.fs.Stat(path)
	if err != nil {
		return nil, errors.Wrap(err, errStatFile)
	}
	return NewDocument(path, b, Version{Kind: OnDisk, ModTime: info.ModTime()}), nil
}

// LoadToMemory installs or replaces an in-memory overlay for path, as when
// an editor sends textDocument/didOpen or textDocument/didChange. revision
// should be monotonically increasing per path; callers typically pass an
// LSP document version.
func (s *Store) LoadToMemory(path string, text string, revision int) {
	doc := NewDocument(path, []byte(text), Version{Kind: InMemory, Revision: revision})

	s.mu.Lock()
	defer s.mu.Unlock()
	s.overlays[path] = doc
}

// UnloadFromMemory removes path's overlay, as when an editor sends
// textDocument/didClose. Subsequent reads fall back to disk.
func (s *Store) UnloadFromMemory(path string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.overlays, path)
}

// MemoryDocs returns every document currently held as an in-memory overlay.
// Order is unspecified.
func (s *Store) MemoryDocs() []*Document {
	s.mu.Lock()
	defer s.mu.Unlock()

	docs := make([]*Document, 0, len(s.overlays))
	for _, d := range s.overlays {
		docs = append(docs, d)
	}
	return docs
}

func (s *Store) overlayDoc(path string) (*Document, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	d, ok := s.overlays[path]
	return d, ok
}

func (s *Store) overlayVersion(path string) (Version, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	d, ok := s.overlays[path]
	if !ok {
		return Version{}, false
	}
	return d.Ver, true
}

func isNotExist(err error) bool {
	return os.IsNotExist(err)
}
