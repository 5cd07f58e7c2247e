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

// Package workspace maps a file to its workspace context (the nearest
// ancestor directory holding a `.gn` file) and owns one FullAnalyzer per
// workspace, recreating it whenever the `.gn` file's version changes
// (§4.I).
package workspace

import (
	"context"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/crossplane/crossplane-runtime/pkg/errors"
	"github.com/crossplane/crossplane-runtime/pkg/logging"
	"golang.org/x/sync/errgroup"

	"github.com/gnlang/gnls/internal/gn/analyze"
	"github.com/gnlang/gnls/internal/gn/dotgn"
	"github.com/gnlang/gnls/internal/gn/source"
)

const (
	dotGNName   = ".gn"
	buildGNName = "BUILD.gn"

	errNoWorkspace  = "no ancestor .gn file found"
	errReadDotGN    = "failed to read .gn file"
	errEvalDotGN    = "failed to evaluate .gn file"
)

// Context is the immutable identity of one workspace instance (§3
// "Workspace context"): every analysis reachable from it observes the same
// build_config_path for its lifetime.
type Context struct {
	Root            string
	DotGNVersion    source.Version
	BuildConfigPath string
}

// entry pairs a workspace Context with the FullAnalyzer instance built for
// it; replaced wholesale when DotGNVersion changes. indexed is closed once
// the workspace's initial index pass (§5) has finished, gating cross-file
// queries that would otherwise see a partial CachedFiles() view.
type entry struct {
	ctx      Context
	analyzer *analyze.FullAnalyzer

	indexed     chan struct{}
	indexedOnce sync.Once
}

// Router maps absolute file paths to their workspace's FullAnalyzer,
// keyed by workspace root, recreating an entry whenever its `.gn` changes.
type Router struct {
	store *source.Store
	log   logging.Logger

	existsFn func(string) bool

	mu      sync.RWMutex
	entries map[string]*entry

	mainMu   sync.RWMutex
	mainRoot string
	hasMain  bool
}

// Option customizes a Router.
type Option func(*Router)

// WithLogger overrides the Router's logger.
func WithLogger(l logging.Logger) Option {
	return func(r *Router) { r.log = l }
}

// WithMainWorkspace designates root as the "main" workspace: a path under
// it is always routed there even if a nested `.gn` exists (§4.I).
func WithMainWorkspace(root string) Option {
	return func(r *Router) {
		r.mainRoot = root
		r.hasMain = true
	}
}

// New constructs a Router backed by store.
func New(store *source.Store, opts ...Option) *Router {
	r := &Router{
		store:   store,
		log:     logging.NewNopLogger(),
		entries: make(map[string]*entry),
	}
	r.existsFn = func(path string) bool {
		_, err := store.ReadVersion(path)
		return err == nil
	}
	for _, o := range opts {
		o(r)
	}
	return r
}

// AnalyzerFor returns the FullAnalyzer for the workspace containing path,
// recreating it if the workspace's `.gn` file has changed since the entry
// was built.
func (r *Router) AnalyzerFor(path string) (*analyze.FullAnalyzer, Context, error) {
	root, err := r.rootFor(path)
	if err != nil {
		return nil, Context{}, err
	}

	dotGNPath := filepath.Join(root, dotGNName)
	ver, err := r.store.ReadVersion(dotGNPath)
	if err != nil {
		return nil, Context{}, errors.Wrap(err, errReadDotGN)
	}

	r.mu.RLock()
	e, ok := r.entries[root]
	r.mu.RUnlock()
	if ok && e.ctx.DotGNVersion.Equal(ver) {
		return e.analyzer, e.ctx, nil
	}

	return r.rebuild(root, ver)
}

func (r *Router) rebuild(root string, ver source.Version) (*analyze.FullAnalyzer, Context, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	// Double-checked: another writer may have rebuilt this root already.
	if e, ok := r.entries[root]; ok && e.ctx.DotGNVersion.Equal(ver) {
		return e.analyzer, e.ctx, nil
	}

	dotGNPath := filepath.Join(root, dotGNName)
	doc, err := r.store.Read(dotGNPath)
	if err != nil {
		return nil, Context{}, errors.Wrap(err, errReadDotGN)
	}
	buildConfigPath, diag := dotgn.Evaluate(root, doc.Bytes)
	if diag != nil {
		return nil, Context{}, errors.New(errEvalDotGN + ": " + diag.Message)
	}

	ctx := Context{Root: root, DotGNVersion: ver, BuildConfigPath: buildConfigPath}
	e := &entry{
		ctx:      ctx,
		analyzer: analyze.NewFullAnalyzer(root, buildConfigPath, r.store),
		indexed:  make(chan struct{}),
	}
	r.entries[root] = e
	r.log.Debug("rebuilt workspace", "root", root)
	return e.analyzer, ctx, nil
}

// MarkIndexed signals that root's initial index pass has finished, waking
// every WaitIndexed caller blocked on it. Safe to call more than once, and a
// no-op if root has no entry yet (e.g. it was never visited by AnalyzerFor).
func (r *Router) MarkIndexed(root string) {
	r.mu.RLock()
	e, ok := r.entries[root]
	r.mu.RUnlock()
	if !ok {
		return
	}
	e.indexedOnce.Do(func() { close(e.indexed) })
}

// WaitIndexed blocks until root has been marked indexed or ctx is done,
// whichever comes first (§5): cross-file queries (references, workspace
// symbols) call this before scanning every analyzed file so a request
// arriving in the gap between initialize and the index pass completing
// doesn't silently return results from only the files analyzed so far.
func (r *Router) WaitIndexed(ctx context.Context, root string) error {
	r.mu.RLock()
	e, ok := r.entries[root]
	r.mu.RUnlock()
	if !ok {
		return errors.New(errNoWorkspace)
	}
	select {
	case <-e.indexed:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// rootFor ancestor-scans from the directory containing path for a `.gn`
// file; path itself is never checked, even if it names a directory. If a main
// workspace is configured and path lies beneath it, the main workspace
// root is preferred even if a nearer ancestor `.gn` exists.
func (r *Router) rootFor(path string) (string, error) {
	r.mainMu.RLock()
	mainRoot, hasMain := r.mainRoot, r.hasMain
	r.mainMu.RUnlock()

	if hasMain && isUnder(mainRoot, path) && r.existsFn(filepath.Join(mainRoot, dotGNName)) {
		return mainRoot, nil
	}

	dir := filepath.Dir(path)
	for {
		if r.existsFn(filepath.Join(dir, dotGNName)) {
			return dir, nil
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", errors.New(errNoWorkspace)
		}
		dir = parent
	}
}

func isUnder(root, path string) bool {
	rel, err := filepath.Rel(root, path)
	if err != nil {
		return false
	}
	return rel == "." || !strings.HasPrefix(rel, "..")
}

// IndexInitiallyOpenFiles shallow-analyzes every file currently held as an
// in-memory overlay concurrently, each in the workspace its own path
// routes to. This is the "initially open files" half of the indexing
// signal described in §5; the directory-walk half is an external
// collaborator (§1) that calls AnalyzerFor per discovered file instead.
// Every workspace root touched along the way, plus the configured main
// workspace (if any), is marked indexed once this pass completes, which is
// the whole of the indexing this process performs on its own.
func (r *Router) IndexInitiallyOpenFiles(ctx context.Context, requestTime time.Time) error {
	roots := make(map[string]struct{})
	var rootsMu sync.Mutex
	touch := func(root string) {
		rootsMu.Lock()
		roots[root] = struct{}{}
		rootsMu.Unlock()
	}

	r.mainMu.RLock()
	mainRoot, hasMain := r.mainRoot, r.hasMain
	r.mainMu.RUnlock()
	if hasMain {
		if _, wctx, err := r.AnalyzerFor(BuildGNPathFor(mainRoot)); err == nil {
			touch(wctx.Root)
		}
	}

	docs := r.store.MemoryDocs()
	g, _ := errgroup.WithContext(ctx)
	for _, doc := range docs {
		doc := doc
		g.Go(func() error {
			fa, wctx, err := r.AnalyzerFor(doc.Path)
			if err != nil {
				// A file with no workspace is skipped rather than failing
				// the whole index pass.
				return nil
			}
			fa.Shallow().AnalyzeShallow(doc.Path, requestTime)
			touch(wctx.Root)
			return nil
		})
	}
	err := g.Wait()

	for root := range roots {
		r.MarkIndexed(root)
	}
	return err
}

// BuildGNPathFor returns the BUILD.gn path a directory's target
// declarations live in, used by providers that need to resolve a bare
// directory reference to its build file.
func BuildGNPathFor(dir string) string {
	return filepath.Join(dir, buildGNName)
}
