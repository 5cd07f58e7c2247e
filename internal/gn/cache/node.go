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

// Package cache implements freshness tracking for analyses: a per-file
// Node records the document version an analysis was computed from and its
// dependency Nodes, and can be asked to Verify itself against a later
// point in time without ever un-staling (§4.F, §8 invariant 5).
package cache

import (
	"sync"
	"time"

	"github.com/gnlang/gnls/internal/gn/source"
)

// onDiskTTL is how long an OnDisk or AnalysisError node's verification
// result is trusted before the next request forces a disk stat (§5's "TTL
// on verification (5s for on-disk, 0 for in-memory)").
const onDiskTTL = 5 * time.Second

// VersionReader is the minimal capability Node needs from the document
// store: the cheap version-only read used by the fast path of Verify.
type VersionReader interface {
	ReadVersion(path string) (source.Version, error)
}

// Node is a single entry in the dependency graph of an analysis: the file
// it was computed from, the version it was computed against, and the
// Nodes of the files it transitively depends on (imports, the synthetic
// BUILDCONFIG import, etc).
type Node struct {
	mu sync.RWMutex

	path    string
	version source.Version
	deps    []*Node
	reader  VersionReader

	stale       bool
	hasDeadline bool
	validUntil  time.Time
}

// NewNode constructs a Node for path, recorded as computed against ver
// with the given dependency Nodes. reader is used by Verify to re-check
// path's current version; it may be nil for a Node that will never need
// disk verification (e.g. a pure in-memory error sentinel), in which case
// Verify always treats a version mismatch as impossible to detect and
// simply trusts the stored version until something calls MarkStale.
func NewNode(path string, ver source.Version, deps []*Node, reader VersionReader) *Node {
	return &Node{path: path, version: ver, deps: deps, reader: reader}
}

// MarkStale transitions the node to Stale immediately. Once stale, a node
// never returns true from Verify again (monotonicity, §8 invariant 5).
func (n *Node) MarkStale() {
	n.mu.Lock()
	n.stale = true
	n.mu.Unlock()
}

// Verify implements the five-step contract of §4.F: a fast shared-lock
// path answers from cached state when possible; the slow path takes the
// exclusive lock, re-checks the deadline (double-checked locking, so two
// concurrent misses do at most one disk stat and one dependency walk), and
// only then re-verifies against the document store and dependencies.
func (n *Node) Verify(requestTime time.Time) bool {
	if ok, done := n.fastPath(requestTime); done {
		return ok
	}

	n.mu.Lock()
	defer n.mu.Unlock()

	if n.stale {
		return false
	}
	if n.hasDeadline && !requestTime.After(n.validUntil) {
		return true
	}

	if n.reader != nil {
		cur, err := n.reader.ReadVersion(n.path)
		switch {
		case err != nil && n.version.Kind != source.AnalysisError:
			// The file existed (or was expected to) and is now
			// unreadable: a real change.
			n.stale = true
			return false
		case err == nil && n.version.Kind == source.AnalysisError:
			// A previously-missing dependency now exists.
			n.stale = true
			return false
		case err == nil && !cur.Equal(n.version):
			n.stale = true
			return false
		}
		// err != nil && n.version.Kind == AnalysisError: still missing,
		// exactly as recorded — not a change.
	}

	for _, dep := range n.deps {
		if !dep.Verify(requestTime) {
			n.stale = true
			return false
		}
	}

	n.validUntil, n.hasDeadline = deadlineFor(n.version, requestTime)
	return true
}

// fastPath implements steps 1 and 2 under a shared lock only; done is
// false when the slow path must run.
func (n *Node) fastPath(requestTime time.Time) (ok bool, done bool) {
	n.mu.RLock()
	defer n.mu.RUnlock()

	if n.stale {
		return false, true
	}
	if n.hasDeadline && !requestTime.After(n.validUntil) {
		return true, true
	}
	return false, false
}

func deadlineFor(ver source.Version, requestTime time.Time) (time.Time, bool) {
	if ver.Kind == source.InMemory {
		return requestTime, true
	}
	return requestTime.Add(onDiskTTL), true
}
