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

package cache

import (
	"sync"
	"time"

	"golang.org/x/sync/singleflight"
)

// entry pairs a cached value with the Node that tracks its freshness.
type entry[T any] struct {
	node  *Node
	value T
}

// PathCache is a path-keyed cache of analyses with interior mutability
// (§5): a reader takes the shared lock just long enough to snapshot the
// current entry, then calls Verify outside the lock; on a miss, concurrent
// callers for the same path collapse onto a single recomputation via
// singleflight, and cache insertion is last-writer-wins.
type PathCache[T any] struct {
	mu      sync.RWMutex
	entries map[string]*entry[T]
	group   singleflight.Group
}

// NewPathCache returns an empty PathCache.
func NewPathCache[T any]() *PathCache[T] {
	return &PathCache[T]{entries: make(map[string]*entry[T])}
}

// Get returns the cached value for path if present and Verify(requestTime)
// reports it still fresh.
func (c *PathCache[T]) Get(path string, requestTime time.Time) (T, bool) {
	c.mu.RLock()
	e, ok := c.entries[path]
	c.mu.RUnlock()

	var zero T
	if !ok {
		return zero, false
	}
	if !e.node.Verify(requestTime) {
		return zero, false
	}
	return e.value, true
}

// GetOrCompute returns the cached, fresh value for path, computing it with
// compute if absent or stale. Concurrent GetOrCompute calls for the same
// path share one computation.
func (c *PathCache[T]) GetOrCompute(path string, requestTime time.Time, compute func() (T, *Node)) T {
	if v, ok := c.Get(path, requestTime); ok {
		return v
	}

	v, _, _ := c.group.Do(path, func() (any, error) {
		if v, ok := c.Get(path, requestTime); ok {
			return v, nil
		}
		value, node := compute()
		c.mu.Lock()
		c.entries[path] = &entry[T]{node: node, value: value}
		c.mu.Unlock()
		return value, nil
	})
	return v.(T)
}

// Values returns every currently cached value, regardless of freshness.
// Used by callers that want "everything analyzed so far" (e.g.
// cached_files) rather than a single fresh lookup.
func (c *PathCache[T]) Values() []T {
	c.mu.RLock()
	defer c.mu.RUnlock()

	out := make([]T, 0, len(c.entries))
	for _, e := range c.entries {
		out = append(out, e.value)
	}
	return out
}

// Delete drops path's entry, marking its Node stale first so any
// concurrently-held reference to it stops being trusted.
func (c *PathCache[T]) Delete(path string) {
	c.mu.Lock()
	e, ok := c.entries[path]
	delete(c.entries, path)
	c.mu.Unlock()

	if ok {
		e.node.MarkStale()
	}
}
