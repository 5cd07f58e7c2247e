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
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gnlang/gnls/internal/gn/source"
)

type fakeReader struct {
	versions map[string]source.Version
	missing  map[string]bool
}

func (f *fakeReader) ReadVersion(path string) (source.Version, error) {
	if f.missing[path] {
		return source.Version{}, source.ErrNotFound
	}
	return f.versions[path], nil
}

func TestVerifyFastPathWithinTTL(t *testing.T) {
	reader := &fakeReader{versions: map[string]source.Version{"a": {Kind: source.OnDisk, ModTime: time.Unix(1, 0)}}}
	n := NewNode("a", reader.versions["a"], nil, reader)

	t0 := time.Unix(100, 0)
	require.True(t, n.Verify(t0))

	// Change the on-disk version without the node knowing; within the TTL
	// window Verify must not re-stat and so must still report fresh.
	reader.versions["a"] = source.Version{Kind: source.OnDisk, ModTime: time.Unix(2, 0)}
	assert.True(t, n.Verify(t0.Add(1*time.Second)))
}

func TestVerifyDetectsChangeAfterTTL(t *testing.T) {
	reader := &fakeReader{versions: map[string]source.Version{"a": {Kind: source.OnDisk, ModTime: time.Unix(1, 0)}}}
	n := NewNode("a", reader.versions["a"], nil, reader)

	t0 := time.Unix(100, 0)
	require.True(t, n.Verify(t0))

	reader.versions["a"] = source.Version{Kind: source.OnDisk, ModTime: time.Unix(2, 0)}
	assert.False(t, n.Verify(t0.Add(6*time.Second)))
}

func TestVerifyIsMonotone(t *testing.T) {
	reader := &fakeReader{missing: map[string]bool{"a": true}}
	n := NewNode("a", source.Version{Kind: source.OnDisk, ModTime: time.Unix(1, 0)}, nil, reader)

	t0 := time.Unix(100, 0)
	require.False(t, n.Verify(t0))
	assert.False(t, n.Verify(t0.Add(1000*time.Second)))
}

func TestVerifyPropagatesDependencyStaleness(t *testing.T) {
	depReader := &fakeReader{missing: map[string]bool{"dep": true}}
	dep := NewNode("dep", source.Version{Kind: source.OnDisk, ModTime: time.Unix(1, 0)}, nil, depReader)

	parentReader := &fakeReader{versions: map[string]source.Version{"parent": {Kind: source.OnDisk, ModTime: time.Unix(1, 0)}}}
	parent := NewNode("parent", parentReader.versions["parent"], []*Node{dep}, parentReader)

	assert.False(t, parent.Verify(time.Unix(100, 0)))
}

func TestInMemoryReVerifiesEveryRequest(t *testing.T) {
	reader := &fakeReader{versions: map[string]source.Version{"a": {Kind: source.InMemory, Revision: 1}}}
	n := NewNode("a", reader.versions["a"], nil, reader)

	t0 := time.Unix(100, 0)
	require.True(t, n.Verify(t0))

	reader.versions["a"] = source.Version{Kind: source.InMemory, Revision: 2}
	assert.False(t, n.Verify(t0.Add(time.Millisecond)))
}
