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

package workspace

import (
	"context"
	"testing"
	"time"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gnlang/gnls/internal/gn/source"
)

func newTestRouter(t *testing.T, files map[string]string) (*Router, *source.Store) {
	t.Helper()
	fs := afero.NewMemMapFs()
	for path, content := range files {
		require.NoError(t, afero.WriteFile(fs, path, []byte(content), 0o644))
	}
	store := source.NewStore(fs)
	return New(store), store
}

func TestAnalyzerForFindsAncestorDotGN(t *testing.T) {
	r, _ := newTestRouter(t, map[string]string{
		"/w/.gn":                  `buildconfig = "//build/BUILDCONFIG.gn"` + "\n",
		"/w/build/BUILDCONFIG.gn": `is_linux = true` + "\n",
		"/w/foo/bar/BUILD.gn":     `x = 1` + "\n",
	})

	fa, ctx, err := r.AnalyzerFor("/w/foo/bar/BUILD.gn")
	require.NoError(t, err)
	assert.Equal(t, "/w", ctx.Root)
	assert.Equal(t, "/w/build/BUILDCONFIG.gn", ctx.BuildConfigPath)

	af := fa.Analyze("/w/foo/bar/BUILD.gn", time.Now())
	require.Nil(t, af.Err)
	require.NotEmpty(t, af.Events)
	assert.Equal(t, "/w/build/BUILDCONFIG.gn", af.Events[0].ImportPath)
}

func TestAnalyzerForMissingWorkspaceErrors(t *testing.T) {
	r, _ := newTestRouter(t, map[string]string{
		"/w/foo/bar.gni": `x = 1` + "\n",
	})

	_, _, err := r.AnalyzerFor("/w/foo/bar.gni")
	assert.Error(t, err)
}

func TestAnalyzerForRebuildsOnDotGNChange(t *testing.T) {
	r, store := newTestRouter(t, map[string]string{
		"/w/.gn":            `buildconfig = "//a.gni"` + "\n",
		"/w/a.gni":          `a = 1` + "\n",
		"/w/b.gni":          `b = 2` + "\n",
		"/w/foo/BUILD.gn":   `x = 1` + "\n",
	})

	fa1, _, err := r.AnalyzerFor("/w/foo/BUILD.gn")
	require.NoError(t, err)

	store.LoadToMemory("/w/.gn", `buildconfig = "//b.gni"`+"\n", 1)

	fa2, ctx2, err := r.AnalyzerFor("/w/foo/BUILD.gn")
	require.NoError(t, err)
	assert.NotSame(t, fa1, fa2)
	assert.Equal(t, "/w/b.gni", ctx2.BuildConfigPath)
}

func TestAnalyzerForPrefersMainWorkspace(t *testing.T) {
	r, _ := newTestRouter(t, map[string]string{
		"/main/.gn":              `buildconfig = "//build.gni"` + "\n",
		"/main/build.gni":        `is_linux = true` + "\n",
		"/main/nested/.gn":       `buildconfig = "//inner.gni"` + "\n",
		"/main/nested/inner.gni": `x = 1` + "\n",
		"/main/nested/BUILD.gn":  `y = 1` + "\n",
	})
	WithMainWorkspace("/main")(r)

	_, ctx, err := r.AnalyzerFor("/main/nested/BUILD.gn")
	require.NoError(t, err)
	assert.Equal(t, "/main", ctx.Root)
}

func TestIndexInitiallyOpenFilesSkipsFilesOutsideAnyWorkspace(t *testing.T) {
	r, store := newTestRouter(t, map[string]string{
		"/w/.gn":          `buildconfig = "//base.gni"` + "\n",
		"/w/base.gni":     `is_linux = true` + "\n",
		"/w/BUILD.gn":     `x = 1` + "\n",
		"/orphan/foo.gni": `y = 1` + "\n",
	})
	store.LoadToMemory("/w/BUILD.gn", "x = 1\n", 1)
	store.LoadToMemory("/orphan/foo.gni", "y = 1\n", 1)

	err := r.IndexInitiallyOpenFiles(context.Background(), time.Now())
	assert.NoError(t, err)
}

func TestIndexInitiallyOpenFilesMarksTouchedWorkspaceIndexed(t *testing.T) {
	r, store := newTestRouter(t, map[string]string{
		"/w/.gn":      `buildconfig = "//base.gni"` + "\n",
		"/w/base.gni": `is_linux = true` + "\n",
		"/w/BUILD.gn": `x = 1` + "\n",
	})
	store.LoadToMemory("/w/BUILD.gn", "x = 1\n", 1)

	require.NoError(t, r.IndexInitiallyOpenFiles(context.Background(), time.Now()))

	require.NoError(t, r.WaitIndexed(context.Background(), "/w"))
}

func TestWaitIndexedBlocksUntilMarked(t *testing.T) {
	r, _ := newTestRouter(t, map[string]string{
		"/w/.gn":          `buildconfig = "//base.gni"` + "\n",
		"/w/base.gni":     `is_linux = true` + "\n",
		"/w/foo/BUILD.gn": `x = 1` + "\n",
	})
	_, _, err := r.AnalyzerFor("/w/foo/BUILD.gn")
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	assert.ErrorIs(t, r.WaitIndexed(ctx, "/w"), context.DeadlineExceeded)

	r.MarkIndexed("/w")
	require.NoError(t, r.WaitIndexed(context.Background(), "/w"))
}

func TestMarkIndexedIsIdempotent(t *testing.T) {
	r, _ := newTestRouter(t, map[string]string{
		"/w/.gn":          `buildconfig = "//base.gni"` + "\n",
		"/w/base.gni":     `is_linux = true` + "\n",
		"/w/foo/BUILD.gn": `x = 1` + "\n",
	})
	_, _, err := r.AnalyzerFor("/w/foo/BUILD.gn")
	require.NoError(t, err)

	r.MarkIndexed("/w")
	assert.NotPanics(t, func() { r.MarkIndexed("/w") })
}

func TestWaitIndexedOnUnknownWorkspaceErrors(t *testing.T) {
	r, _ := newTestRouter(t, map[string]string{})
	assert.Error(t, r.WaitIndexed(context.Background(), "/never-visited"))
}
