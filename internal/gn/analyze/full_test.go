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

import (
	"strings"
	"testing"
	"time"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gnlang/gnls/internal/gn/source"
)

func newTestFullAnalyzer(t *testing.T, files map[string]string) *FullAnalyzer {
	t.Helper()
	fs := afero.NewMemMapFs()
	for path, content := range files {
		require.NoError(t, afero.WriteFile(fs, path, []byte(content), 0o644))
	}
	store := source.NewStore(fs)
	return NewFullAnalyzer("/root", "/root/build/BUILDCONFIG.gn", store)
}

func TestAnalyzeEventsBeginWithSyntheticBuildConfigImport(t *testing.T) {
	fa := newTestFullAnalyzer(t, map[string]string{
		"/root/build/BUILDCONFIG.gn": `is_linux = true` + "\n",
		"/root/BUILD.gn":             `x = 1` + "\n",
	})

	af := fa.Analyze("/root/BUILD.gn", time.Now())
	require.Nil(t, af.Err)
	require.NotEmpty(t, af.Events)
	assert.Equal(t, EvImport, af.Events[0].Kind)
	assert.Equal(t, "/root/build/BUILDCONFIG.gn", af.Events[0].ImportPath)
}

func TestVariablesAtReflectsOnlyPrecedingAssignments(t *testing.T) {
	src := `a = 1
b = 2
`
	fa := newTestFullAnalyzer(t, map[string]string{
		"/root/build/BUILDCONFIG.gn": `is_linux = true` + "\n",
		"/root/BUILD.gn":             src,
	})

	af := fa.Analyze("/root/BUILD.gn", time.Now())
	require.Nil(t, af.Err)

	mid := strings.Index(src, "b = 2")
	env := af.VariablesAt(mid, time.Now())
	_, ok := env.Local("a")
	assert.True(t, ok)
	_, ok = env.Local("b")
	assert.False(t, ok, "b is assigned after the query position")
}

func TestVariablesAtMergesBothConditionalBranches(t *testing.T) {
	src := `if (is_linux) {
  only_linux = 1
} else {
  only_other = 1
}
after_condition = 1
`
	fa := newTestFullAnalyzer(t, map[string]string{
		"/root/build/BUILDCONFIG.gn": `is_linux = true` + "\n",
		"/root/BUILD.gn":             src,
	})

	af := fa.Analyze("/root/BUILD.gn", time.Now())
	require.Nil(t, af.Err)

	pos := strings.Index(src, "after_condition")
	env := af.VariablesAt(pos, time.Now())
	_, ok := env.Local("only_linux")
	assert.True(t, ok, "expected merged-union semantics across both branches")
	_, ok = env.Local("only_other")
	assert.True(t, ok, "expected merged-union semantics across both branches")
}

func TestVariablesAtInsideTargetBodySeesEnclosingScope(t *testing.T) {
	src := `outer = 1
executable("my_exe") {
  sources = [ outer ]
}
`
	fa := newTestFullAnalyzer(t, map[string]string{
		"/root/build/BUILDCONFIG.gn": `is_linux = true` + "\n",
		"/root/BUILD.gn":             src,
	})

	af := fa.Analyze("/root/BUILD.gn", time.Now())
	require.Nil(t, af.Err)

	pos := strings.Index(src, "sources")
	env := af.VariablesAt(pos, time.Now())
	_, ok := env.Get("outer")
	assert.True(t, ok, "expected the target body's environment to inherit the enclosing scope")
}

func TestTargetsReturnsNestedScopeTargets(t *testing.T) {
	src := `group("g") {
}
if (is_linux) {
  executable("e") {
  }
}
`
	fa := newTestFullAnalyzer(t, map[string]string{
		"/root/build/BUILDCONFIG.gn": `is_linux = true` + "\n",
		"/root/BUILD.gn":             src,
	})

	af := fa.Analyze("/root/BUILD.gn", time.Now())
	require.Nil(t, af.Err)

	targets := af.Targets()
	names := make([]string, len(targets))
	for i, tgt := range targets {
		names[i] = tgt.Name
	}
	assert.ElementsMatch(t, []string{"g", "e"}, names)
}

func TestErrorsReportsSyntaxErrorNodes(t *testing.T) {
	fa := newTestFullAnalyzer(t, map[string]string{
		"/root/build/BUILDCONFIG.gn": `is_linux = true` + "\n",
		"/root/BUILD.gn":             `x = [1, 2 3]` + "\n",
	})

	af := fa.Analyze("/root/BUILD.gn", time.Now())
	require.Nil(t, af.Err)
	assert.NotEmpty(t, af.Errors())
}
