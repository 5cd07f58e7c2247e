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
	"testing"
	"time"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gnlang/gnls/internal/gn/source"
)

func newTestAnalyzer(t *testing.T, files map[string]string) (*ShallowAnalyzer, *source.Store) {
	t.Helper()
	fs := afero.NewMemMapFs()
	for path, content := range files {
		require.NoError(t, afero.WriteFile(fs, path, []byte(content), 0o644))
	}
	store := source.NewStore(fs)
	return NewShallowAnalyzer("/root", store), store
}

func TestShallowAnalyzeExportsVariablesTemplatesTargets(t *testing.T) {
	sa, _ := newTestAnalyzer(t, map[string]string{
		"/root/BUILD.gn": `
foo = 1
template("my_template") {
}
executable("my_exe") {
}
`,
	})

	res := sa.AnalyzeShallow("/root/BUILD.gn", time.Time{})
	require.Nil(t, res.Err)

	_, ok := res.Envs.Vars.Local("foo")
	assert.True(t, ok, "expected foo to be exported")

	_, ok = res.Envs.Templates.Local("my_template")
	assert.True(t, ok, "expected my_template to be exported")

	_, ok = res.Envs.Targets.Local("my_exe")
	assert.True(t, ok, "expected my_exe to be exported")
}

func TestShallowAnalyzeFollowsImport(t *testing.T) {
	sa, _ := newTestAnalyzer(t, map[string]string{
		"/root/BUILD.gn":     `import("//lib.gni")` + "\n",
		"/root/lib.gni":      `shared_var = 42` + "\n",
	})

	res := sa.AnalyzeShallow("/root/BUILD.gn", time.Time{})
	v, ok := res.Envs.Vars.Get("shared_var")
	require.True(t, ok)
	assert.Len(t, v.Assignments, 1)
}

func TestShallowAnalyzeImportCycleYieldsEmptyEnvironment(t *testing.T) {
	sa, _ := newTestAnalyzer(t, map[string]string{
		"/root/a.gni": `import("//b.gni")` + "\n" + `a_var = 1` + "\n",
		"/root/b.gni": `import("//a.gni")` + "\n" + `b_var = 2` + "\n",
	})

	res := sa.AnalyzeShallow("/root/a.gni", time.Time{})
	// a.gni directly defines a_var; the cycle edge back through b.gni
	// resolves to an empty environment rather than hanging or erroring.
	_, ok := res.Envs.Vars.Local("a_var")
	assert.True(t, ok)
}

func TestShallowAnalyzeMissingImportIsAbsorbed(t *testing.T) {
	sa, _ := newTestAnalyzer(t, map[string]string{
		"/root/BUILD.gn": `import("//missing.gni")` + "\n" + `x = 1` + "\n",
	})

	res := sa.AnalyzeShallow("/root/BUILD.gn", time.Time{})
	require.Nil(t, res.Err)
	_, ok := res.Envs.Vars.Local("x")
	assert.True(t, ok)
}

func TestShallowAnalyzeDeclareArgsMarksIsArgs(t *testing.T) {
	sa, _ := newTestAnalyzer(t, map[string]string{
		"/root/BUILD.gn": `
declare_args() {
  enable_feature = false
}
`,
	})

	res := sa.AnalyzeShallow("/root/BUILD.gn", time.Time{})
	v, ok := res.Envs.Vars.Local("enable_feature")
	require.True(t, ok)
	assert.True(t, v.IsArgs)
}

func TestShallowAnalyzeForwardVariablesFromExportsListedNames(t *testing.T) {
	sa, _ := newTestAnalyzer(t, map[string]string{
		"/root/BUILD.gn": `
forward_variables_from(invoker, ["deps", "sources"])
`,
	})

	res := sa.AnalyzeShallow("/root/BUILD.gn", time.Time{})
	_, ok := res.Envs.Vars.Local("deps")
	assert.True(t, ok)
	_, ok = res.Envs.Vars.Local("sources")
	assert.True(t, ok)
}

func TestShallowAnalyzeUnderscorePrefixedNamesAreNotExported(t *testing.T) {
	sa, _ := newTestAnalyzer(t, map[string]string{
		"/root/BUILD.gn": `_private = 1` + "\n",
	})

	res := sa.AnalyzeShallow("/root/BUILD.gn", time.Time{})
	_, ok := res.Envs.Vars.Local("_private")
	assert.False(t, ok)
}

func TestShallowAnalyzeReflectsRecomputationOnChange(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "/root/BUILD.gn", []byte("a = 1\n"), 0o644))
	store := source.NewStore(fs)
	sa := NewShallowAnalyzer("/root", store)

	t0 := time.Now()
	res := sa.AnalyzeShallow("/root/BUILD.gn", t0)
	_, ok := res.Envs.Vars.Local("a")
	require.True(t, ok)
	_, ok = res.Envs.Vars.Local("b")
	require.False(t, ok)

	store.LoadToMemory("/root/BUILD.gn", "b = 2\n", 1)
	t1 := t0.Add(time.Hour)
	res = sa.AnalyzeShallow("/root/BUILD.gn", t1)
	_, ok = res.Envs.Vars.Local("b")
	assert.True(t, ok, "expected recomputation to observe the new overlay")
}
