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

package diagnostics

import (
	"testing"
	"time"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gnlang/gnls/internal/gn/analyze"
	"github.com/gnlang/gnls/internal/gn/source"
)

func newTestFullAnalyzer(t *testing.T, files map[string]string) *analyze.FullAnalyzer {
	t.Helper()
	fs := afero.NewMemMapFs()
	for path, content := range files {
		require.NoError(t, afero.WriteFile(fs, path, []byte(content), 0o644))
	}
	store := source.NewStore(fs)
	return analyze.NewFullAnalyzer("/root", "/root/build/BUILDCONFIG.gn", store)
}

func TestDiagnoseReportsSyntaxErrors(t *testing.T) {
	fa := newTestFullAnalyzer(t, map[string]string{
		"/root/build/BUILDCONFIG.gn": `is_linux = true` + "\n",
		"/root/BUILD.gn":             `x = [1, 2 3]` + "\n",
	})

	af := fa.Analyze("/root/BUILD.gn", time.Now())
	require.Nil(t, af.Err)

	diags := Diagnose(af, Config{ReportSyntaxErrors: true}, time.Now())
	require.NotEmpty(t, diags)
	assert.Equal(t, SeverityError, diags[0].Severity)
}

func TestDiagnoseSkipsDisabledPasses(t *testing.T) {
	fa := newTestFullAnalyzer(t, map[string]string{
		"/root/build/BUILDCONFIG.gn": `is_linux = true` + "\n",
		"/root/BUILD.gn":             `x = undefined_name` + "\n",
	})

	af := fa.Analyze("/root/BUILD.gn", time.Now())
	require.Nil(t, af.Err)

	diags := Diagnose(af, Config{}, time.Now())
	assert.Empty(t, diags)
}

func TestDiagnoseReportsUndefinedIdentifier(t *testing.T) {
	fa := newTestFullAnalyzer(t, map[string]string{
		"/root/build/BUILDCONFIG.gn": `is_linux = true` + "\n",
		"/root/BUILD.gn":             `x = undefined_name` + "\n",
	})

	af := fa.Analyze("/root/BUILD.gn", time.Now())
	require.Nil(t, af.Err)

	diags := Diagnose(af, Config{ReportUndefinedIdentifiers: true}, time.Now())
	require.Len(t, diags, 1)
	assert.Contains(t, diags[0].Message, "undefined_name")
	assert.Equal(t, SeverityWarning, diags[0].Severity)
}

func TestDiagnoseHonorsBuiltinsAndBuildConfigImport(t *testing.T) {
	fa := newTestFullAnalyzer(t, map[string]string{
		"/root/build/BUILDCONFIG.gn": `is_linux = true` + "\n",
		"/root/BUILD.gn": `
if (is_linux) {
  x = true
}
`,
	})

	af := fa.Analyze("/root/BUILD.gn", time.Now())
	require.Nil(t, af.Err)

	diags := Diagnose(af, Config{ReportUndefinedIdentifiers: true}, time.Now())
	assert.Empty(t, diags)
}
