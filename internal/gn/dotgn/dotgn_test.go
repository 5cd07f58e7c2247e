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

package dotgn

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEvaluateHappyPath(t *testing.T) {
	path, diag := Evaluate("/w", []byte(`buildconfig = "//build/config/BUILDCONFIG.gn"`))
	require.Nil(t, diag)
	assert.Equal(t, filepath.Join("/w", "build/config/BUILDCONFIG.gn"), path)
}

func TestEvaluateRejectsCompoundOperator(t *testing.T) {
	_, diag := Evaluate("/w", []byte(`buildconfig += "//build/config/BUILDCONFIG.gn"`))
	require.NotNil(t, diag)
	assert.Contains(t, diag.Message, "'='")
}

func TestEvaluateRejectsInterpolatedString(t *testing.T) {
	_, diag := Evaluate("/w", []byte(`buildconfig = "//build/${x}/BUILDCONFIG.gn"`))
	require.NotNil(t, diag)
}

func TestEvaluateRejectsMissing(t *testing.T) {
	_, diag := Evaluate("/w", []byte(`other = 1`))
	require.NotNil(t, diag)
}

func TestEvaluateRejectsDuplicate(t *testing.T) {
	_, diag := Evaluate("/w", []byte("buildconfig = \"//a.gn\"\nbuildconfig = \"//b.gn\""))
	require.NotNil(t, diag)
}
