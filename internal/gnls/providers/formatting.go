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

package providers

import (
	"bytes"
	"context"
	"os/exec"

	"github.com/crossplane/crossplane-runtime/pkg/errors"
	"github.com/sourcegraph/go-lsp"

	"github.com/gnlang/gnls/internal/gn/source"
)

const errFormatFailed = "gn format failed"

// Format shells out to the gn binary to format doc's contents, returning a
// single edit replacing the whole document. There is no formatting logic
// in this module: gn is the only thing that knows GN's canonical style.
func Format(ctx context.Context, doc *source.Document) ([]lsp.TextEdit, error) {
	cmd := exec.CommandContext(ctx, "gn", "format", "--stdin")
	cmd.Stdin = bytes.NewReader(doc.Bytes)

	var out bytes.Buffer
	cmd.Stdout = &out
	if err := cmd.Run(); err != nil {
		return nil, errors.Wrap(err, errFormatFailed)
	}

	end := doc.Lines.Position(len(doc.Bytes))
	return []lsp.TextEdit{{
		Range:   lsp.Range{Start: lsp.Position{Line: 0, Character: 0}, End: lsp.Position{Line: end.Line, Character: end.Character}},
		NewText: out.String(),
	}}, nil
}
