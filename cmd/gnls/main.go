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

package main

import (
	"fmt"
	"os"

	"github.com/alecthomas/kong"

	"github.com/gnlang/gnls/internal/version"
)

type versionFlag bool

func (v versionFlag) BeforeApply(ctx *kong.Context) error { //nolint:unparam
	fmt.Fprintln(ctx.Stdout, version.GetVersion())
	ctx.Exit(0)
	return nil
}

type cli struct {
	Version versionFlag `short:"v" name:"version" help:"Print version and exit."`

	Serve serveCmd `cmd:"" help:"Start the GN language server on stdio."`
}

func main() {
	c := cli{}
	parser := kong.Must(&c,
		kong.Name("gnls"),
		kong.Description("A language server for the GN build language."),
	)

	if len(os.Args) == 1 {
		_, err := parser.Parse([]string{"--help"})
		parser.FatalIfErrorf(err)
		return
	}

	kongCtx, err := parser.Parse(os.Args[1:])
	parser.FatalIfErrorf(err)
	kongCtx.FatalIfErrorf(kongCtx.Run())
}
