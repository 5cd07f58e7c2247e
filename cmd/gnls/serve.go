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
	"context"
	"fmt"
	"os"

	"github.com/crossplane/crossplane-runtime/pkg/logging"
	"github.com/go-logr/logr/funcr"
	"github.com/sourcegraph/jsonrpc2"

	"github.com/gnlang/gnls/internal/gnls"
	"github.com/gnlang/gnls/internal/gnls/handler"
)

type serveCmd struct {
	Debug bool `name:"debug" help:"Emit debug logging to stderr."`
}

func (c *serveCmd) Run() error {
	log := logging.NewNopLogger()
	if c.Debug {
		log = logging.NewLogrLogger(funcr.New(func(prefix, args string) {
			fmt.Fprintln(os.Stderr, prefix, args)
		}, funcr.Options{}))
	}

	h, err := handler.New(handler.WithLogger(log))
	if err != nil {
		return err
	}

	stream := jsonrpc2.NewBufferedStream(gnls.StdRWC{}, jsonrpc2.VSCodeObjectCodec{})
	conn := jsonrpc2.NewConn(context.Background(), stream, h)
	<-conn.DisconnectNotify()
	return nil
}
