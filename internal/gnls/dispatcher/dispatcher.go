// Copyright 2022 Upbound Inc
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

// Package dispatcher routes incoming JSON-RPC requests and notifications
// to the Server method that handles them.
package dispatcher

import (
	"context"
	"encoding/json"

	"github.com/crossplane/crossplane-runtime/pkg/logging"
	"github.com/sourcegraph/go-lsp"
	"github.com/sourcegraph/jsonrpc2"
)

const errParseParams = "failed to parse request parameters"

// Server defines the set of LSP methods the dispatcher can route to.
// Notification handlers take only a context and params; request handlers
// additionally take the connection and request ID so they can reply.
type Server interface {
	Initialize(ctx context.Context, conn *jsonrpc2.Conn, id jsonrpc2.ID, params *lsp.InitializeParams)
	DidOpen(ctx context.Context, params *lsp.DidOpenTextDocumentParams)
	DidChange(ctx context.Context, params *lsp.DidChangeTextDocumentParams)
	DidSave(ctx context.Context, params *lsp.DidSaveTextDocumentParams)
	DidClose(ctx context.Context, params *lsp.DidCloseTextDocumentParams)
	DidChangeWatchedFiles(ctx context.Context, params *lsp.DidChangeWatchedFilesParams)
	Hover(ctx context.Context, conn *jsonrpc2.Conn, id jsonrpc2.ID, params *lsp.TextDocumentPositionParams)
	Definition(ctx context.Context, conn *jsonrpc2.Conn, id jsonrpc2.ID, params *lsp.TextDocumentPositionParams)
	Completion(ctx context.Context, conn *jsonrpc2.Conn, id jsonrpc2.ID, params *lsp.TextDocumentPositionParams)
	References(ctx context.Context, conn *jsonrpc2.Conn, id jsonrpc2.ID, params *lsp.ReferenceParams)
	DocumentSymbol(ctx context.Context, conn *jsonrpc2.Conn, id jsonrpc2.ID, params *lsp.DocumentSymbolParams)
	DocumentLink(ctx context.Context, conn *jsonrpc2.Conn, id jsonrpc2.ID, params *lsp.DocumentLinkParams)
	WorkspaceSymbol(ctx context.Context, conn *jsonrpc2.Conn, id jsonrpc2.ID, params *lsp.WorkspaceSymbolParams)
	Formatting(ctx context.Context, conn *jsonrpc2.Conn, id jsonrpc2.ID, params *lsp.DocumentFormattingParams)
}

// Dispatcher routes incoming JSON-RPC request events to the Server method
// that handles them.
type Dispatcher struct {
	log logging.Logger
}

// New returns a new Dispatcher.
func New(opts ...Option) *Dispatcher {
	d := &Dispatcher{
		log: logging.NewNopLogger(),
	}
	for _, o := range opts {
		o(d)
	}
	return d
}

// Option overrides default Dispatcher behavior.
type Option func(*Dispatcher)

// WithLogger overrides the default logging.Logger for the Dispatcher.
func WithLogger(l logging.Logger) Option {
	return func(d *Dispatcher) {
		d.log = l
	}
}

// Dispatch routes r to the Server method that handles it.
func (d *Dispatcher) Dispatch(ctx context.Context, server Server, conn *jsonrpc2.Conn, r *jsonrpc2.Request) { // nolint:gocyclo
	switch r.Method {
	case "initialize":
		var params lsp.InitializeParams
		if err := json.Unmarshal(*r.Params, &params); err != nil {
			// Nothing useful can happen without a workspace root.
			panic(err)
		}
		server.Initialize(ctx, conn, r.ID, &params)
	case "initialized", "$/cancelRequest":
		// No response required.
	case "textDocument/didOpen":
		var params lsp.DidOpenTextDocumentParams
		if d.unmarshal(r, &params) {
			server.DidOpen(ctx, &params)
		}
	case "textDocument/didChange":
		var params lsp.DidChangeTextDocumentParams
		if d.unmarshal(r, &params) {
			server.DidChange(ctx, &params)
		}
	case "textDocument/didSave":
		var params lsp.DidSaveTextDocumentParams
		if d.unmarshal(r, &params) {
			server.DidSave(ctx, &params)
		}
	case "textDocument/didClose":
		var params lsp.DidCloseTextDocumentParams
		if d.unmarshal(r, &params) {
			server.DidClose(ctx, &params)
		}
	case "workspace/didChangeWatchedFiles":
		var params lsp.DidChangeWatchedFilesParams
		if d.unmarshal(r, &params) {
			server.DidChangeWatchedFiles(ctx, &params)
		}
	case "textDocument/hover":
		var params lsp.TextDocumentPositionParams
		if d.unmarshal(r, &params) {
			server.Hover(ctx, conn, r.ID, &params)
		}
	case "textDocument/definition":
		var params lsp.TextDocumentPositionParams
		if d.unmarshal(r, &params) {
			server.Definition(ctx, conn, r.ID, &params)
		}
	case "textDocument/completion":
		var params lsp.TextDocumentPositionParams
		if d.unmarshal(r, &params) {
			server.Completion(ctx, conn, r.ID, &params)
		}
	case "textDocument/references":
		var params lsp.ReferenceParams
		if d.unmarshal(r, &params) {
			server.References(ctx, conn, r.ID, &params)
		}
	case "textDocument/documentSymbol":
		var params lsp.DocumentSymbolParams
		if d.unmarshal(r, &params) {
			server.DocumentSymbol(ctx, conn, r.ID, &params)
		}
	case "textDocument/documentLink":
		var params lsp.DocumentLinkParams
		if d.unmarshal(r, &params) {
			server.DocumentLink(ctx, conn, r.ID, &params)
		}
	case "workspace/symbol":
		var params lsp.WorkspaceSymbolParams
		if d.unmarshal(r, &params) {
			server.WorkspaceSymbol(ctx, conn, r.ID, &params)
		}
	case "textDocument/formatting":
		var params lsp.DocumentFormattingParams
		if d.unmarshal(r, &params) {
			server.Formatting(ctx, conn, r.ID, &params)
		}
	default:
		d.log.Debug("unhandled method", "method", r.Method)
	}
}

func (d *Dispatcher) unmarshal(r *jsonrpc2.Request, v interface{}) bool {
	if r.Params == nil {
		return false
	}
	if err := json.Unmarshal(*r.Params, v); err != nil {
		d.log.Debug(errParseParams, "method", r.Method, "error", err)
		return false
	}
	return true
}
