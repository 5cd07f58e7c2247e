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

// Package server implements the LSP request and notification handlers for
// a GN workspace: document lifecycle, diagnostics publishing, and the
// navigation/completion/formatting requests built over package analyze.
package server

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/crossplane/crossplane-runtime/pkg/logging"
	"github.com/google/uuid"
	"github.com/sourcegraph/go-lsp"
	"github.com/sourcegraph/jsonrpc2"
	"github.com/spf13/afero"

	"github.com/gnlang/gnls/internal/gn/analyze"
	"github.com/gnlang/gnls/internal/gn/diagnostics"
	"github.com/gnlang/gnls/internal/gn/source"
	"github.com/gnlang/gnls/internal/gn/workspace"
	"github.com/gnlang/gnls/internal/gnls/providers"
)

const (
	fileProtocol = "file://"

	errPublishDiagnostics = "failed to publish diagnostics"

	// indexWaitTimeout bounds how long a cross-file query (references,
	// workspace/symbol) waits for its workspace's initial index pass before
	// proceeding anyway with whatever has been analyzed so far: the
	// directory-walk half of indexing (§5) is an external collaborator this
	// process may never see, so waiting unboundedly would hang the request.
	indexWaitTimeout = 2 * time.Second
)

// Server services incoming LSP requests for a single client connection.
type Server struct {
	conn *jsonrpc2.Conn
	log  logging.Logger

	mu     sync.RWMutex
	store  *source.Store
	router *workspace.Router
	root   string

	diagCfg diagnostics.Config
}

// New returns a new Server backed by an OS filesystem.
func New(opts ...Option) (*Server, error) {
	s := &Server{
		log: logging.NewNopLogger(),
		diagCfg: diagnostics.Config{
			ReportSyntaxErrors:         true,
			ReportUndefinedIdentifiers: true,
		},
	}
	s.store = source.NewStore(afero.NewOsFs())
	for _, o := range opts {
		o(s)
	}
	return s, nil
}

// Option overrides default Server behavior.
type Option func(*Server)

// WithLogger overrides the default logging.Logger for the Server.
func WithLogger(l logging.Logger) Option {
	return func(s *Server) {
		s.log = l
	}
}

// Initialize handles the initialize request, rooting the workspace router
// at the client-supplied root and replying with our capabilities.
func (s *Server) Initialize(ctx context.Context, conn *jsonrpc2.Conn, id jsonrpc2.ID, params *lsp.InitializeParams) {
	s.conn = conn

	root := filenameOf(params.RootURI)
	if root == "" {
		root = params.RootPath
	}

	s.mu.Lock()
	s.root = root
	s.router = workspace.New(s.store, workspace.WithLogger(s.log), workspace.WithMainWorkspace(root))
	s.mu.Unlock()

	go func() {
		if err := s.router.IndexInitiallyOpenFiles(context.Background(), time.Now()); err != nil {
			s.log.Debug("failed to index initially open files", "error", err)
		}
	}()

	syncKind := lsp.TDSKFull
	completion := true
	reply := lsp.InitializeResult{
		Capabilities: lsp.ServerCapabilities{
			TextDocumentSync: &lsp.TextDocumentSyncOptionsOrKind{
				Kind: &syncKind,
			},
			HoverProvider:           true,
			DefinitionProvider:      true,
			ReferencesProvider:      true,
			DocumentSymbolProvider:  true,
			DocumentLinkProvider:    &lsp.DocumentLinkOptions{},
			WorkspaceSymbolProvider: true,
			DocumentFormattingProvider: true,
			CompletionProvider: &lsp.CompletionOptions{
				ResolveProvider: &completion,
			},
		},
	}
	if err := conn.Reply(ctx, id, reply); err != nil {
		panic(err)
	}
}

// DidOpen handles textDocument/didOpen.
func (s *Server) DidOpen(ctx context.Context, params *lsp.DidOpenTextDocumentParams) {
	path := filenameOf(params.TextDocument.URI)
	s.log.Debug("overlay loaded", "overlay", uuid.New().String(), "path", path, "revision", params.TextDocument.Version)
	s.store.LoadToMemory(path, params.TextDocument.Text, params.TextDocument.Version)
	s.publishFor(ctx, params.TextDocument.URI, path)
}

// DidChange handles textDocument/didChange. Sync is advertised as Full, so
// the last content change always carries the document's entire new text.
func (s *Server) DidChange(ctx context.Context, params *lsp.DidChangeTextDocumentParams) {
	if len(params.ContentChanges) == 0 {
		return
	}
	path := filenameOf(params.TextDocument.URI)
	text := params.ContentChanges[len(params.ContentChanges)-1].Text
	s.store.LoadToMemory(path, text, params.TextDocument.Version)
	s.publishFor(ctx, params.TextDocument.URI, path)
}

// DidSave handles textDocument/didSave; saved content is already reflected
// in the overlay by prior didChange notifications, so this just
// re-publishes diagnostics against the current state.
func (s *Server) DidSave(ctx context.Context, params *lsp.DidSaveTextDocumentParams) {
	path := filenameOf(params.TextDocument.URI)
	s.publishFor(ctx, params.TextDocument.URI, path)
}

// DidClose handles textDocument/didClose, dropping the in-memory overlay
// and clearing any diagnostics published for it.
func (s *Server) DidClose(ctx context.Context, params *lsp.DidCloseTextDocumentParams) {
	path := filenameOf(params.TextDocument.URI)
	s.store.UnloadFromMemory(path)
	s.publishDiagnostics(ctx, params.TextDocument.URI, nil)
}

// DidChangeWatchedFiles handles workspace/didChangeWatchedFiles, which for
// this server only matters for `.gn` and `BUILD.gn` files that were edited
// outside the client's buffers: the workspace router picks up `.gn`
// version changes lazily on the next AnalyzerFor call, so there is nothing
// to eagerly invalidate here beyond re-publishing diagnostics for the
// files the client tells us changed.
func (s *Server) DidChangeWatchedFiles(ctx context.Context, params *lsp.DidChangeWatchedFilesParams) {
	for _, c := range params.Changes {
		if !strings.HasPrefix(string(c.URI), fileProtocol) {
			continue
		}
		s.publishFor(ctx, c.URI, filenameOf(c.URI))
	}
}

func (s *Server) publishFor(ctx context.Context, uri lsp.DocumentURI, path string) {
	s.mu.RLock()
	router := s.router
	s.mu.RUnlock()
	if router == nil {
		return
	}

	reqID := uuid.New().String()
	now := time.Now()
	fa, _, err := router.AnalyzerFor(path)
	if err != nil {
		s.log.Debug("no workspace for file", "request", reqID, "path", path, "error", err)
		return
	}

	af := fa.Analyze(path, now)
	diags := diagnostics.Diagnose(af, s.diagCfg, now)
	s.log.Debug("diagnostics computed", "request", reqID, "path", path, "count", len(diags))
	s.publishDiagnostics(ctx, uri, diags)
}

func (s *Server) publishDiagnostics(ctx context.Context, uri lsp.DocumentURI, diags []diagnostics.Diagnostic) {
	lspDiags := make([]lsp.Diagnostic, 0, len(diags))
	doc, err := s.store.Read(filenameOf(uri))
	for _, d := range diags {
		rng := lsp.Range{}
		if err == nil {
			start, end := doc.Lines.Range(d.Span)
			rng = lsp.Range{
				Start: lsp.Position{Line: start.Line, Character: start.Character},
				End:   lsp.Position{Line: end.Line, Character: end.Character},
			}
		}
		lspDiags = append(lspDiags, lsp.Diagnostic{
			Range:    rng,
			Severity: severityOf(d.Severity),
			Source:   "gnls",
			Message:  d.Message,
		})
	}

	if err := s.conn.Notify(ctx, "textDocument/publishDiagnostics", &lsp.PublishDiagnosticsParams{
		URI:         uri,
		Diagnostics: lspDiags,
	}); err != nil {
		s.log.Debug(errPublishDiagnostics, "error", err)
	}
}

func severityOf(sev diagnostics.Severity) lsp.DiagnosticSeverity {
	if sev == diagnostics.SeverityWarning {
		return lsp.Warning
	}
	return lsp.Error
}

// Hover handles textDocument/hover.
func (s *Server) Hover(ctx context.Context, conn *jsonrpc2.Conn, id jsonrpc2.ID, params *lsp.TextDocumentPositionParams) {
	af, offset, now, _, ok := s.analyzeAt(params.TextDocument.URI, params.Position)
	if !ok {
		s.reply(ctx, conn, id, nil)
		return
	}
	hover, ok := providers.Hover(af, offset, now)
	if !ok {
		s.reply(ctx, conn, id, nil)
		return
	}
	s.reply(ctx, conn, id, hover)
}

// Definition handles textDocument/definition.
func (s *Server) Definition(ctx context.Context, conn *jsonrpc2.Conn, id jsonrpc2.ID, params *lsp.TextDocumentPositionParams) {
	af, offset, now, _, ok := s.analyzeAt(params.TextDocument.URI, params.Position)
	if !ok {
		s.reply(ctx, conn, id, []lsp.Location{})
		return
	}
	s.reply(ctx, conn, id, providers.Definition(af, offset, now))
}

// Completion handles textDocument/completion.
func (s *Server) Completion(ctx context.Context, conn *jsonrpc2.Conn, id jsonrpc2.ID, params *lsp.TextDocumentPositionParams) {
	af, offset, now, _, ok := s.analyzeAt(params.TextDocument.URI, params.Position)
	if !ok {
		s.reply(ctx, conn, id, []lsp.CompletionItem{})
		return
	}
	s.reply(ctx, conn, id, providers.Completion(af, offset, now))
}

// References handles textDocument/references.
func (s *Server) References(ctx context.Context, conn *jsonrpc2.Conn, id jsonrpc2.ID, params *lsp.ReferenceParams) {
	af, offset, now, root, ok := s.analyzeAt(params.TextDocument.URI, params.Position)
	if !ok {
		s.reply(ctx, conn, id, []lsp.Location{})
		return
	}
	s.waitIndexed(ctx, root)
	s.reply(ctx, conn, id, providers.References(af, offset, now))
}

// DocumentSymbol handles textDocument/documentSymbol.
func (s *Server) DocumentSymbol(ctx context.Context, conn *jsonrpc2.Conn, id jsonrpc2.ID, params *lsp.DocumentSymbolParams) {
	af, _, _, _, ok := s.analyzeAt(params.TextDocument.URI, lsp.Position{})
	if !ok {
		s.reply(ctx, conn, id, []lsp.SymbolInformation{})
		return
	}
	s.reply(ctx, conn, id, providers.DocumentSymbols(af))
}

// DocumentLink handles textDocument/documentLink.
func (s *Server) DocumentLink(ctx context.Context, conn *jsonrpc2.Conn, id jsonrpc2.ID, params *lsp.DocumentLinkParams) {
	af, _, _, _, ok := s.analyzeAt(params.TextDocument.URI, lsp.Position{})
	if !ok {
		s.reply(ctx, conn, id, []lsp.DocumentLink{})
		return
	}
	s.reply(ctx, conn, id, providers.DocumentLinks(af))
}

// WorkspaceSymbol handles workspace/symbol.
func (s *Server) WorkspaceSymbol(ctx context.Context, conn *jsonrpc2.Conn, id jsonrpc2.ID, params *lsp.WorkspaceSymbolParams) {
	s.mu.RLock()
	router, root := s.router, s.root
	s.mu.RUnlock()
	if router == nil {
		s.reply(ctx, conn, id, []lsp.SymbolInformation{})
		return
	}

	fa, wctx, err := router.AnalyzerFor(workspace.BuildGNPathFor(root))
	if err != nil {
		s.reply(ctx, conn, id, []lsp.SymbolInformation{})
		return
	}
	s.waitIndexed(ctx, wctx.Root)
	s.reply(ctx, conn, id, providers.WorkspaceSymbols(fa, params.Query))
}

// Formatting handles textDocument/formatting.
func (s *Server) Formatting(ctx context.Context, conn *jsonrpc2.Conn, id jsonrpc2.ID, params *lsp.DocumentFormattingParams) {
	path := filenameOf(params.TextDocument.URI)
	doc, err := s.store.Read(path)
	if err != nil {
		s.reply(ctx, conn, id, []lsp.TextEdit{})
		return
	}
	edits, err := providers.Format(ctx, doc)
	if err != nil {
		s.log.Debug("gn format failed", "error", err)
		s.reply(ctx, conn, id, []lsp.TextEdit{})
		return
	}
	s.reply(ctx, conn, id, edits)
}

// analyzeAt resolves uri to its workspace's current analysis and pos to a
// byte offset within it, along with the root of the workspace it routed to.
func (s *Server) analyzeAt(uri lsp.DocumentURI, pos lsp.Position) (*analyze.AnalyzedFile, int, time.Time, string, bool) {
	s.mu.RLock()
	router := s.router
	s.mu.RUnlock()
	if router == nil {
		return nil, 0, time.Time{}, "", false
	}

	path := filenameOf(uri)
	now := time.Now()
	fa, wctx, err := router.AnalyzerFor(path)
	if err != nil {
		return nil, 0, now, "", false
	}
	af := fa.Analyze(path, now)
	if af.File == nil {
		return af, 0, now, wctx.Root, false
	}
	offset, ok := af.Document.Lines.Offset(source.Position{Line: pos.Line, Character: pos.Character})
	if !ok {
		offset = 0
	}
	return af, offset, now, wctx.Root, true
}

// waitIndexed blocks up to indexWaitTimeout for root's workspace to finish
// its initial index pass before a cross-file query runs over it (§5).
func (s *Server) waitIndexed(ctx context.Context, root string) {
	s.mu.RLock()
	router := s.router
	s.mu.RUnlock()
	if router == nil {
		return
	}
	waitCtx, cancel := context.WithTimeout(ctx, indexWaitTimeout)
	defer cancel()
	if err := router.WaitIndexed(waitCtx, root); err != nil {
		s.log.Debug("proceeding before workspace finished indexing", "root", root, "error", err)
	}
}

func (s *Server) reply(ctx context.Context, conn *jsonrpc2.Conn, id jsonrpc2.ID, result interface{}) {
	if err := conn.Reply(ctx, id, result); err != nil {
		s.log.Debug("failed to reply", "error", err)
	}
}

func filenameOf(uri lsp.DocumentURI) string {
	return strings.TrimPrefix(string(uri), fileProtocol)
}
