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

// Package diagnostics turns an analyzed file into the two independent,
// optional diagnostic passes described in §4.J: syntax errors, and an
// undefined-identifier flow check.
package diagnostics

import (
	"time"

	"github.com/gnlang/gnls/internal/gn/analyze"
	"github.com/gnlang/gnls/internal/gn/ast"
	"github.com/gnlang/gnls/internal/gn/source"
)

// Severity mirrors the two levels the core ever produces; the LSP layer
// maps these to protocol severities.
type Severity int

const (
	SeverityError Severity = iota
	SeverityWarning
)

// Diagnostic is one reported problem, independent of any LSP wire type.
type Diagnostic struct {
	Span     source.Span
	Message  string
	Severity Severity
}

// Config toggles the two passes independently (§9 "mutable global
// config... read-only inputs to the core per request").
type Config struct {
	ReportSyntaxErrors       bool
	ReportUndefinedIdentifiers bool
}

// Diagnose runs the passes enabled in cfg over af, returning every
// diagnostic in no particular cross-pass order (each pass is internally
// ordered). requestTime is only consulted by the undefined-identifier pass,
// to resolve imports through the same cache the rest of the analysis uses.
func Diagnose(af *analyze.AnalyzedFile, cfg Config, requestTime time.Time) []Diagnostic {
	var out []Diagnostic
	if cfg.ReportSyntaxErrors {
		out = append(out, syntaxDiagnostics(af)...)
	}
	if cfg.ReportUndefinedIdentifiers {
		out = append(out, undefinedIdentifierDiagnostics(af, requestTime)...)
	}
	return out
}

// syntaxDiagnostics reports one error-severity diagnostic per error node
// in the file's parse tree (§4.J pass 1).
func syntaxDiagnostics(af *analyze.AnalyzedFile) []Diagnostic {
	var out []Diagnostic
	for _, n := range af.Errors() {
		kind, ok := ast.AsError(n)
		if !ok {
			continue
		}
		out = append(out, Diagnostic{Span: n.Span(), Message: kind.Diagnosis(), Severity: SeverityError})
	}
	return out
}
