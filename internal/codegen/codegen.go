// Copyright 2025 Buf Technologies, Inc.
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

// Package codegen implements the two free-identifier substitution
// strategies the reducer uses when renaming a node (SPEC_FULL.md §4.C):
// a fast textual rewriter, and a syntax-tree rewriter for when a code
// fragment might contain identifier-shaped text inside a string literal.
package codegen

import (
	"bytes"
	"fmt"
	"go/ast"
	"go/parser"
	"go/printer"
	"go/token"
	"regexp"

	"golang.org/x/tools/go/ast/astutil"
)

// Strategy rewrites every free occurrence of old in code to new.
type Strategy interface {
	Rename(code, old, new string) (string, error)
}

// Textual is the default strategy: word-boundary regular-expression
// substitution. It is fast but, unlike [Syntax], cannot tell an
// identifier use apart from the same text appearing inside a string or
// comment literal.
type Textual struct{}

// Rename implements [Strategy].
func (Textual) Rename(code, old, new string) (string, error) {
	pattern, err := regexp.Compile(`\b` + regexp.QuoteMeta(old) + `\b`)
	if err != nil {
		return "", fmt.Errorf("codegen: compiling pattern for %q: %w", old, err)
	}
	return pattern.ReplaceAllString(code, new), nil
}

// Syntax is the robust_replace strategy: it parses code as a Go
// expression, rewrites *ast.Ident nodes matching old via
// golang.org/x/tools/go/ast/astutil.Apply, and reserializes with
// go/printer, so occurrences inside string literals or comments are left
// untouched.
type Syntax struct{}

// Rename implements [Strategy]. code is parsed as a standalone Go
// expression (every Expr.Code fragment this package receives, including a
// multi-statement IIFE, is syntactically one expression), rewritten in
// place, and reserialized — no wrapper text to strip back off, since
// go/printer can print any ast.Expr node on its own.
func (Syntax) Rename(code, old, new string) (string, error) {
	fset := token.NewFileSet()
	expr, err := parser.ParseExprFrom(fset, "", code, parser.ParseComments)
	if err != nil {
		return "", fmt.Errorf("codegen: parsing fragment: %w", err)
	}

	astutil.Apply(expr, func(c *astutil.Cursor) bool {
		if id, ok := c.Node().(*ast.Ident); ok && id.Name == old {
			id.Name = new
		}
		return true
	}, nil)

	var buf bytes.Buffer
	if err := printer.Fprint(&buf, fset, expr); err != nil {
		return "", fmt.Errorf("codegen: reserializing fragment: %w", err)
	}
	return buf.String(), nil
}
