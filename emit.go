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

package persist

import (
	"fmt"
	"sort"
	"strings"
)

// emit renders a completed reduction to Go source text, per SPEC_FULL.md
// §4.D. packageName is the generated file's package clause. roots are the
// archive's top-level bindings; only single-item mode's accessor uses
// them. Both modes emit declarations in red.Order (dependencies first),
// and Go initializes package-level vars in dependency order on its own.
func emit(packageName string, red *reduction, roots []*node, opts *Options) (string, error) {
	var body string
	if opts.scoped {
		body = emitScoped(red)
	} else {
		body = emitFlat(red)
	}

	var buf strings.Builder
	fmt.Fprintf(&buf, "package %s\n\n", packageName)

	if imps := collectImports(red); len(imps) > 0 {
		buf.WriteString("import (\n")
		for _, imp := range imps {
			if imp.alias != "" {
				fmt.Fprintf(&buf, "\t%s %q\n", imp.alias, imp.path)
			} else {
				fmt.Fprintf(&buf, "\t%q\n", imp.path)
			}
		}
		buf.WriteString(")\n\n")
	}

	buf.WriteString(body)

	if opts.singleItemMode {
		if len(roots) != 1 {
			return "", fmt.Errorf("persist: single_item_mode requires exactly one top-level binding, got %d", len(roots))
		}
		root := roots[0]
		fmt.Fprintf(&buf, "\n// Value returns the archive's single top-level binding.\nfunc Value() %s {\n\treturn %s\n}\n", valueTypeHint(root), root.name)
	}

	return buf.String(), nil
}

// emitFlat implements flat mode: a linear sequence of package-level var
// declarations, one per surviving node, in dependency-first order.
func emitFlat(red *reduction) string {
	var buf strings.Builder
	for _, n := range red.Order {
		fmt.Fprintf(&buf, "var %s = %s\n", n.name, red.Code[n.id])
	}
	return buf.String()
}

// emitScoped implements scoped mode: each surviving node becomes a nullary
// func literal assigned to its var, immediately invoked. Since package-level
// vars initialize in dependency order automatically, a node's func literal
// can simply reference an earlier node's var by name with no capture
// machinery of its own.
func emitScoped(red *reduction) string {
	var buf strings.Builder
	for _, n := range red.Order {
		typeHint := valueTypeHint(n)
		fmt.Fprintf(&buf, "var %s = func() %s {\n\treturn %s\n}()\n", n.name, typeHint, red.Code[n.id])
	}
	return buf.String()
}

// valueTypeHint returns the declared type to use for a node's func literal
// return type (scoped mode) or Value() accessor (single-item mode). Using
// the empty interface keeps the emitter independent of every representer's
// concrete Go type spelling; a concretely-typed accessor would require
// representers to additionally export a syntactic type expression, which
// SPEC_FULL.md does not ask for.
func valueTypeHint(n *node) string {
	return "any"
}

type importDecl struct {
	path  string
	alias string
}

// collectImports gathers every surviving node's imports, deduplicated and
// sorted by path the way goimports would order a single block, with
// explicit aliases preserved. Nodes that were inlined contribute their
// imports to whichever surviving node absorbed their code (see
// reducer.go's substitute), so iterating red.Order alone is exhaustive.
func collectImports(red *reduction) []importDecl {
	seen := make(map[string]string)
	var order []string
	for _, n := range red.Order {
		for _, imp := range red.Imports[n.id] {
			if _, ok := seen[imp.Path]; ok {
				continue
			}
			seen[imp.Path] = imp.Alias
			order = append(order, imp.Path)
		}
	}
	sort.Strings(order)
	decls := make([]importDecl, len(order))
	for i, path := range order {
		decls[i] = importDecl{path: path, alias: seen[path]}
	}
	return decls
}
