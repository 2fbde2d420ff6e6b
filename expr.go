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

// Arg is a free identifier appearing in an [Expr]'s Code, paired with the
// sub-object it stands for. Args are ordered: this is the semantic edge
// list a representer hands the graph builder.
type Arg struct {
	Name  string
	Value any
}

// Import is a symbol-import record required by an [Expr]. Path is the Go
// import path; Alias is the local identifier the generated file binds it
// to (often empty, meaning "use the package's own name").
type Import struct {
	Path  string
	Alias string
}

// ident returns the identifier this import is referenced by in emitted
// code: the alias if one was requested, otherwise the conventional base
// name of the import path.
func (im Import) ident() string {
	if im.Alias != "" {
		return im.Alias
	}
	return basePackageName(im.Path)
}

// Expr is the "rep triple" described in the data model: a source-level
// expression with free identifiers (Args) standing for sub-objects, plus
// the imports required to resolve any package-qualified names the
// expression text mentions.
//
// Code must reference exactly the identifiers named in Args, plus any
// import idents, plus Go predeclared identifiers -- never anything else.
// Violating it is always a representer bug. The reducer does not check
// the invariant: it reports [ErrUnboundFreeIdentifier] only when the
// substitution strategy fails to rewrite one of Args in Code, and any
// other stray identifier passes through to the emitted source unchecked.
type Expr struct {
	Code    string
	Args    []Arg
	Imports []Import

	// Pure is true when evaluating Code has no observable side effect
	// beyond producing its value, which makes the node eligible for
	// inlining (see the reducer's Inlining pass). Every built-in handler
	// sets this; custom representers default to false unless they opt in.
	Pure bool
}

// basePackageName derives the conventional local identifier for an import
// path, i.e. the last path element with any major-version suffix (vN)
// stripped, matching what goimports would pick.
func basePackageName(path string) string {
	start := 0
	for i := len(path) - 1; i >= 0; i-- {
		if path[i] == '/' {
			start = i + 1
			break
		}
	}
	name := path[start:]
	if len(name) > 1 && name[0] == 'v' {
		allDigits := true
		for _, r := range name[1:] {
			if r < '0' || r > '9' {
				allDigits = false
				break
			}
		}
		if allDigits {
			// Found a major-version suffix; fall back to the segment
			// before it, e.g. ".../protobuf/v2" -> "protobuf".
			for i := start - 2; i >= 0; i-- {
				if path[i] == '/' {
					return path[i+1 : start-1]
				}
			}
			return path[:start-1]
		}
	}
	return name
}
