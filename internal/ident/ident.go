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

// Package ident assigns and sanitizes the identifiers the emitter binds
// archive nodes to: user-chosen top-level names and reducer-generated
// "_gN" intermediates.
package ident

import (
	"fmt"
	"go/token"
	"regexp"
	"strings"

	"github.com/stoewer/go-strcase"
)

// Sanitize rewrites name into a syntactically valid, snake_case-normalized
// Go identifier: non-identifier runs become underscores, a leading digit
// gets an underscore prefix, and Go keywords get an underscore suffix.
// This is the one place a user-supplied name is coerced rather than
// rejected outright: the archive uses it to derive a package name. The
// archive checks top-level binding names against allowed_name_pattern
// itself, without calling [Validate].
func Sanitize(name string) string {
	if name == "" {
		return "_"
	}
	cleaned := strcase.SnakeCase(name)
	cleaned = invalidRunes.ReplaceAllString(cleaned, "_")
	if cleaned == "" {
		cleaned = "_"
	}
	if cleaned[0] >= '0' && cleaned[0] <= '9' {
		cleaned = "_" + cleaned
	}
	if token.IsKeyword(cleaned) {
		cleaned += "_"
	}
	return cleaned
}

var invalidRunes = regexp.MustCompile(`[^A-Za-z0-9_]+`)

// Validate reports whether name is both a syntactically valid Go
// identifier and matches pattern (the archive's allowed_name_pattern).
func Validate(name string, pattern *regexp.Regexp) error {
	if !token.IsIdentifier(name) {
		return fmt.Errorf("ident: %q is not a valid Go identifier", name)
	}
	if pattern != nil && !pattern.MatchString(name) {
		return fmt.Errorf("ident: %q does not match allowed name pattern %s", name, pattern.String())
	}
	return nil
}

// Generator hands out "_gN" names from a monotonic per-archive counter,
// and tracks every name in use (top-level and generated) so new names can
// be bumped past a collision.
type Generator struct {
	next int
	used map[string]struct{}
}

// NewGenerator returns a Generator seeded with the given already-reserved
// names (the archive's top-level bindings).
func NewGenerator(reserved ...string) *Generator {
	g := &Generator{used: make(map[string]struct{}, len(reserved))}
	for _, r := range reserved {
		g.used[r] = struct{}{}
	}
	return g
}

// Reserve marks name as in use without allocating it, returning false if it
// was already reserved (a top-level name collision).
func (g *Generator) Reserve(name string) bool {
	if _, ok := g.used[name]; ok {
		return false
	}
	g.used[name] = struct{}{}
	return true
}

// Next allocates the next available "_gN" name.
func (g *Generator) Next() string {
	for {
		name := fmt.Sprintf("_g%d", g.next)
		g.next++
		if _, ok := g.used[name]; !ok {
			g.used[name] = struct{}{}
			return name
		}
	}
}

// Bump finds the next free name derived from base by appending an
// increasing numeric suffix. The reducer does not call it: it reserves
// every name to avoid before handing out any "_gN" name.
func (g *Generator) Bump(base string) string {
	if g.Reserve(base) {
		return base
	}
	for i := 1; ; i++ {
		candidate := fmt.Sprintf("%s_%d", base, i)
		if g.Reserve(candidate) {
			return candidate
		}
	}
}

// InUse reports whether name has been reserved or allocated.
func (g *Generator) InUse(name string) bool {
	_, ok := g.used[name]
	return ok
}

// IsGenerated reports whether name has the reducer's generated-name shape.
func IsGenerated(name string) bool {
	return strings.HasPrefix(name, "_g")
}
