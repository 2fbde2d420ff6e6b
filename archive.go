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
	"github.com/forbes-group/persist/internal/sidecar"
)

// Archive is a named collection of top-level bindings rendered to one
// source artifact (SPEC_FULL.md §4.F). The zero value is not usable;
// construct with [NewArchive].
//
// An Archive is single-threaded cooperative, mirroring spec.md §5:
// concurrent calls on one instance are unsupported and undetected (no
// internal mutex). The DataSet controller (package dataset) is the only
// contractual concurrency boundary.
type Archive struct {
	opts *Options

	names  []string
	values map[string]any
}

// NewArchive constructs an empty archive configured by opts.
func NewArchive(opts ...Option) *Archive {
	return &Archive{
		opts:   New(opts...),
		values: make(map[string]any),
	}
}

// Insert validates and records one or more named top-level values, in
// sorted name order. It rejects a name already used by this archive, a name
// matching the reserved "_" prefix, or (via [WithAllowedNamePattern]) a
// name failing the configured pattern. If [WithCheckOnInsert] is set (the
// default), it also eagerly builds and discards the value's node graph,
// so a [RepresentError] or [CycleError] surfaces at Insert time rather
// than at Render time.
func (a *Archive) Insert(named map[string]any) error {
	for _, name := range sortedKeys(named) {
		if err := a.InsertAs(name, named[name]); err != nil {
			return err
		}
	}
	return nil
}

// InsertAs records a single named top-level value. See [Archive.Insert].
func (a *Archive) InsertAs(name string, value any) error {
	if err := a.validateName(name); err != nil {
		return err
	}
	if _, exists := a.values[name]; exists {
		return newNameError(name)
	}

	if a.opts.checkOnInsert {
		env := &Env{opts: a.opts}
		b := newBuilder(env, newRegistry())
		if _, err := b.Insert(value, kindTopLevel); err != nil {
			return err
		}
	}

	a.names = append(a.names, name)
	a.values[name] = value
	return nil
}

func (a *Archive) validateName(name string) error {
	if len(name) == 0 || name[0] == '_' {
		return newNameError(name)
	}
	if a.opts.allowedNamePattern != nil && !a.opts.allowedNamePattern.MatchString(name) {
		return newNameError(name)
	}
	return nil
}

// renderResult bundles everything Render needs to either return source
// text or feed the sidecar/package writer.
type renderResult struct {
	source string
	store  *sidecar.Store
}

// render runs the builder, reducer, and emitter over a defensive
// Options.Clone(), per SPEC_FULL.md §4.F, and is the single engine every
// public rendering operation (Render, String, Save, SaveData) funnels
// through.
func (a *Archive) render(packageName string) (*renderResult, error) {
	opts := a.opts.Clone()
	env := &Env{opts: opts}
	registry := newRegistry()
	b := newBuilder(env, registry)

	roots := make([]*node, len(a.names))
	for i, name := range a.names {
		n, err := b.Insert(a.values[name], kindTopLevel)
		if err != nil {
			return nil, err
		}
		n.name = name
		roots[i] = n
	}

	red, err := reduce(b.Nodes(), roots, opts)
	if err != nil {
		return nil, err
	}

	source, err := emit(packageName, red, roots, opts)
	if err != nil {
		return nil, err
	}

	return &renderResult{source: source, store: env.sidecarStore()}, nil
}

// Render runs the full builder -> reducer -> emitter pipeline and returns
// the generated Go source text for packageName. It is idempotent: the
// same archive contents always render to the same text (SPEC_FULL.md §3's
// "Archives ... are idempotent across repeated renders" invariant), since
// nothing in the pipeline consults wall-clock time, map iteration order,
// or any other unstable source.
func (a *Archive) Render(packageName string) (string, error) {
	res, err := a.render(packageName)
	if err != nil {
		return "", err
	}
	return res.source, nil
}

// String renders under the package name "main", discarding any error (a
// failed render renders as an empty string). Callers that need the error
// should use [Archive.Render] directly; String exists only to satisfy
// [fmt.Stringer] for ad hoc debugging, mirroring spec.md's `__str__`.
func (a *Archive) String() string {
	s, _ := a.Render("main")
	return s
}

// Save runs Render and delegates to the importable packager (§4.G),
// writing either a single file or a package directory under dir.
func (a *Archive) Save(dir, name string, pkg, singleItem bool) error {
	opts := a.opts
	if singleItem != opts.singleItemMode {
		opts = opts.Clone()
		opts.singleItemMode = singleItem
	}
	clone := &Archive{opts: opts, names: a.names, values: a.values}
	return saveArchive(clone, dir, name, pkg)
}

// SaveData writes only the sidecar arrays, for callers that want to
// publish the bulk-array payload without writing a source file (e.g.
// refreshing array data behind an unchanged generated file). It still runs
// the full render pipeline to collect the arrays.
func (a *Archive) SaveData(dir string) error {
	res, err := a.render("_data")
	if err != nil {
		return err
	}
	if res.store.Len() == 0 {
		return nil
	}
	format := sidecar.FormatNPY
	if a.opts.backend == BackendHDF5 {
		format = sidecar.FormatHDF5
	}
	return res.store.Save(dir, format, a.opts.hdf5)
}

