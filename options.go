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
	"math"
	"regexp"

	"github.com/tiendc/go-deepcopy"
)

// Backend selects the array sidecar format an [Archive] writes oversized
// array values to.
type Backend int

const (
	// BackendNPY writes sidecar arrays as bit-exact .npy files. This is the
	// default: it needs no external collaborator.
	BackendNPY Backend = iota
	// BackendHDF5 hands sidecar arrays to an injected external collaborator
	// (see [HDF5Writer]) instead of writing them itself.
	BackendHDF5
)

// Options holds every archive-wide configuration setting. The zero value is
// not meaningful; always construct through [New].
//
// The below are not interfaces, mirroring the compile-option shape the
// teacher library uses for its own configuration surface: a struct wrapping
// an apply closure keeps With* functions monomorphic and lets fields be
// added without breaking callers.
type Options struct {
	scoped             bool
	arrayThreshold     int
	dataName           string
	robustReplace      bool
	singleItemMode     bool
	checkOnInsert      bool
	allowedNamePattern *regexp.Regexp
	backend            Backend
	hdf5               HDF5Writer
}

// Option is a configuration setting for [New].
type Option struct{ apply func(*Options) }

// defaultOptions returns the baseline configuration: scoped emission (the
// recommended default for machine-generated use, per SPEC_FULL.md §4.D), no
// array sidecarring (arrayThreshold defaults to "infinite" -- everything
// inlines -- matching spec.md's default), the ambient lookup variable named
// "_arrays", textual substitution, single-item mode off, and insert-time
// representability checking on.
func defaultOptions() *Options {
	return &Options{
		scoped:             true,
		arrayThreshold:     math.MaxInt,
		dataName:           "_arrays",
		robustReplace:      false,
		checkOnInsert:      true,
		allowedNamePattern: regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`),
		backend:            BackendNPY,
	}
}

// WithScoped enables scoped emission: every surviving node, top-level or
// generated, is rendered as a package-level var initialized by an
// immediately invoked func literal, and no node is inlined into another.
func WithScoped(scoped bool) Option {
	return Option{func(o *Options) { o.scoped = scoped }}
}

// WithArrayThreshold sets the element count above which a numeric array is
// written to the sidecar instead of being inlined as a literal.
func WithArrayThreshold(n int) Option {
	return Option{func(o *Options) { o.arrayThreshold = n }}
}

// WithDataName sets the identifier used for the ambient array-lookup
// accessor that sidecar-backed nodes reference.
func WithDataName(name string) Option {
	return Option{func(o *Options) { o.dataName = name }}
}

// WithRobustReplace selects the substitution strategy used when the
// reducer rewrites a node's free identifiers to their assigned names: true
// selects the AST-based rewriter (internal/codegen), false the faster but
// less precise textual one.
func WithRobustReplace(robust bool) Option {
	return Option{func(o *Options) { o.robustReplace = robust }}
}

// WithSingleItemMode enables single-item mode: in addition to the usual
// var declarations, the generated file gets an exported Value() accessor
// returning the archive's one top-level value. Rendering fails if the
// archive holds more than one top-level value.
func WithSingleItemMode(single bool) Option {
	return Option{func(o *Options) { o.singleItemMode = single }}
}

// WithCheckOnInsert sets whether [Archive.Insert] eagerly represents (and so
// validates) a value at insertion time rather than deferring to [Archive.Render].
func WithCheckOnInsert(check bool) Option {
	return Option{func(o *Options) { o.checkOnInsert = check }}
}

// WithAllowedNamePattern restricts the identifiers [Archive.InsertAs] will
// accept for a caller-supplied top-level name.
func WithAllowedNamePattern(pattern *regexp.Regexp) Option {
	return Option{func(o *Options) { o.allowedNamePattern = pattern }}
}

// WithBackend selects the array sidecar backend. BackendHDF5 requires
// also passing [WithHDF5Writer].
func WithBackend(b Backend) Option {
	return Option{func(o *Options) { o.backend = b }}
}

// WithHDF5Writer injects the external collaborator used to write sidecar
// arrays when the backend is [BackendHDF5]. persist has no HDF5 bindings of
// its own (see SPEC_FULL.md §0 and §4.E); callers who want that format
// supply their own encoder through this interface.
func WithHDF5Writer(w HDF5Writer) Option {
	return Option{func(o *Options) { o.hdf5 = w }}
}

// New assembles an [Options] value from the given settings, starting from
// [defaultOptions].
func New(opts ...Option) *Options {
	o := defaultOptions()
	for _, opt := range opts {
		opt.apply(o)
	}
	return o
}

// Clone returns a defensive deep copy. The archive's render step (behind
// Render, String and Save) clones the archive's configured Options before
// handing it to a Representer or Reducible, so that user code can't mutate
// shared archive-wide state through a pointer it was only meant to read.
// The insert-time check in InsertAs uses the archive's Options uncloned.
func (o *Options) Clone() *Options {
	dst := &Options{}
	if err := deepcopy.Copy(dst, o); err != nil {
		// Options contains no cycles and no unexported-only fields deepcopy
		// can't reach; a failure here means a field was added to Options
		// without updating this invariant.
		panic("persist: Options.Clone: " + err.Error())
	}
	return dst
}
