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
	"iter"

	"github.com/forbes-group/persist/internal/sidecar"
)

// Env is passed to custom representers so they can query archive-wide
// configuration while building their [Expr].
type Env struct {
	opts  *Options
	store *sidecar.Store
}

// ArrayThreshold returns the configured array sidecar threshold.
func (e *Env) ArrayThreshold() int { return e.opts.arrayThreshold }

// DataName returns the configured ambient array lookup variable name.
func (e *Env) DataName() string { return e.opts.dataName }

// sidecarStore returns the archive-wide array sidecar store, lazily
// allocating one if this Env predates any array handling (e.g. in tests
// that construct an Env directly).
func (e *Env) sidecarStore() *sidecar.Store {
	if e.store == nil {
		e.store = sidecar.NewStore()
	}
	return e.store
}

// Representer is implemented by values that know how to render themselves.
// This is handler slot 8 in the registry (see represent.go's registry
// construction): it is tried after every built-in kind-based handler and
// before the reduce-protocol and reflect-based fallback handlers, so a type
// can always override the default behavior a lower-priority handler would
// otherwise produce.
type Representer interface {
	PersistRepr(env *Env) (Expr, bool)
}

// Callable is a reference to a constructor or function by package path and
// exported name, e.g. {Path: "example.com/m/widget", Name: "NewWidget"}.
// It is the Go analogue of a Python `module.qualname` callable reference.
type Callable struct {
	Path string
	Name string
	// Recv, if non-empty, makes this a method reference on an already
	// bound value rather than a free function; the ref handler
	// (handlers_ref.go) does not need this, but [Reducible] implementations that construct
	// through a method value can set it.
	Recv any
}

// Reducible is the Go-native re-specification of the originating runtime's
// __reduce__ protocol (see SPEC_FULL.md §4.A.1). PersistReduce returns the
// constructor to call and its positional arguments; ok is false if this
// value declines to participate (falling through to the next handler).
type Reducible interface {
	PersistReduce() (ctor Callable, args []any, ok bool)
}

// Stateful supplies post-construction state to apply, the Go analogue of
// __getstate__. It is independent of how the receiver was allocated: §4.A.1
// applies state restoration across every allocation branch, so both
// [Reducible] and [NewArgsReducible] values check for this capability,
// not just the former.
type Stateful interface {
	PersistState() (state any, ok bool)
}

// StatefulReducible additionally supplies post-construction state to apply
// on top of a [Reducible] construction call.
type StatefulReducible interface {
	Reducible
	Stateful
}

// NewArgsReducible is the Go analogue of __getnewargs__/__getnewargs_ex__:
// allocate a zero value of the concrete type and apply args to it, without
// invoking any user constructor.
type NewArgsReducible interface {
	PersistNewArgs() (args []any, ok bool)
}

// Setstater is the Go analogue of __setstate__: apply previously-captured
// state to a freshly allocated receiver.
type Setstater interface {
	PersistSetState(state any)
}

// ListAppender is the Go analogue of pickle's listitems: additional
// elements appended one at a time after construction.
type ListAppender interface {
	PersistListItems() iter.Seq[any]
}

// DictAssigner is the Go analogue of pickle's dictitems: additional
// key/value pairs assigned one at a time after construction.
type DictAssigner interface {
	PersistDictItems() iter.Seq2[any, any]
}

// ListBuilder is implemented by the reconstructed side of a [ListAppender]:
// emitted code calls PersistAppend once per item [ListAppender.PersistListItems]
// produced, in order.
type ListBuilder interface {
	PersistAppend(item any)
}

// DictBuilder is implemented by the reconstructed side of a [DictAssigner]:
// emitted code calls PersistAssign once per pair [DictAssigner.PersistDictItems]
// produced, in order.
type DictBuilder interface {
	PersistAssign(key, value any)
}

// Representable is the fallback capability (§4.A step 10 / Design Notes §9):
// a value exposes its fields explicitly instead of relying on exported-field
// reflection. Implement this when a type has unexported state that must
// round-trip, or when reflection would pick the wrong field order.
type Representable interface {
	PersistFields() []FieldValue
}

// FieldValue is one field and its value, in emission order, as returned by
// [Representable.PersistFields].
type FieldValue struct {
	Name  string
	Value any
}

// handler is the internal representer-registry entry. Each handler either
// declines (ok == false) or returns a fully-formed [Expr].
type handler struct {
	name  string
	apply func(v any, env *Env) (Expr, bool)
}

// registry holds the ordered chain of handlers consulted by represent.
type registry struct {
	handlers []handler
}

// newRegistry builds the default registry in the priority order fixed by
// §4.A: primitives, sequences, mappings, sets, ranges, arrays, package
// references, custom representers, the reduce protocol, and finally the
// reflect-based fallback.
func newRegistry() *registry {
	r := &registry{}
	r.register("primitive", representPrimitive)
	r.register("sequence", representSequence)
	r.register("map", representMap)
	r.register("set", representSet)
	r.register("range", representRange)
	r.register("array", representArray)
	r.register("ref", representRef)
	r.register("custom", representCustom)
	r.register("reduce", representReduce)
	r.register("fallback", representFallback)
	return r
}

func (r *registry) register(name string, fn func(any, *Env) (Expr, bool)) {
	r.handlers = append(r.handlers, handler{name: name, apply: fn})
}

// represent runs the chain and returns the first accepted [Expr]. It
// returns ok == false when every handler declines (for example, a struct
// with an unexported field that does not implement [Representable]); the
// builder turns that into a [RepresentError].
func (r *registry) represent(v any, env *Env) (Expr, bool) {
	for _, h := range r.handlers {
		if expr, ok := h.apply(v, env); ok {
			return expr, true
		}
	}
	return Expr{}, false
}
