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
	"math"
	"reflect"

	"github.com/forbes-group/persist/internal/identhash"
)

// nodeKind classifies a node for the purposes of inlining and naming.
type nodeKind int

const (
	kindLeaf nodeKind = iota
	kindContainer
	kindTopLevel
)

// identityKey is the value-identity rule described in the data model: two
// source objects collapse to the same node iff they produce equal keys.
// Pointer-identity kinds (pointers, maps, slices, channels, funcs) key on
// their runtime address; identity-unstable atoms key on a structural hash
// of a canonical encoding plus their concrete type.
type identityKey struct {
	ptr     uintptr
	hash    identhash.Hash
	typ     reflect.Type
	byValue bool
}

// node is the internal graph entity wrapping one represented value.
type node struct {
	id      int
	key     identityKey
	value   any
	expr    Expr
	name    string
	parents []*node
	refs    int
	kind    nodeKind

	// children mirrors expr.Args: children[i] is the node arg.Value at
	// expr.Args[i] resolved to (nil if that arg's value was itself nil,
	// which never gets its own node since it substitutes as the literal
	// "nil" rather than a reference to a binding).
	children []*node

	// pushed marks that this node has already been placed on the
	// builder's explicit walk stack, so a second incoming edge to the
	// same node doesn't re-walk (or, worse, re-push) its children.
	pushed bool
}

// computeIdentityKey implements the value-identity rule from the data
// model. v must be non-nil; the builder handles nil before it ever
// computes a key.
func computeIdentityKey(v any) identityKey {
	rv := reflect.ValueOf(v)
	t := rv.Type()

	switch rv.Kind() {
	case reflect.Ptr, reflect.Map, reflect.Chan, reflect.Func, reflect.UnsafePointer:
		return identityKey{ptr: rv.Pointer(), typ: t}
	case reflect.Slice:
		// A slice's identity is its backing array plus its observable
		// window into it: two slices over the same array but different
		// windows are, for our purposes, different objects, since
		// mutating one would not always be visible through the other.
		h := identhash.New().Uint64(uint64(rv.Len())).Uint64(uint64(rv.Cap()))
		ptr := uintptr(0)
		if rv.Len() > 0 {
			ptr = rv.Index(0).Addr().Pointer()
		}
		return identityKey{ptr: ptr, hash: h, typ: t}
	default:
		return identityKey{hash: hashAtom(rv), typ: t, byValue: true}
	}
}

// hashAtom computes a structural hash for an identity-unstable value
// (bools, numeric kinds, strings, arrays/structs composed only of such
// leaves). It is only ever used to disambiguate a bucket; byValue keys are
// additionally compared with reflect.DeepEqual before being considered
// the same node (see builder.intern in builder.go).
func hashAtom(rv reflect.Value) identhash.Hash {
	h := identhash.New()
	switch rv.Kind() {
	case reflect.Bool:
		if rv.Bool() {
			return h.Uint64(1)
		}
		return h.Uint64(0)
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return h.Uint64(uint64(rv.Int()))
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return h.Uint64(rv.Uint())
	case reflect.Float32, reflect.Float64:
		return h.Uint64(math.Float64bits(rv.Float()))
	case reflect.Complex64, reflect.Complex128:
		c := rv.Complex()
		return h.Uint64(math.Float64bits(real(c))).Uint64(math.Float64bits(imag(c)))
	case reflect.String:
		return h.String(rv.String())
	case reflect.Array:
		for i := range rv.Len() {
			h = h.Uint64(uint64(hashAtom(rv.Index(i))))
		}
		return h
	case reflect.Struct:
		for i := range rv.NumField() {
			if rv.Type().Field(i).IsExported() {
				h = h.Uint64(uint64(hashAtom(rv.Field(i))))
			}
		}
		return h
	default:
		return h.String(fmt.Sprintf("%#v", rv.Interface()))
	}
}
