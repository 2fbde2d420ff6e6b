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
	"reflect"

	"github.com/davecgh/go-spew/spew"
)

const (
	errKindOK errKind = iota
	errKindNotRepresentable
	errKindCyclic
	errKindNameCollision
	errKindUnboundFreeIdentifier
	errKindBusy
	errKindCorruptArchive
)

type errKind int

// Sentinel errors. Use [errors.Is] to test a returned error against these;
// the concrete error values returned by the archive wrap one of these via
// Unwrap, the same pattern the compiler's errParse type uses for wire-format
// errors.
var (
	ErrNotRepresentable      = fmt.Errorf("persist: value is not representable")
	ErrCyclic                = fmt.Errorf("persist: object graph is not a DAG")
	ErrNameCollision         = fmt.Errorf("persist: name collision")
	ErrUnboundFreeIdentifier = fmt.Errorf("persist: expression references an unbound identifier")
	ErrBusy                  = fmt.Errorf("persist: dataset is locked by another operation")
	ErrCorruptArchive        = fmt.Errorf("persist: sidecar and source disagree on array keys")

	sentinels = [...]error{
		errKindOK:                    nil,
		errKindNotRepresentable:      ErrNotRepresentable,
		errKindCyclic:                ErrCyclic,
		errKindNameCollision:         ErrNameCollision,
		errKindUnboundFreeIdentifier: ErrUnboundFreeIdentifier,
		errKindBusy:                  ErrBusy,
		errKindCorruptArchive:        ErrCorruptArchive,
	}
)

// RepresentError is returned when no handler in the registry can represent a
// value. It carries a dump of the offending value for diagnostics.
type RepresentError struct {
	kind  errKind
	Type  reflect.Type
	Value any
}

// Error implements [error].
func (e *RepresentError) Error() string {
	return fmt.Sprintf("%v: no representer accepted a value of type %v: %s",
		e.Unwrap(), e.Type, spew.Sdump(e.Value))
}

// Unwrap implements error unwrapping via [errors.Unwrap].
func (e *RepresentError) Unwrap() error { return sentinels[e.kind] }

func newRepresentError(v any) *RepresentError {
	var t reflect.Type
	if v != nil {
		t = reflect.TypeOf(v)
	}
	return &RepresentError{kind: errKindNotRepresentable, Type: t, Value: v}
}

// CycleError is returned when the builder detects a cycle in the user
// object graph, or when the reducer detects a residual cycle after
// reduction (which indicates a bug in a registered representer rather than
// in the input).
type CycleError struct {
	kind    errKind
	Residual bool
	Path    []string
}

// Error implements [error].
func (e *CycleError) Error() string {
	if e.Residual {
		return fmt.Sprintf("%v: residual cycle survived reduction (representer bug): %v", e.Unwrap(), e.Path)
	}
	return fmt.Sprintf("%v: %v", e.Unwrap(), e.Path)
}

// Unwrap implements error unwrapping via [errors.Unwrap].
func (e *CycleError) Unwrap() error { return sentinels[e.kind] }

func newCycleError(path []string, residual bool) *CycleError {
	return &CycleError{kind: errKindCyclic, Residual: residual, Path: path}
}

// NameError is returned at insert time when a user-supplied top-level name
// collides with a prior insertion, uses the reserved prefix, or fails the
// allowed-name pattern. Rendering does not return it: generated names are
// chosen after every name they must avoid has been reserved.
type NameError struct {
	kind errKind
	Name string
}

// Error implements [error].
func (e *NameError) Error() string {
	return fmt.Sprintf("%v: %q", e.Unwrap(), e.Name)
}

// Unwrap implements error unwrapping via [errors.Unwrap].
func (e *NameError) Unwrap() error { return sentinels[e.kind] }

func newNameError(name string) *NameError {
	return &NameError{kind: errKindNameCollision, Name: name}
}

// UnboundError is returned when the reducer's substitution strategy cannot
// rewrite the free identifier Name in the expression Expr (for example,
// when the syntax-tree strategy cannot parse Expr). This can only happen
// if a registered representer produced malformed Code; it is always a
// fatal bug report, never a recoverable condition. An identifier that
// nothing defines but that needs no rewriting is not detected.
type UnboundError struct {
	kind errKind
	Name string
	Expr string
}

// Error implements [error].
func (e *UnboundError) Error() string {
	return fmt.Sprintf("%v: %q in %q", e.Unwrap(), e.Name, e.Expr)
}

// Unwrap implements error unwrapping via [errors.Unwrap].
func (e *UnboundError) Unwrap() error { return sentinels[e.kind] }

func newUnboundError(name, expr string) *UnboundError {
	return &UnboundError{kind: errKindUnboundFreeIdentifier, Name: name, Expr: expr}
}

// BusyError describes a DataSet operation that could not acquire the
// directory-level or per-key lock before lock_timeout elapsed. Nothing in
// this module constructs it: the dataset package reports lock timeouts
// with its own ErrBusy value, which wraps [ErrBusy].
type BusyError struct {
	kind errKind
	Key  string
}

// Error implements [error].
func (e *BusyError) Error() string {
	if e.Key == "" {
		return e.Unwrap().Error()
	}
	return fmt.Sprintf("%v: key %q", e.Unwrap(), e.Key)
}

// Unwrap implements error unwrapping via [errors.Unwrap].
func (e *BusyError) Unwrap() error { return sentinels[e.kind] }

func newBusyError(key string) *BusyError {
	return &BusyError{kind: errKindBusy, Key: key}
}

// CorruptError describes a sidecar directory and the source that
// references it disagreeing on which array keys exist. Nothing in this
// module constructs it: neither [LoadArrays] nor the generated loader
// compares array keys or checksums.
type CorruptError struct {
	kind errKind
	Key  string
	Why  string
}

// Error implements [error].
func (e *CorruptError) Error() string {
	return fmt.Sprintf("%v: key %q: %s", e.Unwrap(), e.Key, e.Why)
}

// Unwrap implements error unwrapping via [errors.Unwrap].
func (e *CorruptError) Unwrap() error { return sentinels[e.kind] }

func newCorruptError(key, why string) *CorruptError {
	return &CorruptError{kind: errKindCorruptArchive, Key: key, Why: why}
}
