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

import "reflect"

// NewArgsApplier is implemented by a type that wants to consume the
// positional arguments [New] allocates it with. Go has no constructor a
// generated call could bypass, so unlike the originating runtime's
// __new__, this is not "skip __init__" — it is "allocate the zero value,
// then hand it its positional args", and a type that does not implement
// it simply gets a zero value with args discarded.
type NewArgsApplier interface {
	PersistApplyNewArgs(args []any)
}

// New allocates a zero value of T (following one level of pointer
// indirection so *Widget gets an actual *Widget rather than a nil one) and,
// if T implements [NewArgsApplier], applies args to it. This is the
// generated-code counterpart to [NewArgsReducible]: emitted code calls
// persist.New[pkg.Type](a0, a1, ...) in place of a normal constructor call.
func New[T any](args ...any) T {
	var v T
	rt := reflect.TypeOf(v)
	if rt != nil && rt.Kind() == reflect.Ptr {
		nv := reflect.New(rt.Elem())
		v = nv.Interface().(T)
	}
	if app, ok := any(v).(NewArgsApplier); ok {
		app.PersistApplyNewArgs(args)
	}
	return v
}
