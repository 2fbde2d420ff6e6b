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
	"strings"
)

// representSequence handles ordered sequences: Go slices and arrays. This
// is the analogue of spec.md's list/tuple handler; Go has no tuple type, so
// a fixed-size array stands in for it (and, like the empty tuple, a
// zero-length slice or array renders as the verbatim empty literal).
func representSequence(v any, _ *Env) (Expr, bool) {
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Slice, reflect.Array:
		// []byte already matched the primitive handler (byte slices
		// render as string-backed literals); every other slice, and every
		// array including [N]byte, is rendered here.
	default:
		return Expr{}, false
	}
	if rv.Kind() == reflect.Slice && rv.Type().Elem().Kind() == reflect.Uint8 {
		return Expr{}, false
	}

	elemType := rv.Type().Elem().String()
	n := rv.Len()

	args := make([]Arg, n)
	parts := make([]string, n)
	for i := range n {
		name := fmt.Sprintf("a%d", i)
		args[i] = Arg{Name: name, Value: rv.Index(i).Interface()}
		parts[i] = name
	}

	var prefix string
	if rv.Kind() == reflect.Array {
		prefix = fmt.Sprintf("[%d]%s", n, elemType)
	} else {
		prefix = fmt.Sprintf("[]%s", elemType)
	}

	code := prefix + "{" + strings.Join(parts, ", ") + "}"
	return Expr{Code: code, Args: args, Pure: true}, true
}
