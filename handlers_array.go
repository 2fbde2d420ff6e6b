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
	"strconv"
	"strings"
)

// representArray handles [NDArray] values. Arrays at or below the
// configured threshold are inlined as a composite literal; larger ones are
// registered with the archive's array sidecar and rendered as a lookup
// through the ambient accessor instead (SPEC_FULL.md §4.A step 6).
func representArray(v any, env *Env) (Expr, bool) {
	arr, ok := v.(NDArray)
	if !ok {
		return Expr{}, false
	}

	if arr.Len() > env.ArrayThreshold() {
		key := env.sidecarStore().Put(arr.arr)
		code := fmt.Sprintf("%s[%s]", env.DataName(), strconv.Quote(key))
		return Expr{Code: code, Pure: false}, true
	}

	return representArrayLiteral(arr)
}

// representArrayLiteral renders arr as NewNDArray[T](shape, []T{...}),
// dispatching T by arr's recorded dtype tag.
func representArrayLiteral(arr NDArray) (Expr, bool) {
	switch arr.Dtype() {
	case "float32":
		return arrayLiteral(arr, Decode[float32])
	case "float64":
		return arrayLiteral(arr, Decode[float64])
	case "int8":
		return arrayLiteral(arr, Decode[int8])
	case "int16":
		return arrayLiteral(arr, Decode[int16])
	case "int32":
		return arrayLiteral(arr, Decode[int32])
	case "int64":
		return arrayLiteral(arr, Decode[int64])
	case "uint8":
		return arrayLiteral(arr, Decode[uint8])
	case "uint16":
		return arrayLiteral(arr, Decode[uint16])
	case "uint32":
		return arrayLiteral(arr, Decode[uint32])
	case "uint64":
		return arrayLiteral(arr, Decode[uint64])
	default:
		return Expr{}, false
	}
}

func arrayLiteral[T Number](arr NDArray, decode func(NDArray) ([]T, error)) (Expr, bool) {
	data, err := decode(arr)
	if err != nil {
		return Expr{}, false
	}

	args := make([]Arg, len(data))
	parts := make([]string, len(data))
	for i, d := range data {
		name := fmt.Sprintf("a%d", i)
		args[i] = Arg{Name: name, Value: d}
		parts[i] = name
	}

	shapeParts := make([]string, len(arr.Shape()))
	for i, d := range arr.Shape() {
		shapeParts[i] = strconv.Itoa(d)
	}

	code := fmt.Sprintf("persist.NewNDArray[%s]([]int{%s}, []%s{%s})",
		arr.Dtype(), strings.Join(shapeParts, ", "), arr.Dtype(), strings.Join(parts, ", "))
	return Expr{
		Code:    code,
		Args:    args,
		Imports: []Import{{Path: "github.com/forbes-group/persist"}},
		Pure:    true,
	}, true
}
