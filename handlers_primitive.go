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
	"math/big"
	"strconv"
)

// floatHelperKind identifies which non-finite float constructor a
// floatHelper node stands for.
type floatHelperKind int

const (
	helperPosInf floatHelperKind = iota
	helperNegInf
	helperNaN
)

// floatHelper is the node synthesized for a non-finite float literal. It is
// the one place a free identifier crosses into the emitted scope for an
// otherwise-primitive value: rather than inlining math.Inf(1) at every use
// site, the reducer always keeps this binding named (Pure is false on
// purpose, see below), matching the "inf = float(\"inf\")" helper the
// original persist library emits.
type floatHelper struct{ Kind floatHelperKind }

// representPrimitive handles nil, bool, every integer kind, big.Int,
// float32/float64 (including non-finite values), complex64/128, []byte and
// string.
func representPrimitive(v any, _ *Env) (Expr, bool) {
	switch x := v.(type) {
	case nil:
		return Expr{Code: "nil", Pure: true}, true
	case bool:
		return Expr{Code: strconv.FormatBool(x), Pure: true}, true
	case int:
		return Expr{Code: strconv.Itoa(x), Pure: true}, true
	case int8, int16, int32, int64:
		return Expr{Code: fmt.Sprintf("%T(%d)", x, x), Pure: true}, true
	case uint, uint8, uint16, uint32, uint64, uintptr:
		return Expr{Code: fmt.Sprintf("%T(%d)", x, x), Pure: true}, true
	case *big.Int:
		return Expr{
			Code:    fmt.Sprintf("func() *big.Int { n, _ := new(big.Int).SetString(%s, 10); return n }()", strconv.Quote(x.String())),
			Imports: []Import{{Path: "math/big"}},
			Pure:    true,
		}, true
	case float32:
		return representFloat(float64(x), "float32")
	case float64:
		return representFloat(x, "float64")
	case complex64:
		return representComplex(complex128(x), "complex64")
	case complex128:
		return representComplex(x, "complex128")
	case []byte:
		return Expr{Code: fmt.Sprintf("[]byte(%s)", strconv.Quote(string(x))), Pure: true}, true
	case string:
		return Expr{Code: strconv.Quote(x), Pure: true}, true
	case floatHelper:
		return representFloatHelper(x)
	default:
		return Expr{}, false
	}
}

func representFloat(f float64, cast string) (Expr, bool) {
	switch {
	case math.IsInf(f, 1):
		return Expr{Code: "a0", Args: []Arg{{Name: "a0", Value: floatHelper{Kind: helperPosInf}}}, Pure: true}, true
	case math.IsInf(f, -1):
		return Expr{Code: "a0", Args: []Arg{{Name: "a0", Value: floatHelper{Kind: helperNegInf}}}, Pure: true}, true
	case math.IsNaN(f):
		return Expr{Code: "a0", Args: []Arg{{Name: "a0", Value: floatHelper{Kind: helperNaN}}}, Pure: true}, true
	default:
		return Expr{Code: fmt.Sprintf("%s(%s)", cast, strconv.FormatFloat(f, 'g', -1, 64)), Pure: true}, true
	}
}

func representFloatHelper(h floatHelper) (Expr, bool) {
	switch h.Kind {
	case helperPosInf:
		return Expr{Code: "math.Inf(1)", Imports: []Import{{Path: "math"}}, Pure: false}, true
	case helperNegInf:
		return Expr{Code: "math.Inf(-1)", Imports: []Import{{Path: "math"}}, Pure: false}, true
	default:
		return Expr{Code: "math.NaN()", Imports: []Import{{Path: "math"}}, Pure: false}, true
	}
}

func representComplex(c complex128, cast string) (Expr, bool) {
	re, _ := representFloat(real(c), "float64")
	im, _ := representFloat(imag(c), "float64")

	// Each component independently names its helper arg (if any) "a0";
	// renumber them to stay unique within the combined expression.
	var args []Arg
	reCode, imCode := re.Code, im.Code
	if len(re.Args) > 0 {
		reCode = "a0"
		args = append(args, Arg{Name: "a0", Value: re.Args[0].Value})
	}
	if len(im.Args) > 0 {
		name := fmt.Sprintf("a%d", len(args))
		imCode = name
		args = append(args, Arg{Name: name, Value: im.Args[0].Value})
	}

	imports := append(append([]Import{}, re.Imports...), im.Imports...)
	return Expr{
		Code:    fmt.Sprintf("%s(complex(%s, %s))", cast, reCode, imCode),
		Args:    args,
		Imports: imports,
		Pure:    re.Pure && im.Pure,
	}, true
}
