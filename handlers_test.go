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
	"go/parser"
	"go/token"
	"math"
	"reflect"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestRegistryHandlerOrder exercises each of the ten handler slots
// (component A, SPEC_FULL.md §4.A) directly against the registry, table-
// driven in the teacher's testify style. Each case's value is chosen so
// that exactly the named handler accepts it.
func TestRegistryHandlerOrder(t *testing.T) {
	t.Parallel()
	env := &Env{opts: defaultOptions()}

	cases := []struct {
		name     string
		value    any
		wantCode string
	}{
		{"primitive/int", 42, "42"},
		{"primitive/string", "hi", `"hi"`},
		{"primitive/nil", nil, "nil"},
		{"sequence/slice", []int{1, 2, 3}, "[]int{"},
		{"sequence/array", [2]int{1, 2}, "[2]int{"},
		{"map/bare", map[string]int{"a": 1}, "map[string]int{"},
		{"set", NewSet(1, 2, 3), "persist.NewSet["},
		{"range", NewRange(0, 10, 2), "persist.Range{Start: 0, Stop: 10, Step: 2}"},
		{"array/ndarray", NewNDArray[float64]([]int{2}, []float64{1, 2}), "persist.NewNDArray["},
		{"ref/type", reflect.TypeFor[plainStruct](), "reflect.TypeFor["},
		{"ref/func", TestRegistryHandlerOrder, "TestRegistryHandlerOrder"},
		{"custom", &customRepresenterValue{tag: "xyz"}, "custom(xyz)"},
		{"reduce/newargs", newArgsOnly{}, "persist.New["},
		{"fallback/struct", plainStruct{X: 1, Y: "a"}, "plainStruct{"},
	}

	r := newRegistry()
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			expr, ok := r.represent(tc.value, env)
			require.True(t, ok, "value should be representable")
			assert.Contains(t, expr.Code, tc.wantCode)
		})
	}
}

type plainStruct struct {
	X int
	Y string
}

type customRepresenterValue struct{ tag string }

func (c *customRepresenterValue) PersistRepr(env *Env) (Expr, bool) {
	return Expr{Code: "custom(" + c.tag + ")", Pure: true}, true
}

func TestRepresentPrimitiveTable(t *testing.T) {
	t.Parallel()
	cases := []struct {
		name string
		in   any
		want string
		pure bool
	}{
		{"nil", nil, "nil", true},
		{"bool true", true, "true", true},
		{"int", 7, "7", true},
		{"int8", int8(3), "int8(3)", true},
		{"uint64", uint64(9), "uint64(9)", true},
		{"float64 finite", 1.5, "float64(1.5)", true},
		{"string", "ab\"c", `"ab\"c"`, true},
		{"bytes", []byte("ab"), `[]byte("ab")`, true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			expr, ok := representPrimitive(tc.in, nil)
			require.True(t, ok)
			assert.Equal(t, tc.want, expr.Code)
			assert.Equal(t, tc.pure, expr.Pure)
		})
	}
}

func TestRepresentPrimitiveNonFiniteFloatEmitsHelperArg(t *testing.T) {
	t.Parallel()
	expr, ok := representPrimitive(math.Inf(1), nil)
	require.True(t, ok)
	require.Len(t, expr.Args, 1)
	helperExpr, ok := representPrimitive(expr.Args[0].Value, nil)
	require.True(t, ok)
	assert.Equal(t, "math.Inf(1)", helperExpr.Code)
	assert.False(t, helperExpr.Pure)
}

func TestRepresentPrimitiveDeclinesUnknownKind(t *testing.T) {
	t.Parallel()
	_, ok := representPrimitive(plainStruct{}, nil)
	assert.False(t, ok)
}

func TestRepresentSequenceEmptySlice(t *testing.T) {
	t.Parallel()
	expr, ok := representSequence([]int{}, nil)
	require.True(t, ok)
	assert.Equal(t, "[]int{}", expr.Code)
}

func TestRepresentSequenceDeclinesByteSlice(t *testing.T) {
	t.Parallel()
	// []byte is handled by representPrimitive, not representSequence.
	_, ok := representSequence([]byte("x"), nil)
	assert.False(t, ok)
}

func TestRepresentMapOrderedPreservesInsertionOrder(t *testing.T) {
	t.Parallel()
	om := NewOrderedMap[string, int]()
	om.Set("z", 1).Set("a", 2)

	expr, ok := representMap(om, nil)
	require.True(t, ok)
	assert.Contains(t, expr.Code, "persist.NewOrderedMap[any, any]()")
	assert.Contains(t, expr.Code, ".Set(")
	assert.False(t, expr.Pure)
	assert.Equal(t, []any{"z", 1, "a", 2}, argValues(expr), "entries must keep insertion order")
}

func TestRepresentMapBareSortsByFormattedKey(t *testing.T) {
	t.Parallel()
	expr, ok := representMap(map[string]int{"b": 2, "a": 1}, nil)
	require.True(t, ok)
	assert.Equal(t, []any{"a", 1, "b", 2}, argValues(expr), `"a" key must sort before "b"`)
}

func indexOf(t *testing.T, haystack, needle string) int {
	t.Helper()
	for i := 0; i+len(needle) <= len(haystack); i++ {
		if haystack[i:i+len(needle)] == needle {
			return i
		}
	}
	t.Fatalf("substring %q not found in %q", needle, haystack)
	return -1
}

func TestRepresentSetSortsDeterministically(t *testing.T) {
	t.Parallel()
	first, ok := representSet(NewSet(3, 1, 2), nil)
	require.True(t, ok)
	second, ok := representSet(NewSet(2, 3, 1), nil)
	require.True(t, ok)

	firstArgs := argValues(first)
	secondArgs := argValues(second)
	assert.Equal(t, firstArgs, secondArgs, "element order must not depend on construction order")
}

func argValues(e Expr) []any {
	out := make([]any, len(e.Args))
	for i, a := range e.Args {
		out[i] = a.Value
	}
	return out
}

func TestRepresentRangeDeclinesNonRange(t *testing.T) {
	t.Parallel()
	_, ok := representRange(42, nil)
	assert.False(t, ok)
}

func TestRepresentArrayInlinesBelowThreshold(t *testing.T) {
	t.Parallel()
	env := &Env{opts: New(WithArrayThreshold(10))}
	arr := NewNDArray[float64]([]int{3}, []float64{1, 2, 3})
	expr, ok := representArray(arr, env)
	require.True(t, ok)
	assert.Contains(t, expr.Code, "persist.NewNDArray[float64]")
	assert.Zero(t, env.sidecarStore().Len())
}

func TestRepresentArraySidecarsAboveThreshold(t *testing.T) {
	t.Parallel()
	env := &Env{opts: New(WithArrayThreshold(2))}
	arr := NewNDArray[float64]([]int{3}, []float64{1, 2, 3})
	expr, ok := representArray(arr, env)
	require.True(t, ok)
	assert.Contains(t, expr.Code, `_arrays["array_0"]`)
	assert.Equal(t, 1, env.sidecarStore().Len())
}

func TestRepresentRefFuncDeclinesMethodValue(t *testing.T) {
	t.Parallel()
	w := &reducibleWidget{}
	_, ok := representRef(w.PersistReduce, nil)
	assert.False(t, ok, "a bound method value has no plain package-level reference form")
}

func TestRepresentCustomDeclinesWithoutRepresenter(t *testing.T) {
	t.Parallel()
	_, ok := representCustom(plainStruct{}, nil)
	assert.False(t, ok)
}

func TestRepresentFallbackRejectsUnexportedField(t *testing.T) {
	t.Parallel()
	type hidden struct{ x int }
	_, ok := representFallback(hidden{x: 1}, nil)
	assert.False(t, ok)
}

func TestRepresentFallbackHandlesPointerStruct(t *testing.T) {
	t.Parallel()
	expr, ok := representFallback(&plainStruct{X: 1, Y: "z"}, nil)
	require.True(t, ok)
	assert.True(t, len(expr.Code) > 0 && expr.Code[0] == '&')
	assert.Contains(t, expr.Code, "plainStruct{")
}

func TestRepresentFallbackUsesRepresentableFields(t *testing.T) {
	t.Parallel()
	c := &cyclicSelf{}
	expr, ok := representFallback(c, nil)
	require.True(t, ok)
	assert.Contains(t, expr.Code, "cyclicSelf{")
	assert.Contains(t, expr.Code, "Next: ")
}

// TestArchiveRoundTripParsesAsValidGo is the Go-native proxy for SPEC_FULL
// §8's headline round-trip property: since this target has no eval(), the
// closest checkable invariant is that render(insert(v)) always produces a
// syntactically valid Go source file whose declarations match the inserted
// values' literal forms, and that a value inserted twice (spec.md's shared-
// reference scenario) collapses to exactly one defining occurrence.
func TestArchiveRoundTripParsesAsValidGo(t *testing.T) {
	t.Parallel()
	type leaf struct{ X int }
	shared := &leaf{X: 5}

	a := NewArchive(WithScoped(false))
	require.NoError(t, a.InsertAs("n", 42))
	require.NoError(t, a.InsertAs("s", "hello"))
	require.NoError(t, a.InsertAs("xs", []int{1, 2, 3}))
	require.NoError(t, a.InsertAs("pair", []any{shared, shared}))

	src, err := a.Render("generated")
	require.NoError(t, err)

	fset := token.NewFileSet()
	_, err = parser.ParseFile(fset, "generated.go", src, parser.AllErrors)
	require.NoError(t, err, "rendered source must be syntactically valid Go:\n%s", src)

	assert.Contains(t, src, "var n = 42")
	assert.Contains(t, src, `var s = "hello"`)
	assert.Contains(t, src, "var xs = []int{1, 2, 3}")

	// The shared *leaf must appear as a literal exactly once; its second
	// occurrence in "pair" is an identifier reference, not a second
	// "leaf{X: 5}" literal (sharing preservation, SPEC_FULL §8).
	assert.Equal(t, 1, countOccurrences(src, "X: 5"))
}

func countOccurrences(s, substr string) int {
	count := 0
	for i := 0; i+len(substr) <= len(s); i++ {
		if s[i:i+len(substr)] == substr {
			count++
			i += len(substr) - 1
		}
	}
	return count
}

// TestArchiveRoundTripScopedModeParsesAsValidGo is the scoped-mode
// counterpart, since §8 additionally requires flat/scoped equivalence.
func TestArchiveRoundTripScopedModeParsesAsValidGo(t *testing.T) {
	t.Parallel()
	a := NewArchive(WithScoped(true))
	require.NoError(t, a.InsertAs("n", 7))
	require.NoError(t, a.InsertAs("xs", []int{9, 8}))

	src, err := a.Render("generated")
	require.NoError(t, err)

	fset := token.NewFileSet()
	_, err = parser.ParseFile(fset, "generated.go", src, parser.AllErrors)
	require.NoError(t, err, "rendered source must be syntactically valid Go:\n%s", src)
}

// TestArchiveRoundTripScenario5ParsesAsValidGo renders an archive holding
// exactly the SPEC_FULL §8 scenario 5 object and checks both that the
// emitted source parses and that the setstate call textually follows
// construction, matching the fix to representNewArgs.
func TestArchiveRoundTripScenario5ParsesAsValidGo(t *testing.T) {
	t.Parallel()
	a := NewArchive(WithScoped(false))
	require.NoError(t, a.InsertAs("obj", &scenario5Obj{}))

	src, err := a.Render("generated")
	require.NoError(t, err)

	fset := token.NewFileSet()
	_, err = parser.ParseFile(fset, "generated.go", src, parser.AllErrors)
	require.NoError(t, err, "rendered source must be syntactically valid Go:\n%s", src)

	ctorIdx := indexOf(t, src, "persist.New[")
	setstateIdx := indexOf(t, src, "PersistSetState(")
	assert.Less(t, ctorIdx, setstateIdx, "construction must precede the setstate call")
}
