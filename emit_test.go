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
	"testing"

	"github.com/pmezard/go-difflib/difflib"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func assertGoldenEqual(t *testing.T, want, got string) {
	t.Helper()
	if want == got {
		return
	}
	diff, err := difflib.GetUnifiedDiffString(difflib.UnifiedDiff{
		A:        difflib.SplitLines(want),
		B:        difflib.SplitLines(got),
		FromFile: "want",
		ToFile:   "got",
		Context:  2,
	})
	require.NoError(t, err)
	t.Fatalf("emitted source mismatch:\n%s", diff)
}

func TestEmitFlatSimple(t *testing.T) {
	t.Parallel()
	type leaf struct{ X int }
	all, roots := buildForReduce(t, New(WithScoped(false)), "top", &leaf{X: 7})
	red, err := reduce(all, roots, New(WithScoped(false)))
	require.NoError(t, err)

	out, err := emit("generated", red, roots, New(WithScoped(false)))
	require.NoError(t, err)

	want := "package generated\n\nimport (\n\t\"github.com/forbes-group/persist\"\n)\n\nvar top = " + red.Code[roots[0].id] + "\n"
	assertGoldenEqual(t, want, out)
}

func TestEmitScopedWrapsInFuncLiteral(t *testing.T) {
	t.Parallel()
	type leaf struct{ X int }
	all, roots := buildForReduce(t, New(WithScoped(true)), "top", &leaf{X: 1})
	red, err := reduce(all, roots, New(WithScoped(true)))
	require.NoError(t, err)

	out, err := emit("generated", red, roots, New(WithScoped(true)))
	require.NoError(t, err)

	assert.Contains(t, out, "var top = func() any {")
	assert.Contains(t, out, "return "+red.Code[roots[0].id])
}

func TestEmitSingleItemModeAddsAccessor(t *testing.T) {
	t.Parallel()
	all, roots := buildForReduce(t, New(WithScoped(false)), "top", 42)
	opts := New(WithScoped(false), WithSingleItemMode(true))
	red, err := reduce(all, roots, opts)
	require.NoError(t, err)

	out, err := emit("generated", red, roots, opts)
	require.NoError(t, err)

	assert.Contains(t, out, "func Value() any {")
	assert.Contains(t, out, "return top")
}

func TestEmitSingleItemModeRejectsMultipleRoots(t *testing.T) {
	t.Parallel()
	env := &Env{opts: defaultOptions()}
	b := newBuilder(env, newRegistry())
	r1, err := b.Insert(1, kindTopLevel)
	require.NoError(t, err)
	r1.name = "a"
	r2, err := b.Insert(2, kindTopLevel)
	require.NoError(t, err)
	r2.name = "b"

	roots := []*node{r1, r2}
	opts := New(WithSingleItemMode(true))
	red, err := reduce(b.Nodes(), roots, opts)
	require.NoError(t, err)

	_, err = emit("generated", red, roots, opts)
	assert.Error(t, err)
}

func TestEmitHoistsAndSortsImports(t *testing.T) {
	t.Parallel()
	all, roots := buildForReduce(t, New(WithScoped(false)), "top", []any{math.Inf(1), 2.0})
	red, err := reduce(all, roots, New(WithScoped(false)))
	require.NoError(t, err)

	out, err := emit("generated", red, roots, New(WithScoped(false)))
	require.NoError(t, err)

	assert.Contains(t, out, "import (\n\t\"math\"\n)")
}

