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
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func buildForReduce(t *testing.T, opts *Options, topLevelName string, v any) ([]*node, []*node) {
	t.Helper()
	env := &Env{opts: opts}
	b := newBuilder(env, newRegistry())
	root, err := b.Insert(v, kindTopLevel)
	require.NoError(t, err)
	root.name = topLevelName
	return b.Nodes(), []*node{root}
}

func TestReduceInlinesSingleRefPureLeafInFlatMode(t *testing.T) {
	t.Parallel()
	type leaf struct{ X int }
	all, roots := buildForReduce(t, New(WithScoped(false)), "top", &leaf{X: 7})

	red, err := reduce(all, roots, New(WithScoped(false)))
	require.NoError(t, err)

	// Only the top-level binding should survive; the leaf struct (refs==1,
	// pure) inlines directly into it.
	require.Len(t, red.Order, 1)
	assert.Equal(t, "top", red.Order[0].name)
	assert.Contains(t, red.Code[red.Order[0].id], "7")
}

func TestReduceKeepsSharedNodeAsBinding(t *testing.T) {
	t.Parallel()
	type leaf struct{ X int }
	shared := &leaf{X: 9}
	all, roots := buildForReduce(t, New(WithScoped(false)), "top", []any{shared, shared})

	red, err := reduce(all, roots, New(WithScoped(false)))
	require.NoError(t, err)

	// shared has refs==2, so it must survive as its own binding.
	require.Len(t, red.Order, 2)
	names := map[string]bool{}
	for _, n := range red.Order {
		names[n.name] = true
	}
	assert.True(t, names["top"])
}

func TestReduceScopedModeInlinesNothing(t *testing.T) {
	t.Parallel()
	type leaf struct{ X int }
	all, roots := buildForReduce(t, New(WithScoped(true)), "top", &leaf{X: 1})

	red, err := reduce(all, roots, New(WithScoped(true)))
	require.NoError(t, err)
	assert.Len(t, red.Order, len(all))
}

func TestReduceGeneratedNamesAvoidTopLevelCollision(t *testing.T) {
	t.Parallel()
	type leaf struct{ X int }
	shared := &leaf{X: 2}
	all, roots := buildForReduce(t, New(WithScoped(true)), "_g0", []any{shared, shared})

	red, err := reduce(all, roots, New(WithScoped(true)))
	require.NoError(t, err)
	count := 0
	for _, n := range red.Order {
		if n.name == "_g0" {
			count++
		}
	}
	assert.Equal(t, 1, count, "only the top-level binding may be named _g0")
}
