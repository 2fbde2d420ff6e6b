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

package ident

import (
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSanitize(t *testing.T) {
	t.Parallel()
	cases := map[string]string{
		"MyValue":    "my_value",
		"123abc":     "_123abc",
		"func":       "func_",
		"":           "_",
		"a-b c.d":    "a_b_c_d",
		"alreadyok":  "alreadyok",
	}
	for in, want := range cases {
		assert.Equal(t, want, Sanitize(in), "input %q", in)
	}
}

func TestValidate(t *testing.T) {
	t.Parallel()
	require.NoError(t, Validate("foo_bar", nil))
	assert.Error(t, Validate("123", nil))
	assert.Error(t, Validate("func", nil))

	pattern := regexp.MustCompile(`^[a-z_]+$`)
	require.NoError(t, Validate("foo", pattern))
	assert.Error(t, Validate("Foo", pattern))
}

func TestGeneratorNextAvoidsReserved(t *testing.T) {
	t.Parallel()
	g := NewGenerator("_g1")
	assert.Equal(t, "_g0", g.Next())
	assert.Equal(t, "_g2", g.Next())
}

func TestGeneratorBump(t *testing.T) {
	t.Parallel()
	g := NewGenerator("_g3")
	assert.Equal(t, "_g3_1", g.Bump("_g3"))
	assert.Equal(t, "_g3_2", g.Bump("_g3"))
	assert.Equal(t, "fresh", g.Bump("fresh"))
}

func TestIsGenerated(t *testing.T) {
	t.Parallel()
	assert.True(t, IsGenerated("_g12"))
	assert.False(t, IsGenerated("widget"))
}
