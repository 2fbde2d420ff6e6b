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

package identhash_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/forbes-group/persist/internal/identhash"
)

func TestDeterministic(t *testing.T) {
	t.Parallel()

	a := identhash.New().String("hello").Uint64(42)
	b := identhash.New().String("hello").Uint64(42)
	assert.Equal(t, a, b)
}

func TestDistinguishesInputs(t *testing.T) {
	t.Parallel()

	a := identhash.New().String("hello")
	b := identhash.New().String("world")
	assert.NotEqual(t, a, b)

	c := identhash.New().Bytes([]byte("exactly8"))
	d := identhash.New().Bytes([]byte("exactly9"))
	assert.NotEqual(t, c, d)
}

func TestEmptyInput(t *testing.T) {
	t.Parallel()

	assert.Equal(t, identhash.New().Bytes(nil), identhash.New().Bytes([]byte{}))
}
