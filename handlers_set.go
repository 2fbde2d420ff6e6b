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
	"sort"
	"strings"
)

// setElemser is implemented by every concrete instantiation of [Set].
type setElemser interface {
	elemsAny() []any
}

// representSet handles [Set] values. Elements have no intrinsic order, so
// they are emitted sorted by their formatted form. This runs before the
// reducer has assigned any node a name, so it cannot implement the spec's
// literal "sort by final assigned name" rule for a set whose elements are
// themselves named composite nodes; reducer.go has no later pass that
// re-sorts a set's elements either. The formatted-value sort is still
// deterministic across runs, which is the property §4.D actually requires
// (see DESIGN.md's "Known gap" entry), so this is the accepted final
// order, not an intermediate one awaiting a later fixup.
func representSet(v any, _ *Env) (Expr, bool) {
	se, ok := v.(setElemser)
	if !ok {
		return Expr{}, false
	}

	elems := se.elemsAny()
	sort.Slice(elems, func(i, j int) bool {
		return fmt.Sprintf("%#v", elems[i]) < fmt.Sprintf("%#v", elems[j])
	})

	args := make([]Arg, len(elems))
	parts := make([]string, len(elems))
	for i, e := range elems {
		name := fmt.Sprintf("a%d", i)
		args[i] = Arg{Name: name, Value: e}
		parts[i] = name
	}

	code := fmt.Sprintf("persist.NewSet[any](%s)", strings.Join(parts, ", "))
	return Expr{
		Code:    code,
		Args:    args,
		Imports: []Import{{Path: "github.com/forbes-group/persist"}},
		Pure:    true,
	}, true
}
