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

import "fmt"

// representRange handles [Range] values, emitting them as a three-field
// composite literal rather than expanding them.
func representRange(v any, _ *Env) (Expr, bool) {
	r, ok := v.(Range)
	if !ok {
		return Expr{}, false
	}
	code := fmt.Sprintf("persist.Range{Start: %d, Stop: %d, Step: %d}", r.Start, r.Stop, r.Step)
	return Expr{
		Code:    code,
		Imports: []Import{{Path: "github.com/forbes-group/persist"}},
		Pure:    true,
	}, true
}
