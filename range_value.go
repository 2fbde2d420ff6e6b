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

// Range is a lazily-describable arithmetic progression, the Go analogue of
// Python's range object: persist represents it as a three-field literal
// rather than expanding it into a slice, so an archive holding a
// million-element range stays a few bytes of source instead of a multi-
// megabyte literal.
type Range struct {
	Start, Stop, Step int64
}

// NewRange returns a [Range] over [start, stop) counting by step. step must
// be non-zero.
func NewRange(start, stop, step int64) Range {
	return Range{Start: start, Stop: stop, Step: step}
}

// Len reports the number of values the range produces.
func (r Range) Len() int {
	if r.Step == 0 {
		return 0
	}
	if r.Step > 0 {
		if r.Stop <= r.Start {
			return 0
		}
		return int((r.Stop - r.Start + r.Step - 1) / r.Step)
	}
	if r.Stop >= r.Start {
		return 0
	}
	return int((r.Start - r.Stop - r.Step - 1) / -r.Step)
}
