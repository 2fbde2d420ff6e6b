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
	"bytes"
	"encoding/binary"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/forbes-group/persist/internal/sidecar"
)

// Number is the set of element types [NDArray] can hold: the fixed-width
// numeric kinds that have an unambiguous little-endian byte encoding and an
// NPY descr string (see internal/sidecar).
type Number interface {
	~float32 | ~float64 |
		~int8 | ~int16 | ~int32 | ~int64 |
		~uint8 | ~uint16 | ~uint32 | ~uint64
}

// NDArray is a numeric array value: a shape plus little-endian element
// data. Small arrays are inlined as composite literals; arrays with more
// elements than the configured array threshold are instead written to the
// array sidecar and referenced through the ambient lookup accessor (see
// SPEC_FULL.md §4.A step 6 and §4.E).
type NDArray struct {
	arr sidecar.Array
}

// NewNDArray builds an [NDArray] from shape and row-major data. len(data)
// must equal the product of shape.
func NewNDArray[T Number](shape []int, data []T) NDArray {
	var zero T
	dtype := fmt.Sprintf("%T", zero)

	var buf bytes.Buffer
	// binary.Write understands slices of fixed-size numeric kinds
	// directly; this is the one place the Go standard library's binary
	// package stands in for a hand-rolled loop, since it already produces
	// exactly the little-endian layout the sidecar's NPY writer expects.
	if err := binary.Write(&buf, binary.LittleEndian, data); err != nil {
		panic("persist: NewNDArray: " + err.Error())
	}

	return NDArray{arr: sidecar.Array{Shape: append([]int{}, shape...), Dtype: dtype, Data: buf.Bytes()}}
}

// Shape returns the array's dimensions.
func (a NDArray) Shape() []int { return append([]int{}, a.arr.Shape...) }

// Dtype returns the Go element type name, e.g. "float64".
func (a NDArray) Dtype() string { return a.arr.Dtype }

// Len returns the total element count (the product of Shape), or 0 when
// Shape is empty.
func (a NDArray) Len() int {
	n := 1
	for _, d := range a.arr.Shape {
		n *= d
	}
	if len(a.arr.Shape) == 0 {
		return 0
	}
	return n
}

// Decode reconstructs the typed element slice. T must match the dtype
// NDArray was built with.
func Decode[T Number](a NDArray) ([]T, error) {
	var zero T
	want := fmt.Sprintf("%T", zero)
	if want != a.arr.Dtype {
		return nil, fmt.Errorf("persist: NDArray holds dtype %q, not %q", a.arr.Dtype, want)
	}
	out := make([]T, a.Len())
	if err := binary.Read(bytes.NewReader(a.arr.Data), binary.LittleEndian, out); err != nil {
		return nil, fmt.Errorf("persist: decoding NDArray: %w", err)
	}
	return out, nil
}

// HDF5Writer is the external collaborator interface for the HDF5 array
// sidecar backend (see [WithHDF5Writer]). persist ships no HDF5 bindings
// of its own; this is a re-export of internal/sidecar's interface so
// callers implementing it don't need to reach into an internal package.
type HDF5Writer = sidecar.HDF5Writer

// LoadArrays reads every array the sidecar directory dir holds back into
// memory. It is called from the loader boilerplate [package_writer.go]
// prepends to a generated file's "_arrays" binding, keyed by the same
// "array_N" strings [NDArray] lookups in emitted code reference.
func LoadArrays(dir string, backend Backend, hdf5 HDF5Writer) (map[string]NDArray, error) {
	format := sidecar.FormatNPY
	if backend == BackendHDF5 {
		format = sidecar.FormatHDF5
	}

	keys, err := sidecarKeys(dir, format, hdf5)
	if err != nil {
		return nil, err
	}

	raw, err := sidecar.Load(dir, format, hdf5, keys)
	if err != nil {
		return nil, err
	}
	out := make(map[string]NDArray, len(raw))
	for k, arr := range raw {
		out[k] = NDArray{arr: arr}
	}
	return out, nil
}

// sidecarKeys enumerates every key present in dir: the NPY backend has no
// catalog file of its own, so the key set is derived from the ".npy"
// filenames actually on disk; the HDF5 backend asks its injected
// collaborator directly.
func sidecarKeys(dir string, format sidecar.Format, hdf5 HDF5Writer) ([]string, error) {
	if format == sidecar.FormatHDF5 {
		if hdf5 == nil {
			return nil, fmt.Errorf("persist: FormatHDF5 requires an HDF5Writer")
		}
		return hdf5.Keys(dir)
	}

	matches, err := filepath.Glob(filepath.Join(dir, "*.npy"))
	if err != nil {
		return nil, fmt.Errorf("persist: listing sidecar directory %q: %w", dir, err)
	}
	keys := make([]string, len(matches))
	for i, m := range matches {
		keys[i] = strings.TrimSuffix(filepath.Base(m), ".npy")
	}
	return keys, nil
}
