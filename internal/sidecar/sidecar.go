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

// Package sidecar implements the array sidecar: the on-disk store for
// numeric arrays too large to inline as source literals (see SPEC_FULL.md
// §4.E). It is kept free of any dependency on the root persist package so
// that package can import it without creating a cycle; the root package's
// NDArray is a thin wrapper around this package's [Array].
package sidecar

import (
	"fmt"
	"sync"

	"golang.org/x/crypto/blake2b"
)

// Format selects the on-disk layout [Store.Save] and [Store.Load] use.
type Format int

const (
	// FormatNPY writes one bit-exact .npy file per entry.
	FormatNPY Format = iota
	// FormatHDF5 delegates to an injected [HDF5Writer]; this package ships
	// no HDF5 bindings of its own.
	FormatHDF5
)

// Array is raw array content: a shape, a dtype tag (a Go element type
// name, e.g. "float64"), and its data in little-endian byte order.
type Array struct {
	Shape []int
	Dtype string
	Data  []byte
}

// HDF5Writer is the external collaborator interface for the HDF5 backend.
// persist has no HDF5 bindings; callers who want that format implement
// this themselves (or import a library that does) and pass it through
// [Store.Save]/[Store.Load].
type HDF5Writer interface {
	WriteArray(dir, key string, arr Array) error
	ReadArray(dir, key string) (Array, error)
	Keys(dir string) ([]string, error)
}

// Entry is one recorded array plus its content checksum.
type Entry struct {
	Key      string
	Array    Array
	Checksum [32]byte
}

// Store accumulates arrays for one archive render and writes or reads them
// back as a unit.
type Store struct {
	mu      sync.Mutex
	entries []Entry
	byKey   map[string]int
}

// NewStore returns an empty [Store].
func NewStore() *Store {
	return &Store{byKey: make(map[string]int)}
}

// Put records arr and returns its assigned key, of the form "array_<N>"
// with N the zero-based insertion index, matching the dense zero-based
// sidecar keys SPEC_FULL.md §3 requires for determinism.
func (s *Store) Put(arr Array) string {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := fmt.Sprintf("array_%d", len(s.entries))
	sum := blake2b.Sum256(arr.Data)
	s.entries = append(s.entries, Entry{Key: key, Array: arr, Checksum: sum})
	s.byKey[key] = len(s.entries) - 1
	return key
}

// Len returns the number of recorded arrays.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

// Entries returns the recorded entries in insertion (key) order.
func (s *Store) Entries() []Entry {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Entry, len(s.entries))
	copy(out, s.entries)
	return out
}

// Save writes every recorded array to dir using format. FormatHDF5
// requires a non-nil hdf5.
func (s *Store) Save(dir string, format Format, hdf5 HDF5Writer) error {
	for _, e := range s.Entries() {
		switch format {
		case FormatNPY:
			if err := writeNPY(dir, e.Key, e.Array); err != nil {
				return fmt.Errorf("sidecar: writing %s: %w", e.Key, err)
			}
		case FormatHDF5:
			if hdf5 == nil {
				return fmt.Errorf("sidecar: FormatHDF5 requires an HDF5Writer")
			}
			if err := hdf5.WriteArray(dir, e.Key, e.Array); err != nil {
				return fmt.Errorf("sidecar: writing %s: %w", e.Key, err)
			}
		default:
			return fmt.Errorf("sidecar: unknown format %d", format)
		}
	}
	return nil
}

// Load reads every named array in dir back. It does not verify checksums,
// and neither does the emitted loader boilerplate: Entry.Checksum is
// computed by Put but is not written to disk.
func Load(dir string, format Format, hdf5 HDF5Writer, keys []string) (map[string]Array, error) {
	out := make(map[string]Array, len(keys))
	for _, key := range keys {
		var arr Array
		var err error
		switch format {
		case FormatNPY:
			arr, err = readNPY(dir, key)
		case FormatHDF5:
			if hdf5 == nil {
				return nil, fmt.Errorf("sidecar: FormatHDF5 requires an HDF5Writer")
			}
			arr, err = hdf5.ReadArray(dir, key)
		default:
			return nil, fmt.Errorf("sidecar: unknown format %d", format)
		}
		if err != nil {
			return nil, err
		}
		out[key] = arr
	}
	return out, nil
}
