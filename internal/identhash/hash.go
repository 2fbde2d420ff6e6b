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

// Package identhash implements a small, fast, non-cryptographic hash used
// to build value-equality identity keys for atoms (small integers, strings,
// and similar identity-unstable leaves) during graph building.
//
// The algorithm is the same "multiply-rotate-xor" shape as the FxHash used
// by the teacher's swiss-table implementation, re-expressed over plain
// byte slices instead of raw memory scans, since here we always already
// have a canonical encoding of the value in hand rather than an in-memory
// struct layout to walk.
package identhash

import "math/bits"

// Hash is an opaque 64-bit digest. Two equal values hashed with the same
// sequence of [Hash.Uint64]/[Hash.Bytes] calls produce equal digests;
// collisions are possible and are resolved by the caller via a follow-up
// equality check (see the archive's node registry).
type Hash uint64

// New returns the zero hash, ready to be folded into with Uint64/Bytes.
func New() Hash { return 0 }

const (
	rotate = 5
	key    = 0x517cc1b727220a95
)

// Uint64 folds n into the hash and returns the updated value.
func (h Hash) Uint64(n uint64) Hash {
	hi, lo := bits.Mul64(bits.RotateLeft64(uint64(h), rotate)^n, key)
	return Hash(lo ^ hi)
}

// Bytes folds an arbitrary byte slice into the hash, eight bytes at a
// time, and returns the updated value.
func (h Hash) Bytes(b []byte) Hash {
	h = h.Uint64(uint64(len(b)))
	for len(b) >= 8 {
		h = h.Uint64(uint64(b[0]) | uint64(b[1])<<8 | uint64(b[2])<<16 | uint64(b[3])<<24 |
			uint64(b[4])<<32 | uint64(b[5])<<40 | uint64(b[6])<<48 | uint64(b[7])<<56)
		b = b[8:]
	}
	if len(b) == 0 {
		return h
	}
	var last uint64
	for i, c := range b {
		last |= uint64(c) << (8 * i)
	}
	return h.Uint64(last)
}

// String folds a string's bytes into the hash.
func (h Hash) String(s string) Hash {
	return h.Bytes([]byte(s))
}
