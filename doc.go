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

// Package persist serializes in-memory object graphs to human-readable,
// re-compilable Go source that, when built and run, reconstitutes
// semantically equivalent values.
//
// An [Archive] is a named collection of top-level bindings rendered to a
// single source artifact. Values are inserted with [Archive.Insert] or
// [Archive.InsertAs] and rendered with [Archive.Render] or [Archive.Save].
// Large numeric arrays are lifted out of the source into a sidecar
// directory and referenced through the ambient [Archive] lookup variable
// named _arrays; see the dataset subpackage for directories of many
// single-value archives plus shared metadata.
//
// # Support status
//
// The archive engine requires the object graph reachable from every
// inserted value to be a DAG: cyclic references among user values are
// rejected with [ErrCyclic], not merged or broken. There is no attempt to
// produce a canonical minimal representation, no binary opaque format is
// emitted, and fidelity to any particular identity-hashing scheme across
// runs is not promised.
package persist
