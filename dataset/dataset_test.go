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

package dataset

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/gofrs/flock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpenWritesSentinelAndMetadata(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	_, err := Open(dir)
	require.NoError(t, err)

	_, err = os.Stat(filepath.Join(dir, SentinelFile))
	require.NoError(t, err)
	_, err = os.Stat(filepath.Join(dir, MetadataFile))
	require.NoError(t, err)
}

func TestOpenIsIdempotent(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	_, err := Open(dir)
	require.NoError(t, err)
	_, err = Open(dir)
	require.NoError(t, err)
}

func TestCommitWritesArchiveAndMetadata(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	ds, err := Open(dir)
	require.NoError(t, err)

	require.NoError(t, ds.Commit(context.Background(), "widget", 42, map[string]any{"version": 1}))

	_, err = os.Stat(filepath.Join(dir, "widget.go"))
	require.NoError(t, err)

	info, err := ds.Info(context.Background())
	require.NoError(t, err)
	assert.Contains(t, info, "widget")
}

func TestArchiveSourceReadsCommittedFile(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	ds, err := Open(dir)
	require.NoError(t, err)
	require.NoError(t, ds.Commit(context.Background(), "widget", "hello", nil))

	src, err := ds.ArchiveSource(context.Background(), "widget")
	require.NoError(t, err)
	assert.Contains(t, src, "package widget")
	assert.Contains(t, src, "func Value()")
}

func TestCommitSurfacesBusyOnLockTimeout(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	ds, err := Open(dir, WithLockTimeout(20*time.Millisecond))
	require.NoError(t, err)

	// A second, independent *flock.Flock over the same lock file models a
	// concurrent process/handle holding the directory lock: gofrs/flock
	// tracks lock state per-object (per file descriptor), so reusing ds's
	// own *flock.Flock here would be a no-op re-lock rather than real
	// contention.
	holder := flock.New(filepath.Join(dir, lockFileName))
	require.NoError(t, holder.Lock())
	defer holder.Unlock()

	err = ds.Commit(context.Background(), "widget", 1, nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrBusy)
}

func TestMultipleKeysCommitIndependently(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	ds, err := Open(dir)
	require.NoError(t, err)

	require.NoError(t, ds.Commit(context.Background(), "a", 1, nil))
	require.NoError(t, ds.Commit(context.Background(), "b", 2, nil))

	info, err := ds.Info(context.Background())
	require.NoError(t, err)
	assert.Len(t, info, 2)
}
