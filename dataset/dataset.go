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

// Package dataset implements the DataSet controller (SPEC_FULL.md §4.H): a
// directory of single-item archives plus a shared metadata document,
// guarded by a directory-level advisory lock and per-key locks acquired in
// a fixed order to avoid deadlock (§5).
package dataset

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/gofrs/flock"
	"github.com/google/uuid"
	"golang.org/x/sync/semaphore"
	"golang.org/x/sync/singleflight"
	"gopkg.in/yaml.v3"

	"github.com/forbes-group/persist"
	"github.com/forbes-group/persist/internal/xsync"
)

// SentinelFile marks a directory as a DataSet; its presence (not its
// content) is the contract, matching spec.md's _this_dir_is_a_DataSet.
const SentinelFile = "_this_dir_is_a_DataSet"

// MetadataFile holds the info dict: key -> small JSON-compatible payload.
// This is the Go-native re-expression of spec.md's __init__.py-defined
// _info_dict module attribute -- Go has no equivalent of a package-level
// dict literal materializing on import, so the same information is kept
// in a small YAML document read/written under lock instead.
const MetadataFile = "metadata.yaml"

const lockFileName = ".dataset.lock"

// keyLockWeight is the capacity of each per-key [semaphore.Weighted]. A
// reader (ArchiveSource) acquires 1; a writer (Commit) acquires the
// whole capacity, so it excludes every reader and every other writer for
// that key without excluding readers/writers of a different key.
const keyLockWeight = 1 << 30

// ErrBusy is returned when a lock cannot be acquired before the configured
// lock timeout elapses. It wraps [persist.ErrBusy] so callers can test
// with errors.Is against either value.
var ErrBusy = fmt.Errorf("dataset: %w", persist.ErrBusy)

// DataSet is a directory of named single-item archives plus shared
// metadata. The zero value is not usable; construct with [Open].
type DataSet struct {
	dir  string
	cfg  config
	dlck *flock.Flock

	keyLocks xsync.Map[string, *semaphore.Weighted]
	group    singleflight.Group
}

type config struct {
	lockTimeout time.Duration
	archiveOpts []persist.Option
}

// Option configures [Open].
type Option struct{ apply func(*config) }

// WithLockTimeout bounds how long Commit/Info/ArchiveSource wait to
// acquire a lock before failing with [ErrBusy]. Zero (the default) means
// wait indefinitely, matching spec.md's "Timeouts are a DataSet-layer
// concern" -- without this option set, there is no timeout at all.
func WithLockTimeout(d time.Duration) Option {
	return Option{func(c *config) { c.lockTimeout = d }}
}

// WithArchiveOptions passes persist.Option values through to every
// per-key archive Commit renders, e.g. [persist.WithBackend].
func WithArchiveOptions(opts ...persist.Option) Option {
	return Option{func(c *config) { c.archiveOpts = append(c.archiveOpts, opts...) }}
}

// Open opens (creating if necessary) the DataSet rooted at dir: writes the
// sentinel file and an empty metadata document if dir is not already a
// DataSet, or validates the sentinel is present if it is.
func Open(dir string, opts ...Option) (*DataSet, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("dataset: creating %q: %w", dir, err)
	}

	sentinelPath := filepath.Join(dir, SentinelFile)
	if _, err := os.Stat(sentinelPath); errors.Is(err, os.ErrNotExist) {
		if err := os.WriteFile(sentinelPath, nil, 0o644); err != nil {
			return nil, fmt.Errorf("dataset: writing sentinel: %w", err)
		}
	} else if err != nil {
		return nil, fmt.Errorf("dataset: statting sentinel: %w", err)
	}

	metaPath := filepath.Join(dir, MetadataFile)
	if _, err := os.Stat(metaPath); errors.Is(err, os.ErrNotExist) {
		if err := writeMetadata(metaPath, metadataDoc{Info: map[string]any{}}); err != nil {
			return nil, err
		}
	} else if err != nil {
		return nil, fmt.Errorf("dataset: statting metadata: %w", err)
	}

	cfg := config{}
	for _, o := range opts {
		o.apply(&cfg)
	}

	return &DataSet{
		dir:  dir,
		cfg:  cfg,
		dlck: flock.New(filepath.Join(dir, lockFileName)),
	}, nil
}

type metadataDoc struct {
	Info map[string]any `yaml:"info"`
}

func readMetadata(path string) (metadataDoc, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return metadataDoc{}, fmt.Errorf("dataset: reading metadata: %w", err)
	}
	var doc metadataDoc
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return metadataDoc{}, fmt.Errorf("dataset: parsing metadata: %w", err)
	}
	if doc.Info == nil {
		doc.Info = map[string]any{}
	}
	return doc, nil
}

func writeMetadata(path string, doc metadataDoc) error {
	data, err := yaml.Marshal(doc)
	if err != nil {
		return fmt.Errorf("dataset: encoding metadata: %w", err)
	}
	return atomicWriteFile(path, data)
}

// withTimeout derives a context bounded by the configured lock_timeout (no
// bound if it is zero), per SPEC_FULL.md's "lock_timeout is the only
// place a context.Context deadline is honored."
func (d *DataSet) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if d.cfg.lockTimeout <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, d.cfg.lockTimeout)
}

// lockDir acquires the directory-level lock (exclusive if excl, shared
// otherwise), returning a release function. Always called before any
// per-key lock within the same operation, per §5's deadlock-avoidance
// ordering.
func (d *DataSet) lockDir(ctx context.Context, excl bool) (func(), error) {
	ctx, cancel := d.withTimeout(ctx)
	defer cancel()

	const retryDelay = 5 * time.Millisecond
	var ok bool
	var err error
	if excl {
		ok, err = d.dlck.TryLockContext(ctx, retryDelay)
	} else {
		ok, err = d.dlck.TryRLockContext(ctx, retryDelay)
	}
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, ErrBusy
		}
		return nil, fmt.Errorf("dataset: acquiring directory lock: %w", err)
	}
	if !ok {
		return nil, ErrBusy
	}
	return func() { _ = d.dlck.Unlock() }, nil
}

// keyLockFor returns the (lazily allocated) weighted semaphore for key.
// [xsync.Map.LoadOrStore] may call make more than once under contention,
// but only one constructed semaphore is ever kept, so lockKey always
// acquires against the same instance for a given key.
func (d *DataSet) keyLockFor(key string) *semaphore.Weighted {
	sem, _ := d.keyLocks.LoadOrStore(key, func() *semaphore.Weighted {
		return semaphore.NewWeighted(keyLockWeight)
	})
	return sem
}

// lockKey acquires weight against key's semaphore (1 for a reader,
// keyLockWeight for a writer, which then excludes every reader and every
// other writer of that key without blocking unrelated keys).
func (d *DataSet) lockKey(ctx context.Context, key string, weight int64) (func(), error) {
	ctx, cancel := d.withTimeout(ctx)
	defer cancel()

	sem := d.keyLockFor(key)
	if err := sem.Acquire(ctx, weight); err != nil {
		return nil, ErrBusy
	}
	return func() { sem.Release(weight) }, nil
}

// Commit renders value as a single-item archive named key, writes it (and
// any sidecar arrays) into the DataSet directory, and records info in the
// metadata document -- all under the directory-level exclusive lock, per
// §5: render -> write sidecar arrays -> write the archive module to a temp
// file and rename it into place -> update metadata.
func (d *DataSet) Commit(ctx context.Context, key string, value any, info any) error {
	unlockDir, err := d.lockDir(ctx, true)
	if err != nil {
		return err
	}
	defer unlockDir()

	unlockKey, err := d.lockKey(ctx, key, keyLockWeight)
	if err != nil {
		return err
	}
	defer unlockKey()

	opts := append(append([]persist.Option{}, d.cfg.archiveOpts...), persist.WithSingleItemMode(true))
	a := persist.NewArchive(opts...)
	if err := a.InsertAs(key, value); err != nil {
		return err
	}
	if err := a.Save(d.dir, key, false, true); err != nil {
		return err
	}

	metaPath := filepath.Join(d.dir, MetadataFile)
	doc, err := readMetadata(metaPath)
	if err != nil {
		return err
	}
	doc.Info[key] = info
	return writeMetadata(metaPath, doc)
}

// Info returns the metadata payload recorded for every committed key, read
// under the directory-level shared lock.
func (d *DataSet) Info(ctx context.Context) (map[string]any, error) {
	unlock, err := d.lockDir(ctx, false)
	if err != nil {
		return nil, err
	}
	defer unlock()

	doc, err := readMetadata(filepath.Join(d.dir, MetadataFile))
	if err != nil {
		return nil, err
	}
	return doc.Info, nil
}

// ArchiveSource returns the generated Go source for key's single-item
// archive, read under that key's shared lock (so a concurrent Commit to
// the same key can't be observed mid-write). Concurrent calls for the
// same key are collapsed with [singleflight.Group] so a burst of readers
// only touches the filesystem once.
func (d *DataSet) ArchiveSource(ctx context.Context, key string) (string, error) {
	unlock, err := d.lockKey(ctx, key, 1)
	if err != nil {
		return "", err
	}
	defer unlock()

	v, err, _ := d.group.Do(key, func() (any, error) {
		data, err := os.ReadFile(filepath.Join(d.dir, key+".go"))
		if err != nil {
			return "", fmt.Errorf("dataset: reading archive for %q: %w", key, err)
		}
		return string(data), nil
	})
	if err != nil {
		return "", err
	}
	return v.(string), nil
}

// atomicWriteFile writes data to path via a uuid-suffixed temp file in the
// same directory, then os.Rename, the same atomic-publication discipline
// persist's own package_writer.go uses for archive files.
func atomicWriteFile(path string, data []byte) error {
	dir := filepath.Dir(path)
	tmp := filepath.Join(dir, "."+filepath.Base(path)+"."+uuid.NewString()+".tmp")
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("dataset: writing %q: %w", tmp, err)
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("dataset: publishing %q: %w", path, err)
	}
	return nil
}
