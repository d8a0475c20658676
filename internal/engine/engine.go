// Package engine provides the durable key-value storage engine: an ordered
// in-memory index layered over an append-only write-ahead log, with
// recovery by log replay, tombstone semantics for deletion, and concurrent
// access under a single reader/writer lock (spec.md §3-§5).
package engine

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sync"

	"github.com/jassi-singh/aether-kv/internal/config"
	"github.com/jassi-singh/aether-kv/internal/keyval"
	"github.com/jassi-singh/aether-kv/internal/record"
	"github.com/jassi-singh/aether-kv/internal/walog"
)

// ErrKeyNotFound is returned by Get when a key is absent or tombstoned.
// Unlike the teacher, Get returning "not found" is represented as
// (zero Value, false), not an error — see Get's doc comment — this
// sentinel exists only for callers that need an error-shaped signal (the
// dispatcher does not use it; it inspects the bool).
var ErrKeyNotFound = errors.New("engine: key not found")

// Engine is the durable key-value store: public get/put/delete/scan plus
// the recovery path that rebuilds the index from the log.
type Engine struct {
	mu     sync.RWMutex
	idx    *index
	writer *walog.Writer
}

// Open opens (or creates) the log file at path, replays it to rebuild the
// index, and returns an Engine ready to serve requests. Corresponds to
// spec.md §4.3's recover operation; there is no separate fresh-vs-recovered
// constructor: a missing file skips replay and is created by the writer,
// while an existing file (even an empty one) is replayed first.
func Open(path string, tuning config.Tuning) (*Engine, error) {
	idx := newIndex()

	if f, err := os.Open(path); err == nil {
		count, recErr := replay(f, idx)
		closeErr := f.Close()
		if recErr != nil {
			return nil, fmt.Errorf("engine: recovery failed: %w", recErr)
		}
		if closeErr != nil {
			return nil, fmt.Errorf("engine: failed to close log after recovery: %w", closeErr)
		}
		slog.Info("engine: recovered index from log", "path", path, "keys", count)
	} else if !os.IsNotExist(err) {
		return nil, fmt.Errorf("engine: failed to open log file %s: %w", path, err)
	} else {
		slog.Info("engine: starting fresh, no existing log file", "path", path)
	}

	writer, err := walog.NewWriter(path, tuning)
	if err != nil {
		return nil, fmt.Errorf("engine: failed to open log for append: %w", err)
	}

	return &Engine{idx: idx, writer: writer}, nil
}

// replay reads every record in the log front to back and rebuilds idx: a
// Put installs the key, a Delete removes it outright (no in-memory
// tombstone — spec.md §4.3). A Delete for a key absent from the partial
// index is tolerated, never a recovery failure (spec.md §4.3's Open
// Question).
func replay(r *os.File, idx *index) (int, error) {
	reader := walog.NewReader(r)
	count := 0
	for {
		rec, err := reader.Next()
		if err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return 0, err
		}
		switch rec.Tag {
		case record.TagPut:
			idx.put(rec.Key, rec.Value)
			count++
		case record.TagDelete:
			idx.deleteRecover(rec.Key)
		}
	}
	return idx.size(), nil
}

// Get returns the current value for key and whether it was found. A
// tombstoned or absent key reports ok=false. Get never touches the log —
// it is a pure read under the engine's read lease (spec.md §4.3).
func (e *Engine) Get(key keyval.Key) (keyval.Value, bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()

	v, ok := e.idx.get(key)
	if !ok {
		return keyval.Value{}, false
	}
	return *v, true
}

// Put appends a Put record to the log, then installs the value in the
// index. The log write happens before the index update so that the index
// is always a subset of what replaying the log would produce (spec.md
// §4.3's crash-consistency invariant). On a log write failure the index is
// left untouched.
func (e *Engine) Put(key keyval.Key, value keyval.Value) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if _, err := e.writer.Append(record.EncodePut(key, value)); err != nil {
		return fmt.Errorf("engine: put failed to append log record: %w", err)
	}
	e.idx.put(key, value)

	slog.Debug("engine: put", "key", key.Uint64())
	return nil
}

// Delete removes key from the index and returns the number of entries
// affected (0 or 1). An absent or already-tombstoned key is a no-op that
// never touches the log and returns 0. A live key gets a Delete record
// appended to the log and a tombstone written into the index.
func (e *Engine) Delete(key keyval.Key) (int, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if ent, ok := e.idx.entries[key.Uint64()]; !ok || ent.tombstone {
		return 0, nil
	}

	if _, err := e.writer.Append(record.EncodeDelete(key)); err != nil {
		return 0, fmt.Errorf("engine: delete failed to append log record: %w", err)
	}
	e.idx.deleteLive(key)

	slog.Debug("engine: delete", "key", key.Uint64())
	return 1, nil
}

// Scan returns all live (key, value) pairs with k1 <= key < k2, ascending
// by key, as a snapshot taken under the read lease (spec.md §4.3, §5).
func (e *Engine) Scan(k1, k2 keyval.Key) []KV {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.idx.scan(k1, k2)
}

// Size returns the number of entries currently in the index, including
// tombstones (used for diagnostics, not part of the spec's public API).
func (e *Engine) Size() int {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.idx.size()
}

// Close flushes and closes the underlying log file.
func (e *Engine) Close() error {
	return e.writer.Close()
}
