// Package walog provides the append-only write-ahead log the engine
// replays on recovery. It is the direct descendant of the teacher's
// internal/storage package: a buffered os.File writer with batch-size and
// sync-interval flush thresholds. Unlike the teacher's storage layer, this
// one has no ReadAt — the engine's index holds full values in memory, so
// the log is write-only in normal operation and is only read back
// sequentially, once, during recovery.
package walog

import (
	"bufio"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sync"
	"time"

	"github.com/jassi-singh/aether-kv/internal/config"
	"github.com/jassi-singh/aether-kv/internal/record"
)

// Writer appends serialized records to the log file. Writes are buffered
// and flushed on a batch-size or sync-interval threshold; durability is
// best-effort, bounded by OS buffering (spec.md §4.2).
type Writer struct {
	mu           sync.Mutex
	file         *os.File
	buffer       *bufio.Writer
	lastSyncTime time.Time
	tuning       config.Tuning
}

// NewWriter opens path in append mode and wraps it with a buffered writer
// governed by tuning's flush thresholds. The caller is responsible for
// reading the existing contents (via NewReader) before constructing a
// Writer for the same file, since the writer assumes the file position is
// already at the end.
func NewWriter(path string, tuning config.Tuning) (*Writer, error) {
	file, err := os.OpenFile(path, os.O_APPEND|os.O_RDWR|os.O_CREATE, 0644)
	if err != nil {
		return nil, fmt.Errorf("walog: failed to open log file %s: %w", path, err)
	}

	slog.Info("walog: log file opened for append", "path", path)

	return &Writer{
		file:         file,
		buffer:       bufio.NewWriter(file),
		lastSyncTime: time.Now(),
		tuning:       tuning,
	}, nil
}

// Append writes a pre-encoded record to the log, flushing automatically
// once the buffered threshold is reached. Returns the offset the record
// was written at within the logical file.
func (w *Writer) Append(data []byte) (int64, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	fileSize, err := w.file.Seek(0, io.SeekEnd)
	if err != nil {
		return 0, fmt.Errorf("walog: failed to seek to end of file: %w", err)
	}
	offset := fileSize + int64(w.buffer.Buffered())

	if _, err := w.buffer.Write(data); err != nil {
		return 0, fmt.Errorf("walog: failed to append record at offset %d: %w", offset, err)
	}

	if int64(w.buffer.Buffered()) >= int64(w.tuning.BatchSize) ||
		time.Since(w.lastSyncTime) >= time.Duration(w.tuning.SyncIntervalSeconds)*time.Second {
		if err := w.flushLocked(); err != nil {
			return 0, err
		}
	}

	return offset, nil
}

func (w *Writer) flushLocked() error {
	if err := w.buffer.Flush(); err != nil {
		return fmt.Errorf("walog: failed to flush buffer: %w", err)
	}
	w.lastSyncTime = time.Now()
	slog.Debug("walog: buffer flushed", "last_sync_time", w.lastSyncTime)
	return nil
}

// Flush forces any buffered records to disk.
func (w *Writer) Flush() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.flushLocked()
}

// Close flushes remaining buffered data and closes the underlying file.
func (w *Writer) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if err := w.flushLocked(); err != nil {
		slog.Error("walog: failed to flush buffer before close", "error", err)
	}
	if err := w.file.Close(); err != nil {
		return fmt.Errorf("walog: failed to close log file: %w", err)
	}
	return nil
}

// Reader replays records sequentially from the start of a log file. It is
// used only during recovery.
type Reader struct {
	r io.Reader
}

// NewReader wraps an io.Reader positioned at offset 0 of the log file.
func NewReader(r io.Reader) *Reader {
	return &Reader{r: bufio.NewReader(r)}
}

// Next returns the next record in the log, or io.EOF once the log is
// exhausted at a clean record boundary. A record.ErrCorrupt mid-record is
// fatal to recovery (spec.md §4.2).
func (rd *Reader) Next() (*record.Record, error) {
	return record.Read(rd.r)
}
