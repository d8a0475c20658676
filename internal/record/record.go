// Package record encodes and decodes the two log record shapes the write-
// ahead log is built from: Put and Delete. Unlike the teacher's variable-
// length, CRC-checked record, these records are fixed-width per kind (the
// key and value widths never vary), so there is no CRC and no length
// prefix to carry — the tag byte alone determines how many more bytes
// follow.
package record

import (
	"errors"
	"fmt"
	"io"

	"github.com/jassi-singh/aether-kv/internal/keyval"
)

// Tag identifies the kind of a log record.
type Tag byte

const (
	// TagPut marks a record carrying a key and its new value.
	TagPut Tag = 'P'
	// TagDelete marks a tombstone record carrying only a key.
	TagDelete Tag = 'D'
)

// PutSize is the total encoded size of a Put record: tag + key + value.
const PutSize = 1 + keyval.KeySize + keyval.ValueSize

// DeleteSize is the total encoded size of a Delete record: tag + key.
const DeleteSize = 1 + keyval.KeySize

// ErrCorrupt marks a record whose tag is unrecognized or whose payload was
// truncated mid-record. It is fatal at startup (spec.md §7).
var ErrCorrupt = errors.New("record: corrupt log entry")

// Record is a decoded log entry: either a Put (Value present) or a Delete
// (Value zero and unused — callers distinguish by Tag).
type Record struct {
	Tag   Tag
	Key   keyval.Key
	Value keyval.Value
}

// EncodePut serializes a Put record: tag 'P', 8-byte key, 256-byte value.
func EncodePut(key keyval.Key, value keyval.Value) []byte {
	buf := make([]byte, PutSize)
	buf[0] = byte(TagPut)
	copy(buf[1:1+keyval.KeySize], key[:])
	copy(buf[1+keyval.KeySize:], value[:])
	return buf
}

// EncodeDelete serializes a Delete record: tag 'D', 8-byte key.
func EncodeDelete(key keyval.Key) []byte {
	buf := make([]byte, DeleteSize)
	buf[0] = byte(TagDelete)
	copy(buf[1:], key[:])
	return buf
}

// Read consumes one record from r. It returns io.EOF only when r is
// exhausted exactly at a record boundary (a clean end of log). Any other
// short read, or an unrecognized tag byte, is ErrCorrupt.
func Read(r io.Reader) (*Record, error) {
	var tagBuf [1]byte
	if _, err := io.ReadFull(r, tagBuf[:]); err != nil {
		if err == io.EOF {
			return nil, io.EOF
		}
		return nil, fmt.Errorf("record: %w: %v", ErrCorrupt, err)
	}

	switch Tag(tagBuf[0]) {
	case TagPut:
		body := make([]byte, keyval.KeySize+keyval.ValueSize)
		if _, err := io.ReadFull(r, body); err != nil {
			return nil, fmt.Errorf("record: %w: truncated put payload: %v", ErrCorrupt, err)
		}
		key, _ := keyval.KeyFromBytes(body[:keyval.KeySize])
		value, _ := keyval.ValueFromBytes(body[keyval.KeySize:])
		return &Record{Tag: TagPut, Key: key, Value: value}, nil
	case TagDelete:
		body := make([]byte, keyval.KeySize)
		if _, err := io.ReadFull(r, body); err != nil {
			return nil, fmt.Errorf("record: %w: truncated delete payload: %v", ErrCorrupt, err)
		}
		key, _ := keyval.KeyFromBytes(body)
		return &Record{Tag: TagDelete, Key: key}, nil
	default:
		return nil, fmt.Errorf("record: %w: unknown tag %#x", ErrCorrupt, tagBuf[0])
	}
}

// Size returns the total encoded length of the record.
func (r *Record) Size() int64 {
	if r.Tag == TagPut {
		return PutSize
	}
	return DeleteSize
}
