// Package keyval provides the fixed-width Key and Value types shared by the
// log format, the wire protocol, and the in-memory index. Fixed widths
// eliminate length prefixes inside the log and in the wire protocol, making
// recovery a constant-stride scan and framing a fixed offset computation.
package keyval

import (
	"encoding/binary"
	"fmt"
)

// KeySize is the fixed byte width of a Key.
const KeySize = 8

// ValueSize is the fixed byte width of a Value.
const ValueSize = 256

// Key is an opaque 8-byte identifier. Ordering is big-endian lexicographic,
// equivalent to comparing the bytes as an unsigned 64-bit integer.
type Key [KeySize]byte

// Value is an opaque 256-byte payload. No ordering is defined; equality is
// byte-wise.
type Value [ValueSize]byte

// ErrSizeMismatch is returned by KeyFromBytes/ValueFromBytes when the input
// is not exactly the expected width.
type ErrSizeMismatch struct {
	Want int
	Got  int
}

func (e *ErrSizeMismatch) Error() string {
	return fmt.Sprintf("keyval: size mismatch: want %d bytes, got %d", e.Want, e.Got)
}

// KeyFromBytes constructs a Key from exactly KeySize bytes.
func KeyFromBytes(buf []byte) (Key, error) {
	var k Key
	if len(buf) != KeySize {
		return k, &ErrSizeMismatch{Want: KeySize, Got: len(buf)}
	}
	copy(k[:], buf)
	return k, nil
}

// ValueFromBytes constructs a Value from exactly ValueSize bytes.
func ValueFromBytes(buf []byte) (Value, error) {
	var v Value
	if len(buf) != ValueSize {
		return v, &ErrSizeMismatch{Want: ValueSize, Got: len(buf)}
	}
	copy(v[:], buf)
	return v, nil
}

// Bytes returns the identity byte encoding of the key.
func (k Key) Bytes() []byte {
	out := make([]byte, KeySize)
	copy(out, k[:])
	return out
}

// Bytes returns the identity byte encoding of the value.
func (v Value) Bytes() []byte {
	out := make([]byte, ValueSize)
	copy(out, v[:])
	return out
}

// Compare returns -1, 0, or 1 as a is less than, equal to, or greater than b,
// ordering by big-endian numeric interpretation of the key bytes. No unsafe
// pointer reinterpretation is used: reading the bytes as a big-endian
// uint64 and comparing numerically gives the same total order without any
// alignment assumption.
func Compare(a, b Key) int {
	an := binary.BigEndian.Uint64(a[:])
	bn := binary.BigEndian.Uint64(b[:])
	switch {
	case an < bn:
		return -1
	case an > bn:
		return 1
	default:
		return 0
	}
}

// Uint64 returns the big-endian numeric interpretation of the key, used as
// the index's sort/comparison key.
func (k Key) Uint64() uint64 {
	return binary.BigEndian.Uint64(k[:])
}

// KeyFromUint64 is the inverse of Key.Uint64, used to reconstruct a Key from
// its numeric index representation.
func KeyFromUint64(n uint64) Key {
	var k Key
	binary.BigEndian.PutUint64(k[:], n)
	return k
}
