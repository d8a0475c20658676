// Package wire implements the length-delimited chunk transport carrying a
// per-chunk acknowledgement handshake over a reliable byte stream (spec.md
// §4.4). This is the Go counterpart of the original's chunktps module,
// filled in where the original left `unimplemented!()`.
package wire

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
)

// MaxPayloadSize is the largest payload a single chunk frame can carry —
// the length field is 2 bytes, big-endian.
const MaxPayloadSize = 65535

var magic = [4]byte{0xDE, 0xAD, 0xBE, 0xEF}

var ack = [5]byte{0xDE, 0xAD, 0xBE, 0xEF, 0xAC}
var nack = [5]byte{0xCA, 0xFE, 0xBA, 0xBE, 0xFF}

// ErrTransport marks a bad magic, a bad acknowledgement, a short read, or a
// received TE — any of which ends the connection (spec.md §4.4, §7).
var ErrTransport = errors.New("wire: transport error")

// ErrPayloadTooLarge is returned by WriteChunk when payload exceeds
// MaxPayloadSize.
var ErrPayloadTooLarge = errors.New("wire: payload exceeds maximum chunk size")

// Conn wraps a byte stream (typically a net.Conn) with chunk framing.
type Conn struct {
	rw io.ReadWriter
}

// NewConn wraps rw with chunk framing. rw is typically a net.Conn but any
// io.ReadWriter works, which keeps the transport testable over an in-memory
// pipe.
func NewConn(rw io.ReadWriter) *Conn {
	return &Conn{rw: rw}
}

// WriteChunk sends one frame (magic, length, payload) and blocks until the
// per-frame acknowledgement arrives. A NACK (TE), a malformed
// acknowledgement, or a short read on the ack is ErrTransport.
func (c *Conn) WriteChunk(payload []byte) error {
	if len(payload) > MaxPayloadSize {
		return fmt.Errorf("wire: %w: %d bytes", ErrPayloadTooLarge, len(payload))
	}

	frame := make([]byte, 0, 4+2+len(payload))
	frame = append(frame, magic[:]...)
	var lenBuf [2]byte
	binary.BigEndian.PutUint16(lenBuf[:], uint16(len(payload)))
	frame = append(frame, lenBuf[:]...)
	frame = append(frame, payload...)

	if _, err := c.rw.Write(frame); err != nil {
		return fmt.Errorf("wire: failed to write chunk: %w", err)
	}

	var reply [5]byte
	if _, err := io.ReadFull(c.rw, reply[:]); err != nil {
		return fmt.Errorf("wire: %w: failed to read acknowledgement: %v", ErrTransport, err)
	}
	switch reply {
	case ack:
		return nil
	case nack:
		return fmt.Errorf("wire: %w: peer rejected chunk (TE)", ErrTransport)
	default:
		return fmt.Errorf("wire: %w: unrecognized acknowledgement %x", ErrTransport, reply)
	}
}

// ReadChunk reads one frame, validates the magic, and replies with OK. On
// a bad magic it sends TE and returns ErrTransport without reading the
// payload that would have followed — the frame is irrecoverably
// desynchronized once the length field can't be trusted.
func (c *Conn) ReadChunk() ([]byte, error) {
	var header [6]byte
	if _, err := io.ReadFull(c.rw, header[:]); err != nil {
		return nil, fmt.Errorf("wire: %w: failed to read frame header: %v", ErrTransport, err)
	}

	if [4]byte(header[:4]) != magic {
		c.sendNack()
		return nil, fmt.Errorf("wire: %w: bad magic", ErrTransport)
	}

	length := binary.BigEndian.Uint16(header[4:6])
	payload := make([]byte, length)
	if length > 0 {
		if _, err := io.ReadFull(c.rw, payload); err != nil {
			c.sendNack()
			return nil, fmt.Errorf("wire: %w: failed to read payload: %v", ErrTransport, err)
		}
	}

	if _, err := c.rw.Write(ack[:]); err != nil {
		return nil, fmt.Errorf("wire: failed to write acknowledgement: %w", err)
	}
	return payload, nil
}

func (c *Conn) sendNack() {
	_, _ = c.rw.Write(nack[:])
}
