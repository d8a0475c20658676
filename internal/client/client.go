// Package client implements the KV store client library: a thin wrapper
// over internal/wire and internal/protocol offering Get/Put/Delete/Scan as
// plain Go method calls (spec.md §6). It mirrors the original's kvclient
// module one-for-one, translated from callback-passing into direct
// returns.
package client

import (
	"errors"
	"fmt"
	"net"

	"github.com/jassi-singh/aether-kv/internal/keyval"
	"github.com/jassi-singh/aether-kv/internal/protocol"
	"github.com/jassi-singh/aether-kv/internal/wire"
)

// ErrServer marks an unexpected or error reply from the server — a wrong
// reply kind, or an explicit Error chunk for Put/Delete.
var ErrServer = errors.New("client: server error")

// Client is a connection to a running server, offering the four request
// kinds as direct method calls.
type Client struct {
	conn *wire.Conn
	raw  net.Conn
}

// Dial connects to addr ("host:port") and returns a ready Client.
func Dial(addr string) (*Client, error) {
	raw, err := net.Dial("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("client: failed to connect to %s: %w", addr, err)
	}
	return &Client{conn: wire.NewConn(raw), raw: raw}, nil
}

// Get fetches the current value for key, or nil if the key is absent.
func (c *Client) Get(key keyval.Key) (*keyval.Value, error) {
	if err := c.conn.WriteChunk(protocol.EncodeRequest(protocol.Request{Op: protocol.OpGet, Key: key})); err != nil {
		return nil, err
	}
	reply, err := c.conn.ReadChunk()
	if err != nil {
		return nil, err
	}
	value, err := protocol.DecodeSingleValue(reply)
	if err != nil {
		return nil, fmt.Errorf("client: %w: unexpected reply to Get: %v", ErrServer, err)
	}
	return value, nil
}

// Put stores value under key, returning an error if the server reports
// failure.
func (c *Client) Put(key keyval.Key, value keyval.Value) error {
	if err := c.conn.WriteChunk(protocol.EncodeRequest(protocol.Request{Op: protocol.OpPut, Key: key, Value: value})); err != nil {
		return err
	}
	reply, err := c.conn.ReadChunk()
	if err != nil {
		return err
	}
	op, err := protocol.ReplyOpcode(reply)
	if err != nil {
		return err
	}
	switch op {
	case protocol.ReplySuccess:
		return nil
	case protocol.ReplyError:
		return fmt.Errorf("client: %w: server failed to store key", ErrServer)
	default:
		return fmt.Errorf("client: %w: unexpected reply opcode %q to Put", ErrServer, op)
	}
}

// Delete removes key and returns the number of entries affected (0 or 1).
func (c *Client) Delete(key keyval.Key) (uint64, error) {
	if err := c.conn.WriteChunk(protocol.EncodeRequest(protocol.Request{Op: protocol.OpDelete, Key: key})); err != nil {
		return 0, err
	}
	reply, err := c.conn.ReadChunk()
	if err != nil {
		return 0, err
	}
	op, err := protocol.ReplyOpcode(reply)
	if err != nil {
		return 0, err
	}
	if op == protocol.ReplyError {
		return 0, fmt.Errorf("client: %w: server failed to delete key", ErrServer)
	}
	n, err := protocol.DecodeNumber(reply)
	if err != nil {
		return 0, fmt.Errorf("client: %w: unexpected reply to Delete: %v", ErrServer, err)
	}
	return n, nil
}

// Scan returns every live (key, value) pair with k1 <= key < k2, ascending
// by key. It accumulates KVPairs chunks until the server's empty sentinel
// chunk ends the stream.
func (c *Client) Scan(k1, k2 keyval.Key) ([]protocol.KVPair, error) {
	if err := c.conn.WriteChunk(protocol.EncodeRequest(protocol.Request{Op: protocol.OpScan, Key: k1, Key2: k2})); err != nil {
		return nil, err
	}

	var all []protocol.KVPair
	for {
		chunk, err := c.conn.ReadChunk()
		if err != nil {
			return nil, err
		}
		if len(chunk) == 0 {
			return all, nil
		}
		pairs, err := protocol.DecodeKVPairs(chunk)
		if err != nil {
			return nil, fmt.Errorf("client: %w: unexpected reply to Scan: %v", ErrServer, err)
		}
		all = append(all, pairs...)
	}
}

// Close notifies the server that the connection is ending and releases
// the underlying transport. The Close request is best-effort: a failure
// to write it is not reported, matching the original's do_close.
func (c *Client) Close() error {
	_ = c.conn.WriteChunk(protocol.EncodeRequest(protocol.Request{Op: protocol.OpClose}))
	return c.raw.Close()
}
