// Package server implements the dispatcher: the accept loop, the
// per-connection request handler, and scan-reply chunking (spec.md §4.6).
// Each accepted connection is handed to the worker pool, which owns it
// until the client sends Close or the transport fails.
package server

import (
	"errors"
	"log/slog"
	"net"
	"strconv"

	"github.com/jassi-singh/aether-kv/internal/engine"
	"github.com/jassi-singh/aether-kv/internal/keyval"
	"github.com/jassi-singh/aether-kv/internal/protocol"
	"github.com/jassi-singh/aether-kv/internal/wire"
	"github.com/jassi-singh/aether-kv/internal/workerpool"
)

// maxPairsPerChunk is floor((65535 - 1) / (8 + 256)) = 248, the most
// (key, value) pairs a single KVPairs chunk can carry (spec.md §4.6).
const maxPairsPerChunk = (wire.MaxPayloadSize - 1) / (keyval.KeySize + keyval.ValueSize)

// Server accepts connections on a TCP listener and dispatches each one to
// the worker pool, which routes requests to the engine.
type Server struct {
	listener net.Listener
	engine   *engine.Engine
	pool     *workerpool.Pool
}

// New binds a listener on 127.0.0.1:port (spec.md §6) and builds a
// dispatcher backed by eng and a pool of threads workers.
func New(port uint16, eng *engine.Engine, threads int) (*Server, error) {
	addr := net.JoinHostPort("127.0.0.1", strconv.Itoa(int(port)))
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, err
	}
	slog.Info("server: listening", "addr", addr)
	return &Server{
		listener: listener,
		engine:   eng,
		pool:     workerpool.New(threads, threads*4),
	}, nil
}

// Addr returns the address the server is listening on.
func (s *Server) Addr() net.Addr { return s.listener.Addr() }

// Serve runs the accept loop, submitting each accepted connection to the
// worker pool. It returns when the listener is closed.
func (s *Server) Serve() error {
	for {
		conn, err := s.listener.Accept()
		if err != nil {
			if errors.Is(err, net.ErrClosed) {
				return nil
			}
			slog.Warn("server: accept error", "error", err)
			continue
		}
		s.pool.Submit(func() { s.handleConnection(conn) })
	}
}

// Close stops accepting new connections. In-flight connections are left to
// finish on their own.
func (s *Server) Close() error {
	return s.listener.Close()
}

func (s *Server) handleConnection(netConn net.Conn) {
	addr := netConn.RemoteAddr()
	defer netConn.Close()
	slog.Debug("server: connection opened", "addr", addr)

	conn := wire.NewConn(netConn)
	for {
		chunk, err := conn.ReadChunk()
		if err != nil {
			slog.Debug("server: connection ended on read", "addr", addr, "error", err)
			return
		}

		req, err := protocol.DecodeRequest(chunk)
		if err != nil {
			slog.Warn("server: malformed request, closing connection", "addr", addr, "error", err)
			return
		}

		if req.Op == protocol.OpClose {
			slog.Debug("server: connection closed by client", "addr", addr)
			return
		}

		if !s.dispatch(conn, req) {
			return
		}
	}
}

// dispatch routes one request to the engine and writes its reply. It
// returns false if the connection should be torn down (a transport
// failure writing the reply).
func (s *Server) dispatch(conn *wire.Conn, req protocol.Request) bool {
	switch req.Op {
	case protocol.OpGet:
		value, ok := s.engine.Get(req.Key)
		var reply []byte
		if ok {
			reply = protocol.EncodeSingleValue(&value)
		} else {
			reply = protocol.EncodeSingleValue(nil)
		}
		return s.writeReply(conn, reply)

	case protocol.OpPut:
		err := s.engine.Put(req.Key, req.Value)
		if err != nil {
			slog.Error("server: put failed", "error", err)
			return s.writeReply(conn, protocol.EncodeError())
		}
		return s.writeReply(conn, protocol.EncodeSuccess())

	case protocol.OpDelete:
		count, err := s.engine.Delete(req.Key)
		if err != nil {
			slog.Error("server: delete failed", "error", err)
			return s.writeReply(conn, protocol.EncodeError())
		}
		return s.writeReply(conn, protocol.EncodeNumber(uint64(count)))

	case protocol.OpScan:
		return s.handleScan(conn, req.Key, req.Key2)

	default:
		slog.Warn("server: unexpected opcode reached dispatch", "op", req.Op)
		return false
	}
}

// handleScan streams the scan result as one or more KVPairs chunks of up
// to maxPairsPerChunk pairs, followed by exactly one empty sentinel chunk
// (spec.md §4.6, §8 property 8).
func (s *Server) handleScan(conn *wire.Conn, k1, k2 keyval.Key) bool {
	results := s.engine.Scan(k1, k2)

	pairs := make([]protocol.KVPair, len(results))
	for i, kv := range results {
		pairs[i] = protocol.KVPair{Key: kv.Key, Value: *kv.Value}
	}

	for len(pairs) > 0 {
		n := len(pairs)
		if n > maxPairsPerChunk {
			n = maxPairsPerChunk
		}
		if !s.writeReply(conn, protocol.EncodeKVPairs(pairs[:n])) {
			return false
		}
		pairs = pairs[n:]
	}

	return s.writeReply(conn, []byte{})
}

func (s *Server) writeReply(conn *wire.Conn, payload []byte) bool {
	if err := conn.WriteChunk(payload); err != nil {
		slog.Debug("server: failed to write reply chunk", "error", err)
		return false
	}
	return true
}
