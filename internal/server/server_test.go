package server

import (
	"net"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/jassi-singh/aether-kv/internal/config"
	"github.com/jassi-singh/aether-kv/internal/engine"
	"github.com/jassi-singh/aether-kv/internal/keyval"
	"github.com/jassi-singh/aether-kv/internal/protocol"
	"github.com/jassi-singh/aether-kv/internal/wire"
)

// startTestServer opens a fresh engine over a temp file and serves it on an
// OS-assigned loopback port, returning a dialer for that address.
func startTestServer(t *testing.T) (dial func() *wire.Conn, eng *engine.Engine) {
	t.Helper()

	eng, err := engine.Open(filepath.Join(t.TempDir(), "data.kv"), config.DefaultTuning())
	require.NoError(t, err)
	t.Cleanup(func() { eng.Close() })

	srv, err := New(0, eng, 2)
	require.NoError(t, err)
	t.Cleanup(func() { srv.Close() })

	go srv.Serve()

	addr := srv.Addr().String()
	return func() *wire.Conn {
		netConn, err := net.DialTimeout("tcp", addr, time.Second)
		require.NoError(t, err)
		t.Cleanup(func() { netConn.Close() })
		return wire.NewConn(netConn)
	}, eng
}

func key(n uint64) keyval.Key { return keyval.KeyFromUint64(n) }

func value(b byte) keyval.Value {
	var v keyval.Value
	for i := range v {
		v[i] = b
	}
	return v
}

func sendRequest(t *testing.T, conn *wire.Conn, req protocol.Request) []byte {
	t.Helper()
	require.NoError(t, conn.WriteChunk(protocol.EncodeRequest(req)))
	reply, err := conn.ReadChunk()
	require.NoError(t, err)
	return reply
}

func TestServerGetMissingKeyReturnsNone(t *testing.T) {
	dial, _ := startTestServer(t)
	conn := dial()

	reply := sendRequest(t, conn, protocol.Request{Op: protocol.OpGet, Key: key(1)})
	v, err := protocol.DecodeSingleValue(reply)
	require.NoError(t, err)
	require.Nil(t, v)
}

func TestServerPutThenGetRoundTrip(t *testing.T) {
	dial, _ := startTestServer(t)
	conn := dial()

	putReply := sendRequest(t, conn, protocol.Request{Op: protocol.OpPut, Key: key(1), Value: value(7)})
	require.Equal(t, protocol.ReplySuccess, putReply[0])

	getReply := sendRequest(t, conn, protocol.Request{Op: protocol.OpGet, Key: key(1)})
	v, err := protocol.DecodeSingleValue(getReply)
	require.NoError(t, err)
	require.NotNil(t, v)
	require.Equal(t, value(7), *v)
}

func TestServerDeleteReportsCountAndClearsKey(t *testing.T) {
	dial, _ := startTestServer(t)
	conn := dial()

	sendRequest(t, conn, protocol.Request{Op: protocol.OpPut, Key: key(1), Value: value(7)})

	delReply := sendRequest(t, conn, protocol.Request{Op: protocol.OpDelete, Key: key(1)})
	n, err := protocol.DecodeNumber(delReply)
	require.NoError(t, err)
	require.Equal(t, uint64(1), n)

	missingReply := sendRequest(t, conn, protocol.Request{Op: protocol.OpDelete, Key: key(1)})
	n, err = protocol.DecodeNumber(missingReply)
	require.NoError(t, err)
	require.Equal(t, uint64(0), n)
}

func TestServerScanReturnsSentinelWhenEmpty(t *testing.T) {
	dial, _ := startTestServer(t)
	conn := dial()

	reply := sendRequest(t, conn, protocol.Request{Op: protocol.OpScan, Key: key(0), Key2: key(100)})
	require.Empty(t, reply)
}

func TestServerScanReturnsAllPairsThenSentinel(t *testing.T) {
	dial, _ := startTestServer(t)
	conn := dial()

	for i := uint64(1); i <= 5; i++ {
		sendRequest(t, conn, protocol.Request{Op: protocol.OpPut, Key: key(i), Value: value(byte(i))})
	}

	reply := sendRequest(t, conn, protocol.Request{Op: protocol.OpScan, Key: key(0), Key2: key(100)})
	pairs, err := protocol.DecodeKVPairs(reply)
	require.NoError(t, err)
	require.Len(t, pairs, 5)

	sentinel, err := conn.ReadChunk()
	require.NoError(t, err)
	require.Empty(t, sentinel)
}

func TestServerScanChunksLargeResults(t *testing.T) {
	dial, _ := startTestServer(t)
	conn := dial()

	const total = maxPairsPerChunk + 10
	for i := uint64(0); i < total; i++ {
		sendRequest(t, conn, protocol.Request{Op: protocol.OpPut, Key: key(i), Value: value(byte(i))})
	}

	require.NoError(t, conn.WriteChunk(protocol.EncodeRequest(protocol.Request{
		Op: protocol.OpScan, Key: key(0), Key2: key(total + 1),
	})))

	first, err := conn.ReadChunk()
	require.NoError(t, err)
	firstPairs, err := protocol.DecodeKVPairs(first)
	require.NoError(t, err)
	require.Len(t, firstPairs, maxPairsPerChunk)

	second, err := conn.ReadChunk()
	require.NoError(t, err)
	secondPairs, err := protocol.DecodeKVPairs(second)
	require.NoError(t, err)
	require.Len(t, secondPairs, 10)

	sentinel, err := conn.ReadChunk()
	require.NoError(t, err)
	require.Empty(t, sentinel)
}

func TestServerCloseEndsConnectionWithoutReply(t *testing.T) {
	dial, _ := startTestServer(t)
	conn := dial()

	require.NoError(t, conn.WriteChunk(protocol.EncodeRequest(protocol.Request{Op: protocol.OpClose})))

	_, err := conn.ReadChunk()
	require.Error(t, err)
}
