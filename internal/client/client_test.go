package client

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/jassi-singh/aether-kv/internal/config"
	"github.com/jassi-singh/aether-kv/internal/engine"
	"github.com/jassi-singh/aether-kv/internal/keyval"
	"github.com/jassi-singh/aether-kv/internal/server"
)

func startServer(t *testing.T) string {
	t.Helper()
	eng, err := engine.Open(filepath.Join(t.TempDir(), "data.kv"), config.DefaultTuning())
	require.NoError(t, err)
	t.Cleanup(func() { eng.Close() })

	srv, err := server.New(0, eng, 2)
	require.NoError(t, err)
	t.Cleanup(func() { srv.Close() })
	go srv.Serve()

	return srv.Addr().String()
}

func testValue(b byte) keyval.Value {
	var v keyval.Value
	for i := range v {
		v[i] = b
	}
	return v
}

func TestClientGetMissingReturnsNil(t *testing.T) {
	addr := startServer(t)
	c, err := Dial(addr)
	require.NoError(t, err)
	defer c.Close()

	v, err := c.Get(keyval.KeyFromUint64(1))
	require.NoError(t, err)
	require.Nil(t, v)
}

func TestClientPutGetDeleteRoundTrip(t *testing.T) {
	addr := startServer(t)
	c, err := Dial(addr)
	require.NoError(t, err)
	defer c.Close()

	key := keyval.KeyFromUint64(42)
	val := testValue(9)

	require.NoError(t, c.Put(key, val))

	got, err := c.Get(key)
	require.NoError(t, err)
	require.NotNil(t, got)
	require.Equal(t, val, *got)

	n, err := c.Delete(key)
	require.NoError(t, err)
	require.Equal(t, uint64(1), n)

	got, err = c.Get(key)
	require.NoError(t, err)
	require.Nil(t, got)
}

func TestClientScanAccumulatesAllPairs(t *testing.T) {
	addr := startServer(t)
	c, err := Dial(addr)
	require.NoError(t, err)
	defer c.Close()

	for i := uint64(1); i <= 10; i++ {
		require.NoError(t, c.Put(keyval.KeyFromUint64(i), testValue(byte(i))))
	}

	pairs, err := c.Scan(keyval.KeyFromUint64(0), keyval.KeyFromUint64(100))
	require.NoError(t, err)
	require.Len(t, pairs, 10)
}

func TestClientCloseReturnsNoError(t *testing.T) {
	addr := startServer(t)
	c, err := Dial(addr)
	require.NoError(t, err)
	require.NoError(t, c.Close())
}
