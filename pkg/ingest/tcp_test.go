package ingest

import (
	"bufio"
	"context"
	"net"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// serve accepts one connection, writes payload and closes it.
func serve(t *testing.T, payload string, hold bool) string {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	t.Cleanup(func() { ln.Close() })

	go func() {
		conn, err := ln.Accept()
		if err != nil {
			return
		}
		conn.Write([]byte(payload))
		if hold {
			// keep the connection open until the client goes away
			bufio.NewReader(conn).ReadByte()
		}
		conn.Close()
	}()
	return ln.Addr().String()
}

type received struct {
	mu   sync.Mutex
	seqs []string
}

func (r *received) handle(_ context.Context, raw string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.seqs = append(r.seqs, raw)
}

func (r *received) all() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.seqs...)
}

func TestTCPClient_ReadsLines(t *testing.T) {
	addr := serve(t, "w5aw10ds4f\r\n\nw2\n"+strings.Repeat("a", 150)+"\nd", false)
	rec := &received{}

	err := NewTCPClient(addr, nil).Run(context.Background(), rec.handle)
	require.ErrorIs(t, err, ErrClosed)
	assert.Equal(t, []string{"w5aw10ds4f", "w2", "d"}, rec.all())
}

func TestTCPClient_LongLineAcrossBuffer(t *testing.T) {
	addr := serve(t, strings.Repeat("w", 10000)+"\na\n", false)
	rec := &received{}

	err := NewTCPClient(addr, nil).Run(context.Background(), rec.handle)
	require.ErrorIs(t, err, ErrClosed)
	assert.Equal(t, []string{"a"}, rec.all())
}

func TestTCPClient_Cancel(t *testing.T) {
	addr := serve(t, "a\n", true)
	rec := &received{}
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)
	go func() { done <- NewTCPClient(addr, nil).Run(ctx, rec.handle) }()

	require.Eventually(t, func() bool { return len(rec.all()) == 1 }, time.Second, time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return after cancel")
	}
}

func TestTCPClient_DialError(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := ln.Addr().String()
	ln.Close()

	err = NewTCPClient(addr, nil).Run(context.Background(), (&received{}).handle)
	assert.Error(t, err)
}

func TestReadLine(t *testing.T) {
	r := bufio.NewReaderSize(strings.NewReader("abc\r\nabcdef\nxy"), 16)

	line, tooLong, err := readLine(r, 4)
	assert.Equal(t, "abc", line)
	assert.False(t, tooLong)
	assert.NoError(t, err)

	line, tooLong, err = readLine(r, 4)
	assert.Equal(t, "", line)
	assert.True(t, tooLong)
	assert.NoError(t, err)

	line, tooLong, err = readLine(r, 4)
	assert.Equal(t, "xy", line)
	assert.False(t, tooLong)
	assert.Error(t, err)
}
