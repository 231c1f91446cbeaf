package server

import (
	"bufio"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"kvprotod/internal/dispatch"
	"kvprotod/internal/log"
	"kvprotod/internal/pubsub"
	"kvprotod/internal/store"
	"kvprotod/internal/txn"
)

func newTestServer(t *testing.T) *Server {
	t.Helper()
	db := store.New()
	hub := pubsub.New()
	tx := txn.NewManager()
	engine := dispatch.New(db, hub, tx, log.Nop(), 64)

	srv := New(Config{Host: "127.0.0.1", Port: 0, ReadBufferSize: 4096}, engine, nil, log.Nop())
	go srv.ListenAndServe()

	require.Eventually(t, func() bool { return srv.Addr() != nil }, time.Second, time.Millisecond)
	t.Cleanup(srv.Shutdown)
	return srv
}

// testConn pairs a connection with the single bufio.Reader that reads
// from it, so line-at-a-time replies survive across multiple calls
// instead of each read dropping whatever a throwaway reader
// over-buffered from the socket.
type testConn struct {
	net.Conn
	r *bufio.Reader
}

func dial(t *testing.T, srv *Server) *testConn {
	t.Helper()
	conn, err := net.Dial("tcp", srv.Addr().String())
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return &testConn{Conn: conn, r: bufio.NewReader(conn)}
}

func sendAndRead(t *testing.T, tc *testConn, req string) string {
	t.Helper()
	_, err := tc.Write([]byte(req))
	require.NoError(t, err)
	tc.SetReadDeadline(time.Now().Add(2 * time.Second))
	line, err := tc.r.ReadString('\n')
	require.NoError(t, err)
	return line
}

func TestServerRespondsToPing(t *testing.T) {
	srv := newTestServer(t)
	conn := dial(t, srv)

	reply := sendAndRead(t, conn, "*1\r\n$4\r\nPING\r\n")
	require.Equal(t, "+PONG\r\n", reply)
}

func TestServerSetAndGetRoundtrip(t *testing.T) {
	srv := newTestServer(t)
	conn := dial(t, srv)

	reply := sendAndRead(t, conn, "*3\r\n$3\r\nSET\r\n$3\r\nfoo\r\n$3\r\nbar\r\n")
	require.Equal(t, "+OK\r\n", reply)

	reply = sendAndRead(t, conn, "*2\r\n$3\r\nGET\r\n$3\r\nfoo\r\n")
	require.Equal(t, "$3\r\n", reply)
	reply = sendAndRead(t, conn, "")
	require.Equal(t, "bar\r\n", reply)
}

func TestServerClosesConnectionOnMalformedFrame(t *testing.T) {
	srv := newTestServer(t)
	conn := dial(t, srv)

	_, err := conn.Write([]byte("$5\r\nhello\r\n"))
	require.NoError(t, err)

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	line, err := conn.r.ReadString('\n')
	require.NoError(t, err)
	require.Contains(t, line, "ERR")

	_, err = conn.r.ReadByte()
	require.Error(t, err, "server should close the connection after a protocol error")
}

func TestServerRejectsConnectionsPastMaxConnections(t *testing.T) {
	db := store.New()
	hub := pubsub.New()
	tx := txn.NewManager()
	engine := dispatch.New(db, hub, tx, log.Nop(), 64)

	srv := New(Config{Host: "127.0.0.1", Port: 0, MaxConnections: 1}, engine, nil, log.Nop())
	go srv.ListenAndServe()
	require.Eventually(t, func() bool { return srv.Addr() != nil }, time.Second, time.Millisecond)
	t.Cleanup(srv.Shutdown)

	first := dial(t, srv)
	sendAndRead(t, first, "*1\r\n$4\r\nPING\r\n")

	second, err := net.Dial("tcp", srv.Addr().String())
	require.NoError(t, err)
	defer second.Close()

	second.SetReadDeadline(time.Now().Add(time.Second))
	buf := make([]byte, 16)
	_, err = second.Read(buf)
	require.Error(t, err)
}

func TestServerPubSubDeliversAcrossConnections(t *testing.T) {
	srv := newTestServer(t)
	subConn := dial(t, srv)
	pubConn := dial(t, srv)

	reply := sendAndRead(t, subConn, "*2\r\n$9\r\nSUBSCRIBE\r\n$2\r\nch\r\n")
	require.Contains(t, reply, "*3")
	_, err := subConn.r.ReadString('\n') // "subscribe" bulk string header
	require.NoError(t, err)
	_, err = subConn.r.ReadString('\n') // "subscribe" bulk string payload
	require.NoError(t, err)
	_, err = subConn.r.ReadString('\n') // channel name bulk string header
	require.NoError(t, err)
	_, err = subConn.r.ReadString('\n') // channel name bulk string payload
	require.NoError(t, err)
	_, err = subConn.r.ReadString('\n') // subscription count
	require.NoError(t, err)

	reply = sendAndRead(t, pubConn, "*3\r\n$7\r\nPUBLISH\r\n$2\r\nch\r\n$5\r\nhello\r\n")
	require.Equal(t, ":1\r\n", reply)

	subConn.SetReadDeadline(time.Now().Add(2 * time.Second))
	line, err := subConn.r.ReadString('\n')
	require.NoError(t, err)
	require.Contains(t, line, "*3")
}
