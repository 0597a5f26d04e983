package testutil

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
)

// WSRecorder is a websocket test server that records every text message it
// receives on the touch pad path.
type WSRecorder struct {
	Server   *httptest.Server
	Messages chan []byte

	upgrader  websocket.Upgrader
	gate      chan struct{}
	closed    chan struct{}
	gateOnce  sync.Once
	closeOnce sync.Once

	mu    sync.Mutex
	conns []*websocket.Conn
}

// NewWSRecorder starts a recorder serving path. When held is true, upgrades
// block until Release is called.
func NewWSRecorder(t testing.TB, path string, held bool) *WSRecorder {
	t.Helper()
	r := &WSRecorder{
		Messages: make(chan []byte, 64),
		upgrader: websocket.Upgrader{CheckOrigin: func(*http.Request) bool { return true }},
		gate:     make(chan struct{}),
		closed:   make(chan struct{}),
	}
	if !held {
		r.Release()
	}
	mux := http.NewServeMux()
	mux.HandleFunc(path, r.handle)
	r.Server = httptest.NewServer(mux)
	t.Cleanup(r.Close)
	return r
}

// HostPort returns the server address in host:port form.
func (r *WSRecorder) HostPort() string {
	return strings.TrimPrefix(r.Server.URL, "http://")
}

// Release lets held upgrades proceed.
func (r *WSRecorder) Release() {
	r.gateOnce.Do(func() { close(r.gate) })
}

// Next waits for the next recorded message.
func (r *WSRecorder) Next(t testing.TB, timeout time.Duration) []byte {
	t.Helper()
	select {
	case msg := <-r.Messages:
		return msg
	case <-time.After(timeout):
		t.Fatalf("no message received within %s", timeout)
		return nil
	}
}

// ExpectNone fails if a message arrives within wait.
func (r *WSRecorder) ExpectNone(t testing.TB, wait time.Duration) {
	t.Helper()
	select {
	case msg := <-r.Messages:
		t.Fatalf("unexpected message %s", msg)
	case <-time.After(wait):
	}
}

// Send writes a text message to the most recent connection.
func (r *WSRecorder) Send(t testing.TB, data []byte) {
	t.Helper()
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.conns) == 0 {
		t.Fatalf("no active connection")
	}
	if err := r.conns[len(r.conns)-1].WriteMessage(websocket.TextMessage, data); err != nil {
		t.Fatalf("send failed: %v", err)
	}
}

// Connections returns the number of accepted connections.
func (r *WSRecorder) Connections() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.conns)
}

// DropConnections closes every server-side socket without a close frame.
func (r *WSRecorder) DropConnections() {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, conn := range r.conns {
		_ = conn.Close()
	}
}

// Close stops the server and drops its connections.
func (r *WSRecorder) Close() {
	r.closeOnce.Do(func() {
		close(r.closed)
		r.Release()
		r.DropConnections()
		r.Server.Close()
	})
}

// handle upgrades the request and records messages until the socket ends.
func (r *WSRecorder) handle(w http.ResponseWriter, req *http.Request) {
	select {
	case <-r.gate:
	case <-r.closed:
		return
	}
	conn, err := r.upgrader.Upgrade(w, req, nil)
	if err != nil {
		return
	}
	r.mu.Lock()
	r.conns = append(r.conns, conn)
	r.mu.Unlock()

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			return
		}
		select {
		case r.Messages <- data:
		case <-r.closed:
			return
		}
	}
}
