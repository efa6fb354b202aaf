package hub

import (
	"sync"
	"testing"
	"time"

	"github.com/gofiber/websocket/v2"
	"go.uber.org/zap"
)

type fakeConn struct {
	mu       sync.Mutex
	messages [][]byte
	pings    int
	closed   bool
	pingErr  error
	writeErr error
}

func (f *fakeConn) WriteMessage(mt int, data []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.writeErr != nil {
		return f.writeErr
	}
	if mt == websocket.TextMessage {
		cp := make([]byte, len(data))
		copy(cp, data)
		f.messages = append(f.messages, cp)
	}
	return nil
}

func (f *fakeConn) WriteControl(mt int, data []byte, deadline time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if mt == websocket.PingMessage {
		if f.pingErr != nil {
			return f.pingErr
		}
		f.pings++
	}
	return nil
}

func (f *fakeConn) SetWriteDeadline(t time.Time) error { return nil }

func (f *fakeConn) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
	return nil
}

func (f *fakeConn) messageCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.messages)
}

func (f *fakeConn) isClosed() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.closed
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("condition not reached in time")
}

func newTestRegistry() *Registry {
	return NewRegistry(zap.NewNop().Sugar())
}

func TestSendToRegisteredClient(t *testing.T) {
	r := newTestRegistry()
	conn := &fakeConn{}
	r.Register("u1", NewClient(conn, time.Second))

	if !r.Send("u1", map[string]string{"hello": "world"}) {
		t.Fatal("send reported failure for a live handle")
	}
	waitFor(t, func() bool { return conn.messageCount() == 1 })
}

func TestSendNoHandle(t *testing.T) {
	r := newTestRegistry()
	if r.Send("ghost", "payload") {
		t.Fatal("send succeeded with no live handle")
	}
}

func TestRegisterLastWriteWins(t *testing.T) {
	r := newTestRegistry()
	c1conn, c2conn := &fakeConn{}, &fakeConn{}
	r.Register("u1", NewClient(c1conn, time.Second))
	r.Register("u1", NewClient(c2conn, time.Second))

	waitFor(t, func() bool { return c1conn.isClosed() })

	if !r.Send("u1", "msg") {
		t.Fatal("send failed after re-register")
	}
	waitFor(t, func() bool { return c2conn.messageCount() == 1 })
	if c1conn.messageCount() != 0 {
		t.Fatal("message delivered to replaced handle")
	}
	if r.Count() != 1 {
		t.Fatalf("count = %d, want 1", r.Count())
	}
}

func TestUnregister(t *testing.T) {
	r := newTestRegistry()
	conn := &fakeConn{}
	r.Register("u1", NewClient(conn, time.Second))
	r.Unregister("u1")

	if r.Send("u1", "msg") {
		t.Fatal("send succeeded after unregister")
	}
	if !conn.isClosed() {
		t.Fatal("connection left open after unregister")
	}
}

func TestUnbindLeavesConnectionOpen(t *testing.T) {
	r := newTestRegistry()
	conn := &fakeConn{}
	c := NewClient(conn, time.Second)
	r.Register("u1", c)
	r.Unbind("u1")

	if r.Send("u1", "msg") {
		t.Fatal("send succeeded after unbind")
	}
	if conn.isClosed() {
		t.Fatal("unbind must not close the connection")
	}

	// A later register for the same connection works again.
	r.Register("u1", c)
	if !r.Send("u1", "msg") {
		t.Fatal("send failed after re-register")
	}
}

func TestRemoveByHandle(t *testing.T) {
	r := newTestRegistry()
	conn := &fakeConn{}
	c := NewClient(conn, time.Second)
	r.Register("u1", c)
	r.Remove(c)

	if r.Count() != 0 {
		t.Fatalf("count = %d after remove", r.Count())
	}
}

func TestSweepKeepsResponsiveConnection(t *testing.T) {
	r := newTestRegistry()
	conn := &fakeConn{}
	c := NewClient(conn, time.Second)
	r.Register("u1", c)

	r.Sweep() // clears alive, pings
	c.MarkAlive()
	r.Sweep()

	if r.Count() != 1 {
		t.Fatal("responsive connection was pruned")
	}
	if conn.pings != 2 {
		t.Fatalf("pings = %d, want 2", conn.pings)
	}
}

func TestSweepPrunesSilentConnection(t *testing.T) {
	r := newTestRegistry()
	conn := &fakeConn{}
	r.Register("u1", NewClient(conn, time.Second))

	r.Sweep() // first pass: mark not alive, ping
	r.Sweep() // second pass: still silent, terminate

	if r.Count() != 0 {
		t.Fatal("silent connection survived two sweeps")
	}
	if !conn.isClosed() {
		t.Fatal("pruned connection not closed")
	}
}

func TestShutdownClosesEverything(t *testing.T) {
	r := newTestRegistry()
	c1, c2 := &fakeConn{}, &fakeConn{}
	r.Register("u1", NewClient(c1, time.Second))
	r.Register("u2", NewClient(c2, time.Second))

	r.Shutdown()
	if r.Count() != 0 {
		t.Fatal("registry not empty after shutdown")
	}
	if !c1.isClosed() || !c2.isClosed() {
		t.Fatal("connections left open after shutdown")
	}
}
