// FilePath: internal/hub/hub_test.go
package hub

import (
	"errors"
	"sync"
	"testing"
	"time"
)

// fakeConn records writes. ReadMessage blocks until the connection closes so
// readPump behaves like a quiet browser client.
type fakeConn struct {
	mu       sync.Mutex
	messages [][]byte
	failNext bool

	closed    chan struct{}
	closeOnce sync.Once
}

func newFakeConn() *fakeConn {
	return &fakeConn{closed: make(chan struct{})}
}

func (c *fakeConn) ReadMessage() (int, []byte, error) {
	<-c.closed
	return 0, nil, errors.New("connection closed")
}

func (c *fakeConn) WriteMessage(messageType int, data []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.failNext {
		return errors.New("broken pipe")
	}
	c.messages = append(c.messages, data)
	return nil
}

func (c *fakeConn) SetReadLimit(int64) {}

func (c *fakeConn) SetReadDeadline(time.Time) error { return nil }

func (c *fakeConn) SetWriteDeadline(time.Time) error { return nil }

func (c *fakeConn) SetPongHandler(func(string) error) {}

func (c *fakeConn) Close() error {
	c.closeOnce.Do(func() { close(c.closed) })
	return nil
}

func (c *fakeConn) failWrites() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.failNext = true
}

func (c *fakeConn) received() [][]byte {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([][]byte, len(c.messages))
	copy(out, c.messages)
	return out
}

func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %s", what)
}

func startSession(h *Hub, conn Conn) *Session {
	s := NewSession(h, conn, "")
	h.Register(s)
	go s.writePump()
	go s.readPump()
	return s
}

func TestHub_BroadcastReachesAllSessions(t *testing.T) {
	h := New()
	h.Run()
	defer h.Stop()

	conn1 := newFakeConn()
	conn2 := newFakeConn()
	startSession(h, conn1)
	startSession(h, conn2)
	waitFor(t, "both sessions registered", func() bool { return h.Count() == 2 })

	h.Broadcast(map[string]string{"deviceId": "dev-1"})

	waitFor(t, "first viewer delivery", func() bool { return len(conn1.received()) == 1 })
	waitFor(t, "second viewer delivery", func() bool { return len(conn2.received()) == 1 })

	if got := string(conn1.received()[0]); got != `{"deviceId":"dev-1"}` {
		t.Errorf("unexpected payload: %s", got)
	}
}

func TestHub_FailingViewerDoesNotAffectOthers(t *testing.T) {
	h := New()
	h.Run()
	defer h.Stop()

	healthy := newFakeConn()
	broken := newFakeConn()
	startSession(h, healthy)
	startSession(h, broken)
	waitFor(t, "both sessions registered", func() bool { return h.Count() == 2 })

	broken.failWrites()
	h.Broadcast(map[string]string{"seq": "1"})

	// The broken viewer's write pump exits and unregisters it.
	waitFor(t, "broken viewer drop", func() bool { return h.Count() == 1 })

	h.Broadcast(map[string]string{"seq": "2"})
	waitFor(t, "healthy viewer keeps receiving", func() bool { return len(healthy.received()) == 2 })
}

func TestHub_StopClosesSessions(t *testing.T) {
	h := New()
	h.Run()

	conn := newFakeConn()
	startSession(h, conn)
	waitFor(t, "session registered", func() bool { return h.Count() == 1 })

	h.Stop()
	waitFor(t, "session closed", func() bool {
		select {
		case <-conn.closed:
			return true
		default:
			return false
		}
	})
	waitFor(t, "count reset", func() bool { return h.Count() == 0 })
}

func TestHub_RegisterAfterStopClosesSession(t *testing.T) {
	h := New()
	h.Run()
	h.Stop()

	conn := newFakeConn()
	s := NewSession(h, conn, "")
	h.Register(s)

	select {
	case <-conn.closed:
	case <-time.After(time.Second):
		t.Fatal("expected session to be closed immediately")
	}
}
