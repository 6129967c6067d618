// FilePath: internal/hub/client.go
package hub

import (
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	nuts "github.com/vaudience/go-nuts"
)

const (
	// Time allowed to write a message to the peer.
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer.
	pongWait = 60 * time.Second

	// Send pings to peer with this period. Must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10

	// Maximum message size allowed from peer. Viewers only listen; anything
	// bigger than a control frame is suspect.
	maxMessageSize = 1024

	sendBuffer = 64
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// Dashboards connect from browser origins we do not control.
	CheckOrigin: func(r *http.Request) bool { return true },
}

// Conn is the subset of *websocket.Conn the session uses. Tests substitute
// a fake to exercise send failures without real sockets.
type Conn interface {
	ReadMessage() (int, []byte, error)
	WriteMessage(messageType int, data []byte) error
	SetReadLimit(limit int64)
	SetReadDeadline(t time.Time) error
	SetWriteDeadline(t time.Time) error
	SetPongHandler(h func(appData string) error)
	Close() error
}

// Session is one live viewer connection. It is owned by the Hub from
// registration until disconnect and is never persisted.
type Session struct {
	ID string

	// Scope is an optional device/client filter recorded at upgrade time.
	// Broadcasts are currently unscoped; the field is kept so a later
	// product decision on per-tenant fanout has somewhere to land.
	Scope string

	hub  *Hub
	conn Conn
	send chan []byte

	closeOnce sync.Once
}

// NewSession wraps a connection for hub registration.
func NewSession(h *Hub, conn Conn, scope string) *Session {
	return &Session{
		ID:    nuts.NID("vs", 12),
		Scope: scope,
		hub:   h,
		conn:  conn,
		send:  make(chan []byte, sendBuffer),
	}
}

func (s *Session) close() {
	s.closeOnce.Do(func() {
		close(s.send)
		s.conn.Close()
	})
}

// readPump drains the connection until it errors. Viewers do not speak;
// reading only serves to detect disconnects and answer pings.
func (s *Session) readPump() {
	defer func() {
		s.hub.Unregister(s)
		s.conn.Close()
	}()
	s.conn.SetReadLimit(maxMessageSize)
	s.conn.SetReadDeadline(time.Now().Add(pongWait))
	s.conn.SetPongHandler(func(string) error {
		s.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		if _, _, err := s.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				nuts.L.Debugf("[Hub] Viewer %s read error: %v", s.ID, err)
			}
			return
		}
	}
}

// writePump pushes hub payloads to the connection. A write failure drops
// only this session; the hub keeps serving the others.
func (s *Session) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		s.hub.Unregister(s)
		s.conn.Close()
	}()

	for {
		select {
		case payload, ok := <-s.send:
			s.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				// The hub dropped this session.
				s.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := s.conn.WriteMessage(websocket.TextMessage, payload); err != nil {
				nuts.L.Debugf("[Hub] Viewer %s write error: %v", s.ID, err)
				return
			}
		case <-ticker.C:
			s.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := s.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// ServeWS upgrades an HTTP request to a viewer session and registers it.
func ServeWS(h *Hub, w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		nuts.L.Errorf("[Hub] Upgrade failed: %v", err)
		return
	}

	session := NewSession(h, conn, r.URL.Query().Get("device_id"))
	h.Register(session)

	go session.writePump()
	go session.readPump()
}
