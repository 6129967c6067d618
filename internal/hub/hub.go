// FilePath: internal/hub/hub.go
// Package hub owns the set of live viewer sessions and fans accepted
// readings out to them.
package hub

import (
	"encoding/json"
	"sync"
	"sync/atomic"

	nuts "github.com/vaudience/go-nuts"
)

const broadcastBuffer = 256

// Hub maintains the set of active viewer sessions. The session map is owned
// exclusively by the Run loop; registration, unregistration and broadcast
// all go through channels, so connection handlers and the ingest path never
// touch it concurrently.
type Hub struct {
	sessions map[*Session]struct{}

	register   chan *Session
	unregister chan *Session
	broadcast  chan []byte

	done     chan struct{}
	stopOnce sync.Once
	count    atomic.Int64
}

func New() *Hub {
	return &Hub{
		sessions:   make(map[*Session]struct{}),
		register:   make(chan *Session),
		unregister: make(chan *Session),
		broadcast:  make(chan []byte, broadcastBuffer),
		done:       make(chan struct{}),
	}
}

// Run starts the hub's main loop. Call Stop to end it.
func (h *Hub) Run() {
	go h.loop()
}

// Stop ends the main loop and closes every session.
func (h *Hub) Stop() {
	h.stopOnce.Do(func() { close(h.done) })
}

// Count returns the number of registered sessions.
func (h *Hub) Count() int {
	return int(h.count.Load())
}

// Register adds a session to the fanout set.
func (h *Hub) Register(s *Session) {
	select {
	case h.register <- s:
	case <-h.done:
		s.close()
	}
}

// Unregister removes a session. Safe to call more than once per session.
func (h *Hub) Unregister(s *Session) {
	select {
	case h.unregister <- s:
	case <-h.done:
	}
}

// Broadcast serializes v once and queues it for delivery to every
// registered session. It never blocks the caller and never returns a
// delivery error; a session that cannot keep up is dropped.
func (h *Hub) Broadcast(v interface{}) {
	payload, err := json.Marshal(v)
	if err != nil {
		nuts.L.Errorf("[Hub] Failed to marshal broadcast payload: %v", err)
		return
	}
	select {
	case h.broadcast <- payload:
	case <-h.done:
	default:
		nuts.L.Warnf("[Hub] Broadcast queue full, dropping payload")
	}
}

func (h *Hub) loop() {
	for {
		select {
		case s := <-h.register:
			h.sessions[s] = struct{}{}
			h.count.Store(int64(len(h.sessions)))
			nuts.L.Infof("[Hub] Viewer connected (%d active)", len(h.sessions))

		case s := <-h.unregister:
			h.drop(s)

		case payload := <-h.broadcast:
			for s := range h.sessions {
				select {
				case s.send <- payload:
				default:
					// Send buffer full: the viewer is too slow or gone.
					nuts.L.Warnf("[Hub] Dropping slow viewer %s", s.ID)
					h.drop(s)
				}
			}

		case <-h.done:
			for s := range h.sessions {
				h.drop(s)
			}
			return
		}
	}
}

func (h *Hub) drop(s *Session) {
	if _, ok := h.sessions[s]; !ok {
		return
	}
	delete(h.sessions, s)
	h.count.Store(int64(len(h.sessions)))
	s.close()
	nuts.L.Infof("[Hub] Viewer disconnected %s (%d active)", s.ID, len(h.sessions))
}
