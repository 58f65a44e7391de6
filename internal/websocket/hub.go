package websocket

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"bizdash/internal/events"
	"bizdash/internal/infrastructure"
)

// Hub tracks open sessions and fans run notifications out to them. It
// implements events.Publisher.
type Hub struct {
	sessions map[*Session]bool

	broadcast  chan []byte
	register   chan *Session
	unregister chan *Session

	mu      sync.RWMutex
	running bool
	quit    chan struct{}
	done    chan struct{}

	metrics *infrastructure.BusinessMetrics
	logger  *slog.Logger
}

var _ events.Publisher = (*Hub)(nil)

// NewHub creates a hub. Call Start before registering sessions.
func NewHub(metrics *infrastructure.BusinessMetrics, logger *slog.Logger) *Hub {
	if logger == nil {
		logger = infrastructure.GetLogger()
	}
	return &Hub{
		sessions:   make(map[*Session]bool),
		broadcast:  make(chan []byte, sendBuffer),
		register:   make(chan *Session),
		unregister: make(chan *Session),
		quit:       make(chan struct{}),
		done:       make(chan struct{}),
		metrics:    metrics,
		logger:     logger.With(slog.String("component", "websocket.hub")),
	}
}

// Start runs the hub loop in a goroutine. It is idempotent.
func (h *Hub) Start() {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.running {
		return
	}
	h.running = true
	go h.run()
}

// Stop closes every session and ends the hub loop. It is idempotent.
func (h *Hub) Stop() {
	h.mu.Lock()
	if !h.running {
		h.mu.Unlock()
		return
	}
	h.running = false
	h.mu.Unlock()

	close(h.quit)
	<-h.done
}

// Register adds a session. A stopped hub closes the session instead.
func (h *Hub) Register(s *Session) {
	select {
	case h.register <- s:
	case <-h.done:
		s.closeSend()
	}
}

// Unregister removes a session and closes its send buffer.
func (h *Hub) Unregister(s *Session) {
	select {
	case h.unregister <- s:
	case <-h.done:
	}
}

// SessionCount returns the number of open sessions.
func (h *Hub) SessionCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.sessions)
}

// PublishRunCompleted sends msg to every open session.
func (h *Hub) PublishRunCompleted(ctx context.Context, msg events.RunCompleted) error {
	payload, err := json.Marshal(Response{
		Type:      TypeRunCompleted,
		Data:      msg,
		Timestamp: time.Now(),
	})
	if err != nil {
		return err
	}

	select {
	case h.broadcast <- payload:
		return nil
	case <-h.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close stops the hub.
func (h *Hub) Close() error {
	h.Stop()
	return nil
}

func (h *Hub) run() {
	defer close(h.done)
	ctx := context.Background()

	for {
		select {
		case <-h.quit:
			h.mu.Lock()
			for s := range h.sessions {
				delete(h.sessions, s)
				s.closeSend()
				h.metrics.SessionOpened(ctx, -1)
			}
			h.mu.Unlock()
			h.logger.Info("hub shutting down")
			return

		case s := <-h.register:
			h.mu.Lock()
			h.sessions[s] = true
			count := len(h.sessions)
			h.mu.Unlock()

			h.metrics.SessionOpened(ctx, 1)
			h.logger.InfoContext(s.ctx, "session registered",
				slog.String("session_id", s.id),
				slog.String("remote_addr", s.conn.RemoteAddr()),
				slog.Int("total_sessions", count))

		case s := <-h.unregister:
			h.mu.Lock()
			_, ok := h.sessions[s]
			if ok {
				delete(h.sessions, s)
			}
			count := len(h.sessions)
			h.mu.Unlock()

			if ok {
				s.closeSend()
				h.metrics.SessionOpened(ctx, -1)
				h.logger.InfoContext(s.ctx, "session unregistered",
					slog.String("session_id", s.id),
					slog.Int("total_sessions", count))
			}

		case message := <-h.broadcast:
			h.mu.Lock()
			for s := range h.sessions {
				if !s.deliver(message) {
					// A session that cannot keep up is disconnected.
					delete(h.sessions, s)
					s.closeSend()
					h.metrics.SessionOpened(ctx, -1)
					h.logger.WarnContext(s.ctx, "session send buffer full, disconnecting",
						slog.String("session_id", s.id))
				}
			}
			h.mu.Unlock()
		}
	}
}
