package hub

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/teslashibe/go-rover/internal/log"
)

// sink is what the hub delivers to. *Client is the only production sink;
// tests register their own.
type sink interface {
	queue() chan Message
}

// Hub maintains the set of active clients and broadcasts messages to them
type Hub struct {
	name   string
	logger *slog.Logger

	clients    map[sink]bool
	broadcast  chan Message
	register   chan sink
	unregister chan sink
	done       chan struct{}

	// last is replayed to newly registered clients
	last atomic.Pointer[Message]

	mu      sync.RWMutex
	running atomic.Bool
	dropped atomic.Uint64
}

// New creates a new Hub
func New(name string) *Hub {
	return &Hub{
		name:       name,
		logger:     log.With("component", "hub", "hub", name),
		clients:    make(map[sink]bool),
		broadcast:  make(chan Message, 256),
		register:   make(chan sink),
		unregister: make(chan sink),
		done:       make(chan struct{}),
	}
}

// Run is the hub's main loop. It returns when ctx is cancelled, after
// closing every client's send channel.
func (h *Hub) Run(ctx context.Context) {
	h.running.Store(true)
	defer func() {
		h.running.Store(false)
		close(h.done)
	}()

	for {
		select {
		case <-ctx.Done():
			h.mu.Lock()
			for c := range h.clients {
				close(c.queue())
				delete(h.clients, c)
			}
			h.mu.Unlock()
			return

		case c := <-h.register:
			h.mu.Lock()
			h.clients[c] = true
			count := len(h.clients)
			h.mu.Unlock()
			if last := h.last.Load(); last != nil {
				h.deliver(c, *last)
			}
			h.logger.Debug("client connected", "clients", count)

		case c := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[c]; ok {
				delete(h.clients, c)
				close(c.queue())
			}
			count := len(h.clients)
			h.mu.Unlock()
			h.logger.Debug("client disconnected", "clients", count)

		case msg := <-h.broadcast:
			h.mu.RLock()
			targets := make([]sink, 0, len(h.clients))
			for c := range h.clients {
				targets = append(targets, c)
			}
			h.mu.RUnlock()
			for _, c := range targets {
				h.deliver(c, msg)
			}
		}
	}
}

// add registers c. If the hub has already stopped, c is closed instead.
func (h *Hub) add(c sink) {
	select {
	case h.register <- c:
	case <-h.done:
		close(c.queue())
	}
}

// remove unregisters c. It is a no-op once the hub has stopped.
func (h *Hub) remove(c sink) {
	select {
	case h.unregister <- c:
	case <-h.done:
	}
}

// deliver queues msg for c, dropping the client if its buffer is full.
// Only called from Run.
func (h *Hub) deliver(c sink, msg Message) {
	select {
	case c.queue() <- msg:
	default:
		h.mu.Lock()
		if _, ok := h.clients[c]; ok {
			delete(h.clients, c)
			close(c.queue())
		}
		h.mu.Unlock()
		h.dropped.Add(1)
		h.logger.Warn("dropped slow client")
	}
}

// Broadcast sends a message to all connected clients
func (h *Hub) Broadcast(msg Message) {
	h.last.Store(&msg)
	select {
	case h.broadcast <- msg:
	default:
		h.logger.Warn("broadcast channel full, dropping message")
	}
}

// BroadcastJSON encodes and broadcasts a JSON message
func (h *Hub) BroadcastJSON(v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	h.Broadcast(Message{Data: data})
	return nil
}

// ClientCount returns the number of connected clients
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Dropped returns how many slow clients have been disconnected.
func (h *Hub) Dropped() uint64 {
	return h.dropped.Load()
}

// IsRunning returns whether the hub loop is active
func (h *Hub) IsRunning() bool {
	return h.running.Load()
}
