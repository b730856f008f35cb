// Package web mirrors the pet to browsers: a JSON status endpoint and a
// WebSocket stream of engine events. It never changes the game.
package web

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/dustin/go-humanize"

	"pokepet/internal/engine"
)

// State is the JSON view of the pet.
type State struct {
	engine.Snapshot
	SavedAt  *time.Time `json:"savedAt,omitempty"`
	SavedAgo string     `json:"savedAgo,omitempty"`
}

// Message is one WebSocket frame.
type Message struct {
	Kind    string `json:"kind"`
	Message string `json:"message,omitempty"`
	Gauge   string `json:"gauge,omitempty"`
	Cause   string `json:"cause,omitempty"`
	State   State  `json:"state"`
}

// KindState is sent to a client right after it connects.
const KindState = "state"

// Hub tracks connected clients and fans engine events out to them. Notify is
// called on the engine's thread and never blocks.
type Hub struct {
	log       *slog.Logger
	lastSaved func() time.Time

	clients    map[*client]bool
	broadcast  chan Message
	register   chan *client
	unregister chan *client
	done       chan struct{}

	mu   sync.Mutex
	snap engine.Snapshot
}

// NewHub creates a hub. lastSaved may be nil.
func NewHub(lastSaved func() time.Time, logger *slog.Logger) *Hub {
	if logger == nil {
		logger = slog.Default()
	}
	return &Hub{
		log:        logger,
		lastSaved:  lastSaved,
		clients:    make(map[*client]bool),
		broadcast:  make(chan Message, 64),
		register:   make(chan *client),
		unregister: make(chan *client),
		done:       make(chan struct{}),
	}
}

// Notify implements engine.Observer.
func (h *Hub) Notify(ev engine.Event) {
	h.mu.Lock()
	h.snap = ev.Snapshot
	h.mu.Unlock()

	msg := Message{Kind: ev.Kind.String(), Message: ev.Message, State: h.State()}
	switch ev.Kind {
	case engine.EventCritical:
		msg.Gauge = ev.Gauge.String()
	case engine.EventGameOver:
		msg.Gauge = ev.Gauge.String()
		msg.Cause = string(ev.Cause)
	}

	select {
	case h.broadcast <- msg:
	default:
		h.log.Warn("web mirror backlog full, dropping event", "kind", msg.Kind)
	}
}

// State returns the latest snapshot with the save time attached.
func (h *Hub) State() State {
	h.mu.Lock()
	st := State{Snapshot: h.snap}
	h.mu.Unlock()

	if h.lastSaved != nil {
		if t := h.lastSaved(); !t.IsZero() {
			st.SavedAt = &t
			st.SavedAgo = humanize.Time(t)
		}
	}
	return st
}

// Run serves registrations and broadcasts until ctx is done.
func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)
	for {
		select {
		case <-ctx.Done():
			for c := range h.clients {
				delete(h.clients, c)
				close(c.send)
			}
			h.log.Info("web hub shutting down")
			return
		case c := <-h.register:
			h.clients[c] = true
			h.log.Info("web client connected", "client", c.id, "clients", len(h.clients))
			h.deliver(c, Message{Kind: KindState, State: h.State()})
		case c := <-h.unregister:
			if _, ok := h.clients[c]; ok {
				delete(h.clients, c)
				close(c.send)
				h.log.Info("web client disconnected", "client", c.id)
			}
		case msg := <-h.broadcast:
			for c := range h.clients {
				h.deliver(c, msg)
			}
		}
	}
}

// deliver drops a client that cannot keep up.
func (h *Hub) deliver(c *client, msg Message) {
	payload, err := json.Marshal(msg)
	if err != nil {
		h.log.Error("encoding web message", "err", err)
		return
	}
	select {
	case c.send <- payload:
	default:
		delete(h.clients, c)
		close(c.send)
		h.log.Warn("web client too slow, dropped", "client", c.id)
	}
}
