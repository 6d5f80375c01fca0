package events

import (
	"context"
	"encoding/json"
	"strings"
	"sync"

	"creativerse/internal/domain/model"
	"creativerse/internal/platform/logger"
	"creativerse/internal/platform/metrics"

	"github.com/rs/zerolog"
)

// Hub keeps one room of live websocket clients per contest and relays that contest's events.
type Hub struct {
	rooms      map[string]map[*Client]bool
	register   chan *Client
	unregister chan *Client
	done       chan struct{}
	mu         sync.RWMutex
	metrics    *metrics.Metrics
	logger     zerolog.Logger
}

func NewHub(m *metrics.Metrics) *Hub {
	return &Hub{
		rooms:      make(map[string]map[*Client]bool),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		done:       make(chan struct{}),
		metrics:    m,
		logger:     logger.Component("hub"),
	}
}

func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)
	for {
		select {
		case <-ctx.Done():
			h.closeAll()
			return
		case client := <-h.register:
			h.registerClient(client)
		case client := <-h.unregister:
			h.unregisterClient(client)
		}
	}
}

// Register reports false once the hub has stopped.
func (h *Hub) Register(c *Client) bool {
	select {
	case h.register <- c:
		return true
	case <-h.done:
		return false
	}
}

func (h *Hub) Unregister(c *Client) {
	select {
	case h.unregister <- c:
	case <-h.done:
	}
}

func (h *Hub) registerClient(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	room := h.rooms[client.ContestID]
	if room == nil {
		room = make(map[*Client]bool)
		h.rooms[client.ContestID] = room
	}
	room[client] = true
	h.metrics.IncLiveConnections()

	h.logger.Debug().
		Str("clientId", client.ID).
		Str("contestId", client.ContestID).
		Int("roomSize", len(room)).
		Msg("Client joined contest room")
}

func (h *Hub) unregisterClient(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	room, ok := h.rooms[client.ContestID]
	if !ok || !room[client] {
		return
	}
	delete(room, client)
	if len(room) == 0 {
		delete(h.rooms, client.ContestID)
	}
	close(client.send)
	h.metrics.DecLiveConnections()

	h.logger.Debug().
		Str("clientId", client.ID).
		Str("contestId", client.ContestID).
		Msg("Client left contest room")
}

func (h *Hub) closeAll() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for id, room := range h.rooms {
		for client := range room {
			close(client.send)
			h.metrics.DecLiveConnections()
		}
		delete(h.rooms, id)
	}
}

// Publish sends the event to everyone watching its contest. Slow clients drop messages.
// Publish relays evt to the contest's room. Payment events stay off the
// room since anyone may watch it anonymously.
func (h *Hub) Publish(_ context.Context, evt model.Event) {
	if evt.ContestID == "" || !Broadcastable(evt.Type) {
		return
	}
	data, err := json.Marshal(evt)
	if err != nil {
		h.logger.Error().Err(err).Msg("Failed to serialize event")
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()
	for client := range h.rooms[evt.ContestID] {
		select {
		case client.send <- data:
		default:
			h.logger.Warn().Str("clientId", client.ID).Msg("Client send buffer full, dropping event")
		}
	}
	h.metrics.IncEvent("websocket", "ok")
}

// Broadcastable reports whether events of this type may reach live-room watchers.
func Broadcastable(eventType string) bool {
	return !strings.HasPrefix(eventType, "payment.")
}

func (h *Hub) RoomSize(contestID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rooms[contestID])
}
