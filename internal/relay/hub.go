// Package relay is the room-based pub/sub primitive behind multiplayer
// carts. At-most-once, best-effort fan-out: no persistence, no delivery
// guarantees, no backpressure beyond dropping on a full client buffer.
package relay

import (
	"encoding/json"
	"sync"

	"github.com/google/uuid"
)

// Event types on the wire. Every event carries the room identifier.
const (
	EventJoin         = "join"
	EventLeave        = "leave"
	EventStateUpdate  = "state_update"
	EventChatMessage  = "chat_message"
	EventPlayerJoined = "player_joined"
	EventPlayerLeft   = "player_left"
)

// Event is one relay message.
type Event struct {
	Type   string          `json:"type"`
	Room   string          `json:"room,omitempty"`
	Player string          `json:"player,omitempty"`
	Data   json.RawMessage `json:"data,omitempty"`
}

const clientBuffer = 32

// Client is one member of a room. Events arrive on C; a client that stops
// draining it loses messages instead of blocking the room.
type Client struct {
	ID   string
	Room string
	send chan Event
}

// C is the client's receive channel.
func (c *Client) C() <-chan Event { return c.send }

// Hub keeps the room membership. All state is behind one mutex; fan-out
// itself is non-blocking sends.
type Hub struct {
	mu    sync.RWMutex
	rooms map[string]map[*Client]struct{}
}

// NewHub creates an empty hub.
func NewHub() *Hub {
	return &Hub{rooms: make(map[string]map[*Client]struct{})}
}

// Join registers a new client in the room and announces it to the others.
func (h *Hub) Join(room string) *Client {
	c := &Client{
		ID:   uuid.NewString(),
		Room: room,
		send: make(chan Event, clientBuffer),
	}

	h.mu.Lock()
	members, ok := h.rooms[room]
	if !ok {
		members = make(map[*Client]struct{})
		h.rooms[room] = members
	}
	members[c] = struct{}{}
	h.mu.Unlock()

	h.Broadcast(c, Event{Type: EventPlayerJoined, Room: room, Player: c.ID})
	return c
}

// Leave removes the client and announces its departure. Safe to call more
// than once.
func (h *Hub) Leave(c *Client) {
	h.mu.Lock()
	members, ok := h.rooms[c.Room]
	if ok {
		if _, present := members[c]; !present {
			ok = false
		}
		delete(members, c)
		if len(members) == 0 {
			delete(h.rooms, c.Room)
		}
	}
	h.mu.Unlock()

	if ok {
		h.Broadcast(c, Event{Type: EventPlayerLeft, Room: c.Room, Player: c.ID})
	}
}

// Broadcast fans an event out to every room member except the sender.
// Clients self-apply their own emitted state, so the sender is excluded.
func (h *Hub) Broadcast(from *Client, ev Event) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for member := range h.rooms[ev.Room] {
		if member == from {
			continue
		}
		select {
		case member.send <- ev:
		default:
			// Full buffer: drop, best effort.
		}
	}
}

// RoomSize reports the current membership of a room.
func (h *Hub) RoomSize(room string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rooms[room])
}
