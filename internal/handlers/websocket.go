package handlers

import (
	"encoding/json"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"

	"siteulation/internal/relay"
)

// WebSocketUpgrade rejects plain HTTP requests on the socket route.
func (h *Handler) WebSocketUpgrade(c *fiber.Ctx) error {
	if websocket.IsWebSocketUpgrade(c) {
		return c.Next()
	}
	return fiber.ErrUpgradeRequired
}

// HandleWebSocket runs one relay connection. The first message must be a
// join carrying the room id; after that, state_update and chat_message
// events fan out to the other room members.
func (h *Handler) HandleWebSocket(conn *websocket.Conn) {
	defer conn.Close()

	_, msg, err := conn.ReadMessage()
	if err != nil {
		return
	}

	var join relay.Event
	if err := json.Unmarshal(msg, &join); err != nil || join.Type != relay.EventJoin || join.Room == "" {
		_ = conn.WriteJSON(fiber.Map{"error": "expected a join event with a room"})
		return
	}

	client := h.hub.Join(join.Room)
	defer h.hub.Leave(client)

	h.log.Debug().Str("room", join.Room).Str("player", client.ID).Msg("relay join")

	// Ack with the assigned player id.
	if err := conn.WriteJSON(relay.Event{Type: relay.EventJoin, Room: join.Room, Player: client.ID}); err != nil {
		return
	}

	done := make(chan struct{})
	defer close(done)

	// Write pump: room events out to this client.
	go func() {
		for {
			select {
			case ev := <-client.C():
				if err := conn.WriteJSON(ev); err != nil {
					return
				}
			case <-done:
				return
			}
		}
	}()

	// Read pump: client events into the room.
	for {
		_, raw, err := conn.ReadMessage()
		if err != nil {
			return
		}

		var ev relay.Event
		if err := json.Unmarshal(raw, &ev); err != nil {
			continue
		}

		switch ev.Type {
		case relay.EventStateUpdate, relay.EventChatMessage:
			// Clients only ever speak for the room they joined.
			ev.Room = client.Room
			ev.Player = client.ID
			h.hub.Broadcast(client, ev)
		case relay.EventLeave:
			return
		}
	}
}
