package realtime

import (
	"log"
	"sync"
)

// Event is a named payload pushed to connected clients.
type Event struct {
	Name    string      `json:"event"`
	Payload interface{} `json:"payload"`
}

// Registry is the room membership surface the rest of the application sees.
// Rooms are keyed by user ID; a user may hold several concurrent sessions.
type Registry interface {
	Join(client *Client)
	Leave(client *Client)
	EmitToUser(userID uint, event string, payload interface{})
}

// Hub tracks which sessions belong to which user and relays events to them.
// Membership is in-memory only; it is rebuilt by clients reconnecting after
// a restart. The durable notification row remains the system of record, so
// an event emitted to a user with no sessions is simply dropped.
type Hub struct {
	mu         sync.RWMutex
	rooms      map[uint]map[*Client]struct{}
	register   chan *Client
	unregister chan *Client
}

// NewHub creates an empty hub. Run must be started before clients connect.
func NewHub() *Hub {
	return &Hub{
		rooms:      make(map[uint]map[*Client]struct{}),
		register:   make(chan *Client),
		unregister: make(chan *Client),
	}
}

// Run processes join/leave traffic until the process exits
func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.add(client)
		case client := <-h.unregister:
			h.remove(client)
		}
	}
}

// Join registers a session under its user's room
func (h *Hub) Join(client *Client) {
	h.register <- client
}

// Leave removes a session; the last session of a user removes the room
func (h *Hub) Leave(client *Client) {
	h.unregister <- client
}

func (h *Hub) add(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	sessions, ok := h.rooms[client.UserID]
	if !ok {
		sessions = make(map[*Client]struct{})
		h.rooms[client.UserID] = sessions
	}
	sessions[client] = struct{}{}
	log.Printf("realtime: user %d joined, %d session(s)", client.UserID, len(sessions))
}

func (h *Hub) remove(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	sessions, ok := h.rooms[client.UserID]
	if !ok {
		return
	}
	if _, ok := sessions[client]; !ok {
		return
	}
	delete(sessions, client)
	close(client.send)
	if len(sessions) == 0 {
		delete(h.rooms, client.UserID)
	}
	log.Printf("realtime: user %d left, %d session(s)", client.UserID, len(sessions))
}

// EmitToUser delivers an event to every session of the user. A session that
// cannot keep up has the event dropped rather than blocking the caller.
func (h *Hub) EmitToUser(userID uint, event string, payload interface{}) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for client := range h.rooms[userID] {
		select {
		case client.send <- Event{Name: event, Payload: payload}:
		default:
			log.Printf("realtime: dropping %q for slow session of user %d", event, userID)
		}
	}
}

// SessionCount reports the number of live sessions for a user
func (h *Hub) SessionCount(userID uint) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rooms[userID])
}
