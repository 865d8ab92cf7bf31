package ws

import (
	"context"
	"encoding/json"
	"strings"
	"sync"
	"time"
)

// Hub fans progress events out to the websocket connections of one user.
// A user may have several tabs open; each gets every event.
type Hub struct {
	clients    map[*Client]bool
	users      map[string]map[*Client]bool
	broadcast  chan Event
	register   chan *Client
	unregister chan *Client
	mu         sync.RWMutex
}

func NewHub() *Hub {
	return &Hub{
		clients:    make(map[*Client]bool),
		users:      make(map[string]map[*Client]bool),
		broadcast:  make(chan Event, 256),
		register:   make(chan *Client),
		unregister: make(chan *Client),
	}
}

// Run dispatches until ctx is done, then closes every connection's queue.
func (h *Hub) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			h.closeAll()
			return
		case client := <-h.register:
			h.addClient(client)
		case client := <-h.unregister:
			h.removeClient(client)
		case event := <-h.broadcast:
			h.deliver(event)
		}
	}
}

func userKey(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func (h *Hub) addClient(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.clients[client] = true

	key := userKey(client.userEmail)
	if h.users[key] == nil {
		h.users[key] = make(map[*Client]bool)
	}
	h.users[key][client] = true
}

func (h *Hub) removeClient(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.dropLocked(client)
}

// dropLocked forgets client and closes its queue once. h.mu must be held.
func (h *Hub) dropLocked(client *Client) {
	if _, ok := h.clients[client]; !ok {
		return
	}
	key := userKey(client.userEmail)
	delete(h.clients, client)
	delete(h.users[key], client)
	if len(h.users[key]) == 0 {
		delete(h.users, key)
	}
	close(client.send)
}

func (h *Hub) closeAll() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for client := range h.clients {
		h.dropLocked(client)
	}
}

// deliver queues event on every connection of its user. Connections that
// cannot keep up are dropped.
func (h *Hub) deliver(event Event) {
	message, err := json.Marshal(event)
	if err != nil {
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	for client := range h.users[userKey(event.UserEmail)] {
		select {
		case client.send <- message:
		default:
			h.dropLocked(client)
		}
	}
}

// Send queues an event for userEmail. It never blocks; events are dropped
// when the hub is saturated.
func (h *Hub) Send(userEmail string, eventType EventType, data any) {
	event := Event{
		UserEmail: userEmail,
		Type:      eventType,
		Data:      data,
		Timestamp: time.Now(),
	}

	select {
	case h.broadcast <- event:
	default:
	}
}

func (h *Hub) ConnectedClients(userEmail string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()

	return len(h.users[userKey(userEmail)])
}
