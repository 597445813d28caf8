// Package realtime implements the websocket layer: an authenticated
// handshake before the protocol upgrade, a room registry, and the chat
// events that flow over established connections.
package realtime

import "sync"

// Hub tracks which clients are subscribed to which rooms. Rooms are
// plain strings: "chat:{id}" for conversations and "user:{id}" for the
// per-user notification channel every connection auto-joins.
type Hub struct {
	mu    sync.RWMutex
	rooms map[string]map[*Client]struct{}
}

func NewHub() *Hub {
	return &Hub{rooms: make(map[string]map[*Client]struct{})}
}

// Join subscribes the client to a room, creating the room on first use.
func (h *Hub) Join(room string, c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	members, ok := h.rooms[room]
	if !ok {
		members = make(map[*Client]struct{})
		h.rooms[room] = members
	}
	members[c] = struct{}{}
}

// Leave unsubscribes the client from a room and drops the room once
// empty.
func (h *Hub) Leave(room string, c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	members, ok := h.rooms[room]
	if !ok {
		return
	}
	delete(members, c)
	if len(members) == 0 {
		delete(h.rooms, room)
	}
}

// Remove detaches the client from every room it joined. Called once
// when the connection closes.
func (h *Hub) Remove(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for room, members := range h.rooms {
		if _, ok := members[c]; ok {
			delete(members, c)
			if len(members) == 0 {
				delete(h.rooms, room)
			}
		}
	}
}

// Broadcast queues a frame to every member of a room, optionally
// skipping one client (typically the sender). Slow clients whose send
// buffer is full are skipped rather than blocked on.
func (h *Hub) Broadcast(room string, frame []byte, except *Client) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for c := range h.rooms[room] {
		if c == except {
			continue
		}
		select {
		case c.send <- frame:
		default:
		}
	}
}
