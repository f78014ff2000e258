package sse

import (
	"context"
	"sync"

	"hr_notify/internal/model"
)

const clientBuffer = 16

// Client is one open event stream. The stream handler drains Ch.
type Client struct {
	UserID string
	Ch     chan Event
}

func NewClient(userID string) *Client {
	return &Client{UserID: userID, Ch: make(chan Event, clientBuffer)}
}

// Hub maps a user id to the clients that user currently has open. It lives
// for the whole process: created at startup, closed when Run's context ends.
type Hub struct {
	mu       sync.RWMutex
	users    map[string][]*Client
	presence func(userID string, present bool)

	done      chan struct{}
	closeOnce sync.Once
}

func NewHub() *Hub {
	return &Hub{
		users: make(map[string][]*Client),
		done:  make(chan struct{}),
	}
}

// OnPresence installs fn to be told when a user gets a first client and
// when the last one goes. fn runs under the hub lock and must not call back
// into the hub. Install it before the hub is shared.
func (h *Hub) OnPresence(fn func(userID string, present bool)) {
	h.presence = fn
}

// Register adds client to its user's set. Registering the same client twice
// is a no-op.
func (h *Hub) Register(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for _, c := range h.users[client.UserID] {
		if c == client {
			return
		}
	}
	h.users[client.UserID] = append(h.users[client.UserID], client)
	if len(h.users[client.UserID]) == 1 && h.presence != nil {
		h.presence(client.UserID, true)
	}
}

// Unregister removes client; unknown clients and users are ignored.
func (h *Hub) Unregister(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	clients := h.users[client.UserID]
	for i, c := range clients {
		if c != client {
			continue
		}
		rest := make([]*Client, 0, len(clients)-1)
		rest = append(rest, clients[:i]...)
		rest = append(rest, clients[i+1:]...)
		if len(rest) == 0 {
			delete(h.users, client.UserID)
			if h.presence != nil {
				h.presence(client.UserID, false)
			}
		} else {
			h.users[client.UserID] = rest
		}
		return
	}
}

// Publish hands a notification event to every client of userID in
// registration order. delivered counts clients that accepted it; dropped
// counts clients whose buffer was full and who miss this event. A user
// without clients is not an error.
func (h *Hub) Publish(userID string, notification model.Notification) (delivered, dropped int) {
	h.mu.RLock()
	clients := h.users[userID]
	h.mu.RUnlock()

	// Unregister never mutates a published slice in place, so clients is a
	// stable snapshot.
	event := NotificationEvent(notification)
	for _, client := range clients {
		select {
		case client.Ch <- event:
			delivered++
		default:
			dropped++
		}
	}
	return delivered, dropped
}

// Subscribers reports how many clients userID has open.
func (h *Hub) Subscribers(userID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.users[userID])
}

// Run blocks until ctx is done and then closes the hub.
func (h *Hub) Run(ctx context.Context) {
	<-ctx.Done()
	h.Close()
}

// Close signals every open stream to finish. Safe to call more than once.
func (h *Hub) Close() {
	h.closeOnce.Do(func() {
		close(h.done)
	})
}

func (h *Hub) Done() <-chan struct{} {
	return h.done
}
