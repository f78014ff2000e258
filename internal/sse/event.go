package sse

import (
	"encoding/json"
	"fmt"
	"io"
	"time"

	"hr_notify/internal/model"
)

const (
	EventPing         = "ping"
	EventNotification = "notification"
)

// Event is one frame on the stream. Notification is nil for pings.
type Event struct {
	Type         string
	Notification *model.Notification
}

func PingEvent() Event {
	return Event{Type: EventPing}
}

func NotificationEvent(n model.Notification) Event {
	return Event{Type: EventNotification, Notification: &n}
}

// notificationFrame flattens the record next to the event type. The record's
// own type travels as category so it cannot shadow the event type.
type notificationFrame struct {
	Type        string    `json:"type"`
	ID          int64     `json:"id"`
	RecipientID string    `json:"recipient_id"`
	SenderID    string    `json:"sender_id,omitempty"`
	Category    string    `json:"category"`
	Message     string    `json:"message"`
	Link        string    `json:"link,omitempty"`
	Read        bool      `json:"read"`
	CreatedAt   time.Time `json:"created_at"`
}

func (e Event) MarshalJSON() ([]byte, error) {
	if e.Notification == nil {
		return json.Marshal(struct {
			Type string `json:"type"`
		}{Type: e.Type})
	}
	n := e.Notification
	return json.Marshal(notificationFrame{
		Type:        e.Type,
		ID:          n.ID,
		RecipientID: n.RecipientID,
		SenderID:    n.SenderID,
		Category:    n.Type,
		Message:     n.Message,
		Link:        n.Link,
		Read:        n.Read,
		CreatedAt:   n.CreatedAt,
	})
}

// WriteEvent writes e as a single "data: <json>\n\n" frame.
func WriteEvent(w io.Writer, e Event) error {
	payload, err := json.Marshal(e)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(w, "data: %s\n\n", payload)
	return err
}
