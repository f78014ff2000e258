// Package queue carries notify requests that are accepted now and notified
// later by a consumer.
package queue

import "context"

const defaultRoutingPrefix = "notification"

// Consumer drains the notify queue until ctx ends or the broker connection
// is lost.
type Consumer interface {
	Start(ctx context.Context) error
}

type Publisher interface {
	Publish(ctx context.Context, payload []byte, routingKey string) error
}

// NotifyMessage is the body of a queued notify request. Field names match
// the JSON accepted by POST /notifications.
type NotifyMessage struct {
	RecipientID string `json:"recipientId"`
	SenderID    string `json:"senderId,omitempty"`
	Type        string `json:"type,omitempty"`
	Message     string `json:"message"`
	Link        string `json:"link,omitempty"`
}

// RoutingKey is "<prefix>.<type>", e.g. notification.leave. The type must
// already be normalized.
func RoutingKey(prefix, notificationType string) string {
	if prefix == "" {
		prefix = defaultRoutingPrefix
	}
	return prefix + "." + notificationType
}
