package repository

import (
	"context"

	"hr_notify/internal/model"
)

// MaxListLimit caps ListNotifications. A limit of zero or less, or above
// the cap, returns at most MaxListLimit records.
const MaxListLimit = 500

type NotificationRepository interface {
	CreateNotification(ctx context.Context, notification model.Notification) (model.Notification, error)
	// ListNotifications returns the newest first, capped by MaxListLimit.
	ListNotifications(ctx context.Context, recipientID string, limit int) ([]model.Notification, error)
	// MarkNotificationRead only touches a notification owned by recipientID
	// and returns domain.ErrNotFound otherwise.
	MarkNotificationRead(ctx context.Context, id int64, recipientID string) (model.Notification, error)
	MarkAllNotificationsRead(ctx context.Context, recipientID string) (int64, error)
	DeleteNotification(ctx context.Context, id int64) error
}
