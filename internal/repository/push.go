package repository

import (
	"context"

	"hr_notify/internal/model"
)

type PushSubscriptionRepository interface {
	// SavePushSubscription upserts by user id.
	SavePushSubscription(ctx context.Context, sub model.PushSubscription) (model.PushSubscription, error)
	ListPushSubscriptions(ctx context.Context, userID string) ([]model.PushSubscription, error)
}

// Store is implemented by every backend in internal/store.
type Store interface {
	NotificationRepository
	PushSubscriptionRepository
}
