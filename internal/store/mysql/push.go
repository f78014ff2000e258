package mysql

import (
	"context"
	"time"

	"go.uber.org/zap"
	"hr_notify/internal/db"
	"hr_notify/internal/model"
)

func (s *Store) SavePushSubscription(ctx context.Context, sub model.PushSubscription) (model.PushSubscription, error) {
	now := time.Now().UTC()
	if err := s.queries.UpsertPushSubscription(ctx, db.UpsertPushSubscriptionParams{
		UserID:    sub.UserID,
		Endpoint:  sub.Endpoint,
		P256dh:    sub.Keys.P256dh,
		Auth:      sub.Keys.Auth,
		CreatedAt: now,
		UpdatedAt: now,
	}); err != nil {
		s.log.Error("sql upsert push subscription failed", zap.String("user_id", sub.UserID), zap.Error(err))
		return model.PushSubscription{}, err
	}

	stored, err := s.ListPushSubscriptions(ctx, sub.UserID)
	if err != nil {
		return model.PushSubscription{}, err
	}
	if len(stored) == 0 {
		sub.CreatedAt, sub.UpdatedAt = now, now
		return sub, nil
	}
	return stored[0], nil
}

func (s *Store) ListPushSubscriptions(ctx context.Context, userID string) ([]model.PushSubscription, error) {
	rows, err := s.queries.ListPushSubscriptionsByUser(ctx, userID)
	if err != nil {
		s.log.Error("sql list push subscriptions failed", zap.String("user_id", userID), zap.Error(err))
		return nil, err
	}
	result := make([]model.PushSubscription, 0, len(rows))
	for _, row := range rows {
		result = append(result, model.PushSubscription{
			UserID:    row.UserID,
			Endpoint:  row.Endpoint,
			Keys:      model.PushKeys{P256dh: row.P256dh, Auth: row.Auth},
			CreatedAt: row.CreatedAt,
			UpdatedAt: row.UpdatedAt,
		})
	}
	return result, nil
}
