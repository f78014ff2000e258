package memory

import (
	"context"
	"time"

	"go.uber.org/zap"
	"hr_notify/internal/model"
)

func (s *Store) SavePushSubscription(_ context.Context, sub model.PushSubscription) (model.PushSubscription, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now().UTC()
	if prev, ok := s.pushes[sub.UserID]; ok {
		sub.CreatedAt = prev.CreatedAt
		if prev.Endpoint != sub.Endpoint {
			s.log.Info("push subscription replaced",
				zap.String("user_id", sub.UserID),
				zap.String("previous_endpoint", prev.Endpoint),
			)
		}
	} else {
		sub.CreatedAt = now
	}
	sub.UpdatedAt = now
	s.pushes[sub.UserID] = sub
	return sub, nil
}

func (s *Store) ListPushSubscriptions(_ context.Context, userID string) ([]model.PushSubscription, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sub, ok := s.pushes[userID]
	if !ok {
		return nil, nil
	}
	return []model.PushSubscription{sub}, nil
}
