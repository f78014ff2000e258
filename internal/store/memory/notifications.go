package memory

import (
	"context"
	"time"

	"hr_notify/internal/domain"
	"hr_notify/internal/model"
	"hr_notify/internal/repository"
)

func (s *Store) CreateNotification(_ context.Context, notification model.Notification) (model.Notification, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	notification.ID = s.nextID
	s.nextID++
	if notification.CreatedAt.IsZero() {
		notification.CreatedAt = time.Now().UTC()
	}
	s.records = append(s.records, notification)
	return notification, nil
}

func (s *Store) ListNotifications(_ context.Context, recipientID string, limit int) ([]model.Notification, error) {
	if limit <= 0 || limit > repository.MaxListLimit {
		limit = repository.MaxListLimit
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	var result []model.Notification
	for i := len(s.records) - 1; i >= 0; i-- {
		record := s.records[i]
		if record.RecipientID != recipientID {
			continue
		}
		result = append(result, record)
		if len(result) >= limit {
			break
		}
	}
	return result, nil
}

func (s *Store) MarkNotificationRead(_ context.Context, id int64, recipientID string) (model.Notification, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.records {
		if s.records[i].ID != id || s.records[i].RecipientID != recipientID {
			continue
		}
		s.records[i].Read = true
		return s.records[i], nil
	}
	return model.Notification{}, domain.ErrNotFound
}

func (s *Store) MarkAllNotificationsRead(_ context.Context, recipientID string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var updated int64
	for i := range s.records {
		if s.records[i].RecipientID == recipientID && !s.records[i].Read {
			s.records[i].Read = true
			updated++
		}
	}
	return updated, nil
}

func (s *Store) DeleteNotification(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.records {
		if s.records[i].ID == id {
			s.records = append(s.records[:i], s.records[i+1:]...)
			return nil
		}
	}
	return domain.ErrNotFound
}
