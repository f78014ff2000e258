package mysql

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"go.uber.org/zap"
	"hr_notify/internal/db"
	"hr_notify/internal/domain"
	"hr_notify/internal/model"
	"hr_notify/internal/repository"
)

func (s *Store) CreateNotification(ctx context.Context, notification model.Notification) (model.Notification, error) {
	if notification.CreatedAt.IsZero() {
		notification.CreatedAt = time.Now().UTC()
	}
	result, err := s.queries.CreateNotification(ctx, db.CreateNotificationParams{
		RecipientID: notification.RecipientID,
		SenderID:    nullString(notification.SenderID),
		Type:        notification.Type,
		Message:     notification.Message,
		Link:        nullString(notification.Link),
		CreatedAt:   notification.CreatedAt,
	})
	if err != nil {
		s.log.Error("sql create notification failed",
			zap.String("recipient_id", notification.RecipientID),
			zap.String("type", notification.Type),
			zap.Error(err),
		)
		return model.Notification{}, err
	}
	id, err := result.LastInsertId()
	if err != nil {
		s.log.Error("sql last insert id failed", zap.Error(err))
		return model.Notification{}, err
	}
	notification.ID = id
	notification.Read = false
	return notification, nil
}

func (s *Store) ListNotifications(ctx context.Context, recipientID string, limit int) ([]model.Notification, error) {
	if limit <= 0 || limit > repository.MaxListLimit {
		limit = repository.MaxListLimit
	}
	rows, err := s.queries.ListNotificationsByRecipient(ctx, db.ListNotificationsByRecipientParams{
		RecipientID: recipientID,
		Limit:       int32(limit),
	})
	if err != nil {
		s.log.Error("sql list notifications failed", zap.String("recipient_id", recipientID), zap.Int("limit", limit), zap.Error(err))
		return nil, err
	}

	result := make([]model.Notification, 0, len(rows))
	for _, row := range rows {
		result = append(result, toNotification(row))
	}
	return result, nil
}

func (s *Store) MarkNotificationRead(ctx context.Context, id int64, recipientID string) (model.Notification, error) {
	row, err := s.queries.GetNotificationForRecipient(ctx, db.GetNotificationForRecipientParams{
		ID:          id,
		RecipientID: recipientID,
	})
	if errors.Is(err, sql.ErrNoRows) {
		return model.Notification{}, domain.ErrNotFound
	}
	if err != nil {
		s.log.Error("sql get notification failed", zap.Int64("notification_id", id), zap.Error(err))
		return model.Notification{}, err
	}
	if !row.IsRead {
		if err := s.queries.MarkNotificationRead(ctx, db.MarkNotificationReadParams{
			ID:          id,
			RecipientID: recipientID,
		}); err != nil {
			s.log.Error("sql mark notification read failed", zap.Int64("notification_id", id), zap.Error(err))
			return model.Notification{}, err
		}
		row.IsRead = true
	}
	return toNotification(row), nil
}

func (s *Store) MarkAllNotificationsRead(ctx context.Context, recipientID string) (int64, error) {
	n, err := s.queries.MarkAllNotificationsRead(ctx, recipientID)
	if err != nil {
		s.log.Error("sql mark all read failed", zap.String("recipient_id", recipientID), zap.Error(err))
		return 0, err
	}
	return n, nil
}

func (s *Store) DeleteNotification(ctx context.Context, id int64) error {
	n, err := s.queries.DeleteNotification(ctx, id)
	if err != nil {
		s.log.Error("sql delete notification failed", zap.Int64("notification_id", id), zap.Error(err))
		return err
	}
	if n == 0 {
		return domain.ErrNotFound
	}
	return nil
}
