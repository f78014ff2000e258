package mysql

import (
	"database/sql"

	"go.uber.org/zap"
	"hr_notify/internal/db"
	"hr_notify/internal/model"
)

type Store struct {
	queries *db.Queries
	log     *zap.Logger
}

func New(queries *db.Queries, logger *zap.Logger) *Store {
	return &Store{queries: queries, log: logger}
}

func nullString(v string) sql.NullString {
	return sql.NullString{String: v, Valid: v != ""}
}

func toNotification(row db.Notification) model.Notification {
	return model.Notification{
		ID:          row.ID,
		RecipientID: row.RecipientID,
		SenderID:    row.SenderID.String,
		Type:        row.Type,
		Message:     row.Message,
		Link:        row.Link.String,
		Read:        row.IsRead,
		CreatedAt:   row.CreatedAt,
	}
}
