package domain

import (
	"errors"
	"strings"
)

const (
	NotificationTypeSystem       = "system"
	NotificationTypeLeave        = "leave"
	NotificationTypeAnnouncement = "announcement"
	NotificationTypeTask         = "task"
	NotificationTypeTicket       = "ticket"
	NotificationTypeAttendance   = "attendance"
)

var (
	ErrValidation = errors.New("validation failed")
	ErrNotFound   = errors.New("notification not found")
)

// NormalizeType returns the stored type for a notification. Types are free
// form; an empty type falls back to system.
func NormalizeType(value string) string {
	if value == "" {
		return NotificationTypeSystem
	}
	return value
}

const userRoomPrefix = "user_"

// RoomForUser is the socket room every connection of a user joins.
func RoomForUser(userID string) string {
	return userRoomPrefix + userID
}

// UserForRoom reverses RoomForUser.
func UserForRoom(room string) (string, bool) {
	userID, ok := strings.CutPrefix(room, userRoomPrefix)
	return userID, ok && userID != ""
}
