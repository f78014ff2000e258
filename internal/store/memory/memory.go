package memory

import (
	"sync"

	"go.uber.org/zap"
	"hr_notify/internal/model"
)

// Store keeps notifications and push subscriptions in process memory. It is
// used when no MySQL DSN is configured and in tests.
type Store struct {
	mu      sync.Mutex
	nextID  int64
	records []model.Notification
	pushes  map[string]model.PushSubscription
	log     *zap.Logger
}

func New(logger *zap.Logger) *Store {
	return &Store{
		nextID: 1,
		pushes: make(map[string]model.PushSubscription),
		log:    logger,
	}
}
