package push

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"go.uber.org/zap"
	"hr_notify/internal/config"
	"hr_notify/internal/metrics"
	"hr_notify/internal/model"
	"hr_notify/internal/repository"
)

// Payload is what the service worker receives.
type Payload struct {
	Title   string `json:"title"`
	Message string `json:"message"`
	URL     string `json:"url"`
}

type Sender struct {
	subs      repository.PushSubscriptionRepository
	transport Transport
	timeout   time.Duration
	title     string
	log       *zap.Logger
	metrics   *metrics.Metrics
}

func NewSender(cfg *config.Config, subs repository.PushSubscriptionRepository, transport Transport, logger *zap.Logger, m *metrics.Metrics) *Sender {
	return &Sender{
		subs:      subs,
		transport: transport,
		timeout:   cfg.PushTimeout,
		title:     cfg.PushTitle,
		log:       logger,
		metrics:   m,
	}
}

// Deliver pushes notification to every subscription of its recipient and
// returns how many were accepted. Each subscription is attempted once with
// its own timeout; a failure is logged and does not stop the others.
func (s *Sender) Deliver(ctx context.Context, notification model.Notification) (int, error) {
	subs, err := s.subs.ListPushSubscriptions(ctx, notification.RecipientID)
	if err != nil {
		s.metrics.Delivery(metrics.ChannelPush, metrics.OutcomeFailed)
		return 0, err
	}
	if len(subs) == 0 {
		s.metrics.Delivery(metrics.ChannelPush, metrics.OutcomeNoTarget)
		return 0, nil
	}

	payload, err := json.Marshal(Payload{
		Title:   s.title,
		Message: notification.Message,
		URL:     notification.Link,
	})
	if err != nil {
		return 0, err
	}

	sent := 0
	for _, sub := range subs {
		if err := s.sendOne(ctx, payload, sub); err != nil {
			fields := []zap.Field{
				zap.String("user_id", sub.UserID),
				zap.String("endpoint", sub.Endpoint),
				zap.Int64("notification_id", notification.ID),
				zap.Error(err),
			}
			var statusErr *StatusError
			if errors.As(err, &statusErr) && statusErr.Expired() {
				s.log.Warn("push subscription expired", fields...)
			} else {
				s.log.Error("push delivery failed", fields...)
			}
			s.metrics.Delivery(metrics.ChannelPush, metrics.OutcomeFailed)
			continue
		}
		s.metrics.Delivery(metrics.ChannelPush, metrics.OutcomeDelivered)
		sent++
	}
	return sent, nil
}

func (s *Sender) sendOne(ctx context.Context, payload []byte, sub model.PushSubscription) error {
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}
	return s.transport.Send(ctx, payload, sub)
}
