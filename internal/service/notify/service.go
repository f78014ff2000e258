package notify

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/sourcegraph/conc"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"hr_notify/internal/domain"
	"hr_notify/internal/metrics"
	"hr_notify/internal/model"
	"hr_notify/internal/repository"
)

// LivePublisher reaches the recipient's open SSE streams and sockets,
// either in this process or through the broker.
type LivePublisher interface {
	Publish(ctx context.Context, notification model.Notification) error
}

// PushDeliverer sends a notification to the recipient's browser push
// subscriptions.
type PushDeliverer interface {
	Deliver(ctx context.Context, notification model.Notification) (int, error)
}

type NotifyInput struct {
	RecipientID string
	SenderID    string
	Type        string
	Message     string
	Link        string
}

type Service struct {
	store   repository.NotificationRepository
	subs    repository.PushSubscriptionRepository
	live    LivePublisher
	push    PushDeliverer
	log     *zap.Logger
	metrics *metrics.Metrics
	tracer  trace.Tracer
}

func NewService(
	store repository.NotificationRepository,
	subs repository.PushSubscriptionRepository,
	live LivePublisher,
	push PushDeliverer,
	logger *zap.Logger,
	m *metrics.Metrics,
) *Service {
	return &Service{
		store:   store,
		subs:    subs,
		live:    live,
		push:    push,
		log:     logger,
		metrics: m,
		tracer:  otel.Tracer("notify"),
	}
}

// Validate reports the first missing required field as domain.ErrValidation.
func Validate(in NotifyInput) error {
	if strings.TrimSpace(in.RecipientID) == "" {
		return fmt.Errorf("%w: recipientId is required", domain.ErrValidation)
	}
	if strings.TrimSpace(in.Message) == "" {
		return fmt.Errorf("%w: message is required", domain.ErrValidation)
	}
	return nil
}

// Notify persists the notification and then delivers it on every channel.
// Only validation and persistence errors are returned; delivery problems
// are logged and counted.
func (s *Service) Notify(ctx context.Context, in NotifyInput) (model.Notification, error) {
	ctx, span := s.tracer.Start(ctx, "notify.Notify")
	defer span.End()

	if err := Validate(in); err != nil {
		span.SetStatus(codes.Error, err.Error())
		return model.Notification{}, err
	}

	created, err := s.store.CreateNotification(ctx, model.Notification{
		RecipientID: in.RecipientID,
		SenderID:    in.SenderID,
		Type:        domain.NormalizeType(in.Type),
		Message:     in.Message,
		Link:        in.Link,
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "persist failed")
		s.log.Error("store create notification failed",
			zap.String("recipient_id", in.RecipientID),
			zap.String("type", in.Type),
			zap.Error(err),
		)
		return model.Notification{}, err
	}
	s.metrics.NotificationsCreated.Inc()
	span.SetAttributes(
		attribute.Int64("notification.id", created.ID),
		attribute.String("notification.recipient_id", created.RecipientID),
		attribute.String("notification.type", created.Type),
	)

	s.deliver(context.WithoutCancel(ctx), created)
	return created, nil
}

// deliver runs the live and push channels side by side and waits for both.
// The caller going away does not abort attempts already started.
func (s *Service) deliver(ctx context.Context, notification model.Notification) {
	fields := []zap.Field{
		zap.String("recipient_id", notification.RecipientID),
		zap.Int64("notification_id", notification.ID),
	}

	var wg conc.WaitGroup
	wg.Go(func() {
		if err := s.live.Publish(ctx, notification); err != nil {
			s.log.Error("live delivery failed", append(fields, zap.String("channel", "live"), zap.Error(err))...)
		}
	})
	wg.Go(func() {
		sent, err := s.push.Deliver(ctx, notification)
		if err != nil {
			s.log.Error("push delivery failed", append(fields, zap.String("channel", metrics.ChannelPush), zap.Error(err))...)
			return
		}
		s.log.Debug("push delivered", append(fields, zap.Int("sent", sent))...)
	})
	if r := wg.WaitAndRecover(); r != nil {
		s.log.Error("delivery panicked", append(fields, zap.String("panic", r.String()))...)
	}
}

func (s *Service) List(ctx context.Context, recipientID string, limit int) ([]model.Notification, error) {
	if strings.TrimSpace(recipientID) == "" {
		return nil, fmt.Errorf("%w: userId is required", domain.ErrValidation)
	}
	list, err := s.store.ListNotifications(ctx, recipientID, limit)
	if err != nil {
		s.log.Error("store list notifications failed", zap.String("recipient_id", recipientID), zap.Int("limit", limit), zap.Error(err))
		return nil, err
	}
	return list, nil
}

func (s *Service) MarkRead(ctx context.Context, id int64, recipientID string) (model.Notification, error) {
	if strings.TrimSpace(recipientID) == "" {
		return model.Notification{}, fmt.Errorf("%w: userId is required", domain.ErrValidation)
	}
	updated, err := s.store.MarkNotificationRead(ctx, id, recipientID)
	if err != nil {
		s.logStoreError("store mark read failed", err, zap.Int64("notification_id", id), zap.String("recipient_id", recipientID))
		return model.Notification{}, err
	}
	return updated, nil
}

func (s *Service) MarkAllRead(ctx context.Context, recipientID string) (int64, error) {
	if strings.TrimSpace(recipientID) == "" {
		return 0, fmt.Errorf("%w: userId is required", domain.ErrValidation)
	}
	n, err := s.store.MarkAllNotificationsRead(ctx, recipientID)
	if err != nil {
		s.log.Error("store mark all read failed", zap.String("recipient_id", recipientID), zap.Error(err))
		return 0, err
	}
	return n, nil
}

func (s *Service) Delete(ctx context.Context, id int64) error {
	if err := s.store.DeleteNotification(ctx, id); err != nil {
		s.logStoreError("store delete notification failed", err, zap.Int64("notification_id", id))
		return err
	}
	return nil
}

// SubscribePush stores the browser subscription of a user, replacing any
// previous one.
func (s *Service) SubscribePush(ctx context.Context, sub model.PushSubscription) (model.PushSubscription, error) {
	switch {
	case strings.TrimSpace(sub.UserID) == "":
		return model.PushSubscription{}, fmt.Errorf("%w: userId is required", domain.ErrValidation)
	case strings.TrimSpace(sub.Endpoint) == "":
		return model.PushSubscription{}, fmt.Errorf("%w: subscription.endpoint is required", domain.ErrValidation)
	case sub.Keys.P256dh == "" || sub.Keys.Auth == "":
		return model.PushSubscription{}, fmt.Errorf("%w: subscription.keys are required", domain.ErrValidation)
	}
	saved, err := s.subs.SavePushSubscription(ctx, sub)
	if err != nil {
		s.log.Error("store save push subscription failed", zap.String("user_id", sub.UserID), zap.String("endpoint", sub.Endpoint), zap.Error(err))
		return model.PushSubscription{}, err
	}
	return saved, nil
}

// not found is expected traffic and only logged at debug
func (s *Service) logStoreError(msg string, err error, fields ...zap.Field) {
	fields = append(fields, zap.Error(err))
	if errors.Is(err, domain.ErrNotFound) {
		s.log.Debug(msg, fields...)
		return
	}
	s.log.Error(msg, fields...)
}
