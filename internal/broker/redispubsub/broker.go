package redispubsub

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"hr_notify/internal/broker"
	"hr_notify/internal/config"
	"hr_notify/internal/metrics"
	"hr_notify/internal/model"
)

const (
	resyncInterval = 30 * time.Second
	retryMin       = 500 * time.Millisecond
	retryMax       = 30 * time.Second
)

// Broker fans notifications out across server instances. Each instance
// subscribes only to the channels of users with a connection open on it and
// hands what it receives to its own Local deliverer, so a recipient is
// reached wherever its connections live.
type Broker struct {
	client  *redis.Client
	prefix  string
	local   *broker.Local
	log     *zap.Logger
	metrics *metrics.Metrics

	retryMin time.Duration
	retryMax time.Duration
}

// NewBroker returns local itself when REDIS_ADDR is unset.
func NewBroker(cfg *config.Config, local *broker.Local, logger *zap.Logger, m *metrics.Metrics) broker.Broker {
	if cfg.RedisAddr == "" {
		return local
	}
	return &Broker{
		client: redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		}),
		prefix:   cfg.RedisChannelPrefix,
		local:    local,
		log:      logger,
		metrics:  m,
		retryMin: retryMin,
		retryMax: retryMax,
	}
}

func (b *Broker) Channel(recipientID string) string {
	return b.prefix + recipientID
}

// Publish hands the notification to Redis for whichever instance holds the
// recipient's connections. When Redis cannot take it, the connections on
// this instance still get it and the failure is only counted.
func (b *Broker) Publish(ctx context.Context, notification model.Notification) error {
	data, err := json.Marshal(notification)
	if err == nil {
		err = b.client.Publish(ctx, b.Channel(notification.RecipientID), data).Err()
	}
	if err != nil {
		b.metrics.Delivery(metrics.ChannelBroker, metrics.OutcomeFailed)
		b.log.Warn("redis publish failed, delivering locally",
			zap.String("recipient_id", notification.RecipientID),
			zap.Int64("notification_id", notification.ID),
			zap.Error(err),
		)
		b.local.Deliver(notification)
		return nil
	}
	b.metrics.Delivery(metrics.ChannelBroker, metrics.OutcomeDelivered)
	return nil
}

// Run keeps the subscription set in line with the users connected to this
// instance until ctx is done. Connection failures are retried with backoff;
// every new session subscribes to the full set again.
func (b *Broker) Run(ctx context.Context) error {
	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = b.retryMin
	bo.MaxInterval = b.retryMax
	bo.MaxElapsedTime = 0

	err := backoff.RetryNotify(func() error {
		return b.session(ctx, bo)
	}, backoff.WithContext(bo, ctx), func(err error, wait time.Duration) {
		b.log.Warn("redis broker unavailable, retrying", zap.Duration("retry_in", wait), zap.Error(err))
	})
	if ctx.Err() != nil {
		return nil
	}
	return err
}

// session runs one subscription connection. It returns nil only when ctx is
// done.
func (b *Broker) session(ctx context.Context, bo backoff.BackOff) error {
	if err := b.client.Ping(ctx).Err(); err != nil {
		if ctx.Err() != nil {
			return nil
		}
		return fmt.Errorf("redis ping: %w", err)
	}

	pubsub := b.client.Subscribe(ctx)
	defer func() { _ = pubsub.Close() }()

	subscribed := make(map[string]struct{})
	if err := b.sync(ctx, pubsub, subscribed); err != nil {
		if ctx.Err() != nil {
			return nil
		}
		return err
	}
	bo.Reset()
	b.log.Info("Redis broker subscribed", zap.String("prefix", b.prefix), zap.Int("users", len(subscribed)))

	resync := time.NewTicker(resyncInterval)
	defer resync.Stop()

	ch := pubsub.Channel()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-b.local.Changed():
			b.resync(ctx, pubsub, subscribed)
		case <-resync.C:
			b.resync(ctx, pubsub, subscribed)
		case msg, ok := <-ch:
			if !ok {
				return errors.New("redis subscription closed")
			}
			b.handle(msg)
		}
	}
}

// resync is sync for a live session: the client reconnects the subscription
// by itself, so a failed command is logged and retried on the next tick.
func (b *Broker) resync(ctx context.Context, pubsub *redis.PubSub, subscribed map[string]struct{}) {
	if err := b.sync(ctx, pubsub, subscribed); err != nil && ctx.Err() == nil {
		b.log.Warn("redis subscription sync failed", zap.Error(err))
	}
}

// sync subscribes to newly connected users and drops users that left.
// subscribed holds user ids and is only updated for commands that
// succeeded.
func (b *Broker) sync(ctx context.Context, pubsub *redis.PubSub, subscribed map[string]struct{}) error {
	users := b.local.Users()
	wanted := make(map[string]struct{}, len(users))
	var join []string
	for _, userID := range users {
		wanted[userID] = struct{}{}
		if _, ok := subscribed[userID]; !ok {
			join = append(join, userID)
		}
	}
	var leave []string
	for userID := range subscribed {
		if _, ok := wanted[userID]; !ok {
			leave = append(leave, userID)
		}
	}

	var errs []error
	if len(join) > 0 {
		if err := pubsub.Subscribe(ctx, b.channels(join)...); err != nil {
			errs = append(errs, fmt.Errorf("redis subscribe %v: %w", join, err))
		} else {
			for _, userID := range join {
				subscribed[userID] = struct{}{}
			}
		}
	}
	if len(leave) > 0 {
		if err := pubsub.Unsubscribe(ctx, b.channels(leave)...); err != nil {
			errs = append(errs, fmt.Errorf("redis unsubscribe %v: %w", leave, err))
		} else {
			for _, userID := range leave {
				delete(subscribed, userID)
			}
		}
	}
	return errors.Join(errs...)
}

func (b *Broker) channels(userIDs []string) []string {
	out := make([]string, len(userIDs))
	for i, userID := range userIDs {
		out[i] = b.Channel(userID)
	}
	return out
}

func (b *Broker) handle(msg *redis.Message) {
	var notification model.Notification
	if err := json.Unmarshal([]byte(msg.Payload), &notification); err != nil {
		b.log.Error("redis broker invalid json", zap.String("channel", msg.Channel), zap.Error(err))
		return
	}
	if recipient := strings.TrimPrefix(msg.Channel, b.prefix); recipient != notification.RecipientID {
		b.log.Warn("redis broker channel does not match recipient",
			zap.String("channel", msg.Channel),
			zap.String("recipient_id", notification.RecipientID),
		)
		return
	}
	b.local.Deliver(notification)
}

func (b *Broker) Close() error {
	return b.client.Close()
}
