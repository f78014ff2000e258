package push

import (
	"context"
	"fmt"
	"io"
	"net/http"

	"github.com/SherClockHolmes/webpush-go"
	"go.uber.org/zap"
	"hr_notify/internal/config"
	"hr_notify/internal/model"
)

// Transport hands one encrypted payload to the push service behind a
// subscription endpoint.
type Transport interface {
	Send(ctx context.Context, payload []byte, sub model.PushSubscription) error
}

// StatusError is returned when the push service answers with a non-2xx code.
type StatusError struct {
	StatusCode int
	Endpoint   string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("push service returned %d for %s", e.StatusCode, e.Endpoint)
}

// Expired reports whether the push service no longer knows the endpoint.
func (e *StatusError) Expired() bool {
	return e.StatusCode == http.StatusNotFound || e.StatusCode == http.StatusGone
}

type WebPushTransport struct {
	publicKey  string
	privateKey string
	subject    string
	ttl        int
	client     *http.Client
}

// NewWebPushTransport uses the configured VAPID key pair. Without one a pair
// is generated for this process only. The private key is never logged, so
// subscriptions made against a generated pair stop working after a restart.
func NewWebPushTransport(cfg *config.Config, logger *zap.Logger) (*WebPushTransport, error) {
	publicKey, privateKey := cfg.VAPIDPublicKey, cfg.VAPIDPrivateKey
	if publicKey == "" || privateKey == "" {
		var err error
		privateKey, publicKey, err = webpush.GenerateVAPIDKeys()
		if err != nil {
			return nil, fmt.Errorf("generate vapid keys: %w", err)
		}
		logger.Warn("VAPID keys not configured, using a generated pair until restart; set VAPID_PUBLIC_KEY and VAPID_PRIVATE_KEY",
			zap.String("public_key", publicKey),
		)
	}
	return &WebPushTransport{
		publicKey:  publicKey,
		privateKey: privateKey,
		subject:    cfg.VAPIDSubject,
		ttl:        cfg.PushTTL,
		client:     &http.Client{Timeout: cfg.PushTimeout},
	}, nil
}

func (t *WebPushTransport) PublicKey() string {
	return t.publicKey
}

func (t *WebPushTransport) Send(ctx context.Context, payload []byte, sub model.PushSubscription) error {
	resp, err := webpush.SendNotificationWithContext(ctx, payload, &webpush.Subscription{
		Endpoint: sub.Endpoint,
		Keys: webpush.Keys{
			P256dh: sub.Keys.P256dh,
			Auth:   sub.Keys.Auth,
		},
	}, &webpush.Options{
		HTTPClient:      t.client,
		Subscriber:      t.subject,
		VAPIDPublicKey:  t.publicKey,
		VAPIDPrivateKey: t.privateKey,
		TTL:             t.ttl,
	})
	if err != nil {
		return fmt.Errorf("webpush send: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode >= http.StatusBadRequest {
		return &StatusError{StatusCode: resp.StatusCode, Endpoint: sub.Endpoint}
	}
	return nil
}
