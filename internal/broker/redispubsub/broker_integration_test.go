//go:build integration

package redispubsub

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
	"go.uber.org/zap"
	"hr_notify/internal/broker"
	"hr_notify/internal/config"
	"hr_notify/internal/metrics"
	"hr_notify/internal/model"
	"hr_notify/internal/realtime"
	"hr_notify/internal/sse"
)

func setupRedisContainer(t *testing.T, ctx context.Context) string {
	t.Helper()
	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "redis:7-alpine",
			ExposedPorts: []string{"6379/tcp"},
			WaitingFor:   wait.ForLog("Ready to accept connections").WithStartupTimeout(time.Minute),
		},
		Started: true,
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = container.Terminate(ctx) })

	host, err := container.Host(ctx)
	require.NoError(t, err)
	port, err := container.MappedPort(ctx, "6379/tcp")
	require.NoError(t, err)
	return host + ":" + port.Port()
}

func TestBrokerDeliversAcrossInstances(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	addr := setupRedisContainer(t, ctx)

	cfg := &config.Config{RedisAddr: addr, RedisChannelPrefix: "notifications:user:"}
	m := metrics.New()

	// Two instances: the recipient is connected to the second, the
	// notification is published from the first.
	newInstance := func() (*Broker, *sse.Hub) {
		hub := sse.NewHub()
		bus := realtime.NewBus(cfg, zap.NewNop(), m)
		t.Cleanup(bus.Close)
		b := NewBroker(cfg, broker.NewLocal(hub, bus, zap.NewNop(), m), zap.NewNop(), m).(*Broker)
		t.Cleanup(func() { _ = b.Close() })
		go func() { _ = b.Run(ctx) }()
		return b, hub
	}
	publisher, _ := newInstance()
	_, receiverHub := newInstance()

	client := sse.NewClient("42")
	receiverHub.Register(client)

	subscribers := func() int64 {
		counts, err := publisher.client.PubSubNumSub(ctx, publisher.Channel("42")).Result()
		require.NoError(t, err)
		return counts[publisher.Channel("42")]
	}
	// Only the instance holding the connection subscribes.
	require.Eventually(t, func() bool { return subscribers() == 1 }, 10*time.Second, 50*time.Millisecond)

	notification := model.Notification{ID: 9, RecipientID: "42", Type: "task", Message: "review due"}
	require.NoError(t, publisher.Publish(ctx, notification))
	select {
	case ev := <-client.Ch:
		require.Equal(t, int64(9), ev.Notification.ID)
		require.Equal(t, "review due", ev.Notification.Message)
	case <-time.After(5 * time.Second):
		t.Fatal("notification did not cross instances")
	}

	receiverHub.Unregister(client)
	require.Eventually(t, func() bool { return subscribers() == 0 }, 10*time.Second, 50*time.Millisecond)
}

func TestNewBrokerWithoutRedisIsLocal(t *testing.T) {
	m := metrics.New()
	local := broker.NewLocal(sse.NewHub(), realtime.NewBus(&config.Config{}, zap.NewNop(), m), zap.NewNop(), m)
	require.Same(t, local, NewBroker(&config.Config{}, local, zap.NewNop(), m))
}
