//go:build integration

package rabbitmq

import (
	"context"
	"fmt"
	"testing"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
	"hr_notify/internal/config"
)

// startRabbitMQ runs a broker for the test and returns a config pointing at
// it. The container is removed when the test ends.
func startRabbitMQ(t *testing.T, ctx context.Context) *config.Config {
	t.Helper()
	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "rabbitmq:3.13-alpine",
			ExposedPorts: []string{"5672/tcp"},
			WaitingFor:   wait.ForListeningPort("5672/tcp").WithStartupTimeout(2 * time.Minute),
		},
		Started: true,
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = container.Terminate(context.Background()) })

	host, err := container.Host(ctx)
	require.NoError(t, err)
	port, err := container.MappedPort(ctx, "5672/tcp")
	require.NoError(t, err)

	return &config.Config{
		RabbitMQURL:         fmt.Sprintf("amqp://guest:guest@%s:%s/", host, port.Port()),
		RabbitExchange:      "notifications",
		RabbitQueue:         "notifications.notify",
		RabbitRoutingKey:    "notification.*",
		RabbitConsumerTag:   "notify-consumer",
		RabbitPublishPrefix: "notification",
	}
}

// waitForConsumer polls until queue has at least one consumer attached.
func waitForConsumer(ctx context.Context, amqpURL, queue string, timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	ticker := time.NewTicker(200 * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if consumers(amqpURL, queue) > 0 {
				return nil
			}
		}
	}
}

func consumers(amqpURL, queue string) int {
	conn, err := amqp.Dial(amqpURL)
	if err != nil {
		return 0
	}
	defer func() { _ = conn.Close() }()
	ch, err := conn.Channel()
	if err != nil {
		return 0
	}
	defer func() { _ = ch.Close() }()
	q, err := ch.QueueInspect(queue)
	if err != nil {
		return 0
	}
	return q.Consumers
}
