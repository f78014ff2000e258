package sse

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"hr_notify/internal/model"
)

func sample(recipient string) model.Notification {
	return model.Notification{
		ID:          7,
		RecipientID: recipient,
		Type:        "leave",
		Message:     "leave approved",
		Link:        "/leave/7",
		CreatedAt:   time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC),
	}
}

func TestHubPublish(t *testing.T) {
	t.Run("unknown user is a no-op", func(t *testing.T) {
		hub := NewHub()
		require.NotPanics(t, func() {
			delivered, dropped := hub.Publish("unknown-user", model.Notification{Message: "x"})
			require.Zero(t, delivered)
			require.Zero(t, dropped)
		})
	})

	t.Run("single client receives one event", func(t *testing.T) {
		hub := NewHub()
		client := NewClient("u1")
		hub.Register(client)

		delivered, dropped := hub.Publish("u1", sample("u1"))
		require.Equal(t, 1, delivered)
		require.Zero(t, dropped)

		select {
		case got := <-client.Ch:
			require.Equal(t, EventNotification, got.Type)
			require.Equal(t, int64(7), got.Notification.ID)
		default:
			t.Fatalf("expected event")
		}
		require.Empty(t, client.Ch)
	})

	t.Run("two clients for one user both receive", func(t *testing.T) {
		hub := NewHub()
		a, b := NewClient("u1"), NewClient("u1")
		hub.Register(a)
		hub.Register(b)

		delivered, dropped := hub.Publish("u1", sample("u1"))
		require.Equal(t, 2, delivered)
		require.Zero(t, dropped)
		require.Len(t, a.Ch, 1)
		require.Len(t, b.Ch, 1)
	})

	t.Run("other users are not notified", func(t *testing.T) {
		hub := NewHub()
		a, b := NewClient("u1"), NewClient("u2")
		hub.Register(a)
		hub.Register(b)

		delivered, dropped := hub.Publish("u1", sample("u1"))
		require.Equal(t, 1, delivered)
		require.Zero(t, dropped)
		require.Empty(t, b.Ch)
	})

	t.Run("unregistered client is skipped", func(t *testing.T) {
		hub := NewHub()
		a, b := NewClient("u1"), NewClient("u1")
		hub.Register(a)
		hub.Register(b)
		hub.Unregister(a)

		delivered, dropped := hub.Publish("u1", sample("u1"))
		require.Equal(t, 1, delivered)
		require.Zero(t, dropped)
		require.Empty(t, a.Ch)
		require.Len(t, b.Ch, 1)
	})

	t.Run("full buffer drops for that client only", func(t *testing.T) {
		hub := NewHub()
		slow := &Client{UserID: "u1", Ch: make(chan Event)}
		fast := NewClient("u1")
		hub.Register(slow)
		hub.Register(fast)

		delivered, dropped := hub.Publish("u1", sample("u1"))
		require.Equal(t, 1, delivered)
		require.Equal(t, 1, dropped)
		require.Len(t, fast.Ch, 1)
	})
}

func TestHubRegister(t *testing.T) {
	t.Run("duplicate register keeps one entry", func(t *testing.T) {
		hub := NewHub()
		client := NewClient("u1")
		hub.Register(client)
		hub.Register(client)

		require.Equal(t, 1, hub.Subscribers("u1"))
		delivered, dropped := hub.Publish("u1", sample("u1"))
		require.Equal(t, 1, delivered)
		require.Zero(t, dropped)

		hub.Unregister(client)
		require.Equal(t, 0, hub.Subscribers("u1"))
	})

	t.Run("unregister unknown is a no-op", func(t *testing.T) {
		hub := NewHub()
		require.NotPanics(t, func() {
			hub.Unregister(NewClient("nobody"))
		})
		client := NewClient("u1")
		hub.Register(client)
		hub.Unregister(client)
		hub.Unregister(client)
		require.Equal(t, 0, hub.Subscribers("u1"))
	})
}

func TestHubPresence(t *testing.T) {
	hub := NewHub()
	var changes []string
	hub.OnPresence(func(userID string, present bool) {
		if present {
			changes = append(changes, "+"+userID)
		} else {
			changes = append(changes, "-"+userID)
		}
	})

	a, b := NewClient("u1"), NewClient("u1")
	hub.Register(a)
	hub.Register(b)
	hub.Register(a)
	hub.Unregister(a)
	hub.Unregister(a)
	hub.Unregister(b)
	require.Equal(t, []string{"+u1", "-u1"}, changes)
}

func TestHubConcurrentRegisterDuringPublish(t *testing.T) {
	hub := NewHub()
	removed := NewClient("u1")
	hub.Register(removed)
	hub.Unregister(removed)

	stable := &Client{UserID: "u1", Ch: make(chan Event, 1024)}
	hub.Register(stable)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 200; j++ {
				c := NewClient("u1")
				hub.Register(c)
				hub.Unregister(c)
			}
		}()
	}
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				hub.Publish("u1", sample("u1"))
			}
		}()
	}
	wg.Wait()

	require.Empty(t, removed.Ch)
	require.Len(t, stable.Ch, 400)
}

func TestHubRunClosesOnContextDone(t *testing.T) {
	hub := NewHub()
	ctx, cancel := context.WithCancel(context.Background())
	go hub.Run(ctx)
	cancel()

	select {
	case <-hub.Done():
	case <-time.After(time.Second):
		t.Fatalf("hub did not close")
	}
	require.NotPanics(t, hub.Close)
}

func TestWriteEvent(t *testing.T) {
	t.Run("ping frame", func(t *testing.T) {
		var buf bytes.Buffer
		require.NoError(t, WriteEvent(&buf, PingEvent()))
		require.Equal(t, "data: {\"type\":\"ping\"}\n\n", buf.String())
	})

	t.Run("notification frame", func(t *testing.T) {
		var buf bytes.Buffer
		require.NoError(t, WriteEvent(&buf, NotificationEvent(sample("u1"))))

		frame := buf.String()
		require.True(t, strings.HasPrefix(frame, "data: {\"type\":\"notification\""))
		require.True(t, strings.HasSuffix(frame, "}\n\n"))

		var got map[string]any
		require.NoError(t, json.Unmarshal([]byte(strings.TrimSuffix(strings.TrimPrefix(frame, "data: "), "\n\n")), &got))
		require.Equal(t, "notification", got["type"])
		require.Equal(t, "leave", got["category"])
		require.Equal(t, "leave approved", got["message"])
		require.Equal(t, "/leave/7", got["link"])
		require.Equal(t, "u1", got["recipient_id"])
		require.Equal(t, false, got["read"])
	})
}
