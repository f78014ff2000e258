package memory

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"hr_notify/internal/domain"
	"hr_notify/internal/model"
	"hr_notify/internal/repository"
)

func TestNotifications(t *testing.T) {
	ctx := context.Background()

	t.Run("create assigns id and timestamp", func(t *testing.T) {
		store := New(zap.NewNop())
		before := time.Now().UTC()

		created, err := store.CreateNotification(ctx, model.Notification{RecipientID: "u1", Message: "hi"})
		require.NoError(t, err)
		require.Equal(t, int64(1), created.ID)
		require.False(t, created.Read)
		require.False(t, created.CreatedAt.Before(before))
	})

	t.Run("list newest first with limit", func(t *testing.T) {
		store := New(zap.NewNop())
		for _, msg := range []string{"a", "b", "c"} {
			_, err := store.CreateNotification(ctx, model.Notification{RecipientID: "u1", Message: msg})
			require.NoError(t, err)
		}
		_, err := store.CreateNotification(ctx, model.Notification{RecipientID: "u2", Message: "other"})
		require.NoError(t, err)

		got, err := store.ListNotifications(ctx, "u1", 2)
		require.NoError(t, err)
		require.Len(t, got, 2)
		require.Equal(t, "c", got[0].Message)
		require.Equal(t, "b", got[1].Message)
	})

	t.Run("zero limit is capped like any backend", func(t *testing.T) {
		store := New(zap.NewNop())
		for i := 0; i < repository.MaxListLimit+5; i++ {
			_, err := store.CreateNotification(ctx, model.Notification{RecipientID: "u1", Message: "m"})
			require.NoError(t, err)
		}

		got, err := store.ListNotifications(ctx, "u1", 0)
		require.NoError(t, err)
		require.Len(t, got, repository.MaxListLimit)

		got, err = store.ListNotifications(ctx, "u1", repository.MaxListLimit+1)
		require.NoError(t, err)
		require.Len(t, got, repository.MaxListLimit)
		require.Equal(t, int64(repository.MaxListLimit+5), got[0].ID)
	})

	t.Run("mark read scoped to owner", func(t *testing.T) {
		store := New(zap.NewNop())
		created, err := store.CreateNotification(ctx, model.Notification{RecipientID: "u1", Message: "hi"})
		require.NoError(t, err)

		_, err = store.MarkNotificationRead(ctx, created.ID, "u2")
		require.ErrorIs(t, err, domain.ErrNotFound)

		updated, err := store.MarkNotificationRead(ctx, created.ID, "u1")
		require.NoError(t, err)
		require.True(t, updated.Read)
	})

	t.Run("mark all read counts unread only", func(t *testing.T) {
		store := New(zap.NewNop())
		first, err := store.CreateNotification(ctx, model.Notification{RecipientID: "u1", Message: "a"})
		require.NoError(t, err)
		_, err = store.CreateNotification(ctx, model.Notification{RecipientID: "u1", Message: "b"})
		require.NoError(t, err)
		_, err = store.MarkNotificationRead(ctx, first.ID, "u1")
		require.NoError(t, err)

		n, err := store.MarkAllNotificationsRead(ctx, "u1")
		require.NoError(t, err)
		require.Equal(t, int64(1), n)
	})

	t.Run("delete", func(t *testing.T) {
		store := New(zap.NewNop())
		created, err := store.CreateNotification(ctx, model.Notification{RecipientID: "u1", Message: "hi"})
		require.NoError(t, err)

		require.NoError(t, store.DeleteNotification(ctx, created.ID))
		require.ErrorIs(t, store.DeleteNotification(ctx, created.ID), domain.ErrNotFound)

		got, err := store.ListNotifications(ctx, "u1", 0)
		require.NoError(t, err)
		require.Empty(t, got)
	})
}

func TestPushSubscriptions(t *testing.T) {
	ctx := context.Background()

	t.Run("unknown user has none", func(t *testing.T) {
		store := New(zap.NewNop())
		subs, err := store.ListPushSubscriptions(ctx, "nobody")
		require.NoError(t, err)
		require.Empty(t, subs)
	})

	t.Run("second save overwrites", func(t *testing.T) {
		store := New(zap.NewNop())
		_, err := store.SavePushSubscription(ctx, model.PushSubscription{
			UserID:   "u1",
			Endpoint: "https://push.example/first",
			Keys:     model.PushKeys{P256dh: "k1", Auth: "a1"},
		})
		require.NoError(t, err)
		_, err = store.SavePushSubscription(ctx, model.PushSubscription{
			UserID:   "u1",
			Endpoint: "https://push.example/second",
			Keys:     model.PushKeys{P256dh: "k2", Auth: "a2"},
		})
		require.NoError(t, err)

		subs, err := store.ListPushSubscriptions(ctx, "u1")
		require.NoError(t, err)
		require.Len(t, subs, 1)
		require.Equal(t, "https://push.example/second", subs[0].Endpoint)
		require.Equal(t, "k2", subs[0].Keys.P256dh)
	})
}
