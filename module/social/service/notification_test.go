package service

import (
	"context"
	"testing"
	"time"

	"PSocial/module/social/model"
	"PSocial/module/social/store"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newNotifyFixture(t *testing.T) (*store.MemStores, *recordingPusher, *NotificationService, string) {
	t.Helper()
	ms := store.NewMemStores()
	pusher := &recordingPusher{}
	bc := NewBroadcaster(pusher, nil, "gw-test")
	svc := NewNotificationService(ms.Notifications(), bc)
	const userID = "u_alice"
	require.NoError(t, ms.Notifications().Init(context.Background(), userID))
	return ms, pusher, svc, userID
}

func TestNotificationEmit(t *testing.T) {
	ctx := context.Background()

	t.Run("emit persists then pushes", func(t *testing.T) {
		ms, pusher, svc, userID := newNotifyFixture(t)

		n, err := svc.Emit(ctx, userID, model.Notification{
			Type:    model.TypeNews,
			Title:   "Release notes",
			Message: "v2 shipped",
		}, EmitOptions{})
		require.NoError(t, err)
		assert.NotEmpty(t, n.NotificationID)
		assert.False(t, n.CreatedAt.IsZero())

		rec, err := ms.Notifications().Get(ctx, userID)
		require.NoError(t, err)
		require.Len(t, rec.News, 1)

		// 每个区域各推一次, 接收者在哪个区域在线都能收到
		require.Len(t, pusher.pushes, len(model.Areas))
		areas := make([]string, 0, len(pusher.pushes))
		for _, p := range pusher.pushes {
			assert.Equal(t, model.EventNotification, p.Frame.Type)
			assert.Equal(t, userID, p.UserID)
			areas = append(areas, p.Area)
		}
		assert.ElementsMatch(t, model.Areas, areas)
	})

	t.Run("silent emit persists without push", func(t *testing.T) {
		ms, pusher, svc, userID := newNotifyFixture(t)

		_, err := svc.Emit(ctx, userID, model.Notification{
			Type:    model.TypeSystem,
			Title:   "Maintenance",
			Message: "window tonight",
		}, EmitOptions{Silent: true})
		require.NoError(t, err)

		rec, err := ms.Notifications().Get(ctx, userID)
		require.NoError(t, err)
		require.Len(t, rec.System, 1)
		assert.Empty(t, pusher.pushes)
	})

	t.Run("unknown type lands in general", func(t *testing.T) {
		ms, _, svc, userID := newNotifyFixture(t)
		_, err := svc.Emit(ctx, userID, model.Notification{Type: "whatever", Title: "x"}, EmitOptions{Silent: true})
		require.NoError(t, err)
		rec, err := ms.Notifications().Get(ctx, userID)
		require.NoError(t, err)
		require.Len(t, rec.General, 1)
	})
}

func TestNotificationFetchAndDelete(t *testing.T) {
	ctx := context.Background()
	_, _, svc, userID := newNotifyFixture(t)

	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	now := base
	svc.SetClock(func() time.Time { return now })

	emit := func(id, typ, title string, offset time.Duration) {
		now = base.Add(offset)
		_, err := svc.Emit(ctx, userID, model.Notification{
			NotificationID: id,
			Type:           typ,
			Title:          title,
		}, EmitOptions{Silent: true})
		require.NoError(t, err)
	}

	emit("n1", model.TypeNews, "oldest news", 0)
	emit("n2", model.TypeNews, "newer news", time.Hour)
	emit("n3", model.TypeNews, "newest news", 2*time.Hour)
	emit("s1", model.TypeSystem, "system one", 30*time.Minute)
	emit("g1", model.TypeGeneral, "general one", 90*time.Minute)

	t.Run("categorized sorts each category newest first", func(t *testing.T) {
		set, err := svc.Fetch(ctx, userID, false)
		require.NoError(t, err)
		require.NotNil(t, set.Categorized)
		assert.Nil(t, set.Flattened)

		news := set.Categorized[model.CategoryNews]
		require.Len(t, news, 3)
		assert.Equal(t, "n3", news[0].NotificationID)
		assert.Equal(t, "n2", news[1].NotificationID)
		assert.Equal(t, "n1", news[2].NotificationID)
	})

	t.Run("flattened merges all categories newest first", func(t *testing.T) {
		set, err := svc.Fetch(ctx, userID, true)
		require.NoError(t, err)
		require.Len(t, set.Flattened, 5)
		got := make([]string, 0, 5)
		for _, n := range set.Flattened {
			got = append(got, n.NotificationID)
		}
		assert.Equal(t, []string{"n3", "g1", "n2", "s1", "n1"}, got)
	})

	t.Run("batch delete returns the recomputed set", func(t *testing.T) {
		set, err := svc.Delete(ctx, userID, model.CategoryNews, []string{"n1", "n3"}, false)
		require.NoError(t, err)
		news := set.Categorized[model.CategoryNews]
		require.Len(t, news, 1)
		assert.Equal(t, "n2", news[0].NotificationID)
		// 其他分类不受影响
		assert.Len(t, set.Categorized[model.CategorySystem], 1)
	})

	t.Run("delete with unknown category is rejected", func(t *testing.T) {
		_, err := svc.Delete(ctx, userID, "spam", []string{"n2"}, false)
		require.Error(t, err)
	})
}
