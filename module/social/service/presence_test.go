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

// fakeCache 带截止时间的内存缓存，时钟与被测服务共享，
// 可以直接把时间拨过 TTL 验证“过期即离线”。
type fakeCache struct {
	clock    func() time.Time
	entries  map[string]model.PresenceEntry
	deadline map[string]time.Time
	lastSeen map[string]time.Time
}

func newFakeCache(clock func() time.Time) *fakeCache {
	return &fakeCache{
		clock:    clock,
		entries:  make(map[string]model.PresenceEntry),
		deadline: make(map[string]time.Time),
		lastSeen: make(map[string]time.Time),
	}
}

func (c *fakeCache) Set(_ context.Context, userID string, entry model.PresenceEntry, ttl time.Duration) error {
	c.entries[userID] = entry
	c.deadline[userID] = c.clock().Add(ttl)
	return nil
}

func (c *fakeCache) Get(_ context.Context, userID string) (*model.PresenceEntry, error) {
	entry, ok := c.entries[userID]
	if !ok || c.clock().After(c.deadline[userID]) {
		return nil, nil
	}
	cp := entry
	return &cp, nil
}

func (c *fakeCache) Delete(_ context.Context, userID string) error {
	delete(c.entries, userID)
	delete(c.deadline, userID)
	return nil
}

func (c *fakeCache) SetLastSeen(_ context.Context, userID string, ts time.Time) error {
	c.lastSeen[userID] = ts
	return nil
}

func (c *fakeCache) GetLastSeen(_ context.Context, userID string) (time.Time, error) {
	return c.lastSeen[userID], nil
}

type presenceFixture struct {
	ms     *store.MemStores
	cache  *fakeCache
	pusher *recordingPusher
	svc    *PresenceService
	now    time.Time
}

func newPresenceFixture(t *testing.T, ttl time.Duration) *presenceFixture {
	t.Helper()
	f := &presenceFixture{
		ms:     store.NewMemStores(),
		pusher: &recordingPusher{},
		now:    time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
	}
	clock := func() time.Time { return f.now }
	f.cache = newFakeCache(clock)
	bc := NewBroadcaster(f.pusher, nil, "gw-test")
	f.svc = NewPresenceService(f.cache, f.ms.Users(), f.ms.Graphs(), bc, ttl)
	f.svc.SetClock(clock)
	return f
}

func (f *presenceFixture) addUser(t *testing.T, memberID, username string) model.Identity {
	t.Helper()
	ctx := context.Background()
	u := &model.User{UserID: "u_" + memberID, MemberID: memberID, Username: username, Verified: true}
	require.NoError(t, f.ms.Users().Create(ctx, u))
	require.NoError(t, f.ms.Graphs().Init(ctx, u.UserID))
	return u.Identity()
}

func TestPresenceStatus(t *testing.T) {
	ctx := context.Background()

	t.Run("absence reads as offline", func(t *testing.T) {
		f := newPresenceFixture(t, time.Hour)
		status, err := f.svc.Status(ctx, "u_nobody")
		require.NoError(t, err)
		assert.Equal(t, model.StatusOffline, status)
	})

	t.Run("set then read back", func(t *testing.T) {
		f := newPresenceFixture(t, time.Hour)
		require.NoError(t, f.svc.SetStatus(ctx, "u_alice", model.StatusOnline))
		status, err := f.svc.Status(ctx, "u_alice")
		require.NoError(t, err)
		assert.Equal(t, model.StatusOnline, status)

		require.NoError(t, f.svc.SetStatus(ctx, "u_alice", model.StatusAway))
		status, _ = f.svc.Status(ctx, "u_alice")
		assert.Equal(t, model.StatusAway, status)
	})

	t.Run("ttl expiry decays to offline", func(t *testing.T) {
		f := newPresenceFixture(t, time.Hour)
		require.NoError(t, f.svc.SetStatus(ctx, "u_alice", model.StatusOnline))

		f.now = f.now.Add(61 * time.Minute)
		status, err := f.svc.Status(ctx, "u_alice")
		require.NoError(t, err)
		assert.Equal(t, model.StatusOffline, status)
	})

	t.Run("touch extends the deadline", func(t *testing.T) {
		f := newPresenceFixture(t, time.Hour)
		require.NoError(t, f.svc.SetStatus(ctx, "u_alice", model.StatusOnline))

		f.now = f.now.Add(50 * time.Minute)
		require.NoError(t, f.svc.Touch(ctx, "u_alice"))

		f.now = f.now.Add(50 * time.Minute) // 原期限已过, 续期后没过
		status, err := f.svc.Status(ctx, "u_alice")
		require.NoError(t, err)
		assert.Equal(t, model.StatusOnline, status)
	})

	t.Run("touch without entry is a no-op", func(t *testing.T) {
		f := newPresenceFixture(t, time.Hour)
		require.NoError(t, f.svc.Touch(ctx, "u_ghost"))
		status, _ := f.svc.Status(ctx, "u_ghost")
		assert.Equal(t, model.StatusOffline, status)
	})

	t.Run("offline deletes the entry but keeps last seen", func(t *testing.T) {
		f := newPresenceFixture(t, time.Hour)
		require.NoError(t, f.svc.SetStatus(ctx, "u_alice", model.StatusOnline))
		seenAt := f.now
		f.now = f.now.Add(10 * time.Minute)
		require.NoError(t, f.svc.SetStatus(ctx, "u_alice", model.StatusOffline))

		status, err := f.svc.Status(ctx, "u_alice")
		require.NoError(t, err)
		assert.Equal(t, model.StatusOffline, status)

		last, err := f.cache.GetLastSeen(ctx, "u_alice")
		require.NoError(t, err)
		assert.True(t, last.After(seenAt))
	})

	t.Run("invalid status rejected", func(t *testing.T) {
		f := newPresenceFixture(t, time.Hour)
		require.Error(t, f.svc.SetStatus(ctx, "u_alice", "invisible"))
	})
}

func TestPresenceBroadcastAudience(t *testing.T) {
	ctx := context.Background()
	f := newPresenceFixture(t, time.Hour)

	alice := f.addUser(t, "alice", "Alice")
	bob := f.addUser(t, "bob", "Bob")
	f.addUser(t, "carol", "Carol") // 不是好友, 不该收到

	// alice <-> bob 互为好友
	require.NoError(t, f.ms.Graphs().AddFriend(ctx, alice.UserID, model.FriendRef{MemberID: "bob", Username: "Bob"}))
	require.NoError(t, f.ms.Graphs().AddFriend(ctx, bob.UserID, model.FriendRef{MemberID: "alice", Username: "Alice"}))

	require.NoError(t, f.svc.BroadcastToFriends(ctx, alice, model.StatusAway))

	require.Len(t, f.pusher.pushes, 1)
	push := f.pusher.pushes[0]
	assert.Equal(t, bob.UserID, push.UserID)
	assert.Equal(t, model.AreaSocial, push.Area)
	assert.Equal(t, model.EventPresence, push.Frame.Type)

	data, ok := push.Frame.Data.(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "alice", data["member_id"])
	assert.Equal(t, model.StatusAway, data["status"])
	// 只许 member_id, 内部 user_id 不外泄
	_, leaked := data["user_id"]
	assert.False(t, leaked)
}

func TestPresenceBroadcastToPeer(t *testing.T) {
	ctx := context.Background()
	f := newPresenceFixture(t, time.Hour)

	alice := f.addUser(t, "alice", "Alice")
	bob := f.addUser(t, "bob", "Bob")

	f.svc.BroadcastToPeer(ctx, alice, model.StatusOnline, bob.UserID)

	require.Len(t, f.pusher.pushes, 1)
	push := f.pusher.pushes[0]
	assert.Equal(t, bob.UserID, push.UserID)
	assert.Equal(t, model.AreaSocial, push.Area)
	assert.Equal(t, model.EventPresence, push.Frame.Type)

	data, ok := push.Frame.Data.(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "alice", data["member_id"])
	assert.Equal(t, model.StatusOnline, data["status"])
}
