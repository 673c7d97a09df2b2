package service

import (
	"context"
	"encoding/json"
	"testing"

	"PSocial/module/social/model"
	"PSocial/module/social/store"
	"PSocial/tools/errs"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// recordingPusher 把推送记下来供断言。
type recordingPusher struct {
	pushes []recordedPush
}

type recordedPush struct {
	Area   string
	UserID string
	Frame  model.Frame
}

func (p *recordingPusher) PushToUser(area, userID string, payload []byte) int {
	frame := model.Frame{}
	_ = json.Unmarshal(payload, &frame)
	p.pushes = append(p.pushes, recordedPush{Area: area, UserID: userID, Frame: frame})
	return 1
}

func (p *recordingPusher) reset() { p.pushes = nil }

func (p *recordingPusher) typesFor(userID string) []string {
	var out []string
	for _, rec := range p.pushes {
		if rec.UserID == userID {
			out = append(out, rec.Frame.Type)
		}
	}
	return out
}

// actionTypeFor 该用户收到的首个好友动作帧的 action_type。
func (p *recordingPusher) actionTypeFor(userID string) string {
	for _, rec := range p.pushes {
		if rec.UserID != userID || rec.Frame.Type != model.EventFriendAction {
			continue
		}
		if data, ok := rec.Frame.Data.(map[string]any); ok {
			if at, ok := data["action_type"].(string); ok {
				return at
			}
		}
	}
	return ""
}

type fixture struct {
	ms     *store.MemStores
	pusher *recordingPusher
	notify *NotificationService
	fs     *FriendService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	ms := store.NewMemStores()
	pusher := &recordingPusher{}
	bc := NewBroadcaster(pusher, nil, "gw-test")
	notify := NewNotificationService(ms.Notifications(), bc)
	fs := NewFriendService(ms.Users(), ms.Graphs(), ms.Notifications(), ms.Tx(), notify, bc)
	return &fixture{ms: ms, pusher: pusher, notify: notify, fs: fs}
}

func (f *fixture) addUser(t *testing.T, memberID, username string, verified bool, blocked ...string) model.Identity {
	t.Helper()
	ctx := context.Background()
	u := &model.User{
		UserID:   "u_" + memberID,
		MemberID: memberID,
		Username: username,
		Verified: verified,
		Blocked:  blocked,
	}
	require.NoError(t, f.ms.Users().Create(ctx, u))
	require.NoError(t, f.ms.Graphs().Init(ctx, u.UserID))
	require.NoError(t, f.ms.Notifications().Init(ctx, u.UserID))
	return u.Identity()
}

func TestFriendRequest(t *testing.T) {
	ctx := context.Background()

	t.Run("happy path writes pending and request ref on recipient", func(t *testing.T) {
		f := newFixture(t)
		alice := f.addUser(t, "alice", "Alice", true)
		bob := f.addUser(t, "bob", "Bob", true)

		require.NoError(t, f.fs.Request(ctx, alice, "bob"))

		g, err := f.ms.Graphs().Get(ctx, bob.UserID)
		require.NoError(t, err)
		assert.Equal(t, model.RelationPending, g.StateWith("alice"))
		assert.Equal(t, "Alice", g.Pending["alice"].Username)

		rec, err := f.ms.Notifications().Get(ctx, bob.UserID)
		require.NoError(t, err)
		require.Len(t, rec.FriendRequests, 1)
		assert.Equal(t, "alice", rec.FriendRequests[0].MemberID)
		assert.True(t, rec.HasFriendRequestFrom("alice"))
		assert.False(t, rec.HasFriendRequestFrom("carol"))

		// 发起方自己的档案不动
		ga, err := f.ms.Graphs().Get(ctx, alice.UserID)
		require.NoError(t, err)
		assert.Empty(t, ga.Pending)
		assert.Empty(t, ga.List)

		assert.Equal(t, []string{model.EventFriendAction, model.EventFriendList}, f.pusher.typesFor(bob.UserID))
	})

	t.Run("self request is rejected", func(t *testing.T) {
		f := newFixture(t)
		alice := f.addUser(t, "alice", "Alice", true)
		err := f.fs.Request(ctx, alice, "alice")
		assert.Equal(t, errs.ArgsError, errs.CodeOf(err))
	})

	t.Run("unknown peer", func(t *testing.T) {
		f := newFixture(t)
		alice := f.addUser(t, "alice", "Alice", true)
		err := f.fs.Request(ctx, alice, "ghost")
		assert.Equal(t, errs.RecordNotFoundError, errs.CodeOf(err))
	})

	t.Run("unverified recipient is forbidden", func(t *testing.T) {
		f := newFixture(t)
		alice := f.addUser(t, "alice", "Alice", true)
		f.addUser(t, "bob", "Bob", false)
		err := f.fs.Request(ctx, alice, "bob")
		assert.Equal(t, errs.NoPermissionError, errs.CodeOf(err))
	})

	t.Run("blocked pair is forbidden in both directions", func(t *testing.T) {
		f := newFixture(t)
		alice := f.addUser(t, "alice", "Alice", true)
		bob := f.addUser(t, "bob", "Bob", true, "alice") // bob 拉黑了 alice

		err := f.fs.Request(ctx, alice, "bob")
		assert.Equal(t, errs.NoPermissionError, errs.CodeOf(err))

		// 拉黑方主动发也不行
		err = f.fs.Request(ctx, bob, "alice")
		assert.Equal(t, errs.NoPermissionError, errs.CodeOf(err))
	})

	t.Run("re-request conflicts while pending, from either side", func(t *testing.T) {
		f := newFixture(t)
		alice := f.addUser(t, "alice", "Alice", true)
		bob := f.addUser(t, "bob", "Bob", true)

		require.NoError(t, f.fs.Request(ctx, alice, "bob"))
		assert.Equal(t, errs.DuplicateKeyError, errs.CodeOf(f.fs.Request(ctx, alice, "bob")))
		assert.Equal(t, errs.DuplicateKeyError, errs.CodeOf(f.fs.Request(ctx, bob, "alice")))
	})
}

func TestFriendAccept(t *testing.T) {
	ctx := context.Background()

	t.Run("accept moves pair to list symmetrically", func(t *testing.T) {
		f := newFixture(t)
		alice := f.addUser(t, "alice", "Alice", true)
		bob := f.addUser(t, "bob", "Bob", true)
		require.NoError(t, f.fs.Request(ctx, alice, "bob"))
		f.pusher.reset()

		require.NoError(t, f.fs.Accept(ctx, bob, "alice"))

		gb, err := f.ms.Graphs().Get(ctx, bob.UserID)
		require.NoError(t, err)
		assert.Empty(t, gb.Pending)
		assert.Equal(t, model.RelationList, gb.StateWith("alice"))

		ga, err := f.ms.Graphs().Get(ctx, alice.UserID)
		require.NoError(t, err)
		assert.Equal(t, model.RelationList, ga.StateWith("bob"))

		rec, err := f.ms.Notifications().Get(ctx, bob.UserID)
		require.NoError(t, err)
		assert.Empty(t, rec.FriendRequests)

		// 发起方收 add 动作 + 列表增量, 接受方收两条列表增量
		assert.Equal(t, []string{model.EventFriendAction, model.EventFriendList}, f.pusher.typesFor(alice.UserID))
		assert.Equal(t, []string{model.EventFriendList, model.EventFriendList}, f.pusher.typesFor(bob.UserID))
	})

	t.Run("accept without pending is not found", func(t *testing.T) {
		f := newFixture(t)
		alice := f.addUser(t, "alice", "Alice", true)
		f.addUser(t, "bob", "Bob", true)
		err := f.fs.Accept(ctx, alice, "bob")
		assert.Equal(t, errs.RecordNotFoundError, errs.CodeOf(err))
	})

	t.Run("accept when already friends conflicts", func(t *testing.T) {
		f := newFixture(t)
		alice := f.addUser(t, "alice", "Alice", true)
		bob := f.addUser(t, "bob", "Bob", true)
		require.NoError(t, f.fs.Request(ctx, alice, "bob"))
		require.NoError(t, f.fs.Accept(ctx, bob, "alice"))

		err := f.fs.Accept(ctx, bob, "alice")
		assert.Equal(t, errs.DuplicateKeyError, errs.CodeOf(err))
	})
}

func TestFriendDecline(t *testing.T) {
	ctx := context.Background()

	t.Run("decline clears pending and leaves silent notice", func(t *testing.T) {
		f := newFixture(t)
		alice := f.addUser(t, "alice", "Alice", true)
		bob := f.addUser(t, "bob", "Bob", true)
		require.NoError(t, f.fs.Request(ctx, alice, "bob"))
		f.pusher.reset()

		require.NoError(t, f.fs.Decline(ctx, bob, "alice"))

		gb, err := f.ms.Graphs().Get(ctx, bob.UserID)
		require.NoError(t, err)
		assert.Equal(t, model.RelationNone, gb.StateWith("alice"))

		rec, err := f.ms.Notifications().Get(ctx, bob.UserID)
		require.NoError(t, err)
		assert.Empty(t, rec.FriendRequests)
		assert.False(t, rec.HasFriendRequestFrom("alice"))

		// 静默通知：落在发起方档案里，但不推送
		recA, err := f.ms.Notifications().Get(ctx, alice.UserID)
		require.NoError(t, err)
		require.Len(t, recA.General, 1)
		assert.Equal(t, model.TypeFriendDeclined, recA.General[0].Type)
		assert.Empty(t, f.pusher.typesFor(alice.UserID))

		// 拒绝方其他设备收动作帧 + pending 清除
		assert.Equal(t, []string{model.EventFriendAction, model.EventFriendList}, f.pusher.typesFor(bob.UserID))
		assert.Equal(t, model.ActionDecline, f.pusher.actionTypeFor(bob.UserID))
	})

	t.Run("declined pair can request again", func(t *testing.T) {
		f := newFixture(t)
		alice := f.addUser(t, "alice", "Alice", true)
		bob := f.addUser(t, "bob", "Bob", true)
		require.NoError(t, f.fs.Request(ctx, alice, "bob"))
		require.NoError(t, f.fs.Decline(ctx, bob, "alice"))

		require.NoError(t, f.fs.Request(ctx, alice, "bob"))
		gb, err := f.ms.Graphs().Get(ctx, bob.UserID)
		require.NoError(t, err)
		assert.Equal(t, model.RelationPending, gb.StateWith("alice"))
	})
}

func TestUnfriend(t *testing.T) {
	ctx := context.Background()

	t.Run("unfriend removes both sides and leaves silent notice", func(t *testing.T) {
		f := newFixture(t)
		alice := f.addUser(t, "alice", "Alice", true)
		bob := f.addUser(t, "bob", "Bob", true)
		require.NoError(t, f.fs.Request(ctx, alice, "bob"))
		require.NoError(t, f.fs.Accept(ctx, bob, "alice"))
		f.pusher.reset()

		require.NoError(t, f.fs.Unfriend(ctx, alice, "bob"))

		ga, err := f.ms.Graphs().Get(ctx, alice.UserID)
		require.NoError(t, err)
		assert.Equal(t, model.RelationNone, ga.StateWith("bob"))
		gb, err := f.ms.Graphs().Get(ctx, bob.UserID)
		require.NoError(t, err)
		assert.Equal(t, model.RelationNone, gb.StateWith("alice"))

		recB, err := f.ms.Notifications().Get(ctx, bob.UserID)
		require.NoError(t, err)
		require.Len(t, recB.General, 1)
		assert.Equal(t, model.TypeFriendRemoved, recB.General[0].Type)

		// 双方各收一条 remove 增量；被移除方没有 notification 推送
		assert.Equal(t, []string{model.EventFriendList}, f.pusher.typesFor(alice.UserID))
		assert.Equal(t, []string{model.EventFriendList}, f.pusher.typesFor(bob.UserID))
	})

	t.Run("unfriend a non-friend is not found", func(t *testing.T) {
		f := newFixture(t)
		alice := f.addUser(t, "alice", "Alice", true)
		f.addUser(t, "bob", "Bob", true)
		err := f.fs.Unfriend(ctx, alice, "bob")
		assert.Equal(t, errs.RecordNotFoundError, errs.CodeOf(err))
	})
}

// failingGraphs 在第 n 次 AddFriend 时报错，用来验证事务回滚。
type failingGraphs struct {
	store.FriendGraphStore
	failAt int
	calls  int
}

func (f *failingGraphs) AddFriend(ctx context.Context, userID string, ref model.FriendRef) error {
	f.calls++
	if f.calls == f.failAt {
		return errs.ErrInternalServer.WrapMsg("injected failure")
	}
	return f.FriendGraphStore.AddFriend(ctx, userID, ref)
}

func TestAcceptRollsBackOnPartialFailure(t *testing.T) {
	ctx := context.Background()
	ms := store.NewMemStores()
	pusher := &recordingPusher{}
	bc := NewBroadcaster(pusher, nil, "gw-test")
	notify := NewNotificationService(ms.Notifications(), bc)
	graphs := &failingGraphs{FriendGraphStore: ms.Graphs(), failAt: 2}
	fs := NewFriendService(ms.Users(), graphs, ms.Notifications(), ms.Tx(), notify, bc)

	mk := func(memberID, username string) model.Identity {
		u := &model.User{UserID: "u_" + memberID, MemberID: memberID, Username: username, Verified: true}
		require.NoError(t, ms.Users().Create(ctx, u))
		require.NoError(t, ms.Graphs().Init(ctx, u.UserID))
		require.NoError(t, ms.Notifications().Init(ctx, u.UserID))
		return u.Identity()
	}
	alice := mk("alice", "Alice")
	bob := mk("bob", "Bob")

	require.NoError(t, fs.Request(ctx, alice, "bob"))
	pusher.reset()

	// 第二次 AddFriend（给发起方插列表）失败，整个迁移必须回滚
	err := fs.Accept(ctx, bob, "alice")
	require.Error(t, err)
	// 执行器不自动重跑回调: 恰好走到注入点就停
	assert.Equal(t, 2, graphs.calls)

	gb, gerr := ms.Graphs().Get(ctx, bob.UserID)
	require.NoError(t, gerr)
	assert.Equal(t, model.RelationPending, gb.StateWith("alice"), "pending must survive the rollback")
	assert.Empty(t, gb.List)

	ga, gerr := ms.Graphs().Get(ctx, alice.UserID)
	require.NoError(t, gerr)
	assert.Empty(t, ga.List)

	rec, nerr := ms.Notifications().Get(ctx, bob.UserID)
	require.NoError(t, nerr)
	require.Len(t, rec.FriendRequests, 1, "request ref must survive the rollback")

	// 失败路径零推送
	assert.Empty(t, pusher.pushes)

	// 注入点撤掉后重试成功
	graphs.failAt = 0
	require.NoError(t, fs.Accept(ctx, bob, "alice"))
}
