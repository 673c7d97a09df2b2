package service

import (
	"context"
	"time"

	"PSocial/logger"
	"PSocial/module/social/model"
	"PSocial/module/social/store"
	"PSocial/tools/errs"
)

// PresenceCache 短 TTL 的 KV 缓存边界；只给 presence 用。
// Get 在条目不存在时返回 (nil, nil)：不存在即 offline。
type PresenceCache interface {
	Set(ctx context.Context, userID string, entry model.PresenceEntry, ttl time.Duration) error
	Get(ctx context.Context, userID string) (*model.PresenceEntry, error)
	Delete(ctx context.Context, userID string) error

	SetLastSeen(ctx context.Context, userID string, ts time.Time) error
	GetLastSeen(ctx context.Context, userID string) (time.Time, error)
}

const DefaultPresenceTTL = 24 * time.Hour

// PresenceService 维护粗粒度活动状态并向好友扇出变化。
// 缓存是建议性状态，last-write-wins 即可；TTL 是断连未说再见时的兜底。
type PresenceService struct {
	cache  PresenceCache
	users  store.UserStore
	graphs store.FriendGraphStore
	bc     *Broadcaster

	ttl   time.Duration
	clock func() time.Time
}

func NewPresenceService(cache PresenceCache, users store.UserStore, graphs store.FriendGraphStore, bc *Broadcaster, ttl time.Duration) *PresenceService {
	if ttl <= 0 {
		ttl = DefaultPresenceTTL
	}
	return &PresenceService{
		cache:  cache,
		users:  users,
		graphs: graphs,
		bc:     bc,
		ttl:    ttl,
		clock:  time.Now,
	}
}

// SetClock 单测注入时钟。
func (s *PresenceService) SetClock(clock func() time.Time) { s.clock = clock }

// SetStatus offline 直接删条目（以“不存在”表达离线，不存负值），
// 其余状态 upsert 并续 TTL；last-seen 每次都刷新。
func (s *PresenceService) SetStatus(ctx context.Context, userID, status string) error {
	if !model.ValidStatus(status) {
		return errs.ErrArgs.WrapMsg("invalid presence status", "status", status)
	}
	now := s.clock()
	if err := s.cache.SetLastSeen(ctx, userID, now); err != nil {
		logger.Warnf("[presence] refresh last seen failed user=%s err=%v", userID, err)
	}
	if status == model.StatusOffline {
		return s.cache.Delete(ctx, userID)
	}
	entry := model.PresenceEntry{Status: status, LastActive: now.UnixMilli()}
	return s.cache.Set(ctx, userID, entry, s.ttl)
}

// Touch 心跳续期：有条目就原状态续 TTL、刷活动时间；没有就什么也不做。
func (s *PresenceService) Touch(ctx context.Context, userID string) error {
	entry, err := s.cache.Get(ctx, userID)
	if err != nil || entry == nil {
		return err
	}
	entry.LastActive = s.clock().UnixMilli()
	return s.cache.Set(ctx, userID, *entry, s.ttl)
}

// Status 条目缺失即 offline。
func (s *PresenceService) Status(ctx context.Context, userID string) (string, error) {
	entry, err := s.cache.Get(ctx, userID)
	if err != nil {
		return "", err
	}
	if entry == nil {
		return model.StatusOffline, nil
	}
	return entry.Status, nil
}

// BroadcastToFriends 把 actor 的新状态推给其完整好友列表。
// 逐个好友解析在线连接，单个失败只记日志继续。
func (s *PresenceService) BroadcastToFriends(ctx context.Context, actor model.Identity, status string) error {
	g, err := s.graphs.Get(ctx, actor.UserID)
	if err != nil {
		return err
	}
	frame := model.NewFrame(model.EventPresence, model.PresenceEvent{
		MemberID: actor.MemberID,
		Status:   status,
	})
	for memberID := range g.List {
		peer, err := s.users.GetByMemberID(ctx, memberID)
		if err != nil {
			logger.Warnf("[presence] resolve peer failed member=%s err=%v", memberID, err)
			continue
		}
		s.bc.Push(ctx, model.AreaSocial, peer.UserID, frame)
	}
	return nil
}

// BroadcastToPeer 把 actor 的状态单推给某个好友。
func (s *PresenceService) BroadcastToPeer(ctx context.Context, actor model.Identity, status, peerUserID string) {
	frame := model.NewFrame(model.EventPresence, model.PresenceEvent{
		MemberID: actor.MemberID,
		Status:   status,
	})
	s.bc.Push(ctx, model.AreaSocial, peerUserID, frame)
}
