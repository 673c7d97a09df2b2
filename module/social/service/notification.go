package service

import (
	"context"
	"time"

	"PSocial/module/social/model"
	"PSocial/module/social/store"
	"PSocial/tools/ids"
)

// NotificationService 先落库，再推送。
// silent 只是不做在线推送；落库与未读可见性不受影响。
type NotificationService struct {
	store store.NotificationStore
	bc    *Broadcaster

	clock func() time.Time
	newID func() string
}

func NewNotificationService(st store.NotificationStore, bc *Broadcaster) *NotificationService {
	return &NotificationService{
		store: st,
		bc:    bc,
		clock: time.Now,
		newID: ids.GenerateString,
	}
}

func (s *NotificationService) SetClock(clock func() time.Time) { s.clock = clock }

type EmitOptions struct {
	Silent bool // 只落库，不做在线推送
}

// Emit 给接收者追加一条通知；非 silent 时解析其在线连接推送。
// 无在线连接不算失败——通知已经持久化，等下次全量拉取。
func (s *NotificationService) Emit(ctx context.Context, recipientUserID string, n model.Notification, opts EmitOptions) (*model.Notification, error) {
	if n.NotificationID == "" {
		n.NotificationID = s.newID()
	}
	if n.CreatedAt.IsZero() {
		n.CreatedAt = s.clock()
	}
	if err := s.store.Append(ctx, recipientUserID, model.CategoryOf(n.Type), n); err != nil {
		return nil, err
	}
	if !opts.Silent {
		// 通知不分区域: 接收者连在哪个区域都要收到
		frame := model.NewFrame(model.EventNotification, model.NotificationEvent{Notification: n})
		s.bc.PushAllAreas(ctx, recipientUserID, frame)
	}
	return &n, nil
}

// NotificationSet 删除/拉取后返回给客户端的重算结果，
// 两种取值模式只会填其一。
type NotificationSet struct {
	Categorized map[string][]model.Notification `json:"categorized,omitempty"`
	Flattened   []model.Notification            `json:"flattened,omitempty"`

	FriendRequests []model.FriendRef `json:"friend_requests"`
}

// Fetch 拉取通知集；flatten 控制分类独立排序还是全局合并排序。
func (s *NotificationService) Fetch(ctx context.Context, userID string, flatten bool) (*NotificationSet, error) {
	rec, err := s.store.Get(ctx, userID)
	if err != nil {
		return nil, err
	}
	out := &NotificationSet{FriendRequests: rec.FriendRequests}
	if out.FriendRequests == nil {
		out.FriendRequests = []model.FriendRef{}
	}
	if flatten {
		out.Flattened = rec.Flattened()
	} else {
		out.Categorized = rec.Categorized()
	}
	return out, nil
}

// Delete 单次批量写删掉一个分类下的多条通知，
// 然后把重算后的集合直接带回，客户端不用二次拉取。
func (s *NotificationService) Delete(ctx context.Context, userID, category string, notificationIDs []string, flatten bool) (*NotificationSet, error) {
	if err := s.store.Delete(ctx, userID, category, notificationIDs); err != nil {
		return nil, err
	}
	return s.Fetch(ctx, userID, flatten)
}
