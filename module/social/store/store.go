package store

import (
	"context"

	"PSocial/module/social/model"
)

// 存储抽象：生产实现 Mongo；内存实现见 mem.go（单测用）。
// 所有写方法都必须可以跑在事务 ctx 里（ctx 带会话时写入同一事务）。

type UserStore interface {
	Create(ctx context.Context, u *model.User) error
	GetByUserID(ctx context.Context, userID string) (*model.User, error)
	GetByMemberID(ctx context.Context, memberID string) (*model.User, error)
}

type FriendGraphStore interface {
	Init(ctx context.Context, userID string) error
	Get(ctx context.Context, userID string) (*model.FriendGraph, error)

	AddPending(ctx context.Context, userID string, ref model.FriendRef) error
	RemovePending(ctx context.Context, userID, memberID string) error
	AddFriend(ctx context.Context, userID string, ref model.FriendRef) error
	RemoveFriend(ctx context.Context, userID, memberID string) error
}

type NotificationStore interface {
	Init(ctx context.Context, userID string) error
	Get(ctx context.Context, userID string) (*model.NotificationRecord, error)

	Append(ctx context.Context, userID, category string, n model.Notification) error
	// Delete 单次批量写删除一个分类下的多条通知。
	Delete(ctx context.Context, userID, category string, ids []string) error

	AddFriendRequest(ctx context.Context, userID string, ref model.FriendRef) error
	RemoveFriendRequest(ctx context.Context, userID, memberID string) error
}
