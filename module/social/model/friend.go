package model

import (
	"time"
)

// 关系对的状态：none -> pending -> {list, none}，不存在其他状态。
const (
	RelationNone    = "none"
	RelationPending = "pending"
	RelationList    = "list"
)

// FriendRef 好友关系里存的对外最小凭据。
type FriendRef struct {
	MemberID string `bson:"member_id" json:"member_id"`
	Username string `bson:"username" json:"username"`
}

// FriendGraph 每用户一条的好友图档案，随账号创建/销毁。
// Pending 只存“收到的申请”（发起方视角由对端的 Pending 推导）。
// List 必须双向对称：A.List 含 B 则 B.List 必含 A，
// 对称性只能经事务提交后成立，绝不允许只写一半。
type FriendGraph struct {
	UserID  string               `bson:"user_id"`
	Pending map[string]FriendRef `bson:"pending"` // 对方 member_id -> 公开凭据
	List    map[string]FriendRef `bson:"list"`    // 对方 member_id -> 公开凭据

	UpdateTime time.Time `bson:"update_time"`
}

// NewFriendGraph 账号创建时的空档案。
func NewFriendGraph(userID string) *FriendGraph {
	return &FriendGraph{
		UserID:  userID,
		Pending: map[string]FriendRef{},
		List:    map[string]FriendRef{},
	}
}

// StateWith 返回本档案视角下与某 member 的关系状态。
func (g *FriendGraph) StateWith(memberID string) string {
	if g == nil {
		return RelationNone
	}
	if _, ok := g.List[memberID]; ok {
		return RelationList
	}
	if _, ok := g.Pending[memberID]; ok {
		return RelationPending
	}
	return RelationNone
}
