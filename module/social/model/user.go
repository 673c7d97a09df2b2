package model

import (
	"time"
)

// User 用户主档。UserID 为内部主键（不可变，不外泄），
// 任何对外消息只允许带 MemberID。
type User struct {
	UserID   string `bson:"user_id" json:"-"`
	MemberID string `bson:"member_id" json:"member_id"`
	Username string `bson:"username" json:"username"`
	FaceURL  string `bson:"face_url,omitempty" json:"face_url,omitempty"`

	// 已验证账号才能收好友申请; Blocked 是拉黑的 member_id 清单
	Verified bool     `bson:"verified" json:"verified"`
	Blocked  []string `bson:"blocked,omitempty" json:"-"`

	CreateTime time.Time `bson:"create_time" json:"-"`
	UpdateTime time.Time `bson:"update_time" json:"-"`
}

// Identity 会话层给到的已认证身份；本子系统完全信任它。
type Identity struct {
	UserID   string
	MemberID string
	Username string
	Verified bool
}

func (u *User) Identity() Identity {
	return Identity{
		UserID:   u.UserID,
		MemberID: u.MemberID,
		Username: u.Username,
		Verified: u.Verified,
	}
}

// Ref 取对外公开的最小凭据。
func (u *User) Ref() FriendRef {
	return FriendRef{MemberID: u.MemberID, Username: u.Username}
}

func (u *User) HasBlocked(memberID string) bool {
	for _, m := range u.Blocked {
		if m == memberID {
			return true
		}
	}
	return false
}

func (i Identity) Ref() FriendRef {
	return FriendRef{MemberID: i.MemberID, Username: i.Username}
}
