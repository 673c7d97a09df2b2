package model

import (
	"sort"
	"time"
)

// 通知分类
const (
	CategoryNews    = "news"
	CategorySystem  = "system"
	CategoryGeneral = "general"
)

// 通知类型。friend_request 不落普通分类，只在 FriendRequests 里存发起方身份。
const (
	TypeFriendRequest  = "friend_request"
	TypeFriendDeclined = "friend_declined"
	TypeFriendRemoved  = "friend_removed"
	TypeNews           = "news"
	TypeSystem         = "system"
	TypeGeneral        = "general"
)

// CategoryOf 类型到分类的映射；未知类型落 general。
func CategoryOf(typ string) string {
	switch typ {
	case TypeNews:
		return CategoryNews
	case TypeSystem:
		return CategorySystem
	default:
		return CategoryGeneral
	}
}

// Categories 静态已知的通知分类集合。
var Categories = []string{CategoryNews, CategorySystem, CategoryGeneral}

type Notification struct {
	NotificationID string    `bson:"notification_id" json:"notification_id"`
	Type           string    `bson:"type" json:"type"`
	Title          string    `bson:"title" json:"title"`
	Message        string    `bson:"message" json:"message"`
	Link           string    `bson:"link,omitempty" json:"link,omitempty"`
	CreatedAt      time.Time `bson:"created_at" json:"created_at"`
}

// NotificationRecord 每用户一条的通知档案。
// FriendRequests 是好友申请的持久化半边，必须与对端 FriendGraph.Pending 保持一致。
type NotificationRecord struct {
	UserID  string         `bson:"user_id"`
	News    []Notification `bson:"news"`
	System  []Notification `bson:"system"`
	General []Notification `bson:"general"`

	FriendRequests []FriendRef `bson:"friend_requests"` // 只存发起方身份

	UpdateTime time.Time `bson:"update_time"`
}

func NewNotificationRecord(userID string) *NotificationRecord {
	return &NotificationRecord{
		UserID:         userID,
		News:           []Notification{},
		System:         []Notification{},
		General:        []Notification{},
		FriendRequests: []FriendRef{},
	}
}

// Category 按名字取分类切片。
func (r *NotificationRecord) Category(name string) []Notification {
	switch name {
	case CategoryNews:
		return r.News
	case CategorySystem:
		return r.System
	case CategoryGeneral:
		return r.General
	}
	return nil
}

// Categorized 各分类独立按创建时间倒序。
func (r *NotificationRecord) Categorized() map[string][]Notification {
	out := make(map[string][]Notification, len(Categories))
	for _, c := range Categories {
		ns := append([]Notification(nil), r.Category(c)...)
		sortByCreatedDesc(ns)
		out[c] = ns
	}
	return out
}

// Flattened 三个分类合并后整体按创建时间倒序。
func (r *NotificationRecord) Flattened() []Notification {
	out := make([]Notification, 0, len(r.News)+len(r.System)+len(r.General))
	out = append(out, r.News...)
	out = append(out, r.System...)
	out = append(out, r.General...)
	sortByCreatedDesc(out)
	return out
}

// HasFriendRequestFrom 是否存在某 member 的待处理申请。
func (r *NotificationRecord) HasFriendRequestFrom(memberID string) bool {
	for _, ref := range r.FriendRequests {
		if ref.MemberID == memberID {
			return true
		}
	}
	return false
}

func sortByCreatedDesc(ns []Notification) {
	sort.SliceStable(ns, func(i, j int) bool {
		return ns[i].CreatedAt.After(ns[j].CreatedAt)
	})
}
