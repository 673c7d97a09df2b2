package model

import (
	"encoding/json"
	"time"
)

// 连接区域。跨切面的全量广播按这份静态清单逐一扇出，不做隐式发现。
const (
	AreaSocial = "social"
	AreaChat   = "chat"
)

var Areas = []string{AreaSocial, AreaChat}

// 推送帧类型
const (
	EventFriendAction = "friend"
	EventPresence     = "presence"
	EventNotification = "notification"
	EventFriendList   = "friend_list"
)

// 好友动作
const (
	ActionRequest = "request"
	ActionAdd     = "add"
	ActionDecline = "decline"
)

// Frame 下行帧：{"type":..., "ts":..., "data":{...}}
type Frame struct {
	Type string `json:"type"`
	Ts   int64  `json:"ts"`
	Data any    `json:"data,omitempty"`
}

func NewFrame(typ string, data any) *Frame {
	return &Frame{Type: typ, Ts: time.Now().UnixMilli(), Data: data}
}

func (f *Frame) Marshal() ([]byte, error) {
	return json.Marshal(f)
}

// FriendActionEvent 好友动作推送：{action_type, friend}
type FriendActionEvent struct {
	ActionType string    `json:"action_type"` // request|add|decline
	Friend     FriendRef `json:"friend"`
}

// PresenceEvent 在线状态推送，只带对外ID。
type PresenceEvent struct {
	MemberID string `json:"member_id"`
	Status   string `json:"status"`
}

// NotificationEvent 新通知推送。
type NotificationEvent struct {
	Notification Notification `json:"notification"`
}

// FriendListDelta 好友列表增量：
// {update:{list|pending: member_id->ref}} 或 {remove:{list|pending: member_id}}
type FriendListDelta struct {
	Update map[string]map[string]FriendRef `json:"update,omitempty"`
	Remove map[string]string               `json:"remove,omitempty"`
}

func DeltaUpdate(section string, ref FriendRef) *FriendListDelta {
	return &FriendListDelta{
		Update: map[string]map[string]FriendRef{
			section: {ref.MemberID: ref},
		},
	}
}

func DeltaRemove(section, memberID string) *FriendListDelta {
	return &FriendListDelta{
		Remove: map[string]string{section: memberID},
	}
}

// EventEnvelope 跨节点总线上的投递单元。
// OriginGateway 用来跳过自己发布又消费回来的事件。
type EventEnvelope struct {
	Area          string          `json:"area"`
	ToUserID      string          `json:"to_user_id"`
	OriginGateway string          `json:"origin_gateway"`
	Payload       json.RawMessage `json:"payload"`
}
