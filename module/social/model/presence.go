package model

// 在线状态。offline 不落缓存：键不存在即离线。
const (
	StatusOnline  = "online"
	StatusAway    = "away"
	StatusOffline = "offline"
)

// ValidStatus 入站状态合法性（offline 合法，表示主动下线）。
func ValidStatus(s string) bool {
	switch s {
	case StatusOnline, StatusAway, StatusOffline:
		return true
	}
	return false
}

// PresenceEntry 缓存里的在线条目；TTL 到期自动消失。
type PresenceEntry struct {
	Status     string `json:"status"`
	LastActive int64  `json:"last_active"` // Unix 毫秒
}
