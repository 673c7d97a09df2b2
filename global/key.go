package global

// GetEventKey 事件键: 同一目标用户同一区域的事件落在同一分区, 保序。
func GetEventKey(area, userID string) string {
	return area + ":" + userID
}
