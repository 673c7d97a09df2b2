package gateway

import (
	"sync"

	"PSocial/module/social/model"
)

// Registry 按 (area, user, conn_id) 三级索引在线连接。
// 同一连接声明了多个区域时会出现在每个区域的索引里。
type Registry struct {
	mu     sync.RWMutex
	byArea map[string]map[string]map[string]*Client // area -> user -> conn_id -> client
	byConn map[string]*Client
	fan    *Fanout
}

func NewRegistry(fan *Fanout) *Registry {
	r := &Registry{
		byArea: make(map[string]map[string]map[string]*Client),
		byConn: make(map[string]*Client),
		fan:    fan,
	}
	for _, area := range model.Areas {
		r.byArea[area] = make(map[string]map[string]*Client)
	}
	return r
}

// Add 注册已绑定身份的连接。
func (r *Registry) Add(c *Client) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, area := range c.Areas {
		users, ok := r.byArea[area]
		if !ok {
			continue
		}
		m := users[c.UserID]
		if m == nil {
			m = make(map[string]*Client)
			users[c.UserID] = m
		}
		m[c.ConnID] = c
	}
	r.byConn[c.ConnID] = c
}

// Remove 摘除连接, 返回该用户在 social 区域是否已无剩余连接。
func (r *Registry) Remove(c *Client) (lastSocial bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, area := range c.Areas {
		users, ok := r.byArea[area]
		if !ok {
			continue
		}
		if m := users[c.UserID]; m != nil {
			delete(m, c.ConnID)
			if len(m) == 0 {
				delete(users, c.UserID)
			}
		}
	}
	delete(r.byConn, c.ConnID)
	if c.Authed() && c.InArea(model.AreaSocial) {
		lastSocial = len(r.byArea[model.AreaSocial][c.UserID]) == 0
	}
	return lastSocial
}

func (r *Registry) ListByUser(area, userID string) []*Client {
	r.mu.RLock()
	defer r.mu.RUnlock()
	users, ok := r.byArea[area]
	if !ok {
		return nil
	}
	m := users[userID]
	if len(m) == 0 {
		return nil
	}
	out := make([]*Client, 0, len(m))
	for _, c := range m {
		out = append(out, c)
	}
	return out
}

func (r *Registry) GetByConnID(connID string) *Client {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.byConn[connID]
}

// PushToUser 把负载投给某用户在某区域的全部连接, 返回投递连接数。
func (r *Registry) PushToUser(area, userID string, payload []byte) int {
	conns := r.ListByUser(area, userID)
	r.fan.Broadcast(conns, payload)
	return len(conns)
}

// ConnCount 调试/统计用。
func (r *Registry) ConnCount() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.byConn)
}
