package gateway

import (
	"sync"

	"github.com/gorilla/websocket"
)

// Client 一条 WebSocket 连接。同一用户可多端同时在线,
// 每条连接各自维护发送队列, 由单写协程消费。
type Client struct {
	ConnID   string          // 连接 ID (本网关内唯一)
	UserID   string          // 认证后绑定的内部用户 ID
	MemberID string          // 对外成员 ID
	Areas    []string        // 连接声明的区域
	WS       *websocket.Conn // 底层连接
	Send     chan []byte     // 出站队列
	quit     chan struct{}   // 关闭信号; Send 本身永不 close

	closeOnce sync.Once
}

func NewClient(connID string, ws *websocket.Conn, sendQueueSize int) *Client {
	return &Client{
		ConnID: connID,
		WS:     ws,
		Send:   make(chan []byte, sendQueueSize),
		quit:   make(chan struct{}),
	}
}

// Bind 认证成功后填充身份与区域。
func (c *Client) Bind(userID, memberID string, areas []string) {
	c.UserID = userID
	c.MemberID = memberID
	c.Areas = areas
}

func (c *Client) Authed() bool { return c.UserID != "" }

func (c *Client) InArea(area string) bool {
	for _, a := range c.Areas {
		if a == area {
			return true
		}
	}
	return false
}

// CloseSend 幂等发出关闭信号, 写协程随之退出。
// 只关 quit 不关 Send: 扇出 worker 和断连可能并发,
// 竞态中的入队最多落进无人消费的缓冲, 不会炸在已关闭的通道上。
func (c *Client) CloseSend() {
	c.closeOnce.Do(func() { close(c.quit) })
}

// Closing 关闭信号只读视图。
func (c *Client) Closing() <-chan struct{} { return c.quit }
