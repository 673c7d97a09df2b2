package gateway

import (
	"context"
	"net"
	"net/http"
	"time"

	"PSocial/logger"
	"PSocial/module/social/model"
	"PSocial/tools/ids"
	"PSocial/tools/safe"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  4096,
	WriteBufferSize: 4096,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

const (
	pingInterval   = 25 * time.Second
	writeWait      = 10 * time.Second
	pongWait       = 75 * time.Second
	firstPingDelay = 5 * time.Second
)

// HandleWS ===== WebSocket 入口 =====
// 读循环只读不写, 出错即退; 写协程独占底层连接的写端并负责收尾。
func (s *Server) HandleWS(c *gin.Context) {
	ws, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		logger.Infof("[HandleWS] upgrade websocket error: %v", err)
		return
	}

	client := NewClient(ids.GenerateString(), ws, s.cfg.SendQueueSize)
	done := make(chan struct{})
	safe.SafeGo(func() { s.writePump(client, done) })

	s.Reply(client, BuildConnAck(client.ConnID, s.GwID()))

	_ = ws.SetReadDeadline(time.Now().Add(pongWait))
	ws.SetPongHandler(func(string) error {
		return ws.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		mt, data, rerr := ws.ReadMessage()
		if rerr != nil {
			if websocket.IsCloseError(rerr,
				websocket.CloseNormalClosure,
				websocket.CloseGoingAway,
				websocket.CloseNoStatusReceived,
			) {
				logger.Infof("[WS] peer closed conn=%s err=%v", client.ConnID, rerr)
			} else if ne, ok := rerr.(net.Error); ok && ne.Timeout() {
				logger.Infof("[WS] read timeout conn=%s err=%v", client.ConnID, rerr)
			} else {
				logger.Infof("[WS] read err conn=%s err=%v", client.ConnID, rerr)
			}
			break
		}
		if mt != websocket.TextMessage && mt != websocket.BinaryMessage {
			continue
		}

		frame, perr := ParseFrame(data)
		if perr != nil {
			sample := data
			if len(sample) > 256 {
				sample = sample[:256]
			}
			logger.Infof("[WS] parse frame err conn=%s err=%v sample=%q", client.ConnID, perr, sample)
			continue
		}

		// 未认证连接只接受 auth 帧
		if !client.Authed() && frame.Type != FrameAuth {
			s.Reply(client, BuildError(http.StatusUnauthorized, "authenticate first"))
			continue
		}

		h := s.disp.GetHandler(frame.Type)
		if h == nil {
			logger.Infof("[WS] no handler for frame type=%s conn=%s", frame.Type, client.ConnID)
			continue
		}
		if err := h.Handle(&Context{S: s}, frame, client); err != nil {
			logger.Infof("[WS] handler err type=%s conn=%s err=%v", frame.Type, client.ConnID, err)
		}
	}

	s.teardown(client)
	<-done // 等写协程真正关闭 ws
}

// teardown 摘除注册表并在最后一条 social 连接断开时广播离线。
func (s *Server) teardown(client *Client) {
	defer client.CloseSend()
	if !client.Authed() {
		return
	}
	lastSocial := s.reg.Remove(client)
	if !lastSocial {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	// 尽力而为: 广播失败由 TTL 过期兜底
	if err := s.presence.SetStatus(ctx, client.UserID, model.StatusOffline); err != nil {
		logger.Errorf("[WS] offline set failed user=%s err=%v", client.UserID, err)
		return
	}
	ident := model.Identity{UserID: client.UserID, MemberID: client.MemberID}
	if err := s.presence.BroadcastToFriends(ctx, ident, model.StatusOffline); err != nil {
		logger.Errorf("[WS] offline broadcast failed user=%s err=%v", client.UserID, err)
	}
}

// writePump 单写协程: 消费发送队列并维持心跳, 退出时关闭底层连接。
func (s *Server) writePump(c *Client, done chan struct{}) {
	ticker := time.NewTicker(pingInterval)
	first := time.NewTimer(firstPingDelay)
	defer func() {
		ticker.Stop()
		first.Stop()
		_ = c.WS.SetWriteDeadline(time.Now().Add(writeWait))
		_ = c.WS.WriteMessage(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
		_ = c.WS.Close()
		close(done)
		logger.Infof("[WS] closed conn=%s user=%s", c.ConnID, c.UserID)
	}()

	for {
		select {
		case <-c.quit:
			return

		case payload := <-c.Send:
			_ = c.WS.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.WS.WriteMessage(websocket.TextMessage, payload); err != nil {
				logger.Infof("[WS] write payload err conn=%s user=%s err=%v", c.ConnID, c.UserID, err)
				return
			}

		case <-first.C:
			_ = c.WS.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.WS.WriteControl(websocket.PingMessage, []byte("ping"), time.Now().Add(writeWait)); err != nil {
				logger.Infof("[WS] first ping err conn=%s err=%v", c.ConnID, err)
				return
			}

		case <-ticker.C:
			_ = c.WS.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.WS.WriteControl(websocket.PingMessage, []byte("ping"), time.Now().Add(writeWait)); err != nil {
				logger.Infof("[WS] ping err conn=%s user=%s err=%v", c.ConnID, c.UserID, err)
				return
			}
		}
	}
}
