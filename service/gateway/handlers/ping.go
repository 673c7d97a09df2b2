package handlers

import (
	"context"
	"time"

	"PSocial/logger"
	"PSocial/service/gateway"
)

type PingHandler struct{}

func NewPingHandler() gateway.Handler { return &PingHandler{} }

func (h *PingHandler) Type() string { return gateway.FramePing }

// Handle 应用层心跳: 续期在线 TTL 并回 pong。
func (h *PingHandler) Handle(ctx *gateway.Context, _ *gateway.ClientFrame, c *gateway.Client) error {
	rctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := ctx.S.Presence().Touch(rctx, c.UserID); err != nil {
		logger.Infof("[ping] touch presence err user=%s: %v", c.UserID, err)
	}
	ctx.S.Reply(c, gateway.BuildPong())
	return nil
}
