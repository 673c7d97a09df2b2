package handlers

import (
	"context"
	"net/http"
	"time"

	"PSocial/module/social/model"
	"PSocial/service/gateway"
)

type StatusHandler struct{}

func NewStatusHandler() gateway.Handler { return &StatusHandler{} }

func (h *StatusHandler) Type() string { return gateway.FrameStatus }

// Handle 客户端主动切换状态 (online/away/offline), 写缓存后广播给好友。
func (h *StatusHandler) Handle(ctx *gateway.Context, f *gateway.ClientFrame, c *gateway.Client) error {
	sp, err := gateway.ExtractStatusPayload(f)
	if err != nil {
		ctx.S.Reply(c, gateway.BuildError(http.StatusBadRequest, "bad status payload"))
		return err
	}
	if !model.ValidStatus(sp.Status) {
		ctx.S.Reply(c, gateway.BuildError(http.StatusBadRequest, "unknown status"))
		return nil
	}

	rctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := ctx.S.Presence().SetStatus(rctx, c.UserID, sp.Status); err != nil {
		ctx.S.Reply(c, gateway.BuildError(http.StatusInternalServerError, "status update failed"))
		return err
	}
	ident := model.Identity{UserID: c.UserID, MemberID: c.MemberID}
	_ = ctx.S.Presence().BroadcastToFriends(rctx, ident, sp.Status)
	return nil
}
