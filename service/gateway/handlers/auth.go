package handlers

import (
	"context"
	"net/http"
	"time"

	"PSocial/logger"
	"PSocial/module/social/model"
	"PSocial/service/gateway"
	"PSocial/tools/security"
)

type AuthHandler struct{}

func NewAuthHandler() gateway.Handler { return &AuthHandler{} }

func (h *AuthHandler) Type() string { return gateway.FrameAuth }

// Handle 校验令牌, 绑定身份与区域, 然后置为在线并通知好友。
// 失败回 error 帧但不断开, 客户端可换令牌重试。
func (h *AuthHandler) Handle(ctx *gateway.Context, f *gateway.ClientFrame, c *gateway.Client) error {
	// 已绑定的连接不允许换身份重认证, 否则注册表里会留下旧用户的脏条目
	if c.Authed() {
		ctx.S.Reply(c, gateway.BuildError(http.StatusConflict, "already authenticated"))
		return nil
	}
	ap, err := gateway.ExtractAuthPayload(f)
	if err != nil {
		ctx.S.Reply(c, gateway.BuildError(http.StatusBadRequest, "bad auth payload"))
		return err
	}

	claims, err := security.Verify(ctx.S.JWTOpts(), ap.Token, "")
	if err != nil {
		logger.Infof("[auth] verify token err conn=%s: %v", c.ConnID, err)
		ctx.S.Reply(c, gateway.BuildError(http.StatusUnauthorized, "invalid token"))
		return nil
	}

	rctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	user, err := ctx.S.Users().GetByMemberID(rctx, claims.UserID())
	if err != nil {
		logger.Infof("[auth] load user err member=%s conn=%s: %v", claims.UserID(), c.ConnID, err)
		ctx.S.Reply(c, gateway.BuildError(http.StatusUnauthorized, "unknown account"))
		return nil
	}

	areas := normalizeAreas(ap.Areas)
	if len(areas) == 0 {
		ctx.S.Reply(c, gateway.BuildError(http.StatusBadRequest, "no valid area"))
		return nil
	}

	c.Bind(user.UserID, user.MemberID, areas)
	ctx.S.Registry().Add(c)

	if err := ctx.S.Presence().SetStatus(rctx, user.UserID, model.StatusOnline); err != nil {
		logger.Errorf("[auth] presence online failed user=%s: %v", user.UserID, err)
	} else if err := ctx.S.Presence().BroadcastToFriends(rctx, user.Identity(), model.StatusOnline); err != nil {
		logger.Errorf("[auth] online broadcast failed user=%s: %v", user.UserID, err)
	}

	ctx.S.Reply(c, gateway.BuildAuthAck(c))
	logger.Infof("[auth] bound member=%s conn=%s areas=%v", user.MemberID, c.ConnID, areas)
	return nil
}

// normalizeAreas 去掉未知区域; 客户端没报就默认全部。
func normalizeAreas(in []string) []string {
	if len(in) == 0 {
		return append([]string(nil), model.Areas...)
	}
	out := make([]string, 0, len(in))
	for _, a := range in {
		for _, known := range model.Areas {
			if a == known {
				out = append(out, a)
				break
			}
		}
	}
	return out
}
