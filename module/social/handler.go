package social

import (
	"net/http"

	"PSocial/middleware"
	midsec "PSocial/middleware/security"
	"PSocial/module/social/model"
	"PSocial/module/social/service"
	"PSocial/tools/errs"
	"PSocial/tools/security"
	"PSocial/tools/specialerror"

	"github.com/gin-gonic/gin"
)

// ===== HTTP 动作面 =====

// Handler 聚合动作面依赖的业务服务。
type Handler struct {
	accounts *service.AccountService
	friends  *service.FriendService
	notify   *service.NotificationService
	presence *service.PresenceService
	jwt      security.Options
}

func NewHandler(
	accounts *service.AccountService,
	friends *service.FriendService,
	notify *service.NotificationService,
	presence *service.PresenceService,
	jwt security.Options,
) *Handler {
	return &Handler{
		accounts: accounts,
		friends:  friends,
		notify:   notify,
		presence: presence,
		jwt:      jwt,
	}
}

// Register 挂路由。账号开通与发令牌不走认证, 其余都要身份。
func (h *Handler) Register(r gin.IRoutes) {
	auth := middleware.RouteOpt{IsAuth: true}
	open := middleware.RouteOpt{}

	middleware.POST(r, "/api/account/create", h.CreateAccount, open)
	middleware.POST(r, "/api/auth/token", h.IssueToken, open)

	middleware.POST(r, "/api/friend/request", h.FriendRequest, auth)
	middleware.POST(r, "/api/friend/accept", h.FriendAccept, auth)
	middleware.POST(r, "/api/friend/decline", h.FriendDecline, auth)
	middleware.POST(r, "/api/friend/remove", h.FriendRemove, auth)
	middleware.GET(r, "/api/friend/list", h.FriendList, auth)

	middleware.GET(r, "/api/notifications", h.Notifications, auth)
	middleware.POST(r, "/api/notifications/delete", h.NotificationsDelete, auth)

	middleware.POST(r, "/api/presence/status", h.PresenceSet, auth)
	middleware.GET(r, "/api/presence", h.PresenceGet, auth)
}

// ---- 应答封套 ----

func ok(c *gin.Context, data any) {
	c.JSON(http.StatusOK, gin.H{"code": 0, "msg": "ok", "data": data})
}

func fail(c *gin.Context, err error) {
	codeErr := specialerror.ErrCode(err)
	c.JSON(httpStatusOf(codeErr.Code()), gin.H{
		"code": codeErr.Code(),
		"msg":  codeErr.Msg(),
		"data": nil,
	})
}

// httpStatusOf 业务码区间到 HTTP 状态的映射。
func httpStatusOf(code int) int {
	switch {
	case code == errs.ArgsError:
		return http.StatusBadRequest
	case code == errs.NoPermissionError:
		return http.StatusForbidden
	case code == errs.DuplicateKeyError:
		return http.StatusConflict
	case code == errs.RecordNotFoundError:
		return http.StatusNotFound
	case code >= 1500 && code < 1600:
		return http.StatusUnauthorized
	default:
		return http.StatusInternalServerError
	}
}

func identity(c *gin.Context) (model.Identity, bool) {
	ident, ok := midsec.IdentityFrom(c)
	if !ok {
		fail(c, errs.ErrTokenUnauthorized.WrapMsg("identity missing"))
	}
	return ident, ok
}

// ---- 账号 ----

func (h *Handler) CreateAccount(c *gin.Context) {
	req := &service.CreateAccountReq{}
	if err := c.ShouldBindJSON(req); err != nil {
		fail(c, errs.ErrArgs.WrapMsg(err.Error()))
		return
	}
	u, err := h.accounts.CreateAccount(c.Request.Context(), req)
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, u)
}

type tokenReq struct {
	MemberID string `json:"member_id"`
}

// IssueToken 开发用登录: 给已知成员签发会话令牌。
func (h *Handler) IssueToken(c *gin.Context) {
	req := &tokenReq{}
	if err := c.ShouldBindJSON(req); err != nil || req.MemberID == "" {
		fail(c, errs.ErrArgs.WrapMsg("member_id required"))
		return
	}
	u, err := h.accounts.Lookup(c.Request.Context(), req.MemberID)
	if err != nil {
		fail(c, err)
		return
	}
	token, hash, expireAt, err := security.Generate(h.jwt, u.MemberID, nil)
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, gin.H{"token": token, "token_hash": hash, "expire_at": expireAt.UnixMilli()})
}

// ---- 好友 ----

type friendReq struct {
	MemberID string `json:"member_id"`
}

func (h *Handler) friendAction(c *gin.Context, action func(ident model.Identity, memberID string) error) {
	ident, okID := identity(c)
	if !okID {
		return
	}
	req := &friendReq{}
	if err := c.ShouldBindJSON(req); err != nil || req.MemberID == "" {
		fail(c, errs.ErrArgs.WrapMsg("member_id required"))
		return
	}
	if err := action(ident, req.MemberID); err != nil {
		fail(c, err)
		return
	}
	ok(c, nil)
}

func (h *Handler) FriendRequest(c *gin.Context) {
	h.friendAction(c, func(ident model.Identity, memberID string) error {
		return h.friends.Request(c.Request.Context(), ident, memberID)
	})
}

func (h *Handler) FriendAccept(c *gin.Context) {
	h.friendAction(c, func(ident model.Identity, memberID string) error {
		ctx := c.Request.Context()
		if err := h.friends.Accept(ctx, ident, memberID); err != nil {
			return err
		}
		// 新好友互见当前状态; 推送失败不影响接受结果
		if peer, err := h.accounts.Lookup(ctx, memberID); err == nil {
			if st, err := h.presence.Status(ctx, ident.UserID); err == nil && st != model.StatusOffline {
				h.presence.BroadcastToPeer(ctx, ident, st, peer.UserID)
			}
			if st, err := h.presence.Status(ctx, peer.UserID); err == nil && st != model.StatusOffline {
				h.presence.BroadcastToPeer(ctx, peer.Identity(), st, ident.UserID)
			}
		}
		return nil
	})
}

func (h *Handler) FriendDecline(c *gin.Context) {
	h.friendAction(c, func(ident model.Identity, memberID string) error {
		return h.friends.Decline(c.Request.Context(), ident, memberID)
	})
}

func (h *Handler) FriendRemove(c *gin.Context) {
	h.friendAction(c, func(ident model.Identity, memberID string) error {
		return h.friends.Unfriend(c.Request.Context(), ident, memberID)
	})
}

func (h *Handler) FriendList(c *gin.Context) {
	ident, okID := identity(c)
	if !okID {
		return
	}
	g, err := h.friends.Graph(c.Request.Context(), ident)
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, gin.H{"pending": g.Pending, "list": g.List})
}

// ---- 通知 ----

func (h *Handler) Notifications(c *gin.Context) {
	ident, okID := identity(c)
	if !okID {
		return
	}
	flatten := c.Query("mode") == "flat"
	set, err := h.notify.Fetch(c.Request.Context(), ident.UserID, flatten)
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, set)
}

type notifDeleteReq struct {
	Category        string   `json:"category"`
	NotificationIDs []string `json:"notification_ids"`
	Mode            string   `json:"mode"`
}

// NotificationsDelete 批量删除后返回重算的通知集。
func (h *Handler) NotificationsDelete(c *gin.Context) {
	ident, okID := identity(c)
	if !okID {
		return
	}
	req := &notifDeleteReq{}
	if err := c.ShouldBindJSON(req); err != nil {
		fail(c, errs.ErrArgs.WrapMsg(err.Error()))
		return
	}
	set, err := h.notify.Delete(c.Request.Context(), ident.UserID, req.Category, req.NotificationIDs, req.Mode == "flat")
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, set)
}

// ---- 在线状态 ----

type presenceReq struct {
	Status string `json:"status"`
}

func (h *Handler) PresenceSet(c *gin.Context) {
	ident, okID := identity(c)
	if !okID {
		return
	}
	req := &presenceReq{}
	if err := c.ShouldBindJSON(req); err != nil || !model.ValidStatus(req.Status) {
		fail(c, errs.ErrArgs.WrapMsg("status must be online/away/offline"))
		return
	}
	if err := h.presence.SetStatus(c.Request.Context(), ident.UserID, req.Status); err != nil {
		fail(c, err)
		return
	}
	// HTTP 改状态同样要让好友看到
	if err := h.presence.BroadcastToFriends(c.Request.Context(), ident, req.Status); err != nil {
		fail(c, err)
		return
	}
	ok(c, nil)
}

// PresenceGet 查好友当前状态; 非好友一律 forbidden。
func (h *Handler) PresenceGet(c *gin.Context) {
	ident, okID := identity(c)
	if !okID {
		return
	}
	memberID := c.Query("member_id")
	if memberID == "" {
		fail(c, errs.ErrArgs.WrapMsg("member_id required"))
		return
	}
	g, err := h.friends.Graph(c.Request.Context(), ident)
	if err != nil {
		fail(c, err)
		return
	}
	if g.StateWith(memberID) != model.RelationList {
		fail(c, errs.ErrNoPermission.WrapMsg("not a friend", "member_id", memberID))
		return
	}
	peer, err := h.accounts.Lookup(c.Request.Context(), memberID)
	if err != nil {
		fail(c, err)
		return
	}
	status, err := h.presence.Status(c.Request.Context(), peer.UserID)
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, gin.H{"member_id": memberID, "status": status})
}
