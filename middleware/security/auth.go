package security

import (
	"net/http"
	"strings"
	"sync"

	"PSocial/module/social/model"
	"PSocial/module/social/store"
	"PSocial/tools/errs"
	"PSocial/tools/security"

	"github.com/gin-gonic/gin"
)

// —— context key ——
const (
	CtxIdentityKey = "identity" // model.Identity
	CtxTokenKey    = "authorization"
)

type Options struct {
	JWT   security.Options
	Users store.UserStore

	HeaderToken               string // 默认 "authorization"
	EnableAuthorizationBearer bool   // 默认 true
}

var (
	mu   sync.RWMutex
	opts *Options
)

// Config 启动时装配一次。
func Config(o *Options) {
	if o.HeaderToken == "" {
		o.HeaderToken = "authorization"
	}
	mu.Lock()
	opts = o
	mu.Unlock()
}

func current() *Options {
	mu.RLock()
	defer mu.RUnlock()
	return opts
}

// Middleware 校验令牌并把已认证身份写入 gin context。
// 令牌 sub 为对外 member_id, 内部身份由用户档案解出。
func Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		o := current()
		if o == nil || o.Users == nil {
			abort(c, errs.ErrInternalServer.Code(), "auth middleware not configured")
			return
		}

		token := strings.TrimSpace(c.GetHeader(o.HeaderToken))
		if token == "" && o.EnableAuthorizationBearer {
			if authz := strings.TrimSpace(c.GetHeader("Authorization")); authz != "" {
				if strings.HasPrefix(strings.ToLower(authz), "bearer ") {
					token = strings.TrimSpace(authz[len("bearer "):])
				}
			}
		}
		if token == "" {
			abort(c, errs.ErrTokenNotExist.Code(), "missing token")
			return
		}

		claims, err := security.Verify(o.JWT, token, "")
		if err != nil {
			abort(c, errs.ErrTokenInvalid.Code(), "invalid token")
			return
		}
		user, err := o.Users.GetByMemberID(c.Request.Context(), claims.UserID())
		if err != nil {
			abort(c, errs.ErrTokenUnauthorized.Code(), "unknown account")
			return
		}

		c.Set(CtxTokenKey, token)
		c.Set(CtxIdentityKey, user.Identity())
		c.Next()
	}
}

// IdentityFrom 读取中间件写入的身份。
func IdentityFrom(c *gin.Context) (model.Identity, bool) {
	v, ok := c.Get(CtxIdentityKey)
	if !ok {
		return model.Identity{}, false
	}
	ident, ok := v.(model.Identity)
	return ident, ok
}

func abort(c *gin.Context, code int, msg string) {
	c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"code": code, "msg": msg, "data": nil})
}
