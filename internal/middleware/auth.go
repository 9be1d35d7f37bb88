package middleware

import (
	"context"
	"errors"
	"strings"

	"github.com/School-Mate/School-Mate-Backend-sub000/internal/model"
	"github.com/School-Mate/School-Mate-Backend-sub000/internal/pkg"

	"github.com/gin-gonic/gin"
)

const (
	ContextUserIDKey  = "user_id"
	ContextAdminIDKey = "admin_id"
	ContextAdminKey   = "admin"
)

// AdminLoader 按 id 读取管理员（权限位随时可能被修改，每次请求都查）
type AdminLoader interface {
	Admin(ctx context.Context, id uint64) (*model.Admin, error)
}

// tokenFrom 先取 Authorization cookie，再取 Bearer 头
func tokenFrom(c *gin.Context) string {
	if v, err := c.Cookie(pkg.CookieName); err == nil && v != "" {
		return v
	}
	parts := strings.SplitN(c.GetHeader("Authorization"), " ", 2)
	if len(parts) == 2 && strings.EqualFold(parts[0], "Bearer") {
		return strings.TrimSpace(parts[1])
	}
	return ""
}

func abort(c *gin.Context, err error) {
	_ = c.Error(err)
	c.Abort()
}

func tokenError(err error) error {
	if errors.Is(err, pkg.ErrTokenExpired) {
		return pkg.Unauthorized("로그인이 만료되었습니다.")
	}
	return pkg.Unauthorized("유효하지 않은 토큰입니다.")
}

func Auth(tokens *pkg.TokenIssuer) gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenStr := tokenFrom(c)
		if tokenStr == "" {
			abort(c, pkg.Unauthorized("로그인이 필요합니다."))
			return
		}
		claims, err := tokens.Parse(tokenStr, pkg.KindUser)
		if err != nil {
			abort(c, tokenError(err))
			return
		}
		// 注入 user_id
		c.Set(ContextUserIDKey, claims.ID)
		c.Next()
	}
}

// OptionalAuth 公开接口：带合法令牌时注入 user_id，否则按游客处理
func OptionalAuth(tokens *pkg.TokenIssuer) gin.HandlerFunc {
	return func(c *gin.Context) {
		if tokenStr := tokenFrom(c); tokenStr != "" {
			if claims, err := tokens.Parse(tokenStr, pkg.KindUser); err == nil {
				c.Set(ContextUserIDKey, claims.ID)
			}
		}
		c.Next()
	}
}

func AdminAuth(tokens *pkg.TokenIssuer, admins AdminLoader) gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenStr := tokenFrom(c)
		if tokenStr == "" {
			abort(c, pkg.Unauthorized("관리자 인증이 필요합니다."))
			return
		}
		claims, err := tokens.Parse(tokenStr, pkg.KindAdmin)
		if err != nil {
			abort(c, tokenError(err))
			return
		}
		admin, err := admins.Admin(c.Request.Context(), claims.ID)
		if err != nil {
			abort(c, err)
			return
		}
		c.Set(ContextAdminIDKey, admin.ID)
		c.Set(ContextAdminKey, admin)
		c.Next()
	}
}

// RequirePerm 必须放在 AdminAuth 之后
func RequirePerm(perm int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		v, _ := c.Get(ContextAdminKey)
		admin, ok := v.(*model.Admin)
		if !ok || !admin.Can(perm) {
			abort(c, pkg.Forbidden("권한이 없습니다."))
			return
		}
		c.Next()
	}
}

func UserID(c *gin.Context) uint64 {
	return c.GetUint64(ContextUserIDKey)
}

func AdminID(c *gin.Context) uint64 {
	return c.GetUint64(ContextAdminIDKey)
}
