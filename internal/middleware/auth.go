package middleware

import (
	stderrors "errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/dumeirei/hotel-booking-backend/internal/common/errors"
	"github.com/dumeirei/hotel-booking-backend/internal/common/jwt"
	"github.com/dumeirei/hotel-booking-backend/internal/common/response"
)

// 上下文键
const (
	ContextKeyUserID = "user_id"
	ContextKeyRole   = "role"
)

// QueryToken 凭证接口携带令牌的查询参数
const QueryToken = "token"

// Auth 校验访问令牌，roles 非空时只放行其中的角色
func Auth(jwtManager *jwt.Manager, roles ...string) gin.HandlerFunc {
	return authenticate(jwtManager, headerToken, roles)
}

// VoucherAuth 凭证图片由 <img> 直接加载无法带请求头，额外接受 ?token=
func VoucherAuth(jwtManager *jwt.Manager) gin.HandlerFunc {
	return authenticate(jwtManager, headerOrQueryToken, []string{jwt.RoleUser, jwt.RoleAdmin})
}

func authenticate(jwtManager *jwt.Manager, extract func(*gin.Context) string, roles []string) gin.HandlerFunc {
	allowed := make(map[string]struct{}, len(roles))
	for _, r := range roles {
		allowed[r] = struct{}{}
	}

	return func(c *gin.Context) {
		token := extract(c)
		if token == "" {
			response.Abort(c, http.StatusUnauthorized, errors.ErrUnauthorized.Code, "请先登录")
			return
		}

		claims, err := jwtManager.ParseToken(token)
		switch {
		case err == nil:
		case stderrors.Is(err, jwt.ErrTokenExpired):
			response.Abort(c, http.StatusUnauthorized, errors.ErrTokenExpired.Code, "登录已过期，请重新登录")
			return
		default:
			response.Abort(c, http.StatusUnauthorized, errors.ErrTokenInvalid.Code, errors.ErrTokenInvalid.Message)
			return
		}

		if _, ok := allowed[claims.Role]; len(allowed) > 0 && !ok {
			response.Abort(c, http.StatusForbidden, errors.ErrPermissionDenied.Code, "无权访问")
			return
		}

		c.Set(ContextKeyUserID, claims.UserID)
		c.Set(ContextKeyRole, claims.Role)
		c.Next()
	}
}

// OptionalAuth 令牌有效时写入身份，无令牌或令牌无效时按游客处理
func OptionalAuth(jwtManager *jwt.Manager) gin.HandlerFunc {
	return func(c *gin.Context) {
		if token := headerToken(c); token != "" {
			if claims, err := jwtManager.ParseToken(token); err == nil {
				c.Set(ContextKeyUserID, claims.UserID)
				c.Set(ContextKeyRole, claims.Role)
			}
		}
		c.Next()
	}
}

// UserAuth 登录用户，管理员也可以访问
func UserAuth(jwtManager *jwt.Manager) gin.HandlerFunc {
	return Auth(jwtManager, jwt.RoleUser, jwt.RoleAdmin)
}

// AdminAuth 仅管理员
func AdminAuth(jwtManager *jwt.Manager) gin.HandlerFunc {
	return Auth(jwtManager, jwt.RoleAdmin)
}

// headerToken 读取 Authorization: Bearer
func headerToken(c *gin.Context) string {
	scheme, token, ok := strings.Cut(c.GetHeader("Authorization"), " ")
	if ok && strings.EqualFold(scheme, "bearer") {
		return strings.TrimSpace(token)
	}
	return ""
}

func headerOrQueryToken(c *gin.Context) string {
	if token := headerToken(c); token != "" {
		return token
	}
	return c.Query(QueryToken)
}

// GetUserID 当前用户 ID，未登录为 0
func GetUserID(c *gin.Context) int64 {
	return c.GetInt64(ContextKeyUserID)
}

// GetRole 当前角色
func GetRole(c *gin.Context) string {
	return c.GetString(ContextKeyRole)
}

// IsAdmin 当前请求是否为管理员
func IsAdmin(c *gin.Context) bool {
	return GetRole(c) == jwt.RoleAdmin
}
