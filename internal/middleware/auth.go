package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	apperrors "github.com/wfunc/expo-garden/internal/errors"
	"github.com/wfunc/expo-garden/internal/models"
	"github.com/wfunc/expo-garden/internal/service"
)

// 上下文键
const (
	principalKey = "principal"
	tokenKey     = "token"
)

// Authenticator 访问令牌校验
type Authenticator interface {
	Authenticate(token string) (*service.Principal, error)
}

// AuthMiddleware JWT认证中间件
type AuthMiddleware struct {
	auth Authenticator
}

// NewAuthMiddleware 创建认证中间件
func NewAuthMiddleware(auth Authenticator) *AuthMiddleware {
	return &AuthMiddleware{auth: auth}
}

// RequireAuth 需要认证的中间件
func (m *AuthMiddleware) RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !m.authenticate(c) {
			return
		}
		c.Next()
	}
}

// OptionalAuth 可选认证的中间件，令牌无效时按游客处理
func (m *AuthMiddleware) OptionalAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		if token := ExtractToken(c); token != "" {
			if principal, err := m.auth.Authenticate(token); err == nil {
				c.Set(principalKey, principal)
				c.Set(tokenKey, token)
			}
		}
		c.Next()
	}
}

// RequireRole 需要特定角色的中间件
func (m *AuthMiddleware) RequireRole(roles ...models.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !m.authenticate(c) {
			return
		}

		principal := CurrentPrincipal(c)
		for _, role := range roles {
			if principal.Role == role {
				c.Next()
				return
			}
		}
		abort(c, apperrors.New(apperrors.ErrPermissionDenied))
	}
}

// authenticate 校验令牌并写入上下文，失败时中断请求
func (m *AuthMiddleware) authenticate(c *gin.Context) bool {
	token := ExtractToken(c)
	if token == "" {
		abort(c, apperrors.New(apperrors.ErrAuthentication, "缺少认证令牌"))
		return false
	}

	principal, err := m.auth.Authenticate(token)
	if err != nil {
		appErr, ok := apperrors.As(err)
		if !ok {
			appErr = apperrors.Wrap(err, apperrors.ErrTokenInvalid)
		}
		abort(c, appErr)
		return false
	}

	c.Set(principalKey, principal)
	c.Set(tokenKey, token)
	return true
}

func abort(c *gin.Context, err *apperrors.AppError) {
	out := *err
	out.Stack = nil
	status := out.HTTPStatus()
	if status == http.StatusInternalServerError {
		status = http.StatusUnauthorized
	}
	c.AbortWithStatusJSON(status, apperrors.NewErrorResponse(&out, c.GetHeader(RequestIDHeader)))
}

// CurrentPrincipal 当前认证用户，未认证时返回 nil
func CurrentPrincipal(c *gin.Context) *service.Principal {
	v, ok := c.Get(principalKey)
	if !ok {
		return nil
	}
	principal, _ := v.(*service.Principal)
	return principal
}

// CurrentUserID 当前用户ID，未认证时返回0
func CurrentUserID(c *gin.Context) uint {
	if p := CurrentPrincipal(c); p != nil {
		return p.UserID
	}
	return 0
}

// ExtractToken 从请求中提取令牌
//
// 依次查找 Authorization: Bearer、X-Access-Token 头和 token 查询参数，
// 浏览器 WebSocket 握手无法带自定义头，只能走查询参数。
func ExtractToken(c *gin.Context) string {
	if bearer := c.GetHeader("Authorization"); bearer != "" {
		parts := strings.SplitN(bearer, " ", 2)
		if len(parts) == 2 && strings.EqualFold(parts[0], "bearer") {
			return strings.TrimSpace(parts[1])
		}
	}

	if token := c.GetHeader("X-Access-Token"); token != "" {
		return token
	}

	return c.Query("token")
}
