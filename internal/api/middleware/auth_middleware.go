package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"resumebuilder/internal/auth"
)

// UserIDKey 是认证后写入 gin.Context 的用户 ID 键。
const UserIDKey = "userID"

// TokenValidator 校验访问令牌，auth.TokenService 满足该接口。
type TokenValidator interface {
	Validate(token string) (*auth.TokenClaims, error)
}

func abortUnauthorized(c *gin.Context) {
	c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
}

// AuthMiddleware 校验访问令牌并将 userID 注入上下文。
// 兼容浏览器端直接发送裸 token（无 Bearer 前缀）的写法。
func AuthMiddleware(tokens TokenValidator) gin.HandlerFunc {
	return func(c *gin.Context) {
		rawToken := BearerToken(c.GetHeader("Authorization"))
		if rawToken == "" {
			abortUnauthorized(c)
			return
		}

		claims, err := tokens.Validate(rawToken)
		if err != nil {
			abortUnauthorized(c)
			return
		}

		userID := claims.UserID
		if userID == "" {
			userID = claims.Subject
		}
		if userID == "" {
			abortUnauthorized(c)
			return
		}

		c.Set(UserIDKey, userID)
		c.Next()
	}
}

// BearerToken 从 Authorization 头中取出令牌。
func BearerToken(header string) string {
	parts := strings.Fields(header)
	switch {
	case len(parts) == 1:
		return parts[0]
	case len(parts) == 2 && strings.EqualFold(parts[0], "Bearer"):
		return parts[1]
	default:
		return ""
	}
}
