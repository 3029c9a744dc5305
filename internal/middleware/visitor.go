package middleware

import (
	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"newsroom/internal/identity"
	"newsroom/internal/kvstore"
)

const VisitorKey = "visitor_id"

// LoadVisitor 从会话中取出匿名访客标识，首次访问时生成并写入 cookie。
// 必须在 sessions 中间件之后注册。
// 每个请求的会话不同，解析器按请求创建；同一浏览器并发的首次请求可能各自生成标识，以最后写入的 cookie 为准。
func LoadVisitor(sessionKey string, log zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		resolver := identity.NewResolver(
			kvstore.NewSession(sessions.Default(c)),
			identity.WithKey(sessionKey),
		)
		id, err := resolver.GetUserIdentifier(c.Request.Context())
		if err != nil {
			// 标识无法保存时仍然可以浏览，只是不能回应
			log.Warn().Err(err).Str("path", c.Request.URL.Path).Msg("failed to resolve visitor")
		} else {
			c.Set(VisitorKey, id)
		}
		c.Next()
	}
}

// VisitorID 当前请求的访客标识，未解析时为空
func VisitorID(c *gin.Context) string {
	return c.GetString(VisitorKey)
}
