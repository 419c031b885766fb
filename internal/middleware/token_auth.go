package middleware

import (
	"github.com/dushixiang/augur/internal/xe"
	"github.com/dushixiang/augur/pkg/nostd"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

// TokenAuthConfig API 令牌认证配置
type TokenAuthConfig struct {
	TokenHash string // bcrypt 哈希，为空时不校验
	Logger    *zap.Logger
}

// TokenAuth API 令牌认证中间件，令牌可来自请求头、查询参数或 Cookie
func TokenAuth(config TokenAuthConfig) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if config.TokenHash == "" {
				return next(c)
			}

			token := nostd.GetToken(c)
			if token == "" {
				config.Logger.Warn("api token missing",
					zap.String("path", c.Request().URL.Path),
					zap.String("remote_ip", c.RealIP()))
				return xe.ErrInvalidToken
			}

			if err := nostd.BcryptMatch([]byte(config.TokenHash), []byte(token)); err != nil {
				config.Logger.Warn("invalid api token",
					zap.String("path", c.Request().URL.Path),
					zap.String("remote_ip", c.RealIP()))
				return xe.ErrInvalidToken
			}

			return next(c)
		}
	}
}
