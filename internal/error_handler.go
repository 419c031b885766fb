package internal

import (
	"errors"
	"net/http"

	"github.com/dushixiang/augur/internal/xe"
	"github.com/dushixiang/augur/pkg/marketdata"
	"github.com/dushixiang/augur/pkg/ohlcv"
	"github.com/go-orz/orz"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

// codedError 把分析链路中的错误映射为业务错误码与 HTTP 状态码，无法映射时 code 为 0
func codedError(err error) (code int, status int) {
	var (
		unsupported  *marketdata.UnsupportedMarketError
		insufficient *ohlcv.InsufficientDataError
		invalidCol   *ohlcv.InvalidColumnError
		retrieval    *marketdata.RetrievalError
	)
	switch {
	case errors.As(err, &unsupported):
		return xe.Code(xe.ErrUnsupportedMarket), http.StatusBadRequest
	case errors.As(err, &insufficient):
		return xe.Code(xe.ErrInsufficientData), http.StatusUnprocessableEntity
	case errors.As(err, &invalidCol):
		return xe.Code(xe.ErrInvalidDataColumns), http.StatusBadGateway
	case errors.As(err, &retrieval):
		return xe.Code(xe.ErrRetrievalFailed), http.StatusBadGateway
	}

	if code := xe.Code(err); code != 0 {
		if errors.Is(err, xe.ErrInvalidToken) {
			return code, http.StatusUnauthorized
		}
		return code, http.StatusBadRequest
	}
	return 0, http.StatusInternalServerError
}

func WithErrorHandler(logger *zap.Logger) func(next echo.HandlerFunc) echo.HandlerFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if err := next(c); err != nil {
				var he *echo.HTTPError
				if errors.As(err, &he) {
					return c.JSON(he.Code, orz.Map{
						"code":    he.Code,
						"message": err.Error(),
					})
				}

				if code, status := codedError(err); code != 0 {
					if status >= http.StatusInternalServerError {
						logger.Warn("api", zap.String("path", c.Path()), zap.Error(err))
					}
					return c.JSON(status, orz.Map{
						"code":    code,
						"message": err.Error(),
					})
				}

				logger.Error("api", zap.String("path", c.Path()), zap.Error(err))

				return c.JSON(http.StatusInternalServerError, orz.Map{
					"code":    xe.Code(xe.ErrAnalysisFailed),
					"message": err.Error(),
				})
			}
			return nil
		}
	}
}
