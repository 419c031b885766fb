package xe

import (
	"errors"

	"github.com/go-orz/orz"
)

var (
	ErrInvalidParams      = orz.NewError(10400, "参数无效")
	ErrPermissionDenied   = orz.NewError(10401, "您没有权限访问此接口")
	ErrInvalidToken       = orz.NewError(10403, "令牌无效")
	ErrUnsupportedMarket  = orz.NewError(10411, "不支持的市场类型")
	ErrInsufficientData   = orz.NewError(10412, "历史数据不足")
	ErrRetrievalFailed    = orz.NewError(10413, "获取行情数据失败")
	ErrAnalysisFailed     = orz.NewError(10414, "分析失败")
	ErrInvalidDataColumns = orz.NewError(10415, "行情数据缺少必要字段")
)

// Code 错误链中第一个业务错误的错误码，没有时返回 0
func Code(err error) int {
	var oe *orz.Error
	if errors.As(err, &oe) {
		return int(oe.Code)
	}
	return 0
}
