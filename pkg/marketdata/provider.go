package marketdata

import (
	"context"
	"time"

	"github.com/dushixiang/augur/pkg/ohlcv"
)

// DefaultHistory 默认拉取的历史天数
const DefaultHistory = 365 * 24 * time.Hour

// Query 日线查询
type Query struct {
	Code   string
	Market Market
	Start  time.Time
	End    time.Time
}

// WithDefaults 未指定日期时使用截至今日的一年窗口
func (q Query) WithDefaults(now time.Time) Query {
	if q.End.IsZero() {
		q.End = now
	}
	if q.Start.IsZero() {
		q.Start = q.End.Add(-DefaultHistory)
	}
	return q
}

// Provider 日线数据源
type Provider interface {
	Name() string
	Fetch(ctx context.Context, q Query) (*ohlcv.Table, error)
}

// Lister 列出市场内的标的代码
type Lister interface {
	List(ctx context.Context, market Market) ([]string, error)
}

// NameSource 查询标的名称，未找到时返回空字符串
type NameSource interface {
	LookupName(ctx context.Context, code string, market Market) (string, error)
}
