package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/dushixiang/augur/internal/metrics"
	"github.com/dushixiang/augur/internal/namecache"
	"github.com/dushixiang/augur/pkg/marketdata"
	"go.uber.org/zap"
)

// namedSource 带来源标签的名称查询
type namedSource struct {
	label   string
	markets map[marketdata.Market]bool // 为空表示全部市场
	source  marketdata.NameSource
}

// NameService 标的名称解析：缓存、内置目录、在线数据源，最后使用默认名称
type NameService struct {
	logger  *zap.Logger
	store   namecache.Store
	sources []namedSource
	metrics *metrics.Metrics
}

// NewNameService 创建名称解析服务
func NewNameService(logger *zap.Logger, store namecache.Store, catalog *marketdata.Catalog,
	yahoo *marketdata.Yahoo, binance *marketdata.Binance, m *metrics.Metrics) *NameService {
	s := &NameService{logger: logger, store: store, metrics: m}
	s.AddSource("catalog", catalog)
	s.AddSource("yahoo", yahoo, marketdata.MarketA, marketdata.MarketUS, marketdata.MarketHK, marketdata.MarketGlobal)
	s.AddSource("binance", binance, marketdata.MarketCrypto)
	return s
}

// AddSource 追加名称来源，按添加顺序查询
func (s *NameService) AddSource(label string, source marketdata.NameSource, markets ...marketdata.Market) {
	if source == nil {
		return
	}
	ns := namedSource{label: label, source: source}
	if len(markets) > 0 {
		ns.markets = make(map[marketdata.Market]bool, len(markets))
		for _, m := range markets {
			ns.markets[m] = true
		}
	}
	s.sources = append(s.sources, ns)
}

// DefaultName 无法解析时的默认名称
func DefaultName(code string, market marketdata.Market) string {
	return fmt.Sprintf("%s-%s", market, code)
}

// Resolve 解析名称，永不失败
func (s *NameService) Resolve(ctx context.Context, code string, market marketdata.Market) string {
	code = strings.TrimSpace(code)
	marketKey := string(market)

	if s.store != nil {
		name, ok, err := s.store.Get(ctx, marketKey, code)
		if err != nil {
			s.logger.Warn("name cache read failed", zap.String("code", code), zap.String("market", marketKey), zap.Error(err))
		} else if ok && name != "" {
			s.metrics.IncNameLookup("cache")
			return name
		}
	}

	for _, src := range s.sources {
		if src.markets != nil && !src.markets[market] {
			continue
		}
		name, err := src.source.LookupName(ctx, code, market)
		if err != nil {
			var unsupported *marketdata.UnsupportedMarketError
			if !errors.As(err, &unsupported) {
				s.logger.Warn("name lookup failed",
					zap.String("source", src.label),
					zap.String("code", code),
					zap.String("market", marketKey),
					zap.Error(err),
				)
			}
			continue
		}
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}

		s.metrics.IncNameLookup(src.label)
		if s.store != nil {
			if err := s.store.Put(ctx, marketKey, code, name); err != nil {
				s.logger.Warn("name cache write failed", zap.String("code", code), zap.String("market", marketKey), zap.Error(err))
			}
		}
		return name
	}

	s.metrics.IncNameLookup("default")
	return DefaultName(code, market)
}
