package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/dushixiang/augur/internal/config"
	"github.com/dushixiang/augur/internal/metrics"
	"github.com/dushixiang/augur/pkg/marketdata"
	"github.com/dushixiang/augur/pkg/ohlcv"
	"go.uber.org/zap"
)

// MarketService 行情数据服务，按市场选择数据源
type MarketService struct {
	logger  *zap.Logger
	metrics *metrics.Metrics

	mu         sync.RWMutex
	providers  map[marketdata.Market]marketdata.Provider
	listers    map[marketdata.Market]marketdata.Lister
	watchlists map[marketdata.Market][]string

	historyDays int
	now         func() time.Time
}

func newMarketService(logger *zap.Logger, historyDays int, m *metrics.Metrics) *MarketService {
	if historyDays <= 0 {
		historyDays = 365
	}
	return &MarketService{
		logger:      logger,
		metrics:     m,
		providers:   make(map[marketdata.Market]marketdata.Provider),
		listers:     make(map[marketdata.Market]marketdata.Lister),
		watchlists:  make(map[marketdata.Market][]string),
		historyDays: historyDays,
		now:         time.Now,
	}
}

// NewMarketService 创建行情数据服务
// A股、美股、港股、国际期货走 Yahoo，国内期货走新浪，加密货币走 Binance。
func NewMarketService(logger *zap.Logger, conf *config.Config, yahoo *marketdata.Yahoo, sina *marketdata.Sina,
	binance *marketdata.Binance, catalog *marketdata.Catalog, m *metrics.Metrics) *MarketService {
	s := newMarketService(logger, conf.Analysis.HistoryDays, m)

	for _, market := range []marketdata.Market{marketdata.MarketA, marketdata.MarketUS, marketdata.MarketHK, marketdata.MarketGlobal} {
		s.Register(market, yahoo)
	}
	s.Register(marketdata.MarketCN, sina)
	s.Register(marketdata.MarketCrypto, binance)

	for _, market := range marketdata.Markets {
		s.RegisterLister(market, catalog)
	}
	s.RegisterLister(marketdata.MarketCrypto, binance)

	for name, codes := range conf.Markets {
		market, err := marketdata.ParseMarket(name)
		if err != nil {
			logger.Warn("ignoring watchlist for unknown market", zap.String("market", name))
			continue
		}
		s.SetWatchlist(market, codes)
	}
	return s
}

// Register 注册市场的数据源
func (s *MarketService) Register(market marketdata.Market, p marketdata.Provider) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.providers[market] = p
}

// RegisterLister 注册市场的代码列表来源
func (s *MarketService) RegisterLister(market marketdata.Market, l marketdata.Lister) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listers[market] = l
}

// SetWatchlist 设置自选列表，优先于内置目录
func (s *MarketService) SetWatchlist(market marketdata.Market, codes []string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(codes) == 0 {
		delete(s.watchlists, market)
		return
	}
	s.watchlists[market] = append([]string(nil), codes...)
}

// Provider 获取市场的数据源
func (s *MarketService) Provider(market marketdata.Market) (marketdata.Provider, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.providers[market]
	if !ok {
		return nil, &marketdata.UnsupportedMarketError{Market: string(market)}
	}
	return p, nil
}

// Fetch 拉取最近 historyDays 天的日线
func (s *MarketService) Fetch(ctx context.Context, code string, market marketdata.Market) (*ohlcv.Table, error) {
	p, err := s.Provider(market)
	if err != nil {
		return nil, err
	}

	end := s.now()
	q := marketdata.Query{
		Code:   code,
		Market: market,
		Start:  end.AddDate(0, 0, -s.historyDays),
		End:    end,
	}

	start := time.Now()
	tbl, err := p.Fetch(ctx, q)
	s.metrics.ObserveFetch(p.Name(), start)
	if err != nil {
		return nil, err
	}
	s.logger.Debug("fetched daily bars",
		zap.String("provider", p.Name()),
		zap.String("code", code),
		zap.String("market", string(market)),
		zap.Int("rows", tbl.Len()),
	)
	return tbl, nil
}

// List 市场的默认代码列表：自选列表，否则数据源或内置目录
func (s *MarketService) List(ctx context.Context, market marketdata.Market) ([]string, error) {
	s.mu.RLock()
	watchlist, hasWatchlist := s.watchlists[market]
	lister, hasLister := s.listers[market]
	s.mu.RUnlock()

	if hasWatchlist {
		return append([]string(nil), watchlist...), nil
	}
	if !hasLister {
		return nil, &marketdata.UnsupportedMarketError{Market: string(market)}
	}
	codes, err := lister.List(ctx, market)
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", market, err)
	}
	return codes, nil
}
