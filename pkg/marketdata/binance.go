package marketdata

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/adshao/go-binance/v2/futures"
	"github.com/dushixiang/augur/pkg/ohlcv"
	"github.com/guregu/null/v6"
	"github.com/spf13/cast"
)

const (
	binanceKlineLimit = 1500
	// 日级持仓量统计只保留最近 30 天
	binanceOpenInterestLimit = 30
	binanceSymbolTTL         = 30 * time.Minute
)

// BinanceOptions Binance 数据源选项
type BinanceOptions struct {
	BaseURL string
	Proxy   string
	Testnet bool

	// OnOpenInterestError 持仓量统计失败时回调，此时返回的表不含持仓量列
	OnOpenInterestError func(code string, err error)
}

// Binance Binance U 本位永续合约数据源
type Binance struct {
	client  *futures.Client
	onOIErr func(code string, err error)

	symbolLock    sync.RWMutex
	symbols       map[string]SymbolInfo
	symbolUpdated time.Time
}

// SymbolInfo 交易对信息
type SymbolInfo struct {
	Symbol     string
	BaseAsset  string
	QuoteAsset string
}

// NewBinance 创建 Binance 数据源，行情接口无需 API Key
func NewBinance(opts BinanceOptions) *Binance {
	if opts.Testnet {
		futures.UseTestnet = true
	}

	var client *futures.Client
	if opts.Proxy != "" {
		client = futures.NewProxiedClient("", "", opts.Proxy)
	} else {
		client = futures.NewClient("", "")
	}
	if opts.BaseURL != "" {
		client.BaseURL = strings.TrimRight(opts.BaseURL, "/")
	}

	return &Binance{
		client:  client,
		onOIErr: opts.OnOpenInterestError,
		symbols: make(map[string]SymbolInfo),
	}
}

func (b *Binance) Name() string { return "binance" }

// Fetch 拉取日线并合并日级持仓量
// 持仓量统计只覆盖最近一段时间，更早的行持仓量为缺失；统计接口失败时整列缺失。
func (b *Binance) Fetch(ctx context.Context, q Query) (*ohlcv.Table, error) {
	q = q.WithDefaults(time.Now())
	symbol := BinanceSymbol(q.Code)

	klines, err := b.client.NewKlinesService().
		Symbol(symbol).
		Interval("1d").
		StartTime(q.Start.UnixMilli()).
		EndTime(q.End.UnixMilli()).
		Limit(binanceKlineLimit).
		Do(ctx)
	if err != nil {
		return nil, retrievalError(b.Name(), q.Code, fmt.Errorf("failed to get klines: %w", err))
	}

	openInterest, oiErr := b.openInterest(ctx, symbol)

	columns := []string{ohlcv.ColumnDate, ohlcv.ColumnOpen, ohlcv.ColumnHigh, ohlcv.ColumnLow, ohlcv.ColumnClose, ohlcv.ColumnVolume}
	if oiErr == nil {
		columns = append(columns, ohlcv.ColumnOpenInterest)
	} else if b.onOIErr != nil {
		b.onOIErr(q.Code, oiErr)
	}

	records := make([]ohlcv.Record, 0, len(klines))
	for _, k := range klines {
		day := ohlcv.TruncateDay(time.UnixMilli(k.OpenTime).UTC())
		records = append(records, ohlcv.Record{
			Date:         day,
			Open:         parseFloat(k.Open),
			High:         parseFloat(k.High),
			Low:          parseFloat(k.Low),
			Close:        parseFloat(k.Close),
			Volume:       parseFloat(k.Volume),
			OpenInterest: openInterest[day],
		})
	}

	tbl, err := ohlcv.NewTable(columns, records)
	if err != nil {
		return nil, retrievalError(b.Name(), q.Code, err)
	}
	return tbl.Between(q.Start, q.End), nil
}

func (b *Binance) openInterest(ctx context.Context, symbol string) (map[time.Time]null.Float, error) {
	stats, err := b.client.NewOpenInterestStatisticsService().
		Symbol(symbol).
		Period("1d").
		Limit(binanceOpenInterestLimit).
		Do(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get open interest: %w", err)
	}
	out := make(map[time.Time]null.Float, len(stats))
	for _, s := range stats {
		day := ohlcv.TruncateDay(time.UnixMilli(s.Timestamp).UTC())
		out[day] = parseFloat(s.SumOpenInterest)
	}
	return out, nil
}

// List 列出交易中的 USDT 永续合约
func (b *Binance) List(ctx context.Context, market Market) ([]string, error) {
	if market != MarketCrypto {
		return nil, &UnsupportedMarketError{Market: string(market)}
	}
	symbols, err := b.loadSymbols(ctx)
	if err != nil {
		return nil, err
	}
	codes := make([]string, 0, len(symbols))
	for code := range symbols {
		codes = append(codes, code)
	}
	sort.Strings(codes)
	return codes, nil
}

// LookupName 由交易对的基础资产与计价资产生成名称
func (b *Binance) LookupName(ctx context.Context, code string, market Market) (string, error) {
	if market != MarketCrypto {
		return "", &UnsupportedMarketError{Market: string(market)}
	}
	symbols, err := b.loadSymbols(ctx)
	if err != nil {
		return "", err
	}
	info, ok := symbols[BinanceSymbol(code)]
	if !ok {
		return "", nil
	}
	return fmt.Sprintf("%s/%s 永续", info.BaseAsset, info.QuoteAsset), nil
}

func (b *Binance) loadSymbols(ctx context.Context) (map[string]SymbolInfo, error) {
	b.symbolLock.RLock()
	if len(b.symbols) > 0 && time.Since(b.symbolUpdated) < binanceSymbolTTL {
		symbols := b.symbols
		b.symbolLock.RUnlock()
		return symbols, nil
	}
	b.symbolLock.RUnlock()

	exchangeInfo, err := b.client.NewExchangeInfoService().Do(ctx)
	if err != nil {
		return nil, retrievalError(b.Name(), "exchangeInfo", fmt.Errorf("failed to get exchange info: %w", err))
	}

	symbols := make(map[string]SymbolInfo)
	for _, s := range exchangeInfo.Symbols {
		if s.Status != "TRADING" || s.QuoteAsset != "USDT" || string(s.ContractType) != "PERPETUAL" {
			continue
		}
		symbols[s.Symbol] = SymbolInfo{Symbol: s.Symbol, BaseAsset: s.BaseAsset, QuoteAsset: s.QuoteAsset}
	}

	b.symbolLock.Lock()
	b.symbols = symbols
	b.symbolUpdated = time.Now()
	b.symbolLock.Unlock()

	return symbols, nil
}

// BinanceSymbol 补全计价资产，BTC -> BTCUSDT
func BinanceSymbol(code string) string {
	code = strings.ToUpper(strings.TrimSpace(code))
	code = strings.NewReplacer("/", "", "-", "", "_", "").Replace(code)
	if code == "" || strings.HasSuffix(code, "USDT") || strings.HasSuffix(code, "USDC") {
		return code
	}
	return code + "USDT"
}

func parseFloat(s string) null.Float {
	if strings.TrimSpace(s) == "" {
		return null.Float{}
	}
	f, err := cast.ToFloat64E(s)
	if err != nil {
		return null.Float{}
	}
	return null.FloatFrom(f)
}
