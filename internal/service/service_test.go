package service

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/dushixiang/augur/internal/config"
	"github.com/dushixiang/augur/internal/metrics"
	"github.com/dushixiang/augur/internal/namecache"
	"github.com/dushixiang/augur/pkg/indicator"
	"github.com/dushixiang/augur/pkg/marketdata"
	"github.com/dushixiang/augur/pkg/ohlcv"
	"github.com/guregu/null/v6"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func mkTrend(n int, step float64, withOI bool) *ohlcv.Table {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	bars := make([]ohlcv.Bar, n)
	for i := 0; i < n; i++ {
		c := 200 + float64(i)*step
		bars[i] = ohlcv.Bar{
			Date:   start.AddDate(0, 0, i),
			Open:   c - 0.5,
			High:   c + 1,
			Low:    c - 1,
			Close:  c,
			Volume: 1000 + 10*float64(i),
		}
		if withOI {
			bars[i].OpenInterest = null.FloatFrom(5000 + 100*float64(i))
		}
	}
	return ohlcv.FromBars(bars, withOI)
}

type fakeProvider struct {
	tables map[string]*ohlcv.Table
	errs   map[string]error
	calls  int
}

func (p *fakeProvider) Name() string { return "fake" }

func (p *fakeProvider) Fetch(_ context.Context, q marketdata.Query) (*ohlcv.Table, error) {
	p.calls++
	if err, ok := p.errs[q.Code]; ok {
		return nil, err
	}
	tbl, ok := p.tables[q.Code]
	if !ok {
		return nil, &marketdata.RetrievalError{Provider: "fake", Code: q.Code, Err: errors.New("not found")}
	}
	return tbl, nil
}

type fakeLister []string

func (l fakeLister) List(context.Context, marketdata.Market) ([]string, error) {
	return l, nil
}

func newTestAnalysisService(t *testing.T, market marketdata.Market, p marketdata.Provider) *AnalysisService {
	t.Helper()
	return newObservedAnalysisService(t, market, p, zap.NewNop(), nil)
}

func newObservedAnalysisService(t *testing.T, market marketdata.Market, p marketdata.Provider,
	logger *zap.Logger, m *metrics.Metrics) *AnalysisService {
	t.Helper()
	conf := &config.Config{}
	conf.ApplyDefaults()

	ms := newMarketService(logger, conf.Analysis.HistoryDays, m)
	ms.Register(market, p)
	ns := &NameService{logger: logger, store: namecache.NewMemory()}
	nar := NewNarrativeService(logger, nil, nil, m)

	svc := NewAnalysisService(logger, conf, ms, ns, nar, m)
	svc.now = func() time.Time { return time.Date(2024, 3, 31, 0, 0, 0, 0, time.UTC) }
	return svc
}

func TestAnalyze_Stock(t *testing.T) {
	p := &fakeProvider{tables: map[string]*ohlcv.Table{"AAPL": mkTrend(80, 1, false)}}
	svc := newTestAnalysisService(t, marketdata.MarketUS, p)

	report, err := svc.Analyze(context.Background(), "AAPL", "us")
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	if report.Code != "AAPL" || report.Market != "US" || report.Kind != indicator.KindStock {
		t.Fatalf("unexpected identity: %+v", report)
	}
	if report.Name != "US-AAPL" {
		t.Fatalf("Name = %q, want default name", report.Name)
	}
	if report.AnalysisDate != "2024-03-31" {
		t.Fatalf("AnalysisDate = %q", report.AnalysisDate)
	}
	if report.AnalysisID == "" {
		t.Fatal("missing analysis id")
	}
	if report.MATrend != "UP" {
		t.Fatalf("MATrend = %q, want UP", report.MATrend)
	}
	if report.Price != 279 {
		t.Fatalf("Price = %v, want 279", report.Price)
	}
	if report.OpenInterestChange != nil {
		t.Fatal("stock report must not carry open interest change")
	}
	if report.AIAnalysis == "" {
		t.Fatal("expected local narrative")
	}
	sum := 0
	for _, h := range report.ScoreBreakdown {
		sum += h.Delta
	}
	if sum != report.Score {
		t.Fatalf("breakdown sums to %d, score %d", sum, report.Score)
	}
}

func TestAnalyze_Futures(t *testing.T) {
	p := &fakeProvider{tables: map[string]*ohlcv.Table{"RB2410": mkTrend(80, 1, true)}}
	svc := newTestAnalysisService(t, marketdata.MarketCN, p)

	report, err := svc.Analyze(context.Background(), "RB2410", "CN")
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	if report.Kind != indicator.KindFutures {
		t.Fatalf("Kind = %q", report.Kind)
	}
	if report.Score < 0 || report.Score > 100 {
		t.Fatalf("futures score %d out of range", report.Score)
	}
	if report.OpenInterestChange == nil || !report.OpenInterestChange.Valid {
		t.Fatal("expected open interest change on futures report")
	}
}

func TestAnalyze_Errors(t *testing.T) {
	p := &fakeProvider{tables: map[string]*ohlcv.Table{"SHORT": mkTrend(30, 1, false)}}
	svc := newTestAnalysisService(t, marketdata.MarketUS, p)
	ctx := context.Background()

	_, err := svc.Analyze(ctx, "SHORT", "US")
	var ae *AnalysisError
	if !errors.As(err, &ae) {
		t.Fatalf("expected AnalysisError, got %v", err)
	}
	var ide *ohlcv.InsufficientDataError
	if !errors.As(err, &ide) || ide.Need != 62 || ide.Got != 30 {
		t.Fatalf("expected InsufficientDataError{62,30}, got %v", err)
	}

	_, err = svc.Analyze(ctx, "X", "MOON")
	var ume *marketdata.UnsupportedMarketError
	if !errors.As(err, &ae) || !errors.As(err, &ume) {
		t.Fatalf("expected UnsupportedMarketError, got %v", err)
	}

	_, err = svc.Analyze(ctx, "0700", "HK")
	if !errors.As(err, &ume) {
		t.Fatalf("expected UnsupportedMarketError for unregistered market, got %v", err)
	}

	_, err = svc.Analyze(ctx, "MISSING", "US")
	var re *marketdata.RetrievalError
	if !errors.As(err, &re) {
		t.Fatalf("expected RetrievalError, got %v", err)
	}
}

func TestScan_PartialFailure(t *testing.T) {
	p := &fakeProvider{
		tables: map[string]*ohlcv.Table{
			"DOWN": mkTrend(80, -1, false),
			"UP":   mkTrend(80, 1, false),
		},
		errs: map[string]error{
			"BAD": &marketdata.RetrievalError{Provider: "fake", Code: "BAD", Err: errors.New("timeout")},
		},
	}
	core, logs := observer.New(zap.ErrorLevel)
	m := metrics.NewMetrics()
	svc := newObservedAnalysisService(t, marketdata.MarketUS, p, zap.New(core), m)

	reports, err := svc.Scan(context.Background(), []string{"DOWN", "BAD", "UP"}, "US", -1000)
	if err != nil {
		t.Fatalf("Scan: %v", err)
	}
	if len(reports) != 2 {
		t.Fatalf("got %d reports, want 2", len(reports))
	}
	if reports[0].Code != "UP" || reports[1].Code != "DOWN" {
		t.Fatalf("unexpected order: %s, %s", reports[0].Code, reports[1].Code)
	}
	if reports[0].Score < reports[1].Score {
		t.Fatalf("reports not sorted by score: %d < %d", reports[0].Score, reports[1].Score)
	}

	skipped := logs.FilterMessage("failed to analyze instrument, skipping")
	if skipped.Len() != 1 {
		t.Fatalf("got %d skip entries, want 1", skipped.Len())
	}
	if code := skipped.All()[0].ContextMap()["code"]; code != "BAD" {
		t.Fatalf("skip entry code = %v, want BAD", code)
	}
	if got := testutil.ToFloat64(m.ScanSkipped.WithLabelValues("US")); got != 1 {
		t.Fatalf("scan skipped counter = %v, want 1", got)
	}
}

func TestScan_MinScoreFilter(t *testing.T) {
	p := &fakeProvider{tables: map[string]*ohlcv.Table{
		"DOWN": mkTrend(80, -1, false),
		"UP":   mkTrend(80, 1, false),
	}}
	svc := newTestAnalysisService(t, marketdata.MarketUS, p)
	ctx := context.Background()

	up, err := svc.Analyze(ctx, "UP", "US")
	if err != nil {
		t.Fatal(err)
	}
	down, err := svc.Analyze(ctx, "DOWN", "US")
	if err != nil {
		t.Fatal(err)
	}
	if up.Score <= down.Score {
		t.Fatalf("fixture expects UP (%d) to outscore DOWN (%d)", up.Score, down.Score)
	}

	reports, err := svc.Scan(ctx, []string{"DOWN", "UP"}, "US", up.Score)
	if err != nil {
		t.Fatal(err)
	}
	if len(reports) != 1 || reports[0].Code != "UP" {
		t.Fatalf("expected only UP at min score %d, got %d reports", up.Score, len(reports))
	}
}

func TestScan_ListsMarketWhenNoCodes(t *testing.T) {
	p := &fakeProvider{tables: map[string]*ohlcv.Table{"UP": mkTrend(80, 1, false)}}
	svc := newTestAnalysisService(t, marketdata.MarketUS, p)
	svc.marketService.RegisterLister(marketdata.MarketUS, fakeLister{"UP", "GONE"})

	reports, err := svc.Scan(context.Background(), nil, "US", -1000)
	if err != nil {
		t.Fatal(err)
	}
	if len(reports) != 1 || reports[0].Code != "UP" {
		t.Fatalf("unexpected reports: %d", len(reports))
	}
	if p.calls != 2 {
		t.Fatalf("provider called %d times, want 2", p.calls)
	}

	svc.marketService.SetWatchlist(marketdata.MarketUS, []string{"UP"})
	p.calls = 0
	if _, err := svc.Scan(context.Background(), nil, "US", -1000); err != nil {
		t.Fatal(err)
	}
	if p.calls != 1 {
		t.Fatalf("watchlist should take priority, provider called %d times", p.calls)
	}
}

func TestScan_StopsOnCancel(t *testing.T) {
	p := &fakeProvider{tables: map[string]*ohlcv.Table{"UP": mkTrend(80, 1, false)}}
	svc := newTestAnalysisService(t, marketdata.MarketUS, p)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	reports, err := svc.Scan(ctx, []string{"UP", "UP"}, "US", -1000)
	if err != nil {
		t.Fatal(err)
	}
	if len(reports) != 0 || p.calls != 0 {
		t.Fatalf("expected no work after cancel, got %d reports, %d calls", len(reports), p.calls)
	}
}

func TestScan_UnsupportedMarket(t *testing.T) {
	svc := newTestAnalysisService(t, marketdata.MarketUS, &fakeProvider{})
	_, err := svc.Scan(context.Background(), nil, "NOPE", 0)
	var ume *marketdata.UnsupportedMarketError
	if !errors.As(err, &ume) {
		t.Fatalf("expected UnsupportedMarketError, got %v", err)
	}
}

func TestFormatScanResult(t *testing.T) {
	msg := FormatScanResult("us", 60, nil)
	if !strings.Contains(msg, "US") || !strings.Contains(msg, "没有符合条件的标的") {
		t.Fatalf("unexpected empty message: %q", msg)
	}

	msg = FormatScanResult("us", 60, []*Report{{Code: "AAPL", Name: "Apple", Score: 80, Recommendation: "strong buy", Price: 190.5, PriceChange: 1.234}})
	for _, want := range []string{"1. AAPL Apple", "评分 80", "strong buy", "190.50", "1.23%"} {
		if !strings.Contains(msg, want) {
			t.Fatalf("message %q missing %q", msg, want)
		}
	}
}
