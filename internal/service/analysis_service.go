package service

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/dushixiang/augur/internal/config"
	"github.com/dushixiang/augur/internal/metrics"
	"github.com/dushixiang/augur/internal/tracing"
	"github.com/dushixiang/augur/pkg/indicator"
	"github.com/dushixiang/augur/pkg/marketdata"
	"github.com/dushixiang/augur/pkg/ohlcv"
	"github.com/dushixiang/augur/pkg/scoring"
	"github.com/oklog/ulid/v2"
	"go.opentelemetry.io/otel/attribute"
	otelcodes "go.opentelemetry.io/otel/codes"
	"go.uber.org/zap"
)

// AnalysisError 单个标的分析失败
type AnalysisError struct {
	Code   string
	Market string
	Err    error
}

func (e *AnalysisError) Error() string {
	return fmt.Sprintf("analyze %s (%s): %v", e.Code, e.Market, e.Err)
}

func (e *AnalysisError) Unwrap() error {
	return e.Err
}

// AnalysisService 行情分析服务：拉取、计算指标、评分、生成报告
type AnalysisService struct {
	logger *zap.Logger

	marketService    *MarketService
	nameService      *NameService
	narrativeService *NarrativeService
	engine           *indicator.Engine
	metrics          *metrics.Metrics

	minRows int
	scoring scoring.Options
	now     func() time.Time
}

// NewAnalysisService 创建分析服务
func NewAnalysisService(logger *zap.Logger, conf *config.Config, marketService *MarketService,
	nameService *NameService, narrativeService *NarrativeService, m *metrics.Metrics) *AnalysisService {
	engine := indicator.NewEngine(conf.Analysis.Indicators)
	minRows := conf.Analysis.MinRows
	if minRows <= 0 {
		minRows = engine.Config().MinRows()
	}
	return &AnalysisService{
		logger:           logger,
		marketService:    marketService,
		nameService:      nameService,
		narrativeService: narrativeService,
		engine:           engine,
		metrics:          m,
		minRows:          minRows,
		scoring:          scoring.Options{ClampStock: conf.Analysis.ClampStockScore},
		now:              time.Now,
	}
}

// Analyze 分析单个标的
func (s *AnalysisService) Analyze(ctx context.Context, code, market string) (_ *Report, err error) {
	code = strings.TrimSpace(code)
	ctx, span := tracing.Tracer().Start(ctx, "analysis.analyze")
	span.SetAttributes(attribute.String("code", code), attribute.String("market", market))
	start := time.Now()
	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(otelcodes.Error, err.Error())
		}
		span.End()
		s.metrics.ObserveAnalysis(strings.ToUpper(market), start, err)
	}()

	m, err := marketdata.ParseMarket(market)
	if err != nil {
		return nil, &AnalysisError{Code: code, Market: market, Err: err}
	}
	report, err := s.analyze(ctx, code, m)
	if err != nil {
		return nil, &AnalysisError{Code: code, Market: m.String(), Err: err}
	}
	return report, nil
}

func (s *AnalysisService) analyze(ctx context.Context, code string, market marketdata.Market) (*Report, error) {
	src, err := s.marketService.Fetch(ctx, code, market)
	if err != nil {
		return nil, err
	}
	if err := ohlcv.RequireRows(src.Len(), s.minRows); err != nil {
		return nil, err
	}

	kind := market.Kind()
	tbl, err := s.engine.Compute(src, kind)
	if err != nil {
		return nil, err
	}
	result, err := scoring.Evaluate(tbl, kind, s.scoring)
	if err != nil {
		return nil, err
	}
	s.metrics.ObserveScore(kind.String(), result.Score)

	summary, err := BuildSummary(code, market.String(), tbl)
	if err != nil {
		return nil, err
	}

	analysisID := ulid.Make().String()
	name := s.nameService.Resolve(ctx, code, market)
	narrative := s.narrativeService.Narrate(ctx, analysisID, summary)

	return BuildReport(ReportInput{
		AnalysisID: analysisID,
		Code:       code,
		Market:     market.String(),
		Name:       name,
		Date:       s.now(),
		Table:      tbl,
		Result:     result,
		Narrative:  narrative,
	})
}

// Scan 批量分析，单个标的失败时记录日志并跳过
// codes 为空时使用市场的默认列表，结果只保留评分不低于 minScore 的报告并按评分降序排列。
func (s *AnalysisService) Scan(ctx context.Context, codes []string, market string, minScore int) ([]*Report, error) {
	ctx, span := tracing.Tracer().Start(ctx, "analysis.scan")
	defer span.End()

	m, err := marketdata.ParseMarket(market)
	if err != nil {
		return nil, err
	}
	if len(codes) == 0 {
		codes, err = s.marketService.List(ctx, m)
		if err != nil {
			return nil, err
		}
	}
	span.SetAttributes(attribute.String("market", m.String()), attribute.Int("instruments", len(codes)))

	progressEvery := 10
	if m.Kind() == indicator.KindFutures {
		progressEvery = 5
	}

	reports := make([]*Report, 0)
	for i, code := range codes {
		if err := ctx.Err(); err != nil {
			s.logger.Warn("scan cancelled", zap.String("market", m.String()), zap.Int("done", i), zap.Error(err))
			break
		}

		report, err := s.Analyze(ctx, code, m.String())
		if err != nil {
			s.logger.Error("failed to analyze instrument, skipping",
				zap.String("code", code),
				zap.String("market", m.String()),
				zap.Error(err),
			)
			s.metrics.IncScanSkipped(m.String())
		} else if report.Score >= minScore {
			reports = append(reports, report)
		}

		if (i+1)%progressEvery == 0 {
			s.logger.Info("scan progress",
				zap.String("market", m.String()),
				zap.Int("done", i+1),
				zap.Int("total", len(codes)),
				zap.Int("matched", len(reports)),
			)
		}
	}

	sort.SliceStable(reports, func(i, j int) bool {
		return reports[i].Score > reports[j].Score
	})
	return reports, nil
}
