package handler

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/dushixiang/augur/internal/config"
	"github.com/dushixiang/augur/internal/metrics"
	"github.com/dushixiang/augur/internal/repo"
	"github.com/dushixiang/augur/internal/service"
	"github.com/dushixiang/augur/internal/xe"
	"github.com/dushixiang/augur/pkg/indicator"
	"github.com/dushixiang/augur/pkg/marketdata"
	"github.com/go-orz/orz"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

// AnalyzeRequest 单个标的分析请求
type AnalyzeRequest struct {
	Code   string `json:"code" validate:"required"`
	Market string `json:"market"`
}

// BatchAnalyzeRequest 批量分析请求，codes 为空时扫描整个市场
type BatchAnalyzeRequest struct {
	Codes    []string `json:"codes"`
	Market   string   `json:"market"`
	MinScore *int     `json:"min_score"`
}

// AnalysisHandler 分析接口
type AnalysisHandler struct {
	logger          *zap.Logger
	analysisService *service.AnalysisService
	marketService   *service.MarketService
	llmLogRepo      *repo.LLMLogRepo
	metrics         *metrics.Metrics
	defaultMinScore int
}

// NewAnalysisHandler 创建分析处理器
func NewAnalysisHandler(logger *zap.Logger, conf *config.Config, analysisService *service.AnalysisService,
	marketService *service.MarketService, llmLogRepo *repo.LLMLogRepo, m *metrics.Metrics) *AnalysisHandler {
	return &AnalysisHandler{
		logger:          logger,
		analysisService: analysisService,
		marketService:   marketService,
		llmLogRepo:      llmLogRepo,
		metrics:         m,
		defaultMinScore: conf.Analysis.ScoreThreshold(),
	}
}

func success(c echo.Context, data any) error {
	return c.JSON(http.StatusOK, orz.Map{
		"status": "success",
		"data":   data,
	})
}

func invalidParams(c echo.Context, err error) error {
	return c.JSON(http.StatusBadRequest, orz.Map{
		"code":    xe.Code(xe.ErrInvalidParams),
		"message": err.Error(),
	})
}

// resolveMarket 解析市场并确认与接口类型一致，未指定时使用默认市场
func resolveMarket(raw string, kind indicator.Kind) (marketdata.Market, error) {
	if strings.TrimSpace(raw) == "" {
		if kind == indicator.KindFutures {
			return marketdata.MarketCN, nil
		}
		return marketdata.MarketA, nil
	}
	m, err := marketdata.ParseMarket(raw)
	if err != nil {
		return "", err
	}
	if m.Kind() != kind {
		return "", &marketdata.UnsupportedMarketError{Market: raw}
	}
	return m, nil
}

func (h *AnalysisHandler) analyze(kind indicator.Kind) echo.HandlerFunc {
	return func(c echo.Context) error {
		var req AnalyzeRequest
		if err := c.Bind(&req); err != nil {
			return invalidParams(c, err)
		}
		if err := c.Validate(&req); err != nil {
			return invalidParams(c, err)
		}
		market, err := resolveMarket(req.Market, kind)
		if err != nil {
			return err
		}

		report, err := h.analysisService.Analyze(c.Request().Context(), req.Code, market.String())
		if err != nil {
			return err
		}
		return success(c, report)
	}
}

func (h *AnalysisHandler) batchAnalyze(kind indicator.Kind) echo.HandlerFunc {
	return func(c echo.Context) error {
		var req BatchAnalyzeRequest
		if err := c.Bind(&req); err != nil {
			return invalidParams(c, err)
		}
		market, err := resolveMarket(req.Market, kind)
		if err != nil {
			return err
		}
		minScore := h.defaultMinScore
		if req.MinScore != nil {
			minScore = *req.MinScore
		}

		reports, err := h.analysisService.Scan(c.Request().Context(), req.Codes, market.String(), minScore)
		if err != nil {
			return err
		}
		return success(c, reports)
	}
}

func (h *AnalysisHandler) listMarket(kind indicator.Kind) echo.HandlerFunc {
	return func(c echo.Context) error {
		market, err := resolveMarket(c.QueryParam("market"), kind)
		if err != nil {
			return err
		}
		codes, err := h.marketService.List(c.Request().Context(), market)
		if err != nil {
			return err
		}
		return success(c, codes)
	}
}

// GetLLMLogs 查询文本生成调用日志
// GET /api/llm-logs?analysis_id=&limit=
func (h *AnalysisHandler) GetLLMLogs(c echo.Context) error {
	if h.llmLogRepo == nil {
		return success(c, []any{})
	}
	ctx := c.Request().Context()

	if analysisID := c.QueryParam("analysis_id"); analysisID != "" {
		logs, err := h.llmLogRepo.FindByAnalysisID(ctx, analysisID)
		if err != nil {
			return err
		}
		return success(c, logs)
	}

	limit := 20
	if v := c.QueryParam("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			return invalidParams(c, xe.ErrInvalidParams)
		}
		limit = min(n, 200)
	}
	logs, err := h.llmLogRepo.FindRecentLogs(ctx, limit)
	if err != nil {
		return err
	}
	return success(c, logs)
}

// Health 健康检查
func (h *AnalysisHandler) Health(c echo.Context) error {
	return c.JSON(http.StatusOK, orz.Map{"status": "ok"})
}

// RegisterRoutes 注册路由
func (h *AnalysisHandler) RegisterRoutes(g *echo.Group) {
	stock := g.Group("/stock")
	stock.POST("/analyze", h.analyze(indicator.KindStock))
	stock.POST("/batch-analyze", h.batchAnalyze(indicator.KindStock))
	stock.GET("/market-stocks", h.listMarket(indicator.KindStock))

	futures := g.Group("/futures")
	futures.POST("/analyze", h.analyze(indicator.KindFutures))
	futures.POST("/batch-analyze", h.batchAnalyze(indicator.KindFutures))
	futures.GET("/market-futures", h.listMarket(indicator.KindFutures))

	g.GET("/llm-logs", h.GetLLMLogs)
}

// RegisterSystemRoutes 注册健康检查与指标路由，不需要认证
func (h *AnalysisHandler) RegisterSystemRoutes(e *echo.Echo) {
	e.GET("/health", h.Health)
	if h.metrics != nil {
		e.GET("/metrics", echo.WrapHandler(h.metrics.Handler()))
	}
}
