package service

import (
	"context"
	_ "embed"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/dushixiang/augur/internal/metrics"
	"github.com/dushixiang/augur/internal/models"
	"github.com/dushixiang/augur/internal/repo"
	"github.com/dushixiang/augur/pkg/indicator"
	"github.com/oklog/ulid/v2"
	"github.com/valyala/fasttemplate"
	"go.uber.org/zap"
	"gorm.io/datatypes"
)

//go:embed templates/analysis_prompt.txt
var analysisPromptTemplate string

//go:embed templates/local_analysis.txt
var localAnalysisTemplate string

// Generation 一次文本生成的结果
type Generation struct {
	Content          string
	Model            string
	FinishReason     string
	PromptTokens     int
	CompletionTokens int
	TotalTokens      int
}

// Generator 远程文本生成
type Generator interface {
	Name() string
	Generate(ctx context.Context, prompt string) (*Generation, error)
}

// GenerationError 文本生成失败，总能通过本地模板恢复
type GenerationError struct {
	Provider string
	Err      error
}

func (e *GenerationError) Error() string {
	return fmt.Sprintf("%s: generate narrative: %v", e.Provider, e.Err)
}

func (e *GenerationError) Unwrap() error {
	return e.Err
}

// NarrativeService 分析文本生成服务
type NarrativeService struct {
	logger    *zap.Logger
	generator Generator
	logRepo   *repo.LLMLogRepo
	metrics   *metrics.Metrics
}

// NewNarrativeService 创建文本生成服务，generator 为空时始终使用本地模板
func NewNarrativeService(logger *zap.Logger, generator Generator, logRepo *repo.LLMLogRepo, m *metrics.Metrics) *NarrativeService {
	return &NarrativeService{
		logger:    logger,
		generator: generator,
		logRepo:   logRepo,
		metrics:   m,
	}
}

// Narrate 生成分析文本，远程生成失败时回退到本地模板
func (s *NarrativeService) Narrate(ctx context.Context, analysisID string, summary *Summary) string {
	if s.generator == nil {
		s.metrics.IncNarrative("local", "ok")
		return LocalNarrative(summary)
	}

	content, err := s.Generate(ctx, analysisID, summary)
	if err != nil {
		s.logger.Warn("narrative generation failed, using local analysis",
			zap.String("code", summary.Code),
			zap.String("market", summary.Market),
			zap.Error(err),
		)
		s.metrics.IncNarrative(s.generator.Name(), "fallback")
		return LocalNarrative(summary)
	}
	s.metrics.IncNarrative(s.generator.Name(), "ok")
	return content
}

// Generate 调用远程生成，失败返回 GenerationError
func (s *NarrativeService) Generate(ctx context.Context, analysisID string, summary *Summary) (string, error) {
	if s.generator == nil {
		return "", &GenerationError{Provider: "none", Err: fmt.Errorf("no generator configured")}
	}

	prompt := BuildPrompt(summary)
	start := time.Now()
	gen, err := s.generator.Generate(ctx, prompt)
	s.record(ctx, analysisID, summary, prompt, gen, time.Since(start), err)

	if err != nil {
		return "", &GenerationError{Provider: s.generator.Name(), Err: err}
	}
	content := strings.TrimSpace(gen.Content)
	if content == "" {
		return "", &GenerationError{Provider: s.generator.Name(), Err: fmt.Errorf("empty response")}
	}
	return content, nil
}

func (s *NarrativeService) record(ctx context.Context, analysisID string, summary *Summary, prompt string,
	gen *Generation, duration time.Duration, genErr error) {
	if s.logRepo == nil {
		return
	}

	payload, err := json.Marshal(summary)
	if err != nil {
		s.logger.Warn("failed to marshal summary for llm log", zap.String("code", summary.Code), zap.Error(err))
		payload = []byte("{}")
	}
	llmLog := models.LLMLog{
		ID:         ulid.Make().String(),
		AnalysisID: analysisID,
		Code:       summary.Code,
		Market:     summary.Market,
		Provider:   s.generator.Name(),
		Prompt:     prompt,
		Summary:    datatypes.JSON(payload),
		Duration:   duration.Milliseconds(),
		ExecutedAt: time.Now(),
	}
	if gen != nil {
		llmLog.Model = gen.Model
		llmLog.Content = gen.Content
		llmLog.FinishReason = gen.FinishReason
		llmLog.PromptTokens = gen.PromptTokens
		llmLog.CompletionTokens = gen.CompletionTokens
		llmLog.TotalTokens = gen.TotalTokens
	}
	if genErr != nil {
		llmLog.Error = genErr.Error()
	}

	if err := s.logRepo.Create(ctx, &llmLog); err != nil {
		s.logger.Warn("failed to save llm log", zap.Error(err))
	}
}

func marketType(kind indicator.Kind) string {
	if kind == indicator.KindFutures {
		return "期货"
	}
	return "股票"
}

// BuildPrompt 生成提示词
func BuildPrompt(s *Summary) string {
	t := fasttemplate.New(analysisPromptTemplate, "{{", "}}")
	return t.ExecuteString(map[string]interface{}{
		"market_type":        marketType(s.Kind),
		"code":               s.Code,
		"trend":              s.Trend,
		"volatility":         percent(s.Volatility),
		"volume_trend":       s.VolumeTrend,
		"rsi_level":          fixedNull(s.RSI),
		"macd_signal":        s.MACDSignal,
		"macd_cross":         crossLabel(s.MACDCross),
		"price":              fixed(s.Price),
		"price_change":       fixed(s.PriceChange) + "%",
		"high_14":            fixed(s.High14),
		"low_14":             fixed(s.Low14),
		"mean_volume_14":     fixed(s.MeanVolume14),
		"mean_volatility_14": percent(s.MeanVolatility14),
	})
}

func crossLabel(cross string) string {
	switch cross {
	case "golden":
		return "本根金叉"
	case "death":
		return "本根死叉"
	}
	return "无"
}

// LocalNarrative 本地生成的分析报告，完全由概要数据确定
func LocalNarrative(s *Summary) string {
	trend := "下降"
	shortFactor, mediumFactor := 0.95, 0.90
	if s.Uptrend() {
		trend = "上升"
		shortFactor, mediumFactor = 1.05, 1.10
	}

	rsiStatus := "中性"
	switch {
	case s.RSI.Valid && s.RSI.Float64 > 70:
		rsiStatus = "超买"
	case s.RSI.Valid && s.RSI.Float64 < 30:
		rsiStatus = "超卖"
	}

	volumeComment := "成交量萎缩，表明可能出现趋势转变"
	if s.VolumeRatio.Valid && s.VolumeRatio.Float64 > 1.2 {
		volumeComment = "成交量放大，表明当前趋势得到确认"
	}

	volatilityComment := "波动率适中，可考虑适量参与"
	if s.Volatility.Valid && s.Volatility.Float64 > 3 {
		volatilityComment = "波动率较高，建议谨慎操作"
	}

	macdComment := "死叉，看跌信号"
	if s.MACDGoldenCross {
		macdComment = "金叉，看涨信号"
	}
	if s.MACDCross != "" {
		macdComment += "（" + crossLabel(s.MACDCross) + "）"
	}

	var advice string
	switch {
	case s.Uptrend() && s.RSI.Valid && s.RSI.Float64 < 70:
		advice = "建议买入，止损位设置在 " + fixed(s.Price*0.95)
	case s.RSI.Valid && s.RSI.Float64 >= 30 && s.RSI.Float64 <= 70:
		advice = "建议观望"
	default:
		advice = "建议卖出，止损位设置在 " + fixed(s.Price*1.05)
	}

	t := fasttemplate.New(localAnalysisTemplate, "{{", "}}")
	return t.ExecuteString(map[string]interface{}{
		"market_type":        marketType(s.Kind),
		"code":               s.Code,
		"trend":              trend,
		"ma5":                fixedNull(s.MA5),
		"ma20":               fixedNull(s.MA20),
		"support":            fixed(s.Low),
		"resistance":         fixed(s.High),
		"volume_ratio":       fixedNull(s.VolumeRatio),
		"volume_comment":     volumeComment,
		"volatility":         percent(s.Volatility),
		"volatility_comment": volatilityComment,
		"short_target":       fixed(s.Price * shortFactor),
		"medium_target":      fixed(s.Price * mediumFactor),
		"rsi":                fixedNull(s.RSI),
		"rsi_status":         rsiStatus,
		"macd_comment":       macdComment,
		"advice":             advice,
	})
}
