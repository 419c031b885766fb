package service

import (
	"time"

	"github.com/dushixiang/augur/pkg/indicator"
	"github.com/dushixiang/augur/pkg/ohlcv"
	"github.com/dushixiang/augur/pkg/scoring"
	"github.com/dushixiang/augur/pkg/ta"
	"github.com/guregu/null/v6"
	"github.com/shopspring/decimal"
)

const summaryWindow = 14

// Summary 技术指标概要，作为文本生成的输入
type Summary struct {
	Code   string         `json:"code"`
	Market string         `json:"market"`
	Kind   indicator.Kind `json:"kind"`

	Trend       string     `json:"trend"` // upward / downward
	Volatility  null.Float `json:"volatility"`
	VolumeTrend string     `json:"volume_trend"` // increasing / decreasing
	RSI         null.Float `json:"rsi"`
	MACDSignal  string     `json:"macd_signal"` // BUY / SELL
	Price       float64    `json:"price"`
	PriceChange float64    `json:"price_change"`

	// 近14日
	High14           float64    `json:"high_14"`
	Low14            float64    `json:"low_14"`
	MeanVolume14     float64    `json:"mean_volume_14"`
	MeanVolatility14 null.Float `json:"mean_volatility_14"`

	MA5             null.Float `json:"ma5"`
	MA20            null.Float `json:"ma20"`
	Low             float64    `json:"low"`
	High            float64    `json:"high"`
	VolumeRatio     null.Float `json:"volume_ratio"`
	MACDGoldenCross bool       `json:"macd_golden_cross"`
	MACDCross       string     `json:"macd_cross"` // golden / death / 空表示本根未交叉
}

// Uptrend MA5 位于 MA20 之上
func (s *Summary) Uptrend() bool {
	return s.Trend == "upward"
}

// Report 单个标的的分析报告
type Report struct {
	AnalysisID         string                 `json:"analysis_id"`
	Code               string                 `json:"code"`
	Market             string                 `json:"market"`
	Name               string                 `json:"name"`
	Kind               indicator.Kind         `json:"kind"`
	AnalysisDate       string                 `json:"analysis_date"`
	Score              int                    `json:"score"`
	Price              float64                `json:"price"`
	PriceChange        float64                `json:"price_change"`
	MATrend            string                 `json:"ma_trend"`
	RSI                null.Float             `json:"rsi"`
	MACDSignal         string                 `json:"macd_signal"`
	VolumeStatus       string                 `json:"volume_status"`
	Recommendation     scoring.Recommendation `json:"recommendation"`
	OpenInterestChange *null.Float            `json:"open_interest_change,omitempty"`
	ScoreBreakdown     []scoring.Hit          `json:"score_breakdown"`
	AIAnalysis         string                 `json:"ai_analysis"`
}

// ReportInput 组装报告所需的数据
type ReportInput struct {
	AnalysisID string
	Code       string
	Market     string
	Name       string
	Date       time.Time
	Table      *indicator.Table
	Result     scoring.Result
	Narrative  string
}

// BuildSummary 由最新两行及最近14行生成概要
func BuildSummary(code, market string, tbl *indicator.Table) (*Summary, error) {
	if err := ohlcv.RequireRows(tbl.Len(), 2); err != nil {
		return nil, err
	}
	latest, _ := tbl.Latest()
	prev, _ := tbl.Previous()

	s := &Summary{
		Code:        code,
		Market:      market,
		Kind:        tbl.Kind,
		Trend:       "downward",
		Volatility:  latest.Volatility,
		VolumeTrend: "decreasing",
		RSI:         latest.RSI,
		MACDSignal:  macdSignal(latest),
		Price:       latest.Close,
		PriceChange: priceChange(latest, prev),
		MA5:         latest.MA5,
		MA20:        latest.MA20,
		Low:         latest.Low,
		High:        latest.High,
		VolumeRatio: latest.VolumeRatio,
	}
	if maTrend(latest) == "UP" {
		s.Trend = "upward"
	}
	if latest.VolumeRatio.Valid && latest.VolumeRatio.Float64 > 1 {
		s.VolumeTrend = "increasing"
	}
	s.MACDGoldenCross = latest.MACD.Valid && latest.Signal.Valid && latest.MACDHist.Valid &&
		latest.MACD.Float64 > latest.Signal.Float64 && latest.MACDHist.Float64 > 0

	s.MACDCross = macdCross(tbl.Tail(2))

	recent := tbl.Tail(summaryWindow)
	highs := make([]float64, len(recent))
	lows := make([]float64, len(recent))
	volumes := make(ta.Series, len(recent))
	volatility := make(ta.Series, len(recent))
	for i, r := range recent {
		highs[i] = r.High
		lows[i] = r.Low
		volumes[i] = null.FloatFrom(r.Volume)
		volatility[i] = r.Volatility
	}
	s.High14 = ta.Highest(highs, summaryWindow)
	s.Low14 = ta.Lowest(lows, summaryWindow)
	s.MeanVolume14 = ta.Mean(volumes).ValueOrZero()
	s.MeanVolatility14 = ta.Mean(volatility)

	return s, nil
}

// BuildReport 组装报告
func BuildReport(in ReportInput) (*Report, error) {
	if err := ohlcv.RequireRows(in.Table.Len(), 2); err != nil {
		return nil, err
	}
	latest, _ := in.Table.Latest()
	prev, _ := in.Table.Previous()

	report := &Report{
		AnalysisID:     in.AnalysisID,
		Code:           in.Code,
		Market:         in.Market,
		Name:           in.Name,
		Kind:           in.Table.Kind,
		AnalysisDate:   in.Date.Format("2006-01-02"),
		Score:          in.Result.Score,
		Price:          latest.Close,
		PriceChange:    priceChange(latest, prev),
		MATrend:        maTrend(latest),
		RSI:            latest.RSI,
		MACDSignal:     macdSignal(latest),
		VolumeStatus:   volumeStatus(latest),
		Recommendation: scoring.Recommend(in.Result.Score),
		ScoreBreakdown: in.Result.Hits,
		AIAnalysis:     in.Narrative,
	}
	if in.Table.Kind == indicator.KindFutures {
		oi := latest.OIChange
		report.OpenInterestChange = &oi
	}
	return report, nil
}

func priceChange(latest, prev indicator.Row) float64 {
	if prev.Close == 0 {
		return 0
	}
	return (latest.Close - prev.Close) / prev.Close * 100
}

func maTrend(r indicator.Row) string {
	if r.MA5.Valid && r.MA20.Valid && r.MA5.Float64 > r.MA20.Float64 {
		return "UP"
	}
	return "DOWN"
}

func macdSignal(r indicator.Row) string {
	if r.MACD.Valid && r.Signal.Valid && r.MACD.Float64 > r.Signal.Float64 {
		return "BUY"
	}
	return "SELL"
}

func macdCross(rows []indicator.Row) string {
	macd := make(ta.Series, len(rows))
	signal := make(ta.Series, len(rows))
	for i, r := range rows {
		macd[i] = r.MACD
		signal[i] = r.Signal
	}
	switch {
	case ta.Crossover(macd, signal):
		return "golden"
	case ta.Crossunder(macd, signal):
		return "death"
	}
	return ""
}

func volumeStatus(r indicator.Row) string {
	if r.VolumeRatio.Valid && r.VolumeRatio.Float64 > 1.5 {
		return "HIGH"
	}
	return "NORMAL"
}

func fixed(v float64) string {
	return decimal.NewFromFloat(v).StringFixed(2)
}

func fixedNull(v null.Float) string {
	if !v.Valid {
		return "N/A"
	}
	return fixed(v.Float64)
}

func percent(v null.Float) string {
	if !v.Valid {
		return "N/A"
	}
	return fixed(v.Float64) + "%"
}
