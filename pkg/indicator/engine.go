package indicator

import (
	"github.com/dushixiang/augur/pkg/ohlcv"
	"github.com/dushixiang/augur/pkg/ta"
)

// Stage 指标计算阶段，基于同一张日线表向 rows 追加字段
type Stage func(cfg Config, src *ohlcv.Table, rows []Row)

// Engine 指标引擎
type Engine struct {
	cfg        Config
	extensions map[Kind][]Stage
}

// NewEngine 创建指标引擎，期货类型默认挂载持仓量/动量扩展阶段
func NewEngine(cfg Config) *Engine {
	return &Engine{
		cfg: cfg.WithDefaults(),
		extensions: map[Kind][]Stage{
			KindFutures: {FuturesStage},
		},
	}
}

// Config 当前参数
func (e *Engine) Config() Config {
	return e.cfg
}

// Compute 计算全部指标
// 输入少于两行返回 InsufficientDataError；调用方不应假设 src 未被修改。
func (e *Engine) Compute(src *ohlcv.Table, kind Kind) (*Table, error) {
	if src == nil {
		return nil, &ohlcv.InsufficientDataError{Need: 2, Got: 0}
	}
	if err := ohlcv.RequireRows(src.Len(), 2); err != nil {
		return nil, err
	}

	rows := make([]Row, src.Len())
	for i, b := range src.Bars {
		rows[i].Bar = b
	}

	BaseStage(e.cfg, src, rows)
	for _, stage := range e.extensions[kind] {
		stage(e.cfg, src, rows)
	}

	return &Table{Kind: kind, Rows: rows}, nil
}

// Compute 使用默认参数计算指标
func Compute(src *ohlcv.Table, kind Kind) (*Table, error) {
	return NewEngine(DefaultConfig()).Compute(src, kind)
}

// BaseStage 股票与期货共用的指标
func BaseStage(cfg Config, src *ohlcv.Table, rows []Row) {
	closes := src.Closes()
	highs := src.Highs()
	lows := src.Lows()
	volumes := src.Volumes()
	denseCloses := ta.Dense(closes)

	ma5 := ta.EMA(denseCloses, cfg.MAShort)
	ma20 := ta.EMA(denseCloses, cfg.MAMedium)
	ma60 := ta.EMA(denseCloses, cfg.MALong)

	rsi := ta.RSI(closes, cfg.RSIPeriod)
	macd, signal, hist := ta.MACD(closes, cfg.MACDFast, cfg.MACDSlow, cfg.MACDSignal)

	middle := ta.SMA(closes, cfg.BollingerPeriod)
	std := ta.StdDev(closes, cfg.BollingerPeriod)
	k := cfg.BollingerStdDev
	upper := ta.Combine(middle, std, func(m, s float64) float64 { return m + k*s })
	lower := ta.Combine(middle, std, func(m, s float64) float64 { return m - k*s })

	volumeMA := ta.SMA(volumes, cfg.VolumeMAPeriod)
	volumeRatio := ta.Ratio(ta.Dense(volumes), volumeMA)

	atr := ta.SMA(ta.TrueRange(highs, lows, closes), cfg.ATRPeriod)
	volatility := ta.Scale(ta.Ratio(atr, denseCloses), 100)

	roc := ta.ROC(closes, cfg.ROCPeriod)

	for i := range rows {
		r := &rows[i]
		r.MA5, r.MA20, r.MA60 = ma5[i], ma20[i], ma60[i]
		r.RSI = rsi[i]
		r.MACD, r.Signal, r.MACDHist = macd[i], signal[i], hist[i]
		r.BBUpper, r.BBMiddle, r.BBLower = upper[i], middle[i], lower[i]
		r.VolumeMA, r.VolumeRatio = volumeMA[i], volumeRatio[i]
		r.ATR, r.Volatility = atr[i], volatility[i]
		r.ROC = roc[i]
	}
}

// FuturesStage 期货扩展指标：持仓量变化、持仓均线、动量、量仓比、真实波幅
func FuturesStage(cfg Config, src *ohlcv.Table, rows []Row) {
	closes := src.Closes()
	oi := ta.Series(src.OpenInterest())

	oiChange := ta.PctChange(oi, 1)
	oiMA := ta.RollingMean(oi, cfg.OpenInterestMAPeriod)
	momentum := ta.Momentum(closes, cfg.MomentumPeriod)
	voi := ta.Ratio(ta.Dense(src.Volumes()), oi)
	tr := ta.TrueRange(src.Highs(), src.Lows(), closes)
	trSeries := ta.Dense(tr)
	atr14 := ta.SMA(tr, cfg.TRAveragePeriod)

	for i := range rows {
		r := &rows[i]
		r.OIChange = oiChange[i]
		r.OIMA = oiMA[i]
		r.Momentum = momentum[i]
		r.VOIRatio = voi[i]
		r.TR = trSeries[i]
		r.ATR14 = atr14[i]
	}
}
