package scoring

import (
	"github.com/dushixiang/augur/pkg/indicator"
	"github.com/dushixiang/augur/pkg/ohlcv"
	"github.com/guregu/null/v6"
)

const (
	futuresBase = 50
	minScore    = 0
	maxScore    = 100
)

// Options 评分选项
type Options struct {
	// ClampStock 股票评分是否同样限制在 [0,100]，默认不限制
	ClampStock bool `json:"clamp_stock" yaml:"clamp_stock"`
}

// Hit 命中的规则
type Hit struct {
	Rule  string `json:"rule"`
	Delta int    `json:"delta"`
}

// Result 评分结果
type Result struct {
	Score int   `json:"score"`
	Hits  []Hit `json:"hits"`
}

// Score 根据最新两行指标计算评分
func Score(tbl *indicator.Table, kind indicator.Kind, opts Options) (int, error) {
	res, err := Evaluate(tbl, kind, opts)
	if err != nil {
		return 0, err
	}
	return res.Score, nil
}

// Evaluate 计算评分并返回命中的规则
// 少于两行返回 InsufficientDataError；任何缺失值参与的比较视为不成立。
func Evaluate(tbl *indicator.Table, kind indicator.Kind, opts Options) (Result, error) {
	if err := ohlcv.RequireRows(tbl.Len(), 2); err != nil {
		return Result{}, err
	}
	latest, _ := tbl.Latest()
	prev, _ := tbl.Previous()

	var res Result
	switch kind {
	case indicator.KindFutures:
		res = evaluateFutures(latest, prev)
		res.Score = clamp(res.Score)
	default:
		res = evaluateStock(latest)
		if opts.ClampStock {
			res.Score = clamp(res.Score)
		}
	}
	return res, nil
}

type scorer struct {
	res Result
}

func (s *scorer) add(rule string, delta int) {
	s.res.Score += delta
	s.res.Hits = append(s.res.Hits, Hit{Rule: rule, Delta: delta})
}

func evaluateStock(r indicator.Row) Result {
	var s scorer

	if gt(r.MA5, r.MA20) {
		s.add("MA5>MA20", 15)
	}
	if gt(r.MA20, r.MA60) {
		s.add("MA20>MA60", 15)
	}

	switch {
	case between(r.RSI, 30, 70):
		s.add("30<=RSI<=70", 20)
	case lt(r.RSI, null.FloatFrom(30)):
		s.add("RSI<30", 15)
	}

	if gt(r.MACD, r.Signal) {
		s.add("MACD>Signal", 20)
	}

	switch {
	case gt(r.VolumeRatio, null.FloatFrom(1.5)):
		s.add("Volume_Ratio>1.5", 30)
	case gt(r.VolumeRatio, null.FloatFrom(1)):
		s.add("1<Volume_Ratio<=1.5", 15)
	}

	return s.res
}

func evaluateFutures(r, prev indicator.Row) Result {
	s := scorer{res: Result{Score: futuresBase}}

	switch {
	case gt(r.MA5, r.MA20) && gt(r.MA20, r.MA60):
		s.add("MA5>MA20>MA60", 15)
	case gt(r.MA5, r.MA20):
		s.add("MA5>MA20", 10)
	case lt(r.MA5, r.MA20) && lt(r.MA20, r.MA60):
		s.add("MA5<MA20<MA60", -15)
	case lt(r.MA5, r.MA20):
		s.add("MA5<MA20", -10)
	}

	zero := null.FloatFrom(0)
	switch {
	case gt(r.MACD, r.Signal) && gt(r.MACDHist, zero):
		s.add("MACD>Signal", 10)
	case lt(r.MACD, r.Signal) && lt(r.MACDHist, zero):
		s.add("MACD<Signal", -10)
	}

	switch {
	case gt(r.RSI, null.FloatFrom(70)):
		s.add("RSI>70", 5)
	case lt(r.RSI, null.FloatFrom(30)):
		s.add("RSI<30", -5)
	}

	// 动量缺失按非正动量处理
	if gt(r.Momentum, zero) {
		s.add("Momentum>0", 5)
	} else {
		s.add("Momentum<=0", -5)
	}

	closePrice := null.FloatFrom(r.Close)
	switch {
	case gt(closePrice, r.BBUpper):
		s.add("Close>BB_upper", -10)
	case lt(closePrice, r.BBLower):
		s.add("Close<BB_lower", 10)
	}

	switch {
	case gt(r.VolumeRatio, null.FloatFrom(1.5)):
		s.add("Volume_Ratio>1.5", 5)
	case lt(r.VolumeRatio, null.FloatFrom(0.5)):
		s.add("Volume_Ratio<0.5", -5)
	}

	switch {
	case gt(r.OIChange, null.FloatFrom(5)) && r.Close > prev.Close:
		s.add("OI_Change>5 price up", 10)
	case lt(r.OIChange, null.FloatFrom(-5)) && r.Close < prev.Close:
		s.add("OI_Change<-5 price down", -10)
	}

	return s.res
}

func gt(a, b null.Float) bool {
	return a.Valid && b.Valid && a.Float64 > b.Float64
}

func lt(a, b null.Float) bool {
	return a.Valid && b.Valid && a.Float64 < b.Float64
}

func between(v null.Float, lo, hi float64) bool {
	return v.Valid && v.Float64 >= lo && v.Float64 <= hi
}

func clamp(score int) int {
	if score < minScore {
		return minScore
	}
	if score > maxScore {
		return maxScore
	}
	return score
}
