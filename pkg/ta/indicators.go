package ta

import (
	"math"

	"github.com/guregu/null/v6"
	"github.com/markcheno/go-talib"
)

// masked 将 talib 输出的前 lookback 个占位值标记为缺失
func masked(out []float64, lookback int) Series {
	s := make(Series, len(out))
	for i := lookback; i < len(out); i++ {
		s[i] = valid(out[i])
	}
	return s
}

// EMA 递推指数移动平均，平滑系数 2/(period+1)，以第一个有效值为种子
// 累计 period 个有效输入之前的输出为缺失。
func EMA(values Series, period int) Series {
	out := make(Series, len(values))
	if period <= 0 {
		return out
	}
	alpha := 2.0 / float64(period+1)

	var (
		ema    float64
		seeded bool
		count  int
	)
	for i, v := range values {
		if !v.Valid {
			continue
		}
		if !seeded {
			ema = v.Float64
			seeded = true
		} else {
			ema = alpha*v.Float64 + (1-alpha)*ema
		}
		count++
		if count >= period {
			out[i] = valid(ema)
		}
	}
	return out
}

// SMA 简单移动平均
func SMA(values []float64, period int) Series {
	if period <= 0 || len(values) < period {
		return make(Series, len(values))
	}
	return masked(talib.Sma(values, period), period-1)
}

// RollingMean 可空序列的滚动均值，窗口内存在缺失值时结果缺失
func RollingMean(values Series, period int) Series {
	out := make(Series, len(values))
	if period <= 0 {
		return out
	}
	for i := period - 1; i < len(values); i++ {
		sum := 0.0
		ok := true
		for j := i - period + 1; j <= i; j++ {
			if !values[j].Valid {
				ok = false
				break
			}
			sum += values[j].Float64
		}
		if ok {
			out[i] = valid(sum / float64(period))
		}
	}
	return out
}

// StdDev 滚动样本标准差（n-1）
func StdDev(values []float64, period int) Series {
	if period <= 1 || len(values) < period {
		return make(Series, len(values))
	}
	// talib 返回总体标准差，换算为样本标准差
	population := talib.StdDev(values, period, 1)
	correction := math.Sqrt(float64(period) / float64(period-1))
	for i := range population {
		population[i] *= correction
	}
	return masked(population, period-1)
}

// RSI 相对强弱指标
// 取最近 period 个收盘价差的平均涨幅与平均跌幅；平均跌幅为零时返回 100。
func RSI(closes []float64, period int) Series {
	out := make(Series, len(closes))
	if period <= 0 {
		return out
	}
	for i := period; i < len(closes); i++ {
		gain, loss := 0.0, 0.0
		for j := i - period + 1; j <= i; j++ {
			d := closes[j] - closes[j-1]
			if d > 0 {
				gain += d
			} else {
				loss -= d
			}
		}
		if loss == 0 {
			out[i] = null.FloatFrom(100)
			continue
		}
		rs := (gain / float64(period)) / (loss / float64(period))
		out[i] = valid(100 - 100/(1+rs))
	}
	return out
}

// ROC 变动率，百分比
func ROC(closes []float64, period int) Series {
	if period <= 0 || len(closes) <= period {
		return make(Series, len(closes))
	}
	return masked(talib.Roc(closes, period), period)
}

// Momentum 收盘价与 period 根之前的差值
func Momentum(closes []float64, period int) Series {
	if period <= 0 || len(closes) <= period {
		return make(Series, len(closes))
	}
	return masked(talib.Mom(closes, period), period)
}

// TrueRange 真实波幅，首根没有前收盘价时取 high-low
func TrueRange(highs, lows, closes []float64) []float64 {
	out := make([]float64, len(closes))
	for i := range closes {
		tr := highs[i] - lows[i]
		if i > 0 {
			prev := closes[i-1]
			tr = math.Max(tr, math.Max(math.Abs(highs[i]-prev), math.Abs(lows[i]-prev)))
		}
		out[i] = tr
	}
	return out
}

// PctChange 相邻 periods 个位置的百分比变化，任一端缺失或基数为零时结果缺失
func PctChange(values Series, periods int) Series {
	out := make(Series, len(values))
	for i := periods; i < len(values); i++ {
		cur, prev := values[i], values[i-periods]
		if !cur.Valid || !prev.Valid || prev.Float64 == 0 {
			continue
		}
		out[i] = valid((cur.Float64 - prev.Float64) / prev.Float64 * 100)
	}
	return out
}

// MACD 快慢 EMA 之差、信号线与柱状图
func MACD(closes []float64, fast, slow, signal int) (macd, sig, hist Series) {
	dense := Dense(closes)
	macd = Combine(EMA(dense, fast), EMA(dense, slow), func(x, y float64) float64 { return x - y })
	sig = EMA(macd, signal)
	hist = Combine(macd, sig, func(x, y float64) float64 { return x - y })
	return macd, sig, hist
}
