package ta

import (
	"math"

	"github.com/guregu/null/v6"
)

// Series 可空数值序列，缺失值表示窗口尚未填满或分母为零
type Series []null.Float

// Dense 将普通序列转换为全部有效的 Series
func Dense(values []float64) Series {
	out := make(Series, len(values))
	for i, v := range values {
		out[i] = valid(v)
	}
	return out
}

func valid(v float64) null.Float {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return null.Float{}
	}
	return null.FloatFrom(v)
}

// Last 取倒数第 position+1 个值，越界返回缺失
func Last(s Series, position int) null.Float {
	idx := len(s) - 1 - position
	if idx < 0 || idx >= len(s) {
		return null.Float{}
	}
	return s[idx]
}

// LastValues 取最近 size 个值
func LastValues[T any](s []T, size int) []T {
	if l := len(s); l > size {
		return s[l-size:]
	}
	return s
}

// Crossover s1 在最近一根上穿 s2
func Crossover(s1, s2 Series) bool {
	a0, b0, a1, b1 := Last(s1, 0), Last(s2, 0), Last(s1, 1), Last(s2, 1)
	if !a0.Valid || !b0.Valid || !a1.Valid || !b1.Valid {
		return false
	}
	return a0.Float64 > b0.Float64 && a1.Float64 <= b1.Float64
}

// Crossunder s1 在最近一根下穿 s2
func Crossunder(s1, s2 Series) bool {
	a0, b0, a1, b1 := Last(s1, 0), Last(s2, 0), Last(s1, 1), Last(s2, 1)
	if !a0.Valid || !b0.Valid || !a1.Valid || !b1.Valid {
		return false
	}
	return a0.Float64 <= b0.Float64 && a1.Float64 > b1.Float64
}

// Highest 最近 period 个值中的最大值
func Highest(values []float64, period int) float64 {
	arr := LastValues(values, period)
	if len(arr) == 0 {
		return math.NaN()
	}
	maxVal := arr[0]
	for _, value := range arr {
		if value > maxVal {
			maxVal = value
		}
	}
	return maxVal
}

// Lowest 最近 period 个值中的最小值
func Lowest(values []float64, period int) float64 {
	arr := LastValues(values, period)
	if len(arr) == 0 {
		return math.NaN()
	}
	minVal := arr[0]
	for _, value := range arr {
		if value < minVal {
			minVal = value
		}
	}
	return minVal
}

// Mean 有效值的算术平均，没有有效值时返回缺失
func Mean(s Series) null.Float {
	sum, n := 0.0, 0
	for _, v := range s {
		if v.Valid {
			sum += v.Float64
			n++
		}
	}
	if n == 0 {
		return null.Float{}
	}
	return null.FloatFrom(sum / float64(n))
}

// Combine 逐点组合两个序列，任一缺失则结果缺失
func Combine(a, b Series, f func(x, y float64) float64) Series {
	out := make(Series, len(a))
	for i := range a {
		if i >= len(b) || !a[i].Valid || !b[i].Valid {
			continue
		}
		out[i] = valid(f(a[i].Float64, b[i].Float64))
	}
	return out
}

// Ratio 逐点相除，分母缺失或为零时结果缺失
func Ratio(num, den Series) Series {
	out := make(Series, len(num))
	for i := range num {
		if i >= len(den) || !num[i].Valid || !den[i].Valid || den[i].Float64 == 0 {
			continue
		}
		out[i] = valid(num[i].Float64 / den[i].Float64)
	}
	return out
}

// Scale 逐点乘以常数
func Scale(s Series, k float64) Series {
	out := make(Series, len(s))
	for i, v := range s {
		if v.Valid {
			out[i] = valid(v.Float64 * k)
		}
	}
	return out
}
