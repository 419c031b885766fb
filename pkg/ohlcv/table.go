package ohlcv

import (
	"math"
	"sort"
	"time"

	"github.com/guregu/null/v6"
)

// 规范列名
const (
	ColumnDate         = "date"
	ColumnOpen         = "open"
	ColumnHigh         = "high"
	ColumnLow          = "low"
	ColumnClose        = "close"
	ColumnVolume       = "volume"
	ColumnOpenInterest = "open_interest"
)

// RequiredColumns 计算指标必须具备的列
var RequiredColumns = []string{ColumnDate, ColumnOpen, ColumnHigh, ColumnLow, ColumnClose, ColumnVolume}

// Record 数据源返回的原始行，数值可能缺失
type Record struct {
	Date         time.Time
	Open         null.Float
	High         null.Float
	Low          null.Float
	Close        null.Float
	Volume       null.Float
	OpenInterest null.Float
}

// Bar 清洗后的日线
type Bar struct {
	Date         time.Time  `json:"date"`
	Open         float64    `json:"open"`
	High         float64    `json:"high"`
	Low          float64    `json:"low"`
	Close        float64    `json:"close"`
	Volume       float64    `json:"volume"`
	OpenInterest null.Float `json:"open_interest"`
}

// Table 按日期升序、无重复日期的 OHLCV 表
type Table struct {
	Bars            []Bar
	HasOpenInterest bool
}

// NewTable 校验列并清洗原始行
// 缺少必需列返回 InvalidColumnError；open/high/low/close/volume 任一缺失的行被丢弃，
// 同一日期保留最后出现的一行。
func NewTable(columns []string, records []Record) (*Table, error) {
	present := make(map[string]bool, len(columns))
	for _, c := range columns {
		present[c] = true
	}
	for _, c := range RequiredColumns {
		if !present[c] {
			return nil, &InvalidColumnError{Column: c}
		}
	}

	byDate := make(map[time.Time]Bar, len(records))
	for _, r := range records {
		if !usable(r.Close) || r.Close.Float64 <= 0 {
			continue
		}
		if !usable(r.Volume) || r.Volume.Float64 < 0 {
			continue
		}
		if !usable(r.Open) || !usable(r.High) || !usable(r.Low) {
			continue
		}
		if r.Date.IsZero() {
			continue
		}
		oi := r.OpenInterest
		if !usable(oi) {
			oi = null.Float{}
		}
		day := TruncateDay(r.Date)
		byDate[day] = Bar{
			Date:         day,
			Open:         r.Open.Float64,
			High:         r.High.Float64,
			Low:          r.Low.Float64,
			Close:        r.Close.Float64,
			Volume:       r.Volume.Float64,
			OpenInterest: oi,
		}
	}

	bars := make([]Bar, 0, len(byDate))
	for _, b := range byDate {
		bars = append(bars, b)
	}
	sort.Slice(bars, func(i, j int) bool { return bars[i].Date.Before(bars[j].Date) })

	return &Table{Bars: bars, HasOpenInterest: present[ColumnOpenInterest]}, nil
}

// FromBars 直接由已清洗的日线构造表，按日期排序
func FromBars(bars []Bar, hasOpenInterest bool) *Table {
	out := make([]Bar, len(bars))
	copy(out, bars)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })
	return &Table{Bars: out, HasOpenInterest: hasOpenInterest}
}

func usable(v null.Float) bool {
	return v.Valid && !math.IsNaN(v.Float64) && !math.IsInf(v.Float64, 0)
}

// TruncateDay 截断到 UTC 自然日
func TruncateDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// Len 行数
func (t *Table) Len() int {
	return len(t.Bars)
}

// Closes 收盘价序列
func (t *Table) Closes() []float64 {
	out := make([]float64, len(t.Bars))
	for i, b := range t.Bars {
		out[i] = b.Close
	}
	return out
}

// Highs 最高价序列
func (t *Table) Highs() []float64 {
	out := make([]float64, len(t.Bars))
	for i, b := range t.Bars {
		out[i] = b.High
	}
	return out
}

// Lows 最低价序列
func (t *Table) Lows() []float64 {
	out := make([]float64, len(t.Bars))
	for i, b := range t.Bars {
		out[i] = b.Low
	}
	return out
}

// Volumes 成交量序列
func (t *Table) Volumes() []float64 {
	out := make([]float64, len(t.Bars))
	for i, b := range t.Bars {
		out[i] = b.Volume
	}
	return out
}

// OpenInterest 持仓量序列，可能包含缺失值
func (t *Table) OpenInterest() []null.Float {
	out := make([]null.Float, len(t.Bars))
	for i, b := range t.Bars {
		out[i] = b.OpenInterest
	}
	return out
}

// Between 截取 [start, end] 闭区间内的日线，零值表示不限制
func (t *Table) Between(start, end time.Time) *Table {
	out := make([]Bar, 0, len(t.Bars))
	for _, b := range t.Bars {
		if !start.IsZero() && b.Date.Before(TruncateDay(start)) {
			continue
		}
		if !end.IsZero() && b.Date.After(TruncateDay(end)) {
			continue
		}
		out = append(out, b)
	}
	return &Table{Bars: out, HasOpenInterest: t.HasOpenInterest}
}
