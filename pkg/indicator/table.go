package indicator

import (
	"github.com/dushixiang/augur/pkg/ohlcv"
	"github.com/guregu/null/v6"
)

// Row 一行日线及其派生指标，窗口未填满的字段为缺失
type Row struct {
	ohlcv.Bar

	MA5         null.Float `json:"MA5"`
	MA20        null.Float `json:"MA20"`
	MA60        null.Float `json:"MA60"`
	RSI         null.Float `json:"RSI"`
	MACD        null.Float `json:"MACD"`
	Signal      null.Float `json:"Signal"`
	MACDHist    null.Float `json:"MACD_hist"`
	BBUpper     null.Float `json:"BB_upper"`
	BBMiddle    null.Float `json:"BB_middle"`
	BBLower     null.Float `json:"BB_lower"`
	VolumeMA    null.Float `json:"Volume_MA"`
	VolumeRatio null.Float `json:"Volume_Ratio"`
	ATR         null.Float `json:"ATR"`
	Volatility  null.Float `json:"Volatility"`
	ROC         null.Float `json:"ROC"`

	// 仅期货
	OIChange null.Float `json:"OI_Change,omitempty"`
	OIMA     null.Float `json:"OI_MA,omitempty"`
	Momentum null.Float `json:"Momentum,omitempty"`
	VOIRatio null.Float `json:"VOI_Ratio,omitempty"`
	TR       null.Float `json:"TR,omitempty"`
	ATR14    null.Float `json:"ATR14,omitempty"`
}

// Table 计算完成的指标表，与输入日线一一对应
type Table struct {
	Kind Kind
	Rows []Row
}

// Len 行数
func (t *Table) Len() int {
	if t == nil {
		return 0
	}
	return len(t.Rows)
}

// Latest 最新一行
func (t *Table) Latest() (Row, bool) {
	if t.Len() == 0 {
		return Row{}, false
	}
	return t.Rows[len(t.Rows)-1], true
}

// Previous 倒数第二行
func (t *Table) Previous() (Row, bool) {
	if t.Len() < 2 {
		return Row{}, false
	}
	return t.Rows[len(t.Rows)-2], true
}

// Tail 最近 n 行
func (t *Table) Tail(n int) []Row {
	if t.Len() <= n {
		return t.Rows
	}
	return t.Rows[len(t.Rows)-n:]
}
