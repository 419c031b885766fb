package indicator

// Kind 标的类型
type Kind string

const (
	KindStock   Kind = "stock"
	KindFutures Kind = "futures"
)

func (k Kind) String() string {
	return string(k)
}

// Config 指标窗口参数，股票与期货共用
type Config struct {
	MAShort  int `json:"ma_short" yaml:"ma_short"`
	MAMedium int `json:"ma_medium" yaml:"ma_medium"`
	MALong   int `json:"ma_long" yaml:"ma_long"`

	RSIPeriod int `json:"rsi_period" yaml:"rsi_period"`

	MACDFast   int `json:"macd_fast" yaml:"macd_fast"`
	MACDSlow   int `json:"macd_slow" yaml:"macd_slow"`
	MACDSignal int `json:"macd_signal" yaml:"macd_signal"`

	BollingerPeriod int     `json:"bollinger_period" yaml:"bollinger_period"`
	BollingerStdDev float64 `json:"bollinger_std" yaml:"bollinger_std"`

	VolumeMAPeriod int `json:"volume_ma_period" yaml:"volume_ma_period"`
	ATRPeriod      int `json:"atr_period" yaml:"atr_period"`
	ROCPeriod      int `json:"roc_period" yaml:"roc_period"`

	// 期货扩展
	MomentumPeriod       int `json:"momentum_period" yaml:"momentum_period"`
	OpenInterestMAPeriod int `json:"open_interest_ma_period" yaml:"open_interest_ma_period"`
	TRAveragePeriod      int `json:"tr_average_period" yaml:"tr_average_period"`
}

// DefaultConfig 默认参数
func DefaultConfig() Config {
	return Config{
		MAShort:              5,
		MAMedium:             20,
		MALong:               60,
		RSIPeriod:            14,
		MACDFast:             12,
		MACDSlow:             26,
		MACDSignal:           9,
		BollingerPeriod:      20,
		BollingerStdDev:      2,
		VolumeMAPeriod:       20,
		ATRPeriod:            14,
		ROCPeriod:            10,
		MomentumPeriod:       10,
		OpenInterestMAPeriod: 14,
		TRAveragePeriod:      14,
	}
}

// WithDefaults 未设置的字段使用默认值
func (c Config) WithDefaults() Config {
	d := DefaultConfig()
	setInt := func(v *int, def int) {
		if *v <= 0 {
			*v = def
		}
	}
	setInt(&c.MAShort, d.MAShort)
	setInt(&c.MAMedium, d.MAMedium)
	setInt(&c.MALong, d.MALong)
	setInt(&c.RSIPeriod, d.RSIPeriod)
	setInt(&c.MACDFast, d.MACDFast)
	setInt(&c.MACDSlow, d.MACDSlow)
	setInt(&c.MACDSignal, d.MACDSignal)
	setInt(&c.BollingerPeriod, d.BollingerPeriod)
	setInt(&c.VolumeMAPeriod, d.VolumeMAPeriod)
	setInt(&c.ATRPeriod, d.ATRPeriod)
	setInt(&c.ROCPeriod, d.ROCPeriod)
	setInt(&c.MomentumPeriod, d.MomentumPeriod)
	setInt(&c.OpenInterestMAPeriod, d.OpenInterestMAPeriod)
	setInt(&c.TRAveragePeriod, d.TRAveragePeriod)
	if c.BollingerStdDev <= 0 {
		c.BollingerStdDev = d.BollingerStdDev
	}
	return c
}

// MaxWindow 最大窗口长度
func (c Config) MaxWindow() int {
	m := 0
	for _, w := range []int{c.MAShort, c.MAMedium, c.MALong, c.RSIPeriod + 1, c.MACDSlow,
		c.BollingerPeriod, c.VolumeMAPeriod, c.ATRPeriod, c.ROCPeriod + 1} {
		if w > m {
			m = w
		}
	}
	return m
}

// MinRows 生成报告所需的最少行数：最大窗口再加两行
func (c Config) MinRows() int {
	return c.MaxWindow() + 2
}
