package marketdata

import (
	"strings"

	"github.com/dushixiang/augur/pkg/indicator"
)

// Market 市场标识
type Market string

const (
	MarketA      Market = "A"
	MarketUS     Market = "US"
	MarketHK     Market = "HK"
	MarketCN     Market = "CN"
	MarketGlobal Market = "GLOBAL"
	MarketCrypto Market = "CRYPTO"
)

// Markets 全部支持的市场
var Markets = []Market{MarketA, MarketUS, MarketHK, MarketCN, MarketGlobal, MarketCrypto}

// ParseMarket 解析市场标识，大小写不敏感
func ParseMarket(s string) (Market, error) {
	m := Market(strings.ToUpper(strings.TrimSpace(s)))
	for _, known := range Markets {
		if m == known {
			return m, nil
		}
	}
	return "", &UnsupportedMarketError{Market: s}
}

// Kind 市场对应的评分类型
func (m Market) Kind() indicator.Kind {
	switch m {
	case MarketCN, MarketGlobal, MarketCrypto:
		return indicator.KindFutures
	default:
		return indicator.KindStock
	}
}

func (m Market) String() string {
	return string(m)
}
