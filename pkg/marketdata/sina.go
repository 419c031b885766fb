package marketdata

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/dushixiang/augur/pkg/ohlcv"
)

const sinaBaseURL = "https://stock2.finance.sina.com.cn"

var sinaRename = map[string]string{
	"d": ohlcv.ColumnDate,
	"o": ohlcv.ColumnOpen,
	"h": ohlcv.ColumnHigh,
	"l": ohlcv.ColumnLow,
	"c": ohlcv.ColumnClose,
	"v": ohlcv.ColumnVolume,
	"p": ohlcv.ColumnOpenInterest,
}

// Sina 新浪期货日线数据源（国内期货主力连续合约，含持仓量）
type Sina struct {
	baseURL string
	client  *http.Client
}

// NewSina 创建新浪数据源
func NewSina(opts HTTPOptions) *Sina {
	base := opts.BaseURL
	if base == "" {
		base = sinaBaseURL
	}
	return &Sina{
		baseURL: strings.TrimRight(base, "/"),
		client:  newHTTPClient(opts),
	}
}

func (s *Sina) Name() string { return "sina" }

// Fetch 拉取主力连续合约日线，代码如 RB0、M0
func (s *Sina) Fetch(ctx context.Context, q Query) (*ohlcv.Table, error) {
	q = q.WithDefaults(time.Now())
	symbol := SinaSymbol(q.Code)

	params := url.Values{}
	params.Set("symbol", symbol)
	params.Set("type", q.End.Format("2006_01_02"))
	fullURL := fmt.Sprintf("%s/futures/api/jsonp.php/var%%20_%s=/InnerFuturesNewService.getDailyKLine?%s",
		s.baseURL, url.PathEscape(symbol), params.Encode())

	header := http.Header{}
	header.Set("Referer", "https://finance.sina.com.cn")
	body, err := getBody(ctx, s.client, fullURL, header)
	if err != nil {
		return nil, retrievalError(s.Name(), q.Code, err)
	}

	items, err := decodeJSONP(body)
	if err != nil {
		return nil, retrievalError(s.Name(), q.Code, err)
	}
	if len(items) == 0 {
		return nil, retrievalError(s.Name(), q.Code, errors.New("no data"))
	}

	tbl, err := ohlcv.FromMaps(items, sinaRename)
	if err != nil {
		return nil, retrievalError(s.Name(), q.Code, err)
	}
	return tbl.Between(q.Start, q.End), nil
}

// SinaSymbol 未带合约月份的品种代码补全为主力连续合约
func SinaSymbol(code string) string {
	code = strings.ToUpper(strings.TrimSpace(code))
	if code == "" {
		return code
	}
	last := code[len(code)-1]
	if last < '0' || last > '9' {
		return code + "0"
	}
	return code
}

// decodeJSONP 取出 JSONP 回调括号内的数组
func decodeJSONP(body []byte) ([]map[string]any, error) {
	start := bytes.IndexByte(body, '(')
	end := bytes.LastIndexByte(body, ')')
	if start < 0 || end <= start {
		return nil, fmt.Errorf("unexpected jsonp payload: %s", truncate(string(body), 120))
	}
	payload := bytes.TrimSpace(body[start+1 : end])
	if len(payload) == 0 || bytes.Equal(payload, []byte("null")) {
		return nil, nil
	}

	var items []map[string]any
	if err := json.Unmarshal(payload, &items); err != nil {
		return nil, fmt.Errorf("decode jsonp: %w", err)
	}
	return items, nil
}
