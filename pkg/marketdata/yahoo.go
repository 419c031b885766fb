package marketdata

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/dushixiang/augur/pkg/ohlcv"
	"github.com/guregu/null/v6"
)

const yahooBaseURL = "https://query1.finance.yahoo.com"

// Yahoo Yahoo Finance chart 数据源，覆盖 A 股、美股、港股与海外期货
type Yahoo struct {
	baseURL string
	client  *http.Client
}

// NewYahoo 创建 Yahoo 数据源
func NewYahoo(opts HTTPOptions) *Yahoo {
	base := opts.BaseURL
	if base == "" {
		base = yahooBaseURL
	}
	return &Yahoo{
		baseURL: strings.TrimRight(base, "/"),
		client:  newHTTPClient(opts),
	}
}

func (y *Yahoo) Name() string { return "yahoo" }

type yahooChartResponse struct {
	Chart struct {
		Result []yahooChartResult `json:"result"`
		Error  *struct {
			Code        string `json:"code"`
			Description string `json:"description"`
		} `json:"error"`
	} `json:"chart"`
}

type yahooChartResult struct {
	Meta struct {
		Symbol    string `json:"symbol"`
		LongName  string `json:"longName"`
		ShortName string `json:"shortName"`
		Currency  string `json:"currency"`
	} `json:"meta"`
	Timestamp  []int64 `json:"timestamp"`
	Indicators struct {
		Quote []struct {
			Open   []*float64 `json:"open"`
			High   []*float64 `json:"high"`
			Low    []*float64 `json:"low"`
			Close  []*float64 `json:"close"`
			Volume []*float64 `json:"volume"`
		} `json:"quote"`
	} `json:"indicators"`
}

// Fetch 拉取日线
func (y *Yahoo) Fetch(ctx context.Context, q Query) (*ohlcv.Table, error) {
	q = q.WithDefaults(time.Now())
	symbol, err := YahooSymbol(q.Code, q.Market)
	if err != nil {
		return nil, err
	}

	params := url.Values{}
	params.Set("interval", "1d")
	params.Set("period1", strconv.FormatInt(q.Start.Unix(), 10))
	params.Set("period2", strconv.FormatInt(q.End.Add(24*time.Hour).Unix(), 10))
	params.Set("events", "history")

	result, err := y.chart(ctx, symbol, params)
	if err != nil {
		return nil, retrievalError(y.Name(), q.Code, err)
	}

	tbl, err := result.table()
	if err != nil {
		return nil, retrievalError(y.Name(), q.Code, err)
	}
	return tbl.Between(q.Start, q.End), nil
}

// LookupName 从 chart 元数据中读取名称
func (y *Yahoo) LookupName(ctx context.Context, code string, market Market) (string, error) {
	symbol, err := YahooSymbol(code, market)
	if err != nil {
		return "", err
	}
	params := url.Values{}
	params.Set("interval", "1d")
	params.Set("range", "5d")
	result, err := y.chart(ctx, symbol, params)
	if err != nil {
		return "", retrievalError(y.Name(), code, err)
	}
	if result.Meta.LongName != "" {
		return result.Meta.LongName, nil
	}
	return result.Meta.ShortName, nil
}

func (y *Yahoo) chart(ctx context.Context, symbol string, params url.Values) (*yahooChartResult, error) {
	fullURL := fmt.Sprintf("%s/v8/finance/chart/%s?%s", y.baseURL, url.PathEscape(symbol), params.Encode())

	var resp yahooChartResponse
	if err := getJSON(ctx, y.client, fullURL, &resp); err != nil {
		return nil, err
	}
	if resp.Chart.Error != nil {
		return nil, fmt.Errorf("%s: %s", resp.Chart.Error.Code, resp.Chart.Error.Description)
	}
	if len(resp.Chart.Result) == 0 {
		return nil, errors.New("empty chart result")
	}
	return &resp.Chart.Result[0], nil
}

func (r *yahooChartResult) table() (*ohlcv.Table, error) {
	columns := []string{ohlcv.ColumnDate, ohlcv.ColumnOpen, ohlcv.ColumnHigh, ohlcv.ColumnLow, ohlcv.ColumnClose, ohlcv.ColumnVolume}
	if len(r.Indicators.Quote) == 0 {
		return ohlcv.NewTable(columns, nil)
	}
	quote := r.Indicators.Quote[0]

	records := make([]ohlcv.Record, 0, len(r.Timestamp))
	for i, ts := range r.Timestamp {
		records = append(records, ohlcv.Record{
			Date:   time.Unix(ts, 0).UTC(),
			Open:   at(quote.Open, i),
			High:   at(quote.High, i),
			Low:    at(quote.Low, i),
			Close:  at(quote.Close, i),
			Volume: at(quote.Volume, i),
		})
	}
	return ohlcv.NewTable(columns, records)
}

func at(values []*float64, i int) null.Float {
	if i >= len(values) {
		return null.Float{}
	}
	return null.FloatFromPtr(values[i])
}

// YahooSymbol 将市场内代码转换为 Yahoo 代码
func YahooSymbol(code string, market Market) (string, error) {
	code = strings.ToUpper(strings.TrimSpace(code))
	if code == "" {
		return "", errors.New("empty code")
	}
	switch market {
	case MarketA:
		if strings.Contains(code, ".") {
			return code, nil
		}
		switch code[0] {
		case '6', '9', '5':
			return code + ".SS", nil
		case '4', '8':
			return code + ".BJ", nil
		default:
			return code + ".SZ", nil
		}
	case MarketHK:
		code = strings.TrimSuffix(code, ".HK")
		code = strings.TrimLeft(code, "0")
		for len(code) < 4 {
			code = "0" + code
		}
		return code + ".HK", nil
	case MarketUS:
		return code, nil
	case MarketGlobal:
		if strings.Contains(code, "=") {
			return code, nil
		}
		return code + "=F", nil
	default:
		return "", &UnsupportedMarketError{Market: string(market)}
	}
}
