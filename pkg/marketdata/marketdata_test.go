package marketdata

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/dushixiang/augur/pkg/indicator"
	"github.com/dushixiang/augur/pkg/ohlcv"
)

func TestParseMarket(t *testing.T) {
	m, err := ParseMarket(" hk ")
	if err != nil || m != MarketHK {
		t.Fatalf("unexpected %v %v", m, err)
	}
	_, err = ParseMarket("JP")
	var ume *UnsupportedMarketError
	if !errors.As(err, &ume) || ume.Market != "JP" {
		t.Fatalf("expected UnsupportedMarketError, got %v", err)
	}
	if MarketCN.Kind() != indicator.KindFutures || MarketUS.Kind() != indicator.KindStock {
		t.Error("unexpected market kind")
	}
}

func TestYahooSymbol(t *testing.T) {
	tests := []struct {
		code   string
		market Market
		want   string
	}{
		{"600519", MarketA, "600519.SS"},
		{"000001", MarketA, "000001.SZ"},
		{"830799", MarketA, "830799.BJ"},
		{"00700", MarketHK, "0700.HK"},
		{"9988", MarketHK, "9988.HK"},
		{"aapl", MarketUS, "AAPL"},
		{"CL", MarketGlobal, "CL=F"},
	}
	for _, tt := range tests {
		got, err := YahooSymbol(tt.code, tt.market)
		if err != nil {
			t.Fatalf("%s: %v", tt.code, err)
		}
		if got != tt.want {
			t.Errorf("YahooSymbol(%s, %s) = %s, want %s", tt.code, tt.market, got, tt.want)
		}
	}
	if _, err := YahooSymbol("RB0", MarketCN); err == nil {
		t.Error("expected error for CN futures")
	}
}

func TestYahooFetch(t *testing.T) {
	day := func(s string) int64 {
		ts, _ := time.Parse("2006-01-02", s)
		return ts.Add(14 * time.Hour).Unix()
	}
	mux := http.NewServeMux()
	mux.HandleFunc("/v8/finance/chart/AAPL", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("interval") != "1d" {
			t.Errorf("unexpected interval %s", r.URL.Query().Get("interval"))
		}
		_, _ = w.Write([]byte(`{"chart":{"result":[{"meta":{"symbol":"AAPL","longName":"Apple Inc."},
			"timestamp":[` + jsonInts(day("2024-01-02"), day("2024-01-03"), day("2024-01-04")) + `],
			"indicators":{"quote":[{"open":[1,2,null],"high":[2,3,4],"low":[0.5,1,2],"close":[1.5,2.5,3],"volume":[100,200,300]}]}}],"error":null}}`))
	})
	mux.HandleFunc("/v8/finance/chart/NOPE", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"chart":{"result":null,"error":{"code":"Not Found","description":"No data found"}}}`))
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	y := NewYahoo(HTTPOptions{BaseURL: srv.URL})
	start, _ := time.Parse("2006-01-02", "2024-01-01")
	end, _ := time.Parse("2006-01-02", "2024-01-31")

	tbl, err := y.Fetch(context.Background(), Query{Code: "AAPL", Market: MarketUS, Start: start, End: end})
	if err != nil {
		t.Fatal(err)
	}
	if tbl.Len() != 2 {
		t.Fatalf("expected 2 rows (null open dropped), got %d", tbl.Len())
	}
	if tbl.Bars[1].Close != 2.5 || tbl.Bars[1].Date.Format("2006-01-02") != "2024-01-03" {
		t.Errorf("unexpected bar %+v", tbl.Bars[1])
	}

	name, err := y.LookupName(context.Background(), "AAPL", MarketUS)
	if err != nil || name != "Apple Inc." {
		t.Errorf("unexpected name %q %v", name, err)
	}

	_, err = y.Fetch(context.Background(), Query{Code: "NOPE", Market: MarketUS})
	var re *RetrievalError
	if !errors.As(err, &re) || re.Provider != "yahoo" || re.Code != "NOPE" {
		t.Fatalf("expected RetrievalError, got %v", err)
	}
}

func TestSinaFetch(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/futures/api/jsonp.php/", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("symbol") != "RB0" {
			t.Errorf("unexpected symbol %s", r.URL.Query().Get("symbol"))
		}
		_, _ = w.Write([]byte(`/*<script>location.href='//sina.com';</script>*/
var _RB0=([{"d":"2024-01-02","o":"3900","h":"3950","l":"3880","c":"3920","v":"1000","p":"200000","s":"3910"},
{"d":"2024-01-03","o":"3920","h":"3990","l":"3900","c":"3980","v":"1500","p":"210000","s":"3950"}]);`))
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	s := NewSina(HTTPOptions{BaseURL: srv.URL})
	end, _ := time.Parse("2006-01-02", "2024-01-10")
	tbl, err := s.Fetch(context.Background(), Query{Code: "rb", Market: MarketCN, End: end})
	if err != nil {
		t.Fatal(err)
	}
	if tbl.Len() != 2 || !tbl.HasOpenInterest {
		t.Fatalf("unexpected table %+v", tbl)
	}
	oi := tbl.OpenInterest()
	if !oi[1].Valid || oi[1].Float64 != 210000 {
		t.Errorf("unexpected open interest %+v", oi[1])
	}
}

func TestDecodeJSONP(t *testing.T) {
	items, err := decodeJSONP([]byte("var _X=(null);"))
	if err != nil || items != nil {
		t.Fatalf("unexpected %v %v", items, err)
	}
	if _, err := decodeJSONP([]byte("<html>blocked</html>")); err == nil {
		t.Fatal("expected error for non-jsonp payload")
	}
}

func TestBinanceFetch(t *testing.T) {
	d1 := time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC).UnixMilli()
	d2 := time.Date(2024, 1, 3, 0, 0, 0, 0, time.UTC).UnixMilli()
	mux := http.NewServeMux()
	mux.HandleFunc("/fapi/v1/klines", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("symbol") != "BTCUSDT" {
			t.Errorf("unexpected symbol %s", r.URL.Query().Get("symbol"))
		}
		_ = json.NewEncoder(w).Encode([][]any{
			{d1, "42000", "43000", "41000", "42500", "1000", d1 + 86399999, "0", 10, "0", "0", "0"},
			{d2, "42500", "44000", "42000", "43800", "1200", d2 + 86399999, "0", 10, "0", "0", "0"},
		})
	})
	mux.HandleFunc("/futures/data/openInterestHist", func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode([]map[string]any{
			{"symbol": "BTCUSDT", "sumOpenInterest": "80000", "sumOpenInterestValue": "0", "timestamp": d2},
		})
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	b := NewBinance(BinanceOptions{BaseURL: srv.URL})
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2024, 1, 5, 0, 0, 0, 0, time.UTC)
	tbl, err := b.Fetch(context.Background(), Query{Code: "btc", Market: MarketCrypto, Start: start, End: end})
	if err != nil {
		t.Fatal(err)
	}
	if tbl.Len() != 2 {
		t.Fatalf("expected 2 rows, got %d", tbl.Len())
	}
	oi := tbl.OpenInterest()
	if oi[0].Valid {
		t.Errorf("open interest before statistics window should be null, got %+v", oi[0])
	}
	if !oi[1].Valid || oi[1].Float64 != 80000 {
		t.Errorf("unexpected open interest %+v", oi[1])
	}
}

func TestBinanceFetch_OpenInterestUnavailable(t *testing.T) {
	d1 := time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC).UnixMilli()
	mux := http.NewServeMux()
	mux.HandleFunc("/fapi/v1/klines", func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode([][]any{
			{d1, "42000", "43000", "41000", "42500", "1000", d1 + 86399999, "0", 10, "0", "0", "0"},
		})
	})
	mux.HandleFunc("/futures/data/openInterestHist", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"code":-1000,"msg":"internal"}`))
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	var warned []string
	b := NewBinance(BinanceOptions{
		BaseURL: srv.URL,
		OnOpenInterestError: func(code string, err error) {
			if err == nil {
				t.Error("expected a non-nil open interest error")
			}
			warned = append(warned, code)
		},
	})
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2024, 1, 5, 0, 0, 0, 0, time.UTC)
	tbl, err := b.Fetch(context.Background(), Query{Code: "btc", Market: MarketCrypto, Start: start, End: end})
	if err != nil {
		t.Fatal(err)
	}
	if tbl.Len() != 1 || tbl.HasOpenInterest {
		t.Fatalf("expected 1 row without open interest, got %d rows, oi=%v", tbl.Len(), tbl.HasOpenInterest)
	}
	if len(warned) != 1 || warned[0] != "btc" {
		t.Fatalf("unexpected warnings %v", warned)
	}
}

func TestBinanceSymbol(t *testing.T) {
	for in, want := range map[string]string{"btc": "BTCUSDT", "ETH/USDT": "ETHUSDT", "SOLUSDT": "SOLUSDT"} {
		if got := BinanceSymbol(in); got != want {
			t.Errorf("BinanceSymbol(%s) = %s, want %s", in, got, want)
		}
	}
}

func TestCatalog(t *testing.T) {
	c := MustCatalog()
	ctx := context.Background()

	codes, err := c.List(ctx, MarketGlobal)
	if err != nil {
		t.Fatal(err)
	}
	if strings.Join(codes, ",") != "CL,GC,SI,HG,NG" {
		t.Errorf("unexpected global codes %v", codes)
	}

	for _, tt := range []struct {
		code   string
		market Market
		want   string
	}{
		{"600519", MarketA, "贵州茅台"},
		{"RB2405", MarketCN, "螺纹钢"},
		{"rb0", MarketCN, "螺纹钢"},
		{"GCZ24", MarketGlobal, "COMEX黄金"},
		{"ZZZ", MarketUS, ""},
	} {
		got, err := c.LookupName(ctx, tt.code, tt.market)
		if err != nil {
			t.Fatal(err)
		}
		if got != tt.want {
			t.Errorf("LookupName(%s, %s) = %q, want %q", tt.code, tt.market, got, tt.want)
		}
	}
}

func TestQueryWithDefaults(t *testing.T) {
	now := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	q := Query{Code: "AAPL"}.WithDefaults(now)
	if !q.End.Equal(now) || !q.Start.Equal(now.Add(-DefaultHistory)) {
		t.Errorf("unexpected window %v - %v", q.Start, q.End)
	}
}

func TestRetrievalErrorUnwrap(t *testing.T) {
	cause := &ohlcv.InvalidColumnError{Column: "close"}
	err := retrievalError("x", "y", cause)
	var ice *ohlcv.InvalidColumnError
	if !errors.As(err, &ice) {
		t.Fatal("RetrievalError should unwrap to its cause")
	}
}

func jsonInts(values ...int64) string {
	b, _ := json.Marshal(values)
	return strings.Trim(string(b), "[]")
}
