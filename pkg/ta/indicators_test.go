package ta

import (
	"math"
	"testing"

	"github.com/guregu/null/v6"
)

func assertClose(t *testing.T, label string, got null.Float, want float64) {
	t.Helper()
	if !got.Valid {
		t.Fatalf("%s: got null, want %.6f", label, want)
	}
	if math.Abs(got.Float64-want) > 1e-9 {
		t.Errorf("%s: got %.9f, want %.9f", label, got.Float64, want)
	}
}

func assertNull(t *testing.T, label string, got null.Float) {
	t.Helper()
	if got.Valid {
		t.Errorf("%s: got %.6f, want null", label, got.Float64)
	}
}

func TestEMA_SeededByFirstValue(t *testing.T) {
	// alpha = 0.5: 1, 1.5, 2.25, 3.125
	out := EMA(Dense([]float64{1, 2, 3, 4}), 3)
	assertNull(t, "ema[0]", out[0])
	assertNull(t, "ema[1]", out[1])
	assertClose(t, "ema[2]", out[2], 2.25)
	assertClose(t, "ema[3]", out[3], 3.125)
}

func TestEMA_SkipsNulls(t *testing.T) {
	in := Series{null.FloatFrom(1), null.Float{}, null.FloatFrom(2)}
	out := EMA(in, 2)
	assertNull(t, "ema[1]", out[1])
	// alpha = 2/3: 1 -> 1 + 2/3
	assertClose(t, "ema[2]", out[2], 1+2.0/3.0)
}

func TestSMA(t *testing.T) {
	out := SMA([]float64{1, 2, 3, 4, 5}, 3)
	assertNull(t, "sma[1]", out[1])
	assertClose(t, "sma[2]", out[2], 2)
	assertClose(t, "sma[4]", out[4], 4)

	short := SMA([]float64{1, 2}, 3)
	if len(short) != 2 || short[0].Valid || short[1].Valid {
		t.Fatalf("expected all-null output for short input, got %+v", short)
	}
}

func TestStdDev_Sample(t *testing.T) {
	out := StdDev([]float64{1, 2, 3, 5}, 3)
	assertNull(t, "std[1]", out[1])
	assertClose(t, "std[2]", out[2], 1)
	// 2,3,5 mean 10/3, sum sq dev = 16/9+1/9+25/9 = 42/9, /2
	assertClose(t, "std[3]", out[3], math.Sqrt(21.0/9.0))
}

func TestRSI(t *testing.T) {
	up := RSI([]float64{1, 2, 3}, 2)
	assertNull(t, "up[1]", up[1])
	assertClose(t, "up[2]", up[2], 100)

	down := RSI([]float64{3, 2, 1}, 2)
	assertClose(t, "down[2]", down[2], 0)

	mixed := RSI([]float64{1, 2, 1}, 2)
	assertClose(t, "mixed[2]", mixed[2], 50)

	flat := RSI([]float64{5, 5, 5}, 2)
	assertClose(t, "flat[2]", flat[2], 100)
}

func TestROCAndMomentum(t *testing.T) {
	roc := ROC([]float64{100, 110, 99}, 1)
	assertNull(t, "roc[0]", roc[0])
	assertClose(t, "roc[1]", roc[1], 10)
	assertClose(t, "roc[2]", roc[2], -10)

	mom := Momentum([]float64{1, 3, 2}, 1)
	assertNull(t, "mom[0]", mom[0])
	assertClose(t, "mom[1]", mom[1], 2)
	assertClose(t, "mom[2]", mom[2], -1)
}

func TestTrueRange(t *testing.T) {
	tr := TrueRange([]float64{10, 12}, []float64{8, 11}, []float64{9, 11.5})
	if tr[0] != 2 {
		t.Errorf("tr[0]: got %v, want 2", tr[0])
	}
	if tr[1] != 3 {
		t.Errorf("tr[1]: got %v, want 3", tr[1])
	}
}

func TestPctChange(t *testing.T) {
	in := Series{null.FloatFrom(100), null.FloatFrom(110), null.Float{}, null.FloatFrom(50), null.FloatFrom(0), null.FloatFrom(10)}
	out := PctChange(in, 1)
	assertNull(t, "pct[0]", out[0])
	assertClose(t, "pct[1]", out[1], 10)
	assertNull(t, "pct[2]", out[2])
	assertNull(t, "pct[3]", out[3])
	assertClose(t, "pct[4]", out[4], -100)
	assertNull(t, "pct[5]", out[5])
}

func TestMACD(t *testing.T) {
	closes := make([]float64, 40)
	for i := range closes {
		closes[i] = 100 + float64(i)
	}
	macd, sig, hist := MACD(closes, 12, 26, 9)
	assertNull(t, "macd[24]", macd[24])
	if !macd[25].Valid {
		t.Fatal("macd should be defined once the slow EMA is")
	}
	assertNull(t, "signal[32]", sig[32])
	if !sig[33].Valid || !hist[33].Valid {
		t.Fatal("signal and histogram should be defined after nine MACD values")
	}
	if macd[39].Float64 <= 0 {
		t.Errorf("expected positive MACD for rising series, got %.4f", macd[39].Float64)
	}
	assertClose(t, "hist", hist[39], macd[39].Float64-sig[39].Float64)
}

func TestCrossover(t *testing.T) {
	a := Dense([]float64{1, 3})
	b := Dense([]float64{2, 2})
	if !Crossover(a, b) {
		t.Error("expected crossover")
	}
	if Crossunder(a, b) {
		t.Error("unexpected crossunder")
	}
	if !Crossunder(b, a) {
		t.Error("expected crossunder")
	}
	if Crossover(Series{null.Float{}, null.FloatFrom(3)}, b) {
		t.Error("null history must not count as a crossover")
	}
}

func TestRatio(t *testing.T) {
	out := Ratio(Dense([]float64{4, 4, 4}), Series{null.FloatFrom(2), null.FloatFrom(0), null.Float{}})
	assertClose(t, "ratio[0]", out[0], 2)
	assertNull(t, "ratio[1]", out[1])
	assertNull(t, "ratio[2]", out[2])
}
