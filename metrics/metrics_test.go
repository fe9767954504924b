package metrics

import (
	"math"
	"testing"
	"time"

	"github.com/rustyeddy/portsim/market"
)

func d(day int) time.Time {
	return time.Date(2020, time.January, day, 0, 0, 0, 0, time.UTC)
}

func series(startDay int, values ...float64) *market.Series {
	s := &market.Series{}
	for i, v := range values {
		s.Set(d(startDay+i), v)
	}
	return s
}

func approx(t *testing.T, name string, got, want, tol float64) {
	t.Helper()
	if math.IsNaN(got) || math.Abs(got-want) > tol {
		t.Fatalf("%s = %v, want %v", name, got, want)
	}
}

func TestReturnSeries(t *testing.T) {
	prices := series(1, 100, 110, 99)
	returns := ReturnSeries(prices)

	if returns.Len() != 2 {
		t.Fatalf("len = %d, want 2 (first observation dropped)", returns.Len())
	}
	approx(t, "r[0]", returns.Get(d(2)), 0.10, 1e-12)
	approx(t, "r[1]", returns.Get(d(3)), -0.10, 1e-12)
}

func TestLogReturnSeries(t *testing.T) {
	prices := series(1, 100, 100*math.E)
	returns := LogReturnSeries(prices)
	if returns.Len() != 1 {
		t.Fatalf("len = %d, want 1", returns.Len())
	}
	approx(t, "log return", returns.Get(d(2)), 1, 1e-12)
}

func TestPercentReturn(t *testing.T) {
	approx(t, "percent return", PercentReturn(series(1, 100, 121)), 0.21, 1e-12)
	if !math.IsNaN(PercentReturn(&market.Series{})) {
		t.Fatal("empty series should be NaN")
	}
}

func TestYearsPastAndCAGR(t *testing.T) {
	s := &market.Series{}
	s.Set(d(1), 100)
	s.Set(d(1).AddDate(2, 0, 0), 121)

	years := YearsPast(s)
	approx(t, "years", years, 2, 0.01)

	// Two years of growth to 1.21x is 10% per year.
	approx(t, "cagr", CAGR(s), 0.10, 0.001)

	if !math.IsNaN(CAGR(series(1, 100))) {
		t.Fatal("single observation has no growth rate")
	}
}

func TestAnnualizedVolatilityOfConstantReturns(t *testing.T) {
	// Constant returns have zero deviation at any frequency.
	s := &market.Series{}
	for i := 0; i < 10; i++ {
		s.Set(d(1+i), 0.01)
	}
	approx(t, "volatility", AnnualizedVolatility(s), 0, 1e-12)
}

func TestSharpeRatioSign(t *testing.T) {
	rising := series(1, 100, 101, 103, 102, 105, 108)
	if sr := SharpeRatio(rising, 0); sr <= 0 {
		t.Fatalf("sharpe = %v, want positive for a rising series", sr)
	}
	falling := series(1, 108, 105, 102, 103, 101, 100)
	if sr := SharpeRatio(falling, 0); sr >= 0 {
		t.Fatalf("sharpe = %v, want negative for a falling series", sr)
	}
}

func TestRollingSharpeRatioWindow(t *testing.T) {
	prices := series(1, 100, 101, 103, 102, 105, 108, 107)
	rolling := RollingSharpeRatio(prices, 3)

	if rolling.Len() != prices.Len()-1 {
		t.Fatalf("len = %d, want %d", rolling.Len(), prices.Len()-1)
	}
	// First two returns cannot fill a window of three.
	if !math.IsNaN(rolling.Get(d(2))) || !math.IsNaN(rolling.Get(d(3))) {
		t.Fatal("short windows must be NaN")
	}
	if math.IsNaN(rolling.Get(d(4))) {
		t.Fatal("full windows must produce values")
	}
}

func TestRollingSharpeRatioZeroDeviationWindow(t *testing.T) {
	// Identical returns inside the window: stdev 0, NaN not Inf.
	prices := series(1, 100, 110, 121, 133.1)
	rolling := RollingSharpeRatio(prices, 3)
	if !math.IsNaN(rolling.Get(d(4))) {
		t.Fatalf("got %v, want NaN for a zero-deviation window", rolling.Get(d(4)))
	}
}

func TestSortinoPenalizesDownside(t *testing.T) {
	// Same CAGR endpoints, one path with a deep dip.
	smooth := series(1, 100, 102, 104, 106, 108, 110)
	choppy := series(1, 100, 104, 90, 106, 97, 110)

	if SortinoRatio(smooth, 0) <= SortinoRatio(choppy, 0) {
		t.Fatal("the smoother path should score a higher sortino ratio")
	}
}

func TestJensensAlpha(t *testing.T) {
	// Returns exactly 2x the benchmark plus 0.01: alpha 0.01, beta 2.
	bench := series(1, 0.01, -0.02, 0.03, 0.005, -0.01)
	rets := &market.Series{}
	for i := 0; i < bench.Len(); i++ {
		date, v := bench.At(i)
		rets.Set(date, 2*v+0.01)
	}
	approx(t, "alpha", JensensAlpha(rets, bench), 0.01, 1e-12)
}

func TestJensensAlphaDropsNaNAndMisalignedDates(t *testing.T) {
	bench := series(1, 0.01, math.NaN(), 0.03)
	rets := series(1, 0.03, 0.02, 0.07)
	// Only days 1 and 3 are usable pairs; they fit alpha 0.01, beta 2.
	approx(t, "alpha", JensensAlpha(rets, bench), 0.01, 1e-12)

	if !math.IsNaN(JensensAlpha(series(1, 0.01), series(5, 0.01))) {
		t.Fatal("no common dates should be NaN")
	}
}

func TestDrawdownMethods(t *testing.T) {
	s := series(1, 100, 120, 90, 110)

	approx(t, "dollar", MaxDrawdown(s, DrawdownDollar), 30, 1e-12)
	approx(t, "percent", MaxDrawdown(s, DrawdownPercent), 0.25, 1e-12)
	approx(t, "log", MaxDrawdown(s, DrawdownLog), math.Log(120)-math.Log(90), 1e-12)
}

func TestDrawdownSeriesTracksRunningPeak(t *testing.T) {
	s := series(1, 100, 120, 90, 110)
	dd := DrawdownSeries(s, DrawdownDollar)

	want := []float64{0, 0, 30, 10}
	for i, w := range want {
		if _, got := dd.At(i); got != w {
			t.Fatalf("dd[%d] = %v, want %v", i, got, w)
		}
	}
}

func TestMaxDrawdownDetail(t *testing.T) {
	s := series(1, 100, 120, 90, 110)
	detail, err := MaxDrawdownDetail(s, DrawdownPercent)
	if err != nil {
		t.Fatalf("detail: %v", err)
	}
	if !detail.PeakDate.Equal(d(2)) || detail.PeakPrice != 120 {
		t.Fatalf("peak %v at %v, want 120 at day 2", detail.PeakPrice, detail.PeakDate)
	}
	if !detail.TroughDate.Equal(d(3)) || detail.TroughPrice != 90 {
		t.Fatalf("trough %v at %v, want 90 at day 3", detail.TroughPrice, detail.TroughDate)
	}
	approx(t, "max drawdown", detail.MaxDrawdown, 0.25, 1e-12)

	if _, err := MaxDrawdownDetail(&market.Series{}, DrawdownDollar); err == nil {
		t.Fatal("empty series should error")
	}
}

func TestLogMaxDrawdownRatio(t *testing.T) {
	s := series(1, 100, 120, 90, 110)
	wantReturn := math.Log(110) - math.Log(100)
	wantDD := math.Log(120) - math.Log(90)
	approx(t, "ratio", LogMaxDrawdownRatio(s), wantReturn-wantDD, 1e-12)
}

func TestDrawdownMethodString(t *testing.T) {
	cases := map[DrawdownMethod]string{
		DrawdownDollar:  "dollar",
		DrawdownPercent: "percent",
		DrawdownLog:     "log",
	}
	for method, want := range cases {
		if got := method.String(); got != want {
			t.Fatalf("String() = %q, want %q", got, want)
		}
	}
}
