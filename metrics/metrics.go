// Package metrics provides pure performance statistics over
// date-indexed price and return series. Nothing here mutates its
// input; every function is safe to call repeatedly and concurrently.
package metrics

import (
	"math"

	"github.com/rustyeddy/portsim/market"
)

const daysPerYear = 365.25

// ReturnSeries computes simple period-over-period returns. The first
// observation has no predecessor and is omitted.
func ReturnSeries(prices *market.Series) *market.Series {
	out := &market.Series{}
	for i := 1; i < prices.Len(); i++ {
		d, v := prices.At(i)
		_, prev := prices.At(i - 1)
		out.Set(d, v/prev-1)
	}
	return out
}

// LogReturnSeries computes log returns, omitting the first observation.
func LogReturnSeries(prices *market.Series) *market.Series {
	out := &market.Series{}
	for i := 1; i < prices.Len(); i++ {
		d, v := prices.At(i)
		_, prev := prices.At(i - 1)
		out.Set(d, math.Log(v/prev))
	}
	return out
}

// PercentReturn is the last value over the first, minus one.
func PercentReturn(series *market.Series) float64 {
	if series.Len() == 0 {
		return math.NaN()
	}
	return series.Last()/series.First() - 1
}

// YearsPast measures the calendar span of the index in years, for
// annualization.
func YearsPast(series *market.Series) float64 {
	if series.Len() < 2 {
		return math.NaN()
	}
	return series.LastDate().Sub(series.FirstDate()).Hours() / 24 / daysPerYear
}

// CAGR is the compound annual growth rate over the series.
func CAGR(series *market.Series) float64 {
	if series.Len() < 2 {
		return math.NaN()
	}
	factor := series.Last() / series.First()
	return math.Pow(factor, 1/YearsPast(series)) - 1
}

// AnnualizedVolatility scales the sample standard deviation of a
// return series by the observed sampling frequency. Works for any
// regular interval of date-indexed returns.
func AnnualizedVolatility(returns *market.Series) float64 {
	years := YearsPast(returns)
	if math.IsNaN(years) || years <= 0 {
		return math.NaN()
	}
	entriesPerYear := float64(returns.Len()) / years
	return stddev(returns.Values()) * math.Sqrt(entriesPerYear)
}

// SharpeRatio computes CAGR in excess of benchmarkRate over annualized
// volatility, from a price series.
func SharpeRatio(prices *market.Series, benchmarkRate float64) float64 {
	return (CAGR(prices) - benchmarkRate) / AnnualizedVolatility(ReturnSeries(prices))
}

// RollingSharpeRatio approximates the sharpe ratio over a trailing
// window of n returns. Intended for use as a preference value; windows
// without enough history are NaN.
func RollingSharpeRatio(prices *market.Series, n int) *market.Series {
	returns := ReturnSeries(prices)
	vals := returns.Values()
	dates := returns.Dates()

	out := &market.Series{}
	for i := range vals {
		if i+1 < n {
			out.Set(dates[i], math.NaN())
			continue
		}
		window := vals[i+1-n : i+1]
		sd := stddev(window)
		if sd == 0 {
			out.Set(dates[i], math.NaN())
			continue
		}
		out.Set(dates[i], mean(window)/sd)
	}
	return out
}

// AnnualizedDownsideDeviation measures the deviation of returns below
// the annualized benchmark rate, for the sortino ratio.
func AnnualizedDownsideDeviation(returns *market.Series, benchmarkRate float64) float64 {
	years := YearsPast(returns)
	if math.IsNaN(years) || years <= 0 || returns.Len() < 2 {
		return math.NaN()
	}
	entriesPerYear := float64(returns.Len()) / years
	adjusted := math.Pow(1+benchmarkRate, 1/entriesPerYear) - 1

	var sumSquares float64
	for _, r := range returns.Values() {
		if downside := adjusted - r; downside > 0 {
			sumSquares += downside * downside
		}
	}
	downsideDev := math.Sqrt(sumSquares / float64(returns.Len()-1))
	return downsideDev * math.Sqrt(entriesPerYear)
}

// SortinoRatio computes CAGR in excess of benchmarkRate over the
// annualized downside deviation, from a price series.
func SortinoRatio(prices *market.Series, benchmarkRate float64) float64 {
	returns := ReturnSeries(prices)
	return (CAGR(prices) - benchmarkRate) / AnnualizedDownsideDeviation(returns, benchmarkRate)
}

// JensensAlpha fits returns against benchmark returns over their
// common dates and reports the regression intercept. NaN observations
// on either side are dropped.
func JensensAlpha(returns, benchmark *market.Series) float64 {
	var xs, ys []float64
	for i := 0; i < returns.Len(); i++ {
		d, y := returns.At(i)
		x := benchmark.Get(d)
		if math.IsNaN(x) || math.IsNaN(y) {
			continue
		}
		xs = append(xs, x)
		ys = append(ys, y)
	}
	if len(xs) < 2 {
		return math.NaN()
	}

	// Single-predictor least squares, closed form.
	mx, my := mean(xs), mean(ys)
	var cov, varX float64
	for i := range xs {
		cov += (xs[i] - mx) * (ys[i] - my)
		varX += (xs[i] - mx) * (xs[i] - mx)
	}
	if varX == 0 {
		return math.NaN()
	}
	beta := cov / varX
	return my - beta*mx
}

func mean(xs []float64) float64 {
	if len(xs) == 0 {
		return math.NaN()
	}
	var sum float64
	for _, x := range xs {
		sum += x
	}
	return sum / float64(len(xs))
}

// stddev is the sample standard deviation.
func stddev(xs []float64) float64 {
	n := len(xs)
	if n < 2 {
		return math.NaN()
	}
	m := mean(xs)
	var sumSquares float64
	for _, x := range xs {
		sumSquares += (x - m) * (x - m)
	}
	return math.Sqrt(sumSquares / float64(n-1))
}
