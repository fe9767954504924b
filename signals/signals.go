// Package signals derives trading signals and indicator series from
// price data. A signal series takes values in {-1, 0, +1}: sell,
// hold, buy.
package signals

import (
	"fmt"
	"math"

	"github.com/rustyeddy/portsim/market"
)

// SMA calculates the simple moving average over a trailing window of
// n observations. Dates without enough history are NaN.
func SMA(series *market.Series, n int) *market.Series {
	return rolling(series, n, mean)
}

// RollingStdev calculates the trailing sample standard deviation.
func RollingStdev(series *market.Series, n int) *market.Series {
	return rolling(series, n, stddev)
}

// MACD is the moving average convergence divergence oscillator: the
// short SMA of length n1 minus the long SMA of length n2.
func MACD(series *market.Series, n1, n2 int) (*market.Series, error) {
	if n1 >= n2 {
		return nil, fmt.Errorf("signals: macd needs n1 < n2, got %d >= %d", n1, n2)
	}
	short := SMA(series, n1)
	long := SMA(series, n2)

	out := &market.Series{}
	for i := 0; i < series.Len(); i++ {
		d, _ := series.At(i)
		out.Set(d, short.Get(d)-long.Get(d))
	}
	return out, nil
}

// Bands holds the three Bollinger band series.
type Bands struct {
	Middle *market.Series
	Upper  *market.Series
	Lower  *market.Series
}

// BollingerBands computes the middle band (SMA) and the outer bands
// at two standard deviations.
func BollingerBands(series *market.Series, n int) Bands {
	sma := SMA(series, n)
	sd := RollingStdev(series, n)

	upper := &market.Series{}
	lower := &market.Series{}
	for i := 0; i < series.Len(); i++ {
		d, _ := series.At(i)
		m, s := sma.Get(d), sd.Get(d)
		upper.Set(d, m+2*s)
		lower.Set(d, m-2*s)
	}
	return Bands{Middle: sma, Upper: upper, Lower: lower}
}

// BollingerBandSignal emits +1 when the price crosses below the lower
// band and -1 when it crosses above the upper band, 0 otherwise. The
// crossing must happen between consecutive observations; sitting
// outside a band does not re-trigger.
func BollingerBandSignal(series *market.Series, n int) *market.Series {
	bands := BollingerBands(series, n)

	out := &market.Series{}
	for i := 0; i < series.Len(); i++ {
		d, v := series.At(i)
		signal := 0.0
		if i > 0 {
			prevDate, prev := series.At(i - 1)
			upper, lower := bands.Upper.Get(d), bands.Lower.Get(d)
			prevUpper, prevLower := bands.Upper.Get(prevDate), bands.Lower.Get(prevDate)
			switch {
			case anyNaN(v, prev, upper, lower, prevUpper, prevLower):
				// not enough history
			case prev >= prevLower && v < lower:
				signal = 1
			case prev <= prevUpper && v > upper:
				signal = -1
			}
		}
		out.Set(d, signal)
	}
	return out
}

// MoneyFlowVolume computes q_t, the volume weighted by where the
// close sits within the bar's range.
func MoneyFlowVolume(bars []market.Bar) *market.Series {
	out := &market.Series{}
	for _, b := range bars {
		span := b.High - b.Low
		if span == 0 {
			out.Set(b.Date, 0)
			continue
		}
		out.Set(b.Date, b.Volume*(2*b.Close-b.High-b.Low)/span)
	}
	return out
}

// ChaikinMoneyFlow is the n-period sum of money flow volume over the
// n-period sum of volume.
func ChaikinMoneyFlow(bars []market.Bar, n int) *market.Series {
	mfv := MoneyFlowVolume(bars)

	out := &market.Series{}
	for i, b := range bars {
		if i+1 < n {
			out.Set(b.Date, math.NaN())
			continue
		}
		var flowSum, volumeSum float64
		for _, w := range bars[i+1-n : i+1] {
			flowSum += mfv.Get(w.Date)
			volumeSum += w.Volume
		}
		if volumeSum == 0 {
			out.Set(b.Date, math.NaN())
			continue
		}
		out.Set(b.Date, flowSum/volumeSum)
	}
	return out
}

func anyNaN(xs ...float64) bool {
	for _, x := range xs {
		if math.IsNaN(x) {
			return true
		}
	}
	return false
}

func rolling(series *market.Series, n int, fn func([]float64) float64) *market.Series {
	out := &market.Series{}
	vals := series.Values()
	for i := 0; i < series.Len(); i++ {
		d, _ := series.At(i)
		if i+1 < n || n <= 0 {
			out.Set(d, math.NaN())
			continue
		}
		out.Set(d, fn(vals[i+1-n:i+1]))
	}
	return out
}

func mean(xs []float64) float64 {
	var sum float64
	for _, x := range xs {
		sum += x
	}
	return sum / float64(len(xs))
}

func stddev(xs []float64) float64 {
	if len(xs) < 2 {
		return math.NaN()
	}
	m := mean(xs)
	var sumSquares float64
	for _, x := range xs {
		sumSquares += (x - m) * (x - m)
	}
	return math.Sqrt(sumSquares / float64(len(xs)-1))
}
