package metrics

import (
	"fmt"
	"math"
	"time"

	"github.com/rustyeddy/portsim/market"
)

// DrawdownMethod selects how drawdown distance from the running peak
// is measured.
type DrawdownMethod int

const (
	// DrawdownDollar measures peak minus price.
	DrawdownDollar DrawdownMethod = iota
	// DrawdownPercent measures 1 minus price over peak.
	DrawdownPercent
	// DrawdownLog measures log(peak) minus log(price).
	DrawdownLog
)

func (m DrawdownMethod) String() string {
	switch m {
	case DrawdownDollar:
		return "dollar"
	case DrawdownPercent:
		return "percent"
	case DrawdownLog:
		return "log"
	}
	return fmt.Sprintf("DrawdownMethod(%d)", int(m))
}

func (m DrawdownMethod) evaluate(price, peak float64) float64 {
	switch m {
	case DrawdownDollar:
		return peak - price
	case DrawdownPercent:
		return -(price/peak - 1)
	case DrawdownLog:
		return math.Log(peak) - math.Log(price)
	}
	panic("metrics: unknown drawdown method " + m.String())
}

// DrawdownSeries returns the distance from the running maximum at
// every observation, measured by method.
func DrawdownSeries(series *market.Series, method DrawdownMethod) *market.Series {
	out := &market.Series{}
	peak := math.Inf(-1)
	for i := 0; i < series.Len(); i++ {
		d, v := series.At(i)
		if v > peak {
			peak = v
		}
		out.Set(d, method.evaluate(v, peak))
	}
	return out
}

// MaxDrawdown returns the largest drawdown by method.
func MaxDrawdown(series *market.Series, method DrawdownMethod) float64 {
	if series.Len() == 0 {
		return math.NaN()
	}
	max := math.Inf(-1)
	for _, v := range DrawdownSeries(series, method).Values() {
		if v > max {
			max = v
		}
	}
	return max
}

// DrawdownDetail records where the max drawdown happened.
type DrawdownDetail struct {
	MaxDrawdown float64
	PeakDate    time.Time
	PeakPrice   float64
	TroughDate  time.Time
	TroughPrice float64
}

// MaxDrawdownDetail computes the max drawdown along with its peak and
// trough locations.
func MaxDrawdownDetail(series *market.Series, method DrawdownMethod) (DrawdownDetail, error) {
	if series.Len() == 0 {
		return DrawdownDetail{}, fmt.Errorf("metrics: drawdown of empty series")
	}

	firstDate, firstPrice := series.At(0)
	detail := DrawdownDetail{
		PeakDate: firstDate, PeakPrice: firstPrice,
		TroughDate: firstDate, TroughPrice: firstPrice,
	}
	localPeakDate, localPeakPrice := firstDate, firstPrice

	for i := 0; i < series.Len(); i++ {
		date, price := series.At(i)
		if price > localPeakPrice {
			localPeakDate, localPeakPrice = date, price
		}
		drawdown := method.evaluate(price, localPeakPrice)
		if drawdown > detail.MaxDrawdown {
			detail.MaxDrawdown = drawdown
			detail.PeakDate, detail.PeakPrice = localPeakDate, localPeakPrice
			detail.TroughDate, detail.TroughPrice = date, price
		}
	}
	return detail, nil
}

// LogMaxDrawdownRatio is the log return over the whole series minus
// the max log drawdown.
func LogMaxDrawdownRatio(series *market.Series) float64 {
	if series.Len() < 2 {
		return math.NaN()
	}
	logReturn := math.Log(series.Last()) - math.Log(series.First())
	return logReturn - MaxDrawdown(series, DrawdownLog)
}

// CalmarRatio is CAGR over percent max drawdown, restricted to the
// trailing yearsPast years.
func CalmarRatio(series *market.Series, yearsPast float64) float64 {
	if series.Len() < 2 {
		return math.NaN()
	}
	cutoff := series.LastDate().Add(-time.Duration(yearsPast * daysPerYear * 24 * float64(time.Hour)))
	trailing := &market.Series{}
	for i := 0; i < series.Len(); i++ {
		d, v := series.At(i)
		if d.After(cutoff) {
			trailing.Set(d, v)
		}
	}
	return CAGR(trailing) / MaxDrawdown(trailing, DrawdownPercent)
}
