package market

import "time"

// Bar is one end-of-day OHLCV observation.
type Bar struct {
	Date   time.Time
	Open   float64
	High   float64
	Low    float64
	Close  float64
	Volume float64
}

// Closes extracts the close prices of a bar slice as a series.
func Closes(bars []Bar) *Series {
	s := &Series{}
	for _, b := range bars {
		s.Set(b.Date, b.Close)
	}
	return s
}
