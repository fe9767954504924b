package market

import (
	"fmt"
	"math"
	"sort"
	"time"
)

// Series is a date-indexed float64 series sorted ascending by date.
// Missing observations are represented as NaN. The zero value is an
// empty series ready for use via Set.
type Series struct {
	dates  []time.Time
	values []float64
	lookup map[int64]int
}

// Day normalizes t to UTC midnight. All series and frame indexes use
// day resolution.
func Day(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// NewSeries builds a series from parallel date/value slices. Input does
// not need to be sorted; the last value submitted for a date wins,
// matching upsert semantics.
func NewSeries(dates []time.Time, values []float64) (*Series, error) {
	if len(dates) != len(values) {
		return nil, fmt.Errorf("series: %d dates but %d values", len(dates), len(values))
	}
	s := &Series{lookup: make(map[int64]int, len(dates))}
	for i := range dates {
		s.Set(dates[i], values[i])
	}
	return s, nil
}

// Set upserts the value for a date, keeping the index sorted.
func (s *Series) Set(date time.Time, value float64) {
	date = Day(date)
	if s.lookup == nil {
		s.lookup = make(map[int64]int)
	}
	key := date.Unix()
	if i, ok := s.lookup[key]; ok {
		s.values[i] = value
		return
	}

	i := sort.Search(len(s.dates), func(i int) bool {
		return s.dates[i].After(date)
	})
	s.dates = append(s.dates, time.Time{})
	s.values = append(s.values, 0)
	copy(s.dates[i+1:], s.dates[i:])
	copy(s.values[i+1:], s.values[i:])
	s.dates[i] = date
	s.values[i] = value

	// Positions at and after the insertion point shifted by one.
	for j := i; j < len(s.dates); j++ {
		s.lookup[s.dates[j].Unix()] = j
	}
}

// Get returns the value at date, or NaN if the date is not present.
func (s *Series) Get(date time.Time) float64 {
	if s == nil || s.lookup == nil {
		return math.NaN()
	}
	if i, ok := s.lookup[Day(date).Unix()]; ok {
		return s.values[i]
	}
	return math.NaN()
}

// Has reports whether date is in the index.
func (s *Series) Has(date time.Time) bool {
	if s == nil || s.lookup == nil {
		return false
	}
	_, ok := s.lookup[Day(date).Unix()]
	return ok
}

func (s *Series) Len() int { return len(s.dates) }

// Dates returns a copy of the sorted date index.
func (s *Series) Dates() []time.Time {
	out := make([]time.Time, len(s.dates))
	copy(out, s.dates)
	return out
}

// Values returns a copy of the values in index order.
func (s *Series) Values() []float64 {
	out := make([]float64, len(s.values))
	copy(out, s.values)
	return out
}

// At returns the i-th (date, value) pair in index order.
func (s *Series) At(i int) (time.Time, float64) {
	return s.dates[i], s.values[i]
}

// First returns the earliest value. Panics on an empty series.
func (s *Series) First() float64 { return s.values[0] }

// Last returns the latest value. Panics on an empty series.
func (s *Series) Last() float64 { return s.values[len(s.values)-1] }

// FirstDate returns the earliest index date.
func (s *Series) FirstDate() time.Time { return s.dates[0] }

// LastDate returns the latest index date.
func (s *Series) LastDate() time.Time { return s.dates[len(s.dates)-1] }

// IndexEqual reports whether two series share an identical date index,
// element for element.
func (s *Series) IndexEqual(other *Series) bool {
	if s.Len() != other.Len() {
		return false
	}
	for i := range s.dates {
		if !s.dates[i].Equal(other.dates[i]) {
			return false
		}
	}
	return true
}

// Add returns the pointwise sum of two series. The indexes must match
// exactly; summing misaligned series would silently fabricate dates.
func (s *Series) Add(other *Series) (*Series, error) {
	if !s.IndexEqual(other) {
		return nil, fmt.Errorf("series: cannot add series with mismatched indexes (%d vs %d entries)",
			s.Len(), other.Len())
	}
	out := &Series{
		dates:  make([]time.Time, s.Len()),
		values: make([]float64, s.Len()),
		lookup: make(map[int64]int, s.Len()),
	}
	copy(out.dates, s.dates)
	for i := range s.values {
		out.values[i] = s.values[i] + other.values[i]
		out.lookup[out.dates[i].Unix()] = i
	}
	return out, nil
}

// Scale returns a new series with every value multiplied by k.
func (s *Series) Scale(k float64) *Series {
	out := &Series{
		dates:  make([]time.Time, s.Len()),
		values: make([]float64, s.Len()),
		lookup: make(map[int64]int, s.Len()),
	}
	copy(out.dates, s.dates)
	for i, v := range s.values {
		out.values[i] = v * k
		out.lookup[out.dates[i].Unix()] = i
	}
	return out
}

// Slice returns the sub-series with index positions [i, j).
func (s *Series) Slice(i, j int) *Series {
	out := &Series{
		dates:  make([]time.Time, j-i),
		values: make([]float64, j-i),
		lookup: make(map[int64]int, j-i),
	}
	copy(out.dates, s.dates[i:j])
	copy(out.values, s.values[i:j])
	for k, d := range out.dates {
		out.lookup[d.Unix()] = k
	}
	return out
}

// DropNaN returns a copy with all NaN observations removed.
func (s *Series) DropNaN() *Series {
	out := &Series{lookup: make(map[int64]int)}
	for i, v := range s.values {
		if !math.IsNaN(v) {
			out.dates = append(out.dates, s.dates[i])
			out.values = append(out.values, v)
			out.lookup[s.dates[i].Unix()] = len(out.dates) - 1
		}
	}
	return out
}
