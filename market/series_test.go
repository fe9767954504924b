package market

import (
	"math"
	"testing"
	"time"
)

func d(day int) time.Time {
	return time.Date(2020, 1, day, 0, 0, 0, 0, time.UTC)
}

func TestSeriesSetKeepsSortedIndex(t *testing.T) {
	s := &Series{}
	s.Set(d(3), 30)
	s.Set(d(1), 10)
	s.Set(d(2), 20)

	dates := s.Dates()
	if len(dates) != 3 {
		t.Fatalf("len = %d, want 3", len(dates))
	}
	for i := 1; i < len(dates); i++ {
		if !dates[i].After(dates[i-1]) {
			t.Fatalf("index not sorted at %d: %v", i, dates)
		}
	}
	if got := s.Get(d(2)); got != 20 {
		t.Fatalf("Get(d2) = %v, want 20", got)
	}
}

func TestSeriesSetUpsertsLatestValue(t *testing.T) {
	s := &Series{}
	s.Set(d(1), 10)
	s.Set(d(1), 11)

	if s.Len() != 1 {
		t.Fatalf("len = %d, want 1", s.Len())
	}
	if got := s.Get(d(1)); got != 11 {
		t.Fatalf("Get = %v, want 11 (last write wins)", got)
	}
}

func TestSeriesNormalizesToDay(t *testing.T) {
	s := &Series{}
	s.Set(time.Date(2020, 1, 1, 15, 30, 0, 0, time.UTC), 1)
	if !s.Has(d(1)) {
		t.Fatal("intraday timestamp should collapse to its day")
	}
}

func TestSeriesGetMissingIsNaN(t *testing.T) {
	s := &Series{}
	s.Set(d(1), 1)
	if !math.IsNaN(s.Get(d(2))) {
		t.Fatal("missing date should be NaN")
	}
}

func TestSeriesAddRequiresAlignedIndex(t *testing.T) {
	a := &Series{}
	a.Set(d(1), 1)
	a.Set(d(2), 2)

	b := &Series{}
	b.Set(d(1), 10)

	if _, err := a.Add(b); err == nil {
		t.Fatal("expected error adding misaligned series")
	}

	b.Set(d(2), 20)
	sum, err := a.Add(b)
	if err != nil {
		t.Fatalf("add: %v", err)
	}
	if got := sum.Get(d(2)); got != 22 {
		t.Fatalf("sum at d2 = %v, want 22", got)
	}
}

func TestSeriesDropNaN(t *testing.T) {
	s := &Series{}
	s.Set(d(1), 1)
	s.Set(d(2), math.NaN())
	s.Set(d(3), 3)

	clean := s.DropNaN()
	if clean.Len() != 2 {
		t.Fatalf("len = %d, want 2", clean.Len())
	}
	if clean.Has(d(2)) {
		t.Fatal("NaN observation should be gone")
	}
}

func TestSeriesSliceAndScale(t *testing.T) {
	s := &Series{}
	for i := 1; i <= 4; i++ {
		s.Set(d(i), float64(i))
	}

	sub := s.Slice(1, 3)
	if sub.Len() != 2 || sub.First() != 2 || sub.Last() != 3 {
		t.Fatalf("slice = %v %v len %d", sub.First(), sub.Last(), sub.Len())
	}

	doubled := s.Scale(2)
	if doubled.Get(d(4)) != 8 {
		t.Fatalf("scale: got %v, want 8", doubled.Get(d(4)))
	}
}
