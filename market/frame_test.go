package market

import (
	"math"
	"testing"
	"time"
)

func testFrame(t *testing.T) *Frame {
	t.Helper()
	f, err := NewFrame([]time.Time{d(1), d(2), d(3)}, []string{"AAA", "BBB"})
	if err != nil {
		t.Fatalf("new frame: %v", err)
	}
	return f
}

func TestNewFrameRejectsDuplicateColumns(t *testing.T) {
	if _, err := NewFrame([]time.Time{d(1)}, []string{"AAA", "AAA"}); err == nil {
		t.Fatal("expected duplicate column error")
	}
}

func TestNewFrameRejectsUnsortedDates(t *testing.T) {
	if _, err := NewFrame([]time.Time{d(2), d(1)}, []string{"AAA"}); err == nil {
		t.Fatal("expected unsorted dates error")
	}
}

func TestFrameSetAndLookup(t *testing.T) {
	f := testFrame(t)
	if err := f.Set(d(2), "BBB", 42); err != nil {
		t.Fatalf("set: %v", err)
	}

	if got := f.At(1, "BBB"); got != 42 {
		t.Fatalf("At = %v, want 42", got)
	}
	if got := f.Value(d(2), "BBB"); got != 42 {
		t.Fatalf("Value = %v, want 42", got)
	}
	if !math.IsNaN(f.At(0, "BBB")) {
		t.Fatal("unset cell should be NaN")
	}
	if !math.IsNaN(f.Value(d(9), "BBB")) {
		t.Fatal("unknown date should be NaN")
	}
}

func TestFrameFromColumnsUnionIndex(t *testing.T) {
	a := &Series{}
	a.Set(d(1), 1)
	a.Set(d(2), 2)

	b := &Series{}
	b.Set(d(2), 20)
	b.Set(d(3), 30)

	f, err := FrameFromColumns([]string{"AAA", "BBB"}, map[string]*Series{"AAA": a, "BBB": b})
	if err != nil {
		t.Fatalf("from columns: %v", err)
	}
	if f.NumRows() != 3 {
		t.Fatalf("rows = %d, want union of 3", f.NumRows())
	}
	if !math.IsNaN(f.Value(d(3), "AAA")) {
		t.Fatal("AAA has no d3 observation, want NaN")
	}
	if got := f.Value(d(3), "BBB"); got != 30 {
		t.Fatalf("BBB at d3 = %v, want 30", got)
	}
}

func TestFrameApplyPreservesShape(t *testing.T) {
	f := testFrame(t)
	for i, date := range f.Dates() {
		f.Set(date, "AAA", float64(i+1))
		f.Set(date, "BBB", float64(10*(i+1)))
	}

	doubled, err := f.Apply(func(s *Series) *Series { return s.Scale(2) })
	if err != nil {
		t.Fatalf("apply: %v", err)
	}
	if doubled.NumRows() != f.NumRows() || doubled.NumCols() != f.NumCols() {
		t.Fatal("apply changed the frame shape")
	}
	if got := doubled.Value(d(3), "BBB"); got != 60 {
		t.Fatalf("applied value = %v, want 60", got)
	}
}

func TestSameColumnsIgnoresOrder(t *testing.T) {
	a, _ := NewFrame([]time.Time{d(1)}, []string{"AAA", "BBB"})
	b, _ := NewFrame([]time.Time{d(1)}, []string{"BBB", "AAA"})
	c, _ := NewFrame([]time.Time{d(1)}, []string{"AAA", "CCC"})

	if !SameColumns(a, b) {
		t.Fatal("same membership, different order: want true")
	}
	if SameColumns(a, c) {
		t.Fatal("different membership: want false")
	}
}
