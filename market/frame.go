package market

import (
	"fmt"
	"math"
	"time"
)

// Frame is a date-indexed, symbol-columned float64 table. Rows are
// sorted ascending by date; column order is the construction order and
// is part of the frame's contract — buy-ranking ties and eviction
// tie-breaks resolve in column order, so it must be deterministic.
type Frame struct {
	dates   []time.Time
	symbols []string
	cols    map[string]int
	cells   [][]float64 // cells[row][col], NaN = missing
}

// NewFrame creates an empty frame over the given sorted dates and
// ordered symbol columns. Duplicate symbols are rejected.
func NewFrame(dates []time.Time, symbols []string) (*Frame, error) {
	cols := make(map[string]int, len(symbols))
	for i, sym := range symbols {
		if _, ok := cols[sym]; ok {
			return nil, fmt.Errorf("frame: duplicate column %q", sym)
		}
		cols[sym] = i
	}

	f := &Frame{
		dates:   make([]time.Time, len(dates)),
		symbols: append([]string(nil), symbols...),
		cols:    cols,
		cells:   make([][]float64, len(dates)),
	}
	var prev time.Time
	for i, d := range dates {
		d = Day(d)
		if i > 0 && !d.After(prev) {
			return nil, fmt.Errorf("frame: dates must be strictly ascending, got %s after %s",
				d.Format("2006-01-02"), prev.Format("2006-01-02"))
		}
		prev = d
		f.dates[i] = d

		row := make([]float64, len(symbols))
		for j := range row {
			row[j] = math.NaN()
		}
		f.cells[i] = row
	}
	return f, nil
}

// FrameFromColumns assembles a frame from per-symbol series. The row
// index is the union of all series indexes; symbols keep their given
// order.
func FrameFromColumns(symbols []string, columns map[string]*Series) (*Frame, error) {
	seen := make(map[int64]bool)
	var dates []time.Time
	for _, sym := range symbols {
		s, ok := columns[sym]
		if !ok {
			return nil, fmt.Errorf("frame: no series for column %q", sym)
		}
		for _, d := range s.Dates() {
			if !seen[d.Unix()] {
				seen[d.Unix()] = true
				dates = append(dates, d)
			}
		}
	}
	sortDates(dates)

	f, err := NewFrame(dates, symbols)
	if err != nil {
		return nil, err
	}
	for _, sym := range symbols {
		s := columns[sym]
		for i := 0; i < s.Len(); i++ {
			d, v := s.At(i)
			f.Set(d, sym, v)
		}
	}
	return f, nil
}

func sortDates(dates []time.Time) {
	for i := 1; i < len(dates); i++ {
		for j := i; j > 0 && dates[j].Before(dates[j-1]); j-- {
			dates[j], dates[j-1] = dates[j-1], dates[j]
		}
	}
}

// Symbols returns the ordered column names.
func (f *Frame) Symbols() []string {
	return append([]string(nil), f.symbols...)
}

// Dates returns a copy of the sorted row index.
func (f *Frame) Dates() []time.Time {
	out := make([]time.Time, len(f.dates))
	copy(out, f.dates)
	return out
}

func (f *Frame) NumRows() int { return len(f.dates) }
func (f *Frame) NumCols() int { return len(f.symbols) }

// Date returns the i-th index date.
func (f *Frame) Date(i int) time.Time { return f.dates[i] }

// At returns the cell at row i for the given symbol, NaN if the symbol
// is unknown.
func (f *Frame) At(i int, symbol string) float64 {
	j, ok := f.cols[symbol]
	if !ok {
		return math.NaN()
	}
	return f.cells[i][j]
}

// Set writes the cell for (date, symbol). Unknown dates or symbols are
// an error; frames have a fixed shape once constructed.
func (f *Frame) Set(date time.Time, symbol string, value float64) error {
	j, ok := f.cols[symbol]
	if !ok {
		return fmt.Errorf("frame: unknown column %q", symbol)
	}
	i, ok := f.rowIndex(Day(date))
	if !ok {
		return fmt.Errorf("frame: date %s not in index", Day(date).Format("2006-01-02"))
	}
	f.cells[i][j] = value
	return nil
}

func (f *Frame) rowIndex(date time.Time) (int, bool) {
	lo, hi := 0, len(f.dates)
	for lo < hi {
		mid := (lo + hi) / 2
		switch {
		case f.dates[mid].Equal(date):
			return mid, true
		case f.dates[mid].Before(date):
			lo = mid + 1
		default:
			hi = mid
		}
	}
	return 0, false
}

// Value returns the cell at (date, symbol), NaN if either is unknown.
func (f *Frame) Value(date time.Time, symbol string) float64 {
	j, ok := f.cols[symbol]
	if !ok {
		return math.NaN()
	}
	i, ok := f.rowIndex(Day(date))
	if !ok {
		return math.NaN()
	}
	return f.cells[i][j]
}

// Column extracts one symbol as a series, including NaN cells so the
// column keeps the full date index.
func (f *Frame) Column(symbol string) (*Series, error) {
	j, ok := f.cols[symbol]
	if !ok {
		return nil, fmt.Errorf("frame: unknown column %q", symbol)
	}
	s := &Series{}
	for i, d := range f.dates {
		s.Set(d, f.cells[i][j])
	}
	return s, nil
}

// Apply maps fn over every column and reassembles a frame with the
// same shape and column order. Used to derive signal and preference
// frames from a price frame.
func (f *Frame) Apply(fn func(*Series) *Series) (*Frame, error) {
	out, err := NewFrame(f.dates, f.symbols)
	if err != nil {
		return nil, err
	}
	for _, sym := range f.symbols {
		col, err := f.Column(sym)
		if err != nil {
			return nil, err
		}
		mapped := fn(col)
		for i := 0; i < mapped.Len(); i++ {
			d, v := mapped.At(i)
			if _, ok := out.rowIndex(d); ok {
				out.Set(d, sym, v)
			}
		}
	}
	return out, nil
}

// SameColumns reports whether the frames share one column set. Order
// is not compared; only membership.
func SameColumns(frames ...*Frame) bool {
	if len(frames) < 2 {
		return true
	}
	want := make(map[string]bool, len(frames[0].symbols))
	for _, sym := range frames[0].symbols {
		want[sym] = true
	}
	for _, f := range frames[1:] {
		if len(f.symbols) != len(want) {
			return false
		}
		for _, sym := range f.symbols {
			if !want[sym] {
				return false
			}
		}
	}
	return true
}
