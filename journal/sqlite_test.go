package journal

import (
	"database/sql"
	"math"
	"path/filepath"
	"testing"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/assert"
)

func newTestSQLite(t *testing.T) (*SQLite, string) {
	t.Helper()

	dir := t.TempDir()
	path := filepath.Join(dir, "test.db")

	j, err := NewSQLite(path)
	assert.NoError(t, err)

	return j, path
}

func TestSQLiteSchemaCreated(t *testing.T) {
	t.Parallel()

	j, path := newTestSQLite(t)
	assert.NoError(t, j.Close())

	db, err := sql.Open("sqlite3", path)
	assert.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	rows, err := db.Query(`SELECT name FROM sqlite_master WHERE type='table' AND name IN ('runs','trades','equity')`)
	assert.NoError(t, err)
	defer rows.Close()

	found := map[string]bool{}
	for rows.Next() {
		var name string
		assert.NoError(t, rows.Scan(&name))
		found[name] = true
	}
	assert.NoError(t, rows.Err())

	assert.True(t, found["runs"])
	assert.True(t, found["trades"])
	assert.True(t, found["equity"])
}

func TestSQLiteRecordRunRoundTrip(t *testing.T) {
	t.Parallel()

	j, _ := newTestSQLite(t)
	t.Cleanup(func() { _ = j.Close() })

	rec := RunRecord{
		RunID:      "R1",
		Created:    time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC),
		Label:      "bollinger sweep",
		Parameters: map[string]float64{"bollinger_n": 20, "sharpe_n": 100},
		Metrics:    map[string]float64{"cagr": 0.12, "sharpe_ratio": 1.4},
	}
	assert.NoError(t, j.RecordRun(rec))

	runs, err := j.ListRuns()
	assert.NoError(t, err)
	assert.Len(t, runs, 1)

	got := runs[0]
	assert.Equal(t, rec.RunID, got.RunID)
	assert.Equal(t, rec.Label, got.Label)
	assert.True(t, got.Created.Equal(rec.Created))
	assert.Equal(t, rec.Parameters, got.Parameters)
	assert.Equal(t, rec.Metrics, got.Metrics)
}

func TestSQLiteRecordRunDropsNaNMetrics(t *testing.T) {
	t.Parallel()

	j, _ := newTestSQLite(t)
	t.Cleanup(func() { _ = j.Close() })

	rec := RunRecord{
		RunID:   "R1",
		Created: time.Now().UTC(),
		Metrics: map[string]float64{"cagr": 0.12, "spy_cagr": math.NaN()},
	}
	assert.NoError(t, j.RecordRun(rec))

	runs, err := j.ListRuns()
	assert.NoError(t, err)
	assert.Len(t, runs, 1)

	_, hasNaN := runs[0].Metrics["spy_cagr"]
	assert.False(t, hasNaN)
	assert.InDelta(t, 0.12, runs[0].Metrics["cagr"], 1e-12)
}

func TestSQLiteRecordTradeRoundTrip(t *testing.T) {
	t.Parallel()

	j, _ := newTestSQLite(t)
	t.Cleanup(func() { _ = j.Close() })

	rec := TradeRecord{
		RunID:         "R1",
		Symbol:        "AWU",
		EntryDate:     time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC),
		ExitDate:      time.Date(2024, 2, 3, 0, 0, 0, 0, time.UTC),
		EntryPrice:    110.5,
		ExitPrice:     121.25,
		Shares:        9.0498,
		PercentReturn: 0.0973,
	}
	assert.NoError(t, j.RecordTrade(rec))

	trades, err := j.ListTrades("R1")
	assert.NoError(t, err)
	assert.Len(t, trades, 1)

	got := trades[0]
	assert.Equal(t, rec.Symbol, got.Symbol)
	assert.True(t, got.EntryDate.Equal(rec.EntryDate))
	assert.True(t, got.ExitDate.Equal(rec.ExitDate))
	assert.InDelta(t, rec.EntryPrice, got.EntryPrice, 1e-9)
	assert.InDelta(t, rec.ExitPrice, got.ExitPrice, 1e-9)
	assert.InDelta(t, rec.Shares, got.Shares, 1e-9)
	assert.InDelta(t, rec.PercentReturn, got.PercentReturn, 1e-9)
}

func TestSQLiteEquityCurveOrderedByDate(t *testing.T) {
	t.Parallel()

	j, _ := newTestSQLite(t)
	t.Cleanup(func() { _ = j.Close() })

	d1 := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	d2 := d1.AddDate(0, 0, 1)

	// Insert out of order, read back sorted.
	assert.NoError(t, j.RecordEquity(EquityPoint{RunID: "R1", Date: d2, Cash: 0, PortfolioValue: 1100, Equity: 1100}))
	assert.NoError(t, j.RecordEquity(EquityPoint{RunID: "R1", Date: d1, Cash: 1000, PortfolioValue: 0, Equity: 1000}))
	assert.NoError(t, j.RecordEquity(EquityPoint{RunID: "R2", Date: d1, Cash: 5, PortfolioValue: 0, Equity: 5}))

	curve, err := j.EquityCurve("R1")
	assert.NoError(t, err)
	assert.Len(t, curve, 2)
	assert.True(t, curve[0].Date.Equal(d1))
	assert.True(t, curve[1].Date.Equal(d2))
	assert.InDelta(t, 1000.0, curve[0].Equity, 1e-9)
	assert.InDelta(t, 1100.0, curve[1].Equity, 1e-9)
}
