package journal

import (
	"encoding/csv"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func newTestCSV(t *testing.T) (*CSV, string, string, string) {
	t.Helper()

	dir := t.TempDir()
	runsPath := filepath.Join(dir, "runs.csv")
	tradesPath := filepath.Join(dir, "trades.csv")
	equityPath := filepath.Join(dir, "equity.csv")

	j, err := NewCSV(runsPath, tradesPath, equityPath)
	assert.NoError(t, err)

	return j, runsPath, tradesPath, equityPath
}

func readCSV(t *testing.T, path string) [][]string {
	t.Helper()

	data, err := os.ReadFile(path)
	assert.NoError(t, err)

	rows, err := csv.NewReader(strings.NewReader(string(data))).ReadAll()
	assert.NoError(t, err)
	return rows
}

func TestCSVJournalHeaders(t *testing.T) {
	t.Parallel()

	j, runsPath, tradesPath, equityPath := newTestCSV(t)
	assert.NoError(t, j.Close())

	assert.Equal(t,
		[]string{"run_id", "created", "label", "parameters", "metrics"},
		readCSV(t, runsPath)[0])
	assert.Equal(t,
		[]string{"run_id", "symbol", "entry_date", "exit_date", "entry_price", "exit_price", "shares", "percent_return"},
		readCSV(t, tradesPath)[0])
	assert.Equal(t,
		[]string{"run_id", "date", "cash", "portfolio_value", "equity"},
		readCSV(t, equityPath)[0])
}

func TestCSVJournalRecordRun(t *testing.T) {
	t.Parallel()

	j, runsPath, _, _ := newTestCSV(t)

	created := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	err := j.RecordRun(RunRecord{
		RunID:      "R1",
		Created:    created,
		Label:      "baseline",
		Parameters: map[string]float64{"bollinger_n": 20},
		Metrics:    map[string]float64{"cagr": 0.12},
	})
	assert.NoError(t, err)
	assert.NoError(t, j.Close())

	rows := readCSV(t, runsPath)
	assert.Len(t, rows, 2)

	row := rows[1]
	assert.Equal(t, "R1", row[0])
	assert.Equal(t, created.Format(time.RFC3339), row[1])
	assert.Equal(t, "baseline", row[2])
	assert.JSONEq(t, `{"bollinger_n":20}`, row[3])
	assert.JSONEq(t, `{"cagr":0.12}`, row[4])
}

func TestCSVJournalRecordTrade(t *testing.T) {
	t.Parallel()

	j, _, tradesPath, _ := newTestCSV(t)

	err := j.RecordTrade(TradeRecord{
		RunID:         "R1",
		Symbol:        "AWU",
		EntryDate:     time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC),
		ExitDate:      time.Date(2024, 2, 3, 0, 0, 0, 0, time.UTC),
		EntryPrice:    110,
		ExitPrice:     121,
		Shares:        9.5,
		PercentReturn: 0.1,
	})
	assert.NoError(t, err)
	assert.NoError(t, j.Close())

	rows := readCSV(t, tradesPath)
	assert.Len(t, rows, 2)

	want := []string{"R1", "AWU", "2024-01-02", "2024-02-03", "110", "121", "9.5", "0.1"}
	assert.Equal(t, want, rows[1])
}

func TestCSVJournalRecordEquity(t *testing.T) {
	t.Parallel()

	j, _, _, equityPath := newTestCSV(t)

	err := j.RecordEquity(EquityPoint{
		RunID:          "R1",
		Date:           time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC),
		Cash:           0,
		PortfolioValue: 1000,
		Equity:         1000,
	})
	assert.NoError(t, err)
	assert.NoError(t, j.Close())

	rows := readCSV(t, equityPath)
	assert.Len(t, rows, 2)
	assert.Equal(t, []string{"R1", "2024-01-02", "0", "1000", "1000"}, rows[1])
}
