package journal

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"math"

	_ "github.com/mattn/go-sqlite3"
)

// SQLite persists run records in a SQLite database.
type SQLite struct {
	db *sql.DB
}

// NewSQLite opens (and if needed, initializes) the database at path.
func NewSQLite(path string) (*SQLite, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, err
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("journal: apply schema: %w", err)
	}
	return &SQLite{db: db}, nil
}

func (j *SQLite) RecordRun(r RunRecord) error {
	params, err := json.Marshal(finiteOnly(r.Parameters))
	if err != nil {
		return err
	}
	metrics, err := json.Marshal(finiteOnly(r.Metrics))
	if err != nil {
		return err
	}
	_, err = j.db.Exec(`
		INSERT INTO runs (run_id, created, label, parameters, metrics)
		VALUES (?, ?, ?, ?, ?)`,
		r.RunID, r.Created, r.Label, string(params), string(metrics),
	)
	return err
}

func (j *SQLite) RecordTrade(t TradeRecord) error {
	_, err := j.db.Exec(`
		INSERT INTO trades
		(run_id, symbol, entry_date, exit_date, entry_price, exit_price, shares, percent_return)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		t.RunID, t.Symbol, t.EntryDate, t.ExitDate,
		t.EntryPrice, t.ExitPrice, t.Shares, t.PercentReturn,
	)
	return err
}

func (j *SQLite) RecordEquity(e EquityPoint) error {
	_, err := j.db.Exec(`
		INSERT INTO equity (run_id, date, cash, portfolio_value, equity)
		VALUES (?, ?, ?, ?, ?)`,
		e.RunID, e.Date, e.Cash, e.PortfolioValue, e.Equity,
	)
	return err
}

// ListRuns returns all recorded runs, newest first.
func (j *SQLite) ListRuns() ([]RunRecord, error) {
	rows, err := j.db.Query(`
		SELECT run_id, created, label, parameters, metrics
		FROM runs ORDER BY run_id DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var runs []RunRecord
	for rows.Next() {
		var r RunRecord
		var params, metrics string
		if err := rows.Scan(&r.RunID, &r.Created, &r.Label, &params, &metrics); err != nil {
			return nil, err
		}
		if err := json.Unmarshal([]byte(params), &r.Parameters); err != nil {
			return nil, fmt.Errorf("journal: run %s parameters: %w", r.RunID, err)
		}
		if err := json.Unmarshal([]byte(metrics), &r.Metrics); err != nil {
			return nil, fmt.Errorf("journal: run %s metrics: %w", r.RunID, err)
		}
		runs = append(runs, r)
	}
	return runs, rows.Err()
}

// ListTrades returns the closed trades of one run in entry order.
func (j *SQLite) ListTrades(runID string) ([]TradeRecord, error) {
	rows, err := j.db.Query(`
		SELECT run_id, symbol, entry_date, exit_date, entry_price, exit_price, shares, percent_return
		FROM trades WHERE run_id = ? ORDER BY entry_date`, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var trades []TradeRecord
	for rows.Next() {
		var t TradeRecord
		if err := rows.Scan(&t.RunID, &t.Symbol, &t.EntryDate, &t.ExitDate,
			&t.EntryPrice, &t.ExitPrice, &t.Shares, &t.PercentReturn); err != nil {
			return nil, err
		}
		trades = append(trades, t)
	}
	return trades, rows.Err()
}

// EquityCurve returns one run's equity points in date order.
func (j *SQLite) EquityCurve(runID string) ([]EquityPoint, error) {
	rows, err := j.db.Query(`
		SELECT run_id, date, cash, portfolio_value, equity
		FROM equity WHERE run_id = ? ORDER BY date`, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var points []EquityPoint
	for rows.Next() {
		var p EquityPoint
		if err := rows.Scan(&p.RunID, &p.Date, &p.Cash, &p.PortfolioValue, &p.Equity); err != nil {
			return nil, err
		}
		points = append(points, p)
	}
	return points, rows.Err()
}

func (j *SQLite) Close() error {
	return j.db.Close()
}

// finiteOnly drops NaN and infinite entries, which JSON cannot encode.
// Absent keys read back as missing metrics, the same meaning.
func finiteOnly(m map[string]float64) map[string]float64 {
	out := make(map[string]float64, len(m))
	for k, v := range m {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			continue
		}
		out[k] = v
	}
	return out
}
