package journal

import (
	"encoding/csv"
	"encoding/json"
	"os"
	"strconv"
	"time"
)

// CSV writes run, trade, and equity records to three CSV files.
type CSV struct {
	runs, trades, equity *csv.Writer
	files                []*os.File
}

func f(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// NewCSV creates the three output files and writes their headers.
func NewCSV(runsPath, tradesPath, equityPath string) (*CSV, error) {
	j := &CSV{}
	for _, spec := range []struct {
		path   string
		header []string
		dst    **csv.Writer
	}{
		{runsPath, []string{"run_id", "created", "label", "parameters", "metrics"}, &j.runs},
		{tradesPath, []string{"run_id", "symbol", "entry_date", "exit_date", "entry_price", "exit_price", "shares", "percent_return"}, &j.trades},
		{equityPath, []string{"run_id", "date", "cash", "portfolio_value", "equity"}, &j.equity},
	} {
		file, err := os.Create(spec.path)
		if err != nil {
			j.Close()
			return nil, err
		}
		j.files = append(j.files, file)

		w := csv.NewWriter(file)
		if err := w.Write(spec.header); err != nil {
			j.Close()
			return nil, err
		}
		w.Flush()
		if err := w.Error(); err != nil {
			j.Close()
			return nil, err
		}
		*spec.dst = w
	}
	return j, nil
}

func (j *CSV) RecordRun(r RunRecord) error {
	params, err := json.Marshal(finiteOnly(r.Parameters))
	if err != nil {
		return err
	}
	metrics, err := json.Marshal(finiteOnly(r.Metrics))
	if err != nil {
		return err
	}
	if err := j.runs.Write([]string{
		r.RunID,
		r.Created.Format(time.RFC3339),
		r.Label,
		string(params),
		string(metrics),
	}); err != nil {
		return err
	}
	j.runs.Flush()
	return j.runs.Error()
}

func (j *CSV) RecordTrade(t TradeRecord) error {
	if err := j.trades.Write([]string{
		t.RunID,
		t.Symbol,
		t.EntryDate.Format("2006-01-02"),
		t.ExitDate.Format("2006-01-02"),
		f(t.EntryPrice),
		f(t.ExitPrice),
		f(t.Shares),
		f(t.PercentReturn),
	}); err != nil {
		return err
	}
	j.trades.Flush()
	return j.trades.Error()
}

func (j *CSV) RecordEquity(e EquityPoint) error {
	if err := j.equity.Write([]string{
		e.RunID,
		e.Date.Format("2006-01-02"),
		f(e.Cash),
		f(e.PortfolioValue),
		f(e.Equity),
	}); err != nil {
		return err
	}
	j.equity.Flush()
	return j.equity.Error()
}

func (j *CSV) Close() error {
	var firstErr error
	for _, file := range j.files {
		if err := file.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
