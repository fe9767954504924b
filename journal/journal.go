// Package journal records completed simulation runs for later
// comparison. The engine itself is purely in-memory; journaling is
// opt-in reporting wired in at the CLI layer.
package journal

import (
	"time"

	"github.com/rustyeddy/portsim/portfolio"
)

// RunRecord summarizes one finished simulation or sweep combination.
type RunRecord struct {
	RunID      string
	Created    time.Time
	Label      string
	Parameters map[string]float64
	Metrics    map[string]float64
}

// TradeRecord is one closed position.
type TradeRecord struct {
	RunID         string
	Symbol        string
	EntryDate     time.Time
	ExitDate      time.Time
	EntryPrice    float64
	ExitPrice     float64
	Shares        float64
	PercentReturn float64
}

// EquityPoint is one date of the reconciled cash/value/equity curve.
type EquityPoint struct {
	RunID          string
	Date           time.Time
	Cash           float64
	PortfolioValue float64
	Equity         float64
}

// Journal persists run summaries, trades, and equity curves.
type Journal interface {
	RecordRun(RunRecord) error
	RecordTrade(TradeRecord) error
	RecordEquity(EquityPoint) error
	Close() error
}

// RecordHistory walks a finished history and journals the run row,
// every closed trade, and the full equity curve under one run ID.
func RecordHistory(j Journal, runID, label string, params map[string]float64, h *portfolio.History) error {
	payload, err := h.PerformanceMetrics()
	if err != nil {
		return err
	}
	if err := j.RecordRun(RunRecord{
		RunID:      runID,
		Created:    time.Now().UTC(),
		Label:      label,
		Parameters: params,
		Metrics:    payload,
	}); err != nil {
		return err
	}

	for _, p := range h.Positions() {
		ret, err := p.PercentReturn()
		if err != nil {
			return err
		}
		if err := j.RecordTrade(TradeRecord{
			RunID:         runID,
			Symbol:        p.Symbol,
			EntryDate:     p.EntryDate,
			ExitDate:      p.ExitDate,
			EntryPrice:    p.EntryPrice,
			ExitPrice:     p.ExitPrice,
			Shares:        p.Shares,
			PercentReturn: ret,
		}); err != nil {
			return err
		}
	}

	cash, err := h.CashSeries()
	if err != nil {
		return err
	}
	value, err := h.PortfolioValueSeries()
	if err != nil {
		return err
	}
	equity, err := h.EquitySeries()
	if err != nil {
		return err
	}
	for i := 0; i < equity.Len(); i++ {
		date, eq := equity.At(i)
		if err := j.RecordEquity(EquityPoint{
			RunID:          runID,
			Date:           date,
			Cash:           cash.Get(date),
			PortfolioValue: value.Get(date),
			Equity:         eq,
		}); err != nil {
			return err
		}
	}
	return nil
}
