package portfolio

import (
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/rustyeddy/portsim/market"
	"github.com/rustyeddy/portsim/metrics"
)

// History collects closed positions and periodic cash snapshots during
// a simulation, then reconciles them into aligned cash, portfolio
// value, and equity series on Finish. One instance per run.
type History struct {
	positions []*Position
	logged    map[Key]bool

	cashDates   []time.Time
	cashAmounts []float64

	lastDate time.Time

	// Optional benchmark closes for the relative metrics. Attach
	// before Finish.
	benchmark *market.Series

	finished     bool
	cashSeries   *market.Series
	valueSeries  *market.Series
	equitySeries *market.Series
	logReturns   *market.Series
}

// NewHistory returns an empty portfolio history.
func NewHistory() *History {
	return &History{logged: make(map[Key]bool)}
}

// SetBenchmark attaches a benchmark close series used for the
// benchmark-relative payload metrics. Without one those metrics
// report NaN.
func (h *History) SetBenchmark(closes *market.Series) {
	h.benchmark = closes
}

// AddToHistory records a closed position. The same (symbol, entry
// date) identity may only be recorded once.
func (h *History) AddToHistory(p *Position) error {
	if h.logged[p.Keyed()] {
		return fmt.Errorf("%w: %s entered %s", ErrDuplicatePosition,
			p.Symbol, p.EntryDate.Format("2006-01-02"))
	}
	if !p.IsClosed() {
		return fmt.Errorf("%w: %s", ErrPositionStillOpen, p.Symbol)
	}
	h.logged[p.Keyed()] = true
	h.positions = append(h.positions, p)
	if p.LastDate().After(h.lastDate) {
		h.lastDate = p.LastDate()
	}
	return nil
}

// RecordCash snapshots the uninvested cash balance for a date. Repeat
// submissions for one date keep the latest value.
func (h *History) RecordCash(date time.Time, amount float64) {
	date = market.Day(date)
	h.cashDates = append(h.cashDates, date)
	h.cashAmounts = append(h.cashAmounts, amount)
	if date.After(h.lastDate) {
		h.lastDate = date
	}
}

// LastDate returns the latest date seen across cash snapshots and
// position ledgers.
func (h *History) LastDate() time.Time { return h.lastDate }

// NumTrades returns the number of closed positions recorded.
func (h *History) NumTrades() int { return len(h.positions) }

// Positions returns the closed positions in recording order.
func (h *History) Positions() []*Position {
	return append([]*Position(nil), h.positions...)
}

// Finish reconciles the accumulated snapshots into the derived series.
// One-shot: a second call fails with ErrAlreadyFinished.
func (h *History) Finish() error {
	if h.finished {
		return ErrAlreadyFinished
	}

	// Cash: submission order with last-write-wins per date, sorted.
	cash := &market.Series{}
	for i := range h.cashDates {
		cash.Set(h.cashDates[i], h.cashAmounts[i])
	}

	// Portfolio value: sum of closed positions' value series, plus a
	// zero on every cash date so both series share one index.
	value := &market.Series{}
	for _, p := range h.positions {
		vs, err := p.ValueSeries()
		if err != nil {
			return err
		}
		for i := 0; i < vs.Len(); i++ {
			d, v := vs.At(i)
			prev := value.Get(d)
			if math.IsNaN(prev) {
				prev = 0
			}
			value.Set(d, prev+v)
		}
	}
	for _, d := range cash.Dates() {
		if !value.Has(d) {
			value.Set(d, 0)
		}
	}

	if !cash.IndexEqual(value) {
		return fmt.Errorf("%w: %d cash dates vs %d value dates",
			ErrReconciliationMismatch, cash.Len(), value.Len())
	}

	equity, err := cash.Add(value)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrReconciliationMismatch, err)
	}

	h.cashSeries = cash
	h.valueSeries = value
	h.equitySeries = equity
	h.logReturns = metrics.LogReturnSeries(equity)
	h.finished = true
	return nil
}

func (h *History) assertFinished() error {
	if !h.finished {
		return ErrNotFinished
	}
	return nil
}

// CashSeries returns the reconciled cash series.
func (h *History) CashSeries() (*market.Series, error) {
	if err := h.assertFinished(); err != nil {
		return nil, err
	}
	return h.cashSeries, nil
}

// PortfolioValueSeries returns the summed mark-to-market value of all
// holdings over time, zero-filled on dates with no holdings.
func (h *History) PortfolioValueSeries() (*market.Series, error) {
	if err := h.assertFinished(); err != nil {
		return nil, err
	}
	return h.valueSeries, nil
}

// EquitySeries returns cash plus portfolio value.
func (h *History) EquitySeries() (*market.Series, error) {
	if err := h.assertFinished(); err != nil {
		return nil, err
	}
	return h.equitySeries, nil
}

// LogReturnSeries returns the log returns of the equity series.
func (h *History) LogReturnSeries() (*market.Series, error) {
	if err := h.assertFinished(); err != nil {
		return nil, err
	}
	return h.logReturns, nil
}

// FinalCash returns the last reconciled cash balance.
func (h *History) FinalCash() (float64, error) {
	if err := h.assertFinished(); err != nil {
		return 0, err
	}
	return h.cashSeries.Last(), nil
}

// FinalEquity returns the last equity value.
func (h *History) FinalEquity() (float64, error) {
	if err := h.assertFinished(); err != nil {
		return 0, err
	}
	return h.equitySeries.Last(), nil
}

// PositionCountSeries counts concurrently held positions per date.
func (h *History) PositionCountSeries() *market.Series {
	counts := &market.Series{}
	for _, p := range h.positions {
		vs, err := p.ValueSeries()
		if err != nil {
			continue
		}
		for _, d := range vs.Dates() {
			prev := counts.Get(d)
			if math.IsNaN(prev) {
				prev = 0
			}
			counts.Set(d, prev+1)
		}
	}
	return counts
}

// AverageActiveTrades is the mean concurrent position count across all
// dates any position was held.
func (h *History) AverageActiveTrades() float64 {
	counts := h.PositionCountSeries()
	if counts.Len() == 0 {
		return 0
	}
	var sum float64
	for _, v := range counts.Values() {
		sum += v
	}
	return sum / float64(counts.Len())
}

// Payload is the flat metric mapping handed to ranking and reporting
// tooling. Key names are a fixed contract; additions are backward
// compatible, renames are not.
type Payload map[string]float64

// PayloadKeys lists the payload contract in reporting order.
var PayloadKeys = []string{
	"percent_return",
	"spy_percent_return",
	"cagr",
	"spy_cagr",
	"excess_cagr",
	"volatility",
	"sharpe_ratio",
	"sortino_ratio",
	"jensens_alpha",
	"dollar_max_drawdown",
	"percent_max_drawdown",
	"log_max_drawdown_ratio",
	"number_of_trades",
	"average_active_trades",
	"final_cash",
	"final_equity",
}

// PerformanceMetrics computes the full payload from the finished
// series. Benchmark-relative entries are NaN when no benchmark was
// attached.
func (h *History) PerformanceMetrics() (Payload, error) {
	if err := h.assertFinished(); err != nil {
		return nil, err
	}

	equity := h.equitySeries
	finalCash, _ := h.FinalCash()
	finalEquity, _ := h.FinalEquity()

	payload := Payload{
		"percent_return":         metrics.PercentReturn(equity),
		"cagr":                   metrics.CAGR(equity),
		"volatility":             metrics.AnnualizedVolatility(h.logReturns),
		"sharpe_ratio":           metrics.SharpeRatio(equity, 0),
		"sortino_ratio":          metrics.SortinoRatio(equity, 0),
		"dollar_max_drawdown":    metrics.MaxDrawdown(equity, metrics.DrawdownDollar),
		"percent_max_drawdown":   metrics.MaxDrawdown(equity, metrics.DrawdownPercent),
		"log_max_drawdown_ratio": metrics.LogMaxDrawdownRatio(equity),
		"number_of_trades":       float64(h.NumTrades()),
		"average_active_trades":  h.AverageActiveTrades(),
		"final_cash":             finalCash,
		"final_equity":           finalEquity,
	}

	spyReturn, spyCAGR, excessCAGR, alpha := math.NaN(), math.NaN(), math.NaN(), math.NaN()
	if h.benchmark != nil && h.benchmark.Len() > 1 {
		spyReturn = metrics.PercentReturn(h.benchmark)
		spyCAGR = metrics.CAGR(h.benchmark)
		excessCAGR = payload["cagr"] - spyCAGR
		alpha = metrics.JensensAlpha(h.logReturns, metrics.LogReturnSeries(h.benchmark))
	}
	payload["spy_percent_return"] = spyReturn
	payload["spy_cagr"] = spyCAGR
	payload["excess_cagr"] = excessCAGR
	payload["jensens_alpha"] = alpha

	return payload, nil
}

// Summary renders a human-readable performance report.
func (h *History) Summary() (string, error) {
	payload, err := h.PerformanceMetrics()
	if err != nil {
		return "", err
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Equity: $%.2f\n", payload["final_equity"])
	fmt.Fprintf(&b, "Percent Return: %.2f%%\n\n", 100*payload["percent_return"])
	fmt.Fprintf(&b, "Number of trades: %d\n", h.NumTrades())
	fmt.Fprintf(&b, "Average active trades: %.2f\n\n", payload["average_active_trades"])
	fmt.Fprintf(&b, "CAGR: %.2f%%\n", 100*payload["cagr"])
	if !math.IsNaN(payload["spy_cagr"]) {
		fmt.Fprintf(&b, "Benchmark CAGR: %.2f%%\n", 100*payload["spy_cagr"])
		fmt.Fprintf(&b, "Excess CAGR: %.2f%%\n", 100*payload["excess_cagr"])
	}
	fmt.Fprintf(&b, "\nAnnualized Volatility: %.2f%%\n", 100*payload["volatility"])
	fmt.Fprintf(&b, "Sharpe Ratio: %.2f\n", payload["sharpe_ratio"])
	fmt.Fprintf(&b, "Sortino Ratio: %.2f\n\n", payload["sortino_ratio"])
	fmt.Fprintf(&b, "Dollar Max Drawdown: $%.2f\n", payload["dollar_max_drawdown"])
	fmt.Fprintf(&b, "Percent Max Drawdown: %.2f%%\n", 100*payload["percent_max_drawdown"])
	fmt.Fprintf(&b, "Log Max Drawdown Ratio: %.2f\n", payload["log_max_drawdown_ratio"])
	return b.String(), nil
}

// SortedPayloadKeys returns payload keys not in the fixed contract in
// sorted order after the contract keys, so reports stay stable as
// metrics are added.
func SortedPayloadKeys(p Payload) []string {
	known := make(map[string]bool, len(PayloadKeys))
	var keys []string
	for _, k := range PayloadKeys {
		known[k] = true
		if _, ok := p[k]; ok {
			keys = append(keys, k)
		}
	}
	var extra []string
	for k := range p {
		if !known[k] {
			extra = append(extra, k)
		}
	}
	sort.Strings(extra)
	return append(keys, extra...)
}
