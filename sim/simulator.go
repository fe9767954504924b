package sim

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/rustyeddy/portsim/market"
	"github.com/rustyeddy/portsim/portfolio"
)

var (
	// ErrColumnMismatch means the price, signal, and preference frames
	// do not share one column set.
	ErrColumnMismatch = errors.New("input frames have unequal columns")

	// ErrInsufficientCash means a buy would drive the cash balance
	// negative.
	ErrInsufficientCash = errors.New("insufficient cash")

	// ErrSymbolNotActive means a sell targeted a symbol with no open
	// position. Unreachable if the simulator's bookkeeping is correct.
	ErrSymbolNotActive = errors.New("symbol not active")
)

// Simulator drives the day-by-day decision loop over price, signal,
// and preference frames. It owns the active position set and the cash
// balance, and emits cash snapshots and closed positions into one
// History. Strictly sequential: each date's outcome is a precondition
// for the next.
type Simulator struct {
	params Parameters

	cash   float64
	active map[string]*portfolio.Position
	// Insertion order of the active set. Eviction tie-breaks resolve
	// in this order, so it must be deterministic.
	activeOrder []string

	history *portfolio.History
}

// New constructs a simulator with validated parameters.
func New(params Parameters) (*Simulator, error) {
	if err := params.Validate(); err != nil {
		return nil, err
	}
	return &Simulator{
		params:  params,
		cash:    params.InitialCash,
		active:  make(map[string]*portfolio.Position),
		history: portfolio.NewHistory(),
	}, nil
}

// History returns the portfolio history owned by this simulator.
func (s *Simulator) History() *portfolio.History { return s.history }

// Cash returns the current uninvested balance.
func (s *Simulator) Cash() float64 { return s.cash }

// ActiveCount returns the number of open positions.
func (s *Simulator) ActiveCount() int { return len(s.active) }

func (s *Simulator) freeSlots() int {
	return s.params.MaxActivePositions - len(s.active)
}

// ActiveSymbols returns the open symbols in insertion order.
func (s *Simulator) ActiveSymbols() []string {
	return append([]string(nil), s.activeOrder...)
}

// Simulate runs the full decision loop and finishes the history. The
// three frames must share one column set; signal values are -1, 0, or
// +1. A symbol-row is tradable only when price, signal, and preference
// are all present for that date.
//
// Per date, in this order: exits on sell signals, buys under the slot
// and capital budget, then revaluation of surviving holdings. On the
// final date every remaining position is force-closed so that the run
// always terminates with computable metrics.
func (s *Simulator) Simulate(price, signal, preference *market.Frame) error {
	if !market.SameColumns(price, signal, preference) {
		return ErrColumnMismatch
	}

	symbols := price.Symbols()
	dates := price.Dates()

	for i, date := range dates {
		if err := s.applyExits(date, price, signal); err != nil {
			return err
		}

		// No entries on the final date: a position opened here would
		// have to be churned same-day by the forced liquidation.
		if i < len(dates)-1 {
			if err := s.applyBuys(date, symbols, price, signal, preference); err != nil {
				return err
			}
		}

		// Mark surviving holdings to the day's price so value series
		// stay current without realizing a sale.
		for _, sym := range s.ActiveSymbols() {
			px := price.At(i, sym)
			if math.IsNaN(px) {
				continue
			}
			if err := s.active[sym].RecordPrice(date, px); err != nil {
				return err
			}
		}

		// Snapshot cash every date, not just on trades. Position value
		// series cover every marked date, and reconciliation requires
		// the cash index to cover them all.
		s.history.RecordCash(date, s.cash)
	}

	if len(dates) > 0 {
		last := len(dates) - 1
		for _, sym := range s.ActiveSymbols() {
			px := price.At(last, sym)
			if math.IsNaN(px) {
				// No final quote; settle at the last observed mark.
				px = s.active[sym].LastPrice()
			}
			if err := s.sellToClose(sym, dates[last], px); err != nil {
				return err
			}
		}
	}

	return s.history.Finish()
}

func (s *Simulator) applyExits(date time.Time, price, signal *market.Frame) error {
	for _, sym := range s.ActiveSymbols() {
		if signal.Value(date, sym) != -1 {
			continue
		}
		px := price.Value(date, sym)
		if math.IsNaN(px) {
			continue
		}
		if err := s.sellToClose(sym, date, px); err != nil {
			return err
		}
	}
	return nil
}

func (s *Simulator) applyBuys(date time.Time, symbols []string, price, signal, preference *market.Frame) error {
	// Candidates: tradable rows with a buy signal, not already held,
	// ranked by preference descending. The sort is stable so ties
	// resolve in column order.
	var candidates []string
	for _, sym := range symbols {
		if _, held := s.active[sym]; held {
			continue
		}
		px, sig, pref := price.Value(date, sym), signal.Value(date, sym), preference.Value(date, sym)
		if math.IsNaN(px) || math.IsNaN(sig) || math.IsNaN(pref) {
			continue
		}
		if sig == 1 {
			candidates = append(candidates, sym)
		}
	}
	sort.SliceStable(candidates, func(a, b int) bool {
		return preference.Value(date, candidates[a]) > preference.Value(date, candidates[b])
	})
	if len(candidates) > s.params.MaxActivePositions {
		candidates = candidates[:s.params.MaxActivePositions]
	}

	for _, sym := range candidates {
		if s.freeSlots() > 0 {
			if err := s.buyToOpen(sym, date, price.Value(date, sym)); err != nil {
				return err
			}
			continue
		}

		// At capacity: evict the weakest holding only if the candidate
		// is strictly preferred. Holdings with no preference reading
		// for the date are not considered for eviction.
		minSym := ""
		minPref := math.Inf(1)
		for _, held := range s.activeOrder {
			p := preference.Value(date, held)
			if math.IsNaN(p) {
				continue
			}
			if p < minPref {
				minSym, minPref = held, p
			}
		}
		if minSym == "" || minPref >= preference.Value(date, sym) {
			continue
		}
		if err := s.sellToClose(minSym, date, price.Value(date, minSym)); err != nil {
			return err
		}
		if err := s.buyToOpen(sym, date, price.Value(date, sym)); err != nil {
			return err
		}
	}
	return nil
}

// buyToOpen divides available cash evenly across free slots, pays the
// fee, and opens the position at the slippage-adjusted price.
func (s *Simulator) buyToOpen(symbol string, date time.Time, price float64) error {
	if _, held := s.active[symbol]; held {
		return fmt.Errorf("sim: buy of already-held symbol %s", symbol)
	}

	free := s.freeSlots()
	if free < 1 {
		return fmt.Errorf("sim: buy of %s with no free slots", symbol)
	}

	cashToSpend := s.cash/float64(free) - s.params.TradeFee
	purchasePrice := price * (1 + s.params.PercentSlippage)
	shares := cashToSpend / purchasePrice

	debit := cashToSpend + s.params.TradeFee
	if debit > s.cash {
		return fmt.Errorf("%w: need $%.2f for %s, have $%.2f",
			ErrInsufficientCash, debit, symbol, s.cash)
	}

	pos, err := portfolio.Open(symbol, date, purchasePrice, shares)
	if err != nil {
		return err
	}

	s.cash -= debit
	s.history.RecordCash(date, s.cash)
	s.active[symbol] = pos
	s.activeOrder = append(s.activeOrder, symbol)
	return nil
}

// sellToClose exits the position at price, credits the sale value net
// of slippage, and hands the position to the history.
func (s *Simulator) sellToClose(symbol string, date time.Time, price float64) error {
	pos, ok := s.active[symbol]
	if !ok {
		return fmt.Errorf("%w: %s", ErrSymbolNotActive, symbol)
	}

	if err := pos.Exit(date, price); err != nil {
		return err
	}

	saleValue := pos.LastValue() * (1 - s.params.PercentSlippage)
	s.cash += saleValue
	s.history.RecordCash(date, s.cash)

	if err := s.history.AddToHistory(pos); err != nil {
		return err
	}

	delete(s.active, symbol)
	for i, held := range s.activeOrder {
		if held == symbol {
			s.activeOrder = append(s.activeOrder[:i], s.activeOrder[i+1:]...)
			break
		}
	}
	return nil
}
