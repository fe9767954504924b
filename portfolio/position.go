package portfolio

import (
	"fmt"
	"time"

	"github.com/rustyeddy/portsim/market"
)

// Position is a single long holding of one symbol, from entry to exit.
// One buy and one sell per position; a constant, possibly fractional,
// number of shares. Active positions are owned by the simulator;
// ownership transfers to the PortfolioHistory on close, after which
// the position is immutable.
type Position struct {
	Symbol     string
	EntryDate  time.Time
	EntryPrice float64
	Shares     float64

	// Zero until Exit.
	ExitDate  time.Time
	ExitPrice float64

	// Price observation ledger in date order. Seeded with the entry
	// observation, appended on every revaluation and on exit.
	ledgerDates  []time.Time
	ledgerPrices []float64

	closed bool
}

// Key identifies a position by (symbol, entry date). Two positions
// with the same key are the same trade.
type Key struct {
	Symbol    string
	EntryDate time.Time
}

// Open buys shares of symbol at price on date.
func Open(symbol string, date time.Time, price, shares float64) (*Position, error) {
	if price <= 0 {
		return nil, fmt.Errorf("%w: price %v for %s", ErrInvalidEntry, price, symbol)
	}
	if shares <= 0 {
		return nil, fmt.Errorf("%w: shares %v for %s", ErrInvalidEntry, shares, symbol)
	}

	p := &Position{
		Symbol:     symbol,
		EntryDate:  market.Day(date),
		EntryPrice: price,
		Shares:     shares,
	}
	p.appendLedger(p.EntryDate, price)
	return p, nil
}

// Keyed returns the position's identity key.
func (p *Position) Keyed() Key {
	return Key{Symbol: p.Symbol, EntryDate: p.EntryDate}
}

// IsActive reports whether the position has not yet been exited.
func (p *Position) IsActive() bool { return !p.closed }

// IsClosed reports whether the position has been exited.
func (p *Position) IsClosed() bool { return p.closed }

// RecordPrice appends an intermediate price observation for an active
// position, overwriting the entry for a repeated date. Dates must not
// move backwards.
func (p *Position) RecordPrice(date time.Time, price float64) error {
	if p.closed {
		return fmt.Errorf("%w: %s", ErrAlreadyClosed, p.Symbol)
	}
	return p.appendLedger(market.Day(date), price)
}

func (p *Position) appendLedger(date time.Time, price float64) error {
	if n := len(p.ledgerDates); n > 0 {
		last := p.ledgerDates[n-1]
		if date.Before(last) {
			return fmt.Errorf("%w: %s has ledger at %s, got %s", ErrOutOfOrder,
				p.Symbol, last.Format("2006-01-02"), date.Format("2006-01-02"))
		}
		if date.Equal(last) {
			p.ledgerPrices[n-1] = price
			return nil
		}
	}
	p.ledgerDates = append(p.ledgerDates, date)
	p.ledgerPrices = append(p.ledgerPrices, price)
	return nil
}

// Exit sells the holding at price on date. This is the terminal
// transition: no mutation is permitted afterwards.
func (p *Position) Exit(date time.Time, price float64) error {
	date = market.Day(date)
	if p.closed {
		return fmt.Errorf("%w: %s", ErrAlreadyClosed, p.Symbol)
	}
	if date.Equal(p.EntryDate) {
		return fmt.Errorf("%w: %s on %s", ErrSameDayChurn, p.Symbol, date.Format("2006-01-02"))
	}
	if err := p.appendLedger(date, price); err != nil {
		return err
	}
	p.ExitDate = date
	p.ExitPrice = price
	p.closed = true
	return nil
}

// LastDate returns the most recent ledger date.
func (p *Position) LastDate() time.Time {
	return p.ledgerDates[len(p.ledgerDates)-1]
}

// LastPrice returns the most recent ledger price.
func (p *Position) LastPrice() float64 {
	return p.ledgerPrices[len(p.ledgerPrices)-1]
}

// LastValue returns shares times the most recent observed price.
func (p *Position) LastValue() float64 {
	return p.Shares * p.LastPrice()
}

// EntryValue returns the dollar value at entry.
func (p *Position) EntryValue() float64 { return p.Shares * p.EntryPrice }

// ExitValue returns the dollar value at exit.
func (p *Position) ExitValue() (float64, error) {
	if !p.closed {
		return 0, fmt.Errorf("%w: %s", ErrNotClosed, p.Symbol)
	}
	return p.Shares * p.ExitPrice, nil
}

// PercentReturn is exit over entry, minus one.
func (p *Position) PercentReturn() (float64, error) {
	if !p.closed {
		return 0, fmt.Errorf("%w: %s", ErrNotClosed, p.Symbol)
	}
	return p.ExitPrice/p.EntryPrice - 1, nil
}

// TradeLength is the number of ledger intervals between entry and the
// last observation.
func (p *Position) TradeLength() int { return len(p.ledgerDates) - 1 }

// ValueSeries returns the position's dollar value over time, excluding
// the final (exit) observation. The exit proceeds are realized as cash
// on the exit date; including the exit mark here would double-count
// them when value series are summed into portfolio value.
func (p *Position) ValueSeries() (*market.Series, error) {
	if !p.closed {
		return nil, fmt.Errorf("%w: %s", ErrNotClosed, p.Symbol)
	}
	n := len(p.ledgerDates) - 1
	s := &market.Series{}
	for i := 0; i < n; i++ {
		s.Set(p.ledgerDates[i], p.Shares*p.ledgerPrices[i])
	}
	return s, nil
}

// Summary formats a short human-readable trade report.
func (p *Position) Summary() string {
	if !p.closed {
		return fmt.Sprintf("%-5s open since %s at $%.2f (%.4f shares)",
			p.Symbol, p.EntryDate.Format("Mon Jan 02, 2006"), p.EntryPrice, p.Shares)
	}
	ret, _ := p.PercentReturn()
	exitValue, _ := p.ExitValue()
	return fmt.Sprintf("%-5s %s -> %s [%d days]  $%.2f -> $%.2f [%.1f%%]  $%.2f -> $%.2f",
		p.Symbol,
		p.EntryDate.Format("Mon Jan 02, 2006"),
		p.ExitDate.Format("Mon Jan 02, 2006"),
		p.TradeLength(),
		p.EntryPrice, p.ExitPrice, 100*ret,
		p.EntryValue(), exitValue)
}
