package sim

import "fmt"

// Parameters configure one simulation run. Immutable once the run
// starts.
type Parameters struct {
	// InitialCash is the starting uninvested capital.
	InitialCash float64 `json:"initial_cash" yaml:"initial_cash"`

	// MaxActivePositions caps the number of symbols held at once.
	MaxActivePositions int `json:"max_active_positions" yaml:"max_active_positions"`

	// PercentSlippage is the adverse execution cost applied against
	// the quoted price on both entry and exit, e.g. 0.0005.
	PercentSlippage float64 `json:"percent_slippage" yaml:"percent_slippage"`

	// TradeFee is the fixed dollar fee charged to open a position.
	TradeFee float64 `json:"trade_fee" yaml:"trade_fee"`
}

// Validate checks the parameter ranges.
func (p Parameters) Validate() error {
	if p.InitialCash <= 0 {
		return fmt.Errorf("sim: initial_cash must be positive, got %v", p.InitialCash)
	}
	if p.MaxActivePositions < 1 {
		return fmt.Errorf("sim: max_active_positions must be at least 1, got %d", p.MaxActivePositions)
	}
	if p.PercentSlippage < 0 {
		return fmt.Errorf("sim: percent_slippage must not be negative, got %v", p.PercentSlippage)
	}
	if p.TradeFee < 0 {
		return fmt.Errorf("sim: trade_fee must not be negative, got %v", p.TradeFee)
	}
	return nil
}

// Default returns the conventional research parameters.
func Default() Parameters {
	return Parameters{
		InitialCash:        10_000,
		MaxActivePositions: 5,
		PercentSlippage:    0.0005,
		TradeFee:           1,
	}
}
