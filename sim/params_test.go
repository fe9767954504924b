package sim

import (
	"strings"
	"testing"
)

func TestParametersValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Parameters)
		errMsg string
	}{
		{"defaults are valid", func(p *Parameters) {}, ""},
		{"zero cash", func(p *Parameters) { p.InitialCash = 0 }, "initial_cash"},
		{"zero positions", func(p *Parameters) { p.MaxActivePositions = 0 }, "max_active_positions"},
		{"negative slippage", func(p *Parameters) { p.PercentSlippage = -0.1 }, "percent_slippage"},
		{"negative fee", func(p *Parameters) { p.TradeFee = -1 }, "trade_fee"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := Default()
			tt.mutate(&p)
			err := p.Validate()
			if tt.errMsg == "" {
				if err != nil {
					t.Fatalf("validate: %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.errMsg) {
				t.Fatalf("got %v, want error mentioning %q", err, tt.errMsg)
			}
		})
	}
}

func TestDefaultParameters(t *testing.T) {
	p := Default()
	if p.InitialCash != 10_000 || p.MaxActivePositions != 5 {
		t.Fatalf("unexpected defaults: %+v", p)
	}
}
