package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/rustyeddy/portsim/config"
	"github.com/rustyeddy/portsim/dataio"
	"github.com/rustyeddy/portsim/journal"
	"github.com/rustyeddy/portsim/market"
	"github.com/rustyeddy/portsim/metrics"
	"github.com/rustyeddy/portsim/signals"
)

// loadInputs resolves the dataset and assembles the price frame and
// optional benchmark series.
func loadInputs(cfg *config.Config) (*market.Frame, *market.Series, error) {
	cacheDir := filepath.Join(os.TempDir(), "portsim-data")
	dir, err := dataio.ResolveDataDir(cfg.Data.Path, cacheDir)
	if err != nil {
		return nil, nil, fmt.Errorf("resolve data path: %w", err)
	}

	symbols := cfg.Data.Symbols
	if len(symbols) == 0 {
		symbols, err = dataio.ListSymbols(dir)
		if err != nil {
			return nil, nil, err
		}
	}
	if len(symbols) == 0 {
		return nil, nil, fmt.Errorf("no symbols found under %s", dir)
	}

	prices, err := dataio.LoadPriceMatrix(dir, symbols)
	if err != nil {
		return nil, nil, err
	}

	var benchmark *market.Series
	if cfg.Data.Benchmark != "" {
		benchmark, err = dataio.LoadBenchmark(cfg.Data.Benchmark)
		if err != nil {
			return nil, nil, fmt.Errorf("load benchmark: %w", err)
		}
	}
	return prices, benchmark, nil
}

// deriveFrames builds the signal and preference frames: Bollinger
// band crossovers for entries/exits, rolling sharpe as preference.
func deriveFrames(prices *market.Frame, bollingerN, sharpeN int) (*market.Frame, *market.Frame, error) {
	signal, err := prices.Apply(func(s *market.Series) *market.Series {
		return signals.BollingerBandSignal(s, bollingerN)
	})
	if err != nil {
		return nil, nil, err
	}
	preference, err := prices.Apply(func(s *market.Series) *market.Series {
		return metrics.RollingSharpeRatio(s, sharpeN)
	})
	if err != nil {
		return nil, nil, err
	}
	return signal, preference, nil
}

// openJournal builds the configured journal backend, nil when
// journaling is off.
func openJournal(cfg *config.Config) (journal.Journal, error) {
	switch cfg.Journal.Type {
	case "", "none":
		return nil, nil
	case "sqlite":
		return journal.NewSQLite(cfg.Journal.DBPath)
	case "csv":
		return journal.NewCSV(cfg.Journal.RunsFile, cfg.Journal.TradesFile, cfg.Journal.EquityFile)
	}
	return nil, fmt.Errorf("unknown journal type %q", cfg.Journal.Type)
}
