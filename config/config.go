package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/rustyeddy/portsim/sim"
)

// Config is the complete simulation configuration.
type Config struct {
	Data       DataConfig     `json:"data" yaml:"data"`
	Simulation sim.Parameters `json:"simulation" yaml:"simulation"`
	Signals    SignalConfig   `json:"signals" yaml:"signals"`
	Optimize   OptimizeConfig `json:"optimize" yaml:"optimize"`
	Journal    JournalConfig  `json:"journal" yaml:"journal"`
}

// DataConfig locates the price dataset.
type DataConfig struct {
	// Path is a directory of SYMBOL.csv files or a .zip bundle.
	Path string `json:"path" yaml:"path"`

	// Symbols restricts the universe; empty means every symbol found
	// under Path.
	Symbols []string `json:"symbols,omitempty" yaml:"symbols,omitempty"`

	// Benchmark is an optional file with benchmark closes (e.g. SPY)
	// for the relative performance metrics.
	Benchmark string `json:"benchmark,omitempty" yaml:"benchmark,omitempty"`
}

// SignalConfig sets the indicator windows for signal and preference
// generation.
type SignalConfig struct {
	// BollingerN is the Bollinger band window for the entry/exit
	// signal.
	BollingerN int `json:"bollinger_n" yaml:"bollinger_n"`

	// SharpeN is the rolling sharpe window for the preference matrix.
	SharpeN int `json:"sharpe_n" yaml:"sharpe_n"`
}

// OptimizeConfig controls the grid-search sweep.
type OptimizeConfig struct {
	// Workers bounds concurrent simulations. 1 means sequential.
	Workers int `json:"workers" yaml:"workers"`

	// RankMetric orders the sweep report, e.g. "sharpe_ratio".
	RankMetric string `json:"rank_metric" yaml:"rank_metric"`

	// BollingerN and SharpeN are the parameter ranges swept.
	BollingerN []int `json:"bollinger_n" yaml:"bollinger_n"`
	SharpeN    []int `json:"sharpe_n" yaml:"sharpe_n"`
}

// JournalConfig selects where finished runs are recorded.
type JournalConfig struct {
	Type       string `json:"type" yaml:"type"` // "none", "csv" or "sqlite"
	DBPath     string `json:"db_path,omitempty" yaml:"db_path,omitempty"`
	RunsFile   string `json:"runs_file,omitempty" yaml:"runs_file,omitempty"`
	TradesFile string `json:"trades_file,omitempty" yaml:"trades_file,omitempty"`
	EquityFile string `json:"equity_file,omitempty" yaml:"equity_file,omitempty"`
}

// LoadFromFile loads configuration from a YAML or JSON file.
func LoadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	cfg := Default()

	// Try YAML first, fall back to JSON.
	if err := yaml.Unmarshal(data, cfg); err != nil {
		if jsonErr := json.Unmarshal(data, cfg); jsonErr != nil {
			return nil, fmt.Errorf("parse config (tried YAML and JSON): %w", err)
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// SaveToFile writes the configuration as YAML (.yaml/.yml) or JSON.
func (c *Config) SaveToFile(path string) error {
	var data []byte
	var err error

	if strings.HasSuffix(path, ".yaml") || strings.HasSuffix(path, ".yml") {
		data, err = yaml.Marshal(c)
	} else {
		data, err = json.MarshalIndent(c, "", "  ")
	}
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write config file: %w", err)
	}
	return nil
}

// Validate checks the configuration.
func (c *Config) Validate() error {
	if c.Data.Path == "" {
		return fmt.Errorf("data.path is required")
	}
	if err := c.Simulation.Validate(); err != nil {
		return err
	}
	if c.Signals.BollingerN < 2 {
		return fmt.Errorf("signals.bollinger_n must be at least 2")
	}
	if c.Signals.SharpeN < 2 {
		return fmt.Errorf("signals.sharpe_n must be at least 2")
	}
	if c.Optimize.Workers < 1 {
		return fmt.Errorf("optimize.workers must be at least 1")
	}
	switch c.Journal.Type {
	case "", "none":
	case "sqlite":
		if c.Journal.DBPath == "" {
			return fmt.Errorf("journal.db_path required for sqlite journal")
		}
	case "csv":
		if c.Journal.RunsFile == "" || c.Journal.TradesFile == "" || c.Journal.EquityFile == "" {
			return fmt.Errorf("journal runs_file, trades_file and equity_file required for csv journal")
		}
	default:
		return fmt.Errorf("journal.type must be 'none', 'csv' or 'sqlite'")
	}
	return nil
}

// Default returns a configuration with conventional research values.
func Default() *Config {
	return &Config{
		Data: DataConfig{
			Path: "./data/eod",
		},
		Simulation: sim.Default(),
		Signals: SignalConfig{
			BollingerN: 20,
			SharpeN:    100,
		},
		Optimize: OptimizeConfig{
			Workers:    1,
			RankMetric: "excess_cagr",
			BollingerN: []int{10, 20, 30, 40, 50},
			SharpeN:    []int{10, 20, 30, 40, 50},
		},
		Journal: JournalConfig{
			Type: "none",
		},
	}
}
