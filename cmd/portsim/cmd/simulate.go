package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/rustyeddy/portsim/config"
	"github.com/rustyeddy/portsim/internal/id"
	"github.com/rustyeddy/portsim/journal"
	"github.com/rustyeddy/portsim/sim"
)

var simulateCmd = &cobra.Command{
	Use:   "simulate",
	Short: "Run one portfolio simulation over a price dataset",
	Long: `Simulate runs the decision loop once: Bollinger band crossovers drive
entries and exits, a rolling sharpe ratio ranks competing buy
candidates, and every remaining position is force-closed on the final
date.

Example:
  portsim simulate --data ./data/eod --cash 10000 --max-positions 5`,
	RunE: runSimulate,
}

var (
	simConfigPath string
	simDataPath   string
	simBenchmark  string
	simCash       float64
	simMaxActive  int
	simSlippage   float64
	simFee        float64
	simBollingerN int
	simSharpeN    int
	simDBPath     string
	simVerbose    bool
)

func init() {
	rootCmd.AddCommand(simulateCmd)

	simulateCmd.Flags().StringVarP(&simConfigPath, "config", "f", "", "path to config file (YAML or JSON)")
	simulateCmd.Flags().StringVarP(&simDataPath, "data", "d", "", "data directory or .zip bundle of SYMBOL.csv files")
	simulateCmd.Flags().StringVar(&simBenchmark, "benchmark", "", "benchmark CSV for relative metrics (e.g. SPY)")
	simulateCmd.Flags().Float64VarP(&simCash, "cash", "c", 10_000, "initial cash")
	simulateCmd.Flags().IntVarP(&simMaxActive, "max-positions", "m", 5, "max concurrent positions")
	simulateCmd.Flags().Float64Var(&simSlippage, "slippage", 0.0005, "percent slippage per fill")
	simulateCmd.Flags().Float64Var(&simFee, "fee", 1, "fixed trade fee in dollars")
	simulateCmd.Flags().IntVar(&simBollingerN, "bollinger", 20, "bollinger band window")
	simulateCmd.Flags().IntVar(&simSharpeN, "sharpe", 100, "rolling sharpe window for preference")
	simulateCmd.Flags().StringVar(&simDBPath, "db", "", "journal runs to this SQLite database")
	simulateCmd.Flags().BoolVarP(&simVerbose, "verbose", "v", false, "print per-trade summaries")
}

func simulateConfig() (*config.Config, error) {
	if simConfigPath != "" {
		return config.LoadFromFile(simConfigPath)
	}

	cfg := config.Default()
	cfg.Data.Path = simDataPath
	cfg.Data.Benchmark = simBenchmark
	cfg.Simulation = sim.Parameters{
		InitialCash:        simCash,
		MaxActivePositions: simMaxActive,
		PercentSlippage:    simSlippage,
		TradeFee:           simFee,
	}
	cfg.Signals.BollingerN = simBollingerN
	cfg.Signals.SharpeN = simSharpeN
	if simDBPath != "" {
		cfg.Journal.Type = "sqlite"
		cfg.Journal.DBPath = simDBPath
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func runSimulate(cmd *cobra.Command, args []string) error {
	cfg, err := simulateConfig()
	if err != nil {
		return err
	}

	prices, benchmark, err := loadInputs(cfg)
	if err != nil {
		return err
	}
	signal, preference, err := deriveFrames(prices, cfg.Signals.BollingerN, cfg.Signals.SharpeN)
	if err != nil {
		return err
	}

	simulator, err := sim.New(cfg.Simulation)
	if err != nil {
		return err
	}
	if benchmark != nil {
		simulator.History().SetBenchmark(benchmark)
	}

	fmt.Printf("Simulating %d symbols over %d dates\n", prices.NumCols(), prices.NumRows())
	fmt.Printf("  Initial Cash: $%.2f\n", cfg.Simulation.InitialCash)
	fmt.Printf("  Max Positions: %d\n\n", cfg.Simulation.MaxActivePositions)

	if err := simulator.Simulate(prices, signal, preference); err != nil {
		return fmt.Errorf("simulate: %w", err)
	}

	history := simulator.History()
	if simVerbose {
		for _, p := range history.Positions() {
			fmt.Println(p.Summary())
		}
		fmt.Println()
	}

	summary, err := history.Summary()
	if err != nil {
		return err
	}
	fmt.Println("==================================================")
	fmt.Println(" Simulation Result")
	fmt.Println("==================================================")
	fmt.Print(summary)

	j, err := openJournal(cfg)
	if err != nil {
		return err
	}
	if j != nil {
		defer j.Close()
		runID := id.New()
		params := map[string]float64{
			"bollinger_n": float64(cfg.Signals.BollingerN),
			"sharpe_n":    float64(cfg.Signals.SharpeN),
		}
		if err := journal.RecordHistory(j, runID, "simulate", params, history); err != nil {
			return fmt.Errorf("journal: %w", err)
		}
		fmt.Printf("\nJournaled run %s\n", runID)
	}
	return nil
}
