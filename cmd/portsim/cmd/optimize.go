package cmd

import (
	"fmt"
	"math"
	"time"

	"github.com/spf13/cobra"

	"github.com/rustyeddy/portsim/config"
	"github.com/rustyeddy/portsim/journal"
	"github.com/rustyeddy/portsim/optimize"
	"github.com/rustyeddy/portsim/portfolio"
	"github.com/rustyeddy/portsim/sim"
)

var optimizeCmd = &cobra.Command{
	Use:   "optimize",
	Short: "Grid-search signal parameters over a price dataset",
	Long: `Optimize sweeps the Bollinger and rolling-sharpe windows over a
Cartesian grid, running one independent simulation per combination,
then ranks the combinations by a performance metric.

Example:
  portsim optimize --data ./data/eod --metric excess_cagr --workers 4`,
	RunE: runOptimize,
}

var (
	optConfigPath string
	optDataPath   string
	optBenchmark  string
	optMetric     string
	optWorkers    int
	optTop        int
	optDBPath     string
)

func init() {
	rootCmd.AddCommand(optimizeCmd)

	optimizeCmd.Flags().StringVarP(&optConfigPath, "config", "f", "", "path to config file (YAML or JSON)")
	optimizeCmd.Flags().StringVarP(&optDataPath, "data", "d", "", "data directory or .zip bundle of SYMBOL.csv files")
	optimizeCmd.Flags().StringVar(&optBenchmark, "benchmark", "", "benchmark CSV for relative metrics (e.g. SPY)")
	optimizeCmd.Flags().StringVar(&optMetric, "metric", "", "metric to rank by (default from config)")
	optimizeCmd.Flags().IntVarP(&optWorkers, "workers", "w", 0, "concurrent simulations (default from config)")
	optimizeCmd.Flags().IntVar(&optTop, "top", 10, "number of ranked rows to print")
	optimizeCmd.Flags().StringVar(&optDBPath, "db", "", "journal sweep results to this SQLite database")
}

func optimizeConfig() (*config.Config, error) {
	var cfg *config.Config
	var err error
	if optConfigPath != "" {
		cfg, err = config.LoadFromFile(optConfigPath)
		if err != nil {
			return nil, err
		}
	} else {
		cfg = config.Default()
		cfg.Data.Path = optDataPath
		cfg.Data.Benchmark = optBenchmark
	}

	if optMetric != "" {
		cfg.Optimize.RankMetric = optMetric
	}
	if optWorkers > 0 {
		cfg.Optimize.Workers = optWorkers
	}
	if optDBPath != "" {
		cfg.Journal.Type = "sqlite"
		cfg.Journal.DBPath = optDBPath
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func runOptimize(cmd *cobra.Command, args []string) error {
	cfg, err := optimizeConfig()
	if err != nil {
		return err
	}

	prices, benchmark, err := loadInputs(cfg)
	if err != nil {
		return err
	}

	// All combinations share the read-only price frame; each run
	// derives its own signal and preference frames and builds its own
	// simulator, so the sweep can fan out safely.
	simulate := func(params optimize.Params) (portfolio.Payload, error) {
		signal, preference, err := deriveFrames(prices,
			int(params["bollinger_n"]), int(params["sharpe_n"]))
		if err != nil {
			return nil, err
		}

		simulator, err := sim.New(cfg.Simulation)
		if err != nil {
			return nil, err
		}
		if benchmark != nil {
			simulator.History().SetBenchmark(benchmark)
		}
		if err := simulator.Simulate(prices, signal, preference); err != nil {
			return nil, err
		}
		return simulator.History().PerformanceMetrics()
	}

	grid := optimize.NewGrid().
		AddInts("bollinger_n", cfg.Optimize.BollingerN...).
		AddInts("sharpe_n", cfg.Optimize.SharpeN...)

	search := optimize.NewGridSearch(simulate)
	search.SetWorkers(cfg.Optimize.Workers)

	fmt.Printf("Sweeping %d combinations over %d symbols (%d workers)\n\n",
		grid.Size(), prices.NumCols(), cfg.Optimize.Workers)

	started := time.Now()
	if err := search.Run(cmd.Context(), grid); err != nil {
		return fmt.Errorf("optimize: %w", err)
	}
	fmt.Printf("Swept %d combinations in %s\n\n", grid.Size(), time.Since(started).Round(time.Millisecond))

	ranked, err := search.Best(cfg.Optimize.RankMetric)
	if err != nil {
		return err
	}

	fmt.Println("==================================================")
	fmt.Printf(" Top combinations by %s\n", cfg.Optimize.RankMetric)
	fmt.Println("==================================================")
	top := optTop
	if top > len(ranked) {
		top = len(ranked)
	}
	for i := 0; i < top; i++ {
		r := ranked[i]
		fmt.Printf("%2d. %s = %.4f", i+1, cfg.Optimize.RankMetric, r.Performance[cfg.Optimize.RankMetric])
		for _, name := range grid.Names() {
			fmt.Printf("  %s=%g", name, r.Params[name])
		}
		fmt.Println()
	}

	summary, err := search.Summary()
	if err != nil {
		return err
	}
	fmt.Println()
	fmt.Println("Summary statistics")
	fmt.Println("--------------------------------------------------")
	fmt.Printf("%-24s %6s %12s %12s %12s %12s\n", "metric", "count", "mean", "std", "min", "max")
	for _, name := range portfolio.PayloadKeys {
		stats, ok := summary[name]
		if !ok || stats.Count == 0 || math.IsNaN(stats.Mean) {
			continue
		}
		fmt.Printf("%-24s %6d %12.4f %12.4f %12.4f %12.4f\n",
			name, stats.Count, stats.Mean, stats.Std, stats.Min, stats.Max)
	}

	j, err := openJournal(cfg)
	if err != nil {
		return err
	}
	if j != nil {
		defer j.Close()
		results, err := search.Results()
		if err != nil {
			return err
		}
		created := time.Now().UTC()
		for _, r := range results {
			if err := j.RecordRun(journal.RunRecord{
				RunID:      r.RunID,
				Created:    created,
				Label:      "optimize",
				Parameters: r.Params,
				Metrics:    r.Performance,
			}); err != nil {
				return fmt.Errorf("journal: %w", err)
			}
		}
		fmt.Printf("\nJournaled %d runs\n", len(results))
	}
	return nil
}
