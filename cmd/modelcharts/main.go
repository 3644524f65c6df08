// Package main provides the modelcharts command: extract AI model rows from a
// database and write chart-ready JSON for the visualization front end.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"sort"
	"strconv"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"modelcharts/internal/config"
	"modelcharts/internal/formatter"
	"modelcharts/internal/logger"
	"modelcharts/internal/normalizer"
	"modelcharts/internal/pipeline"
	"modelcharts/internal/sink"
	"modelcharts/internal/source"
)

var (
	// ErrChartsFailed is returned when at least one chart run failed.
	ErrChartsFailed = errors.New("chart runs failed")
	// ErrNoDatabase is returned when neither --db nor source.dsn names a database.
	ErrNoDatabase = errors.New("no database given: use --db or source.dsn")
)

var (
	configPath string
	logLevel   string
	dbPath     string
	queryDir   string
	outDir     string
	chartNames []string
	printYAML  bool
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "modelcharts",
		Short: "Build chart data for AI model visualizations",
		Long: `modelcharts extracts AI model rows from a relational database, normalizes
them and writes scatter series (data.json) and statistics (stat.json) per chart.`,
		SilenceUsage: true,
	}

	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Configuration file (default: built-in charts)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level: debug, info, warn, error")
	rootCmd.PersistentFlags().StringVar(&queryDir, "queries", "data/queries", "Query directory used with the built-in configuration")

	runCmd := &cobra.Command{
		Use:   "run",
		Short: "Run the extraction pipeline for every enabled chart",
		Args:  cobra.NoArgs,
		RunE:  run,
	}

	runCmd.Flags().StringVar(&dbPath, "db", "", "Database path or DSN (overrides source.dsn)")
	runCmd.Flags().StringVarP(&outDir, "out", "o", "", "Output base directory (overrides output.base_path)")
	runCmd.Flags().StringSliceVar(&chartNames, "chart", nil, "Charts to run, enabled or not (default: all enabled charts)")

	chartsCmd := &cobra.Command{
		Use:   "charts",
		Short: "List configured charts",
		Args:  cobra.NoArgs,
		RunE:  listCharts,
	}

	configCmd := &cobra.Command{
		Use:   "config",
		Short: "Validate the configuration",
		Args:  cobra.NoArgs,
		RunE:  showConfig,
	}

	configCmd.Flags().BoolVar(&printYAML, "print", false, "Print the effective configuration as YAML")

	rootCmd.AddCommand(runCmd, chartsCmd, configCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func loadConfig() (*config.Config, error) {
	if configPath == "" {
		cfg := config.Default()
		cfg.Source.QueryDir = queryDir

		if logLevel != "" {
			cfg.Logging.Level = logLevel
		}

		return cfg, cfg.Validate()
	}

	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		return nil, err
	}

	if logLevel != "" {
		cfg.Logging.Level = logLevel
		if err := cfg.Validate(); err != nil {
			return nil, err
		}
	}

	return cfg, nil
}

func selectCharts(cfg *config.Config) ([]config.ChartConfig, error) {
	if len(chartNames) == 0 {
		return cfg.GetEnabledCharts(), nil
	}

	selected := make([]config.ChartConfig, 0, len(chartNames))

	for _, name := range chartNames {
		ch, err := cfg.GetChart(name)
		if err != nil {
			return nil, err
		}

		selected = append(selected, *ch)
	}

	return selected, nil
}

func run(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	if dbPath != "" {
		cfg.Source.DSN = dbPath
	}

	if outDir != "" {
		cfg.Output.BasePath = outDir
	}

	if cfg.Source.DSN == "" {
		return ErrNoDatabase
	}

	charts, err := selectCharts(cfg)
	if err != nil {
		return err
	}

	log := logger.NewLogger(cfg.Logging.Level)

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	start := time.Now()
	failed := 0

	for i := range charts {
		ch := &charts[i]

		report, err := runChart(ctx, cfg, ch, log)
		if err != nil {
			failed++

			log.Error("Chart run failed", "chart", ch.Name, "error", err)

			if report != nil && report.Extracted > 0 {
				printDropped(report)
			}

			if ctx.Err() != nil {
				break
			}

			continue
		}

		printReport(cfg, ch, report)
	}

	fmt.Printf("Total Duration: %v\n", time.Since(start).Round(time.Millisecond))

	if failed > 0 {
		return fmt.Errorf("%w: %d of %d", ErrChartsFailed, failed, len(charts))
	}

	return nil
}

func runChart(ctx context.Context, cfg *config.Config, ch *config.ChartConfig, log *logger.Logger) (*pipeline.RunReport, error) {
	queries, err := cfg.LoadQueries(ch)
	if err != nil {
		return nil, err
	}

	opts, err := pipeline.OptionsFromConfig(cfg, ch)
	if err != nil {
		return nil, err
	}

	open := func(ctx context.Context) (pipeline.RowSource, error) {
		src, err := source.Open(ctx, source.Options{Driver: cfg.Source.Driver, DSN: cfg.Source.DSN}, queries)
		if err != nil {
			return nil, err
		}

		return src, nil
	}

	dataPath, statPath := cfg.GetOutputPaths(ch)

	runner, err := pipeline.NewRunner(opts, open, sink.NewJSONSink(dataPath, statPath, cfg.Output.PrettyPrint), log)
	if err != nil {
		return nil, err
	}

	return runner.Run(ctx)
}

func printReport(cfg *config.Config, ch *config.ChartConfig, report *pipeline.RunReport) {
	dataPath, statPath := cfg.GetOutputPaths(ch)

	fmt.Println("\n------------------------------------------------")
	fmt.Printf("📊 %s (run %s)\n", ch.Name, report.RunID)
	fmt.Println("------------------------------------------------")
	fmt.Printf("Total models: %d of %d rows\n", report.Usable, report.Extracted)
	fmt.Printf("Domains found: %d\n", len(report.Document.Domains))
	fmt.Print(formatter.SeriesTable(report.Document))

	printDropped(report)

	if report.IgnoredStatRows > 0 {
		fmt.Printf("⚠️  Ignored statistics rows: %d\n", report.IgnoredStatRows)
	}

	fmt.Printf("Chart data: %s\n", dataPath)
	fmt.Printf("Statistics: %s\n", statPath)
	fmt.Printf("Duration: %v\n", report.Duration.Round(time.Millisecond))
}

func printDropped(report *pipeline.RunReport) {
	reasons := report.Reasons()
	if len(reasons) == 0 {
		return
	}

	rows := make([][]string, 0, len(reasons))
	for _, r := range reasons {
		rows = append(rows, []string{r, strconv.Itoa(report.Skipped[r]), strconv.Itoa(report.Ineligible[r])})
	}

	fmt.Printf("Dropped rows: %d\n", report.Dropped())
	fmt.Print(formatter.FormatTable([]string{"Reason", "Skipped", "Ineligible"}, rows))
}

func listCharts(_ *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	rows := make([][]string, 0, len(cfg.Charts))

	for i := range cfg.Charts {
		ch := &cfg.Charts[i]

		stats := ch.Statistics.Preset
		if stats == "" {
			stats = fmt.Sprintf("%d rules", len(ch.Statistics.Rules))
		}

		rows = append(rows, []string{
			ch.Name,
			strconv.FormatBool(ch.Enabled),
			axisLabel(ch.X),
			axisLabel(ch.Y),
			string(ch.Category.Mode),
			stats,
		})
	}

	sort.SliceStable(rows, func(i, j int) bool { return rows[i][0] < rows[j][0] })

	fmt.Print(formatter.FormatTable([]string{"Chart", "Enabled", "X", "Y", "Category", "Statistics"}, rows))

	return nil
}

func axisLabel(axis normalizer.Axis) string {
	if axis.Log {
		return "log10(" + string(axis.Field) + ")"
	}

	return string(axis.Field)
}

func showConfig(_ *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("configuration is invalid: %w", err)
	}

	if !printYAML {
		fmt.Printf("✅ Configuration is valid: %s\n", cfg)

		return nil
	}

	data, err := cfg.Marshal()
	if err != nil {
		return err
	}

	fmt.Print(string(data))

	return nil
}
