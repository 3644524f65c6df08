package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"modelcharts/internal/aggregator"
	"modelcharts/internal/config"
	"modelcharts/internal/logger"
	"modelcharts/internal/logscale"
	"modelcharts/internal/models"
	"modelcharts/internal/normalizer"
	"modelcharts/internal/stats"
)

// Options configures a Runner for one chart.
type Options struct {
	Chart      string
	Normalizer normalizer.Options
	Palette    []string
	StatRules  []stats.Rule
	// StatQuery is false when the chart has no statistics query; the report
	// then holds only empty sections.
	StatQuery bool
	// SummarySection adds the per-category, per-year summary when not empty.
	SummarySection string
	SummaryValue   normalizer.AxisField
}

// OptionsFromConfig builds runner options for a configured chart.
func OptionsFromConfig(cfg *config.Config, ch *config.ChartConfig) (Options, error) {
	rules, err := ch.StatisticsRules()
	if err != nil {
		return Options{}, fmt.Errorf("chart %q: %w", ch.Name, err)
	}

	opts := Options{
		Chart:      ch.Name,
		Normalizer: cfg.NormalizerOptions(ch),
		Palette:    ch.Palette,
		StatRules:  rules,
		StatQuery:  ch.StatQuery != "" || ch.StatQueryFile != "",
	}

	if ch.Summary.Enabled {
		opts.SummarySection = ch.SummarySection()
		opts.SummaryValue = normalizer.AxisField(ch.Summary.Value)
	}

	return opts, nil
}

// Runner executes the extraction pipeline for one chart.
type Runner struct {
	open       SourceOpener
	sink       Sink
	logger     *logger.Logger
	normalizer *normalizer.Normalizer
	aggregator *aggregator.Aggregator
	assembler  *stats.Assembler
	opts       Options
}

// NewRunner creates a runner. The logger is scoped per run with the run id.
func NewRunner(opts Options, open SourceOpener, sink Sink, log *logger.Logger) (*Runner, error) {
	if open == nil || sink == nil {
		return nil, ErrMissingDependency
	}

	n, err := normalizer.NewNormalizer(opts.Normalizer)
	if err != nil {
		return nil, fmt.Errorf("failed to create normalizer: %w", err)
	}

	if len(opts.StatRules) > 0 {
		if err := stats.ValidateRules(opts.StatRules); err != nil {
			return nil, fmt.Errorf("invalid statistics rules: %w", err)
		}
	}

	for _, rule := range opts.StatRules {
		if opts.SummarySection != "" && rule.Section == opts.SummarySection {
			return nil, fmt.Errorf("%w: %q", config.ErrSummarySectionTaken, opts.SummarySection)
		}
	}

	if log == nil {
		log = logger.Discard()
	}

	return &Runner{
		open:       open,
		sink:       sink,
		logger:     log,
		normalizer: n,
		aggregator: aggregator.NewAggregator(opts.Palette),
		assembler:  stats.NewAssembler(opts.StatRules),
		opts:       opts,
	}, nil
}

// Run executes one pipeline run. The returned report is never nil, so callers
// can inspect diagnostics even when the run failed. Nothing reaches the sink
// unless every earlier step succeeded.
func (r *Runner) Run(ctx context.Context) (*RunReport, error) {
	start := time.Now()
	report := newRunReport(uuid.NewString(), r.opts.Chart)
	log := r.logger.ForRun(report.RunID, r.opts.Chart)

	defer func() { report.Duration = time.Since(start) }()

	log.Info("Starting run")

	src, err := r.open(ctx)
	if err != nil {
		return report, &ResourceError{Resource: "source", Op: "open", Err: err}
	}

	defer func() {
		if cerr := src.Close(); cerr != nil {
			log.Warn("Failed to close row source", "error", cerr)
		}
	}()

	rows, err := src.Query(ctx, QueryExtract)
	if err != nil {
		return report, &ResourceError{Resource: "source", Op: "query " + QueryExtract, Err: err}
	}

	report.Extracted = len(rows)
	log.Debug("Extracted rows", "rows", len(rows))

	records, entries, err := r.normalize(ctx, rows, report, log)
	if err != nil {
		return report, err
	}

	report.Usable = len(records)
	if len(records) == 0 {
		return report, fmt.Errorf("%w: %d rows extracted, %d dropped", ErrEmptyResult, report.Extracted, report.Dropped())
	}

	doc := models.NewChartDocument(r.aggregator.GroupSeries(entries))
	report.Series = len(doc.Series)

	var statRows []models.RawRecord

	if r.opts.StatQuery {
		statRows, err = src.Query(ctx, QueryStat)
		if err != nil {
			return report, &ResourceError{Resource: "source", Op: "query " + QueryStat, Err: err}
		}
	}

	statistics, diag := r.assembler.Assemble(statRows)
	report.StatRows = len(statRows)
	report.IgnoredStatRows = diag.Ignored

	for key, n := range diag.Unknown {
		report.UnknownDiscriminators[key] = n
		log.Warn("Ignored statistics rows with unknown discriminator", "key", key, "rows", n)
	}

	if r.opts.SummarySection != "" {
		statistics[r.opts.SummarySection] = r.aggregator.Summarize(records, r.summaryValue())
	}

	if err := r.sink.Write(ctx, doc, statistics); err != nil {
		return report, &ResourceError{Resource: "sink", Op: "write", Err: err}
	}

	report.Document = doc

	log.Info("Run complete",
		"extracted", report.Extracted,
		"usable", report.Usable,
		"dropped", report.Dropped(),
		"series", report.Series,
		"stat_rows", report.StatRows,
	)

	return report, nil
}

// normalize validates every row and builds its chart entry. Dropped rows are
// counted on the report; only context cancellation is returned as an error.
func (r *Runner) normalize(ctx context.Context, rows []models.RawRecord, report *RunReport, log *logger.Logger) ([]*models.NormalizedRecord, []aggregator.Entry, error) {
	records := make([]*models.NormalizedRecord, 0, len(rows))
	entries := make([]aggregator.Entry, 0, len(rows))

	for i, raw := range rows {
		if err := ctx.Err(); err != nil {
			return nil, nil, err
		}

		rec, err := r.normalizer.Normalize(raw)
		if err != nil {
			r.drop(report, log, i, raw, err)

			continue
		}

		x, xok := r.scale(rec.X, r.opts.Normalizer.X)
		y, yok := r.scale(rec.Y, r.opts.Normalizer.Y)

		if !xok || !yok {
			report.Ineligible[normalizer.ReasonNonPositive]++

			continue
		}

		records = append(records, rec)
		entries = append(entries, aggregator.Entry{
			Category: rec.Category,
			Point: models.ChartPoint{
				Name:          rec.Name,
				PointMetadata: rec.Metadata(),
				Value:         [2]float64{x, y},
			},
		})
	}

	return records, entries, nil
}

func (r *Runner) drop(report *RunReport, log *logger.Logger, row int, raw models.RawRecord, err error) {
	reason := normalizer.Reason(err)

	if normalizer.IsIneligible(err) {
		report.Ineligible[reason]++
	} else {
		report.Skipped[reason]++
	}

	args := []any{
		"row", row,
		"name", raw.String(r.opts.Normalizer.Fields.Name),
		"reason", reason,
		"error", err,
	}

	if reason == normalizer.ReasonUnparseableDate {
		log.Warn("Dropped row", args...)

		return
	}

	log.Debug("Dropped row", args...)
}

func (r *Runner) scale(v float64, axis normalizer.Axis) (float64, bool) {
	if !axis.Log {
		return v, true
	}

	return logscale.Transform(v)
}

func (r *Runner) summaryValue() aggregator.ValueFunc {
	if r.opts.SummaryValue == normalizer.AxisDatasetSize {
		return aggregator.DatasetSizeValue
	}

	return aggregator.ParametersValue
}
