// Package config provides configuration management for the chart extraction pipeline.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"modelcharts/internal/normalizer"
	"modelcharts/internal/stats"
)

// Configuration validation errors.
var (
	ErrNoCharts             = errors.New("at least one chart is required")
	ErrNoEnabledCharts      = errors.New("at least one chart must be enabled")
	ErrMissingChartName     = errors.New("chart name is required")
	ErrDuplicateChartName   = errors.New("chart names must be unique")
	ErrMissingExtractQuery  = errors.New("extract_query or extract_query_file is required")
	ErrInvalidCategoryMode  = errors.New("category.mode must be one of: classify, original, verbatim")
	ErrInvalidSummaryValue  = errors.New("summary.value must be 'parameters' or 'dataset_size'")
	ErrInvalidDriver        = errors.New("source.driver must be one of: sqlite, mysql, postgres")
	ErrMissingOutputPath    = errors.New("output.base_path is required")
	ErrInvalidLogLevel      = errors.New("logging.level must be one of: debug, info, warn, error")
	ErrEmptyRule            = errors.New("classification rules need a category and at least one keyword")
	ErrChartNotFound        = errors.New("chart not found")
	ErrMissingFieldMapping  = errors.New("fields.name is required")
	ErrStatisticsPresetRule = errors.New("statistics.preset and statistics.rules are mutually exclusive")
	ErrSummarySectionTaken  = errors.New("summary.section collides with a statistics section")
)

// Query names shared with the row source.
const (
	QueryExtract = "extract"
	QueryStat    = "stat"
)

// Default output file names inside a chart's output directory.
const (
	DefaultDataFile = "data.json"
	DefaultStatFile = "stat.json"
)

// Config represents the complete pipeline configuration.
type Config struct {
	Source  SourceConfig        `yaml:"source"`
	Output  OutputConfig        `yaml:"output"`
	Logging LoggingConfig       `yaml:"logging"`
	Fields  normalizer.FieldMap `yaml:"fields"`
	Rules   []normalizer.Rule   `yaml:"rules,omitempty"`
	Charts  []ChartConfig       `yaml:"charts"`
}

// SourceConfig describes the relational database holding the model rows.
type SourceConfig struct {
	Driver string `yaml:"driver"`

	// DSN is the database path for sqlite and a connection string otherwise.
	DSN string `yaml:"dsn"`

	// QueryDir resolves relative query files. Defaults to the config file's directory.
	QueryDir string `yaml:"query_dir"`
}

// OutputConfig defines where documents are written.
type OutputConfig struct {
	BasePath    string `yaml:"base_path"`
	PrettyPrint bool   `yaml:"pretty_print"`
}

// LoggingConfig defines logging behavior.
type LoggingConfig struct {
	Level string `yaml:"level"`
}

// ChartConfig describes one chart variant.
type ChartConfig struct {
	Name             string            `yaml:"name"`
	Enabled          bool              `yaml:"enabled"`
	ExtractQuery     string            `yaml:"extract_query,omitempty"`
	ExtractQueryFile string            `yaml:"extract_query_file,omitempty"`
	StatQuery        string            `yaml:"stat_query,omitempty"`
	StatQueryFile    string            `yaml:"stat_query_file,omitempty"`
	X                normalizer.Axis   `yaml:"x"`
	Y                normalizer.Axis   `yaml:"y"`
	Category         CategoryConfig    `yaml:"category"`
	Palette          []string          `yaml:"palette,omitempty"`
	Statistics       StatisticsConfig  `yaml:"statistics"`
	Summary          SummaryConfig     `yaml:"summary"`
	Output           ChartOutputConfig `yaml:"output"`
}

// CategoryConfig controls domain grouping.
type CategoryConfig struct {
	Mode      normalizer.CategoryMode `yaml:"mode"`
	Delimiter string                  `yaml:"delimiter"`
}

// StatisticsConfig selects the section rules for the statistics document.
type StatisticsConfig struct {
	Preset string       `yaml:"preset,omitempty"`
	Rules  []stats.Rule `yaml:"rules,omitempty"`
}

// SummaryConfig enables the per-category, per-year section computed from chart records.
type SummaryConfig struct {
	Enabled bool   `yaml:"enabled"`
	Section string `yaml:"section,omitempty"`
	Value   string `yaml:"value,omitempty"`
}

// ChartOutputConfig overrides output file paths for one chart.
type ChartOutputConfig struct {
	Data string `yaml:"data,omitempty"`
	Stat string `yaml:"stat,omitempty"`
}

// DefaultSummarySection is the report section holding the per-year summary.
const DefaultSummarySection = "category_year_summary"

// DefaultPalette is the series color cycle of the size-by-year chart.
var DefaultPalette = []string{
	"#5470c6", "#91cc75", "#fac858", "#ee6666", "#73c0de",
	"#3ba272", "#fc8452", "#9a60b4", "#ea7ccc", "#dd6b66",
}

// Default returns the built-in configuration with both chart variants.
func Default() *Config {
	return &Config{
		Source:  SourceConfig{Driver: "sqlite"},
		Output:  OutputConfig{BasePath: "output", PrettyPrint: true},
		Logging: LoggingConfig{Level: "info"},
		Fields:  normalizer.DefaultFieldMap(),
		Charts: []ChartConfig{
			{
				Name:             "parameters_vs_dataset_size",
				Enabled:          true,
				ExtractQueryFile: "model_parameters_vs_datapoints/extract.sql",
				StatQueryFile:    "model_parameters_vs_datapoints/stat.sql",
				X:                normalizer.Axis{Field: normalizer.AxisParameters, Log: true},
				Y:                normalizer.Axis{Field: normalizer.AxisDatasetSize, Log: true},
				Category:         CategoryConfig{Mode: normalizer.ModeVerbatim, Delimiter: ","},
				Statistics:       StatisticsConfig{Preset: stats.PresetBreakdown},
			},
			{
				Name:             "size_by_year",
				Enabled:          true,
				ExtractQueryFile: "model_size/extract.sql",
				StatQueryFile:    "model_size/stat.sql",
				X:                normalizer.Axis{Field: normalizer.AxisYear},
				Y:                normalizer.Axis{Field: normalizer.AxisParameters, Log: true},
				Category:         CategoryConfig{Mode: normalizer.ModeClassify, Delimiter: ","},
				Palette:          append([]string(nil), DefaultPalette...),
				Statistics:       StatisticsConfig{Preset: stats.PresetByYear},
				Summary:          SummaryConfig{Enabled: true, Value: string(normalizer.AxisParameters)},
			},
		},
	}
}

// LoadConfig loads configuration from a YAML file on top of the defaults.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if cfg.Source.QueryDir == "" {
		cfg.Source.QueryDir = filepath.Dir(path)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// SaveConfig saves configuration to a YAML file.
func (c *Config) SaveConfig(path string) error {
	data, err := c.Marshal()
	if err != nil {
		return err
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// Marshal renders the configuration as YAML.
func (c *Config) Marshal() ([]byte, error) {
	data, err := yaml.Marshal(c)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal config: %w", err)
	}

	return data, nil
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	switch c.Source.Driver {
	case "sqlite", "mysql", "postgres":
	default:
		return fmt.Errorf("%w: got %q", ErrInvalidDriver, c.Source.Driver)
	}

	if c.Output.BasePath == "" {
		return ErrMissingOutputPath
	}

	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[c.Logging.Level] {
		return ErrInvalidLogLevel
	}

	if c.Fields.Name == "" {
		return ErrMissingFieldMapping
	}

	for i, r := range c.Rules {
		if strings.TrimSpace(r.Category) == "" || len(r.Keywords) == 0 {
			return fmt.Errorf("%w: rules[%d]", ErrEmptyRule, i)
		}
	}

	if len(c.Charts) == 0 {
		return ErrNoCharts
	}

	names := make(map[string]bool)
	enabled := 0

	for i := range c.Charts {
		ch := &c.Charts[i]

		if ch.Name == "" {
			return fmt.Errorf("%w: charts[%d]", ErrMissingChartName, i)
		}

		if names[ch.Name] {
			return fmt.Errorf("%w: %q", ErrDuplicateChartName, ch.Name)
		}

		names[ch.Name] = true

		if err := ch.validate(); err != nil {
			return fmt.Errorf("chart %q: %w", ch.Name, err)
		}

		if ch.Enabled {
			enabled++
		}
	}

	if enabled == 0 {
		return ErrNoEnabledCharts
	}

	return nil
}

func (ch *ChartConfig) validate() error {
	if ch.ExtractQuery == "" && ch.ExtractQueryFile == "" {
		return ErrMissingExtractQuery
	}

	for _, axis := range []normalizer.Axis{ch.X, ch.Y} {
		if !axis.Field.Valid() {
			return fmt.Errorf("%w: %q", normalizer.ErrUnknownAxisField, axis.Field)
		}
	}

	switch ch.Category.Mode {
	case "", normalizer.ModeClassify, normalizer.ModeOriginal, normalizer.ModeVerbatim:
	default:
		return ErrInvalidCategoryMode
	}

	if ch.Statistics.Preset != "" && len(ch.Statistics.Rules) > 0 {
		return ErrStatisticsPresetRule
	}

	rules, err := ch.StatisticsRules()
	if err != nil {
		return err
	}

	if ch.Summary.Enabled {
		switch normalizer.AxisField(ch.Summary.Value) {
		case "", normalizer.AxisParameters, normalizer.AxisDatasetSize:
		default:
			return ErrInvalidSummaryValue
		}

		section := ch.SummarySection()
		for _, r := range rules {
			if r.Section == section {
				return fmt.Errorf("%w: %q", ErrSummarySectionTaken, section)
			}
		}
	}

	return nil
}

// StatisticsRules resolves the chart's section rules; an empty statistics block
// falls back to the by_year preset.
func (ch *ChartConfig) StatisticsRules() ([]stats.Rule, error) {
	if len(ch.Statistics.Rules) > 0 {
		if err := stats.ValidateRules(ch.Statistics.Rules); err != nil {
			return nil, err
		}

		return ch.Statistics.Rules, nil
	}

	preset := ch.Statistics.Preset
	if preset == "" {
		preset = stats.PresetByYear
	}

	return stats.Preset(preset)
}

// SummarySection returns the report section name of the per-year summary.
func (ch *ChartConfig) SummarySection() string {
	if ch.Summary.Section == "" {
		return DefaultSummarySection
	}

	return ch.Summary.Section
}

// NormalizerOptions builds the normalizer settings for a chart.
func (c *Config) NormalizerOptions(ch *ChartConfig) normalizer.Options {
	return normalizer.Options{
		Fields:       c.Fields,
		X:            ch.X,
		Y:            ch.Y,
		CategoryMode: ch.Category.Mode,
		Delimiter:    ch.Category.Delimiter,
		Rules:        c.Rules,
	}
}

// GetEnabledCharts returns only enabled charts.
func (c *Config) GetEnabledCharts() []ChartConfig {
	var enabled []ChartConfig

	for _, ch := range c.Charts {
		if ch.Enabled {
			enabled = append(enabled, ch)
		}
	}

	return enabled
}

// GetChart finds a chart by name, enabled or not.
func (c *Config) GetChart(name string) (*ChartConfig, error) {
	for i := range c.Charts {
		if c.Charts[i].Name == name {
			return &c.Charts[i], nil
		}
	}

	return nil, fmt.Errorf("%w: %q", ErrChartNotFound, name)
}

// LoadQueries reads the chart's SQL. Inline text wins over files; relative
// files resolve against source.query_dir. The stat query is optional.
func (c *Config) LoadQueries(ch *ChartConfig) (map[string]string, error) {
	queries := make(map[string]string, 2)

	specs := []struct {
		name, inline, file string
	}{
		{QueryExtract, ch.ExtractQuery, ch.ExtractQueryFile},
		{QueryStat, ch.StatQuery, ch.StatQueryFile},
	}

	for _, q := range specs {
		if strings.TrimSpace(q.inline) != "" {
			queries[q.name] = q.inline

			continue
		}

		if q.file == "" {
			continue
		}

		path := q.file
		if !filepath.IsAbs(path) && c.Source.QueryDir != "" {
			path = filepath.Join(c.Source.QueryDir, path)
		}

		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read %s query: %w", q.name, err)
		}

		queries[q.name] = string(data)
	}

	if _, ok := queries[QueryExtract]; !ok {
		return nil, ErrMissingExtractQuery
	}

	return queries, nil
}

// GetOutputPaths follows structure: {base_path}/{chart}/data.json and stat.json,
// unless the chart overrides them.
func (c *Config) GetOutputPaths(ch *ChartConfig) (dataPath, statPath string) {
	dir := filepath.Join(c.Output.BasePath, ch.Name)

	dataPath = ch.Output.Data
	if dataPath == "" {
		dataPath = filepath.Join(dir, DefaultDataFile)
	}

	statPath = ch.Output.Stat
	if statPath == "" {
		statPath = filepath.Join(dir, DefaultStatFile)
	}

	return dataPath, statPath
}

// String returns a string representation of the config.
func (c *Config) String() string {
	return fmt.Sprintf(
		"Config{Driver: %s, Charts: %d, Output: %s}",
		c.Source.Driver,
		len(c.Charts),
		c.Output.BasePath,
	)
}
