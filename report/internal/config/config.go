package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// Default values applied when fields are absent from the config file.
const (
	DefaultHistoryDir     = "history"
	DefaultActiveDir      = "active"
	DefaultStatsDir       = "stats"
	DefaultChartWidth     = 1400
	DefaultChartHeight    = 800
	DefaultHorizontalGap  = 10
	DefaultVerticalGap    = 20
	DefaultWatchDebounce  = 2 * time.Second
	DefaultLogLevel       = "info"
	DefaultLogFormat      = "console"
	DefaultGeoFile        = "geo-location.json"
	DefaultSummaryFile    = "summary.json"
	DefaultMetricsFile    = "churn.prom"
	NetworkChartFile      = "network-chart.png"
	DistributionPieFile   = "node-distribution-pie.png"
	GeolocationMapFile    = "geolocation-map.png"
	ChurnChartFile        = "churn-rate.png"
	CombinedAnalyticsFile = "combined-analytics.png"
)

// Config is the top-level configuration. Only the report section is parsed
// here; the server binary reads `server:` from the same file.
type Config struct {
	Report ReportConfig `yaml:"report"`
}

// ReportConfig holds every setting of the report generator.
type ReportConfig struct {
	// Root is the project directory. Relative directories below are resolved
	// against it.
	Root string `yaml:"root"`

	// HistoryDir holds the dated archive: <year>/<month>/<YYYY-MM-DD>/.
	HistoryDir string `yaml:"history_dir"`

	// ActiveDir holds the current inventory and geo-location.json.
	ActiveDir string `yaml:"active_dir"`

	// StatsDir receives the generated images, summary and metrics file.
	StatsDir string `yaml:"stats_dir"`

	// HistoryCopies also writes the pie chart and the map into today's
	// history directory.
	HistoryCopies *bool `yaml:"history_copies"`

	// WatchDebounce is the quiet period before `watch` regenerates outputs.
	WatchDebounce time.Duration `yaml:"watch_debounce"`

	Chart     ChartConfig     `yaml:"chart"`
	Composite CompositeConfig `yaml:"composite"`
	Log       LogConfig       `yaml:"log"`
}

// ChartConfig sets the pixel size of the generated charts.
type ChartConfig struct {
	Width  int `yaml:"width"`
	Height int `yaml:"height"`
}

// CompositeConfig sets the gaps of the combined analytics image.
type CompositeConfig struct {
	HorizontalGap int `yaml:"horizontal_gap"`
	VerticalGap   int `yaml:"vertical_gap"`
}

// LogConfig controls the slog handler.
type LogConfig struct {
	// Level is one of: debug | info | warn | error.
	Level string `yaml:"level"`

	// Format is one of: console | json.
	Format string `yaml:"format"`
}

// CopyToHistory reports whether history copies are enabled (default true).
func (r ReportConfig) CopyToHistory() bool {
	return r.HistoryCopies == nil || *r.HistoryCopies
}

// GeoFile is the path of the active geolocation JSON file.
func (r ReportConfig) GeoFile() string {
	return filepath.Join(r.ActiveDir, DefaultGeoFile)
}

// StatsPath joins name onto the stats directory.
func (r ReportConfig) StatsPath(name string) string {
	return filepath.Join(r.StatsDir, name)
}

// HistoryDayDir is the archive directory for the date of t.
func (r ReportConfig) HistoryDayDir(t time.Time) string {
	return filepath.Join(r.HistoryDir, t.Format("2006"), t.Format("01"), t.Format("2006-01-02"))
}

// Load reads and parses the YAML config file at path.
// Missing optional fields are filled with defaults.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read file: %w", err)
	}

	cfg := defaults("")
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("config: parse yaml: %w", err)
	}
	if cfg.Report.Root == "" {
		cfg.Report.Root = filepath.Dir(path)
	}
	cfg.Report.resolve()

	if err := validate(cfg); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	return cfg, nil
}

// Default returns the configuration used when no file is given.
func Default(root string) *Config {
	if root == "" {
		root = "."
	}
	cfg := defaults(root)
	cfg.Report.resolve()
	return cfg
}

// defaults returns a Config pre-populated with default values.
func defaults(root string) *Config {
	return &Config{
		Report: ReportConfig{
			Root:          root,
			HistoryDir:    DefaultHistoryDir,
			ActiveDir:     DefaultActiveDir,
			StatsDir:      DefaultStatsDir,
			WatchDebounce: DefaultWatchDebounce,
			Chart: ChartConfig{
				Width:  DefaultChartWidth,
				Height: DefaultChartHeight,
			},
			Composite: CompositeConfig{
				HorizontalGap: DefaultHorizontalGap,
				VerticalGap:   DefaultVerticalGap,
			},
			Log: LogConfig{
				Level:  DefaultLogLevel,
				Format: DefaultLogFormat,
			},
		},
	}
}

// resolve makes the directories absolute relative to Root.
func (r *ReportConfig) resolve() {
	r.HistoryDir = r.under(r.HistoryDir)
	r.ActiveDir = r.under(r.ActiveDir)
	r.StatsDir = r.under(r.StatsDir)
}

func (r *ReportConfig) under(dir string) string {
	if filepath.IsAbs(dir) {
		return dir
	}
	return filepath.Join(r.Root, dir)
}

// validate checks required fields and structural constraints.
func validate(cfg *Config) error {
	r := cfg.Report
	if r.HistoryDir == "" || r.ActiveDir == "" || r.StatsDir == "" {
		return fmt.Errorf("report: history_dir, active_dir and stats_dir must not be empty")
	}
	if r.Chart.Width <= 0 || r.Chart.Height <= 0 {
		return fmt.Errorf("report.chart: width and height must be positive")
	}
	if r.Composite.HorizontalGap < 0 || r.Composite.VerticalGap < 0 {
		return fmt.Errorf("report.composite: gaps must not be negative")
	}
	if r.WatchDebounce <= 0 {
		return fmt.Errorf("report.watch_debounce must be positive")
	}
	switch r.Log.Level {
	case "debug", "info", "warn", "warning", "error":
	default:
		return fmt.Errorf("report.log: unknown level %q", r.Log.Level)
	}
	switch r.Log.Format {
	case "console", "json":
	default:
		return fmt.Errorf("report.log: unknown format %q", r.Log.Format)
	}
	return nil
}
