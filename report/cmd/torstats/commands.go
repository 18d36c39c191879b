package main

import (
	"context"
	"log/slog"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/torstats/torstats/pkg/logging"
	"github.com/torstats/torstats/report/internal/config"
	"github.com/torstats/torstats/report/internal/runner"
)

// cli holds the persistent flags and the configuration they resolve to.
type cli struct {
	configPath string
	root       string
	logLevel   string
	logFormat  string

	cfg *config.Config
}

func newRootCommand() *cobra.Command {
	c := &cli{}

	root := &cobra.Command{
		Use:   "torstats",
		Short: "Tor network statistics from a dated node archive",
		Long: `torstats reads the daily relay, exit and guard lists archived under
history/<year>/<month>/<YYYY-MM-DD>/ and renders network size, role
distribution, geolocation and churn charts into the stats directory.`,
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: c.load,
	}

	pf := root.PersistentFlags()
	pf.StringVarP(&c.configPath, "config", "c", "", "path to config.yaml (defaults apply when empty)")
	pf.StringVar(&c.root, "root", ".", "project root holding history/, active/ and stats/")
	pf.StringVar(&c.logLevel, "log-level", "", "override log level (debug, info, warn, error)")
	pf.StringVar(&c.logFormat, "log-format", "", "override log format (console, json)")

	root.AddCommand(
		c.jobCommand(runner.JobNetwork, "Chart the network size over time"),
		c.jobCommand(runner.JobPie, "Chart the role distribution of the active inventory"),
		c.jobCommand(runner.JobGeo, "Map the geolocation of the active inventory"),
		c.jobCommand(runner.JobChurn, "Analyse node churn and lifetimes across the archive"),
		c.jobCommand(runner.JobCombine, "Combine the network chart, pie and map into one image"),
		c.jobCommand(runner.JobAll, "Run every job and write summary.json and churn.prom"),
		c.watchCommand(),
	)
	return root
}

// load resolves the configuration and installs the logger.
func (c *cli) load(cmd *cobra.Command, _ []string) error {
	if c.configPath != "" {
		cfg, err := config.Load(c.configPath)
		if err != nil {
			return err
		}
		c.cfg = cfg
	} else {
		c.cfg = config.Default(c.root)
	}
	c.applyOverrides(c.cfg)

	if err := logging.Setup(c.cfg.Report.Log.Level, c.cfg.Report.Log.Format); err != nil {
		return err
	}
	slog.Debug("config resolved",
		"history_dir", c.cfg.Report.HistoryDir,
		"active_dir", c.cfg.Report.ActiveDir,
		"stats_dir", c.cfg.Report.StatsDir,
	)
	return nil
}

func (c *cli) applyOverrides(cfg *config.Config) {
	if c.logLevel != "" {
		cfg.Report.Log.Level = c.logLevel
	}
	if c.logFormat != "" {
		cfg.Report.Log.Format = c.logFormat
	}
}

func (c *cli) jobCommand(job, short string) *cobra.Command {
	return &cobra.Command{
		Use:   job,
		Short: short,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, cancel := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer cancel()
			return runner.New(c.cfg.Report, cmd.OutOrStdout()).Run(ctx, job)
		},
	}
}

func (c *cli) watchCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "watch",
		Short: "Regenerate every output whenever the archive or the active inventory changes",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, cancel := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer cancel()
			return c.watch(ctx, runner.New(c.cfg.Report, cmd.OutOrStdout()))
		},
	}
}

// watch runs every job once, then again after each debounced change. Runs
// never overlap; changes arriving during a run queue a single rerun.
func (c *cli) watch(ctx context.Context, r *runner.Runner) error {
	rc := c.cfg.Report

	pending := make(chan struct{}, 1)
	trigger := func() {
		select {
		case pending <- struct{}{}:
		default:
		}
	}

	watchers := newArchiveWatchers(trigger)
	defer watchers.stop()
	if err := watchers.start(ctx, rc.WatchDebounce, rc.HistoryDir, rc.ActiveDir); err != nil {
		return err
	}

	if c.configPath != "" {
		go func() {
			err := config.Watch(ctx, c.configPath, func(updated *config.Config) {
				c.applyOverrides(updated)
				if err := logging.SetLevel(updated.Report.Log.Level); err != nil {
					slog.Warn("log level not changed", "err", err)
				}
				r.SetConfig(updated.Report)
				ur := updated.Report
				if err := watchers.start(ctx, ur.WatchDebounce, ur.HistoryDir, ur.ActiveDir); err != nil {
					slog.Error("archive watchers not restarted", "err", err)
				}
				slog.Info("config hot-reloaded", "stats_dir", updated.Report.StatsDir)
				trigger()
			})
			if err != nil {
				slog.Error("config watcher stopped", "err", err)
			}
		}()
	}

	trigger()
	for {
		select {
		case <-ctx.Done():
			slog.Info("torstats watch shutting down")
			return nil
		case <-pending:
			sum, err := r.All(ctx)
			if err != nil {
				if ctx.Err() != nil {
					return nil
				}
				slog.Error("report run failed", "err", err)
				continue
			}
			slog.Info("report regenerated",
				"snapshots", sum.Churn.Snapshots,
				"unique_nodes", sum.Churn.UniqueNodes,
				"avg_churn_rate", sum.Churn.AvgChurnRate,
			)
		}
	}
}
