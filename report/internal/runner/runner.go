package runner

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/torstats/torstats/pkg/promfile"
	"github.com/torstats/torstats/pkg/types"
	"github.com/torstats/torstats/report/internal/archive"
	"github.com/torstats/torstats/report/internal/churn"
	"github.com/torstats/torstats/report/internal/composite"
	"github.com/torstats/torstats/report/internal/config"
	"github.com/torstats/torstats/report/internal/geo"
	"github.com/torstats/torstats/report/internal/render"
	"github.com/torstats/torstats/report/internal/report"
)

// Job names accepted by Run.
const (
	JobNetwork = "network"
	JobPie     = "pie"
	JobGeo     = "geo"
	JobChurn   = "churn"
	JobCombine = "combine"
	JobAll     = "all"
)

// Jobs lists the chart jobs in the order All runs them.
var Jobs = []string{JobNetwork, JobPie, JobGeo, JobChurn, JobCombine}

// Runner generates the report outputs of one configuration.
type Runner struct {
	mu  sync.Mutex
	cfg config.ReportConfig
	out io.Writer
	now func() time.Time
}

// New returns a Runner printing progress to out.
func New(cfg config.ReportConfig, out io.Writer) *Runner {
	return &Runner{cfg: cfg, out: out, now: time.Now}
}

// WithClock replaces the clock used for stamps and history directories.
func (r *Runner) WithClock(now func() time.Time) *Runner {
	r.now = now
	return r
}

// SetConfig swaps the configuration used by subsequent runs.
func (r *Runner) SetConfig(cfg config.ReportConfig) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.cfg = cfg
}

// Run executes the named job.
func (r *Runner) Run(ctx context.Context, job string) error {
	if job == JobAll {
		_, err := r.All(ctx)
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	run, err := r.job(job)
	if err != nil {
		return err
	}
	return run(ctx, r.now())
}

// All runs every job, then writes the summary and the metrics textfile.
func (r *Runner) All(ctx context.Context) (*types.Summary, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.now()
	for _, name := range []string{JobNetwork, JobPie, JobGeo} {
		run, _ := r.job(name)
		if err := run(ctx, now); err != nil {
			return nil, err
		}
	}

	res, err := r.churn(ctx, now)
	if err != nil {
		return nil, err
	}
	if err := r.combine(ctx, now); err != nil {
		return nil, err
	}

	sum, err := r.summary(res, now)
	if err != nil {
		return nil, err
	}
	if err := r.writeSummary(sum); err != nil {
		return nil, err
	}
	return sum, nil
}

func (r *Runner) job(name string) (func(context.Context, time.Time) error, error) {
	switch name {
	case JobNetwork:
		return r.network, nil
	case JobPie:
		return r.pie, nil
	case JobGeo:
		return r.geo, nil
	case JobChurn:
		return func(ctx context.Context, now time.Time) error {
			_, err := r.churn(ctx, now)
			return err
		}, nil
	case JobCombine:
		return r.combine, nil
	}
	return nil, fmt.Errorf("runner: unknown job %q", name)
}

func (r *Runner) network(ctx context.Context, now time.Time) error {
	r.printf("Collecting Tor network data...\n\n")
	rows, err := archive.DailyCounts(ctx, r.cfg.HistoryDir)
	if err != nil {
		return err
	}
	if err := report.PrintNetwork(r.out, rows); err != nil {
		return err
	}

	o := r.opts(r.cfg.Chart.Width, r.cfg.Chart.Height, now)
	img, err := render.NetworkChart(rows, o)
	if errors.Is(err, render.ErrNoData) {
		r.printf("No data found!\n")
		img, err = render.NetworkPlaceholder(o), nil
	}
	if err != nil {
		return err
	}
	return r.save("Chart", img, now, config.NetworkChartFile, false)
}

func (r *Runner) pie(_ context.Context, now time.Time) error {
	counts, err := archive.Counts(r.cfg.ActiveDir)
	if err != nil {
		return err
	}
	if err := report.PrintDistribution(r.out, counts); err != nil {
		return err
	}

	h := r.cfg.Chart.Height
	img, err := render.DistributionPie(counts, r.opts(h*10/8, h, now))
	if err != nil {
		return err
	}
	return r.save("Pie chart", img, now, config.DistributionPieFile, true)
}

func (r *Runner) geo(_ context.Context, now time.Time) error {
	records, err := geo.Load(r.cfg.GeoFile())
	if err != nil {
		return err
	}
	locs := geo.GroupByLocation(records)
	if err := report.PrintGeo(r.out, locs, geo.CountByCountry(records)); err != nil {
		return err
	}

	w := r.cfg.Chart.Width
	img, err := render.GeoMap(locs, r.opts(w, w*10/16, now))
	if err != nil {
		return err
	}
	return r.save("Geolocation map", img, now, config.GeolocationMapFile, true)
}

func (r *Runner) churn(ctx context.Context, now time.Time) (*churn.Result, error) {
	r.printf("Analyzing Tor node churn rate...\n\n")
	snaps, err := archive.Load(ctx, r.cfg.HistoryDir)
	if err != nil {
		return nil, err
	}
	res := churn.Analyze(snaps)
	if err := report.PrintChurn(r.out, res.Summary); err != nil {
		return nil, err
	}

	w := r.cfg.Chart.Width
	img, err := render.ChurnChart(res.Series.Points(), res.Summary, r.opts(w, w*10/14, now))
	if err != nil {
		return nil, err
	}
	return res, r.save("Churn rate chart", img, now, config.ChurnChartFile, false)
}

func (r *Runner) combine(_ context.Context, _ time.Time) error {
	gaps := composite.Gaps{
		Horizontal: r.cfg.Composite.HorizontalGap,
		Vertical:   r.cfg.Composite.VerticalGap,
	}
	out := r.cfg.StatsPath(config.CombinedAnalyticsFile)
	l, err := composite.CombineFiles(
		r.cfg.StatsPath(config.NetworkChartFile),
		r.cfg.StatsPath(config.DistributionPieFile),
		r.cfg.StatsPath(config.GeolocationMapFile),
		out, gaps)
	if err != nil {
		return err
	}

	r.printf("Resized images:\n  Top left: %v\n  Top right: %v\n  Bottom: %v\n", l.TopLeft, l.TopRight, l.Bottom)
	r.printf("Combined dimensions: %dx%d\n", l.Combined.X, l.Combined.Y)
	return report.PrintSaved(r.out, "Combined chart", out)
}

// summary assembles the document handed to the server.
func (r *Runner) summary(res *churn.Result, now time.Time) (*types.Summary, error) {
	active, err := archive.Counts(r.cfg.ActiveDir)
	if err != nil {
		return nil, err
	}
	records, err := geo.Load(r.cfg.GeoFile())
	if err != nil {
		return nil, err
	}

	s := &types.Summary{
		GeneratedAt: now.UTC(),
		Churn:       res.Summary,
		Series:      res.Series.Points(),
		Active:      active,
		Locations:   len(geo.GroupByLocation(records)),
		GeoNodes:    len(records),
	}
	if n := res.Series.Len(); n > 0 {
		first, last := res.Series.Dates[0], res.Series.Dates[n-1]
		s.FirstDate, s.LastDate = &first, &last
	}
	return s, nil
}

func (r *Runner) writeSummary(s *types.Summary) error {
	path := r.cfg.StatsPath(config.DefaultSummaryFile)
	if err := report.WriteSummary(path, s); err != nil {
		return err
	}

	var buf bytes.Buffer
	if err := promfile.Encode(&buf, s); err != nil {
		return err
	}
	prom := r.cfg.StatsPath(config.DefaultMetricsFile)
	if err := report.WriteFileAtomic(prom, buf.Bytes()); err != nil {
		return err
	}

	slog.Info("runner: summary written", "summary", path, "metrics", prom,
		"snapshots", s.Churn.Snapshots, "unique_nodes", s.Churn.UniqueNodes)
	return nil
}

// save writes img into the stats directory and, for history outputs, into
// today's history directory as well. The history copy is skipped until
// today's snapshot directory exists, so a run never creates an empty
// snapshot.
func (r *Runner) save(what string, img image.Image, now time.Time, name string, history bool) error {
	paths := []string{r.cfg.StatsPath(name)}
	if history && r.cfg.CopyToHistory() {
		dir := r.cfg.HistoryDayDir(now)
		if fi, err := os.Stat(dir); err == nil && fi.IsDir() {
			paths = append(paths, filepath.Join(dir, name))
		} else {
			slog.Debug("runner: no snapshot for today, history copy skipped", "dir", dir)
		}
	}
	for _, p := range paths {
		if err := composite.WritePNG(p, img); err != nil {
			return err
		}
	}
	slog.Debug("runner: image written", "name", name, "paths", paths)
	return report.PrintSaved(r.out, what, paths...)
}

func (r *Runner) opts(w, h int, now time.Time) render.Options {
	return render.Options{Width: w, Height: h, Now: now}
}

func (r *Runner) printf(format string, args ...any) {
	fmt.Fprintf(r.out, format, args...)
}
