package report

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/torstats/torstats/pkg/types"
	"github.com/torstats/torstats/report/internal/archive"
	"github.com/torstats/torstats/report/internal/geo"
)

// TopCountries is the number of countries listed by PrintGeo.
const TopCountries = 10

func printer(w io.Writer) *writer {
	return &writer{w: w, p: message.NewPrinter(language.English)}
}

// writer keeps the first write error so the Print functions can format
// freely and report once.
type writer struct {
	w   io.Writer
	p   *message.Printer
	err error
}

func (pw *writer) line(format string, args ...any) {
	if pw.err != nil {
		return
	}
	_, pw.err = pw.p.Fprintf(pw.w, format+"\n", args...)
}

// PrintNetwork prints one line per snapshot date and the number of days.
func PrintNetwork(w io.Writer, rows []archive.DatedCounts) error {
	pw := printer(w)
	for _, r := range rows {
		c := r.Counts
		pw.line("%s: Relay=%d, Exit=%d, Guard=%d, All=%d",
			r.Date.Format(archive.DateLayout), c.Relay, c.Exit, c.Guard, c.Total())
	}
	pw.line("")
	pw.line("Total days tracked: %d", len(rows))
	return pw.err
}

// PrintDistribution prints the role split of the active inventory.
func PrintDistribution(w io.Writer, c types.RoleCounts) error {
	pw := printer(w)
	pw.line("Node counts:")
	pw.line("  Relay: %d", c.Relay)
	pw.line("  Exit:  %d", c.Exit)
	pw.line("  Guard: %d", c.Guard)
	pw.line("  Total: %d", c.Total())
	return pw.err
}

// PrintGeo prints the number of distinct locations, the number of records
// and the countries with most records.
func PrintGeo(w io.Writer, locs []geo.Location, countries []geo.CountryCount) error {
	pw := printer(w)
	pw.line("Found %d unique lat/lon locations with Tor nodes", len(locs))
	pw.line("Total nodes: %d", geo.Total(locs))
	if len(locs) == 0 {
		pw.line("No location data to plot")
	}
	if len(countries) > 0 {
		pw.line("Top countries:")
		for i, c := range countries {
			if i == TopCountries {
				break
			}
			pw.line("  %-8s %d", c.Country, c.Count)
		}
	}
	return pw.err
}

// PrintChurn prints the lifetime and daily churn statistics.
func PrintChurn(w io.Writer, s types.ChurnSummary) error {
	pw := printer(w)
	pw.line("Total unique nodes: %d", s.UniqueNodes)
	pw.line("Average node lifetime: %.1f days", s.AvgLifetimeDays)
	pw.line("Min lifetime: %d days", s.MinLifetimeDays)
	pw.line("Max lifetime: %d days", s.MaxLifetimeDays)
	pw.line("")
	pw.line("Daily churn statistics (first snapshot excluded):")
	pw.line("  Average new nodes/day: %.1f", s.AvgNewPerDay)
	pw.line("  Average departed nodes/day: %.1f", s.AvgDepartedPerDay)
	pw.line("  Average churn rate: %.2f%%", s.AvgChurnRate)
	return pw.err
}

// PrintSaved prints the confirmation line for a written output file.
func PrintSaved(w io.Writer, what string, paths ...string) error {
	pw := printer(w)
	for _, p := range paths {
		pw.line("✓ %s saved: %s", what, p)
	}
	return pw.err
}

// WriteSummary writes s as indented JSON to path, creating parent
// directories as needed.
func WriteSummary(path string, s *types.Summary) error {
	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return fmt.Errorf("report: encode summary: %w", err)
	}
	return WriteFileAtomic(path, append(data, '\n'))
}

// ReadSummary decodes a summary previously written by WriteSummary.
func ReadSummary(path string) (*types.Summary, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("report: read summary: %w", err)
	}
	var s types.Summary
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("report: decode summary %q: %w", path, err)
	}
	return &s, nil
}

// WriteFileAtomic writes data to a temp file next to path and renames it
// into place.
func WriteFileAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("report: create %q: %w", dir, err)
	}
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*")
	if err != nil {
		return fmt.Errorf("report: create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("report: write %q: %w", tmp.Name(), err)
	}
	if err := tmp.Chmod(0o644); err != nil {
		tmp.Close()
		return fmt.Errorf("report: chmod %q: %w", tmp.Name(), err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("report: close %q: %w", tmp.Name(), err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("report: rename to %q: %w", path, err)
	}
	return nil
}
