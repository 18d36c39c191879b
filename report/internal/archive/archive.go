package archive

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/torstats/torstats/pkg/types"
)

// DateLayout is the name format of a snapshot directory.
const DateLayout = "2006-01-02"

// datePattern matches candidate snapshot directories two grouping levels
// below the root. Names still have to parse as a real date.
const datePattern = "*/*/[0-9][0-9][0-9][0-9]-[0-9][0-9]-[0-9][0-9]"

// FileName returns the list file name for r, e.g. "relay-nodes.txt".
func FileName(r types.Role) string {
	return string(r) + "-nodes.txt"
}

// Set is a set of node identifiers.
type Set map[string]struct{}

// Add inserts id.
func (s Set) Add(id string) { s[id] = struct{}{} }

// Has reports whether id is in the set.
func (s Set) Has(id string) bool {
	_, ok := s[id]
	return ok
}

// Minus returns the number of members of s that are not in other.
func (s Set) Minus(other Set) int {
	n := 0
	for id := range s {
		if !other.Has(id) {
			n++
		}
	}
	return n
}

// DateDir is a discovered snapshot directory.
type DateDir struct {
	Date time.Time
	Path string
}

// Snapshot is the inventory recorded for one calendar date.
type Snapshot struct {
	Date  time.Time
	Roles map[types.Role]Set
}

// NewSnapshot returns an empty snapshot with a set allocated per role.
func NewSnapshot(date time.Time) *Snapshot {
	s := &Snapshot{Date: date, Roles: make(map[types.Role]Set, len(types.Roles))}
	for _, r := range types.Roles {
		s.Roles[r] = make(Set)
	}
	return s
}

// Union returns every identifier of the snapshot regardless of role.
func (s *Snapshot) Union() Set {
	out := make(Set)
	for _, ids := range s.Roles {
		for id := range ids {
			out.Add(id)
		}
	}
	return out
}

// Counts returns the per-role list sizes.
func (s *Snapshot) Counts() types.RoleCounts {
	var c types.RoleCounts
	for _, r := range types.Roles {
		c.Set(r, len(s.Roles[r]))
	}
	return c
}

// Discover returns the snapshot directories under root sorted by date.
// Names that do not parse as a calendar date (e.g. 2024-13-40) are skipped.
func Discover(root string) ([]DateDir, error) {
	matches, err := filepath.Glob(filepath.Join(root, datePattern))
	if err != nil {
		return nil, fmt.Errorf("archive: glob %q: %w", root, err)
	}

	dirs := make([]DateDir, 0, len(matches))
	for _, m := range matches {
		fi, err := os.Stat(m)
		if err != nil || !fi.IsDir() {
			continue
		}
		d, ok := ParseDate(filepath.Base(m))
		if !ok {
			continue
		}
		dirs = append(dirs, DateDir{Date: d, Path: m})
	}

	sort.SliceStable(dirs, func(i, j int) bool {
		if dirs[i].Date.Equal(dirs[j].Date) {
			return dirs[i].Path < dirs[j].Path
		}
		return dirs[i].Date.Before(dirs[j].Date)
	})
	return dirs, nil
}

// ParseDate parses a YYYY-MM-DD directory name as a UTC date.
func ParseDate(name string) (time.Time, bool) {
	d, err := time.Parse(DateLayout, name)
	if err != nil {
		return time.Time{}, false
	}
	return d, true
}

// Load reads every snapshot under root in ascending date order. Directories
// sharing a date are merged into one snapshot.
func Load(ctx context.Context, root string) ([]*Snapshot, error) {
	dirs, err := Discover(root)
	if err != nil {
		return nil, err
	}

	var snaps []*Snapshot
	for _, d := range dirs {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		var snap *Snapshot
		if n := len(snaps); n > 0 && snaps[n-1].Date.Equal(d.Date) {
			snap = snaps[n-1]
		} else {
			snap = NewSnapshot(d.Date)
			snaps = append(snaps, snap)
		}

		for _, r := range types.Roles {
			if err := readInto(filepath.Join(d.Path, FileName(r)), snap.Roles[r]); err != nil {
				return nil, err
			}
		}
	}
	return snaps, nil
}

// ReadIdentifiers returns the identifiers listed in path. A missing file
// yields an empty set.
func ReadIdentifiers(path string) (Set, error) {
	s := make(Set)
	if err := readInto(path, s); err != nil {
		return nil, err
	}
	return s, nil
}

// CountIdentifiers returns the number of non-blank lines in path, or 0 if the
// file does not exist. Duplicates are counted.
func CountIdentifiers(path string) (int, error) {
	n := 0
	err := scanLines(path, func(string) { n++ })
	return n, err
}

// Counts returns the per-role line counts of the list files in dir.
func Counts(dir string) (types.RoleCounts, error) {
	var c types.RoleCounts
	for _, r := range types.Roles {
		n, err := CountIdentifiers(filepath.Join(dir, FileName(r)))
		if err != nil {
			return types.RoleCounts{}, err
		}
		c.Set(r, n)
	}
	return c, nil
}

// DailyCounts returns the per-role line counts of every snapshot directory
// under root, one entry per date in ascending order. Directories sharing a
// date are merged like Load merges them: their lines are added together.
func DailyCounts(ctx context.Context, root string) ([]DatedCounts, error) {
	dirs, err := Discover(root)
	if err != nil {
		return nil, err
	}

	var out []DatedCounts
	for _, d := range dirs {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		c, err := Counts(d.Path)
		if err != nil {
			return nil, err
		}
		if n := len(out); n > 0 && out[n-1].Date.Equal(d.Date) {
			for _, r := range types.Roles {
				out[n-1].Counts.Set(r, out[n-1].Counts.Get(r)+c.Get(r))
			}
			continue
		}
		out = append(out, DatedCounts{Date: d.Date, Counts: c})
	}
	return out, nil
}

// DatedCounts pairs a snapshot date with its role counts.
type DatedCounts struct {
	Date   time.Time
	Counts types.RoleCounts
}

func readInto(path string, s Set) error {
	return scanLines(path, s.Add)
}

// scanLines calls fn for every trimmed, non-blank line of path.
func scanLines(path string, fn func(string)) error {
	f, err := os.Open(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("archive: open %q: %w", path, err)
	}
	defer f.Close()

	sc := bufio.NewScanner(f)
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for sc.Scan() {
		if line := strings.TrimSpace(sc.Text()); line != "" {
			fn(line)
		}
	}
	if err := sc.Err(); err != nil {
		return fmt.Errorf("archive: read %q: %w", path, err)
	}
	return nil
}
