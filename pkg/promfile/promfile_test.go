package promfile

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/torstats/torstats/pkg/types"
)

func sampleSummary() *types.Summary {
	day := func(d int) time.Time { return time.Date(2024, 1, d, 0, 0, 0, 0, time.UTC) }
	return &types.Summary{
		GeneratedAt: time.Unix(1700000000, 0).UTC(),
		Churn: types.ChurnSummary{
			Snapshots:       3,
			UniqueNodes:     7,
			AvgLifetimeDays: 0.75,
			MaxLifetimeDays: 2,
			AvgNewPerDay:    1.5,
			AvgChurnRate:    37.5,
		},
		Series: []types.DailyPoint{
			{Date: day(1), New: 4},
			{Date: day(2), New: 1, Departed: 1, ChurnRate: 25},
			{Date: day(3), New: 2, Departed: 2, ChurnRate: 50},
		},
		Active:    types.RoleCounts{Relay: 100, Exit: 20, Guard: 30},
		Locations: 12,
		GeoNodes:  40,
	}
}

func TestEncodeParse(t *testing.T) {
	var buf bytes.Buffer
	if err := Encode(&buf, sampleSummary()); err != nil {
		t.Fatalf("Encode: %v", err)
	}
	if !strings.Contains(buf.String(), "# TYPE torstats_unique_nodes gauge") {
		t.Errorf("missing TYPE line:\n%s", buf.String())
	}

	mfs, err := Parse(&buf)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}

	checks := []struct {
		name   string
		labels []string
		want   float64
	}{
		{Snapshots, nil, 3},
		{UniqueNodes, nil, 7},
		{LifetimeDays, []string{"stat", "avg"}, 0.75},
		{LifetimeDays, []string{"stat", "max"}, 2},
		{AvgChurnRate, nil, 37.5},
		{LatestNew, nil, 2},
		{LatestChurnRate, nil, 50},
		{ActiveNodes, []string{"role", "exit"}, 20},
		{ActiveNodes, []string{"role", "guard"}, 30},
		{GeoLocations, nil, 12},
		{GeneratedTimestamp, nil, 1700000000},
	}
	for _, c := range checks {
		got, ok := Value(mfs, c.name, c.labels...)
		if !ok {
			t.Errorf("%s%v: not found", c.name, c.labels)
			continue
		}
		if got != c.want {
			t.Errorf("%s%v: got %v, want %v", c.name, c.labels, got, c.want)
		}
	}
}

func TestFamilies_EmptySeriesOmitsLatest(t *testing.T) {
	s := &types.Summary{}
	for _, mf := range Families(s) {
		switch mf.GetName() {
		case LatestNew, LatestDeparted, LatestChurnRate, GeneratedTimestamp:
			t.Errorf("unexpected family %s for empty summary", mf.GetName())
		}
	}
}

func TestFamilies_SingleSnapshotOmitsLatest(t *testing.T) {
	s := &types.Summary{
		GeneratedAt: time.Unix(1700000000, 0).UTC(),
		Churn:       types.ChurnSummary{Snapshots: 1, UniqueNodes: 7000},
		Series:      []types.DailyPoint{{Date: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), New: 7000}},
	}
	var buf bytes.Buffer
	if err := Encode(&buf, s); err != nil {
		t.Fatalf("Encode: %v", err)
	}
	mfs, err := Parse(&buf)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	for _, name := range []string{LatestNew, LatestDeparted, LatestChurnRate} {
		if v, ok := Value(mfs, name); ok {
			t.Errorf("%s = %v for a single snapshot, want absent", name, v)
		}
	}
	if v, ok := Value(mfs, Snapshots); !ok || v != 1 {
		t.Errorf("%s: got %v, %v", Snapshots, v, ok)
	}
}

func TestParse_Invalid(t *testing.T) {
	if _, err := Parse(strings.NewReader("# TYPE torstats_snapshots gauge\n# TYPE torstats_snapshots counter\n")); err == nil {
		t.Error("expected parse error")
	}
}

func TestValue_Missing(t *testing.T) {
	mfs, err := Parse(strings.NewReader("torstats_snapshots 3\n"))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if _, ok := Value(mfs, UniqueNodes); ok {
		t.Error("missing family reported as found")
	}
	if _, ok := Value(mfs, Snapshots, "role", "relay"); ok {
		t.Error("label mismatch reported as found")
	}
	if v, ok := Value(mfs, Snapshots); !ok || v != 3 {
		t.Errorf("untyped sample: got %v, %v", v, ok)
	}
}
