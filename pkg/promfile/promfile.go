// Package promfile renders a churn summary in the Prometheus text exposition
// format, for the node_exporter textfile collector and the server's /metrics
// endpoint, and parses such files back into metric families.
package promfile

import (
	"fmt"
	"io"

	dto "github.com/prometheus/client_model/go"
	"github.com/prometheus/common/expfmt"
	"google.golang.org/protobuf/proto"

	"github.com/torstats/torstats/pkg/types"
)

// ContentType is the media type of the text exposition format written by Encode.
const ContentType = "text/plain; version=0.0.4; charset=utf-8"

// Metric names written by Encode.
const (
	Snapshots          = "torstats_snapshots"
	UniqueNodes        = "torstats_unique_nodes"
	LifetimeDays       = "torstats_node_lifetime_days"
	AvgNewPerDay       = "torstats_avg_new_nodes_per_day"
	AvgDepartedPerDay  = "torstats_avg_departed_nodes_per_day"
	AvgChurnRate       = "torstats_avg_churn_rate_percent"
	LatestNew          = "torstats_latest_new_nodes"
	LatestDeparted     = "torstats_latest_departed_nodes"
	LatestChurnRate    = "torstats_latest_churn_rate_percent"
	ActiveNodes        = "torstats_active_nodes"
	GeoLocations       = "torstats_geo_locations"
	GeoNodes           = "torstats_geo_nodes"
	GeneratedTimestamp = "torstats_generated_timestamp_seconds"
)

// Families converts s into gauge metric families in a fixed order.
func Families(s *types.Summary) []*dto.MetricFamily {
	c := s.Churn
	fams := []*dto.MetricFamily{
		gauge(Snapshots, "Number of dated snapshots in the archive.", float64(c.Snapshots)),
		gauge(UniqueNodes, "Distinct node identifiers ever seen.", float64(c.UniqueNodes)),
		gaugeVec(LifetimeDays, "Node lifetime in days, last seen minus first seen.", "stat",
			[]string{"avg", "min", "max"},
			[]float64{c.AvgLifetimeDays, float64(c.MinLifetimeDays), float64(c.MaxLifetimeDays)}),
		gauge(AvgNewPerDay, "Mean new nodes per day, first snapshot excluded.", c.AvgNewPerDay),
		gauge(AvgDepartedPerDay, "Mean departed nodes per day, first snapshot excluded.", c.AvgDepartedPerDay),
		gauge(AvgChurnRate, "Mean daily churn rate, first snapshot excluded.", c.AvgChurnRate),
	}

	if p, ok := s.Latest(); ok {
		fams = append(fams,
			gauge(LatestNew, "New nodes in the most recent snapshot.", float64(p.New)),
			gauge(LatestDeparted, "Departed nodes in the most recent snapshot.", float64(p.Departed)),
			gauge(LatestChurnRate, "Churn rate of the most recent snapshot.", p.ChurnRate),
		)
	}

	roles := make([]string, len(types.Roles))
	counts := make([]float64, len(types.Roles))
	for i, r := range types.Roles {
		roles[i] = string(r)
		counts[i] = float64(s.Active.Get(r))
	}
	fams = append(fams,
		gaugeVec(ActiveNodes, "Identifiers listed in the active inventory.", "role", roles, counts),
		gauge(GeoLocations, "Distinct coordinates in the geolocation file.", float64(s.Locations)),
		gauge(GeoNodes, "Records in the geolocation file.", float64(s.GeoNodes)),
	)
	if !s.GeneratedAt.IsZero() {
		fams = append(fams, gauge(GeneratedTimestamp, "Unix time the summary was generated.",
			float64(s.GeneratedAt.Unix())))
	}
	return fams
}

// Encode writes s to w in the text exposition format.
func Encode(w io.Writer, s *types.Summary) error {
	for _, mf := range Families(s) {
		if _, err := expfmt.MetricFamilyToText(w, mf); err != nil {
			return fmt.Errorf("promfile: write %s: %w", mf.GetName(), err)
		}
	}
	return nil
}

// Parse decodes a text exposition from r into metric families.
// A partial result with a non-fatal parse warning is still returned.
func Parse(r io.Reader) (map[string]*dto.MetricFamily, error) {
	var parser expfmt.TextParser
	mfs, err := parser.TextToMetricFamilies(r)
	if err != nil && len(mfs) == 0 {
		return nil, fmt.Errorf("promfile: parse: %w", err)
	}
	return mfs, nil
}

// Value returns the first sample of name whose labels include every
// name/value pair in labels. It reports false if no sample matches.
func Value(mfs map[string]*dto.MetricFamily, name string, labels ...string) (float64, bool) {
	mf := mfs[name]
	if mf == nil {
		return 0, false
	}
	for _, m := range mf.GetMetric() {
		if !hasLabels(m, labels) {
			continue
		}
		switch {
		case m.Gauge != nil:
			return m.Gauge.GetValue(), true
		case m.Counter != nil:
			return m.Counter.GetValue(), true
		case m.Untyped != nil:
			return m.Untyped.GetValue(), true
		}
	}
	return 0, false
}

func hasLabels(m *dto.Metric, labels []string) bool {
	for i := 0; i+1 < len(labels); i += 2 {
		found := false
		for _, lp := range m.GetLabel() {
			if lp.GetName() == labels[i] && lp.GetValue() == labels[i+1] {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}

func gauge(name, help string, v float64) *dto.MetricFamily {
	return &dto.MetricFamily{
		Name:   proto.String(name),
		Help:   proto.String(help),
		Type:   dto.MetricType_GAUGE.Enum(),
		Metric: []*dto.Metric{{Gauge: &dto.Gauge{Value: proto.Float64(v)}}},
	}
}

func gaugeVec(name, help, label string, values []string, vs []float64) *dto.MetricFamily {
	mf := &dto.MetricFamily{
		Name: proto.String(name),
		Help: proto.String(help),
		Type: dto.MetricType_GAUGE.Enum(),
	}
	for i, lv := range values {
		mf.Metric = append(mf.Metric, &dto.Metric{
			Label: []*dto.LabelPair{{Name: proto.String(label), Value: proto.String(lv)}},
			Gauge: &dto.Gauge{Value: proto.Float64(vs[i])},
		})
	}
	return mf
}
