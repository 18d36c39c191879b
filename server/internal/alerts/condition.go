package alerts

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"

	"github.com/torstats/torstats/pkg/types"
)

// Fields available to rule conditions. Fields without data in the current
// summary (no series, no last date) are NaN, so every comparison on them
// except != is false.
var fieldNames = []string{
	"latest_churn_rate",
	"latest_new",
	"latest_departed",
	"unique_nodes",
	"avg_churn_rate",
	"avg_new_per_day",
	"avg_departed_per_day",
	"avg_lifetime_days",
	"snapshots",
	"snapshot_age_days",
	"active_total",
	"active_relay",
	"active_exit",
	"active_guard",
	"geo_nodes",
	"geo_locations",
}

// condition is a compiled rule condition.
//
// Conditions are expr-lang boolean expressions over the fields above:
//
//	latest_churn_rate > 5
//	unique_nodes < 1000
//	snapshot_age_days >= 2
//	latest_departed > 2 * latest_new && snapshots >= 7
type condition struct {
	src     string
	field   string // leading field whose value is reported, may be empty
	program *vm.Program
}

func compileCondition(src string) (*condition, error) {
	prog, err := expr.Compile(src, expr.Env(conditionEnv(&types.Summary{}, time.Time{})), expr.AsBool())
	if err != nil {
		return nil, fmt.Errorf("condition %q: %w", src, err)
	}
	c := &condition{src: src, program: prog}
	if parts := strings.Fields(src); len(parts) > 0 {
		for _, f := range fieldNames {
			if parts[0] == f {
				c.field = f
				break
			}
		}
	}
	return c, nil
}

// eval runs the condition against s. It returns whether the condition holds
// and the value of its leading field (0 when there is none or it is NaN).
func (c *condition) eval(s *types.Summary, now time.Time) (bool, float64, error) {
	env := conditionEnv(s, now)
	out, err := expr.Run(c.program, env)
	if err != nil {
		return false, 0, fmt.Errorf("condition %q: %w", c.src, err)
	}
	fires, _ := out.(bool)

	var v float64
	if c.field != "" {
		v = env[c.field].(float64)
		if math.IsNaN(v) {
			v = 0
		}
	}
	return fires, v, nil
}

// conditionEnv maps every field name to its value in s.
func conditionEnv(s *types.Summary, now time.Time) map[string]any {
	nan := math.NaN()
	env := map[string]any{
		"latest_churn_rate":    nan,
		"latest_new":           nan,
		"latest_departed":      nan,
		"unique_nodes":         float64(s.Churn.UniqueNodes),
		"avg_churn_rate":       s.Churn.AvgChurnRate,
		"avg_new_per_day":      s.Churn.AvgNewPerDay,
		"avg_departed_per_day": s.Churn.AvgDepartedPerDay,
		"avg_lifetime_days":    s.Churn.AvgLifetimeDays,
		"snapshots":            float64(s.Churn.Snapshots),
		"snapshot_age_days":    nan,
		"active_total":         float64(s.Active.Total()),
		"active_relay":         float64(s.Active.Relay),
		"active_exit":          float64(s.Active.Exit),
		"active_guard":         float64(s.Active.Guard),
		"geo_nodes":            float64(s.GeoNodes),
		"geo_locations":        float64(s.Locations),
	}
	if p, ok := s.Latest(); ok {
		env["latest_churn_rate"] = p.ChurnRate
		env["latest_new"] = float64(p.New)
		env["latest_departed"] = float64(p.Departed)
	}
	if s.LastDate != nil {
		env["snapshot_age_days"] = snapshotAgeDays(*s.LastDate, now)
	}
	return env
}

// snapshotAgeDays is the number of whole calendar days between the last
// snapshot date and now, never negative.
func snapshotAgeDays(last, now time.Time) float64 {
	y, m, d := now.Date()
	today := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	ly, lm, ld := last.Date()
	lastDay := time.Date(ly, lm, ld, 0, 0, 0, 0, time.UTC)
	days := math.Floor(today.Sub(lastDay).Hours() / 24)
	if days < 0 {
		return 0
	}
	return days
}
