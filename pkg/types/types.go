package types

import "time"

// Role is one of the three categories a node identifier may be listed under.
type Role string

const (
	RoleRelay Role = "relay"
	RoleExit  Role = "exit"
	RoleGuard Role = "guard"
)

// Roles is the fixed processing order of the node roles.
var Roles = []Role{RoleRelay, RoleExit, RoleGuard}

// RoleCounts holds the number of identifiers listed per role.
type RoleCounts struct {
	Relay int `json:"relay"`
	Exit  int `json:"exit"`
	Guard int `json:"guard"`
}

// Total is the sum over all roles. An identifier listed under two roles is
// counted twice, matching how the lists are published.
func (c RoleCounts) Total() int {
	return c.Relay + c.Exit + c.Guard
}

// Get returns the count for r, or 0 for an unknown role.
func (c RoleCounts) Get(r Role) int {
	switch r {
	case RoleRelay:
		return c.Relay
	case RoleExit:
		return c.Exit
	case RoleGuard:
		return c.Guard
	default:
		return 0
	}
}

// Set stores n under r. Unknown roles are ignored.
func (c *RoleCounts) Set(r Role, n int) {
	switch r {
	case RoleRelay:
		c.Relay = n
	case RoleExit:
		c.Exit = n
	case RoleGuard:
		c.Guard = n
	}
}

// DailyPoint is one entry of the churn series.
type DailyPoint struct {
	Date      time.Time `json:"date"`
	New       int       `json:"new"`
	Departed  int       `json:"departed"`
	ChurnRate float64   `json:"churn_rate"` // percent of the previous snapshot
}

// ChurnSummary holds the aggregate statistics of one churn analysis.
type ChurnSummary struct {
	Snapshots         int     `json:"snapshots"`
	UniqueNodes       int     `json:"unique_nodes"`
	AvgLifetimeDays   float64 `json:"avg_lifetime_days"`
	MinLifetimeDays   int     `json:"min_lifetime_days"`
	MaxLifetimeDays   int     `json:"max_lifetime_days"`
	AvgNewPerDay      float64 `json:"avg_new_per_day"`
	AvgDepartedPerDay float64 `json:"avg_departed_per_day"`
	AvgChurnRate      float64 `json:"avg_churn_rate"`

	// AveragesExcludeFirstDay records that the per-day averages skip the first
	// snapshot, whose "new" count is the whole population.
	AveragesExcludeFirstDay bool `json:"averages_exclude_first_day"`
}

// Summary is the report written after a full run.
type Summary struct {
	GeneratedAt time.Time    `json:"generated_at"`
	FirstDate   *time.Time   `json:"first_date,omitempty"`
	LastDate    *time.Time   `json:"last_date,omitempty"`
	Churn       ChurnSummary `json:"churn"`
	Series      []DailyPoint `json:"series"`

	// Active is the role split of the current inventory.
	Active RoleCounts `json:"active"`

	// Locations is the number of distinct lat/lon points in the current
	// geolocation file; GeoNodes the number of records.
	Locations int `json:"locations"`
	GeoNodes  int `json:"geo_nodes"`
}

// Latest returns the most recent series entry and true. The first entry has
// no previous snapshot to compare against, so a series shorter than two
// entries yields a zero point and false.
func (s *Summary) Latest() (DailyPoint, bool) {
	if len(s.Series) < 2 {
		return DailyPoint{}, false
	}
	return s.Series[len(s.Series)-1], true
}
