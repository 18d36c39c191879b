// Package geo reads the active geolocation file and groups its records by
// coordinate and by country.
package geo

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"sort"
)

// Record is one geolocated node.
type Record struct {
	IP        string  `json:"ip,omitempty"`
	Country   string  `json:"country,omitempty"`
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// Location is a distinct lat/lon point and the number of records at it.
type Location struct {
	Latitude  float64
	Longitude float64
	Count     int
}

// CountryCount is the number of records reporting a country.
type CountryCount struct {
	Country string
	Count   int
}

// Load decodes the JSON array at path. A missing file yields no records.
// Entries without a latitude or longitude, or with a null one, are skipped.
func Load(path string) ([]Record, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("geo: read %q: %w", path, err)
	}

	var raw []struct {
		IP        string   `json:"ip"`
		Country   string   `json:"country"`
		Latitude  *float64 `json:"latitude"`
		Longitude *float64 `json:"longitude"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("geo: decode %q: %w", path, err)
	}

	var records []Record
	for _, r := range raw {
		if r.Latitude == nil || r.Longitude == nil {
			continue
		}
		records = append(records, Record{IP: r.IP, Country: r.Country, Latitude: *r.Latitude, Longitude: *r.Longitude})
	}
	return records, nil
}

// GroupByLocation counts records per exact coordinate pair, largest first.
// Ties are ordered by latitude then longitude.
func GroupByLocation(records []Record) []Location {
	type key struct{ lat, lon float64 }
	counts := make(map[key]int, len(records))
	for _, r := range records {
		counts[key{r.Latitude, r.Longitude}]++
	}

	out := make([]Location, 0, len(counts))
	for k, n := range counts {
		out = append(out, Location{Latitude: k.lat, Longitude: k.lon, Count: n})
	}
	sort.Slice(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if a.Count != b.Count {
			return a.Count > b.Count
		}
		if a.Latitude != b.Latitude {
			return a.Latitude < b.Latitude
		}
		return a.Longitude < b.Longitude
	})
	return out
}

// CountByCountry counts records per country, largest first. Records without
// a country are grouped under "unknown".
func CountByCountry(records []Record) []CountryCount {
	counts := make(map[string]int)
	for _, r := range records {
		c := r.Country
		if c == "" {
			c = "unknown"
		}
		counts[c]++
	}

	out := make([]CountryCount, 0, len(counts))
	for c, n := range counts {
		out = append(out, CountryCount{Country: c, Count: n})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Country < out[j].Country
	})
	return out
}

// Total sums the counts of locs.
func Total(locs []Location) int {
	n := 0
	for _, l := range locs {
		n += l.Count
	}
	return n
}
