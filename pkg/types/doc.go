// Package types defines shared Go types used by both the report generator and
// the server. Summary is the JSON contract between them: the report writes it
// to stats/summary.json and the server loads it from there.
package types
