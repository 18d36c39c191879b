// Package report writes the human-readable progress and summary lines of each
// job to stdout, and persists the machine-readable summary consumed by the
// server.
//
// Numbers are printed with thousands separators through
// golang.org/x/text/message, so a network of 12345 relays reads "12,345".
//
// WriteSummary replaces summary.json atomically (temp file + rename) so a
// server reading the stats directory never observes a partial document.
package report
