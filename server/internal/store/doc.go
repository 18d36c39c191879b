// Package store holds the most recent report summary in memory and keeps it
// in step with summary.json on disk. Reloads are driven by fsnotify events on
// the stats directory, with a periodic poll as fallback.
package store
