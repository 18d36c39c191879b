// Package archive reads the date-partitioned node inventory.
//
// Layout:
//
//	<root>/<year>/<month>/<YYYY-MM-DD>/{relay,exit,guard}-nodes.txt
//
// Each file is a newline-delimited list of node identifiers. Blank lines are
// ignored and surrounding whitespace is trimmed. A missing role file is an
// empty list, not an error. Directories whose name is not a valid calendar
// date are skipped.
//
// Load returns one Snapshot per date in ascending order; two grouping paths
// holding the same date are merged. Watch reports changes anywhere under the
// root so long-running commands can regenerate their outputs.
package archive
