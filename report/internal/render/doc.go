// Package render draws the torstats PNG charts.
//
// Charts are laid out with github.com/wcharczuk/go-chart/v2, rendered to
// PNG in memory, decoded, and then post-processed with golang.org/x/image:
// the "generated: YYYY-MM-DD" stamp, the pie legend and the churn
// statistics box are drawn with the basicfont 7x13 face.
//
// Every function returns an image.Image; writing files is left to the
// caller. Functions take Options so the same code serves the CLI and the
// tests, which pass a fixed clock.
package render
