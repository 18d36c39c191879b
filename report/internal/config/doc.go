// Package config loads and watches the report configuration file.
//
// Top-level types:
//   - Config{Report}: the `report:` section of config.yaml; the `server:`
//     section of the same file is ignored here
//   - ReportConfig: root, history_dir, active_dir, stats_dir,
//     history_copies, chart, composite, log
//   - ChartConfig: width/height in pixels of the generated charts
//   - CompositeConfig: horizontal_gap / vertical_gap of the combined image
//   - LogConfig: level (debug|info|warn|error), format (console|json)
//
// Load(path) reads the YAML file, applies defaults, resolves relative
// directories against root, then validates. Default(root) returns the same
// defaults without reading a file, so the CLI works with no config at all.
//
// Watch(ctx, path, onChange) uses fsnotify to detect file changes and calls
// onChange with the newly parsed Config. It handles the rename→create pattern
// used by atomic-save editors by re-adding the watch after each event.
package config
