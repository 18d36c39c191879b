// Package config loads the server-side configuration from the `server:` section
// of config.yaml (the `report:` key is ignored by the server binary).
//
// Config fields:
//   - HTTPPort         : port for the REST API and WebSocket hub (default 8080)
//   - StatsDir         : directory holding summary.json and the charts (default stats)
//   - ReloadInterval   : summary poll period when fsnotify is unavailable (default 30s)
//   - BroadcastInterval: WebSocket push period (default 5s)
//   - Auth.Mode        : "apikey" or "none"
//   - Auth.KeyEnv      : environment variable holding the expected API key
//   - Auth.Header      : HTTP header name (default "X-API-Key")
//   - Alerts           : rules, webhook targets and optional SMTP email
//   - Log              : level and format of the slog handler
//
// Load(path) applies defaults before unmarshalling, then validates.
package config
