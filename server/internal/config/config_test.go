package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	dir := t.TempDir()
	p := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(p, []byte(content), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return p
}

func TestLoad_Defaults(t *testing.T) {
	// Only the report section present; server section absent.
	p := writeConfig(t, `report:
  root: /srv/tor
`)
	cfg, err := Load(p)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Server.HTTPPort != DefaultHTTPPort {
		t.Errorf("http_port: got %d, want %d", cfg.Server.HTTPPort, DefaultHTTPPort)
	}
	if want := filepath.Join(filepath.Dir(p), DefaultStatsDir); cfg.Server.StatsDir != want {
		t.Errorf("stats_dir: got %q, want %q", cfg.Server.StatsDir, want)
	}
	if cfg.Server.ReloadInterval != DefaultReloadInterval {
		t.Errorf("reload_interval: got %v, want %v", cfg.Server.ReloadInterval, DefaultReloadInterval)
	}
	if cfg.Server.BroadcastInterval != DefaultBroadcastInterval {
		t.Errorf("broadcast_interval: got %v", cfg.Server.BroadcastInterval)
	}
	if cfg.Server.Auth.EffectiveHeader() != "X-API-Key" {
		t.Errorf("default header: got %q", cfg.Server.Auth.EffectiveHeader())
	}
}

func TestLoad_FullServer(t *testing.T) {
	p := writeConfig(t, `server:
  http_port: 9091
  stats_dir: /var/www/stats
  reload_interval: 10s
  broadcast_interval: 1s
  auth:
    mode: apikey
    key_env: TORSTATS_KEY
    header: x-torstats-key
  alerts:
    rules:
      - name: high-churn
        condition: "latest_churn_rate > 5"
        severity: warning
        cooldown: 1h
    webhooks:
      - type: slack
        url_env: SLACK_URL
    email:
      host: smtp.example.org
      port: 587
      username: torstats
      password_env: SMTP_PASSWORD
      from: torstats@example.org
      to: [ops@example.org]
  log:
    level: debug
    format: console
`)
	cfg, err := Load(p)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	s := cfg.Server
	if s.HTTPPort != 9091 {
		t.Errorf("http_port: got %d, want 9091", s.HTTPPort)
	}
	if s.StatsDir != "/var/www/stats" {
		t.Errorf("stats_dir: got %q", s.StatsDir)
	}
	if s.ReloadInterval != 10*time.Second || s.BroadcastInterval != time.Second {
		t.Errorf("intervals: reload=%v broadcast=%v", s.ReloadInterval, s.BroadcastInterval)
	}
	if s.Auth.Mode != "apikey" || s.Auth.EffectiveHeader() != "x-torstats-key" {
		t.Errorf("auth: got %+v", s.Auth)
	}
	if len(s.Alerts.Rules) != 1 || s.Alerts.Rules[0].Cooldown != time.Hour {
		t.Errorf("alerts.rules: got %+v", s.Alerts.Rules)
	}
	if m := s.Alerts.Email; m == nil || m.Port != 587 || len(m.To) != 1 {
		t.Errorf("alerts.email: got %+v", m)
	}
	if s.Log.Level != "debug" || s.Log.Format != "console" {
		t.Errorf("log: got %+v", s.Log)
	}
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name string
		yaml string
	}{
		{"port out of range", "server:\n  http_port: 70000\n"},
		{"unknown auth mode", "server:\n  auth:\n    mode: mtls\n"},
		{"apikey without key_env", "server:\n  auth:\n    mode: apikey\n"},
		{"zero reload", "server:\n  reload_interval: 0s\n"},
		{"rule without condition", "server:\n  alerts:\n    rules:\n      - name: x\n"},
		{"unknown webhook", "server:\n  alerts:\n    webhooks:\n      - type: pagerduty\n"},
		{"email without recipients", "server:\n  alerts:\n    email:\n      host: smtp\n      port: 25\n      from: a@b\n"},
		{"email without port", "server:\n  alerts:\n    email:\n      host: smtp\n      from: a@b\n      to: [c@d]\n"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := Load(writeConfig(t, tc.yaml)); err == nil {
				t.Error("expected error, got nil")
			}
		})
	}
}

func TestAuthConfig_Key(t *testing.T) {
	t.Setenv("TORSTATS_TEST_KEY", "s3cret")
	a := AuthConfig{KeyEnv: "TORSTATS_TEST_KEY"}
	if a.Key() != "s3cret" {
		t.Errorf("Key: got %q", a.Key())
	}
	if (AuthConfig{}).Key() != "" {
		t.Error("empty KeyEnv should yield empty key")
	}
}

func TestEmailConfig_Password(t *testing.T) {
	t.Setenv("TORSTATS_TEST_SMTP", "pw")
	if got := (EmailConfig{PasswordEnv: "TORSTATS_TEST_SMTP"}).Password(); got != "pw" {
		t.Errorf("Password: got %q", got)
	}
}

func TestWebhookConfig_URL(t *testing.T) {
	t.Setenv("TORSTATS_TEST_HOOK", "https://hooks.example/abc")
	if got := (WebhookConfig{URLEnv: "TORSTATS_TEST_HOOK"}).URL(); got != "https://hooks.example/abc" {
		t.Errorf("URL: got %q", got)
	}
}
