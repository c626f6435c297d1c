package config

import "time"

type AppConfig struct {
	ListenAddr string        `yaml:"listen_addr" env:"SAFEFLOW_LISTEN_ADDR" env-default:"0.0.0.0:8080"`
	SessionTTL time.Duration `yaml:"session_ttl" env:"SAFEFLOW_SESSION_TTL" env-default:"3h"`
	AppEnv     string        `yaml:"app_env" env:"SAFEFLOW_APP_ENV"`
	DemoSeed   bool          `yaml:"demo_seed" env:"SAFEFLOW_DEMO_SEED" env-default:"false"`
	Audit      AuditConfig   `yaml:"audit"`
	Assist     AssistConfig  `yaml:"assist"`
	Janitor    JanitorConfig `yaml:"janitor"`
}

// AuditConfig configures the activity-trail database. Incident and action
// state is session-scoped and never persisted; only the audit trail is.
type AuditConfig struct {
	Driver string `yaml:"driver" env:"SAFEFLOW_AUDIT_DRIVER" env-default:"sqlite"`
	URL    string `yaml:"url" env:"SAFEFLOW_AUDIT_URL" env-default:"data/safeflow-audit.db"`
}

type AssistConfig struct {
	BaseURL    string `yaml:"base_url" env:"SAFEFLOW_ASSIST_BASE_URL" env-default:"https://generativelanguage.googleapis.com"`
	APIKey     string `yaml:"api_key" env:"SAFEFLOW_ASSIST_API_KEY"`
	Model      string `yaml:"model" env:"SAFEFLOW_ASSIST_MODEL" env-default:"gemini-3-flash-preview"`
	TimeoutSec int    `yaml:"timeout_sec" env:"SAFEFLOW_ASSIST_TIMEOUT" env-default:"30"`
}

type JanitorConfig struct {
	Enabled  bool   `yaml:"enabled" env:"SAFEFLOW_JANITOR_ENABLED" env-default:"true"`
	Schedule string `yaml:"schedule" env:"SAFEFLOW_JANITOR_SCHEDULE" env-default:"@every 5m"`
}

const maxSessionTTL = 12 * time.Hour

func (c *AppConfig) EffectiveSessionTTL() time.Duration {
	ttl := 3 * time.Hour
	if c != nil && c.SessionTTL > 0 {
		ttl = c.SessionTTL
	}
	if ttl > maxSessionTTL {
		return maxSessionTTL
	}
	return ttl
}

func (c *AssistConfig) EffectiveTimeout() time.Duration {
	if c == nil || c.TimeoutSec <= 0 {
		return 30 * time.Second
	}
	return time.Duration(c.TimeoutSec) * time.Second
}
