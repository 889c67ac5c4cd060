package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.Version != CurrentVersion {
		t.Errorf("Version = %d, want %d", cfg.Version, CurrentVersion)
	}
	if cfg.Revue.MaxTurn != 6 {
		t.Errorf("Revue.MaxTurn = %d, want 6", cfg.Revue.MaxTurn)
	}
	if cfg.Revue.ResetHour != 4 {
		t.Errorf("Revue.ResetHour = %d, want 4", cfg.Revue.ResetHour)
	}
	if cfg.Revue.Separator != "," {
		t.Errorf("Revue.Separator = %q, want %q", cfg.Revue.Separator, ",")
	}
	if cfg.Session.MaxRetries != 3 {
		t.Errorf("Session.MaxRetries = %d, want 3", cfg.Session.MaxRetries)
	}
	if cfg.Credentials.SealKey != "" {
		t.Error("passwords should be stored clear by default")
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("DefaultConfig().Validate() = %v", err)
	}
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(c *Config)
		field   string
		wantErr bool
	}{
		{"valid", func(c *Config) {}, "", false},
		{"bad version", func(c *Config) { c.Version = 99 }, "version", true},
		{"empty db path", func(c *Config) { c.Database.Path = "" }, "database.path", true},
		{"zero max turn", func(c *Config) { c.Revue.MaxTurn = 0 }, "revue.maxTurn", true},
		{"reset hour too large", func(c *Config) { c.Revue.ResetHour = 24 }, "revue.resetHour", true},
		{"unknown timezone", func(c *Config) { c.Revue.Timezone = "Mars/Olympus" }, "revue.timezone", true},
		{"utc timezone", func(c *Config) { c.Revue.Timezone = "UTC" }, "", false},
		{"zero ttl", func(c *Config) { c.Session.TTLSeconds = 0 }, "session.ttlSeconds", true},
		{"bad alert format", func(c *Config) { c.Alerts.Format = "xml" }, "alerts.format", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Fatalf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err == nil {
				return
			}
			ce, ok := err.(*ConfigError)
			if !ok {
				t.Fatalf("error type = %T, want *ConfigError", err)
			}
			if ce.Field != tt.field {
				t.Errorf("Field = %q, want %q", ce.Field, tt.field)
			}
		})
	}
}

func TestConfigError_Error(t *testing.T) {
	err := &ConfigError{Field: "revue.maxTurn", Message: "must be at least 1"}
	want := "config error in field 'revue.maxTurn': must be at least 1"
	if err.Error() != want {
		t.Errorf("Error() = %q, want %q", err.Error(), want)
	}
}

func TestLoadConfig_Default(t *testing.T) {
	tmpDir := t.TempDir()

	cfg, err := LoadConfig(tmpDir)
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}
	if cfg.Database.Path != "revue.db" {
		t.Errorf("Database.Path = %q, want %q", cfg.Database.Path, "revue.db")
	}
}

func TestLoadConfig_FromFile(t *testing.T) {
	tmpDir := t.TempDir()

	content := `{
  "version": 1,
  "database": {"path": "guild.db"},
  "revue": {"maxTurn": 3, "resetHour": 5, "timezone": "UTC"}
}`
	if err := os.WriteFile(filepath.Join(tmpDir, "config.json"), []byte(content), 0644); err != nil {
		t.Fatalf("Failed to write config: %v", err)
	}

	cfg, err := LoadConfig(tmpDir)
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}
	if cfg.Database.Path != "guild.db" {
		t.Errorf("Database.Path = %q, want %q", cfg.Database.Path, "guild.db")
	}
	if cfg.Revue.MaxTurn != 3 {
		t.Errorf("Revue.MaxTurn = %d, want 3", cfg.Revue.MaxTurn)
	}
	if cfg.Revue.ResetHour != 5 {
		t.Errorf("Revue.ResetHour = %d, want 5", cfg.Revue.ResetHour)
	}
	// Keys missing from the file fall back to defaults
	if cfg.Session.TTLSeconds != 300 {
		t.Errorf("Session.TTLSeconds = %d, want 300", cfg.Session.TTLSeconds)
	}
	if cfg.Database.BusyTimeoutMs != 5000 {
		t.Errorf("Database.BusyTimeoutMs = %d, want 5000", cfg.Database.BusyTimeoutMs)
	}
}

func TestLoadConfig_InvalidJSON(t *testing.T) {
	tmpDir := t.TempDir()
	if err := os.WriteFile(filepath.Join(tmpDir, "config.json"), []byte("{not json"), 0644); err != nil {
		t.Fatalf("Failed to write config: %v", err)
	}
	if _, err := LoadConfig(tmpDir); err == nil {
		t.Error("LoadConfig() should fail on invalid JSON")
	}
}

func TestConfig_Save(t *testing.T) {
	tmpDir := filepath.Join(t.TempDir(), "data")

	cfg := DefaultConfig()
	cfg.Revue.MaxTurn = 4
	if err := cfg.Save(tmpDir); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	loaded, err := LoadConfig(tmpDir)
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}
	if loaded.Revue.MaxTurn != 4 {
		t.Errorf("Revue.MaxTurn = %d, want 4", loaded.Revue.MaxTurn)
	}
}

func TestApplyEnvOverrides(t *testing.T) {
	tests := []struct {
		name     string
		envVars  map[string]string
		validate func(t *testing.T, cfg *Config, overrides []EnvOverride)
	}{
		{
			name:    "log level",
			envVars: map[string]string{"REVUE_LOG_LEVEL": "debug"},
			validate: func(t *testing.T, cfg *Config, overrides []EnvOverride) {
				if cfg.Logging.Level != "debug" {
					t.Errorf("Logging.Level = %q, want %q", cfg.Logging.Level, "debug")
				}
				if len(overrides) != 1 {
					t.Errorf("len(overrides) = %d, want 1", len(overrides))
				}
			},
		},
		{
			name:    "int override",
			envVars: map[string]string{"REVUE_MAX_TURN": "8"},
			validate: func(t *testing.T, cfg *Config, overrides []EnvOverride) {
				if cfg.Revue.MaxTurn != 8 {
					t.Errorf("Revue.MaxTurn = %d, want 8", cfg.Revue.MaxTurn)
				}
			},
		},
		{
			name:    "invalid int ignored",
			envVars: map[string]string{"REVUE_MAX_TURN": "six"},
			validate: func(t *testing.T, cfg *Config, overrides []EnvOverride) {
				if cfg.Revue.MaxTurn != 6 {
					t.Errorf("Revue.MaxTurn = %d, want 6 (default)", cfg.Revue.MaxTurn)
				}
				if len(overrides) != 0 {
					t.Errorf("len(overrides) = %d, want 0", len(overrides))
				}
			},
		},
		{
			name: "multiple overrides",
			envVars: map[string]string{
				"REVUE_TIMEZONE":           "UTC",
				"REVUE_ALERTS_WEBHOOK_URL": "http://localhost:9000/hook",
			},
			validate: func(t *testing.T, cfg *Config, overrides []EnvOverride) {
				if cfg.Revue.Timezone != "UTC" {
					t.Errorf("Revue.Timezone = %q, want UTC", cfg.Revue.Timezone)
				}
				if cfg.Alerts.WebhookURL != "http://localhost:9000/hook" {
					t.Errorf("Alerts.WebhookURL = %q", cfg.Alerts.WebhookURL)
				}
				if len(overrides) != 2 {
					t.Errorf("len(overrides) = %d, want 2", len(overrides))
				}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.envVars {
				t.Setenv(k, v)
			}
			cfg := DefaultConfig()
			overrides := ApplyEnvOverrides(cfg)
			tt.validate(t, cfg, overrides)
		})
	}
}

func TestGetSupportedEnvVars(t *testing.T) {
	vars := GetSupportedEnvVars()
	found := false
	for _, v := range vars {
		if v == "REVUE_LOG_LEVEL" {
			found = true
		}
	}
	if !found {
		t.Error("GetSupportedEnvVars() should include REVUE_LOG_LEVEL")
	}
}

func TestLoadDotEnv(t *testing.T) {
	tmpDir := t.TempDir()
	if err := os.WriteFile(filepath.Join(tmpDir, ".env"), []byte("REVUE_RESET_HOUR=6\n"), 0644); err != nil {
		t.Fatalf("Failed to write .env: %v", err)
	}
	// t.Setenv restores the variable on cleanup; unset it so .env can supply it
	t.Setenv("REVUE_RESET_HOUR", "")
	os.Unsetenv("REVUE_RESET_HOUR")

	cfg, err := LoadConfig(tmpDir)
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}
	if cfg.Revue.ResetHour != 6 {
		t.Errorf("Revue.ResetHour = %d, want 6 from .env", cfg.Revue.ResetHour)
	}
}

func TestDatabasePath(t *testing.T) {
	cfg := DefaultConfig()
	if got := cfg.DatabasePath("/data"); got != filepath.Join("/data", "revue.db") {
		t.Errorf("DatabasePath() = %q", got)
	}
	cfg.Database.Path = "/abs/guild.db"
	if got := cfg.DatabasePath("/data"); got != "/abs/guild.db" {
		t.Errorf("DatabasePath() = %q, want absolute path unchanged", got)
	}
}
