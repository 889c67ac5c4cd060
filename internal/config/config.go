package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// CurrentVersion is the config schema version written by Save
const CurrentVersion = 1

// Config represents the revue configuration stored in <dataDir>/config.json
type Config struct {
	Version     int               `json:"version" mapstructure:"version"`
	Database    DatabaseConfig    `json:"database" mapstructure:"database"`
	Revue       RevueConfig       `json:"revue" mapstructure:"revue"`
	Session     SessionConfig     `json:"session" mapstructure:"session"`
	Logging     LoggingConfig     `json:"logging" mapstructure:"logging"`
	Credentials CredentialsConfig `json:"credentials" mapstructure:"credentials"`
	Alerts      AlertsConfig      `json:"alerts" mapstructure:"alerts"`
}

// DatabaseConfig locates the SQLite file
type DatabaseConfig struct {
	// Path is relative to the data directory unless absolute
	Path          string `json:"path" mapstructure:"path"`
	BusyTimeoutMs int    `json:"busyTimeoutMs" mapstructure:"busyTimeoutMs"`
}

// RevueConfig holds guild rules
type RevueConfig struct {
	MaxTurn   int    `json:"maxTurn" mapstructure:"maxTurn"`
	ResetHour int    `json:"resetHour" mapstructure:"resetHour"`
	Timezone  string `json:"timezone" mapstructure:"timezone"`
	Separator string `json:"separator" mapstructure:"separator"`
}

// SessionConfig controls confirmation sessions
type SessionConfig struct {
	TTLSeconds           int `json:"ttlSeconds" mapstructure:"ttlSeconds"`
	MaxRetries           int `json:"maxRetries" mapstructure:"maxRetries"`
	SweepIntervalSeconds int `json:"sweepIntervalSeconds" mapstructure:"sweepIntervalSeconds"`
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Format     string `json:"format" mapstructure:"format"`
	Level      string `json:"level" mapstructure:"level"`
	Store      string `json:"store,omitempty" mapstructure:"store"`
	Operator   string `json:"operator,omitempty" mapstructure:"operator"`
	MaxSize    string `json:"maxSize,omitempty" mapstructure:"maxSize"`
	MaxBackups int    `json:"maxBackups,omitempty" mapstructure:"maxBackups"`
}

// CredentialsConfig controls at-rest sealing of member passwords
type CredentialsConfig struct {
	SealKey string `json:"sealKey,omitempty" mapstructure:"sealKey"`
}

// AlertsConfig configures the operator webhook
type AlertsConfig struct {
	WebhookURL string `json:"webhookUrl,omitempty" mapstructure:"webhookUrl"`
	Format     string `json:"format" mapstructure:"format"`
}

// DefaultConfig returns the default configuration
func DefaultConfig() *Config {
	return &Config{
		Version: CurrentVersion,
		Database: DatabaseConfig{
			Path:          "revue.db",
			BusyTimeoutMs: 5000,
		},
		Revue: RevueConfig{
			MaxTurn:   6,
			ResetHour: 4,
			Timezone:  "Local",
			Separator: ",",
		},
		Session: SessionConfig{
			TTLSeconds:           300,
			MaxRetries:           3,
			SweepIntervalSeconds: 60,
		},
		Logging: LoggingConfig{
			Format: "human",
			Level:  "info",
		},
		Alerts: AlertsConfig{
			Format: "json",
		},
	}
}

// LoadConfig loads configuration from <dataDir>/config.json.
// A .env file in the data directory or the working directory is loaded first,
// then REVUE_* environment variables are applied on top.
func LoadConfig(dataDir string) (*Config, error) {
	LoadDotEnv(dataDir)

	cfg, err := loadFile(dataDir)
	if err != nil {
		return nil, err
	}

	ApplyEnvOverrides(cfg)
	return cfg, nil
}

func loadFile(dataDir string) (*Config, error) {
	v := viper.New()

	// Set defaults
	def := DefaultConfig()
	v.SetDefault("version", def.Version)
	v.SetDefault("database.path", def.Database.Path)
	v.SetDefault("database.busyTimeoutMs", def.Database.BusyTimeoutMs)
	v.SetDefault("revue.maxTurn", def.Revue.MaxTurn)
	v.SetDefault("revue.resetHour", def.Revue.ResetHour)
	v.SetDefault("revue.timezone", def.Revue.Timezone)
	v.SetDefault("revue.separator", def.Revue.Separator)
	v.SetDefault("session.ttlSeconds", def.Session.TTLSeconds)
	v.SetDefault("session.maxRetries", def.Session.MaxRetries)
	v.SetDefault("session.sweepIntervalSeconds", def.Session.SweepIntervalSeconds)
	v.SetDefault("logging.format", def.Logging.Format)
	v.SetDefault("logging.level", def.Logging.Level)
	v.SetDefault("alerts.format", def.Alerts.Format)

	// Configure viper
	v.SetConfigName("config")
	v.SetConfigType("json")
	v.AddConfigPath(dataDir)

	if err := v.ReadInConfig(); err != nil {
		// If config doesn't exist, return default config
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			return def, nil
		}
		return nil, err
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// LoadDotEnv loads .env files without overriding variables already set.
// Missing files are ignored.
func LoadDotEnv(dataDir string) {
	candidates := []string{".env"}
	if dataDir != "" {
		candidates = append([]string{filepath.Join(dataDir, ".env")}, candidates...)
	}
	for _, p := range candidates {
		if _, err := os.Stat(p); err == nil {
			_ = godotenv.Load(p)
		}
	}
}

// EnvOverride records one environment variable that changed the config
type EnvOverride struct {
	EnvVar string
	Path   string
	Value  string
}

var envVarPaths = map[string]string{
	"REVUE_DATABASE_PATH":         "database.path",
	"REVUE_DATABASE_BUSY_TIMEOUT": "database.busyTimeoutMs",
	"REVUE_MAX_TURN":              "revue.maxTurn",
	"REVUE_RESET_HOUR":            "revue.resetHour",
	"REVUE_TIMEZONE":              "revue.timezone",
	"REVUE_SESSION_TTL":           "session.ttlSeconds",
	"REVUE_SESSION_MAX_RETRIES":   "session.maxRetries",
	"REVUE_LOG_LEVEL":             "logging.level",
	"REVUE_LOG_FORMAT":            "logging.format",
	"REVUE_CREDENTIALS_SEAL_KEY":  "credentials.sealKey",
	"REVUE_ALERTS_WEBHOOK_URL":    "alerts.webhookUrl",
	"REVUE_ALERTS_WEBHOOK_FORMAT": "alerts.format",
}

// GetSupportedEnvVars returns the environment variables ApplyEnvOverrides understands
func GetSupportedEnvVars() []string {
	vars := make([]string, 0, len(envVarPaths))
	for k := range envVarPaths {
		vars = append(vars, k)
	}
	return vars
}

// ApplyEnvOverrides applies REVUE_* variables. Values that fail to parse are ignored.
func ApplyEnvOverrides(cfg *Config) []EnvOverride {
	var applied []EnvOverride
	for env, path := range envVarPaths {
		value, ok := os.LookupEnv(env)
		if !ok || value == "" {
			continue
		}
		if applyOverride(cfg, path, value) {
			applied = append(applied, EnvOverride{EnvVar: env, Path: path, Value: value})
		}
	}
	return applied
}

func applyOverride(cfg *Config, path, value string) bool {
	setInt := func(dst *int) bool {
		n, err := strconv.Atoi(strings.TrimSpace(value))
		if err != nil {
			return false
		}
		*dst = n
		return true
	}

	switch path {
	case "database.path":
		cfg.Database.Path = value
	case "database.busyTimeoutMs":
		return setInt(&cfg.Database.BusyTimeoutMs)
	case "revue.maxTurn":
		return setInt(&cfg.Revue.MaxTurn)
	case "revue.resetHour":
		return setInt(&cfg.Revue.ResetHour)
	case "revue.timezone":
		cfg.Revue.Timezone = value
	case "session.ttlSeconds":
		return setInt(&cfg.Session.TTLSeconds)
	case "session.maxRetries":
		return setInt(&cfg.Session.MaxRetries)
	case "logging.level":
		cfg.Logging.Level = value
	case "logging.format":
		cfg.Logging.Format = value
	case "credentials.sealKey":
		cfg.Credentials.SealKey = value
	case "alerts.webhookUrl":
		cfg.Alerts.WebhookURL = value
	case "alerts.format":
		cfg.Alerts.Format = value
	default:
		return false
	}
	return true
}

// Save writes the configuration to <dataDir>/config.json
func (c *Config) Save(dataDir string) error {
	if err := os.MkdirAll(dataDir, 0755); err != nil {
		return err
	}
	configPath := filepath.Join(dataDir, "config.json")

	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return err
	}

	return os.WriteFile(configPath, data, 0644)
}

// DatabasePath resolves the database file against the data directory
func (c *Config) DatabasePath(dataDir string) string {
	if filepath.IsAbs(c.Database.Path) {
		return c.Database.Path
	}
	return filepath.Join(dataDir, c.Database.Path)
}

// Location resolves the configured guild timezone
func (c *Config) Location() (*time.Location, error) {
	switch c.Revue.Timezone {
	case "", "Local":
		return time.Local, nil
	case "UTC":
		return time.UTC, nil
	}
	return time.LoadLocation(c.Revue.Timezone)
}

// SessionTTL returns the idle timeout for confirmation sessions
func (c *Config) SessionTTL() time.Duration {
	return time.Duration(c.Session.TTLSeconds) * time.Second
}

// SweepInterval returns how often expired sessions are discarded
func (c *Config) SweepInterval() time.Duration {
	return time.Duration(c.Session.SweepIntervalSeconds) * time.Second
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.Version != CurrentVersion {
		return &ConfigError{Field: "version", Message: "unsupported config version"}
	}
	if c.Database.Path == "" {
		return &ConfigError{Field: "database.path", Message: "must not be empty"}
	}
	if c.Revue.MaxTurn < 1 {
		return &ConfigError{Field: "revue.maxTurn", Message: "must be at least 1"}
	}
	if c.Revue.ResetHour < 0 || c.Revue.ResetHour > 23 {
		return &ConfigError{Field: "revue.resetHour", Message: "must be between 0 and 23"}
	}
	if _, err := c.Location(); err != nil {
		return &ConfigError{Field: "revue.timezone", Message: err.Error()}
	}
	if c.Revue.Separator == "" {
		return &ConfigError{Field: "revue.separator", Message: "must not be empty"}
	}
	if c.Session.TTLSeconds <= 0 {
		return &ConfigError{Field: "session.ttlSeconds", Message: "must be positive"}
	}
	if c.Session.MaxRetries < 1 {
		return &ConfigError{Field: "session.maxRetries", Message: "must be at least 1"}
	}
	switch c.Alerts.Format {
	case "", "json", "discord", "slack":
	default:
		return &ConfigError{Field: "alerts.format", Message: "must be json, discord or slack"}
	}
	return nil
}

// ConfigError represents a configuration error
type ConfigError struct {
	Field   string
	Message string
}

func (e *ConfigError) Error() string {
	return "config error in field '" + e.Field + "': " + e.Message
}
