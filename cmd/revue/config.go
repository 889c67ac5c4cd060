package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"

	"github.com/spf13/cobra"

	"revue/internal/config"
)

var configShowDiff bool

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage revue configuration",
	Long:  "View and manage revue configuration stored in <data-dir>/config.json",
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current configuration",
	Long: `Display the effective configuration after .env and REVUE_* overrides.

Examples:
  revue config show              # Pretty-print current config
  revue config show --format json
  revue config show --diff       # Only show non-default values`,
	Args: cobra.NoArgs,
	RunE: runConfigShow,
}

var configEnvCmd = &cobra.Command{
	Use:   "env",
	Short: "List supported environment variables",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		for _, v := range GetEnvVarMappings() {
			fmt.Fprintln(cmd.OutOrStdout(), v)
		}
	},
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Write the default configuration",
	Args:  cobra.NoArgs,
	RunE:  runConfigInit,
}

func init() {
	configShowCmd.Flags().BoolVar(&configShowDiff, "diff", false, "Only show non-default values")

	configCmd.AddCommand(configShowCmd, configEnvCmd, configInitCmd)
	rootCmd.AddCommand(configCmd)
}

// redacted hides secrets before a config is printed
func redacted(cfg *config.Config) *config.Config {
	c := *cfg
	if c.Credentials.SealKey != "" {
		c.Credentials.SealKey = "********"
	}
	return &c
}

func configMap(cfg *config.Config) (map[string]interface{}, error) {
	data, err := json.Marshal(cfg)
	if err != nil {
		return nil, err
	}
	var m map[string]interface{}
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, err
	}
	return m, nil
}

func runConfigShow(cmd *cobra.Command, args []string) error {
	dataDir, cfg, err := loadSettings()
	if err != nil {
		return err
	}
	cfg = redacted(cfg)
	out := cmd.OutOrStdout()

	if OutputFormat(formatFlag) == FormatJSON {
		m, err := configMap(cfg)
		if err != nil {
			return err
		}
		if configShowDiff {
			defaults, err := configMap(config.DefaultConfig())
			if err != nil {
				return err
			}
			m = computeDiff(m, defaults)
		}
		text, err := formatJSON(m)
		if err != nil {
			return err
		}
		fmt.Fprintln(out, text)
		return nil
	}

	fmt.Fprintf(out, "revue configuration (%s)\n\n", filepath.Join(dataDir, "config.json"))
	printConfig(out, cfg, config.DefaultConfig(), configShowDiff)
	return nil
}

func printConfig(w io.Writer, cfg, defaults *config.Config, diffOnly bool) {
	entries := []struct {
		name         string
		value, deflt interface{}
	}{
		{"database.path", cfg.Database.Path, defaults.Database.Path},
		{"database.busyTimeoutMs", cfg.Database.BusyTimeoutMs, defaults.Database.BusyTimeoutMs},
		{"revue.maxTurn", cfg.Revue.MaxTurn, defaults.Revue.MaxTurn},
		{"revue.resetHour", cfg.Revue.ResetHour, defaults.Revue.ResetHour},
		{"revue.timezone", cfg.Revue.Timezone, defaults.Revue.Timezone},
		{"revue.separator", cfg.Revue.Separator, defaults.Revue.Separator},
		{"session.ttlSeconds", cfg.Session.TTLSeconds, defaults.Session.TTLSeconds},
		{"session.maxRetries", cfg.Session.MaxRetries, defaults.Session.MaxRetries},
		{"session.sweepIntervalSeconds", cfg.Session.SweepIntervalSeconds, defaults.Session.SweepIntervalSeconds},
		{"logging.level", cfg.Logging.Level, defaults.Logging.Level},
		{"logging.format", cfg.Logging.Format, defaults.Logging.Format},
		{"credentials.sealKey", valueOrDefault(cfg.Credentials.SealKey, "(none)"), "(none)"},
		{"alerts.webhookUrl", valueOrDefault(cfg.Alerts.WebhookURL, "(none)"), "(none)"},
		{"alerts.format", cfg.Alerts.Format, defaults.Alerts.Format},
	}
	for _, e := range entries {
		equal := isEqual(e.value, e.deflt)
		if diffOnly && equal {
			continue
		}
		modified := ""
		if !equal {
			modified = fmt.Sprintf(" (default: %v)", e.deflt)
		}
		fmt.Fprintf(w, "%s: %v%s\n", e.name, e.value, modified)
	}
}

func runConfigInit(cmd *cobra.Command, args []string) error {
	dataDir, _, err := loadSettings()
	if err != nil {
		return err
	}
	path := filepath.Join(dataDir, "config.json")
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("%s already exists", path)
	}
	if err := config.DefaultConfig().Save(dataDir); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "✓ Wrote %s\n", path)
	return nil
}

func valueOrDefault(value, defaultValue string) string {
	if value == "" {
		return defaultValue
	}
	return value
}

func isEqual(a, b interface{}) bool {
	return fmt.Sprintf("%v", a) == fmt.Sprintf("%v", b)
}

func computeDiff(current, defaults map[string]interface{}) map[string]interface{} {
	diff := make(map[string]interface{})
	computeDiffRecursive(current, defaults, diff)
	return diff
}

func computeDiffRecursive(current, defaults, diff map[string]interface{}) {
	for key, currentVal := range current {
		defaultVal, exists := defaults[key]
		if !exists {
			diff[key] = currentVal
			continue
		}

		currentMap, currentIsMap := currentVal.(map[string]interface{})
		defaultMap, defaultIsMap := defaultVal.(map[string]interface{})

		if currentIsMap && defaultIsMap {
			nestedDiff := make(map[string]interface{})
			computeDiffRecursive(currentMap, defaultMap, nestedDiff)
			if len(nestedDiff) > 0 {
				diff[key] = nestedDiff
			}
		} else if !isEqual(currentVal, defaultVal) {
			diff[key] = currentVal
		}
	}
}

// GetEnvVarMappings returns the supported env vars, sorted
func GetEnvVarMappings() []string {
	vars := config.GetSupportedEnvVars()
	sort.Strings(vars)
	return vars
}
