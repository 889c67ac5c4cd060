package main

import (
	"log/slog"
	"time"

	"github.com/spf13/cobra"

	"revue/internal/slogutil"
	"revue/internal/version"
)

var (
	// dataDirFlag is the CLI --data-dir flag value
	dataDirFlag string
	verbosity   int
	quietFlag   bool
	yesFlag     bool
	formatFlag  string

	nowFunc = time.Now
)

var rootCmd = &cobra.Command{
	Use:   "revue",
	Short: "revue - guild battle record keeping",
	Long: `revue keeps the roster, boss table, attempt records and saved teams of a
guild in a single SQLite file. Records are grouped into guild-days that roll
over at the configured reset hour (04:00 by default).`,
	Version:       version.Version,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.SetVersionTemplate("revue version {{.Version}}\n")
	rootCmd.PersistentFlags().StringVar(&dataDirFlag, "data-dir", "",
		"Data directory (default: $REVUE_DATA_DIR or ~/.revue)")
	rootCmd.PersistentFlags().CountVarP(&verbosity, "verbose", "v", "Verbose output (-v info, -vv debug)")
	rootCmd.PersistentFlags().BoolVarP(&quietFlag, "quiet", "q", false, "Suppress log output")
	rootCmd.PersistentFlags().BoolVarP(&yesFlag, "yes", "y", false, "Skip confirmation prompts")
	rootCmd.PersistentFlags().StringVar(&formatFlag, "format", string(FormatHuman), "Output format (human, json)")
}

// cliLevel returns the level forced by -v/-q, or 0 when neither was given
func cliLevel() slog.Level {
	if verbosity == 0 && !quietFlag {
		return 0
	}
	return slogutil.LevelFromVerbosity(verbosity, quietFlag)
}
