package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/spf13/cobra"

	"revue/internal/backup"
	"revue/internal/paths"
)

var (
	backupOut    string
	rosterFormat string
)

var backupCmd = &cobra.Command{
	Use:   "backup",
	Short: "Export and import compressed snapshots",
}

var backupExportCmd = &cobra.Command{
	Use:   "export",
	Short: "Write every table to a zstd-compressed snapshot",
	Long: `Write every table to a zstd-compressed snapshot. Without --out the file goes
to <data-dir>/backups/revue-<timestamp>.json.zst.`,
	Args: cobra.NoArgs,
	RunE: runBackupExport,
}

var backupImportCmd = &cobra.Command{
	Use:   "import <file>",
	Short: "Restore a snapshot into an empty database",
	Args:  cobra.ExactArgs(1),
	RunE:  runBackupImport,
}

var rosterCmd = &cobra.Command{
	Use:   "roster",
	Short: "Print members, bosses and teams without passwords",
	Long: `Print members, bosses and teams without passwords.

Examples:
  revue roster --roster-format yaml
  revue roster --roster-format toml --out roster.toml`,
	Args: cobra.NoArgs,
	RunE: runRoster,
}

func init() {
	backupExportCmd.Flags().StringVarP(&backupOut, "out", "o", "", "Output file")
	rosterCmd.Flags().StringVar(&rosterFormat, "roster-format", backup.FormatYAML, "Roster format (json, yaml, toml)")
	rosterCmd.Flags().StringVarP(&backupOut, "out", "o", "", "Output file (default: stdout)")

	backupCmd.AddCommand(backupExportCmd, backupImportCmd)
	rootCmd.AddCommand(backupCmd, rosterCmd)
}

func runBackupExport(cmd *cobra.Command, args []string) error {
	return withApp(func(a *app) error {
		path := backupOut
		if path == "" {
			dir := paths.GetBackupsDir(a.dataDir)
			if err := os.MkdirAll(dir, 0755); err != nil {
				return fmt.Errorf("failed to create backups directory: %w", err)
			}
			path = filepath.Join(dir, "revue-"+nowFunc().UTC().Format("20060102-150405")+".json.zst")
		}

		f, err := os.Create(path)
		if err != nil {
			return err
		}
		snap, err := backup.Export(cmd.Context(), a.db, f)
		if cerr := f.Close(); err == nil {
			err = cerr
		}
		if err != nil {
			_ = os.Remove(path)
			return err
		}

		fmt.Fprintf(cmd.OutOrStdout(), "✓ Snapshot %s written to %s\n", snap.ID, path)
		writeCounts(cmd.OutOrStdout(), snap.Counts())
		return nil
	})
}

func runBackupImport(cmd *cobra.Command, args []string) error {
	f, err := os.Open(args[0])
	if err != nil {
		return err
	}
	defer f.Close()

	return withApp(func(a *app) error {
		snap, err := backup.Import(cmd.Context(), a.db, f)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "✓ Snapshot %s from %s restored\n", snap.ID, snap.CreatedAt.Format(time.RFC3339))
		writeCounts(cmd.OutOrStdout(), snap.Counts())
		return nil
	})
}

func runRoster(cmd *cobra.Command, args []string) error {
	return withApp(func(a *app) error {
		snap, err := backup.Take(cmd.Context(), a.db)
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		if backupOut != "" {
			f, err := os.Create(backupOut)
			if err != nil {
				return err
			}
			defer f.Close()
			out = f
		}
		return backup.RenderRoster(out, snap, rosterFormat)
	})
}

func writeCounts(w io.Writer, counts map[string]int) {
	names := make([]string, 0, len(counts))
	for name := range counts {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		fmt.Fprintf(w, "  %-8s %d\n", name, counts[name])
	}
}
