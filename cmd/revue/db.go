package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"revue/internal/backup"
)

var dbCmd = &cobra.Command{
	Use:   "db",
	Short: "Database maintenance",
}

var dbStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the database path, schema version and row counts",
	Args:  cobra.NoArgs,
	RunE:  runDBStatus,
}

var dbResetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Delete every row of every table",
	Args:  cobra.NoArgs,
	RunE:  runDBReset,
}

func init() {
	dbCmd.AddCommand(dbStatusCmd, dbResetCmd)
	rootCmd.AddCommand(dbCmd)
}

// DBStatusResponse is the response format for db status
type DBStatusResponse struct {
	Path          string         `json:"path"`
	SchemaVersion int            `json:"schemaVersion"`
	Counts        map[string]int `json:"counts"`
}

func runDBStatus(cmd *cobra.Command, args []string) error {
	return withApp(func(a *app) error {
		if err := a.db.Ping(cmd.Context()); err != nil {
			return err
		}
		snap, err := backup.Take(cmd.Context(), a.db)
		if err != nil {
			return err
		}
		resp := DBStatusResponse{Path: a.db.Path(), SchemaVersion: snap.SchemaVersion, Counts: snap.Counts()}

		if OutputFormat(formatFlag) == FormatJSON {
			text, err := formatJSON(resp)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), text)
			return nil
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Database: %s\nSchema:   v%d\n", resp.Path, resp.SchemaVersion)
		writeCounts(cmd.OutOrStdout(), resp.Counts)
		return nil
	})
}

func runDBReset(cmd *cobra.Command, args []string) error {
	return withApp(func(a *app) error {
		prompt := fmt.Sprintf("Delete every row in %s?", a.db.Path())
		if !confirmed(cmd, a, prompt) {
			return nil
		}
		return emit(cmd.OutOrStdout(), a.db.Reset(cmd.Context()), a.cal)
	})
}
