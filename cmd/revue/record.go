package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"revue/internal/guildday"
	"revue/internal/storage"
)

var (
	recordTurn int
	recordDate string
	recordDay  string
)

var recordCmd = &cobra.Command{
	Use:   "record",
	Short: "Record and query boss attempts",
}

var recordAddCmd = &cobra.Command{
	Use:   "add <member> <boss> <sequence> <team> <damage>",
	Short: "Record one attempt",
	Long: `Record one attempt. Member and boss accept an id or an alias.

Examples:
  revue record add Alice R1A 1 2 1500000
  revue record add 1001 101 2 1 900000 --turn 3 --date 2024-05-01`,
	Args: cobra.ExactArgs(5),
	RunE: runRecordAdd,
}

var recordDeleteCmd = &cobra.Command{
	Use:   "delete <member> <boss> <damage>",
	Short: "Delete every record matching member, boss and damage",
	Args:  cobra.ExactArgs(3),
	RunE:  runRecordDelete,
}

var recordDeleteIDCmd = &cobra.Command{
	Use:   "delete-id <record-id>",
	Short: "Delete one record by id",
	Args:  cobra.ExactArgs(1),
	RunE:  runRecordDeleteID,
}

var recordByMemberCmd = &cobra.Command{
	Use:   "search-member <member>",
	Short: "List a member's records in a guild-day",
	Args:  cobra.ExactArgs(1),
	RunE:  runRecordByMember,
}

var recordByBossCmd = &cobra.Command{
	Use:   "search-boss <boss>",
	Short: "List a boss's records in a guild-day",
	Args:  cobra.ExactArgs(1),
	RunE:  runRecordByBoss,
}

var recordSummaryCmd = &cobra.Command{
	Use:   "summary",
	Short: "Attempts and damage per member in a guild-day",
	Args:  cobra.NoArgs,
	RunE:  runRecordSummary,
}

func init() {
	recordAddCmd.Flags().IntVar(&recordTurn, "turn", 0, "Turns used (default: revue.maxTurn)")
	recordAddCmd.Flags().StringVar(&recordDate, "date", "", "Guild-day the attempt belongs to (YYYY-MM-DD, default: now)")
	for _, c := range []*cobra.Command{recordByMemberCmd, recordByBossCmd, recordSummaryCmd} {
		c.Flags().StringVar(&recordDay, "day", "", "Guild-day (YYYY-MM-DD), -all for every day (default: current)")
	}

	recordCmd.AddCommand(recordAddCmd, recordDeleteCmd, recordDeleteIDCmd, recordByMemberCmd, recordByBossCmd, recordSummaryCmd)
	rootCmd.AddCommand(recordCmd)
}

func runRecordAdd(cmd *cobra.Command, args []string) error {
	sequence, err := strconv.Atoi(args[2])
	if err != nil {
		return fmt.Errorf("invalid sequence %q", args[2])
	}
	team, err := strconv.Atoi(args[3])
	if err != nil {
		return fmt.Errorf("invalid team %q", args[3])
	}
	damage, err := strconv.ParseInt(args[4], 10, 64)
	if err != nil {
		return fmt.Errorf("invalid damage %q", args[4])
	}

	return withApp(func(a *app) error {
		ctx := cmd.Context()
		memberID, err := resolveMember(ctx, a, args[0])
		if err != nil {
			return err
		}
		boss := a.bosses.Resolve(ctx, args[1])
		if !boss.OK() {
			return boss.Err()
		}

		rec := storage.Record{
			MemberID: memberID,
			BossID:   boss.Payload,
			Damage:   damage,
			Sequence: sequence,
			Turn:     recordTurn,
			Team:     team,
		}
		if rec.Turn == 0 {
			rec.Turn = a.cfg.Revue.MaxTurn
		}
		if recordDate != "" {
			if rec.DateTime, err = a.cal.DayStart(recordDate); err != nil {
				return err
			}
		}
		return emit(cmd.OutOrStdout(), a.records.Add(ctx, rec), a.cal)
	})
}

func runRecordDelete(cmd *cobra.Command, args []string) error {
	damage, err := strconv.ParseInt(args[2], 10, 64)
	if err != nil {
		return fmt.Errorf("invalid damage %q", args[2])
	}
	return withApp(func(a *app) error {
		prompt := fmt.Sprintf("Delete records of %s against %s with damage %d?", args[0], args[1], damage)
		if !confirmed(cmd, a, prompt) {
			return nil
		}
		return emit(cmd.OutOrStdout(), a.records.DeleteMatching(cmd.Context(), args[0], args[1], damage), a.cal)
	})
}

func runRecordDeleteID(cmd *cobra.Command, args []string) error {
	id, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil {
		return fmt.Errorf("invalid record id %q", args[0])
	}
	return withApp(func(a *app) error {
		ctx := cmd.Context()
		found := a.records.SearchOne(ctx, id)
		if !found.OK() {
			return emit(cmd.OutOrStdout(), found, a.cal)
		}
		if !confirmed(cmd, a, fmt.Sprintf("Delete record #%d?", id)) {
			return nil
		}
		return emit(cmd.OutOrStdout(), a.records.DeleteByID(ctx, id), a.cal)
	})
}

func (a *app) window() (guildday.Window, error) {
	return a.cal.Resolve(recordDay, nowFunc())
}

func runRecordByMember(cmd *cobra.Command, args []string) error {
	return withApp(func(a *app) error {
		w, err := a.window()
		if err != nil {
			return err
		}
		return emit(cmd.OutOrStdout(), a.queries.RecordsByMember(cmd.Context(), args[0], w), a.cal)
	})
}

func runRecordByBoss(cmd *cobra.Command, args []string) error {
	return withApp(func(a *app) error {
		w, err := a.window()
		if err != nil {
			return err
		}
		return emit(cmd.OutOrStdout(), a.queries.RecordsByBoss(cmd.Context(), args[0], w), a.cal)
	})
}

func runRecordSummary(cmd *cobra.Command, args []string) error {
	return withApp(func(a *app) error {
		w, err := a.window()
		if err != nil {
			return err
		}
		return emit(cmd.OutOrStdout(), a.queries.DailySummary(cmd.Context(), w), a.cal)
	})
}
