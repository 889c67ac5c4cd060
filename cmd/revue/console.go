package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"revue/internal/confirm"
	"revue/internal/console"
)

var (
	consoleMember string
	consoleAdmin  bool
	consoleKey    string
)

var consoleCmd = &cobra.Command{
	Use:   "console",
	Short: "Read chat-style commands from stdin",
	Long: `Read chat-style commands from stdin and print the replies. Lines start with
"/" and take comma-separated arguments; any other line answers the pending
confirmation.

Examples:
  revue console --member 1001
  echo "/成员列表" | revue console --member 1001 --admin`,
	Args: cobra.NoArgs,
	RunE: runConsole,
}

func init() {
	consoleCmd.Flags().StringVar(&consoleMember, "member", "", "Member id commands default to")
	consoleCmd.Flags().BoolVar(&consoleAdmin, "admin", false, "Allow admin commands")
	consoleCmd.Flags().StringVar(&consoleKey, "key", "console", "Conversation key for confirmations")
	rootCmd.AddCommand(consoleCmd)
}

func runConsole(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return withApp(func(a *app) error {
		sessions := confirm.NewManager(a.sessionOptions(), a.logger)
		sweepCtx, cancel := context.WithCancel(ctx)
		defer cancel()
		sessions.StartSweeper(sweepCtx)

		c := console.New(a.db, a.members, sessions, a.cal, console.Options{
			Separator: a.cfg.Revue.Separator,
			MaxTurn:   a.cfg.Revue.MaxTurn,
			Logger:    a.logger,
		})
		caller := console.Caller{Key: consoleKey, MemberID: consoleMember, Admin: consoleAdmin}
		return c.Run(ctx, cmd.InOrStdin(), cmd.OutOrStdout(), caller)
	})
}
