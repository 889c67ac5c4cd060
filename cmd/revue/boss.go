package main

import (
	"fmt"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"revue/internal/season"
	"revue/internal/storage"
)

var seasonFile string

var bossCmd = &cobra.Command{
	Use:   "boss",
	Short: "Manage the boss table",
}

var bossAddCmd = &cobra.Command{
	Use:   "add <boss-id> <alias> <health>",
	Short: "Add a boss",
	Args:  cobra.ExactArgs(3),
	RunE:  runBossAdd,
}

var bossUpdateCmd = &cobra.Command{
	Use:   "update <boss-id> <alias> <health>",
	Short: "Replace a boss's alias and health",
	Args:  cobra.ExactArgs(3),
	RunE:  runBossUpdate,
}

var bossDeleteCmd = &cobra.Command{
	Use:   "delete <boss-id|alias>",
	Short: "Delete a boss without records",
	Args:  cobra.ExactArgs(1),
	RunE:  runBossDelete,
}

var bossSearchCmd = &cobra.Command{
	Use:   "search <boss-id|alias>",
	Short: "Find one boss by id or alias",
	Args:  cobra.ExactArgs(1),
	RunE:  runBossSearch,
}

var bossListCmd = &cobra.Command{
	Use:   "list",
	Short: "List all bosses",
	Args:  cobra.NoArgs,
	RunE:  runBossList,
}

var bossAddRangeCmd = &cobra.Command{
	Use:   "add-range [n1 n2 n3 n4 h1 h2 h3 h4 start end]",
	Short: "Add four bosses for every level in [start, end)",
	Long: `Add four bosses for every level in [start, end). Boss ids are level*100+slot
and aliases are "R" + level + name.

Examples:
  revue boss add-range A B C D 1000 2000 3000 4000 1 3
  revue boss add-range --season season.toml`,
	RunE: runBossAddRange,
}

var bossSeasonCmd = &cobra.Command{
	Use:   "season-init <file>",
	Short: "Write a season file template",
	Args:  cobra.ExactArgs(1),
	RunE:  runBossSeasonInit,
}

func init() {
	bossAddRangeCmd.Flags().StringVar(&seasonFile, "season", "", "Read names, healths and levels from a TOML season file")

	bossCmd.AddCommand(bossAddCmd, bossUpdateCmd, bossDeleteCmd, bossSearchCmd, bossListCmd, bossAddRangeCmd, bossSeasonCmd)
	rootCmd.AddCommand(bossCmd)
}

func bossFromArgs(args []string) (storage.Boss, error) {
	id, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil {
		return storage.Boss{}, fmt.Errorf("invalid boss id %q", args[0])
	}
	health, err := strconv.ParseInt(args[2], 10, 64)
	if err != nil {
		return storage.Boss{}, fmt.Errorf("invalid health %q", args[2])
	}
	return storage.Boss{BossID: id, Alias: args[1], Health: health}, nil
}

func runBossAdd(cmd *cobra.Command, args []string) error {
	b, err := bossFromArgs(args)
	if err != nil {
		return err
	}
	return withApp(func(a *app) error {
		return emit(cmd.OutOrStdout(), a.bosses.Add(cmd.Context(), b), a.cal)
	})
}

func runBossUpdate(cmd *cobra.Command, args []string) error {
	b, err := bossFromArgs(args)
	if err != nil {
		return err
	}
	return withApp(func(a *app) error {
		ctx := cmd.Context()
		found := a.bosses.SearchOne(ctx, args[0])
		if !found.OK() {
			return emit(cmd.OutOrStdout(), found, a.cal)
		}
		prompt := fmt.Sprintf("Update boss %d: %s/%d -> %s/%d?",
			b.BossID, found.Payload.Alias, found.Payload.Health, b.Alias, b.Health)
		if !confirmed(cmd, a, prompt) {
			return nil
		}
		return emit(cmd.OutOrStdout(), a.bosses.Update(ctx, b), a.cal)
	})
}

func runBossDelete(cmd *cobra.Command, args []string) error {
	return withApp(func(a *app) error {
		ctx := cmd.Context()
		found := a.bosses.SearchOne(ctx, args[0])
		if !found.OK() {
			return emit(cmd.OutOrStdout(), found, a.cal)
		}
		prompt := fmt.Sprintf("Delete boss %d (%s)?", found.Payload.BossID, found.Payload.Alias)
		if !confirmed(cmd, a, prompt) {
			return nil
		}
		return emit(cmd.OutOrStdout(), a.bosses.Delete(ctx, found.Payload.BossID), a.cal)
	})
}

func runBossSearch(cmd *cobra.Command, args []string) error {
	return withApp(func(a *app) error {
		return emit(cmd.OutOrStdout(), a.bosses.SearchOne(cmd.Context(), args[0]), a.cal)
	})
}

func runBossList(cmd *cobra.Command, args []string) error {
	return withApp(func(a *app) error {
		return emit(cmd.OutOrStdout(), a.bosses.ListAll(cmd.Context()), a.cal)
	})
}

// rangeFromArgs reads four names, four healths, start and end
func rangeFromArgs(args []string) (storage.BossRange, error) {
	if len(args) != 2*storage.BossSlots+2 {
		return storage.BossRange{}, fmt.Errorf("expected %d arguments, got %d", 2*storage.BossSlots+2, len(args))
	}
	rng := storage.BossRange{Names: args[:storage.BossSlots]}
	for _, h := range args[storage.BossSlots : 2*storage.BossSlots] {
		health, err := strconv.ParseInt(h, 10, 64)
		if err != nil {
			return storage.BossRange{}, fmt.Errorf("invalid health %q", h)
		}
		rng.Healths = append(rng.Healths, health)
	}
	var err error
	if rng.Start, err = strconv.Atoi(args[2*storage.BossSlots]); err != nil {
		return storage.BossRange{}, fmt.Errorf("invalid start level %q", args[2*storage.BossSlots])
	}
	if rng.End, err = strconv.Atoi(args[2*storage.BossSlots+1]); err != nil {
		return storage.BossRange{}, fmt.Errorf("invalid end level %q", args[2*storage.BossSlots+1])
	}
	return rng, nil
}

func runBossAddRange(cmd *cobra.Command, args []string) error {
	var rng storage.BossRange
	if seasonFile != "" {
		if len(args) > 0 {
			return fmt.Errorf("--season and positional arguments are mutually exclusive")
		}
		f, err := season.LoadFile(seasonFile)
		if err != nil {
			return err
		}
		if rng, err = f.Range(); err != nil {
			return err
		}
	} else {
		var err error
		if rng, err = rangeFromArgs(args); err != nil {
			return err
		}
	}

	return withApp(func(a *app) error {
		return emit(cmd.OutOrStdout(), a.bosses.AddRange(cmd.Context(), rng), a.cal)
	})
}

func runBossSeasonInit(cmd *cobra.Command, args []string) error {
	if _, err := os.Stat(args[0]); err == nil {
		return fmt.Errorf("%s already exists", args[0])
	}
	f := season.FromRange(storage.BossRange{
		Names:   []string{"A", "B", "C", "D"},
		Healths: []int64{6000000, 8000000, 10000000, 12000000},
		Start:   1,
		End:     2,
	})
	f.Name = "season"

	out, err := os.Create(args[0])
	if err != nil {
		return err
	}
	defer out.Close()
	if err := f.Encode(out); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s\n", args[0])
	return nil
}
