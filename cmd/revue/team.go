package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"revue/internal/storage"
)

var teamCards []string

var teamCmd = &cobra.Command{
	Use:   "team",
	Short: "Manage saved teams",
}

var teamAddCmd = &cobra.Command{
	Use:   "add <member> <team-id>",
	Short: "Save a team",
	Long: `Save a team as an ordered list of card,modifier pairs.

Examples:
  revue team add Alice 1 --card c101,u1 --card c205,u3`,
	Args: cobra.ExactArgs(2),
	RunE: runTeamAdd,
}

var teamUpdateCmd = &cobra.Command{
	Use:   "update <member> <team-id>",
	Short: "Replace the cards of a saved team",
	Args:  cobra.ExactArgs(2),
	RunE:  runTeamUpdate,
}

var teamDeleteCmd = &cobra.Command{
	Use:   "delete <member> <team-id>",
	Short: "Delete a saved team",
	Args:  cobra.ExactArgs(2),
	RunE:  runTeamDelete,
}

var teamSearchCmd = &cobra.Command{
	Use:   "search <member> [team-id]",
	Short: "Show one team or every team of a member",
	Args:  cobra.RangeArgs(1, 2),
	RunE:  runTeamSearch,
}

var teamListCmd = &cobra.Command{
	Use:   "list",
	Short: "List all saved teams",
	Args:  cobra.NoArgs,
	RunE:  runTeamList,
}

func init() {
	for _, c := range []*cobra.Command{teamAddCmd, teamUpdateCmd} {
		c.Flags().StringArrayVar(&teamCards, "card", nil, "card,modifier pair (repeatable, in order)")
		_ = c.MarkFlagRequired("card")
	}

	teamCmd.AddCommand(teamAddCmd, teamUpdateCmd, teamDeleteCmd, teamSearchCmd, teamListCmd)
	rootCmd.AddCommand(teamCmd)
}

func parseTeamID(s string) (int, error) {
	id, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("invalid team id %q", s)
	}
	return id, nil
}

// parseCards splits every --card value into its card and modifier halves
func parseCards(pairs []string) (cards, modifiers []string, err error) {
	for _, p := range pairs {
		parts := strings.Split(p, storage.ListSeparator)
		if len(parts) != 2 || strings.TrimSpace(parts[0]) == "" || strings.TrimSpace(parts[1]) == "" {
			return nil, nil, fmt.Errorf("invalid card %q, want card%smodifier", p, storage.ListSeparator)
		}
		cards = append(cards, strings.TrimSpace(parts[0]))
		modifiers = append(modifiers, strings.TrimSpace(parts[1]))
	}
	return cards, modifiers, nil
}

func teamFromArgs(a *app, cmd *cobra.Command, args []string) (storage.Team, error) {
	teamID, err := parseTeamID(args[1])
	if err != nil {
		return storage.Team{}, err
	}
	cards, modifiers, err := parseCards(teamCards)
	if err != nil {
		return storage.Team{}, err
	}
	memberID, err := resolveMember(cmd.Context(), a, args[0])
	if err != nil {
		return storage.Team{}, err
	}
	return storage.Team{MemberID: memberID, TeamID: teamID, Cards: cards, Modifiers: modifiers}, nil
}

func runTeamAdd(cmd *cobra.Command, args []string) error {
	return withApp(func(a *app) error {
		t, err := teamFromArgs(a, cmd, args)
		if err != nil {
			return err
		}
		return emit(cmd.OutOrStdout(), a.teams.Add(cmd.Context(), t), a.cal)
	})
}

func runTeamUpdate(cmd *cobra.Command, args []string) error {
	return withApp(func(a *app) error {
		t, err := teamFromArgs(a, cmd, args)
		if err != nil {
			return err
		}
		ctx := cmd.Context()
		found := a.teams.SearchOne(ctx, t.MemberID, t.TeamID)
		if !found.OK() {
			return emit(cmd.OutOrStdout(), found, a.cal)
		}
		prompt := fmt.Sprintf("Update team %d of %s: %s/%s -> %s/%s?", t.TeamID, t.MemberID,
			strings.Join(found.Payload.Cards, storage.ListSeparator), strings.Join(found.Payload.Modifiers, storage.ListSeparator),
			strings.Join(t.Cards, storage.ListSeparator), strings.Join(t.Modifiers, storage.ListSeparator))
		if !confirmed(cmd, a, prompt) {
			return nil
		}
		return emit(cmd.OutOrStdout(), a.teams.Update(ctx, t), a.cal)
	})
}

func runTeamDelete(cmd *cobra.Command, args []string) error {
	teamID, err := parseTeamID(args[1])
	if err != nil {
		return err
	}
	return withApp(func(a *app) error {
		ctx := cmd.Context()
		found := a.teams.SearchOne(ctx, args[0], teamID)
		if !found.OK() {
			return emit(cmd.OutOrStdout(), found, a.cal)
		}
		prompt := fmt.Sprintf("Delete team %d of %s?", teamID, found.Payload.MemberID)
		if !confirmed(cmd, a, prompt) {
			return nil
		}
		return emit(cmd.OutOrStdout(), a.teams.Delete(ctx, found.Payload.MemberID, teamID), a.cal)
	})
}

func runTeamSearch(cmd *cobra.Command, args []string) error {
	return withApp(func(a *app) error {
		if len(args) == 2 {
			teamID, err := parseTeamID(args[1])
			if err != nil {
				return err
			}
			return emit(cmd.OutOrStdout(), a.teams.SearchOne(cmd.Context(), args[0], teamID), a.cal)
		}
		return emit(cmd.OutOrStdout(), a.queries.TeamsByMember(cmd.Context(), args[0]), a.cal)
	})
}

func runTeamList(cmd *cobra.Command, args []string) error {
	return withApp(func(a *app) error {
		return emit(cmd.OutOrStdout(), a.teams.ListAll(cmd.Context()), a.cal)
	})
}
