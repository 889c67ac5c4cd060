package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"revue/internal/storage"
)

var (
	memberAccount  string
	memberPassword string
)

var memberCmd = &cobra.Command{
	Use:   "member",
	Short: "Manage the guild roster",
}

var memberAddCmd = &cobra.Command{
	Use:   "add <member-id> <alias>",
	Short: "Add a member",
	Args:  cobra.ExactArgs(2),
	RunE:  runMemberAdd,
}

var memberUpdateCmd = &cobra.Command{
	Use:   "update <member-id> <alias>",
	Short: "Replace a member's alias, account and password",
	Args:  cobra.ExactArgs(2),
	RunE:  runMemberUpdate,
}

var memberDeleteCmd = &cobra.Command{
	Use:   "delete <member-id>",
	Short: "Delete a member without records or teams",
	Args:  cobra.ExactArgs(1),
	RunE:  runMemberDelete,
}

var memberSearchCmd = &cobra.Command{
	Use:   "search <member-id|alias>",
	Short: "Find one member by id or alias",
	Args:  cobra.ExactArgs(1),
	RunE:  runMemberSearch,
}

var memberListCmd = &cobra.Command{
	Use:   "list",
	Short: "List all members",
	Args:  cobra.NoArgs,
	RunE:  runMemberList,
}

func init() {
	for _, c := range []*cobra.Command{memberAddCmd, memberUpdateCmd} {
		c.Flags().StringVar(&memberAccount, "account", "", "Game account")
		c.Flags().StringVar(&memberPassword, "password", "", "Game password (sealed when credentials.sealKey is set)")
	}

	memberCmd.AddCommand(memberAddCmd, memberUpdateCmd, memberDeleteCmd, memberSearchCmd, memberListCmd)
	rootCmd.AddCommand(memberCmd)
}

func memberFromFlags(args []string) storage.Member {
	return storage.Member{MemberID: args[0], Alias: args[1], Account: memberAccount, Password: memberPassword}
}

func runMemberAdd(cmd *cobra.Command, args []string) error {
	return withApp(func(a *app) error {
		return emit(cmd.OutOrStdout(), a.members.Add(cmd.Context(), memberFromFlags(args)), a.cal)
	})
}

func runMemberUpdate(cmd *cobra.Command, args []string) error {
	return withApp(func(a *app) error {
		ctx := cmd.Context()
		found := a.members.SearchOne(ctx, args[0])
		if !found.OK() {
			return emit(cmd.OutOrStdout(), hidePassword(found), a.cal)
		}
		next := memberFromFlags(args)
		next.MemberID = found.Payload.MemberID

		prompt := fmt.Sprintf("Update member %s: alias %q -> %q, account %q -> %q?",
			next.MemberID, found.Payload.Alias, next.Alias, found.Payload.Account, next.Account)
		if !confirmed(cmd, a, prompt) {
			return nil
		}
		return emit(cmd.OutOrStdout(), hidePassword(a.members.Update(ctx, next)), a.cal)
	})
}

func runMemberDelete(cmd *cobra.Command, args []string) error {
	return withApp(func(a *app) error {
		ctx := cmd.Context()
		found := a.members.SearchOne(ctx, args[0])
		if !found.OK() {
			return emit(cmd.OutOrStdout(), found, a.cal)
		}
		prompt := fmt.Sprintf("Delete member %s (%s)?", found.Payload.MemberID, found.Payload.Alias)
		if !confirmed(cmd, a, prompt) {
			return nil
		}
		return emit(cmd.OutOrStdout(), a.members.Delete(ctx, found.Payload.MemberID), a.cal)
	})
}

func runMemberSearch(cmd *cobra.Command, args []string) error {
	return withApp(func(a *app) error {
		res := a.members.SearchOne(cmd.Context(), args[0])
		return emit(cmd.OutOrStdout(), hidePassword(res), a.cal)
	})
}

func runMemberList(cmd *cobra.Command, args []string) error {
	return withApp(func(a *app) error {
		res := a.members.ListAll(cmd.Context())
		for i := range res.Payload {
			res.Payload[i].Password = ""
		}
		return emit(cmd.OutOrStdout(), res, a.cal)
	})
}

func hidePassword(r storage.Result[storage.Member]) storage.Result[storage.Member] {
	r.Payload.Password = ""
	return r
}

// resolveMember is shared by commands that default to no member
func resolveMember(ctx context.Context, a *app, ident string) (string, error) {
	res := a.members.Resolve(ctx, ident)
	if !res.OK() {
		return "", res.Err()
	}
	return res.Payload, nil
}
