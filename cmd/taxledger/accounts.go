package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/bwmarrin/snowflake"
	ledgerdomain "github.com/smallbiznis/taxledger/internal/ledger/domain"
	"github.com/spf13/cobra"
)

func newAccountsCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "accounts",
		Short: "Manage the account map used for posting",
	}
	cmd.AddCommand(newAccountsSetCommand(), newAccountsListCommand())
	return cmd
}

func newAccountsSetCommand() *cobra.Command {
	var name string

	cmd := &cobra.Command{
		Use:   "set <key> <account-id>",
		Short: "Map an account key to a ledger account",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			accountID, err := snowflake.ParseString(args[1])
			if err != nil {
				return fmt.Errorf("invalid account id %q: %w", args[1], err)
			}

			var svc ledgerdomain.Service
			stop, err := startApp(cmd.Context(), &svc)
			if err != nil {
				return err
			}
			defer stop()

			mapping, err := svc.SetAccount(cmd.Context(), args[0], accountID, name)
			if err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), mapping)
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "display name copied onto ledger entries")
	return cmd
}

func newAccountsListCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List mapped accounts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			var svc ledgerdomain.Service
			stop, err := startApp(cmd.Context(), &svc)
			if err != nil {
				return err
			}
			defer stop()

			accounts, err := svc.Accounts(cmd.Context())
			if err != nil {
				return err
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "KEY\tACCOUNT\tNAME")
			for _, key := range accounts.Keys() {
				id, _ := accounts.Lookup(key)
				fmt.Fprintf(w, "%s\t%s\t%s\n", key, id, accounts.Name(key))
			}
			return w.Flush()
		},
	}
}
