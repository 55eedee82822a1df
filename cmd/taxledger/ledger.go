package main

import (
	"fmt"

	"github.com/bwmarrin/snowflake"
	ledgerdomain "github.com/smallbiznis/taxledger/internal/ledger/domain"
	"github.com/spf13/cobra"
)

func newLedgerCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ledger",
		Short: "Inspect posted transactions",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "show <document-id>",
		Short: "Show the transaction posted for a document",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			documentID, err := snowflake.ParseString(args[0])
			if err != nil {
				return fmt.Errorf("invalid document id %q: %w", args[0], err)
			}

			var svc ledgerdomain.Service
			stop, err := startApp(cmd.Context(), &svc)
			if err != nil {
				return err
			}
			defer stop()

			txn, entries, err := svc.Transaction(cmd.Context(), documentID)
			if err != nil {
				return err
			}
			if txn == nil {
				return fmt.Errorf("no transaction posted for document %s", documentID)
			}
			return writeJSON(cmd.OutOrStdout(), postResult{Transaction: txn, Entries: entries})
		},
	})
	return cmd
}
