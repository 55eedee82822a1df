package main

import (
	"encoding/json"
	"fmt"
	"os"

	documentdomain "github.com/smallbiznis/taxledger/internal/document/domain"
	ledgerdomain "github.com/smallbiznis/taxledger/internal/ledger/domain"
	postingdomain "github.com/smallbiznis/taxledger/internal/posting/domain"
	"github.com/spf13/cobra"
)

type postResult struct {
	Document    *documentdomain.Document   `json:"document,omitempty"`
	Transaction *ledgerdomain.Transaction  `json:"transaction"`
	Entries     []ledgerdomain.LedgerEntry `json:"entries"`
}

func newPostCommand() *cobra.Command {
	var (
		mode   string
		dryRun bool
	)

	cmd := &cobra.Command{
		Use:   "post <document.json>",
		Short: "Recompute a document's taxes and post it to the ledger",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			postingMode, err := postingdomain.ParseMode(mode)
			if err != nil {
				return err
			}
			doc, err := readDocument(args[0])
			if err != nil {
				return err
			}

			var svc postingdomain.Service
			stop, err := startApp(cmd.Context(), &svc)
			if err != nil {
				return err
			}
			defer stop()

			run := svc.Post
			if dryRun {
				run = svc.Preview
			}
			txn, entries, err := run(cmd.Context(), doc, postingMode)
			if err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), postResult{Document: doc, Transaction: txn, Entries: entries})
		},
	}

	cmd.Flags().StringVar(&mode, "mode", string(postingdomain.ModeTemplate), "generator to use: template or totals")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "generate without writing to the ledger")
	return cmd
}

func readDocument(path string) (*documentdomain.Document, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading document: %w", err)
	}
	var doc documentdomain.Document
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("decoding document: %w", err)
	}
	if err := doc.Validate(); err != nil {
		return nil, err
	}
	return &doc, nil
}
