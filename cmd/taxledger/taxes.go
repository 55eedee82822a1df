package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	taxdomain "github.com/smallbiznis/taxledger/internal/tax/domain"
	"github.com/spf13/cobra"
)

func newTaxesCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "taxes",
		Short: "Manage tax definitions, rules and groups",
	}
	cmd.AddCommand(
		newTaxesListCommand(),
		newTaxesAddCommand(),
		newTaxesDisableCommand(),
		newTaxesRuleCommand(),
		newTaxesMemberCommand(),
	)
	return cmd
}

func newTaxesListCommand() *cobra.Command {
	var (
		level       string
		enabledOnly bool
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List tax definitions",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			var svc taxdomain.Service
			stop, err := startApp(cmd.Context(), &svc)
			if err != nil {
				return err
			}
			defer stop()

			req := taxdomain.ListRequest{Level: taxdomain.ApplicationLevel(level)}
			if enabledOnly {
				req.IsEnabled = &enabledOnly
			}
			taxes, err := svc.ListTaxes(cmd.Context(), req)
			if err != nil {
				return err
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "CODE\tNAME\tTYPE\tPERCENTAGE\tAMOUNT\tLEVEL\tENABLED")
			for _, tax := range taxes {
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\t%t\n",
					tax.Code, tax.Name, tax.TaxType,
					tax.Percentage.String(), tax.Amount.String(),
					tax.ApplicationLevel, tax.IsEnabled)
			}
			return w.Flush()
		},
	}

	cmd.Flags().StringVar(&level, "level", "", "filter by application level (line or document)")
	cmd.Flags().BoolVar(&enabledOnly, "enabled", false, "only list enabled taxes")
	return cmd
}

func newTaxesAddCommand() *cobra.Command {
	var (
		req        taxdomain.CreateTaxRequest
		taxType    string
		level      string
		percentage string
		amount     string
		disabled   bool
	)

	cmd := &cobra.Command{
		Use:   "add <code> <name>",
		Short: "Create a tax definition",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			var err error
			if req.Percentage, err = parseDecimalFlag("percentage", percentage); err != nil {
				return err
			}
			if req.Amount, err = parseDecimalFlag("amount", amount); err != nil {
				return err
			}
			req.Code = args[0]
			req.Name = args[1]
			req.TaxType = taxdomain.TaxType(taxType)
			req.ApplicationLevel = taxdomain.ApplicationLevel(level)
			if disabled {
				enabled := false
				req.IsEnabled = &enabled
			}

			var svc taxdomain.Service
			stop, err := startApp(cmd.Context(), &svc)
			if err != nil {
				return err
			}
			defer stop()

			tax, err := svc.CreateTax(cmd.Context(), req)
			if err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), tax)
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&taxType, "type", string(taxdomain.TaxTypePercentage), "percentage, fixed_amount or amount_per_unit")
	flags.StringVar(&level, "level", string(taxdomain.ApplicationLevelLine), "line or document")
	flags.StringVar(&percentage, "percentage", "0", "rate for percentage taxes")
	flags.StringVar(&amount, "amount", "0", "amount for fixed and per-unit taxes")
	flags.StringVar(&req.DebitAccountCode, "debit-account", "", "account key debited by the tax total")
	flags.StringVar(&req.CreditAccountCode, "credit-account", "", "account key credited by the tax total")
	flags.BoolVar(&disabled, "disabled", false, "create the tax disabled")
	return cmd
}

func newTaxesDisableCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "disable <code>",
		Short: "Disable a tax definition",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var svc taxdomain.Service
			stop, err := startApp(cmd.Context(), &svc)
			if err != nil {
				return err
			}
			defer stop()

			tax, err := svc.DisableTax(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), tax)
		},
	}
}

func newTaxesRuleCommand() *cobra.Command {
	var (
		req         taxdomain.CreateRuleRequest
		entityGroup int64
		itemGroup   int64
		suppress    bool
	)

	cmd := &cobra.Command{
		Use:   "rule <tax-code>",
		Short: "Add a rule enabling or suppressing a tax for a document scope",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			req.TaxCode = args[0]
			req.IsEnabled = !suppress
			if entityGroup != 0 {
				id := snowflake.ID(entityGroup)
				req.BusinessEntityGroupID = &id
			}
			if itemGroup != 0 {
				id := snowflake.ID(itemGroup)
				req.ItemGroupID = &id
			}

			var svc taxdomain.Service
			stop, err := startApp(cmd.Context(), &svc)
			if err != nil {
				return err
			}
			defer stop()

			rule, err := svc.CreateRule(cmd.Context(), req)
			if err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), rule)
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&req.DocumentTypeCode, "document-type", "", "document type code the rule applies to")
	flags.StringVar(&req.DocumentOperation, "operation", "", "document operation the rule applies to")
	flags.Int64Var(&entityGroup, "entity-group", 0, "restrict to members of a business entity group")
	flags.Int64Var(&itemGroup, "item-group", 0, "restrict to members of an item group")
	flags.IntVar(&req.Priority, "priority", 100, "lower values are evaluated first")
	flags.BoolVar(&suppress, "suppress", false, "the rule exempts instead of applying the tax")
	return cmd
}

func newTaxesMemberCommand() *cobra.Command {
	var groupType string

	cmd := &cobra.Command{
		Use:   "member <entity-id> <group-id>",
		Short: "Place a business entity or an item in a group",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			entityID, err := snowflake.ParseString(args[0])
			if err != nil {
				return fmt.Errorf("invalid entity id %q: %w", args[0], err)
			}
			groupID, err := snowflake.ParseString(args[1])
			if err != nil {
				return fmt.Errorf("invalid group id %q: %w", args[1], err)
			}

			var svc taxdomain.Service
			stop, err := startApp(cmd.Context(), &svc)
			if err != nil {
				return err
			}
			defer stop()

			membership, err := svc.AddMembership(cmd.Context(), taxdomain.AddMembershipRequest{
				EntityID:  entityID,
				GroupID:   groupID,
				GroupType: taxdomain.GroupType(groupType),
			})
			if err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), membership)
		},
	}

	cmd.Flags().StringVar(&groupType, "type", string(taxdomain.GroupTypeBusinessEntity), "business_entity or item")
	return cmd
}

func parseDecimalFlag(name, value string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(value)
	if err != nil {
		return decimal.Zero, fmt.Errorf("invalid --%s %q: %w", name, value, err)
	}
	return d, nil
}
