package service

import (
	"fmt"

	documentdomain "github.com/smallbiznis/taxledger/internal/document/domain"
	ledgerdomain "github.com/smallbiznis/taxledger/internal/ledger/domain"
	"github.com/smallbiznis/taxledger/internal/posting/calculator"
	postingdomain "github.com/smallbiznis/taxledger/internal/posting/domain"
)

// Account keys used by the default templates.
const (
	AccountReceivable    = "ACCOUNTS_RECEIVABLE"
	AccountPayable       = "ACCOUNTS_PAYABLE"
	AccountSales         = "SALES"
	AccountSalesReturns  = "SALES_RETURNS"
	AccountPurchases     = "PURCHASES"
	AccountTaxPayable    = "TAX_PAYABLE"
	AccountTaxReceivable = "TAX_RECEIVABLE"
)

// DefaultTemplates returns fresh templates for the built-in document types.
//
//	SALES_INVOICE:     Dr receivable (grand total) / Cr sales, Cr tax payable
//	PURCHASE_INVOICE:  Dr purchases, Dr tax receivable / Cr payable (grand total)
//	SALES_CREDIT_NOTE: Dr sales returns, Dr tax payable / Cr receivable (grand total)
func DefaultTemplates() []*postingdomain.Template {
	return []*postingdomain.Template{
		postingdomain.NewTemplate("SALES_INVOICE", describe("Sales invoice"),
			postingdomain.TemplateEntry{AccountKey: AccountReceivable, EntryType: ledgerdomain.EntryTypeDebit, Amount: calculator.GrandTotal, PersonFromEntity: true},
			postingdomain.TemplateEntry{AccountKey: AccountSales, EntryType: ledgerdomain.EntryTypeCredit, Amount: calculator.Subtotal},
			postingdomain.TemplateEntry{AccountKey: AccountTaxPayable, EntryType: ledgerdomain.EntryTypeCredit, Amount: calculator.TaxTotal},
		),
		postingdomain.NewTemplate("PURCHASE_INVOICE", describe("Purchase invoice"),
			postingdomain.TemplateEntry{AccountKey: AccountPurchases, EntryType: ledgerdomain.EntryTypeDebit, Amount: calculator.Subtotal},
			postingdomain.TemplateEntry{AccountKey: AccountTaxReceivable, EntryType: ledgerdomain.EntryTypeDebit, Amount: calculator.TaxTotal},
			postingdomain.TemplateEntry{AccountKey: AccountPayable, EntryType: ledgerdomain.EntryTypeCredit, Amount: calculator.GrandTotal, PersonFromEntity: true},
		),
		postingdomain.NewTemplate("SALES_CREDIT_NOTE", describe("Sales credit note"),
			postingdomain.TemplateEntry{AccountKey: AccountSalesReturns, EntryType: ledgerdomain.EntryTypeDebit, Amount: calculator.Subtotal},
			postingdomain.TemplateEntry{AccountKey: AccountTaxPayable, EntryType: ledgerdomain.EntryTypeDebit, Amount: calculator.TaxTotal},
			postingdomain.TemplateEntry{AccountKey: AccountReceivable, EntryType: ledgerdomain.EntryTypeCredit, Amount: calculator.GrandTotal, PersonFromEntity: true},
		),
	}
}

func describe(label string) func(*documentdomain.Document) string {
	return func(doc *documentdomain.Document) string {
		return fmt.Sprintf("%s %s", label, documentRef(doc))
	}
}

func documentRef(doc *documentdomain.Document) string {
	if doc.Number != "" {
		return doc.Number
	}
	return doc.ID.String()
}
