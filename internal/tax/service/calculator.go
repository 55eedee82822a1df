package service

import (
	"fmt"
	"strings"

	"github.com/samber/lo"
	"github.com/shopspring/decimal"
	documentdomain "github.com/smallbiznis/taxledger/internal/document/domain"
	taxdomain "github.com/smallbiznis/taxledger/internal/tax/domain"
)

// SubtotalConcept names the derived document total holding the sum of line
// amounts. It is replaced on every document pass like the tax totals.
const SubtotalConcept = "Subtotal"

var hundred = decimal.NewFromInt(100)

// TaxCalculator writes tax totals onto lines and documents using an Evaluator.
type TaxCalculator struct {
	evaluator taxdomain.Evaluator
}

func NewCalculator(evaluator taxdomain.Evaluator) (*TaxCalculator, error) {
	if evaluator == nil {
		return nil, fmt.Errorf("%w: evaluator is nil", taxdomain.ErrInvalidArgument)
	}
	return &TaxCalculator{evaluator: evaluator}, nil
}

// CalculateLineTaxes replaces the line's tax totals with freshly computed
// ones. Nothing is mutated when evaluation fails.
func (c *TaxCalculator) CalculateLineTaxes(doc *documentdomain.Document, line *documentdomain.Line) error {
	if doc == nil {
		return fmt.Errorf("%w: document is nil", taxdomain.ErrInvalidArgument)
	}
	if line == nil {
		return fmt.Errorf("%w: line is nil", taxdomain.ErrInvalidArgument)
	}

	taxes, err := c.lineTaxes(doc, line)
	if err != nil {
		return err
	}
	applyLineTaxes(line, taxes)
	return nil
}

func applyLineTaxes(line *documentdomain.Line, taxes []taxdomain.Tax) {
	totals := documentdomain.WithoutTaxTotals(line.Totals)
	for _, tax := range taxes {
		totals = append(totals, taxTotal(tax, ComputeTaxAmount(tax, line.Amount, line.Quantity)))
	}
	line.Totals = totals
}

func (c *TaxCalculator) lineTaxes(doc *documentdomain.Document, line *documentdomain.Line) ([]taxdomain.Tax, error) {
	if line.TaxCodes != nil {
		pinned := c.evaluator.TaxesByCode(line.TaxCodes)
		return lo.Filter(pinned, func(tax taxdomain.Tax, _ int) bool {
			return tax.ApplicationLevel == taxdomain.ApplicationLevelLine
		}), nil
	}
	return c.evaluator.GetApplicableLineTaxes(doc, "", line)
}

// CalculateDocumentTaxes rebuilds the document's derived totals: the
// Subtotal, the line taxes rolled up by concept and the document-level
// taxes. Other totals are kept in their original order.
func (c *TaxCalculator) CalculateDocumentTaxes(doc *documentdomain.Document) error {
	if doc == nil {
		return fmt.Errorf("%w: document is nil", taxdomain.ErrInvalidArgument)
	}

	taxes, err := c.evaluator.GetApplicableDocumentTaxes(doc, "")
	if err != nil {
		return err
	}

	applyDocumentTaxes(doc, taxes)
	return nil
}

func applyDocumentTaxes(doc *documentdomain.Document, taxes []taxdomain.Tax) {
	base := doc.Subtotal()
	quantity := doc.TotalQuantity()

	kept := lo.Filter(doc.Totals, func(t documentdomain.Total, _ int) bool {
		return !t.IsTax() && !strings.EqualFold(t.Concept, SubtotalConcept)
	})

	totals := make([]documentdomain.Total, 0, len(kept)+len(taxes)+1)
	totals = append(totals, documentdomain.Total{Concept: SubtotalConcept, Total: base})
	totals = append(totals, kept...)
	for _, rolled := range doc.AggregateLineTotals() {
		if rolled.IsTax() {
			totals = append(totals, rolled)
		}
	}
	for _, tax := range taxes {
		totals = append(totals, taxTotal(tax, ComputeTaxAmount(tax, base, quantity)))
	}
	doc.Totals = totals
}

// Recompute refreshes line amounts, then the taxes of every line, then the
// document totals. Totals are only written once every evaluation succeeded.
func (c *TaxCalculator) Recompute(doc *documentdomain.Document) error {
	if err := doc.Validate(); err != nil {
		return fmt.Errorf("%w: %w", taxdomain.ErrInvalidArgument, err)
	}

	doc.Recompute()

	lineTaxes := make([][]taxdomain.Tax, len(doc.Lines))
	for i, line := range doc.Lines {
		taxes, err := c.lineTaxes(doc, line)
		if err != nil {
			return err
		}
		lineTaxes[i] = taxes
	}
	docTaxes, err := c.evaluator.GetApplicableDocumentTaxes(doc, "")
	if err != nil {
		return err
	}

	for i, line := range doc.Lines {
		applyLineTaxes(line, lineTaxes[i])
	}
	applyDocumentTaxes(doc, docTaxes)
	return nil
}

// ComputeTaxAmount applies tax to base and quantity, rounded to cents.
// Unknown tax types yield zero.
func ComputeTaxAmount(tax taxdomain.Tax, base, quantity decimal.Decimal) decimal.Decimal {
	var amount decimal.Decimal
	switch tax.TaxType {
	case taxdomain.TaxTypePercentage:
		amount = base.Mul(tax.Percentage).Div(hundred)
	case taxdomain.TaxTypeFixedAmount:
		amount = tax.Amount
	case taxdomain.TaxTypeAmountPerUnit:
		amount = tax.Amount.Mul(quantity)
	default:
		return decimal.Zero
	}
	return amount.Round(2)
}

func taxTotal(tax taxdomain.Tax, amount decimal.Decimal) documentdomain.Total {
	debit := strings.TrimSpace(tax.DebitAccountCode)
	credit := strings.TrimSpace(tax.CreditAccountCode)
	return documentdomain.Total{
		Concept:              documentdomain.TaxConcept(tax.Name, tax.Code),
		Total:                amount,
		DebitAccountCode:     debit,
		CreditAccountCode:    credit,
		IncludeInTransaction: debit != "" || credit != "",
	}
}

var _ taxdomain.Calculator = (*TaxCalculator)(nil)
