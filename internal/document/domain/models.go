package domain

import (
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
)

// TaxConceptPrefix marks totals produced by tax calculation. Totals with
// this prefix are derived and replaced on every recalculation.
const TaxConceptPrefix = "Tax:"

// DocumentType classifies a document by code (SALES_INVOICE, ...) and by a
// broader operation (sale, purchase, ...).
type DocumentType struct {
	Code      string `json:"code"`
	Operation string `json:"operation,omitempty"`
}

type BusinessEntity struct {
	ID   snowflake.ID `json:"id"`
	Name string       `json:"name,omitempty"`
}

type Item struct {
	ID   snowflake.ID `json:"id"`
	Code string       `json:"code,omitempty"`
	Name string       `json:"name,omitempty"`
}

// Total is a named monetary figure attached to a document or a line.
type Total struct {
	Concept              string          `json:"concept"`
	Total                decimal.Decimal `json:"total"`
	DebitAccountCode     string          `json:"debit_account_code,omitempty"`
	CreditAccountCode    string          `json:"credit_account_code,omitempty"`
	IncludeInTransaction bool            `json:"include_in_transaction,omitempty"`
}

// IsTax reports whether the total was produced by tax calculation.
func (t Total) IsTax() bool {
	return IsTaxConcept(t.Concept)
}

// HasAccount reports whether either side carries an account code.
func (t Total) HasAccount() bool {
	return strings.TrimSpace(t.DebitAccountCode) != "" || strings.TrimSpace(t.CreditAccountCode) != ""
}

// Line is a single document row. Amount is derived from Quantity and
// UnitPrice; callers that assign those fields directly must call Recompute.
type Line struct {
	ID        snowflake.ID    `json:"id"`
	Item      *Item           `json:"item,omitempty"`
	Quantity  decimal.Decimal `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unit_price"`
	Amount    decimal.Decimal `json:"amount"`
	Totals    []Total         `json:"totals,omitempty"`

	// TaxCodes pins the taxes applied to this line. A nil slice lets the
	// rule evaluator decide; an empty non-nil slice applies no tax.
	TaxCodes []string `json:"tax_codes,omitempty"`
}

func (l *Line) SetQuantity(q decimal.Decimal) {
	l.Quantity = q
	l.Recompute()
}

func (l *Line) SetUnitPrice(p decimal.Decimal) {
	l.UnitPrice = p
	l.Recompute()
}

// Recompute refreshes Amount from Quantity and UnitPrice.
func (l *Line) Recompute() {
	l.Amount = l.Quantity.Mul(l.UnitPrice)
}

// TaxTotal sums the line's tax totals.
func (l *Line) TaxTotal() decimal.Decimal {
	return sumTotals(l.Totals, func(t Total) bool { return t.IsTax() })
}

// Document is a commercial record with a header, lines and totals.
type Document struct {
	ID             snowflake.ID    `json:"id"`
	Number         string          `json:"number,omitempty"`
	Date           time.Time       `json:"date"`
	BusinessEntity *BusinessEntity `json:"business_entity,omitempty"`
	DocumentType   *DocumentType   `json:"document_type,omitempty"`
	Lines          []*Line         `json:"lines,omitempty"`
	Totals         []Total         `json:"totals,omitempty"`
}

// AddLine appends a line and refreshes its amount.
func (d *Document) AddLine(line *Line) {
	line.Recompute()
	d.Lines = append(d.Lines, line)
}

// Recompute refreshes every line amount. It must be called after any
// mutation that affects quantities or prices.
func (d *Document) Recompute() {
	for _, line := range d.Lines {
		if line != nil {
			line.Recompute()
		}
	}
}

// Subtotal is the pre-tax sum of line amounts.
func (d *Document) Subtotal() decimal.Decimal {
	sum := decimal.Zero
	for _, line := range d.Lines {
		if line != nil {
			sum = sum.Add(line.Amount)
		}
	}
	return sum
}

// TotalQuantity sums the quantities of every line.
func (d *Document) TotalQuantity() decimal.Decimal {
	sum := decimal.Zero
	for _, line := range d.Lines {
		if line != nil {
			sum = sum.Add(line.Quantity)
		}
	}
	return sum
}

// AggregateLineTotals rolls line totals up by concept, keeping the order in
// which concepts first appear.
func (d *Document) AggregateLineTotals() []Total {
	index := make(map[string]int)
	out := make([]Total, 0)
	for _, line := range d.Lines {
		if line == nil {
			continue
		}
		for _, t := range line.Totals {
			if i, ok := index[t.Concept]; ok {
				out[i].Total = out[i].Total.Add(t.Total)
				continue
			}
			index[t.Concept] = len(out)
			out = append(out, Total{
				Concept:              t.Concept,
				Total:                t.Total,
				DebitAccountCode:     t.DebitAccountCode,
				CreditAccountCode:    t.CreditAccountCode,
				IncludeInTransaction: t.IncludeInTransaction,
			})
		}
	}
	return out
}

// LineTaxTotal sums tax totals across all lines.
func (d *Document) LineTaxTotal() decimal.Decimal {
	sum := decimal.Zero
	for _, line := range d.Lines {
		if line != nil {
			sum = sum.Add(line.TaxTotal())
		}
	}
	return sum
}

// TotalsWhere sums the document totals accepted by keep.
func (d *Document) TotalsWhere(keep func(Total) bool) decimal.Decimal {
	return sumTotals(d.Totals, keep)
}

// IsTaxConcept reports whether concept carries the tax prefix, ignoring case.
func IsTaxConcept(concept string) bool {
	return HasConceptPrefix(concept, TaxConceptPrefix)
}

// HasConceptPrefix is a case-insensitive prefix match.
func HasConceptPrefix(concept, prefix string) bool {
	if len(concept) < len(prefix) {
		return false
	}
	return strings.EqualFold(concept[:len(prefix)], prefix)
}

// TaxConcept formats the concept used for a tax total.
func TaxConcept(name, code string) string {
	return TaxConceptPrefix + " " + name + " (" + code + ")"
}

// WithoutTaxTotals returns totals minus every tax total. The input slice is
// not modified.
func WithoutTaxTotals(totals []Total) []Total {
	out := make([]Total, 0, len(totals))
	for _, t := range totals {
		if t.IsTax() {
			continue
		}
		out = append(out, t)
	}
	return out
}

func sumTotals(totals []Total, keep func(Total) bool) decimal.Decimal {
	sum := decimal.Zero
	for _, t := range totals {
		if keep == nil || keep(t) {
			sum = sum.Add(t.Total)
		}
	}
	return sum
}

// Validate checks the structure a posting run depends on. The document
// type needs a code or an operation; tax rules can match either.
func (d *Document) Validate() error {
	if d == nil {
		return ErrInvalidDocument
	}
	if d.DocumentType == nil ||
		(strings.TrimSpace(d.DocumentType.Code) == "" && strings.TrimSpace(d.DocumentType.Operation) == "") {
		return ErrInvalidDocumentType
	}
	for _, line := range d.Lines {
		if line == nil {
			return ErrInvalidLine
		}
	}
	return nil
}
