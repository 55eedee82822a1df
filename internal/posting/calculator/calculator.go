// Package calculator holds the amount functions templates use to derive
// ledger amounts from a document. Calculators are evaluated at generation
// time against the document as it is then; they cache nothing.
package calculator

import (
	"github.com/shopspring/decimal"
	documentdomain "github.com/smallbiznis/taxledger/internal/document/domain"
)

// AmountCalculator derives an amount from a document. A nil document
// yields zero.
type AmountCalculator func(doc *documentdomain.Document) decimal.Decimal

var hundred = decimal.NewFromInt(100)

// LineTotal sums line amounts.
func LineTotal(doc *documentdomain.Document) decimal.Decimal {
	if doc == nil {
		return decimal.Zero
	}
	return doc.Subtotal()
}

// Subtotal sums document totals that are not taxes.
func Subtotal(doc *documentdomain.Document) decimal.Decimal {
	if doc == nil {
		return decimal.Zero
	}
	return doc.TotalsWhere(func(t documentdomain.Total) bool { return !t.IsTax() })
}

// TaxTotal sums document tax totals.
func TaxTotal(doc *documentdomain.Document) decimal.Decimal {
	if doc == nil {
		return decimal.Zero
	}
	return doc.TotalsWhere(documentdomain.Total.IsTax)
}

// GrandTotal sums every document total.
func GrandTotal(doc *documentdomain.Document) decimal.Decimal {
	if doc == nil {
		return decimal.Zero
	}
	return doc.TotalsWhere(nil)
}

// LineTaxTotal sums the tax totals carried by lines.
func LineTaxTotal(doc *documentdomain.Document) decimal.Decimal {
	if doc == nil {
		return decimal.Zero
	}
	return doc.LineTaxTotal()
}

// ForConcept sums document totals whose concept equals concept exactly.
func ForConcept(concept string) AmountCalculator {
	return func(doc *documentdomain.Document) decimal.Decimal {
		if doc == nil {
			return decimal.Zero
		}
		return doc.TotalsWhere(func(t documentdomain.Total) bool { return t.Concept == concept })
	}
}

// ForConceptStartingWith sums document totals whose concept starts with
// prefix, ignoring case.
func ForConceptStartingWith(prefix string) AmountCalculator {
	return func(doc *documentdomain.Document) decimal.Decimal {
		if doc == nil {
			return decimal.Zero
		}
		return doc.TotalsWhere(func(t documentdomain.Total) bool {
			return documentdomain.HasConceptPrefix(t.Concept, prefix)
		})
	}
}

func FixedAmount(value decimal.Decimal) AmountCalculator {
	return func(*documentdomain.Document) decimal.Decimal { return value }
}

// Percentage takes pct percent of calc. The result is not rounded.
func Percentage(calc AmountCalculator, pct decimal.Decimal) AmountCalculator {
	return func(doc *documentdomain.Document) decimal.Decimal {
		if calc == nil {
			return decimal.Zero
		}
		return calc(doc).Mul(pct).Div(hundred)
	}
}

// EstimatedCostOfGoodsSold is costPct percent of Subtotal, rounded to cents.
func EstimatedCostOfGoodsSold(costPct decimal.Decimal) AmountCalculator {
	return func(doc *documentdomain.Document) decimal.Decimal {
		return Subtotal(doc).Mul(costPct).Div(hundred).Round(2)
	}
}

func Sum(calcs ...AmountCalculator) AmountCalculator {
	return func(doc *documentdomain.Document) decimal.Decimal {
		total := decimal.Zero
		for _, calc := range calcs {
			if calc != nil {
				total = total.Add(calc(doc))
			}
		}
		return total
	}
}

func Negate(calc AmountCalculator) AmountCalculator {
	return func(doc *documentdomain.Document) decimal.Decimal {
		if calc == nil {
			return decimal.Zero
		}
		return calc(doc).Neg()
	}
}
