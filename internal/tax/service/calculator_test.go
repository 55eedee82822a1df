package service

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	documentdomain "github.com/smallbiznis/taxledger/internal/document/domain"
	taxdomain "github.com/smallbiznis/taxledger/internal/tax/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockEvaluator struct {
	mock.Mock
}

func (m *mockEvaluator) GetApplicableDocumentTaxes(doc *documentdomain.Document, code string) ([]taxdomain.Tax, error) {
	args := m.Called(doc, code)
	taxes, _ := args.Get(0).([]taxdomain.Tax)
	return taxes, args.Error(1)
}

func (m *mockEvaluator) GetApplicableLineTaxes(doc *documentdomain.Document, code string, line *documentdomain.Line) ([]taxdomain.Tax, error) {
	args := m.Called(doc, code, line)
	taxes, _ := args.Get(0).([]taxdomain.Tax)
	return taxes, args.Error(1)
}

func (m *mockEvaluator) TaxesByCode(codes []string) []taxdomain.Tax {
	args := m.Called(codes)
	taxes, _ := args.Get(0).([]taxdomain.Tax)
	return taxes
}

func assertDecimal(t *testing.T, want string, got decimal.Decimal) {
	t.Helper()
	assert.Truef(t, dec(want).Equal(got), "want %s, got %s", want, got.String())
}

func snapshot(totals []documentdomain.Total) []string {
	out := make([]string, 0, len(totals))
	for _, total := range totals {
		out = append(out, total.Concept+"="+total.Total.StringFixed(2))
	}
	return out
}

func newSalesCalculator(t *testing.T, catalog taxdomain.Catalog) *TaxCalculator {
	t.Helper()
	calc, err := NewCalculator(NewRuleEvaluator(catalog))
	require.NoError(t, err)
	return calc
}

func TestCalculator_PercentageOnLine(t *testing.T) {
	calc := newSalesCalculator(t, salesCatalog())
	doc := invoice(companyID, line(widgetID, "2", "100"))

	require.NoError(t, calc.CalculateLineTaxes(doc, doc.Lines[0]))

	totals := doc.Lines[0].Totals
	require.Len(t, totals, 1)
	assert.Equal(t, "Tax: VAT (IVA)", totals[0].Concept)
	assertDecimal(t, "26.00", totals[0].Total)
}

func TestCalculator_LineTaxesAreReplaced(t *testing.T) {
	calc := newSalesCalculator(t, salesCatalog())
	doc := invoice(companyID, line(widgetID, "2", "100"))
	doc.Lines[0].Totals = []documentdomain.Total{
		{Concept: "Discount", Total: dec("-5")},
		{Concept: "Tax: Stale (OLD)", Total: dec("99")},
	}

	require.NoError(t, calc.CalculateLineTaxes(doc, doc.Lines[0]))
	require.NoError(t, calc.CalculateLineTaxes(doc, doc.Lines[0]))

	assert.Equal(t, []string{"Discount=-5.00", "Tax: VAT (IVA)=26.00"}, snapshot(doc.Lines[0].Totals))
}

func TestCalculator_DocumentAggregatesLineTaxes(t *testing.T) {
	calc := newSalesCalculator(t, salesCatalog())
	doc := invoice(companyID, line(widgetID, "3", "100"), line(widgetID, "1", "151"))

	require.NoError(t, calc.Recompute(doc))

	assertDecimal(t, "39.00", doc.Lines[0].TaxTotal())
	assertDecimal(t, "19.63", doc.Lines[1].TaxTotal())
	assert.Equal(t, []string{"Subtotal=451.00", "Tax: VAT (IVA)=58.63"}, snapshot(doc.Totals))
}

func TestCalculator_RecomputeIsIdempotent(t *testing.T) {
	stamp := taxdomain.Tax{ID: 2, Code: "STAMP", Name: "Stamp duty", TaxType: taxdomain.TaxTypeFixedAmount, Amount: dec("5"), ApplicationLevel: taxdomain.ApplicationLevelDocument, IsEnabled: true}
	catalog := salesCatalog()
	catalog.Taxes = append(catalog.Taxes, stamp)
	catalog.Rules = append(catalog.Rules, taxdomain.TaxRule{ID: 12, TaxID: 2, DocumentOperation: "sale", IsEnabled: true})

	calc := newSalesCalculator(t, catalog)
	doc := invoice(companyID, line(widgetID, "3", "100"), line(bookID, "1", "151"))
	doc.Totals = []documentdomain.Total{{Concept: "Freight", Total: dec("12")}}

	require.NoError(t, calc.Recompute(doc))
	first := snapshot(doc.Totals)
	firstLines := [][]string{snapshot(doc.Lines[0].Totals), snapshot(doc.Lines[1].Totals)}

	require.NoError(t, calc.Recompute(doc))
	assert.Equal(t, first, snapshot(doc.Totals))
	assert.Equal(t, firstLines, [][]string{snapshot(doc.Lines[0].Totals), snapshot(doc.Lines[1].Totals)})

	assert.Equal(t, []string{
		"Subtotal=451.00",
		"Freight=12.00",
		"Tax: VAT (IVA)=39.00",
		"Tax: Stamp duty (STAMP)=5.00",
	}, first)
}

func TestCalculator_ExemptItemHasNoTax(t *testing.T) {
	calc := newSalesCalculator(t, salesCatalog())
	doc := invoice(companyID, line(bookID, "1", "40"))

	require.NoError(t, calc.Recompute(doc))

	assert.Empty(t, doc.Lines[0].Totals)
	assert.Equal(t, []string{"Subtotal=40.00"}, snapshot(doc.Totals))
}

func TestCalculator_RecomputeRefreshesAmounts(t *testing.T) {
	calc := newSalesCalculator(t, salesCatalog())
	doc := invoice(companyID, line(widgetID, "1", "100"))
	doc.Lines[0].Quantity = dec("2")

	require.NoError(t, calc.Recompute(doc))

	assertDecimal(t, "200", doc.Lines[0].Amount)
	assertDecimal(t, "26", doc.Lines[0].TaxTotal())
}

func TestCalculator_PinnedTaxCodes(t *testing.T) {
	reduced := vat(5)
	reduced.Code = "IVA_RED"
	reduced.Name = "Reduced VAT"
	reduced.Percentage = dec("5")

	catalog := salesCatalog()
	catalog.Taxes = append(catalog.Taxes, reduced)
	calc := newSalesCalculator(t, catalog)

	pinned := line(widgetID, "1", "100")
	pinned.TaxCodes = []string{"iva_red"}
	none := line(widgetID, "1", "100")
	none.TaxCodes = []string{}
	doc := invoice(companyID, pinned, none)

	require.NoError(t, calc.Recompute(doc))

	assert.Equal(t, []string{"Tax: Reduced VAT (IVA_RED)=5.00"}, snapshot(pinned.Totals))
	assert.Empty(t, none.Totals)
}

func TestCalculator_DocumentLevelTaxTypes(t *testing.T) {
	perUnit := taxdomain.Tax{ID: 3, Code: "ECO", Name: "Eco fee", TaxType: taxdomain.TaxTypeAmountPerUnit, Amount: dec("0.5"), ApplicationLevel: taxdomain.ApplicationLevelDocument, IsEnabled: true}
	surcharge := taxdomain.Tax{ID: 4, Code: "SUR", Name: "Surcharge", TaxType: taxdomain.TaxTypePercentage, Percentage: dec("1.5"), ApplicationLevel: taxdomain.ApplicationLevelDocument, IsEnabled: true}
	calc := newSalesCalculator(t, taxdomain.Catalog{
		Taxes: []taxdomain.Tax{perUnit, surcharge},
		Rules: []taxdomain.TaxRule{
			{ID: 10, TaxID: 3, DocumentTypeCode: "SALES_INVOICE", IsEnabled: true},
			{ID: 11, TaxID: 4, DocumentTypeCode: "SALES_INVOICE", IsEnabled: true},
		},
	})
	doc := invoice(companyID, line(widgetID, "3", "10"), line(bookID, "2", "10.33"))

	require.NoError(t, calc.Recompute(doc))

	assert.Equal(t, []string{
		"Subtotal=50.66",
		"Tax: Eco fee (ECO)=2.50",
		"Tax: Surcharge (SUR)=0.76",
	}, snapshot(doc.Totals))
}

func TestCalculator_OperationOnlyDocumentType(t *testing.T) {
	calc := newSalesCalculator(t, taxdomain.Catalog{
		Taxes: []taxdomain.Tax{vat(1)},
		Rules: []taxdomain.TaxRule{{ID: 10, TaxID: 1, DocumentOperation: "sale", IsEnabled: true}},
	})
	doc := invoice(otherID, line(widgetID, "2", "100"))
	doc.DocumentType = &documentdomain.DocumentType{Operation: "sale"}

	require.NoError(t, calc.Recompute(doc))

	assert.Equal(t, []string{"Tax: VAT (IVA)=26.00"}, snapshot(doc.Lines[0].Totals))
}

func TestCalculator_TaxAccountsCopiedToTotals(t *testing.T) {
	catalog := salesCatalog()
	catalog.Taxes[0].CreditAccountCode = " vat_payable "
	calc := newSalesCalculator(t, catalog)
	doc := invoice(companyID, line(widgetID, "1", "100"))

	require.NoError(t, calc.Recompute(doc))

	lineTotal := doc.Lines[0].Totals[0]
	assert.Equal(t, "vat_payable", lineTotal.CreditAccountCode)
	assert.True(t, lineTotal.IncludeInTransaction)

	docTotal := doc.Totals[1]
	assert.Equal(t, "vat_payable", docTotal.CreditAccountCode)
	assert.True(t, docTotal.IncludeInTransaction)
}

func TestComputeTaxAmount(t *testing.T) {
	cases := []struct {
		name     string
		tax      taxdomain.Tax
		base     string
		quantity string
		want     string
	}{
		{"percentage", taxdomain.Tax{TaxType: taxdomain.TaxTypePercentage, Percentage: dec("13")}, "151", "1", "19.63"},
		{"percentage rounds half up", taxdomain.Tax{TaxType: taxdomain.TaxTypePercentage, Percentage: dec("10")}, "0.05", "1", "0.01"},
		{"fixed ignores base", taxdomain.Tax{TaxType: taxdomain.TaxTypeFixedAmount, Amount: dec("7.5")}, "1000", "4", "7.50"},
		{"per unit", taxdomain.Tax{TaxType: taxdomain.TaxTypeAmountPerUnit, Amount: dec("0.25")}, "10", "3", "0.75"},
		{"unknown type", taxdomain.Tax{TaxType: "tiered", Percentage: dec("50"), Amount: dec("9")}, "100", "1", "0"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assertDecimal(t, tc.want, ComputeTaxAmount(tc.tax, dec(tc.base), dec(tc.quantity)))
		})
	}
}

func TestCalculator_InvalidArguments(t *testing.T) {
	_, err := NewCalculator(nil)
	assert.ErrorIs(t, err, taxdomain.ErrInvalidArgument)

	calc := newSalesCalculator(t, salesCatalog())
	doc := invoice(companyID, line(widgetID, "1", "1"))

	assert.ErrorIs(t, calc.CalculateLineTaxes(nil, doc.Lines[0]), taxdomain.ErrInvalidArgument)
	assert.ErrorIs(t, calc.CalculateLineTaxes(doc, nil), taxdomain.ErrInvalidArgument)
	assert.ErrorIs(t, calc.CalculateDocumentTaxes(nil), taxdomain.ErrInvalidArgument)

	err = calc.Recompute(nil)
	assert.ErrorIs(t, err, taxdomain.ErrInvalidArgument)
	assert.ErrorIs(t, err, documentdomain.ErrInvalidDocument)

	doc.DocumentType = nil
	assert.ErrorIs(t, calc.Recompute(doc), documentdomain.ErrInvalidDocumentType)
}

func TestCalculator_RecomputeLeavesTotalsOnEvaluatorError(t *testing.T) {
	boom := errors.New("boom")
	ev := new(mockEvaluator)
	ev.On("GetApplicableLineTaxes", mock.Anything, "", mock.Anything).Return([]taxdomain.Tax{vat(1)}, nil)
	ev.On("GetApplicableDocumentTaxes", mock.Anything, "").Return(nil, boom)

	calc, err := NewCalculator(ev)
	require.NoError(t, err)

	doc := invoice(companyID, line(widgetID, "1", "100"))
	doc.Lines[0].Totals = []documentdomain.Total{{Concept: "Tax: Old (OLD)", Total: dec("1")}}
	doc.Totals = []documentdomain.Total{{Concept: "Freight", Total: dec("3")}}

	assert.ErrorIs(t, calc.Recompute(doc), boom)
	assert.Equal(t, []string{"Tax: Old (OLD)=1.00"}, snapshot(doc.Lines[0].Totals))
	assert.Equal(t, []string{"Freight=3.00"}, snapshot(doc.Totals))
	ev.AssertExpectations(t)
}
