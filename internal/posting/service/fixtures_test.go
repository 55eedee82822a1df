package service

import (
	"context"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	"github.com/smallbiznis/taxledger/internal/clock"
	documentdomain "github.com/smallbiznis/taxledger/internal/document/domain"
	ledgerdomain "github.com/smallbiznis/taxledger/internal/ledger/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

var docDate = time.Date(2026, 4, 15, 0, 0, 0, 0, time.UTC)

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func assertAmount(t *testing.T, want string, got decimal.Decimal) {
	t.Helper()
	assert.Truef(t, dec(want).Equal(got), "want %s, got %s", want, got.String())
}

func testNode(t *testing.T) *snowflake.Node {
	t.Helper()
	node, err := snowflake.NewNode(3)
	require.NoError(t, err)
	return node
}

func defaultAccounts() ledgerdomain.AccountMap {
	return ledgerdomain.NewAccountMap(map[string]snowflake.ID{
		"accounts_receivable": 1100,
		"accounts_payable":    2100,
		"sales":               4000,
		"sales_returns":       4100,
		"purchases":           5000,
		"tax_payable":         2200,
		"tax_receivable":      1200,
	})
}

func testConfig(t *testing.T, accounts ledgerdomain.AccountMap) GeneratorConfig {
	return GeneratorConfig{
		Accounts: accounts,
		Log:      zap.NewNop(),
		GenID:    testNode(t),
		Clock:    clock.NewFakeClock(time.Date(2026, 4, 16, 8, 0, 0, 0, time.UTC)),
	}
}

// salesInvoice is a taxed invoice as the tax calculator leaves it.
func salesInvoice() *documentdomain.Document {
	doc := &documentdomain.Document{
		ID:             700,
		Number:         "INV-0007",
		Date:           docDate,
		BusinessEntity: &documentdomain.BusinessEntity{ID: 42, Name: "Acme"},
		DocumentType:   &documentdomain.DocumentType{Code: "SALES_INVOICE", Operation: "sale"},
	}
	doc.AddLine(&documentdomain.Line{Quantity: dec("3"), UnitPrice: dec("100")})
	doc.AddLine(&documentdomain.Line{Quantity: dec("1"), UnitPrice: dec("151")})
	doc.Totals = []documentdomain.Total{
		{Concept: "Subtotal", Total: dec("451")},
		{Concept: "Tax: VAT (IVA)", Total: dec("58.63")},
	}
	return doc
}

func byKey(entries []ledgerdomain.LedgerEntry) map[string]ledgerdomain.LedgerEntry {
	out := make(map[string]ledgerdomain.LedgerEntry, len(entries))
	for _, e := range entries {
		out[e.AccountKey] = e
	}
	return out
}

type mockSink struct {
	mock.Mock
}

func (m *mockSink) CreateTransaction(ctx context.Context, txn *ledgerdomain.Transaction, entries []ledgerdomain.LedgerEntry) error {
	args := m.Called(ctx, txn, entries)
	return args.Error(0)
}
