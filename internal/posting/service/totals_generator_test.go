package service

import (
	"context"
	"errors"
	"testing"

	"github.com/bwmarrin/snowflake"
	documentdomain "github.com/smallbiznis/taxledger/internal/document/domain"
	ledgerdomain "github.com/smallbiznis/taxledger/internal/ledger/domain"
	postingdomain "github.com/smallbiznis/taxledger/internal/posting/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func totalsAccounts() ledgerdomain.AccountMap {
	return ledgerdomain.NewAccountMap(map[string]snowflake.ID{
		"AR":          1100,
		"SALES":       4000,
		"VAT_PAYABLE": 2200,
		"VAT_CONTROL": 2210,
	})
}

// postableInvoice carries account codes on its totals the way the tax
// calculator copies them from tax definitions.
func postableInvoice() *documentdomain.Document {
	doc := salesInvoice()
	doc.Totals = []documentdomain.Total{
		{Concept: "Subtotal", Total: dec("451"), CreditAccountCode: "sales"},
		{Concept: "Tax: VAT (IVA)", Total: dec("58.63"), CreditAccountCode: "VAT_PAYABLE", IncludeInTransaction: true},
		{Concept: "Receivable", Total: dec("509.63"), DebitAccountCode: "AR", IncludeInTransaction: true},
		{Concept: "Memo", Total: dec("999")},
	}
	return doc
}

func newTotalsGenerator(t *testing.T, sink ledgerdomain.TransactionSink, cfg GeneratorConfig) *TotalsGenerator {
	t.Helper()
	gen, err := NewTotalsGenerator(sink, cfg)
	require.NoError(t, err)
	return gen
}

func TestTotalsGenerator_PostsFlaggedTotals(t *testing.T) {
	sink := new(mockSink)
	sink.On("CreateTransaction", mock.Anything, mock.AnythingOfType("*domain.Transaction"), mock.Anything).Return(nil).Once()
	gen := newTotalsGenerator(t, sink, testConfig(t, totalsAccounts()))

	txn, entries, err := gen.Generate(context.Background(), postableInvoice())
	require.NoError(t, err)
	require.NotNil(t, txn)
	assert.Equal(t, "SALES_INVOICE INV-0007", txn.Description)

	require.Len(t, entries, 3)
	entriesByKey := byKey(entries)
	assert.Equal(t, ledgerdomain.EntryTypeCredit, entriesByKey["sales"].EntryType)
	assertAmount(t, "451", entriesByKey["sales"].Amount)
	assert.Equal(t, "Subtotal", entriesByKey["sales"].Description)
	assert.Equal(t, ledgerdomain.EntryTypeCredit, entriesByKey["VAT_PAYABLE"].EntryType)
	assert.Equal(t, ledgerdomain.EntryTypeDebit, entriesByKey["AR"].EntryType)
	assert.EqualValues(t, 1100, entriesByKey["AR"].AccountID)

	sink.AssertExpectations(t)
	persisted := sink.Calls[0].Arguments.Get(2).([]ledgerdomain.LedgerEntry)
	assert.Len(t, persisted, 3)
	assert.Same(t, txn, sink.Calls[0].Arguments.Get(1).(*ledgerdomain.Transaction))
}

func TestTotalsGenerator_SplitDebitCredit(t *testing.T) {
	gen := newTotalsGenerator(t, nil, testConfig(t, totalsAccounts()))
	doc := salesInvoice()
	doc.Totals = []documentdomain.Total{
		{Concept: "Tax: VAT (IVA)", Total: dec("58.63"), DebitAccountCode: "VAT_CONTROL", CreditAccountCode: "VAT_PAYABLE", IncludeInTransaction: true},
	}

	_, entries, err := gen.Generate(context.Background(), doc)
	require.NoError(t, err)
	require.Len(t, entries, 2)

	assert.Equal(t, ledgerdomain.EntryTypeDebit, entries[0].EntryType)
	assert.EqualValues(t, 2210, entries[0].AccountID)
	assert.Equal(t, ledgerdomain.EntryTypeCredit, entries[1].EntryType)
	assert.EqualValues(t, 2200, entries[1].AccountID)
	assertAmount(t, "58.63", entries[0].Amount)
	assertAmount(t, "58.63", entries[1].Amount)
}

func TestTotalsGenerator_NegativeTotalsSwapSides(t *testing.T) {
	gen := newTotalsGenerator(t, nil, testConfig(t, totalsAccounts()))
	doc := salesInvoice()
	doc.Totals = []documentdomain.Total{
		{Concept: "Refund", Total: dec("-20"), DebitAccountCode: "AR", CreditAccountCode: "SALES"},
		{Concept: "Rounding", Total: dec("0"), DebitAccountCode: "AR", CreditAccountCode: "SALES"},
	}

	_, entries, err := gen.Generate(context.Background(), doc)
	require.NoError(t, err)
	require.Len(t, entries, 2)

	entriesByKey := byKey(entries)
	assert.Equal(t, ledgerdomain.EntryTypeCredit, entriesByKey["AR"].EntryType)
	assert.Equal(t, ledgerdomain.EntryTypeDebit, entriesByKey["SALES"].EntryType)
	assertAmount(t, "20", entriesByKey["AR"].Amount)
	assertAmount(t, "20", entriesByKey["SALES"].Amount)
}

func TestTotalsGenerator_UnresolvedCodes(t *testing.T) {
	doc := salesInvoice()
	doc.Totals = []documentdomain.Total{
		{Concept: "Tax: VAT (IVA)", Total: dec("58.63"), DebitAccountCode: "VAT_CONTROL", CreditAccountCode: "VAT_PAYABLE", IncludeInTransaction: true},
		{Concept: "Tax: Eco (ECO)", Total: dec("2.50"), DebitAccountCode: "ECO_CONTROL", CreditAccountCode: "ECO_PAYABLE"},
	}

	skipping := newTotalsGenerator(t, nil, testConfig(t, totalsAccounts()))
	_, entries, err := skipping.Generate(context.Background(), doc)
	require.NoError(t, err)
	assert.Len(t, entries, 2)

	cfg := testConfig(t, totalsAccounts())
	cfg.Policy = postingdomain.UnresolvedFail
	sink := new(mockSink)
	failing := newTotalsGenerator(t, sink, cfg)

	txn, entries, err := failing.Generate(context.Background(), doc)
	assert.ErrorIs(t, err, ledgerdomain.ErrAccountNotFound)
	assert.Contains(t, err.Error(), "ECO_CONTROL")
	assert.Nil(t, txn)
	assert.Nil(t, entries)
	sink.AssertNotCalled(t, "CreateTransaction", mock.Anything, mock.Anything, mock.Anything)
}

func TestTotalsGenerator_UnbalancedIsNotPersisted(t *testing.T) {
	sink := new(mockSink)
	gen := newTotalsGenerator(t, sink, testConfig(t, totalsAccounts()))
	doc := salesInvoice()
	doc.Totals = []documentdomain.Total{
		{Concept: "Subtotal", Total: dec("451"), CreditAccountCode: "SALES"},
		{Concept: "Receivable", Total: dec("500"), DebitAccountCode: "AR"},
	}

	_, entries, err := gen.Generate(context.Background(), doc)
	assert.ErrorIs(t, err, ledgerdomain.ErrUnbalancedTransaction)
	assert.Nil(t, entries)
	sink.AssertNotCalled(t, "CreateTransaction", mock.Anything, mock.Anything, mock.Anything)
}

func TestTotalsGenerator_SinkErrorPropagates(t *testing.T) {
	sink := new(mockSink)
	sink.On("CreateTransaction", mock.Anything, mock.Anything, mock.Anything).Return(ledgerdomain.ErrDuplicateTransaction)
	gen := newTotalsGenerator(t, sink, testConfig(t, totalsAccounts()))

	txn, entries, err := gen.Generate(context.Background(), postableInvoice())
	assert.True(t, errors.Is(err, ledgerdomain.ErrDuplicateTransaction))
	assert.Nil(t, txn)
	assert.Nil(t, entries)
}

func TestTotalsGenerator_NothingToPost(t *testing.T) {
	sink := new(mockSink)
	gen := newTotalsGenerator(t, sink, testConfig(t, totalsAccounts()))
	doc := salesInvoice()

	txn, entries, err := gen.Generate(context.Background(), doc)
	require.NoError(t, err)
	assert.NotNil(t, txn)
	assert.Empty(t, entries)
	sink.AssertNotCalled(t, "CreateTransaction", mock.Anything, mock.Anything, mock.Anything)
}
