package service

import (
	"context"
	"fmt"
	"strings"

	documentdomain "github.com/smallbiznis/taxledger/internal/document/domain"
	ledgerdomain "github.com/smallbiznis/taxledger/internal/ledger/domain"
	obsmetrics "github.com/smallbiznis/taxledger/internal/observability/metrics"
	postingdomain "github.com/smallbiznis/taxledger/internal/posting/domain"
	"go.uber.org/zap"
)

// TotalsGenerator posts the document totals that carry account codes,
// without a template, and hands the result to a sink.
type TotalsGenerator struct {
	generator
	sink ledgerdomain.TransactionSink
}

// NewTotalsGenerator defaults to skipping unmapped account codes. A nil
// sink generates without persisting.
func NewTotalsGenerator(sink ledgerdomain.TransactionSink, cfg GeneratorConfig) (*TotalsGenerator, error) {
	base, err := newGenerator(obsmetrics.GeneratorTotals, cfg, postingdomain.UnresolvedSkip)
	if err != nil {
		return nil, err
	}
	return &TotalsGenerator{generator: base, sink: sink}, nil
}

// Generate emits a debit entry for a total's debit account and a credit
// entry for its credit account, each for the full amount. Negative totals
// swap sides and zero totals are ignored. The entries are persisted only
// when they balance and at least one was produced.
func (g *TotalsGenerator) Generate(ctx context.Context, doc *documentdomain.Document) (*ledgerdomain.Transaction, []ledgerdomain.LedgerEntry, error) {
	if err := g.checkDocument(ctx, doc); err != nil {
		return nil, nil, err
	}
	code := strings.TrimSpace(doc.DocumentType.Code)

	txn, entries, err := g.build(doc, code)
	if err == nil && len(entries) > 0 && g.sink != nil {
		err = g.sink.CreateTransaction(ctx, txn, entries)
	}
	g.record(ctx, code, err, len(entries))
	if err != nil {
		g.log.Warn("transaction generation failed",
			zap.String("document_id", doc.ID.String()),
			zap.String("document_type", code),
			zap.Error(err),
		)
		return nil, nil, err
	}

	if len(entries) == 0 {
		g.log.Info("document has no postable totals", zap.String("document_id", doc.ID.String()))
	}
	return txn, entries, nil
}

type side struct {
	code      string
	entryType ledgerdomain.EntryType
}

func (g *TotalsGenerator) build(doc *documentdomain.Document, code string) (*ledgerdomain.Transaction, []ledgerdomain.LedgerEntry, error) {
	txn := g.newTransaction(doc, fmt.Sprintf("%s %s", code, documentRef(doc)))
	entries := make([]ledgerdomain.LedgerEntry, 0, len(doc.Totals)*2)

	for _, total := range doc.Totals {
		if !total.IncludeInTransaction && !total.HasAccount() {
			continue
		}
		if total.Total.IsZero() {
			continue
		}

		debit, credit := ledgerdomain.EntryTypeDebit, ledgerdomain.EntryTypeCredit
		if total.Total.IsNegative() {
			debit, credit = credit, debit
		}
		amount := total.Total.Abs()

		for _, s := range []side{
			{code: total.DebitAccountCode, entryType: debit},
			{code: total.CreditAccountCode, entryType: credit},
		} {
			key := strings.TrimSpace(s.code)
			if key == "" {
				continue
			}
			accountID, ok, err := g.resolve(key)
			if err != nil {
				return nil, nil, err
			}
			if !ok {
				continue
			}
			entries = append(entries, g.newEntry(txn, key, accountID, s.entryType, amount, total.Concept))
		}
	}

	if err := ledgerdomain.ValidateBalanced(entries, g.tolerance); err != nil {
		return nil, nil, err
	}
	return txn, entries, nil
}

var _ postingdomain.Generator = (*TotalsGenerator)(nil)
