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

// TemplateGenerator builds a transaction from the template registered for
// the document's type. It returns the result without persisting it.
type TemplateGenerator struct {
	generator
	registry postingdomain.Registry
}

// NewTemplateGenerator defaults to failing on unmapped account keys.
func NewTemplateGenerator(registry postingdomain.Registry, cfg GeneratorConfig) (*TemplateGenerator, error) {
	if registry == nil {
		return nil, fmt.Errorf("%w: registry is nil", postingdomain.ErrInvalidArgument)
	}
	base, err := newGenerator(obsmetrics.GeneratorTemplate, cfg, postingdomain.UnresolvedFail)
	if err != nil {
		return nil, err
	}
	return &TemplateGenerator{generator: base, registry: registry}, nil
}

// Generate evaluates every template entry against doc. Entries with a
// non-positive amount are left out. The result must balance.
func (g *TemplateGenerator) Generate(ctx context.Context, doc *documentdomain.Document) (*ledgerdomain.Transaction, []ledgerdomain.LedgerEntry, error) {
	if err := g.checkDocument(ctx, doc); err != nil {
		return nil, nil, err
	}
	code := strings.TrimSpace(doc.DocumentType.Code)

	txn, entries, err := g.build(doc, code)
	g.record(ctx, code, err, len(entries))
	if err != nil {
		g.log.Warn("transaction generation failed",
			zap.String("document_id", doc.ID.String()),
			zap.String("document_type", code),
			zap.Error(err),
		)
		return nil, nil, err
	}

	g.log.Debug("transaction generated",
		zap.String("document_id", doc.ID.String()),
		zap.String("transaction_id", txn.ID.String()),
		zap.Int("entries", len(entries)),
	)
	return txn, entries, nil
}

func (g *TemplateGenerator) build(doc *documentdomain.Document, code string) (*ledgerdomain.Transaction, []ledgerdomain.LedgerEntry, error) {
	template, ok := g.registry.Template(code)
	if !ok {
		return nil, nil, fmt.Errorf("%w: %s", postingdomain.ErrTemplateNotFound, code)
	}

	txn := g.newTransaction(doc, template.Describe(doc))
	templateEntries := template.Entries()
	entries := make([]ledgerdomain.LedgerEntry, 0, len(templateEntries))

	for _, te := range templateEntries {
		amount := te.Amount(doc)
		if !amount.IsPositive() {
			continue
		}

		accountID, ok, err := g.resolve(te.AccountKey)
		if err != nil {
			return nil, nil, err
		}
		if !ok {
			continue
		}

		description := te.Description
		if description == "" {
			description = txn.Description
		}
		entry := g.newEntry(txn, te.AccountKey, accountID, te.EntryType, amount, description)
		if te.AccountName != "" {
			entry.AccountName = te.AccountName
		}
		if te.PersonFromEntity && doc.BusinessEntity != nil {
			person := doc.BusinessEntity.ID
			entry.PersonID = &person
		}
		if te.CostCentreID != nil {
			costCentre := *te.CostCentreID
			entry.CostCentreID = &costCentre
		}
		entries = append(entries, entry)
	}

	if err := ledgerdomain.ValidateBalanced(entries, g.tolerance); err != nil {
		return nil, nil, err
	}
	return txn, entries, nil
}

var _ postingdomain.Generator = (*TemplateGenerator)(nil)
