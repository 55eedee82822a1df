package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	"github.com/smallbiznis/taxledger/internal/clock"
	documentdomain "github.com/smallbiznis/taxledger/internal/document/domain"
	ledgerdomain "github.com/smallbiznis/taxledger/internal/ledger/domain"
	obsmetrics "github.com/smallbiznis/taxledger/internal/observability/metrics"
	postingdomain "github.com/smallbiznis/taxledger/internal/posting/domain"
	"go.uber.org/zap"
)

// GeneratorConfig is shared by both generators. Accounts is copied by
// value and never modified.
type GeneratorConfig struct {
	Accounts  ledgerdomain.AccountMap
	Tolerance decimal.Decimal
	Policy    postingdomain.UnresolvedPolicy
	Log       *zap.Logger
	Metrics   *obsmetrics.Metrics
	GenID     *snowflake.Node
	Clock     clock.Clock
}

type generator struct {
	name      string
	accounts  ledgerdomain.AccountMap
	tolerance decimal.Decimal
	policy    postingdomain.UnresolvedPolicy
	log       *zap.Logger
	metrics   *obsmetrics.Metrics
	genID     *snowflake.Node
	clock     clock.Clock
}

func newGenerator(name string, cfg GeneratorConfig, defaultPolicy postingdomain.UnresolvedPolicy) (generator, error) {
	if cfg.GenID == nil {
		return generator{}, fmt.Errorf("%w: id generator is nil", postingdomain.ErrInvalidArgument)
	}
	log := cfg.Log
	if log == nil {
		log = zap.NewNop()
	}
	clk := cfg.Clock
	if clk == nil {
		clk = clock.New()
	}
	tolerance := cfg.Tolerance
	if !tolerance.IsPositive() {
		tolerance = ledgerdomain.DefaultBalanceTolerance
	}
	policy := postingdomain.ParseUnresolvedPolicy(string(cfg.Policy), defaultPolicy)

	return generator{
		name:      name,
		accounts:  cfg.Accounts,
		tolerance: tolerance,
		policy:    policy,
		log:       log.Named(name),
		metrics:   cfg.Metrics,
		genID:     cfg.GenID,
		clock:     clk,
	}, nil
}

func (g *generator) checkDocument(ctx context.Context, doc *documentdomain.Document) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if doc == nil {
		return fmt.Errorf("%w: document is nil", postingdomain.ErrInvalidArgument)
	}
	if doc.DocumentType == nil {
		return fmt.Errorf("%w: document type is nil", postingdomain.ErrInvalidArgument)
	}
	return nil
}

func (g *generator) newTransaction(doc *documentdomain.Document, description string) *ledgerdomain.Transaction {
	now := g.clock.Now()
	date := doc.Date
	if date.IsZero() {
		date = now
	}
	return &ledgerdomain.Transaction{
		ID:           g.genID.Generate(),
		DocumentID:   doc.ID,
		DocumentType: strings.TrimSpace(doc.DocumentType.Code),
		Date:         date,
		Description:  description,
		CreatedAt:    now,
	}
}

func (g *generator) newEntry(txn *ledgerdomain.Transaction, key string, accountID snowflake.ID, entryType ledgerdomain.EntryType, amount decimal.Decimal, description string) ledgerdomain.LedgerEntry {
	key = strings.TrimSpace(key)
	return ledgerdomain.LedgerEntry{
		ID:            g.genID.Generate(),
		TransactionID: txn.ID,
		AccountID:     accountID,
		AccountKey:    key,
		AccountName:   g.accounts.Name(key),
		EntryType:     entryType,
		Amount:        amount,
		Description:   description,
		CreatedAt:     txn.CreatedAt,
	}
}

// resolve looks key up. With the skip policy a missing key reports
// ok=false and a nil error.
func (g *generator) resolve(key string) (snowflake.ID, bool, error) {
	id, ok := g.accounts.Lookup(key)
	if ok {
		return id, true, nil
	}
	if g.policy == postingdomain.UnresolvedSkip {
		g.log.Warn("account key not mapped, entry skipped", zap.String("account_key", key))
		return 0, false, nil
	}
	return 0, false, fmt.Errorf("%w: %s", ledgerdomain.ErrAccountNotFound, key)
}

func (g *generator) record(ctx context.Context, documentType string, err error, entries int) {
	g.metrics.RecordTransaction(ctx, g.name, documentType, outcome(err), entries)
}

func outcome(err error) string {
	var unbalanced *ledgerdomain.UnbalancedError
	switch {
	case err == nil:
		return obsmetrics.OutcomeSuccess
	case errors.As(err, &unbalanced):
		return obsmetrics.OutcomeUnbalanced
	case errors.Is(err, postingdomain.ErrTemplateNotFound):
		return obsmetrics.OutcomeMissingTemplate
	case errors.Is(err, ledgerdomain.ErrAccountNotFound):
		return obsmetrics.OutcomeMissingAccount
	default:
		return obsmetrics.OutcomeError
	}
}
