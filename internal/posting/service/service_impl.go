package service

import (
	"context"
	"fmt"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	"github.com/smallbiznis/taxledger/internal/clock"
	"github.com/smallbiznis/taxledger/internal/config"
	documentdomain "github.com/smallbiznis/taxledger/internal/document/domain"
	ledgerdomain "github.com/smallbiznis/taxledger/internal/ledger/domain"
	ledgerservice "github.com/smallbiznis/taxledger/internal/ledger/service"
	obsmetrics "github.com/smallbiznis/taxledger/internal/observability/metrics"
	postingdomain "github.com/smallbiznis/taxledger/internal/posting/domain"
	taxdomain "github.com/smallbiznis/taxledger/internal/tax/domain"
	"github.com/smallbiznis/taxledger/pkg/log/ctxlogger"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

type Params struct {
	fx.In

	Registry   postingdomain.Registry
	Engine     taxdomain.Engine
	Ledger     ledgerdomain.Service
	Accounts   postingdomain.AccountSource
	Config     config.Config
	Log        *zap.Logger
	GenID      *snowflake.Node
	Clock      clock.Clock
	ObsMetrics *obsmetrics.Metrics `optional:"true"`
}

type Service struct {
	registry   postingdomain.Registry
	engine     taxdomain.Engine
	ledger     ledgerdomain.Service
	accounts   postingdomain.AccountSource
	log        *zap.Logger
	genID      *snowflake.Node
	clock      clock.Clock
	obsMetrics *obsmetrics.Metrics

	tolerance          decimal.Decimal
	templateUnresolved postingdomain.UnresolvedPolicy
	totalsUnresolved   postingdomain.UnresolvedPolicy
}

func NewService(p Params) postingdomain.Service {
	return &Service{
		registry:   p.Registry,
		engine:     p.Engine,
		ledger:     p.Ledger,
		accounts:   p.Accounts,
		log:        p.Log.Named("posting.service"),
		genID:      p.GenID,
		clock:      p.Clock,
		obsMetrics: p.ObsMetrics,

		tolerance:          ledgerservice.ParseTolerance(p.Config.Posting.BalanceTolerance),
		templateUnresolved: postingdomain.ParseUnresolvedPolicy(p.Config.Posting.TemplateUnresolved, postingdomain.UnresolvedFail),
		totalsUnresolved:   postingdomain.ParseUnresolvedPolicy(p.Config.Posting.TotalsUnresolved, postingdomain.UnresolvedSkip),
	}
}

// Post recomputes the document's taxes, generates its transaction and
// records it in the ledger.
func (s *Service) Post(ctx context.Context, doc *documentdomain.Document, mode postingdomain.Mode) (*ledgerdomain.Transaction, []ledgerdomain.LedgerEntry, error) {
	return s.run(ctx, doc, mode, true)
}

func (s *Service) Preview(ctx context.Context, doc *documentdomain.Document, mode postingdomain.Mode) (*ledgerdomain.Transaction, []ledgerdomain.LedgerEntry, error) {
	return s.run(ctx, doc, mode, false)
}

func (s *Service) run(ctx context.Context, doc *documentdomain.Document, mode postingdomain.Mode, persist bool) (*ledgerdomain.Transaction, []ledgerdomain.LedgerEntry, error) {
	if doc == nil {
		return nil, nil, fmt.Errorf("%w: document is nil", postingdomain.ErrInvalidArgument)
	}
	var typeCode string
	if doc.DocumentType != nil {
		typeCode = doc.DocumentType.Code
	}
	ctx = ctxlogger.ContextWithDocument(ctx, doc.ID.String(), doc.Number, typeCode)
	log := ctxlogger.WithContext(ctx, s.log)

	if err := s.engine.Calculate(ctx, doc); err != nil {
		return nil, nil, fmt.Errorf("calculate taxes: %w", err)
	}

	accounts, err := s.accounts.Accounts(ctx)
	if err != nil {
		return nil, nil, err
	}

	var (
		txn     *ledgerdomain.Transaction
		entries []ledgerdomain.LedgerEntry
	)
	switch mode {
	case postingdomain.ModeTemplate, "":
		gen, err := NewTemplateGenerator(s.registry, s.generatorConfig(accounts, s.templateUnresolved))
		if err != nil {
			return nil, nil, err
		}
		txn, entries, err = gen.Generate(ctx, doc)
		if err != nil {
			return nil, nil, err
		}
		if persist && len(entries) > 0 {
			if err := s.ledger.CreateTransaction(ctx, txn, entries); err != nil {
				return nil, nil, err
			}
		}
	case postingdomain.ModeTotals:
		var sink ledgerdomain.TransactionSink
		if persist {
			sink = s.ledger
		}
		gen, err := NewTotalsGenerator(sink, s.generatorConfig(accounts, s.totalsUnresolved))
		if err != nil {
			return nil, nil, err
		}
		txn, entries, err = gen.Generate(ctx, doc)
		if err != nil {
			return nil, nil, err
		}
	default:
		return nil, nil, fmt.Errorf("%w: %s", postingdomain.ErrInvalidMode, mode)
	}

	log.Info("document posted",
		zap.String("mode", string(mode)),
		zap.Bool("persisted", persist && len(entries) > 0),
		zap.Int("entries", len(entries)),
	)
	return txn, entries, nil
}

func (s *Service) generatorConfig(accounts ledgerdomain.AccountMap, policy postingdomain.UnresolvedPolicy) GeneratorConfig {
	return GeneratorConfig{
		Accounts:  accounts,
		Tolerance: s.tolerance,
		Policy:    policy,
		Log:       s.log,
		Metrics:   s.obsMetrics,
		GenID:     s.genID,
		Clock:     s.clock,
	}
}
