package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	"github.com/smallbiznis/taxledger/internal/clock"
	"github.com/smallbiznis/taxledger/internal/config"
	ledgerdomain "github.com/smallbiznis/taxledger/internal/ledger/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

type Params struct {
	fx.In

	Repo   ledgerdomain.Repository
	Log    *zap.Logger
	GenID  *snowflake.Node
	Clock  clock.Clock
	Config config.Config
}

type Service struct {
	repo      ledgerdomain.Repository
	log       *zap.Logger
	genID     *snowflake.Node
	clock     clock.Clock
	tolerance decimal.Decimal
}

func NewService(p Params) ledgerdomain.Service {
	return &Service{
		repo:      p.Repo,
		log:       p.Log.Named("ledger.service"),
		genID:     p.GenID,
		clock:     p.Clock,
		tolerance: ParseTolerance(p.Config.Posting.BalanceTolerance),
	}
}

// ParseTolerance reads a decimal tolerance, falling back to the default
// for blank, malformed or non-positive values.
func ParseTolerance(value string) decimal.Decimal {
	value = strings.TrimSpace(value)
	if value == "" {
		return ledgerdomain.DefaultBalanceTolerance
	}
	tolerance, err := decimal.NewFromString(value)
	if err != nil || !tolerance.IsPositive() {
		return ledgerdomain.DefaultBalanceTolerance
	}
	return tolerance
}

// CreateTransaction validates a generated transaction and persists it.
// Missing IDs and timestamps are filled in.
func (s *Service) CreateTransaction(ctx context.Context, txn *ledgerdomain.Transaction, entries []ledgerdomain.LedgerEntry) error {
	if txn == nil {
		return fmt.Errorf("%w: transaction is nil", ledgerdomain.ErrInvalidArgument)
	}
	if txn.DocumentID == 0 {
		return ledgerdomain.ErrInvalidDocument
	}
	if len(entries) == 0 {
		return ledgerdomain.ErrEmptyTransaction
	}

	now := s.clock.Now()
	if txn.ID == 0 {
		txn.ID = s.genID.Generate()
	}
	if txn.CreatedAt.IsZero() {
		txn.CreatedAt = now
	}
	if txn.Date.IsZero() {
		txn.Date = now
	}

	normalized := make([]ledgerdomain.LedgerEntry, 0, len(entries))
	for _, entry := range entries {
		if entry.AccountID == 0 {
			return fmt.Errorf("%w: %s", ledgerdomain.ErrInvalidAccount, entry.AccountKey)
		}
		entryType, err := ledgerdomain.ParseEntryType(string(entry.EntryType))
		if err != nil {
			return err
		}
		if entry.Amount.IsNegative() {
			return fmt.Errorf("%w: %s", ledgerdomain.ErrInvalidEntryAmount, entry.Amount.String())
		}

		entry.EntryType = entryType
		entry.TransactionID = txn.ID
		if entry.ID == 0 {
			entry.ID = s.genID.Generate()
		}
		if entry.CreatedAt.IsZero() {
			entry.CreatedAt = now
		}
		normalized = append(normalized, entry)
	}

	if err := ledgerdomain.ValidateBalanced(normalized, s.tolerance); err != nil {
		return err
	}

	if err := s.repo.CreateTransaction(ctx, txn, normalized); err != nil {
		return err
	}

	debit, _ := ledgerdomain.SumEntries(normalized)
	s.log.Info("transaction recorded",
		zap.String("transaction_id", txn.ID.String()),
		zap.String("document_id", txn.DocumentID.String()),
		zap.String("document_type", txn.DocumentType),
		zap.Int("entries", len(normalized)),
		zap.String("amount", debit.StringFixed(2)),
	)
	return nil
}

func (s *Service) SetAccount(ctx context.Context, key string, accountID snowflake.ID, name string) (*ledgerdomain.AccountMapping, error) {
	key = strings.ToUpper(strings.TrimSpace(key))
	if key == "" {
		return nil, ledgerdomain.ErrInvalidAccountKey
	}
	if accountID == 0 {
		return nil, ledgerdomain.ErrInvalidAccount
	}

	now := s.clock.Now()
	mapping := &ledgerdomain.AccountMapping{
		ID:        s.genID.Generate(),
		Key:       key,
		AccountID: accountID,
		Name:      strings.TrimSpace(name),
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.repo.UpsertAccountMapping(ctx, mapping); err != nil {
		return nil, err
	}
	return mapping, nil
}

// Accounts snapshots the persisted account mappings.
func (s *Service) Accounts(ctx context.Context) (ledgerdomain.AccountMap, error) {
	mappings, err := s.repo.ListAccountMappings(ctx)
	if err != nil {
		return ledgerdomain.AccountMap{}, fmt.Errorf("load account mappings: %w", err)
	}
	return ledgerdomain.AccountMapFromMappings(mappings), nil
}

func (s *Service) Transaction(ctx context.Context, documentID snowflake.ID) (*ledgerdomain.Transaction, []ledgerdomain.LedgerEntry, error) {
	txn, err := s.repo.FindTransactionByDocument(ctx, documentID)
	if err != nil {
		return nil, nil, err
	}
	if txn == nil {
		return nil, nil, nil
	}
	entries, err := s.repo.ListEntries(ctx, txn.ID)
	if err != nil {
		return nil, nil, err
	}
	return txn, entries, nil
}
