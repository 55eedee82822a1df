package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/bwmarrin/snowflake"
	ledgerdomain "github.com/smallbiznis/taxledger/internal/ledger/domain"
	"github.com/smallbiznis/taxledger/pkg/db"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) ledgerdomain.Repository {
	return &repository{db: db}
}

// CreateTransaction writes the header and every entry in one database
// transaction. A second transaction for the same document is rejected.
func (r *repository) CreateTransaction(ctx context.Context, txn *ledgerdomain.Transaction, entries []ledgerdomain.LedgerEntry) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Exec(
			`INSERT INTO transactions (
				id, document_id, document_type, date, description, created_at
			) VALUES (?, ?, ?, ?, ?, ?)`,
			txn.ID,
			txn.DocumentID,
			txn.DocumentType,
			txn.Date.UTC(),
			txn.Description,
			txn.CreatedAt.UTC(),
		).Error; err != nil {
			if db.IsDuplicateKeyErr(err) {
				return fmt.Errorf("%w: document %s", ledgerdomain.ErrDuplicateTransaction, txn.DocumentID)
			}
			return fmt.Errorf("failed to insert transaction: %w", err)
		}

		for _, entry := range entries {
			if err := tx.Exec(
				`INSERT INTO ledger_entries (
					id, transaction_id, account_id, account_key, account_name, entry_type,
					amount, description, person_id, cost_centre_id, created_at
				) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
				entry.ID,
				txn.ID,
				entry.AccountID,
				entry.AccountKey,
				entry.AccountName,
				string(entry.EntryType),
				entry.Amount,
				entry.Description,
				entry.PersonID,
				entry.CostCentreID,
				entry.CreatedAt.UTC(),
			).Error; err != nil {
				return fmt.Errorf("failed to insert ledger entry: %w", err)
			}
		}
		return nil
	})
}

func (r *repository) FindTransactionByDocument(ctx context.Context, documentID snowflake.ID) (*ledgerdomain.Transaction, error) {
	var txn ledgerdomain.Transaction
	err := r.db.WithContext(ctx).Where("document_id = ?", documentID).First(&txn).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &txn, nil
}

func (r *repository) ListEntries(ctx context.Context, transactionID snowflake.ID) ([]ledgerdomain.LedgerEntry, error) {
	var entries []ledgerdomain.LedgerEntry
	if err := r.db.WithContext(ctx).
		Where("transaction_id = ?", transactionID).
		Order("id ASC").
		Find(&entries).Error; err != nil {
		return nil, err
	}
	return entries, nil
}

func (r *repository) UpsertAccountMapping(ctx context.Context, mapping *ledgerdomain.AccountMapping) error {
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "account_key"}},
		DoUpdates: clause.AssignmentColumns([]string{"account_id", "name", "updated_at"}),
	}).Create(mapping).Error
}

func (r *repository) ListAccountMappings(ctx context.Context) ([]ledgerdomain.AccountMapping, error) {
	var mappings []ledgerdomain.AccountMapping
	if err := r.db.WithContext(ctx).Order("account_key ASC").Find(&mappings).Error; err != nil {
		return nil, err
	}
	return mappings, nil
}
