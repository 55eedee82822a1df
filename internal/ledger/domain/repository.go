package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
)

// TransactionSink persists a generated transaction and its entries
// atomically.
type TransactionSink interface {
	CreateTransaction(ctx context.Context, txn *Transaction, entries []LedgerEntry) error
}

type Repository interface {
	TransactionSink

	FindTransactionByDocument(ctx context.Context, documentID snowflake.ID) (*Transaction, error)
	ListEntries(ctx context.Context, transactionID snowflake.ID) ([]LedgerEntry, error)

	UpsertAccountMapping(ctx context.Context, mapping *AccountMapping) error
	ListAccountMappings(ctx context.Context) ([]AccountMapping, error)
}

// Service validates and records transactions and manages account mappings.
type Service interface {
	TransactionSink

	SetAccount(ctx context.Context, key string, accountID snowflake.ID, name string) (*AccountMapping, error)
	Accounts(ctx context.Context) (AccountMap, error)
	Transaction(ctx context.Context, documentID snowflake.ID) (*Transaction, []LedgerEntry, error)
}
