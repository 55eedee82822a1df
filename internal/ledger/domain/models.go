package domain

import (
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
)

// EntryType is the side of a ledger entry.
type EntryType string

const (
	EntryTypeDebit  EntryType = "debit"
	EntryTypeCredit EntryType = "credit"
)

// Opposite flips debit and credit.
func (t EntryType) Opposite() EntryType {
	if t == EntryTypeDebit {
		return EntryTypeCredit
	}
	return EntryTypeDebit
}

// ParseEntryType accepts debit or credit in any case.
func ParseEntryType(value string) (EntryType, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case string(EntryTypeDebit):
		return EntryTypeDebit, nil
	case string(EntryTypeCredit):
		return EntryTypeCredit, nil
	default:
		return "", ErrInvalidEntryType
	}
}

// Transaction is the immutable header of a posted document.
type Transaction struct {
	ID           snowflake.ID `gorm:"primaryKey" json:"id"`
	DocumentID   snowflake.ID `gorm:"column:document_id;not null;uniqueIndex:ux_transactions_document" json:"document_id"`
	DocumentType string       `gorm:"column:document_type;type:text;not null" json:"document_type"`
	Date         time.Time    `gorm:"not null" json:"date"`
	Description  string       `gorm:"type:text" json:"description"`
	CreatedAt    time.Time    `gorm:"not null" json:"created_at"`
}

// TableName sets the database table name.
func (Transaction) TableName() string { return "transactions" }

// LedgerEntry is one side of a transaction. Amount is never negative.
type LedgerEntry struct {
	ID            snowflake.ID    `gorm:"primaryKey" json:"id"`
	TransactionID snowflake.ID    `gorm:"column:transaction_id;not null;index" json:"transaction_id"`
	AccountID     snowflake.ID    `gorm:"column:account_id;not null;index" json:"account_id"`
	AccountKey    string          `gorm:"column:account_key;type:text;not null" json:"account_key"`
	AccountName   string          `gorm:"column:account_name;type:text" json:"account_name,omitempty"`
	EntryType     EntryType       `gorm:"column:entry_type;type:text;not null" json:"entry_type"`
	Amount        decimal.Decimal `gorm:"type:numeric(18,2);not null" json:"amount"`
	Description   string          `gorm:"type:text" json:"description,omitempty"`
	PersonID      *snowflake.ID   `gorm:"column:person_id" json:"person_id,omitempty"`
	CostCentreID  *snowflake.ID   `gorm:"column:cost_centre_id" json:"cost_centre_id,omitempty"`
	CreatedAt     time.Time       `gorm:"not null" json:"created_at"`
}

// TableName sets the database table name.
func (LedgerEntry) TableName() string { return "ledger_entries" }

// AccountMapping binds an account key used by templates and totals to a
// chart-of-accounts identifier.
type AccountMapping struct {
	ID        snowflake.ID `gorm:"primaryKey"`
	Key       string       `gorm:"column:account_key;type:text;not null;uniqueIndex:ux_account_mappings_key"`
	AccountID snowflake.ID `gorm:"column:account_id;not null"`
	Name      string       `gorm:"type:text"`
	CreatedAt time.Time    `gorm:"not null"`
	UpdatedAt time.Time    `gorm:"not null"`
}

// TableName sets the database table name.
func (AccountMapping) TableName() string { return "account_mappings" }
