package domain

import "errors"

var (
	ErrInvalidArgument       = errors.New("invalid_argument")
	ErrInvalidDocument       = errors.New("invalid_document")
	ErrInvalidEntryType      = errors.New("invalid_entry_type")
	ErrInvalidEntryAmount    = errors.New("invalid_entry_amount")
	ErrInvalidAccount        = errors.New("invalid_account")
	ErrInvalidAccountKey     = errors.New("invalid_account_key")
	ErrEmptyTransaction      = errors.New("empty_transaction")
	ErrAccountNotFound       = errors.New("account_not_found")
	ErrUnbalancedTransaction = errors.New("unbalanced_transaction")
	ErrDuplicateTransaction  = errors.New("duplicate_transaction")
)
