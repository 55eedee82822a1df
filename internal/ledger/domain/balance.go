package domain

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// DefaultBalanceTolerance is the largest debit/credit difference accepted
// as balanced, exclusive.
var DefaultBalanceTolerance = decimal.RequireFromString("0.01")

// UnbalancedError reports the totals of a transaction whose sides differ.
type UnbalancedError struct {
	Debit      decimal.Decimal
	Credit     decimal.Decimal
	Difference decimal.Decimal
}

func (e *UnbalancedError) Error() string {
	return fmt.Sprintf("%s: debit %s, credit %s, difference %s",
		ErrUnbalancedTransaction.Error(),
		e.Debit.StringFixed(2),
		e.Credit.StringFixed(2),
		e.Difference.StringFixed(2),
	)
}

func (e *UnbalancedError) Unwrap() error { return ErrUnbalancedTransaction }

// SumEntries returns the debit and credit totals of entries.
func SumEntries(entries []LedgerEntry) (debit, credit decimal.Decimal) {
	debit, credit = decimal.Zero, decimal.Zero
	for _, entry := range entries {
		switch entry.EntryType {
		case EntryTypeDebit:
			debit = debit.Add(entry.Amount)
		case EntryTypeCredit:
			credit = credit.Add(entry.Amount)
		}
	}
	return debit, credit
}

// ValidateBalanced fails with *UnbalancedError when the absolute difference
// between debits and credits is not below tolerance. A non-positive
// tolerance falls back to DefaultBalanceTolerance.
func ValidateBalanced(entries []LedgerEntry, tolerance decimal.Decimal) error {
	if !tolerance.IsPositive() {
		tolerance = DefaultBalanceTolerance
	}
	debit, credit := SumEntries(entries)
	diff := debit.Sub(credit).Abs()
	if diff.LessThan(tolerance) {
		return nil
	}
	return &UnbalancedError{Debit: debit, Credit: credit, Difference: diff}
}
