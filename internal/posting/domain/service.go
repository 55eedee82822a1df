package domain

import (
	"context"
	"strings"

	documentdomain "github.com/smallbiznis/taxledger/internal/document/domain"
	ledgerdomain "github.com/smallbiznis/taxledger/internal/ledger/domain"
)

// Registry holds templates keyed by document type code.
type Registry interface {
	// RegisterTemplate adds t, replacing any template for the same code.
	RegisterTemplate(t *Template) error
	Template(documentTypeCode string) (*Template, bool)
	Codes() []string
}

// Generator turns a document into a transaction and its entries. Nothing
// partial is returned on error.
type Generator interface {
	Generate(ctx context.Context, doc *documentdomain.Document) (*ledgerdomain.Transaction, []ledgerdomain.LedgerEntry, error)
}

// AccountSource supplies the account map used for one posting run.
type AccountSource interface {
	Accounts(ctx context.Context) (ledgerdomain.AccountMap, error)
}

// Mode selects the generator.
type Mode string

const (
	ModeTemplate Mode = "template"
	ModeTotals   Mode = "totals"
)

func ParseMode(value string) (Mode, error) {
	switch Mode(strings.ToLower(strings.TrimSpace(value))) {
	case ModeTemplate, "":
		return ModeTemplate, nil
	case ModeTotals:
		return ModeTotals, nil
	default:
		return "", ErrInvalidMode
	}
}

// UnresolvedPolicy decides what happens to an entry whose account key has
// no mapping.
type UnresolvedPolicy string

const (
	UnresolvedFail UnresolvedPolicy = "fail"
	UnresolvedSkip UnresolvedPolicy = "skip"
)

// ParseUnresolvedPolicy falls back to def for unrecognised values.
func ParseUnresolvedPolicy(value string, def UnresolvedPolicy) UnresolvedPolicy {
	switch UnresolvedPolicy(strings.ToLower(strings.TrimSpace(value))) {
	case UnresolvedFail:
		return UnresolvedFail
	case UnresolvedSkip:
		return UnresolvedSkip
	default:
		return def
	}
}

// Service recomputes a document's taxes and posts it to the ledger.
type Service interface {
	Post(ctx context.Context, doc *documentdomain.Document, mode Mode) (*ledgerdomain.Transaction, []ledgerdomain.LedgerEntry, error)
	// Preview runs the same pipeline without persisting anything.
	Preview(ctx context.Context, doc *documentdomain.Document, mode Mode) (*ledgerdomain.Transaction, []ledgerdomain.LedgerEntry, error)
}
