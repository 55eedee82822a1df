package domain

import (
	"fmt"
	"strings"

	"github.com/bwmarrin/snowflake"
	documentdomain "github.com/smallbiznis/taxledger/internal/document/domain"
	ledgerdomain "github.com/smallbiznis/taxledger/internal/ledger/domain"
	"github.com/smallbiznis/taxledger/internal/posting/calculator"
)

// TemplateEntry describes one ledger line of a template. Amount is
// evaluated against the document at generation time.
type TemplateEntry struct {
	AccountKey  string
	EntryType   ledgerdomain.EntryType
	Amount      calculator.AmountCalculator
	Description string
	AccountName string

	CostCentreID *snowflake.ID
	// PersonFromEntity stamps the document's business entity as the
	// entry's person, as receivable and payable lines need.
	PersonFromEntity bool
}

// Template maps a document type to the ledger entries it produces. Only
// the entry list may grow after construction.
type Template struct {
	documentTypeCode string
	description      func(doc *documentdomain.Document) string
	entries          []TemplateEntry
}

func NewTemplate(documentTypeCode string, description func(doc *documentdomain.Document) string, entries ...TemplateEntry) *Template {
	t := &Template{
		documentTypeCode: strings.ToUpper(strings.TrimSpace(documentTypeCode)),
		description:      description,
	}
	return t.AddEntry(entries...)
}

func (t *Template) DocumentTypeCode() string { return t.documentTypeCode }

// AddEntry appends entries and returns t for chaining.
func (t *Template) AddEntry(entries ...TemplateEntry) *Template {
	t.entries = append(t.entries, entries...)
	return t
}

// Entries returns a copy of the entry list.
func (t *Template) Entries() []TemplateEntry {
	return append([]TemplateEntry(nil), t.entries...)
}

// Describe renders the transaction description for doc.
func (t *Template) Describe(doc *documentdomain.Document) string {
	if t.description == nil || doc == nil {
		return ""
	}
	return t.description(doc)
}

// Validate checks that every entry can be generated.
func (t *Template) Validate() error {
	if t == nil {
		return fmt.Errorf("%w: template is nil", ErrInvalidTemplate)
	}
	if t.documentTypeCode == "" {
		return fmt.Errorf("%w: document type code is required", ErrInvalidTemplate)
	}
	if len(t.entries) == 0 {
		return fmt.Errorf("%w: %s has no entries", ErrInvalidTemplate, t.documentTypeCode)
	}
	for i, entry := range t.entries {
		if strings.TrimSpace(entry.AccountKey) == "" {
			return fmt.Errorf("%w: %s entry %d has no account key", ErrInvalidTemplate, t.documentTypeCode, i)
		}
		if _, err := ledgerdomain.ParseEntryType(string(entry.EntryType)); err != nil {
			return fmt.Errorf("%w: %s entry %d: %w", ErrInvalidTemplate, t.documentTypeCode, i, err)
		}
		if entry.Amount == nil {
			return fmt.Errorf("%w: %s entry %d has no amount calculator", ErrInvalidTemplate, t.documentTypeCode, i)
		}
	}
	return nil
}
