package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	documentdomain "github.com/smallbiznis/taxledger/internal/document/domain"
)

// Evaluator resolves which taxes apply to a document or one of its lines.
// An empty documentTypeCode falls back to the document's own type code.
type Evaluator interface {
	GetApplicableDocumentTaxes(doc *documentdomain.Document, documentTypeCode string) ([]Tax, error)
	GetApplicableLineTaxes(doc *documentdomain.Document, documentTypeCode string, line *documentdomain.Line) ([]Tax, error)
	// TaxesByCode returns enabled taxes for explicitly pinned codes, in the
	// order given. Unknown codes are ignored.
	TaxesByCode(codes []string) []Tax
}

// Calculator writes tax totals onto lines and documents. Every call
// replaces earlier tax totals, so repeated calls converge.
type Calculator interface {
	CalculateLineTaxes(doc *documentdomain.Document, line *documentdomain.Line) error
	CalculateDocumentTaxes(doc *documentdomain.Document) error
	Recompute(doc *documentdomain.Document) error
}

// Engine loads the persisted catalog and recomputes documents against it.
type Engine interface {
	LoadCatalog(ctx context.Context) (Catalog, error)
	Calculate(ctx context.Context, doc *documentdomain.Document) error
}

// Service manages tax definitions, rules and group memberships.
type Service interface {
	CreateTax(ctx context.Context, req CreateTaxRequest) (*Tax, error)
	ListTaxes(ctx context.Context, req ListRequest) ([]Tax, error)
	DisableTax(ctx context.Context, code string) (*Tax, error)
	CreateRule(ctx context.Context, req CreateRuleRequest) (*TaxRule, error)
	AddMembership(ctx context.Context, req AddMembershipRequest) (*GroupMembership, error)
}

type ListRequest struct {
	Code      string
	Level     ApplicationLevel
	IsEnabled *bool
}

type CreateTaxRequest struct {
	Code              string           `json:"code"`
	Name              string           `json:"name"`
	TaxType           TaxType          `json:"tax_type"`
	Percentage        decimal.Decimal  `json:"percentage"`
	Amount            decimal.Decimal  `json:"amount"`
	ApplicationLevel  ApplicationLevel `json:"application_level"`
	IsEnabled         *bool            `json:"is_enabled"`
	DebitAccountCode  string           `json:"debit_account_code"`
	CreditAccountCode string           `json:"credit_account_code"`
}

type CreateRuleRequest struct {
	TaxCode               string        `json:"tax_code"`
	DocumentTypeCode      string        `json:"document_type_code"`
	DocumentOperation     string        `json:"document_operation"`
	BusinessEntityGroupID *snowflake.ID `json:"business_entity_group_id"`
	ItemGroupID           *snowflake.ID `json:"item_group_id"`
	IsEnabled             bool          `json:"is_enabled"`
	Priority              int           `json:"priority"`
}

type AddMembershipRequest struct {
	EntityID  snowflake.ID `json:"entity_id"`
	GroupID   snowflake.ID `json:"group_id"`
	GroupType GroupType    `json:"group_type"`
}
