package domain

import (
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
)

// TaxType selects how a tax amount is derived.
type TaxType string

const (
	TaxTypePercentage    TaxType = "percentage"      // base * percentage / 100
	TaxTypeFixedAmount   TaxType = "fixed_amount"    // flat amount
	TaxTypeAmountPerUnit TaxType = "amount_per_unit" // amount * quantity
)

// Known reports whether the calculator has a formula for t.
func (t TaxType) Known() bool {
	switch t {
	case TaxTypePercentage, TaxTypeFixedAmount, TaxTypeAmountPerUnit:
		return true
	default:
		return false
	}
}

// ApplicationLevel says whether a tax is computed per line or once per document.
type ApplicationLevel string

const (
	ApplicationLevelLine     ApplicationLevel = "line"
	ApplicationLevelDocument ApplicationLevel = "document"
)

// Tax is a tax definition. Code is the stable identifier used in tax
// concepts and must not be repurposed once posted.
type Tax struct {
	ID               snowflake.ID     `gorm:"primaryKey"`
	Code             string           `gorm:"type:text;not null;uniqueIndex"`
	Name             string           `gorm:"type:text;not null"`
	TaxType          TaxType          `gorm:"column:tax_type;type:text;not null"`
	Percentage       decimal.Decimal  `gorm:"type:numeric(9,4);not null"`
	Amount           decimal.Decimal  `gorm:"type:numeric(18,4);not null"`
	ApplicationLevel ApplicationLevel `gorm:"column:application_level;type:text;not null"`
	IsEnabled        bool             `gorm:"column:is_enabled;not null"`

	// Account codes copied onto the tax totals so the totals-driven
	// generator can post them.
	DebitAccountCode  string `gorm:"type:text"`
	CreditAccountCode string `gorm:"type:text"`

	CreatedAt time.Time `gorm:"not null"`
	UpdatedAt time.Time `gorm:"not null"`
}

func (Tax) TableName() string { return "taxes" }

func (t *Tax) Validate(strict bool) error {
	if strings.TrimSpace(t.Code) == "" {
		return ErrInvalidTaxCode
	}
	if strings.TrimSpace(t.Name) == "" {
		return ErrInvalidName
	}
	if t.ApplicationLevel != ApplicationLevelLine && t.ApplicationLevel != ApplicationLevelDocument {
		return ErrInvalidApplicationLevel
	}
	if strict && !t.TaxType.Known() {
		return ErrInvalidTaxType
	}
	if t.Percentage.IsNegative() || t.Amount.IsNegative() {
		return ErrInvalidTaxRate
	}
	return nil
}

// TaxRule enables or suppresses a tax for a document scope, optionally
// narrowed to business-entity and item groups. Lower Priority wins.
type TaxRule struct {
	ID                    snowflake.ID  `gorm:"primaryKey"`
	TaxID                 snowflake.ID  `gorm:"column:tax_id;not null;index"`
	DocumentTypeCode      string        `gorm:"column:document_type_code;type:text"`
	DocumentOperation     string        `gorm:"column:document_operation;type:text"`
	BusinessEntityGroupID *snowflake.ID `gorm:"column:business_entity_group_id"`
	ItemGroupID           *snowflake.ID `gorm:"column:item_group_id"`
	IsEnabled             bool          `gorm:"column:is_enabled;not null"`
	Priority              int           `gorm:"not null"`
	CreatedAt             time.Time     `gorm:"not null"`
}

func (TaxRule) TableName() string { return "tax_rules" }

// HasScope reports whether the rule names a document type or an operation.
func (r *TaxRule) HasScope() bool {
	return strings.TrimSpace(r.DocumentTypeCode) != "" || strings.TrimSpace(r.DocumentOperation) != ""
}

// GroupType discriminates what kind of entity a membership classifies.
type GroupType string

const (
	GroupTypeBusinessEntity GroupType = "business_entity"
	GroupTypeItem           GroupType = "item"
)

// GroupMembership places a business entity or an item in a group.
type GroupMembership struct {
	ID        snowflake.ID `gorm:"primaryKey"`
	EntityID  snowflake.ID `gorm:"column:entity_id;not null;index"`
	GroupID   snowflake.ID `gorm:"column:group_id;not null;index"`
	GroupType GroupType    `gorm:"column:group_type;type:text;not null"`
	CreatedAt time.Time    `gorm:"not null"`
}

func (GroupMembership) TableName() string { return "group_memberships" }

// Catalog is a read-only snapshot of the definitions the evaluator works on.
type Catalog struct {
	Taxes       []Tax
	Rules       []TaxRule
	Memberships []GroupMembership
}
