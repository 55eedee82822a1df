package domain

import "errors"

var (
	ErrInvalidArgument         = errors.New("invalid_argument")
	ErrInvalidID               = errors.New("invalid_id")
	ErrInvalidName             = errors.New("invalid_name")
	ErrNotFound                = errors.New("not_found")
	ErrInvalidTaxCode          = errors.New("invalid_tax_code")
	ErrInvalidTaxType          = errors.New("invalid_tax_type")
	ErrInvalidTaxRate          = errors.New("invalid_tax_rate")
	ErrInvalidApplicationLevel = errors.New("invalid_application_level")
	ErrDuplicateTaxCode        = errors.New("duplicate_tax_code")
	ErrUnknownTax              = errors.New("unknown_tax")
	ErrInvalidRuleScope        = errors.New("invalid_rule_scope")
	ErrInvalidGroupType        = errors.New("invalid_group_type")
)
