package domain

import (
	"fmt"
	"strings"

	"github.com/bwmarrin/snowflake"
)

// Validate checks the catalog's referential integrity. With strict set,
// taxes of an unknown type are rejected instead of computing zero.
func (c Catalog) Validate(strict bool) error {
	ids := make(map[snowflake.ID]struct{}, len(c.Taxes))
	codes := make(map[string]struct{}, len(c.Taxes))
	for i := range c.Taxes {
		tax := &c.Taxes[i]
		if err := tax.Validate(strict); err != nil {
			return fmt.Errorf("tax %q: %w", tax.Code, err)
		}
		code := strings.ToUpper(strings.TrimSpace(tax.Code))
		if _, dup := codes[code]; dup {
			return fmt.Errorf("tax %q: %w", tax.Code, ErrDuplicateTaxCode)
		}
		codes[code] = struct{}{}
		ids[tax.ID] = struct{}{}
	}

	for i := range c.Rules {
		rule := &c.Rules[i]
		if _, ok := ids[rule.TaxID]; !ok {
			return fmt.Errorf("rule %s: %w %s", rule.ID, ErrUnknownTax, rule.TaxID)
		}
		if !rule.HasScope() {
			return fmt.Errorf("rule %s: %w", rule.ID, ErrInvalidRuleScope)
		}
	}

	for _, m := range c.Memberships {
		if m.GroupType != GroupTypeBusinessEntity && m.GroupType != GroupTypeItem {
			return fmt.Errorf("membership %s: %w", m.ID, ErrInvalidGroupType)
		}
	}
	return nil
}
