package service

import (
	"fmt"
	"sort"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/samber/lo"
	documentdomain "github.com/smallbiznis/taxledger/internal/document/domain"
	taxdomain "github.com/smallbiznis/taxledger/internal/tax/domain"
)

type membershipKey struct {
	entityID  snowflake.ID
	groupID   snowflake.ID
	groupType taxdomain.GroupType
}

// RuleEvaluator resolves applicable taxes from a catalog snapshot. It copies
// the catalog on construction and never mutates it afterwards, so a single
// evaluator may serve concurrent documents.
type RuleEvaluator struct {
	taxes       []taxdomain.Tax
	rulesByTax  map[snowflake.ID][]taxdomain.TaxRule
	memberships map[membershipKey]struct{}
	taxByCode   map[string]taxdomain.Tax
}

// NewRuleEvaluator indexes catalog for evaluation. Rules for each tax are
// ordered by Priority; rules sharing a priority keep catalog order.
func NewRuleEvaluator(catalog taxdomain.Catalog) *RuleEvaluator {
	taxes := append([]taxdomain.Tax(nil), catalog.Taxes...)

	rulesByTax := lo.GroupBy(catalog.Rules, func(r taxdomain.TaxRule) snowflake.ID {
		return r.TaxID
	})
	for taxID := range rulesByTax {
		rules := rulesByTax[taxID]
		sort.SliceStable(rules, func(i, j int) bool {
			return rules[i].Priority < rules[j].Priority
		})
	}

	memberships := make(map[membershipKey]struct{}, len(catalog.Memberships))
	for _, m := range catalog.Memberships {
		memberships[membershipKey{entityID: m.EntityID, groupID: m.GroupID, groupType: m.GroupType}] = struct{}{}
	}

	taxByCode := make(map[string]taxdomain.Tax, len(taxes))
	for _, tax := range taxes {
		taxByCode[normalizeCode(tax.Code)] = tax
	}

	return &RuleEvaluator{
		taxes:       taxes,
		rulesByTax:  rulesByTax,
		memberships: memberships,
		taxByCode:   taxByCode,
	}
}

// evaluationScope is everything a rule can be matched against.
type evaluationScope struct {
	level        taxdomain.ApplicationLevel
	documentType string
	operation    string
	entityID     *snowflake.ID
	itemID       *snowflake.ID
}

func (r *RuleEvaluator) GetApplicableDocumentTaxes(doc *documentdomain.Document, documentTypeCode string) ([]taxdomain.Tax, error) {
	scope, err := newScope(doc, documentTypeCode, taxdomain.ApplicationLevelDocument)
	if err != nil {
		return nil, err
	}
	return r.resolve(scope), nil
}

func (r *RuleEvaluator) GetApplicableLineTaxes(doc *documentdomain.Document, documentTypeCode string, line *documentdomain.Line) ([]taxdomain.Tax, error) {
	if line == nil {
		return nil, fmt.Errorf("%w: line is nil", taxdomain.ErrInvalidArgument)
	}
	scope, err := newScope(doc, documentTypeCode, taxdomain.ApplicationLevelLine)
	if err != nil {
		return nil, err
	}
	if line.Item != nil {
		id := line.Item.ID
		scope.itemID = &id
	}
	return r.resolve(scope), nil
}

func (r *RuleEvaluator) TaxesByCode(codes []string) []taxdomain.Tax {
	out := make([]taxdomain.Tax, 0, len(codes))
	for _, code := range codes {
		tax, ok := r.taxByCode[normalizeCode(code)]
		if !ok || !tax.IsEnabled {
			continue
		}
		out = append(out, tax)
	}
	return out
}

func newScope(doc *documentdomain.Document, documentTypeCode string, level taxdomain.ApplicationLevel) (evaluationScope, error) {
	if doc == nil {
		return evaluationScope{}, fmt.Errorf("%w: document is nil", taxdomain.ErrInvalidArgument)
	}

	scope := evaluationScope{
		level:        level,
		documentType: strings.TrimSpace(documentTypeCode),
	}
	if doc.DocumentType != nil {
		if scope.documentType == "" {
			scope.documentType = strings.TrimSpace(doc.DocumentType.Code)
		}
		scope.operation = strings.TrimSpace(doc.DocumentType.Operation)
	}
	if scope.documentType == "" && scope.operation == "" {
		return evaluationScope{}, fmt.Errorf("%w: document type is required", taxdomain.ErrInvalidArgument)
	}
	if doc.BusinessEntity != nil {
		id := doc.BusinessEntity.ID
		scope.entityID = &id
	}
	return scope, nil
}

// resolve walks taxes in catalog order. For each tax the first matching rule
// in priority order decides: an enabled rule includes the tax, a disabled
// one suppresses it. Taxes without a matching rule are excluded.
func (r *RuleEvaluator) resolve(scope evaluationScope) []taxdomain.Tax {
	out := make([]taxdomain.Tax, 0)
	for _, tax := range r.taxes {
		if !tax.IsEnabled || tax.ApplicationLevel != scope.level {
			continue
		}
		for _, rule := range r.rulesByTax[tax.ID] {
			if !r.matches(rule, scope) {
				continue
			}
			if rule.IsEnabled {
				out = append(out, tax)
			}
			break
		}
	}
	return out
}

func (r *RuleEvaluator) matches(rule taxdomain.TaxRule, scope evaluationScope) bool {
	if !matchesDocumentScope(rule, scope) {
		return false
	}
	if rule.BusinessEntityGroupID != nil {
		if scope.entityID == nil || !r.isMember(*scope.entityID, *rule.BusinessEntityGroupID, taxdomain.GroupTypeBusinessEntity) {
			return false
		}
	}
	if rule.ItemGroupID != nil {
		// Item groups only make sense for a line.
		if scope.level != taxdomain.ApplicationLevelLine || scope.itemID == nil {
			return false
		}
		if !r.isMember(*scope.itemID, *rule.ItemGroupID, taxdomain.GroupTypeItem) {
			return false
		}
	}
	return true
}

func matchesDocumentScope(rule taxdomain.TaxRule, scope evaluationScope) bool {
	code := strings.TrimSpace(rule.DocumentTypeCode)
	if code != "" && scope.documentType != "" && strings.EqualFold(code, scope.documentType) {
		return true
	}
	operation := strings.TrimSpace(rule.DocumentOperation)
	if operation != "" && scope.operation != "" && strings.EqualFold(operation, scope.operation) {
		return true
	}
	return false
}

func (r *RuleEvaluator) isMember(entityID, groupID snowflake.ID, groupType taxdomain.GroupType) bool {
	_, ok := r.memberships[membershipKey{entityID: entityID, groupID: groupID, groupType: groupType}]
	return ok
}

func normalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

var _ taxdomain.Evaluator = (*RuleEvaluator)(nil)
