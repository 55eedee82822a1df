package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/taxledger/internal/clock"
	"github.com/smallbiznis/taxledger/internal/config"
	taxdomain "github.com/smallbiznis/taxledger/internal/tax/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

type serviceParams struct {
	fx.In

	Log    *zap.Logger
	GenID  *snowflake.Node
	Repo   taxdomain.Repository
	Config config.Config
	Clock  clock.Clock
}

type Service struct {
	log    *zap.Logger
	genID  *snowflake.Node
	repo   taxdomain.Repository
	strict bool
	clock  clock.Clock
}

func NewService(p serviceParams) taxdomain.Service {
	return &Service{
		log:    p.Log.Named("tax.service"),
		genID:  p.GenID,
		repo:   p.Repo,
		strict: p.Config.Tax.StrictTypes,
		clock:  p.Clock,
	}
}

func (s *Service) CreateTax(ctx context.Context, req taxdomain.CreateTaxRequest) (*taxdomain.Tax, error) {
	code := strings.TrimSpace(req.Code)
	if code == "" {
		return nil, taxdomain.ErrInvalidTaxCode
	}

	existing, err := s.repo.FindTaxByCode(ctx, code)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, taxdomain.ErrDuplicateTaxCode
	}

	isEnabled := true
	if req.IsEnabled != nil {
		isEnabled = *req.IsEnabled
	}

	now := s.clock.Now()
	record := &taxdomain.Tax{
		ID:                s.genID.Generate(),
		Code:              code,
		Name:              strings.TrimSpace(req.Name),
		TaxType:           normalizeTaxType(req.TaxType),
		Percentage:        req.Percentage,
		Amount:            req.Amount,
		ApplicationLevel:  taxdomain.ApplicationLevel(strings.ToLower(strings.TrimSpace(string(req.ApplicationLevel)))),
		IsEnabled:         isEnabled,
		DebitAccountCode:  strings.TrimSpace(req.DebitAccountCode),
		CreditAccountCode: strings.TrimSpace(req.CreditAccountCode),
		CreatedAt:         now,
		UpdatedAt:         now,
	}
	if err := record.Validate(s.strict); err != nil {
		return nil, err
	}

	if err := s.repo.CreateTax(ctx, record); err != nil {
		return nil, err
	}

	s.log.Info("tax created",
		zap.String("tax_code", record.Code),
		zap.String("tax_type", string(record.TaxType)),
		zap.String("level", string(record.ApplicationLevel)),
	)
	return record, nil
}

func (s *Service) ListTaxes(ctx context.Context, req taxdomain.ListRequest) ([]taxdomain.Tax, error) {
	filter := taxdomain.ListRequest{
		Code:      strings.TrimSpace(req.Code),
		Level:     req.Level,
		IsEnabled: req.IsEnabled,
	}
	return s.repo.ListTaxes(ctx, filter)
}

func (s *Service) DisableTax(ctx context.Context, code string) (*taxdomain.Tax, error) {
	code = strings.TrimSpace(code)
	if code == "" {
		return nil, taxdomain.ErrInvalidTaxCode
	}

	item, err := s.repo.FindTaxByCode(ctx, code)
	if err != nil {
		return nil, err
	}
	if item == nil {
		return nil, taxdomain.ErrNotFound
	}

	item.IsEnabled = false
	item.UpdatedAt = s.clock.Now()
	if err := s.repo.UpdateTax(ctx, item); err != nil {
		return nil, err
	}

	s.log.Info("tax disabled", zap.String("tax_code", item.Code))
	return item, nil
}

func (s *Service) CreateRule(ctx context.Context, req taxdomain.CreateRuleRequest) (*taxdomain.TaxRule, error) {
	tax, err := s.repo.FindTaxByCode(ctx, strings.TrimSpace(req.TaxCode))
	if err != nil {
		return nil, err
	}
	if tax == nil {
		return nil, fmt.Errorf("%w: %s", taxdomain.ErrUnknownTax, req.TaxCode)
	}

	rule := &taxdomain.TaxRule{
		ID:                    s.genID.Generate(),
		TaxID:                 tax.ID,
		DocumentTypeCode:      strings.TrimSpace(req.DocumentTypeCode),
		DocumentOperation:     strings.TrimSpace(req.DocumentOperation),
		BusinessEntityGroupID: req.BusinessEntityGroupID,
		ItemGroupID:           req.ItemGroupID,
		IsEnabled:             req.IsEnabled,
		Priority:              req.Priority,
		CreatedAt:             s.clock.Now(),
	}
	if !rule.HasScope() {
		return nil, taxdomain.ErrInvalidRuleScope
	}

	if err := s.repo.CreateRule(ctx, rule); err != nil {
		return nil, err
	}

	s.log.Info("tax rule created",
		zap.String("tax_code", tax.Code),
		zap.String("rule_id", rule.ID.String()),
		zap.Int("priority", rule.Priority),
		zap.Bool("enabled", rule.IsEnabled),
	)
	return rule, nil
}

func (s *Service) AddMembership(ctx context.Context, req taxdomain.AddMembershipRequest) (*taxdomain.GroupMembership, error) {
	if req.EntityID == 0 || req.GroupID == 0 {
		return nil, taxdomain.ErrInvalidID
	}
	groupType := taxdomain.GroupType(strings.ToLower(strings.TrimSpace(string(req.GroupType))))
	if groupType != taxdomain.GroupTypeBusinessEntity && groupType != taxdomain.GroupTypeItem {
		return nil, taxdomain.ErrInvalidGroupType
	}

	m := &taxdomain.GroupMembership{
		ID:        s.genID.Generate(),
		EntityID:  req.EntityID,
		GroupID:   req.GroupID,
		GroupType: groupType,
		CreatedAt: s.clock.Now(),
	}
	if err := s.repo.CreateMembership(ctx, m); err != nil {
		return nil, err
	}
	return m, nil
}

func normalizeTaxType(value taxdomain.TaxType) taxdomain.TaxType {
	return taxdomain.TaxType(strings.ToLower(strings.TrimSpace(string(value))))
}
