package repository

import (
	"context"
	"errors"
	"strings"

	"github.com/bwmarrin/snowflake"
	taxdomain "github.com/smallbiznis/taxledger/internal/tax/domain"
	"github.com/smallbiznis/taxledger/pkg/db"
	"gorm.io/gorm"
)

type repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) taxdomain.Repository {
	return &repository{db: db}
}

func (r *repository) CreateTax(ctx context.Context, tax *taxdomain.Tax) error {
	err := r.db.WithContext(ctx).Create(tax).Error
	if db.IsDuplicateKeyErr(err) {
		return taxdomain.ErrDuplicateTaxCode
	}
	return err
}

func (r *repository) UpdateTax(ctx context.Context, tax *taxdomain.Tax) error {
	return r.db.WithContext(ctx).Exec(
		`UPDATE taxes
		 SET name = ?, tax_type = ?, percentage = ?, amount = ?, application_level = ?,
		     is_enabled = ?, debit_account_code = ?, credit_account_code = ?, updated_at = ?
		 WHERE id = ?`,
		tax.Name,
		tax.TaxType,
		tax.Percentage,
		tax.Amount,
		tax.ApplicationLevel,
		tax.IsEnabled,
		tax.DebitAccountCode,
		tax.CreditAccountCode,
		tax.UpdatedAt,
		tax.ID,
	).Error
}

func (r *repository) FindTaxByCode(ctx context.Context, code string) (*taxdomain.Tax, error) {
	var tax taxdomain.Tax
	err := r.db.WithContext(ctx).
		Where("UPPER(code) = ?", strings.ToUpper(strings.TrimSpace(code))).
		First(&tax).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &tax, nil
}

// ListTaxes returns taxes in creation order, which is the order the
// evaluator reports applicable taxes in.
func (r *repository) ListTaxes(ctx context.Context, filter taxdomain.ListRequest) ([]taxdomain.Tax, error) {
	var items []taxdomain.Tax
	stmt := r.db.WithContext(ctx).Model(&taxdomain.Tax{})

	if filter.Code != "" {
		stmt = stmt.Where("UPPER(code) = ?", strings.ToUpper(filter.Code))
	}
	if filter.Level != "" {
		stmt = stmt.Where("application_level = ?", filter.Level)
	}
	if filter.IsEnabled != nil {
		stmt = stmt.Where("is_enabled = ?", *filter.IsEnabled)
	}

	if err := stmt.Order("created_at ASC").Order("id ASC").Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

func (r *repository) CreateRule(ctx context.Context, rule *taxdomain.TaxRule) error {
	return r.db.WithContext(ctx).Create(rule).Error
}

func (r *repository) ListRules(ctx context.Context) ([]taxdomain.TaxRule, error) {
	var items []taxdomain.TaxRule
	if err := r.db.WithContext(ctx).
		Order("priority ASC").
		Order("id ASC").
		Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

func (r *repository) DeleteRule(ctx context.Context, id snowflake.ID) error {
	return r.db.WithContext(ctx).Where("id = ?", id).Delete(&taxdomain.TaxRule{}).Error
}

func (r *repository) CreateMembership(ctx context.Context, m *taxdomain.GroupMembership) error {
	return r.db.WithContext(ctx).Create(m).Error
}

func (r *repository) ListMemberships(ctx context.Context) ([]taxdomain.GroupMembership, error) {
	var items []taxdomain.GroupMembership
	if err := r.db.WithContext(ctx).Order("id ASC").Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}
