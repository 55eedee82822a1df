package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
)

type Repository interface {
	CreateTax(ctx context.Context, tax *Tax) error
	UpdateTax(ctx context.Context, tax *Tax) error
	FindTaxByCode(ctx context.Context, code string) (*Tax, error)
	ListTaxes(ctx context.Context, filter ListRequest) ([]Tax, error)

	CreateRule(ctx context.Context, rule *TaxRule) error
	ListRules(ctx context.Context) ([]TaxRule, error)
	DeleteRule(ctx context.Context, id snowflake.ID) error

	CreateMembership(ctx context.Context, m *GroupMembership) error
	ListMemberships(ctx context.Context) ([]GroupMembership, error)
}
