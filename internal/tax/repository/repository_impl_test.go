package repository

import (
	"context"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/glebarez/sqlite"
	"github.com/shopspring/decimal"
	taxdomain "github.com/smallbiznis/taxledger/internal/tax/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open("file:"+t.Name()+"?mode=memory&cache=shared"), &gorm.Config{TranslateError: true})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&taxdomain.Tax{}, &taxdomain.TaxRule{}, &taxdomain.GroupMembership{}))
	return db
}

func newTax(node *snowflake.Node, code string, level taxdomain.ApplicationLevel, createdAt time.Time) *taxdomain.Tax {
	return &taxdomain.Tax{
		ID:               node.Generate(),
		Code:             code,
		Name:             code + " tax",
		TaxType:          taxdomain.TaxTypePercentage,
		Percentage:       decimal.NewFromInt(13),
		ApplicationLevel: level,
		IsEnabled:        true,
		CreatedAt:        createdAt,
		UpdatedAt:        createdAt,
	}
}

func TestRepository_TaxLifecycle(t *testing.T) {
	ctx := context.Background()
	repo := NewRepository(openTestDB(t))
	node, _ := snowflake.NewNode(1)
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	vat := newTax(node, "IVA", taxdomain.ApplicationLevelLine, now)
	require.NoError(t, repo.CreateTax(ctx, vat))

	found, err := repo.FindTaxByCode(ctx, " iva ")
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.Equal(t, vat.ID, found.ID)
	assert.True(t, decimal.NewFromInt(13).Equal(found.Percentage))
	assert.True(t, found.IsEnabled)

	found.IsEnabled = false
	found.CreditAccountCode = "VAT_PAYABLE"
	require.NoError(t, repo.UpdateTax(ctx, found))

	reloaded, err := repo.FindTaxByCode(ctx, "IVA")
	require.NoError(t, err)
	assert.False(t, reloaded.IsEnabled)
	assert.Equal(t, "VAT_PAYABLE", reloaded.CreditAccountCode)

	missing, err := repo.FindTaxByCode(ctx, "NOPE")
	assert.NoError(t, err)
	assert.Nil(t, missing)
}

func TestRepository_CreateTaxDuplicateCode(t *testing.T) {
	ctx := context.Background()
	repo := NewRepository(openTestDB(t))
	node, _ := snowflake.NewNode(1)
	now := time.Now().UTC()

	require.NoError(t, repo.CreateTax(ctx, newTax(node, "IVA", taxdomain.ApplicationLevelLine, now)))
	err := repo.CreateTax(ctx, newTax(node, "IVA", taxdomain.ApplicationLevelLine, now))
	assert.ErrorIs(t, err, taxdomain.ErrDuplicateTaxCode)
}

func TestRepository_ListTaxesFiltersAndOrder(t *testing.T) {
	ctx := context.Background()
	repo := NewRepository(openTestDB(t))
	node, _ := snowflake.NewNode(1)
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	second := newTax(node, "STAMP", taxdomain.ApplicationLevelDocument, base.Add(time.Hour))
	first := newTax(node, "IVA", taxdomain.ApplicationLevelLine, base)
	retired := newTax(node, "OLD", taxdomain.ApplicationLevelLine, base.Add(2*time.Hour))
	retired.IsEnabled = false
	for _, tax := range []*taxdomain.Tax{second, first, retired} {
		require.NoError(t, repo.CreateTax(ctx, tax))
	}

	all, err := repo.ListTaxes(ctx, taxdomain.ListRequest{})
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, []string{"IVA", "STAMP", "OLD"}, []string{all[0].Code, all[1].Code, all[2].Code})

	enabled := true
	lineOnly, err := repo.ListTaxes(ctx, taxdomain.ListRequest{Level: taxdomain.ApplicationLevelLine, IsEnabled: &enabled})
	require.NoError(t, err)
	require.Len(t, lineOnly, 1)
	assert.Equal(t, "IVA", lineOnly[0].Code)

	byCode, err := repo.ListTaxes(ctx, taxdomain.ListRequest{Code: "stamp"})
	require.NoError(t, err)
	require.Len(t, byCode, 1)
	assert.Equal(t, second.ID, byCode[0].ID)
}

func TestRepository_RulesAndMemberships(t *testing.T) {
	ctx := context.Background()
	repo := NewRepository(openTestDB(t))
	node, _ := snowflake.NewNode(1)
	now := time.Now().UTC()

	taxID := node.Generate()
	group := node.Generate()
	low := &taxdomain.TaxRule{ID: node.Generate(), TaxID: taxID, DocumentTypeCode: "SALES_INVOICE", IsEnabled: true, Priority: 10, CreatedAt: now}
	high := &taxdomain.TaxRule{ID: node.Generate(), TaxID: taxID, DocumentTypeCode: "SALES_INVOICE", ItemGroupID: &group, IsEnabled: false, Priority: 1, CreatedAt: now}
	require.NoError(t, repo.CreateRule(ctx, low))
	require.NoError(t, repo.CreateRule(ctx, high))

	rules, err := repo.ListRules(ctx)
	require.NoError(t, err)
	require.Len(t, rules, 2)
	assert.Equal(t, high.ID, rules[0].ID)
	assert.False(t, rules[0].IsEnabled)
	require.NotNil(t, rules[0].ItemGroupID)
	assert.Equal(t, group, *rules[0].ItemGroupID)
	assert.Nil(t, rules[1].ItemGroupID)

	require.NoError(t, repo.DeleteRule(ctx, high.ID))
	rules, err = repo.ListRules(ctx)
	require.NoError(t, err)
	require.Len(t, rules, 1)
	assert.Equal(t, low.ID, rules[0].ID)

	m := &taxdomain.GroupMembership{ID: node.Generate(), EntityID: node.Generate(), GroupID: group, GroupType: taxdomain.GroupTypeItem, CreatedAt: now}
	require.NoError(t, repo.CreateMembership(ctx, m))

	memberships, err := repo.ListMemberships(ctx)
	require.NoError(t, err)
	require.Len(t, memberships, 1)
	assert.Equal(t, taxdomain.GroupTypeItem, memberships[0].GroupType)
}
