package service

import (
	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	documentdomain "github.com/smallbiznis/taxledger/internal/document/domain"
	taxdomain "github.com/smallbiznis/taxledger/internal/tax/domain"
)

const (
	taxableCompanies snowflake.ID = 900
	exemptItems      snowflake.ID = 901

	companyID snowflake.ID = 100
	otherID   snowflake.ID = 101

	widgetID snowflake.ID = 200
	bookID   snowflake.ID = 201
)

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func idPtr(id snowflake.ID) *snowflake.ID { return &id }

func vat(id snowflake.ID) taxdomain.Tax {
	return taxdomain.Tax{
		ID:               id,
		Code:             "IVA",
		Name:             "VAT",
		TaxType:          taxdomain.TaxTypePercentage,
		Percentage:       dec("13"),
		ApplicationLevel: taxdomain.ApplicationLevelLine,
		IsEnabled:        true,
	}
}

func invoice(entity snowflake.ID, lines ...*documentdomain.Line) *documentdomain.Document {
	doc := &documentdomain.Document{
		ID:             1,
		BusinessEntity: &documentdomain.BusinessEntity{ID: entity},
		DocumentType:   &documentdomain.DocumentType{Code: "SALES_INVOICE", Operation: "sale"},
	}
	for _, line := range lines {
		doc.AddLine(line)
	}
	return doc
}

func line(item snowflake.ID, qty, price string) *documentdomain.Line {
	return &documentdomain.Line{
		ID:        item + 1000,
		Item:      &documentdomain.Item{ID: item},
		Quantity:  dec(qty),
		UnitPrice: dec(price),
	}
}

// salesCatalog is VAT for taxable companies on sales invoices, with items
// in the exempt group suppressed by a higher precedence rule.
func salesCatalog() taxdomain.Catalog {
	return taxdomain.Catalog{
		Taxes: []taxdomain.Tax{vat(1)},
		Rules: []taxdomain.TaxRule{
			{ID: 10, TaxID: 1, DocumentTypeCode: "SALES_INVOICE", BusinessEntityGroupID: idPtr(taxableCompanies), IsEnabled: true, Priority: 10},
			{ID: 11, TaxID: 1, DocumentTypeCode: "SALES_INVOICE", ItemGroupID: idPtr(exemptItems), IsEnabled: false, Priority: 1},
		},
		Memberships: []taxdomain.GroupMembership{
			{ID: 20, EntityID: companyID, GroupID: taxableCompanies, GroupType: taxdomain.GroupTypeBusinessEntity},
			{ID: 21, EntityID: bookID, GroupID: exemptItems, GroupType: taxdomain.GroupTypeItem},
		},
	}
}

func taxCodes(taxes []taxdomain.Tax) []string {
	out := make([]string, 0, len(taxes))
	for _, tax := range taxes {
		out = append(out, tax.Code)
	}
	return out
}
