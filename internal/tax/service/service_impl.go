package service

import (
	"context"
	"fmt"

	"github.com/smallbiznis/taxledger/internal/config"
	documentdomain "github.com/smallbiznis/taxledger/internal/document/domain"
	obsmetrics "github.com/smallbiznis/taxledger/internal/observability/metrics"
	taxdomain "github.com/smallbiznis/taxledger/internal/tax/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

type engineParams struct {
	fx.In

	Repo       taxdomain.Repository
	Log        *zap.Logger
	Config     config.Config
	ObsMetrics *obsmetrics.Metrics `optional:"true"`
}

// Engine recomputes documents against the persisted catalog. The catalog is
// reloaded on every call so definition changes apply to the next document.
type Engine struct {
	repo       taxdomain.Repository
	log        *zap.Logger
	strict     bool
	obsMetrics *obsmetrics.Metrics
}

func NewEngine(p engineParams) taxdomain.Engine {
	return &Engine{
		repo:       p.Repo,
		log:        p.Log.Named("tax.engine"),
		strict:     p.Config.Tax.StrictTypes,
		obsMetrics: p.ObsMetrics,
	}
}

func (e *Engine) LoadCatalog(ctx context.Context) (taxdomain.Catalog, error) {
	taxes, err := e.repo.ListTaxes(ctx, taxdomain.ListRequest{})
	if err != nil {
		return taxdomain.Catalog{}, fmt.Errorf("load taxes: %w", err)
	}
	rules, err := e.repo.ListRules(ctx)
	if err != nil {
		return taxdomain.Catalog{}, fmt.Errorf("load tax rules: %w", err)
	}
	memberships, err := e.repo.ListMemberships(ctx)
	if err != nil {
		return taxdomain.Catalog{}, fmt.Errorf("load group memberships: %w", err)
	}

	catalog := taxdomain.Catalog{Taxes: taxes, Rules: rules, Memberships: memberships}
	if err := catalog.Validate(e.strict); err != nil {
		return taxdomain.Catalog{}, err
	}
	for _, tax := range taxes {
		if !tax.TaxType.Known() {
			e.log.Warn("tax has unknown type and will compute zero",
				zap.String("tax_code", tax.Code),
				zap.String("tax_type", string(tax.TaxType)),
			)
		}
	}
	return catalog, nil
}

func (e *Engine) Calculate(ctx context.Context, doc *documentdomain.Document) error {
	if doc == nil {
		return fmt.Errorf("%w: document is nil", taxdomain.ErrInvalidArgument)
	}
	documentType := ""
	if doc.DocumentType != nil {
		documentType = doc.DocumentType.Code
	}

	catalog, err := e.LoadCatalog(ctx)
	if err != nil {
		e.obsMetrics.RecordTaxCalculation(ctx, documentType, obsmetrics.OutcomeError)
		return err
	}

	calc, err := NewCalculator(NewRuleEvaluator(catalog))
	if err != nil {
		return err
	}
	if err := calc.Recompute(doc); err != nil {
		e.obsMetrics.RecordTaxCalculation(ctx, documentType, obsmetrics.OutcomeError)
		return err
	}

	e.obsMetrics.RecordTaxCalculation(ctx, documentType, obsmetrics.OutcomeSuccess)
	e.log.Debug("document taxes recomputed",
		zap.String("document_id", doc.ID.String()),
		zap.String("document_type", documentType),
		zap.String("subtotal", doc.Subtotal().StringFixed(2)),
		zap.Int("totals", len(doc.Totals)),
	)
	return nil
}
