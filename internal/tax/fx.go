package tax

import (
	"github.com/smallbiznis/taxledger/internal/tax/repository"
	"github.com/smallbiznis/taxledger/internal/tax/service"
	"go.uber.org/fx"
)

var Module = fx.Module("tax.service",
	fx.Provide(repository.NewRepository),
	fx.Provide(service.NewEngine),
	fx.Provide(service.NewService),
)
