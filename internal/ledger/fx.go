package ledger

import (
	"github.com/smallbiznis/taxledger/internal/ledger/repository"
	"github.com/smallbiznis/taxledger/internal/ledger/service"
	"go.uber.org/fx"
)

var Module = fx.Module("ledger.service",
	fx.Provide(repository.NewRepository),
	fx.Provide(service.NewService),
)
