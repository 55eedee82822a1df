package posting

import (
	"github.com/smallbiznis/taxledger/internal/posting/service"
	"go.uber.org/fx"
)

var Module = fx.Module("posting.service",
	fx.Provide(service.NewRegistry),
	fx.Provide(service.NewAccountSource),
	fx.Provide(service.NewService),
)
