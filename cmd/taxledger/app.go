package main

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/taxledger/internal/clock"
	"github.com/smallbiznis/taxledger/internal/config"
	"github.com/smallbiznis/taxledger/internal/ledger"
	"github.com/smallbiznis/taxledger/internal/logger"
	"github.com/smallbiznis/taxledger/internal/migration"
	"github.com/smallbiznis/taxledger/internal/observability"
	"github.com/smallbiznis/taxledger/internal/posting"
	"github.com/smallbiznis/taxledger/internal/tax"
	"github.com/smallbiznis/taxledger/pkg/db"
	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"
	"go.uber.org/zap"
)

const stopTimeout = 10 * time.Second

func appOptions(extra ...fx.Option) fx.Option {
	return fx.Options(
		// Core Infrastructure
		config.Module,
		logger.Module,
		fx.WithLogger(func(log *zap.Logger) fxevent.Logger {
			return &fxevent.ZapLogger{Logger: log.Named("fx")}
		}),
		observability.Module,
		fx.Provide(RegisterSnowflake),
		db.Module,
		clock.Module,
		migration.Module,

		// Functional Domains
		tax.Module,
		ledger.Module,
		posting.Module,

		fx.Options(extra...),
	)
}

// startApp builds and starts the application, filling targets from the
// container. The returned func stops it.
func startApp(ctx context.Context, targets ...any) (func(), error) {
	app := fx.New(appOptions(fx.Populate(targets...)))
	if err := app.Start(ctx); err != nil {
		return nil, err
	}
	return func() {
		stopCtx, cancel := context.WithTimeout(context.Background(), stopTimeout)
		defer cancel()
		_ = app.Stop(stopCtx)
	}, nil
}

func RegisterSnowflake(cfg config.Config) (*snowflake.Node, error) {
	return snowflake.NewNode(cfg.SnowflakeNode)
}
