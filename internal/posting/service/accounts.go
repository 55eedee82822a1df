package service

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/taxledger/internal/config"
	ledgerdomain "github.com/smallbiznis/taxledger/internal/ledger/domain"
	postingdomain "github.com/smallbiznis/taxledger/internal/posting/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

type accountSourceParams struct {
	fx.In

	Config config.Config
	Ledger ledgerdomain.Service
	Log    *zap.Logger
}

// NewAccountSource picks the account mapping source from configuration:
// the account_mappings table, or a watched accounts file.
func NewAccountSource(p accountSourceParams) (postingdomain.AccountSource, error) {
	if p.Config.Posting.AccountSource != config.AccountSourceFile {
		return p.Ledger, nil
	}

	holder, err := config.NewAccountsHolder(p.Config.Posting.AccountFile)
	if err != nil {
		return nil, err
	}
	p.Log.Info("account mappings loaded from file", zap.String("path", p.Config.Posting.AccountFile))
	return NewFileAccountSource(holder), nil
}

type fileAccountSource struct {
	holder *config.AccountsHolder
}

func NewFileAccountSource(holder *config.AccountsHolder) postingdomain.AccountSource {
	return &fileAccountSource{holder: holder}
}

// Accounts snapshots the holder's current table.
func (f *fileAccountSource) Accounts(context.Context) (ledgerdomain.AccountMap, error) {
	raw := f.holder.Get()
	ids := make(map[string]snowflake.ID, len(raw))
	for key, id := range raw {
		ids[key] = snowflake.ID(id)
	}
	return ledgerdomain.NewAccountMap(ids), nil
}
