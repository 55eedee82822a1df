package config

import (
	"errors"
	"fmt"
	"log"
	"strings"
	"sync/atomic"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
)

// AccountsHolder keeps the account-mapping table read from an accounts.yml
// file. Each Get returns an independent copy so a generation run never
// observes a reload half way through.
type AccountsHolder struct {
	current atomic.Value // holds map[string]int64
}

// NewAccountsHolder reads the accounts file and watches it for changes.
// An empty path searches the default locations for accounts.yml.
func NewAccountsHolder(path string) (*AccountsHolder, error) {
	v := viper.New()

	if strings.TrimSpace(path) != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("accounts")
		v.SetConfigType("yml")
		v.AddConfigPath("/etc/taxledger")
		v.AddConfigPath(".")
	}

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("read accounts config: %w", err)
	}

	accounts, err := decodeAccounts(v)
	if err != nil {
		return nil, err
	}

	holder := &AccountsHolder{}
	holder.current.Store(accounts)

	v.WatchConfig()
	v.OnConfigChange(func(e fsnotify.Event) {
		updated, err := decodeAccounts(v)
		if err != nil {
			log.Printf("[accounts-config] invalid config ignored: %v", err)
			return
		}
		holder.current.Store(updated)
		log.Printf("[accounts-config] reloaded from %s", e.Name)
	})

	return holder, nil
}

// NewStaticAccountsHolder returns a holder that never reloads.
func NewStaticAccountsHolder(accounts map[string]int64) *AccountsHolder {
	holder := &AccountsHolder{}
	holder.current.Store(copyAccounts(accounts))
	return holder
}

// Get returns a copy of the current account mapping.
func (h *AccountsHolder) Get() map[string]int64 {
	return copyAccounts(h.current.Load().(map[string]int64))
}

func decodeAccounts(v *viper.Viper) (map[string]int64, error) {
	var raw map[string]int64
	if err := v.UnmarshalKey("accounts", &raw); err != nil {
		return nil, err
	}
	if len(raw) == 0 {
		return nil, errors.New("accounts cannot be empty")
	}
	for key, id := range raw {
		if strings.TrimSpace(key) == "" || id <= 0 {
			return nil, fmt.Errorf("invalid account mapping %q=%d", key, id)
		}
	}
	return copyAccounts(raw), nil
}

func copyAccounts(in map[string]int64) map[string]int64 {
	out := make(map[string]int64, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}
