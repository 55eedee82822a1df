package domain

import (
	"sort"
	"strings"

	"github.com/bwmarrin/snowflake"
)

// AccountMap resolves account keys to account identifiers, ignoring case.
// It is built once and never mutated, so generators can share it.
type AccountMap struct {
	ids   map[string]snowflake.ID
	names map[string]string
}

// NewAccountMap copies entries. Blank keys are dropped; when two keys
// differ only by case the last one wins.
func NewAccountMap(entries map[string]snowflake.ID) AccountMap {
	m := AccountMap{
		ids:   make(map[string]snowflake.ID, len(entries)),
		names: make(map[string]string),
	}
	for key, id := range entries {
		k := normalizeKey(key)
		if k == "" {
			continue
		}
		m.ids[k] = id
	}
	return m
}

// AccountMapFromMappings builds the map from persisted mappings.
func AccountMapFromMappings(mappings []AccountMapping) AccountMap {
	m := AccountMap{
		ids:   make(map[string]snowflake.ID, len(mappings)),
		names: make(map[string]string, len(mappings)),
	}
	for _, mapping := range mappings {
		k := normalizeKey(mapping.Key)
		if k == "" {
			continue
		}
		m.ids[k] = mapping.AccountID
		if name := strings.TrimSpace(mapping.Name); name != "" {
			m.names[k] = name
		}
	}
	return m
}

// Lookup returns the account identifier for key.
func (m AccountMap) Lookup(key string) (snowflake.ID, bool) {
	id, ok := m.ids[normalizeKey(key)]
	return id, ok
}

// Name returns the display name recorded for key, if any.
func (m AccountMap) Name(key string) string {
	return m.names[normalizeKey(key)]
}

func (m AccountMap) Len() int { return len(m.ids) }

// Keys lists the normalized keys in sorted order.
func (m AccountMap) Keys() []string {
	keys := make([]string, 0, len(m.ids))
	for k := range m.ids {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func normalizeKey(key string) string {
	return strings.ToUpper(strings.TrimSpace(key))
}
