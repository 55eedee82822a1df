package service

import (
	"sort"
	"strings"
	"sync"

	postingdomain "github.com/smallbiznis/taxledger/internal/posting/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

type registryParams struct {
	fx.In

	Log *zap.Logger
}

// Registry is a concurrency-safe template store.
type Registry struct {
	mu        sync.RWMutex
	templates map[string]*postingdomain.Template
	log       *zap.Logger
}

// NewRegistry returns a registry preloaded with DefaultTemplates.
func NewRegistry(p registryParams) (postingdomain.Registry, error) {
	r := newRegistry(p.Log)
	for _, t := range DefaultTemplates() {
		if err := r.RegisterTemplate(t); err != nil {
			return nil, err
		}
	}
	return r, nil
}

func newRegistry(log *zap.Logger) *Registry {
	return &Registry{
		templates: make(map[string]*postingdomain.Template),
		log:       log.Named("posting.registry"),
	}
}

func (r *Registry) RegisterTemplate(t *postingdomain.Template) error {
	if err := t.Validate(); err != nil {
		return err
	}

	r.mu.Lock()
	_, replaced := r.templates[t.DocumentTypeCode()]
	r.templates[t.DocumentTypeCode()] = t
	r.mu.Unlock()

	if replaced {
		r.log.Warn("template replaced", zap.String("document_type", t.DocumentTypeCode()))
	} else {
		r.log.Debug("template registered",
			zap.String("document_type", t.DocumentTypeCode()),
			zap.Int("entries", len(t.Entries())),
		)
	}
	return nil
}

func (r *Registry) Template(documentTypeCode string) (*postingdomain.Template, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	t, ok := r.templates[strings.ToUpper(strings.TrimSpace(documentTypeCode))]
	return t, ok
}

func (r *Registry) Codes() []string {
	r.mu.RLock()
	codes := make([]string, 0, len(r.templates))
	for code := range r.templates {
		codes = append(codes, code)
	}
	r.mu.RUnlock()

	sort.Strings(codes)
	return codes
}
