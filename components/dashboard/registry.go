package dashboard

import (
	"errors"
	"fmt"
	"slices"
	"strings"
	"sync"

	"github.com/goliatone/go-marketinsight/pkg/analytics"
)

// WidgetHook lets packages add widgets to every registry created afterwards,
// usually from init().
type WidgetHook func(reg *Registry) error

var (
	hooksMu sync.Mutex
	hooks   []WidgetHook
)

// RegisterWidgetHook adds a hook run by NewRegistry.
func RegisterWidgetHook(h WidgetHook) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	hooks = append(hooks, h)
}

// Registry holds widget definitions and the providers that feed them.
type Registry struct {
	mu          sync.RWMutex
	definitions map[string]WidgetDefinition
	providers   map[string]Provider
}

// NewRegistry returns a registry with the built-in definitions and the
// results of every registered hook. Providers need a repository and are
// added by RegisterMarketingProviders.
func NewRegistry() *Registry {
	reg := &Registry{
		definitions: make(map[string]WidgetDefinition),
		providers:   make(map[string]Provider),
	}
	for _, def := range DefaultWidgetDefinitions() {
		reg.definitions[def.Code] = def
	}
	_ = reg.ApplyHooks()
	return reg
}

// RegisterMarketingProviders binds the built-in providers to repo. Providers
// already registered by hooks are kept.
func (r *Registry) RegisterMarketingProviders(repo analytics.SnapshotRepository, chartOpts ...ChartOption) error {
	if repo == nil {
		return errors.New("dashboard: snapshot repository is required")
	}
	for code, provider := range MarketingProviders(repo, chartOpts...) {
		if _, ok := r.Provider(code); ok {
			continue
		}
		if err := r.RegisterProvider(code, provider); err != nil {
			return err
		}
	}
	return nil
}

// ApplyHooks runs the registered hooks against r, stopping at the first error.
func (r *Registry) ApplyHooks() error {
	hooksMu.Lock()
	pending := slices.Clone(hooks)
	hooksMu.Unlock()
	for _, hook := range pending {
		if err := hook(r); err != nil {
			return err
		}
	}
	return nil
}

// RegisterDefinition stores or replaces a widget definition.
func (r *Registry) RegisterDefinition(def WidgetDefinition) error {
	if strings.TrimSpace(def.Code) == "" {
		return errors.New("dashboard: widget definition code is required")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.definitions[def.Code] = def
	return nil
}

// RegisterProvider binds provider to an existing definition.
func (r *Registry) RegisterProvider(code string, provider Provider) error {
	switch {
	case code == "":
		return errors.New("dashboard: provider needs a widget code")
	case provider == nil:
		return fmt.Errorf("dashboard: provider for %s cannot be nil", code)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.definitions[code]; !ok {
		return fmt.Errorf("dashboard: widget definition %s not found", code)
	}
	r.providers[code] = provider
	return nil
}

// Definition returns the definition registered under code.
func (r *Registry) Definition(code string) (WidgetDefinition, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	def, ok := r.definitions[code]
	return def, ok
}

// Provider returns the provider registered under code.
func (r *Registry) Provider(code string) (Provider, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	provider, ok := r.providers[code]
	return provider, ok
}

// Definitions returns every definition ordered by code.
func (r *Registry) Definitions() []WidgetDefinition {
	r.mu.RLock()
	defs := make([]WidgetDefinition, 0, len(r.definitions))
	for _, def := range r.definitions {
		defs = append(defs, def)
	}
	r.mu.RUnlock()
	slices.SortFunc(defs, func(a, b WidgetDefinition) int { return strings.Compare(a.Code, b.Code) })
	return defs
}
