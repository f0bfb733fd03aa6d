package catalog

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"slices"
	"sort"
	"sync"

	"legendastv/internal/config"
	"legendastv/internal/logging"
)

// Deps are the collaborators handed to provider factories.
type Deps struct {
	Config     *config.Config
	Logger     *slog.Logger
	HTTPClient *http.Client
	// Responses, when set, wraps every opened provider with a response
	// cache using Config's TTL.
	Responses ResponseStore
}

// Factory builds (and, when needed, logs into) a provider.
type Factory func(ctx context.Context, deps Deps) (Provider, error)

// Registry maps provider names to factories.
type Registry struct {
	mu        sync.RWMutex
	factories map[string]Factory
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{factories: make(map[string]Factory)}
}

// Register adds a factory. Registering the same name twice is an error.
func (r *Registry) Register(name string, factory Factory) error {
	if name == "" || factory == nil {
		return fmt.Errorf("catalog: invalid registration %q", name)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.factories[name]; exists {
		return fmt.Errorf("catalog: provider %q already registered", name)
	}
	r.factories[name] = factory
	return nil
}

// Names lists registered providers alphabetically.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.factories))
	for name := range r.factories {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Open builds the named providers in order.
func (r *Registry) Open(ctx context.Context, names []string, deps Deps) ([]Provider, error) {
	if deps.Logger == nil {
		deps.Logger = logging.NewNop()
	}
	providers := make([]Provider, 0, len(names))
	for _, name := range names {
		r.mu.RLock()
		factory, ok := r.factories[name]
		r.mu.RUnlock()
		if !ok {
			return nil, fmt.Errorf("catalog: unknown provider %q (known: %v)", name, r.Names())
		}
		provider, err := factory(ctx, deps)
		if err != nil {
			return nil, fmt.Errorf("catalog: open %s: %w", name, err)
		}
		if deps.Responses != nil && deps.Config != nil && deps.Config.Cache.Enabled {
			provider = WithResponseCache(provider, deps.Responses, deps.Config.ResponseTTL(), deps.Logger)
		}
		providers = append(providers, provider)
	}
	if len(providers) == 0 {
		return nil, fmt.Errorf("catalog: no providers configured (known: %v)", r.Names())
	}
	return slices.Clip(providers), nil
}
