package provider

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"
)

// Registry routes model requests to providers. It is safe for concurrent use.
// Each model keeps its providers in registration order; the first is the default.
type Registry struct {
	mu        sync.RWMutex
	providers map[string]Provider
	byModel   map[ModelType][]string
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		providers: make(map[string]Provider),
		byModel:   make(map[ModelType][]string),
	}
}

// Register adds p under its Info().Name. Names must be unique.
func (r *Registry) Register(p Provider) error {
	name := p.Info().Name
	if name == "" {
		return fmt.Errorf("provider name cannot be empty")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, dup := r.providers[name]; dup {
		return fmt.Errorf("provider %q already registered", name)
	}
	r.providers[name] = p
	for _, model := range p.SupportedModels() {
		r.byModel[model] = append(r.byModel[model], name)
	}
	return nil
}

// Get returns a provider by name.
func (r *Registry) Get(name string) (Provider, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	p, ok := r.providers[name]
	if !ok {
		return nil, &ErrProviderNotFound{Name: name}
	}
	return p, nil
}

// List returns info about all registered providers, sorted by name.
func (r *Registry) List() []ProviderInfo {
	r.mu.RLock()
	defer r.mu.RUnlock()

	infos := make([]ProviderInfo, 0, len(r.providers))
	for _, p := range r.providers {
		infos = append(infos, p.Info())
	}
	sort.Slice(infos, func(i, j int) bool {
		return infos[i].Name < infos[j].Name
	})
	return infos
}

// DefaultProvider returns the name of the first provider registered for model.
func (r *Registry) DefaultProvider(model ModelType) (string, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := r.byModel[model]
	if len(names) == 0 {
		return "", false
	}
	return names[0], true
}

// Fetch retrieves data for model from the provider named by params["provider"],
// or from the model's default provider when it is empty.
// A failing provider's error is returned wrapped.
func (r *Registry) Fetch(ctx context.Context, model ModelType, params QueryParams) (*FetchResult, error) {
	name := params[ParamProvider]
	if name == "" {
		name, _ = r.DefaultProvider(model)
	}
	p, err := r.Get(name)
	if err != nil {
		return nil, err
	}

	fetcher := p.Fetcher(model)
	if fetcher == nil {
		return nil, &ErrModelNotSupported{Provider: name, Model: model}
	}
	if err := ValidateParams(params, fetcher.RequiredParams()); err != nil {
		return nil, err
	}

	result, err := fetcher.Fetch(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("provider %q fetch %s: %w", name, model, err)
	}

	result.Provider = name
	result.Model = model
	if result.FetchedAt.IsZero() {
		result.FetchedAt = time.Now()
	}
	return result, nil
}

// ModelCoverage maps each served model to its providers, default first.
func (r *Registry) ModelCoverage() map[ModelType][]string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	coverage := make(map[ModelType][]string, len(r.byModel))
	for model, names := range r.byModel {
		coverage[model] = append([]string(nil), names...)
	}
	return coverage
}

// PingAll pings every provider concurrently. A nil value means healthy.
func (r *Registry) PingAll(ctx context.Context) map[string]error {
	r.mu.RLock()
	providers := make(map[string]Provider, len(r.providers))
	for name, p := range r.providers {
		providers[name] = p
	}
	r.mu.RUnlock()

	var (
		mu  sync.Mutex
		wg  sync.WaitGroup
		out = make(map[string]error, len(providers))
	)
	for name, p := range providers {
		wg.Add(1)
		go func(name string, p Provider) {
			defer wg.Done()
			err := p.Ping(ctx)
			mu.Lock()
			out[name] = err
			mu.Unlock()
		}(name, p)
	}
	wg.Wait()
	return out
}
