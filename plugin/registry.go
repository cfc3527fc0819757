package plugin

import (
	"context"
	"fmt"
	"log/slog"
	"reflect"
	"sync"
	"time"

	"github.com/xraph/busker/track"
	"github.com/xraph/busker/types"
)

// Registry manages all registered plugins and provides efficient dispatch.
// It uses type-cached discovery for O(1) dispatch performance.
type Registry struct {
	mu      sync.RWMutex
	plugins []Plugin
	logger  *slog.Logger

	// Type-cached plugin lists for efficient dispatch
	onInit          []OnInit
	onShutdown      []OnShutdown
	onTrackUploaded []OnTrackUploaded
	onTrackListened []OnTrackListened
	onTrackRated    []OnTrackRated
	onTrackRemoved  []OnTrackRemoved
}

// NewRegistry creates a new plugin registry.
func NewRegistry() *Registry {
	return &Registry{
		logger: slog.Default(),
	}
}

// WithLogger sets the logger for the registry.
func (r *Registry) WithLogger(logger *slog.Logger) *Registry {
	r.logger = logger
	return r
}

// Register adds a plugin to the registry and caches its interfaces.
func (r *Registry) Register(p Plugin) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	// Check for duplicate
	for _, existing := range r.plugins {
		if existing.Name() == p.Name() {
			return fmt.Errorf("plugin: duplicate registration: %s", p.Name())
		}
	}

	r.plugins = append(r.plugins, p)

	// Type-switch to cache interfaces
	if v, ok := p.(OnInit); ok {
		r.onInit = append(r.onInit, v)
	}
	if v, ok := p.(OnShutdown); ok {
		r.onShutdown = append(r.onShutdown, v)
	}
	if v, ok := p.(OnTrackUploaded); ok {
		r.onTrackUploaded = append(r.onTrackUploaded, v)
	}
	if v, ok := p.(OnTrackListened); ok {
		r.onTrackListened = append(r.onTrackListened, v)
	}
	if v, ok := p.(OnTrackRated); ok {
		r.onTrackRated = append(r.onTrackRated, v)
	}
	if v, ok := p.(OnTrackRemoved); ok {
		r.onTrackRemoved = append(r.onTrackRemoved, v)
	}

	r.logger.Info("plugin registered",
		"name", p.Name(),
		"interfaces", r.getImplementedInterfaces(p),
	)

	return nil
}

// getImplementedInterfaces returns a list of interfaces implemented by the plugin.
func (r *Registry) getImplementedInterfaces(p Plugin) []string {
	var interfaces []string
	v := reflect.TypeOf(p)

	checkInterface := func(iface reflect.Type, name string) {
		if v.Implements(iface) {
			interfaces = append(interfaces, name)
		}
	}

	checkInterface(reflect.TypeOf((*OnInit)(nil)).Elem(), "OnInit")
	checkInterface(reflect.TypeOf((*OnShutdown)(nil)).Elem(), "OnShutdown")
	checkInterface(reflect.TypeOf((*OnTrackUploaded)(nil)).Elem(), "OnTrackUploaded")
	checkInterface(reflect.TypeOf((*OnTrackListened)(nil)).Elem(), "OnTrackListened")
	checkInterface(reflect.TypeOf((*OnTrackRated)(nil)).Elem(), "OnTrackRated")
	checkInterface(reflect.TypeOf((*OnTrackRemoved)(nil)).Elem(), "OnTrackRemoved")

	return interfaces
}

// Get returns a plugin by name.
func (r *Registry) Get(name string) Plugin {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, p := range r.plugins {
		if p.Name() == name {
			return p
		}
	}
	return nil
}

// List returns all registered plugins.
func (r *Registry) List() []Plugin {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]Plugin, len(r.plugins))
	copy(result, r.plugins)
	return result
}

// Count returns the number of registered plugins.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.plugins)
}

// ──────────────────────────────────────────────────
// Event emission methods
// ──────────────────────────────────────────────────

// EmitInit calls OnInit for all plugins that implement it.
func (r *Registry) EmitInit(ctx context.Context, ledger interface{}) {
	r.mu.RLock()
	plugins := r.onInit
	r.mu.RUnlock()

	for _, p := range plugins {
		if err := r.callWithTimeout(ctx, p.Name(), func() error {
			return p.OnInit(ctx, ledger)
		}); err != nil {
			r.logger.Warn("plugin OnInit failed",
				"plugin", p.Name(),
				"error", err,
			)
		}
	}
}

// EmitShutdown calls OnShutdown for all plugins that implement it.
func (r *Registry) EmitShutdown(ctx context.Context) {
	r.mu.RLock()
	plugins := r.onShutdown
	r.mu.RUnlock()

	for _, p := range plugins {
		if err := r.callWithTimeout(ctx, p.Name(), func() error {
			return p.OnShutdown(ctx)
		}); err != nil {
			r.logger.Warn("plugin OnShutdown failed",
				"plugin", p.Name(),
				"error", err,
			)
		}
	}
}

// EmitTrackUploaded emits a track uploaded event.
func (r *Registry) EmitTrackUploaded(ctx context.Context, t *track.Track) {
	r.mu.RLock()
	plugins := r.onTrackUploaded
	r.mu.RUnlock()

	for _, p := range plugins {
		if err := r.callWithTimeout(ctx, p.Name(), func() error {
			return p.OnTrackUploaded(ctx, t)
		}); err != nil {
			r.logger.Warn("plugin OnTrackUploaded failed",
				"plugin", p.Name(),
				"error", err,
			)
		}
	}
}

// EmitTrackListened emits a track listened (subscription paid) event.
func (r *Registry) EmitTrackListened(ctx context.Context, trackID uint64, listener string, amountPaid types.Money) {
	r.mu.RLock()
	plugins := r.onTrackListened
	r.mu.RUnlock()

	for _, p := range plugins {
		if err := r.callWithTimeout(ctx, p.Name(), func() error {
			return p.OnTrackListened(ctx, trackID, listener, amountPaid)
		}); err != nil {
			r.logger.Warn("plugin OnTrackListened failed",
				"plugin", p.Name(),
				"error", err,
			)
		}
	}
}

// EmitTrackRated emits a track rated event.
func (r *Registry) EmitTrackRated(ctx context.Context, trackID uint64, rater string, rating int64) {
	r.mu.RLock()
	plugins := r.onTrackRated
	r.mu.RUnlock()

	for _, p := range plugins {
		if err := r.callWithTimeout(ctx, p.Name(), func() error {
			return p.OnTrackRated(ctx, trackID, rater, rating)
		}); err != nil {
			r.logger.Warn("plugin OnTrackRated failed",
				"plugin", p.Name(),
				"error", err,
			)
		}
	}
}

// EmitTrackRemoved emits a track removed event.
func (r *Registry) EmitTrackRemoved(ctx context.Context, trackID uint64, owner string) {
	r.mu.RLock()
	plugins := r.onTrackRemoved
	r.mu.RUnlock()

	for _, p := range plugins {
		if err := r.callWithTimeout(ctx, p.Name(), func() error {
			return p.OnTrackRemoved(ctx, trackID, owner)
		}); err != nil {
			r.logger.Warn("plugin OnTrackRemoved failed",
				"plugin", p.Name(),
				"error", err,
			)
		}
	}
}

// callWithTimeout calls a plugin function with a timeout.
// Plugins should never block the ledger pipeline.
func (r *Registry) callWithTimeout(ctx context.Context, pluginName string, fn func() error) error {
	done := make(chan error, 1)

	go func() {
		done <- fn()
	}()

	select {
	case err := <-done:
		return err
	case <-time.After(5 * time.Second):
		return fmt.Errorf("plugin timeout: %s", pluginName)
	case <-ctx.Done():
		return ctx.Err()
	}
}
