package plugin

import (
	"context"
	"fmt"
	"log/slog"
	"reflect"
	"sync"
	"time"

	"github.com/xraph/fungible/event"
)

// DefaultTimeout bounds a single hook call.
const DefaultTimeout = 5 * time.Second

// Registry manages registered plugins. Hook implementations are discovered
// once at registration so dispatch never type-asserts.
type Registry struct {
	mu      sync.RWMutex
	plugins []Plugin
	logger  *slog.Logger
	timeout time.Duration

	onInit                 []OnInit
	onShutdown             []OnShutdown
	onTransfer             []OnTransfer
	onApproval             []OnApproval
	onMint                 []OnMint
	onBurn                 []OnBurn
	onOwnershipTransferred []OnOwnershipTransferred
	onEventsFlushed        []OnEventsFlushed
}

// NewRegistry creates a new plugin registry.
func NewRegistry() *Registry {
	return &Registry{
		logger:  slog.Default(),
		timeout: DefaultTimeout,
	}
}

// WithLogger sets the logger for the registry.
func (r *Registry) WithLogger(logger *slog.Logger) *Registry {
	r.logger = logger
	return r
}

// WithTimeout sets the per-hook timeout.
func (r *Registry) WithTimeout(d time.Duration) *Registry {
	r.timeout = d
	return r
}

// Register adds a plugin to the registry and caches its hooks.
func (r *Registry) Register(p Plugin) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, existing := range r.plugins {
		if existing.Name() == p.Name() {
			return fmt.Errorf("plugin: duplicate registration: %s", p.Name())
		}
	}

	r.plugins = append(r.plugins, p)

	if v, ok := p.(OnInit); ok {
		r.onInit = append(r.onInit, v)
	}
	if v, ok := p.(OnShutdown); ok {
		r.onShutdown = append(r.onShutdown, v)
	}
	if v, ok := p.(OnTransfer); ok {
		r.onTransfer = append(r.onTransfer, v)
	}
	if v, ok := p.(OnApproval); ok {
		r.onApproval = append(r.onApproval, v)
	}
	if v, ok := p.(OnMint); ok {
		r.onMint = append(r.onMint, v)
	}
	if v, ok := p.(OnBurn); ok {
		r.onBurn = append(r.onBurn, v)
	}
	if v, ok := p.(OnOwnershipTransferred); ok {
		r.onOwnershipTransferred = append(r.onOwnershipTransferred, v)
	}
	if v, ok := p.(OnEventsFlushed); ok {
		r.onEventsFlushed = append(r.onEventsFlushed, v)
	}

	r.logger.Info("plugin registered",
		"name", p.Name(),
		"interfaces", implementedInterfaces(p),
	)

	return nil
}

// implementedInterfaces lists the hooks p implements, for logging.
func implementedInterfaces(p Plugin) []string {
	var names []string
	v := reflect.TypeOf(p)

	check := func(iface reflect.Type, name string) {
		if v.Implements(iface) {
			names = append(names, name)
		}
	}

	check(reflect.TypeOf((*OnInit)(nil)).Elem(), "OnInit")
	check(reflect.TypeOf((*OnShutdown)(nil)).Elem(), "OnShutdown")
	check(reflect.TypeOf((*OnTransfer)(nil)).Elem(), "OnTransfer")
	check(reflect.TypeOf((*OnApproval)(nil)).Elem(), "OnApproval")
	check(reflect.TypeOf((*OnMint)(nil)).Elem(), "OnMint")
	check(reflect.TypeOf((*OnBurn)(nil)).Elem(), "OnBurn")
	check(reflect.TypeOf((*OnOwnershipTransferred)(nil)).Elem(), "OnOwnershipTransferred")
	check(reflect.TypeOf((*OnEventsFlushed)(nil)).Elem(), "OnEventsFlushed")

	return names
}

// Get returns a plugin by name, or nil.
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

// List returns all registered plugins in registration order.
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
func (r *Registry) EmitInit(ctx context.Context, ledger any) {
	r.mu.RLock()
	plugins := r.onInit
	r.mu.RUnlock()

	for _, p := range plugins {
		r.call(ctx, p.Name(), "OnInit", func() error {
			return p.OnInit(ctx, ledger)
		})
	}
}

// EmitShutdown calls OnShutdown for all plugins that implement it.
func (r *Registry) EmitShutdown(ctx context.Context) {
	r.mu.RLock()
	plugins := r.onShutdown
	r.mu.RUnlock()

	for _, p := range plugins {
		r.call(ctx, p.Name(), "OnShutdown", func() error {
			return p.OnShutdown(ctx)
		})
	}
}

// Emit routes evt to the hooks for its kind.
func (r *Registry) Emit(ctx context.Context, evt *event.Event) {
	switch evt.Kind {
	case event.KindTransfer:
		r.EmitTransfer(ctx, evt)
	case event.KindApproval:
		r.EmitApproval(ctx, evt)
	case event.KindMint:
		r.EmitMint(ctx, evt)
	case event.KindBurn:
		r.EmitBurn(ctx, evt)
	case event.KindOwnershipTransferred:
		r.EmitOwnershipTransferred(ctx, evt)
	default:
		r.logger.Warn("plugin: unknown event kind", "kind", evt.Kind, "event_id", evt.ID.String())
	}
}

// EmitTransfer emits a transfer event.
func (r *Registry) EmitTransfer(ctx context.Context, evt *event.Event) {
	r.mu.RLock()
	plugins := r.onTransfer
	r.mu.RUnlock()

	for _, p := range plugins {
		r.call(ctx, p.Name(), "OnTransfer", func() error {
			return p.OnTransfer(ctx, evt)
		})
	}
}

// EmitApproval emits an approval event.
func (r *Registry) EmitApproval(ctx context.Context, evt *event.Event) {
	r.mu.RLock()
	plugins := r.onApproval
	r.mu.RUnlock()

	for _, p := range plugins {
		r.call(ctx, p.Name(), "OnApproval", func() error {
			return p.OnApproval(ctx, evt)
		})
	}
}

// EmitMint emits a mint event.
func (r *Registry) EmitMint(ctx context.Context, evt *event.Event) {
	r.mu.RLock()
	plugins := r.onMint
	r.mu.RUnlock()

	for _, p := range plugins {
		r.call(ctx, p.Name(), "OnMint", func() error {
			return p.OnMint(ctx, evt)
		})
	}
}

// EmitBurn emits a burn event.
func (r *Registry) EmitBurn(ctx context.Context, evt *event.Event) {
	r.mu.RLock()
	plugins := r.onBurn
	r.mu.RUnlock()

	for _, p := range plugins {
		r.call(ctx, p.Name(), "OnBurn", func() error {
			return p.OnBurn(ctx, evt)
		})
	}
}

// EmitOwnershipTransferred emits an ownership change.
func (r *Registry) EmitOwnershipTransferred(ctx context.Context, evt *event.Event) {
	r.mu.RLock()
	plugins := r.onOwnershipTransferred
	r.mu.RUnlock()

	for _, p := range plugins {
		r.call(ctx, p.Name(), "OnOwnershipTransferred", func() error {
			return p.OnOwnershipTransferred(ctx, evt)
		})
	}
}

// EmitEventsFlushed reports a delivered batch.
func (r *Registry) EmitEventsFlushed(ctx context.Context, count int, elapsed time.Duration) {
	r.mu.RLock()
	plugins := r.onEventsFlushed
	r.mu.RUnlock()

	for _, p := range plugins {
		r.call(ctx, p.Name(), "OnEventsFlushed", func() error {
			return p.OnEventsFlushed(ctx, count, elapsed)
		})
	}
}

// call runs a hook with the registry timeout and logs any failure.
func (r *Registry) call(ctx context.Context, pluginName, hook string, fn func() error) {
	if err := r.callWithTimeout(ctx, pluginName, fn); err != nil {
		r.logger.Warn("plugin "+hook+" failed",
			"plugin", pluginName,
			"error", err,
		)
	}
}

// callWithTimeout calls a plugin function with a timeout.
// A slow plugin delays delivery but never the ledger itself.
func (r *Registry) callWithTimeout(ctx context.Context, pluginName string, fn func() error) error {
	done := make(chan error, 1)

	go func() {
		done <- fn()
	}()

	timer := time.NewTimer(r.timeout)
	defer timer.Stop()

	select {
	case err := <-done:
		return err
	case <-timer.C:
		return fmt.Errorf("plugin timeout: %s", pluginName)
	case <-ctx.Done():
		return ctx.Err()
	}
}
