// Package plugin provides the observer extension points of a ledger.
// Plugins receive events after the state change they describe is final and
// cannot influence the ledger: hook errors are logged and dropped.
package plugin

import (
	"context"
	"time"

	"github.com/xraph/fungible/event"
)

// Plugin is the base interface that all plugins must implement.
type Plugin interface {
	Name() string
}

// ──────────────────────────────────────────────────
// Lifecycle hooks
// ──────────────────────────────────────────────────

// OnInit is called when the ledger starts.
type OnInit interface {
	Plugin
	OnInit(ctx context.Context, l any) error
}

// OnShutdown is called after the ledger has delivered its last event.
type OnShutdown interface {
	Plugin
	OnShutdown(ctx context.Context) error
}

// ──────────────────────────────────────────────────
// Balance hooks
// ──────────────────────────────────────────────────

// OnTransfer is called for every balance movement, including the mint and
// burn legs (null From or To).
type OnTransfer interface {
	Plugin
	OnTransfer(ctx context.Context, evt *event.Event) error
}

// OnApproval is called whenever an allowance is set.
type OnApproval interface {
	Plugin
	OnApproval(ctx context.Context, evt *event.Event) error
}

// ──────────────────────────────────────────────────
// Supply hooks
// ──────────────────────────────────────────────────

// OnMint is called when supply is created.
type OnMint interface {
	Plugin
	OnMint(ctx context.Context, evt *event.Event) error
}

// OnBurn is called when supply is destroyed.
type OnBurn interface {
	Plugin
	OnBurn(ctx context.Context, evt *event.Event) error
}

// ──────────────────────────────────────────────────
// Access hooks
// ──────────────────────────────────────────────────

// OnOwnershipTransferred is called when the privileged account changes.
type OnOwnershipTransferred interface {
	Plugin
	OnOwnershipTransferred(ctx context.Context, evt *event.Event) error
}

// ──────────────────────────────────────────────────
// Delivery hooks
// ──────────────────────────────────────────────────

// OnEventsFlushed is called after a batch has been written to the sink and
// dispatched to the other hooks.
type OnEventsFlushed interface {
	Plugin
	OnEventsFlushed(ctx context.Context, count int, elapsed time.Duration) error
}
