// Package store defines the event sink a ledger delivers its notification
// stream to. Sinks serve external observers (indexers, wallets, UIs); the
// ledger writes to them but never reads them back to compute state.
package store

import (
	"context"

	"github.com/xraph/fungible/event"
	"github.com/xraph/fungible/id"
)

// Store persists and queries recorded events.
type Store interface {
	// AppendEvents persists a batch in order. Events whose ID is already
	// stored are skipped, so re-delivering a batch is safe.
	AppendEvents(ctx context.Context, events []*event.Event) error
	GetEvent(ctx context.Context, eventID id.EventID) (*event.Event, error)
	// ListEvents returns matching events ordered by Seq ascending.
	ListEvents(ctx context.Context, opts event.ListOpts) ([]*event.Event, error)
	// LastSeq returns the highest stored Seq for a ledger, or 0.
	LastSeq(ctx context.Context, ledgerID id.LedgerID) (uint64, error)

	// Core methods
	Migrate(ctx context.Context) error
	Ping(ctx context.Context) error
	Close() error
}
