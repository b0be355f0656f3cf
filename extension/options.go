package extension

import (
	"time"

	"github.com/xraph/grove"

	"github.com/xraph/fungible"
	"github.com/xraph/fungible/plugin"
	"github.com/xraph/fungible/store"
)

// Option configures the fungible Forge extension.
type Option func(*Extension)

// WithStore sets the event sink for the ledger.
func WithStore(s store.Store) Option {
	return func(e *Extension) {
		e.store = s
	}
}

// WithGroveDatabase builds the event sink on db. The backend is chosen by
// driver ("postgres", "sqlite" or "mongo"), which may also come from the
// store_driver config key. WithStore wins when both are given.
func WithGroveDatabase(db *grove.DB, driver string) Option {
	return func(e *Extension) {
		e.groveDB = db
		e.config.StoreDriver = driver
	}
}

// WithLedgerOption passes a fungible.Option through to the underlying ledger.
func WithLedgerOption(opt fungible.Option) Option {
	return func(e *Extension) {
		e.ledgerOpts = append(e.ledgerOpts, opt)
	}
}

// WithPlugin registers a ledger plugin.
func WithPlugin(p plugin.Plugin) Option {
	return func(e *Extension) {
		e.ledgerOpts = append(e.ledgerOpts, fungible.WithPlugin(p))
	}
}

// WithConfig sets the Forge extension configuration.
func WithConfig(cfg Config) Option {
	return func(e *Extension) { e.config = cfg }
}

// WithToken sets the token metadata and genesis supply.
func WithToken(name, symbol string, decimals uint8, initialSupply string) Option {
	return func(e *Extension) {
		e.config.TokenName = name
		e.config.Symbol = symbol
		e.config.Decimals = &decimals
		e.config.InitialSupply = initialSupply
	}
}

// WithOwner sets the hex address of the creator and initial owner.
func WithOwner(address string) Option {
	return func(e *Extension) { e.config.Owner = address }
}

// WithDisableMigrate prevents auto-migration on start.
func WithDisableMigrate() Option {
	return func(e *Extension) { e.config.DisableMigrate = true }
}

// WithRequireConfig requires config to be present in YAML files.
// If true and no config is found, Register returns an error.
func WithRequireConfig(require bool) Option {
	return func(e *Extension) { e.config.RequireConfig = require }
}

// WithEventBatchSize sets the number of events delivered per batch.
func WithEventBatchSize(size int) Option {
	return func(e *Extension) { e.config.EventBatchSize = size }
}

// WithFlushInterval sets how frequently pending events are delivered.
func WithFlushInterval(d time.Duration) Option {
	return func(e *Extension) { e.config.FlushInterval = d }
}
