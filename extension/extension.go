// Package extension provides the Forge extension adapter for the fungible
// ledger.
//
// It implements the forge.Extension interface to integrate the ledger
// into a Forge application with DI registration and lifecycle management.
//
// Configuration can be provided programmatically via Option functions,
// through FUNGIBLE_* environment variables, or via YAML configuration files
// under "extensions.fungible" or "fungible" keys. Later sources win:
// defaults, then options, then environment, then file.
package extension

import (
	"context"
	"errors"
	"fmt"

	"github.com/xraph/forge"
	"github.com/xraph/grove"
	"github.com/xraph/vessel"

	"github.com/xraph/fungible"
	"github.com/xraph/fungible/store"
	"github.com/xraph/fungible/store/memory"
	"github.com/xraph/fungible/store/mongo"
	"github.com/xraph/fungible/store/postgres"
	"github.com/xraph/fungible/store/sqlite"
	"github.com/xraph/fungible/types"
)

// ExtensionName is the name registered with Forge.
const ExtensionName = "fungible"

// ExtensionDescription is the human-readable description.
const ExtensionDescription = "Owner-administered fungible token ledger"

// ExtensionVersion is the semantic version.
const ExtensionVersion = "0.1.0"

// Ensure Extension implements forge.Extension at compile time.
var _ forge.Extension = (*Extension)(nil)

// Extension adapts the fungible ledger as a Forge extension.
type Extension struct {
	*forge.BaseExtension

	config     Config
	engine     *fungible.Ledger
	store      store.Store
	groveDB    *grove.DB
	ledgerOpts []fungible.Option
}

// New creates a new fungible Forge extension with the given options.
func New(opts ...Option) *Extension {
	e := &Extension{
		BaseExtension: forge.NewBaseExtension(ExtensionName, ExtensionVersion, ExtensionDescription),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Engine returns the underlying ledger.
// This is nil until Register is called.
func (e *Extension) Engine() *fungible.Ledger { return e.engine }

// Register implements [forge.Extension]. It loads configuration,
// builds the ledger, and registers it in the DI container.
func (e *Extension) Register(fapp forge.App) error {
	if err := e.BaseExtension.Register(fapp); err != nil {
		return err
	}

	if err := e.loadConfiguration(); err != nil {
		return err
	}

	if e.store == nil {
		s, err := e.buildStore()
		if err != nil {
			return err
		}
		e.store = s
	}

	owner, genesis, err := genesisFromConfig(e.config)
	if err != nil {
		return err
	}

	opts, err := e.buildLedgerOpts()
	if err != nil {
		return err
	}

	eng, err := fungible.New(e.store, owner, genesis, opts...)
	if err != nil {
		return fmt.Errorf("fungible: build ledger: %w", err)
	}
	e.engine = eng

	return vessel.Provide(fapp.Container(), func() (*fungible.Ledger, error) {
		return e.engine, nil
	})
}

// Start implements [forge.Extension].
func (e *Extension) Start(ctx context.Context) error {
	if e.engine == nil {
		return errors.New("fungible: extension not initialized")
	}

	if err := e.engine.Start(ctx); err != nil {
		return err
	}

	e.MarkStarted()
	return nil
}

// Stop implements [forge.Extension].
func (e *Extension) Stop(_ context.Context) error {
	if e.engine != nil {
		if err := e.engine.Stop(); err != nil {
			e.MarkStopped()
			return err
		}
	}
	e.MarkStopped()
	return nil
}

// Health implements [forge.Extension].
func (e *Extension) Health(ctx context.Context) error {
	if e.store == nil {
		return errors.New("fungible: store not initialized")
	}
	return e.store.Ping(ctx)
}

// buildStore picks the event sink from the grove database, if any.
func (e *Extension) buildStore() (store.Store, error) {
	if e.groveDB == nil {
		return memory.New(), nil
	}
	return groveStore(e.groveDB, e.config.StoreDriver)
}

func groveStore(db *grove.DB, driver string) (store.Store, error) {
	switch driver {
	case "postgres", "pg":
		return postgres.New(db), nil
	case "sqlite":
		return sqlite.New(db), nil
	case "mongo", "mongodb":
		return mongo.New(db), nil
	default:
		return nil, fmt.Errorf("fungible: unknown store driver %q", driver)
	}
}

// genesisFromConfig parses the owner and token metadata.
func genesisFromConfig(cfg Config) (types.Address, fungible.Genesis, error) {
	if cfg.Owner == "" {
		return types.Address{}, fungible.Genesis{}, errors.New("fungible: owner address is required")
	}
	owner, err := types.ParseAddress(cfg.Owner)
	if err != nil {
		return types.Address{}, fungible.Genesis{}, fmt.Errorf("fungible: owner: %w", err)
	}

	supply, err := types.ParseAmount(cfg.InitialSupply)
	if err != nil {
		return types.Address{}, fungible.Genesis{}, fmt.Errorf("fungible: initial supply: %w", err)
	}

	var decimals uint8
	if cfg.Decimals != nil {
		decimals = *cfg.Decimals
	}

	return owner, fungible.Genesis{
		Name:          cfg.TokenName,
		Symbol:        cfg.Symbol,
		Decimals:      decimals,
		InitialSupply: supply,
	}, nil
}

// buildLedgerOpts constructs fungible.Option values from the resolved config.
func (e *Extension) buildLedgerOpts() ([]fungible.Option, error) {
	opts := make([]fungible.Option, 0, len(e.ledgerOpts)+3)

	opts = append(opts,
		fungible.WithDispatchConfig(e.config.EventBatchSize, e.config.FlushInterval),
		fungible.WithAutoMigrate(!e.config.DisableMigrate),
	)

	if e.config.LedgerID != "" {
		ledgerID, err := fungible.ParseLedgerID(e.config.LedgerID)
		if err != nil {
			return nil, fmt.Errorf("fungible: ledger id: %w", err)
		}
		opts = append(opts, fungible.WithID(ledgerID))
	}

	// Pass-through options come last so they can override config.
	opts = append(opts, e.ledgerOpts...)

	return opts, nil
}

// --- Config Loading ---

// loadConfiguration resolves config from defaults, options, environment
// and config files.
func (e *Extension) loadConfiguration() error {
	programmaticConfig := e.config

	envConfig, err := loadEnvConfig()
	if err != nil {
		return err
	}

	fileConfig, configLoaded := e.tryLoadFromConfigFile()

	if !configLoaded && programmaticConfig.RequireConfig {
		return errors.New("fungible: configuration is required but not found in config files; " +
			"ensure 'extensions.fungible' or 'fungible' key exists in your config")
	}

	e.config = mergeConfigurations(programmaticConfig, envConfig, fileConfig, configLoaded)

	e.Logger().Debug("fungible: configuration loaded",
		forge.F("token_name", e.config.TokenName),
		forge.F("symbol", e.config.Symbol),
		forge.F("owner", e.config.Owner),
		forge.F("event_batch_size", e.config.EventBatchSize),
		forge.F("flush_interval", e.config.FlushInterval),
		forge.F("store_driver", e.config.StoreDriver),
		forge.F("disable_migrate", e.config.DisableMigrate),
	)

	return nil
}

// tryLoadFromConfigFile attempts to load config from YAML files.
func (e *Extension) tryLoadFromConfigFile() (Config, bool) {
	cm := e.App().Config()
	var cfg Config

	// Try "extensions.fungible" first (namespaced pattern).
	if cm.IsSet("extensions.fungible") {
		if err := cm.Bind("extensions.fungible", &cfg); err == nil {
			e.Logger().Debug("fungible: loaded config from file",
				forge.F("key", "extensions.fungible"),
			)
			return cfg, true
		}
		e.Logger().Warn("fungible: failed to bind extensions.fungible config",
			forge.F("error", "bind failed"),
		)
	}

	if cm.IsSet("fungible") {
		if err := cm.Bind("fungible", &cfg); err == nil {
			e.Logger().Debug("fungible: loaded config from file",
				forge.F("key", "fungible"),
			)
			return cfg, true
		}
		e.Logger().Warn("fungible: failed to bind fungible config",
			forge.F("error", "bind failed"),
		)
	}

	return Config{}, false
}

// mergeConfigurations layers the sources over the defaults. Zero-valued
// fields never override; bool flags can only be switched on.
func mergeConfigurations(programmatic, envConfig, fileConfig Config, fileLoaded bool) Config {
	cfg := overlay(DefaultConfig(), programmatic)
	cfg = overlay(cfg, envConfig)
	if fileLoaded {
		cfg = overlay(cfg, fileConfig)
	}
	cfg.RequireConfig = programmatic.RequireConfig
	return cfg
}
