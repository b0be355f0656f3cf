package extension

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

// Config holds the fungible extension configuration.
// Fields can be set programmatically via Option functions, read from
// FUNGIBLE_* environment variables, or loaded from YAML configuration files
// (under "extensions.fungible" or "fungible" keys).
type Config struct {
	// TokenName is the human-readable token name (default: "Fungible Token").
	TokenName string `json:"token_name" mapstructure:"token_name" yaml:"token_name" env:"FUNGIBLE_TOKEN_NAME"`

	// Symbol is the ticker symbol (default: "FGT").
	Symbol string `json:"symbol" mapstructure:"symbol" yaml:"symbol" env:"FUNGIBLE_SYMBOL"`

	// Decimals is the display precision. Nil means 18.
	Decimals *uint8 `json:"decimals" mapstructure:"decimals" yaml:"decimals" env:"FUNGIBLE_DECIMALS"`

	// InitialSupply is the genesis supply in whole units, as a decimal or
	// 0x-prefixed hex string (default: "0"). The ledger scales it by
	// 10^Decimals.
	InitialSupply string `json:"initial_supply" mapstructure:"initial_supply" yaml:"initial_supply" env:"FUNGIBLE_INITIAL_SUPPLY"`

	// Owner is the hex address that becomes the creator and owner.
	Owner string `json:"owner" mapstructure:"owner" yaml:"owner" env:"FUNGIBLE_OWNER"`

	// LedgerID pins the ledger identity stamped on events. Start fails with
	// fungible.ErrStreamExists if the sink already holds events for it, so a
	// pinned ID is good for one process lifetime per sink. A fresh ID is
	// generated when empty.
	LedgerID string `json:"ledger_id" mapstructure:"ledger_id" yaml:"ledger_id" env:"FUNGIBLE_LEDGER_ID"`

	// EventBatchSize is the number of events delivered to the sink per
	// batch (default: 100).
	EventBatchSize int `json:"event_batch_size" mapstructure:"event_batch_size" yaml:"event_batch_size" env:"FUNGIBLE_EVENT_BATCH_SIZE"`

	// FlushInterval is how frequently pending events are delivered even if
	// the batch size has not been reached (default: 1s).
	FlushInterval time.Duration `json:"flush_interval" mapstructure:"flush_interval" yaml:"flush_interval" env:"FUNGIBLE_FLUSH_INTERVAL"`

	// StoreDriver selects the sink built on a grove.DB passed with
	// WithGroveDatabase: "postgres", "sqlite" or "mongo".
	StoreDriver string `json:"store_driver" mapstructure:"store_driver" yaml:"store_driver" env:"FUNGIBLE_STORE_DRIVER"`

	// DisableMigrate prevents auto-migration on start.
	DisableMigrate bool `json:"disable_migrate" mapstructure:"disable_migrate" yaml:"disable_migrate" env:"FUNGIBLE_DISABLE_MIGRATE"`

	// RequireConfig requires config to be present in YAML files.
	// If true and no config is found, Register returns an error.
	RequireConfig bool `json:"-" yaml:"-"`
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	decimals := uint8(18)
	return Config{
		TokenName:      "Fungible Token",
		Symbol:         "FGT",
		Decimals:       &decimals,
		InitialSupply:  "0",
		EventBatchSize: 100,
		FlushInterval:  time.Second,
	}
}

// loadEnvConfig reads FUNGIBLE_* variables. Unset variables stay zero.
func loadEnvConfig() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("fungible: parse env: %w", err)
	}
	return cfg, nil
}

// overlay copies every non-zero field of top onto base.
func overlay(base, top Config) Config {
	if top.TokenName != "" {
		base.TokenName = top.TokenName
	}
	if top.Symbol != "" {
		base.Symbol = top.Symbol
	}
	if top.Decimals != nil {
		base.Decimals = top.Decimals
	}
	if top.InitialSupply != "" {
		base.InitialSupply = top.InitialSupply
	}
	if top.Owner != "" {
		base.Owner = top.Owner
	}
	if top.LedgerID != "" {
		base.LedgerID = top.LedgerID
	}
	if top.EventBatchSize != 0 {
		base.EventBatchSize = top.EventBatchSize
	}
	if top.FlushInterval != 0 {
		base.FlushInterval = top.FlushInterval
	}
	if top.StoreDriver != "" {
		base.StoreDriver = top.StoreDriver
	}
	if top.DisableMigrate {
		base.DisableMigrate = true
	}
	return base
}
