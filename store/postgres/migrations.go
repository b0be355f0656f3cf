package postgres

import (
	"context"

	"github.com/xraph/grove/migrate"
)

// Migrations is the grove migration group for the event sink (PostgreSQL).
var Migrations = migrate.NewGroup("fungible")

func init() {
	Migrations.MustRegister(
		&migrate.Migration{
			Name:    "create_fungible_events",
			Version: "20250101000001",
			Up: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `
CREATE TABLE IF NOT EXISTS fungible_events (
    id           TEXT PRIMARY KEY,
    ledger_id    TEXT NOT NULL,
    seq          BIGINT NOT NULL,
    kind         TEXT NOT NULL,
    from_addr    TEXT NOT NULL DEFAULT '',
    to_addr      TEXT NOT NULL DEFAULT '',
    owner_addr   TEXT NOT NULL DEFAULT '',
    spender_addr TEXT NOT NULL DEFAULT '',
    value        TEXT NOT NULL DEFAULT '0',
    timestamp    TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    created_at   TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE UNIQUE INDEX IF NOT EXISTS idx_fungible_events_ledger_seq ON fungible_events (ledger_id, seq);
CREATE INDEX IF NOT EXISTS idx_fungible_events_kind ON fungible_events (ledger_id, kind, seq);
`)
				return err
			},
			Down: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `DROP TABLE IF EXISTS fungible_events`)
				return err
			},
		},
		&migrate.Migration{
			Name:    "index_fungible_events_accounts",
			Version: "20250101000002",
			Up: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `
CREATE INDEX IF NOT EXISTS idx_fungible_events_from ON fungible_events (from_addr, ledger_id);
CREATE INDEX IF NOT EXISTS idx_fungible_events_to ON fungible_events (to_addr, ledger_id);
CREATE INDEX IF NOT EXISTS idx_fungible_events_owner ON fungible_events (owner_addr, ledger_id);
CREATE INDEX IF NOT EXISTS idx_fungible_events_spender ON fungible_events (spender_addr, ledger_id);
`)
				return err
			},
			Down: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `
DROP INDEX IF EXISTS idx_fungible_events_from;
DROP INDEX IF EXISTS idx_fungible_events_to;
DROP INDEX IF EXISTS idx_fungible_events_owner;
DROP INDEX IF EXISTS idx_fungible_events_spender;
`)
				return err
			},
		},
	)
}
