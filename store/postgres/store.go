package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/xraph/grove"
	"github.com/xraph/grove/drivers/pgdriver"
	_ "github.com/xraph/grove/drivers/pgdriver/pgmigrate" // registers the pg migration executor
	"github.com/xraph/grove/migrate"

	"github.com/xraph/fungible"
	"github.com/xraph/fungible/event"
	"github.com/xraph/fungible/id"
	fungiblestore "github.com/xraph/fungible/store"
)

// compile-time interface check
var _ fungiblestore.Store = (*Store)(nil)

// Store implements store.Store using PostgreSQL via Grove ORM.
type Store struct {
	db *grove.DB
	pg *pgdriver.PgDB
}

// New creates a new PostgreSQL store backed by Grove ORM.
func New(db *grove.DB) *Store {
	return &Store{
		db: db,
		pg: pgdriver.Unwrap(db),
	}
}

// DB returns the underlying grove database for direct access.
func (s *Store) DB() *grove.DB { return s.db }

// Migrate creates the required tables and indexes using the grove orchestrator.
func (s *Store) Migrate(ctx context.Context) error {
	executor, err := migrate.NewExecutorFor(s.pg)
	if err != nil {
		return fmt.Errorf("fungible/postgres: create migration executor: %w", err)
	}
	orch := migrate.NewOrchestrator(executor, Migrations)
	if _, err := orch.Migrate(ctx); err != nil {
		return fmt.Errorf("fungible/postgres: migration failed: %w", err)
	}
	return nil
}

// Ping checks database connectivity.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.Ping(ctx)
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// ==================== Event Store ====================

func (s *Store) AppendEvents(ctx context.Context, events []*event.Event) error {
	if len(events) == 0 {
		return nil
	}
	models := make([]eventModel, len(events))
	for i, e := range events {
		models[i] = *toEventModel(e)
	}
	_, err := s.pg.NewInsert(&models).
		OnConflict("(id) DO NOTHING").
		Exec(ctx)
	if err != nil {
		if isSeqConflict(err) {
			return fmt.Errorf("fungible/postgres: append events: %w: %v", fungible.ErrDuplicateSeq, err)
		}
		return fmt.Errorf("fungible/postgres: append events: %w", err)
	}
	return nil
}

func (s *Store) GetEvent(ctx context.Context, eventID id.EventID) (*event.Event, error) {
	m := new(eventModel)
	err := s.pg.NewSelect(m).
		Where("id = $1", eventID.String()).
		Scan(ctx)
	if err != nil {
		if isNoRows(err) {
			return nil, fungible.ErrEventNotFound
		}
		return nil, fmt.Errorf("fungible/postgres: get event: %w", err)
	}
	return fromEventModel(m)
}

func (s *Store) ListEvents(ctx context.Context, opts event.ListOpts) ([]*event.Event, error) {
	var models []eventModel
	q := s.pg.NewSelect(&models)

	argIdx := 0
	if !opts.LedgerID.IsNil() {
		argIdx++
		q = q.Where(fmt.Sprintf("ledger_id = $%d", argIdx), opts.LedgerID.String())
	}
	if opts.Account != nil {
		argIdx++
		q = q.Where(fmt.Sprintf("(from_addr = $%[1]d OR to_addr = $%[1]d OR owner_addr = $%[1]d OR spender_addr = $%[1]d)", argIdx),
			opts.Account.Hex())
	}
	if opts.Kind != "" {
		argIdx++
		q = q.Where(fmt.Sprintf("kind = $%d", argIdx), string(opts.Kind))
	}
	if opts.AfterSeq > 0 {
		argIdx++
		q = q.Where(fmt.Sprintf("seq > $%d", argIdx), int64(opts.AfterSeq)) //nolint:gosec // sequence numbers stay far below 2^63
	}
	if opts.Limit > 0 {
		q = q.Limit(opts.Limit)
	}
	if opts.Offset > 0 {
		q = q.Offset(opts.Offset)
	}
	q = q.OrderExpr("seq ASC")

	if err := q.Scan(ctx); err != nil {
		return nil, fmt.Errorf("fungible/postgres: list events: %w", err)
	}

	result := make([]*event.Event, len(models))
	for i := range models {
		evt, err := fromEventModel(&models[i])
		if err != nil {
			return nil, err
		}
		result[i] = evt
	}
	return result, nil
}

func (s *Store) LastSeq(ctx context.Context, ledgerID id.LedgerID) (uint64, error) {
	var last int64
	err := s.pg.NewRaw(`
		SELECT COALESCE(MAX(seq), 0) FROM fungible_events
		WHERE ledger_id = $1
	`, ledgerID.String()).Scan(ctx, &last)
	if err != nil {
		return 0, fmt.Errorf("fungible/postgres: last seq: %w", err)
	}
	return uint64(last), nil //nolint:gosec // MAX of non-negative values
}

// ==================== Helpers ====================

// now returns the current UTC time.
func now() time.Time {
	return time.Now().UTC()
}

// isSeqConflict reports a violation of the (ledger_id, seq) unique index.
func isSeqConflict(err error) bool {
	return strings.Contains(err.Error(), "idx_fungible_events_ledger_seq")
}

// isNoRows checks for the standard sql.ErrNoRows sentinel.
func isNoRows(err error) bool {
	return errors.Is(err, sql.ErrNoRows)
}
