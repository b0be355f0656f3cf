package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/xraph/grove"
	"github.com/xraph/grove/drivers/mongodriver"

	"github.com/xraph/fungible"
	"github.com/xraph/fungible/event"
	"github.com/xraph/fungible/id"
	fungiblestore "github.com/xraph/fungible/store"
)

// Collection name constants.
const (
	colEvents = "fungible_events"
)

// compile-time interface check
var _ fungiblestore.Store = (*Store)(nil)

// Store implements store.Store using MongoDB via Grove ORM.
type Store struct {
	db  *grove.DB
	mdb *mongodriver.MongoDB
}

// New creates a new MongoDB store backed by Grove ORM.
func New(db *grove.DB) *Store {
	return &Store{
		db:  db,
		mdb: mongodriver.Unwrap(db),
	}
}

// DB returns the underlying grove database for direct access.
func (s *Store) DB() *grove.DB { return s.db }

// Migrate creates indexes for the event collection.
func (s *Store) Migrate(ctx context.Context) error {
	indexes := migrationIndexes()

	for col, models := range indexes {
		if len(models) == 0 {
			continue
		}
		_, err := s.mdb.Collection(col).Indexes().CreateMany(ctx, models)
		if err != nil {
			return fmt.Errorf("fungible/mongo: migrate %s indexes: %w", col, err)
		}
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
	for _, e := range events {
		m := toEventModel(e)
		_, err := s.mdb.NewInsert(m).Exec(ctx)
		if err == nil {
			continue
		}
		if !mongo.IsDuplicateKeyError(err) {
			return fmt.Errorf("fungible/mongo: append event: %w", err)
		}
		// A redelivered event is skipped. Any other duplicate key hit the
		// (ledger_id, seq) index.
		if _, getErr := s.GetEvent(ctx, e.ID); getErr == nil {
			continue
		}
		return fmt.Errorf("fungible/mongo: append event seq %d: %w", e.Seq, fungible.ErrDuplicateSeq)
	}
	return nil
}

func (s *Store) GetEvent(ctx context.Context, eventID id.EventID) (*event.Event, error) {
	var m eventModel
	err := s.mdb.NewFind(&m).
		Filter(bson.M{"_id": eventID.String()}).
		Scan(ctx)
	if err != nil {
		if isNoDocuments(err) {
			return nil, fungible.ErrEventNotFound
		}
		return nil, fmt.Errorf("fungible/mongo: get event: %w", err)
	}
	return fromEventModel(&m)
}

func (s *Store) ListEvents(ctx context.Context, opts event.ListOpts) ([]*event.Event, error) {
	var models []eventModel

	filter := bson.M{}
	if !opts.LedgerID.IsNil() {
		filter["ledger_id"] = opts.LedgerID.String()
	}
	if opts.Account != nil {
		a := opts.Account.Hex()
		filter["$or"] = bson.A{
			bson.M{"from_addr": a},
			bson.M{"to_addr": a},
			bson.M{"owner_addr": a},
			bson.M{"spender_addr": a},
		}
	}
	if opts.Kind != "" {
		filter["kind"] = string(opts.Kind)
	}
	if opts.AfterSeq > 0 {
		filter["seq"] = bson.M{"$gt": int64(opts.AfterSeq)} //nolint:gosec // sequence numbers stay far below 2^63
	}

	q := s.mdb.NewFind(&models).
		Filter(filter).
		Sort(bson.D{{Key: "seq", Value: 1}})

	if opts.Limit > 0 {
		q = q.Limit(int64(opts.Limit))
	}
	if opts.Offset > 0 {
		q = q.Skip(int64(opts.Offset))
	}

	if err := q.Scan(ctx); err != nil {
		return nil, fmt.Errorf("fungible/mongo: list events: %w", err)
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
	var models []eventModel
	err := s.mdb.NewFind(&models).
		Filter(bson.M{"ledger_id": ledgerID.String()}).
		Sort(bson.D{{Key: "seq", Value: -1}}).
		Limit(1).
		Scan(ctx)
	if err != nil {
		if isNoDocuments(err) {
			return 0, nil
		}
		return 0, fmt.Errorf("fungible/mongo: last seq: %w", err)
	}
	if len(models) == 0 {
		return 0, nil
	}
	return uint64(models[0].Seq), nil //nolint:gosec // written from a uint64
}

// ==================== Helpers ====================

// now returns the current UTC time.
func now() time.Time {
	return time.Now().UTC()
}

// isNoDocuments checks if an error wraps mongo.ErrNoDocuments.
func isNoDocuments(err error) bool {
	return errors.Is(err, mongo.ErrNoDocuments)
}

// migrationIndexes returns the index definitions for the event collection.
func migrationIndexes() map[string][]mongo.IndexModel {
	return map[string][]mongo.IndexModel{
		colEvents: {
			{
				Keys:    bson.D{{Key: "ledger_id", Value: 1}, {Key: "seq", Value: 1}},
				Options: options.Index().SetUnique(true),
			},
			{Keys: bson.D{{Key: "ledger_id", Value: 1}, {Key: "kind", Value: 1}, {Key: "seq", Value: 1}}},
			{Keys: bson.D{{Key: "from_addr", Value: 1}, {Key: "ledger_id", Value: 1}}},
			{Keys: bson.D{{Key: "to_addr", Value: 1}, {Key: "ledger_id", Value: 1}}},
			{Keys: bson.D{{Key: "owner_addr", Value: 1}, {Key: "ledger_id", Value: 1}}},
			{Keys: bson.D{{Key: "spender_addr", Value: 1}, {Key: "ledger_id", Value: 1}}},
		},
	}
}
