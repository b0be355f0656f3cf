// Package memory provides an in-process event sink. It is the default sink
// for tests and for hosts that only need recent history while running.
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/xraph/fungible"
	"github.com/xraph/fungible/event"
	"github.com/xraph/fungible/id"
	"github.com/xraph/fungible/store"
)

var _ store.Store = (*Store)(nil)

// Store keeps events in memory, in append order.
type Store struct {
	mu sync.RWMutex

	events []event.Event
	byID   map[string]int
	bySeq  map[seqKey]string
	closed bool
}

type seqKey struct {
	ledger string
	seq    uint64
}

// New creates an empty memory store.
func New() *Store {
	return &Store{
		events: make([]event.Event, 0),
		byID:   make(map[string]int),
		bySeq:  make(map[seqKey]string),
	}
}

// Event Store implementation
func (s *Store) AppendEvents(_ context.Context, events []*event.Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return fungible.ErrStoreClosed
	}

	// Validate the whole batch first so a conflict stores nothing.
	batch := make(map[seqKey]string, len(events))
	for _, e := range events {
		key := seqKey{ledger: e.LedgerID.String(), seq: e.Seq}
		eventID := e.ID.String()
		if owner, ok := s.bySeq[key]; ok && owner != eventID {
			return fmt.Errorf("fungible/memory: seq %d: %w", e.Seq, fungible.ErrDuplicateSeq)
		}
		if owner, ok := batch[key]; ok && owner != eventID {
			return fmt.Errorf("fungible/memory: seq %d: %w", e.Seq, fungible.ErrDuplicateSeq)
		}
		batch[key] = eventID
	}

	for _, e := range events {
		eventID := e.ID.String()
		if _, exists := s.byID[eventID]; exists {
			continue // Skip duplicate
		}
		s.byID[eventID] = len(s.events)
		s.bySeq[seqKey{ledger: e.LedgerID.String(), seq: e.Seq}] = eventID
		s.events = append(s.events, *e)
	}
	return nil
}

func (s *Store) GetEvent(_ context.Context, eventID id.EventID) (*event.Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return nil, fungible.ErrStoreClosed
	}

	if i, ok := s.byID[eventID.String()]; ok {
		e := s.events[i]
		return &e, nil
	}
	return nil, fungible.ErrEventNotFound
}

func (s *Store) ListEvents(_ context.Context, opts event.ListOpts) ([]*event.Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return nil, fungible.ErrStoreClosed
	}

	var result []*event.Event
	for i := range s.events {
		if opts.Matches(&s.events[i]) {
			e := s.events[i]
			result = append(result, &e)
		}
	}

	sort.SliceStable(result, func(i, j int) bool {
		return result[i].Seq < result[j].Seq
	})

	return applyPagination(result, opts.Offset, opts.Limit), nil
}

func (s *Store) LastSeq(_ context.Context, ledgerID id.LedgerID) (uint64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return 0, fungible.ErrStoreClosed
	}

	var last uint64
	for i := range s.events {
		if s.events[i].LedgerID == ledgerID && s.events[i].Seq > last {
			last = s.events[i].Seq
		}
	}
	return last, nil
}

// Len returns the number of stored events.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.events)
}

// Store management
func (s *Store) Migrate(_ context.Context) error {
	return nil // No migration needed for memory store
}

func (s *Store) Ping(_ context.Context) error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return fungible.ErrStoreClosed
	}
	return nil
}

func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.closed = true
	return nil
}

// Helper functions
func applyPagination(events []*event.Event, offset, limit int) []*event.Event {
	if offset > 0 {
		if offset >= len(events) {
			return nil
		}
		events = events[offset:]
	}
	if limit > 0 && limit < len(events) {
		events = events[:limit]
	}
	return events
}
