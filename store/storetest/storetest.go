// Package storetest runs the behavior every store.Store must share against
// a concrete sink.
package storetest

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/xraph/fungible"
	"github.com/xraph/fungible/event"
	"github.com/xraph/fungible/id"
	"github.com/xraph/fungible/store"
	"github.com/xraph/fungible/types"
)

// Opener returns an empty, migrated store. Run calls it once per case.
type Opener func(t *testing.T) store.Store

var (
	alice = types.MustParseAddress("0x00000000000000000000000000000000000000a1")
	bob   = types.MustParseAddress("0x00000000000000000000000000000000000000b2")
	carol = types.MustParseAddress("0x00000000000000000000000000000000000000c3")
	dave  = types.MustParseAddress("0x00000000000000000000000000000000000000d4")
)

var epoch = time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC)

func stamp(ledgerID id.LedgerID, seq uint64, e *event.Event) *event.Event {
	e.ID = id.NewEventID()
	e.LedgerID = ledgerID
	e.Seq = seq
	e.Timestamp = epoch.Add(time.Duration(seq) * time.Second)
	return e
}

// fixture is one ledger's stream where every address field is exercised.
//
//	1 transfer  null  -> alice
//	2 transfer  alice -> bob
//	3 approval  carol grants alice
//	4 approval  alice grants dave
//	5 mint      bob
//	6 burn      dave
type fixture struct {
	ledger id.LedgerID
	other  id.LedgerID
	events []*event.Event
}

func newFixture() fixture {
	ledger := id.NewLedgerID()
	return fixture{
		ledger: ledger,
		other:  id.NewLedgerID(),
		events: []*event.Event{
			stamp(ledger, 1, event.Transfer(types.NullAddress, alice, types.NewAmount(100))),
			stamp(ledger, 2, event.Transfer(alice, bob, types.NewAmount(40))),
			stamp(ledger, 3, event.Approval(carol, alice, types.NewAmount(7))),
			stamp(ledger, 4, event.Approval(alice, dave, types.NewAmount(9))),
			stamp(ledger, 5, event.Mint(bob, types.NewAmount(3))),
			stamp(ledger, 6, event.Burn(dave, types.NewAmount(1))),
		},
	}
}

// load appends the fixture out of order, split over two batches, plus one
// event for an unrelated ledger.
func (f fixture) load(t *testing.T, s store.Store) {
	t.Helper()
	ctx := context.Background()

	e := f.events
	if err := s.AppendEvents(ctx, []*event.Event{e[3], e[4], e[5]}); err != nil {
		t.Fatalf("AppendEvents: %v", err)
	}
	if err := s.AppendEvents(ctx, []*event.Event{e[0], e[1], e[2]}); err != nil {
		t.Fatalf("AppendEvents: %v", err)
	}

	foreign := stamp(f.other, 1, event.Transfer(types.NullAddress, alice, types.NewAmount(1)))
	if err := s.AppendEvents(ctx, []*event.Event{foreign}); err != nil {
		t.Fatalf("AppendEvents(other ledger): %v", err)
	}
}

func seqs(events []*event.Event) []uint64 {
	out := make([]uint64, len(events))
	for i, e := range events {
		out[i] = e.Seq
	}
	return out
}

func equalSeqs(a, b []uint64) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// Run checks s against the store.Store contract.
func Run(t *testing.T, open Opener) {
	t.Helper()

	tests := []struct {
		name string
		run  func(t *testing.T, s store.Store)
	}{
		{"get returns stored event", testGetEvent},
		{"get unknown event", testGetUnknown},
		{"append is idempotent by id", testAppendIdempotent},
		{"append rejects reused seq", testDuplicateSeq},
		{"list filters", testListFilters},
		{"last seq", testLastSeq},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.run(t, open(t))
		})
	}
}

func testGetEvent(t *testing.T, s store.Store) {
	f := newFixture()
	f.load(t, s)

	for _, want := range f.events {
		got, err := s.GetEvent(context.Background(), want.ID)
		if err != nil {
			t.Fatalf("GetEvent(seq %d): %v", want.Seq, err)
		}
		if got.ID != want.ID || got.LedgerID != want.LedgerID || got.Seq != want.Seq || got.Kind != want.Kind {
			t.Errorf("seq %d identity = %+v, want %+v", want.Seq, got, want)
		}
		if got.From != want.From || got.To != want.To || got.Owner != want.Owner || got.Spender != want.Spender {
			t.Errorf("seq %d addresses = %+v, want %+v", want.Seq, got, want)
		}
		if !got.Value.Equal(want.Value) {
			t.Errorf("seq %d value = %s, want %s", want.Seq, got.Value, want.Value)
		}
		if !got.Timestamp.Equal(want.Timestamp) {
			t.Errorf("seq %d timestamp = %v, want %v", want.Seq, got.Timestamp, want.Timestamp)
		}
	}
}

func testGetUnknown(t *testing.T, s store.Store) {
	if _, err := s.GetEvent(context.Background(), id.NewEventID()); !errors.Is(err, fungible.ErrEventNotFound) {
		t.Errorf("GetEvent(unknown) = %v, want ErrEventNotFound", err)
	}
}

func testAppendIdempotent(t *testing.T, s store.Store) {
	ctx := context.Background()
	f := newFixture()

	for range 3 {
		if err := s.AppendEvents(ctx, f.events); err != nil {
			t.Fatalf("AppendEvents: %v", err)
		}
	}
	// Partial overlap with a new event at the end.
	next := stamp(f.ledger, 7, event.Transfer(bob, carol, types.NewAmount(2)))
	if err := s.AppendEvents(ctx, []*event.Event{f.events[5], next}); err != nil {
		t.Fatalf("AppendEvents(overlap): %v", err)
	}

	got, err := s.ListEvents(ctx, event.ListOpts{LedgerID: f.ledger})
	if err != nil {
		t.Fatalf("ListEvents: %v", err)
	}
	if want := []uint64{1, 2, 3, 4, 5, 6, 7}; !equalSeqs(seqs(got), want) {
		t.Errorf("seqs = %v, want %v", seqs(got), want)
	}
}

func testDuplicateSeq(t *testing.T, s store.Store) {
	ctx := context.Background()
	f := newFixture()
	f.load(t, s)

	clash := stamp(f.ledger, 2, event.Transfer(bob, carol, types.NewAmount(5)))
	err := s.AppendEvents(ctx, []*event.Event{clash})
	if !errors.Is(err, fungible.ErrDuplicateSeq) {
		t.Fatalf("AppendEvents(reused seq) = %v, want ErrDuplicateSeq", err)
	}

	if _, err := s.GetEvent(ctx, clash.ID); !errors.Is(err, fungible.ErrEventNotFound) {
		t.Errorf("conflicting event was stored: %v", err)
	}
	kept, err := s.GetEvent(ctx, f.events[1].ID)
	if err != nil || kept.To != bob {
		t.Errorf("original seq 2 = %+v, %v", kept, err)
	}

	// The same seq under another ledger is fine.
	other := stamp(f.other, 2, event.Transfer(bob, carol, types.NewAmount(5)))
	if err := s.AppendEvents(ctx, []*event.Event{other}); err != nil {
		t.Errorf("AppendEvents(other ledger seq 2) = %v", err)
	}
}

func testListFilters(t *testing.T, s store.Store) {
	f := newFixture()
	f.load(t, s)

	tests := []struct {
		name string
		opts event.ListOpts
		want []uint64
	}{
		{"ordered by seq", event.ListOpts{LedgerID: f.ledger}, []uint64{1, 2, 3, 4, 5, 6}},
		{"kind", event.ListOpts{LedgerID: f.ledger, Kind: event.KindApproval}, []uint64{3, 4}},
		{"account in to, from, spender and owner", event.ListOpts{LedgerID: f.ledger, Account: &alice}, []uint64{1, 2, 3, 4}},
		{"account as owner only", event.ListOpts{LedgerID: f.ledger, Account: &carol}, []uint64{3}},
		{"account as spender and burner", event.ListOpts{LedgerID: f.ledger, Account: &dave}, []uint64{4, 6}},
		{"account as recipient", event.ListOpts{LedgerID: f.ledger, Account: &bob}, []uint64{2, 5}},
		{"account and kind", event.ListOpts{LedgerID: f.ledger, Account: &alice, Kind: event.KindTransfer}, []uint64{1, 2}},
		{"after seq", event.ListOpts{LedgerID: f.ledger, AfterSeq: 4}, []uint64{5, 6}},
		{"after last seq", event.ListOpts{LedgerID: f.ledger, AfterSeq: 6}, nil},
		{"limit", event.ListOpts{LedgerID: f.ledger, Limit: 2}, []uint64{1, 2}},
		{"limit and offset", event.ListOpts{LedgerID: f.ledger, Limit: 2, Offset: 2}, []uint64{3, 4}},
		{"offset without limit", event.ListOpts{LedgerID: f.ledger, Offset: 4}, []uint64{5, 6}},
		{"offset past end", event.ListOpts{LedgerID: f.ledger, Offset: 10}, nil},
		{"after seq pages", event.ListOpts{LedgerID: f.ledger, AfterSeq: 1, Limit: 2, Offset: 1}, []uint64{3, 4}},
		{"other ledger", event.ListOpts{LedgerID: f.other}, []uint64{1}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := s.ListEvents(context.Background(), tt.opts)
			if err != nil {
				t.Fatalf("ListEvents: %v", err)
			}
			if !equalSeqs(seqs(got), tt.want) {
				t.Errorf("seqs = %v, want %v", seqs(got), tt.want)
			}
		})
	}

	all, err := s.ListEvents(context.Background(), event.ListOpts{})
	if err != nil {
		t.Fatalf("ListEvents(all): %v", err)
	}
	if len(all) != 7 {
		t.Errorf("ListEvents(all) returned %d events, want 7", len(all))
	}
}

func testLastSeq(t *testing.T, s store.Store) {
	ctx := context.Background()
	f := newFixture()

	last, err := s.LastSeq(ctx, f.ledger)
	if err != nil || last != 0 {
		t.Fatalf("LastSeq(empty) = %d, %v; want 0, nil", last, err)
	}

	f.load(t, s)

	if last, err = s.LastSeq(ctx, f.ledger); err != nil || last != 6 {
		t.Errorf("LastSeq = %d, %v; want 6, nil", last, err)
	}
	if last, err = s.LastSeq(ctx, f.other); err != nil || last != 1 {
		t.Errorf("LastSeq(other) = %d, %v; want 1, nil", last, err)
	}
	if last, err = s.LastSeq(ctx, id.NewLedgerID()); err != nil || last != 0 {
		t.Errorf("LastSeq(unknown) = %d, %v; want 0, nil", last, err)
	}
}
