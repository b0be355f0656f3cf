package fungible_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/xraph/fungible"
	"github.com/xraph/fungible/event"
	"github.com/xraph/fungible/id"
	"github.com/xraph/fungible/store"
	"github.com/xraph/fungible/store/memory"
)

// recorder is a plugin that remembers everything it is told.
type recorder struct {
	name string

	mu       sync.Mutex
	events   []*event.Event
	flushed  []int
	inits    int
	shutdown int
}

func newRecorder(name string) *recorder { return &recorder{name: name} }

func (r *recorder) Name() string { return r.name }

func (r *recorder) add(evt *event.Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, evt)
	return nil
}

func (r *recorder) OnInit(context.Context, any) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.inits++
	return nil
}

func (r *recorder) OnShutdown(context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.shutdown++
	return nil
}

func (r *recorder) OnTransfer(_ context.Context, evt *event.Event) error { return r.add(evt) }
func (r *recorder) OnApproval(_ context.Context, evt *event.Event) error { return r.add(evt) }
func (r *recorder) OnMint(_ context.Context, evt *event.Event) error     { return r.add(evt) }
func (r *recorder) OnBurn(_ context.Context, evt *event.Event) error     { return r.add(evt) }
func (r *recorder) OnOwnershipTransferred(_ context.Context, evt *event.Event) error {
	return r.add(evt)
}

func (r *recorder) OnEventsFlushed(_ context.Context, count int, _ time.Duration) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.flushed = append(r.flushed, count)
	return nil
}

func (r *recorder) seen() []*event.Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*event.Event, len(r.events))
	copy(out, r.events)
	return out
}

// failingStore rejects every write.
type failingStore struct {
	store.Store
}

var errSinkDown = errors.New("sink down")

func (failingStore) AppendEvents(context.Context, []*event.Event) error { return errSinkDown }
func (failingStore) Migrate(context.Context) error                     { return nil }
func (failingStore) Close() error                                      { return nil }
func (failingStore) ListEvents(context.Context, event.ListOpts) ([]*event.Event, error) {
	return nil, errSinkDown
}
func (failingStore) GetEvent(context.Context, id.EventID) (*event.Event, error) {
	return nil, errSinkDown
}
func (failingStore) LastSeq(context.Context, id.LedgerID) (uint64, error) { return 0, nil }

func TestPluginsReceiveEventsInOrder(t *testing.T) {
	rec := newRecorder("recorder")
	l, _ := newLedger(t, fungible.WithPlugin(rec))

	_ = l.Approve(creator, alice, amt(10))
	_ = l.Mint(creator, bob, amt(3))
	_ = l.TransferOwnership(creator, alice)

	if got := len(rec.seen()); got != 0 {
		t.Fatalf("plugin saw %d events before flush", got)
	}
	if got := l.Pending(); got != 5 {
		t.Errorf("Pending() = %d, want 5", got)
	}

	if err := l.Flush(context.Background()); err != nil {
		t.Fatalf("Flush: %v", err)
	}
	if got := l.Pending(); got != 0 {
		t.Errorf("Pending() after flush = %d", got)
	}

	wantKinds := []event.Kind{
		event.KindTransfer,
		event.KindApproval,
		event.KindMint,
		event.KindTransfer,
		event.KindOwnershipTransferred,
	}
	seen := rec.seen()
	if len(seen) != len(wantKinds) {
		t.Fatalf("plugin saw %d events, want %d", len(seen), len(wantKinds))
	}
	for i, k := range wantKinds {
		if seen[i].Kind != k || seen[i].Seq != uint64(i+1) {
			t.Errorf("event %d = %s seq %d, want %s seq %d", i, seen[i].Kind, seen[i].Seq, k, i+1)
		}
	}
}

func TestFlushBatches(t *testing.T) {
	rec := newRecorder("recorder")
	l, s := newLedger(t,
		fungible.WithPlugin(rec),
		fungible.WithDispatchConfig(2, time.Hour),
	)

	for range 4 {
		_ = l.Transfer(creator, alice, amt(1))
	}

	if err := l.Flush(context.Background()); err != nil {
		t.Fatalf("Flush: %v", err)
	}

	rec.mu.Lock()
	flushed := append([]int(nil), rec.flushed...)
	rec.mu.Unlock()

	want := []int{2, 2, 1}
	if len(flushed) != len(want) {
		t.Fatalf("flushed batches = %v, want %v", flushed, want)
	}
	for i := range want {
		if flushed[i] != want[i] {
			t.Errorf("flushed batches = %v, want %v", flushed, want)
			break
		}
	}
	if s.Len() != 5 {
		t.Errorf("sink holds %d events, want 5", s.Len())
	}
}

func TestSinkFailureDoesNotAffectState(t *testing.T) {
	rec := newRecorder("recorder")
	l, err := fungible.New(failingStore{}, creator, fungible.Genesis{InitialSupply: amt(100)},
		fungible.WithPlugin(rec),
	)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	if err := l.Transfer(creator, alice, amt(40)); err != nil {
		t.Fatalf("Transfer: %v", err)
	}

	if err := l.Flush(context.Background()); !errors.Is(err, errSinkDown) {
		t.Errorf("Flush = %v, want sink error", err)
	}
	if got := l.BalanceOf(alice); !got.Equal(amt(40)) {
		t.Errorf("alice balance = %s, want 40", got)
	}
	if got := len(rec.seen()); got != 2 {
		t.Errorf("plugin saw %d events, want 2", got)
	}
	if got := l.Pending(); got != 0 {
		t.Errorf("Pending() = %d, want 0", got)
	}
}

func TestStartStop(t *testing.T) {
	rec := newRecorder("recorder")
	l, s := newLedger(t,
		fungible.WithPlugin(rec),
		fungible.WithDispatchConfig(100, time.Hour),
	)

	ctx := context.Background()
	if err := l.Start(ctx); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if err := l.Start(ctx); !errors.Is(err, fungible.ErrAlreadyStarted) {
		t.Errorf("second Start = %v, want ErrAlreadyStarted", err)
	}

	_ = l.Transfer(creator, alice, amt(1))
	_ = l.Burn(alice, amt(1))

	if err := l.Stop(); err != nil {
		t.Fatalf("Stop: %v", err)
	}

	if got := len(rec.seen()); got != 4 {
		t.Errorf("plugin saw %d events, want 4", got)
	}
	rec.mu.Lock()
	inits, shutdown := rec.inits, rec.shutdown
	rec.mu.Unlock()
	if inits != 1 || shutdown != 1 {
		t.Errorf("inits = %d, shutdown = %d; want 1, 1", inits, shutdown)
	}
	if err := s.Ping(ctx); !errors.Is(err, fungible.ErrStoreClosed) {
		t.Errorf("sink not closed after Stop: %v", err)
	}
	if err := l.Stop(); err != nil {
		t.Errorf("second Stop: %v", err)
	}
}

func TestWorkerFlushesFullBatch(t *testing.T) {
	rec := newRecorder("recorder")
	l, _ := newLedger(t,
		fungible.WithPlugin(rec),
		fungible.WithDispatchConfig(3, time.Hour),
	)

	if err := l.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer l.Stop()

	_ = l.Transfer(creator, alice, amt(1))
	_ = l.Transfer(creator, bob, amt(1))

	deadline := time.Now().Add(5 * time.Second)
	for len(rec.seen()) < 3 && time.Now().Before(deadline) {
		time.Sleep(10 * time.Millisecond)
	}
	if got := len(rec.seen()); got != 3 {
		t.Errorf("plugin saw %d events, want 3", got)
	}
}

func TestWorkerFlushesOnInterval(t *testing.T) {
	rec := newRecorder("recorder")
	l, _ := newLedger(t,
		fungible.WithPlugin(rec),
		fungible.WithDispatchConfig(100, 20*time.Millisecond),
	)

	if err := l.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer l.Stop()

	deadline := time.Now().Add(5 * time.Second)
	for len(rec.seen()) < 1 && time.Now().Before(deadline) {
		time.Sleep(10 * time.Millisecond)
	}
	if got := len(rec.seen()); got != 1 {
		t.Errorf("plugin saw %d events, want 1", got)
	}
}

func TestNilStore(t *testing.T) {
	l, err := fungible.New(nil, creator, fungible.Genesis{InitialSupply: amt(1)})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	ctx := context.Background()

	if err := l.Start(ctx); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if err := l.Flush(ctx); err != nil {
		t.Errorf("Flush: %v", err)
	}
	evts, err := l.Events(ctx, event.ListOpts{})
	if err != nil || len(evts) != 0 {
		t.Errorf("Events() = %v, %v; want empty", evts, err)
	}
	if _, err := l.Event(ctx, id.NewEventID()); !errors.Is(err, fungible.ErrEventNotFound) {
		t.Errorf("Event() = %v, want ErrEventNotFound", err)
	}
	if err := l.Stop(); err != nil {
		t.Errorf("Stop: %v", err)
	}
}

func TestPinnedIDRefusesExistingStream(t *testing.T) {
	ctx := context.Background()
	s := memory.New()
	pinned := fungible.NewLedgerID()
	g := fungible.Genesis{InitialSupply: amt(100)}

	first, err := fungible.New(s, creator, g, fungible.WithID(pinned))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if err := first.Start(ctx); err != nil {
		t.Fatalf("first Start: %v", err)
	}
	_ = first.Transfer(creator, alice, amt(1))
	if err := first.Flush(ctx); err != nil {
		t.Fatalf("Flush: %v", err)
	}

	// A second process with the same pinned ID restarts at seq 1.
	second, err := fungible.New(s, creator, g, fungible.WithID(pinned))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if err := second.Start(ctx); !errors.Is(err, fungible.ErrStreamExists) {
		t.Fatalf("second Start = %v, want ErrStreamExists", err)
	}
	if err := second.Start(ctx); !errors.Is(err, fungible.ErrStreamExists) {
		t.Errorf("retried Start = %v, want ErrStreamExists", err)
	}

	// Delivering anyway is refused by the sink instead of reusing seqs.
	_ = second.Transfer(creator, bob, amt(1))
	if err := second.Flush(ctx); !errors.Is(err, fungible.ErrDuplicateSeq) {
		t.Errorf("second Flush = %v, want ErrDuplicateSeq", err)
	}

	evts, err := s.ListEvents(ctx, event.ListOpts{LedgerID: pinned})
	if err != nil {
		t.Fatalf("ListEvents: %v", err)
	}
	seen := make(map[uint64]bool)
	for _, e := range evts {
		if seen[e.Seq] {
			t.Errorf("seq %d stored twice", e.Seq)
		}
		seen[e.Seq] = true
	}
	if len(evts) != 2 {
		t.Errorf("stream holds %d events, want 2", len(evts))
	}

	if err := first.Stop(); err != nil {
		t.Errorf("Stop: %v", err)
	}
}

func TestFreshIDSharesSink(t *testing.T) {
	ctx := context.Background()
	s := memory.New()
	g := fungible.Genesis{InitialSupply: amt(100)}

	for i := range 2 {
		l, err := fungible.New(s, creator, g)
		if err != nil {
			t.Fatalf("New: %v", err)
		}
		if err := l.Start(ctx); err != nil {
			t.Fatalf("Start ledger %d: %v", i, err)
		}
		if err := l.Flush(ctx); err != nil {
			t.Fatalf("Flush ledger %d: %v", i, err)
		}
	}
	if s.Len() != 2 {
		t.Errorf("sink holds %d events, want 2", s.Len())
	}
}

func TestEventsAfterStopAreDropped(t *testing.T) {
	rec := newRecorder("recorder")
	l, s := newLedger(t, fungible.WithPlugin(rec))

	if err := l.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if err := l.Stop(); err != nil {
		t.Fatalf("Stop: %v", err)
	}

	for range 3 {
		if err := l.Transfer(creator, alice, amt(1)); err != nil {
			t.Fatalf("Transfer after Stop: %v", err)
		}
	}

	if got := l.BalanceOf(alice); !got.Equal(amt(3)) {
		t.Errorf("alice balance = %s, want 3", got)
	}
	if got := l.Sequence(); got != 4 {
		t.Errorf("Sequence() = %d, want 4", got)
	}
	if got := l.Pending(); got != 0 {
		t.Errorf("Pending() = %d, want 0", got)
	}
	if err := l.Flush(context.Background()); err != nil {
		t.Errorf("Flush after Stop: %v", err)
	}
	if got := len(rec.seen()); got != 1 {
		t.Errorf("plugin saw %d events, want 1", got)
	}
	if s.Len() != 1 {
		t.Errorf("sink holds %d events, want 1", s.Len())
	}
}
