package fungible

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/xraph/fungible/event"
	"github.com/xraph/fungible/id"
	"github.com/xraph/fungible/plugin"
	"github.com/xraph/fungible/store"
	"github.com/xraph/fungible/types"
)

// Genesis describes the asset a ledger is created for.
type Genesis struct {
	Name     string
	Symbol   string
	Decimals uint8
	// InitialSupply is expressed in whole units; the stored supply is
	// InitialSupply × 10^Decimals.
	InitialSupply types.Amount
}

// Metadata is the read-only description of a ledger's asset.
type Metadata struct {
	Name        string       `json:"name"`
	Symbol      string       `json:"symbol"`
	Decimals    uint8        `json:"decimals"`
	TotalSupply types.Amount `json:"total_supply"`
}

type allowanceKey struct {
	owner   types.Address
	spender types.Address
}

// Ledger is a single fungible asset: balances, allowances and a privileged
// account. All state lives in memory behind one lock; the event sink and
// plugins only observe it.
type Ledger struct {
	id      id.LedgerID
	store   store.Store
	plugins *plugin.Registry
	logger  *slog.Logger
	now     func() time.Time

	mu          sync.RWMutex
	meta        Metadata
	owner       types.Address
	balances    map[types.Address]types.Amount
	allowances  map[allowanceKey]types.Amount
	seq         uint64
	registerErr error

	// Dispatcher
	pendingMu sync.Mutex
	pending   []*event.Event
	notify    chan struct{}
	flushMu   sync.Mutex
	stopChan  chan struct{}
	stopOnce  sync.Once
	started   atomic.Bool
	stopped   atomic.Bool
	dropOnce  sync.Once
	wg        sync.WaitGroup

	// Configuration
	batchSize     int
	flushInterval time.Duration
	autoMigrate   bool
}

// New creates a ledger and credits the whole initial supply to creator, who
// also becomes the privileged account. A nil store disables the event sink;
// plugins still receive every event.
func New(s store.Store, creator types.Address, g Genesis, opts ...Option) (*Ledger, error) {
	if types.IsNull(creator) {
		return nil, fmt.Errorf("%w: creator is the null address", ErrInvalidRecipient)
	}

	supply, err := g.InitialSupply.Scale(g.Decimals)
	if err != nil {
		return nil, fmt.Errorf("%w: initial supply %s with %d decimals", arithmeticErr(err), g.InitialSupply, g.Decimals)
	}

	l := &Ledger{
		id:            id.NewLedgerID(),
		store:         s,
		plugins:       plugin.NewRegistry(),
		logger:        slog.Default(),
		now:           time.Now,
		balances:      make(map[types.Address]types.Amount),
		allowances:    make(map[allowanceKey]types.Amount),
		notify:        make(chan struct{}, 1),
		stopChan:      make(chan struct{}),
		batchSize:     100,
		flushInterval: time.Second,
		autoMigrate:   true,
	}

	for _, opt := range opts {
		opt(l)
	}
	if l.registerErr != nil {
		return nil, l.registerErr
	}

	l.meta = Metadata{
		Name:        g.Name,
		Symbol:      g.Symbol,
		Decimals:    g.Decimals,
		TotalSupply: supply,
	}
	l.owner = creator
	l.setBalance(creator, supply)

	// Genesis movement, so observers can rebuild balances from the stream.
	l.mu.Lock()
	l.record(event.Transfer(types.NullAddress, creator, supply))
	l.mu.Unlock()

	return l, nil
}

// Option configures a Ledger instance.
type Option func(*Ledger)

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(l *Ledger) {
		l.logger = logger
		l.plugins.WithLogger(logger)
	}
}

// WithPlugin registers a plugin. A duplicate name makes New fail.
func WithPlugin(p plugin.Plugin) Option {
	return func(l *Ledger) {
		if err := l.plugins.Register(p); err != nil {
			l.registerErr = errors.Join(l.registerErr, err)
		}
	}
}

// WithDispatchConfig configures event delivery. Non-positive values keep the
// defaults.
func WithDispatchConfig(batchSize int, flushInterval time.Duration) Option {
	return func(l *Ledger) {
		if batchSize > 0 {
			l.batchSize = batchSize
		}
		if flushInterval > 0 {
			l.flushInterval = flushInterval
		}
	}
}

// WithClock sets the time source used to stamp events.
func WithClock(now func() time.Time) Option {
	return func(l *Ledger) {
		l.now = now
	}
}

// WithAutoMigrate controls whether Start migrates the event sink.
func WithAutoMigrate(enabled bool) Option {
	return func(l *Ledger) {
		l.autoMigrate = enabled
	}
}

// WithID sets the ledger identity stamped on every event. Start refuses to
// run if the sink already holds events for that ID.
func WithID(ledgerID id.LedgerID) Option {
	return func(l *Ledger) {
		if !ledgerID.IsNil() {
			l.id = ledgerID
		}
	}
}

// Start migrates the event sink, initializes plugins and starts the
// dispatcher. It returns ErrStreamExists if the sink already has events for
// this ledger's ID.
func (l *Ledger) Start(ctx context.Context) error {
	if !l.started.CompareAndSwap(false, true) {
		return ErrAlreadyStarted
	}

	if err := l.prepareStore(ctx); err != nil {
		l.started.Store(false)
		return err
	}

	l.plugins.EmitInit(ctx, l)

	l.wg.Add(1)
	go l.dispatchWorker(context.WithoutCancel(ctx))

	l.logger.Info("fungible ledger started",
		"ledger_id", l.id.String(),
		"symbol", l.meta.Symbol,
		"batch_size", l.batchSize,
		"flush_interval", l.flushInterval,
	)

	return nil
}

// prepareStore migrates the sink and makes sure nothing was written under
// this ledger's ID before.
func (l *Ledger) prepareStore(ctx context.Context) error {
	if l.store == nil {
		return nil
	}

	if l.autoMigrate {
		if err := l.store.Migrate(ctx); err != nil {
			return err
		}
	}

	last, err := l.store.LastSeq(ctx, l.id)
	if err != nil {
		return fmt.Errorf("fungible: read last sequence: %w", err)
	}
	if last > 0 {
		return fmt.Errorf("%w: %s has events up to seq %d", ErrStreamExists, l.id, last)
	}
	return nil
}

// Stop delivers every pending event, shuts plugins down and closes the sink.
// Operations still succeed after Stop; their events are discarded and a
// warning is logged once.
func (l *Ledger) Stop() error {
	var err error
	l.stopOnce.Do(func() {
		// Taken under mu so no record call can slip between the flag and
		// the final drain.
		l.mu.Lock()
		l.stopped.Store(true)
		l.mu.Unlock()

		close(l.stopChan)
		l.wg.Wait()

		ctx := context.Background()
		if flushErr := l.drain(ctx); flushErr != nil {
			l.logger.Error("final event flush failed", "error", flushErr)
		}
		l.plugins.EmitShutdown(ctx)

		if l.store != nil {
			err = l.store.Close()
		}

		l.logger.Info("fungible ledger stopped",
			"ledger_id", l.id.String(),
			"last_seq", l.Sequence(),
		)
	})
	return err
}

// ──────────────────────────────────────────────────
// Operations
// ──────────────────────────────────────────────────

// Transfer moves value from caller to to.
func (l *Ledger) Transfer(caller, to types.Address, value types.Amount) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if err := check(
		notNull("recipient", to),
		covers(l.balances[caller], value, ErrInsufficientBalance),
	); err != nil {
		return err
	}

	if err := l.move(caller, to, value); err != nil {
		return err
	}

	l.record(event.Transfer(caller, to, value))
	return nil
}

// Approve sets the amount spender may move out of caller's balance. The new
// value replaces the old one.
func (l *Ledger) Approve(caller, spender types.Address, value types.Amount) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if err := check(notNull("spender", spender)); err != nil {
		return err
	}

	l.setAllowance(allowanceKey{owner: caller, spender: spender}, value)

	l.record(event.Approval(caller, spender, value))
	return nil
}

// TransferFrom moves value from from to to on from's behalf, consuming the
// allowance from granted to caller.
func (l *Ledger) TransferFrom(caller, from, to types.Address, value types.Amount) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	key := allowanceKey{owner: from, spender: caller}
	allowed := l.allowances[key]

	if err := check(
		notNull("sender", from),
		notNull("recipient", to),
		covers(l.balances[from], value, ErrInsufficientBalance),
		covers(allowed, value, ErrInsufficientAllowance),
	); err != nil {
		return err
	}

	remaining, err := allowed.Sub(value)
	if err != nil {
		return fmt.Errorf("%w: allowance", ErrInsufficientAllowance)
	}

	if err := l.move(from, to, value); err != nil {
		return err
	}
	l.setAllowance(key, remaining)

	l.record(event.Transfer(from, to, value))
	return nil
}

// Mint creates value new units for to. Only the privileged account may mint.
func (l *Ledger) Mint(caller, to types.Address, value types.Amount) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if err := check(
		onlyOwner(l.owner, caller),
		notNull("recipient", to),
	); err != nil {
		return err
	}

	supply, err := l.meta.TotalSupply.Add(value)
	if err != nil {
		return fmt.Errorf("%w: total supply", arithmeticErr(err))
	}
	credited, err := l.balances[to].Add(value)
	if err != nil {
		return fmt.Errorf("%w: balance of %s", arithmeticErr(err), to.Hex())
	}

	l.meta.TotalSupply = supply
	l.setBalance(to, credited)

	l.record(
		event.Mint(to, value),
		event.Transfer(types.NullAddress, to, value),
	)
	return nil
}

// Burn destroys value units from caller's own balance.
func (l *Ledger) Burn(caller types.Address, value types.Amount) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if err := check(covers(l.balances[caller], value, ErrInsufficientBalance)); err != nil {
		return err
	}

	debited, err := l.balances[caller].Sub(value)
	if err != nil {
		return arithmeticErr(err)
	}
	supply, err := l.meta.TotalSupply.Sub(value)
	if err != nil {
		return arithmeticErr(err)
	}

	l.meta.TotalSupply = supply
	l.setBalance(caller, debited)

	l.record(
		event.Burn(caller, value),
		event.Transfer(caller, types.NullAddress, value),
	)
	return nil
}

// TransferOwnership hands the privileged role to newOwner.
func (l *Ledger) TransferOwnership(caller, newOwner types.Address) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if err := check(
		onlyOwner(l.owner, caller),
		notNull("new owner", newOwner),
	); err != nil {
		return err
	}

	previous := l.owner
	l.owner = newOwner

	l.record(event.OwnershipTransferred(previous, newOwner))
	return nil
}

// ──────────────────────────────────────────────────
// Reads
// ──────────────────────────────────────────────────

// BalanceOf returns the balance of account; unknown accounts hold zero.
func (l *Ledger) BalanceOf(account types.Address) types.Amount {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.balances[account]
}

// Allowance returns how much spender may still move out of owner's balance.
func (l *Ledger) Allowance(owner, spender types.Address) types.Amount {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.allowances[allowanceKey{owner: owner, spender: spender}]
}

// Owner returns the privileged account.
func (l *Ledger) Owner() types.Address {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.owner
}

// Metadata returns the asset description and current total supply.
func (l *Ledger) Metadata() Metadata {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.meta
}

// ID returns the ledger identity.
func (l *Ledger) ID() id.LedgerID { return l.id }

// Sequence returns the sequence number of the last recorded event.
func (l *Ledger) Sequence() uint64 {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.seq
}

// Plugins returns the plugin registry.
func (l *Ledger) Plugins() *plugin.Registry { return l.plugins }

// Store returns the event sink, or nil.
func (l *Ledger) Store() store.Store { return l.store }

// ──────────────────────────────────────────────────
// Event queries
// ──────────────────────────────────────────────────

// Events lists delivered events from the sink. Without a LedgerID filter the
// query is scoped to this ledger.
func (l *Ledger) Events(ctx context.Context, opts event.ListOpts) ([]*event.Event, error) {
	if l.store == nil {
		return nil, nil
	}
	if opts.LedgerID.IsNil() {
		opts.LedgerID = l.id
	}
	return l.store.ListEvents(ctx, opts)
}

// Event returns one delivered event from the sink.
func (l *Ledger) Event(ctx context.Context, eventID id.EventID) (*event.Event, error) {
	if l.store == nil {
		return nil, ErrEventNotFound
	}
	return l.store.GetEvent(ctx, eventID)
}

// ──────────────────────────────────────────────────
// State helpers (caller holds l.mu)
// ──────────────────────────────────────────────────

// move debits from and credits to. Both new balances are computed before
// either is written.
func (l *Ledger) move(from, to types.Address, value types.Amount) error {
	if from == to {
		return nil
	}

	debited, err := l.balances[from].Sub(value)
	if err != nil {
		return fmt.Errorf("%w: balance of %s", arithmeticErr(err), from.Hex())
	}
	credited, err := l.balances[to].Add(value)
	if err != nil {
		return fmt.Errorf("%w: balance of %s", arithmeticErr(err), to.Hex())
	}

	l.setBalance(from, debited)
	l.setBalance(to, credited)
	return nil
}

func (l *Ledger) setBalance(a types.Address, v types.Amount) {
	if v.IsZero() {
		delete(l.balances, a)
		return
	}
	l.balances[a] = v
}

func (l *Ledger) setAllowance(k allowanceKey, v types.Amount) {
	if v.IsZero() {
		delete(l.allowances, k)
		return
	}
	l.allowances[k] = v
}
