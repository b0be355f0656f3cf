package fungible

import (
	"context"
	"errors"
	"time"

	"github.com/xraph/fungible/event"
	"github.com/xraph/fungible/id"
)

// record stamps evts with identity, sequence and time and queues them for
// delivery. The caller holds l.mu for writing, so sequence order is the order
// in which operations took effect. Once the ledger is stopped events are
// stamped but dropped.
func (l *Ledger) record(evts ...*event.Event) {
	now := l.now().UTC()

	for _, evt := range evts {
		l.seq++
		evt.ID = id.NewEventID()
		evt.LedgerID = l.id
		evt.Seq = l.seq
		evt.Timestamp = now
	}

	if l.stopped.Load() {
		l.dropOnce.Do(func() {
			l.logger.Warn("ledger stopped, events are no longer delivered",
				"ledger_id", l.id.String(),
				"first_dropped_seq", evts[0].Seq,
			)
		})
		return
	}

	l.pendingMu.Lock()
	l.pending = append(l.pending, evts...)
	l.pendingMu.Unlock()

	select {
	case l.notify <- struct{}{}:
	default:
	}
}

// Pending returns the number of recorded events not yet delivered.
func (l *Ledger) Pending() int {
	l.pendingMu.Lock()
	defer l.pendingMu.Unlock()
	return len(l.pending)
}

// Flush delivers every pending event now. The returned error reports sink
// failures only; ledger state is never affected.
func (l *Ledger) Flush(ctx context.Context) error {
	return l.drain(ctx)
}

// dispatchWorker delivers events when a full batch is waiting or the flush
// interval elapses.
func (l *Ledger) dispatchWorker(ctx context.Context) {
	defer l.wg.Done()

	ticker := time.NewTicker(l.flushInterval)
	defer ticker.Stop()

	for {
		select {
		case <-l.stopChan:
			return

		case <-l.notify:
			if l.Pending() >= l.batchSize {
				l.drainLogged(ctx)
			}

		case <-ticker.C:
			l.drainLogged(ctx)
		}
	}
}

func (l *Ledger) drainLogged(ctx context.Context) {
	if err := l.drain(ctx); err != nil {
		l.logger.Error("event flush failed", "error", err)
	}
}

// drain delivers the outbox in batches until it is empty. Only one drain
// runs at a time so batches reach observers in sequence order.
func (l *Ledger) drain(ctx context.Context) error {
	l.flushMu.Lock()
	defer l.flushMu.Unlock()

	var errs []error
	for {
		batch := l.takeBatch()
		if len(batch) == 0 {
			return errors.Join(errs...)
		}
		if err := l.deliver(ctx, batch); err != nil {
			errs = append(errs, err)
		}
	}
}

func (l *Ledger) takeBatch() []*event.Event {
	l.pendingMu.Lock()
	defer l.pendingMu.Unlock()

	n := min(len(l.pending), l.batchSize)
	if n == 0 {
		return nil
	}

	batch := l.pending[:n:n]
	l.pending = l.pending[n:]
	if len(l.pending) == 0 {
		l.pending = nil
	}
	return batch
}

// deliver writes batch to the sink and then hands each event to plugins.
// Plugins are notified even if the sink write failed.
func (l *Ledger) deliver(ctx context.Context, batch []*event.Event) error {
	start := time.Now()

	var sinkErr error
	if l.store != nil {
		if sinkErr = l.store.AppendEvents(ctx, batch); sinkErr != nil {
			l.logger.Error("failed to append event batch",
				"error", sinkErr,
				"batch_size", len(batch),
				"first_seq", batch[0].Seq,
			)
		}
	}

	for _, evt := range batch {
		l.plugins.Emit(ctx, evt)
	}

	elapsed := time.Since(start)
	l.plugins.EmitEventsFlushed(ctx, len(batch), elapsed)

	l.logger.Debug("flushed event batch",
		"batch_size", len(batch),
		"last_seq", batch[len(batch)-1].Seq,
		"elapsed_ms", elapsed.Milliseconds(),
	)

	return sinkErr
}
