package sqlite

import (
	"testing"
	"time"

	"github.com/xraph/fungible/event"
	"github.com/xraph/fungible/id"
	"github.com/xraph/fungible/types"
)

func TestEventModelConversion(t *testing.T) {
	holder := types.MustParseAddress("0x52908400098527886E0F7030069857D2E4169EE7")
	big := types.MustParseAmount("115792089237316195423570985008687907853269984665640564039457584007913129639935")

	tests := []struct {
		name string
		evt  *event.Event
	}{
		{"mint leg", event.Transfer(types.NullAddress, holder, big)},
		{"approval", event.Approval(holder, holder, types.NewAmount(0))},
		{"burn", event.Burn(holder, types.NewAmount(42))},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := tt.evt
			e.ID = id.NewEventID()
			e.LedgerID = id.NewLedgerID()
			e.Seq = 7
			e.Timestamp = time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC)

			m := toEventModel(e)
			if m.Value != e.Value.String() {
				t.Errorf("model value = %q, want decimal %q", m.Value, e.Value.String())
			}

			got, err := fromEventModel(m)
			if err != nil {
				t.Fatalf("fromEventModel: %v", err)
			}
			if got.ID != e.ID || got.LedgerID != e.LedgerID || got.Seq != e.Seq || got.Kind != e.Kind {
				t.Errorf("identity mismatch: got %+v, want %+v", got, e)
			}
			if got.From != e.From || got.To != e.To || got.Owner != e.Owner || got.Spender != e.Spender {
				t.Errorf("address mismatch: got %+v, want %+v", got, e)
			}
			if !got.Value.Equal(e.Value) || !got.Timestamp.Equal(e.Timestamp) {
				t.Errorf("value/timestamp mismatch: got %+v, want %+v", got, e)
			}
		})
	}
}

func TestFromEventModelRejectsCorruptRows(t *testing.T) {
	good := toEventModel(&event.Event{
		ID:       id.NewEventID(),
		LedgerID: id.NewLedgerID(),
		Kind:     event.KindTransfer,
		Value:    types.NewAmount(1),
	})

	tests := []struct {
		name   string
		mutate func(m *eventModel)
	}{
		{"bad id", func(m *eventModel) { m.ID = "nope" }},
		{"ledger id as event id", func(m *eventModel) { m.LedgerID = m.ID }},
		{"bad address", func(m *eventModel) { m.ToAddr = "0x123" }},
		{"bad value", func(m *eventModel) { m.Value = "12abc" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := *good
			tt.mutate(&m)
			if _, err := fromEventModel(&m); err == nil {
				t.Error("expected error")
			}
		})
	}
}
