package sqlite

import (
	"fmt"
	"time"

	"github.com/xraph/grove"

	"github.com/xraph/fungible/event"
	"github.com/xraph/fungible/id"
	"github.com/xraph/fungible/types"
)

// ==================== Event models ====================

type eventModel struct {
	grove.BaseModel `grove:"table:fungible_events"`

	ID          string    `grove:"id,pk"`
	LedgerID    string    `grove:"ledger_id"`
	Seq         int64     `grove:"seq"`
	Kind        string    `grove:"kind"`
	FromAddr    string    `grove:"from_addr"`
	ToAddr      string    `grove:"to_addr"`
	OwnerAddr   string    `grove:"owner_addr"`
	SpenderAddr string    `grove:"spender_addr"`
	Value       string    `grove:"value"`
	Timestamp   time.Time `grove:"timestamp"`
	CreatedAt   time.Time `grove:"created_at"`
}

func toEventModel(e *event.Event) *eventModel {
	return &eventModel{
		ID:          e.ID.String(),
		LedgerID:    e.LedgerID.String(),
		Seq:         int64(e.Seq), //nolint:gosec // sequence numbers stay far below 2^63
		Kind:        string(e.Kind),
		FromAddr:    e.From.Hex(),
		ToAddr:      e.To.Hex(),
		OwnerAddr:   e.Owner.Hex(),
		SpenderAddr: e.Spender.Hex(),
		Value:       e.Value.String(),
		Timestamp:   e.Timestamp,
		CreatedAt:   now(),
	}
}

func fromEventModel(m *eventModel) (*event.Event, error) {
	evtID, err := id.ParseEventID(m.ID)
	if err != nil {
		return nil, err
	}
	ledgerID, err := id.ParseLedgerID(m.LedgerID)
	if err != nil {
		return nil, err
	}

	var addrs [4]types.Address
	for i, s := range []string{m.FromAddr, m.ToAddr, m.OwnerAddr, m.SpenderAddr} {
		if addrs[i], err = types.ParseAddress(s); err != nil {
			return nil, fmt.Errorf("event %s: %w", m.ID, err)
		}
	}

	value, err := types.ParseAmount(m.Value)
	if err != nil {
		return nil, fmt.Errorf("event %s: %w", m.ID, err)
	}

	return &event.Event{
		ID:        evtID,
		LedgerID:  ledgerID,
		Seq:       uint64(m.Seq), //nolint:gosec // written from a uint64
		Kind:      event.Kind(m.Kind),
		From:      addrs[0],
		To:        addrs[1],
		Owner:     addrs[2],
		Spender:   addrs[3],
		Value:     value,
		Timestamp: m.Timestamp,
	}, nil
}
