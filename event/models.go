// Package event defines the notifications a ledger records after each
// successful state change.
package event

import (
	"time"

	"github.com/xraph/fungible/id"
	"github.com/xraph/fungible/types"
)

// Kind names what happened.
type Kind string

const (
	KindTransfer             Kind = "transfer"
	KindApproval             Kind = "approval"
	KindMint                 Kind = "mint"
	KindBurn                 Kind = "burn"
	KindOwnershipTransferred Kind = "ownership_transferred"
)

// Valid reports whether k is a known kind.
func (k Kind) Valid() bool {
	switch k {
	case KindTransfer, KindApproval, KindMint, KindBurn, KindOwnershipTransferred:
		return true
	}
	return false
}

// Event is one entry in a ledger's append-only notification stream.
//
// Which address fields are set depends on Kind:
//
//	transfer               From, To (From is null for mint, To is null for burn)
//	approval               Owner, Spender
//	mint                   To
//	burn                   From
//	ownership_transferred  From (previous owner), To (new owner)
type Event struct {
	ID        id.EventID    `json:"id"`
	LedgerID  id.LedgerID   `json:"ledger_id"`
	Seq       uint64        `json:"seq"`
	Kind      Kind          `json:"kind"`
	From      types.Address `json:"from"`
	To        types.Address `json:"to"`
	Owner     types.Address `json:"owner"`
	Spender   types.Address `json:"spender"`
	Value     types.Amount  `json:"value"`
	Timestamp time.Time     `json:"timestamp"`
}

// Transfer reports a balance movement.
func Transfer(from, to types.Address, value types.Amount) *Event {
	return &Event{Kind: KindTransfer, From: from, To: to, Value: value}
}

// Approval reports a new absolute allowance.
func Approval(owner, spender types.Address, value types.Amount) *Event {
	return &Event{Kind: KindApproval, Owner: owner, Spender: spender, Value: value}
}

// Mint reports supply creation.
func Mint(to types.Address, value types.Amount) *Event {
	return &Event{Kind: KindMint, To: to, Value: value}
}

// Burn reports supply destruction.
func Burn(from types.Address, value types.Amount) *Event {
	return &Event{Kind: KindBurn, From: from, Value: value}
}

// OwnershipTransferred reports a change of privileged account.
func OwnershipTransferred(previous, next types.Address) *Event {
	return &Event{Kind: KindOwnershipTransferred, From: previous, To: next}
}

// Involves reports whether a appears in any address field of e.
func (e *Event) Involves(a types.Address) bool {
	return e.From == a || e.To == a || e.Owner == a || e.Spender == a
}

// ListOpts filters event queries. Results are ordered by Seq ascending.
type ListOpts struct {
	// LedgerID restricts results to one ledger. Nil matches all ledgers.
	LedgerID id.LedgerID
	// Account matches events where the address appears in any address field.
	// Nil pointer matches all; a pointer to the null address matches mint/burn legs.
	Account *types.Address
	Kind    Kind
	// AfterSeq returns only events with Seq strictly greater than this value.
	AfterSeq uint64
	Limit    int
	Offset   int
}

// Matches reports whether e satisfies the filters in opts (ignoring Limit/Offset).
func (opts ListOpts) Matches(e *Event) bool {
	if !opts.LedgerID.IsNil() && e.LedgerID != opts.LedgerID {
		return false
	}
	if opts.Account != nil && !e.Involves(*opts.Account) {
		return false
	}
	if opts.Kind != "" && e.Kind != opts.Kind {
		return false
	}
	return e.Seq > opts.AfterSeq
}
