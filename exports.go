package fungible

import (
	"github.com/xraph/fungible/id"
	"github.com/xraph/fungible/types"
)

// Re-export common types for convenience so users don't have to import types package.

// Address is re-exported from types package.
type Address = types.Address

// Amount is re-exported from types package.
type Amount = types.Amount

// NullAddress is the designated "no account" identifier.
var NullAddress = types.NullAddress

// Re-export constructors
var (
	NewAmount        = types.NewAmount
	ParseAmount      = types.ParseAmount
	MustParseAmount  = types.MustParseAmount
	ParseAddress     = types.ParseAddress
	MustParseAddress = types.MustParseAddress
	IsNull           = types.IsNull
)

// LedgerID identifies a ledger and the event stream it writes.
type LedgerID = id.LedgerID

// EventID identifies a recorded event.
type EventID = id.EventID

// Re-export identity constructors
var (
	NewLedgerID   = id.NewLedgerID
	ParseLedgerID = id.ParseLedgerID
	ParseEventID  = id.ParseEventID
)
