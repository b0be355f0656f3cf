package fungible

import (
	"errors"

	"github.com/xraph/fungible/types"
)

// Sentinel errors for rejected operations. A rejected operation leaves the
// ledger exactly as it was and records no event.
var (
	ErrInvalidRecipient      = errors.New("fungible: invalid recipient")
	ErrInsufficientBalance   = errors.New("fungible: insufficient balance")
	ErrInsufficientAllowance = errors.New("fungible: insufficient allowance")
	ErrUnauthorized          = errors.New("fungible: unauthorized")

	// ErrOverflow is returned when a credit or the total supply would not fit in 256 bits.
	ErrOverflow = errors.New("fungible: amount overflow")
)

// Sentinel errors for event sinks.
var (
	ErrEventNotFound = errors.New("fungible: event not found")
	ErrStoreClosed   = errors.New("fungible: store is closed")
)

// ErrAlreadyStarted is returned by a second call to Ledger.Start.
var ErrAlreadyStarted = errors.New("fungible: ledger already started")

// ErrStreamExists is returned by Ledger.Start when the sink already holds
// events for the ledger's ID. Sequence numbers restart at 1 with every
// process, so appending to an existing stream would collide.
var ErrStreamExists = errors.New("fungible: event stream already exists for ledger")

// ErrDuplicateSeq is returned by sinks for an event whose (ledger, seq)
// pair is already stored under a different event ID.
var ErrDuplicateSeq = errors.New("fungible: duplicate event sequence")

// IsRejection returns true if err means the ledger refused an operation.
func IsRejection(err error) bool {
	return errors.Is(err, ErrInvalidRecipient) ||
		errors.Is(err, ErrInsufficientBalance) ||
		errors.Is(err, ErrInsufficientAllowance) ||
		errors.Is(err, ErrUnauthorized) ||
		errors.Is(err, ErrOverflow)
}

// arithmeticErr maps a types arithmetic failure onto the ledger taxonomy.
func arithmeticErr(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, types.ErrAmountOverflow):
		return ErrOverflow
	case errors.Is(err, types.ErrAmountUnderflow):
		return ErrInsufficientBalance
	default:
		return err
	}
}
