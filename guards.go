package fungible

import (
	"fmt"

	"github.com/xraph/fungible/types"
)

// guard is one precondition of an operation. Guards run before any state is
// touched; the first failure aborts the operation.
type guard func() error

func check(guards ...guard) error {
	for _, g := range guards {
		if err := g(); err != nil {
			return err
		}
	}
	return nil
}

// notNull rejects the null address for the named role.
func notNull(role string, a types.Address) guard {
	return func() error {
		if types.IsNull(a) {
			return fmt.Errorf("%w: %s is the null address", ErrInvalidRecipient, role)
		}
		return nil
	}
}

// onlyOwner rejects callers other than the privileged account.
func onlyOwner(owner, caller types.Address) guard {
	return func() error {
		if caller != owner {
			return fmt.Errorf("%w: %s is not the owner", ErrUnauthorized, caller.Hex())
		}
		return nil
	}
}

// covers rejects with sentinel when have < want.
func covers(have, want types.Amount, sentinel error) guard {
	return func() error {
		if have.LessThan(want) {
			return fmt.Errorf("%w: have %s, need %s", sentinel, have, want)
		}
		return nil
	}
}
