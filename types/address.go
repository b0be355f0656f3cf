package types

import (
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/common"
)

// Address identifies an account holding balances and allowances.
// It is a 20-byte comparable value usable directly as a map key.
type Address = common.Address

// NullAddress is the "no account" sentinel. It is the zero value of Address
// and is rejected wherever a real recipient, owner or spender is required.
var NullAddress Address

// IsNull reports whether a is the null address.
func IsNull(a Address) bool { return a == NullAddress }

// ParseAddress parses a 0x-prefixed (or bare) 40-digit hex string.
func ParseAddress(s string) (Address, error) {
	s = strings.TrimSpace(s)
	if !common.IsHexAddress(s) {
		return NullAddress, fmt.Errorf("types: parse address %q: not a 20-byte hex address", s)
	}
	return common.HexToAddress(s), nil
}

// MustParseAddress is like ParseAddress but panics on error.
func MustParseAddress(s string) Address {
	a, err := ParseAddress(s)
	if err != nil {
		panic(err)
	}
	return a
}

// AddressFromBytes returns the address with b as its trailing bytes.
func AddressFromBytes(b []byte) Address {
	return common.BytesToAddress(b)
}
