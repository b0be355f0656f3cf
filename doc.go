// Package fungible provides an embeddable ledger for a single fungible asset.
//
// Fungible is a library, not a service. A Ledger keeps balances, allowances,
// the total supply and one privileged account in memory and exposes them
// through a small set of operations:
//
//   - Transfer, Approve and TransferFrom move value between accounts
//   - Mint (privileged) and Burn (any holder) change the supply
//   - TransferOwnership hands the privileged role to another account
//   - BalanceOf, Allowance, Owner and Metadata read state without changing it
//
// The host supplies the caller identity for every call and the ledger trusts
// it. Every operation either succeeds completely or returns one of the
// rejection errors (ErrInvalidRecipient, ErrInsufficientBalance,
// ErrInsufficientAllowance, ErrUnauthorized, ErrOverflow) and leaves state
// untouched.
//
// # Quick Start
//
//	import (
//	    "github.com/xraph/fungible"
//	    "github.com/xraph/fungible/store/memory"
//	)
//
//	creator := fungible.MustParseAddress("0x00000000000000000000000000000000000000a1")
//
//	l, err := fungible.New(memory.New(), creator, fungible.Genesis{
//	    Name:          "Example",
//	    Symbol:        "EXM",
//	    Decimals:      18,
//	    InitialSupply: fungible.NewAmount(1_000_000),
//	})
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	if err := l.Start(ctx); err != nil {
//	    log.Fatal(err)
//	}
//	defer l.Stop()
//
//	err = l.Transfer(creator, recipient, fungible.NewAmount(250))
//
// # Events
//
// Each successful operation records events in the order the operations took
// effect: Transfer, Approval, Mint, Burn and OwnershipTransferred. Minting
// records Mint followed by a Transfer from the null address; burning records
// Burn followed by a Transfer to the null address. Construction records a
// genesis Transfer to the creator.
//
// Events are delivered in batches by a background dispatcher to an optional
// event sink (store/memory, store/sqlite, store/postgres, store/mongo) and to
// registered plugins. Delivery never feeds back into ledger state and sink
// failures never fail an operation.
//
// # TypeID
//
// Ledgers and events use TypeID identifiers:
//
//	ldg_01h2xcejqtf2nbrexx3vqjhp41  // Ledger ID
//	evt_01h455vb4pex5vsknk084sn02q  // Event ID
package fungible
