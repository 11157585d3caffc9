// Package consensus defines the contract for validating and producing
// blocks and provides the proof of work implementation.
package consensus

import (
	"context"
	"errors"

	"github.com/blockforge/ledger/foundation/blockchain/database"
)

// The distinct invariants a block can violate during validation. Each
// failure wraps one of these so callers can tell tampering apart from a
// configuration mismatch.
var (
	// ErrNotLinked is returned when a block's previous hash does not
	// match the stored hash of its parent.
	ErrNotLinked = errors.New("block is not linked to parent")

	// ErrWrongNumber is returned when a block's number is not the
	// parent's number plus one.
	ErrWrongNumber = errors.New("block number is not sequential")

	// ErrHashMismatch is returned when recomputing the digest over a
	// block's own fields does not reproduce its stored hash. This is the
	// tamper signal: any change to the transactions, nonce or timestamp
	// after mining trips it.
	ErrHashMismatch = errors.New("block hash does not match block contents")

	// ErrDifficultyNotMet is returned when a block hash does not carry
	// the required number of leading zero hex characters.
	ErrDifficultyNotMet = errors.New("block hash does not meet difficulty")

	// ErrTransRootMismatch is returned when the header's transaction root
	// does not match the block's transactions.
	ErrTransRootMismatch = errors.New("transaction root does not match transactions")
)

// Settings provides live access to the parameters consensus needs. The
// value is read on every use, never cached, so a runtime reload takes
// effect immediately.
type Settings interface {
	Difficulty() uint
}

// Strategy represents the behavior required to be implemented by any
// package providing support for validating and producing blocks.
type Strategy interface {

	// Generate produces the next block from the ordered transactions and
	// the current chain tip. The context cancels an in-progress search.
	Generate(ctx context.Context, prevBlock database.Block, trans []database.Transaction) (database.Block, error)

	// Validate reports nil only when the block holds every invariant
	// against its parent. A non-nil result wraps the sentinel for the
	// first violated invariant.
	Validate(block database.Block, prevBlock database.Block) error
}
