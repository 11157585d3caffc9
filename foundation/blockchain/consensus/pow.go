package consensus

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/blockforge/ledger/foundation/blockchain/database"
)

// EventHandler defines a function that is called when events occur during
// mining and validation.
type EventHandler func(v string, args ...any)

// ProofOfWork produces blocks by searching for a nonce whose digest
// carries the configured number of leading zero hex characters.
type ProofOfWork struct {
	settings  Settings
	evHandler EventHandler
}

// NewProofOfWork constructs the proof of work strategy. The difficulty is
// read through the settings on every operation, never cached.
func NewProofOfWork(settings Settings, evHandler EventHandler) *ProofOfWork {
	ev := func(v string, args ...any) {
		if evHandler != nil {
			evHandler(v, args...)
		}
	}

	return &ProofOfWork{
		settings:  settings,
		evHandler: ev,
	}
}

// Generate constructs the next block and performs the work to find a
// nonce that solves the difficulty puzzle. The search is an unbounded
// linear scan from nonce zero; the context is the only way out of an
// unlucky search, checked on every iteration.
func (pow *ProofOfWork) Generate(ctx context.Context, prevBlock database.Block, trans []database.Transaction) (database.Block, error) {
	pow.evHandler("consensus: Generate: MINING: started: parent[%s]", prevBlock.BlockHash)
	defer pow.evHandler("consensus: Generate: MINING: completed")

	transRoot, err := database.TransRoot(trans)
	if err != nil {
		return database.Block{}, err
	}

	block := database.Block{
		Header: database.BlockHeader{
			Number:        prevBlock.Header.Number + 1,
			PrevBlockHash: prevBlock.BlockHash,
			TimeStamp:     uint64(time.Now().UTC().Unix()),
			Nonce:         0,
			TransRoot:     transRoot,
		},
		Transactions: trans,
	}

	difficulty := pow.settings.Difficulty()

	var attempts uint64
	for {
		attempts++
		if attempts%1_000_000 == 0 {
			pow.evHandler("consensus: Generate: MINING: attempts[%d]", attempts)
		}

		// Give the caller a way to abandon the search.
		if err := ctx.Err(); err != nil {
			pow.evHandler("consensus: Generate: MINING: CANCELLED")
			return database.Block{}, err
		}

		hash := block.Hash()
		if !isHashSolved(difficulty, hash) {
			block.Header.Nonce++
			continue
		}

		pow.evHandler("consensus: Generate: MINING: SOLVED: block[%s] attempts[%d]", hash, attempts)
		block.BlockHash = hash

		return block, nil
	}
}

// Validate takes a block and validates it to be included into the chain
// after the specified parent. The checks run in a fixed order and the
// first failure rejects the block, there is no partial credit.
func (pow *ProofOfWork) Validate(block database.Block, prevBlock database.Block) error {
	pow.evHandler("consensus: Validate: blk[%d]: check: block is linked to parent", block.Header.Number)

	if block.Header.PrevBlockHash != prevBlock.BlockHash {
		return fmt.Errorf("%w: got %s, exp %s", ErrNotLinked, block.Header.PrevBlockHash, prevBlock.BlockHash)
	}

	pow.evHandler("consensus: Validate: blk[%d]: check: block number is the next number", block.Header.Number)

	if block.Header.Number != prevBlock.Header.Number+1 {
		return fmt.Errorf("%w: got %d, exp %d", ErrWrongNumber, block.Header.Number, prevBlock.Header.Number+1)
	}

	pow.evHandler("consensus: Validate: blk[%d]: check: recomputed hash matches stored hash", block.Header.Number)

	// Recompute the digest over the block's own fields. Swapping a
	// transaction after mining changes this digest while the stored hash
	// string stays untouched, so the comparison fails.
	hash := block.Hash()
	if hash != block.BlockHash {
		return fmt.Errorf("%w: recomputed %s, stored %s", ErrHashMismatch, hash, block.BlockHash)
	}

	pow.evHandler("consensus: Validate: blk[%d]: check: block hash has been solved", block.Header.Number)

	difficulty := pow.settings.Difficulty()
	if !isHashSolved(difficulty, block.BlockHash) {
		return fmt.Errorf("%w: hash %s, difficulty %d", ErrDifficultyNotMet, block.BlockHash, difficulty)
	}

	pow.evHandler("consensus: Validate: blk[%d]: check: transaction root matches transactions", block.Header.Number)

	transRoot, err := database.TransRoot(block.Transactions)
	if err != nil {
		return err
	}
	if transRoot != block.Header.TransRoot {
		return fmt.Errorf("%w: got %s, exp %s", ErrTransRootMismatch, transRoot, block.Header.TransRoot)
	}

	return nil
}

// =============================================================================

// isHashSolved checks the hash to make sure it complies with the POW
// rules. The hexadecimal form needs a difficulty number of leading 0s.
func isHashSolved(difficulty uint, hash string) bool {
	const match = "00000000000000000000000000000000"

	hash = strings.TrimPrefix(hash, "0x")
	if len(hash) != 64 || difficulty > uint(len(match)) {
		return false
	}

	return hash[:difficulty] == match[:difficulty]
}
