// Package mempool maintains the pool of transactions staged for mining.
// The pool is safe for concurrent use: two simultaneous submissions of the
// same content hash result in exactly one stored entry.
package mempool

import (
	"errors"
	"fmt"
	"sync"

	"github.com/blockforge/ledger/foundation/blockchain/database"
	"github.com/blockforge/ledger/foundation/blockchain/mempool/selector"
)

// ErrDuplicate is returned when a transaction's content hash is already
// staged. Submitting the same payload twice is a no-op, not a failure of
// the payload itself.
var ErrDuplicate = errors.New("transaction already in mempool")

// entry pairs a staged transaction with its admission sequence number.
type entry struct {
	tx  database.Transaction
	seq uint64
}

// Mempool represents a cache of transactions keyed by their content hash.
type Mempool struct {
	mu       sync.RWMutex
	pool     map[string]entry
	seq      uint64
	selectFn selector.Func
}

// New constructs a new mempool using the default admission-order strategy.
func New() (*Mempool, error) {
	return NewWithStrategy(selector.StrategyFIFO)
}

// NewWithStrategy constructs a new mempool with the specified sort strategy.
func NewWithStrategy(strategy string) (*Mempool, error) {
	selectFn, err := selector.Retrieve(strategy)
	if err != nil {
		return nil, err
	}

	mp := Mempool{
		pool:     make(map[string]entry),
		selectFn: selectFn,
	}

	return &mp, nil
}

// Count returns the current number of transactions in the pool.
func (mp *Mempool) Count() int {
	mp.mu.RLock()
	defer mp.mu.RUnlock()

	return len(mp.pool)
}

// IsEmpty reports whether the pool has no staged transactions.
func (mp *Mempool) IsEmpty() bool {
	return mp.Count() == 0
}

// Contains reports whether the specified content hash is staged.
func (mp *Mempool) Contains(hash string) bool {
	mp.mu.RLock()
	defer mp.mu.RUnlock()

	_, exists := mp.pool[hash]
	return exists
}

// Add validates and stages the transaction. A transaction that fails its
// own validation is rejected with the validation error. A transaction
// whose content hash is already staged returns ErrDuplicate. An error
// raised by the crypto machinery during validation propagates as is so
// callers can distinguish rejected from unevaluable.
func (mp *Mempool) Add(tx database.Transaction) error {
	if err := tx.Validate(); err != nil {
		return fmt.Errorf("validating transaction: %w", err)
	}

	key := tx.Hash()

	mp.mu.Lock()
	defer mp.mu.Unlock()

	if _, exists := mp.pool[key]; exists {
		return ErrDuplicate
	}

	mp.seq++
	mp.pool[key] = entry{tx: tx, seq: mp.seq}

	return nil
}

// Delete removes the transaction from the pool. Removing an absent key
// is a no-op.
func (mp *Mempool) Delete(tx database.Transaction) {
	mp.mu.Lock()
	defer mp.mu.Unlock()

	delete(mp.pool, tx.Hash())
}

// DeleteAll removes every specified transaction from the pool. The call
// is idempotent.
func (mp *Mempool) DeleteAll(trans []database.Transaction) {
	mp.mu.Lock()
	defer mp.mu.Unlock()

	for _, tx := range trans {
		delete(mp.pool, tx.Hash())
	}
}

// Truncate clears all the transactions from the pool.
func (mp *Mempool) Truncate() {
	mp.mu.Lock()
	defer mp.mu.Unlock()

	mp.pool = make(map[string]entry)
}

// Copy returns a snapshot of the staged transactions in admission order.
func (mp *Mempool) Copy() []database.Transaction {
	return mp.CopyBest(-1)
}

// CopyBest uses the configured sort strategy to return the next howMany
// transactions for the next block. Passing -1 returns everything.
func (mp *Mempool) CopyBest(howMany int) []database.Transaction {
	items := mp.snapshot()
	return mp.selectFn(items, howMany)
}

// snapshot copies the pool entries out from under the lock.
func (mp *Mempool) snapshot() []selector.Item {
	mp.mu.RLock()
	defer mp.mu.RUnlock()

	items := make([]selector.Item, 0, len(mp.pool))
	for _, ent := range mp.pool {
		items = append(items, selector.Item{Tx: ent.tx, Seq: ent.seq})
	}

	return items
}
