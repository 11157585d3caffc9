// Package database maintains the ordered block list in memory and defines
// the contracts for persisting it. The transaction and block types the
// whole ledger is built on live here as well.
package database

import (
	"errors"
	"fmt"
	"sync"
)

// ErrBlockNotFound is returned when a block number is outside the chain.
var ErrBlockNotFound = errors.New("block not found")

// Serializer represents the behavior required to be implemented by any
// package providing support for storing and reading the chain and the
// pending transaction buffer. A round trip through a Serializer must
// preserve every header field and every transaction exactly.
type Serializer interface {
	Write(bd BlockData) error
	ForEach() Iterator
	WritePending(trans []TxData) error
	ReadPending() ([]TxData, error)
	Close() error
	Reset() error
}

// Iterator represents the behavior required to be implemented by any
// package providing support to iterate over the stored blocks in order.
type Iterator interface {
	Next() (BlockData, error)
	Done() bool
}

// =============================================================================

// Database manages the ordered block list for the ledger. The list is
// never empty: construction installs the genesis block before any other
// operation can run. Mutation is serialized behind a RW mutex so chain
// reads stay snapshot consistent with appends.
type Database struct {
	mu         sync.RWMutex
	chain      []Block
	serializer Serializer
}

// New constructs the database. When the serializer already holds blocks
// they are loaded in order and the supplied genesis block is ignored in
// favor of the stored one. An empty store is seeded with the genesis
// block. A nil serializer keeps the chain in memory only.
func New(genesisBlock Block, serializer Serializer) (*Database, error) {
	db := Database{
		serializer: serializer,
	}

	if serializer == nil {
		db.chain = []Block{genesisBlock}
		return &db, nil
	}

	iter := serializer.ForEach()
	for bd, err := iter.Next(); !iter.Done(); bd, err = iter.Next() {
		if err != nil {
			return nil, fmt.Errorf("reading block from storage: %w", err)
		}

		block, err := ToBlock(bd)
		if err != nil {
			return nil, fmt.Errorf("decoding block from storage: %w", err)
		}

		if block.Header.Number != uint64(len(db.chain)) {
			return nil, fmt.Errorf("storage out of order: got block %d, expected %d", block.Header.Number, len(db.chain))
		}

		db.chain = append(db.chain, block)
	}

	if len(db.chain) == 0 {
		bd, err := NewBlockData(genesisBlock)
		if err != nil {
			return nil, err
		}
		if err := serializer.Write(bd); err != nil {
			return nil, fmt.Errorf("writing genesis block: %w", err)
		}
		db.chain = []Block{genesisBlock}
	}

	return &db, nil
}

// Close releases the underlying storage.
func (db *Database) Close() {
	if db.serializer != nil {
		db.serializer.Close()
	}
}

// Height returns the number of blocks in the chain.
func (db *Database) Height() int {
	db.mu.RLock()
	defer db.mu.RUnlock()

	return len(db.chain)
}

// LatestBlock returns the current tip of the chain.
func (db *Database) LatestBlock() Block {
	db.mu.RLock()
	defer db.mu.RUnlock()

	return db.chain[len(db.chain)-1]
}

// GenesisBlock returns block zero.
func (db *Database) GenesisBlock() Block {
	db.mu.RLock()
	defer db.mu.RUnlock()

	return db.chain[0]
}

// BlockByNumber returns the block at the specified position.
func (db *Database) BlockByNumber(number uint64) (Block, error) {
	db.mu.RLock()
	defer db.mu.RUnlock()

	if number >= uint64(len(db.chain)) {
		return Block{}, fmt.Errorf("%w: number %d, height %d", ErrBlockNotFound, number, len(db.chain))
	}

	return db.chain[number], nil
}

// CopyChain returns a copy of the ordered block list so callers can walk
// it without holding the database lock.
func (db *Database) CopyChain() []Block {
	db.mu.RLock()
	defer db.mu.RUnlock()

	chain := make([]Block, len(db.chain))
	copy(chain, db.chain)

	return chain
}

// Append adds the block to the end of the chain and persists it. The
// caller is responsible for having validated the block first.
func (db *Database) Append(block Block) error {
	db.mu.Lock()
	defer db.mu.Unlock()

	if db.serializer != nil {
		bd, err := NewBlockData(block)
		if err != nil {
			return err
		}
		if err := db.serializer.Write(bd); err != nil {
			return fmt.Errorf("writing block %d: %w", block.Header.Number, err)
		}
	}

	db.chain = append(db.chain, block)

	return nil
}

// WritePending persists the pending transaction buffer alongside the
// chain so a restart can restore staged work.
func (db *Database) WritePending(trans []Transaction) error {
	if db.serializer == nil {
		return nil
	}

	txds, err := NewTxDatas(trans)
	if err != nil {
		return err
	}

	return db.serializer.WritePending(txds)
}

// ReadPending restores the persisted pending transaction buffer.
func (db *Database) ReadPending() ([]Transaction, error) {
	if db.serializer == nil {
		return nil, nil
	}

	txds, err := db.serializer.ReadPending()
	if err != nil {
		return nil, err
	}

	return ToTransactions(txds)
}
