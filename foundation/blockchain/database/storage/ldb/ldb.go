// Package ldb implements the database.Serializer interface on top of
// LevelDB. One key per block, ordered by the big endian block number so a
// prefix scan walks the chain in order.
package ldb

import (
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/blockforge/ledger/foundation/blockchain/database"
	"github.com/syndtr/goleveldb/leveldb"
	"github.com/syndtr/goleveldb/leveldb/util"
)

var (
	blockPrefix = []byte("b/")
	pendingKey  = []byte("pending")
)

// Ldb represents the LevelDB backed storage implementation.
type Ldb struct {
	path string
	db   *leveldb.DB
}

// New opens or creates the LevelDB database at the specified path.
func New(path string) (*Ldb, error) {
	db, err := leveldb.OpenFile(path, nil)
	if err != nil {
		return nil, fmt.Errorf("opening leveldb: %w", err)
	}

	return &Ldb{path: path, db: db}, nil
}

// Close releases the database handle.
func (l *Ldb) Close() error {
	return l.db.Close()
}

// Write stores the specified block data under its number.
func (l *Ldb) Write(bd database.BlockData) error {
	data, err := json.Marshal(bd)
	if err != nil {
		return err
	}

	return l.db.Put(blockKey(bd.Header.Number), data, nil)
}

// GetBlock returns the contents of the specified block by number.
func (l *Ldb) GetBlock(num uint64) (database.BlockData, error) {
	data, err := l.db.Get(blockKey(num), nil)
	if err != nil {
		if errors.Is(err, leveldb.ErrNotFound) {
			return database.BlockData{}, database.ErrBlockNotFound
		}
		return database.BlockData{}, err
	}

	var bd database.BlockData
	if err := json.Unmarshal(data, &bd); err != nil {
		return database.BlockData{}, err
	}

	return bd, nil
}

// ForEach returns an iterator to walk through all the stored blocks
// starting with the genesis block.
func (l *Ldb) ForEach() database.Iterator {
	return &iterator{iter: l.db.NewIterator(util.BytesPrefix(blockPrefix), nil)}
}

// WritePending stores the pending transaction buffer.
func (l *Ldb) WritePending(trans []database.TxData) error {
	data, err := json.Marshal(trans)
	if err != nil {
		return err
	}

	return l.db.Put(pendingKey, data, nil)
}

// ReadPending restores the pending transaction buffer. A missing key means
// nothing is pending.
func (l *Ldb) ReadPending() ([]database.TxData, error) {
	data, err := l.db.Get(pendingKey, nil)
	if err != nil {
		if errors.Is(err, leveldb.ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}

	var trans []database.TxData
	if err := json.Unmarshal(data, &trans); err != nil {
		return nil, err
	}

	return trans, nil
}

// Reset removes all blocks and the pending buffer.
func (l *Ldb) Reset() error {
	iter := l.db.NewIterator(nil, nil)
	defer iter.Release()

	batch := new(leveldb.Batch)
	for iter.Next() {
		batch.Delete(append([]byte{}, iter.Key()...))
	}
	if err := iter.Error(); err != nil {
		return err
	}

	return l.db.Write(batch, nil)
}

// blockKey forms the ordered key for the specified block number.
func blockKey(num uint64) []byte {
	key := make([]byte, len(blockPrefix)+8)
	copy(key, blockPrefix)
	binary.BigEndian.PutUint64(key[len(blockPrefix):], num)

	return key
}

// =============================================================================

// iterator adapts the LevelDB iterator to the database.Iterator contract.
type iterator struct {
	iter  ldbIterator
	done  bool
	valid bool
}

// ldbIterator captures the part of the LevelDB iterator this package uses.
type ldbIterator interface {
	Next() bool
	Value() []byte
	Error() error
	Release()
}

// Next retrieves the next block from the database.
func (it *iterator) Next() (database.BlockData, error) {
	if it.done {
		return database.BlockData{}, errors.New("no more blocks")
	}

	if !it.iter.Next() {
		it.done = true
		it.iter.Release()
		if err := it.iter.Error(); err != nil {
			return database.BlockData{}, err
		}
		return database.BlockData{}, errors.New("no more blocks")
	}

	var bd database.BlockData
	if err := json.Unmarshal(it.iter.Value(), &bd); err != nil {
		return database.BlockData{}, err
	}

	return bd, nil
}

// Done returns the end of chain value.
func (it *iterator) Done() bool {
	return it.done
}
