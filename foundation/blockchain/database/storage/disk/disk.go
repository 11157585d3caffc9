// Package disk implements the database.Serializer interface with one JSON
// document per block on disk. Block files are named by their number so the
// chain can be walked in order with no index.
package disk

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"strconv"

	"github.com/blockforge/ledger/foundation/blockchain/database"
)

// pendingFile holds the pending transaction buffer between restarts.
const pendingFile = "pending.json"

// Disk represents the storage implementation for reading and storing
// blocks in their own separate files on disk.
type Disk struct {
	dbPath string
}

// New constructs a Disk value for use, creating the directory when needed.
func New(dbPath string) (*Disk, error) {
	if err := os.MkdirAll(dbPath, 0755); err != nil {
		return nil, err
	}

	return &Disk{dbPath: dbPath}, nil
}

// Close in this implementation has nothing to do since a new file is
// written for each now block and then immediately closed.
func (d *Disk) Close() error {
	return nil
}

// Write takes the specified block data and stores it to disk.
func (d *Disk) Write(bd database.BlockData) error {
	data, err := json.MarshalIndent(bd, "", "  ")
	if err != nil {
		return err
	}

	f, err := os.OpenFile(d.getPath(bd.Header.Number), os.O_CREATE|os.O_TRUNC|os.O_RDWR, 0600)
	if err != nil {
		return err
	}
	defer f.Close()

	if _, err := f.Write(data); err != nil {
		return err
	}

	return nil
}

// GetBlock searches the blockchain on disk to locate and return the
// contents of the specified block by number.
func (d *Disk) GetBlock(num uint64) (database.BlockData, error) {
	f, err := os.OpenFile(d.getPath(num), os.O_RDONLY, 0600)
	if err != nil {
		return database.BlockData{}, err
	}
	defer f.Close()

	var bd database.BlockData
	if err := json.NewDecoder(f).Decode(&bd); err != nil {
		return database.BlockData{}, err
	}

	return bd, nil
}

// ForEach returns an iterator to walk through all the blocks on disk
// starting with the genesis block.
func (d *Disk) ForEach() database.Iterator {
	return &iterator{storage: d}
}

// WritePending stores the pending transaction buffer to disk.
func (d *Disk) WritePending(trans []database.TxData) error {
	data, err := json.MarshalIndent(trans, "", "  ")
	if err != nil {
		return err
	}

	return os.WriteFile(path.Join(d.dbPath, pendingFile), data, 0600)
}

// ReadPending restores the pending transaction buffer from disk. A missing
// file means nothing is pending.
func (d *Disk) ReadPending() ([]database.TxData, error) {
	data, err := os.ReadFile(path.Join(d.dbPath, pendingFile))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
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

// Reset removes all blocks and the pending buffer from disk.
func (d *Disk) Reset() error {
	if err := os.RemoveAll(d.dbPath); err != nil {
		return err
	}

	return os.MkdirAll(d.dbPath, 0755)
}

// getPath forms the path to the specified block.
func (d *Disk) getPath(blockNum uint64) string {
	name := strconv.FormatUint(blockNum, 10)
	return path.Join(d.dbPath, fmt.Sprintf("%s.json", name))
}

// =============================================================================

// iterator walks the block files in number order.
type iterator struct {
	storage *Disk
	current uint64
	started bool
	done    bool
}

// Next retrieves the next block from disk.
func (it *iterator) Next() (database.BlockData, error) {
	if it.done {
		return database.BlockData{}, errors.New("no more blocks")
	}

	if it.started {
		it.current++
	}
	it.started = true

	bd, err := it.storage.GetBlock(it.current)
	if errors.Is(err, fs.ErrNotExist) {
		it.done = true
	}

	return bd, err
}

// Done returns the end of chain value.
func (it *iterator) Done() bool {
	return it.done
}
