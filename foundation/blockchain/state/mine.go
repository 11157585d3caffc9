package state

import (
	"context"
	"errors"
	"fmt"

	"github.com/blockforge/ledger/foundation/blockchain/database"
)

// ErrNoTransactions is returned when a block is requested to be created
// and there are no staged transactions. Mining an empty block is a valid
// consensus operation, but the node does not burn CPU on one.
var ErrNoTransactions = errors.New("no transactions in mempool")

// MineNewBlock attempts to create a new block with a proper hash that can
// become the next block in the chain. The context cancels the search.
func (s *State) MineNewBlock(ctx context.Context) (database.Block, error) {
	s.evHandler("state: MineNewBlock: MINING: check mempool count")

	if s.mempool.Count() == 0 {
		return database.Block{}, ErrNoTransactions
	}

	s.evHandler("state: MineNewBlock: MINING: perform consensus search")

	trans := s.mempool.CopyBest(-1)
	block, err := s.consensus.Generate(ctx, s.LatestBlock(), trans)
	if err != nil {
		return database.Block{}, err
	}

	// Just check one more time we were not cancelled.
	if ctx.Err() != nil {
		return database.Block{}, ctx.Err()
	}

	// The produced block goes through the same validation any block
	// does before it is committed.
	if err := s.consensus.Validate(block, s.LatestBlock()); err != nil {
		return database.Block{}, fmt.Errorf("mined block failed validation: %w", err)
	}

	if err := s.AddBlock(block); err != nil {
		return database.Block{}, err
	}

	return block, nil
}

// ProcessSubmittedBlock takes a block produced outside this node,
// validates it against the current tip and commits it. Any in-progress
// mining is cancelled first so the local search cannot race the commit.
func (s *State) ProcessSubmittedBlock(block database.Block) error {
	s.evHandler("state: ProcessSubmittedBlock: started: block[%s]", block.BlockHash)
	defer s.evHandler("state: ProcessSubmittedBlock: completed")

	if s.Worker != nil {
		done := s.Worker.SignalCancelMining()
		defer func() {
			s.evHandler("state: ProcessSubmittedBlock: signal mining to terminate")
			done()
		}()
	}

	if err := s.consensus.Validate(block, s.LatestBlock()); err != nil {
		return err
	}

	return s.AddBlock(block)
}

// AddBlock appends the block to the chain and removes its transactions
// from the pending pool. Callers are responsible for having validated the
// block through the consensus strategy first. The append is serialized
// against Validate reads from the same state instance.
func (s *State) AddBlock(block database.Block) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.evHandler("state: AddBlock: write block[%d] to the chain", block.Header.Number)

	if err := s.db.Append(block); err != nil {
		return err
	}

	s.evHandler("state: AddBlock: remove mined transactions from mempool")

	s.mempool.DeleteAll(block.Transactions)

	if err := s.db.WritePending(s.mempool.Copy()); err != nil {
		s.evHandler("state: AddBlock: WARNING: persisting pending: %s", err)
	}

	return nil
}
