package state

import (
	"github.com/blockforge/ledger/foundation/blockchain/database"
	"github.com/blockforge/ledger/foundation/blockchain/genesis"
)

// QueryLatest represents to query the latest block in the chain.
const QueryLatest = ^uint64(0) >> 1

// Genesis returns a copy of the genesis information.
func (s *State) Genesis() genesis.Genesis {
	return s.genesis
}

// LatestBlock returns the current tip of the chain.
func (s *State) LatestBlock() database.Block {
	return s.db.LatestBlock()
}

// Height returns the number of blocks in the chain.
func (s *State) Height() int {
	return s.db.Height()
}

// Chain returns a copy of the ordered block list.
func (s *State) Chain() []database.Block {
	return s.db.CopyChain()
}

// BlocksByNumber returns the set of blocks based on block numbers. Passing
// QueryLatest for either bound resolves it to the tip.
func (s *State) BlocksByNumber(from uint64, to uint64) []database.Block {
	latest := s.db.LatestBlock().Header.Number

	if from == QueryLatest {
		from = latest
		to = latest
	}
	if to == QueryLatest {
		to = latest
	}

	var out []database.Block
	for i := from; i <= to; i++ {
		block, err := s.db.BlockByNumber(i)
		if err != nil {
			s.evHandler("state: BlocksByNumber: ERROR: %s", err)
			return nil
		}
		out = append(out, block)
	}

	return out
}
