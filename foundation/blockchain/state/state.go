// Package state is the core API for the ledger and implements all the
// business rules and processing.
package state

import (
	"fmt"
	"sync"

	"github.com/blockforge/ledger/foundation/blockchain/consensus"
	"github.com/blockforge/ledger/foundation/blockchain/database"
	"github.com/blockforge/ledger/foundation/blockchain/genesis"
	"github.com/blockforge/ledger/foundation/blockchain/mempool"
	"github.com/blockforge/ledger/foundation/blockchain/mempool/selector"
)

// EventHandler defines a function that is called when events occur in the
// processing of transactions and blocks.
type EventHandler func(v string, args ...any)

// Worker interface represents the behavior required to be implemented by
// any package providing support for background mining.
type Worker interface {
	Shutdown()
	SignalStartMining()
	SignalCancelMining() (done func())
}

// =============================================================================

// Config represents the configuration required to start the ledger. Only
// Genesis is mandatory: a nil Factory selects the default genesis block, a
// nil Consensus selects proof of work, a nil Serializer keeps the chain in
// memory only.
type Config struct {
	Genesis        genesis.Genesis
	Factory        *genesis.Factory
	Consensus      consensus.Strategy
	Serializer     database.Serializer
	SelectStrategy string
	EvHandler      EventHandler
}

// State manages the ledger: the ordered block list, the pool of pending
// transactions and the active consensus strategy. Chain mutation is
// serialized behind a mutex so concurrent submitters and miners never
// observe the chain mid-append.
type State struct {
	mu sync.Mutex

	genesis   genesis.Genesis
	settings  *genesis.Settings
	consensus consensus.Strategy
	mempool   *mempool.Mempool
	db        *database.Database
	evHandler EventHandler

	Worker Worker
}

// New constructs the state from the specified configuration. The genesis
// block is created and appended exactly once, before any transaction or
// block can be added.
func New(cfg Config) (*State, error) {

	// Build a safe event handler function for use.
	ev := func(v string, args ...any) {
		if cfg.EvHandler != nil {
			cfg.EvHandler(v, args...)
		}
	}

	// The settings give consensus live access to the difficulty so a
	// runtime reload of the genesis parameters takes effect immediately.
	settings := genesis.NewSettings(cfg.Genesis)

	strategy := cfg.Consensus
	if strategy == nil {
		strategy = consensus.NewProofOfWork(settings, consensus.EventHandler(ev))
	}

	factory := cfg.Factory
	if factory == nil {
		factory = genesis.NewFactory().WithHash(settings.GenesisHash())
		if !cfg.Genesis.Date.IsZero() {
			factory = factory.WithTimeStamp(uint64(cfg.Genesis.Date.UTC().Unix()))
		}
	}

	genesisBlock, err := factory.CreateGenesisBlock()
	if err != nil {
		return nil, fmt.Errorf("creating genesis block: %w", err)
	}

	db, err := database.New(genesisBlock, cfg.Serializer)
	if err != nil {
		return nil, err
	}

	selectStrategy := cfg.SelectStrategy
	if selectStrategy == "" {
		selectStrategy = selector.StrategyFIFO
	}

	pool, err := mempool.NewWithStrategy(selectStrategy)
	if err != nil {
		return nil, err
	}

	state := State{
		genesis:   cfg.Genesis,
		settings:  settings,
		consensus: strategy,
		mempool:   pool,
		db:        db,
		evHandler: ev,
	}

	// Restore any pending transactions persisted by a previous run.
	pending, err := db.ReadPending()
	if err != nil {
		return nil, fmt.Errorf("restoring pending transactions: %w", err)
	}
	for _, tx := range pending {
		if err := pool.Add(tx); err != nil {
			ev("state: New: restore pending: tx[%s] dropped: %s", tx.Hash(), err)
		}
	}

	// A chain loaded from storage is untrusted until every link and
	// every proof has been rechecked.
	if db.Height() > 1 {
		if err := state.Validate(); err != nil {
			return nil, fmt.Errorf("stored chain is invalid: %w", err)
		}
	}

	// The Worker is not set here. The call to worker.Run will assign
	// itself and start the mining support.

	return &state, nil
}

// Shutdown cleanly brings the ledger down.
func (s *State) Shutdown() error {
	defer s.db.Close()

	if s.Worker != nil {
		s.Worker.Shutdown()
	}

	return nil
}

// Reload swaps in new chain parameters. Consensus reads them on its next
// operation.
func (s *State) Reload(gen genesis.Genesis) error {
	return s.settings.Reload(gen)
}

// Validate re-derives and re-checks every link and every block's
// consensus proof. A chain of just the genesis block is trivially valid.
// The first violation is reported with the block number so tampering can
// be told apart from a configuration mismatch.
func (s *State) Validate() error {
	chain := s.db.CopyChain()

	if chain[0].Header.Number != 0 {
		return fmt.Errorf("genesis block carries number %d", chain[0].Header.Number)
	}

	for i := 1; i < len(chain); i++ {
		if chain[i].Header.Number != uint64(i) {
			return fmt.Errorf("block at position %d carries number %d", i, chain[i].Header.Number)
		}

		if err := s.consensus.Validate(chain[i], chain[i-1]); err != nil {
			return fmt.Errorf("block %d: %w", chain[i].Header.Number, err)
		}
	}

	return nil
}
