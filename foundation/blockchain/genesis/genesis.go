// Package genesis maintains access to the genesis file and the runtime
// settings derived from it.
package genesis

import (
	"encoding/json"
	"fmt"
	"os"
	"sync"
	"time"
)

// Genesis represents the genesis file.
type Genesis struct {
	Date        time.Time `json:"date"`
	Name        string    `json:"name"`         // A unique name for this running instance.
	Difficulty  uint      `json:"difficulty"`   // Number of leading zero hex characters a block hash needs.
	GenesisHash string    `json:"genesis_hash"` // The stored hash assigned to block zero.
}

// Validate checks the genesis parameters are usable. An empty genesis
// hash is fine: block zero then hashes over its own fields.
func (g Genesis) Validate() error {
	if g.Difficulty == 0 {
		return fmt.Errorf("difficulty must be a positive number")
	}

	return nil
}

// =============================================================================

// Load opens and consumes the genesis file from the default location.
func Load() (Genesis, error) {
	return LoadFromFile("zblock/genesis.json")
}

// LoadFromFile opens and consumes the specified genesis file.
func LoadFromFile(path string) (Genesis, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return Genesis{}, err
	}

	var genesis Genesis
	if err := json.Unmarshal(content, &genesis); err != nil {
		return Genesis{}, err
	}

	if err := genesis.Validate(); err != nil {
		return Genesis{}, fmt.Errorf("genesis file %s: %w", path, err)
	}

	return genesis, nil
}

// =============================================================================

// Settings provides live access to the chain parameters. The genesis file
// can be reloaded at runtime, so consumers like the consensus strategy
// read through Settings on every use instead of caching a value at
// construction time.
type Settings struct {
	mu  sync.RWMutex
	gen Genesis
}

// NewSettings constructs the settings from the specified genesis.
func NewSettings(gen Genesis) *Settings {
	return &Settings{gen: gen}
}

// Difficulty returns the current minimum number of leading zero hex
// characters a valid block hash must carry.
func (s *Settings) Difficulty() uint {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.gen.Difficulty
}

// GenesisHash returns the current configured hash for block zero.
func (s *Settings) GenesisHash() string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.gen.GenesisHash
}

// Reload swaps in a new set of chain parameters.
func (s *Settings) Reload(gen Genesis) error {
	if err := gen.Validate(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.gen = gen

	return nil
}
