package genesis

import (
	"errors"
	"fmt"

	"github.com/blockforge/ledger/foundation/blockchain/database"
	"github.com/blockforge/ledger/foundation/blockchain/signature"
)

// ErrAlreadyCreated is returned when a factory is asked to produce a
// second genesis block. A factory is built once and consumed once.
var ErrAlreadyCreated = errors.New("genesis block already created")

// Factory builds block zero. The zero value defaults match the default
// genesis: no transactions, the zero hash as previous hash, nonce zero.
// The builder methods return the factory so overrides chain.
type Factory struct {
	hash      string
	prevHash  string
	nonce     uint64
	timeStamp uint64
	trans     []database.Transaction
	metadata  map[string]string
	created   bool
}

// NewFactory constructs a factory producing the default genesis block.
func NewFactory() *Factory {
	return &Factory{
		prevHash: signature.ZeroHash,
		metadata: make(map[string]string),
	}
}

// WithHash overrides the stored hash assigned to block zero. When left
// unset the factory computes the hash over the block's own fields.
func (f *Factory) WithHash(hash string) *Factory {
	f.hash = hash
	return f
}

// WithPrevBlockHash overrides the previous hash sentinel.
func (f *Factory) WithPrevBlockHash(prevHash string) *Factory {
	f.prevHash = prevHash
	return f
}

// WithNonce overrides the nonce recorded in block zero.
func (f *Factory) WithNonce(nonce uint64) *Factory {
	f.nonce = nonce
	return f
}

// WithTimeStamp fixes the creation instant so the produced block is fully
// deterministic given the factory's final state.
func (f *Factory) WithTimeStamp(timeStamp uint64) *Factory {
	f.timeStamp = timeStamp
	return f
}

// WithTransactions replaces the seed transaction list.
func (f *Factory) WithTransactions(trans ...database.Transaction) *Factory {
	f.trans = append([]database.Transaction{}, trans...)
	return f
}

// AppendTransaction adds a single seed transaction preserving order.
func (f *Factory) AppendTransaction(tx database.Transaction) *Factory {
	f.trans = append(f.trans, tx)
	return f
}

// WithMetadata records an opaque key/value pair. Metadata is not embedded
// in the block, it exists only for the factory's own consumers.
func (f *Factory) WithMetadata(key string, value string) *Factory {
	f.metadata[key] = value
	return f
}

// Metadata returns the recorded value for the specified key.
func (f *Factory) Metadata(key string) (string, bool) {
	value, exists := f.metadata[key]
	return value, exists
}

// CreateGenesisBlock produces block zero from the factory's final state.
// The call is deterministic and can succeed exactly once per factory.
// Inconsistent parameters surface here as construction errors.
func (f *Factory) CreateGenesisBlock() (database.Block, error) {
	if f.created {
		return database.Block{}, ErrAlreadyCreated
	}

	if f.prevHash == "" {
		return database.Block{}, errors.New("previous hash sentinel is missing")
	}

	for i, tx := range f.trans {
		if err := tx.Validate(); err != nil {
			return database.Block{}, fmt.Errorf("seed transaction %d: %w", i, err)
		}
	}

	transRoot, err := database.TransRoot(f.trans)
	if err != nil {
		return database.Block{}, err
	}

	block := database.Block{
		Header: database.BlockHeader{
			Number:        0,
			PrevBlockHash: f.prevHash,
			TimeStamp:     f.timeStamp,
			Nonce:         f.nonce,
			TransRoot:     transRoot,
		},
		Transactions: f.trans,
	}

	// The genesis hash is configuration, not proof of work. When no
	// override is present fall back to the computed digest so the block
	// is still tamper evident.
	block.BlockHash = f.hash
	if block.BlockHash == "" {
		block.BlockHash = block.Hash()
	}

	f.created = true

	return block, nil
}
