package database

import (
	"crypto/sha256"
	"fmt"
	"strings"

	"github.com/blockforge/ledger/foundation/blockchain/merkle"
	"github.com/blockforge/ledger/foundation/blockchain/signature"
	"github.com/ethereum/go-ethereum/common/hexutil"
)

// BlockHeader represents the common information required for each block.
type BlockHeader struct {
	Number        uint64 `json:"number"`          // Position of the block in the chain, genesis is 0.
	PrevBlockHash string `json:"prev_block_hash"` // Stored hash of the previous block in the chain.
	TimeStamp     uint64 `json:"timestamp"`       // Time the block was created.
	Nonce         uint64 `json:"nonce"`           // Value found by the proof of work search.
	TransRoot     string `json:"trans_root"`      // Merkle root over the ordered transaction hashes.
}

// Block represents a group of transactions bound to the chain. Once a
// block is accepted it is never mutated, the stored hash is the proof.
type Block struct {
	Header       BlockHeader
	Transactions []Transaction
	BlockHash    string
}

// ComputeHash produces the deterministic digest over a block's canonical
// fields. Identical inputs in identical order always yield an identical
// digest across processes, which is what makes tamper detection possible.
func ComputeHash(number uint64, prevBlockHash string, timeStamp uint64, trans []Transaction, nonce uint64) string {
	var sb strings.Builder

	fmt.Fprintf(&sb, "%d|%s|%d|", number, prevBlockHash, timeStamp)
	for _, tx := range trans {
		sb.WriteString(tx.Hash())
	}
	fmt.Fprintf(&sb, "|%d", nonce)

	hash := sha256.Sum256([]byte(sb.String()))
	return hexutil.Encode(hash[:])
}

// Hash recomputes the digest over the block's own fields. For an untampered
// block this equals the stored BlockHash. The genesis block is the one
// exception: its stored hash is factory supplied and never recomputed.
func (b Block) Hash() string {
	return ComputeHash(b.Header.Number, b.Header.PrevBlockHash, b.Header.TimeStamp, b.Transactions, b.Header.Nonce)
}

// TransRoot computes the merkle root over the ordered transactions. A block
// with no transactions carries the zero hash as its root.
func TransRoot(trans []Transaction) (string, error) {
	if len(trans) == 0 {
		return signature.ZeroHash, nil
	}

	return merkle.RootHex(trans)
}

// =============================================================================

// BlockData is the serialized form of a block used by storage backends and
// the wire.
type BlockData struct {
	Hash   string      `json:"hash"`
	Header BlockHeader `json:"block"`
	Trans  []TxData    `json:"trans"`
}

// NewBlockData converts a block into its serialized form.
func NewBlockData(block Block) (BlockData, error) {
	trans, err := NewTxDatas(block.Transactions)
	if err != nil {
		return BlockData{}, err
	}

	bd := BlockData{
		Hash:   block.BlockHash,
		Header: block.Header,
		Trans:  trans,
	}

	return bd, nil
}

// ToBlock reconstructs a block from its serialized form.
func ToBlock(bd BlockData) (Block, error) {
	trans, err := ToTransactions(bd.Trans)
	if err != nil {
		return Block{}, err
	}

	block := Block{
		Header:       bd.Header,
		Transactions: trans,
		BlockHash:    bd.Hash,
	}

	return block, nil
}
