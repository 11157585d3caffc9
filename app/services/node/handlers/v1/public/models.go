package public

import "math/big"

// submitTx is the payload for submitting a transaction to the node. The
// signature block is optional: plain transfers carry no public key.
type submitTx struct {
	From      string   `json:"from" validate:"required"`
	To        string   `json:"to" validate:"required"`
	Amount    float64  `json:"amount" validate:"required,gt=0"`
	TimeStamp uint64   `json:"timestamp"`
	PublicKey string   `json:"public_key"`
	V         *big.Int `json:"v"`
	R         *big.Int `json:"r"`
	S         *big.Int `json:"s"`
}

type tx struct {
	Kind      string  `json:"kind"`
	From      string  `json:"from"`
	FromName  string  `json:"from_name"`
	To        string  `json:"to"`
	ToName    string  `json:"to_name"`
	Amount    float64 `json:"amount"`
	TimeStamp uint64  `json:"timestamp"`
	Hash      string  `json:"hash"`
	Summary   string  `json:"summary"`
}

type block struct {
	Number        uint64 `json:"number"`
	PrevBlockHash string `json:"prev_block_hash"`
	TimeStamp     uint64 `json:"timestamp"`
	Nonce         uint64 `json:"nonce"`
	TransRoot     string `json:"trans_root"`
	BlockHash     string `json:"block_hash"`
	Transactions  []tx   `json:"transactions"`
}
