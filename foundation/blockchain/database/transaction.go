package database

import (
	"crypto/ecdsa"
	"encoding/json"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/blockforge/ledger/foundation/blockchain/signature"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/crypto"
)

// Transaction kinds registered by this package.
const (
	KindTransfer = "transfer"
	KindSigned   = "signed"
)

// ErrInvalidTransaction is returned when a transaction fails a structural
// or business rule at submission. It is recovered locally, the submission
// is simply rejected.
var ErrInvalidTransaction = errors.New("invalid transaction")

// Transaction represents the behavior any payload must implement to be
// staged in the mempool and embedded in a block. Implementations outside
// this package must register a decoder with RegisterKind so blocks that
// carry them survive a serialization round trip.
type Transaction interface {

	// Kind returns the registered name for the concrete type.
	Kind() string

	// Sender and Receiver identify the two parties.
	Sender() string
	Receiver() string

	// Summary returns the canonical human readable form. For signed
	// transactions these are the exact bytes that were signed, so the
	// implementation must be stable byte for byte.
	Summary() string

	// Hash returns the stable content derived key used for deduplication.
	Hash() string

	// Validate reports nil when the transaction may be staged. A failing
	// structural rule wraps ErrInvalidTransaction. A failure inside the
	// crypto machinery wraps signature.CryptoError and must be surfaced,
	// never treated as a plain rejection.
	Validate() error
}

// =============================================================================

// Transfer moves an amount between two named parties. It is the plain,
// unsigned payload of the ledger.
type Transfer struct {
	FromID    string  `json:"from"`
	ToID      string  `json:"to"`
	Amount    float64 `json:"amount"`
	TimeStamp uint64  `json:"timestamp"` // The time the transfer was created.
}

// NewTransfer constructs a transfer between the two parties stamped with
// the current time.
func NewTransfer(from string, to string, amount float64) Transfer {
	return Transfer{
		FromID:    from,
		ToID:      to,
		Amount:    amount,
		TimeStamp: uint64(time.Now().UTC().Unix()),
	}
}

// Kind returns the registered name for a plain transfer.
func (tx Transfer) Kind() string {
	return KindTransfer
}

// Sender returns the party the amount moves from.
func (tx Transfer) Sender() string {
	return tx.FromID
}

// Receiver returns the party the amount moves to.
func (tx Transfer) Receiver() string {
	return tx.ToID
}

// Summary returns the canonical string form of the transfer. This exact
// string is what a signer commits to, so the format must never drift.
func (tx Transfer) Summary() string {
	return fmt.Sprintf("%s -> %s : $%.1f (time: %d)", tx.FromID, tx.ToID, tx.Amount, tx.TimeStamp)
}

// Hash returns the content derived key for the transfer.
func (tx Transfer) Hash() string {
	return signature.Hash(tx)
}

// Validate enforces the structural rules for staging a transfer.
func (tx Transfer) Validate() error {
	if strings.TrimSpace(tx.FromID) == "" {
		return fmt.Errorf("%w: sender is missing", ErrInvalidTransaction)
	}
	if strings.TrimSpace(tx.ToID) == "" {
		return fmt.Errorf("%w: receiver is missing", ErrInvalidTransaction)
	}
	if tx.Amount <= 0 {
		return fmt.Errorf("%w: amount must be greater than zero, got %.2f", ErrInvalidTransaction, tx.Amount)
	}

	return nil
}

// Sign produces a SignedTx carrying the signature over the exact summary
// bytes of this transfer along with the signer's public key.
func (tx Transfer) Sign(privateKey *ecdsa.PrivateKey) (SignedTx, error) {
	v, r, s, err := signature.Sign(tx.Summary(), privateKey)
	if err != nil {
		return SignedTx{}, err
	}

	signedTx := SignedTx{
		Transfer:  tx,
		PublicKey: hexutil.Encode(crypto.FromECDSAPub(&privateKey.PublicKey)),
		V:         v,
		R:         r,
		S:         s,
	}

	return signedTx, nil
}

// =============================================================================

// SignedTx is a transfer carrying the signer's public key and a signature
// over the transfer's summary bytes. This is how wallets provide
// transactions for inclusion into the ledger.
type SignedTx struct {
	Transfer
	PublicKey string   `json:"public_key"` // Hex encoded uncompressed secp256k1 point.
	V         *big.Int `json:"v"`          // Recovery identifier, either 31 or 32 with the forge id.
	R         *big.Int `json:"r"`          // First coordinate of the ECDSA signature.
	S         *big.Int `json:"s"`          // Second coordinate of the ECDSA signature.
}

// Kind returns the registered name for a signed transaction.
func (tx SignedTx) Kind() string {
	return KindSigned
}

// Hash returns the content derived key for the signed transaction. The
// signature fields participate, so the same transfer signed twice with
// different keys yields different keys.
func (tx SignedTx) Hash() string {
	return signature.Hash(tx)
}

// VerifySignature checks the signature was produced over the exact summary
// bytes by the owner of the carried public key.
func (tx SignedTx) VerifySignature() error {
	return signature.Verify(tx.Summary(), tx.PublicKey, tx.V, tx.R, tx.S)
}

// Validate is conjunctive: the base transfer rules must hold and the
// signature must verify against the summary.
func (tx SignedTx) Validate() error {
	if err := tx.Transfer.Validate(); err != nil {
		return err
	}

	return tx.VerifySignature()
}

// FromAddress extracts the address of the account that signed the
// transaction.
func (tx SignedTx) FromAddress() (string, error) {
	return signature.FromAddress(tx.Summary(), tx.V, tx.R, tx.S)
}

// SignatureString returns the signature as a string.
func (tx SignedTx) SignatureString() string {
	return signature.SignatureString(tx.V, tx.R, tx.S)
}

// String implements the fmt.Stringer interface for logging.
func (tx SignedTx) String() string {
	return fmt.Sprintf("%s:%s", tx.FromID, tx.Hash()[:16])
}

// =============================================================================

// TxData is the serialized form of any transaction: the registered kind
// plus the raw encoding of the concrete value. It is what storage backends
// persist and what blocks carry on the wire.
type TxData struct {
	Kind string          `json:"kind"`
	Data json.RawMessage `json:"data"`
}

// DecodeFunc reconstructs a concrete transaction from its raw encoding.
type DecodeFunc func(data json.RawMessage) (Transaction, error)

// registry maps a transaction kind to its decoder. Kinds are registered
// during init, before any concurrent access, so no locking is required.
var registry = map[string]DecodeFunc{}

// RegisterKind makes a transaction kind reconstructible from storage.
// Registering an already known kind is a programming error.
func RegisterKind(kind string, decode DecodeFunc) error {
	if _, exists := registry[kind]; exists {
		return fmt.Errorf("kind %q already registered", kind)
	}
	registry[kind] = decode

	return nil
}

func init() {
	RegisterKind(KindTransfer, func(data json.RawMessage) (Transaction, error) {
		var tx Transfer
		if err := json.Unmarshal(data, &tx); err != nil {
			return nil, err
		}
		return tx, nil
	})

	RegisterKind(KindSigned, func(data json.RawMessage) (Transaction, error) {
		var tx SignedTx
		if err := json.Unmarshal(data, &tx); err != nil {
			return nil, err
		}
		return tx, nil
	})
}

// NewTxData converts a transaction into its serialized form.
func NewTxData(tx Transaction) (TxData, error) {
	data, err := json.Marshal(tx)
	if err != nil {
		return TxData{}, err
	}

	return TxData{Kind: tx.Kind(), Data: data}, nil
}

// ToTransaction reconstructs a concrete transaction from its serialized
// form using the registered decoder for its kind.
func ToTransaction(txd TxData) (Transaction, error) {
	decode, exists := registry[txd.Kind]
	if !exists {
		return nil, fmt.Errorf("no decoder registered for kind %q", txd.Kind)
	}

	return decode(txd.Data)
}

// NewTxDatas converts an ordered set of transactions preserving order.
func NewTxDatas(trans []Transaction) ([]TxData, error) {
	out := make([]TxData, len(trans))
	for i, tx := range trans {
		txd, err := NewTxData(tx)
		if err != nil {
			return nil, err
		}
		out[i] = txd
	}

	return out, nil
}

// ToTransactions reconstructs an ordered set of transactions.
func ToTransactions(txds []TxData) ([]Transaction, error) {
	out := make([]Transaction, len(txds))
	for i, txd := range txds {
		tx, err := ToTransaction(txd)
		if err != nil {
			return nil, err
		}
		out[i] = tx
	}

	return out, nil
}
