// Package signature provides the hashing and digital signature support
// for the ledger.
package signature

import (
	"crypto/ecdsa"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/crypto"
)

// ZeroHash represents a hash code of zeros.
const ZeroHash string = "0x0000000000000000000000000000000000000000000000000000000000000000"

// forgeID is an arbitrary number added to the recovery id when signing
// messages. It marks a signature as belonging to the Forge ledger the same
// way Ethereum and Bitcoin use the value of 27.
const forgeID = 31

// ErrInvalidSignature is returned when a signature does not match the
// message it claims to sign. This is a negative verification result, not
// a failure of the crypto machinery.
var ErrInvalidSignature = errors.New("signature does not match")

// CryptoError represents a failure inside the signing or verification
// machinery itself, like a malformed public key. It must be kept distinct
// from ErrInvalidSignature since hiding it would be indistinguishable
// from tampering.
type CryptoError struct {
	Err error
}

// Error implements the error interface.
func (ce *CryptoError) Error() string {
	return fmt.Sprintf("crypto failure: %s", ce.Err)
}

// Unwrap exposes the underlying failure.
func (ce *CryptoError) Unwrap() error {
	return ce.Err
}

// IsCryptoError reports whether the error chain contains a CryptoError.
func IsCryptoError(err error) bool {
	var ce *CryptoError
	return errors.As(err, &ce)
}

// =============================================================================

// Hash returns a unique string for the value. The digest is a SHA-256 over
// the canonical JSON encoding of the value, so identical values always
// produce identical hashes across processes.
func Hash(value any) string {
	data, err := json.Marshal(value)
	if err != nil {
		return ZeroHash
	}

	hash := sha256.Sum256(data)
	return hexutil.Encode(hash[:])
}

// Sign uses the specified private key to sign the message. The exact bytes
// of the message are what is signed, so the verifier must reproduce them
// byte for byte.
func Sign(msg string, privateKey *ecdsa.PrivateKey) (v, r, s *big.Int, err error) {

	// Prepare the message for signing.
	data := stamp(msg)

	// Sign the hash with the private key to produce a signature.
	sig, err := crypto.Sign(data, privateKey)
	if err != nil {
		return nil, nil, nil, &CryptoError{Err: err}
	}

	// Extract the public key from the data and the signature and check the
	// signature holds for the key that was just used.
	publicKey, err := crypto.SigToPub(data, sig)
	if err != nil {
		return nil, nil, nil, &CryptoError{Err: err}
	}

	rs := sig[:crypto.RecoveryIDOffset]
	if !crypto.VerifySignature(crypto.FromECDSAPub(publicKey), data, rs) {
		return nil, nil, nil, ErrInvalidSignature
	}

	// Convert the 65 byte signature into the [R|S|V] format.
	v, r, s = toSignatureValues(sig)

	return v, r, s, nil
}

// Verify checks the specified signature was produced over the exact message
// bytes by the owner of the specified public key. A malformed key surfaces
// as a CryptoError, a mismatch as ErrInvalidSignature.
func Verify(msg string, publicKey string, v, r, s *big.Int) error {

	// Check the recovery id is either 0 or 1.
	uintV := v.Uint64() - forgeID
	if uintV != 0 && uintV != 1 {
		return fmt.Errorf("invalid recovery id: %w", ErrInvalidSignature)
	}

	// Check the signature values are valid.
	if !crypto.ValidateSignatureValues(byte(uintV), r, s, false) {
		return fmt.Errorf("invalid signature values: %w", ErrInvalidSignature)
	}

	// Decode the public key. Failure here is a crypto problem, not a
	// negative verification result.
	pub, err := hexutil.Decode(publicKey)
	if err != nil {
		return &CryptoError{Err: err}
	}
	if _, err := crypto.UnmarshalPubkey(pub); err != nil {
		return &CryptoError{Err: err}
	}

	// Check the signature over the exact message bytes.
	sig := ToSignatureBytes(v, r, s)
	if !crypto.VerifySignature(pub, stamp(msg), sig[:crypto.RecoveryIDOffset]) {
		return ErrInvalidSignature
	}

	return nil
}

// FromAddress extracts the address of the account that signed the message.
func FromAddress(msg string, v, r, s *big.Int) (string, error) {
	data := stamp(msg)

	// Convert the [R|S|V] format into the original 65 bytes.
	sig := ToSignatureBytes(v, r, s)

	// Capture the public key associated with this message and signature.
	publicKey, err := crypto.SigToPub(data, sig)
	if err != nil {
		return "", &CryptoError{Err: err}
	}

	return crypto.PubkeyToAddress(*publicKey).String(), nil
}

// SignatureString returns the signature as a string.
func SignatureString(v, r, s *big.Int) string {
	return hexutil.Encode(ToSignatureBytesWithForgeID(v, r, s))
}

// ToVRSFromHexSignature converts a hex representation of the signature into
// its R, S and V parts.
func ToVRSFromHexSignature(sigStr string) (v, r, s *big.Int, err error) {
	sig, err := hex.DecodeString(sigStr[2:])
	if err != nil {
		return nil, nil, nil, err
	}

	r = new(big.Int).SetBytes(sig[:32])
	s = new(big.Int).SetBytes(sig[32:64])
	v = new(big.Int).SetBytes([]byte{sig[64]})

	return v, r, s, nil
}

// =============================================================================

// stamp returns a hash of 32 bytes that represents the message with the
// Forge stamp embedded into the final hash. The stamp keeps signatures
// produced here from being valid on any other chain.
func stamp(msg string) []byte {
	msgHash := crypto.Keccak256([]byte(msg))

	stamp := []byte("\x19Forge Signed Message:\n32")

	return crypto.Keccak256(stamp, msgHash)
}

// toSignatureValues converts the signature into the r, s, v values.
func toSignatureValues(sig []byte) (v, r, s *big.Int) {
	r = new(big.Int).SetBytes(sig[:32])
	s = new(big.Int).SetBytes(sig[32:64])
	v = new(big.Int).SetBytes([]byte{sig[64] + forgeID})

	return v, r, s
}

// ToSignatureBytes converts the r, s, v values into a slice of bytes
// with the removal of the forgeID.
func ToSignatureBytes(v, r, s *big.Int) []byte {
	sig := make([]byte, crypto.SignatureLength)

	rBytes := r.Bytes()
	copy(sig[32-len(rBytes):32], rBytes)

	sBytes := s.Bytes()
	copy(sig[64-len(sBytes):64], sBytes)

	sig[64] = byte(v.Uint64() - forgeID)

	return sig
}

// ToSignatureBytesWithForgeID converts the r, s, v values into a slice of
// bytes keeping the forge id.
func ToSignatureBytesWithForgeID(v, r, s *big.Int) []byte {
	sig := ToSignatureBytes(v, r, s)
	sig[64] = byte(v.Uint64())

	return sig
}
