package database_test

import (
	"errors"
	"testing"

	"github.com/blockforge/ledger/foundation/blockchain/database"
	"github.com/blockforge/ledger/foundation/blockchain/genesis"
	"github.com/ethereum/go-ethereum/crypto"
)

// Success and failure markers.
const (
	success = "✓"
	failed  = "✗"
)

// =============================================================================

func Test_TransferSummary(t *testing.T) {
	t.Log("Given the need for a stable canonical transaction form.")
	{
		tx := database.Transfer{FromID: "Alice", ToID: "Bob", Amount: 100, TimeStamp: 1234567890}

		const exp = "Alice -> Bob : $100.0 (time: 1234567890)"
		if got := tx.Summary(); got != exp {
			t.Fatalf("\t%s\tShould produce the canonical summary: got %q, exp %q", failed, got, exp)
		}
		t.Logf("\t%s\tShould produce the canonical summary.", success)
	}
}

func Test_SignedTransaction(t *testing.T) {
	t.Log("Given the need to sign and verify a transfer.")
	{
		privateKey, err := crypto.GenerateKey()
		if err != nil {
			t.Fatalf("\t%s\tShould be able to generate a private key: %v", failed, err)
		}
		t.Logf("\t%s\tShould be able to generate a private key.", success)

		tx := database.NewTransfer("Alice", "Bob", 100)

		signedTx, err := tx.Sign(privateKey)
		if err != nil {
			t.Fatalf("\t%s\tShould be able to sign the transfer: %v", failed, err)
		}
		t.Logf("\t%s\tShould be able to sign the transfer.", success)

		if err := signedTx.Validate(); err != nil {
			t.Fatalf("\t%s\tShould validate a properly signed transaction: %v", failed, err)
		}
		t.Logf("\t%s\tShould validate a properly signed transaction.", success)

		addr, err := signedTx.FromAddress()
		if err != nil {
			t.Fatalf("\t%s\tShould be able to recover the signer address: %v", failed, err)
		}
		t.Logf("\t%s\tShould be able to recover the signer address.", success)

		if exp := crypto.PubkeyToAddress(privateKey.PublicKey).String(); addr != exp {
			t.Fatalf("\t%s\tShould recover the signer's address: got %s, exp %s", failed, addr, exp)
		}
		t.Logf("\t%s\tShould recover the signer's address.", success)

		// A change to the signed payload must break verification.
		signedTx.Amount = 999
		if err := signedTx.Validate(); err == nil {
			t.Fatalf("\t%s\tShould reject a tampered signed transaction.", failed)
		}
		t.Logf("\t%s\tShould reject a tampered signed transaction.", success)
	}
}

func Test_TxDataRoundTrip(t *testing.T) {
	t.Log("Given the need to round trip transactions through their data form.")
	{
		privateKey, err := crypto.GenerateKey()
		if err != nil {
			t.Fatalf("\t%s\tShould be able to generate a private key: %v", failed, err)
		}
		t.Logf("\t%s\tShould be able to generate a private key.", success)

		plain := database.NewTransfer("Alice", "Bob", 100)
		signed, err := database.NewTransfer("Charlie", "Dave", 75).Sign(privateKey)
		if err != nil {
			t.Fatalf("\t%s\tShould be able to sign a transfer: %v", failed, err)
		}
		t.Logf("\t%s\tShould be able to sign a transfer.", success)

		trans := []database.Transaction{plain, signed}

		txds, err := database.NewTxDatas(trans)
		if err != nil {
			t.Fatalf("\t%s\tShould be able to encode the transactions: %v", failed, err)
		}
		t.Logf("\t%s\tShould be able to encode the transactions.", success)

		back, err := database.ToTransactions(txds)
		if err != nil {
			t.Fatalf("\t%s\tShould be able to decode the transactions: %v", failed, err)
		}
		t.Logf("\t%s\tShould be able to decode the transactions.", success)

		for i := range trans {
			if back[i].Kind() != trans[i].Kind() {
				t.Fatalf("\t%s\tShould keep the kind at position %d.", failed, i)
			}
			if back[i].Hash() != trans[i].Hash() {
				t.Fatalf("\t%s\tShould keep the hash at position %d.", failed, i)
			}
		}
		t.Logf("\t%s\tShould keep kind and hash through the round trip.", success)

		if err := back[1].Validate(); err != nil {
			t.Fatalf("\t%s\tShould keep the signature valid through the round trip: %v", failed, err)
		}
		t.Logf("\t%s\tShould keep the signature valid through the round trip.", success)
	}
}

func Test_UnknownKind(t *testing.T) {
	t.Log("Given the need to reject data for an unregistered kind.")
	{
		txd := database.TxData{Kind: "unknown", Data: []byte(`{}`)}

		if _, err := database.ToTransaction(txd); err == nil {
			t.Fatalf("\t%s\tShould reject an unregistered kind.", failed)
		}
		t.Logf("\t%s\tShould reject an unregistered kind.", success)
	}
}

func Test_BlockHashTamper(t *testing.T) {
	t.Log("Given the need to detect any change to a block's content.")
	{
		tx := database.Transfer{FromID: "Alice", ToID: "Bob", Amount: 100, TimeStamp: 1234567890}

		base := database.ComputeHash(1, "0xprev", 1234567890, []database.Transaction{tx}, 42)

		changedNonce := database.ComputeHash(1, "0xprev", 1234567890, []database.Transaction{tx}, 43)
		if base == changedNonce {
			t.Fatalf("\t%s\tShould change the hash when the nonce changes.", failed)
		}
		t.Logf("\t%s\tShould change the hash when the nonce changes.", success)

		changedTx := database.Transfer{FromID: "Alice", ToID: "Bob", Amount: 999, TimeStamp: 1234567890}
		changedTrans := database.ComputeHash(1, "0xprev", 1234567890, []database.Transaction{changedTx}, 42)
		if base == changedTrans {
			t.Fatalf("\t%s\tShould change the hash when a transaction changes.", failed)
		}
		t.Logf("\t%s\tShould change the hash when a transaction changes.", success)

		changedPrev := database.ComputeHash(1, "0xother", 1234567890, []database.Transaction{tx}, 42)
		if base == changedPrev {
			t.Fatalf("\t%s\tShould change the hash when the previous hash changes.", failed)
		}
		t.Logf("\t%s\tShould change the hash when the previous hash changes.", success)
	}
}

func Test_Database(t *testing.T) {
	t.Log("Given the need to maintain the ordered block list.")
	{
		genesisBlock, err := genesis.NewFactory().CreateGenesisBlock()
		if err != nil {
			t.Fatalf("\t%s\tShould be able to create the genesis block: %v", failed, err)
		}
		t.Logf("\t%s\tShould be able to create the genesis block.", success)

		db, err := database.New(genesisBlock, nil)
		if err != nil {
			t.Fatalf("\t%s\tShould be able to open the database: %v", failed, err)
		}
		t.Logf("\t%s\tShould be able to open the database.", success)

		if db.Height() != 1 {
			t.Fatalf("\t%s\tShould start with height 1: got %d", failed, db.Height())
		}
		t.Logf("\t%s\tShould start with height 1.", success)

		if db.LatestBlock().BlockHash != genesisBlock.BlockHash {
			t.Fatalf("\t%s\tShould report the genesis block as latest.", failed)
		}
		t.Logf("\t%s\tShould report the genesis block as latest.", success)

		tx := database.NewTransfer("alice", "bob", 10)
		next := database.Block{
			Header: database.BlockHeader{
				Number:        1,
				PrevBlockHash: genesisBlock.BlockHash,
				TimeStamp:     genesisBlock.Header.TimeStamp + 1,
			},
			Transactions: []database.Transaction{tx},
		}
		next.BlockHash = next.Hash()

		if err := db.Append(next); err != nil {
			t.Fatalf("\t%s\tShould be able to append the next block: %v", failed, err)
		}
		t.Logf("\t%s\tShould be able to append the next block.", success)

		got, err := db.BlockByNumber(1)
		if err != nil {
			t.Fatalf("\t%s\tShould be able to query block 1: %v", failed, err)
		}
		t.Logf("\t%s\tShould be able to query block 1.", success)

		if got.BlockHash != next.BlockHash {
			t.Fatalf("\t%s\tShould get back the appended block.", failed)
		}
		t.Logf("\t%s\tShould get back the appended block.", success)

		if _, err := db.BlockByNumber(99); !errors.Is(err, database.ErrBlockNotFound) {
			t.Fatalf("\t%s\tShould get ErrBlockNotFound for a missing block: %v", failed, err)
		}
		t.Logf("\t%s\tShould get ErrBlockNotFound for a missing block.", success)
	}
}
