package genesis_test

import (
	"errors"
	"testing"

	"github.com/blockforge/ledger/foundation/blockchain/database"
	"github.com/blockforge/ledger/foundation/blockchain/genesis"
	"github.com/blockforge/ledger/foundation/blockchain/signature"
)

// Success and failure markers.
const (
	success = "✓"
	failed  = "✗"
)

// =============================================================================

func Test_FactoryDefaults(t *testing.T) {
	t.Log("Given the need to create a default genesis block.")
	{
		block, err := genesis.NewFactory().CreateGenesisBlock()
		if err != nil {
			t.Fatalf("\t%s\tShould be able to create the genesis block: %v", failed, err)
		}
		t.Logf("\t%s\tShould be able to create the genesis block.", success)

		if block.Header.Number != 0 {
			t.Fatalf("\t%s\tShould carry block number 0: got %d", failed, block.Header.Number)
		}
		t.Logf("\t%s\tShould carry block number 0.", success)

		if block.Header.PrevBlockHash != signature.ZeroHash {
			t.Fatalf("\t%s\tShould carry the zero hash as previous hash: got %s", failed, block.Header.PrevBlockHash)
		}
		t.Logf("\t%s\tShould carry the zero hash as previous hash.", success)

		if len(block.Transactions) != 0 {
			t.Fatalf("\t%s\tShould carry no transactions: got %d", failed, len(block.Transactions))
		}
		t.Logf("\t%s\tShould carry no transactions.", success)

		if block.BlockHash != block.Hash() {
			t.Fatalf("\t%s\tShould hash over its own fields when no hash is assigned.", failed)
		}
		t.Logf("\t%s\tShould hash over its own fields when no hash is assigned.", success)
	}
}

func Test_FactoryOverrides(t *testing.T) {
	t.Log("Given the need to customize the genesis block.")
	{
		tx := database.NewTransfer("treasury", "alice", 1000)

		factory := genesis.NewFactory().
			WithHash("0xgenesis").
			WithNonce(7).
			WithTimeStamp(1_700_000_000).
			WithTransactions(tx).
			WithMetadata("network", "forge-test")

		block, err := factory.CreateGenesisBlock()
		if err != nil {
			t.Fatalf("\t%s\tShould be able to create the genesis block: %v", failed, err)
		}
		t.Logf("\t%s\tShould be able to create the genesis block.", success)

		if block.BlockHash != "0xgenesis" {
			t.Fatalf("\t%s\tShould keep the assigned hash: got %s", failed, block.BlockHash)
		}
		t.Logf("\t%s\tShould keep the assigned hash.", success)

		if block.Header.Nonce != 7 || block.Header.TimeStamp != 1_700_000_000 {
			t.Fatalf("\t%s\tShould keep the assigned nonce and timestamp.", failed)
		}
		t.Logf("\t%s\tShould keep the assigned nonce and timestamp.", success)

		if len(block.Transactions) != 1 || block.Transactions[0].Hash() != tx.Hash() {
			t.Fatalf("\t%s\tShould carry the seeded transaction.", failed)
		}
		t.Logf("\t%s\tShould carry the seeded transaction.", success)

		if v, ok := factory.Metadata("network"); !ok || v != "forge-test" {
			t.Fatalf("\t%s\tShould keep the assigned metadata.", failed)
		}
		t.Logf("\t%s\tShould keep the assigned metadata.", success)
	}
}

func Test_FactoryCreateOnce(t *testing.T) {
	t.Log("Given the need to create the genesis block exactly once.")
	{
		factory := genesis.NewFactory()

		if _, err := factory.CreateGenesisBlock(); err != nil {
			t.Fatalf("\t%s\tShould be able to create the genesis block: %v", failed, err)
		}
		t.Logf("\t%s\tShould be able to create the genesis block.", success)

		if _, err := factory.CreateGenesisBlock(); !errors.Is(err, genesis.ErrAlreadyCreated) {
			t.Fatalf("\t%s\tShould get ErrAlreadyCreated on the second call: %v", failed, err)
		}
		t.Logf("\t%s\tShould get ErrAlreadyCreated on the second call.", success)
	}
}

func Test_FactoryInvalidSeedTransaction(t *testing.T) {
	t.Log("Given the need to reject invalid seed transactions.")
	{
		factory := genesis.NewFactory().AppendTransaction(database.Transfer{FromID: "", ToID: "alice", Amount: 10})

		if _, err := factory.CreateGenesisBlock(); err == nil {
			t.Fatalf("\t%s\tShould reject an invalid seed transaction.", failed)
		}
		t.Logf("\t%s\tShould reject an invalid seed transaction.", success)
	}
}
