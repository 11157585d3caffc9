package state_test

import (
	"context"
	"errors"
	"testing"

	"github.com/blockforge/ledger/foundation/blockchain/database"
	"github.com/blockforge/ledger/foundation/blockchain/database/storage/disk"
	"github.com/blockforge/ledger/foundation/blockchain/genesis"
	"github.com/blockforge/ledger/foundation/blockchain/state"
	"github.com/ethereum/go-ethereum/crypto"
)

// Success and failure markers.
const (
	success = "✓"
	failed  = "✗"
)

// =============================================================================

func testGenesis() genesis.Genesis {
	return genesis.Genesis{
		Name:       "forge-test",
		Difficulty: 1,
	}
}

func newState(t *testing.T, serializer database.Serializer) *state.State {
	t.Helper()

	st, err := state.New(state.Config{
		Genesis:    testGenesis(),
		Serializer: serializer,
	})
	if err != nil {
		t.Fatalf("\t%s\tShould be able to construct the state: %v", failed, err)
	}

	return st
}

// =============================================================================

func Test_MineNewBlock(t *testing.T) {
	t.Log("Given the need to move staged transactions into a block.")
	{
		st := newState(t, nil)
		defer st.Shutdown()

		if st.Height() != 1 {
			t.Fatalf("\t%s\tShould start with just the genesis block: got %d", failed, st.Height())
		}
		t.Logf("\t%s\tShould start with just the genesis block.", success)

		txs := []database.Transaction{
			database.NewTransfer("Alice", "Bob", 100),
			database.NewTransfer("Charlie", "Dave", 75),
		}
		for _, tx := range txs {
			if err := st.SubmitTransaction(tx); err != nil {
				t.Fatalf("\t%s\tShould be able to submit a transaction: %v", failed, err)
			}
		}
		t.Logf("\t%s\tShould be able to submit transactions.", success)

		if st.MempoolLength() != 2 {
			t.Fatalf("\t%s\tShould stage 2 transactions: got %d", failed, st.MempoolLength())
		}
		t.Logf("\t%s\tShould stage 2 transactions.", success)

		block, err := st.MineNewBlock(context.Background())
		if err != nil {
			t.Fatalf("\t%s\tShould be able to mine a block: %v", failed, err)
		}
		t.Logf("\t%s\tShould be able to mine a block.", success)

		if len(block.Transactions) != 2 {
			t.Fatalf("\t%s\tShould include both transactions: got %d", failed, len(block.Transactions))
		}
		t.Logf("\t%s\tShould include both transactions.", success)

		if st.Height() != 2 {
			t.Fatalf("\t%s\tShould grow the chain to height 2: got %d", failed, st.Height())
		}
		t.Logf("\t%s\tShould grow the chain to height 2.", success)

		if st.MempoolLength() != 0 {
			t.Fatalf("\t%s\tShould clear the mined transactions from the pool: got %d", failed, st.MempoolLength())
		}
		t.Logf("\t%s\tShould clear the mined transactions from the pool.", success)

		if st.LatestBlock().BlockHash != block.BlockHash {
			t.Fatalf("\t%s\tShould report the mined block as latest.", failed)
		}
		t.Logf("\t%s\tShould report the mined block as latest.", success)

		if err := st.Validate(); err != nil {
			t.Fatalf("\t%s\tShould validate the full chain: %v", failed, err)
		}
		t.Logf("\t%s\tShould validate the full chain.", success)
	}
}

func Test_MineEmptyPool(t *testing.T) {
	t.Log("Given the need to refuse mining with nothing staged.")
	{
		st := newState(t, nil)
		defer st.Shutdown()

		if _, err := st.MineNewBlock(context.Background()); !errors.Is(err, state.ErrNoTransactions) {
			t.Fatalf("\t%s\tShould get ErrNoTransactions for an empty pool: %v", failed, err)
		}
		t.Logf("\t%s\tShould get ErrNoTransactions for an empty pool.", success)

		if st.Height() != 1 {
			t.Fatalf("\t%s\tShould not grow the chain: got %d", failed, st.Height())
		}
		t.Logf("\t%s\tShould not grow the chain.", success)
	}
}

func Test_SignedTransactionFlow(t *testing.T) {
	t.Log("Given the need to carry signed transactions through the ledger.")
	{
		st := newState(t, nil)
		defer st.Shutdown()

		privateKey, err := crypto.GenerateKey()
		if err != nil {
			t.Fatalf("\t%s\tShould be able to generate a private key: %v", failed, err)
		}
		t.Logf("\t%s\tShould be able to generate a private key.", success)

		from := crypto.PubkeyToAddress(privateKey.PublicKey).String()
		signedTx, err := database.NewTransfer(from, "Bob", 100).Sign(privateKey)
		if err != nil {
			t.Fatalf("\t%s\tShould be able to sign the transfer: %v", failed, err)
		}
		t.Logf("\t%s\tShould be able to sign the transfer.", success)

		if err := st.SubmitTransaction(signedTx); err != nil {
			t.Fatalf("\t%s\tShould accept a properly signed transaction: %v", failed, err)
		}
		t.Logf("\t%s\tShould accept a properly signed transaction.", success)

		// Tamper with the payload and make sure submission fails.
		tampered := signedTx
		tampered.Amount = 999
		if err := st.SubmitTransaction(tampered); err == nil {
			t.Fatalf("\t%s\tShould reject a tampered signed transaction.", failed)
		}
		t.Logf("\t%s\tShould reject a tampered signed transaction.", success)

		block, err := st.MineNewBlock(context.Background())
		if err != nil {
			t.Fatalf("\t%s\tShould be able to mine the signed transaction: %v", failed, err)
		}
		t.Logf("\t%s\tShould be able to mine the signed transaction.", success)

		if len(block.Transactions) != 1 {
			t.Fatalf("\t%s\tShould include only the valid transaction: got %d", failed, len(block.Transactions))
		}
		t.Logf("\t%s\tShould include only the valid transaction.", success)
	}
}

func Test_DiskRoundTrip(t *testing.T) {
	t.Log("Given the need to restore the ledger from disk after a restart.")
	{
		dbPath := t.TempDir()

		serializer, err := disk.New(dbPath)
		if err != nil {
			t.Fatalf("\t%s\tShould be able to open disk storage: %v", failed, err)
		}
		t.Logf("\t%s\tShould be able to open disk storage.", success)

		st := newState(t, serializer)

		if err := st.SubmitTransaction(database.NewTransfer("Alice", "Bob", 100)); err != nil {
			t.Fatalf("\t%s\tShould be able to submit a transaction: %v", failed, err)
		}
		if err := st.SubmitTransaction(database.NewTransfer("Charlie", "Dave", 75)); err != nil {
			t.Fatalf("\t%s\tShould be able to submit a transaction: %v", failed, err)
		}
		t.Logf("\t%s\tShould be able to submit transactions.", success)

		block, err := st.MineNewBlock(context.Background())
		if err != nil {
			t.Fatalf("\t%s\tShould be able to mine a block: %v", failed, err)
		}
		t.Logf("\t%s\tShould be able to mine a block.", success)

		// A transaction staged after mining must survive the restart too.
		pending := database.NewTransfer("Eve", "Frank", 10)
		if err := st.SubmitTransaction(pending); err != nil {
			t.Fatalf("\t%s\tShould be able to stage another transaction: %v", failed, err)
		}
		t.Logf("\t%s\tShould be able to stage another transaction.", success)

		st.Shutdown()

		serializer2, err := disk.New(dbPath)
		if err != nil {
			t.Fatalf("\t%s\tShould be able to reopen disk storage: %v", failed, err)
		}
		t.Logf("\t%s\tShould be able to reopen disk storage.", success)

		st2 := newState(t, serializer2)
		defer st2.Shutdown()

		if st2.Height() != 2 {
			t.Fatalf("\t%s\tShould restore the chain to height 2: got %d", failed, st2.Height())
		}
		t.Logf("\t%s\tShould restore the chain to height 2.", success)

		if st2.LatestBlock().BlockHash != block.BlockHash {
			t.Fatalf("\t%s\tShould restore the latest block hash.", failed)
		}
		t.Logf("\t%s\tShould restore the latest block hash.", success)

		if st2.MempoolLength() != 1 {
			t.Fatalf("\t%s\tShould restore the pending transaction: got %d", failed, st2.MempoolLength())
		}
		t.Logf("\t%s\tShould restore the pending transaction.", success)

		if got := st2.UncommittedTransactions(); len(got) != 1 || got[0].Hash() != pending.Hash() {
			t.Fatalf("\t%s\tShould restore the same pending transaction.", failed)
		}
		t.Logf("\t%s\tShould restore the same pending transaction.", success)

		if err := st2.Validate(); err != nil {
			t.Fatalf("\t%s\tShould validate the restored chain: %v", failed, err)
		}
		t.Logf("\t%s\tShould validate the restored chain.", success)
	}
}

func Test_BlocksByNumber(t *testing.T) {
	t.Log("Given the need to query ranges of blocks.")
	{
		st := newState(t, nil)
		defer st.Shutdown()

		for i := 0; i < 3; i++ {
			if err := st.SubmitTransaction(database.NewTransfer("Alice", "Bob", float64(i+1))); err != nil {
				t.Fatalf("\t%s\tShould be able to submit a transaction: %v", failed, err)
			}
			if _, err := st.MineNewBlock(context.Background()); err != nil {
				t.Fatalf("\t%s\tShould be able to mine a block: %v", failed, err)
			}
		}
		t.Logf("\t%s\tShould be able to mine 3 blocks.", success)

		blocks := st.BlocksByNumber(1, 2)
		if len(blocks) != 2 || blocks[0].Header.Number != 1 || blocks[1].Header.Number != 2 {
			t.Fatalf("\t%s\tShould return blocks 1 and 2: got %d blocks", failed, len(blocks))
		}
		t.Logf("\t%s\tShould return blocks 1 and 2.", success)

		latest := st.BlocksByNumber(state.QueryLatest, state.QueryLatest)
		if len(latest) != 1 || latest[0].Header.Number != 3 {
			t.Fatalf("\t%s\tShould resolve the latest block query.", failed)
		}
		t.Logf("\t%s\tShould resolve the latest block query.", success)
	}
}

func Test_ProcessSubmittedBlock(t *testing.T) {
	t.Log("Given the need to accept blocks mined elsewhere.")
	{
		// Two ledgers sharing the same genesis parameters.
		miner := newState(t, nil)
		defer miner.Shutdown()

		follower := newState(t, nil)
		defer follower.Shutdown()

		if err := miner.SubmitTransaction(database.NewTransfer("Alice", "Bob", 100)); err != nil {
			t.Fatalf("\t%s\tShould be able to submit a transaction: %v", failed, err)
		}

		block, err := miner.MineNewBlock(context.Background())
		if err != nil {
			t.Fatalf("\t%s\tShould be able to mine a block: %v", failed, err)
		}
		t.Logf("\t%s\tShould be able to mine a block.", success)

		if err := follower.ProcessSubmittedBlock(block); err != nil {
			t.Fatalf("\t%s\tShould accept the mined block: %v", failed, err)
		}
		t.Logf("\t%s\tShould accept the mined block.", success)

		if follower.Height() != 2 {
			t.Fatalf("\t%s\tShould grow the follower's chain: got %d", failed, follower.Height())
		}
		t.Logf("\t%s\tShould grow the follower's chain.", success)

		tampered := block
		tampered.Header.Nonce++
		if err := follower.ProcessSubmittedBlock(tampered); err == nil {
			t.Fatalf("\t%s\tShould reject a tampered block.", failed)
		}
		t.Logf("\t%s\tShould reject a tampered block.", success)
	}
}
