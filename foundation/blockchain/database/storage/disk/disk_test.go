package disk_test

import (
	"io/fs"
	"testing"

	"github.com/blockforge/ledger/foundation/blockchain/database"
	"github.com/blockforge/ledger/foundation/blockchain/database/storage/disk"
	"github.com/blockforge/ledger/foundation/blockchain/genesis"
	"github.com/stretchr/testify/require"
)

func testBlocks(t *testing.T) []database.BlockData {
	t.Helper()

	genesisBlock, err := genesis.NewFactory().CreateGenesisBlock()
	require.NoError(t, err)

	next := database.Block{
		Header: database.BlockHeader{
			Number:        1,
			PrevBlockHash: genesisBlock.BlockHash,
			TimeStamp:     1,
		},
		Transactions: []database.Transaction{database.NewTransfer("alice", "bob", 10)},
	}
	next.BlockHash = next.Hash()

	bd0, err := database.NewBlockData(genesisBlock)
	require.NoError(t, err)
	bd1, err := database.NewBlockData(next)
	require.NoError(t, err)

	return []database.BlockData{bd0, bd1}
}

func Test_WriteGetBlock(t *testing.T) {
	d, err := disk.New(t.TempDir())
	require.NoError(t, err)
	defer d.Close()

	blocks := testBlocks(t)
	for _, bd := range blocks {
		require.NoError(t, d.Write(bd))
	}

	for _, exp := range blocks {
		got, err := d.GetBlock(exp.Header.Number)
		require.NoError(t, err)
		require.Equal(t, exp.Hash, got.Hash)
		require.Equal(t, exp.Header, got.Header)
	}

	_, err = d.GetBlock(99)
	require.ErrorIs(t, err, fs.ErrNotExist)
}

func Test_ForEachOrder(t *testing.T) {
	d, err := disk.New(t.TempDir())
	require.NoError(t, err)
	defer d.Close()

	blocks := testBlocks(t)
	for _, bd := range blocks {
		require.NoError(t, d.Write(bd))
	}

	var numbers []uint64
	iter := d.ForEach()
	for bd, err := iter.Next(); !iter.Done(); bd, err = iter.Next() {
		require.NoError(t, err)
		numbers = append(numbers, bd.Header.Number)
	}

	require.Equal(t, []uint64{0, 1}, numbers)
}

func Test_Pending(t *testing.T) {
	d, err := disk.New(t.TempDir())
	require.NoError(t, err)
	defer d.Close()

	// Nothing stored yet reads back as no pending work.
	got, err := d.ReadPending()
	require.NoError(t, err)
	require.Empty(t, got)

	txds, err := database.NewTxDatas([]database.Transaction{
		database.NewTransfer("alice", "bob", 10),
		database.NewTransfer("bob", "charlie", 20),
	})
	require.NoError(t, err)

	require.NoError(t, d.WritePending(txds))

	got, err = d.ReadPending()
	require.NoError(t, err)
	require.Len(t, got, 2)

	trans, err := database.ToTransactions(got)
	require.NoError(t, err)
	require.Equal(t, "alice", trans[0].Sender())
}

func Test_Reset(t *testing.T) {
	d, err := disk.New(t.TempDir())
	require.NoError(t, err)
	defer d.Close()

	for _, bd := range testBlocks(t) {
		require.NoError(t, d.Write(bd))
	}

	require.NoError(t, d.Reset())

	_, err = d.GetBlock(0)
	require.ErrorIs(t, err, fs.ErrNotExist)
}
