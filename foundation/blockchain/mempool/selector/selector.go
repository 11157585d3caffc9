// Package selector provides the different transaction selecting
// algorithms the mempool can be configured with.
package selector

import (
	"fmt"
	"sort"

	"github.com/blockforge/ledger/foundation/blockchain/database"
)

// List of the different select strategies.
const (
	StrategyFIFO = "fifo"
	StrategyHash = "hash"
)

// Map of the different select strategies with functions.
var strategies = map[string]Func{
	StrategyFIFO: fifoSelect,
	StrategyHash: hashSelect,
}

// Item is a staged transaction together with its admission sequence
// number, which preserves the order the pool first saw it.
type Item struct {
	Tx  database.Transaction
	Seq uint64
}

// Func defines a function that takes the staged items and selects howMany
// of them in an order based on the function's strategy. The result must be
// deterministic for a fixed snapshot. Receiving -1 for howMany must return
// all the transactions in the strategy's ordering.
type Func func(items []Item, howMany int) []database.Transaction

// Retrieve returns the specified select strategy function.
func Retrieve(strategy string) (Func, error) {
	fn, exists := strategies[strategy]
	if !exists {
		return nil, fmt.Errorf("strategy %q does not exist", strategy)
	}
	return fn, nil
}

// =============================================================================

// fifoSelect returns transactions in the order they were admitted to
// the pool.
var fifoSelect = func(items []Item, howMany int) []database.Transaction {
	sort.Slice(items, func(i, j int) bool {
		return items[i].Seq < items[j].Seq
	})

	return take(items, howMany)
}

// hashSelect returns transactions ordered by their content hash. The
// ordering carries no meaning beyond being stable for any snapshot.
var hashSelect = func(items []Item, howMany int) []database.Transaction {
	sort.Slice(items, func(i, j int) bool {
		return items[i].Tx.Hash() < items[j].Tx.Hash()
	})

	return take(items, howMany)
}

// take copies out the first howMany transactions.
func take(items []Item, howMany int) []database.Transaction {
	if howMany < 0 || howMany > len(items) {
		howMany = len(items)
	}

	trans := make([]database.Transaction, 0, howMany)
	for _, item := range items[:howMany] {
		trans = append(trans, item.Tx)
	}

	return trans
}
