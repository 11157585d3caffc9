package state

import (
	"fmt"

	"github.com/blockforge/ledger/foundation/blockchain/database"
)

// SubmitTransaction validates the transaction and stages it for mining.
// An invalid transaction is rejected with the validation error and never
// staged. A duplicate submission returns mempool.ErrDuplicate. A crypto
// failure during validation propagates as is.
func (s *State) SubmitTransaction(tx database.Transaction) error {
	s.evHandler("state: SubmitTransaction: tx[%s]", tx.Hash())

	if err := s.mempool.Add(tx); err != nil {
		return fmt.Errorf("submitting transaction: %w", err)
	}

	if err := s.db.WritePending(s.mempool.Copy()); err != nil {
		s.evHandler("state: SubmitTransaction: WARNING: persisting pending: %s", err)
	}

	return nil
}

// UncommittedTransactions returns a defensive copy of the staged
// transactions in admission order. Callers cannot mutate shared state
// through the result.
func (s *State) UncommittedTransactions() []database.Transaction {
	return s.mempool.Copy()
}

// MempoolLength returns the current number of staged transactions.
func (s *State) MempoolLength() int {
	return s.mempool.Count()
}
