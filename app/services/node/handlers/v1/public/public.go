// Package public maintains the group of handlers for public access.
package public

import (
	"context"
	"errors"
	"net/http"
	"time"

	v1 "github.com/blockforge/ledger/business/web/v1"
	"github.com/blockforge/ledger/foundation/blockchain/database"
	"github.com/blockforge/ledger/foundation/blockchain/state"
	"github.com/blockforge/ledger/foundation/events"
	"github.com/blockforge/ledger/foundation/nameservice"
	"github.com/blockforge/ledger/foundation/web"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

// Handlers manages the set of public ledger endpoints.
type Handlers struct {
	Log   *zap.SugaredLogger
	State *state.State
	NS    *nameservice.NameService
	WS    websocket.Upgrader
	Evts  *events.Events
}

// Events handles a web socket to provide events to a client.
func (h Handlers) Events(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	v, err := web.GetValues(ctx)
	if err != nil {
		return web.NewShutdownError("web value missing from context")
	}

	h.WS.CheckOrigin = func(r *http.Request) bool { return true }

	c, err := h.WS.Upgrade(w, r, nil)
	if err != nil {
		return err
	}
	defer c.Close()

	ch := h.Evts.Acquire(v.TraceID)
	defer h.Evts.Release(v.TraceID)

	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()

	for {
		select {
		case msg, wd := <-ch:
			if !wd {
				return nil
			}

			if err := c.WriteMessage(websocket.TextMessage, []byte(msg)); err != nil {
				return err
			}

		case <-ticker.C:
			if err := c.WriteMessage(websocket.PingMessage, []byte("ping")); err != nil {
				return nil
			}
		}
	}
}

// SubmitWalletTransaction adds a new user transaction to the mempool.
func (h Handlers) SubmitWalletTransaction(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	v, err := web.GetValues(ctx)
	if err != nil {
		return web.NewShutdownError("web value missing from context")
	}

	var req submitTx
	if err := web.Decode(r, &req); err != nil {
		return err
	}

	tran := database.Transfer{
		FromID:    req.From,
		ToID:      req.To,
		Amount:    req.Amount,
		TimeStamp: req.TimeStamp,
	}
	if tran.TimeStamp == 0 {
		tran.TimeStamp = uint64(time.Now().Unix())
	}

	// A payload carrying a public key is a signed transaction and must
	// pass signature verification before it can enter the pool.
	var tx database.Transaction = tran
	if req.PublicKey != "" {
		tx = database.SignedTx{
			Transfer:  tran,
			PublicKey: req.PublicKey,
			V:         req.V,
			R:         req.R,
			S:         req.S,
		}
	}

	h.Log.Infow("add tran", "traceid", v.TraceID, "from", req.From, "to", req.To, "amount", req.Amount)
	if err := h.State.SubmitTransaction(tx); err != nil {
		return v1.NewRequestError(err, http.StatusBadRequest)
	}

	resp := struct {
		Status string `json:"status"`
	}{
		Status: "transaction added to mempool",
	}

	return web.Respond(ctx, w, resp, http.StatusOK)
}

// Genesis returns the genesis information.
func (h Handlers) Genesis(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	gen := h.State.Genesis()
	return web.Respond(ctx, w, gen, http.StatusOK)
}

// Mempool returns the set of uncommitted transactions, optionally
// filtered to those a given account participates in.
func (h Handlers) Mempool(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	acct := web.Param(r, "account")

	pool := h.State.UncommittedTransactions()

	trans := make([]tx, 0, len(pool))
	for _, tran := range pool {
		if acct != "" && acct != tran.Sender() && acct != tran.Receiver() {
			continue
		}

		trans = append(trans, toTxModel(tran, h.NS))
	}

	return web.Respond(ctx, w, trans, http.StatusOK)
}

// ValidateChain runs a full validation over the stored chain and reports
// the result.
func (h Handlers) ValidateChain(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	resp := struct {
		Valid  bool   `json:"valid"`
		Height int    `json:"height"`
		Error  string `json:"error,omitempty"`
	}{
		Valid:  true,
		Height: h.State.Height(),
	}

	if err := h.State.Validate(); err != nil {
		resp.Valid = false
		resp.Error = err.Error()
	}

	return web.Respond(ctx, w, resp, http.StatusOK)
}

// SignalMining signals the background worker to start a mining operation.
func (h Handlers) SignalMining(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	if h.State.Worker == nil {
		return v1.NewRequestError(errors.New("no mining worker registered"), http.StatusServiceUnavailable)
	}
	h.State.Worker.SignalStartMining()

	resp := struct {
		Status string `json:"status"`
	}{
		Status: "mining signalled",
	}

	return web.Respond(ctx, w, resp, http.StatusOK)
}

// Accounts returns the known accounts and their friendly names.
func (h Handlers) Accounts(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	type account struct {
		Account string `json:"account"`
		Name    string `json:"name"`
	}

	known := h.NS.Copy()
	accounts := make([]account, 0, len(known))
	for addr, name := range known {
		accounts = append(accounts, account{Account: addr, Name: name})
	}

	return web.Respond(ctx, w, accounts, http.StatusOK)
}

// BlocksByAccount returns the blocks and their details, optionally
// filtered to blocks carrying a transaction for the given account.
func (h Handlers) BlocksByAccount(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	acct := web.Param(r, "account")

	chain := h.State.Chain()

	blocks := make([]block, 0, len(chain))
	for _, blk := range chain {
		if acct != "" && !participates(blk, acct) {
			continue
		}

		trans := make([]tx, len(blk.Transactions))
		for i, tran := range blk.Transactions {
			trans[i] = toTxModel(tran, h.NS)
		}

		blocks = append(blocks, block{
			Number:        blk.Header.Number,
			PrevBlockHash: blk.Header.PrevBlockHash,
			TimeStamp:     blk.Header.TimeStamp,
			Nonce:         blk.Header.Nonce,
			TransRoot:     blk.Header.TransRoot,
			BlockHash:     blk.BlockHash,
			Transactions:  trans,
		})
	}

	if len(blocks) == 0 {
		return web.Respond(ctx, w, nil, http.StatusNoContent)
	}

	return web.Respond(ctx, w, blocks, http.StatusOK)
}

// =============================================================================

func toTxModel(tran database.Transaction, ns *nameservice.NameService) tx {
	m := tx{
		Kind:    tran.Kind(),
		From:    tran.Sender(),
		To:      tran.Receiver(),
		Hash:    tran.Hash(),
		Summary: tran.Summary(),
	}

	if ns != nil {
		m.FromName = ns.Lookup(m.From)
		m.ToName = ns.Lookup(m.To)
	}

	switch t := tran.(type) {
	case database.Transfer:
		m.Amount = t.Amount
		m.TimeStamp = t.TimeStamp
	case database.SignedTx:
		m.Amount = t.Amount
		m.TimeStamp = t.TimeStamp
	}

	return m
}

func participates(blk database.Block, acct string) bool {
	for _, tran := range blk.Transactions {
		if tran.Sender() == acct || tran.Receiver() == acct {
			return true
		}
	}
	return false
}
