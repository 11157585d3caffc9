// Package private maintains the group of handlers for node to node access.
package private

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	v1 "github.com/blockforge/ledger/business/web/v1"
	"github.com/blockforge/ledger/foundation/blockchain/database"
	"github.com/blockforge/ledger/foundation/blockchain/state"
	"github.com/blockforge/ledger/foundation/nameservice"
	"github.com/blockforge/ledger/foundation/web"
	"go.uber.org/zap"
)

// Handlers manages the set of node to node endpoints.
type Handlers struct {
	Log   *zap.SugaredLogger
	State *state.State
	NS    *nameservice.NameService
}

// SubmitNextBlock takes a block mined elsewhere, validates it and if that
// passes, appends the block to the local chain.
func (h Handlers) SubmitNextBlock(ctx context.Context, w http.ResponseWriter, r *http.Request) error {

	// Decode the JSON in the post call into a block data document.
	var blockData database.BlockData
	if err := web.Decode(r, &blockData); err != nil {
		return err
	}

	block, err := database.ToBlock(blockData)
	if err != nil {
		return v1.NewRequestError(err, http.StatusBadRequest)
	}

	if err := h.State.ProcessSubmittedBlock(block); err != nil {
		return v1.NewRequestError(errors.New("block not accepted"), http.StatusNotAcceptable)
	}

	resp := struct {
		Status string `json:"status"`
	}{
		Status: "accepted",
	}

	return web.Respond(ctx, w, resp, http.StatusOK)
}

// Status returns the current status of the node.
func (h Handlers) Status(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	latestBlock := h.State.LatestBlock()

	status := struct {
		LatestBlockHash   string `json:"latest_block_hash"`
		LatestBlockNumber uint64 `json:"latest_block_number"`
		Height            int    `json:"height"`
		Uncommitted       int    `json:"uncommitted"`
	}{
		LatestBlockHash:   latestBlock.BlockHash,
		LatestBlockNumber: latestBlock.Header.Number,
		Height:            h.State.Height(),
		Uncommitted:       h.State.MempoolLength(),
	}

	return web.Respond(ctx, w, status, http.StatusOK)
}

// BlocksByNumber returns all the blocks based on the specified to/from values.
func (h Handlers) BlocksByNumber(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	fromStr := web.Param(r, "from")
	if fromStr == "latest" || fromStr == "" {
		fromStr = strconv.FormatUint(state.QueryLatest, 10)
	}

	toStr := web.Param(r, "to")
	if toStr == "latest" || toStr == "" {
		toStr = strconv.FormatUint(state.QueryLatest, 10)
	}

	from, err := strconv.ParseUint(fromStr, 10, 64)
	if err != nil {
		return v1.NewRequestError(err, http.StatusBadRequest)
	}
	to, err := strconv.ParseUint(toStr, 10, 64)
	if err != nil {
		return v1.NewRequestError(err, http.StatusBadRequest)
	}

	if from > to {
		return v1.NewRequestError(errors.New("from greater than to"), http.StatusBadRequest)
	}

	blocks := h.State.BlocksByNumber(from, to)
	if len(blocks) == 0 {
		return web.Respond(ctx, w, nil, http.StatusNoContent)
	}

	blockData := make([]database.BlockData, len(blocks))
	for i, block := range blocks {
		bd, err := database.NewBlockData(block)
		if err != nil {
			return err
		}
		blockData[i] = bd
	}

	return web.Respond(ctx, w, blockData, http.StatusOK)
}
