// Package private maintains the group of handlers for node to node access.
package private

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/charityblock/ledger/business/sys/validate"
	"github.com/charityblock/ledger/business/web/errs"
	"github.com/charityblock/ledger/foundation/blockchain/message"
	"github.com/charityblock/ledger/foundation/blockchain/peer"
	"github.com/charityblock/ledger/foundation/blockchain/state"
	"github.com/charityblock/ledger/foundation/web"
	"go.uber.org/zap"
)

// Handlers manages the set of node endpoints.
type Handlers struct {
	Log   *zap.SugaredLogger
	State *state.State
}

// Sync applies a change announced by a peer.
func (h Handlers) Sync(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	v, err := web.GetValues(ctx)
	if err != nil {
		return web.NewShutdownError("web value missing from context")
	}

	var msg message.Message
	if err := web.Decode(r, &msg); err != nil {
		return errs.NewTrusted(fmt.Errorf("unable to decode payload: %w", err), http.StatusBadRequest)
	}

	h.Log.Infow("sync", "traceid", v.TraceID, "kind", msg.Kind, "from", msg.From)

	if err := msg.Validate(); err != nil {
		return errs.NewTrusted(err, http.StatusBadRequest)
	}

	if err := h.State.ProcessMessage(msg); err != nil {
		return errs.FromLedger(err)
	}

	return web.Respond(ctx, w, nil, http.StatusNoContent)
}

// Mint adds money to the wallet behind the authorization key. Value is only
// created through the private api, which is reachable by the node operator
// and the peers, never by the public.
func (h Handlers) Mint(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	v, err := web.GetValues(ctx)
	if err != nil {
		return web.NewShutdownError("web value missing from context")
	}

	pk := strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(r.Header.Get("Authorization")), "Bearer"))
	if pk == "" {
		return errs.NewTrusted(errors.New("authorization header with a private key is required"), http.StatusUnauthorized)
	}

	var m struct {
		Amount uint64 `json:"amount" validate:"gt=0"`
	}
	if err := web.Decode(r, &m); err != nil {
		return errs.NewTrusted(fmt.Errorf("unable to decode payload: %w", err), http.StatusBadRequest)
	}
	if err := validate.Check(m); err != nil {
		return err
	}

	block, err := h.State.Mint(pk, m.Amount)
	if err != nil {
		return errs.FromLedger(err)
	}

	h.Log.Infow("mint", "traceid", v.TraceID, "amount", m.Amount, "blk", block.Header.Number)

	return web.Respond(ctx, w, block, http.StatusOK)
}

// Status returns the current status of the node.
func (h Handlers) Status(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	return web.Respond(ctx, w, h.State.RetrieveStatus(), http.StatusOK)
}

// Blocks returns the full chain for a peer to adopt.
func (h Handlers) Blocks(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	return web.Respond(ctx, w, h.State.QueryBlocks(), http.StatusOK)
}

// Pool returns the set of pending transactions.
func (h Handlers) Pool(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	return web.Respond(ctx, w, h.State.QueryPool(), http.StatusOK)
}

// Accounts returns the registered accounts.
func (h Handlers) Accounts(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	return web.Respond(ctx, w, h.State.QueryAccounts(), http.StatusOK)
}

// Events returns the events as stored.
func (h Handlers) Events(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	return web.Respond(ctx, w, h.State.QueryEventList(), http.StatusOK)
}

// Peers returns the known peers.
func (h Handlers) Peers(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	return web.Respond(ctx, w, h.State.RetrieveKnownPeers(), http.StatusOK)
}

// AddPeer adds a peer to the known peer list.
func (h Handlers) AddPeer(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	v, err := web.GetValues(ctx)
	if err != nil {
		return web.NewShutdownError("web value missing from context")
	}

	var pr peer.Peer
	if err := web.Decode(r, &pr); err != nil {
		return errs.NewTrusted(fmt.Errorf("unable to decode payload: %w", err), http.StatusBadRequest)
	}

	if pr.Host == "" {
		return errs.NewTrusted(errors.New("host is required"), http.StatusBadRequest)
	}

	if !h.State.AddKnownPeer(pr) {
		h.Log.Infow("adding peer", "traceid", v.TraceID, "host", pr.Host, "WARNING", "already exists")
	}

	return web.Respond(ctx, w, nil, http.StatusNoContent)
}
