// Package public maintains the group of handlers for public access.
package public

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/charityblock/ledger/business/sys/validate"
	"github.com/charityblock/ledger/business/web/errs"
	"github.com/charityblock/ledger/foundation/blockchain/database"
	"github.com/charityblock/ledger/foundation/blockchain/state"
	"github.com/charityblock/ledger/foundation/events"
	"github.com/charityblock/ledger/foundation/web"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

// Handlers manages the set of ledger endpoints.
type Handlers struct {
	Log   *zap.SugaredLogger
	State *state.State
	WS    websocket.Upgrader
	Evts  *events.Events
}

// Feed handles a web socket to provide events to a client.
func (h Handlers) Feed(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
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
				return nil
			}

		case <-ticker.C:
			if err := c.WriteMessage(websocket.PingMessage, []byte("ping")); err != nil {
				return nil
			}
		}
	}
}

// Genesis returns the genesis information.
func (h Handlers) Genesis(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	return web.Respond(ctx, w, h.State.RetrieveGenesis(), http.StatusOK)
}

// Blocks returns the full chain.
func (h Handlers) Blocks(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	return web.Respond(ctx, w, h.State.QueryBlocks(), http.StatusOK)
}

// BlockByNumber returns the block at the index.
func (h Handlers) BlockByNumber(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	num, err := strconv.ParseUint(web.Param(r, "index"), 10, 64)
	if err != nil {
		return errs.NewTrusted(err, http.StatusBadRequest)
	}

	block, err := h.State.QueryBlockByNumber(num)
	if err != nil {
		return errs.FromLedger(err)
	}

	return web.Respond(ctx, w, block, http.StatusOK)
}

// TransProof returns the merkle proof a transaction is part of a block.
func (h Handlers) TransProof(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	num, err := strconv.ParseUint(web.Param(r, "index"), 10, 64)
	if err != nil {
		return errs.NewTrusted(err, http.StatusBadRequest)
	}

	block, err := h.State.QueryBlockByNumber(num)
	if err != nil {
		return errs.FromLedger(err)
	}

	txID := web.Param(r, "id")
	hashes, order, err := h.State.QueryTransProof(num, txID)
	if err != nil {
		return errs.NewTrusted(err, http.StatusNotFound)
	}

	verified, err := database.VerifyTransProof(block, txID, hashes, order)
	if err != nil {
		return errs.NewTrusted(err, http.StatusNotFound)
	}

	p := proof{
		Block:    num,
		TxID:     txID,
		Root:     block.Header.TransRoot,
		Proof:    hashes,
		Order:    order,
		Verified: verified,
	}

	return web.Respond(ctx, w, p, http.StatusOK)
}

// Pool returns the set of pending transactions.
func (h Handlers) Pool(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	return web.Respond(ctx, w, h.State.QueryPool(), http.StatusOK)
}

// Users returns the registered accounts.
func (h Handlers) Users(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	return web.Respond(ctx, w, h.State.QueryAccounts(), http.StatusOK)
}

// History returns every committed and pending transaction.
func (h Handlers) History(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	return web.Respond(ctx, w, h.State.QueryHistory(), http.StatusOK)
}

// =============================================================================

// CreateWallet generates a new wallet. The private key is only ever returned
// by this call.
func (h Handlers) CreateWallet(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	var nw newWallet
	if err := decode(r, &nw); err != nil {
		return err
	}

	wlt, acct, err := h.State.CreateWallet(nw.Name)
	if err != nil {
		return errs.FromLedger(err)
	}

	resp := wallet{
		Name:       acct.Name,
		Address:    acct.Address,
		PrivateKey: wlt.KeyPair().PrivateKey,
	}

	return web.Respond(ctx, w, resp, http.StatusCreated)
}

// AccessWallet resolves the wallet behind the authorization key.
func (h Handlers) AccessWallet(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	pk, err := privateKey(r)
	if err != nil {
		return err
	}

	_, acct, err := h.State.AccessWallet(pk)
	if err != nil {
		return errs.FromLedger(err)
	}

	return web.Respond(ctx, w, wallet{Name: acct.Name, Address: acct.Address}, http.StatusOK)
}

// Balance returns the balance of the caller's wallet.
func (h Handlers) Balance(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	pk, err := privateKey(r)
	if err != nil {
		return err
	}

	bal, err := h.State.QueryBalance(pk)
	if err != nil {
		return errs.FromLedger(err)
	}

	return web.Respond(ctx, w, bal, http.StatusOK)
}

// Transfer sends funds from the caller's wallet. Sending to an event address
// is a donation.
func (h Handlers) Transfer(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	v, err := web.GetValues(ctx)
	if err != nil {
		return web.NewShutdownError("web value missing from context")
	}

	pk, err := privateKey(r)
	if err != nil {
		return err
	}

	var tr transfer
	if err := decode(r, &tr); err != nil {
		return err
	}

	tx, err := h.State.Transfer(pk, tr.To, tr.Amount, tr.Reason)
	if err != nil {
		return errs.FromLedger(err)
	}

	h.Log.Infow("transfer", "traceid", v.TraceID, "tx", tx, "to", tr.To, "amount", tr.Amount)

	return web.Respond(ctx, w, txStatus{Status: "transaction added to pool", Tx: tx}, http.StatusOK)
}

// MyTransactions returns the transactions the caller sent or received.
func (h Handlers) MyTransactions(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	pk, err := privateKey(r)
	if err != nil {
		return err
	}

	wlt, _, err := h.State.AccessWallet(pk)
	if err != nil {
		return errs.FromLedger(err)
	}

	return web.Respond(ctx, w, h.State.QueryHistoryByAddress(wlt.Address()), http.StatusOK)
}

// TransactionByID returns the transaction with the id.
func (h Handlers) TransactionByID(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	rec, err := h.State.QueryTransaction(web.Param(r, "id"))
	if err != nil {
		return errs.FromLedger(err)
	}

	return web.Respond(ctx, w, rec, http.StatusOK)
}

// =============================================================================

// CreateEvent opens a new event for the caller. The event's private key is
// only ever returned by this call.
func (h Handlers) CreateEvent(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	pk, err := privateKey(r)
	if err != nil {
		return err
	}

	var ne newEvent
	if err := decode(r, &ne); err != nil {
		return err
	}

	e, eventKey, err := h.State.CreateEvent(pk, state.NewEvent{
		Name:        ne.Name,
		Description: ne.Description,
		StartDate:   ne.StartDate,
		EndDate:     ne.EndDate,
	})
	if err != nil {
		return errs.FromLedger(err)
	}

	return web.Respond(ctx, w, createdEvent{Event: e, PrivateKey: eventKey}, http.StatusCreated)
}

// Events returns every event.
func (h Handlers) Events(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	return web.Respond(ctx, w, h.State.QueryEvents(), http.StatusOK)
}

// MyEvents returns the events the caller created.
func (h Handlers) MyEvents(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	pk, err := privateKey(r)
	if err != nil {
		return err
	}

	events, err := h.State.QueryEventsByCreator(pk)
	if err != nil {
		return errs.FromLedger(err)
	}

	return web.Respond(ctx, w, events, http.StatusOK)
}

// AcceptEvent records the caller's acceptance of an event.
func (h Handlers) AcceptEvent(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	pk, err := privateKey(r)
	if err != nil {
		return err
	}

	var ea eventAddress
	if err := decode(r, &ea); err != nil {
		return err
	}

	e, err := h.State.AcceptEvent(pk, ea.Address)
	if err != nil {
		return errs.FromLedger(err)
	}

	return web.Respond(ctx, w, e, http.StatusOK)
}

// CheckAccept reports whether the caller accepted an event.
func (h Handlers) CheckAccept(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	pk, err := privateKey(r)
	if err != nil {
		return err
	}

	var ea eventAddress
	if err := decode(r, &ea); err != nil {
		return err
	}

	ok, err := h.State.CheckAccept(pk, ea.Address)
	if err != nil {
		return errs.FromLedger(err)
	}

	return web.Respond(ctx, w, accepted{Address: ea.Address, Accepted: ok}, http.StatusOK)
}

// EventDetail returns a single event.
func (h Handlers) EventDetail(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	e, err := h.State.QueryEvent(web.Param(r, "address"))
	if err != nil {
		return errs.FromLedger(err)
	}

	return web.Respond(ctx, w, e, http.StatusOK)
}

// EventDonations returns the donations made to an event.
func (h Handlers) EventDonations(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	donations, err := h.State.QueryDonations(web.Param(r, "address"))
	if err != nil {
		return errs.FromLedger(err)
	}

	return web.Respond(ctx, w, donations, http.StatusOK)
}

// EventDisbursements returns the disbursements paid out of an event.
func (h Handlers) EventDisbursements(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	records, err := h.State.QueryDisbursements(web.Param(r, "address"))
	if err != nil {
		return errs.FromLedger(err)
	}

	return web.Respond(ctx, w, records, http.StatusOK)
}

// Donations returns the donations made to every event.
func (h Handlers) Donations(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	return web.Respond(ctx, w, h.State.QueryAllDonations(), http.StatusOK)
}

// Disburse pays funds out of an event. The authorization key must be the
// event's own key.
func (h Handlers) Disburse(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	pk, err := privateKey(r)
	if err != nil {
		return err
	}

	var d disbursement
	if err := decode(r, &d); err != nil {
		return err
	}

	tx, err := h.State.Disburse(pk, d.Address, d.Amount, d.Reason)
	if err != nil {
		return errs.FromLedger(err)
	}

	return web.Respond(ctx, w, txStatus{Status: "disbursement added to pool", Tx: tx}, http.StatusOK)
}

// EndEvent ends an event. The authorization key must belong to the creator
// or be the event's own key.
func (h Handlers) EndEvent(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	pk, err := privateKey(r)
	if err != nil {
		return err
	}

	var ea eventAddress
	if err := decode(r, &ea); err != nil {
		return err
	}

	e, err := h.State.EndEvent(pk, ea.Address)
	if err != nil {
		return errs.FromLedger(err)
	}

	return web.Respond(ctx, w, e, http.StatusOK)
}

// =============================================================================

// privateKey returns the private key carried in the authorization header.
func privateKey(r *http.Request) (string, error) {
	auth := strings.TrimSpace(r.Header.Get("Authorization"))
	auth = strings.TrimSpace(strings.TrimPrefix(auth, "Bearer"))

	if auth == "" {
		return "", errs.NewTrusted(errors.New("authorization header with a private key is required"), http.StatusUnauthorized)
	}

	return auth, nil
}

// decode reads the request body into the model and validates it.
func decode(r *http.Request, val any) error {
	if err := web.Decode(r, val); err != nil {
		return errs.NewTrusted(fmt.Errorf("unable to decode payload: %w", err), http.StatusBadRequest)
	}

	return validate.Check(val)
}
