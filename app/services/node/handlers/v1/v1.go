// Package v1 contains the full set of handler functions and routes
// supported by the v1 web api.
package v1

import (
	"net/http"

	"github.com/charityblock/ledger/app/services/node/handlers/v1/private"
	"github.com/charityblock/ledger/app/services/node/handlers/v1/public"
	"github.com/charityblock/ledger/foundation/blockchain/state"
	"github.com/charityblock/ledger/foundation/events"
	"github.com/charityblock/ledger/foundation/web"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const version = "v1"

// Config contains all the mandatory systems required by handlers.
type Config struct {
	Log   *zap.SugaredLogger
	State *state.State
	Evts  *events.Events
}

// PublicRoutes binds all the version 1 public routes.
func PublicRoutes(app *web.App, cfg Config) {
	pbl := public.Handlers{
		Log:   cfg.Log,
		State: cfg.State,
		WS:    websocket.Upgrader{},
		Evts:  cfg.Evts,
	}

	app.Handle(http.MethodGet, version, "/events", pbl.Feed)
	app.Handle(http.MethodGet, version, "/genesis", pbl.Genesis)
	app.Handle(http.MethodGet, version, "/blocks", pbl.Blocks)
	app.Handle(http.MethodGet, version, "/blocks/:index", pbl.BlockByNumber)
	app.Handle(http.MethodGet, version, "/blocks/:index/proof/:id", pbl.TransProof)
	app.Handle(http.MethodGet, version, "/pool", pbl.Pool)
	app.Handle(http.MethodGet, version, "/users", pbl.Users)
	app.Handle(http.MethodGet, version, "/history", pbl.History)

	app.Handle(http.MethodPost, version, "/wallet", pbl.CreateWallet)
	app.Handle(http.MethodPost, version, "/wallet/access", pbl.AccessWallet)
	app.Handle(http.MethodGet, version, "/wallet", pbl.Balance)

	app.Handle(http.MethodPost, version, "/transaction", pbl.Transfer)
	app.Handle(http.MethodGet, version, "/transaction", pbl.History)
	app.Handle(http.MethodGet, version, "/transaction/mine", pbl.MyTransactions)
	app.Handle(http.MethodGet, version, "/transaction/id/:id", pbl.TransactionByID)

	app.Handle(http.MethodPost, version, "/event", pbl.CreateEvent)
	app.Handle(http.MethodGet, version, "/event", pbl.Events)
	app.Handle(http.MethodGet, version, "/event/mine", pbl.MyEvents)
	app.Handle(http.MethodPost, version, "/event/accept", pbl.AcceptEvent)
	app.Handle(http.MethodPost, version, "/event/checkaccept", pbl.CheckAccept)
	app.Handle(http.MethodGet, version, "/event/detail/:address", pbl.EventDetail)
	app.Handle(http.MethodGet, version, "/event/donate/:address", pbl.EventDonations)
	app.Handle(http.MethodGet, version, "/event/disbursement/:address", pbl.EventDisbursements)
	app.Handle(http.MethodPost, version, "/event/disbursement", pbl.Disburse)
	app.Handle(http.MethodPost, version, "/event/end", pbl.EndEvent)
	app.Handle(http.MethodGet, version, "/donations", pbl.Donations)
}

// PrivateRoutes binds all the version 1 private routes.
func PrivateRoutes(app *web.App, cfg Config) {
	prv := private.Handlers{
		Log:   cfg.Log,
		State: cfg.State,
	}

	app.Handle(http.MethodGet, version, "/node/status", prv.Status)
	app.Handle(http.MethodGet, version, "/node/block/list", prv.Blocks)
	app.Handle(http.MethodGet, version, "/node/tx/list", prv.Pool)
	app.Handle(http.MethodGet, version, "/node/accounts/list", prv.Accounts)
	app.Handle(http.MethodGet, version, "/node/event/list", prv.Events)
	app.Handle(http.MethodPost, version, "/node/sync", prv.Sync)
	app.Handle(http.MethodPost, version, "/node/mint", prv.Mint)
	app.Handle(http.MethodGet, version, "/node/peers", prv.Peers)
	app.Handle(http.MethodPost, version, "/node/peers", prv.AddPeer)
}
