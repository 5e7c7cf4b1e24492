package handlers_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/charityblock/ledger/app/services/node/handlers"
	"github.com/charityblock/ledger/foundation/blockchain/database/storage/memory"
	"github.com/charityblock/ledger/foundation/blockchain/genesis"
	"github.com/charityblock/ledger/foundation/blockchain/state"
	"github.com/charityblock/ledger/foundation/events"
	"go.uber.org/zap"
)

// Success and failure markers.
const (
	success = "✓"
	failed  = "✗"
)

type api struct {
	t   *testing.T
	mux http.Handler
}

func (a api) do(method string, path string, key string, body any, out any) int {
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			a.t.Fatalf("\t%s\tShould be able to encode the body: %s", failed, err)
		}
	}

	r := httptest.NewRequest(method, path, &buf)
	if key != "" {
		r.Header.Set("Authorization", "Bearer "+key)
	}
	w := httptest.NewRecorder()
	a.mux.ServeHTTP(w, r)

	if out != nil && w.Code < http.StatusBadRequest {
		if err := json.NewDecoder(w.Body).Decode(out); err != nil {
			a.t.Fatalf("\t%s\tShould be able to decode the response: %s", failed, err)
		}
	}

	return w.Code
}

func newMuxes(t *testing.T) (api, api) {
	st, err := state.New(state.Config{
		Host:    "localhost:9080",
		Genesis: genesis.Default(),
		Storage: memory.New(),
	})
	if err != nil {
		t.Fatalf("\t%s\tShould be able to construct the state: %s", failed, err)
	}

	cfg := handlers.MuxConfig{
		Shutdown: make(chan os.Signal, 1),
		Log:      zap.NewNop().Sugar(),
		State:    st,
		Evts:     events.New("viewer:"),
	}

	return api{t, handlers.PublicMux(cfg)}, api{t, handlers.PrivateMux(cfg)}
}

// =============================================================================

func Test_PublicRoutes(t *testing.T) {
	pub, prv := newMuxes(t)

	t.Log("Given the need to drive the ledger over http.")
	{
		var wlt struct {
			Name       string `json:"name"`
			Address    string `json:"address"`
			PrivateKey string `json:"private_key"`
		}

		t.Logf("\tTest 0:\tWhen creating and funding a wallet.")
		{
			if code := pub.do(http.MethodPost, "/v1/wallet", "", map[string]string{"name": "bill"}, &wlt); code != http.StatusCreated {
				t.Fatalf("\t%s\tTest 0:\tShould create the wallet, got %d.", failed, code)
			}
			if wlt.PrivateKey == "" || wlt.Name != "bill" {
				t.Fatalf("\t%s\tTest 0:\tShould return the new key, got %+v.", failed, wlt)
			}
			t.Logf("\t%s\tTest 0:\tShould create the wallet.", success)

			if code := pub.do(http.MethodPost, "/v1/wallet/add", wlt.PrivateKey, map[string]uint64{"amount": 100}, nil); code == http.StatusOK {
				t.Fatalf("\t%s\tTest 0:\tShould not mint through the public api.", failed)
			}
			t.Logf("\t%s\tTest 0:\tShould not mint through the public api.", success)

			if code := prv.do(http.MethodPost, "/v1/node/mint", wlt.PrivateKey, map[string]uint64{"amount": 100}, nil); code != http.StatusOK {
				t.Fatalf("\t%s\tTest 0:\tShould mint through the private api, got %d.", failed, code)
			}

			var bal state.Balance
			if code := pub.do(http.MethodGet, "/v1/wallet", wlt.PrivateKey, nil, &bal); code != http.StatusOK || bal.Available != 100 {
				t.Fatalf("\t%s\tTest 0:\tShould see a balance of 100, got %d %+v.", failed, code, bal)
			}
			t.Logf("\t%s\tTest 0:\tShould see a balance of 100.", success)
		}

		t.Logf("\tTest 1:\tWhen a request is rejected.")
		{
			table := []struct {
				name   string
				method string
				path   string
				key    string
				body   any
				status int
			}{
				{"no key", http.MethodGet, "/v1/wallet", "", nil, http.StatusUnauthorized},
				{"unknown key", http.MethodGet, "/v1/wallet", "0xfae85851bdf5c9f49923722ce38f3c1defcfd3619ef5453230a58ad805499959", nil, http.StatusUnauthorized},
				{"zero amount", http.MethodPost, "/v1/transaction", wlt.PrivateKey, map[string]any{"to": "0x01", "amount": 0}, http.StatusBadRequest},
				{"overspend", http.MethodPost, "/v1/transaction", wlt.PrivateKey, map[string]any{"to": "0x01", "amount": 500}, http.StatusUnprocessableEntity},
				{"unknown event", http.MethodGet, "/v1/event/detail/0x01", "", nil, http.StatusNotFound},
				{"bad block", http.MethodGet, "/v1/blocks/abc", "", nil, http.StatusBadRequest},
				{"missing block", http.MethodGet, "/v1/blocks/99", "", nil, http.StatusNotFound},
			}

			for _, tt := range table {
				f := func(t *testing.T) {
					if code := pub.do(tt.method, tt.path, tt.key, tt.body, nil); code != tt.status {
						t.Fatalf("\t%s\tTest 1:\tShould get %d, got %d.", failed, tt.status, code)
					}
					t.Logf("\t%s\tTest 1:\tShould get %d.", success, tt.status)
				}
				t.Run(tt.name, f)
			}
		}

		t.Logf("\tTest 2:\tWhen donating to an event that is not accepted yet.")
		{
			var bob struct {
				PrivateKey string `json:"private_key"`
			}
			pub.do(http.MethodPost, "/v1/wallet", "", map[string]string{"name": "bob"}, &bob)

			var created struct {
				Event struct {
					Address string `json:"address"`
				} `json:"event"`
			}
			if code := pub.do(http.MethodPost, "/v1/event", wlt.PrivateKey, map[string]string{"name": "flood relief"}, &created); code != http.StatusCreated {
				t.Fatalf("\t%s\tTest 2:\tShould create the event, got %d.", failed, code)
			}

			body := map[string]any{"to": created.Event.Address, "amount": 10}
			if code := pub.do(http.MethodPost, "/v1/transaction", wlt.PrivateKey, body, nil); code != http.StatusConflict {
				t.Fatalf("\t%s\tTest 2:\tShould reject the donation, got %d.", failed, code)
			}
			t.Logf("\t%s\tTest 2:\tShould reject the donation.", success)

			accept := map[string]string{"address": created.Event.Address}
			if code := pub.do(http.MethodPost, "/v1/event/accept", bob.PrivateKey, accept, nil); code != http.StatusOK {
				t.Fatalf("\t%s\tTest 2:\tShould accept the event, got %d.", failed, code)
			}
			if code := pub.do(http.MethodPost, "/v1/transaction", wlt.PrivateKey, body, nil); code != http.StatusOK {
				t.Fatalf("\t%s\tTest 2:\tShould take the donation once accepted, got %d.", failed, code)
			}
			t.Logf("\t%s\tTest 2:\tShould take the donation once accepted.", success)
		}
	}
}

func Test_PrivateRoutes(t *testing.T) {
	pub, prv := newMuxes(t)

	t.Log("Given the need to serve peers and the operator.")
	{
		t.Logf("\tTest 0:\tWhen a peer asks for the status.")
		{
			pub.do(http.MethodPost, "/v1/wallet", "", map[string]string{"name": "bill"}, nil)

			var status struct {
				LatestBlockNumber uint64 `json:"latest_block_number"`
			}
			if code := prv.do(http.MethodGet, "/v1/node/status", "", nil, &status); code != http.StatusOK {
				t.Fatalf("\t%s\tTest 0:\tShould get the status, got %d.", failed, code)
			}
			t.Logf("\t%s\tTest 0:\tShould get the status.", success)

			var accts []map[string]any
			if code := prv.do(http.MethodGet, "/v1/node/accounts/list", "", nil, &accts); code != http.StatusOK || len(accts) != 1 {
				t.Fatalf("\t%s\tTest 0:\tShould list one account, got %d %d.", failed, code, len(accts))
			}
			t.Logf("\t%s\tTest 0:\tShould list one account.", success)
		}

		t.Logf("\tTest 1:\tWhen a peer registers itself.")
		{
			if code := prv.do(http.MethodPost, "/v1/node/peers", "", map[string]string{"host": "localhost:9180"}, nil); code != http.StatusNoContent {
				t.Fatalf("\t%s\tTest 1:\tShould add the peer, got %d.", failed, code)
			}

			var peers []map[string]any
			prv.do(http.MethodGet, "/v1/node/peers", "", nil, &peers)
			if len(peers) != 1 {
				t.Fatalf("\t%s\tTest 1:\tShould list the peer, got %d.", failed, len(peers))
			}
			t.Logf("\t%s\tTest 1:\tShould add the peer.", success)
		}

		t.Logf("\tTest 2:\tWhen minting.")
		{
			if code := prv.do(http.MethodPost, "/v1/node/mint", "", map[string]uint64{"amount": 10}, nil); code != http.StatusUnauthorized {
				t.Fatalf("\t%s\tTest 2:\tShould require a key, got %d.", failed, code)
			}
			t.Logf("\t%s\tTest 2:\tShould require a key.", success)

			var jill struct {
				PrivateKey string `json:"private_key"`
			}
			pub.do(http.MethodPost, "/v1/wallet", "", map[string]string{"name": "jill"}, &jill)

			if code := prv.do(http.MethodPost, "/v1/node/mint", jill.PrivateKey, map[string]uint64{"amount": 0}, nil); code != http.StatusBadRequest {
				t.Fatalf("\t%s\tTest 2:\tShould reject a zero amount, got %d.", failed, code)
			}
			t.Logf("\t%s\tTest 2:\tShould reject a zero amount.", success)

			var block struct {
				Hash  string `json:"hash"`
				Trans []struct {
					ID string `json:"id"`
				} `json:"trans"`
			}
			if code := prv.do(http.MethodPost, "/v1/node/mint", jill.PrivateKey, map[string]uint64{"amount": 25}, &block); code != http.StatusOK || len(block.Trans) != 1 {
				t.Fatalf("\t%s\tTest 2:\tShould commit the mint, got %d %+v.", failed, code, block)
			}
			t.Logf("\t%s\tTest 2:\tShould commit the mint.", success)

			var p struct {
				Verified bool `json:"verified"`
			}
			if code := pub.do(http.MethodGet, "/v1/blocks/1/proof/"+block.Trans[0].ID, "", nil, &p); code != http.StatusOK || !p.Verified {
				t.Fatalf("\t%s\tTest 2:\tShould prove the mint is in the block, got %d %+v.", failed, code, p)
			}
			t.Logf("\t%s\tTest 2:\tShould prove the mint is in the block.", success)
		}

		t.Logf("\tTest 3:\tWhen a peer sends a malformed message.")
		{
			if code := prv.do(http.MethodPost, "/v1/node/sync", "", map[string]string{"kind": "gossip"}, nil); code != http.StatusBadRequest {
				t.Fatalf("\t%s\tTest 3:\tShould reject the message, got %d.", failed, code)
			}
			t.Logf("\t%s\tTest 3:\tShould reject the message.", success)
		}
	}
}
