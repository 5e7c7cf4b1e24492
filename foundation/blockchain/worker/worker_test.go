package worker_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/charityblock/ledger/foundation/blockchain/database/storage/memory"
	"github.com/charityblock/ledger/foundation/blockchain/genesis"
	"github.com/charityblock/ledger/foundation/blockchain/message"
	"github.com/charityblock/ledger/foundation/blockchain/peer"
	"github.com/charityblock/ledger/foundation/blockchain/state"
	"github.com/charityblock/ledger/foundation/blockchain/worker"
)

// Success and failure markers.
const (
	success = "✓"
	failed  = "✗"
)

func Test_Worker(t *testing.T) {
	t.Log("Given the need to run the background workflows.")
	{
		received := make(chan message.Message, 10)

		mux := http.NewServeMux()
		mux.HandleFunc("POST /v1/node/sync", func(w http.ResponseWriter, r *http.Request) {
			var msg message.Message
			if err := json.NewDecoder(r.Body).Decode(&msg); err != nil {
				w.WriteHeader(http.StatusBadRequest)
				return
			}
			received <- msg
			w.WriteHeader(http.StatusNoContent)
		})
		srv := httptest.NewServer(mux)
		defer srv.Close()

		peers := peer.NewPeerSet()
		peers.Add(peer.New(strings.TrimPrefix(srv.URL, "http://")))

		st, err := state.New(state.Config{
			Host:       "localhost:9080",
			Genesis:    genesis.Default(),
			Storage:    memory.New(),
			KnownPeers: peers,
		})
		if err != nil {
			t.Fatalf("\t%s\tShould be able to construct the state: %s", failed, err)
		}

		worker.Run(st, 50*time.Millisecond, nil)
		defer st.Shutdown()

		t.Logf("\tTest 0:\tWhen a wallet is created.")
		{
			alice, acct, err := st.CreateWallet("alice")
			if err != nil {
				t.Fatalf("\t%s\tTest 0:\tShould be able to create the wallet: %s", failed, err)
			}

			select {
			case msg := <-received:
				if msg.Kind != message.KindNewUser || msg.Account.Address != acct.Address || msg.From != "localhost:9080" {
					t.Fatalf("\t%s\tTest 0:\tShould share the new account, got %s.", failed, msg)
				}
			case <-time.After(5 * time.Second):
				t.Fatalf("\t%s\tTest 0:\tShould share the new account.", failed)
			}
			t.Logf("\t%s\tTest 0:\tShould share the new account.", success)

			t.Logf("\tTest 1:\tWhen a transfer sits below the commit threshold.")
			{
				if _, err := st.Mint(alice.KeyPair().PrivateKey, 100); err != nil {
					t.Fatalf("\t%s\tTest 1:\tShould be able to mint: %s", failed, err)
				}

				if _, err := st.Transfer(alice.KeyPair().PrivateKey, "0xcafe", 10, "coffee"); err != nil {
					t.Fatalf("\t%s\tTest 1:\tShould be able to transfer: %s", failed, err)
				}

				deadline := time.Now().Add(5 * time.Second)
				for st.QueryPoolLength() != 0 && time.Now().Before(deadline) {
					time.Sleep(10 * time.Millisecond)
				}

				if st.QueryPoolLength() != 0 || st.QueryLatestBlock().Header.Number != 2 {
					t.Fatalf("\t%s\tTest 1:\tShould commit the transfer after the interval.", failed)
				}
				t.Logf("\t%s\tTest 1:\tShould commit the transfer after the interval.", success)
			}
		}
	}
}
