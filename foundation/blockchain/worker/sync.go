package worker

import (
	"errors"

	"github.com/charityblock/ledger/foundation/blockchain/database"
)

// Sync updates the peer list, accounts, events, blocks and pool.
func (w *Worker) Sync() {
	w.evHandler("worker: sync: started")
	defer w.evHandler("worker: sync: completed")

	for _, pr := range w.state.RetrieveKnownPeers() {

		// Retrieve the status of this peer.
		peerStatus, err := w.state.NetRequestPeerStatus(pr)
		if err != nil {
			w.evHandler("worker: sync: queryPeerStatus: %s: ERROR: %s", pr.Host, err)
			continue
		}

		// Add new peers to this nodes list.
		w.addNewPeers(peerStatus.KnownPeers)

		// Accounts size the event quorums, so they come first.
		accts, err := w.state.NetRequestPeerAccounts(pr)
		if err != nil {
			w.evHandler("worker: sync: retrievePeerAccounts: %s: ERROR: %s", pr.Host, err)
		}
		w.state.MergeAccounts(accts)

		events, err := w.state.NetRequestPeerEvents(pr)
		if err != nil {
			w.evHandler("worker: sync: retrievePeerEvents: %s: ERROR: %s", pr.Host, err)
		}
		w.state.MergeEvents(events)

		// If this peer has blocks we don't have, we need to adopt its chain.
		if peerStatus.LatestBlockNumber > w.state.QueryLatestBlock().Header.Number {
			w.evHandler("worker: sync: retrievePeerChain: %s: latestBlockNumber[%d]", pr.Host, peerStatus.LatestBlockNumber)

			chain, err := w.state.NetRequestPeerChain(pr)
			if err != nil {
				w.evHandler("worker: sync: retrievePeerChain: %s: ERROR %s", pr.Host, err)
				continue
			}

			if err := w.state.ReplaceChain(chain); err != nil && !errors.Is(err, database.ErrChainNotLonger) {
				w.evHandler("worker: sync: replaceChain: %s: ERROR %s", pr.Host, err)
			}
		}

		// Retrieve the pool from the peer.
		pool, err := w.state.NetRequestPeerPool(pr)
		if err != nil {
			w.evHandler("worker: sync: retrievePeerPool: %s: ERROR: %s", pr.Host, err)
			continue
		}
		w.state.MergePool(pool)
	}
}
