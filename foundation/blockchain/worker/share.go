package worker

import (
	"github.com/charityblock/ledger/foundation/blockchain/message"
	"golang.org/x/sync/errgroup"
)

// maxMsgShareRequests represents the max number of pending message network
// share requests that can be outstanding before share requests are dropped.
// To keep this simple, a buffered channel of this arbitrary number is being
// used. If the channel does become full, requests for new messages to be
// shared will not be accepted.
const maxMsgShareRequests = 100

// maxPeerRequests limits the concurrent deliveries of one message.
const maxPeerRequests = 8

// =============================================================================

// shareOperations handles sharing changes with the peers.
func (w *Worker) shareOperations() {
	w.evHandler("worker: shareOperations: G started")
	defer w.evHandler("worker: shareOperations: G completed")

	for {
		select {
		case msg := <-w.msgSharing:
			if !w.isShutdown() {
				w.runShareOperation(msg)
			}
		case <-w.shut:
			w.evHandler("worker: shareOperations: received shut signal")
			return
		}
	}
}

// runShareOperation delivers the message to every known peer. Delivery
// failures are logged and nothing is rolled back.
func (w *Worker) runShareOperation(msg message.Message) {
	w.evHandler("worker: runShareOperation: started: msg[%s]", msg.Kind)
	defer w.evHandler("worker: runShareOperation: completed: msg[%s]", msg.Kind)

	var g errgroup.Group
	g.SetLimit(maxPeerRequests)

	for _, pr := range w.state.RetrieveKnownPeers() {
		g.Go(func() error {
			if err := w.state.NetSendMessage(pr, msg); err != nil {
				w.evHandler("worker: runShareOperation: WARNING: %s", err)
				return err
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		w.evHandler("worker: runShareOperation: msg[%s]: not delivered to every peer", msg.Kind)
	}
}
