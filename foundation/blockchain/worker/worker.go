// Package worker implements block commits, peer updates, and message sharing
// for the ledger.
package worker

import (
	"sync"
	"time"

	"github.com/charityblock/ledger/foundation/blockchain/message"
	"github.com/charityblock/ledger/foundation/blockchain/state"
)

// peerUpdateInterval represents the interval of finding new peer nodes
// and updating the ledger with missing blocks.
const peerUpdateInterval = time.Minute

// defaultCommitInterval is used when no commit interval is configured.
const defaultCommitInterval = 10 * time.Second

// =============================================================================

// Worker manages the background workflows for the ledger.
type Worker struct {
	state          *state.State
	wg             sync.WaitGroup
	ticker         time.Ticker
	commitInterval time.Duration
	shut           chan struct{}
	startCommit    chan bool
	msgSharing     chan message.Message
	evHandler      state.EventHandler
}

// Run creates a worker, registers the worker with the state package, and
// starts up all the background processes. Pending transactions are committed
// no later than commitInterval after the first one arrives.
func Run(st *state.State, commitInterval time.Duration, evHandler state.EventHandler) {
	if evHandler == nil {
		evHandler = func(v string, args ...any) {}
	}

	if commitInterval <= 0 {
		commitInterval = defaultCommitInterval
	}

	w := Worker{
		state:          st,
		ticker:         *time.NewTicker(peerUpdateInterval),
		commitInterval: commitInterval,
		shut:           make(chan struct{}),
		startCommit:    make(chan bool, 1),
		msgSharing:     make(chan message.Message, maxMsgShareRequests),
		evHandler:      evHandler,
	}

	// Register this worker with the state package.
	st.Worker = &w

	// Update this node before starting any support G's.
	w.Sync()

	// Load the set of operations we need to run.
	operations := []func(){
		w.peerOperations,
		w.commitOperations,
		w.shareOperations,
	}

	// Set waitgroup to match the number of G's we need for the set
	// of operations we have.
	g := len(operations)
	w.wg.Add(g)

	// We don't want to return until we know all the G's are up and running.
	hasStarted := make(chan bool)

	// Start all the operational G's.
	for _, op := range operations {
		go func(op func()) {
			defer w.wg.Done()
			hasStarted <- true
			op()
		}(op)
	}

	// Wait for the G's to report they are running.
	for range g {
		<-hasStarted
	}
}

// =============================================================================
// These methods implement the state.Worker interface.

// Shutdown terminates the goroutine performing work.
func (w *Worker) Shutdown() {
	w.evHandler("worker: shutdown: started")
	defer w.evHandler("worker: shutdown: completed")

	w.evHandler("worker: shutdown: stop ticker")
	w.ticker.Stop()

	w.evHandler("worker: shutdown: terminate goroutines")
	close(w.shut)
	w.wg.Wait()
}

// SignalCommit arms a commit operation. If there is already a signal
// pending in the channel, just return since a commit will happen.
func (w *Worker) SignalCommit() {
	select {
	case w.startCommit <- true:
		w.evHandler("worker: SignalCommit: commit signaled")
	default:
	}
}

// SignalShare signals a share message operation. If maxMsgShareRequests
// signals exist in the channel, the message won't be shared.
func (w *Worker) SignalShare(msg message.Message) {
	select {
	case w.msgSharing <- msg:
		w.evHandler("worker: SignalShare: share msg[%s] signaled", msg.Kind)
	default:
		w.evHandler("worker: SignalShare: queue full, msg[%s] won't be shared.", msg.Kind)
	}
}

// =============================================================================

// isShutdown is used to test if a shutdown has been signaled.
func (w *Worker) isShutdown() bool {
	select {
	case <-w.shut:
		return true
	default:
		return false
	}
}
