package worker

import (
	"errors"
	"time"

	"github.com/charityblock/ledger/foundation/blockchain/state"
)

// commitOperations handles committing the pool into blocks. A signal arms a
// timer so transactions below the commit threshold don't wait forever.
func (w *Worker) commitOperations() {
	w.evHandler("worker: commitOperations: G started")
	defer w.evHandler("worker: commitOperations: G completed")

	timer := time.NewTimer(w.commitInterval)
	timer.Stop()
	defer timer.Stop()

	var armed bool

	for {
		select {
		case <-w.startCommit:
			if !armed {
				timer.Reset(w.commitInterval)
				armed = true
				w.evHandler("worker: commitOperations: commit in %v", w.commitInterval)
			}

		case <-timer.C:
			armed = false
			if !w.isShutdown() {
				w.runCommitOperation()
			}

		case <-w.shut:
			w.evHandler("worker: commitOperations: received shut signal")
			return
		}
	}
}

// runCommitOperation writes the currently valid pool transactions into a
// new block. The state shares the block with the peers.
func (w *Worker) runCommitOperation() {
	w.evHandler("worker: runCommitOperation: started")
	defer w.evHandler("worker: runCommitOperation: completed")

	// Make sure there are transactions in the pool.
	length := w.state.QueryPoolLength()
	if length == 0 {
		w.evHandler("worker: runCommitOperation: no transactions to commit: Txs[%d]", length)
		return
	}

	t := time.Now()
	block, err := w.state.Commit()
	duration := time.Since(t)

	if err != nil {
		switch {
		case errors.Is(err, state.ErrNoTransactions):
			w.evHandler("worker: runCommitOperation: WARNING: no valid transactions in pool")
		default:
			w.evHandler("worker: runCommitOperation: ERROR: %s", err)
		}
		return
	}

	w.evHandler("worker: runCommitOperation: blk[%d]: trans[%d]: duration[%v]", block.Header.Number, len(block.Trans), duration)

	// A full block may have left committable transactions behind. Foreign
	// transactions stay pending on their own.
	if len(block.Trans) == int(w.state.RetrieveGenesis().TransPerBlock) {
		w.SignalCommit()
	}
}
