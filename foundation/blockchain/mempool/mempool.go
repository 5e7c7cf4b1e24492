// Package mempool maintains the pool of transactions waiting to be committed
// into the next block.
package mempool

import (
	"errors"
	"fmt"
	"sync"

	"github.com/charityblock/ledger/foundation/blockchain/database"
	"github.com/charityblock/ledger/foundation/blockchain/signature"
	"github.com/charityblock/ledger/foundation/blockchain/utxo"
)

// ErrInvalidTransaction is returned when a transaction fails admission.
var ErrInvalidTransaction = errors.New("invalid transaction")

// Mempool represents the ordered set of pending transactions. Insertion order
// is the priority for inclusion into the next block. The pool owns the lock
// flag on every output its transactions reference. Transactions received from
// peers are held as foreign and are only committed by the node they came from.
type Mempool struct {
	mu      sync.RWMutex
	scheme  signature.Scheme
	pool    []database.Tx
	ids     map[string]struct{}
	foreign map[string]struct{}
	lockers map[utxo.OutPoint]string
}

// New constructs a new mempool that verifies signatures with the scheme.
func New(scheme signature.Scheme) *Mempool {
	return &Mempool{
		scheme:  scheme,
		ids:     make(map[string]struct{}),
		foreign: make(map[string]struct{}),
		lockers: make(map[utxo.OutPoint]string),
	}
}

// Count returns the current number of transaction in the pool.
func (mp *Mempool) Count() int {
	mp.mu.RLock()
	defer mp.mu.RUnlock()

	return len(mp.pool)
}

// Contains reports whether the transaction is in the pool.
func (mp *Mempool) Contains(id string) bool {
	mp.mu.RLock()
	defer mp.mu.RUnlock()

	_, exists := mp.ids[id]
	return exists
}

// IsForeign reports whether the transaction was received from a peer.
func (mp *Mempool) IsForeign(id string) bool {
	mp.mu.RLock()
	defer mp.mu.RUnlock()

	_, exists := mp.foreign[id]
	return exists
}

// Copy returns the pending transactions in insertion order.
func (mp *Mempool) Copy() []database.Tx {
	mp.mu.RLock()
	defer mp.mu.RUnlock()

	trans := make([]database.Tx, len(mp.pool))
	copy(trans, mp.pool)

	return trans
}

// Submit validates the transaction against the set, locks every output it
// spends and appends it to the pool.
func (mp *Mempool) Submit(tx database.Tx, set *utxo.Set) error {
	mp.mu.Lock()
	defer mp.mu.Unlock()

	return mp.submit(tx, set, false)
}

// SubmitForeign is Submit for a transaction received from a peer. The
// transaction locks its inputs like any other but is never returned by
// Committable.
func (mp *Mempool) SubmitForeign(tx database.Tx, set *utxo.Set) error {
	mp.mu.Lock()
	defer mp.mu.Unlock()

	return mp.submit(tx, set, true)
}

func (mp *Mempool) submit(tx database.Tx, set *utxo.Set, foreign bool) error {
	if err := mp.validate(tx, set); err != nil {
		return fmt.Errorf("%w: %s", ErrInvalidTransaction, err)
	}

	var locked []utxo.OutPoint
	for _, in := range tx.Inputs {
		op := in.OutPoint()
		if err := set.Lock(op); err != nil {
			for _, l := range locked {
				set.Unlock(l)
			}
			return fmt.Errorf("%w: %s", ErrInvalidTransaction, err)
		}
		locked = append(locked, op)
	}

	for _, op := range locked {
		mp.lockers[op] = tx.ID
	}
	mp.pool = append(mp.pool, tx)
	mp.ids[tx.ID] = struct{}{}
	if foreign {
		mp.foreign[tx.ID] = struct{}{}
	}

	return nil
}

// SubmitMint appends a mint transaction to the pool. Mints create value, so
// this must only be reachable from a trusted operation.
func (mp *Mempool) SubmitMint(tx database.Tx) error {
	mp.mu.Lock()
	defer mp.mu.Unlock()

	switch {
	case !tx.IsMint() || tx.Sender != "" || tx.Kind != database.TxKindMint:
		return fmt.Errorf("%w: not a mint", ErrInvalidTransaction)
	case len(tx.Inputs) != 0:
		return fmt.Errorf("%w: mint has inputs", ErrInvalidTransaction)
	case tx.ID != tx.ComputeID():
		return fmt.Errorf("%w: id does not match contents", ErrInvalidTransaction)
	case tx.Amount == 0 || tx.OutputTotal() != tx.Amount:
		return fmt.Errorf("%w: mint amount does not match outputs", ErrInvalidTransaction)
	}

	if _, exists := mp.ids[tx.ID]; exists {
		return fmt.Errorf("%w: duplicate transaction", ErrInvalidTransaction)
	}

	mp.pool = append(mp.pool, tx)
	mp.ids[tx.ID] = struct{}{}

	return nil
}

// CurrentlyValid re-filters the pool against the set. Entries with an input
// that is gone or no longer locked by that entry are dropped and their
// remaining locks released.
func (mp *Mempool) CurrentlyValid(set *utxo.Set) []database.Tx {
	mp.mu.Lock()
	defer mp.mu.Unlock()

	var valid []database.Tx
	kept := mp.pool[:0:0]

	for _, tx := range mp.pool {
		if mp.stillValid(tx, set) {
			valid = append(valid, tx)
			kept = append(kept, tx)
			continue
		}

		mp.release(tx, set)
		delete(mp.ids, tx.ID)
		delete(mp.foreign, tx.ID)
	}
	mp.pool = kept

	return valid
}

// Committable returns the currently valid transactions this node may commit:
// mints first, then the local transactions in insertion order. Foreign
// transactions stay pending until the chain that includes them arrives.
func (mp *Mempool) Committable(set *utxo.Set) []database.Tx {
	valid := mp.CurrentlyValid(set)

	mp.mu.RLock()
	defer mp.mu.RUnlock()

	var mints, local []database.Tx
	for _, tx := range valid {
		switch {
		case tx.IsMint():
			mints = append(mints, tx)
		case !isIn(mp.foreign, tx.ID):
			local = append(local, tx)
		}
	}

	return append(mints, local...)
}

// Commit finalizes the committed transactions against the set and removes
// them from the pool.
func (mp *Mempool) Commit(set *utxo.Set, committed []database.Tx) {
	mp.mu.Lock()
	defer mp.mu.Unlock()

	done := make(map[string]struct{}, len(committed))
	for _, tx := range committed {
		for _, in := range tx.Inputs {
			delete(mp.lockers, in.OutPoint())
		}
		tx.Apply(set)
		done[tx.ID] = struct{}{}
	}

	kept := mp.pool[:0:0]
	for _, tx := range mp.pool {
		if _, exists := done[tx.ID]; exists {
			delete(mp.ids, tx.ID)
			delete(mp.foreign, tx.ID)
			continue
		}
		kept = append(kept, tx)
	}
	mp.pool = kept
}

// Truncate clears all the transactions from the pool and releases every lock
// the pool holds on the set.
func (mp *Mempool) Truncate(set *utxo.Set) {
	mp.mu.Lock()
	defer mp.mu.Unlock()

	for op := range mp.lockers {
		set.Unlock(op)
	}

	mp.pool = nil
	mp.ids = make(map[string]struct{})
	mp.foreign = make(map[string]struct{})
	mp.lockers = make(map[utxo.OutPoint]string)
}

// Revalidate rebuilds the pool against a set that was replaced underneath it.
// Every entry goes through admission again and the ones that fail are dropped.
// Foreign entries stay foreign.
func (mp *Mempool) Revalidate(set *utxo.Set) []database.Tx {
	mp.mu.RLock()
	foreign := make(map[string]struct{}, len(mp.foreign))
	for id := range mp.foreign {
		foreign[id] = struct{}{}
	}
	mp.mu.RUnlock()

	trans := mp.Copy()
	mp.Truncate(set)

	var dropped []database.Tx
	for _, tx := range trans {
		var err error
		switch {
		case tx.IsMint():
			err = mp.SubmitMint(tx)
		case isIn(foreign, tx.ID):
			err = mp.SubmitForeign(tx, set)
		default:
			err = mp.Submit(tx, set)
		}

		if err != nil {
			dropped = append(dropped, tx)
		}
	}

	return dropped
}

// =============================================================================

// validate performs the admission checks. The set is not modified.
func (mp *Mempool) validate(tx database.Tx, set *utxo.Set) error {
	if tx.IsMint() {
		return errors.New("mint transactions can't be submitted")
	}

	if tx.Kind != database.TxKindTransfer && tx.Kind != database.TxKindDisbursement {
		return fmt.Errorf("unknown transaction kind %q", tx.Kind)
	}

	if tx.ID != tx.ComputeID() {
		return errors.New("id does not match contents")
	}

	if _, exists := mp.ids[tx.ID]; exists {
		return errors.New("duplicate transaction")
	}

	if len(tx.Inputs) == 0 {
		return errors.New("no inputs")
	}

	if len(tx.Outputs) == 0 && tx.Kind == database.TxKindTransfer {
		return errors.New("no outputs")
	}

	var outTotal uint64
	for _, out := range tx.Outputs {
		if out.Amount == 0 || out.Address == "" {
			return errors.New("malformed output")
		}
		if outTotal+out.Amount < outTotal {
			return errors.New("output total overflows")
		}
		outTotal += out.Amount
	}

	var inTotal uint64
	seen := make(map[utxo.OutPoint]struct{}, len(tx.Inputs))
	for _, in := range tx.Inputs {
		op := in.OutPoint()
		if _, exists := seen[op]; exists {
			return fmt.Errorf("input %s referenced twice", op)
		}
		seen[op] = struct{}{}

		uo, exists := set.Get(op)
		switch {
		case !exists:
			return fmt.Errorf("input %s: %w", op, utxo.ErrNotFound)
		case uo.Locked:
			return fmt.Errorf("input %s: %w", op, utxo.ErrAlreadyLocked)
		case uo.Address != tx.Sender:
			return fmt.Errorf("input %s: not owned by sender", op)
		}

		if inTotal+uo.Amount < inTotal {
			return errors.New("input total overflows")
		}
		inTotal += uo.Amount
	}

	switch tx.Kind {
	case database.TxKindTransfer:
		if inTotal != outTotal {
			return fmt.Errorf("inputs %d do not match outputs %d", inTotal, outTotal)
		}
		if tx.Outputs[0].Amount != tx.Amount {
			return fmt.Errorf("amount %d does not match the receipt output %d", tx.Amount, tx.Outputs[0].Amount)
		}

	case database.TxKindDisbursement:
		if tx.Amount == 0 || inTotal < outTotal || inTotal-outTotal != tx.Amount {
			return fmt.Errorf("inputs %d do not match outputs %d plus payout %d", inTotal, outTotal, tx.Amount)
		}
	}

	return tx.VerifySignatures(mp.scheme, set)
}

// stillValid reports whether every input of the transaction is still present
// and locked by this transaction.
func (mp *Mempool) stillValid(tx database.Tx, set *utxo.Set) bool {
	for _, in := range tx.Inputs {
		op := in.OutPoint()

		uo, exists := set.Get(op)
		if !exists || !uo.Locked || mp.lockers[op] != tx.ID {
			return false
		}
	}

	return true
}

// release unlocks the outputs the transaction still holds.
func (mp *Mempool) release(tx database.Tx, set *utxo.Set) {
	for _, in := range tx.Inputs {
		op := in.OutPoint()
		if mp.lockers[op] == tx.ID {
			set.Unlock(op)
			delete(mp.lockers, op)
		}
	}
}

func isIn(set map[string]struct{}, id string) bool {
	_, exists := set[id]
	return exists
}
