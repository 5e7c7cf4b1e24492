// Package utxo maintains the set of unspent transaction outputs. This is the
// only place balances live on the node.
package utxo

import (
	"errors"
	"fmt"
	"sort"
	"sync"
)

// Set of error variables for locking outputs.
var (
	ErrNotFound      = errors.New("unspent output not found")
	ErrAlreadyLocked = errors.New("unspent output already locked")
)

// =============================================================================

// OutPoint identifies a single output of a transaction.
type OutPoint struct {
	TxID  string `json:"tx_id"`
	Index uint32 `json:"index"`
}

// String implements the fmt.Stringer interface for logging.
func (op OutPoint) String() string {
	return fmt.Sprintf("%s:%d", op.TxID, op.Index)
}

// UnspentOutput represents an output that can still be spent. Locked is set
// while a pending pool transaction references the output.
type UnspentOutput struct {
	TxID    string `json:"tx_id"`
	Index   uint32 `json:"index"`
	Address string `json:"address"`
	Amount  uint64 `json:"amount"`
	Locked  bool   `json:"locked"`
}

// OutPoint returns the identifier of this output.
func (uo UnspentOutput) OutPoint() OutPoint {
	return OutPoint{TxID: uo.TxID, Index: uo.Index}
}

// entry keeps the insertion sequence so scans are stable.
type entry struct {
	output UnspentOutput
	seq    uint64
}

// =============================================================================

// Set represents the collection of unspent outputs keyed by outpoint. Scans
// over the set always happen in insertion order.
type Set struct {
	mu      sync.RWMutex
	outputs map[OutPoint]*entry
	nextSeq uint64
}

// New constructs an empty set.
func New() *Set {
	return &Set{
		outputs: make(map[OutPoint]*entry),
	}
}

// Insert adds a new unlocked output to the set. An existing output with the
// same outpoint is replaced.
func (s *Set) Insert(uo UnspentOutput) {
	s.mu.Lock()
	defer s.mu.Unlock()

	uo.Locked = false
	s.outputs[uo.OutPoint()] = &entry{output: uo, seq: s.nextSeq}
	s.nextSeq++
}

// Remove deletes the output from the set.
func (s *Set) Remove(op OutPoint) {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.outputs, op)
}

// Get returns a copy of the output for the specified outpoint.
func (s *Set) Get(op OutPoint) (UnspentOutput, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	e, exists := s.outputs[op]
	if !exists {
		return UnspentOutput{}, false
	}

	return e.output, true
}

// Lock marks the output as claimed by a pending transaction. An output can
// only be locked once.
func (s *Set) Lock(op OutPoint) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, exists := s.outputs[op]
	if !exists {
		return fmt.Errorf("%w: %s", ErrNotFound, op)
	}

	if e.output.Locked {
		return fmt.Errorf("%w: %s", ErrAlreadyLocked, op)
	}

	e.output.Locked = true
	return nil
}

// Unlock releases the claim on the output. Unknown outputs are ignored.
func (s *Set) Unlock(op OutPoint) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if e, exists := s.outputs[op]; exists {
		e.output.Locked = false
	}
}

// ByAddress returns the outputs owned by the address in insertion order.
func (s *Set) ByAddress(address string, includeLocked bool) []UnspentOutput {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var entries []*entry
	for _, e := range s.outputs {
		if e.output.Address != address {
			continue
		}
		if e.output.Locked && !includeLocked {
			continue
		}
		entries = append(entries, e)
	}

	sort.Slice(entries, func(i, j int) bool {
		return entries[i].seq < entries[j].seq
	})

	out := make([]UnspentOutput, len(entries))
	for i, e := range entries {
		out[i] = e.output
	}

	return out
}

// Balance returns the sum of the unlocked outputs owned by the address.
func (s *Set) Balance(address string) uint64 {
	var total uint64
	for _, uo := range s.ByAddress(address, false) {
		total += uo.Amount
	}

	return total
}

// Total returns the sum of all the outputs owned by the address, including
// the ones locked by pending transactions.
func (s *Set) Total(address string) uint64 {
	var total uint64
	for _, uo := range s.ByAddress(address, true) {
		total += uo.Amount
	}

	return total
}

// Supply returns the sum of every output in the set.
func (s *Set) Supply() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var total uint64
	for _, e := range s.outputs {
		total += e.output.Amount
	}

	return total
}

// Count returns the number of outputs in the set.
func (s *Set) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return len(s.outputs)
}

// Copy returns all the outputs in insertion order.
func (s *Set) Copy() []UnspentOutput {
	s.mu.RLock()
	defer s.mu.RUnlock()

	entries := make([]*entry, 0, len(s.outputs))
	for _, e := range s.outputs {
		entries = append(entries, e)
	}

	sort.Slice(entries, func(i, j int) bool {
		return entries[i].seq < entries[j].seq
	})

	out := make([]UnspentOutput, len(entries))
	for i, e := range entries {
		out[i] = e.output
	}

	return out
}

// Reset removes every output from the set.
func (s *Set) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.outputs = make(map[OutPoint]*entry)
	s.nextSeq = 0
}
