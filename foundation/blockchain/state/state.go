// Package state is the core API for the ledger and implements all the
// business rules and processing. The unspent output set, the pool, the chain,
// the events and the accounts form one consistency domain guarded by a
// single lock.
package state

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/charityblock/ledger/foundation/blockchain/accounts"
	"github.com/charityblock/ledger/foundation/blockchain/database"
	"github.com/charityblock/ledger/foundation/blockchain/event"
	"github.com/charityblock/ledger/foundation/blockchain/genesis"
	"github.com/charityblock/ledger/foundation/blockchain/mempool"
	"github.com/charityblock/ledger/foundation/blockchain/message"
	"github.com/charityblock/ledger/foundation/blockchain/peer"
	"github.com/charityblock/ledger/foundation/blockchain/signature"
	"github.com/charityblock/ledger/foundation/blockchain/utxo"
	"github.com/charityblock/ledger/foundation/blockchain/wallet"
)

// Set of error variables for resolving callers and events.
var (
	ErrEventNotFound   = errors.New("event not found")
	ErrAlreadyAccepted = errors.New("event already accepted by this account")
	ErrWalletNotFound  = errors.New("wallet not found")
	ErrNoTransactions  = errors.New("no valid transactions to commit")
)

// =============================================================================

// EventHandler defines a function that is called when events
// occur in the processing of the ledger.
type EventHandler func(v string, args ...any)

// Worker interface represents the behavior required to be implemented by any
// package providing support for committing blocks, peer updates and sharing
// changes with the network.
type Worker interface {
	Shutdown()
	Sync()
	SignalCommit()
	SignalShare(msg message.Message)
}

// nopWorker is used until worker.Run assigns a real worker.
type nopWorker struct{}

func (nopWorker) Shutdown()                   {}
func (nopWorker) Sync()                       {}
func (nopWorker) SignalCommit()               {}
func (nopWorker) SignalShare(message.Message) {}

// =============================================================================

// Config represents the configuration required to start the ledger node.
type Config struct {
	Host       string
	Genesis    genesis.Genesis
	Storage    database.Storage
	Scheme     signature.Scheme
	KnownPeers *peer.PeerSet
	Now        func() time.Time
	EvHandler  EventHandler
}

// State manages the ledger.
type State struct {
	mu sync.RWMutex

	host      string
	genesis   genesis.Genesis
	scheme    signature.Scheme
	now       func() time.Time
	lastStamp time.Time
	evHandler EventHandler

	knownPeers *peer.PeerSet
	db         *database.Database
	utxos      *utxo.Set
	mempool    *mempool.Mempool
	events     *event.Directory
	accounts   *accounts.Directory

	Worker Worker
}

// New constructs a new ledger state. Blocks already in storage are replayed
// to rebuild the unspent output set.
func New(cfg Config) (*State, error) {

	// Build a safe event handler function for use.
	ev := func(v string, args ...any) {
		if cfg.EvHandler != nil {
			cfg.EvHandler(v, args...)
		}
	}

	scheme := cfg.Scheme
	if scheme == nil {
		scheme = signature.Secp256k1{}
	}

	now := cfg.Now
	if now == nil {
		now = time.Now
	}

	knownPeers := cfg.KnownPeers
	if knownPeers == nil {
		knownPeers = peer.NewPeerSet()
	}

	if err := cfg.Genesis.Validate(); err != nil {
		return nil, fmt.Errorf("genesis: %w", err)
	}

	db, err := database.New(cfg.Genesis, cfg.Storage, ev)
	if err != nil {
		return nil, err
	}

	state := State{
		host:      cfg.Host,
		genesis:   cfg.Genesis,
		scheme:    scheme,
		now:       now,
		evHandler: ev,

		knownPeers: knownPeers,
		db:         db,
		mempool:    mempool.New(scheme),
		events:     event.NewDirectory(),
		accounts:   accounts.New(),

		Worker: nopWorker{},
	}

	initPrometheusMetrics()

	set, err := state.replay(db.Blocks())
	if err != nil {
		return nil, err
	}
	state.utxos = set

	// The Worker is not set here. The call to worker.Run will assign itself
	// and start everything up and running for the node.

	return &state, nil
}

// Shutdown cleanly brings the node down.
func (s *State) Shutdown() error {
	s.evHandler("state: shutdown: started")
	defer s.evHandler("state: shutdown: completed")

	// Make sure the storage is properly closed.
	defer func() {
		s.db.Close()
	}()

	// Stop all background activity.
	s.Worker.Shutdown()

	return nil
}

// =============================================================================

// exclusive runs the mutation under the write lock. The messages it returns
// are handed to the worker only after the lock is released. A mutation that
// fails returns only the messages for changes it kept, like an event ended
// on the way to rejecting a donation.
func (s *State) exclusive(fn func() ([]message.Message, error)) error {
	s.mu.Lock()
	msgs, err := fn()
	s.mu.Unlock()

	for _, msg := range msgs {
		s.Worker.SignalShare(msg)
	}

	return err
}

// resolveWallet returns the wallet behind the private key. The wallet must be
// known to the account directory.
func (s *State) resolveWallet(privateKey string) (wallet.Wallet, accounts.Account, error) {
	w, err := wallet.New(s.scheme, privateKey)
	if err != nil {
		return wallet.Wallet{}, accounts.Account{}, fmt.Errorf("%w: %s", ErrWalletNotFound, err)
	}

	acct, exists := s.accounts.Get(w.Address())
	if !exists {
		return wallet.Wallet{}, accounts.Account{}, ErrWalletNotFound
	}

	return w, acct, nil
}

// resolveEvent returns the event at the address.
func (s *State) resolveEvent(address string) (event.Event, error) {
	e, exists := s.events.Get(address)
	if !exists {
		return event.Event{}, fmt.Errorf("%w: %s", ErrEventNotFound, address)
	}

	return e, nil
}

// stamp returns the time for a new transaction. Stamps never repeat, so two
// mints of the same amount to the same address still get different ids. The
// caller must hold the write lock.
func (s *State) stamp() time.Time {
	now := s.now().UTC().Truncate(time.Millisecond)
	if !now.After(s.lastStamp) {
		now = s.lastStamp.Add(time.Millisecond)
	}
	s.lastStamp = now

	return now
}
