package state

import (
	"errors"
	"fmt"

	"github.com/charityblock/ledger/foundation/blockchain/accounts"
	"github.com/charityblock/ledger/foundation/blockchain/database"
	"github.com/charityblock/ledger/foundation/blockchain/event"
	"github.com/charityblock/ledger/foundation/blockchain/mempool"
	"github.com/charityblock/ledger/foundation/blockchain/message"
	"github.com/charityblock/ledger/foundation/blockchain/peer"
	"github.com/charityblock/ledger/foundation/blockchain/utxo"
)

// ProcessMessage applies a change announced by a peer. Ledger and pool
// updates are pulled from the sending node before the state is touched.
// Nothing is shared back to the network.
func (s *State) ProcessMessage(msg message.Message) error {
	if err := msg.Validate(); err != nil {
		return err
	}

	s.evHandler("state: ProcessMessage: started: msg[%s]", msg)
	defer s.evHandler("state: ProcessMessage: completed: msg[%s]", msg)

	prometheusMessagesProcessed.WithLabelValues(string(msg.Kind)).Inc()

	if msg.From != "" && msg.From != s.host {
		if s.knownPeers.Add(peer.New(msg.From)) {
			s.evHandler("state: ProcessMessage: add peer[%s]", msg.From)
		}
	}

	switch msg.Kind {
	case message.KindUpdateLedger:
		chain, err := s.NetRequestPeerChain(peer.New(msg.From))
		if err != nil {
			return err
		}

		err = s.ReplaceChain(chain)
		if errors.Is(err, database.ErrChainNotLonger) {
			s.evHandler("state: ProcessMessage: %s", err)
			return nil
		}
		return err

	case message.KindUpdatePool:
		trans, err := s.NetRequestPeerPool(peer.New(msg.From))
		if err != nil {
			return err
		}

		s.MergePool(trans)
		return nil

	case message.KindAddEvent, message.KindDisbursement, message.KindForceEndEvent:
		s.mu.Lock()
		defer s.mu.Unlock()

		e := s.events.Reconcile(*msg.Event)
		s.evHandler("state: ProcessMessage: event[%s]: status[%s]: accepted[%d]", e.Name, e.Status, len(e.AcceptedBy))

		return nil

	case message.KindAcceptEvent:
		s.mu.Lock()
		defer s.mu.Unlock()

		e, err := s.resolveEvent(msg.EventAddress)
		if err != nil {
			return err
		}

		if e.Accept(msg.Identity, s.accounts.Count(), s.genesis.Quorum) {
			s.events.Update(e)
		}

		return nil

	case message.KindNewUser:
		s.mu.Lock()
		defer s.mu.Unlock()

		if s.accounts.Add(*msg.Account) {
			s.evHandler("state: ProcessMessage: new account[%s]: accounts[%d]", msg.Account.Name, s.accounts.Count())
		}

		return nil
	}

	return fmt.Errorf("unknown message kind %q", msg.Kind)
}

// ReplaceChain swaps the local chain for a longer valid one received from a
// peer. Every transaction is replayed into a fresh unspent output set before
// anything is swapped, then the pool is revalidated against the new set.
func (s *State) ReplaceChain(chain []database.Block) error {
	return s.exclusive(func() ([]message.Message, error) {
		s.evHandler("state: ReplaceChain: started: blocks[%d]", len(chain))
		defer s.evHandler("state: ReplaceChain: completed")

		if err := s.db.Validate(chain); err != nil {
			return nil, err
		}

		if length := s.db.Length(); uint64(len(chain)) <= length {
			return nil, fmt.Errorf("%w: got %d, have %d", database.ErrChainNotLonger, len(chain), length)
		}

		set, err := s.replay(chain)
		if err != nil {
			return nil, err
		}

		if err := s.db.Replace(chain); err != nil {
			return nil, err
		}

		s.utxos = set
		s.tallyEvents(chain)

		dropped := s.mempool.Revalidate(set)
		for _, tx := range dropped {
			s.evHandler("state: ReplaceChain: dropped tx[%s]", tx)
		}

		prometheusChainReplaced.Inc()

		return nil, nil
	})
}

// MergePool submits the transactions received from a peer as foreign
// transactions. Mints and transactions already in the pool are skipped. Transactions that fail
// admission are logged and dropped.
func (s *State) MergePool(trans []database.Tx) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	var merged int
	for _, tx := range trans {
		if tx.IsMint() || s.mempool.Contains(tx.ID) {
			continue
		}

		if err := s.mempool.SubmitForeign(tx, s.utxos); err != nil {
			s.evHandler("state: MergePool: tx[%s]: WARNING: %s", tx, err)
			continue
		}
		merged++
	}

	s.evHandler("state: MergePool: received[%d]: merged[%d]: pool[%d]", len(trans), merged, s.mempool.Count())

	return merged
}

// MergeAccounts registers the accounts received from a peer.
func (s *State) MergeAccounts(accts []accounts.Account) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	var merged int
	for _, acct := range accts {
		if acct.Address != "" && s.accounts.Add(acct) {
			merged++
		}
	}

	return merged
}

// MergeEvents reconciles the events received from a peer.
func (s *State) MergeEvents(events []event.Event) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, e := range events {
		if e.Address != "" {
			s.events.Reconcile(e)
		}
	}
}

// =============================================================================

// replay rebuilds the unspent output set from a chain. Every transaction
// passes the same admission rules the pool applies, so a chain that spends
// funds it does not own is rejected.
func (s *State) replay(chain []database.Block) (*utxo.Set, error) {
	set := utxo.New()
	mp := mempool.New(s.scheme)

	for _, block := range chain {
		for _, tx := range block.Trans {
			var err error
			switch {
			case tx.IsMint():
				err = mp.SubmitMint(tx)
			default:
				err = mp.Submit(tx, set)
			}

			if err != nil {
				return nil, fmt.Errorf("%w: blk[%d]: tx[%s]: %s", database.ErrInvalidChain, block.Header.Number, tx, err)
			}

			mp.Commit(set, []database.Tx{tx})
		}
	}

	s.evHandler("state: replay: blocks[%d]: utxos[%d]", len(chain), set.Count())

	return set, nil
}
