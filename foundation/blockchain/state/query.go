package state

import (
	"errors"
	"fmt"

	"github.com/charityblock/ledger/foundation/blockchain/accounts"
	"github.com/charityblock/ledger/foundation/blockchain/database"
	"github.com/charityblock/ledger/foundation/blockchain/event"
	"github.com/charityblock/ledger/foundation/blockchain/genesis"
	"github.com/charityblock/ledger/foundation/blockchain/peer"
)

// ErrTxNotFound is returned when a transaction is not in the chain or pool.
var ErrTxNotFound = errors.New("transaction not found")

// Balance represents the funds held by an address. Available excludes the
// outputs locked by pending transactions, Total includes them.
type Balance struct {
	Address   string `json:"address"`
	Name      string `json:"name"`
	Available uint64 `json:"available"`
	Total     uint64 `json:"total"`
}

// TxRecord represents a transaction and where it sits in the ledger.
type TxRecord struct {
	Tx          database.Tx `json:"tx"`
	BlockNumber uint64      `json:"block_number"`
	Pending     bool        `json:"pending"`
	SenderName  string      `json:"sender_name"`
}

// Donation represents value sent to an event by another address.
type Donation struct {
	TxID         string `json:"tx_id"`
	EventAddress string `json:"event_address"`
	EventName    string `json:"event_name"`
	From         string `json:"from"`
	FromName     string `json:"from_name"`
	Amount       uint64 `json:"amount"`
	Reason       string `json:"reason"`
	TimeStamp    uint64 `json:"timestamp"`
	Pending      bool   `json:"pending"`
}

// EventSummary represents an event with the values derived from the ledger.
type EventSummary struct {
	event.Event
	PercentAccepted float64 `json:"percent_accepted"`
	CurrentBalance  uint64  `json:"current_balance"`
}

// =============================================================================

// RetrieveHost returns a copy of host information.
func (s *State) RetrieveHost() string {
	return s.host
}

// RetrieveGenesis returns a copy of the genesis information.
func (s *State) RetrieveGenesis() genesis.Genesis {
	return s.genesis
}

// RetrieveKnownPeers retrieves a copy of the known peer list.
func (s *State) RetrieveKnownPeers() []peer.Peer {
	return s.knownPeers.Copy(s.host)
}

// AddKnownPeer provides the ability to add a new peer to the known peer list.
func (s *State) AddKnownPeer(peer peer.Peer) bool {
	if peer.Match(s.host) {
		return false
	}

	return s.knownPeers.Add(peer)
}

// RemoveKnownPeer provides the ability to remove a peer from the known
// peer list.
func (s *State) RemoveKnownPeer(peer peer.Peer) {
	s.knownPeers.Remove(peer)
}

// RetrieveStatus returns the status this node reports to its peers.
func (s *State) RetrieveStatus() peer.PeerStatus {
	s.mu.RLock()
	defer s.mu.RUnlock()

	latest := s.db.LatestBlock()

	return peer.PeerStatus{
		LatestBlockHash:   latest.Hash,
		LatestBlockNumber: latest.Header.Number,
		PoolCount:         s.mempool.Count(),
		EventCount:        s.events.Count(),
		AccountCount:      s.accounts.Count(),
		KnownPeers:        s.RetrieveKnownPeers(),
	}
}

// =============================================================================

// QueryBlocks returns the full chain starting with the genesis block.
func (s *State) QueryBlocks() []database.Block {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.db.Blocks()
}

// QueryBlockByNumber returns the block with the specified number.
func (s *State) QueryBlockByNumber(num uint64) (database.Block, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.db.GetBlock(num)
}

// QueryLatestBlock returns the tip of the chain.
func (s *State) QueryLatestBlock() database.Block {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.db.LatestBlock()
}

// QueryPool returns the pending transactions in insertion order.
func (s *State) QueryPool() []database.Tx {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.mempool.Copy()
}

// QueryPoolLength returns the number of pending transactions.
func (s *State) QueryPoolLength() int {
	return s.mempool.Count()
}

// QueryAccounts returns the registered accounts.
func (s *State) QueryAccounts() []accounts.Account {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.accounts.Copy()
}

// QueryBalance returns the balance of the wallet behind the private key.
func (s *State) QueryBalance(privateKey string) (Balance, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	w, acct, err := s.resolveWallet(privateKey)
	if err != nil {
		return Balance{}, err
	}

	return Balance{
		Address:   w.Address(),
		Name:      acct.Name,
		Available: w.Balance(s.utxos),
		Total:     s.utxos.Total(w.Address()),
	}, nil
}

// QueryTransProof returns the merkle proof that the transaction is included
// in the block with the specified number.
func (s *State) QueryTransProof(num uint64, txID string) ([]string, []int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	block, err := s.db.GetBlock(num)
	if err != nil {
		return nil, nil, err
	}

	return database.TransProof(block, txID)
}

// =============================================================================

// QueryHistory returns every committed transaction followed by the pending
// ones.
func (s *State) QueryHistory() []TxRecord {
	return s.history(func(database.Tx) bool { return true })
}

// QueryHistoryByAddress returns the transactions the address sent or
// received.
func (s *State) QueryHistoryByAddress(address string) []TxRecord {
	return s.history(func(tx database.Tx) bool {
		if tx.Sender == address {
			return true
		}
		for _, out := range tx.Outputs {
			if out.Address == address {
				return true
			}
		}
		return false
	})
}

// QueryTransaction returns the transaction with the specified id.
func (s *State) QueryTransaction(id string) (TxRecord, error) {
	records := s.history(func(tx database.Tx) bool { return tx.ID == id })
	if len(records) == 0 {
		return TxRecord{}, fmt.Errorf("%w: %s", ErrTxNotFound, id)
	}

	return records[0], nil
}

// QueryDisbursements returns the disbursements paid out of the event.
func (s *State) QueryDisbursements(eventAddress string) ([]TxRecord, error) {
	s.mu.RLock()
	_, err := s.resolveEvent(eventAddress)
	s.mu.RUnlock()

	if err != nil {
		return nil, err
	}

	return s.history(func(tx database.Tx) bool {
		return tx.Kind == database.TxKindDisbursement && tx.Sender == eventAddress
	}), nil
}

// QueryDonations returns the donations made to the event.
func (s *State) QueryDonations(eventAddress string) ([]Donation, error) {
	s.mu.RLock()
	_, err := s.resolveEvent(eventAddress)
	s.mu.RUnlock()

	if err != nil {
		return nil, err
	}

	return s.donations(func(address string) bool { return address == eventAddress }), nil
}

// QueryAllDonations returns the donations made to every event.
func (s *State) QueryAllDonations() []Donation {
	return s.donations(func(string) bool { return true })
}

// =============================================================================

// QueryEvents returns every event.
func (s *State) QueryEvents() []EventSummary {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.summarize(s.events.List())
}

// QueryEventList returns every event as stored, for sharing with peers.
func (s *State) QueryEventList() []event.Event {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.events.List()
}

// QueryEventsByCreator returns the events the wallet behind the private key
// created.
func (s *State) QueryEventsByCreator(privateKey string) ([]EventSummary, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	w, _, err := s.resolveWallet(privateKey)
	if err != nil {
		return nil, err
	}

	return s.summarize(s.events.ByCreator(w.Address())), nil
}

// QueryEvent returns the event at the address.
func (s *State) QueryEvent(address string) (EventSummary, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	e, err := s.resolveEvent(address)
	if err != nil {
		return EventSummary{}, err
	}

	return s.summarize([]event.Event{e})[0], nil
}

// =============================================================================

func (s *State) summarize(events []event.Event) []EventSummary {
	n := s.accounts.Count()

	summaries := make([]EventSummary, len(events))
	for i, e := range events {
		summaries[i] = EventSummary{
			Event:           e,
			PercentAccepted: e.PercentAccepted(n),
			CurrentBalance:  e.CurrentBalance(s.utxos),
		}
	}

	return summaries
}

// history walks the chain and then the pool, returning the transactions
// that match.
func (s *State) history(match func(tx database.Tx) bool) []TxRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var records []TxRecord

	for _, block := range s.db.Blocks() {
		for _, tx := range block.Trans {
			if match(tx) {
				records = append(records, TxRecord{
					Tx:          tx,
					BlockNumber: block.Header.Number,
					SenderName:  s.accounts.Name(tx.Sender),
				})
			}
		}
	}

	for _, tx := range s.mempool.Copy() {
		if match(tx) {
			records = append(records, TxRecord{
				Tx:         tx,
				Pending:    true,
				SenderName: s.accounts.Name(tx.Sender),
			})
		}
	}

	return records
}

// donations returns the transfer outputs paid to the events the filter
// selects. Change going back to the event itself is not a donation.
func (s *State) donations(include func(address string) bool) []Donation {
	records := s.history(func(tx database.Tx) bool { return tx.Kind == database.TxKindTransfer })

	s.mu.RLock()
	defer s.mu.RUnlock()

	var donations []Donation
	for _, r := range records {
		for _, out := range r.Tx.Outputs {
			if out.Address == r.Tx.Sender || !include(out.Address) {
				continue
			}

			e, exists := s.events.Get(out.Address)
			if !exists {
				continue
			}

			donations = append(donations, Donation{
				TxID:         r.Tx.ID,
				EventAddress: e.Address,
				EventName:    e.Name,
				From:         r.Tx.Sender,
				FromName:     r.SenderName,
				Amount:       out.Amount,
				Reason:       r.Tx.Reason,
				TimeStamp:    r.Tx.TimeStamp,
				Pending:      r.Pending,
			})
		}
	}

	return donations
}
