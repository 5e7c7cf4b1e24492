package state

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/charityblock/ledger/foundation/blockchain/accounts"
	"github.com/charityblock/ledger/foundation/blockchain/database"
	"github.com/charityblock/ledger/foundation/blockchain/event"
	"github.com/charityblock/ledger/foundation/blockchain/message"
	"github.com/charityblock/ledger/foundation/blockchain/peer"
)

const baseURL = "http://%s/v1/node"

// NetSendMessage delivers the message to the peer. The message is stamped
// with this node's host so the peer knows where to pull from.
func (s *State) NetSendMessage(pr peer.Peer, msg message.Message) error {
	msg.From = s.host

	url := fmt.Sprintf("%s/sync", fmt.Sprintf(baseURL, pr.Host))
	if err := send(http.MethodPost, url, msg, nil); err != nil {
		return fmt.Errorf("%s: %w", pr.Host, err)
	}

	s.evHandler("state: NetSendMessage: sent msg[%s] to peer[%s]", msg.Kind, pr)

	return nil
}

// NetRequestPeerStatus looks for new nodes on the network by asking
// known nodes for their peer list. New nodes are added to the list.
func (s *State) NetRequestPeerStatus(pr peer.Peer) (peer.PeerStatus, error) {
	s.evHandler("state: NetRequestPeerStatus: started: %s", pr)
	defer s.evHandler("state: NetRequestPeerStatus: completed: %s", pr)

	url := fmt.Sprintf("%s/status", fmt.Sprintf(baseURL, pr.Host))

	var ps peer.PeerStatus
	if err := send(http.MethodGet, url, nil, &ps); err != nil {
		return peer.PeerStatus{}, err
	}

	s.evHandler("state: NetRequestPeerStatus: peer-node[%s]: latest-blknum[%d]: peer-list[%s]", pr, ps.LatestBlockNumber, ps.KnownPeers)

	return ps, nil
}

// NetRequestAddPeer lets the peer know this node is available.
func (s *State) NetRequestAddPeer(pr peer.Peer) error {
	url := fmt.Sprintf("%s/peers", fmt.Sprintf(baseURL, pr.Host))

	return send(http.MethodPost, url, peer.New(s.host), nil)
}

// NetRequestPeerChain asks the peer for its full chain.
func (s *State) NetRequestPeerChain(pr peer.Peer) ([]database.Block, error) {
	s.evHandler("state: NetRequestPeerChain: started: %s", pr)
	defer s.evHandler("state: NetRequestPeerChain: completed: %s", pr)

	url := fmt.Sprintf("%s/block/list", fmt.Sprintf(baseURL, pr.Host))

	var chain []database.Block
	if err := send(http.MethodGet, url, nil, &chain); err != nil {
		return nil, err
	}

	s.evHandler("state: NetRequestPeerChain: blocks[%d]", len(chain))

	return chain, nil
}

// NetRequestPeerPool asks the peer for the transactions in its pool.
func (s *State) NetRequestPeerPool(pr peer.Peer) ([]database.Tx, error) {
	s.evHandler("state: NetRequestPeerPool: started: %s", pr)
	defer s.evHandler("state: NetRequestPeerPool: completed: %s", pr)

	url := fmt.Sprintf("%s/tx/list", fmt.Sprintf(baseURL, pr.Host))

	var pool []database.Tx
	if err := send(http.MethodGet, url, nil, &pool); err != nil {
		return nil, err
	}

	s.evHandler("state: NetRequestPeerPool: len[%d]", len(pool))

	return pool, nil
}

// NetRequestPeerAccounts asks the peer for its registered accounts.
func (s *State) NetRequestPeerAccounts(pr peer.Peer) ([]accounts.Account, error) {
	url := fmt.Sprintf("%s/accounts/list", fmt.Sprintf(baseURL, pr.Host))

	var accts []accounts.Account
	if err := send(http.MethodGet, url, nil, &accts); err != nil {
		return nil, err
	}

	s.evHandler("state: NetRequestPeerAccounts: peer[%s]: len[%d]", pr, len(accts))

	return accts, nil
}

// NetRequestPeerEvents asks the peer for its events.
func (s *State) NetRequestPeerEvents(pr peer.Peer) ([]event.Event, error) {
	url := fmt.Sprintf("%s/event/list", fmt.Sprintf(baseURL, pr.Host))

	var events []event.Event
	if err := send(http.MethodGet, url, nil, &events); err != nil {
		return nil, err
	}

	s.evHandler("state: NetRequestPeerEvents: peer[%s]: len[%d]", pr, len(events))

	return events, nil
}

// =============================================================================

// client is shared by every request to a peer.
var client = http.Client{
	Timeout: 10 * time.Second,
}

// send is a helper function to send an HTTP request to a node.
func send(method string, url string, dataSend any, dataRecv any) error {
	var req *http.Request

	switch {
	case dataSend != nil:
		data, err := json.Marshal(dataSend)
		if err != nil {
			return err
		}
		req, err = http.NewRequest(method, url, bytes.NewReader(data))
		if err != nil {
			return err
		}
		req.Header.Set("Content-Type", "application/json")

	default:
		var err error
		req, err = http.NewRequest(method, url, nil)
		if err != nil {
			return err
		}
	}

	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNoContent {
		return nil
	}

	if resp.StatusCode != http.StatusOK {
		msg, err := io.ReadAll(resp.Body)
		if err != nil {
			return err
		}
		return errors.New(string(msg))
	}

	if dataRecv != nil {
		if err := json.NewDecoder(resp.Body).Decode(dataRecv); err != nil {
			return err
		}
	}

	return nil
}
