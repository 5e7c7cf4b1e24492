// Package message defines the messages nodes exchange to keep the ledger,
// the pool, the events and the accounts in sync.
package message

import (
	"errors"
	"fmt"

	"github.com/charityblock/ledger/foundation/blockchain/accounts"
	"github.com/charityblock/ledger/foundation/blockchain/event"
)

// Kind represents the type of change a message announces.
type Kind string

// Set of message kinds.
const (
	KindUpdateLedger  Kind = "update_ledger"   // Pull the full chain from the sender.
	KindUpdatePool    Kind = "update_pool"     // Pull the pool from the sender.
	KindAddEvent      Kind = "add_event"       // Insert the event snapshot.
	KindAcceptEvent   Kind = "accept_event"    // Replay an acceptance.
	KindDisbursement  Kind = "disbursement"    // Reconcile the event snapshot.
	KindForceEndEvent Kind = "force_end_event" // Replay the end of an event.
	KindNewUser       Kind = "new_user"        // Insert the account.
)

// Message represents a change announced by a node. From carries the host of
// the node that sent it so the receiver knows where to pull from.
type Message struct {
	Kind         Kind              `json:"kind"`
	From         string            `json:"from"`
	Event        *event.Event      `json:"event,omitempty"`
	EventAddress string            `json:"event_address,omitempty"`
	Identity     string            `json:"identity,omitempty"`
	Account      *accounts.Account `json:"account,omitempty"`
}

// UpdateLedger constructs a message announcing a new block.
func UpdateLedger() Message {
	return Message{Kind: KindUpdateLedger}
}

// UpdatePool constructs a message announcing a change to the pool.
func UpdatePool() Message {
	return Message{Kind: KindUpdatePool}
}

// AddEvent constructs a message announcing a new event.
func AddEvent(e event.Event) Message {
	e = e.Copy()
	return Message{Kind: KindAddEvent, Event: &e}
}

// AcceptEvent constructs a message announcing the identity accepted the event.
func AcceptEvent(eventAddress string, identity string) Message {
	return Message{Kind: KindAcceptEvent, EventAddress: eventAddress, Identity: identity}
}

// Disbursement constructs a message carrying the event after a disbursement.
func Disbursement(e event.Event) Message {
	e = e.Copy()
	return Message{Kind: KindDisbursement, Event: &e}
}

// ForceEndEvent constructs a message announcing the event ended.
func ForceEndEvent(e event.Event) Message {
	e = e.Copy()
	return Message{Kind: KindForceEndEvent, Event: &e}
}

// NewUser constructs a message announcing a new account.
func NewUser(acct accounts.Account) Message {
	return Message{Kind: KindNewUser, Account: &acct}
}

// Validate checks the message carries the payload its kind requires.
func (m Message) Validate() error {
	switch m.Kind {
	case KindUpdateLedger, KindUpdatePool:
		if m.From == "" {
			return errors.New("from host is required to pull")
		}

	case KindAddEvent, KindDisbursement, KindForceEndEvent:
		if m.Event == nil || m.Event.Address == "" {
			return errors.New("event snapshot is required")
		}

	case KindAcceptEvent:
		if m.EventAddress == "" || m.Identity == "" {
			return errors.New("event address and identity are required")
		}

	case KindNewUser:
		if m.Account == nil || m.Account.Address == "" {
			return errors.New("account is required")
		}

	default:
		return fmt.Errorf("unknown message kind %q", m.Kind)
	}

	return nil
}

// String implements the fmt.Stringer interface for logging.
func (m Message) String() string {
	return fmt.Sprintf("%s:%s", m.Kind, m.From)
}
