package state

import (
	"errors"
	"fmt"
	"time"

	"github.com/charityblock/ledger/foundation/blockchain/database"
	"github.com/charityblock/ledger/foundation/blockchain/event"
	"github.com/charityblock/ledger/foundation/blockchain/message"
)

// NewEvent represents the information needed to open an event.
type NewEvent struct {
	Name        string
	Description string
	StartDate   time.Time
	EndDate     time.Time
}

// CreateEvent opens a new event for the wallet behind the private key. The
// event gets its own freshly generated key, which is returned to the creator
// and is the only way to disburse the event's funds. The creator accepts the
// event on creation.
func (s *State) CreateEvent(privateKey string, ne NewEvent) (event.Event, string, error) {
	if !ne.EndDate.IsZero() && ne.EndDate.Before(ne.StartDate) {
		return event.Event{}, "", errors.New("event end date is before the start date")
	}

	kp, err := s.scheme.Generate()
	if err != nil {
		return event.Event{}, "", err
	}

	var e event.Event

	err = s.exclusive(func() ([]message.Message, error) {
		w, acct, err := s.resolveWallet(privateKey)
		if err != nil {
			return nil, err
		}

		e = event.New(kp.Address, ne.Name, ne.Description, w.Address(), acct.Name, ne.StartDate, ne.EndDate, s.now())
		e.Accept(w.Address(), s.accounts.Count(), s.genesis.Quorum)

		if err := s.events.Add(e); err != nil {
			return nil, err
		}

		s.evHandler("viewer: new event: name[%s]: address[%s]: status[%s]", e.Name, short(e.Address), e.Status)

		return []message.Message{message.AddEvent(e)}, nil
	})
	if err != nil {
		return event.Event{}, "", err
	}

	prometheusEventsCreated.Inc()

	return e, kp.PrivateKey, nil
}

// AcceptEvent records the acceptance of the event by the wallet behind the
// private key.
func (s *State) AcceptEvent(privateKey string, eventAddress string) (event.Event, error) {
	var e event.Event

	err := s.exclusive(func() ([]message.Message, error) {
		w, _, err := s.resolveWallet(privateKey)
		if err != nil {
			return nil, err
		}

		e, err = s.resolveEvent(eventAddress)
		if err != nil {
			return nil, err
		}

		if e.Status != event.StatusPending {
			return nil, fmt.Errorf("%w: %s is %s", event.ErrAlreadyFinalized, e.Name, e.Status)
		}

		if !e.Accept(w.Address(), s.accounts.Count(), s.genesis.Quorum) {
			return nil, ErrAlreadyAccepted
		}

		s.events.Update(e)

		s.evHandler("viewer: accept event: name[%s]: accepted[%d]: status[%s]", e.Name, len(e.AcceptedBy), e.Status)

		return []message.Message{message.AcceptEvent(e.Address, w.Address())}, nil
	})

	return e, err
}

// CheckAccept reports whether the wallet behind the private key accepted
// the event.
func (s *State) CheckAccept(privateKey string, eventAddress string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	w, _, err := s.resolveWallet(privateKey)
	if err != nil {
		return false, err
	}

	e, err := s.resolveEvent(eventAddress)
	if err != nil {
		return false, err
	}

	return e.HasAccepted(w.Address()), nil
}

// Disburse pays amount out of the event. The private key must be the
// event's own key.
func (s *State) Disburse(eventPrivateKey string, eventAddress string, amount uint64, reason string) (database.Tx, error) {
	kp, err := s.scheme.Derive(eventPrivateKey)
	if err != nil {
		return database.Tx{}, fmt.Errorf("%w: %s", database.ErrAddressMismatch, err)
	}

	var tx database.Tx

	err = s.exclusive(func() ([]message.Message, error) {
		e, err := s.resolveEvent(eventAddress)
		if err != nil {
			return nil, err
		}

		signed, err := e.CreateDisbursement(s.scheme, kp, amount, s.utxos, reason, s.stamp())
		if err != nil {
			return nil, err
		}

		if err := s.mempool.Submit(signed, s.utxos); err != nil {
			prometheusTransactionsRejected.Inc()
			return nil, err
		}
		tx = signed

		prometheusTransactionsSubmitted.Inc()
		s.evHandler("viewer: disbursement: event[%s]: amount[%d]: reason[%s]", e.Name, amount, reason)

		msgs := []message.Message{message.UpdatePool()}

		commitMsgs, err := s.commitIfReady()
		if err != nil {
			return nil, err
		}

		return append(msgs, commitMsgs...), nil
	})

	return tx, err
}

// EndEvent ends the event. The private key must belong to the event's
// creator or be the event's own key. Ending an ended event is not an error.
func (s *State) EndEvent(privateKey string, eventAddress string) (event.Event, error) {
	kp, err := s.scheme.Derive(privateKey)
	if err != nil {
		return event.Event{}, fmt.Errorf("%w: %s", database.ErrAddressMismatch, err)
	}

	var e event.Event

	err = s.exclusive(func() ([]message.Message, error) {
		e, err = s.resolveEvent(eventAddress)
		if err != nil {
			return nil, err
		}

		if kp.Address != e.Creator && kp.Address != e.Address {
			return nil, fmt.Errorf("%w: not allowed to end event %s", database.ErrAddressMismatch, e.Name)
		}

		if e.Status == event.StatusEnded {
			return nil, nil
		}

		e.End()
		s.events.Update(e)

		s.evHandler("viewer: end event: name[%s]", e.Name)

		return []message.Message{message.ForceEndEvent(e)}, nil
	})

	return e, err
}
