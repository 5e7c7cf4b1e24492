// Package event implements the escrow accounts used for charity campaigns.
// An event must clear an acceptance quorum before it can receive donations,
// and only the holder of the event's own key can move its funds.
package event

import (
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/charityblock/ledger/foundation/blockchain/database"
	"github.com/charityblock/ledger/foundation/blockchain/genesis"
	"github.com/charityblock/ledger/foundation/blockchain/signature"
	"github.com/charityblock/ledger/foundation/blockchain/utxo"
)

// Set of error variables for the event lifecycle.
var (
	ErrAlreadyFinalized = errors.New("event is already finalized")
	ErrNotAccepted      = errors.New("event has not been accepted")
	ErrEventEnded       = errors.New("event has ended")
)

// Event represents a charity campaign and the ledger address that holds its
// funds.
type Event struct {
	Address         string    `json:"address"`
	Name            string    `json:"name"`
	Description     string    `json:"description"`
	Creator         string    `json:"creator"`
	CreatorName     string    `json:"creator_name"`
	Status          Status    `json:"status"`
	AcceptedBy      []string  `json:"accepted_by"`
	StartDate       time.Time `json:"start_date"`
	EndDate         time.Time `json:"end_date"`
	AmountDonated   uint64    `json:"amount_donated"`
	AmountDisbursed uint64    `json:"amount_disbursed"`
	TimeStamp       uint64    `json:"timestamp"`
}

// New constructs a pending event.
func New(address string, name string, description string, creator string, creatorName string, start time.Time, end time.Time, now time.Time) Event {
	return Event{
		Address:     address,
		Name:        name,
		Description: description,
		Creator:     creator,
		CreatorName: creatorName,
		Status:      StatusPending,
		AcceptedBy:  []string{},
		StartDate:   start,
		EndDate:     end,
		TimeStamp:   uint64(now.UTC().UnixMilli()),
	}
}

// Copy returns a copy that shares no memory with the event.
func (e Event) Copy() Event {
	e.AcceptedBy = slices.Clone(e.AcceptedBy)
	return e
}

// HasAccepted reports whether the identity has accepted the event.
func (e Event) HasAccepted(identity string) bool {
	return slices.Contains(e.AcceptedBy, identity)
}

// Accept records the identity's acceptance and returns false if it was
// already recorded. The first time the quorum is met for n accounts the event
// becomes accepted, and it stays accepted no matter how n changes later.
func (e *Event) Accept(identity string, n int, quorum genesis.Quorum) bool {
	if e.HasAccepted(identity) {
		return false
	}

	e.AcceptedBy = append(e.AcceptedBy, identity)

	if e.Status == StatusPending && quorumMet(len(e.AcceptedBy), n, quorum) {
		if status, err := transition(e.Status, transitionAccept); err == nil {
			e.Status = status
		}
	}

	return true
}

// PercentAccepted returns the share of the n accounts that accepted.
func (e Event) PercentAccepted(n int) float64 {
	if n == 0 {
		return 0
	}

	return float64(len(e.AcceptedBy)) * 100 / float64(n)
}

// End moves the event to ended. Ending an ended event does nothing.
func (e *Event) End() {
	if status, err := transition(e.Status, transitionEnd); err == nil {
		e.Status = status
	}
}

// Expire ends the event when now is past its end date and reports whether
// the event is ended.
func (e *Event) Expire(now time.Time) bool {
	if e.Status != StatusEnded && !e.EndDate.IsZero() && now.After(e.EndDate) {
		e.End()
	}

	return e.Status == StatusEnded
}

// CurrentBalance returns the unlocked funds held at the event's address.
func (e Event) CurrentBalance(set *utxo.Set) uint64 {
	return set.Balance(e.Address)
}

// CreateDisbursement builds and signs the transaction that pays amount out of
// the event. The key pair must control the event's address. The transaction
// is returned unsent.
func (e Event) CreateDisbursement(scheme signature.Scheme, kp signature.KeyPair, amount uint64, set *utxo.Set, reason string, now time.Time) (database.Tx, error) {
	if kp.Address != e.Address {
		return database.Tx{}, fmt.Errorf("%w: key does not control event %s", database.ErrAddressMismatch, e.Name)
	}

	if e.Status == StatusPending {
		return database.Tx{}, ErrNotAccepted
	}

	plan, err := database.BuildFundingPlan(e.Address, amount, set)
	if err != nil {
		return database.Tx{}, err
	}

	tx := database.NewDisbursement(e.Address, plan, amount, reason, now)

	return tx.Sign(scheme, kp, set)
}

// =============================================================================

// quorumMet applies the acceptance rule. Small directories need every
// account, larger ones need the configured ratio.
func quorumMet(accepted int, n int, quorum genesis.Quorum) bool {
	if n <= 0 {
		return false
	}

	if n <= quorum.UnanimityLimit {
		return accepted >= n
	}

	return float64(accepted)/float64(n) >= quorum.Ratio
}
