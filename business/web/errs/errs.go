// Package errs provides types and support related to web v1 functionality.
package errs

import (
	"errors"
	"net/http"

	"github.com/charityblock/ledger/foundation/blockchain/database"
	"github.com/charityblock/ledger/foundation/blockchain/event"
	"github.com/charityblock/ledger/foundation/blockchain/mempool"
	"github.com/charityblock/ledger/foundation/blockchain/state"
)

// Response is the form used for API responses from failures in the API.
type Response struct {
	Error  string            `json:"error"`
	Fields map[string]string `json:"fields,omitempty"`
}

// Trusted is used to pass an error during the request through the
// application with web specific context.
type Trusted struct {
	Err    error
	Status int
}

// NewTrusted wraps a provided error with an HTTP status code. This
// function should be used when handlers encounter expected errors.
func NewTrusted(err error, status int) error {
	return &Trusted{err, status}
}

// Error implements the error interface. It uses the default message of the
// wrapped error. This is what will be shown in the services' logs.
func (re *Trusted) Error() string {
	return re.Err.Error()
}

// Unwrap returns the wrapped error.
func (re *Trusted) Unwrap() error {
	return re.Err
}

// IsTrusted checks if an error of type Trusted exists.
func IsTrusted(err error) bool {
	var re *Trusted
	return errors.As(err, &re)
}

// GetTrusted returns a copy of the Trusted pointer.
func GetTrusted(err error) *Trusted {
	var re *Trusted
	if !errors.As(err, &re) {
		return nil
	}
	return re
}

// =============================================================================

// statuses maps the ledger errors a caller can cause to a status code.
var statuses = []struct {
	err    error
	status int
}{
	{state.ErrWalletNotFound, http.StatusUnauthorized},
	{database.ErrAddressMismatch, http.StatusForbidden},
	{state.ErrEventNotFound, http.StatusNotFound},
	{state.ErrTxNotFound, http.StatusNotFound},
	{database.ErrBlockNotFound, http.StatusNotFound},
	{database.ErrInsufficientFunds, http.StatusUnprocessableEntity},
	{database.ErrFundsPending, http.StatusConflict},
	{state.ErrAlreadyAccepted, http.StatusConflict},
	{event.ErrAlreadyFinalized, http.StatusConflict},
	{event.ErrNotAccepted, http.StatusConflict},
	{event.ErrEventEnded, http.StatusConflict},
	{database.ErrChainNotLonger, http.StatusConflict},
	{database.ErrInvalidAmount, http.StatusBadRequest},
	{mempool.ErrInvalidTransaction, http.StatusBadRequest},
	{database.ErrInvalidChain, http.StatusBadRequest},
	{state.ErrNoTransactions, http.StatusBadRequest},
}

// FromLedger turns an error returned by the ledger into a trusted error when
// the caller caused it. Anything else is returned untouched.
func FromLedger(err error) error {
	if err == nil || IsTrusted(err) {
		return err
	}

	for _, s := range statuses {
		if errors.Is(err, s.err) {
			return NewTrusted(err, s.status)
		}
	}

	return err
}
