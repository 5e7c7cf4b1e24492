// Package wallet provides fund selection and signing for a single key pair.
// The wallet never holds balances, it queries the unspent output set by
// address.
package wallet

import (
	"errors"
	"fmt"
	"time"

	"github.com/charityblock/ledger/foundation/blockchain/database"
	"github.com/charityblock/ledger/foundation/blockchain/signature"
	"github.com/charityblock/ledger/foundation/blockchain/utxo"
)

// Wallet represents the key pair of an account and the scheme used to
// sign with it.
type Wallet struct {
	scheme signature.Scheme
	kp     signature.KeyPair
}

// New constructs a wallet for the specified private key.
func New(scheme signature.Scheme, privateKey string) (Wallet, error) {
	kp, err := scheme.Derive(privateKey)
	if err != nil {
		return Wallet{}, err
	}

	return Wallet{scheme: scheme, kp: kp}, nil
}

// Generate constructs a wallet with a brand new key pair.
func Generate(scheme signature.Scheme) (Wallet, error) {
	kp, err := scheme.Generate()
	if err != nil {
		return Wallet{}, err
	}

	return Wallet{scheme: scheme, kp: kp}, nil
}

// Address returns the address of the wallet.
func (w Wallet) Address() string {
	return w.kp.Address
}

// KeyPair returns the key pair behind the wallet.
func (w Wallet) KeyPair() signature.KeyPair {
	return w.kp
}

// Balance returns the sum of the unlocked outputs owned by the wallet.
func (w Wallet) Balance(set *utxo.Set) uint64 {
	return set.Balance(w.kp.Address)
}

// CreateTransaction builds an unsigned transaction paying amount to the
// receipt address. Any overshoot from fund selection comes back to the
// wallet as a second output.
func (w Wallet) CreateTransaction(receipt string, amount uint64, reason string, set *utxo.Set, now time.Time) (database.Tx, error) {
	if receipt == "" {
		return database.Tx{}, errors.New("receipt address is required")
	}

	plan, err := database.BuildFundingPlan(w.kp.Address, amount, set)
	if err != nil {
		return database.Tx{}, err
	}

	return database.NewTransfer(w.kp.Address, plan, receipt, amount, reason, now), nil
}

// Sign signs the transaction with the wallet's key pair. The transaction must
// have been created by this wallet.
func (w Wallet) Sign(tx database.Tx, set *utxo.Set) (database.Tx, error) {
	if tx.Sender != w.kp.Address {
		return database.Tx{}, fmt.Errorf("%w: transaction sender is not this wallet", database.ErrAddressMismatch)
	}

	return tx.Sign(w.scheme, w.kp, set)
}

// Mint builds the transaction that adds amount to the address. Submitting it
// is a trusted operation.
func Mint(address string, amount uint64, now time.Time) (database.Tx, error) {
	if address == "" {
		return database.Tx{}, errors.New("address is required")
	}

	return database.NewMint(address, amount, "add money to wallet", now)
}
