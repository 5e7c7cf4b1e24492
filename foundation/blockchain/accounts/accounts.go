// Package accounts maintains the directory of wallets known to the network.
// The directory only sizes acceptance quorums and labels history, balances
// live in the unspent output set.
package accounts

import (
	"sync"
)

// Account represents the metadata stored for a wallet.
type Account struct {
	Name    string `json:"name"`
	Address string `json:"address"`
	Created uint64 `json:"created"`
}

// Directory manages the accounts by address. The directory only grows.
type Directory struct {
	mu       sync.RWMutex
	accounts map[string]Account
	order    []string
}

// New constructs an empty directory.
func New() *Directory {
	return &Directory{
		accounts: make(map[string]Account),
	}
}

// Add inserts the account and returns false if the address is already known.
func (d *Directory) Add(acct Account) bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	if _, exists := d.accounts[acct.Address]; exists {
		return false
	}

	d.accounts[acct.Address] = acct
	d.order = append(d.order, acct.Address)

	return true
}

// Get returns the account for the address.
func (d *Directory) Get(address string) (Account, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	acct, exists := d.accounts[address]
	return acct, exists
}

// Name returns the name of the account or an empty string if the address
// isn't a known wallet.
func (d *Directory) Name(address string) string {
	acct, _ := d.Get(address)
	return acct.Name
}

// Count returns the number of accounts.
func (d *Directory) Count() int {
	d.mu.RLock()
	defer d.mu.RUnlock()

	return len(d.accounts)
}

// Copy returns the accounts in the order they were added.
func (d *Directory) Copy() []Account {
	d.mu.RLock()
	defer d.mu.RUnlock()

	accounts := make([]Account, len(d.order))
	for i, address := range d.order {
		accounts[i] = d.accounts[address]
	}

	return accounts
}
