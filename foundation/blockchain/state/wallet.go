package state

import (
	"fmt"
	"math"

	"github.com/charityblock/ledger/foundation/blockchain/accounts"
	"github.com/charityblock/ledger/foundation/blockchain/database"
	"github.com/charityblock/ledger/foundation/blockchain/event"
	"github.com/charityblock/ledger/foundation/blockchain/message"
	"github.com/charityblock/ledger/foundation/blockchain/wallet"
)

// CreateWallet generates a new key pair and registers the wallet under the
// specified name.
func (s *State) CreateWallet(name string) (wallet.Wallet, accounts.Account, error) {
	w, err := wallet.Generate(s.scheme)
	if err != nil {
		return wallet.Wallet{}, accounts.Account{}, err
	}

	acct := accounts.Account{
		Name:    name,
		Address: w.Address(),
		Created: uint64(s.now().UTC().UnixMilli()),
	}

	err = s.exclusive(func() ([]message.Message, error) {
		if !s.accounts.Add(acct) {
			return nil, fmt.Errorf("wallet %s already exists", acct.Address)
		}

		s.evHandler("viewer: new wallet: name[%s]: accounts[%d]", acct.Name, s.accounts.Count())

		return []message.Message{message.NewUser(acct)}, nil
	})
	if err != nil {
		return wallet.Wallet{}, accounts.Account{}, err
	}

	prometheusWalletsCreated.Inc()

	return w, acct, nil
}

// AccessWallet resolves the wallet for the private key.
func (s *State) AccessWallet(privateKey string) (wallet.Wallet, accounts.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.resolveWallet(privateKey)
}

// Mint adds value to the wallet behind the private key. Mints are committed
// into a block right away.
func (s *State) Mint(privateKey string, amount uint64) (database.Block, error) {
	var block database.Block

	err := s.exclusive(func() ([]message.Message, error) {
		w, _, err := s.resolveWallet(privateKey)
		if err != nil {
			return nil, err
		}

		if supply := s.utxos.Supply(); amount > math.MaxUint64-supply {
			return nil, fmt.Errorf("%w: minting %d would overflow the supply of %d", database.ErrInvalidAmount, amount, supply)
		}

		tx, err := wallet.Mint(w.Address(), amount, s.stamp())
		if err != nil {
			return nil, err
		}

		if err := s.mempool.SubmitMint(tx); err != nil {
			return nil, err
		}

		b, msgs, err := s.commit()
		if err != nil {
			return nil, err
		}
		block = b

		if !block.Contains(tx.ID) {
			return msgs, fmt.Errorf("mint %s was left out of blk[%d]", tx, block.Header.Number)
		}

		s.evHandler("viewer: mint: address[%s]: amount[%d]: blk[%d]", short(w.Address()), amount, block.Header.Number)

		return msgs, nil
	})

	return block, err
}

// Transfer moves amount from the wallet behind the private key to the receipt
// address. Transfers to an event address are donations and require the event
// to be accepted and not past its end date. Once enough valid transactions
// are pending a block is committed.
func (s *State) Transfer(privateKey string, receipt string, amount uint64, reason string) (database.Tx, error) {
	var tx database.Tx

	err := s.exclusive(func() ([]message.Message, error) {
		w, _, err := s.resolveWallet(privateKey)
		if err != nil {
			return nil, err
		}

		var msgs []message.Message

		if e, isEvent := s.events.Get(receipt); isEvent {
			if e.Status != event.StatusEnded && e.Expire(s.now()) {
				s.events.Update(e)
				s.evHandler("state: Transfer: event[%s]: ended by end date", e.Name)
				msgs = append(msgs, message.ForceEndEvent(e))
			}

			switch e.Status {
			case event.StatusEnded:
				return msgs, fmt.Errorf("%w: %s", event.ErrEventEnded, e.Name)
			case event.StatusPending:
				return nil, fmt.Errorf("%w: %s", event.ErrNotAccepted, e.Name)
			}
		}

		unsigned, err := w.CreateTransaction(receipt, amount, reason, s.utxos, s.stamp())
		if err != nil {
			return nil, err
		}

		signed, err := w.Sign(unsigned, s.utxos)
		if err != nil {
			return nil, err
		}

		if err := s.mempool.Submit(signed, s.utxos); err != nil {
			prometheusTransactionsRejected.Inc()
			return nil, err
		}
		tx = signed

		prometheusTransactionsSubmitted.Inc()
		s.evHandler("viewer: transfer: tx[%s]: from[%s]: to[%s]: amount[%d]", tx, short(tx.Sender), short(receipt), amount)

		msgs = append(msgs, message.UpdatePool())

		commitMsgs, err := s.commitIfReady()
		if err != nil {
			return nil, err
		}

		return append(msgs, commitMsgs...), nil
	})

	return tx, err
}

// short trims an address for logging.
func short(address string) string {
	if len(address) > 12 {
		return address[:12]
	}
	return address
}
