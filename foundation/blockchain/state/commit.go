package state

import (
	"github.com/charityblock/ledger/foundation/blockchain/database"
	"github.com/charityblock/ledger/foundation/blockchain/message"
)

// Commit writes the committable pool transactions into a new block.
func (s *State) Commit() (database.Block, error) {
	var block database.Block

	err := s.exclusive(func() ([]message.Message, error) {
		b, msgs, err := s.commit()
		if err != nil {
			return nil, err
		}
		block = b

		return msgs, nil
	})

	return block, err
}

// =============================================================================

// commitIfReady commits a block once the pool holds enough valid local
// transactions. The caller must hold the write lock.
func (s *State) commitIfReady() ([]message.Message, error) {
	valid := s.mempool.Committable(s.utxos)
	if len(valid) < int(s.genesis.CommitThreshold) {
		s.Worker.SignalCommit()
		return nil, nil
	}

	_, msgs, err := s.commit()
	return msgs, err
}

// commit appends the committable pool transactions to the chain and
// finalizes them against the unspent output set. Mints go first. Transactions
// received from peers are left to the node they came from, so two nodes never
// put the same transaction into competing blocks. The caller must hold the
// write lock.
func (s *State) commit() (database.Block, []message.Message, error) {
	s.evHandler("state: commit: started")
	defer s.evHandler("state: commit: completed")

	valid := s.mempool.Committable(s.utxos)
	if len(valid) == 0 {
		return database.Block{}, nil, ErrNoTransactions
	}

	if limit := int(s.genesis.TransPerBlock); len(valid) > limit {
		valid = valid[:limit]
	}

	block, err := s.db.Append(valid, s.now())
	if err != nil {
		return database.Block{}, nil, err
	}

	s.mempool.Commit(s.utxos, valid)

	s.evHandler("state: commit: blk[%d]: trans[%d]: pool[%d]", block.Header.Number, len(valid), s.mempool.Count())

	msgs := []message.Message{message.UpdateLedger(), message.UpdatePool()}
	msgs = append(msgs, s.bookEvents(valid)...)

	prometheusBlocksCommitted.Inc()
	prometheusTransactionsCommitted.Add(float64(len(valid)))

	return block, msgs, nil
}

// bookEvents updates the donated and disbursed amounts of the events the
// committed transactions touch. Disbursements are announced to the peers.
func (s *State) bookEvents(trans []database.Tx) []message.Message {
	var msgs []message.Message

	for _, tx := range trans {
		switch tx.Kind {
		case database.TxKindTransfer:
			for _, out := range tx.Outputs {
				e, exists := s.events.Get(out.Address)
				if !exists || tx.Sender == e.Address {
					continue
				}

				e.AmountDonated += out.Amount
				s.events.Update(e)

				s.evHandler("state: commit: event[%s]: donated[%d]: total[%d]", e.Name, out.Amount, e.AmountDonated)
			}

		case database.TxKindDisbursement:
			e, exists := s.events.Get(tx.Sender)
			if !exists {
				continue
			}

			e.AmountDisbursed += tx.Amount
			s.events.Update(e)
			msgs = append(msgs, message.Disbursement(e))

			s.evHandler("state: commit: event[%s]: disbursed[%d]: total[%d]", e.Name, tx.Amount, e.AmountDisbursed)
		}
	}

	return msgs
}

// tallyEvents recomputes the donated and disbursed amounts of every known
// event from the chain. The caller must hold the write lock.
func (s *State) tallyEvents(chain []database.Block) {
	type totals struct {
		donated   uint64
		disbursed uint64
	}

	tally := make(map[string]totals)
	for _, block := range chain {
		for _, tx := range block.Trans {
			switch tx.Kind {
			case database.TxKindTransfer:
				for _, out := range tx.Outputs {
					if out.Address == tx.Sender {
						continue
					}
					t := tally[out.Address]
					t.donated += out.Amount
					tally[out.Address] = t
				}

			case database.TxKindDisbursement:
				t := tally[tx.Sender]
				t.disbursed += tx.Amount
				tally[tx.Sender] = t
			}
		}
	}

	for _, e := range s.events.List() {
		t := tally[e.Address]
		e.AmountDonated = t.donated
		e.AmountDisbursed = t.disbursed
		s.events.Update(e)
	}
}
