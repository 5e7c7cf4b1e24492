package utxo_test

import (
	"errors"
	"testing"

	"github.com/charityblock/ledger/foundation/blockchain/utxo"
)

// Success and failure markers.
const (
	success = "✓"
	failed  = "✗"
)

func Test_CRUD(t *testing.T) {
	type table struct {
		name    string
		outputs []utxo.UnspentOutput
		owner   string
		order   []string
		balance uint64
		supply  uint64
	}

	tt := []table{
		{
			name: "basic",
			outputs: []utxo.UnspentOutput{
				{TxID: "0x03", Index: 0, Address: "bill", Amount: 30},
				{TxID: "0x01", Index: 1, Address: "jill", Amount: 10},
				{TxID: "0x02", Index: 0, Address: "bill", Amount: 20},
				{TxID: "0x01", Index: 0, Address: "bill", Amount: 50},
			},
			owner:   "bill",
			order:   []string{"0x03", "0x02", "0x01"},
			balance: 100,
			supply:  110,
		},
	}

	t.Log("Given the need to manage unspent outputs.")
	{
		for testID, tst := range tt {
			t.Logf("\tTest %d:\tWhen handling a set of outputs.", testID)
			{
				f := func(t *testing.T) {
					set := utxo.New()
					for _, uo := range tst.outputs {
						set.Insert(uo)
					}

					got := set.ByAddress(tst.owner, false)
					if len(got) != len(tst.order) {
						t.Fatalf("\t%s\tTest %d:\tShould get back %d outputs, got %d.", failed, testID, len(tst.order), len(got))
					}
					for i, uo := range got {
						if uo.TxID != tst.order[i] {
							t.Logf("\t%s\tTest %d:\tgot: %s", failed, testID, uo.TxID)
							t.Logf("\t%s\tTest %d:\texp: %s", failed, testID, tst.order[i])
							t.Fatalf("\t%s\tTest %d:\tShould get outputs in insertion order.", failed, testID)
						}
					}
					t.Logf("\t%s\tTest %d:\tShould get outputs in insertion order.", success, testID)

					if bal := set.Balance(tst.owner); bal != tst.balance {
						t.Fatalf("\t%s\tTest %d:\tShould have balance %d, got %d.", failed, testID, tst.balance, bal)
					}
					t.Logf("\t%s\tTest %d:\tShould have the right balance.", success, testID)

					first := got[0].OutPoint()
					if err := set.Lock(first); err != nil {
						t.Fatalf("\t%s\tTest %d:\tShould be able to lock an output: %s", failed, testID, err)
					}
					t.Logf("\t%s\tTest %d:\tShould be able to lock an output.", success, testID)

					if err := set.Lock(first); !errors.Is(err, utxo.ErrAlreadyLocked) {
						t.Fatalf("\t%s\tTest %d:\tShould not be able to lock an output twice: %v", failed, testID, err)
					}
					t.Logf("\t%s\tTest %d:\tShould not be able to lock an output twice.", success, testID)

					if bal := set.Balance(tst.owner); bal != tst.balance-got[0].Amount {
						t.Fatalf("\t%s\tTest %d:\tShould exclude locked outputs from the balance, got %d.", failed, testID, bal)
					}
					if total := set.Total(tst.owner); total != tst.balance {
						t.Fatalf("\t%s\tTest %d:\tShould include locked outputs in the total, got %d.", failed, testID, total)
					}
					t.Logf("\t%s\tTest %d:\tShould separate balance and total.", success, testID)

					if supply := set.Supply(); supply != tst.supply {
						t.Fatalf("\t%s\tTest %d:\tShould sum every output into the supply, got %d.", failed, testID, supply)
					}
					t.Logf("\t%s\tTest %d:\tShould sum every output into the supply.", success, testID)

					set.Unlock(first)
					set.Remove(first)
					if _, exists := set.Get(first); exists {
						t.Fatalf("\t%s\tTest %d:\tShould be able to remove an output.", failed, testID)
					}
					t.Logf("\t%s\tTest %d:\tShould be able to remove an output.", success, testID)

					if err := set.Lock(first); !errors.Is(err, utxo.ErrNotFound) {
						t.Fatalf("\t%s\tTest %d:\tShould not lock a missing output: %v", failed, testID, err)
					}
					t.Logf("\t%s\tTest %d:\tShould not lock a missing output.", success, testID)

					set.Reset()
					if set.Count() != 0 {
						t.Fatalf("\t%s\tTest %d:\tShould be able to reset the set.", failed, testID)
					}
					t.Logf("\t%s\tTest %d:\tShould be able to reset the set.", success, testID)
				}

				t.Run(tst.name, f)
			}
		}
	}
}
