package mempool_test

import (
	"errors"
	"testing"
	"time"

	"github.com/charityblock/ledger/foundation/blockchain/database"
	"github.com/charityblock/ledger/foundation/blockchain/mempool"
	"github.com/charityblock/ledger/foundation/blockchain/signature"
	"github.com/charityblock/ledger/foundation/blockchain/utxo"
)

// Success and failure markers.
const (
	success = "✓"
	failed  = "✗"
)

const pkHexKey = "fae85851bdf5c9f49923722ce38f3c1defcfd3619ef5453230a58ad805499959"

var now = time.Date(2026, time.March, 1, 12, 0, 0, 0, time.UTC)

func transfer(t *testing.T, scheme signature.Scheme, kp signature.KeyPair, set *utxo.Set, to string, amount uint64) database.Tx {
	plan, err := database.BuildFundingPlan(kp.Address, amount, set)
	if err != nil {
		t.Fatalf("\t%s\tShould be able to build a funding plan: %s", failed, err)
	}

	tx, err := database.NewTransfer(kp.Address, plan, to, amount, "donation", now).Sign(scheme, kp, set)
	if err != nil {
		t.Fatalf("\t%s\tShould be able to sign the transaction: %s", failed, err)
	}

	return tx
}

// =============================================================================

func Test_Submit(t *testing.T) {
	var scheme signature.Secp256k1

	kp, err := scheme.Derive(pkHexKey)
	if err != nil {
		t.Fatalf("\t%s\tShould be able to derive the key pair: %s", failed, err)
	}
	other, err := scheme.Generate()
	if err != nil {
		t.Fatalf("\t%s\tShould be able to generate a key pair: %s", failed, err)
	}

	t.Log("Given the need to admit transactions into the pool.")
	{
		set := utxo.New()
		set.Insert(utxo.UnspentOutput{TxID: "0x01", Index: 0, Address: kp.Address, Amount: 100})
		mp := mempool.New(scheme)

		first := transfer(t, scheme, kp, set, other.Address, 60)
		second := transfer(t, scheme, kp, set, "0xevent", 30)

		t.Logf("\tTest 0:\tWhen submitting a valid transaction.")
		{
			if err := mp.Submit(first, set); err != nil {
				t.Fatalf("\t%s\tTest 0:\tShould be able to submit: %s", failed, err)
			}
			t.Logf("\t%s\tTest 0:\tShould be able to submit.", success)

			uo, _ := set.Get(utxo.OutPoint{TxID: "0x01", Index: 0})
			if !uo.Locked {
				t.Fatalf("\t%s\tTest 0:\tShould lock the spent output.", failed)
			}
			t.Logf("\t%s\tTest 0:\tShould lock the spent output.", success)
		}

		t.Logf("\tTest 1:\tWhen submitting a second spend of the same output.")
		{
			if err := mp.Submit(second, set); !errors.Is(err, mempool.ErrInvalidTransaction) {
				t.Fatalf("\t%s\tTest 1:\tShould reject the double spend: %v", failed, err)
			}
			if mp.Count() != 1 {
				t.Fatalf("\t%s\tTest 1:\tShould leave the pool untouched.", failed)
			}
			t.Logf("\t%s\tTest 1:\tShould reject the double spend.", success)
		}

		t.Logf("\tTest 2:\tWhen submitting malformed transactions.")
		{
			fresh := utxo.New()
			fresh.Insert(utxo.UnspentOutput{TxID: "0x02", Index: 0, Address: kp.Address, Amount: 100})

			mint, _ := database.NewMint(kp.Address, 500, "free money", now)
			inflated := transfer(t, scheme, kp, fresh, other.Address, 40)
			inflated.Outputs[0].Amount = 90
			inflated.ID = inflated.ComputeID()
			inflated, _ = inflated.Sign(scheme, kp, fresh)
			misstated := transfer(t, scheme, kp, fresh, other.Address, 40)
			misstated.Outputs[0].Amount, misstated.Outputs[1].Amount = 60, 40
			misstated.ID = misstated.ComputeID()
			misstated, _ = misstated.Sign(scheme, kp, fresh)
			stolen := transfer(t, scheme, kp, fresh, other.Address, 40)
			hash, _ := signature.HashBytes(stolen.ID)
			stolen.Inputs[0].Signature, _ = scheme.Sign(other.PrivateKey, hash)

			bad := map[string]database.Tx{
				"mint":      mint,
				"inflated":  inflated,
				"misstated": misstated,
				"signature": stolen,
			}

			for name, tx := range bad {
				if err := mp.Submit(tx, fresh); !errors.Is(err, mempool.ErrInvalidTransaction) {
					t.Fatalf("\t%s\tTest 2:\tShould reject the %s transaction: %v", failed, name, err)
				}
				t.Logf("\t%s\tTest 2:\tShould reject the %s transaction.", success, name)
			}

			if uo, _ := fresh.Get(utxo.OutPoint{TxID: "0x02", Index: 0}); uo.Locked {
				t.Fatalf("\t%s\tTest 2:\tShould not lock anything on failure.", failed)
			}
			t.Logf("\t%s\tTest 2:\tShould not lock anything on failure.", success)

			if err := mp.SubmitMint(mint); err != nil {
				t.Fatalf("\t%s\tTest 2:\tShould accept a mint on the trusted path: %s", failed, err)
			}
			t.Logf("\t%s\tTest 2:\tShould accept a mint on the trusted path.", success)
		}
	}
}

func Test_Commit(t *testing.T) {
	var scheme signature.Secp256k1

	kp, err := scheme.Derive(pkHexKey)
	if err != nil {
		t.Fatalf("\t%s\tShould be able to derive the key pair: %s", failed, err)
	}
	a, _ := scheme.Generate()
	b, _ := scheme.Generate()

	t.Log("Given the need to commit pool transactions.")
	{
		t.Logf("\tTest 0:\tWhen committing a spend of 100 into 60 and 40.")
		{
			set := utxo.New()
			o1 := utxo.OutPoint{TxID: "0x01", Index: 0}
			set.Insert(utxo.UnspentOutput{TxID: o1.TxID, Index: o1.Index, Address: kp.Address, Amount: 100})
			mp := mempool.New(scheme)

			plan, _ := database.BuildFundingPlan(kp.Address, 100, set)
			tx := database.NewTransfer(kp.Address, plan, a.Address, 60, "split", now)
			tx.Outputs = append(tx.Outputs, database.Output{Address: b.Address, Amount: 40})
			tx.ID = tx.ComputeID()
			tx, err := tx.Sign(scheme, kp, set)
			if err != nil {
				t.Fatalf("\t%s\tTest 0:\tShould be able to sign: %s", failed, err)
			}

			if err := mp.Submit(tx, set); err != nil {
				t.Fatalf("\t%s\tTest 0:\tShould be able to submit: %s", failed, err)
			}

			valid := mp.CurrentlyValid(set)
			if len(valid) != 1 {
				t.Fatalf("\t%s\tTest 0:\tShould have one valid transaction, got %d.", failed, len(valid))
			}
			mp.Commit(set, valid)

			if _, exists := set.Get(o1); exists {
				t.Fatalf("\t%s\tTest 0:\tShould remove the consumed output.", failed)
			}
			t.Logf("\t%s\tTest 0:\tShould remove the consumed output.", success)

			for _, exp := range []struct {
				address string
				amount  uint64
			}{{a.Address, 60}, {b.Address, 40}} {
				got := set.ByAddress(exp.address, true)
				if len(got) != 1 || got[0].Amount != exp.amount || got[0].Locked {
					t.Fatalf("\t%s\tTest 0:\tShould have an unlocked output of %d.", failed, exp.amount)
				}
			}
			t.Logf("\t%s\tTest 0:\tShould insert the new outputs unlocked.", success)

			if mp.Count() != 0 {
				t.Fatalf("\t%s\tTest 0:\tShould empty the pool.", failed)
			}
			t.Logf("\t%s\tTest 0:\tShould empty the pool.", success)
		}

		t.Logf("\tTest 1:\tWhen a pooled spend is superseded by a committed one.")
		{
			set := utxo.New()
			set.Insert(utxo.UnspentOutput{TxID: "0x01", Index: 0, Address: kp.Address, Amount: 100})
			set.Insert(utxo.UnspentOutput{TxID: "0x02", Index: 0, Address: kp.Address, Amount: 50})
			mp := mempool.New(scheme)

			plan := database.FundingPlan{Included: set.Copy()}
			pooled, err := database.NewTransfer(kp.Address, plan, a.Address, 150, "all", now).Sign(scheme, kp, set)
			if err != nil {
				t.Fatalf("\t%s\tTest 1:\tShould be able to sign: %s", failed, err)
			}
			if err := mp.Submit(pooled, set); err != nil {
				t.Fatalf("\t%s\tTest 1:\tShould be able to submit: %s", failed, err)
			}

			conflict := database.NewTransfer(kp.Address, database.FundingPlan{Included: set.Copy()[:1]}, b.Address, 100, "other", now)
			conflict.Apply(set)

			if valid := mp.CurrentlyValid(set); len(valid) != 0 {
				t.Fatalf("\t%s\tTest 1:\tShould drop the superseded transaction.", failed)
			}
			t.Logf("\t%s\tTest 1:\tShould drop the superseded transaction.", success)

			uo, exists := set.Get(utxo.OutPoint{TxID: "0x02", Index: 0})
			if !exists || uo.Locked {
				t.Fatalf("\t%s\tTest 1:\tShould release the remaining locks.", failed)
			}
			t.Logf("\t%s\tTest 1:\tShould release the remaining locks.", success)
		}
	}
}

func Test_Committable(t *testing.T) {
	var scheme signature.Secp256k1

	kp, err := scheme.Derive(pkHexKey)
	if err != nil {
		t.Fatalf("\t%s\tShould be able to derive the key pair: %s", failed, err)
	}
	peer, _ := scheme.Generate()
	to, _ := scheme.Generate()

	t.Log("Given the need to commit only what this node owns.")
	{
		set := utxo.New()
		set.Insert(utxo.UnspentOutput{TxID: "0x01", Index: 0, Address: kp.Address, Amount: 100})
		set.Insert(utxo.UnspentOutput{TxID: "0x02", Index: 0, Address: peer.Address, Amount: 100})
		mp := mempool.New(scheme)

		foreign := transfer(t, scheme, peer, set, to.Address, 10)
		local := transfer(t, scheme, kp, set, to.Address, 20)
		mint, _ := database.NewMint(to.Address, 500, "mint", now)

		if err := mp.SubmitForeign(foreign, set); err != nil {
			t.Fatalf("\t%s\tShould be able to submit the peer transaction: %s", failed, err)
		}
		if err := mp.Submit(local, set); err != nil {
			t.Fatalf("\t%s\tShould be able to submit the local transaction: %s", failed, err)
		}
		if err := mp.SubmitMint(mint); err != nil {
			t.Fatalf("\t%s\tShould be able to submit the mint: %s", failed, err)
		}

		t.Logf("\tTest 0:\tWhen selecting transactions for a block.")
		{
			got := mp.Committable(set)
			if len(got) != 2 || got[0].ID != mint.ID || got[1].ID != local.ID {
				t.Fatalf("\t%s\tTest 0:\tShould return the mint then the local transaction, got %v.", failed, got)
			}
			t.Logf("\t%s\tTest 0:\tShould return the mint then the local transaction.", success)

			if mp.Count() != 3 || !mp.IsForeign(foreign.ID) {
				t.Fatalf("\t%s\tTest 0:\tShould keep the peer transaction pending.", failed)
			}
			t.Logf("\t%s\tTest 0:\tShould keep the peer transaction pending.", success)

			if uo, _ := set.Get(utxo.OutPoint{TxID: "0x02", Index: 0}); !uo.Locked {
				t.Fatalf("\t%s\tTest 0:\tShould keep the peer inputs locked.", failed)
			}
			t.Logf("\t%s\tTest 0:\tShould keep the peer inputs locked.", success)
		}

		t.Logf("\tTest 1:\tWhen revalidating against a rebuilt set.")
		{
			rebuilt := utxo.New()
			rebuilt.Insert(utxo.UnspentOutput{TxID: "0x01", Index: 0, Address: kp.Address, Amount: 100})
			rebuilt.Insert(utxo.UnspentOutput{TxID: "0x02", Index: 0, Address: peer.Address, Amount: 100})

			if dropped := mp.Revalidate(rebuilt); len(dropped) != 0 {
				t.Fatalf("\t%s\tTest 1:\tShould keep every transaction, dropped %d.", failed, len(dropped))
			}

			if !mp.IsForeign(foreign.ID) || mp.IsForeign(local.ID) {
				t.Fatalf("\t%s\tTest 1:\tShould keep the peer transaction foreign.", failed)
			}
			t.Logf("\t%s\tTest 1:\tShould keep the peer transaction foreign.", success)

			if got := mp.Committable(rebuilt); len(got) != 2 {
				t.Fatalf("\t%s\tTest 1:\tShould still leave out the peer transaction, got %d.", failed, len(got))
			}
			t.Logf("\t%s\tTest 1:\tShould still leave out the peer transaction.", success)
		}
	}
}
