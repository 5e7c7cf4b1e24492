package event_test

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/charityblock/ledger/foundation/blockchain/database"
	"github.com/charityblock/ledger/foundation/blockchain/event"
	"github.com/charityblock/ledger/foundation/blockchain/genesis"
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

func newEvent(address string) event.Event {
	return event.New(address, "Flood Relief", "Clean water", "0xcreator", "Bill", now, now.Add(30*24*time.Hour), now)
}

// =============================================================================

func Test_QuorumLatch(t *testing.T) {
	quorum := genesis.Quorum{UnanimityLimit: 5, Ratio: 0.9}

	t.Log("Given an event with 10 accounts in the directory.")
	{
		e := newEvent("0xevent")

		for i := range 8 {
			e.Accept(fmt.Sprintf("user%d", i), 10, quorum)
		}
		if e.Status != event.StatusPending {
			t.Fatalf("\t%s\tShould be pending with 8 of 10 accepted.", failed)
		}
		t.Logf("\t%s\tShould be pending with 8 of 10 accepted.", success)

		if e.Accept("user0", 10, quorum) {
			t.Fatalf("\t%s\tShould not record the same identity twice.", failed)
		}
		t.Logf("\t%s\tShould not record the same identity twice.", success)

		if !e.Accept("user8", 10, quorum) || e.Status != event.StatusAccepted {
			t.Fatalf("\t%s\tShould be accepted with 9 of 10 accepted.", failed)
		}
		t.Logf("\t%s\tShould be accepted with 9 of 10 accepted.", success)

		e.Accept("user9", 20, quorum)
		if e.Status != event.StatusAccepted {
			t.Fatalf("\t%s\tShould stay accepted when the directory grows to 20.", failed)
		}
		t.Logf("\t%s\tShould stay accepted when the directory grows to 20.", success)
	}
}

func Test_Unanimity(t *testing.T) {
	quorum := genesis.Default().Quorum

	t.Log("Given an event with 3 accounts in the directory.")
	{
		e := newEvent("0xevent")

		e.Accept("bill", 3, quorum)
		e.Accept("jill", 3, quorum)
		if e.Status != event.StatusPending {
			t.Fatalf("\t%s\tShould be pending until everyone accepts.", failed)
		}
		t.Logf("\t%s\tShould be pending until everyone accepts.", success)

		e.Accept("ed", 3, quorum)
		if e.Status != event.StatusAccepted {
			t.Fatalf("\t%s\tShould be accepted once everyone accepts.", failed)
		}
		t.Logf("\t%s\tShould be accepted once everyone accepts.", success)

		if pct := e.PercentAccepted(3); pct != 100 {
			t.Fatalf("\t%s\tShould report 100 percent, got %f.", failed, pct)
		}
		t.Logf("\t%s\tShould report 100 percent.", success)
	}
}

func Test_Lifecycle(t *testing.T) {
	quorum := genesis.Default().Quorum

	t.Log("Given the need to end events.")
	{
		e := newEvent("0xevent")
		e.End()
		e.End()
		if e.Status != event.StatusEnded {
			t.Fatalf("\t%s\tShould be able to end a pending event.", failed)
		}
		t.Logf("\t%s\tShould be able to end a pending event.", success)

		e.Accept("bill", 1, quorum)
		if e.Status != event.StatusEnded {
			t.Fatalf("\t%s\tShould never leave the ended status.", failed)
		}
		t.Logf("\t%s\tShould never leave the ended status.", success)

		expiring := newEvent("0xother")
		expiring.Accept("bill", 1, quorum)
		if expiring.Expire(now.Add(24 * time.Hour)) {
			t.Fatalf("\t%s\tShould not expire before the end date.", failed)
		}
		if !expiring.Expire(now.Add(31 * 24 * time.Hour)) {
			t.Fatalf("\t%s\tShould expire after the end date.", failed)
		}
		t.Logf("\t%s\tShould expire lazily after the end date.", success)
	}
}

func Test_AuthorizationGate(t *testing.T) {
	var scheme signature.Secp256k1

	t.Log("Given an event holding funds.")
	{
		eventKP, err := scheme.Derive(pkHexKey)
		if err != nil {
			t.Fatalf("\t%s\tShould be able to derive the event key: %s", failed, err)
		}
		intruder, _ := scheme.Generate()

		set := utxo.New()
		set.Insert(utxo.UnspentOutput{TxID: "0x01", Index: 0, Address: eventKP.Address, Amount: 70})
		set.Insert(utxo.UnspentOutput{TxID: "0x02", Index: 0, Address: eventKP.Address, Amount: 50})

		e := newEvent(eventKP.Address)

		t.Logf("\tTest 0:\tWhen the event has not been accepted.")
		{
			if _, err := e.CreateDisbursement(scheme, eventKP, 10, set, "supplies", now); !errors.Is(err, event.ErrNotAccepted) {
				t.Fatalf("\t%s\tTest 0:\tShould fail with not accepted: %v", failed, err)
			}
			t.Logf("\t%s\tTest 0:\tShould fail with not accepted.", success)
		}

		e.Accept("bill", 1, genesis.Default().Quorum)

		t.Logf("\tTest 1:\tWhen signed by a key that does not control the event.")
		{
			if _, err := e.CreateDisbursement(scheme, intruder, 100, set, "theft", now); !errors.Is(err, database.ErrAddressMismatch) {
				t.Fatalf("\t%s\tTest 1:\tShould fail with an address mismatch: %v", failed, err)
			}
			t.Logf("\t%s\tTest 1:\tShould fail with an address mismatch.", success)

			for _, uo := range set.Copy() {
				if uo.Locked {
					t.Fatalf("\t%s\tTest 1:\tShould leave every output unlocked.", failed)
				}
			}
			if e.CurrentBalance(set) != 120 || set.Count() != 2 {
				t.Fatalf("\t%s\tTest 1:\tShould leave every output unspent.", failed)
			}
			t.Logf("\t%s\tTest 1:\tShould leave every output unlocked and unspent.", success)
		}

		t.Logf("\tTest 2:\tWhen signed by the event key.")
		{
			tx, err := e.CreateDisbursement(scheme, eventKP, 100, set, "supplies", now)
			if err != nil {
				t.Fatalf("\t%s\tTest 2:\tShould be able to create the disbursement: %s", failed, err)
			}
			t.Logf("\t%s\tTest 2:\tShould be able to create the disbursement.", success)

			if len(tx.Outputs) != 1 || tx.Outputs[0].Address != e.Address || tx.Outputs[0].Amount != 20 {
				t.Fatalf("\t%s\tTest 2:\tShould only return the change to the event.", failed)
			}
			t.Logf("\t%s\tTest 2:\tShould only return the change to the event.", success)

			mp := mempool.New(scheme)
			if err := mp.Submit(tx, set); err != nil {
				t.Fatalf("\t%s\tTest 2:\tShould be admitted into the pool: %s", failed, err)
			}
			t.Logf("\t%s\tTest 2:\tShould be admitted into the pool.", success)

			if _, err := e.CreateDisbursement(scheme, eventKP, 10, set, "more", now); !errors.Is(err, database.ErrFundsPending) {
				t.Fatalf("\t%s\tTest 2:\tShould report the funds as pending: %v", failed, err)
			}
			t.Logf("\t%s\tTest 2:\tShould report the funds as pending.", success)
		}
	}
}

func Test_Directory(t *testing.T) {
	t.Log("Given the need to track events by address.")
	{
		dir := event.NewDirectory()

		if err := dir.Add(newEvent("0xa")); err != nil {
			t.Fatalf("\t%s\tShould be able to add an event: %s", failed, err)
		}
		if err := dir.Add(newEvent("0xa")); !errors.Is(err, event.ErrExists) {
			t.Fatalf("\t%s\tShould not add the same address twice: %v", failed, err)
		}
		t.Logf("\t%s\tShould insert an event only once.", success)

		snapshot := newEvent("0xa")
		snapshot.Status = event.StatusEnded
		snapshot.AcceptedBy = []string{"jill"}
		snapshot.AmountDonated = 40
		merged := dir.Reconcile(snapshot)
		if merged.Status != event.StatusEnded || !merged.HasAccepted("jill") || merged.AmountDonated != 40 {
			t.Fatalf("\t%s\tShould merge a newer snapshot.", failed)
		}
		t.Logf("\t%s\tShould merge a newer snapshot.", success)

		stale := newEvent("0xa")
		merged = dir.Reconcile(stale)
		if merged.Status != event.StatusEnded || merged.AmountDonated != 40 {
			t.Fatalf("\t%s\tShould not move backwards on a stale snapshot.", failed)
		}
		t.Logf("\t%s\tShould not move backwards on a stale snapshot.", success)

		dir.Reconcile(newEvent("0xb"))
		if dir.Count() != 2 || len(dir.ByCreator("0xcreator")) != 2 || dir.List()[1].Address != "0xb" {
			t.Fatalf("\t%s\tShould list events in creation order.", failed)
		}
		t.Logf("\t%s\tShould list events in creation order.", success)
	}
}
