package accounts_test

import (
	"testing"

	"github.com/charityblock/ledger/foundation/blockchain/accounts"
)

// Success and failure markers.
const (
	success = "\u2713"
	failed  = "\u2717"
)

func Test_Directory(t *testing.T) {
	type table struct {
		name     string
		accounts []accounts.Account
		count    int
	}

	tt := []table{
		{
			name: "basic",
			accounts: []accounts.Account{
				{Name: "Bill", Address: "0x04aa"},
				{Name: "Jill", Address: "0x04bb"},
				{Name: "Bill Again", Address: "0x04aa"},
				{Name: "Ed", Address: "0x04cc"},
			},
			count: 3,
		},
	}

	t.Log("Given the need to track the known wallets.")
	{
		for testID, tst := range tt {
			t.Logf("\tTest %d:\tWhen handling a set of accounts.", testID)
			{
				f := func(t *testing.T) {
					dir := accounts.New()
					for _, acct := range tst.accounts {
						dir.Add(acct)
					}

					if dir.Count() != tst.count {
						t.Logf("\t%s\tTest %d:\tgot: %d", failed, testID, dir.Count())
						t.Logf("\t%s\tTest %d:\texp: %d", failed, testID, tst.count)
						t.Fatalf("\t%s\tTest %d:\tShould only add an address once.", failed, testID)
					}
					t.Logf("\t%s\tTest %d:\tShould only add an address once.", success, testID)

					if name := dir.Name("0x04aa"); name != "Bill" {
						t.Fatalf("\t%s\tTest %d:\tShould keep the first name, got %q.", failed, testID, name)
					}
					t.Logf("\t%s\tTest %d:\tShould keep the first name.", success, testID)

					copied := dir.Copy()
					if copied[0].Address != "0x04aa" || copied[2].Address != "0x04cc" {
						t.Fatalf("\t%s\tTest %d:\tShould copy in the order added.", failed, testID)
					}
					t.Logf("\t%s\tTest %d:\tShould copy in the order added.", success, testID)
				}

				t.Run(tst.name, f)
			}
		}
	}
}
