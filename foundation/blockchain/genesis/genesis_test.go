package genesis_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/charityblock/ledger/foundation/blockchain/genesis"
)

// Success and failure markers.
const (
	success = "✓"
	failed  = "✗"
)

func Test_Load(t *testing.T) {
	type table struct {
		name    string
		content string
		ratio   float64
		limit   int
		valid   bool
	}

	tt := []table{
		{name: "full", content: `{"chain_id":1,"trans_per_block":10,"commit_threshold":3,"quorum":{"unanimity_limit":20,"ratio":0.75}}`, ratio: 0.75, limit: 20, valid: true},
		{name: "defaults", content: `{"chain_id":7}`, ratio: 0.9, limit: 500, valid: true},
		{name: "badratio", content: `{"quorum":{"unanimity_limit":5,"ratio":1.5}}`},
		{name: "badjson", content: `{`},
	}

	t.Log("Given the need to load the genesis file.")
	{
		for testID, tst := range tt {
			t.Logf("\tTest %d:\tWhen handling the %s file.", testID, tst.name)
			{
				f := func(t *testing.T) {
					path := filepath.Join(t.TempDir(), "genesis.json")
					if err := os.WriteFile(path, []byte(tst.content), 0600); err != nil {
						t.Fatalf("\t%s\tTest %d:\tShould be able to write the file: %s", failed, testID, err)
					}

					gen, err := genesis.Load(path)
					if !tst.valid {
						if err == nil {
							t.Fatalf("\t%s\tTest %d:\tShould reject the file.", failed, testID)
						}
						t.Logf("\t%s\tTest %d:\tShould reject the file.", success, testID)
						return
					}

					if err != nil {
						t.Fatalf("\t%s\tTest %d:\tShould be able to load the file: %s", failed, testID, err)
					}
					t.Logf("\t%s\tTest %d:\tShould be able to load the file.", success, testID)

					if gen.Quorum.Ratio != tst.ratio || gen.Quorum.UnanimityLimit != tst.limit {
						t.Logf("\t%s\tTest %d:\tgot: %+v", failed, testID, gen.Quorum)
						t.Fatalf("\t%s\tTest %d:\tShould have the right quorum.", failed, testID)
					}
					t.Logf("\t%s\tTest %d:\tShould have the right quorum.", success, testID)
				}

				t.Run(tst.name, f)
			}
		}
	}
}
