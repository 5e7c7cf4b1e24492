package errs_test

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/charityblock/ledger/business/web/errs"
	"github.com/charityblock/ledger/foundation/blockchain/database"
	"github.com/charityblock/ledger/foundation/blockchain/event"
	"github.com/charityblock/ledger/foundation/blockchain/mempool"
	"github.com/charityblock/ledger/foundation/blockchain/state"
)

// Success and failure markers.
const (
	success = "✓"
	failed  = "✗"
)

func Test_FromLedger(t *testing.T) {
	type table struct {
		name   string
		err    error
		status int
	}

	tt := []table{
		{"funds", fmt.Errorf("plan: %w", database.ErrInsufficientFunds), http.StatusUnprocessableEntity},
		{"pending", database.ErrFundsPending, http.StatusConflict},
		{"wallet", state.ErrWalletNotFound, http.StatusUnauthorized},
		{"address", fmt.Errorf("%w: sender", database.ErrAddressMismatch), http.StatusForbidden},
		{"ended", event.ErrEventEnded, http.StatusConflict},
		{"invalid", fmt.Errorf("%w: no inputs", mempool.ErrInvalidTransaction), http.StatusBadRequest},
	}

	t.Log("Given the need to map ledger errors to status codes.")
	{
		for testID, tst := range tt {
			f := func(t *testing.T) {
				t.Logf("\tTest %d:\tWhen handling a %s error.", testID, tst.name)
				{
					trusted := errs.GetTrusted(errs.FromLedger(tst.err))
					if trusted == nil || trusted.Status != tst.status {
						t.Fatalf("\t%s\tTest %d:\tShould map to status %d.", failed, testID, tst.status)
					}
					t.Logf("\t%s\tTest %d:\tShould map to status %d.", success, testID, tst.status)

					if !errors.Is(trusted, tst.err) {
						t.Fatalf("\t%s\tTest %d:\tShould keep the original error.", failed, testID)
					}
					t.Logf("\t%s\tTest %d:\tShould keep the original error.", success, testID)
				}
			}

			t.Run(tst.name, f)
		}

		t.Logf("\tTest %d:\tWhen handling an unknown error.", len(tt))
		{
			if errs.IsTrusted(errs.FromLedger(errors.New("disk on fire"))) {
				t.Fatalf("\t%s\tTest %d:\tShould not trust the error.", failed, len(tt))
			}
			t.Logf("\t%s\tTest %d:\tShould not trust the error.", success, len(tt))
		}
	}
}
