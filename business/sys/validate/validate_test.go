package validate_test

import (
	"testing"

	"github.com/charityblock/ledger/business/sys/validate"
)

// Success and failure markers.
const (
	success = "✓"
	failed  = "✗"
)

func Test_Check(t *testing.T) {
	type donation struct {
		To     string `json:"to" validate:"required"`
		Amount uint64 `json:"amount" validate:"gt=0"`
	}

	t.Log("Given the need to validate request models.")
	{
		t.Logf("\tTest 0:\tWhen the model is valid.")
		{
			if err := validate.Check(donation{To: "0xabc", Amount: 10}); err != nil {
				t.Fatalf("\t%s\tTest 0:\tShould pass validation: %s", failed, err)
			}
			t.Logf("\t%s\tTest 0:\tShould pass validation.", success)
		}

		t.Logf("\tTest 1:\tWhen the model is missing values.")
		{
			err := validate.Check(donation{})

			fields := validate.GetFieldErrors(err)
			if len(fields) != 2 {
				t.Fatalf("\t%s\tTest 1:\tShould report two field errors, got %v.", failed, err)
			}
			t.Logf("\t%s\tTest 1:\tShould report two field errors.", success)

			if _, exists := fields.Fields()["amount"]; !exists {
				t.Fatalf("\t%s\tTest 1:\tShould use the json field names.", failed)
			}
			t.Logf("\t%s\tTest 1:\tShould use the json field names.", success)
		}
	}
}
