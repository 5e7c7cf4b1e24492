package database

import (
	"fmt"

	"github.com/charityblock/ledger/foundation/blockchain/utxo"
)

// FundingPlan represents the outputs selected to pay for an amount and the
// overshoot that needs to go back to the owner.
type FundingPlan struct {
	Included []utxo.UnspentOutput
	Change   uint64
}

// Inputs converts the selected outputs into unsigned inputs.
func (fp FundingPlan) Inputs() []Input {
	inputs := make([]Input, len(fp.Included))
	for i, uo := range fp.Included {
		inputs[i] = Input{TxID: uo.TxID, Index: uo.Index}
	}

	return inputs
}

// Total returns the value of the selected outputs.
func (fp FundingPlan) Total() uint64 {
	var total uint64
	for _, uo := range fp.Included {
		total += uo.Amount
	}

	return total
}

// BuildFundingPlan walks the unlocked outputs owned by the address in their
// stable order and stops as soon as the running total covers the amount. When
// the unlocked outputs can't cover it, the locked ones decide between
// ErrFundsPending and ErrInsufficientFunds.
func BuildFundingPlan(address string, amount uint64, set *utxo.Set) (FundingPlan, error) {
	if amount == 0 {
		return FundingPlan{}, ErrInvalidAmount
	}

	var plan FundingPlan
	var total uint64

	for _, uo := range set.ByAddress(address, false) {
		plan.Included = append(plan.Included, uo)
		total += uo.Amount

		if total >= amount {
			plan.Change = total - amount
			return plan, nil
		}
	}

	if all := set.Total(address); all >= amount {
		return FundingPlan{}, fmt.Errorf("%w: need %d, unlocked %d, total %d", ErrFundsPending, amount, total, all)
	}

	return FundingPlan{}, fmt.Errorf("%w: need %d, have %d", ErrInsufficientFunds, amount, total)
}
