package database

import (
	"errors"
	"fmt"
	"time"

	"github.com/charityblock/ledger/foundation/blockchain/signature"
	"github.com/charityblock/ledger/foundation/blockchain/utxo"
)

// Set of error variables for building and signing transactions.
var (
	ErrInsufficientFunds = errors.New("insufficient funds")
	ErrFundsPending      = errors.New("funds are pending in the transaction pool")
	ErrAddressMismatch   = errors.New("address does not own the referenced funds")
	ErrInvalidAmount     = errors.New("amount must be greater than zero")
)

// =============================================================================

// TxKind represents the kind of value movement a transaction performs.
type TxKind string

// Set of transaction kinds.
const (
	TxKindMint         TxKind = "mint"         // Creates value out of nothing. Trusted path only.
	TxKindTransfer     TxKind = "transfer"     // Moves value between addresses.
	TxKindDisbursement TxKind = "disbursement" // Moves value out of an event to an off-ledger payout.
)

// Output represents a spendable unit of value.
type Output struct {
	Address string `json:"address"`
	Amount  uint64 `json:"amount"`
}

// Input represents a claim to spend an existing output. The signature is empty
// until the transaction is signed.
type Input struct {
	TxID      string `json:"tx_id"`
	Index     uint32 `json:"index"`
	Signature string `json:"signature,omitempty"`
}

// OutPoint returns the output this input references.
func (in Input) OutPoint() utxo.OutPoint {
	return utxo.OutPoint{TxID: in.TxID, Index: in.Index}
}

// =============================================================================

// Tx represents the movement of value on the ledger. An empty sender marks a
// mint transaction.
type Tx struct {
	ID        string   `json:"id"`
	Kind      TxKind   `json:"kind"`
	Sender    string   `json:"sender"`
	Inputs    []Input  `json:"inputs"`
	Outputs   []Output `json:"outputs"`
	Amount    uint64   `json:"amount"`
	Reason    string   `json:"reason"`
	TimeStamp uint64   `json:"timestamp"` // Milliseconds since the epoch.
}

// NewTransfer constructs an unsigned transaction paying amount to the receipt
// address from the outputs selected by the funding plan.
func NewTransfer(sender string, plan FundingPlan, receipt string, amount uint64, reason string, now time.Time) Tx {
	outputs := []Output{{Address: receipt, Amount: amount}}
	if plan.Change > 0 {
		outputs = append(outputs, Output{Address: sender, Amount: plan.Change})
	}

	return newTx(TxKindTransfer, sender, plan.Inputs(), outputs, amount, reason, now)
}

// NewDisbursement constructs an unsigned transaction that removes amount from
// the sender to pay for work outside the ledger. Only the change goes back to
// the sender.
func NewDisbursement(sender string, plan FundingPlan, amount uint64, reason string, now time.Time) Tx {
	var outputs []Output
	if plan.Change > 0 {
		outputs = append(outputs, Output{Address: sender, Amount: plan.Change})
	}

	return newTx(TxKindDisbursement, sender, plan.Inputs(), outputs, amount, reason, now)
}

// NewMint constructs a transaction that creates amount for the address.
func NewMint(address string, amount uint64, reason string, now time.Time) (Tx, error) {
	if amount == 0 {
		return Tx{}, ErrInvalidAmount
	}

	outputs := []Output{{Address: address, Amount: amount}}
	return newTx(TxKindMint, "", nil, outputs, amount, reason, now), nil
}

func newTx(kind TxKind, sender string, inputs []Input, outputs []Output, amount uint64, reason string, now time.Time) Tx {
	tx := Tx{
		Kind:      kind,
		Sender:    sender,
		Inputs:    inputs,
		Outputs:   outputs,
		Amount:    amount,
		Reason:    reason,
		TimeStamp: uint64(now.UTC().UnixMilli()),
	}
	tx.ID = tx.ComputeID()

	return tx
}

// ComputeID hashes the canonical fields of the transaction. The id and the
// signatures are not part of the preimage.
func (tx Tx) ComputeID() string {
	refs := make([]utxo.OutPoint, len(tx.Inputs))
	for i, in := range tx.Inputs {
		refs[i] = in.OutPoint()
	}

	canonical := struct {
		Kind      TxKind          `json:"kind"`
		Sender    string          `json:"sender"`
		Inputs    []utxo.OutPoint `json:"inputs"`
		Outputs   []Output        `json:"outputs"`
		Amount    uint64          `json:"amount"`
		Reason    string          `json:"reason"`
		TimeStamp uint64          `json:"timestamp"`
	}{
		Kind:      tx.Kind,
		Sender:    tx.Sender,
		Inputs:    refs,
		Outputs:   tx.Outputs,
		Amount:    tx.Amount,
		Reason:    tx.Reason,
		TimeStamp: tx.TimeStamp,
	}

	return signature.Hash(canonical)
}

// IsMint reports whether the transaction creates value.
func (tx Tx) IsMint() bool {
	return tx.Sender == "" || tx.Kind == TxKindMint
}

// OutputTotal returns the sum of the outputs.
func (tx Tx) OutputTotal() uint64 {
	var total uint64
	for _, out := range tx.Outputs {
		total += out.Amount
	}

	return total
}

// Sign authorizes every input against the unspent output it references and
// then attaches a signature over the transaction id to each input. Nothing is
// attached unless every input passes.
func (tx Tx) Sign(scheme signature.Scheme, kp signature.KeyPair, set *utxo.Set) (Tx, error) {
	if tx.Sender != kp.Address {
		return Tx{}, fmt.Errorf("%w: sender %s", ErrAddressMismatch, tx.Sender)
	}

	for _, in := range tx.Inputs {
		uo, exists := set.Get(in.OutPoint())
		if !exists || uo.Address != kp.Address {
			return Tx{}, fmt.Errorf("%w: input %s", ErrAddressMismatch, in.OutPoint())
		}
	}

	hash, err := signature.HashBytes(tx.ID)
	if err != nil {
		return Tx{}, fmt.Errorf("decoding tx id: %w", err)
	}

	sig, err := scheme.Sign(kp.PrivateKey, hash)
	if err != nil {
		return Tx{}, fmt.Errorf("signing tx: %w", err)
	}

	inputs := make([]Input, len(tx.Inputs))
	for i, in := range tx.Inputs {
		in.Signature = sig
		inputs[i] = in
	}
	tx.Inputs = inputs

	return tx, nil
}

// VerifySignatures checks every input carries a signature over the id that was
// produced by the owner of the referenced output.
func (tx Tx) VerifySignatures(scheme signature.Scheme, set *utxo.Set) error {
	hash, err := signature.HashBytes(tx.ID)
	if err != nil {
		return fmt.Errorf("decoding tx id: %w", err)
	}

	for _, in := range tx.Inputs {
		uo, exists := set.Get(in.OutPoint())
		if !exists {
			return fmt.Errorf("input %s: %w", in.OutPoint(), utxo.ErrNotFound)
		}

		if !scheme.Verify(in.Signature, hash, uo.Address) {
			return fmt.Errorf("input %s: signature does not verify", in.OutPoint())
		}
	}

	return nil
}

// Apply finalizes the transaction against the set. The outputs it consumes
// are removed and the outputs it creates are inserted unlocked.
func (tx Tx) Apply(set *utxo.Set) {
	for _, in := range tx.Inputs {
		set.Remove(in.OutPoint())
	}

	for i, out := range tx.Outputs {
		set.Insert(utxo.UnspentOutput{
			TxID:    tx.ID,
			Index:   uint32(i),
			Address: out.Address,
			Amount:  out.Amount,
		})
	}
}

// Hash implements the merkle Hashable interface for providing a hash of the
// full transaction, signatures included.
func (tx Tx) Hash() ([]byte, error) {
	return signature.HashBytes(signature.Hash(tx))
}

// Equals implements the merkle Hashable interface. Two transactions with the
// same id are the same transaction.
func (tx Tx) Equals(otherTx Tx) bool {
	return tx.ID == otherTx.ID
}

// String implements the fmt.Stringer interface for logging.
func (tx Tx) String() string {
	id := tx.ID
	if len(id) > 10 {
		id = id[:10]
	}

	return fmt.Sprintf("%s:%s:%d", tx.Kind, id, tx.Amount)
}
