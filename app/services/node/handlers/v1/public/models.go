package public

import (
	"time"

	"github.com/charityblock/ledger/foundation/blockchain/database"
	"github.com/charityblock/ledger/foundation/blockchain/event"
)

type newWallet struct {
	Name string `json:"name" validate:"required"`
}

type wallet struct {
	Name       string `json:"name"`
	Address    string `json:"address"`
	PrivateKey string `json:"private_key,omitempty"`
}

type transfer struct {
	To     string `json:"to" validate:"required"`
	Amount uint64 `json:"amount" validate:"gt=0"`
	Reason string `json:"reason"`
}

type newEvent struct {
	Name        string    `json:"name" validate:"required"`
	Description string    `json:"description"`
	StartDate   time.Time `json:"start_date"`
	EndDate     time.Time `json:"end_date"`
}

type createdEvent struct {
	Event      event.Event `json:"event"`
	PrivateKey string      `json:"private_key"`
}

type eventAddress struct {
	Address string `json:"address" validate:"required"`
}

type disbursement struct {
	Address string `json:"address" validate:"required"`
	Amount  uint64 `json:"amount" validate:"gt=0"`
	Reason  string `json:"reason" validate:"required"`
}

type accepted struct {
	Address  string `json:"address"`
	Accepted bool   `json:"accepted"`
}

type txStatus struct {
	Status string      `json:"status"`
	Tx     database.Tx `json:"tx"`
}

type proof struct {
	Block    uint64   `json:"block"`
	TxID     string   `json:"tx_id"`
	Root     string   `json:"root"`
	Proof    []string `json:"proof"`
	Order    []int64  `json:"order"`
	Verified bool     `json:"verified"`
}
