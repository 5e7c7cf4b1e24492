// Package genesis maintains access to the genesis file.
package genesis

import (
	"encoding/json"
	"errors"
	"os"
	"time"
)

// Quorum represents the acceptance rules an event must meet before it can be
// funded.
type Quorum struct {
	UnanimityLimit int     `json:"unanimity_limit"` // Up to this many accounts every account must accept.
	Ratio          float64 `json:"ratio"`           // Above the limit, the fraction of accounts that must accept.
}

// Genesis represents the genesis file.
type Genesis struct {
	Date            time.Time `json:"date"`
	ChainID         uint16    `json:"chain_id"`         // The chain id represents an unique id for this running instance.
	TransPerBlock   uint16    `json:"trans_per_block"`  // The maximum number of transactions that can be in a block.
	CommitThreshold uint16    `json:"commit_threshold"` // Valid pool transactions needed before a donation commits a block.
	Quorum          Quorum    `json:"quorum"`
}

// Default returns the genesis values used when no file is provided.
func Default() Genesis {
	return Genesis{
		Date:            time.Date(2026, time.January, 1, 0, 0, 0, 0, time.UTC),
		ChainID:         1,
		TransPerBlock:   50,
		CommitThreshold: 2,
		Quorum: Quorum{
			UnanimityLimit: 500,
			Ratio:          0.9,
		},
	}
}

// =============================================================================

// Load opens and consumes the genesis file.
func Load(path string) (Genesis, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return Genesis{}, err
	}

	genesis := Default()
	if err := json.Unmarshal(content, &genesis); err != nil {
		return Genesis{}, err
	}

	if err := genesis.Validate(); err != nil {
		return Genesis{}, err
	}

	return genesis, nil
}

// Validate checks the genesis values are usable.
func (g Genesis) Validate() error {
	if g.TransPerBlock == 0 {
		return errors.New("trans_per_block must be greater than zero")
	}

	if g.Quorum.UnanimityLimit < 0 {
		return errors.New("quorum unanimity_limit can't be negative")
	}

	if g.Quorum.Ratio <= 0 || g.Quorum.Ratio > 1 {
		return errors.New("quorum ratio must be in the range (0, 1]")
	}

	return nil
}
