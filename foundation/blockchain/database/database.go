// Package database handles all the lower level support for maintaining the
// blockchain: the transaction model, the hash linked blocks and the storage
// the blocks are written to.
package database

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/charityblock/ledger/foundation/blockchain/genesis"
)

// Set of error variables for maintaining the chain.
var (
	ErrInvalidChain   = errors.New("invalid chain")
	ErrChainNotLonger = errors.New("chain is not longer than the local chain")
	ErrBlockNotFound  = errors.New("block not found")
)

// Storage interface represents the behavior required to be implemented by any
// package providing support for storing and reading the blockchain.
type Storage interface {
	Write(block Block) error
	GetBlock(num uint64) (Block, error)
	ForEach() Iterator
	Close() error
	Reset() error
}

// Iterator interface represents the behavior required to be implemented by any
// package providing support to iterate over the blocks.
type Iterator interface {
	Next() (Block, error)
	Done() bool
}

// =============================================================================

// Database manages the ordered, hash linked sequence of committed blocks.
type Database struct {
	mu sync.RWMutex

	genesis      genesis.Genesis
	genesisBlock Block
	latestBlock  Block
	length       uint64

	storage   Storage
	evHandler func(v string, args ...any)
}

// New constructs a new database. Blocks already in storage are validated and
// an empty storage is seeded with the genesis block.
func New(gen genesis.Genesis, storage Storage, evHandler func(v string, args ...any)) (*Database, error) {
	if evHandler == nil {
		evHandler = func(v string, args ...any) {}
	}

	db := Database{
		genesis:      gen,
		genesisBlock: GenesisBlock(gen),
		storage:      storage,
		evHandler:    evHandler,
	}

	var chain []Block
	iter := storage.ForEach()
	for block, err := iter.Next(); !iter.Done(); block, err = iter.Next() {
		if err != nil {
			return nil, err
		}
		chain = append(chain, block)
	}

	if len(chain) == 0 {
		if err := storage.Write(db.genesisBlock); err != nil {
			return nil, fmt.Errorf("writing genesis block: %w", err)
		}
		chain = []Block{db.genesisBlock}
	}

	if err := db.validate(chain); err != nil {
		return nil, err
	}

	db.latestBlock = chain[len(chain)-1]
	db.length = uint64(len(chain))

	return &db, nil
}

// Close closes the storage.
func (db *Database) Close() {
	db.storage.Close()
}

// Genesis returns the genesis configuration the chain was built from.
func (db *Database) Genesis() genesis.Genesis {
	return db.genesis
}

// Append builds a block holding the transactions over the current tip and
// writes it to storage. The caller is responsible for applying the
// transactions to the unspent output set in the same critical section.
func (db *Database) Append(trans []Tx, now time.Time) (Block, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	block, err := NewBlock(db.latestBlock, trans, now)
	if err != nil {
		return Block{}, err
	}

	if err := db.storage.Write(block); err != nil {
		return Block{}, err
	}

	db.latestBlock = block
	db.length++

	db.evHandler("database: Append: blk[%d]: hash[%s]: trans[%d]", block.Header.Number, block.Hash, len(block.Trans))

	return block, nil
}

// Validate checks a full candidate chain. The chain must start with the
// local genesis block and every block must hash to its stored hash and link
// to the block before it.
func (db *Database) Validate(chain []Block) error {
	return db.validate(chain)
}

func (db *Database) validate(chain []Block) error {
	if len(chain) == 0 {
		return fmt.Errorf("%w: empty chain", ErrInvalidChain)
	}

	db.evHandler("database: Validate: blocks[%d]: check: genesis block", len(chain))

	gb := chain[0]
	if gb.Header.Number != 0 || gb.Hash != db.genesisBlock.Hash || gb.ComputeHash() != gb.Hash {
		return fmt.Errorf("%w: genesis block mismatch, got %s, exp %s", ErrInvalidChain, gb.Hash, db.genesisBlock.Hash)
	}

	for i := 1; i < len(chain); i++ {
		if err := chain[i].ValidateBlock(chain[i-1], db.evHandler); err != nil {
			return err
		}
	}

	return nil
}

// Replace swaps the local chain for the candidate chain. The candidate must
// be valid and strictly longer than the local chain.
func (db *Database) Replace(chain []Block) error {
	db.mu.Lock()
	defer db.mu.Unlock()

	if err := db.validate(chain); err != nil {
		return err
	}

	if uint64(len(chain)) <= db.length {
		return fmt.Errorf("%w: got %d, have %d", ErrChainNotLonger, len(chain), db.length)
	}

	if err := db.storage.Reset(); err != nil {
		return err
	}

	for _, block := range chain {
		if err := db.storage.Write(block); err != nil {
			return err
		}
	}

	db.latestBlock = chain[len(chain)-1]
	db.length = uint64(len(chain))

	db.evHandler("database: Replace: blocks[%d]: tip[%s]", db.length, db.latestBlock.Hash)

	return nil
}

// LatestBlock returns the latest block.
func (db *Database) LatestBlock() Block {
	db.mu.RLock()
	defer db.mu.RUnlock()

	return db.latestBlock
}

// Length returns the number of blocks in the chain, genesis included.
func (db *Database) Length() uint64 {
	db.mu.RLock()
	defer db.mu.RUnlock()

	return db.length
}

// GetBlock returns the block with the specified number.
func (db *Database) GetBlock(num uint64) (Block, error) {
	db.mu.RLock()
	defer db.mu.RUnlock()

	block, err := db.storage.GetBlock(num)
	if err != nil {
		return Block{}, fmt.Errorf("%w: %d", ErrBlockNotFound, num)
	}

	return block, nil
}

// Blocks returns a copy of the full chain starting with the genesis block.
func (db *Database) Blocks() []Block {
	db.mu.RLock()
	defer db.mu.RUnlock()

	blocks := make([]Block, 0, db.length)

	iter := db.storage.ForEach()
	for block, err := iter.Next(); !iter.Done(); block, err = iter.Next() {
		if err != nil {
			break
		}
		blocks = append(blocks, block)
	}

	return blocks
}
