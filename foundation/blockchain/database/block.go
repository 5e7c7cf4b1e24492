package database

import (
	"fmt"
	"time"

	"github.com/charityblock/ledger/foundation/blockchain/genesis"
	"github.com/charityblock/ledger/foundation/blockchain/merkle"
	"github.com/charityblock/ledger/foundation/blockchain/signature"
	"github.com/ethereum/go-ethereum/common/hexutil"
)

// BlockHeader represents common information required for each block.
type BlockHeader struct {
	ChainID       uint16 `json:"chain_id"`        // Unique id for the network this block belongs to.
	Number        uint64 `json:"number"`          // Block number in the chain.
	PrevBlockHash string `json:"prev_block_hash"` // Hash of the previous block in the chain.
	TimeStamp     uint64 `json:"timestamp"`       // Time the block was committed in milliseconds.
	TransRoot     string `json:"trans_root"`      // Merkle tree root hash for the transactions in this block.
}

// Block represents a group of transactions batched together. The hash covers
// the header and the header binds the transactions through the merkle root.
type Block struct {
	Header BlockHeader `json:"header"`
	Hash   string      `json:"hash"`
	Trans  []Tx        `json:"trans"`
}

// GenesisBlock constructs block zero from the genesis configuration. Every
// node with the same genesis file produces the same block.
func GenesisBlock(gen genesis.Genesis) Block {
	b := Block{
		Header: BlockHeader{
			ChainID:       gen.ChainID,
			Number:        0,
			PrevBlockHash: signature.ZeroHash,
			TimeStamp:     uint64(gen.Date.UTC().UnixMilli()),
			TransRoot:     signature.ZeroHash,
		},
		Trans: []Tx{},
	}
	b.Hash = b.ComputeHash()

	return b
}

// NewBlock constructs the block that follows the previous block.
func NewBlock(prevBlock Block, trans []Tx, now time.Time) (Block, error) {
	root, err := TransRoot(trans)
	if err != nil {
		return Block{}, err
	}

	// The clock is not allowed to move backwards inside the chain.
	ts := uint64(now.UTC().UnixMilli())
	if ts < prevBlock.Header.TimeStamp {
		ts = prevBlock.Header.TimeStamp
	}

	if trans == nil {
		trans = []Tx{}
	}

	b := Block{
		Header: BlockHeader{
			ChainID:       prevBlock.Header.ChainID,
			Number:        prevBlock.Header.Number + 1,
			PrevBlockHash: prevBlock.Hash,
			TimeStamp:     ts,
			TransRoot:     root,
		},
		Trans: trans,
	}
	b.Hash = b.ComputeHash()

	return b, nil
}

// ComputeHash returns the unique hash for the block header.
func (b Block) ComputeHash() string {
	return signature.Hash(b.Header)
}

// Contains reports whether the transaction with the id is in the block.
func (b Block) Contains(txID string) bool {
	for _, tx := range b.Trans {
		if tx.ID == txID {
			return true
		}
	}

	return false
}

// ValidateBlock takes a block and validates it to be included into the
// blockchain after the previous block.
func (b Block) ValidateBlock(previousBlock Block, evHandler func(v string, args ...any)) error {
	evHandler("database: ValidateBlock: validate: blk[%d]: check: block hash matches header", b.Header.Number)

	if hash := b.ComputeHash(); hash != b.Hash {
		return fmt.Errorf("%w: blk[%d]: hash mismatch, got %s, exp %s", ErrInvalidChain, b.Header.Number, b.Hash, hash)
	}

	evHandler("database: ValidateBlock: validate: blk[%d]: check: block number is the next number", b.Header.Number)

	nextNumber := previousBlock.Header.Number + 1
	if b.Header.Number != nextNumber {
		return fmt.Errorf("%w: blk[%d]: not the next number, exp %d", ErrInvalidChain, b.Header.Number, nextNumber)
	}

	evHandler("database: ValidateBlock: validate: blk[%d]: check: parent hash does match parent block", b.Header.Number)

	if b.Header.PrevBlockHash != previousBlock.Hash {
		return fmt.Errorf("%w: blk[%d]: parent hash mismatch, got %s, exp %s", ErrInvalidChain, b.Header.Number, b.Header.PrevBlockHash, previousBlock.Hash)
	}

	if b.Header.ChainID != previousBlock.Header.ChainID {
		return fmt.Errorf("%w: blk[%d]: wrong chain id, got %d, exp %d", ErrInvalidChain, b.Header.Number, b.Header.ChainID, previousBlock.Header.ChainID)
	}

	evHandler("database: ValidateBlock: validate: blk[%d]: check: block's timestamp is not before parent block's timestamp", b.Header.Number)

	if b.Header.TimeStamp < previousBlock.Header.TimeStamp {
		return fmt.Errorf("%w: blk[%d]: timestamp before parent block", ErrInvalidChain, b.Header.Number)
	}

	evHandler("database: ValidateBlock: validate: blk[%d]: check: merkle root does match transactions", b.Header.Number)

	root, err := TransRoot(b.Trans)
	if err != nil {
		return fmt.Errorf("%w: blk[%d]: %s", ErrInvalidChain, b.Header.Number, err)
	}

	if b.Header.TransRoot != root {
		return fmt.Errorf("%w: blk[%d]: merkle root mismatch, got %s, exp %s", ErrInvalidChain, b.Header.Number, root, b.Header.TransRoot)
	}

	return nil
}

// =============================================================================

// TransRoot returns the merkle root for the transactions. A block with no
// transactions uses the zero hash.
func TransRoot(trans []Tx) (string, error) {
	if len(trans) == 0 {
		return signature.ZeroHash, nil
	}

	tree, err := merkle.NewTree(trans)
	if err != nil {
		return "", err
	}

	return tree.RootHex(), nil
}

// TransProof returns the merkle proof that the transaction with the specified
// id is part of the block.
func TransProof(b Block, txID string) ([]string, []int64, error) {
	if len(b.Trans) == 0 {
		return nil, nil, fmt.Errorf("blk[%d] has no transactions", b.Header.Number)
	}

	tree, err := merkle.NewTree(b.Trans)
	if err != nil {
		return nil, nil, err
	}

	proof, order, err := tree.Proof(Tx{ID: txID})
	if err != nil {
		return nil, nil, err
	}

	hashes := make([]string, len(proof))
	for i, p := range proof {
		hashes[i] = fmt.Sprintf("0x%x", p)
	}

	return hashes, order, nil
}

// VerifyTransProof reports whether the proof walks from the transaction with
// the specified id to the block's TransRoot.
func VerifyTransProof(b Block, txID string, proof []string, order []int64) (bool, error) {
	var leaf []byte
	for _, tx := range b.Trans {
		if tx.ID != txID {
			continue
		}

		hash, err := tx.Hash()
		if err != nil {
			return false, err
		}
		leaf = hash
		break
	}

	if leaf == nil {
		return false, fmt.Errorf("tx[%s] not in blk[%d]", txID, b.Header.Number)
	}

	root, err := hexutil.Decode(b.Header.TransRoot)
	if err != nil {
		return false, fmt.Errorf("decoding trans root: %w", err)
	}

	hashes := make([][]byte, len(proof))
	for i, p := range proof {
		h, err := hexutil.Decode(p)
		if err != nil {
			return false, fmt.Errorf("decoding proof hash %d: %w", i, err)
		}
		hashes[i] = h
	}

	return merkle.VerifyProof(leaf, hashes, order, root), nil
}
