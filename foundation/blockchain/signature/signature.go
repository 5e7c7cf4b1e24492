// Package signature provides helper functions for handling the blockchain
// signature needs.
package signature

import (
	"crypto/sha256"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/crypto"
)

// ZeroHash represents a hash code of zeros.
const ZeroHash string = "0x0000000000000000000000000000000000000000000000000000000000000000"

// ErrInvalidPrivateKey is returned when a private key can't be decoded.
var ErrInvalidPrivateKey = errors.New("invalid private key")

// =============================================================================

// KeyPair represents a private key and the public identity derived from it.
// The address of an account is the hex encoded uncompressed public key, so
// the address is all that is needed to verify a signature.
type KeyPair struct {
	PrivateKey string
	PublicKey  string
	Address    string
}

// Scheme represents the behavior required to derive keys, sign and verify.
// The ledger never depends on a concrete curve implementation.
type Scheme interface {
	Generate() (KeyPair, error)
	Derive(privateKey string) (KeyPair, error)
	Sign(privateKey string, hash []byte) (string, error)
	Verify(sig string, hash []byte, publicKey string) bool
}

// =============================================================================

// Secp256k1 implements the Scheme interface using the secp256k1 curve
// provided by go-ethereum.
type Secp256k1 struct{}

// Generate constructs a brand new key pair.
func (Secp256k1) Generate() (KeyPair, error) {
	pk, err := crypto.GenerateKey()
	if err != nil {
		return KeyPair{}, err
	}

	return Secp256k1{}.Derive(hexutil.Encode(crypto.FromECDSA(pk)))
}

// Derive produces the key pair for the specified hex encoded private key.
// The 0x prefix is optional.
func (Secp256k1) Derive(privateKey string) (KeyPair, error) {
	hexKey := strings.TrimPrefix(strings.TrimPrefix(privateKey, "0x"), "0X")

	pk, err := crypto.HexToECDSA(hexKey)
	if err != nil {
		return KeyPair{}, fmt.Errorf("%w: %s", ErrInvalidPrivateKey, err)
	}

	pub := hexutil.Encode(crypto.FromECDSAPub(&pk.PublicKey))

	kp := KeyPair{
		PrivateKey: hexutil.Encode(crypto.FromECDSA(pk)),
		PublicKey:  pub,
		Address:    pub,
	}

	return kp, nil
}

// Sign uses the specified private key to sign the 32 byte hash.
func (Secp256k1) Sign(privateKey string, hash []byte) (string, error) {
	hexKey := strings.TrimPrefix(strings.TrimPrefix(privateKey, "0x"), "0X")

	pk, err := crypto.HexToECDSA(hexKey)
	if err != nil {
		return "", fmt.Errorf("%w: %s", ErrInvalidPrivateKey, err)
	}

	sig, err := crypto.Sign(hash, pk)
	if err != nil {
		return "", err
	}

	return hexutil.Encode(sig), nil
}

// Verify checks the signature was produced for the hash by the private key
// behind the specified public key.
func (Secp256k1) Verify(sig string, hash []byte, publicKey string) bool {
	sigBytes, err := hexutil.Decode(sig)
	if err != nil || len(sigBytes) != crypto.SignatureLength {
		return false
	}

	pub, err := hexutil.Decode(publicKey)
	if err != nil {
		return false
	}

	// The recovery id is not needed when the public key is known.
	return crypto.VerifySignature(pub, hash, sigBytes[:crypto.RecoveryIDOffset])
}

// =============================================================================

// Hash returns a unique string for the value.
func Hash(value any) string {
	data, err := json.Marshal(value)
	if err != nil {
		return ZeroHash
	}

	hash := sha256.Sum256(data)
	return hexutil.Encode(hash[:])
}

// HashBytes returns the raw 32 bytes behind a hash produced by Hash.
func HashBytes(hash string) ([]byte, error) {
	return hexutil.Decode(hash)
}
