// Package cmd contains the wallet app.
package cmd

import (
	"crypto/ecdsa"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/spf13/cobra"
)

var (
	accountName string
	accountPath string
	url         string
)

const keyExtension = ".ecdsa"

func init() {
	rootCmd.PersistentFlags().StringVarP(&accountName, "account", "a", "private", "Name of the private key file.")
	rootCmd.PersistentFlags().StringVarP(&accountPath, "account-path", "p", "zblock/accounts/", "Path to the directory with private keys.")
	rootCmd.PersistentFlags().StringVarP(&url, "url", "u", "http://localhost:8080", "Url of the node.")
}

var rootCmd = &cobra.Command{
	Use:          "wallet",
	Short:        "Wallet for the charity donation ledger",
	SilenceUsage: true,
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// =============================================================================

func keyPath(name string) string {
	if !strings.HasSuffix(name, keyExtension) {
		name += keyExtension
	}

	return filepath.Join(accountPath, name)
}

// saveKey writes the hex encoded private key returned by the node into the
// named key file.
func saveKey(name string, hexKey string) (string, error) {
	pk, err := crypto.HexToECDSA(strings.TrimPrefix(hexKey, "0x"))
	if err != nil {
		return "", fmt.Errorf("decoding private key: %w", err)
	}

	if err := os.MkdirAll(accountPath, 0o700); err != nil {
		return "", err
	}

	path := keyPath(name)
	if _, err := os.Stat(path); err == nil {
		return "", fmt.Errorf("key file %s already exists", path)
	}

	if err := crypto.SaveECDSA(path, pk); err != nil {
		return "", err
	}

	return path, nil
}

// loadKey reads the named key file and returns the private key in the form
// the node expects in the Authorization header.
func loadKey(name string) (string, error) {
	pk, err := crypto.LoadECDSA(keyPath(name))
	if err != nil {
		return "", err
	}

	return encodeKey(pk), nil
}

func encodeKey(pk *ecdsa.PrivateKey) string {
	return hexutil.Encode(crypto.FromECDSA(pk))
}
