package cmd

import (
	"fmt"
	"net/http"

	"github.com/spf13/cobra"
)

var createCmd = &cobra.Command{
	Use:   "create [name]",
	Short: "Register a new wallet and save its key",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		var wlt struct {
			Name       string `json:"name"`
			Address    string `json:"address"`
			PrivateKey string `json:"private_key"`
		}
		if err := call(http.MethodPost, "/wallet", "", map[string]string{"name": args[0]}, &wlt); err != nil {
			return err
		}

		path, err := saveKey(accountName, wlt.PrivateKey)
		if err != nil {
			return err
		}

		fmt.Printf("wallet %s created\naddress: %s\nkey: %s\n", wlt.Name, wlt.Address, path)
		return nil
	},
}

var balanceCmd = &cobra.Command{
	Use:   "balance",
	Short: "Print your balance",
	RunE: func(cmd *cobra.Command, args []string) error {
		key, err := loadKey(accountName)
		if err != nil {
			return err
		}

		var bal map[string]any
		if err := call(http.MethodGet, "/wallet", key, nil, &bal); err != nil {
			return err
		}

		return show(bal)
	},
}

var (
	mintAmount uint64
	privateURL string
)

var mintCmd = &cobra.Command{
	Use:   "mint",
	Short: "Add funds to your wallet through the node's private api",
	RunE: func(cmd *cobra.Command, args []string) error {
		key, err := loadKey(accountName)
		if err != nil {
			return err
		}

		var block map[string]any
		if err := callHost(privateURL, http.MethodPost, "/node/mint", key, map[string]uint64{"amount": mintAmount}, &block); err != nil {
			return err
		}

		return show(block)
	},
}

var (
	donateTo     string
	donateAmount uint64
	donateReason string
)

var donateCmd = &cobra.Command{
	Use:   "donate",
	Short: "Send funds to an event or another wallet",
	RunE: func(cmd *cobra.Command, args []string) error {
		key, err := loadKey(accountName)
		if err != nil {
			return err
		}

		body := struct {
			To     string `json:"to"`
			Amount uint64 `json:"amount"`
			Reason string `json:"reason"`
		}{donateTo, donateAmount, donateReason}

		var status map[string]any
		if err := call(http.MethodPost, "/transaction", key, body, &status); err != nil {
			return err
		}

		return show(status)
	},
}

func init() {
	rootCmd.AddCommand(createCmd, balanceCmd, mintCmd, donateCmd)

	mintCmd.Flags().Uint64VarP(&mintAmount, "amount", "v", 0, "Amount to add.")
	mintCmd.Flags().StringVar(&privateURL, "private-url", "http://localhost:9080", "Url of the node's private api.")
	mintCmd.MarkFlagRequired("amount")

	donateCmd.Flags().StringVarP(&donateTo, "to", "t", "", "Address receiving the funds.")
	donateCmd.Flags().Uint64VarP(&donateAmount, "amount", "v", 0, "Amount to send.")
	donateCmd.Flags().StringVarP(&donateReason, "reason", "r", "", "Reason for the donation.")
	donateCmd.MarkFlagRequired("to")
	donateCmd.MarkFlagRequired("amount")
}
