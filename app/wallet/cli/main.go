package main

import "github.com/charityblock/ledger/app/wallet/cli/cmd"

func main() {
	cmd.Execute()
}
