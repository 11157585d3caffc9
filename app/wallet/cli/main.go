package main

import "github.com/blockforge/ledger/app/wallet/cli/cmd"

func main() {
	cmd.Execute()
}
