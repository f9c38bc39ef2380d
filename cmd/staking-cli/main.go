package main

import "staking-core/cmd/staking-cli/cmd"

func main() {
	cmd.Execute()
}
