package main

import (
	"os"

	"cardtrack/cmd/cardctl/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		os.Exit(1)
	}
}
