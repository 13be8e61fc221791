package main

import (
	"os"

	"github.com/avvvet/tarjetas/cmd/cardctl/commands"
)

func main() {
	// Errors are printed by the printer package
	if err := commands.Execute(); err != nil {
		os.Exit(1)
	}
}
