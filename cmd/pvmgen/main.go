package main

import (
	"os"

	"github.com/branched-services/go-pvm/cmd/pvmgen/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		os.Exit(1)
	}
}
