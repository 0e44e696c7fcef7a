package main

import (
	"os"

	"github.com/Mu-L/nn-vis/cmd/nnvis/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		os.Exit(1)
	}
}
