package main

import (
	"os"

	"github.com/solvrlabs/solvr/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
