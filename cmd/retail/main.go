package main

import (
	"os"

	"github.com/wonny/retailpulse/cmd/retail/commands"
)

// main is the entry point for the retailpulse CLI
// ⭐ single CLI entry point: go run ./cmd/retail [command]
func main() {
	if err := commands.Execute(); err != nil {
		os.Exit(1)
	}
}
