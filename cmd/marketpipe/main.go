package main

import (
	"os"

	"github.com/wonny/marketpipe/cmd/marketpipe/commands"
)

// main is the entry point for the marketpipe CLI
// ⭐ 통합 CLI 진입점: go run ./cmd/marketpipe [command]
func main() {
	if err := commands.Execute(); err != nil {
		os.Exit(1)
	}
}
