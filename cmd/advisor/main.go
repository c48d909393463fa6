package main

import (
	"os"

	"CryptoAdvisor/internal/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		os.Exit(1)
	}
}
