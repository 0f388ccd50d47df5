package main

import (
	"os"

	"gastos/internal/commands"
	"gastos/internal/logger"
)

func main() {
	defer logger.Sync()

	if err := commands.NewRootCommand().Execute(); err != nil {
		os.Exit(1)
	}
}
