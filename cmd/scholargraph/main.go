package main

import (
	"log"
	"os"

	"scholargraph/internal/cli"
)

func main() {
	log.SetFlags(0)
	log.SetOutput(os.Stderr)

	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
