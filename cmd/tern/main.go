// Package main provides the tern command.
package main

import (
	"os"

	"github.com/leapstack-labs/tern/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
