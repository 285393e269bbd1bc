// Package main provides the leapsparql command.
package main

import (
	"os"

	"github.com/leapstack-labs/leapsparql/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
