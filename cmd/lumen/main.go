// Package main is the entry point for the Lumen CLI.
package main

import (
	"os"

	"github.com/lumenwallet/lumen/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(cli.ExitCode(err))
	}
}
