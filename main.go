package main

import (
	"os"

	"github.com/temirov/repofleet/cmd/cli"
)

// main executes the repofleet command-line application.
func main() {
	os.Exit(cli.Run(os.Args, os.Stdin, os.Stdout, os.Stderr))
}
