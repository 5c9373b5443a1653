// plateplan plans robot probe placement and hexabundle allocation for the
// tiles of a multi-object fibre survey.
//
// Build:
//
//	go build -o plateplan ./cmd/plateplan
package main

import (
	"fmt"
	"os"

	"github.com/piwi3910/plateplan/internal/cli"
)

var version = "dev"

func main() {
	cli.SetVersion(version)

	if err := cli.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
