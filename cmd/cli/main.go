// paidlog - checkout conversion statistics from access logs.
//
// paidlog correlates access-log visits to the hobbit and columbus checkout
// flows with a set of paid transaction identifiers.
package main

import (
	"os"

	"github.com/ccollicutt/paidlog/internal/cli"
)

func main() {
	os.Exit(cli.Execute())
}
