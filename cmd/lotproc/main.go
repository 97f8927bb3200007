// Command lotproc is the batch CLI: catalog CSV in, wide dimension CSV out.
package main

import (
	"os"

	"github.com/Hettieboo/AuctionDimensionProcessor/internal/interfaces/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
