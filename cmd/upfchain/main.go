package main

import (
	"os"

	"github.com/candle-hpc/upfchain/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
