package main

import (
	"os"

	"github.com/oremus-labs/catchat/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
