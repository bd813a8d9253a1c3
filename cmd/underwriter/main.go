package main

import (
	"os"

	"github.com/loanlab/underwriter/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
