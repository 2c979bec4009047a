package main

import (
	"os"

	"github.com/janjanpower/text-alignment-tool/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
