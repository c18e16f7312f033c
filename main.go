package main

import (
	"os"

	"github.com/TrashScientist/contract-features/cli"
)

var version = "dev"

func main() {
	if err := cli.Execute(version); err != nil {
		os.Exit(1)
	}
}
