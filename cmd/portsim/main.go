package main

import (
	"os"

	"github.com/rustyeddy/portsim/cmd/portsim/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
