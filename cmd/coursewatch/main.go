package main

import (
	"os"

	"github.com/coursewatch/coursewatch/internal/adapters/driving/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
