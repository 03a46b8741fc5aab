package main

import (
	"os"

	"github.com/salesim/salesim/internal/cli"
)

func main() {
	os.Exit(cli.Run(os.Args[1:], nil))
}
