package main

import (
	"os"

	"github.com/tmater/boostprobe/internal/cli"
)

func main() {
	os.Exit(cli.Execute())
}
