package main

import (
	"os"

	"github.com/wonop-io/rush/internal/cli"
)

func main() {
	os.Exit(cli.Execute())
}
