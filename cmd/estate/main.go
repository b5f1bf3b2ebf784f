package main

import (
	"os"

	"github.com/joseph-ayodele/estate-toolkit/internal/cli"
)

func main() {
	os.Exit(cli.Execute())
}
