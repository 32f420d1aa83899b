package main

import (
	"os"

	"github.com/funvibe/nasal/pkg/cli"
)

func main() {
	os.Exit(cli.Execute())
}
