// Command evloop runs the energy-window analysis over record files.
package main

import (
	"context"
	"os"

	"github.com/roach88/evloop/internal/cli"
)

func main() {
	os.Exit(cli.Execute(context.Background(), os.Args[1:], os.Stdout, os.Stderr))
}
