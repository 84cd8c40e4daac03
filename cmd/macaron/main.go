// Package main is the macaron command line tool.
package main

import (
	"os"

	"github.com/macaronorm/macaron/cli"
)

func main() {
	if err := cli.NewRootCommand().Execute(); err != nil {
		os.Exit(1)
	}
}
