// Package main is the photostory entry point.
package main

import (
	"context"
	"os"

	"github.com/hyperjump/photostory/internal/cli"
)

var version = "dev"

func main() {
	root := cli.NewRootCommand(version, runServer)
	os.Exit(cli.Execute(context.Background(), root))
}
