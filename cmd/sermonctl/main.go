// Command sermonctl is the command line client for a local sermon library.
package main

import (
	"os"

	"github.com/joho/godotenv"

	"github.com/tbourn/sermon-search/internal/cli"
	"github.com/tbourn/sermon-search/internal/sysutil"
)

// version is set at build time with -ldflags "-X main.version=...".
var version string

func main() {
	_ = godotenv.Load()
	if err := cli.Execute(sysutil.Version(version)); err != nil {
		os.Exit(1)
	}
}
