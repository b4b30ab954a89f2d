package main

import (
	"fmt"
	"os"

	"github.com/mmcdole/crate/cmd/crate/app"
)

// Version is set at build time via -ldflags
var Version = "dev"

func main() {
	if err := app.NewRootCmd(Version).Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
