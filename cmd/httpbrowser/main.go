// Command httpbrowser opens pages through a browser session or serves the
// test application.
//
// Usage:
//
//	httpbrowser open /info --url http://localhost:8000
//	httpbrowser testapp --addr localhost:8000
package main

import (
	"fmt"
	"os"

	"github.com/raysh454/httpbrowser/internal/cli"
)

func main() {
	if err := cli.NewRootCommand(os.Stdout).Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}
