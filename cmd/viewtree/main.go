// Command viewtree reconciles viewtree.yaml fixtures into HTML.
package main

import (
	"fmt"
	"os"

	"github.com/go-drift/viewtree/cmd/viewtree/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
