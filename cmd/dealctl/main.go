// cmd/dealctl/main.go
package main

import (
	"fmt"
	"os"

	"deal-workers/internal/cli"
)

func main() {
	if err := cli.NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}
