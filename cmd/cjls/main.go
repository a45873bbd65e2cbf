// Command cjls is the Cangjie language server core: a stdio JSON-RPC
// server (the serve subcommand) plus a version subcommand, wired the way the
// teacher's cmd/up tree wires its own subcommands into a *cobra.Command.
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
