// Copyright 2024 Canonical Ltd.
// Licensed under Apache 2.0, see LICENCE file for details.

// Command rowgraph runs a set of queries against a database and prints the
// record graph assembled from their results.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// Version information, set at build time.
var (
	Version   = "dev"
	GitCommit = "unknown"
)

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "rowgraph",
		Short: "Assemble query results into a record graph",
		Long: `rowgraph runs the table queries of a graph description, turns every
result into records and links them through the configured relationships.`,
		SilenceUsage: true,
	}
	root.AddCommand(newGraphCmd())
	root.AddCommand(newVersionCmd())
	return root
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
