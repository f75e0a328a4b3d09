package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// Version information - will be set at build time
var (
	Version   = "dev"
	GitCommit = "unknown"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "compound",
		Short: "JSON:API compound-document server",
		Long: `Compound serves registered resources as JSON:API documents, resolving
relationship inclusions (?include=author.publisher) into deduplicated
compound documents.`,
	}

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(versionCmd)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
