// Package main implements the pidx CLI for reading and editing the project
// index through a running projectindex server.
package main

import (
	"os"

	"github.com/spf13/cobra"
)

var (
	// serverURL is the base URL for the projectindex HTTP server
	serverURL string
	// version information
	version = "dev"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "pidx",
	Short: "CLI for the projectindex server",
	Long: `pidx is a command-line interface for the projectindex HTTP server.
It lists deployed projects and edits single fields of a project record.`,
	Version:      version,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&serverURL, "server", "http://localhost:3000", "projectindex server URL")
	rootCmd.AddCommand(healthCmd)
	rootCmd.AddCommand(listCmd)
	rootCmd.AddCommand(getCmd)
	rootCmd.AddCommand(setTitleCmd)
	rootCmd.AddCommand(setFieldCmd)
	rootCmd.AddCommand(refreshCmd)
}
