package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/dshills/filecontext-mcp/internal/storage"
)

var flagConfig string

var rootCmd = &cobra.Command{
	Use:   "filecontext",
	Short: "Hybrid filename and content search over local files",
	Long: `FileContext indexes local files for retrieval by AI assistants and people.

Filenames and file contents are embedded into vector collections, chunk text
is mirrored into a full-text index, and searches fuse both rankings. Run
"filecontext serve" to expose the index over MCP, or use the index, search,
and status subcommands directly.`,
	SilenceUsage: true,
}

// Execute runs the root command and exits nonzero on error
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagConfig, "config", "",
		"config file (default ./filecontext.yaml, then ~/.config/filecontext/config.yaml)")

	rootCmd.Version = fmt.Sprintf("%s (built %s)", version, buildTime)
	rootCmd.SetVersionTemplate(fmt.Sprintf(
		"FileContext MCP Server\nVersion: %s\nBuild Time: %s\nBuild Mode: %s\nSQLite Driver: %s\nVector Extension: %v\n",
		version, buildTime, storage.BuildMode, storage.DriverName, storage.VectorExtensionAvailable))
}
