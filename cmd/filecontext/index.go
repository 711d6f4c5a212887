package main

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/dshills/filecontext-mcp/pkg/types"
)

var (
	flagRecursive    bool
	flagFilenameOnly bool
)

var indexCmd = &cobra.Command{
	Use:   "index <path>",
	Short: "Index a file or folder",
	Args:  cobra.ExactArgs(1),
	RunE:  runIndex,
}

func runIndex(cmd *cobra.Command, args []string) error {
	path, err := filepath.Abs(args[0])
	if err != nil {
		return err
	}

	info, err := os.Stat(path)
	if err != nil {
		return err
	}

	a, err := buildApp()
	if err != nil {
		return err
	}
	defer a.Close()

	start := time.Now()

	if info.IsDir() {
		progress := func(completed, total int, result *types.IndexFileResult) {
			marker := "ok"
			if !result.Success {
				marker = "failed"
			}
			fmt.Printf("  [%d/%d] %s (%s)\n", completed, total, result.Path, marker)
		}

		result, err := a.indexer.IndexFolder(cmd.Context(), path, flagRecursive, progress)
		if err != nil {
			return err
		}

		fmt.Printf("\nDone in %s\n", time.Since(start).Round(time.Millisecond))
		fmt.Printf("  Files:  %d total, %d indexed, %d failed\n",
			result.TotalFiles, result.IndexedFiles, result.FailedFiles)
		fmt.Printf("  Chunks: %d\n", result.TotalChunks)
		for _, e := range result.Errors {
			fmt.Printf("  error: %s\n", e)
		}
		return nil
	}

	result := a.indexer.IndexFile(cmd.Context(), path, !flagFilenameOnly)
	if !result.Success {
		return fmt.Errorf("index %s: %s", path, result.Error)
	}

	fmt.Printf("Indexed %s in %s\n", path, time.Since(start).Round(time.Millisecond))
	if result.ContentIndexed {
		fmt.Printf("  Chunks: %d (%d deduplicated, %d embedded)\n",
			result.ChunkCount, result.DeduplicatedCount, result.EmbeddingsGenerated)
	}
	return nil
}

func init() {
	indexCmd.Flags().BoolVarP(&flagRecursive, "recursive", "r", false, "descend into subdirectories")
	indexCmd.Flags().BoolVar(&flagFilenameOnly, "filename-only", false, "index the filename without reading content")
	rootCmd.AddCommand(indexCmd)
}
