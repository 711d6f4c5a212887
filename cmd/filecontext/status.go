package main

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show index statistics and health",
	RunE:  runStatus,
}

func runStatus(cmd *cobra.Command, args []string) error {
	a, err := buildApp()
	if err != nil {
		return err
	}
	defer a.Close()

	status, err := a.store.GetStatus(cmd.Context())
	if err != nil {
		return err
	}

	fmt.Printf("Files:        %d\n", status.TotalFiles)
	for _, st := range sortedKeys(status.FilesByStatus) {
		fmt.Printf("  %-18s %d\n", st, status.FilesByStatus[st])
	}
	fmt.Printf("Folders:      %d\n", status.TotalFolders)
	fmt.Printf("Chunks:       %d\n", status.TotalChunks)
	fmt.Printf("Keyword docs: %d\n", status.KeywordDocs)
	for _, name := range sortedKeys(status.VectorsByCollection) {
		fmt.Printf("  vectors in %-14s %d\n", name, status.VectorsByCollection[name])
	}
	fmt.Printf("Searches:     %d\n", status.SearchCount)
	fmt.Printf("Index size:   %.2f MB\n", status.IndexSizeMB)
	fmt.Printf("Schema:       %s\n", status.SchemaVersion)

	fmt.Printf("Health:       database=%v vectors=%v fts=%v\n",
		status.Health.DatabaseAccessible, status.Health.VectorIndexBuilt, status.Health.FTSIndexBuilt)
	fmt.Printf("Embedder:     %s (%s), available=%v, breaker=%s\n",
		a.embedder.Provider(), a.embedder.Model(), a.embedder.IsAvailable(), a.embedder.BreakerState())

	return nil
}

func sortedKeys[K ~string, V any](m map[K]V) []K {
	keys := make([]K, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })
	return keys
}

func init() {
	rootCmd.AddCommand(statusCmd)
}
