package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/dshills/filecontext-mcp/internal/searcher"
)

var (
	flagMode   string
	flagLimit  int
	flagOffset int
)

var searchCmd = &cobra.Command{
	Use:   "search <query>",
	Short: "Search indexed files",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runSearch,
}

func runSearch(cmd *cobra.Command, args []string) error {
	query := strings.Join(args, " ")

	a, err := buildApp()
	if err != nil {
		return err
	}
	defer a.Close()

	resp, err := a.searcher.Search(cmd.Context(), searcher.Request{
		Query:    query,
		Mode:     searcher.SearchMode(flagMode),
		TopK:     flagLimit,
		Offset:   flagOffset,
		CacheTTL: a.cacheTTL(),
	})
	if err != nil {
		return err
	}

	if len(resp.Results) == 0 {
		fmt.Printf("No results for %q\n", query)
		return nil
	}

	fmt.Printf("%d results for %q (%s search, %s)\n\n",
		len(resp.Results), query, resp.Mode, resp.Duration.Round(time.Millisecond))

	for i, r := range resp.Results {
		fmt.Printf("%2d. %s  [%.1f %s, %s]\n", flagOffset+i+1, r.FilePath, r.Score, r.Tier(), r.MatchType)
		if r.Snippet != "" {
			fmt.Printf("    %s\n", oneLine(stripMarks(r.Snippet)))
		}
	}

	if resp.HasMore {
		fmt.Printf("\nMore results available, rerun with --offset %d\n", flagOffset+len(resp.Results))
	}
	return nil
}

// stripMarks removes the <mark> highlighting the keyword index embeds in
// snippets; it reads poorly in a terminal.
func stripMarks(s string) string {
	s = strings.ReplaceAll(s, "<mark>", "")
	return strings.ReplaceAll(s, "</mark>", "")
}

func oneLine(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

func init() {
	searchCmd.Flags().StringVarP(&flagMode, "mode", "m", "hybrid", "search mode: filename, content, hybrid, or combined")
	searchCmd.Flags().IntVarP(&flagLimit, "limit", "n", searcher.DefaultTopK, "maximum results")
	searchCmd.Flags().IntVar(&flagOffset, "offset", 0, "results to skip for pagination")
	rootCmd.AddCommand(searchCmd)
}
