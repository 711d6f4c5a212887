package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/dshills/filecontext-mcp/internal/mcp"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the MCP server on stdio",
	RunE:  runServe,
}

func runServe(cmd *cobra.Command, args []string) error {
	a, err := buildApp()
	if err != nil {
		return err
	}
	defer a.Close()

	server := mcp.NewServer(a.store, a.indexer, a.searcher)

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	errChan := make(chan error, 1)
	go func() {
		log.Printf("%s v%s ready, listening on stdio (provider=%s model=%s)...",
			mcp.ServerName, version, a.embedder.Provider(), a.embedder.Model())
		errChan <- server.Serve(ctx)
	}()

	select {
	case sig := <-sigChan:
		log.Printf("received signal %v, shutting down gracefully...", sig)
		cancel()
		return nil
	case err := <-errChan:
		return err
	}
}

func init() {
	rootCmd.AddCommand(serveCmd)
}
