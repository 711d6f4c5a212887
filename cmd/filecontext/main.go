package main

import (
	"log"
	"os"

	"github.com/joho/godotenv"
)

var (
	version   = "dev"
	buildTime = "unknown"
)

func main() {
	// Log to stderr. Under serve, stdout carries the MCP protocol.
	log.SetOutput(os.Stderr)

	// Optional .env overlay for provider credentials and DSNs
	_ = godotenv.Load()

	Execute()
}
