// Package main provides the entry point for the graph-of-thoughts MCP
// server. It is designed to be spawned as a child process by an MCP client
// and communicates via stdio.
//
// Environment variables:
//   - GOT_VERBOSE: set to "true" to force verbose logging even when stdout
//     is not a terminal (verbose logging is on by default when it is).
//   - GOT_SQLITE_PATH: path to a SQLite database used for checkpoint
//     persistence. When unset, got-checkpoint-save/got-checkpoint-load
//     are unavailable.
package main

import (
	"context"
	"log"
	"os"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/mattn/go-isatty"
	"github.com/modelcontextprotocol/go-sdk/mcp"

	"graphreason/internal/persistence"
	"graphreason/internal/persistence/sqlite"
	"graphreason/internal/server"
)

func main() {
	start := time.Now()

	verbose := isatty.IsTerminal(os.Stdout.Fd()) || os.Getenv("GOT_VERBOSE") == "true"
	if verbose {
		log.SetFlags(log.LstdFlags | log.Lshortfile)
		log.Println("Starting graph-of-thoughts server in verbose mode...")
	}

	var store persistence.IncrementalPersistence
	if dbPath := os.Getenv("GOT_SQLITE_PATH"); dbPath != "" {
		sqliteStore, err := sqlite.Open(dbPath)
		if err != nil {
			log.Fatalf("Failed to open checkpoint store: %v", err)
		}
		defer func() {
			if err := sqliteStore.Close(); err != nil {
				log.Printf("Warning: failed to close checkpoint store: %v", err)
			}
		}()
		store = sqliteStore
		log.Printf("Opened checkpoint store at %s", dbPath)
	} else {
		log.Println("GOT_SQLITE_PATH not set, checkpoint tools disabled")
	}

	srv := server.New(store)
	log.Println("Created graph-of-thoughts server")

	mcpServer := mcp.NewServer(&mcp.Implementation{
		Name:    "graphreason-server",
		Version: "1.0.0",
	}, nil)
	log.Println("Created MCP server")

	srv.RegisterTools(mcpServer)
	log.Println("Registered tools: got-init, got-expand, got-search, got-get-state, got-prune, got-checkpoint-save, got-checkpoint-load")

	transport := &mcp.StdioTransport{}
	log.Printf("Created stdio transport (startup took %s)", humanize.RelTime(start, time.Now(), "ago", "from now"))

	ctx := context.Background()
	log.Println("Starting MCP server...")
	if err := mcpServer.Run(ctx, transport); err != nil {
		log.Fatalf("Server error: %v", err)
	}
}
