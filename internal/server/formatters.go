// Package server hosts the MCP tool surface over the core graph-of-thoughts
// engine: a thin, non-core collaborator per spec.md §1's "out of scope"
// list, grounded on the teacher's internal/server/server.go wiring and
// internal/server/handlers/got.go tool shape.
package server

import (
	"encoding/json"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// toJSONContent marshals data to a single MCP TextContent block. Simplified
// from the teacher's toJSONContent: that one runs output through a
// configurable claudecode/format response formatter (full/compact/minimal
// levels) this module has no use for, since nothing here renders for a
// Claude Code-specific consumer.
func toJSONContent(data any) []mcp.Content {
	jsonData, err := json.Marshal(data)
	if err != nil {
		jsonData, _ = json.Marshal(map[string]string{"error": err.Error()})
	}
	return []mcp.Content{&mcp.TextContent{Text: string(jsonData)}}
}
