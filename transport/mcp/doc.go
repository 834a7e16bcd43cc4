// Package mcp exposes the Game of Life server to AI agents over the Model
// Context Protocol.
//
// The Client is a thin proxy: every tool calls the REST API through
// api.Client, so an MCP session sees exactly what HTTP callers see.
//
// MCP Tools:
//   - create_board: Create a board from a layout or a named pattern
//   - get_board, list_boards: Inspect boards
//   - next_generation: Apply one generation to an idle board
//   - advance_board: Queue a batch advance of 1-100 generations
//   - start_board, stop_board: Toggle continuous evolution
//   - list_patterns: List seed patterns
//   - server_status: Board counts and queue depth
//   - life_rules: The rules and advance conclusions
//
// Transport Modes:
//
// The server binary mounts the MCP server on /mcp and can also serve it on
// stdio, in which case it starts the REST API on a loopback port and points
// the client there.
//
// Usage:
//
//	client := mcp.NewClient("http://localhost:8080")
//	server.ServeStdio(client.GetMCPServer())
package mcp
