package mcp

import (
	"context"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/spf13/cast"

	"github.com/wricardo/mcp-training/gameoflife/api"
	"github.com/wricardo/mcp-training/gameoflife/game/engine"
	"github.com/wricardo/mcp-training/gameoflife/game/service"
)

// Client is a thin MCP client that proxies to the REST API
type Client struct {
	api       *api.Client
	mcpServer *server.MCPServer
}

// NewClient creates a new MCP client that calls the REST API
func NewClient(baseURL string) *Client {
	c := &Client{
		api: api.NewClient(baseURL),
	}

	c.initMCPServer()
	return c
}

// initMCPServer initializes the MCP server with all tools
func (c *Client) initMCPServer() {
	c.mcpServer = server.NewMCPServer(
		"Game of Life",
		"1.0.0",
		server.WithToolCapabilities(true),
		server.WithInstructions(`Game of Life - MCP Interface

This is a thin client that proxies all requests to the REST API server.

Boards are grids of live (#) and dead (.) cells that evolve by Conway's rules.

AVAILABLE TOOLS:
- create_board: Create a board from a layout or a named pattern
- get_board: Show a board
- list_boards: List all boards
- next_generation: Apply one generation to an idle board
- advance_board: Queue a batch advance of 1-100 generations
- start_board: Let the board evolve continuously
- stop_board: Stop a running board and keep its latest state
- list_patterns: List the named seed patterns
- server_status: Show board counts and queue depth
- life_rules: Explain the rules and how advances conclude

NOTE: advance_board is asynchronous. Poll get_board to see the result.`),
	)

	// Register all tools
	c.registerTools()
}

func idProperty() map[string]any {
	return map[string]any{
		"type":        "string",
		"description": "Board ID",
	}
}

// registerTools registers all MCP tools
func (c *Client) registerTools() {
	// Board management
	c.mcpServer.AddTool(mcp.Tool{
		Name:        "create_board",
		Description: "Create a board from an explicit layout or a named pattern",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]any{
				"layout": map[string]any{
					"type":        "array",
					"items":       map[string]any{"type": "string"},
					"description": "Rows of the grid, '#' for live and '.' for dead cells",
				},
				"pattern": map[string]any{
					"type":        "string",
					"description": "Named pattern to centre on the board (see list_patterns)",
				},
				"rows": map[string]any{
					"type":        "number",
					"description": "Board height when using a pattern (optional)",
				},
				"cols": map[string]any{
					"type":        "number",
					"description": "Board width when using a pattern (optional)",
				},
			},
		},
	}, c.handleCreateBoard)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "get_board",
		Description: "Show the current state of a board",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]any{"board_id": idProperty()},
			Required:   []string{"board_id"},
		},
	}, c.handleGetBoard)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "list_boards",
		Description: "List all boards",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]any{},
		},
	}, c.handleListBoards)

	// Simulation
	c.mcpServer.AddTool(mcp.Tool{
		Name:        "next_generation",
		Description: "Apply one generation to an idle board and show the result",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]any{"board_id": idProperty()},
			Required:   []string{"board_id"},
		},
	}, c.handleNextGeneration)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "advance_board",
		Description: "Queue an advance of up to N generations. It stops early once the board dies out, stops changing or repeats.",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]any{
				"board_id": idProperty(),
				"steps": map[string]any{
					"type":        "number",
					"description": "Maximum generations to run (1-100)",
				},
			},
			Required: []string{"board_id", "steps"},
		},
	}, c.handleAdvance)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "start_board",
		Description: "Start continuous evolution of a board",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]any{"board_id": idProperty()},
			Required:   []string{"board_id"},
		},
	}, c.handleStart)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "stop_board",
		Description: "Stop a running board",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]any{"board_id": idProperty()},
			Required:   []string{"board_id"},
		},
	}, c.handleStop)

	// Patterns and status
	c.mcpServer.AddTool(mcp.Tool{
		Name:        "list_patterns",
		Description: "List the named seed patterns",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]any{},
		},
	}, c.handleListPatterns)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "server_status",
		Description: "Show board counts and advance queue depth",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]any{},
		},
	}, c.handleStatus)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "life_rules",
		Description: "Explain the Game of Life rules and how advances conclude",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]any{},
		},
	}, c.handleRules)
}

// GetMCPServer returns the underlying MCP server
func (c *Client) GetMCPServer() *server.MCPServer {
	return c.mcpServer
}

func boardID(request mcp.CallToolRequest) (string, error) {
	id, err := cast.ToStringE(request.GetArguments()["board_id"])
	if err != nil || strings.TrimSpace(id) == "" {
		return "", fmt.Errorf("board_id is required")
	}
	return id, nil
}

func (c *Client) handleCreateBoard(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := request.GetArguments()

	var req service.CreateBoardRequest
	if raw, ok := args["layout"]; ok && raw != nil {
		rows, err := cast.ToStringSliceE(raw)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("layout must be a list of strings: %v", err)), nil
		}
		grid, err := engine.ParseLayout(rows)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		req.Grid = grid
	}

	req.Pattern = cast.ToString(args["pattern"])
	for key, dst := range map[string]*int{"rows": &req.Rows, "cols": &req.Cols} {
		if raw, ok := args[key]; ok && raw != nil {
			n, err := cast.ToIntE(raw)
			if err != nil {
				return mcp.NewToolResultError(fmt.Sprintf("%s must be a number: %v", key, err)), nil
			}
			*dst = n
		}
	}

	if req.Grid == nil && req.Pattern == "" {
		return mcp.NewToolResultError("provide either layout or pattern"), nil
	}

	resp, err := c.api.CreateBoard(ctx, req)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText("Board created.\n\n" + formatBoard(resp.Board)), nil
}

func (c *Client) handleGetBoard(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := boardID(request)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	board, err := c.api.GetBoard(ctx, id)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(formatBoard(board)), nil
}

func (c *Client) handleListBoards(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	boards, err := c.api.ListBoards(ctx)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(formatBoardList(boards)), nil
}

func (c *Client) handleNextGeneration(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := boardID(request)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	board, err := c.api.NextGeneration(ctx, id)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(formatBoard(board)), nil
}

func (c *Client) handleAdvance(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := boardID(request)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	steps, err := cast.ToIntE(request.GetArguments()["steps"])
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("steps must be a number: %v", err)), nil
	}

	resp, err := c.api.Advance(ctx, id, steps)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(fmt.Sprintf(
		"Advance of up to %d generations %s for board %s.\nUse get_board to see the result once it completes.",
		resp.Steps, resp.Status, resp.BoardID)), nil
}

func (c *Client) handleStart(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := boardID(request)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	if _, err := c.api.Start(ctx, id); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(fmt.Sprintf("Board %s is running.", id)), nil
}

func (c *Client) handleStop(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := boardID(request)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	if _, err := c.api.Stop(ctx, id); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	board, err := c.api.GetBoard(ctx, id)
	if err != nil {
		return mcp.NewToolResultText(fmt.Sprintf("Board %s stopped.", id)), nil
	}
	return mcp.NewToolResultText("Board stopped.\n\n" + formatBoard(board)), nil
}

func (c *Client) handleListPatterns(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	patterns, err := c.api.ListPatterns(ctx)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(formatPatterns(patterns)), nil
}

func (c *Client) handleStatus(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	status, err := c.api.Ready(ctx)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if status == nil {
		return mcp.NewToolResultError("server returned no status"), nil
	}

	return mcp.NewToolResultText(fmt.Sprintf(
		"Boards: %d (%d running)\nQueued advances: %d/%d\nLocked boards: %d",
		status.Boards, status.Running, status.QueuedAdvance, status.QueueCapacity, status.LockedBoards)), nil
}

func (c *Client) handleRules(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultText(`GAME OF LIFE RULES

Each cell has up to eight neighbours. Cells outside the board are dead.

- A live cell with 2 or 3 live neighbours survives.
- A dead cell with exactly 3 live neighbours becomes alive.
- Every other cell is dead in the next generation.

BOARD STATES

Idle boards change only through next_generation or advance_board.
Running boards evolve once per tick until stopped. While running they
reject next_generation and advance_board.

ADVANCES

advance_board runs up to N generations (1-100) in the background and stops
early when the board:
- dies out (extinction),
- stops changing (fixed point), or
- returns to an earlier state (cycle).

If none of these happen within N generations the board is left unchanged.`), nil
}

// Formatting helpers

func formatBoard(board *service.BoardInfo) string {
	if board == nil {
		return "No board"
	}

	state := "idle"
	if board.IsRunning {
		state = "running"
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Board %s (%s)\n", board.ID, state)
	fmt.Fprintf(&b, "Size: %dx%d  Generation: %d  Population: %d\n\n", board.Rows, board.Cols, board.Generation, board.Population)
	b.WriteString(board.Grid.String())
	b.WriteByte('\n')
	return b.String()
}

func formatBoardList(boards []*service.BoardInfo) string {
	if len(boards) == 0 {
		return "No boards. Use create_board to make one."
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%d board(s):\n", len(boards))
	for _, board := range boards {
		state := "idle"
		if board.IsRunning {
			state = "running"
		}
		fmt.Fprintf(&b, "- %s  %dx%d  gen %d  pop %d  %s\n",
			board.ID, board.Rows, board.Cols, board.Generation, board.Population, state)
	}
	return b.String()
}

func formatPatterns(patterns []*service.PatternInfo) string {
	if len(patterns) == 0 {
		return "No patterns available."
	}

	var b strings.Builder
	b.WriteString("Available patterns:\n")
	for _, p := range patterns {
		fmt.Fprintf(&b, "- %s (%dx%d)", p.PatternID, p.Rows, p.Cols)
		if p.Period > 0 {
			fmt.Fprintf(&b, " period %d", p.Period)
		}
		if p.Description != "" {
			fmt.Fprintf(&b, ": %s", p.Description)
		}
		b.WriteByte('\n')
	}
	return b.String()
}
