// Command lifectl drives a Game of Life server from the terminal. It can
// create and inspect boards, queue advances, start and stop live boards,
// follow a board's events over the websocket, and run patterns offline.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cast"
	"github.com/urfave/cli/v3"

	"github.com/wricardo/mcp-training/gameoflife/api"
	"github.com/wricardo/mcp-training/gameoflife/game/engine"
	"github.com/wricardo/mcp-training/gameoflife/game/service"
)

func main() {
	_ = godotenv.Load()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newApp().Run(ctx, os.Args); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func newApp() *cli.Command {
	return &cli.Command{
		Name:  "lifectl",
		Usage: "Control a Game of Life server",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "server",
				Value:   "http://localhost:8080",
				Usage:   "server base URL",
				Sources: cli.EnvVars("LIFE_SERVER"),
			},
			&cli.BoolFlag{
				Name:  "json",
				Usage: "print raw JSON instead of text",
			},
			&cli.BoolFlag{
				Name:    "debug",
				Usage:   "enable debug logging",
				Sources: cli.EnvVars("DEBUG"),
			},
		},
		Commands: []*cli.Command{
			createCommand(),
			{
				Name:      "get",
				Usage:     "Show a board",
				ArgsUsage: "BOARD_ID",
				Action: withBoard(func(ctx context.Context, cmd *cli.Command, c *api.Client, id string) error {
					board, err := c.GetBoard(ctx, id)
					if err != nil {
						return err
					}
					return printBoard(cmd, board)
				}),
			},
			{
				Name:  "list",
				Usage: "List boards",
				Action: func(ctx context.Context, cmd *cli.Command) error {
					boards, err := client(cmd).ListBoards(ctx)
					if err != nil {
						return err
					}
					if cmd.Bool("json") {
						return printJSON(cmd, boards)
					}
					out := cmd.Root().Writer
					if len(boards) == 0 {
						fmt.Fprintln(out, "No boards")
						return nil
					}
					for _, b := range boards {
						fmt.Fprintf(out, "%s\t%dx%d\tgen %d\tpop %d\t%s\n",
							b.ID, b.Rows, b.Cols, b.Generation, b.Population, runState(b.IsRunning))
					}
					return nil
				},
			},
			{
				Name:      "next",
				Usage:     "Apply one generation to an idle board",
				ArgsUsage: "BOARD_ID",
				Action: withBoard(func(ctx context.Context, cmd *cli.Command, c *api.Client, id string) error {
					board, err := c.NextGeneration(ctx, id)
					if err != nil {
						return err
					}
					return printBoard(cmd, board)
				}),
			},
			{
				Name:      "advance",
				Usage:     "Queue an advance of up to STEPS generations",
				ArgsUsage: "BOARD_ID STEPS",
				Action: func(ctx context.Context, cmd *cli.Command) error {
					if cmd.Args().Len() != 2 {
						return fmt.Errorf("usage: lifectl advance BOARD_ID STEPS")
					}
					steps, err := cast.ToIntE(cmd.Args().Get(1))
					if err != nil {
						return fmt.Errorf("steps must be a number: %w", err)
					}
					resp, err := client(cmd).Advance(ctx, cmd.Args().First(), steps)
					if err != nil {
						return err
					}
					if cmd.Bool("json") {
						return printJSON(cmd, resp)
					}
					fmt.Fprintf(cmd.Root().Writer, "Advance of up to %d generations %s for %s\n", resp.Steps, resp.Status, resp.BoardID)
					return nil
				},
			},
			{
				Name:      "start",
				Usage:     "Start continuous evolution",
				ArgsUsage: "BOARD_ID",
				Action: withBoard(func(ctx context.Context, cmd *cli.Command, c *api.Client, id string) error {
					resp, err := c.Start(ctx, id)
					if err != nil {
						return err
					}
					fmt.Fprintf(cmd.Root().Writer, "%s %s\n", resp.BoardID, runState(resp.IsRunning))
					return nil
				}),
			},
			{
				Name:      "stop",
				Usage:     "Stop continuous evolution",
				ArgsUsage: "BOARD_ID",
				Action: withBoard(func(ctx context.Context, cmd *cli.Command, c *api.Client, id string) error {
					resp, err := c.Stop(ctx, id)
					if err != nil {
						return err
					}
					fmt.Fprintf(cmd.Root().Writer, "%s %s\n", resp.BoardID, runState(resp.IsRunning))
					return nil
				}),
			},
			{
				Name:  "patterns",
				Usage: "List seed patterns known to the server",
				Action: func(ctx context.Context, cmd *cli.Command) error {
					patterns, err := client(cmd).ListPatterns(ctx)
					if err != nil {
						return err
					}
					if cmd.Bool("json") {
						return printJSON(cmd, patterns)
					}
					for _, p := range patterns {
						fmt.Fprintf(cmd.Root().Writer, "%s\t%dx%d\t%s\n", p.PatternID, p.Rows, p.Cols, p.Description)
					}
					return nil
				},
			},
			{
				Name:  "status",
				Usage: "Show server readiness and queue depth",
				Action: func(ctx context.Context, cmd *cli.Command) error {
					status, err := client(cmd).Ready(ctx)
					if err != nil {
						return err
					}
					if cmd.Bool("json") || status == nil {
						return printJSON(cmd, status)
					}
					fmt.Fprintf(cmd.Root().Writer, "boards=%d running=%d queued=%d/%d locked=%d\n",
						status.Boards, status.Running, status.QueuedAdvance, status.QueueCapacity, status.LockedBoards)
					return nil
				},
			},
			watchCommand(),
			simulateCommand(),
		},
	}
}

func createCommand() *cli.Command {
	return &cli.Command{
		Name:  "create",
		Usage: "Create a board from a pattern or an explicit layout",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "pattern", Usage: "named seed pattern"},
			&cli.IntFlag{Name: "rows", Usage: "board height when using a pattern"},
			&cli.IntFlag{Name: "cols", Usage: "board width when using a pattern"},
			&cli.StringSliceFlag{Name: "layout", Usage: "grid row using '#' and '.', repeat for each row"},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			req := service.CreateBoardRequest{
				Pattern: cmd.String("pattern"),
				Rows:    cmd.Int("rows"),
				Cols:    cmd.Int("cols"),
			}
			if layout := cmd.StringSlice("layout"); len(layout) > 0 {
				grid, err := engine.ParseLayout(layout)
				if err != nil {
					return err
				}
				req.Grid = grid
			}
			if req.Pattern == "" && req.Grid == nil {
				return fmt.Errorf("one of --pattern or --layout is required")
			}

			resp, err := client(cmd).CreateBoard(ctx, req)
			if err != nil {
				return err
			}
			return printBoard(cmd, resp.Board)
		},
	}
}

// withBoard wraps an action that takes a single BOARD_ID argument.
func withBoard(fn func(ctx context.Context, cmd *cli.Command, c *api.Client, id string) error) cli.ActionFunc {
	return func(ctx context.Context, cmd *cli.Command) error {
		id := strings.TrimSpace(cmd.Args().First())
		if id == "" {
			return fmt.Errorf("BOARD_ID is required")
		}
		return fn(ctx, cmd, client(cmd), id)
	}
}

func client(cmd *cli.Command) *api.Client {
	return api.NewClient(cmd.String("server"))
}

func runState(running bool) string {
	if running {
		return "running"
	}
	return "idle"
}

func printJSON(cmd *cli.Command, v any) error {
	enc := json.NewEncoder(cmd.Root().Writer)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func printBoard(cmd *cli.Command, board *service.BoardInfo) error {
	if cmd.Bool("json") {
		return printJSON(cmd, board)
	}
	writeBoard(cmd.Root().Writer, board)
	return nil
}

func writeBoard(out io.Writer, board *service.BoardInfo) {
	fmt.Fprintf(out, "%s  %dx%d  generation %d  population %d  %s  updated %s\n",
		board.ID, board.Rows, board.Cols, board.Generation, board.Population,
		runState(board.IsRunning), board.LastUpdatedAt.Format(time.RFC3339))
	fmt.Fprintln(out, board.Grid.String())
}
