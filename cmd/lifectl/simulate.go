package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/urfave/cli/v3"

	"github.com/wricardo/mcp-training/gameoflife/game/config"
	"github.com/wricardo/mcp-training/gameoflife/game/engine"
	"github.com/wricardo/mcp-training/gameoflife/game/service"
	"github.com/wricardo/mcp-training/gameoflife/game/simulation"
)

func simulateCommand() *cli.Command {
	return &cli.Command{
		Name:      "simulate",
		Usage:     "Evolve a pattern locally and report how it concludes",
		ArgsUsage: "PATTERN_NAME|PATTERN_FILE.json",
		Flags: []cli.Flag{
			&cli.IntFlag{Name: "steps", Value: engine.MaxSteps, Usage: "maximum generations to run"},
			&cli.IntFlag{Name: "rows", Usage: "board height (defaults to the pattern's)"},
			&cli.IntFlag{Name: "cols", Usage: "board width (defaults to the pattern's)"},
			&cli.StringFlag{Name: "patterns-dir", Value: "patterns", Usage: "directory of named pattern files", Sources: cli.EnvVars("GOL_PATTERNS_DIR")},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			arg := strings.TrimSpace(cmd.Args().First())
			if arg == "" {
				return fmt.Errorf("a pattern name or file is required")
			}
			steps := cmd.Int("steps")
			if steps < 1 {
				return fmt.Errorf("%w: %d", service.ErrInvalidSteps, steps)
			}

			pattern, err := loadPattern(arg, cmd.String("patterns-dir"))
			if err != nil {
				return err
			}
			seed, err := pattern.Grid()
			if err != nil {
				return err
			}
			grid := engine.Place(seed, cmd.Int("rows"), cmd.Int("cols"))

			result, err := simulation.Evolve(ctx, grid, steps)
			if err != nil {
				return err
			}

			if cmd.Bool("json") {
				return printJSON(cmd, map[string]any{
					"pattern":     pattern.Name,
					"generations": result.Generations,
					"conclusion":  result.Conclusion.String(),
					"period":      result.Period,
					"population":  result.Grid.Alive(),
					"grid":        result.Grid,
				})
			}

			out := cmd.Root().Writer
			fmt.Fprintf(out, "%s: %s after %d generations", pattern.Name, result.Conclusion, result.Generations)
			if result.Conclusion == simulation.Cycle {
				fmt.Fprintf(out, " (period %d)", result.Period)
			}
			fmt.Fprintf(out, ", population %d\n%s\n", result.Grid.Alive(), result.Grid.String())
			return nil
		},
	}
}

// loadPattern reads arg as a pattern file when it names one, and otherwise
// looks it up by name in dir and the built-in set.
func loadPattern(arg, dir string) (*service.Pattern, error) {
	if strings.HasSuffix(arg, ".json") {
		data, err := os.ReadFile(arg)
		if err != nil {
			return nil, err
		}
		var pattern service.Pattern
		if err := json.Unmarshal(data, &pattern); err != nil {
			return nil, fmt.Errorf("%w: %s: %v", config.ErrInvalidPattern, arg, err)
		}
		if pattern.Name == "" {
			pattern.Name = arg
		}
		return &pattern, nil
	}

	patterns, err := config.NewPatternManager(dir)
	if err != nil {
		return nil, err
	}
	return patterns.LoadPattern(arg)
}
