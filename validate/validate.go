// Command validate checks the seed pattern JSON files in ../patterns (or the
// files named on the command line). It checks:
//   - JSON structure and required fields
//   - Layout is rectangular and uses only '#' and '.'
//   - Dimensions fit on a board and at least one cell is alive
//   - A declared period matches how the pattern actually evolves, allowing
//     for spaceships that come back shifted
package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/wricardo/mcp-training/gameoflife/game/engine"
	"github.com/wricardo/mcp-training/gameoflife/game/service"
)

// ValidationResult captures the outcome of validating a single file.
// If Valid is true, Errors contains informational messages; otherwise it
// accumulates the validation errors that were found.
type ValidationResult struct {
	File   string
	Valid  bool
	Errors []string
}

func (r *ValidationResult) fail(format string, args ...any) {
	r.Valid = false
	r.Errors = append(r.Errors, fmt.Sprintf(format, args...))
}

func (r *ValidationResult) info(format string, args ...any) {
	r.Errors = append(r.Errors, "✓ "+fmt.Sprintf(format, args...))
}

// validatePattern loads and validates a single pattern JSON file.
func validatePattern(filePath string) ValidationResult {
	result := ValidationResult{
		File:   filepath.Base(filePath),
		Valid:  true,
		Errors: []string{},
	}

	data, err := os.ReadFile(filePath)
	if err != nil {
		result.fail("Failed to read file: %v", err)
		return result
	}

	var pattern service.Pattern
	if err := json.Unmarshal(data, &pattern); err != nil {
		result.fail("Invalid JSON: %v", err)
		return result
	}

	if strings.TrimSpace(pattern.Name) == "" {
		result.fail("Missing name")
	}
	if pattern.Period < 0 {
		result.fail("Period must not be negative, got %d", pattern.Period)
	}

	if len(pattern.Layout) == 0 {
		result.fail("Layout is empty")
		return result
	}

	width := len(pattern.Layout[0])
	for i, row := range pattern.Layout {
		if len(row) != width {
			result.fail("Row %d has width %d, expected %d", i, len(row), width)
		}
		for j, ch := range row {
			if ch != '#' && ch != '.' {
				result.fail("Invalid character '%c' at (%d,%d)", ch, i, j)
			}
		}
	}
	if !result.Valid {
		return result
	}

	if len(pattern.Layout) > engine.MaxGridSize || width > engine.MaxGridSize {
		result.fail("Pattern is %dx%d, larger than the %dx%d board limit",
			len(pattern.Layout), width, engine.MaxGridSize, engine.MaxGridSize)
		return result
	}

	grid, err := engine.ParseLayout(pattern.Layout)
	if err != nil {
		result.fail("Layout does not parse: %v", err)
		return result
	}

	population := grid.Alive()
	if population == 0 {
		result.fail("Pattern has no live cells")
		return result
	}
	result.info("%dx%d, %d live cells", len(grid), width, population)

	if pattern.Period > 0 {
		found, err := findPeriod(grid, pattern.Period)
		switch {
		case err != nil:
			result.fail("Period check failed: %v", err)
		case found == 0:
			result.fail("Declared period %d, but the pattern does not recur within %d generations", pattern.Period, pattern.Period)
		case found != pattern.Period:
			result.fail("Declared period %d, but the pattern recurs after %d generations", pattern.Period, found)
		default:
			result.info("Period %d confirmed", found)
		}
	}

	return result
}

// findPeriod evolves pattern on a board padded so that nothing reaches the
// edge within limit generations. It returns the first generation at which
// the live cells have the same shape as at the start, ignoring translation,
// or 0 if that does not happen within limit generations.
func findPeriod(pattern engine.Grid, limit int) (int, error) {
	pad := limit + 2
	grid := engine.Place(pattern, len(pattern)+2*pad, len(pattern[0])+2*pad)
	start := crop(grid)

	for gen := 1; gen <= limit; gen++ {
		next, err := engine.NextGeneration(grid)
		if err != nil {
			return 0, err
		}
		grid = next

		shape := crop(grid)
		if shape == nil {
			return 0, fmt.Errorf("pattern dies out after %d generations", gen)
		}
		if shape.Equal(start) {
			return gen, nil
		}
	}
	return 0, nil
}

// crop returns the bounding box of the live cells, or nil if none are alive.
func crop(g engine.Grid) engine.Grid {
	top, bottom, left, right := -1, -1, -1, -1
	for r, row := range g {
		for c, cell := range row {
			if cell != engine.Alive {
				continue
			}
			if top == -1 {
				top = r
			}
			bottom = r
			if left == -1 || c < left {
				left = c
			}
			if c > right {
				right = c
			}
		}
	}
	if top == -1 {
		return nil
	}

	out := make(engine.Grid, 0, bottom-top+1)
	for r := top; r <= bottom; r++ {
		row := make([]int, right-left+1)
		copy(row, g[r][left:right+1])
		out = append(out, row)
	}
	return out
}

// main validates the files given as arguments, or every *.json file in
// ../patterns, printing a concise report and exiting with non-zero status if
// any are invalid.
func main() {
	files := os.Args[1:]
	if len(files) == 0 {
		var err error
		files, err = filepath.Glob(filepath.Join("../patterns", "*.json"))
		if err != nil {
			fmt.Printf("Error finding pattern files: %v\n", err)
			os.Exit(1)
		}
	}

	allValid := true
	for _, file := range files {
		result := validatePattern(file)

		fmt.Printf("\n%s %s\n", strings.Repeat("=", 20), result.File)

		if result.Valid {
			fmt.Println("✅ VALID")
			for _, info := range result.Errors {
				fmt.Println("  " + info)
			}
		} else {
			fmt.Println("❌ INVALID")
			allValid = false
			for _, err := range result.Errors {
				if !strings.HasPrefix(err, "✓") {
					fmt.Println("  ❌ " + err)
				}
			}
		}
	}

	fmt.Printf("\n%s\n", strings.Repeat("=", 40))
	if allValid {
		fmt.Println("✅ All patterns are valid!")
	} else {
		fmt.Println("❌ Some patterns have errors")
		os.Exit(1)
	}
}
