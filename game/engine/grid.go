package engine

import (
	"fmt"
	"strconv"
	"strings"
)

// neighbours are the relative offsets of the Moore neighbourhood.
var neighbours = [8][2]int{
	{-1, -1}, {-1, 0}, {-1, 1},
	{0, -1}, {0, 1},
	{1, -1}, {1, 0}, {1, 1},
}

// NewGrid returns an all-dead grid with the given dimensions.
func NewGrid(rows, cols int) Grid {
	g := make(Grid, rows)
	for i := range g {
		g[i] = make([]int, cols)
	}
	return g
}

// NextGeneration applies one step of Conway's rules to g. Cells outside the
// grid count as dead; the edges do not wrap.
func NextGeneration(g Grid) (Grid, error) {
	if len(g) == 0 {
		return nil, fmt.Errorf("%w: grid has no rows", ErrInvalidGrid)
	}
	for i, row := range g {
		if len(row) == 0 {
			return nil, fmt.Errorf("%w: row %d is empty", ErrInvalidGrid, i)
		}
	}

	next := make(Grid, len(g))
	for r, row := range g {
		next[r] = make([]int, len(row))
		for c, cell := range row {
			alive := liveNeighbours(g, r, c)
			switch {
			case cell == Alive && (alive == 2 || alive == 3):
				next[r][c] = Alive
			case cell != Alive && alive == 3:
				next[r][c] = Alive
			default:
				next[r][c] = Dead
			}
		}
	}
	return next, nil
}

func liveNeighbours(g Grid, row, col int) int {
	alive := 0
	for _, d := range neighbours {
		r, c := row+d[0], col+d[1]
		if r < 0 || r >= len(g) || c < 0 || c >= len(g[r]) {
			continue
		}
		if g[r][c] == Alive {
			alive++
		}
	}
	return alive
}

// Serialize encodes g in the persisted format: rows joined by ";" and the
// cells of a row joined by ",".
func Serialize(g Grid) string {
	var b strings.Builder
	for r, row := range g {
		if r > 0 {
			b.WriteString(RowSeparator)
		}
		for c, cell := range row {
			if c > 0 {
				b.WriteString(CellSeparator)
			}
			b.WriteString(strconv.Itoa(cell))
		}
	}
	return b.String()
}

// Deserialize decodes a grid written by Serialize. Any token that is not a
// 0 or 1, and any ragged row, yields ErrMalformedState.
func Deserialize(s string) (Grid, error) {
	rows := strings.Split(s, RowSeparator)
	g := make(Grid, len(rows))
	for r, line := range rows {
		tokens := strings.Split(line, CellSeparator)
		if r > 0 && len(tokens) != len(g[0]) {
			return nil, fmt.Errorf("%w: row %d has %d cells, want %d", ErrMalformedState, r, len(tokens), len(g[0]))
		}
		g[r] = make([]int, len(tokens))
		for c, tok := range tokens {
			v, err := strconv.Atoi(tok)
			if err != nil {
				return nil, fmt.Errorf("%w: cell (%d,%d) %q is not numeric", ErrMalformedState, r, c, tok)
			}
			if v != Dead && v != Alive {
				return nil, fmt.Errorf("%w: cell (%d,%d) has value %d", ErrMalformedState, r, c, v)
			}
			g[r][c] = v
		}
	}
	return g, nil
}

// Validate checks that g is a rectangular 0/1 grid whose sides lie within
// [minSize, maxSize].
func Validate(g Grid, minSize, maxSize int) error {
	if len(g) == 0 {
		return fmt.Errorf("%w: grid has no rows", ErrInvalidGrid)
	}
	if len(g) < minSize || len(g) > maxSize {
		return fmt.Errorf("%w: %d rows, must be between %d and %d", ErrInvalidGrid, len(g), minSize, maxSize)
	}
	width := len(g[0])
	if width < minSize || width > maxSize {
		return fmt.Errorf("%w: %d columns, must be between %d and %d", ErrInvalidGrid, width, minSize, maxSize)
	}
	for r, row := range g {
		if len(row) != width {
			return fmt.Errorf("%w: row %d has %d cells, want %d", ErrInvalidGrid, r, len(row), width)
		}
		for c, cell := range row {
			if cell != Dead && cell != Alive {
				return fmt.Errorf("%w: cell (%d,%d) has value %d", ErrInvalidGrid, r, c, cell)
			}
		}
	}
	return nil
}

// Alive reports the number of live cells.
func (g Grid) Alive() int {
	n := 0
	for _, row := range g {
		for _, cell := range row {
			if cell == Alive {
				n++
			}
		}
	}
	return n
}

// Equal reports whether g and other have the same shape and cells.
func (g Grid) Equal(other Grid) bool {
	if len(g) != len(other) {
		return false
	}
	for r := range g {
		if len(g[r]) != len(other[r]) {
			return false
		}
		for c := range g[r] {
			if g[r][c] != other[r][c] {
				return false
			}
		}
	}
	return true
}

// Clone returns a deep copy of g.
func (g Grid) Clone() Grid {
	c := make(Grid, len(g))
	for r, row := range g {
		c[r] = append([]int(nil), row...)
	}
	return c
}

// ParseLayout converts a text layout into a grid. '#', 'O', '*' and '1' mark
// live cells; '.', ' ', '_' and '0' mark dead ones.
func ParseLayout(layout []string) (Grid, error) {
	if len(layout) == 0 {
		return nil, fmt.Errorf("%w: layout is empty", ErrInvalidGrid)
	}
	g := make(Grid, len(layout))
	for r, line := range layout {
		g[r] = make([]int, 0, len(line))
		for c, ch := range line {
			switch ch {
			case '#', 'O', '*', '1':
				g[r] = append(g[r], Alive)
			case '.', ' ', '_', '0':
				g[r] = append(g[r], Dead)
			default:
				return nil, fmt.Errorf("%w: unexpected character %q at (%d,%d)", ErrInvalidGrid, ch, r, c)
			}
		}
		if len(g[r]) == 0 || len(g[r]) != len(g[0]) {
			return nil, fmt.Errorf("%w: layout row %d has %d cells, want %d", ErrInvalidGrid, r, len(g[r]), len(g[0]))
		}
	}
	return g, nil
}

// Place copies pattern into an all-dead grid of rows x cols, centred.
// When rows or cols are smaller than the pattern the pattern's own size is used.
func Place(pattern Grid, rows, cols int) Grid {
	width := 0
	for _, row := range pattern {
		if len(row) > width {
			width = len(row)
		}
	}
	if rows < len(pattern) {
		rows = len(pattern)
	}
	if cols < width {
		cols = width
	}

	g := NewGrid(rows, cols)
	offR := (rows - len(pattern)) / 2
	offC := (cols - width) / 2
	for r, row := range pattern {
		for c, cell := range row {
			g[offR+r][offC+c] = cell
		}
	}
	return g
}

// String renders the grid with '#' for live cells and '.' for dead ones.
func (g Grid) String() string {
	var b strings.Builder
	for r, row := range g {
		if r > 0 {
			b.WriteByte('\n')
		}
		for _, cell := range row {
			if cell == Alive {
				b.WriteByte('#')
			} else {
				b.WriteByte('.')
			}
		}
	}
	return b.String()
}
