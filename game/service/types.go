package service

import (
	"fmt"
	"time"

	"github.com/wricardo/mcp-training/gameoflife/game/engine"
)

// BoardInfo is the wire representation of a board
type BoardInfo struct {
	ID            string      `json:"id"`
	Grid          engine.Grid `json:"grid"`
	Rows          int         `json:"rows"`
	Cols          int         `json:"cols"`
	Population    int         `json:"population"`
	Generation    int         `json:"generation"`
	IsRunning     bool        `json:"is_running"`
	CreatedAt     time.Time   `json:"created_at"`
	LastUpdatedAt time.Time   `json:"last_updated_at"`
}

// NewBoardInfo decodes board into its wire form.
func NewBoardInfo(board *engine.Board) (*BoardInfo, error) {
	grid, err := board.Cells()
	if err != nil {
		return nil, fmt.Errorf("board %s: %w", board.ID, err)
	}
	info := &BoardInfo{
		ID:            board.ID,
		Grid:          grid,
		Rows:          len(grid),
		Population:    grid.Alive(),
		Generation:    board.Generation,
		IsRunning:     board.IsRunning,
		CreatedAt:     board.CreatedAt,
		LastUpdatedAt: board.LastUpdatedAt,
	}
	if len(grid) > 0 {
		info.Cols = len(grid[0])
	}
	return info, nil
}

// CreateBoardRequest seeds a new board from an explicit grid or a named
// pattern. With a pattern, Rows and Cols size the board around it.
type CreateBoardRequest struct {
	Grid    engine.Grid `json:"grid,omitempty"`
	Pattern string      `json:"pattern,omitempty"`
	Rows    int         `json:"rows,omitempty"`
	Cols    int         `json:"cols,omitempty"`
}

// Pattern is a named seed layout. Layout rows use '#' for live cells and
// '.' for dead ones.
type Pattern struct {
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Period      int      `json:"period,omitempty"`
	Layout      []string `json:"layout"`
}

// Grid parses the pattern layout.
func (p *Pattern) Grid() (engine.Grid, error) {
	g, err := engine.ParseLayout(p.Layout)
	if err != nil {
		return nil, fmt.Errorf("pattern %s: %w", p.Name, err)
	}
	return g, nil
}

// PatternInfo contains pattern metadata
type PatternInfo struct {
	PatternID   string `json:"pattern_id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Rows        int    `json:"rows"`
	Cols        int    `json:"cols"`
	Period      int    `json:"period,omitempty"`
}

// Status summarises the server's boards and pending work.
type Status struct {
	Boards        int `json:"boards"`
	Running       int `json:"running"`
	QueuedAdvance int `json:"queued_advances"`
	QueueCapacity int `json:"queue_capacity"`
	LockedBoards  int `json:"locked_boards"`
}

// Limits bounds request parameters.
type Limits struct {
	MinSteps    int
	MaxSteps    int
	MinGridSize int
	MaxGridSize int
}

// DefaultLimits returns the standard step and grid size bounds.
func DefaultLimits() Limits {
	return Limits{
		MinSteps:    engine.MinSteps,
		MaxSteps:    engine.MaxSteps,
		MinGridSize: engine.MinGridSize,
		MaxGridSize: engine.MaxGridSize,
	}
}
