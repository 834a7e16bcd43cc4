package engine

import (
	"errors"
	"time"
)

// Cell states
const (
	Dead  = 0
	Alive = 1
)

// Serialization separators for the persisted grid format
const (
	RowSeparator  = ";"
	CellSeparator = ","
)

// Validation constants
const (
	MinSteps    = 1
	MaxSteps    = 100
	MinGridSize = 1
	MaxGridSize = 100
)

var (
	// ErrInvalidGrid is returned when a grid is empty, has an empty row,
	// is not rectangular or holds values other than 0 and 1.
	ErrInvalidGrid = errors.New("invalid grid")

	// ErrMalformedState is returned when a persisted grid string cannot be
	// decoded. It signals corrupt stored data rather than bad user input.
	ErrMalformedState = errors.New("malformed board state")
)

// Grid is a rectangular matrix of cells, each Dead or Alive.
type Grid [][]int

// Board is one Game of Life instance as stored and simulated.
// Grid holds the persisted (serialized) form of the cells.
type Board struct {
	ID            string    `json:"id"`
	Grid          string    `json:"grid"`
	Generation    int       `json:"generation"`
	IsRunning     bool      `json:"is_running"`
	CreatedAt     time.Time `json:"created_at"`
	LastUpdatedAt time.Time `json:"last_updated_at"`
}

// Clone returns a copy of the board that shares no state with b.
func (b *Board) Clone() *Board {
	if b == nil {
		return nil
	}
	c := *b
	return &c
}

// Cells decodes the persisted grid.
func (b *Board) Cells() (Grid, error) {
	return Deserialize(b.Grid)
}
