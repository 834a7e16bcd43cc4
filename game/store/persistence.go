package store

import (
	"time"

	"github.com/wricardo/mcp-training/gameoflife/game/engine"
)

// Persistence defines the interface for persisting boards
type Persistence interface {
	// Save persists a board to storage
	Save(board *engine.Board) error

	// Load retrieves a board from storage by ID
	Load(id string) (*engine.Board, error)

	// Delete removes a board from storage
	Delete(id string) error

	// ListAll returns all persisted board IDs
	ListAll() ([]string, error)

	// Exists checks if a board exists in storage
	Exists(id string) bool
}

// PersistedBoardData represents the JSON structure for persisted boards
type PersistedBoardData struct {
	ID            string    `json:"id"`
	Grid          string    `json:"grid"`
	Generation    int       `json:"generation"`
	IsRunning     bool      `json:"is_running"`
	CreatedAt     time.Time `json:"created_at"`
	LastUpdatedAt time.Time `json:"last_updated_at"`
}

func toPersisted(b *engine.Board) PersistedBoardData {
	return PersistedBoardData{
		ID:            b.ID,
		Grid:          b.Grid,
		Generation:    b.Generation,
		IsRunning:     b.IsRunning,
		CreatedAt:     b.CreatedAt,
		LastUpdatedAt: b.LastUpdatedAt,
	}
}

func (d PersistedBoardData) board() *engine.Board {
	return &engine.Board{
		ID:            d.ID,
		Grid:          d.Grid,
		Generation:    d.Generation,
		IsRunning:     d.IsRunning,
		CreatedAt:     d.CreatedAt,
		LastUpdatedAt: d.LastUpdatedAt,
	}
}
