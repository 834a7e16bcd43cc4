package service

import (
	"context"

	"github.com/wricardo/mcp-training/gameoflife/game/engine"
)

// BoardService defines all board-related operations
type BoardService interface {
	// Board management
	CreateBoard(ctx context.Context, req CreateBoardRequest) (*BoardInfo, error)
	GetBoard(ctx context.Context, boardID string) (*BoardInfo, error)
	ListBoards(ctx context.Context) ([]*BoardInfo, error)

	// Simulation
	NextGeneration(ctx context.Context, boardID string) (*BoardInfo, error)
	Advance(ctx context.Context, boardID string, steps int) error
	Start(ctx context.Context, boardID string) error
	Stop(ctx context.Context, boardID string) error

	// Patterns and status
	ListPatterns(ctx context.Context) ([]*PatternInfo, error)
	Status(ctx context.Context) (*Status, error)
}

// BoardStore persists boards. GetByID returns ErrBoardNotFound for unknown ids.
type BoardStore interface {
	Add(ctx context.Context, board *engine.Board) error
	GetByID(ctx context.Context, boardID string) (*engine.Board, error)
	GetRunning(ctx context.Context) ([]*engine.Board, error)
	List(ctx context.Context) ([]*engine.Board, error)
	Update(ctx context.Context, board *engine.Board) error
	UpdateMany(ctx context.Context, boards []*engine.Board) error
}

// Notifier pushes events to the subscribers of a board.
type Notifier interface {
	Notify(ctx context.Context, event Event) error
}

// PatternCatalog provides named seed patterns
type PatternCatalog interface {
	LoadPattern(name string) (*Pattern, error)
	ListPatterns() ([]*PatternInfo, error)
}
