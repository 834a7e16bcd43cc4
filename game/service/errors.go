package service

import (
	"errors"

	"github.com/wricardo/mcp-training/gameoflife/game/engine"
)

var (
	ErrBoardNotFound   = errors.New("board not found")
	ErrBoardRunning    = errors.New("board is running")
	ErrBoardNotRunning = errors.New("board is not running")
	ErrInvalidSteps    = errors.New("invalid steps")
	ErrInvalidRequest  = errors.New("invalid request")
	ErrPatternNotFound = errors.New("pattern not found")
)

// IsValidation reports whether err is a request the caller can fix:
// bad input or a board in the wrong state for the operation.
func IsValidation(err error) bool {
	return errors.Is(err, ErrBoardRunning) ||
		errors.Is(err, ErrBoardNotRunning) ||
		errors.Is(err, ErrInvalidSteps) ||
		errors.Is(err, ErrInvalidRequest) ||
		errors.Is(err, ErrPatternNotFound) ||
		errors.Is(err, engine.ErrInvalidGrid)
}
