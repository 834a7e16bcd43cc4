// Package engine provides the cellular automaton core for the Game of Life server.
//
// The engine package implements:
//   - The next-generation rule over the Moore neighbourhood (no wraparound)
//   - The persisted grid encoding (rows joined by ';', cells by ',')
//   - Grid validation against size bounds
//   - Text layouts for seed patterns
//
// Core Types:
//
// Grid is a rectangular matrix of 0/1 cells. Board is one stored Game of Life
// instance: its id, the serialized grid, the generation counter and whether
// the live loop currently drives it.
//
// Usage:
//
//	g := engine.Grid{
//		{0, 0, 0},
//		{1, 1, 1},
//		{0, 0, 0},
//	}
//
//	next, err := engine.NextGeneration(g)
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	stored := engine.Serialize(next) // "0,1,0;0,1,0;0,1,0"
//	back, err := engine.Deserialize(stored)
//
// Rules:
//
// A dead cell with exactly three live neighbours becomes alive. A live cell
// with two or three live neighbours survives. Every other cell dies or stays
// dead. Cells beyond the edge of the grid are treated as dead.
//
// Errors:
//
// ErrInvalidGrid reports bad input (empty grid, empty row, wrong shape).
// ErrMalformedState reports a stored grid string that cannot be decoded; it
// means the stored data is corrupt and is never a user error.
package engine
