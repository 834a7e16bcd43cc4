// Package store provides board storage for the Game of Life server.
//
// Manager implements service.BoardStore. It keeps every board in memory and,
// when built with NewManagerWithPersistence, writes each change through to a
// Persistence before accepting it. FilePersistence stores one JSON file per
// board.
//
// Board IDs are random UUIDs assigned by Add when the caller leaves ID empty.
//
// Usage:
//
//	persistence, err := store.NewFilePersistence("data/boards")
//	if err != nil {
//		return err
//	}
//	boards := store.NewManagerWithPersistence(persistence, logger)
//	if _, err := boards.LoadPersisted(); err != nil {
//		logger.Warn("some boards failed to load", "err", err)
//	}
package store
