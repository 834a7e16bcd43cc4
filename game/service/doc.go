// Package service provides the business logic layer for the Game of Life server.
//
// The service package implements:
//   - Board creation from explicit grids or named patterns
//   - The Idle/Running state machine (Start, Stop)
//   - Synchronous single-step advance (NextGeneration)
//   - Validation and queueing of asynchronous batch advances
//   - Status reporting for health checks
//
// Core Interfaces:
//
// BoardService is the main service interface used by the HTTP and MCP
// transports. BoardStore persists boards, Notifier pushes events to board
// subscribers and PatternCatalog supplies seed patterns.
//
// Architecture:
//
// The service sits between the transports and the background components.
// Requests either persist directly through the BoardStore, enqueue work for
// the advance worker, or move a board in and out of the live cache. The
// advance worker and the live loop (package simulation) emit events through
// the Notifier.
//
// Concurrency:
//
// Every request-path mutation (NextGeneration, Start, Stop) holds the
// per-board lock from package lock, the same lock the advance worker takes.
// A running board is owned by the live loop: NextGeneration and Advance
// reject it with ErrBoardRunning until it is stopped.
//
// Usage:
//
//	svc := service.NewBoardService(service.Options{
//		Store:  boardStore,
//		Cache:  liveCache,
//		Queue:  advanceQueue,
//		Locks:  locks,
//		Logger: logger,
//	})
//
//	info, err := svc.CreateBoard(ctx, service.CreateBoardRequest{Pattern: "glider", Rows: 20, Cols: 20})
//	if err != nil {
//		return err
//	}
//	err = svc.Advance(ctx, info.ID, 50)
package service
