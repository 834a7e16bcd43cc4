package store

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"
	log15 "github.com/inconshreveable/log15"
	"go.uber.org/multierr"

	"github.com/wricardo/mcp-training/gameoflife/game/engine"
	"github.com/wricardo/mcp-training/gameoflife/game/service"
	"github.com/wricardo/mcp-training/gameoflife/logging"
)

var ErrBoardAlreadyExists = errors.New("board already exists")

var _ service.BoardStore = (*Manager)(nil)

// Manager is the in-memory board store. With a Persistence configured every
// write goes through to it before the in-memory copy changes.
//
// Boards are copied on the way in and on the way out, so callers never share
// a *engine.Board with the store.
type Manager struct {
	boards      map[string]*engine.Board
	persistence Persistence
	log         log15.Logger
	mu          sync.RWMutex
}

// NewManager creates a memory-only board store
func NewManager() *Manager {
	return &Manager{
		boards: make(map[string]*engine.Board),
		log:    logging.Discard(),
	}
}

// NewManagerWithPersistence creates a board store backed by persistence
func NewManagerWithPersistence(persistence Persistence, logger log15.Logger) *Manager {
	return &Manager{
		boards:      make(map[string]*engine.Board),
		persistence: persistence,
		log:         logging.OrDiscard(logger).New("component", "store"),
	}
}

// Add stores a new board, assigning an ID when it has none
func (m *Manager) Add(ctx context.Context, board *engine.Board) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if board == nil {
		return fmt.Errorf("board cannot be nil")
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if board.ID == "" {
		board.ID = m.generateBoardID()
	}
	if _, exists := m.boards[board.ID]; exists {
		return fmt.Errorf("%w: %s", ErrBoardAlreadyExists, board.ID)
	}

	if err := m.save(board); err != nil {
		return err
	}
	m.boards[board.ID] = board.Clone()
	return nil
}

// GetByID returns a copy of the board
func (m *Manager) GetByID(ctx context.Context, id string) (*engine.Board, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	board, exists := m.boards[id]
	if !exists {
		return nil, fmt.Errorf("%w: %s", service.ErrBoardNotFound, id)
	}
	return board.Clone(), nil
}

// GetRunning returns copies of every board flagged as running
func (m *Manager) GetRunning(ctx context.Context) ([]*engine.Board, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	var result []*engine.Board
	for _, board := range m.boards {
		if board.IsRunning {
			result = append(result, board.Clone())
		}
	}
	return result, nil
}

// List returns copies of all boards
func (m *Manager) List(ctx context.Context) ([]*engine.Board, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	result := make([]*engine.Board, 0, len(m.boards))
	for _, board := range m.boards {
		result = append(result, board.Clone())
	}
	return result, nil
}

// Update replaces an existing board
func (m *Manager) Update(ctx context.Context, board *engine.Board) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if board == nil {
		return fmt.Errorf("board cannot be nil")
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	return m.update(board)
}

// UpdateMany replaces each board in turn. A failing board does not stop the
// rest; all failures are returned together.
func (m *Manager) UpdateMany(ctx context.Context, boards []*engine.Board) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	var errs error
	for _, board := range boards {
		if err := ctx.Err(); err != nil {
			return multierr.Append(errs, err)
		}
		if board == nil {
			continue
		}
		errs = multierr.Append(errs, m.update(board))
	}
	return errs
}

func (m *Manager) update(board *engine.Board) error {
	if _, exists := m.boards[board.ID]; !exists {
		return fmt.Errorf("%w: %s", service.ErrBoardNotFound, board.ID)
	}
	if err := m.save(board); err != nil {
		return err
	}
	m.boards[board.ID] = board.Clone()
	return nil
}

// Delete removes a board from memory and persistence
func (m *Manager) Delete(ctx context.Context, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.boards[id]; !exists {
		return fmt.Errorf("%w: %s", service.ErrBoardNotFound, id)
	}
	if m.persistence != nil && m.persistence.Exists(id) {
		if err := m.persistence.Delete(id); err != nil {
			return fmt.Errorf("failed to delete persisted board: %w", err)
		}
	}
	delete(m.boards, id)
	return nil
}

// Count returns the number of stored boards
func (m *Manager) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.boards)
}

// LoadPersisted loads all persisted boards into memory. Boards that fail to
// load are skipped and reported in the returned error; the rest stay loaded.
func (m *Manager) LoadPersisted() (int, error) {
	if m.persistence == nil {
		return 0, nil
	}

	ids, err := m.persistence.ListAll()
	if err != nil {
		return 0, fmt.Errorf("failed to list persisted boards: %w", err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	var errs error
	loaded := 0
	for _, id := range ids {
		if _, exists := m.boards[id]; exists {
			continue
		}

		board, err := m.persistence.Load(id)
		if err != nil {
			m.log.Warn("failed to load persisted board", "board_id", id, "err", err)
			errs = multierr.Append(errs, err)
			continue
		}

		m.boards[board.ID] = board
		loaded++
	}

	if loaded > 0 {
		m.log.Info("loaded persisted boards", "count", loaded)
	}
	return loaded, errs
}

func (m *Manager) save(board *engine.Board) error {
	if m.persistence == nil {
		return nil
	}
	if err := m.persistence.Save(board); err != nil {
		return fmt.Errorf("failed to persist board %s: %w", board.ID, err)
	}
	return nil
}

func (m *Manager) generateBoardID() string {
	for {
		id := uuid.NewString()
		if _, exists := m.boards[id]; !exists {
			return id
		}
	}
}
