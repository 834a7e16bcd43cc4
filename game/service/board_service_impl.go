package service

import (
	"context"
	"fmt"
	"sort"
	"time"

	log15 "github.com/inconshreveable/log15"

	"github.com/wricardo/mcp-training/gameoflife/game/cache"
	"github.com/wricardo/mcp-training/gameoflife/game/engine"
	"github.com/wricardo/mcp-training/gameoflife/game/lock"
	"github.com/wricardo/mcp-training/gameoflife/game/queue"
	"github.com/wricardo/mcp-training/gameoflife/logging"
)

// Options wires a BoardService. Cache, Queue and Locks must be the same
// instances the background worker and live loop use.
type Options struct {
	Store    BoardStore
	Cache    *cache.Cache
	Queue    *queue.Queue
	Locks    *lock.Registry
	Patterns PatternCatalog
	Limits   Limits
	Logger   log15.Logger
	Now      func() time.Time
}

// boardServiceImpl implements the BoardService interface
type boardServiceImpl struct {
	store    BoardStore
	boards   *cache.Cache
	advances *queue.Queue
	locks    *lock.Registry
	patterns PatternCatalog
	limits   Limits
	log      log15.Logger
	now      func() time.Time
}

// NewBoardService creates a new board service instance
func NewBoardService(opts Options) BoardService {
	s := &boardServiceImpl{
		store:    opts.Store,
		boards:   opts.Cache,
		advances: opts.Queue,
		locks:    opts.Locks,
		patterns: opts.Patterns,
		limits:   opts.Limits,
		log:      logging.OrDiscard(opts.Logger).New("component", "service"),
		now:      opts.Now,
	}
	if s.boards == nil {
		s.boards = cache.New()
	}
	if s.advances == nil {
		s.advances = queue.New(queue.DefaultCapacity)
	}
	if s.locks == nil {
		s.locks = lock.NewRegistry()
	}
	if s.limits == (Limits{}) {
		s.limits = DefaultLimits()
	}
	if s.now == nil {
		s.now = time.Now
	}
	return s
}

// CreateBoard validates the seed grid and stores a new idle board
func (s *boardServiceImpl) CreateBoard(ctx context.Context, req CreateBoardRequest) (*BoardInfo, error) {
	grid := req.Grid
	if req.Pattern != "" {
		seed, err := s.loadPattern(req.Pattern)
		if err != nil {
			return nil, err
		}
		grid = engine.Place(seed, req.Rows, req.Cols)
	}
	if grid == nil {
		return nil, fmt.Errorf("%w: grid or pattern is required", ErrInvalidRequest)
	}

	if err := engine.Validate(grid, s.limits.MinGridSize, s.limits.MaxGridSize); err != nil {
		return nil, err
	}

	now := s.now()
	board := &engine.Board{
		Grid:          engine.Serialize(grid),
		CreatedAt:     now,
		LastUpdatedAt: now,
	}
	if err := s.store.Add(ctx, board); err != nil {
		return nil, fmt.Errorf("failed to create board: %w", err)
	}

	s.log.Info("board created", "board_id", board.ID, "rows", len(grid), "cols", len(grid[0]))
	return NewBoardInfo(board)
}

func (s *boardServiceImpl) loadPattern(name string) (engine.Grid, error) {
	if s.patterns == nil {
		return nil, fmt.Errorf("%w: %s", ErrPatternNotFound, name)
	}
	pattern, err := s.patterns.LoadPattern(name)
	if err != nil {
		return nil, err
	}
	return pattern.Grid()
}

// GetBoard returns the board, reading running boards from the live cache
func (s *boardServiceImpl) GetBoard(ctx context.Context, boardID string) (*BoardInfo, error) {
	if snapshot, ok := s.boards.Get(boardID); ok {
		return NewBoardInfo(snapshot)
	}

	board, err := s.store.GetByID(ctx, boardID)
	if err != nil {
		return nil, err
	}
	return NewBoardInfo(board)
}

// ListBoards returns all boards, oldest first
func (s *boardServiceImpl) ListBoards(ctx context.Context) ([]*BoardInfo, error) {
	boards, err := s.store.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list boards: %w", err)
	}

	infos := make([]*BoardInfo, 0, len(boards))
	for _, board := range boards {
		if snapshot, ok := s.boards.Get(board.ID); ok {
			board = snapshot
		}
		info, err := NewBoardInfo(board)
		if err != nil {
			return nil, err
		}
		infos = append(infos, info)
	}

	sort.Slice(infos, func(i, j int) bool {
		return infos[i].CreatedAt.Before(infos[j].CreatedAt)
	})
	return infos, nil
}

// NextGeneration applies one generation synchronously and persists it.
// It holds the board lock so it cannot interleave with a batch advance.
func (s *boardServiceImpl) NextGeneration(ctx context.Context, boardID string) (*BoardInfo, error) {
	lease, err := s.locks.Acquire(ctx, boardID)
	if err != nil {
		return nil, err
	}
	defer lease.Release()

	board, err := s.store.GetByID(ctx, boardID)
	if err != nil {
		return nil, err
	}
	if board.IsRunning {
		return nil, fmt.Errorf("%w: stop the board before stepping it", ErrBoardRunning)
	}

	grid, err := board.Cells()
	if err != nil {
		s.log.Crit("stored board is corrupt", "board_id", boardID, "err", err)
		return nil, fmt.Errorf("board %s: %w", boardID, err)
	}
	next, err := engine.NextGeneration(grid)
	if err != nil {
		return nil, fmt.Errorf("board %s: %w", boardID, err)
	}

	updated := board.Clone()
	updated.Grid = engine.Serialize(next)
	updated.Generation++
	updated.LastUpdatedAt = s.now()

	if err := s.store.Update(ctx, updated); err != nil {
		return nil, fmt.Errorf("failed to save board: %w", err)
	}
	return NewBoardInfo(updated)
}

// Advance validates the request and queues it for the advance worker.
// It waits while the queue is full.
func (s *boardServiceImpl) Advance(ctx context.Context, boardID string, steps int) error {
	if steps < s.limits.MinSteps || steps > s.limits.MaxSteps {
		return fmt.Errorf("%w: %d is outside [%d, %d]", ErrInvalidSteps, steps, s.limits.MinSteps, s.limits.MaxSteps)
	}

	board, err := s.store.GetByID(ctx, boardID)
	if err != nil {
		return err
	}
	if board.IsRunning {
		return fmt.Errorf("%w: stop the board before advancing it", ErrBoardRunning)
	}

	if err := s.advances.Enqueue(ctx, queue.Request{BoardID: boardID, Steps: steps}); err != nil {
		return fmt.Errorf("failed to queue advance: %w", err)
	}

	s.log.Debug("advance queued", "board_id", boardID, "steps", steps, "queued", s.advances.Len())
	return nil
}

// Start marks the board running and hands it to the live loop
func (s *boardServiceImpl) Start(ctx context.Context, boardID string) error {
	lease, err := s.locks.Acquire(ctx, boardID)
	if err != nil {
		return err
	}
	defer lease.Release()

	board, err := s.store.GetByID(ctx, boardID)
	if err != nil {
		return err
	}
	if board.IsRunning {
		return ErrBoardRunning
	}
	if _, err := board.Cells(); err != nil {
		return fmt.Errorf("board %s: %w", boardID, err)
	}

	updated := board.Clone()
	updated.IsRunning = true
	updated.LastUpdatedAt = s.now()

	if err := s.store.Update(ctx, updated); err != nil {
		return fmt.Errorf("failed to save board: %w", err)
	}
	s.boards.Put(updated.Clone())

	s.log.Info("board started", "board_id", boardID, "generation", updated.Generation)
	return nil
}

// Stop takes the board out of the live loop and persists its latest state
func (s *boardServiceImpl) Stop(ctx context.Context, boardID string) error {
	lease, err := s.locks.Acquire(ctx, boardID)
	if err != nil {
		return err
	}
	defer lease.Release()

	board, err := s.store.GetByID(ctx, boardID)
	if err != nil {
		return err
	}
	if !board.IsRunning {
		return ErrBoardNotRunning
	}

	updated := board.Clone()
	snapshot, cached := s.boards.Remove(boardID)
	if cached {
		updated.Grid = snapshot.Grid
		updated.Generation = snapshot.Generation
		updated.LastUpdatedAt = snapshot.LastUpdatedAt
	}
	updated.IsRunning = false

	if err := s.store.Update(ctx, updated); err != nil {
		if cached {
			s.boards.Put(snapshot)
		}
		return fmt.Errorf("failed to save board: %w", err)
	}

	s.log.Info("board stopped", "board_id", boardID, "generation", updated.Generation)
	return nil
}

// ListPatterns returns the available seed patterns
func (s *boardServiceImpl) ListPatterns(ctx context.Context) ([]*PatternInfo, error) {
	if s.patterns == nil {
		return []*PatternInfo{}, nil
	}
	return s.patterns.ListPatterns()
}

// Status reports board counts and queue depth
func (s *boardServiceImpl) Status(ctx context.Context) (*Status, error) {
	boards, err := s.store.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list boards: %w", err)
	}
	return &Status{
		Boards:        len(boards),
		Running:       s.boards.Len(),
		QueuedAdvance: s.advances.Len(),
		QueueCapacity: s.advances.Cap(),
		LockedBoards:  s.locks.Len(),
	}, nil
}
