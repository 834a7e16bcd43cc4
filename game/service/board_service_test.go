package service_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/wricardo/mcp-training/gameoflife/game/cache"
	"github.com/wricardo/mcp-training/gameoflife/game/engine"
	"github.com/wricardo/mcp-training/gameoflife/game/lock"
	"github.com/wricardo/mcp-training/gameoflife/game/queue"
	"github.com/wricardo/mcp-training/gameoflife/game/service"
)

// MockBoardStore implements service.BoardStore for testing
type MockBoardStore struct {
	mu        sync.Mutex
	boards    map[string]*engine.Board
	writes    int
	nextID    int
	UpdateErr error
}

func NewMockBoardStore() *MockBoardStore {
	return &MockBoardStore{boards: make(map[string]*engine.Board)}
}

func (m *MockBoardStore) Add(ctx context.Context, board *engine.Board) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if board.ID == "" {
		m.nextID++
		board.ID = fmt.Sprintf("board-%d", m.nextID)
	}
	m.boards[board.ID] = board.Clone()
	m.writes++
	return nil
}

func (m *MockBoardStore) GetByID(ctx context.Context, id string) (*engine.Board, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	board, ok := m.boards[id]
	if !ok {
		return nil, service.ErrBoardNotFound
	}
	return board.Clone(), nil
}

func (m *MockBoardStore) GetRunning(ctx context.Context) ([]*engine.Board, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var result []*engine.Board
	for _, b := range m.boards {
		if b.IsRunning {
			result = append(result, b.Clone())
		}
	}
	return result, nil
}

func (m *MockBoardStore) List(ctx context.Context) ([]*engine.Board, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	result := make([]*engine.Board, 0, len(m.boards))
	for _, b := range m.boards {
		result = append(result, b.Clone())
	}
	return result, nil
}

func (m *MockBoardStore) Update(ctx context.Context, board *engine.Board) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.UpdateErr != nil {
		return m.UpdateErr
	}
	if _, ok := m.boards[board.ID]; !ok {
		return service.ErrBoardNotFound
	}
	m.boards[board.ID] = board.Clone()
	m.writes++
	return nil
}

func (m *MockBoardStore) UpdateMany(ctx context.Context, boards []*engine.Board) error {
	for _, b := range boards {
		if err := m.Update(ctx, b); err != nil {
			return err
		}
	}
	return nil
}

func (m *MockBoardStore) Writes() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.writes
}

func (m *MockBoardStore) Stored(id string) *engine.Board {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.boards[id].Clone()
}

// MockPatternCatalog implements service.PatternCatalog for testing
type MockPatternCatalog struct {
	patterns map[string]*service.Pattern
}

func (m *MockPatternCatalog) LoadPattern(name string) (*service.Pattern, error) {
	p, ok := m.patterns[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", service.ErrPatternNotFound, name)
	}
	return p, nil
}

func (m *MockPatternCatalog) ListPatterns() ([]*service.PatternInfo, error) {
	var infos []*service.PatternInfo
	for id, p := range m.patterns {
		infos = append(infos, &service.PatternInfo{PatternID: id, Name: p.Name})
	}
	return infos, nil
}

type testEnv struct {
	store *MockBoardStore
	cache *cache.Cache
	queue *queue.Queue
	locks *lock.Registry
	svc   service.BoardService
}

func newTestEnv(queueCapacity int) *testEnv {
	env := &testEnv{
		store: NewMockBoardStore(),
		cache: cache.New(),
		queue: queue.New(queueCapacity),
		locks: lock.NewRegistry(),
	}
	env.svc = service.NewBoardService(service.Options{
		Store: env.store,
		Cache: env.cache,
		Queue: env.queue,
		Locks: env.locks,
		Patterns: &MockPatternCatalog{patterns: map[string]*service.Pattern{
			"blinker": {Name: "Blinker", Period: 2, Layout: []string{"###"}},
		}},
	})
	return env
}

func blinker() engine.Grid {
	return engine.Grid{
		{0, 0, 0, 0, 0},
		{0, 0, 0, 0, 0},
		{0, 1, 1, 1, 0},
		{0, 0, 0, 0, 0},
		{0, 0, 0, 0, 0},
	}
}

func (env *testEnv) createBoard(t *testing.T, grid engine.Grid) string {
	t.Helper()
	info, err := env.svc.CreateBoard(context.Background(), service.CreateBoardRequest{Grid: grid})
	if err != nil {
		t.Fatalf("CreateBoard failed: %v", err)
	}
	return info.ID
}

func TestCreateBoard(t *testing.T) {
	env := newTestEnv(10)

	info, err := env.svc.CreateBoard(context.Background(), service.CreateBoardRequest{Grid: blinker()})
	if err != nil {
		t.Fatalf("CreateBoard failed: %v", err)
	}
	if info.ID == "" {
		t.Error("Expected board ID to be assigned")
	}
	if info.Generation != 0 || info.IsRunning {
		t.Errorf("Expected idle board at generation 0, got %+v", info)
	}
	if info.Rows != 5 || info.Cols != 5 || info.Population != 3 {
		t.Errorf("Unexpected dimensions %dx%d population %d", info.Rows, info.Cols, info.Population)
	}

	stored := env.store.Stored(info.ID)
	if stored.Grid != engine.Serialize(blinker()) {
		t.Errorf("Expected stored grid %s, got %s", engine.Serialize(blinker()), stored.Grid)
	}
}

func TestCreateBoard_Invalid(t *testing.T) {
	tests := []struct {
		name string
		req  service.CreateBoardRequest
	}{
		{"missing grid", service.CreateBoardRequest{}},
		{"empty grid", service.CreateBoardRequest{Grid: engine.Grid{}}},
		{"ragged grid", service.CreateBoardRequest{Grid: engine.Grid{{0, 1}, {1}}}},
		{"bad cell value", service.CreateBoardRequest{Grid: engine.Grid{{0, 2}}}},
		{"too large", service.CreateBoardRequest{Grid: engine.NewGrid(101, 3)}},
		{"unknown pattern", service.CreateBoardRequest{Pattern: "nope"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv(10)
			_, err := env.svc.CreateBoard(context.Background(), tt.req)
			if !service.IsValidation(err) {
				t.Errorf("Expected validation error, got %v", err)
			}
			if env.store.Writes() != 0 {
				t.Errorf("Expected no store writes, got %d", env.store.Writes())
			}
		})
	}
}

func TestCreateBoard_FromPattern(t *testing.T) {
	env := newTestEnv(10)

	info, err := env.svc.CreateBoard(context.Background(), service.CreateBoardRequest{Pattern: "blinker", Rows: 5, Cols: 5})
	if err != nil {
		t.Fatalf("CreateBoard failed: %v", err)
	}
	if !info.Grid.Equal(blinker()) {
		t.Errorf("Expected centred blinker, got\n%s", info.Grid)
	}
}

func TestAdvance_StepBounds(t *testing.T) {
	for _, steps := range []int{0, -1, 101} {
		t.Run(fmt.Sprintf("steps=%d", steps), func(t *testing.T) {
			env := newTestEnv(10)
			id := env.createBoard(t, blinker())
			writes := env.store.Writes()

			err := env.svc.Advance(context.Background(), id, steps)
			if !errors.Is(err, service.ErrInvalidSteps) {
				t.Errorf("Expected ErrInvalidSteps, got %v", err)
			}
			if env.queue.Len() != 0 {
				t.Errorf("Expected empty queue, got %d", env.queue.Len())
			}
			if env.store.Writes() != writes {
				t.Error("Store was written on a rejected advance")
			}
		})
	}
}

func TestAdvance_Accepted(t *testing.T) {
	env := newTestEnv(10)
	id := env.createBoard(t, blinker())

	for _, steps := range []int{1, 100} {
		if err := env.svc.Advance(context.Background(), id, steps); err != nil {
			t.Fatalf("Advance(%d) failed: %v", steps, err)
		}
	}
	if env.queue.Len() != 2 {
		t.Fatalf("Expected 2 queued requests, got %d", env.queue.Len())
	}

	req, err := env.queue.Dequeue(context.Background())
	if err != nil {
		t.Fatalf("Dequeue failed: %v", err)
	}
	if req.BoardID != id || req.Steps != 1 {
		t.Errorf("Unexpected request %+v", req)
	}
}

func TestAdvance_Ineligible(t *testing.T) {
	env := newTestEnv(10)

	if err := env.svc.Advance(context.Background(), "missing", 5); !errors.Is(err, service.ErrBoardNotFound) {
		t.Errorf("Expected ErrBoardNotFound, got %v", err)
	}

	id := env.createBoard(t, blinker())
	if err := env.svc.Start(context.Background(), id); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	if err := env.svc.Advance(context.Background(), id, 5); !errors.Is(err, service.ErrBoardRunning) {
		t.Errorf("Expected ErrBoardRunning, got %v", err)
	}
	if env.queue.Len() != 0 {
		t.Errorf("Expected empty queue, got %d", env.queue.Len())
	}
}

func TestAdvance_Backpressure(t *testing.T) {
	env := newTestEnv(1)
	id := env.createBoard(t, blinker())

	if err := env.svc.Advance(context.Background(), id, 1); err != nil {
		t.Fatalf("Advance failed: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()

	err := env.svc.Advance(ctx, id, 2)
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("Expected DeadlineExceeded while queue full, got %v", err)
	}
	if env.queue.Len() != 1 {
		t.Errorf("Expected 1 queued request, got %d", env.queue.Len())
	}
}

func TestStartStop(t *testing.T) {
	env := newTestEnv(10)
	ctx := context.Background()
	id := env.createBoard(t, blinker())

	if err := env.svc.Stop(ctx, id); !errors.Is(err, service.ErrBoardNotRunning) {
		t.Errorf("Expected ErrBoardNotRunning, got %v", err)
	}

	if err := env.svc.Start(ctx, id); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	if _, ok := env.cache.Get(id); !ok {
		t.Error("Expected running board in cache")
	}
	if !env.store.Stored(id).IsRunning {
		t.Error("Expected stored board to be running")
	}

	if err := env.svc.Start(ctx, id); !errors.Is(err, service.ErrBoardRunning) {
		t.Errorf("Expected ErrBoardRunning, got %v", err)
	}

	if err := env.svc.Stop(ctx, id); err != nil {
		t.Fatalf("Stop failed: %v", err)
	}
	if _, ok := env.cache.Get(id); ok {
		t.Error("Expected board removed from cache")
	}
	if env.store.Stored(id).IsRunning {
		t.Error("Expected stored board to be idle")
	}

	if err := env.svc.Start(ctx, "missing"); !errors.Is(err, service.ErrBoardNotFound) {
		t.Errorf("Expected ErrBoardNotFound, got %v", err)
	}
	if err := env.svc.Stop(ctx, "missing"); !errors.Is(err, service.ErrBoardNotFound) {
		t.Errorf("Expected ErrBoardNotFound, got %v", err)
	}
	if env.locks.Len() != 0 {
		t.Errorf("Expected lock registry to be empty, got %d", env.locks.Len())
	}
}

func TestStop_PersistsLiveState(t *testing.T) {
	env := newTestEnv(10)
	ctx := context.Background()
	id := env.createBoard(t, blinker())

	if err := env.svc.Start(ctx, id); err != nil {
		t.Fatalf("Start failed: %v", err)
	}

	snapshot, _ := env.cache.Get(id)
	advanced := snapshot.Clone()
	advanced.Generation = 7
	advanced.Grid = engine.Serialize(engine.NewGrid(5, 5))
	env.cache.Put(advanced)

	if err := env.svc.Stop(ctx, id); err != nil {
		t.Fatalf("Stop failed: %v", err)
	}

	stored := env.store.Stored(id)
	if stored.Generation != 7 {
		t.Errorf("Expected generation 7 persisted, got %d", stored.Generation)
	}
	if stored.Grid != advanced.Grid {
		t.Errorf("Expected live grid persisted, got %s", stored.Grid)
	}
}

func TestStop_StoreFailureKeepsBoardRunning(t *testing.T) {
	env := newTestEnv(10)
	ctx := context.Background()
	id := env.createBoard(t, blinker())

	if err := env.svc.Start(ctx, id); err != nil {
		t.Fatalf("Start failed: %v", err)
	}

	env.store.UpdateErr = errors.New("disk full")
	if err := env.svc.Stop(ctx, id); err == nil {
		t.Fatal("Expected Stop to fail")
	}
	if _, ok := env.cache.Get(id); !ok {
		t.Error("Board left the cache although the store still marks it running")
	}
}

func TestNextGeneration(t *testing.T) {
	env := newTestEnv(10)
	ctx := context.Background()
	id := env.createBoard(t, blinker())

	info, err := env.svc.NextGeneration(ctx, id)
	if err != nil {
		t.Fatalf("NextGeneration failed: %v", err)
	}
	if info.Generation != 1 {
		t.Errorf("Expected generation 1, got %d", info.Generation)
	}
	want, _ := engine.NextGeneration(blinker())
	if !info.Grid.Equal(want) {
		t.Errorf("Expected\n%s\ngot\n%s", want, info.Grid)
	}
	if env.store.Stored(id).Generation != 1 {
		t.Error("Expected new generation to be persisted")
	}
}

func TestNextGeneration_Errors(t *testing.T) {
	env := newTestEnv(10)
	ctx := context.Background()

	if _, err := env.svc.NextGeneration(ctx, "missing"); !errors.Is(err, service.ErrBoardNotFound) {
		t.Errorf("Expected ErrBoardNotFound, got %v", err)
	}

	running := env.createBoard(t, blinker())
	if err := env.svc.Start(ctx, running); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	if _, err := env.svc.NextGeneration(ctx, running); !errors.Is(err, service.ErrBoardRunning) {
		t.Errorf("Expected ErrBoardRunning, got %v", err)
	}

	corrupt := &engine.Board{ID: "corrupt", Grid: "0,1;x,y"}
	env.store.Add(ctx, corrupt)
	_, err := env.svc.NextGeneration(ctx, "corrupt")
	if !errors.Is(err, engine.ErrMalformedState) {
		t.Errorf("Expected ErrMalformedState, got %v", err)
	}
	if service.IsValidation(err) {
		t.Error("Malformed state must not be reported as a validation error")
	}
}

func TestNextGeneration_WaitsForBoardLock(t *testing.T) {
	env := newTestEnv(10)
	id := env.createBoard(t, blinker())

	lease, err := env.locks.Acquire(context.Background(), id)
	if err != nil {
		t.Fatalf("Acquire failed: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()
	if _, err := env.svc.NextGeneration(ctx, id); !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("Expected DeadlineExceeded while lock held, got %v", err)
	}

	lease.Release()
	if _, err := env.svc.NextGeneration(context.Background(), id); err != nil {
		t.Errorf("NextGeneration failed after release: %v", err)
	}
}

func TestGetBoard_PrefersLiveCache(t *testing.T) {
	env := newTestEnv(10)
	ctx := context.Background()
	id := env.createBoard(t, blinker())

	if err := env.svc.Start(ctx, id); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	snapshot, _ := env.cache.Get(id)
	live := snapshot.Clone()
	live.Generation = 12
	env.cache.Put(live)

	info, err := env.svc.GetBoard(ctx, id)
	if err != nil {
		t.Fatalf("GetBoard failed: %v", err)
	}
	if info.Generation != 12 || !info.IsRunning {
		t.Errorf("Expected live generation 12, got %+v", info)
	}

	if _, err := env.svc.GetBoard(ctx, "missing"); !errors.Is(err, service.ErrBoardNotFound) {
		t.Errorf("Expected ErrBoardNotFound, got %v", err)
	}
}

func TestListBoards(t *testing.T) {
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	env := newTestEnv(10)
	env.svc = service.NewBoardService(service.Options{
		Store: env.store,
		Cache: env.cache,
		Queue: env.queue,
		Locks: env.locks,
		Now: func() time.Time {
			now = now.Add(time.Second)
			return now
		},
	})

	first := env.createBoard(t, blinker())
	second := env.createBoard(t, engine.Grid{{1}})

	boards, err := env.svc.ListBoards(context.Background())
	if err != nil {
		t.Fatalf("ListBoards failed: %v", err)
	}
	if len(boards) != 2 {
		t.Fatalf("Expected 2 boards, got %d", len(boards))
	}
	if boards[0].ID != first || boards[1].ID != second {
		t.Errorf("Expected oldest first, got %s, %s", boards[0].ID, boards[1].ID)
	}
}

func TestStatus(t *testing.T) {
	env := newTestEnv(5)
	ctx := context.Background()
	a := env.createBoard(t, blinker())
	b := env.createBoard(t, blinker())

	if err := env.svc.Start(ctx, a); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	if err := env.svc.Advance(ctx, b, 3); err != nil {
		t.Fatalf("Advance failed: %v", err)
	}

	status, err := env.svc.Status(ctx)
	if err != nil {
		t.Fatalf("Status failed: %v", err)
	}
	if status.Boards != 2 || status.Running != 1 || status.QueuedAdvance != 1 || status.QueueCapacity != 5 {
		t.Errorf("Unexpected status %+v", status)
	}
}

func TestListPatterns(t *testing.T) {
	env := newTestEnv(5)
	patterns, err := env.svc.ListPatterns(context.Background())
	if err != nil {
		t.Fatalf("ListPatterns failed: %v", err)
	}
	if len(patterns) != 1 || patterns[0].PatternID != "blinker" {
		t.Errorf("Unexpected patterns %+v", patterns)
	}
}
