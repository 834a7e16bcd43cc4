package simulation

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/wricardo/mcp-training/gameoflife/game/engine"
	"github.com/wricardo/mcp-training/gameoflife/game/service"
	"github.com/wricardo/mcp-training/gameoflife/game/store"
)

// recordingNotifier collects every event it is given.
type recordingNotifier struct {
	mu     sync.Mutex
	events []service.Event
	err    error
}

func (n *recordingNotifier) Notify(ctx context.Context, event service.Event) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.events = append(n.events, event)
	return n.err
}

func (n *recordingNotifier) Events() []service.Event {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]service.Event(nil), n.events...)
}

func layout(t *testing.T, rows ...string) engine.Grid {
	t.Helper()
	g, err := engine.ParseLayout(rows)
	if err != nil {
		t.Fatalf("ParseLayout failed: %v", err)
	}
	return g
}

func blinker(t *testing.T) engine.Grid {
	return layout(t, ".....", ".....", ".###.", ".....", ".....")
}

func rPentomino(t *testing.T) engine.Grid {
	return layout(t, ".....", "..##.", ".##..", "..#..", ".....")
}

func block(t *testing.T) engine.Grid {
	return layout(t, "....", ".##.", ".##.", "....")
}

var epoch = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

func addBoard(t *testing.T, s *store.Manager, id string, grid engine.Grid, running bool) *engine.Board {
	t.Helper()
	board := &engine.Board{
		ID:            id,
		Grid:          engine.Serialize(grid),
		IsRunning:     running,
		CreatedAt:     epoch,
		LastUpdatedAt: epoch,
	}
	if err := s.Add(context.Background(), board); err != nil {
		t.Fatalf("Add failed: %v", err)
	}
	return board
}

func storedBoard(t *testing.T, s *store.Manager, id string) *engine.Board {
	t.Helper()
	board, err := s.GetByID(context.Background(), id)
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	return board
}
