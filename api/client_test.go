package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/wricardo/mcp-training/gameoflife/game/service"
)

func setupClient(t *testing.T, mockService *MockBoardService) *Client {
	t.Helper()
	ts := httptest.NewServer(NewServer(mockService, nil, nil))
	t.Cleanup(ts.Close)
	return NewClient(ts.URL + "/")
}

func TestClient_Boards(t *testing.T) {
	var created service.CreateBoardRequest
	mockService := &MockBoardService{
		CreateBoardFunc: func(ctx context.Context, req service.CreateBoardRequest) (*service.BoardInfo, error) {
			created = req
			return testBoard("board-9"), nil
		},
		ListBoardsFunc: func(ctx context.Context) ([]*service.BoardInfo, error) {
			return []*service.BoardInfo{testBoard("board-9")}, nil
		},
	}
	client := setupClient(t, mockService)
	ctx := context.Background()

	resp, err := client.CreateBoard(ctx, service.CreateBoardRequest{Pattern: "glider", Rows: 8, Cols: 8})
	if err != nil {
		t.Fatalf("CreateBoard: %v", err)
	}
	if resp.BoardID != "board-9" || resp.Board.Rows != 3 {
		t.Errorf("Unexpected create response %+v", resp)
	}
	if created.Pattern != "glider" || created.Rows != 8 {
		t.Errorf("Server received %+v", created)
	}

	board, err := client.GetBoard(ctx, "board-9")
	if err != nil {
		t.Fatalf("GetBoard: %v", err)
	}
	if board.ID != "board-9" || board.Population != 3 {
		t.Errorf("Unexpected board %+v", board)
	}

	boards, err := client.ListBoards(ctx)
	if err != nil {
		t.Fatalf("ListBoards: %v", err)
	}
	if len(boards) != 1 {
		t.Errorf("Expected 1 board, got %d", len(boards))
	}

	next, err := client.NextGeneration(ctx, "board-9")
	if err != nil {
		t.Fatalf("NextGeneration: %v", err)
	}
	if next.Generation != 1 {
		t.Errorf("Expected generation 1, got %d", next.Generation)
	}
}

func TestClient_Simulation(t *testing.T) {
	var advancedSteps int
	mockService := &MockBoardService{
		AdvanceFunc: func(ctx context.Context, boardID string, steps int) error {
			advancedSteps = steps
			return nil
		},
	}
	client := setupClient(t, mockService)
	ctx := context.Background()

	adv, err := client.Advance(ctx, "board-1", 7)
	if err != nil {
		t.Fatalf("Advance: %v", err)
	}
	if adv.Status != "queued" || advancedSteps != 7 {
		t.Errorf("Unexpected advance %+v (server saw %d steps)", adv, advancedSteps)
	}

	started, err := client.Start(ctx, "board-1")
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	if !started.IsRunning {
		t.Error("Expected running after Start")
	}

	stopped, err := client.Stop(ctx, "board-1")
	if err != nil {
		t.Fatalf("Stop: %v", err)
	}
	if stopped.IsRunning {
		t.Error("Expected idle after Stop")
	}

	status, err := client.Ready(ctx)
	if err != nil {
		t.Fatalf("Ready: %v", err)
	}
	if status.QueueCapacity != 100 {
		t.Errorf("Expected queue capacity 100, got %d", status.QueueCapacity)
	}
}

func TestClient_Errors(t *testing.T) {
	mockService := &MockBoardService{
		GetBoardFunc: func(ctx context.Context, boardID string) (*service.BoardInfo, error) {
			return nil, fmt.Errorf("board %s: %w", boardID, service.ErrBoardNotFound)
		},
		AdvanceFunc: func(ctx context.Context, boardID string, steps int) error {
			return fmt.Errorf("%w: %d", service.ErrInvalidSteps, steps)
		},
	}
	client := setupClient(t, mockService)
	ctx := context.Background()

	_, err := client.GetBoard(ctx, "missing")
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("Expected APIError, got %v", err)
	}
	if apiErr.StatusCode != http.StatusNotFound {
		t.Errorf("Expected 404, got %d", apiErr.StatusCode)
	}
	if len(apiErr.Messages) != 1 || apiErr.Messages[0] != "board missing: board not found" {
		t.Errorf("Unexpected messages %v", apiErr.Messages)
	}

	_, err = client.Advance(ctx, "board-1", 0)
	if !errors.As(err, &apiErr) || apiErr.StatusCode != http.StatusBadRequest {
		t.Errorf("Expected 400 APIError, got %v", err)
	}
}

func TestClient_Unreachable(t *testing.T) {
	ts := httptest.NewServer(http.NotFoundHandler())
	url := ts.URL
	ts.Close()

	client := NewClient(url)
	if _, err := client.ListPatterns(context.Background()); err == nil {
		t.Error("Expected error from closed server")
	}
}
