package main

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/wricardo/mcp-training/gameoflife/api"
	"github.com/wricardo/mcp-training/gameoflife/game/engine"
	"github.com/wricardo/mcp-training/gameoflife/game/service"
	"github.com/wricardo/mcp-training/gameoflife/game/store"
	"github.com/wricardo/mcp-training/gameoflife/logging"
)

func TestConstants(t *testing.T) {
	if Version == "" {
		t.Error("Version should not be empty")
	}
	if AppName != "Game of Life Server" {
		t.Errorf("Unexpected app name %s", AppName)
	}
}

func TestFlagDefaults(t *testing.T) {
	// Test that flags have reasonable defaults
	if *port <= 0 || *port > 65535 {
		t.Errorf("Invalid default port: %d", *port)
	}

	if *host == "" {
		t.Error("Host should have a default value")
	}
}

func TestSelfURL(t *testing.T) {
	tests := []struct {
		host string
		want string
	}{
		{"localhost", "http://localhost:8080"},
		{"0.0.0.0", "http://127.0.0.1:8080"},
		{"", "http://127.0.0.1:8080"},
		{"::1", "http://[::1]:8080"},
	}

	for _, tt := range tests {
		t.Run(tt.host, func(t *testing.T) {
			if got := selfURL(tt.host, 8080); got != tt.want {
				t.Errorf("selfURL(%q) = %s, want %s", tt.host, got, tt.want)
			}
		})
	}
}

// withFlags points the storage flags at temporary directories for one test.
func withFlags(t *testing.T, data string) {
	t.Helper()
	origConfig, origData, origPatterns := *configFile, *dataDir, *patternsDir
	*configFile = ""
	*dataDir = data
	*patternsDir = "patterns"
	t.Cleanup(func() {
		*configFile, *dataDir, *patternsDir = origConfig, origData, origPatterns
	})
}

func TestInitializeServices(t *testing.T) {
	data := t.TempDir()
	withFlags(t, data)

	// A board left behind by a previous run, still marked running.
	persistence, err := store.NewFilePersistence(data)
	if err != nil {
		t.Fatalf("NewFilePersistence: %v", err)
	}
	now := time.Now()
	err = persistence.Save(&engine.Board{
		ID:            "persisted",
		Grid:          engine.Serialize(engine.Grid{{1, 1}, {1, 1}}),
		Generation:    9,
		IsRunning:     true,
		CreatedAt:     now,
		LastUpdatedAt: now,
	})
	if err != nil {
		t.Fatalf("Save: %v", err)
	}

	a, err := initializeServices(logging.Discard())
	if err != nil {
		t.Fatalf("Failed to initialize services: %v", err)
	}
	if a.settings.DataDir != data {
		t.Errorf("Expected data dir %s, got %s", data, a.settings.DataDir)
	}

	board, err := a.service.GetBoard(context.Background(), "persisted")
	if err != nil {
		t.Fatalf("Persisted board not loaded: %v", err)
	}
	if board.Generation != 9 {
		t.Errorf("Expected generation 9, got %d", board.Generation)
	}

	patterns, err := a.service.ListPatterns(context.Background())
	if err != nil {
		t.Fatalf("ListPatterns: %v", err)
	}
	found := false
	for _, p := range patterns {
		if p.PatternID == "pentadecathlon" {
			found = true
		}
	}
	if !found {
		t.Error("Expected patterns from the patterns directory")
	}
}

func TestInitializeServices_BadSettings(t *testing.T) {
	withFlags(t, t.TempDir())
	t.Setenv("GOL_QUEUE_CAPACITY", "0")

	if _, err := initializeServices(logging.Discard()); err == nil {
		t.Error("Expected error for zero queue capacity")
	}
}

func TestInitializeServices_MissingSettingsFile(t *testing.T) {
	withFlags(t, t.TempDir())
	*configFile = filepath.Join(t.TempDir(), "missing.yaml")

	if _, err := initializeServices(logging.Discard()); err == nil {
		t.Error("Expected error for missing settings file")
	}
}

// startApp runs the whole server in-process and returns its base URL.
func startApp(t *testing.T) string {
	t.Helper()
	return startAppWithData(t, t.TempDir())
}

func startAppWithData(t *testing.T, data string) string {
	t.Helper()
	withFlags(t, data)
	t.Setenv("GOL_TICK_INTERVAL", "20ms")

	a, err := initializeServices(logging.Discard())
	if err != nil {
		t.Fatalf("Failed to initialize services: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	g, gctx := errgroup.WithContext(ctx)
	if err := a.startBackground(gctx, g); err != nil {
		cancel()
		t.Fatalf("Failed to start background services: %v", err)
	}

	var handler http.Handler
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		handler.ServeHTTP(w, r)
	}))
	handler = a.handler(ts.URL)

	t.Cleanup(func() {
		ts.Close()
		cancel()
		if err := g.Wait(); err != nil {
			t.Errorf("Background components failed: %v", err)
		}
	})
	return ts.URL
}

func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("Timed out waiting for %s", what)
}

func TestServer_EndToEnd(t *testing.T) {
	baseURL := startApp(t)
	client := api.NewClient(baseURL)
	ctx := context.Background()

	created, err := client.CreateBoard(ctx, service.CreateBoardRequest{Pattern: "blinker", Rows: 5, Cols: 5})
	if err != nil {
		t.Fatalf("CreateBoard: %v", err)
	}
	id := created.BoardID

	// The worker runs the queued advance until the blinker repeats.
	if _, err := client.Advance(ctx, id, 10); err != nil {
		t.Fatalf("Advance: %v", err)
	}
	waitFor(t, "advance to conclude", func() bool {
		board, err := client.GetBoard(ctx, id)
		return err == nil && board.Generation == 2
	})

	// The live loop ticks a started board.
	if _, err := client.Start(ctx, id); err != nil {
		t.Fatalf("Start: %v", err)
	}
	waitFor(t, "live ticks", func() bool {
		board, err := client.GetBoard(ctx, id)
		return err == nil && board.Generation >= 5
	})
	if _, err := client.Stop(ctx, id); err != nil {
		t.Fatalf("Stop: %v", err)
	}

	stopped, err := client.GetBoard(ctx, id)
	if err != nil {
		t.Fatalf("GetBoard: %v", err)
	}
	if stopped.IsRunning || stopped.Generation < 5 {
		t.Errorf("Expected stopped board past generation 5, got %+v", stopped)
	}

	status, err := client.Ready(ctx)
	if err != nil {
		t.Fatalf("Ready: %v", err)
	}
	if status.Boards != 1 || status.Running != 0 {
		t.Errorf("Unexpected status %+v", status)
	}
}

func TestServer_StartAfterRestart(t *testing.T) {
	data := t.TempDir()
	persistence, err := store.NewFilePersistence(data)
	if err != nil {
		t.Fatalf("NewFilePersistence: %v", err)
	}
	now := time.Now()
	err = persistence.Save(&engine.Board{
		ID:            "leftover",
		Grid:          engine.Serialize(engine.Grid{{0, 0, 0}, {1, 1, 1}, {0, 0, 0}}),
		Generation:    4,
		IsRunning:     true,
		CreatedAt:     now,
		LastUpdatedAt: now,
	})
	if err != nil {
		t.Fatalf("Save: %v", err)
	}

	client := api.NewClient(startAppWithData(t, data))
	ctx := context.Background()

	// Boards left running are stopped before the first request is served.
	board, err := client.GetBoard(ctx, "leftover")
	if err != nil {
		t.Fatalf("GetBoard: %v", err)
	}
	if board.IsRunning {
		t.Fatal("Leftover board still running after startup")
	}

	if _, err := client.Start(ctx, "leftover"); err != nil {
		t.Fatalf("Start: %v", err)
	}
	waitFor(t, "restarted board to tick", func() bool {
		board, err := client.GetBoard(ctx, "leftover")
		return err == nil && board.IsRunning && board.Generation >= 7
	})

	status, err := client.Ready(ctx)
	if err != nil {
		t.Fatalf("Ready: %v", err)
	}
	if status.Running != 1 {
		t.Errorf("Expected one running board, got %+v", status)
	}
}

func TestServer_MCPEndpoint(t *testing.T) {
	baseURL := startApp(t)

	post := func(body string) string {
		resp, err := http.Post(baseURL+"/mcp", "application/json", bytes.NewBufferString(body))
		if err != nil {
			t.Fatalf("POST /mcp: %v", err)
		}
		defer resp.Body.Close()
		data, _ := io.ReadAll(resp.Body)
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("Expected 200, got %d: %s", resp.StatusCode, data)
		}
		return string(data)
	}

	post(`{"jsonrpc":"2.0","id":1,"method":"initialize","params":{"protocolVersion":"2024-11-05","capabilities":{},"clientInfo":{"name":"test","version":"1.0"}}}`)

	out := post(`{"jsonrpc":"2.0","id":2,"method":"tools/call","params":{"name":"create_board","arguments":{"pattern":"glider","rows":8,"cols":8}}}`)
	if !strings.Contains(out, "Board created") {
		t.Fatalf("Expected board creation, got: %s", out)
	}

	out = post(`{"jsonrpc":"2.0","id":3,"method":"tools/call","params":{"name":"list_boards","arguments":{}}}`)
	var resp struct {
		Result struct {
			Content []struct {
				Text string `json:"text"`
			} `json:"content"`
		} `json:"result"`
	}
	if err := json.Unmarshal([]byte(out), &resp); err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if len(resp.Result.Content) == 0 || !strings.Contains(resp.Result.Content[0].Text, "1 board(s)") {
		t.Errorf("Expected one board listed, got: %s", out)
	}

	get, err := http.Get(baseURL + "/mcp")
	if err != nil {
		t.Fatalf("GET /mcp: %v", err)
	}
	get.Body.Close()
	if get.StatusCode != http.StatusMethodNotAllowed {
		t.Errorf("Expected 405 for GET /mcp, got %d", get.StatusCode)
	}
}

func TestExternalServerAvailable(t *testing.T) {
	ts := httptest.NewServer(api.NewServer(nil, nil, nil))
	if !externalServerAvailable(ts.URL) {
		t.Error("Expected running server to be detected")
	}
	ts.Close()

	if externalServerAvailable(ts.URL) {
		t.Error("Expected closed server to be unavailable")
	}
}
