package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/wricardo/mcp-training/gameoflife/game/engine"
	"github.com/wricardo/mcp-training/gameoflife/game/service"
)

// FilePersistence implements Persistence with one JSON file per board
type FilePersistence struct {
	boardsDir string
}

// NewFilePersistence creates a new file-based board persistence layer
func NewFilePersistence(boardsDir string) (*FilePersistence, error) {
	if err := os.MkdirAll(boardsDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create boards directory: %w", err)
	}

	return &FilePersistence{boardsDir: boardsDir}, nil
}

// Save writes the board to <dir>/<id>.json, replacing any previous file
func (fp *FilePersistence) Save(board *engine.Board) error {
	if board == nil {
		return fmt.Errorf("board cannot be nil")
	}
	if board.ID == "" {
		return fmt.Errorf("board ID cannot be empty")
	}

	jsonData, err := json.MarshalIndent(toPersisted(board), "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal board data: %w", err)
	}

	// Write then rename so a crash never leaves a half-written board.
	filePath := fp.getFilePath(board.ID)
	tmp := filePath + ".tmp"
	if err := os.WriteFile(tmp, jsonData, 0644); err != nil {
		return fmt.Errorf("failed to write board file: %w", err)
	}
	if err := os.Rename(tmp, filePath); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("failed to write board file: %w", err)
	}

	return nil
}

// Load reads a board from its JSON file
func (fp *FilePersistence) Load(id string) (*engine.Board, error) {
	jsonData, err := os.ReadFile(fp.getFilePath(id))
	if errors.Is(err, os.ErrNotExist) {
		return nil, service.ErrBoardNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read board file: %w", err)
	}

	var data PersistedBoardData
	if err := json.Unmarshal(jsonData, &data); err != nil {
		return nil, fmt.Errorf("board %s: %w: %v", id, engine.ErrMalformedState, err)
	}
	if data.ID == "" {
		data.ID = id
	}

	return data.board(), nil
}

// Delete removes a board file
func (fp *FilePersistence) Delete(id string) error {
	if !fp.Exists(id) {
		return service.ErrBoardNotFound
	}

	if err := os.Remove(fp.getFilePath(id)); err != nil {
		return fmt.Errorf("failed to remove board file: %w", err)
	}

	return nil
}

// ListAll returns all persisted board IDs
func (fp *FilePersistence) ListAll() ([]string, error) {
	entries, err := os.ReadDir(fp.boardsDir)
	if err != nil {
		return nil, fmt.Errorf("failed to read boards directory: %w", err)
	}

	var ids []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}

		name := entry.Name()
		if strings.HasSuffix(name, ".json") {
			ids = append(ids, strings.TrimSuffix(name, ".json"))
		}
	}

	return ids, nil
}

// Exists checks if a board file exists
func (fp *FilePersistence) Exists(id string) bool {
	_, err := os.Stat(fp.getFilePath(id))
	return err == nil
}

func (fp *FilePersistence) getFilePath(id string) string {
	return filepath.Join(fp.boardsDir, fmt.Sprintf("%s.json", id))
}
