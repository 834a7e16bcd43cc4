package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/wricardo/mcp-training/gameoflife/game/service"
)

var ErrInvalidPattern = errors.New("invalid pattern")

var _ service.PatternCatalog = (*PatternManager)(nil)

var builtinPatterns = map[string]*service.Pattern{
	"blinker": {
		Name:        "Blinker",
		Description: "Period 2 oscillator, three cells in a row",
		Period:      2,
		Layout:      []string{"###"},
	},
	"block": {
		Name:        "Block",
		Description: "2x2 still life",
		Period:      1,
		Layout:      []string{"##", "##"},
	},
	"glider": {
		Name:        "Glider",
		Description: "Spaceship moving one cell diagonally every 4 generations",
		Period:      4,
		Layout:      []string{".#.", "..#", "###"},
	},
	"toad": {
		Name:        "Toad",
		Description: "Period 2 oscillator",
		Period:      2,
		Layout:      []string{".###", "###."},
	},
	"r-pentomino": {
		Name:        "R-pentomino",
		Description: "Methuselah that stabilises after 1103 generations on an unbounded plane",
		Layout:      []string{".##", "##.", ".#."},
	},
}

// PatternManager loads seed patterns from JSON files in a directory, falling
// back to a small built-in set. Loaded patterns are cached.
type PatternManager struct {
	patternsDir string
	patterns    map[string]*service.Pattern
	mu          sync.RWMutex
}

// NewPatternManager creates a pattern manager. A missing directory leaves
// only the built-in patterns available.
func NewPatternManager(patternsDir string) (*PatternManager, error) {
	if patternsDir != "" {
		info, err := os.Stat(patternsDir)
		if err == nil && !info.IsDir() {
			return nil, fmt.Errorf("patterns path is not a directory: %s", patternsDir)
		}
	}

	return &PatternManager{
		patternsDir: patternsDir,
		patterns:    make(map[string]*service.Pattern),
	}, nil
}

// LoadPattern returns the named pattern, preferring a file over a built-in
func (m *PatternManager) LoadPattern(name string) (*service.Pattern, error) {
	name = strings.TrimSuffix(strings.ToLower(name), ".json")
	if name == "" || strings.ContainsAny(name, `/\`) {
		return nil, fmt.Errorf("%w: %q", service.ErrPatternNotFound, name)
	}

	m.mu.RLock()
	if pattern, exists := m.patterns[name]; exists {
		m.mu.RUnlock()
		return pattern, nil
	}
	m.mu.RUnlock()

	m.mu.Lock()
	defer m.mu.Unlock()

	if pattern, exists := m.patterns[name]; exists {
		return pattern, nil
	}

	pattern, err := m.readPattern(name)
	if errors.Is(err, os.ErrNotExist) {
		builtin, ok := builtinPatterns[name]
		if !ok {
			return nil, fmt.Errorf("%w: %s", service.ErrPatternNotFound, name)
		}
		pattern, err = builtin, nil
	}
	if err != nil {
		return nil, err
	}

	m.patterns[name] = pattern
	return pattern, nil
}

func (m *PatternManager) readPattern(name string) (*service.Pattern, error) {
	if m.patternsDir == "" {
		return nil, os.ErrNotExist
	}

	data, err := os.ReadFile(filepath.Join(m.patternsDir, name+".json"))
	if err != nil {
		return nil, err
	}

	var pattern service.Pattern
	if err := json.Unmarshal(data, &pattern); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrInvalidPattern, name, err)
	}
	if pattern.Name == "" {
		pattern.Name = name
	}
	if _, err := pattern.Grid(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidPattern, err)
	}
	return &pattern, nil
}

// ListPatterns returns every loadable pattern sorted by ID. Invalid pattern
// files are skipped.
func (m *PatternManager) ListPatterns() ([]*service.PatternInfo, error) {
	ids := make(map[string]bool, len(builtinPatterns))
	for id := range builtinPatterns {
		ids[id] = true
	}

	if m.patternsDir != "" {
		entries, err := os.ReadDir(m.patternsDir)
		if err != nil && !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("failed to read patterns directory: %w", err)
		}
		for _, entry := range entries {
			if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") {
				continue
			}
			ids[strings.ToLower(strings.TrimSuffix(entry.Name(), ".json"))] = true
		}
	}

	infos := make([]*service.PatternInfo, 0, len(ids))
	for id := range ids {
		pattern, err := m.LoadPattern(id)
		if err != nil {
			continue
		}
		grid, err := pattern.Grid()
		if err != nil {
			continue
		}
		infos = append(infos, &service.PatternInfo{
			PatternID:   id,
			Name:        pattern.Name,
			Description: pattern.Description,
			Rows:        len(grid),
			Cols:        len(grid[0]),
			Period:      pattern.Period,
		})
	}

	sort.Slice(infos, func(i, j int) bool {
		return infos[i].PatternID < infos[j].PatternID
	})
	return infos, nil
}

// Refresh drops cached patterns so the next load reads the files again
func (m *PatternManager) Refresh() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.patterns = make(map[string]*service.Pattern)
}
