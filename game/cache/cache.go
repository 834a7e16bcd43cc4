package cache

import (
	"sync"

	"github.com/wricardo/mcp-training/gameoflife/game/engine"
)

// Cache holds the boards currently driven by the live simulation loop.
// Stored boards are treated as immutable snapshots: writers replace an entry
// instead of modifying the board it points to.
type Cache struct {
	boards map[string]*engine.Board
	mu     sync.RWMutex
}

// New creates an empty board cache
func New() *Cache {
	return &Cache{
		boards: make(map[string]*engine.Board),
	}
}

// Put stores board under its id, replacing any previous snapshot.
func (c *Cache) Put(board *engine.Board) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.boards[board.ID] = board
}

// Get returns the snapshot for id.
func (c *Cache) Get(id string) (*engine.Board, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	board, ok := c.boards[id]
	return board, ok
}

// Remove deletes id and returns the snapshot it held.
func (c *Cache) Remove(id string) (*engine.Board, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	board, ok := c.boards[id]
	if ok {
		delete(c.boards, id)
	}
	return board, ok
}

// CompareAndSwap replaces the entry for next.ID with next only if it still
// holds old. It reports whether the swap happened.
func (c *Cache) CompareAndSwap(old, next *engine.Board) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if current, ok := c.boards[next.ID]; !ok || current != old {
		return false
	}
	c.boards[next.ID] = next
	return true
}

// GetAll returns the current snapshots in no particular order.
func (c *Cache) GetAll() []*engine.Board {
	c.mu.RLock()
	defer c.mu.RUnlock()

	result := make([]*engine.Board, 0, len(c.boards))
	for _, board := range c.boards {
		result = append(result, board)
	}
	return result
}

// Clear removes every entry.
func (c *Cache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.boards = make(map[string]*engine.Board)
}

// Len returns the number of cached boards.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.boards)
}
