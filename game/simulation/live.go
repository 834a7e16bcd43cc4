package simulation

import (
	"context"
	"errors"
	"fmt"
	"time"

	log15 "github.com/inconshreveable/log15"
	"github.com/jpillora/backoff"
	"go.uber.org/multierr"

	"github.com/wricardo/mcp-training/gameoflife/game/cache"
	"github.com/wricardo/mcp-training/gameoflife/game/engine"
	"github.com/wricardo/mcp-training/gameoflife/game/service"
	"github.com/wricardo/mcp-training/gameoflife/logging"
)

// Default live loop timing.
const (
	DefaultTickInterval = time.Second
	DefaultTickBackoff  = 3 * time.Second
)

// LiveLoopOptions configures a LiveLoop.
type LiveLoopOptions struct {
	Store    service.BoardStore
	Cache    *cache.Cache
	Notifier service.Notifier
	Logger   log15.Logger
	// TickInterval is the pause between ticks.
	TickInterval time.Duration
	// TickBackoff is the pause after a failed tick. Reconcile retries start
	// at TickInterval and grow up to ten times TickBackoff.
	TickBackoff time.Duration
}

// LiveLoop advances every running board by one generation per tick.
type LiveLoop struct {
	store    service.BoardStore
	boards   *cache.Cache
	notifier service.Notifier
	log      log15.Logger
	interval time.Duration
	tickWait *backoff.Backoff
	retry    *backoff.Backoff
	now      func() time.Time
}

// NewLiveLoop creates a live loop. Cache must be the one the board service
// uses.
func NewLiveLoop(opts LiveLoopOptions) *LiveLoop {
	interval := opts.TickInterval
	if interval <= 0 {
		interval = DefaultTickInterval
	}
	tickBackoff := opts.TickBackoff
	if tickBackoff <= 0 {
		tickBackoff = DefaultTickBackoff
	}

	return &LiveLoop{
		store:    opts.Store,
		boards:   opts.Cache,
		notifier: opts.Notifier,
		log:      logging.OrDiscard(opts.Logger).New("component", "live"),
		interval: interval,
		tickWait: &backoff.Backoff{
			Min: tickBackoff,
			Max: tickBackoff,
		},
		retry: &backoff.Backoff{
			Min:    interval,
			Max:    10 * tickBackoff,
			Factor: 2,
			Jitter: true,
		},
		now: time.Now,
	}
}

// Reconcile clears running flags left behind by an unclean shutdown: every
// board stored as running is marked stopped and the cache is emptied.
func (l *LiveLoop) Reconcile(ctx context.Context) error {
	running, err := l.store.GetRunning(ctx)
	if err != nil {
		return fmt.Errorf("failed to load running boards: %w", err)
	}

	now := l.now()
	for _, board := range running {
		board.IsRunning = false
		board.LastUpdatedAt = now
	}
	if err := l.store.UpdateMany(ctx, running); err != nil {
		return fmt.Errorf("failed to stop running boards: %w", err)
	}

	l.boards.Clear()
	if len(running) > 0 {
		l.log.Info("stopped boards left running", "count", len(running))
	}
	return nil
}

// Tick advances each cached board once and notifies its subscribers. Errors
// for individual boards are combined; the remaining boards are still ticked.
func (l *LiveLoop) Tick(ctx context.Context) error {
	var errs error
	for _, snapshot := range l.boards.GetAll() {
		if err := ctx.Err(); err != nil {
			return multierr.Append(errs, err)
		}
		errs = multierr.Append(errs, l.tickBoard(ctx, snapshot))
	}
	return errs
}

func (l *LiveLoop) tickBoard(ctx context.Context, snapshot *engine.Board) error {
	grid, err := snapshot.Cells()
	if err == nil {
		grid, err = engine.NextGeneration(grid)
	}
	if err != nil {
		l.log.Crit("running board is corrupt", "board_id", snapshot.ID, "err", err)
		err = fmt.Errorf("board %s: %w", snapshot.ID, err)
		return multierr.Append(err, l.evict(ctx, snapshot, err))
	}

	next := snapshot.Clone()
	next.Grid = engine.Serialize(grid)
	next.Generation++
	next.LastUpdatedAt = l.now()

	// A board stopped or restarted since GetAll keeps its newer entry.
	if !l.boards.CompareAndSwap(snapshot, next) {
		return nil
	}

	if l.notifier == nil {
		return nil
	}
	if err := l.notifier.Notify(ctx, service.UpdateBoardEvent(next.ID, grid, next.Generation)); err != nil {
		return fmt.Errorf("notify board %s: %w", next.ID, err)
	}
	return nil
}

// evict removes a corrupt board from the cache, marks it stopped and tells
// its subscribers why their updates ended.
func (l *LiveLoop) evict(ctx context.Context, snapshot *engine.Board, cause error) error {
	if current, ok := l.boards.Get(snapshot.ID); !ok || current != snapshot {
		return nil
	}
	l.boards.Remove(snapshot.ID)

	var errs error
	board, err := l.store.GetByID(ctx, snapshot.ID)
	if err == nil {
		board.IsRunning = false
		board.LastUpdatedAt = l.now()
		err = l.store.Update(ctx, board)
	}
	errs = multierr.Append(errs, err)

	if l.notifier != nil {
		errs = multierr.Append(errs, l.notifier.Notify(ctx, service.BoardStoppedEvent(snapshot.ID, cause)))
	}
	return errs
}

// Prepare reconciles, retrying with backoff until it succeeds or ctx is done.
// It must return before any board can be started.
func (l *LiveLoop) Prepare(ctx context.Context) error {
	defer l.retry.Reset()
	for {
		err := l.Reconcile(ctx)
		if err == nil {
			return nil
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		wait := l.retry.Duration()
		l.log.Error("reconcile failed", "err", err, "retry_in", wait)
		if !sleep(ctx, wait) {
			return ctx.Err()
		}
	}
}

// Run ticks until ctx is done. Call Prepare first. A failed tick delays the
// next one by the backoff schedule. Run only returns when ctx is done, with nil.
func (l *LiveLoop) Run(ctx context.Context) error {
	l.log.Info("live loop started", "interval", l.interval)
	defer l.log.Info("live loop stopped")

	for {
		wait := l.interval
		if err := l.Tick(ctx); err != nil {
			if ctx.Err() != nil && (errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)) {
				return nil
			}
			wait = l.tickWait.Duration()
			l.log.Error("tick failed", "err", err, "retry_in", wait)
		} else {
			l.tickWait.Reset()
		}

		if !sleep(ctx, wait) {
			return nil
		}
	}
}

// sleep waits for d and reports false if ctx ended first.
func sleep(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
