package simulation

import (
	"context"
	"errors"
	"fmt"
	"time"

	log15 "github.com/inconshreveable/log15"

	"github.com/wricardo/mcp-training/gameoflife/game/engine"
	"github.com/wricardo/mcp-training/gameoflife/game/lock"
	"github.com/wricardo/mcp-training/gameoflife/game/queue"
	"github.com/wricardo/mcp-training/gameoflife/game/service"
	"github.com/wricardo/mcp-training/gameoflife/logging"
)

// OutcomeKind classifies the result of one batch advance.
type OutcomeKind int

const (
	// OutcomeConcluded: the board reached a terminal state and was saved.
	OutcomeConcluded OutcomeKind = iota
	// OutcomeNotConcluded: steps ran out first; nothing was saved.
	OutcomeNotConcluded
	// OutcomeRejected: the board is unknown or not eligible.
	OutcomeRejected
	// OutcomeFailed: storage, corrupt state or another unexpected error.
	OutcomeFailed
	// OutcomeCancelled: ctx ended while waiting or evolving.
	OutcomeCancelled
)

func (k OutcomeKind) String() string {
	switch k {
	case OutcomeConcluded:
		return "concluded"
	case OutcomeNotConcluded:
		return "not_concluded"
	case OutcomeRejected:
		return "rejected"
	case OutcomeFailed:
		return "failed"
	case OutcomeCancelled:
		return "cancelled"
	default:
		return fmt.Sprintf("OutcomeKind(%d)", int(k))
	}
}

// Outcome is the result of Advancer.Advance. Grid, Generation and Conclusion
// are set only for OutcomeConcluded; Err is set for every other kind.
type Outcome struct {
	Kind       OutcomeKind
	BoardID    string
	Grid       engine.Grid
	Generation int
	Conclusion Conclusion
	Err        error
}

// Advancer runs one batch advance under the board lock.
type Advancer struct {
	store service.BoardStore
	locks *lock.Registry
	log   log15.Logger
	now   func() time.Time
}

// NewAdvancer creates an advancer. locks must be shared with the board
// service.
func NewAdvancer(store service.BoardStore, locks *lock.Registry, logger log15.Logger) *Advancer {
	return &Advancer{
		store: store,
		locks: locks,
		log:   logging.OrDiscard(logger).New("component", "advancer"),
		now:   time.Now,
	}
}

// Advance evolves the board named by req for up to req.Steps generations and
// persists the final state if it concluded.
func (a *Advancer) Advance(ctx context.Context, req queue.Request) Outcome {
	lease, err := a.locks.Acquire(ctx, req.BoardID)
	if err != nil {
		return a.failure(ctx, req, err)
	}
	defer lease.Release()

	if req.Steps < 1 {
		return Outcome{Kind: OutcomeRejected, BoardID: req.BoardID, Err: fmt.Errorf("%w: %d", service.ErrInvalidSteps, req.Steps)}
	}

	board, err := a.store.GetByID(ctx, req.BoardID)
	if err != nil {
		return a.failure(ctx, req, err)
	}
	// The board may have been started after the request was queued.
	if board.IsRunning {
		return Outcome{Kind: OutcomeRejected, BoardID: req.BoardID, Err: service.ErrBoardRunning}
	}

	grid, err := board.Cells()
	if err != nil {
		a.log.Crit("stored board is corrupt", "board_id", req.BoardID, "err", err)
		return Outcome{Kind: OutcomeFailed, BoardID: req.BoardID, Err: fmt.Errorf("board %s: %w", req.BoardID, err)}
	}

	result, err := Evolve(ctx, grid, req.Steps)
	if err != nil {
		return a.failure(ctx, req, err)
	}
	if !result.Concluded() {
		return Outcome{Kind: OutcomeNotConcluded, BoardID: req.BoardID, Err: ErrNoConclusion}
	}

	updated := board.Clone()
	updated.Grid = engine.Serialize(result.Grid)
	updated.Generation += result.Generations
	updated.LastUpdatedAt = a.now()

	if err := a.store.Update(ctx, updated); err != nil {
		return a.failure(ctx, req, fmt.Errorf("failed to save board: %w", err))
	}

	a.log.Debug("advance concluded", "board_id", req.BoardID, "steps", req.Steps,
		"applied", result.Generations, "conclusion", result.Conclusion, "generation", updated.Generation)

	return Outcome{
		Kind:       OutcomeConcluded,
		BoardID:    req.BoardID,
		Grid:       result.Grid,
		Generation: updated.Generation,
		Conclusion: result.Conclusion,
	}
}

func (a *Advancer) failure(ctx context.Context, req queue.Request, err error) Outcome {
	kind := OutcomeFailed
	switch {
	case ctx.Err() != nil && (errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)):
		kind = OutcomeCancelled
	case errors.Is(err, service.ErrBoardNotFound):
		kind = OutcomeRejected
	}
	return Outcome{Kind: kind, BoardID: req.BoardID, Err: err}
}
