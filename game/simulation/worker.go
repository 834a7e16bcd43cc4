package simulation

import (
	"context"
	"errors"
	"fmt"
	"runtime/debug"

	log15 "github.com/inconshreveable/log15"

	"github.com/wricardo/mcp-training/gameoflife/game/queue"
	"github.com/wricardo/mcp-training/gameoflife/game/service"
	"github.com/wricardo/mcp-training/gameoflife/logging"
)

// Worker is the single consumer of the advance queue.
type Worker struct {
	queue    *queue.Queue
	advancer *Advancer
	notifier service.Notifier
	log      log15.Logger
}

// NewWorker creates a worker draining q through advancer and reporting each
// result to notifier.
func NewWorker(q *queue.Queue, advancer *Advancer, notifier service.Notifier, logger log15.Logger) *Worker {
	return &Worker{
		queue:    q,
		advancer: advancer,
		notifier: notifier,
		log:      logging.OrDiscard(logger).New("component", "worker"),
	}
}

// Run processes requests until ctx is done or the queue is closed. A failing
// request is reported and never stops the loop. Run returns nil on a clean
// shutdown.
func (w *Worker) Run(ctx context.Context) error {
	w.log.Info("advance worker started", "capacity", w.queue.Cap())
	defer w.log.Info("advance worker stopped")

	for {
		req, err := w.queue.Dequeue(ctx)
		switch {
		case err == nil:
		case errors.Is(err, queue.ErrClosed), ctx.Err() != nil:
			return nil
		default:
			w.log.Error("dequeue failed", "err", err)
			continue
		}

		w.Process(ctx, req)
	}
}

// Process runs one request and notifies its subscribers. It recovers from a
// panic inside the request and reports it as a failed advance.
func (w *Worker) Process(ctx context.Context, req queue.Request) (outcome Outcome) {
	log := w.log.New("board_id", req.BoardID, "steps", req.Steps)

	defer func() {
		if r := recover(); r != nil {
			log.Error("advance panicked", "panic", r, "stack", string(debug.Stack()))
			outcome = Outcome{Kind: OutcomeFailed, BoardID: req.BoardID, Err: fmt.Errorf("advance panicked: %v", r)}
			w.notify(ctx, log, service.AdvanceFailedEvent(req.BoardID, outcome.Err))
		}
	}()

	outcome = w.advancer.Advance(ctx, req)

	switch outcome.Kind {
	case OutcomeConcluded:
		log.Info("advance completed", "generation", outcome.Generation, "conclusion", outcome.Conclusion)
		w.notify(ctx, log, service.AdvanceCompletedEvent(req.BoardID, outcome.Grid, outcome.Generation))
	case OutcomeNotConcluded:
		log.Info("advance did not conclude")
		w.notify(ctx, log, service.AdvanceFailedEvent(req.BoardID, nil))
	case OutcomeRejected:
		log.Warn("advance rejected", "err", outcome.Err)
		w.notify(ctx, log, service.AdvanceFailedEvent(req.BoardID, outcome.Err))
	case OutcomeFailed:
		log.Error("advance failed", "err", outcome.Err)
		w.notify(ctx, log, service.AdvanceFailedEvent(req.BoardID, outcome.Err))
	case OutcomeCancelled:
		log.Debug("advance cancelled", "err", outcome.Err)
	}
	return outcome
}

func (w *Worker) notify(ctx context.Context, log log15.Logger, event service.Event) {
	if w.notifier == nil {
		return
	}
	if err := w.notifier.Notify(ctx, event); err != nil {
		log.Warn("notify failed", "event", event.Type, "err", err)
	}
}
