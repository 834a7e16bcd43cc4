package simulation

import (
	"context"
	"errors"

	"github.com/wricardo/mcp-training/gameoflife/game/engine"
)

// ErrNoConclusion is reported when a batch advance used all of its steps
// without reaching a fixed point, extinction or a repeated state.
var ErrNoConclusion = errors.New("no conclusion within steps")

// Conclusion names why an evolution stopped early.
type Conclusion int

const (
	NotConcluded Conclusion = iota
	FixedPoint
	Extinction
	Cycle
)

func (c Conclusion) String() string {
	switch c {
	case FixedPoint:
		return "fixed_point"
	case Extinction:
		return "extinction"
	case Cycle:
		return "cycle"
	default:
		return "none"
	}
}

// EvolveResult is the state reached by Evolve.
type EvolveResult struct {
	Grid engine.Grid
	// Generations is the number of transitions applied, 1..steps.
	Generations int
	Conclusion  Conclusion
	// Period is the cycle length when Conclusion is Cycle.
	Period int
}

// Concluded reports whether the evolution reached a terminal state.
func (r EvolveResult) Concluded() bool {
	return r.Conclusion != NotConcluded
}

// Evolve applies up to steps generations to grid and stops at the first
// generation that is a fixed point, has no live cells, or repeats a state seen
// earlier in the run (the starting grid included). ctx is checked before every
// generation.
func Evolve(ctx context.Context, grid engine.Grid, steps int) (EvolveResult, error) {
	current := grid
	currentKey := engine.Serialize(current)
	seen := map[string]int{currentKey: 0}

	var result EvolveResult
	for i := 1; i <= steps; i++ {
		if err := ctx.Err(); err != nil {
			return EvolveResult{}, err
		}

		next, err := engine.NextGeneration(current)
		if err != nil {
			return EvolveResult{}, err
		}
		nextKey := engine.Serialize(next)

		result = EvolveResult{Grid: next, Generations: i}
		switch first, repeated := seen[nextKey]; {
		case nextKey == currentKey:
			result.Conclusion = FixedPoint
		case next.Alive() == 0:
			result.Conclusion = Extinction
		case repeated:
			result.Conclusion = Cycle
			result.Period = i - first
		}
		if result.Concluded() {
			return result, nil
		}

		seen[nextKey] = i
		current, currentKey = next, nextKey
	}
	return result, nil
}
