package simulation

import (
	"context"
	"errors"
	"testing"
)

func TestEvolve(t *testing.T) {
	tests := []struct {
		name        string
		grid        func(*testing.T) [][]int
		steps       int
		conclusion  Conclusion
		generations int
		period      int
	}{
		{
			name:        "blinker cycles after two generations",
			grid:        func(t *testing.T) [][]int { return blinker(t) },
			steps:       2,
			conclusion:  Cycle,
			generations: 2,
			period:      2,
		},
		{
			name:        "blinker stops at the cycle even with steps left",
			grid:        func(t *testing.T) [][]int { return blinker(t) },
			steps:       100,
			conclusion:  Cycle,
			generations: 2,
			period:      2,
		},
		{
			name:        "blinker with one step does not conclude",
			grid:        func(t *testing.T) [][]int { return blinker(t) },
			steps:       1,
			conclusion:  NotConcluded,
			generations: 1,
		},
		{
			name:        "block is a fixed point",
			grid:        func(t *testing.T) [][]int { return block(t) },
			steps:       10,
			conclusion:  FixedPoint,
			generations: 1,
		},
		{
			name:        "lone cell dies out",
			grid:        func(t *testing.T) [][]int { return layout(t, "...", ".#.", "...") },
			steps:       5,
			conclusion:  Extinction,
			generations: 1,
		},
		{
			name:        "r-pentomino does not settle in one step",
			grid:        func(t *testing.T) [][]int { return rPentomino(t) },
			steps:       1,
			conclusion:  NotConcluded,
			generations: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := Evolve(context.Background(), tt.grid(t), tt.steps)
			if err != nil {
				t.Fatalf("Evolve failed: %v", err)
			}
			if result.Conclusion != tt.conclusion {
				t.Errorf("Expected conclusion %s, got %s", tt.conclusion, result.Conclusion)
			}
			if result.Generations != tt.generations {
				t.Errorf("Expected %d generations, got %d", tt.generations, result.Generations)
			}
			if result.Period != tt.period {
				t.Errorf("Expected period %d, got %d", tt.period, result.Period)
			}
		})
	}
}

func TestEvolve_BlinkerReturnsToStart(t *testing.T) {
	start := blinker(t)
	result, err := Evolve(context.Background(), start, 2)
	if err != nil {
		t.Fatalf("Evolve failed: %v", err)
	}
	if !result.Grid.Equal(start) {
		t.Errorf("Expected original blinker, got\n%s", result.Grid)
	}
}

func TestEvolve_DoesNotMutateInput(t *testing.T) {
	start := blinker(t)
	before := start.Clone()

	if _, err := Evolve(context.Background(), start, 3); err != nil {
		t.Fatalf("Evolve failed: %v", err)
	}
	if !start.Equal(before) {
		t.Error("Evolve modified its input grid")
	}
}

func TestEvolve_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := Evolve(ctx, rPentomino(t), 50)
	if !errors.Is(err, context.Canceled) {
		t.Errorf("Expected context.Canceled, got %v", err)
	}
}

func TestEvolve_InvalidGrid(t *testing.T) {
	_, err := Evolve(context.Background(), [][]int{}, 3)
	if err == nil {
		t.Error("Expected error for empty grid")
	}
}
