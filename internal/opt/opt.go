package opt

import (
	"context"
	"time"

	"flowShop/internal/flowshop"
)

// Optimizer — общий контракт эвристик для стенда сравнения.
type Optimizer interface {
	Solve(ctx context.Context, inst *flowshop.Instance) (Result, error)
}

type Result struct {
	Permutation []int
	Makespan    int
	Iterations  int
	Duration    time.Duration
	Meta        map[string]any
}
