package bench

import (
	"context"
	"time"

	"flowShop/internal/flowshop"
	"flowShop/internal/opt"
)

// LocalSearch is the reference optimizer for comparisons: the greedy order
// improved by first-improvement insertion and pairwise-exchange moves until
// neither neighborhood yields a shorter makespan.
type LocalSearch struct {
	// MaxRounds bounds the number of improving moves; 0 means unbounded.
	MaxRounds int
}

func (ls LocalSearch) Solve(ctx context.Context, inst *flowshop.Instance) (opt.Result, error) {
	start := time.Now()
	s, err := flowshop.GreedySolution(inst)
	if err != nil {
		return opt.Result{}, err
	}

	rounds := 0
	var ctxErr error
	for ls.MaxRounds == 0 || rounds < ls.MaxRounds {
		if ctxErr = ctx.Err(); ctxErr != nil {
			break
		}
		if !s.InsertionSearch() && !s.TwoOptSearch() {
			break
		}
		rounds++
	}

	res := opt.Result{
		Permutation: s.Order(),
		Makespan:    s.Makespan(),
		Iterations:  rounds,
		Duration:    time.Since(start),
		Meta:        map[string]any{"start": "greedy"},
	}
	if ctxErr != nil {
		res.Meta["stopped"] = "context"
	}
	return res, ctxErr
}
