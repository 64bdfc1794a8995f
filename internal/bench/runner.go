package bench

import (
	"context"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/go-logr/logr"
	gocache "github.com/patrickmn/go-cache"

	"flowShop/internal/flowshop"
	"flowShop/internal/opt"
	"flowShop/internal/rng"
)

type Algorithm struct {
	Name    string
	Factory func(seed int64) (opt.Optimizer, error)
}

type Case struct {
	Jobs         int
	Machines     int
	InstanceSeed int64
}

func (c Case) key() string {
	return fmt.Sprintf("%dx%d#%d", c.Jobs, c.Machines, c.InstanceSeed)
}

type Record struct {
	Algo     string
	Jobs     int
	Machines int
	Runs     int

	TimeBestMs float64
	TimeMeanMs float64
	TimeStdMs  float64

	MakespanBest int
	MakespanMean float64
	MakespanStd  float64

	IterationsMean float64
}

type Runner struct {
	Runs          int
	BaseSeed      int64
	PerRunTimeout time.Duration // 0 = no timeout
	Log           logr.Logger

	instances *gocache.Cache
}

func NewRunner(runs int, baseSeed int64, perRunTimeout time.Duration) *Runner {
	return &Runner{
		Runs:          runs,
		BaseSeed:      baseSeed,
		PerRunTimeout: perRunTimeout,
		Log:           logr.Discard(),
		instances:     gocache.New(gocache.NoExpiration, 0),
	}
}

// Instance returns the generated instance of c. Every algorithm run on the
// same case shares one instance.
func (r *Runner) Instance(c Case) (*flowshop.Instance, error) {
	if r.instances == nil {
		r.instances = gocache.New(gocache.NoExpiration, 0)
	}
	if v, ok := r.instances.Get(c.key()); ok {
		return v.(*flowshop.Instance), nil
	}
	inst, err := flowshop.RandomInstance(c.Jobs, c.Machines, 1, 99, rng.New(c.InstanceSeed))
	if err != nil {
		return nil, err
	}
	r.instances.Set(c.key(), inst, gocache.NoExpiration)
	return inst, nil
}

func (r *Runner) RunCase(ctx context.Context, c Case, algo Algorithm) (Record, error) {
	inst, err := r.Instance(c)
	if err != nil {
		return Record{}, err
	}
	eval, err := flowshop.NewEvaluator(inst)
	if err != nil {
		return Record{}, err
	}

	makespans := make([]int, 0, r.Runs)
	timesMs := make([]float64, 0, r.Runs)
	iterations := make([]float64, 0, r.Runs)

	for i := 0; i < r.Runs; i++ {
		runSeed := r.BaseSeed + int64(i)

		op, err := algo.Factory(runSeed)
		if err != nil {
			return Record{}, fmt.Errorf("run %d: %w", i, err)
		}

		runCtx := ctx
		cancel := func() {}
		if r.PerRunTimeout > 0 {
			runCtx, cancel = context.WithTimeout(ctx, r.PerRunTimeout)
		}
		start := time.Now()
		res, err := op.Solve(runCtx, inst)
		dur := time.Since(start)
		cancel()

		if err != nil && runCtx.Err() != nil {
			return Record{}, fmt.Errorf("run %d: cancelled/timeout: %w", i, err)
		}
		if err != nil {
			return Record{}, fmt.Errorf("run %d: solve error: %w", i, err)
		}
		ms, err := eval.Makespan(res.Permutation)
		if err != nil {
			return Record{}, fmt.Errorf("run %d: invalid permutation: %w", i, err)
		}
		if ms != res.Makespan {
			return Record{}, fmt.Errorf("run %d: reported makespan %d, evaluated %d", i, res.Makespan, ms)
		}

		r.Log.V(2).Info("run finished", "algo", algo.Name, "run", i, "makespan", ms, "duration", dur)
		makespans = append(makespans, res.Makespan)
		timesMs = append(timesMs, float64(dur.Microseconds())/1000.0)
		iterations = append(iterations, float64(res.Iterations))
	}

	msStats := CalcIntStats(makespans)
	tStats := CalcFloatStats(timesMs)
	itStats := CalcFloatStats(iterations)

	return Record{
		Algo:     algo.Name,
		Jobs:     c.Jobs,
		Machines: c.Machines,
		Runs:     r.Runs,

		TimeBestMs: tStats.Best,
		TimeMeanMs: tStats.Mean,
		TimeStdMs:  tStats.Std,

		MakespanBest: msStats.Best,
		MakespanMean: msStats.Mean,
		MakespanStd:  msStats.Std,

		IterationsMean: itStats.Mean,
	}, nil
}

var csvHeader = []string{
	"algo", "jobs", "machines", "runs",
	"time_best_ms", "time_mean_ms", "time_std_ms",
	"makespan_best", "makespan_mean", "makespan_std",
	"iterations_mean",
}

func (r Record) row() []string {
	f := func(v float64) string { return strconv.FormatFloat(v, 'f', 6, 64) }
	return []string{
		r.Algo, strconv.Itoa(r.Jobs), strconv.Itoa(r.Machines), strconv.Itoa(r.Runs),
		f(r.TimeBestMs), f(r.TimeMeanMs), f(r.TimeStdMs),
		strconv.Itoa(r.MakespanBest), f(r.MakespanMean), f(r.MakespanStd),
		f(r.IterationsMean),
	}
}

// WriteCSV writes one row per record, creating the parent directory if needed.
func WriteCSV(path string, records []Record) error {
	if d := filepath.Dir(path); d != "." {
		if err := os.MkdirAll(d, 0o755); err != nil {
			return err
		}
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	rows := make([][]string, 0, len(records)+1)
	rows = append(rows, csvHeader)
	for _, r := range records {
		rows = append(rows, r.row())
	}
	if err := w.WriteAll(rows); err != nil {
		return err
	}
	return f.Close()
}
