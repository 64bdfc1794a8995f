package hho

import (
	"bytes"
	"context"
	"errors"
	"math/rand"
	"strings"
	"testing"

	"github.com/go-logr/logr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"flowShop/internal/flowshop"
	"flowShop/internal/rng"
)

func smallConfig() Config {
	cfg := DefaultConfig()
	cfg.PopulationSize = 10
	cfg.MaxIterations = 50
	return cfg
}

func newSolver(t *testing.T, cfg Config, seed int64) *Solver {
	t.Helper()
	s, err := New(cfg, rand.New(rand.NewSource(seed)))
	require.NoError(t, err)
	return s
}

func TestConfigValidate(t *testing.T) {
	require.NoError(t, DefaultConfig().Validate())

	tests := []struct {
		name   string
		mutate func(*Config)
		field  string
	}{
		{"population", func(c *Config) { c.PopulationSize = 0 }, "размер табуна"},
		{"iterations", func(c *Config) { c.MaxIterations = -1 }, "максимальное число итераций"},
		{"grazing zero", func(c *Config) { c.GrazingIntensity = 0 }, "интенсивность выпаса"},
		{"grazing high", func(c *Config) { c.GrazingIntensity = 1.5 }, "интенсивность выпаса"},
		{"roaming", func(c *Config) { c.RoamingRate = -0.1 }, "вероятность блуждания"},
		{"mutation", func(c *Config) { c.MutationRate = 1.1 }, "вероятность мутации"},
		{"stagnation", func(c *Config) { c.MaxStagnation = 0 }, "порог застоя"},
		{"elite freq", func(c *Config) { c.EliteImprovementFreq = 0 }, "частота улучшения элиты"},
		{"elite count", func(c *Config) { c.EliteCount = -1 }, "число элитных лошадей"},
		{"patience", func(c *Config) { c.TerminationPatience = 0 }, "терпение остановки"},
		{"init ratio", func(c *Config) { c.RandomInitRatio = 2 }, "доля случайной инициализации"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(&cfg)
			err := cfg.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.field)
			assert.Contains(t, err.Error(), "получено")
		})
	}

	cfg := DefaultConfig()
	cfg.EliteCount = 0
	cfg.RoamingRate = 0
	cfg.GrazingIntensity = 1
	assert.NoError(t, cfg.Validate())
	assert.Contains(t, cfg.String(), "Размер табуна: 30")
}

func TestNewErrors(t *testing.T) {
	_, err := New(DefaultConfig(), nil)
	assert.Error(t, err)

	bad := DefaultConfig()
	bad.PopulationSize = 0
	_, err = New(bad, rand.New(rand.NewSource(1)))
	assert.Error(t, err)
}

func TestResultsBeforeRun(t *testing.T) {
	s := newSolver(t, smallConfig(), 1)
	_, err := s.BestSolution()
	assert.ErrorIs(t, err, ErrNotInitialized)
	_, err = s.BestMakespan()
	assert.ErrorIs(t, err, ErrNotInitialized)
	assert.ErrorIs(t, s.WriteResults(&bytes.Buffer{}), ErrNotInitialized)
	assert.Nil(t, s.Herd())
}

func TestSeededRunNeverRegresses(t *testing.T) {
	inst := testInstance(t, 6, 4, 42)
	s := newSolver(t, smallConfig(), 42)

	// same seed, same initial herd as the solver builds
	initial, err := NewHerd(inst, 10, rng.New(42), logr.Discard())
	require.NoError(t, err)
	require.NoError(t, initial.Initialize(smallConfig().RandomInitRatio))
	initialBest := initial.Leader().BestMakespan()

	var history []int
	s.Observer = func(iteration int, best *flowshop.Solution, stats Statistics) {
		require.True(t, best.IsValid())
		require.Equal(t, iteration+1, stats.IterationsExecuted)
		history = append(history, best.Makespan())
	}

	best, err := s.Optimize(context.Background(), inst)
	require.NoError(t, err)
	require.True(t, best.IsValid())

	stats := s.Statistics()
	require.NotEmpty(t, history)
	require.Len(t, stats.BestMakespanHistory, stats.IterationsExecuted)
	require.LessOrEqual(t, stats.IterationsExecuted, 50)
	for i := 1; i < len(history); i++ {
		require.LessOrEqual(t, history[i], history[i-1])
	}
	assert.LessOrEqual(t, best.Makespan(), history[0])
	assert.LessOrEqual(t, best.Makespan(), initialBest)
	assert.Equal(t, history[len(history)-1], best.Makespan())

	ms, err := s.BestMakespan()
	require.NoError(t, err)
	assert.Equal(t, best.Makespan(), ms)

	ev, err := flowshop.NewEvaluator(inst)
	require.NoError(t, err)
	assert.Equal(t, ev.MustMakespan(best.Order()), best.Makespan())
}

func TestDiversityPreservation(t *testing.T) {
	inst := testInstance(t, 8, 3, 21)
	cfg := smallConfig()
	cfg.DiversityThreshold = 1
	cfg.AdaptiveParameters = false
	cfg.MaxStagnation = 2
	cfg.TerminationPatience = 1000
	s := newSolver(t, cfg, 21)

	_, err := s.Optimize(context.Background(), inst)
	require.NoError(t, err)

	stats := s.Statistics()
	assert.Equal(t, 50, stats.IterationsExecuted)
	// в табуне из 10 лошадей на 8 работах разнообразие всегда < 1,
	// поэтому восстановление выполняется на каждой итерации
	assert.GreaterOrEqual(t, stats.Replacements, 50*2)
	assert.Positive(t, stats.Rejuvenations)
	assert.LessOrEqual(t, stats.LeaderChanges, stats.IterationsExecuted)
	assert.Equal(t, 0.4, s.Parameters().MutationRate)
	assert.Equal(t, cfg.MutationRate, s.Cfg.MutationRate)
}

func TestFirstIterationReplacesWeakHorses(t *testing.T) {
	inst := testInstance(t, 8, 3, 22)
	cfg := smallConfig()
	cfg.MaxIterations = 1
	cfg.ReplacementRate = 0.3
	cfg.DiversityThreshold = 0
	cfg.MaxStagnation = 1000
	s := newSolver(t, cfg, 22)

	_, err := s.Optimize(context.Background(), inst)
	require.NoError(t, err)

	stats := s.Statistics()
	assert.Equal(t, 1, stats.IterationsExecuted)
	assert.Equal(t, 3, stats.Replacements)
	assert.Zero(t, stats.Rejuvenations)
}

func TestPhaseSchedule(t *testing.T) {
	inst := testInstance(t, 8, 3, 23)
	cfg := smallConfig()
	cfg.MaxIterations = 30
	cfg.ReplacementRate = 0.2
	cfg.DiversityThreshold = 0
	cfg.MaxStagnation = 3
	cfg.TerminationPatience = 1000
	s := newSolver(t, cfg, 23)

	var replacedAt, rejuvenatedAt []int
	prev := Statistics{}
	s.Observer = func(iteration int, _ *flowshop.Solution, stats Statistics) {
		if stats.Replacements > prev.Replacements {
			replacedAt = append(replacedAt, iteration)
		}
		if stats.Rejuvenations > prev.Rejuvenations {
			rejuvenatedAt = append(rejuvenatedAt, iteration)
		}
		prev = stats
	}
	_, err := s.Optimize(context.Background(), inst)
	require.NoError(t, err)

	assert.Equal(t, []int{0, 10, 20}, replacedAt)
	for _, it := range rejuvenatedAt {
		assert.Zero(t, it%cfg.MaxStagnation, "iteration %d", it)
	}
	assert.Equal(t, 3*2, s.Statistics().Replacements)
}

func TestRunIsReproducible(t *testing.T) {
	inst := testInstance(t, 7, 3, 11)
	a, err := newSolver(t, smallConfig(), 5).Optimize(context.Background(), inst)
	require.NoError(t, err)
	b, err := newSolver(t, smallConfig(), 5).Optimize(context.Background(), inst)
	require.NoError(t, err)
	assert.Equal(t, a.Order(), b.Order())
}

func TestTerminationPredicateOverrides(t *testing.T) {
	inst := testInstance(t, 5, 3, 2)
	cfg := smallConfig()
	cfg.TerminationPatience = 1
	s := newSolver(t, cfg, 2)

	calls := 0
	s.Terminate = func(iteration int, best *flowshop.Solution) bool {
		calls++
		require.NotNil(t, best)
		return iteration >= 4
	}
	_, err := s.Optimize(context.Background(), inst)
	require.NoError(t, err)
	assert.Equal(t, 5, s.Statistics().IterationsExecuted)
	assert.Equal(t, 5, calls)
}

func TestPatienceStopsEarly(t *testing.T) {
	inst := testInstance(t, 4, 2, 3)
	cfg := smallConfig()
	cfg.MaxIterations = 500
	cfg.TerminationPatience = 3
	s := newSolver(t, cfg, 3)

	_, err := s.Optimize(context.Background(), inst)
	require.NoError(t, err)
	assert.Less(t, s.Statistics().IterationsExecuted, 500)
}

func TestOptimizeToTarget(t *testing.T) {
	inst := testInstance(t, 6, 3, 4)
	s := newSolver(t, smallConfig(), 4)

	total := 0
	for _, v := range inst.ProcTimes {
		total += v
	}
	best, err := s.OptimizeToTarget(context.Background(), inst, total, 0)
	require.NoError(t, err)
	assert.LessOrEqual(t, best.Makespan(), total)
	assert.Equal(t, 1, s.Statistics().IterationsExecuted)

	// unreachable target runs to the iteration limit
	_, err = s.OptimizeToTarget(context.Background(), inst, 0, 7)
	require.NoError(t, err)
	assert.Equal(t, 7, s.Statistics().IterationsExecuted)
}

func TestOptimizeIterations(t *testing.T) {
	inst := testInstance(t, 5, 2, 6)
	cfg := smallConfig()
	cfg.TerminationPatience = 1000
	s := newSolver(t, cfg, 6)

	_, err := s.OptimizeIterations(context.Background(), inst, 12)
	require.NoError(t, err)
	assert.Equal(t, 12, s.Statistics().IterationsExecuted)

	_, err = s.OptimizeIterations(context.Background(), inst, 0)
	assert.Error(t, err)
}

func TestCancelledContext(t *testing.T) {
	inst := testInstance(t, 5, 2, 7)
	s := newSolver(t, smallConfig(), 7)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	best, err := s.Optimize(ctx, inst)
	assert.True(t, errors.Is(err, context.Canceled))
	require.NotNil(t, best)
	assert.True(t, best.IsValid())

	res, err := s.Solve(ctx, inst)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, "context", res.Meta["stopped"])
}

func TestSolveAdapter(t *testing.T) {
	inst := testInstance(t, 6, 3, 8)
	s := newSolver(t, smallConfig(), 8)

	res, err := s.Solve(context.Background(), inst)
	require.NoError(t, err)
	require.NoError(t, flowshop.ValidatePermutation(res.Permutation, inst.Jobs))
	ev, err := flowshop.NewEvaluator(inst)
	require.NoError(t, err)
	assert.Equal(t, ev.MustMakespan(res.Permutation), res.Makespan)
	assert.Equal(t, s.Statistics().IterationsExecuted, res.Iterations)
	assert.Equal(t, 10, res.Meta["population"])
}

func TestAdaptiveParametersDoNotTouchConfig(t *testing.T) {
	inst := testInstance(t, 6, 3, 9)
	cfg := smallConfig()
	s := newSolver(t, cfg, 9)

	_, err := s.Optimize(context.Background(), inst)
	require.NoError(t, err)
	assert.Equal(t, cfg, s.Cfg)
	assert.NotEqual(t, cfg, s.Parameters())

	s.Reset()
	assert.Equal(t, cfg, s.Parameters())
	assert.Zero(t, s.Statistics().IterationsExecuted)
	assert.Nil(t, s.Herd())
}

func TestAdaptParameters(t *testing.T) {
	p := DefaultConfig()
	adaptParameters(&p, 0.1, 0.5, 0)
	assert.InDelta(t, 0.33, p.RoamingRate, 1e-12)
	assert.InDelta(t, 0.33, p.ExplorationRate, 1e-12)
	assert.InDelta(t, 0.55, p.GrazingIntensity, 1e-12)
	assert.InDelta(t, 0.1, p.MutationRate, 1e-12)

	p = DefaultConfig()
	adaptParameters(&p, 0.9, 0.001, 11)
	assert.InDelta(t, 0.525, p.GrazingIntensity, 1e-12)
	assert.InDelta(t, 0.735, p.FollowingRate, 1e-12)
	assert.InDelta(t, 0.1*1.2*1.15, p.MutationRate, 1e-12)
	assert.InDelta(t, 0.11, p.ReplacementRate, 1e-12)

	p = DefaultConfig()
	p.RoamingRate = 0.49
	p.GrazingIntensity = 0.89
	p.MutationRate = 0.29
	adaptParameters(&p, 0, 0.5, 20)
	assert.Equal(t, 0.5, p.RoamingRate)
	assert.Equal(t, 0.9, p.GrazingIntensity)
	assert.Equal(t, 0.3, p.MutationRate)
}

func TestSetConfig(t *testing.T) {
	s := newSolver(t, smallConfig(), 10)
	_, err := s.Optimize(context.Background(), testInstance(t, 4, 2, 10))
	require.NoError(t, err)
	require.NotNil(t, s.Herd())

	cfg := smallConfig()
	cfg.PopulationSize = 12
	require.NoError(t, s.SetConfig(cfg))
	assert.Nil(t, s.Herd())
	assert.Equal(t, 12, s.Cfg.PopulationSize)

	cfg.MutationRate = 3
	assert.Error(t, s.SetConfig(cfg))
	assert.Equal(t, 0.1, s.Cfg.MutationRate)
}

func TestStatisticsOutput(t *testing.T) {
	inst := testInstance(t, 5, 3, 12)
	inst.Name = "demo"
	cfg := smallConfig()
	cfg.MaxIterations = 5
	s := newSolver(t, cfg, 12)
	_, err := s.Optimize(context.Background(), inst)
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, s.Statistics().WriteCSV(&buf))
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	assert.Equal(t, "Iteration,BestMakespan,Diversity,AverageFitness", lines[0])
	assert.Len(t, lines, s.Statistics().IterationsExecuted+1)
	assert.True(t, strings.HasPrefix(lines[1], "0,"))

	buf.Reset()
	require.NoError(t, s.WriteResults(&buf))
	assert.Contains(t, buf.String(), "demo")
	assert.Contains(t, buf.String(), " -> J")
	assert.Contains(t, s.Statistics().String(), "Выполнено итераций: 5")

	snap := s.Statistics()
	snap.BestMakespanHistory[0] = -1
	assert.NotEqual(t, -1, s.Statistics().BestMakespanHistory[0])
}
