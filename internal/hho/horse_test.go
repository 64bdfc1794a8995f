package hho

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"flowShop/internal/flowshop"
	"flowShop/internal/rng"
)

func testInstance(t *testing.T, jobs, machines int, seed int64) *flowshop.Instance {
	t.Helper()
	inst, err := flowshop.RandomInstance(jobs, machines, 1, 50, rng.New(seed))
	require.NoError(t, err)
	return inst
}

func randomHorse(t *testing.T, inst *flowshop.Instance, r *rng.Source) *Horse {
	t.Helper()
	s, err := flowshop.RandomSolution(inst, r)
	require.NoError(t, err)
	return NewHorse(s)
}

func TestFitness(t *testing.T) {
	assert.Equal(t, -42.0, fitness(42))
	assert.Equal(t, zeroMakespanFitness, fitness(0))
	assert.Greater(t, fitness(10), fitness(11))
}

func TestNewHorse(t *testing.T) {
	r := rng.New(1)
	inst := testInstance(t, 6, 3, 1)
	h := randomHorse(t, inst, r)

	assert.Equal(t, h.Makespan(), h.BestMakespan())
	assert.Equal(t, h.Fitness(), h.BestFitness())
	assert.Equal(t, 0.8, h.GrazingAbility())
	assert.Equal(t, 1.0, h.Stamina())
	assert.Zero(t, h.Age())
	assert.NotSame(t, h.Solution(), h.BestSolution())
}

func TestAgingFloors(t *testing.T) {
	r := rng.New(2)
	h := randomHorse(t, testInstance(t, 4, 2, 2), r)

	h.IncreaseAge()
	assert.Equal(t, 1.0, h.Age())
	assert.InDelta(t, 0.8*0.995, h.GrazingAbility(), 1e-12)
	assert.InDelta(t, 0.998, h.Stamina(), 1e-12)

	for i := 0; i < 5000; i++ {
		h.IncreaseAge()
	}
	assert.Equal(t, minAbility, h.GrazingAbility())
	assert.Equal(t, minAbility, h.Stamina())
}

func TestRejuvenate(t *testing.T) {
	r := rng.New(3)
	h := randomHorse(t, testInstance(t, 4, 2, 3), r)
	for i := 0; i < 100; i++ {
		h.IncreaseAge()
	}
	h.stagnation = 17
	order := h.Solution().Order()

	h.Rejuvenate(r)
	assert.Zero(t, h.Age())
	assert.Zero(t, h.Stagnation())
	assert.GreaterOrEqual(t, h.GrazingAbility(), 0.8)
	assert.LessOrEqual(t, h.GrazingAbility(), 1.0)
	assert.GreaterOrEqual(t, h.Stamina(), 0.8)
	assert.LessOrEqual(t, h.Stamina(), 1.0)
	assert.Equal(t, order, h.Solution().Order())
}

func TestStagnationTracking(t *testing.T) {
	inst, err := flowshop.FromMatrix([][]int{{1, 10}, {10, 1}}, "")
	require.NoError(t, err)
	worse, err := flowshop.NewSolutionFromOrder(inst, []int{1, 0})
	require.NoError(t, err)
	better, err := flowshop.NewSolutionFromOrder(inst, []int{0, 1})
	require.NoError(t, err)

	h := NewHorse(worse.Clone())
	h.SetSolution(worse.Clone())
	h.SetSolution(worse.Clone())
	assert.Equal(t, 2, h.Stagnation())
	assert.True(t, h.IsStagnant(2))
	assert.False(t, h.IsStagnant(3))

	h.SetSolution(better)
	assert.Zero(t, h.Stagnation())
	assert.Equal(t, 12, h.BestMakespan())

	h.SetSolution(worse.Clone())
	assert.Equal(t, 21, h.Makespan())
	assert.Equal(t, 12, h.BestMakespan())
	assert.Equal(t, 1, h.Stagnation())
}

func TestGrazeIntensityBounds(t *testing.T) {
	r := rng.New(4)
	h := randomHorse(t, testInstance(t, 5, 2, 4), r)
	for _, v := range []float64{0, -0.1, 1.01} {
		_, err := h.Graze(v, r)
		assert.Error(t, err, "intensity %v", v)
	}
	_, err := h.Graze(1, r)
	assert.NoError(t, err)
}

func TestGrazeNeverWorsensBest(t *testing.T) {
	r := rng.New(5)
	inst := testInstance(t, 8, 4, 5)
	for i := 0; i < 20; i++ {
		h := randomHorse(t, inst, r)
		before := h.BestMakespan()
		improved, err := h.Graze(1, r)
		require.NoError(t, err)
		if improved {
			assert.Less(t, h.BestMakespan(), before)
		} else {
			assert.Equal(t, before, h.BestMakespan())
		}
		assert.True(t, h.Solution().IsValid())
	}
}

func TestRoamLeavesHorseUntouched(t *testing.T) {
	r := rng.New(6)
	h := randomHorse(t, testInstance(t, 10, 3, 6), r)
	order := h.Solution().Order()

	s, err := h.Roam(1, r)
	require.NoError(t, err)
	assert.True(t, s.IsValid())
	assert.NotSame(t, h.Solution(), s)
	assert.Equal(t, order, h.Solution().Order())

	_, err = h.Roam(1.5, r)
	assert.Error(t, err)
}

func TestFollowAndMate(t *testing.T) {
	r := rng.New(7)
	inst := testInstance(t, 7, 3, 7)
	a := randomHorse(t, inst, r)
	b := randomHorse(t, inst, r)

	_, err := a.FollowLeader(nil, 0.5, r)
	assert.ErrorIs(t, err, ErrNotInitialized)
	_, err = a.FollowLeader(b, -1, r)
	assert.Error(t, err)

	for i := 0; i < 20; i++ {
		s, err := a.FollowLeader(b, 0.5, r)
		require.NoError(t, err)
		assert.True(t, s.IsValid())

		child, err := a.MateWith(b, 0.5, r)
		require.NoError(t, err)
		assert.True(t, child.IsValid())
		assert.NotSame(t, a.BestSolution(), child)
		assert.NotSame(t, b.BestSolution(), child)
	}

	// without crossover the child is a copy of one parent's best
	child, err := a.MateWith(b, 0, r)
	require.NoError(t, err)
	assert.True(t, child.Equal(a.BestSolution()) || child.Equal(b.BestSolution()))
}

func TestMutate(t *testing.T) {
	r := rng.New(8)
	h := randomHorse(t, testInstance(t, 6, 2, 8), r)
	order := h.Solution().Order()

	require.NoError(t, h.Mutate(0, r))
	assert.Equal(t, order, h.Solution().Order())
	assert.Zero(t, h.Stagnation())

	require.NoError(t, h.Mutate(1, r))
	assert.True(t, h.Solution().IsValid())
	assert.GreaterOrEqual(t, h.Makespan(), h.BestMakespan())

	assert.Error(t, h.Mutate(2, r))
}

func TestHorseClone(t *testing.T) {
	r := rng.New(9)
	h := randomHorse(t, testInstance(t, 5, 2, 9), r)
	c := h.Clone()
	require.NoError(t, c.Solution().SwapPositions(0, 4))
	assert.NotEqual(t, h.Solution().Order(), c.Solution().Order())
	assert.Contains(t, h.String(), "makespan=")
}
