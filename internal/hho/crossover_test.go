package hho

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"

	"flowShop/internal/flowshop"
	"flowShop/internal/rng"
)

func TestOrderCrossoverFixedCuts(t *testing.T) {
	got := orderCrossoverAt([]int{0, 1, 2, 3}, []int{3, 2, 1, 0}, 1, 2)
	if diff := cmp.Diff([]int{3, 1, 2, 0}, got); diff != "" {
		t.Fatalf("OX mismatch (-want +got):\n%s", diff)
	}
}

func TestOrderCrossoverWholeSegment(t *testing.T) {
	got := orderCrossoverAt([]int{2, 0, 1}, []int{1, 2, 0}, 0, 2)
	require.Equal(t, []int{2, 0, 1}, got)
}

func TestCrossoverProducesPermutations(t *testing.T) {
	r := rng.New(99)
	for n := 1; n <= 12; n++ {
		inst, err := flowshop.RandomInstance(n, 3, 1, 20, r)
		require.NoError(t, err)
		for trial := 0; trial < 30; trial++ {
			a, err := flowshop.RandomSolution(inst, r)
			require.NoError(t, err)
			b, err := flowshop.RandomSolution(inst, r)
			require.NoError(t, err)
			aOrder, bOrder := a.Order(), b.Order()

			for _, op := range []Crossover{OrderCrossover, MappedCrossover} {
				child := op.Apply(a, b, r)
				require.True(t, child.IsValid(), "%s n=%d child=%v", op, n, child.Order())
				require.Equal(t, n, child.Len())
			}
			require.Equal(t, aOrder, a.Order())
			require.Equal(t, bOrder, b.Order())
		}
	}
}

func TestMappedCrossoverStaysClose(t *testing.T) {
	r := rng.New(4)
	inst, err := flowshop.RandomInstance(10, 2, 1, 9, r)
	require.NoError(t, err)
	a, err := flowshop.RandomSolution(inst, r)
	require.NoError(t, err)
	b, err := flowshop.RandomSolution(inst, r)
	require.NoError(t, err)

	for i := 0; i < 50; i++ {
		child := MappedCrossover.Apply(a, b, r)
		// at most three swaps, each touching two positions
		require.LessOrEqual(t, child.DistanceTo(a), 6)
	}
}

func TestCrossoverString(t *testing.T) {
	require.Equal(t, "OX", OrderCrossover.String())
	require.Equal(t, "mapped", MappedCrossover.String())
	require.Equal(t, "Crossover(7)", Crossover(7).String())
}
