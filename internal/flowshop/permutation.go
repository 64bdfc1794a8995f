package flowshop

import (
	"errors"
	"fmt"
)

// ErrNotPermutation reports a job sequence with a wrong length or repeated jobs.
var ErrNotPermutation = errors.New("flowshop: not a permutation")

func ValidatePermutation(perm []int, n int) error {
	if len(perm) != n {
		return fmt.Errorf("%w: length must be %d (got %d)", ErrNotPermutation, n, len(perm))
	}
	seen := make([]bool, n)
	for i, v := range perm {
		if v < 0 || v >= n {
			return fmt.Errorf("%w: perm[%d]=%d not in [0,%d)", ErrOutOfRange, i, v, n)
		}
		if seen[v] {
			return fmt.Errorf("%w: duplicate job id %d", ErrNotPermutation, v)
		}
		seen[v] = true
	}
	return nil
}

// Identity returns [0, 1, ..., n-1].
func Identity(n int) []int {
	p := make([]int, n)
	for i := range p {
		p[i] = i
	}
	return p
}

// moveJob removes the element at from and reinserts it so that it ends up
// at index to of the resulting slice.
func moveJob(p []int, from, to int) {
	if from == to {
		return
	}
	val := p[from]
	if from < to {
		copy(p[from:to], p[from+1:to+1])
	} else {
		copy(p[to+1:from+1], p[to:from])
	}
	p[to] = val
}
