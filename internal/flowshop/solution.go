package flowshop

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"strings"

	"flowShop/internal/rng"
)

type cacheState uint8

const (
	cacheStale cacheState = iota
	cacheFresh
)

// Solution is a job sequence over an instance together with its lazily
// computed completion-time matrix. Every mutating method marks the cache stale.
type Solution struct {
	inst  *Instance
	order []int

	state      cacheState
	completion []int // completion[p*Machines+k]
	makespan   int
}

// NewSolution returns the identity order [0..n-1].
func NewSolution(inst *Instance) (*Solution, error) {
	if err := inst.Validate(); err != nil {
		return nil, err
	}
	return &Solution{inst: inst, order: Identity(inst.Jobs)}, nil
}

// NewSolutionFromOrder copies order into a new solution. Every job id must be
// in range; repeated ids are accepted and reported by IsValid.
func NewSolutionFromOrder(inst *Instance, order []int) (*Solution, error) {
	if err := inst.Validate(); err != nil {
		return nil, err
	}
	if err := checkSequence(inst, order); err != nil {
		return nil, err
	}
	o := make([]int, len(order))
	copy(o, order)
	return &Solution{inst: inst, order: o}, nil
}

// RandomSolution returns a uniformly random permutation.
func RandomSolution(inst *Instance, r *rng.Source) (*Solution, error) {
	if r == nil {
		return nil, errors.New("random source is nil")
	}
	if err := inst.Validate(); err != nil {
		return nil, err
	}
	return &Solution{inst: inst, order: r.Perm(inst.Jobs)}, nil
}

// GreedySolution orders jobs by ascending total processing time (ties by job id).
func GreedySolution(inst *Instance) (*Solution, error) {
	s, err := NewSolution(inst)
	if err != nil {
		return nil, err
	}
	totals := make([]int, inst.Jobs)
	for j := range totals {
		totals[j] = inst.TotalTime(j)
	}
	sort.SliceStable(s.order, func(a, b int) bool {
		return totals[s.order[a]] < totals[s.order[b]]
	})
	return s, nil
}

func checkSequence(inst *Instance, order []int) error {
	if len(order) != inst.Jobs {
		return fmt.Errorf("%w: sequence length %d does not match %d jobs", ErrNotPermutation, len(order), inst.Jobs)
	}
	for i, v := range order {
		if v < 0 || v >= inst.Jobs {
			return fmt.Errorf("%w: job %d at position %d", ErrOutOfRange, v, i)
		}
	}
	return nil
}

// Clone returns an independent copy, including a fresh cache if present.
func (s *Solution) Clone() *Solution {
	c := &Solution{
		inst:     s.inst,
		order:    make([]int, len(s.order)),
		state:    s.state,
		makespan: s.makespan,
	}
	copy(c.order, s.order)
	if s.state == cacheFresh {
		c.completion = make([]int, len(s.completion))
		copy(c.completion, s.completion)
	}
	return c
}

func (s *Solution) Instance() *Instance { return s.inst }

func (s *Solution) Len() int { return len(s.order) }

// Order returns a copy of the job sequence.
func (s *Solution) Order() []int {
	o := make([]int, len(s.order))
	copy(o, s.order)
	return o
}

func (s *Solution) checkPos(p int) error {
	if p < 0 || p >= len(s.order) {
		return fmt.Errorf("%w: position %d not in [0,%d)", ErrOutOfRange, p, len(s.order))
	}
	return nil
}

func (s *Solution) JobAt(p int) (int, error) {
	if err := s.checkPos(p); err != nil {
		return 0, err
	}
	return s.order[p], nil
}

func (s *Solution) SetJobAt(p, job int) error {
	if err := s.checkPos(p); err != nil {
		return err
	}
	if job < 0 || job >= s.inst.Jobs {
		return fmt.Errorf("%w: job %d not in [0,%d)", ErrOutOfRange, job, s.inst.Jobs)
	}
	s.order[p] = job
	s.invalidate()
	return nil
}

func (s *Solution) SetJobSequence(seq []int) error {
	if err := checkSequence(s.inst, seq); err != nil {
		return err
	}
	copy(s.order, seq)
	s.invalidate()
	return nil
}

func (s *Solution) SwapPositions(i, j int) error {
	if err := s.checkPos(i); err != nil {
		return err
	}
	if err := s.checkPos(j); err != nil {
		return err
	}
	s.order[i], s.order[j] = s.order[j], s.order[i]
	s.invalidate()
	return nil
}

// Move relocates the job at position from so that it ends up at position to.
func (s *Solution) Move(from, to int) error {
	if err := s.checkPos(from); err != nil {
		return err
	}
	if err := s.checkPos(to); err != nil {
		return err
	}
	if from != to {
		moveJob(s.order, from, to)
		s.invalidate()
	}
	return nil
}

func (s *Solution) invalidate() {
	s.state = cacheStale
}

func (s *Solution) evaluate() {
	if s.state == cacheFresh {
		return
	}
	size := len(s.order) * s.inst.Machines
	if cap(s.completion) < size {
		s.completion = make([]int, size)
	}
	s.completion = s.completion[:size]
	s.makespan = fillCompletion(s.inst, s.order, s.completion)
	s.state = cacheFresh
}

// Makespan is the completion time of the last job on the last machine.
func (s *Solution) Makespan() int {
	s.evaluate()
	return s.makespan
}

func (s *Solution) CompletionTime(p, machine int) (int, error) {
	if err := s.checkPos(p); err != nil {
		return 0, err
	}
	if machine < 0 || machine >= s.inst.Machines {
		return 0, fmt.Errorf("%w: machine %d not in [0,%d)", ErrOutOfRange, machine, s.inst.Machines)
	}
	s.evaluate()
	return s.completion[p*s.inst.Machines+machine], nil
}

// CompletionTimes returns a copy of the matrix indexed [position][machine].
func (s *Solution) CompletionTimes() [][]int {
	s.evaluate()
	m := s.inst.Machines
	rows := make([][]int, len(s.order))
	for p := range rows {
		rows[p] = make([]int, m)
		copy(rows[p], s.completion[p*m:(p+1)*m])
	}
	return rows
}

func (s *Solution) IsValid() bool {
	return ValidatePermutation(s.order, s.inst.Jobs) == nil
}

// TwoOptSearch tries every pairwise exchange i<j and keeps the first one
// that lowers the makespan.
func (s *Solution) TwoOptSearch() bool {
	current := s.Makespan()
	n := len(s.order)
	for i := 0; i < n-1; i++ {
		for j := i + 1; j < n; j++ {
			s.order[i], s.order[j] = s.order[j], s.order[i]
			s.invalidate()
			if s.Makespan() < current {
				return true
			}
			s.order[i], s.order[j] = s.order[j], s.order[i]
			s.invalidate()
		}
	}
	return false
}

// InsertionSearch tries removing every job and reinserting it at every other
// position; the first makespan reduction is kept.
func (s *Solution) InsertionSearch() bool {
	current := s.Makespan()
	n := len(s.order)
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			if i == j {
				continue
			}
			to := j
			if j > i {
				to = j - 1
			}
			if to == i {
				continue
			}
			moveJob(s.order, i, to)
			s.invalidate()
			if s.Makespan() < current {
				return true
			}
			moveJob(s.order, to, i)
			s.invalidate()
		}
	}
	return false
}

// SwapNeighbor returns a copy with two random positions exchanged.
// Both positions may coincide.
func (s *Solution) SwapNeighbor(r *rng.Source) *Solution {
	nb := s.Clone()
	n := len(nb.order)
	i := r.IntRange(0, n-1)
	j := r.IntRange(0, n-1)
	if i != j {
		nb.order[i], nb.order[j] = nb.order[j], nb.order[i]
		nb.invalidate()
	}
	return nb
}

// InsertNeighbor returns a copy where a random job is removed and reinserted
// before the job that was at a second random position.
func (s *Solution) InsertNeighbor(r *rng.Source) *Solution {
	nb := s.Clone()
	n := len(nb.order)
	from := r.IntRange(0, n-1)
	to := r.IntRange(0, n-1)
	if from != to {
		if to > from {
			to--
		}
		if from != to {
			moveJob(nb.order, from, to)
			nb.invalidate()
		}
	}
	return nb
}

// DistanceTo counts positions holding different jobs. Sequences of different
// lengths are maximally distant.
func (s *Solution) DistanceTo(other *Solution) int {
	if len(s.order) != len(other.order) {
		return math.MaxInt
	}
	d := 0
	for i, v := range s.order {
		if v != other.order[i] {
			d++
		}
	}
	return d
}

// Equal reports whether both sequences are identical.
func (s *Solution) Equal(other *Solution) bool {
	return s.DistanceTo(other) == 0
}

// String renders the sequence as "J1 -> J3 -> J2" (1-based job numbers).
func (s *Solution) String() string {
	var b strings.Builder
	for i, j := range s.order {
		if i > 0 {
			b.WriteString(" -> ")
		}
		fmt.Fprintf(&b, "J%d", j+1)
	}
	return b.String()
}

// FormatCompletionTimes renders the completion-time table, one row per position.
func (s *Solution) FormatCompletionTimes() string {
	s.evaluate()
	var b strings.Builder
	fmt.Fprintf(&b, "%8s", "Position")
	for k := 0; k < s.inst.Machines; k++ {
		fmt.Fprintf(&b, "%8s", fmt.Sprintf("M%d", k+1))
	}
	b.WriteByte('\n')
	for p, job := range s.order {
		fmt.Fprintf(&b, "%8s", fmt.Sprintf("J%d", job+1))
		for k := 0; k < s.inst.Machines; k++ {
			fmt.Fprintf(&b, "%8d", s.completion[p*s.inst.Machines+k])
		}
		b.WriteByte('\n')
	}
	return b.String()
}
