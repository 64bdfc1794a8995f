package flowshop

import "fmt"

type Evaluator struct {
	inst              *Instance
	machineCompletion []int
}

func NewEvaluator(inst *Instance) (*Evaluator, error) {
	if err := inst.Validate(); err != nil {
		return nil, err
	}
	return &Evaluator{inst: inst, machineCompletion: make([]int, inst.Machines)}, nil
}

func (e *Evaluator) Makespan(perm []int) (int, error) {
	if e == nil || e.inst == nil {
		return 0, fmt.Errorf("nil evaluator")
	}
	if err := ValidatePermutation(perm, e.inst.Jobs); err != nil {
		return 0, err
	}

	for m := range e.machineCompletion {
		e.machineCompletion[m] = 0
	}

	for _, job := range perm {
		e.machineCompletion[0] += e.inst.Time(job, 0)
		for m := 1; m < e.inst.Machines; m++ {
			left := e.machineCompletion[m-1]
			up := e.machineCompletion[m]
			if left > up {
				e.machineCompletion[m] = left + e.inst.Time(job, m)
			} else {
				e.machineCompletion[m] = up + e.inst.Time(job, m)
			}
		}
	}
	return e.machineCompletion[e.inst.Machines-1], nil
}

func (e *Evaluator) MustMakespan(perm []int) int {
	ms, err := e.Makespan(perm)
	if err != nil {
		panic(err)
	}
	return ms
}

// fillCompletion computes the full completion-time matrix
// c[p*Machines+k] for the job sequence order and returns the makespan.
// len(c) must be len(order)*inst.Machines; job ids must be in range.
func fillCompletion(inst *Instance, order []int, c []int) int {
	m := inst.Machines
	for p, job := range order {
		row := p * m
		for k := 0; k < m; k++ {
			ready := 0
			if p > 0 {
				ready = c[row-m+k]
			}
			if k > 0 && c[row+k-1] > ready {
				ready = c[row+k-1]
			}
			c[row+k] = ready + inst.Time(job, k)
		}
	}
	if len(order) == 0 {
		return 0
	}
	return c[len(c)-1]
}
