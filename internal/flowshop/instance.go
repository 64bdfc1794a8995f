package flowshop

import (
	"errors"
	"fmt"

	"flowShop/internal/rng"
)

// ErrOutOfRange is returned for job, machine or position indices outside the instance.
var ErrOutOfRange = errors.New("flowshop: index out of range")

type Instance struct {
	Name     string
	Jobs     int
	Machines int
	// ProcTimes length must be Jobs*Machines.
	ProcTimes []int
}

func NewInstance(jobs, machines int, procTimes []int) (*Instance, error) {
	inst := &Instance{Jobs: jobs, Machines: machines, ProcTimes: procTimes}
	if err := inst.Validate(); err != nil {
		return nil, err
	}
	return inst, nil
}

// FromMatrix builds an instance from rows[job][machine].
func FromMatrix(rows [][]int, name string) (*Instance, error) {
	if len(rows) == 0 {
		return nil, errors.New("processing time matrix is empty")
	}
	machines := len(rows[0])
	pt := make([]int, 0, len(rows)*machines)
	for j, row := range rows {
		if len(row) != machines {
			return nil, fmt.Errorf("row %d has %d machines (want %d)", j, len(row), machines)
		}
		pt = append(pt, row...)
	}
	inst, err := NewInstance(len(rows), machines, pt)
	if err != nil {
		return nil, err
	}
	inst.Name = name
	return inst, nil
}

func (inst *Instance) Validate() error {
	if inst == nil {
		return errors.New("instance is nil")
	}
	if inst.Jobs <= 0 {
		return fmt.Errorf("jobs must be > 0 (got %d)", inst.Jobs)
	}
	if inst.Machines <= 0 {
		return fmt.Errorf("machines must be > 0 (got %d)", inst.Machines)
	}
	if len(inst.ProcTimes) != inst.Jobs*inst.Machines {
		return fmt.Errorf("procTimes length must be jobs*machines=%d (got %d)", inst.Jobs*inst.Machines, len(inst.ProcTimes))
	}
	for i, v := range inst.ProcTimes {
		if v < 0 {
			return fmt.Errorf("procTimes[%d] must be >= 0 (got %d)", i, v)
		}
	}
	return nil
}

// Time is the unchecked accessor used in hot loops.
func (inst *Instance) Time(job, machine int) int {
	return inst.ProcTimes[job*inst.Machines+machine]
}

// ProcessingTime is the bounds-checked variant of Time.
func (inst *Instance) ProcessingTime(job, machine int) (int, error) {
	if job < 0 || job >= inst.Jobs || machine < 0 || machine >= inst.Machines {
		return 0, fmt.Errorf("%w: job %d, machine %d (instance %dx%d)", ErrOutOfRange, job, machine, inst.Jobs, inst.Machines)
	}
	return inst.Time(job, machine), nil
}

// TotalTime returns the sum of processing times of job over all machines.
func (inst *Instance) TotalTime(job int) int {
	sum := 0
	for m := 0; m < inst.Machines; m++ {
		sum += inst.Time(job, m)
	}
	return sum
}

// Matrix returns a copy of the processing times as rows[job][machine].
func (inst *Instance) Matrix() [][]int {
	rows := make([][]int, inst.Jobs)
	for j := range rows {
		rows[j] = make([]int, inst.Machines)
		copy(rows[j], inst.ProcTimes[j*inst.Machines:(j+1)*inst.Machines])
	}
	return rows
}

func RandomInstance(jobs, machines, minTime, maxTime int, r *rng.Source) (*Instance, error) {
	if r == nil {
		return nil, errors.New("random source is nil")
	}
	if jobs <= 0 || machines <= 0 {
		return nil, fmt.Errorf("invalid dimensions %dx%d", jobs, machines)
	}
	if minTime < 0 || maxTime < minTime {
		return nil, fmt.Errorf("invalid time bounds [%d, %d]", minTime, maxTime)
	}
	pt := make([]int, jobs*machines)
	for i := range pt {
		pt[i] = r.IntRange(minTime, maxTime)
	}
	inst, err := NewInstance(jobs, machines, pt)
	if err != nil {
		return nil, err
	}
	inst.Name = fmt.Sprintf("Random_%dx%d", jobs, machines)
	return inst, nil
}
