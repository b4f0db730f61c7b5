package solver

import "fmt"

// Skills is a bitset of skill identifiers (at most 64 distinct skills
// per problem).
type Skills uint64

// SupersetOf reports whether s covers every skill in o.
func (s Skills) SupersetOf(o Skills) bool {
	return o&^s == 0
}

func (s Skills) Union(o Skills) Skills {
	return s | o
}

// TimeWindow is a closed interval of service start times.
type TimeWindow struct {
	Start Cost
	End   Cost
}

func (tw TimeWindow) Contains(t Cost) bool {
	return tw.Start <= t && t <= tw.End
}

// Job is a single service to perform. TWs must be sorted and disjoint.
type Job struct {
	ID       string
	Location int
	Service  Cost
	Amount   Amount
	TWs      []TimeWindow
	Skills   Skills
}

// earliestStart returns the smallest feasible service start >= arrival,
// or ok=false when every window is already closed.
func (j *Job) earliestStart(arrival Cost) (Cost, bool) {
	for _, tw := range j.TWs {
		if arrival <= tw.End {
			if arrival < tw.Start {
				return tw.Start, true
			}
			return arrival, true
		}
	}
	return 0, false
}

// latestStart returns the largest feasible service start <= deadline,
// or ok=false when every window opens too late.
func (j *Job) latestStart(deadline Cost) (Cost, bool) {
	for i := len(j.TWs) - 1; i >= 0; i-- {
		tw := j.TWs[i]
		if tw.Start <= deadline {
			if deadline > tw.End {
				return tw.End, true
			}
			return deadline, true
		}
	}
	return 0, false
}

// Vehicle serves one route. Start and End are optional matrix locations.
type Vehicle struct {
	ID        string
	Start     *int
	End       *int
	Capacity  Amount
	TW        TimeWindow
	Skills    Skills
	FixedCost Cost
}

// Input is the immutable problem handle shared by the engine, the
// operators and the heuristics.
type Input struct {
	Jobs     []Job
	Vehicles []Vehicle
	Matrix   Matrix
	Dim      int // amount dimension

	amountLowerBound       Amount
	doubleAmountLowerBound Amount
}

// NewInput validates dimensions and precomputes the component-wise job
// amount lower bounds used by the Relocate and Or-Opt pruning.
func NewInput(jobs []Job, vehicles []Vehicle, m Matrix, dim int) (*Input, error) {
	if len(vehicles) == 0 {
		return nil, fmt.Errorf("input: no vehicles")
	}
	for i := range jobs {
		if len(jobs[i].Amount) != dim {
			return nil, fmt.Errorf("input: job %s amount dimension %d, want %d", jobs[i].ID, len(jobs[i].Amount), dim)
		}
		if len(jobs[i].TWs) == 0 {
			return nil, fmt.Errorf("input: job %s has no time window", jobs[i].ID)
		}
		if jobs[i].Location < 0 || jobs[i].Location >= m.Size() {
			return nil, fmt.Errorf("input: job %s location %d out of matrix range", jobs[i].ID, jobs[i].Location)
		}
	}
	for i := range vehicles {
		if len(vehicles[i].Capacity) != dim {
			return nil, fmt.Errorf("input: vehicle %s capacity dimension %d, want %d", vehicles[i].ID, len(vehicles[i].Capacity), dim)
		}
		if vehicles[i].Start == nil && vehicles[i].End == nil {
			return nil, fmt.Errorf("input: vehicle %s has neither start nor end", vehicles[i].ID)
		}
	}
	in := &Input{Jobs: jobs, Vehicles: vehicles, Matrix: m, Dim: dim}
	lb := NewAmount(dim)
	if len(jobs) > 0 {
		copy(lb, jobs[0].Amount)
		for _, j := range jobs[1:] {
			for d := 0; d < dim; d++ {
				if j.Amount[d] < lb[d] {
					lb[d] = j.Amount[d]
				}
			}
		}
	}
	in.amountLowerBound = lb
	in.doubleAmountLowerBound = lb.Plus(lb)
	return in, nil
}

// VehicleOKWithJob checks skill coverage of job j by vehicle v.
func (in *Input) VehicleOKWithJob(v, j int) bool {
	return in.Vehicles[v].Skills.SupersetOf(in.Jobs[j].Skills)
}

func (in *Input) cost(from, to int) Cost {
	return in.Matrix[from][to]
}
