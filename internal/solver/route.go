package solver

import "fmt"

// TWRoute is the ordered job sequence of one vehicle together with the
// earliest and latest feasible service-start time per rank. The two
// arrays are rebuilt in O(L) after every mutation; feasibility questions
// about contiguous edits are then answered in O(1 + edit size).
type TWRoute struct {
	Vehicle int
	Jobs    []int

	earliest []Cost
	latest   []Cost
}

// Solution is one route per vehicle, indexed by vehicle.
type Solution []*TWRoute

func NewTWRoute(in *Input, vehicle int, jobs []int) (*TWRoute, error) {
	r := &TWRoute{Vehicle: vehicle, Jobs: append([]int(nil), jobs...)}
	if err := r.updateTimes(in); err != nil {
		return nil, err
	}
	return r, nil
}

func (r *TWRoute) Len() int { return len(r.Jobs) }

// EarliestAt returns the earliest feasible service start at rank.
func (r *TWRoute) EarliestAt(rank int) Cost { return r.earliest[rank] }

// LatestAt returns the latest feasible service start at rank.
func (r *TWRoute) LatestAt(rank int) Cost { return r.latest[rank] }

// updateTimes rebuilds the earliest (forward pass) and latest (backward
// pass) arrays. It fails when the current sequence admits no feasible
// schedule.
func (r *TWRoute) updateTimes(in *Input) error {
	v := &in.Vehicles[r.Vehicle]
	n := len(r.Jobs)
	if cap(r.earliest) < n {
		r.earliest = make([]Cost, n)
		r.latest = make([]Cost, n)
	}
	r.earliest = r.earliest[:n]
	r.latest = r.latest[:n]

	t := v.TW.Start
	prevLoc := -1
	if v.Start != nil {
		prevLoc = *v.Start
	}
	for i, jIdx := range r.Jobs {
		job := &in.Jobs[jIdx]
		arrival := t
		if prevLoc >= 0 {
			arrival += in.cost(prevLoc, job.Location)
		}
		e, ok := job.earliestStart(arrival)
		if !ok {
			return fmt.Errorf("route %s: job %s unreachable within its time windows", v.ID, job.ID)
		}
		r.earliest[i] = e
		t = e + job.Service
		prevLoc = job.Location
	}

	t = v.TW.End
	nextLoc := -1
	if v.End != nil {
		nextLoc = *v.End
	}
	for i := n - 1; i >= 0; i-- {
		job := &in.Jobs[r.Jobs[i]]
		deadline := t - job.Service
		if nextLoc >= 0 {
			deadline -= in.cost(job.Location, nextLoc)
		}
		l, ok := job.latestStart(deadline)
		if !ok || l < r.earliest[i] {
			return fmt.Errorf("route %s: job %s cannot be served in time", v.ID, job.ID)
		}
		r.latest[i] = l
		t = l
		nextLoc = job.Location
	}
	return nil
}

// IsValidReplacement reports whether replacing Jobs[first:last] with seq
// keeps a feasible schedule. seq may be empty (pure removal) and first
// may equal last (pure insertion).
func (r *TWRoute) IsValidReplacement(in *Input, seq []int, first, last int) bool {
	v := &in.Vehicles[r.Vehicle]
	if first == 0 && last == len(r.Jobs) && len(seq) == 0 {
		// The edit empties the route; an unused vehicle is always fine.
		return true
	}

	// Departure floor and location entering position first.
	t := v.TW.Start
	prevLoc := -1
	if v.Start != nil {
		prevLoc = *v.Start
	}
	if first > 0 {
		prev := &in.Jobs[r.Jobs[first-1]]
		t = r.earliest[first-1] + prev.Service
		prevLoc = prev.Location
	}

	for _, jIdx := range seq {
		job := &in.Jobs[jIdx]
		arrival := t
		if prevLoc >= 0 {
			arrival += in.cost(prevLoc, job.Location)
		}
		e, ok := job.earliestStart(arrival)
		if !ok {
			return false
		}
		t = e + job.Service
		prevLoc = job.Location
	}

	if last == len(r.Jobs) {
		// Splice runs to the route end: check the return to the
		// vehicle end location within the vehicle window.
		if prevLoc >= 0 && v.End != nil {
			t += in.cost(prevLoc, *v.End)
		}
		return t <= v.TW.End
	}
	next := &in.Jobs[r.Jobs[last]]
	arrival := t
	if prevLoc >= 0 {
		arrival += in.cost(prevLoc, next.Location)
	}
	e, ok := next.earliestStart(arrival)
	return ok && e <= r.latest[last]
}

// IsValidAdditionForTW reports whether inserting job j at rank admits a
// feasible schedule.
func (r *TWRoute) IsValidAdditionForTW(in *Input, j, rank int) bool {
	return r.IsValidReplacement(in, []int{j}, rank, rank)
}

// IsValidRemoval reports whether removing count jobs at rank keeps a
// feasible schedule. On matrices that obey the triangle inequality a
// removal only relaxes the schedule and this always holds; otherwise
// the spliced schedule is checked like any other replacement.
func (r *TWRoute) IsValidRemoval(in *Input, rank, count int) bool {
	return r.IsValidReplacement(in, nil, rank, rank+count)
}

// Add inserts job j at rank. Precondition: IsValidAdditionForTW held and
// the route has not been mutated since.
func (r *TWRoute) Add(in *Input, j, rank int) {
	r.Jobs = append(r.Jobs, 0)
	copy(r.Jobs[rank+1:], r.Jobs[rank:])
	r.Jobs[rank] = j
	r.mustUpdate(in)
}

// Remove deletes count jobs at rank.
func (r *TWRoute) Remove(in *Input, rank, count int) {
	r.Jobs = append(r.Jobs[:rank], r.Jobs[rank+count:]...)
	r.mustUpdate(in)
}

// Replace substitutes Jobs[first:last] with seq. Precondition: the
// matching IsValidReplacement held and the route has not been mutated
// since.
func (r *TWRoute) Replace(in *Input, seq []int, first, last int) {
	out := make([]int, 0, len(r.Jobs)-(last-first)+len(seq))
	out = append(out, r.Jobs[:first]...)
	out = append(out, seq...)
	out = append(out, r.Jobs[last:]...)
	r.Jobs = out
	r.mustUpdate(in)
}

func (r *TWRoute) mustUpdate(in *Input) {
	if err := r.updateTimes(in); err != nil {
		panic(fmt.Sprintf("solver: mutation broke route %s: %v", in.Vehicles[r.Vehicle].ID, err))
	}
}

// routeCost is the travel cost of serving jobs with vehicle v, including
// the depot edges that exist. An empty route costs nothing.
func routeCost(in *Input, v int, jobs []int) Cost {
	if len(jobs) == 0 {
		return 0
	}
	veh := &in.Vehicles[v]
	var c Cost
	if veh.Start != nil {
		c += in.cost(*veh.Start, in.Jobs[jobs[0]].Location)
	}
	for i := 0; i+1 < len(jobs); i++ {
		c += in.cost(in.Jobs[jobs[i]].Location, in.Jobs[jobs[i+1]].Location)
	}
	if veh.End != nil {
		c += in.cost(in.Jobs[jobs[len(jobs)-1]].Location, *veh.End)
	}
	return c
}
