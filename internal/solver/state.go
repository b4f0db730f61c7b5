package solver

// SolutionState caches per-route derived data so operator evaluation
// stays cheap: route costs, cumulative amounts in both directions,
// directional traversal costs (needed for reversed-segment gains),
// single-node and edge removal gains, and the skill union per route.
// Caches hold only derived values keyed by (vehicle, rank); jobs and
// vehicles are never copied.
type SolutionState struct {
	in *Input

	RouteCosts  []Cost
	FwdAmounts  [][]Amount
	BwdAmounts  [][]Amount
	FwdCosts    [][]Cost
	BwdCosts    [][]Cost
	NodeGains   [][]Cost
	EdgeGains   [][]Cost
	RouteSkills []Skills
	Unassigned  map[int]struct{}
}

func NewSolutionState(in *Input) *SolutionState {
	v := len(in.Vehicles)
	return &SolutionState{
		in:          in,
		RouteCosts:  make([]Cost, v),
		FwdAmounts:  make([][]Amount, v),
		BwdAmounts:  make([][]Amount, v),
		FwdCosts:    make([][]Cost, v),
		BwdCosts:    make([][]Cost, v),
		NodeGains:   make([][]Cost, v),
		EdgeGains:   make([][]Cost, v),
		RouteSkills: make([]Skills, v),
		Unassigned:  map[int]struct{}{},
	}
}

// Setup computes every cache field from sol and derives the unassigned
// set as all jobs minus those present in routes.
func (s *SolutionState) Setup(sol Solution) {
	for j := range s.in.Jobs {
		s.Unassigned[j] = struct{}{}
	}
	for v, r := range sol {
		for _, j := range r.Jobs {
			delete(s.Unassigned, j)
		}
		s.UpdateRouteCost(r.Jobs, v)
		s.UpdateAmounts(r.Jobs, v)
		s.UpdateCosts(r.Jobs, v)
		s.SetNodeGains(r.Jobs, v)
		s.SetEdgeGains(r.Jobs, v)
		s.UpdateSkills(r.Jobs, v)
	}
}

func (s *SolutionState) UpdateRouteCost(jobs []int, v int) {
	s.RouteCosts[v] = routeCost(s.in, v, jobs)
}

// RouteCostForVehicle prices an arbitrary sequence for vehicle v without
// touching the cache.
func (s *SolutionState) RouteCostForVehicle(v int, jobs []int) Cost {
	return routeCost(s.in, v, jobs)
}

// UpdateAmounts recomputes the forward cumulative amounts and derives
// the backward ones from the total.
func (s *SolutionState) UpdateAmounts(jobs []int, v int) {
	fwd := make([]Amount, len(jobs))
	acc := NewAmount(s.in.Dim)
	for i, j := range jobs {
		acc.Add(s.in.Jobs[j].Amount)
		fwd[i] = acc.Clone()
	}
	s.FwdAmounts[v] = fwd

	bwd := make([]Amount, len(jobs))
	if len(jobs) > 0 {
		total := fwd[len(fwd)-1]
		for i := range jobs {
			b := total.Clone()
			if i > 0 {
				b.Sub(fwd[i-1])
			}
			bwd[i] = b
		}
	}
	s.BwdAmounts[v] = bwd
}

// UpdateCosts recomputes the directional traversal costs along the
// route: FwdCosts[v][i] prices jobs[0]..jobs[i] in route order,
// BwdCosts[v][i] prices jobs[i]..jobs[0] against it. Segment and
// reversed-segment costs are then differences of two entries.
func (s *SolutionState) UpdateCosts(jobs []int, v int) {
	fwd := make([]Cost, len(jobs))
	bwd := make([]Cost, len(jobs))
	for i := 1; i < len(jobs); i++ {
		prev := s.in.Jobs[jobs[i-1]].Location
		cur := s.in.Jobs[jobs[i]].Location
		fwd[i] = fwd[i-1] + s.in.cost(prev, cur)
		bwd[i] = bwd[i-1] + s.in.cost(cur, prev)
	}
	s.FwdCosts[v] = fwd
	s.BwdCosts[v] = bwd
}

// SetNodeGains stores, for each rank, the cost saved by removing the
// single job there (possibly negative on asymmetric matrices).
func (s *SolutionState) SetNodeGains(jobs []int, v int) {
	gains := make([]Cost, len(jobs))
	for r := range jobs {
		gains[r] = s.removalGain(jobs, v, r, 1)
	}
	s.NodeGains[v] = gains
}

// SetEdgeGains stores, for each rank, the cost saved by removing the
// consecutive pair at ranks r, r+1.
func (s *SolutionState) SetEdgeGains(jobs []int, v int) {
	n := len(jobs)
	if n < 2 {
		s.EdgeGains[v] = nil
		return
	}
	gains := make([]Cost, n-1)
	for r := 0; r+1 < n; r++ {
		gains[r] = s.removalGain(jobs, v, r, 2)
	}
	s.EdgeGains[v] = gains
}

// removalGain prices removing count jobs at rank r: the edges around the
// removed block minus the reconnection edge. Depot edges that do not
// exist contribute nothing.
func (s *SolutionState) removalGain(jobs []int, v, r, count int) Cost {
	in := s.in
	pLoc, pOK := prevLocation(in, v, jobs, r)
	nLoc, nOK := nextLocation(in, v, jobs, r+count-1)

	var before Cost
	if pOK {
		before += in.cost(pLoc, in.Jobs[jobs[r]].Location)
	}
	for i := r; i+1 < r+count; i++ {
		before += in.cost(in.Jobs[jobs[i]].Location, in.Jobs[jobs[i+1]].Location)
	}
	if nOK {
		before += in.cost(in.Jobs[jobs[r+count-1]].Location, nLoc)
	}
	var after Cost
	if pOK && nOK {
		after = in.cost(pLoc, nLoc)
	}
	return before - after
}

func (s *SolutionState) UpdateSkills(jobs []int, v int) {
	var sk Skills
	for _, j := range jobs {
		sk = sk.Union(s.in.Jobs[j].Skills)
	}
	s.RouteSkills[v] = sk
}

// TotalAmount is the full load of route v.
func (s *SolutionState) TotalAmount(v int) Amount {
	fwd := s.FwdAmounts[v]
	if len(fwd) == 0 {
		return NewAmount(s.in.Dim)
	}
	return fwd[len(fwd)-1]
}

// prevLocation resolves the location preceding rank in route v: the job
// before it, or the vehicle start when rank is 0.
func prevLocation(in *Input, v int, jobs []int, rank int) (int, bool) {
	if rank > 0 {
		return in.Jobs[jobs[rank-1]].Location, true
	}
	if s := in.Vehicles[v].Start; s != nil {
		return *s, true
	}
	return 0, false
}

// nextLocation resolves the location following rank: the job after it,
// or the vehicle end when rank is last.
func nextLocation(in *Input, v int, jobs []int, rank int) (int, bool) {
	if rank+1 < len(jobs) {
		return in.Jobs[jobs[rank+1]].Location, true
	}
	if e := in.Vehicles[v].End; e != nil {
		return *e, true
	}
	return 0, false
}
