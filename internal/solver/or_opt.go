package solver

// orOpt removes the consecutive pair at [sRank, sRank+1] from the source
// and inserts it, in the same orientation, at tRank in the target.
// Directional.
type orOpt struct {
	moveBase
	j0, j1 int
}

func newOrOpt(in *Input, state *SolutionState, sol Solution, sVehicle, sRank, tVehicle, tRank int) *orOpt {
	m := &orOpt{moveBase: moveBase{in: in, state: state, sol: sol, sVehicle: sVehicle, sRank: sRank, tVehicle: tVehicle, tRank: tRank}}
	sJobs := sol[sVehicle].Jobs
	m.j0 = sJobs[sRank]
	m.j1 = sJobs[sRank+1]
	m.gain = state.EdgeGains[sVehicle][sRank] -
		pairAdditionCost(in, m.j0, m.j1, tVehicle, sol[tVehicle].Jobs, tRank)
	return m
}

// pairAdditionCost prices inserting the ordered pair (j0, j1) at rank.
func pairAdditionCost(in *Input, j0, j1, v int, jobs []int, rank int) Cost {
	loc0 := in.Jobs[j0].Location
	loc1 := in.Jobs[j1].Location
	added := in.cost(loc0, loc1)
	pLoc, pOK := prevLocation(in, v, jobs, rank)
	var nLoc int
	var nOK bool
	if rank < len(jobs) {
		nLoc, nOK = in.Jobs[jobs[rank]].Location, true
	} else if e := in.Vehicles[v].End; e != nil {
		nLoc, nOK = *e, true
	}
	if pOK {
		added += in.cost(pLoc, loc0)
	}
	if nOK {
		added += in.cost(loc1, nLoc)
	}
	if pOK && nOK {
		added -= in.cost(pLoc, nLoc)
	}
	return added
}

func (m *orOpt) Kind() string { return "or_opt" }

func (m *orOpt) IsValid() bool {
	in, st := m.in, m.state
	if !in.VehicleOKWithJob(m.tVehicle, m.j0) || !in.VehicleOKWithJob(m.tVehicle, m.j1) {
		return false
	}
	load := st.TotalAmount(m.tVehicle).Plus(in.Jobs[m.j0].Amount)
	load.Add(in.Jobs[m.j1].Amount)
	if !load.LE(in.Vehicles[m.tVehicle].Capacity) {
		return false
	}
	return m.source().IsValidRemoval(in, m.sRank, 2) &&
		m.target().IsValidReplacement(in, []int{m.j0, m.j1}, m.tRank, m.tRank)
}

func (m *orOpt) Apply() {
	m.source().Remove(m.in, m.sRank, 2)
	m.target().Replace(m.in, []int{m.j0, m.j1}, m.tRank, m.tRank)
}

func (m *orOpt) AdditionCandidates() []int {
	return []int{m.j0, m.j1}
}
