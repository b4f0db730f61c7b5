package solver

// crossExchange swaps the consecutive pair at [sRank, sRank+1] with the
// pair at [tRank, tRank+1]. The internal edge of each pair travels with
// it, so only the four boundary edges change. Symmetric: evaluated for
// sVehicle < tVehicle only.
type crossExchange struct {
	moveBase
}

func newCrossExchange(in *Input, state *SolutionState, sol Solution, sVehicle, sRank, tVehicle, tRank int) *crossExchange {
	m := &crossExchange{moveBase{in: in, state: state, sol: sol, sVehicle: sVehicle, sRank: sRank, tVehicle: tVehicle, tRank: tRank}}
	sJobs := sol[sVehicle].Jobs
	tJobs := sol[tVehicle].Jobs
	s0 := in.Jobs[sJobs[sRank]].Location
	s1 := in.Jobs[sJobs[sRank+1]].Location
	t0 := in.Jobs[tJobs[tRank]].Location
	t1 := in.Jobs[tJobs[tRank+1]].Location

	m.gain = pairSwapDelta(in, sVehicle, sJobs, sRank, s0, s1, t0, t1) +
		pairSwapDelta(in, tVehicle, tJobs, tRank, t0, t1, s0, s1)
	return m
}

// pairSwapDelta prices replacing the pair starting at rank (locations
// old0, old1) with a pair at new0, new1, neighbors unchanged.
func pairSwapDelta(in *Input, v int, jobs []int, rank int, old0, old1, new0, new1 int) Cost {
	var delta Cost
	if pLoc, ok := prevLocation(in, v, jobs, rank); ok {
		delta += in.cost(pLoc, old0) - in.cost(pLoc, new0)
	}
	if nLoc, ok := nextLocation(in, v, jobs, rank+1); ok {
		delta += in.cost(old1, nLoc) - in.cost(new1, nLoc)
	}
	return delta
}

func (m *crossExchange) Kind() string { return "cross_exchange" }

func (m *crossExchange) IsValid() bool {
	in, st := m.in, m.state
	sJobs := m.source().Jobs
	tJobs := m.target().Jobs
	sPair := []int{sJobs[m.sRank], sJobs[m.sRank+1]}
	tPair := []int{tJobs[m.tRank], tJobs[m.tRank+1]}

	if !vehicleOKWithAll(in, m.sVehicle, tPair, st.RouteSkills[m.tVehicle]) ||
		!vehicleOKWithAll(in, m.tVehicle, sPair, st.RouteSkills[m.sVehicle]) {
		return false
	}

	sAmt := in.Jobs[sPair[0]].Amount.Plus(in.Jobs[sPair[1]].Amount)
	tAmt := in.Jobs[tPair[0]].Amount.Plus(in.Jobs[tPair[1]].Amount)
	sLoad := st.TotalAmount(m.sVehicle).Clone()
	sLoad.Sub(sAmt)
	sLoad.Add(tAmt)
	if !sLoad.LE(in.Vehicles[m.sVehicle].Capacity) {
		return false
	}
	tLoad := st.TotalAmount(m.tVehicle).Clone()
	tLoad.Sub(tAmt)
	tLoad.Add(sAmt)
	if !tLoad.LE(in.Vehicles[m.tVehicle].Capacity) {
		return false
	}
	return m.source().IsValidReplacement(in, tPair, m.sRank, m.sRank+2) &&
		m.target().IsValidReplacement(in, sPair, m.tRank, m.tRank+2)
}

func (m *crossExchange) Apply() {
	sJobs := m.source().Jobs
	tJobs := m.target().Jobs
	sPair := []int{sJobs[m.sRank], sJobs[m.sRank+1]}
	tPair := []int{tJobs[m.tRank], tJobs[m.tRank+1]}
	m.source().Replace(m.in, tPair, m.sRank, m.sRank+2)
	m.target().Replace(m.in, sPair, m.tRank, m.tRank+2)
}

func (m *crossExchange) AdditionCandidates() []int {
	sJobs := m.source().Jobs
	tJobs := m.target().Jobs
	return []int{sJobs[m.sRank], sJobs[m.sRank+1], tJobs[m.tRank], tJobs[m.tRank+1]}
}
