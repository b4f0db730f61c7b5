package solver

// exchange swaps the single job at sRank with the single job at tRank.
// Symmetric: the engine only evaluates it for sVehicle < tVehicle.
type exchange struct {
	moveBase
}

func newExchange(in *Input, state *SolutionState, sol Solution, sVehicle, sRank, tVehicle, tRank int) *exchange {
	m := &exchange{moveBase{in: in, state: state, sol: sol, sVehicle: sVehicle, sRank: sRank, tVehicle: tVehicle, tRank: tRank}}
	sJobs := sol[sVehicle].Jobs
	tJobs := sol[tVehicle].Jobs
	sLoc := in.Jobs[sJobs[sRank]].Location
	tLoc := in.Jobs[tJobs[tRank]].Location

	m.gain = swapDelta(in, sVehicle, sJobs, sRank, sLoc, tLoc) +
		swapDelta(in, tVehicle, tJobs, tRank, tLoc, sLoc)
	return m
}

// swapDelta prices replacing the job at rank (location oldLoc) with a
// job at newLoc, neighbors unchanged.
func swapDelta(in *Input, v int, jobs []int, rank int, oldLoc, newLoc int) Cost {
	var delta Cost
	if pLoc, ok := prevLocation(in, v, jobs, rank); ok {
		delta += in.cost(pLoc, oldLoc) - in.cost(pLoc, newLoc)
	}
	if nLoc, ok := nextLocation(in, v, jobs, rank); ok {
		delta += in.cost(oldLoc, nLoc) - in.cost(newLoc, nLoc)
	}
	return delta
}

func (m *exchange) Kind() string { return "exchange" }

func (m *exchange) IsValid() bool {
	in, st := m.in, m.state
	sJob := m.source().Jobs[m.sRank]
	tJob := m.target().Jobs[m.tRank]

	if !in.VehicleOKWithJob(m.sVehicle, tJob) || !in.VehicleOKWithJob(m.tVehicle, sJob) {
		return false
	}
	sLoad := st.TotalAmount(m.sVehicle).Clone()
	sLoad.Sub(in.Jobs[sJob].Amount)
	sLoad.Add(in.Jobs[tJob].Amount)
	if !sLoad.LE(in.Vehicles[m.sVehicle].Capacity) {
		return false
	}
	tLoad := st.TotalAmount(m.tVehicle).Clone()
	tLoad.Sub(in.Jobs[tJob].Amount)
	tLoad.Add(in.Jobs[sJob].Amount)
	if !tLoad.LE(in.Vehicles[m.tVehicle].Capacity) {
		return false
	}
	return m.source().IsValidReplacement(in, []int{tJob}, m.sRank, m.sRank+1) &&
		m.target().IsValidReplacement(in, []int{sJob}, m.tRank, m.tRank+1)
}

func (m *exchange) Apply() {
	sJob := m.source().Jobs[m.sRank]
	tJob := m.target().Jobs[m.tRank]
	m.source().Replace(m.in, []int{tJob}, m.sRank, m.sRank+1)
	m.target().Replace(m.in, []int{sJob}, m.tRank, m.tRank+1)
}

func (m *exchange) AdditionCandidates() []int {
	return []int{m.source().Jobs[m.sRank], m.target().Jobs[m.tRank]}
}
