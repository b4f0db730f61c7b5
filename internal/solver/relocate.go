package solver

// relocate removes the single job at sRank from the source and inserts
// it at tRank in the target. Directional.
type relocate struct {
	moveBase
	job int
}

func newRelocate(in *Input, state *SolutionState, sol Solution, sVehicle, sRank, tVehicle, tRank int) *relocate {
	m := &relocate{moveBase: moveBase{in: in, state: state, sol: sol, sVehicle: sVehicle, sRank: sRank, tVehicle: tVehicle, tRank: tRank}}
	m.job = sol[sVehicle].Jobs[sRank]
	m.gain = state.NodeGains[sVehicle][sRank] -
		additionCost(in, m.job, tVehicle, sol[tVehicle].Jobs, tRank)
	return m
}

func (m *relocate) Kind() string { return "relocate" }

func (m *relocate) IsValid() bool {
	in, st := m.in, m.state
	if !in.VehicleOKWithJob(m.tVehicle, m.job) {
		return false
	}
	load := st.TotalAmount(m.tVehicle).Plus(in.Jobs[m.job].Amount)
	if !load.LE(in.Vehicles[m.tVehicle].Capacity) {
		return false
	}
	return m.source().IsValidRemoval(in, m.sRank, 1) &&
		m.target().IsValidAdditionForTW(in, m.job, m.tRank)
}

func (m *relocate) Apply() {
	m.source().Remove(m.in, m.sRank, 1)
	m.target().Add(m.in, m.job, m.tRank)
}

func (m *relocate) AdditionCandidates() []int {
	return []int{m.job}
}
