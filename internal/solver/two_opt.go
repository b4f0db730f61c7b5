package solver

// twoOptStar reconnects two routes at a crossing point: the source keeps
// its prefix [0..sRank] and receives the target suffix [tRank+1..], and
// vice versa. Suffix-internal edges are untouched; only the crossing and
// route-end edges change. Symmetric: evaluated for sVehicle < tVehicle.
type twoOptStar struct {
	moveBase
}

func endEdge(in *Input, v, loc int) Cost {
	if e := in.Vehicles[v].End; e != nil {
		return in.cost(loc, *e)
	}
	return 0
}

func startEdge(in *Input, v, loc int) Cost {
	if s := in.Vehicles[v].Start; s != nil {
		return in.cost(*s, loc)
	}
	return 0
}

func newTwoOptStar(in *Input, state *SolutionState, sol Solution, sVehicle, sRank, tVehicle, tRank int) *twoOptStar {
	m := &twoOptStar{moveBase{in: in, state: state, sol: sol, sVehicle: sVehicle, sRank: sRank, tVehicle: tVehicle, tRank: tRank}}
	sJobs := sol[sVehicle].Jobs
	tJobs := sol[tVehicle].Jobs
	sSuffix := sJobs[sRank+1:]
	tSuffix := tJobs[tRank+1:]
	sPivot := in.Jobs[sJobs[sRank]].Location
	tPivot := in.Jobs[tJobs[tRank]].Location

	var removed, added Cost
	if len(sSuffix) > 0 {
		removed += in.cost(sPivot, in.Jobs[sSuffix[0]].Location)
		removed += endEdge(in, sVehicle, in.Jobs[sSuffix[len(sSuffix)-1]].Location)
		added += in.cost(tPivot, in.Jobs[sSuffix[0]].Location)
		added += endEdge(in, tVehicle, in.Jobs[sSuffix[len(sSuffix)-1]].Location)
	} else {
		removed += endEdge(in, sVehicle, sPivot)
		added += endEdge(in, tVehicle, tPivot)
	}
	if len(tSuffix) > 0 {
		removed += in.cost(tPivot, in.Jobs[tSuffix[0]].Location)
		removed += endEdge(in, tVehicle, in.Jobs[tSuffix[len(tSuffix)-1]].Location)
		added += in.cost(sPivot, in.Jobs[tSuffix[0]].Location)
		added += endEdge(in, sVehicle, in.Jobs[tSuffix[len(tSuffix)-1]].Location)
	} else {
		removed += endEdge(in, tVehicle, tPivot)
		added += endEdge(in, sVehicle, sPivot)
	}
	m.gain = removed - added
	return m
}

func (m *twoOptStar) Kind() string { return "two_opt_star" }

func (m *twoOptStar) IsValid() bool {
	in, st := m.in, m.state
	sJobs := m.source().Jobs
	tJobs := m.target().Jobs
	sSuffix := sJobs[m.sRank+1:]
	tSuffix := tJobs[m.tRank+1:]

	if !vehicleOKWithAll(in, m.sVehicle, tSuffix, st.RouteSkills[m.tVehicle]) ||
		!vehicleOKWithAll(in, m.tVehicle, sSuffix, st.RouteSkills[m.sVehicle]) {
		return false
	}

	tSuffixLoad := st.TotalAmount(m.tVehicle).Clone()
	tSuffixLoad.Sub(st.FwdAmounts[m.tVehicle][m.tRank])
	sLoad := st.FwdAmounts[m.sVehicle][m.sRank].Plus(tSuffixLoad)
	if !sLoad.LE(in.Vehicles[m.sVehicle].Capacity) {
		return false
	}
	sSuffixLoad := st.TotalAmount(m.sVehicle).Clone()
	sSuffixLoad.Sub(st.FwdAmounts[m.sVehicle][m.sRank])
	tLoad := st.FwdAmounts[m.tVehicle][m.tRank].Plus(sSuffixLoad)
	if !tLoad.LE(in.Vehicles[m.tVehicle].Capacity) {
		return false
	}

	return m.source().IsValidReplacement(in, tSuffix, m.sRank+1, len(sJobs)) &&
		m.target().IsValidReplacement(in, sSuffix, m.tRank+1, len(tJobs))
}

func (m *twoOptStar) Apply() {
	sJobs := m.source().Jobs
	tJobs := m.target().Jobs
	sSuffix := append([]int(nil), sJobs[m.sRank+1:]...)
	tSuffix := append([]int(nil), tJobs[m.tRank+1:]...)
	m.source().Replace(m.in, tSuffix, m.sRank+1, len(sJobs))
	m.target().Replace(m.in, sSuffix, m.tRank+1, len(tJobs))
}

func (m *twoOptStar) AdditionCandidates() []int {
	var out []int
	if m.sRank+1 < len(m.source().Jobs) {
		out = append(out, m.source().Jobs[m.sRank+1])
	}
	if m.tRank+1 < len(m.target().Jobs) {
		out = append(out, m.target().Jobs[m.tRank+1])
	}
	return out
}
