package solver

// reverseTwoOptStar exchanges the source suffix [sRank+1..] with the
// target prefix [0..tRank], reversing both segments. Reversal flips the
// direction of every internal edge, so the gain needs the directional
// traversal caches (FwdCosts/BwdCosts). Not deduplicated by vehicle
// order: the move is directional.
type reverseTwoOptStar struct {
	moveBase
	cands []int
}

func newReverseTwoOptStar(in *Input, state *SolutionState, sol Solution, sVehicle, sRank, tVehicle, tRank int) *reverseTwoOptStar {
	m := &reverseTwoOptStar{moveBase: moveBase{in: in, state: state, sol: sol, sVehicle: sVehicle, sRank: sRank, tVehicle: tVehicle, tRank: tRank}}
	sJobs := sol[sVehicle].Jobs
	tJobs := sol[tVehicle].Jobs
	lastS := len(sJobs) - 1
	sSuffix := sJobs[sRank+1:]
	tSuffix := tJobs[tRank+1:]
	sPivot := in.Jobs[sJobs[sRank]].Location
	tPivot := in.Jobs[tJobs[tRank]].Location
	tHead := in.Jobs[tJobs[0]].Location

	var removed, added Cost

	// Source side: the suffix detaches and the route now ends with the
	// reversed target prefix.
	if len(sSuffix) > 0 {
		removed += in.cost(sPivot, in.Jobs[sSuffix[0]].Location)
		removed += endEdge(in, sVehicle, in.Jobs[sJobs[lastS]].Location)
		removed += state.FwdCosts[sVehicle][lastS] - state.FwdCosts[sVehicle][m.sRank+1]
	} else {
		removed += endEdge(in, sVehicle, sPivot)
	}
	added += in.cost(sPivot, tPivot)
	added += state.BwdCosts[tVehicle][tRank]
	added += endEdge(in, sVehicle, tHead)

	// Target side: the prefix detaches and the route now starts with
	// the reversed source suffix.
	removed += startEdge(in, tVehicle, tHead)
	removed += state.FwdCosts[tVehicle][tRank]
	if len(tSuffix) > 0 {
		removed += in.cost(tPivot, in.Jobs[tSuffix[0]].Location)
	} else {
		removed += endEdge(in, tVehicle, tPivot)
	}
	if len(sSuffix) > 0 {
		added += startEdge(in, tVehicle, in.Jobs[sJobs[lastS]].Location)
		added += state.BwdCosts[sVehicle][lastS] - state.BwdCosts[sVehicle][m.sRank+1]
		if len(tSuffix) > 0 {
			added += in.cost(in.Jobs[sSuffix[0]].Location, in.Jobs[tSuffix[0]].Location)
		} else {
			added += endEdge(in, tVehicle, in.Jobs[sSuffix[0]].Location)
		}
	} else if len(tSuffix) > 0 {
		added += startEdge(in, tVehicle, in.Jobs[tSuffix[0]].Location)
	}
	m.gain = removed - added

	m.cands = append(m.cands, tJobs[tRank])
	if len(sSuffix) > 0 {
		m.cands = append(m.cands, sSuffix[0])
	}
	return m
}

func (m *reverseTwoOptStar) Kind() string { return "reverse_two_opt_star" }

func (m *reverseTwoOptStar) IsValid() bool {
	in, st := m.in, m.state
	sJobs := m.source().Jobs
	tJobs := m.target().Jobs
	tPrefix := tJobs[:m.tRank+1]
	sSuffix := sJobs[m.sRank+1:]

	if !vehicleOKWithAll(in, m.sVehicle, tPrefix, st.RouteSkills[m.tVehicle]) ||
		!vehicleOKWithAll(in, m.tVehicle, sSuffix, st.RouteSkills[m.sVehicle]) {
		return false
	}

	sLoad := st.FwdAmounts[m.sVehicle][m.sRank].Plus(st.FwdAmounts[m.tVehicle][m.tRank])
	if !sLoad.LE(in.Vehicles[m.sVehicle].Capacity) {
		return false
	}
	tLoad := st.TotalAmount(m.sVehicle).Plus(st.TotalAmount(m.tVehicle))
	tLoad.Sub(sLoad)
	if !tLoad.LE(in.Vehicles[m.tVehicle].Capacity) {
		return false
	}

	return m.source().IsValidReplacement(in, reversed(tPrefix), m.sRank+1, len(sJobs)) &&
		m.target().IsValidReplacement(in, reversed(sSuffix), 0, m.tRank+1)
}

func (m *reverseTwoOptStar) Apply() {
	sJobs := m.source().Jobs
	tJobs := m.target().Jobs
	revPrefix := reversed(tJobs[:m.tRank+1])
	revSuffix := reversed(sJobs[m.sRank+1:])
	m.source().Replace(m.in, revPrefix, m.sRank+1, len(sJobs))
	m.target().Replace(m.in, revSuffix, 0, m.tRank+1)
}

func (m *reverseTwoOptStar) AdditionCandidates() []int {
	return m.cands
}
