package solver

// Move is an inter-route neighborhood move between a source and a target
// route. A move prices itself at construction; IsValid composes the
// capacity, skill and time-window predicates of both affected routes.
// Apply assumes IsValid held and neither route was mutated since
// construction. AdditionCandidates lists the jobs at the endpoints of
// the touched segments, used to seed the reinsertion scan order.
//
// The move set is closed: exactly six shapes, no external
// implementations.
type Move interface {
	Kind() string
	Gain() Cost
	IsValid() bool
	Apply()
	AdditionCandidates() []int
}

// moveBase carries the shared construction inputs. Moves promoted to the
// best-move slot keep these references; the routes they point at are
// only touched again through Apply.
type moveBase struct {
	in    *Input
	state *SolutionState
	sol   Solution

	sVehicle, sRank int
	tVehicle, tRank int
	gain            Cost
}

func (m *moveBase) Gain() Cost { return m.gain }

func (m *moveBase) source() *TWRoute { return m.sol[m.sVehicle] }
func (m *moveBase) target() *TWRoute { return m.sol[m.tVehicle] }

// additionCost is the travel-cost delta of inserting job j at rank in
// the given route under vehicle v. Absent depot edges drop out.
func additionCost(in *Input, j, v int, jobs []int, rank int) Cost {
	jLoc := in.Jobs[j].Location
	pLoc, pOK := prevLocation(in, v, jobs, rank)
	var nLoc int
	var nOK bool
	if rank < len(jobs) {
		nLoc, nOK = in.Jobs[jobs[rank]].Location, true
	} else if e := in.Vehicles[v].End; e != nil {
		nLoc, nOK = *e, true
	}

	var added Cost
	if pOK {
		added += in.cost(pLoc, jLoc)
	}
	if nOK {
		added += in.cost(jLoc, nLoc)
	}
	if pOK && nOK {
		added -= in.cost(pLoc, nLoc)
	}
	return added
}

// segmentSkills is the union of required skills over jobs.
func segmentSkills(in *Input, jobs []int) Skills {
	var sk Skills
	for _, j := range jobs {
		sk = sk.Union(in.Jobs[j].Skills)
	}
	return sk
}

// vehicleOKWithAll checks skill coverage for every job of a segment,
// with a fast accept when the route-level union already passes.
func vehicleOKWithAll(in *Input, v int, jobs []int, routeUnion Skills) bool {
	if in.Vehicles[v].Skills.SupersetOf(routeUnion) {
		return true
	}
	return in.Vehicles[v].Skills.SupersetOf(segmentSkills(in, jobs))
}

func reversed(jobs []int) []int {
	out := make([]int, len(jobs))
	for i, j := range jobs {
		out[len(jobs)-1-i] = j
	}
	return out
}
