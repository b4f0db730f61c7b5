package solver

import (
	"fmt"
	"log"
	"math"
	"sort"
	"sync/atomic"
)

// Indicators is a read-only snapshot of solution quality.
type Indicators struct {
	Unassigned   int  `json:"unassigned"`
	Cost         Cost `json:"cost"`
	UsedVehicles int  `json:"usedVehicles"`
}

// Progress describes one accepted improvement round.
type Progress struct {
	Round      int    `json:"round"`
	Operator   string `json:"operator"`
	Gain       Cost   `json:"gain"`
	Cost       Cost   `json:"cost"`
	Unassigned int    `json:"unassigned"`
}

// lsRank distinguishes snapshot file prefixes across engine instances
// within one process. It has no bearing on search behavior.
var lsRank atomic.Uint32

// Engine runs best-improvement local search over an initial feasible
// solution until no inter-route move yields a positive gain. It borrows
// the solution exclusively for the duration of Run and mutates it in
// place; the state cache lives and dies with the engine.
type Engine struct {
	in    *Input
	sol   Solution
	state *SolutionState

	// Log enables a JSON snapshot of the solution at each improving
	// step, written to files starting with LogPrefix. Write failures
	// are reported and ignored.
	Log       bool
	LogPrefix string
	logIter   int

	// OnRound, when set, observes each accepted move.
	OnRound func(Progress)

	allRoutes []int
}

func NewEngine(in *Input, sol Solution) *Engine {
	e := &Engine{
		in:        in,
		sol:       sol,
		state:     NewSolutionState(in),
		LogPrefix: fmt.Sprintf("debug_%d_", lsRank.Add(1)),
	}
	e.state.Setup(sol)
	e.allRoutes = make([]int, len(in.Vehicles))
	for v := range e.allRoutes {
		e.allRoutes[v] = v
	}
	return e
}

// State exposes the cache for inspection; callers must not mutate it.
func (e *Engine) State() *SolutionState { return e.state }

// Solution returns the solution the engine operates on.
func (e *Engine) Solution() Solution { return e.sol }

// Indicators sums the cached per-route costs and counts non-empty
// routes and unassigned jobs.
func (e *Engine) Indicators() Indicators {
	var ind Indicators
	ind.Unassigned = len(e.state.Unassigned)
	for v := range e.sol {
		ind.Cost += e.state.RouteCosts[v]
		if e.sol[v].Len() > 0 {
			ind.UsedVehicles++
		}
	}
	return ind
}

// Run iterates best-improvement rounds: evaluate every active
// source/target pair under all six operators, apply the single best
// positive-gain move, straighten the touched routes, reinsert
// unassigned jobs, then invalidate exactly the pair evaluations that
// involve a changed route. Terminates at the local optimum.
func (e *Engine) Run() {
	e.logCurrentSolution()

	V := len(e.in.Vehicles)
	bestOps := make([][]Move, V)
	bestGains := make([][]Cost, V)
	for v := 0; v < V; v++ {
		bestOps[v] = make([]Move, V)
		bestGains[v] = make([]Cost, V)
	}

	// Active pairs: all ordered (s, t), s != t, at first.
	pairs := make([][2]int, 0, V*V)
	for s := 0; s < V; s++ {
		for t := 0; t < V; t++ {
			if s != t {
				pairs = append(pairs, [2]int{s, t})
			}
		}
	}

	round := 0
	for {
		// Exchange: symmetric, deduplicated by s < t.
		for _, p := range pairs {
			s, t := p[0], p[1]
			if t <= s || e.sol[s].Len() == 0 || e.sol[t].Len() == 0 {
				continue
			}
			for sr := 0; sr < e.sol[s].Len(); sr++ {
				for tr := 0; tr < e.sol[t].Len(); tr++ {
					m := newExchange(e.in, e.state, e.sol, s, sr, t, tr)
					if m.Gain() > bestGains[s][t] && m.IsValid() {
						bestGains[s][t] = m.Gain()
						bestOps[s][t] = m
					}
				}
			}
		}

		// CrossExchange: symmetric, needs two consecutive jobs on each side.
		for _, p := range pairs {
			s, t := p[0], p[1]
			if t <= s || e.sol[s].Len() < 2 || e.sol[t].Len() < 2 {
				continue
			}
			for sr := 0; sr < e.sol[s].Len()-1; sr++ {
				for tr := 0; tr < e.sol[t].Len()-1; tr++ {
					m := newCrossExchange(e.in, e.state, e.sol, s, sr, t, tr)
					if m.Gain() > bestGains[s][t] && m.IsValid() {
						bestGains[s][t] = m.Gain()
						bestOps[s][t] = m
					}
				}
			}
		}

		// 2-opt*: symmetric. Target ranks walk downward and stop as soon
		// as the target suffix no longer fits the source's free
		// capacity; BwdAmounts is monotone along that direction.
		for _, p := range pairs {
			s, t := p[0], p[1]
			if t <= s {
				continue
			}
			for sr := 0; sr < e.sol[s].Len(); sr++ {
				free := e.in.Vehicles[s].Capacity.Clone()
				free.Sub(e.state.FwdAmounts[s][sr])
				for tr := e.sol[t].Len() - 1; tr >= 0; tr-- {
					// The moved suffix starts at tr+1; BwdAmounts includes its own rank.
					if tr+1 < e.sol[t].Len() && !e.state.BwdAmounts[t][tr+1].LE(free) {
						break
					}
					m := newTwoOptStar(e.in, e.state, e.sol, s, sr, t, tr)
					if m.Gain() > bestGains[s][t] && m.IsValid() {
						bestGains[s][t] = m.Gain()
						bestOps[s][t] = m
					}
				}
			}
		}

		// Reverse 2-opt*: directional. Target ranks walk upward and stop
		// once the target prefix exceeds the source's free capacity.
		for _, p := range pairs {
			s, t := p[0], p[1]
			for sr := 0; sr < e.sol[s].Len(); sr++ {
				free := e.in.Vehicles[s].Capacity.Clone()
				free.Sub(e.state.FwdAmounts[s][sr])
				for tr := 0; tr < e.sol[t].Len(); tr++ {
					if !e.state.FwdAmounts[t][tr].LE(free) {
						break
					}
					m := newReverseTwoOptStar(e.in, e.state, e.sol, s, sr, t, tr)
					if m.Gain() > bestGains[s][t] && m.IsValid() {
						bestGains[s][t] = m.Gain()
						bestOps[s][t] = m
					}
				}
			}
		}

		// Relocate: skip full targets and empty sources; a node's
		// removal gain caps the achievable move gain.
		for _, p := range pairs {
			s, t := p[0], p[1]
			if e.sol[s].Len() == 0 ||
				!e.state.TotalAmount(t).Plus(e.in.amountLowerBound).LE(e.in.Vehicles[t].Capacity) {
				continue
			}
			for sr := 0; sr < e.sol[s].Len(); sr++ {
				if e.state.NodeGains[s][sr] <= bestGains[s][t] {
					continue
				}
				for tr := 0; tr <= e.sol[t].Len(); tr++ {
					m := newRelocate(e.in, e.state, e.sol, s, sr, t, tr)
					if m.Gain() > bestGains[s][t] && m.IsValid() {
						bestGains[s][t] = m.Gain()
						bestOps[s][t] = m
					}
				}
			}
		}

		// Or-opt: as Relocate but for consecutive pairs.
		for _, p := range pairs {
			s, t := p[0], p[1]
			if e.sol[s].Len() < 2 ||
				!e.state.TotalAmount(t).Plus(e.in.doubleAmountLowerBound).LE(e.in.Vehicles[t].Capacity) {
				continue
			}
			for sr := 0; sr < e.sol[s].Len()-1; sr++ {
				if e.state.EdgeGains[s][sr] <= bestGains[s][t] {
					continue
				}
				for tr := 0; tr <= e.sol[t].Len(); tr++ {
					m := newOrOpt(e.in, e.state, e.sol, s, sr, t, tr)
					if m.Gain() > bestGains[s][t] && m.IsValid() {
						bestGains[s][t] = m.Gain()
						bestOps[s][t] = m
					}
				}
			}
		}

		// Best overall gain; first maximum in scan order wins.
		var bestGain Cost
		bestS, bestT := 0, 0
		for s := 0; s < V; s++ {
			for t := 0; t < V; t++ {
				if s != t && bestGains[s][t] > bestGain {
					bestGain = bestGains[s][t]
					bestS, bestT = s, t
				}
			}
		}
		if bestGain <= 0 {
			return
		}

		round++
		op := bestOps[bestS][bestT]
		previous := e.state.RouteCosts[bestS] + e.state.RouteCosts[bestT]
		op.Apply()
		e.state.UpdateRouteCost(e.sol[bestS].Jobs, bestS)
		e.state.UpdateRouteCost(e.sol[bestT].Jobs, bestT)
		current := e.state.RouteCosts[bestS] + e.state.RouteCosts[bestT]
		if current+bestGain != previous {
			panic(fmt.Sprintf("solver: gain accounting broken on routes %s/%s: %d + %d != %d",
				e.in.Vehicles[bestS].ID, e.in.Vehicles[bestT].ID, current, bestGain, previous))
		}

		e.straightenRoute(bestS)
		e.straightenRoute(bestT)

		// Amounts must be current before reinsertion evaluates
		// capacities; each successful addition then maintains them.
		e.state.UpdateAmounts(e.sol[bestS].Jobs, bestS)
		e.state.UpdateAmounts(e.sol[bestT].Jobs, bestT)

		inserted := e.tryJobAdditions(e.allRoutes, 0, op.AdditionCandidates())

		// Refresh remaining caches for every route that changed, then
		// reopen exactly the pairs that involve one of them.
		touched := map[int]struct{}{bestS: {}, bestT: {}}
		for _, v := range inserted {
			touched[v] = struct{}{}
		}
		for v := range touched {
			e.state.UpdateCosts(e.sol[v].Jobs, v)
			e.state.UpdateSkills(e.sol[v].Jobs, v)
			e.state.SetNodeGains(e.sol[v].Jobs, v)
			e.state.SetEdgeGains(e.sol[v].Jobs, v)
		}
		pairs = pairs[:0]
		for s := 0; s < V; s++ {
			for t := 0; t < V; t++ {
				if s == t {
					continue
				}
				_, sTouched := touched[s]
				_, tTouched := touched[t]
				if sTouched || tTouched {
					bestGains[s][t] = 0
					bestOps[s][t] = nil
					pairs = append(pairs, [2]int{s, t})
				}
			}
		}

		if e.OnRound != nil {
			e.OnRound(Progress{
				Round:      round,
				Operator:   op.Kind(),
				Gain:       bestGain,
				Cost:       e.Indicators().Cost,
				Unassigned: len(e.state.Unassigned),
			})
		}
		e.logCurrentSolution()
	}
}

// tryJobAdditions repeatedly inserts the unassigned job with the best
// regret-adjusted cheapest insertion across the given routes, until no
// feasible insertion remains. With regretCoeff == 0 this is pure
// cheapest insertion. hint jobs are scanned first; ties in evaluation
// therefore resolve toward them. Returns the routes that received jobs.
func (e *Engine) tryJobAdditions(routes []int, regretCoeff float64, hint []int) []int {
	insertedRoutes := map[int]struct{}{}

	for {
		jobAdded := false
		bestEval := 0.0
		hasBest := false
		var bestJob, bestRoute, bestRank int

		for _, j := range e.unassignedScanOrder(hint) {
			amount := e.in.Jobs[j].Amount
			bestCosts := make([]Cost, len(routes))
			bestRanks := make([]int, len(routes))
			finite := make([]bool, len(routes))

			for i, v := range routes {
				if !e.in.VehicleOKWithJob(v, j) {
					continue
				}
				if !e.state.TotalAmount(v).Plus(amount).LE(e.in.Vehicles[v].Capacity) {
					continue
				}
				for r := 0; r <= e.sol[v].Len(); r++ {
					if !e.sol[v].IsValidAdditionForTW(e.in, j, r) {
						continue
					}
					c := additionCost(e.in, j, v, e.sol[v].Jobs, r)
					if !finite[i] || c < bestCosts[i] {
						finite[i] = true
						bestCosts[i] = c
						bestRanks[i] = r
					}
				}
			}

			// Two lowest insertion costs across routes, resolved by
			// first occurrence.
			var smallest, secondSmallest Cost
			smallestIdx := -1
			haveSecond := false
			for i := range routes {
				if !finite[i] {
					continue
				}
				switch {
				case smallestIdx == -1:
					smallestIdx = i
					smallest = bestCosts[i]
				case bestCosts[i] < smallest:
					secondSmallest, haveSecond = smallest, true
					smallest = bestCosts[i]
					smallestIdx = i
				case !haveSecond || bestCosts[i] < secondSmallest:
					secondSmallest, haveSecond = bestCosts[i], true
				}
			}
			if smallestIdx == -1 {
				continue // no feasible insertion anywhere for this job
			}

			for i, v := range routes {
				if !finite[i] {
					continue
				}
				// Regret of not taking route i: the best alternative
				// insertion cost. A job with no alternative at all gets
				// maximal regret so it is placed first.
				regret := float64(smallest)
				if i == smallestIdx {
					if haveSecond {
						regret = float64(secondSmallest)
					} else {
						regret = float64(math.MaxInt64)
					}
				}
				eval := float64(bestCosts[i]) - regretCoeff*regret
				if !hasBest || eval < bestEval {
					hasBest = true
					bestEval = eval
					bestJob = j
					bestRoute = v
					bestRank = bestRanks[i]
				}
			}
		}

		if hasBest {
			e.insertJob(bestJob, bestRoute, bestRank)
			insertedRoutes[bestRoute] = struct{}{}
			jobAdded = true
		}
		if !jobAdded {
			break
		}
	}

	out := make([]int, 0, len(insertedRoutes))
	for v := range insertedRoutes {
		out = append(out, v)
	}
	sort.Ints(out)
	return out
}

// insertJob adds job j to route v at rank and patches the amount and
// cost caches in place.
func (e *Engine) insertJob(j, v, rank int) {
	e.sol[v].Add(e.in, j, rank)

	amount := e.in.Jobs[j].Amount
	fwd := e.state.FwdAmounts[v]
	var cumul Amount
	if rank == 0 {
		cumul = NewAmount(e.in.Dim)
	} else {
		cumul = fwd[rank-1].Clone()
	}
	cumul.Add(amount)
	fwd = append(fwd, nil)
	copy(fwd[rank+1:], fwd[rank:])
	fwd[rank] = cumul
	for i := rank + 1; i < len(fwd); i++ {
		fwd[i] = fwd[i].Plus(amount)
	}
	e.state.FwdAmounts[v] = fwd

	total := fwd[len(fwd)-1]
	bwd := make([]Amount, len(fwd))
	for i := range bwd {
		b := total.Clone()
		if i > 0 {
			b.Sub(fwd[i-1])
		}
		bwd[i] = b
	}
	e.state.BwdAmounts[v] = bwd

	e.state.UpdateRouteCost(e.sol[v].Jobs, v)
	delete(e.state.Unassigned, j)
}

// unassignedScanOrder lists the unassigned jobs, hint entries first and
// the remainder in ascending index order.
func (e *Engine) unassignedScanOrder(hint []int) []int {
	out := make([]int, 0, len(e.state.Unassigned))
	seen := map[int]struct{}{}
	for _, j := range hint {
		if _, un := e.state.Unassigned[j]; un {
			if _, dup := seen[j]; !dup {
				seen[j] = struct{}{}
				out = append(out, j)
			}
		}
	}
	rest := make([]int, 0, len(e.state.Unassigned))
	for j := range e.state.Unassigned {
		if _, dup := seen[j]; !dup {
			rest = append(rest, j)
		}
	}
	sort.Ints(rest)
	return append(out, rest...)
}

// straightenRoute rebuilds route v with the constructive heuristic in
// both orientations and keeps the better result, provided it still
// serves the same number of jobs. Jobs are never dropped here.
func (e *Engine) straightenRoute(v int) {
	if e.sol[v].Len() == 0 {
		return
	}
	before := e.state.RouteCosts[v]

	candidate := singleRouteHeuristic(e.in, e.sol[v], true)
	other := singleRouteHeuristic(e.in, e.sol[v], false)
	if other.Len() > candidate.Len() ||
		(other.Len() == candidate.Len() &&
			e.state.RouteCostForVehicle(v, other.Jobs) < e.state.RouteCostForVehicle(v, candidate.Jobs)) {
		candidate = other
	}

	if candidate.Len() == e.sol[v].Len() {
		after := e.state.RouteCostForVehicle(v, candidate.Jobs)
		if after < before {
			e.logCurrentSolution()
			e.sol[v] = candidate
			e.state.RouteCosts[v] = after
		}
	}
}

func (e *Engine) logCurrentSolution() {
	if !e.Log {
		return
	}
	e.logIter++
	name := fmt.Sprintf("%s%d_sol.json", e.LogPrefix, e.logIter)
	if err := writeSnapshot(name, Report(e.in, e.sol, e.state)); err != nil {
		log.Printf("solver: snapshot %s: %v", name, err)
	}
}
