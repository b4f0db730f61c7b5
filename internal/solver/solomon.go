package solver

import "sort"

// InitialSolution builds a feasible starting solution with a
// Solomon-style insertion heuristic: vehicles are filled one after the
// other by repeated cheapest feasible insertion from the unassigned
// pool. Jobs that fit nowhere stay unassigned for the engine's
// reinsertion pass.
func InitialSolution(in *Input) Solution {
	sol := make(Solution, len(in.Vehicles))
	for v := range sol {
		r, err := NewTWRoute(in, v, nil)
		if err != nil {
			// An empty route is always feasible.
			panic(err)
		}
		sol[v] = r
	}

	unassigned := map[int]struct{}{}
	for j := range in.Jobs {
		unassigned[j] = struct{}{}
	}

	for v := range in.Vehicles {
		load := NewAmount(in.Dim)
		for {
			bestJob, bestRank := -1, 0
			var bestCost Cost
			for _, j := range sortedKeys(unassigned) {
				if !in.VehicleOKWithJob(v, j) {
					continue
				}
				if !load.Plus(in.Jobs[j].Amount).LE(in.Vehicles[v].Capacity) {
					continue
				}
				for r := 0; r <= sol[v].Len(); r++ {
					if !sol[v].IsValidAdditionForTW(in, j, r) {
						continue
					}
					c := additionCost(in, j, v, sol[v].Jobs, r)
					if bestJob == -1 || c < bestCost {
						bestJob, bestRank, bestCost = j, r, c
					}
				}
			}
			if bestJob == -1 {
				break
			}
			sol[v].Add(in, bestJob, bestRank)
			load.Add(in.Jobs[bestJob].Amount)
			delete(unassigned, bestJob)
		}
	}
	return sol
}

// singleRouteHeuristic rebuilds the job set of r from scratch on the
// same vehicle. Forward orientation seeds by ascending earliest window
// opening; backward by descending latest window closing. Each job goes
// to its cheapest feasible rank; jobs that no longer fit are left out,
// so the result may serve fewer jobs than r (the caller decides whether
// that is acceptable).
func singleRouteHeuristic(in *Input, r *TWRoute, forward bool) *TWRoute {
	jobs := append([]int(nil), r.Jobs...)
	if forward {
		sort.SliceStable(jobs, func(a, b int) bool {
			return in.Jobs[jobs[a]].TWs[0].Start < in.Jobs[jobs[b]].TWs[0].Start
		})
	} else {
		sort.SliceStable(jobs, func(a, b int) bool {
			twA := in.Jobs[jobs[a]].TWs
			twB := in.Jobs[jobs[b]].TWs
			return twA[len(twA)-1].End > twB[len(twB)-1].End
		})
	}

	out, err := NewTWRoute(in, r.Vehicle, nil)
	if err != nil {
		panic(err)
	}
	for _, j := range jobs {
		bestRank := -1
		var bestCost Cost
		for rank := 0; rank <= out.Len(); rank++ {
			if !out.IsValidAdditionForTW(in, j, rank) {
				continue
			}
			c := additionCost(in, j, out.Vehicle, out.Jobs, rank)
			if bestRank == -1 || c < bestCost {
				bestRank, bestCost = rank, c
			}
		}
		if bestRank >= 0 {
			out.Add(in, j, bestRank)
		}
	}
	return out
}

func sortedKeys(set map[int]struct{}) []int {
	out := make([]int, 0, len(set))
	for k := range set {
		out = append(out, k)
	}
	sort.Ints(out)
	return out
}
