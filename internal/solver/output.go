package solver

import (
	"encoding/json"
	"os"
	"sort"
)

// StepReport is one served job within a route report.
type StepReport struct {
	JobID    string `json:"jobId"`
	Location int    `json:"location"`
	Arrival  Cost   `json:"arrival"`
	Service  Cost   `json:"service"`
}

// RouteReport is the serialized form of one non-empty route.
type RouteReport struct {
	VehicleID string       `json:"vehicleId"`
	Steps     []StepReport `json:"steps"`
	Cost      Cost         `json:"cost"`
	FixedCost Cost         `json:"fixedCost,omitempty"`
}

// SolutionReport is the JSON shape returned by the API and written by
// the engine's per-round snapshots.
type SolutionReport struct {
	Routes     []RouteReport `json:"routes"`
	Unassigned []string      `json:"unassigned"`
	Summary    Indicators    `json:"summary"`
}

// Report formats sol using the cached per-route costs in state. Arrival
// times are the earliest feasible service starts.
func Report(in *Input, sol Solution, state *SolutionState) SolutionReport {
	rep := SolutionReport{Unassigned: []string{}}
	for v, r := range sol {
		if r.Len() == 0 {
			continue
		}
		rr := RouteReport{
			VehicleID: in.Vehicles[v].ID,
			Cost:      state.RouteCosts[v],
			FixedCost: in.Vehicles[v].FixedCost,
		}
		for rank, j := range r.Jobs {
			rr.Steps = append(rr.Steps, StepReport{
				JobID:    in.Jobs[j].ID,
				Location: in.Jobs[j].Location,
				Arrival:  r.EarliestAt(rank),
				Service:  in.Jobs[j].Service,
			})
		}
		rep.Routes = append(rep.Routes, rr)
	}
	unassigned := make([]int, 0, len(state.Unassigned))
	for j := range state.Unassigned {
		unassigned = append(unassigned, j)
	}
	sort.Ints(unassigned)
	for _, j := range unassigned {
		rep.Unassigned = append(rep.Unassigned, in.Jobs[j].ID)
	}
	for v := range sol {
		rep.Summary.Cost += state.RouteCosts[v]
		if sol[v].Len() > 0 {
			rep.Summary.UsedVehicles++
		}
	}
	rep.Summary.Unassigned = len(unassigned)
	return rep
}

func writeSnapshot(name string, rep SolutionReport) error {
	b, err := json.MarshalIndent(rep, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(name, b, 0o644)
}
