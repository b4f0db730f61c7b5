package api

import (
	"fmt"

	"routesolver/internal/model"
	"routesolver/internal/solver"
)

// horizon caps open-ended time windows; far enough out that any
// realistic schedule fits, small enough that cost sums cannot overflow.
const horizon = solver.Cost(1) << 40

// buildInput converts a validated request into the solver's problem
// handle: skill names become bitset positions, coordinates become a
// derived duration matrix when no explicit matrix is given, and missing
// time windows default to the full horizon.
func buildInput(req *model.SolveRequest) (*solver.Input, error) {
	skillBits := map[string]uint{}
	skillOf := func(names []string) (solver.Skills, error) {
		var sk solver.Skills
		for _, n := range names {
			bit, ok := skillBits[n]
			if !ok {
				bit = uint(len(skillBits))
				if bit >= 64 {
					return 0, fmt.Errorf("more than 64 distinct skills")
				}
				skillBits[n] = bit
			}
			sk |= 1 << bit
		}
		return sk, nil
	}

	explicit := len(req.Matrix) > 0
	var coords [][2]float64
	locate := func(idx *int, latLng *[2]float64) (*int, error) {
		if explicit {
			if idx == nil {
				return nil, nil
			}
			if *idx < 0 || *idx >= len(req.Matrix) {
				return nil, fmt.Errorf("location %d out of matrix range", *idx)
			}
			v := *idx
			return &v, nil
		}
		if latLng == nil {
			return nil, nil
		}
		coords = append(coords, *latLng)
		v := len(coords) - 1
		return &v, nil
	}

	jobs, vehicles, err := buildEntities(req, skillOf, locate)
	if err != nil {
		return nil, err
	}

	var m solver.Matrix
	if explicit {
		m = make(solver.Matrix, len(req.Matrix))
		for i, row := range req.Matrix {
			m[i] = make([]solver.Cost, len(row))
			for j, c := range row {
				m[i][j] = solver.Cost(c)
			}
		}
	} else {
		m = solver.DurationMatrix(coords, req.SpeedKph)
	}
	return solver.NewInput(jobs, vehicles, m, len(req.Vehicles[0].Capacity))
}

func buildEntities(
	req *model.SolveRequest,
	skillOf func([]string) (solver.Skills, error),
	locate func(*int, *[2]float64) (*int, error),
) ([]solver.Job, []solver.Vehicle, error) {
	dim := len(req.Vehicles[0].Capacity)

	jobs := make([]solver.Job, len(req.Jobs))
	for i := range req.Jobs {
		jin := &req.Jobs[i]
		sk, err := skillOf(jin.Skills)
		if err != nil {
			return nil, nil, fmt.Errorf("job %s: %w", jin.ID, err)
		}
		loc, err := locate(jin.Location, jin.LatLng)
		if err != nil {
			return nil, nil, fmt.Errorf("job %s: %w", jin.ID, err)
		}
		if loc == nil {
			return nil, nil, fmt.Errorf("job %s: no location", jin.ID)
		}
		if len(jin.Amount) != 0 && len(jin.Amount) != dim {
			return nil, nil, fmt.Errorf("job %s: amount dimension %d, want %d", jin.ID, len(jin.Amount), dim)
		}
		amount := make(solver.Amount, dim)
		copy(amount, jin.Amount)
		tws := make([]solver.TimeWindow, 0, len(jin.TimeWindows))
		for _, tw := range jin.TimeWindows {
			tws = append(tws, solver.TimeWindow{Start: solver.Cost(tw[0]), End: solver.Cost(tw[1])})
		}
		if len(tws) == 0 {
			tws = []solver.TimeWindow{{Start: 0, End: horizon}}
		}
		jobs[i] = solver.Job{
			ID:       jin.ID,
			Location: *loc,
			Service:  solver.Cost(jin.ServiceSec),
			Amount:   amount,
			TWs:      tws,
			Skills:   sk,
		}
	}

	vehicles := make([]solver.Vehicle, len(req.Vehicles))
	for i := range req.Vehicles {
		vin := &req.Vehicles[i]
		sk, err := skillOf(vin.Skills)
		if err != nil {
			return nil, nil, fmt.Errorf("vehicle %s: %w", vin.ID, err)
		}
		start, err := locate(vin.Start, vin.StartLatLng)
		if err != nil {
			return nil, nil, fmt.Errorf("vehicle %s: %w", vin.ID, err)
		}
		end, err := locate(vin.End, vin.EndLatLng)
		if err != nil {
			return nil, nil, fmt.Errorf("vehicle %s: %w", vin.ID, err)
		}
		tw := solver.TimeWindow{Start: 0, End: horizon}
		if vin.TimeWindow != nil {
			tw = solver.TimeWindow{Start: solver.Cost(vin.TimeWindow[0]), End: solver.Cost(vin.TimeWindow[1])}
		}
		vehicles[i] = solver.Vehicle{
			ID:        vin.ID,
			Start:     start,
			End:       end,
			Capacity:  solver.Amount(vin.Capacity),
			TW:        tw,
			Skills:    sk,
			FixedCost: solver.Cost(vin.FixedCost),
		}
	}
	return jobs, vehicles, nil
}
