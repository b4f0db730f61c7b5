package api

import (
	"fmt"

	"routesolver/internal/model"
)

func validateSolveRequest(req *model.SolveRequest) error {
	if len(req.Jobs) == 0 {
		return fmt.Errorf("jobs must not be empty")
	}
	if len(req.Vehicles) == 0 {
		return fmt.Errorf("vehicles must not be empty")
	}
	seen := map[string]struct{}{}
	for i := range req.Jobs {
		j := &req.Jobs[i]
		if j.ID == "" {
			return fmt.Errorf("job %d: id required", i)
		}
		if _, dup := seen["j:"+j.ID]; dup {
			return fmt.Errorf("duplicate job id %s", j.ID)
		}
		seen["j:"+j.ID] = struct{}{}
		if j.Location == nil && j.LatLng == nil {
			return fmt.Errorf("job %s: location or latLng required", j.ID)
		}
		if len(req.Matrix) > 0 && j.Location == nil {
			return fmt.Errorf("job %s: location index required with explicit matrix", j.ID)
		}
		if j.ServiceSec < 0 {
			return fmt.Errorf("job %s: serviceSec must be >= 0", j.ID)
		}
		for _, a := range j.Amount {
			if a < 0 {
				return fmt.Errorf("job %s: amounts must be >= 0", j.ID)
			}
		}
		var prevEnd int64 = -1
		for _, tw := range j.TimeWindows {
			if tw[0] > tw[1] {
				return fmt.Errorf("job %s: time window start after end", j.ID)
			}
			if tw[0] <= prevEnd {
				return fmt.Errorf("job %s: time windows must be sorted and disjoint", j.ID)
			}
			prevEnd = tw[1]
		}
	}
	dim := -1
	for i := range req.Vehicles {
		v := &req.Vehicles[i]
		if v.ID == "" {
			return fmt.Errorf("vehicle %d: id required", i)
		}
		if _, dup := seen["v:"+v.ID]; dup {
			return fmt.Errorf("duplicate vehicle id %s", v.ID)
		}
		seen["v:"+v.ID] = struct{}{}
		if v.Start == nil && v.End == nil && v.StartLatLng == nil && v.EndLatLng == nil {
			return fmt.Errorf("vehicle %s: start or end required", v.ID)
		}
		if len(req.Matrix) > 0 && v.Start == nil && v.End == nil {
			return fmt.Errorf("vehicle %s: start or end index required with explicit matrix", v.ID)
		}
		if dim == -1 {
			dim = len(v.Capacity)
		} else if len(v.Capacity) != dim {
			return fmt.Errorf("vehicle %s: capacity dimension %d, want %d", v.ID, len(v.Capacity), dim)
		}
		if v.TimeWindow != nil && v.TimeWindow[0] > v.TimeWindow[1] {
			return fmt.Errorf("vehicle %s: time window start after end", v.ID)
		}
	}
	for i, row := range req.Matrix {
		if len(row) != len(req.Matrix) {
			return fmt.Errorf("matrix row %d: got %d entries, want %d", i, len(row), len(req.Matrix))
		}
		for j, c := range row {
			if c < 0 {
				return fmt.Errorf("matrix[%d][%d] must be >= 0", i, j)
			}
		}
	}
	if req.SpeedKph < 0 {
		return fmt.Errorf("speedKph must be >= 0")
	}
	return nil
}
