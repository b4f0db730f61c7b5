package model

import "routesolver/internal/solver"

// Solve API types.

type JobIn struct {
	ID          string      `json:"id"`
	Location    *int        `json:"location,omitempty"`
	LatLng      *[2]float64 `json:"latLng,omitempty"`
	ServiceSec  int64       `json:"serviceSec,omitempty"`
	Amount      []int64     `json:"amount,omitempty"`
	TimeWindows [][2]int64  `json:"timeWindows,omitempty"`
	Skills      []string    `json:"skills,omitempty"`
}

type VehicleIn struct {
	ID          string      `json:"id"`
	Start       *int        `json:"start,omitempty"`
	End         *int        `json:"end,omitempty"`
	StartLatLng *[2]float64 `json:"startLatLng,omitempty"`
	EndLatLng   *[2]float64 `json:"endLatLng,omitempty"`
	Capacity    []int64     `json:"capacity"`
	TimeWindow  *[2]int64   `json:"timeWindow,omitempty"`
	Skills      []string    `json:"skills,omitempty"`
	FixedCost   int64       `json:"fixedCost,omitempty"`
}

type SolveOptions struct {
	// Debug writes a JSON snapshot of the solution at each improving
	// round, prefixed per engine instance.
	Debug bool `json:"debug,omitempty"`
	// Async returns 202 immediately and runs the search in the
	// background; progress is observable on the progress socket.
	Async bool `json:"async,omitempty"`
}

type SolveRequest struct {
	Jobs     []JobIn     `json:"jobs"`
	Vehicles []VehicleIn `json:"vehicles"`
	// Matrix is a dense travel-cost matrix covering every referenced
	// location. When absent, one is derived from coordinates at
	// SpeedKph.
	Matrix   [][]int64    `json:"matrix,omitempty"`
	SpeedKph float64      `json:"speedKph,omitempty"`
	Options  SolveOptions `json:"options,omitempty"`
}

type SolveRecord struct {
	ID         string                `json:"id"`
	Status     string                `json:"status"` // running, done, failed
	CreatedAt  string                `json:"createdAt"`
	Indicators solver.Indicators     `json:"indicators"`
	Solution   solver.SolutionReport `json:"solution"`
	Error      string                `json:"error,omitempty"`
}

// Webhook subscription types.

type SubscriptionRequest struct {
	URL    string   `json:"url"`
	Events []string `json:"events"`
	Secret string   `json:"secret"`
}

type Subscription struct {
	ID     string   `json:"id"`
	URL    string   `json:"url"`
	Events []string `json:"events"`
	Secret string   `json:"secret,omitempty"`
}
