package solver

import "math"

// Cost is a travel cost in matrix units (seconds for duration matrices).
// Integer costs make strict-improvement termination arguments exact.
type Cost int64

// Matrix is a dense travel-cost matrix indexed by location.
type Matrix [][]Cost

func (m Matrix) Cost(from, to int) Cost {
	return m[from][to]
}

func (m Matrix) Size() int {
	return len(m)
}

// DurationMatrix builds a travel-duration matrix (seconds) from
// coordinates at the given average speed.
func DurationMatrix(coords [][2]float64, speedKph float64) Matrix {
	if speedKph <= 0 {
		speedKph = 50
	}
	speed := speedKph / 3.6
	n := len(coords)
	m := make(Matrix, n)
	for i := range m {
		m[i] = make([]Cost, n)
		for j := range m[i] {
			if i == j {
				continue
			}
			d := haversine(coords[i][0], coords[i][1], coords[j][0], coords[j][1])
			m[i][j] = Cost(math.Round(d / speed))
		}
	}
	return m
}

func haversine(lat1, lon1, lat2, lon2 float64) float64 {
	const R = 6371000.0
	dLat := (lat2 - lat1) * math.Pi / 180
	dLon := (lon2 - lon1) * math.Pi / 180
	a := math.Sin(dLat/2)*math.Sin(dLat/2) + math.Cos(lat1*math.Pi/180)*math.Cos(lat2*math.Pi/180)*math.Sin(dLon/2)*math.Sin(dLon/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
	return R * c
}
