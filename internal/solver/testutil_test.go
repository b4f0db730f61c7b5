package solver

import (
	"sort"
	"testing"

	"github.com/stretchr/testify/require"
)

func intp(i int) *int { return &i }

func wideTW() []TimeWindow { return []TimeWindow{{Start: 0, End: 1 << 30}} }

func unit() Amount { return Amount{1} }

func mustInput(t *testing.T, jobs []Job, vehicles []Vehicle, m Matrix) *Input {
	t.Helper()
	dim := 1
	if len(vehicles) > 0 {
		dim = len(vehicles[0].Capacity)
	}
	in, err := NewInput(jobs, vehicles, m, dim)
	require.NoError(t, err)
	return in
}

func mustRoute(t *testing.T, in *Input, v int, jobs ...int) *TWRoute {
	t.Helper()
	r, err := NewTWRoute(in, v, jobs)
	require.NoError(t, err)
	return r
}

func cloneSolution(t *testing.T, in *Input, sol Solution) Solution {
	t.Helper()
	out := make(Solution, len(sol))
	for v, r := range sol {
		out[v] = mustRoute(t, in, v, r.Jobs...)
	}
	return out
}

func totalCost(in *Input, sol Solution) Cost {
	var c Cost
	for v, r := range sol {
		c += routeCost(in, v, r.Jobs)
	}
	return c
}

func sortedJobs(r *TWRoute) []int {
	out := append([]int(nil), r.Jobs...)
	sort.Ints(out)
	return out
}

// asymmetricFixture is a two-vehicle, six-job instance over an
// asymmetric matrix with loose capacities and wide windows, used to
// exercise gain arithmetic on every operator shape.
func asymmetricFixture(t *testing.T) (*Input, Solution) {
	t.Helper()
	const n = 8 // 0, 1 depots; 2..7 jobs
	m := make(Matrix, n)
	for i := 0; i < n; i++ {
		m[i] = make([]Cost, n)
		for j := 0; j < n; j++ {
			if i != j {
				m[i][j] = Cost((i*7+j*13)%23 + 1)
			}
		}
	}
	jobs := make([]Job, 6)
	for i := range jobs {
		jobs[i] = Job{ID: string(rune('a' + i)), Location: i + 2, Amount: unit(), TWs: wideTW()}
	}
	vehicles := []Vehicle{
		{ID: "v0", Start: intp(0), End: intp(0), Capacity: Amount{10}, TW: TimeWindow{0, 1 << 30}},
		{ID: "v1", Start: intp(1), End: intp(1), Capacity: Amount{10}, TW: TimeWindow{0, 1 << 30}},
	}
	in := mustInput(t, jobs, vehicles, m)
	sol := Solution{
		mustRoute(t, in, 0, 0, 1, 2),
		mustRoute(t, in, 1, 3, 4, 5),
	}
	return in, sol
}
