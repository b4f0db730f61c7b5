package solver

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type moveCtor func(in *Input, st *SolutionState, sol Solution, sv, sr, tv, tr int) Move

var operatorTable = []struct {
	name     string
	make     moveCtor
	sRankMax func(s *TWRoute) int // exclusive
	tRankMax func(t *TWRoute) int // exclusive
}{
	{
		name: "exchange",
		make: func(in *Input, st *SolutionState, sol Solution, sv, sr, tv, tr int) Move {
			return newExchange(in, st, sol, sv, sr, tv, tr)
		},
		sRankMax: func(s *TWRoute) int { return s.Len() },
		tRankMax: func(t *TWRoute) int { return t.Len() },
	},
	{
		name: "cross_exchange",
		make: func(in *Input, st *SolutionState, sol Solution, sv, sr, tv, tr int) Move {
			return newCrossExchange(in, st, sol, sv, sr, tv, tr)
		},
		sRankMax: func(s *TWRoute) int { return s.Len() - 1 },
		tRankMax: func(t *TWRoute) int { return t.Len() - 1 },
	},
	{
		name: "two_opt_star",
		make: func(in *Input, st *SolutionState, sol Solution, sv, sr, tv, tr int) Move {
			return newTwoOptStar(in, st, sol, sv, sr, tv, tr)
		},
		sRankMax: func(s *TWRoute) int { return s.Len() },
		tRankMax: func(t *TWRoute) int { return t.Len() },
	},
	{
		name: "reverse_two_opt_star",
		make: func(in *Input, st *SolutionState, sol Solution, sv, sr, tv, tr int) Move {
			return newReverseTwoOptStar(in, st, sol, sv, sr, tv, tr)
		},
		sRankMax: func(s *TWRoute) int { return s.Len() },
		tRankMax: func(t *TWRoute) int { return t.Len() },
	},
	{
		name: "relocate",
		make: func(in *Input, st *SolutionState, sol Solution, sv, sr, tv, tr int) Move {
			return newRelocate(in, st, sol, sv, sr, tv, tr)
		},
		sRankMax: func(s *TWRoute) int { return s.Len() },
		tRankMax: func(t *TWRoute) int { return t.Len() + 1 },
	},
	{
		name: "or_opt",
		make: func(in *Input, st *SolutionState, sol Solution, sv, sr, tv, tr int) Move {
			return newOrOpt(in, st, sol, sv, sr, tv, tr)
		},
		sRankMax: func(s *TWRoute) int { return s.Len() - 1 },
		tRankMax: func(t *TWRoute) int { return t.Len() + 1 },
	},
}

// Gain accounting: for every operator shape and every rank pair, the
// stored gain must equal the cost delta actually realized by applying
// the move, recomputed from scratch on a cloned solution.
func TestOperatorGainAccounting(t *testing.T) {
	for _, op := range operatorTable {
		t.Run(op.name, func(t *testing.T) {
			in, sol := asymmetricFixture(t)
			st := NewSolutionState(in)
			st.Setup(sol)

			checked := 0
			for _, pair := range [][2]int{{0, 1}, {1, 0}} {
				sv, tv := pair[0], pair[1]
				for sr := 0; sr < op.sRankMax(sol[sv]); sr++ {
					for tr := 0; tr < op.tRankMax(sol[tv]); tr++ {
						probe := op.make(in, st, sol, sv, sr, tv, tr)
						if !probe.IsValid() {
							continue
						}
						clone := cloneSolution(t, in, sol)
						cst := NewSolutionState(in)
						cst.Setup(clone)
						m := op.make(in, cst, clone, sv, sr, tv, tr)
						require.Equal(t, probe.Gain(), m.Gain())

						before := totalCost(in, clone)
						m.Apply()
						after := totalCost(in, clone)
						assert.Equal(t, before-after, m.Gain(),
							"%s (%d,%d,%d,%d)", op.name, sv, sr, tv, tr)
						checked++
					}
				}
			}
			require.Greater(t, checked, 0, "fixture admitted no valid %s", op.name)
		})
	}
}

// Applying Relocate and then relocating back restores routes and caches
// exactly.
func TestRelocateRoundTrip(t *testing.T) {
	in, sol := asymmetricFixture(t)
	st := NewSolutionState(in)
	st.Setup(sol)

	origS := append([]int(nil), sol[0].Jobs...)
	origT := append([]int(nil), sol[1].Jobs...)

	fwd := newRelocate(in, st, sol, 0, 1, 1, 2)
	require.True(t, fwd.IsValid())
	fwd.Apply()
	for v, r := range sol {
		st.UpdateRouteCost(r.Jobs, v)
		st.UpdateAmounts(r.Jobs, v)
		st.UpdateCosts(r.Jobs, v)
		st.SetNodeGains(r.Jobs, v)
		st.SetEdgeGains(r.Jobs, v)
		st.UpdateSkills(r.Jobs, v)
	}

	back := newRelocate(in, st, sol, 1, 2, 0, 1)
	require.True(t, back.IsValid())
	assert.Equal(t, -fwd.Gain(), back.Gain())
	back.Apply()

	assert.Equal(t, origS, sol[0].Jobs)
	assert.Equal(t, origT, sol[1].Jobs)

	for v, r := range sol {
		st.UpdateRouteCost(r.Jobs, v)
		st.UpdateAmounts(r.Jobs, v)
		st.UpdateCosts(r.Jobs, v)
		st.SetNodeGains(r.Jobs, v)
		st.SetEdgeGains(r.Jobs, v)
		st.UpdateSkills(r.Jobs, v)
	}
	fresh := NewSolutionState(in)
	fresh.Setup(sol)
	assert.Equal(t, fresh.RouteCosts, st.RouteCosts)
	assert.Equal(t, fresh.FwdAmounts, st.FwdAmounts)
	assert.Equal(t, fresh.BwdAmounts, st.BwdAmounts)
	assert.Equal(t, fresh.NodeGains, st.NodeGains)
	assert.Equal(t, fresh.EdgeGains, st.EdgeGains)
}

// A 2-opt* suffix swap that would overload one side must report itself
// invalid.
func TestTwoOptStarRejectsOverload(t *testing.T) {
	// Route 0 carries light jobs, route 1 heavy ones; swapping suffixes
	// would push route 0 over its capacity of 3.
	m := make(Matrix, 6)
	for i := range m {
		m[i] = make([]Cost, 6)
		for j := range m[i] {
			if i != j {
				m[i][j] = Cost(10 + (i+j)%3)
			}
		}
	}
	jobs := []Job{
		{ID: "l0", Location: 2, Amount: Amount{1}, TWs: wideTW()},
		{ID: "l1", Location: 3, Amount: Amount{1}, TWs: wideTW()},
		{ID: "h0", Location: 4, Amount: Amount{3}, TWs: wideTW()},
		{ID: "h1", Location: 5, Amount: Amount{3}, TWs: wideTW()},
	}
	vehicles := []Vehicle{
		{ID: "light", Start: intp(0), End: intp(0), Capacity: Amount{3}, TW: TimeWindow{0, 1 << 30}},
		{ID: "heavy", Start: intp(1), End: intp(1), Capacity: Amount{6}, TW: TimeWindow{0, 1 << 30}},
	}
	in := mustInput(t, jobs, vehicles, m)
	sol := Solution{
		mustRoute(t, in, 0, 0, 1),
		mustRoute(t, in, 1, 2, 3),
	}
	st := NewSolutionState(in)
	st.Setup(sol)

	m2 := newTwoOptStar(in, st, sol, 0, 0, 1, 0)
	assert.False(t, m2.IsValid(), "route 0 cannot absorb a 3-unit suffix")
}

func TestExchangeRejectsMissingSkill(t *testing.T) {
	in, sol := asymmetricFixture(t)
	in.Jobs[3].Skills = 0b1
	in.Vehicles[1].Skills = 0b1 // only vehicle 1 can serve job 3
	st := NewSolutionState(in)
	st.Setup(sol)

	m := newExchange(in, st, sol, 0, 0, 1, 0)
	assert.False(t, m.IsValid(), "job 3 cannot move to vehicle 0")
}

func TestAdditionCostMatchesRouteCostDelta(t *testing.T) {
	in, sol := asymmetricFixture(t)
	r := sol[0]
	for rank := 0; rank <= r.Len(); rank++ {
		spliced := append([]int(nil), r.Jobs[:rank]...)
		spliced = append(spliced, 5)
		spliced = append(spliced, r.Jobs[rank:]...)
		want := routeCost(in, 0, spliced) - routeCost(in, 0, r.Jobs)
		assert.Equal(t, want, additionCost(in, 5, 0, r.Jobs, rank), "rank %d", rank)
	}
}
