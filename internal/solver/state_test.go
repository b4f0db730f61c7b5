package solver

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSetupComputesAllFields(t *testing.T) {
	in, sol := asymmetricFixture(t)
	st := NewSolutionState(in)
	st.Setup(sol)

	assert.Empty(t, st.Unassigned, "all six jobs are routed")
	for v, r := range sol {
		assert.Equal(t, routeCost(in, v, r.Jobs), st.RouteCosts[v])
		assert.Len(t, st.FwdAmounts[v], r.Len())
		assert.Equal(t, Amount{3}, st.TotalAmount(v))
		assert.Equal(t, st.FwdAmounts[v][r.Len()-1], st.TotalAmount(v))
		// Forward and backward cumulative amounts overlap on the total.
		for rank := 0; rank < r.Len(); rank++ {
			sum := st.FwdAmounts[v][rank].Plus(st.BwdAmounts[v][rank])
			sum.Sub(in.Jobs[r.Jobs[rank]].Amount)
			assert.Equal(t, st.TotalAmount(v), sum)
		}
	}
}

func TestSetupDerivesUnassigned(t *testing.T) {
	in, sol := asymmetricFixture(t)
	sol[1].Remove(in, 1, 1) // drop job 4 from the second route
	st := NewSolutionState(in)
	st.Setup(sol)
	require.Len(t, st.Unassigned, 1)
	_, ok := st.Unassigned[4]
	assert.True(t, ok)
}

func TestNodeAndEdgeGains(t *testing.T) {
	in, sol := asymmetricFixture(t)
	st := NewSolutionState(in)
	st.Setup(sol)

	for v, r := range sol {
		for rank := 0; rank < r.Len(); rank++ {
			trimmed := append([]int(nil), r.Jobs[:rank]...)
			trimmed = append(trimmed, r.Jobs[rank+1:]...)
			want := routeCost(in, v, r.Jobs) - routeCost(in, v, trimmed)
			assert.Equal(t, want, st.NodeGains[v][rank], "node gain v%d rank%d", v, rank)
		}
		for rank := 0; rank+1 < r.Len(); rank++ {
			trimmed := append([]int(nil), r.Jobs[:rank]...)
			trimmed = append(trimmed, r.Jobs[rank+2:]...)
			want := routeCost(in, v, r.Jobs) - routeCost(in, v, trimmed)
			assert.Equal(t, want, st.EdgeGains[v][rank], "edge gain v%d rank%d", v, rank)
		}
	}
}

func TestDirectionalCosts(t *testing.T) {
	in, sol := asymmetricFixture(t)
	st := NewSolutionState(in)
	st.Setup(sol)

	for v, r := range sol {
		var fwd, bwd Cost
		for i := 1; i < r.Len(); i++ {
			prev := in.Jobs[r.Jobs[i-1]].Location
			cur := in.Jobs[r.Jobs[i]].Location
			fwd += in.cost(prev, cur)
			bwd += in.cost(cur, prev)
			assert.Equal(t, fwd, st.FwdCosts[v][i])
			assert.Equal(t, bwd, st.BwdCosts[v][i])
		}
	}
}

// Cache coherence: after mutating a route and running the update
// methods, every stored field matches a from-scratch recomputation.
func TestCacheCoherenceAfterUpdate(t *testing.T) {
	in, sol := asymmetricFixture(t)
	st := NewSolutionState(in)
	st.Setup(sol)

	// Move job 2 from route 0 to route 1.
	sol[0].Remove(in, 2, 1)
	sol[1].Add(in, 2, 1)
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
	assert.Equal(t, fresh.FwdCosts, st.FwdCosts)
	assert.Equal(t, fresh.BwdCosts, st.BwdCosts)
	assert.Equal(t, fresh.NodeGains, st.NodeGains)
	assert.Equal(t, fresh.EdgeGains, st.EdgeGains)
	assert.Equal(t, fresh.RouteSkills, st.RouteSkills)
}

func TestUpdateSkills(t *testing.T) {
	in, sol := asymmetricFixture(t)
	in.Jobs[0].Skills = 0b01
	in.Jobs[2].Skills = 0b10
	st := NewSolutionState(in)
	st.Setup(sol)
	assert.Equal(t, Skills(0b11), st.RouteSkills[0])
	assert.Equal(t, Skills(0), st.RouteSkills[1])
}
