package route

import (
	"errors"
	"math"
	"math/rand/v2"
	"testing"

	"morphing-planner/internal/planner/aircraft"
	"morphing-planner/internal/planner/dubins"
	"morphing-planner/internal/planner/flightplan"
	"morphing-planner/pkg/types"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	RT = flightplan.RIGHT_TURN
	LT = flightplan.LEFT_TURN
	NT = flightplan.NO_TURN
)

// twoObstacles: start, two radius-2 obstacles 10 apart, goal, all on y=0.
func twoObstacles() []types.Circle {
	return []types.Circle{
		types.NewCircle(0, 0, 0),
		types.NewCircle(10, 0, 2),
		types.NewCircle(20, 0, 2),
		types.NewCircle(30, 0, 0),
	}
}

func uniform(t *testing.T, tangency []flightplan.Turn, wingspan float64) flightplan.Genome {
	t.Helper()
	g, err := flightplan.NewUniformGenome(tangency, wingspan, aircraft.DefaultModel())
	require.NoError(t, err)
	return g
}

func TestStraightLineCollides(t *testing.T) {
	ind := New(twoObstacles(), uniform(t, []flightplan.Turn{RT, NT, NT, LT}, 0.5), DefaultEvaluator())
	require.NoError(t, ind.Err())

	assert.Equal(t, []int{1, 2}, ind.ObstaclesCrossed())
	assert.InDelta(t, 30, ind.PathLength(), 1e-9)
	assert.GreaterOrEqual(t, ind.Score(), 2e7)
	assert.Len(t, ind.Tangents(), 1)
}

func TestDetourIsCollisionFree(t *testing.T) {
	model := aircraft.DefaultModel()
	params, err := model.Derive(0.5)
	require.NoError(t, err)

	ind := New(twoObstacles(), uniform(t, []flightplan.Turn{RT, LT, LT, LT}, 0.5), DefaultEvaluator())
	require.NoError(t, ind.Err())

	assert.Empty(t, ind.ObstaclesCrossed())
	assert.Empty(t, ind.ForcedTurns())
	assert.Equal(t, []flightplan.Turn{RT, LT, LT, LT}, ind.Tangency())
	assert.Equal(t, 4, ind.TangencyPenalty())

	// uniform speed: time is length over speed
	assert.InDelta(t, ind.PathLength()/params.Speed, ind.FlightTime(), 1e-9)
	assert.Greater(t, ind.PathLength(), 30.0)
	assert.Less(t, ind.PathLength(), 31.5)

	want := DefaultWeights().Time*ind.FlightTime() + DefaultWeights().Turn*4
	assert.InDelta(t, want, ind.Score(), 1e-6)

	// three steps: start->1, 1->2, 2->goal
	require.Len(t, ind.Tangents(), 3)
	require.Len(t, ind.Arcs(), 3)
	assert.Len(t, ind.Path(), 3*(dubins.ARC_SAMPLES+2))
	assert.Len(t, ind.PathWingspans(), len(ind.Path()))
}

func TestTurnRadiusClearsObstacle(t *testing.T) {
	ind := New(twoObstacles(), uniform(t, []flightplan.Turn{RT, LT, LT, LT}, 0.6), DefaultEvaluator())
	require.NoError(t, ind.Err())

	for _, arc := range ind.Arcs() {
		c := twoObstacles()[arc.Obstacle]
		if c.IsPoint() {
			assert.Zero(t, arc.Sweep.Radius)
			continue
		}
		assert.InDelta(t, c.Radius+0.3, arc.Sweep.Radius, 1e-12)
		for _, p := range arc.Points {
			assert.InDelta(t, arc.Sweep.Radius, p.DistanceTo(c.Center), 1e-9)
		}
	}
}

func TestOverlappingPairForcesMatchingTurn(t *testing.T) {
	obstacles := []types.Circle{
		types.NewCircle(0, 0, 0),
		types.NewCircle(10, 0, 2),
		types.NewCircle(13, 0, 2),
		types.NewCircle(16, 0, 2),
		types.NewCircle(30, 0, 0),
	}
	input := uniform(t, []flightplan.Turn{RT, RT, LT, RT, LT}, 0.5)

	ind := New(obstacles, input, DefaultEvaluator())
	require.NoError(t, ind.Err())

	assert.Equal(t, []flightplan.Turn{RT, RT, RT, RT, LT}, ind.Tangency())
	assert.Equal(t, []int{2}, ind.ForcedTurns())
	// the caller's genome is untouched
	assert.Equal(t, LT, input.Tangency[2])

	skip := uniform(t, []flightplan.Turn{RT, LT, RT, NT, LT}, 0.5)
	ind = New(obstacles, skip, DefaultEvaluator())
	require.NoError(t, ind.Err())
	assert.Equal(t, LT, ind.Tangency()[2])
	assert.Equal(t, []int{2}, ind.ForcedTurns())
}

func TestInfeasibleSegmentIsTyped(t *testing.T) {
	// start inside the first obstacle's turning circle
	obstacles := []types.Circle{
		types.NewCircle(0, 0, 0),
		types.NewCircle(1, 0, 2),
		types.NewCircle(10, 0, 0),
	}
	ind := New(obstacles, uniform(t, []flightplan.Turn{RT, LT, LT}, 0.5), DefaultEvaluator())

	require.Error(t, ind.Err())
	assert.True(t, errors.Is(ind.Err(), dubins.ErrInfeasible))
	assert.False(t, ind.Feasible())
	assert.True(t, math.IsInf(ind.Score(), 1))
	for _, p := range ind.Path() {
		assert.False(t, p.IsNaN())
	}
}

func TestInvalidGenomeIsRejected(t *testing.T) {
	ind := New(twoObstacles(), uniform(t, []flightplan.Turn{RT, LT}, 0.5), DefaultEvaluator())
	assert.Error(t, ind.Err())
	assert.True(t, math.IsInf(ind.Score(), 1))
}

func randomField(rng *rand.Rand, n int) []types.Circle {
	obstacles := []types.Circle{types.NewCircle(0, 0, 0)}
	for i := 1; i < n-1; i++ {
		obstacles = append(obstacles, types.NewCircle(float64(i)*6, rng.Float64()*6-3, 0.6+rng.Float64()*1.4))
	}
	return append(obstacles, types.NewCircle(float64(n)*6, 0, 0))
}

func TestDeterministicAndSetSemantics(t *testing.T) {
	rng := rand.New(rand.NewPCG(11, 13))
	model := aircraft.DefaultModel()

	for trial := 0; trial < 50; trial++ {
		obstacles := randomField(rng, 7)
		g, err := flightplan.NewRandomGenome(len(obstacles), model, rng)
		require.NoError(t, err)

		a := New(obstacles, g, DefaultEvaluator())
		b := New(obstacles, g, DefaultEvaluator())

		assert.Equal(t, a.Path(), b.Path())
		assert.Equal(t, a.ObstaclesCrossed(), b.ObstaclesCrossed())
		assert.Equal(t, a.Tangency(), b.Tangency())
		if a.Feasible() {
			assert.Equal(t, a.Score(), b.Score())
		}

		seen := map[int]bool{}
		for _, j := range a.ObstaclesCrossed() {
			assert.False(t, seen[j], "duplicate obstacle %d", j)
			seen[j] = true
			assert.GreaterOrEqual(t, j, 0)
			assert.Less(t, j, len(obstacles)-1, "goal is never reported")
		}
	}
}

func TestCollisionSetIgnoresObstacleOrder(t *testing.T) {
	visited := types.NewCircle(10, 0, 2)
	skipped := []types.Circle{
		types.NewCircle(20, 0, 2),
		types.NewCircle(5, 6, 1),
		types.NewCircle(15, -6, 1),
	}
	tangency := []flightplan.Turn{RT, LT, NT, NT, NT, LT}

	build := func(order []int) (*Individual, []types.Circle) {
		obstacles := []types.Circle{types.NewCircle(0, 0, 0), visited}
		for _, k := range order {
			obstacles = append(obstacles, skipped[k])
		}
		obstacles = append(obstacles, types.NewCircle(30, 0, 0))
		ind := New(obstacles, uniform(t, tangency, 0.5), DefaultEvaluator())
		require.NoError(t, ind.Err())
		return ind, obstacles
	}
	hitCircles := func(ind *Individual, obstacles []types.Circle) []types.Circle {
		var out []types.Circle
		for _, j := range ind.ObstaclesCrossed() {
			out = append(out, obstacles[j])
		}
		return out
	}

	base, baseObstacles := build([]int{0, 1, 2})
	want := hitCircles(base, baseObstacles)
	require.NotEmpty(t, want)
	assert.Contains(t, want, skipped[0])

	for _, order := range [][]int{{0, 2, 1}, {1, 0, 2}, {1, 2, 0}, {2, 0, 1}, {2, 1, 0}} {
		ind, obstacles := build(order)
		assert.ElementsMatch(t, want, hitCircles(ind, obstacles), "order %v", order)
		assert.Equal(t, base.Path(), ind.Path(), "order %v", order)
		assert.Equal(t, base.Score(), ind.Score(), "order %v", order)
	}
}

func TestCollisionDominatesTime(t *testing.T) {
	straight := New(twoObstacles(), uniform(t, []flightplan.Turn{RT, NT, NT, LT}, 0.5), DefaultEvaluator())
	detour := New(twoObstacles(), uniform(t, []flightplan.Turn{RT, LT, LT, LT}, 0.5), DefaultEvaluator())

	require.NotEmpty(t, straight.ObstaclesCrossed())
	require.Empty(t, detour.ObstaclesCrossed())
	assert.Less(t, straight.FlightTime(), detour.FlightTime())
	assert.Greater(t, straight.Score(), detour.Score())
}

func TestResampleSpeeds(t *testing.T) {
	e := DefaultEvaluator()
	assert.Equal(t, []float64{1, 2, 2, 2}, e.resampleSpeeds([]float64{1, 2}, 4))
	assert.Equal(t, []float64{1, 2}, e.resampleSpeeds([]float64{1, 2, 3}, 2))
	assert.Equal(t, []float64{5, 3, 3}, e.resampleSpeeds([]float64{0, 3}, 3))
}
