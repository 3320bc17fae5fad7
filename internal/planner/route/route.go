// Package route turns a genome into a flown path and scores it.
package route

import (
	"fmt"
	"math"

	"morphing-planner/internal/planner/conflict"
	"morphing-planner/internal/planner/dubins"
	"morphing-planner/internal/planner/flightplan"
	"morphing-planner/pkg/types"
)

// ArcRecord is the turn flown around one obstacle.
type ArcRecord struct {
	Obstacle int
	Points   []types.Vec2
	Sweep    dubins.Sweep
}

// TangentRecord is the straight leg between two turning obstacles.
type TangentRecord struct {
	From     int
	To       int
	Tangent  dubins.Tangent
	Wingspan float64
}

// Individual is a genome together with everything derived from it. It is built
// once and never modified afterwards.
type Individual struct {
	genome    flightplan.Genome
	obstacles []types.Circle
	eval      Evaluator

	path          []types.Vec2
	pathWingspans []float64
	arcs          []ArcRecord
	tangents      []TangentRecord
	crossed       []int
	forced        []int

	flightTime float64
	turns      int
	score      float64
	err        error
}

// New builds the path for genome through obstacles and scores it. The genome is
// copied; any tangency correction applies to that copy only. A genome whose path
// cannot be built is kept with Err set and an infinite score.
func New(obstacles []types.Circle, genome flightplan.Genome, eval Evaluator) *Individual {
	ind := &Individual{
		genome:    genome.Clone(),
		obstacles: obstacles,
		eval:      eval,
	}

	if err := ind.genome.Validate(len(obstacles)); err != nil {
		ind.fail(err)
		return ind
	}
	if err := ind.buildPath(); err != nil {
		ind.fail(err)
		return ind
	}

	ind.flightTime = ind.computeFlightTime()
	ind.turns = ind.genome.TurnCount()
	ind.score = eval.Score(len(ind.crossed), ind.flightTime, ind.turns)
	return ind
}

func (ind *Individual) fail(err error) {
	ind.err = err
	ind.flightTime = math.Inf(1)
	ind.score = math.Inf(1)
}

// turnRadius is the radius actually flown around obstacle k: the vehicle limit,
// or the obstacle plus half a wingspan if larger. Start and goal are points.
func (ind *Individual) turnRadius(k int) float64 {
	c := ind.obstacles[k]
	if c.IsPoint() {
		return 0
	}
	arc := ind.genome.Slots[flightplan.ArcSlot(k)]
	return math.Max(arc.MinTurnRadius, c.Radius+arc.Wingspan/2)
}

func (ind *Individual) nextTurn(i int) int {
	n := len(ind.obstacles)
	next := i + 1
	for next < n-1 && ind.genome.Tangency[next] == flightplan.NO_TURN {
		next++
	}
	return next
}

func (ind *Individual) buildPath() error {
	n := len(ind.obstacles)
	tangency := ind.genome.Tangency
	current := ind.obstacles[0].Center

	for i := 0; i < n-1; {
		next := ind.nextTurn(i)
		ci, cn := ind.obstacles[i].Center, ind.obstacles[next].Center
		ri, rn := ind.turnRadius(i), ind.turnRadius(next)

		// Crossing legs do not exist between overlapping circles.
		if conflict.CirclesOverlap(ci, ri, cn, rn) && tangency[next] != tangency[i] {
			tangency[next] = tangency[i]
			ind.forced = append(ind.forced, next)
		}

		mode, err := flightplan.ModeFor(tangency[i], tangency[next])
		if err != nil {
			return fmt.Errorf("segment %d->%d: %w", i, next, err)
		}
		tan, err := dubins.NewTangent(ci, cn, ri, rn, mode)
		if err != nil {
			return fmt.Errorf("segment %d->%d: %w", i, next, err)
		}

		arcWing := ind.genome.Slots[flightplan.ArcSlot(i)].Wingspan
		legWing := ind.genome.Slots[flightplan.StraightSlot(i)].Wingspan
		arcPoints, sweep := dubins.NewArc(ci, ri, current, tan.From, tangency[i], arcWing)

		ind.path = append(ind.path, arcPoints...)
		ind.path = append(ind.path, tan.From, tan.To)
		for range arcPoints {
			ind.pathWingspans = append(ind.pathWingspans, arcWing)
		}
		ind.pathWingspans = append(ind.pathWingspans, legWing, legWing)

		ind.arcs = append(ind.arcs, ArcRecord{Obstacle: i, Points: arcPoints, Sweep: sweep})
		ind.tangents = append(ind.tangents, TangentRecord{From: i, To: next, Tangent: tan, Wingspan: legWing})

		ind.scanCollisions(i, tan, sweep, legWing, arcWing)

		current = tan.To
		i = next
	}
	return nil
}

// scanCollisions tests the leg and arc leaving obstacle i against every other
// obstacle except the goal.
func (ind *Individual) scanCollisions(i int, tan dubins.Tangent, sweep dubins.Sweep, legWing, arcWing float64) {
	for j := 0; j < len(ind.obstacles)-1; j++ {
		if j == i {
			continue
		}
		c := ind.obstacles[j]
		hit := conflict.SegmentHitsCircle(tan.From, tan.To, c.Center, c.Radius+legWing/2) ||
			conflict.ArcHitsCircle(sweep, c.Center, c.Radius+arcWing/2)
		if hit {
			ind.markCrossed(j)
		}
	}
}

func (ind *Individual) markCrossed(j int) {
	for _, k := range ind.crossed {
		if k == j {
			return
		}
	}
	ind.crossed = append(ind.crossed, j)
}

func (ind *Individual) computeFlightTime() float64 {
	speeds := ind.eval.resampleSpeeds(ind.genome.Speeds(), len(ind.path))
	total := 0.0
	for k := 0; k+1 < len(ind.path); k++ {
		length := ind.path[k].DistanceTo(ind.path[k+1])
		vSum := speeds[k] + speeds[k+1]
		if vSum > 0 {
			total += 2 * length / vSum
		} else {
			total += length / ind.eval.FallbackSpeed
		}
	}
	return total
}

func (ind *Individual) Score() float64 { return ind.score }

func (ind *Individual) FlightTime() float64 { return ind.flightTime }

// TangencyPenalty is the number of obstacles the plan turns around.
func (ind *Individual) TangencyPenalty() int { return ind.turns }

// Err is the reason the path could not be built, or nil.
func (ind *Individual) Err() error { return ind.err }

func (ind *Individual) Feasible() bool { return ind.err == nil }

// Genome returns a copy of the genome, including any forced tangency.
func (ind *Individual) Genome() flightplan.Genome { return ind.genome.Clone() }

func (ind *Individual) Tangency() []flightplan.Turn {
	return append([]flightplan.Turn(nil), ind.genome.Tangency...)
}

// ForcedTurns lists the obstacles whose directive was overwritten because
// their turning circle overlapped the previous one.
func (ind *Individual) ForcedTurns() []int { return append([]int(nil), ind.forced...) }

// ObstaclesCrossed lists colliding obstacle indices in first-hit order.
func (ind *Individual) ObstaclesCrossed() []int { return append([]int(nil), ind.crossed...) }

func (ind *Individual) Path() []types.Vec2 { return append([]types.Vec2(nil), ind.path...) }

// PathWingspans holds the wingspan flown at each path point.
func (ind *Individual) PathWingspans() []float64 { return append([]float64(nil), ind.pathWingspans...) }

func (ind *Individual) Arcs() []ArcRecord { return append([]ArcRecord(nil), ind.arcs...) }

func (ind *Individual) Tangents() []TangentRecord { return append([]TangentRecord(nil), ind.tangents...) }

func (ind *Individual) PathLength() float64 {
	total := 0.0
	for k := 0; k+1 < len(ind.path); k++ {
		total += ind.path[k].DistanceTo(ind.path[k+1])
	}
	return total
}

func (ind *Individual) String() string {
	if ind.err != nil {
		return fmt.Sprintf("infeasible %s: %v", flightplan.FormatTangency(ind.genome.Tangency), ind.err)
	}
	return fmt.Sprintf("score %.1f time %.2fs crossed %v tangency %s",
		ind.score, ind.flightTime, ind.crossed, flightplan.FormatTangency(ind.genome.Tangency))
}
