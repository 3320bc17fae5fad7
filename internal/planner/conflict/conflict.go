package conflict

import (
	"math"

	"morphing-planner/internal/planner/dubins"
	"morphing-planner/pkg/types"
)

const (
	// Subtracted from the clearance radius so that legs grazing a circle are not flagged.
	COLLISION_TOLERANCE = 0.01
)

// CirclesOverlap reports whether two turning circles touch or intersect.
func CirclesOverlap(c1 types.Vec2, r1 float64, c2 types.Vec2, r2 float64) bool {
	return c1.DistanceTo(c2) <= r1+r2
}

// DistanceToSegment is the distance from p to the segment a-b.
func DistanceToSegment(p, a, b types.Vec2) float64 {
	// line through a, b as A*x + B*y + C = 0
	la := b.Y - a.Y
	lb := a.X - b.X
	lc := b.X*a.Y - a.X*b.Y
	lineDist := math.Abs(la*p.X+lb*p.Y+lc) / math.Sqrt(la*la+lb*lb)

	dot1 := p.Sub(a).Dot(b.Sub(a))
	dot2 := p.Sub(b).Dot(a.Sub(b))
	if dot1 >= 0 && dot2 >= 0 {
		return lineDist
	}
	return math.Min(p.DistanceTo(a), p.DistanceTo(b))
}

// SegmentHitsCircle checks a straight leg against an inflated obstacle.
func SegmentHitsCircle(p1, p2, center types.Vec2, radius float64) bool {
	if p1 == p2 || p1 == center || p2 == center {
		return false
	}
	return DistanceToSegment(center, p1, p2) < radius-COLLISION_TOLERANCE
}

// CircleIntersections returns the crossing points of two circles. ok is false when
// they are disjoint, nested or concentric.
func CircleIntersections(c1 types.Vec2, r1 float64, c2 types.Vec2, r2 float64) (p1, p2 types.Vec2, ok bool) {
	d := c1.DistanceTo(c2)
	if d == 0 || d > r1+r2 || d < math.Abs(r1-r2) {
		return types.Vec2{}, types.Vec2{}, false
	}

	a := (r1*r1 - r2*r2 + d*d) / (2 * d)
	h := math.Sqrt(math.Max(r1*r1-a*a, 0))
	dx, dy := (c2.X-c1.X)/d, (c2.Y-c1.Y)/d
	mid := types.NewVec2(c1.X+a*dx, c1.Y+a*dy)

	p1 = types.NewVec2(mid.X+h*dy, mid.Y-h*dx)
	p2 = types.NewVec2(mid.X-h*dy, mid.Y+h*dx)
	return p1, p2, true
}

// ArcHitsCircle checks the flown part of a turn against an inflated obstacle.
func ArcHitsCircle(sweep dubins.Sweep, center types.Vec2, radius float64) bool {
	if sweep.Radius == 0 {
		return false
	}
	p1, p2, ok := CircleIntersections(sweep.Center, sweep.Radius, center, radius)
	if !ok {
		return false
	}
	for _, p := range [2]types.Vec2{p1, p2} {
		if sweep.Contains(math.Atan2(p.Y-sweep.Center.Y, p.X-sweep.Center.X)) {
			return true
		}
	}
	return false
}
