package dubins

import (
	"math"

	"morphing-planner/internal/planner/flightplan"
	"morphing-planner/pkg/types"
)

// Sweep describes a flown arc. Samples run from Start to End; for a right turn
// Start >= End (clockwise), for a left turn Start <= End.
type Sweep struct {
	Center   types.Vec2
	Radius   float64
	Start    float64
	End      float64
	Wingspan float64
	Turn     flightplan.Turn
}

// NewArc samples the arc on (center, radius) from point from to point to, turning
// in the commanded direction. RIGHT_TURN is clockwise, anything else counter-clockwise.
func NewArc(center types.Vec2, radius float64, from, to types.Vec2, turn flightplan.Turn, wingspan float64) ([]types.Vec2, Sweep) {
	start := types.NormalizeAngle(math.Atan2(from.Y-center.Y, from.X-center.X))
	end := types.NormalizeAngle(math.Atan2(to.Y-center.Y, to.X-center.X))

	if turn == flightplan.RIGHT_TURN {
		if end > start {
			start += 2 * math.Pi
		}
	} else if start > end {
		end += 2 * math.Pi
	}

	sweep := Sweep{
		Center:   center,
		Radius:   radius,
		Start:    start,
		End:      end,
		Wingspan: wingspan,
		Turn:     turn,
	}
	return sweep.Sample(ARC_SAMPLES), sweep
}

// Sample returns n points evenly spaced in angle, both ends included.
func (s Sweep) Sample(n int) []types.Vec2 {
	points := make([]types.Vec2, n)
	if n == 1 {
		points[0] = s.Center.Polar(s.Radius, s.Start)
		return points
	}
	step := (s.End - s.Start) / float64(n-1)
	for i := range points {
		points[i] = s.Center.Polar(s.Radius, s.Start+step*float64(i))
	}
	return points
}

// Span is the swept angle, always >= 0.
func (s Sweep) Span() float64 {
	return math.Abs(s.End - s.Start)
}

func (s Sweep) Length() float64 {
	return s.Radius * s.Span()
}

// Contains reports whether the polar angle lies on the flown part of the circle.
func (s Sweep) Contains(angle float64) bool {
	lo, hi := s.Start, s.End
	if lo > hi {
		lo, hi = hi, lo
	}
	if hi-lo >= 2*math.Pi {
		return true
	}
	lo = types.NormalizeAngle(lo)
	hi = types.NormalizeAngle(hi)
	a := types.NormalizeAngle(angle)
	if lo <= hi {
		return a >= lo && a <= hi
	}
	return a >= lo || a <= hi
}
