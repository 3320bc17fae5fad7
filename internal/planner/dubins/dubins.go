// Package dubins builds the tangent-and-arc primitives joining two turning circles.
package dubins

import (
	"errors"
	"fmt"
	"math"

	"morphing-planner/internal/planner/flightplan"
	"morphing-planner/pkg/types"
)

const ARC_SAMPLES = 50

var ErrInfeasible = errors.New("dubins: infeasible segment")

// InfeasibleError is returned when the requested tangent family does not exist
// for the given pair of circles.
type InfeasibleError struct {
	Mode     flightplan.Mode
	Distance float64
	RadiusA  float64
	RadiusB  float64
}

func (e *InfeasibleError) Error() string {
	return fmt.Sprintf("dubins: no %s tangent between circles of radius %.3f and %.3f at distance %.3f",
		e.Mode, e.RadiusA, e.RadiusB, e.Distance)
}

func (e *InfeasibleError) Unwrap() error { return ErrInfeasible }

// Tangent is the straight leg from the departure circle to the arrival circle.
type Tangent struct {
	From types.Vec2
	To   types.Vec2
	Mode flightplan.Mode
}

func (t Tangent) Length() float64 {
	return t.From.DistanceTo(t.To)
}

// NewTangent computes the tangent points between circle (a, ra) and circle (b, rb)
// for the given family.
func NewTangent(a, b types.Vec2, ra, rb float64, mode flightplan.Mode) (Tangent, error) {
	d := a.DistanceTo(b)
	bearing := a.BearingTo(b)

	var arg float64
	if mode.Crossing() {
		arg = (ra + rb) / d
		if d == 0 || d < ra+rb {
			return Tangent{}, &InfeasibleError{Mode: mode, Distance: d, RadiusA: ra, RadiusB: rb}
		}
	} else {
		arg = (ra - rb) / d
		if d == 0 || d <= math.Abs(ra-rb) {
			return Tangent{}, &InfeasibleError{Mode: mode, Distance: d, RadiusA: ra, RadiusB: rb}
		}
	}
	offset := math.Acos(math.Max(-1, math.Min(1, arg)))

	var theta float64
	switch mode {
	case flightplan.RSR, flightplan.RSL:
		theta = bearing + offset
	case flightplan.LSL, flightplan.LSR:
		theta = bearing - offset
	default:
		return Tangent{}, fmt.Errorf("dubins: unknown mode %v", mode)
	}

	from := a.Polar(ra, theta)
	var to types.Vec2
	if mode.Crossing() {
		// Arrival point is mirrored: the line crosses between the circles.
		to = b.Polar(-rb, theta)
	} else {
		to = b.Polar(rb, theta)
	}

	return Tangent{From: from, To: to, Mode: mode}, nil
}
