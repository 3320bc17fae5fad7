package types

import "math"

type Vec2 struct {
	X float64
	Y float64
}

func NewVec2(x, y float64) Vec2 {
	return Vec2{x, y}
}

func (v1 Vec2) DistanceTo(v2 Vec2) float64 {
	dx := v1.X - v2.X
	dy := v1.Y - v2.Y
	return math.Sqrt(dx*dx + dy*dy)
}

func (v1 Vec2) Add(v2 Vec2) Vec2 {
	return Vec2{v1.X + v2.X, v1.Y + v2.Y}
}

func (v1 Vec2) Sub(v2 Vec2) Vec2 {
	return Vec2{v1.X - v2.X, v1.Y - v2.Y}
}

func (v1 Vec2) Scale(k float64) Vec2 {
	return Vec2{v1.X * k, v1.Y * k}
}

func (v1 Vec2) Dot(v2 Vec2) float64 {
	return v1.X*v2.X + v1.Y*v2.Y
}

func (v1 Vec2) Len() float64 {
	return math.Hypot(v1.X, v1.Y)
}

// BearingTo is the mathematical angle (radians, CCW from +X) of the vector v1->v2.
func (v1 Vec2) BearingTo(v2 Vec2) float64 {
	return math.Atan2(v2.Y-v1.Y, v2.X-v1.X)
}

// Polar returns the point at distance r and angle theta from v1.
func (v1 Vec2) Polar(r, theta float64) Vec2 {
	return Vec2{v1.X + r*math.Cos(theta), v1.Y + r*math.Sin(theta)}
}

func (v1 Vec2) IsNaN() bool {
	return math.IsNaN(v1.X) || math.IsNaN(v1.Y)
}

// Circle is an obstacle footprint. Start and goal are circles of radius 0.
type Circle struct {
	Center Vec2
	Radius float64
}

func NewCircle(x, y, radius float64) Circle {
	return Circle{Center: Vec2{x, y}, Radius: radius}
}

func (c Circle) IsPoint() bool {
	return c.Radius == 0
}

// NormalizeAngle maps a to [0, 2π).
func NormalizeAngle(a float64) float64 {
	a = math.Mod(a, 2*math.Pi)
	if a < 0 {
		a += 2 * math.Pi
	}
	return a
}
