// Package airspace holds the obstacle field a plan is flown through.
package airspace

import (
	"fmt"
	"math"

	"morphing-planner/pkg/types"
)

// Field is the ordered obstacle list. The first circle is the start and the last
// the goal; both have radius 0.
type Field struct {
	Obstacles []types.Circle
}

func NewField(start, goal types.Vec2, interior []types.Circle) *Field {
	obstacles := make([]types.Circle, 0, len(interior)+2)
	obstacles = append(obstacles, types.Circle{Center: start})
	obstacles = append(obstacles, interior...)
	obstacles = append(obstacles, types.Circle{Center: goal})
	return &Field{Obstacles: obstacles}
}

func (f *Field) Len() int {
	return len(f.Obstacles)
}

func (f *Field) Start() types.Vec2 {
	return f.Obstacles[0].Center
}

func (f *Field) Goal() types.Vec2 {
	return f.Obstacles[len(f.Obstacles)-1].Center
}

// Interior returns the obstacles between start and goal.
func (f *Field) Interior() []types.Circle {
	return append([]types.Circle(nil), f.Obstacles[1:len(f.Obstacles)-1]...)
}

func (f *Field) Validate() error {
	if f == nil || len(f.Obstacles) < 2 {
		return fmt.Errorf("field needs a start and a goal")
	}
	for i, c := range f.Obstacles {
		if c.Center.IsNaN() || math.IsInf(c.Center.X, 0) || math.IsInf(c.Center.Y, 0) {
			return fmt.Errorf("obstacle %d has an invalid centre %v", i, c.Center)
		}
		if !(c.Radius >= 0) || math.IsInf(c.Radius, 0) {
			return fmt.Errorf("obstacle %d has an invalid radius %v", i, c.Radius)
		}
	}
	if f.Obstacles[0].Radius != 0 || f.Obstacles[len(f.Obstacles)-1].Radius != 0 {
		return fmt.Errorf("start and goal must have radius 0")
	}
	if f.Start() == f.Goal() {
		return fmt.Errorf("start and goal coincide at %v", f.Start())
	}
	return nil
}
