// Package report renders planned paths and run traces to image files.
package report

import (
	"fmt"
	"image/color"
	"math"

	"morphing-planner/internal/planner/airspace"
	"morphing-planner/internal/planner/evolution"
	"morphing-planner/internal/planner/flightplan"
	"morphing-planner/internal/planner/route"
	"morphing-planner/pkg/types"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
)

const (
	CIRCLE_VERTICES = 120
	PAD_FRACTION    = 0.08
)

var (
	obstacleColor = color.RGBA{128, 128, 128, 90}
	pathColor     = color.RGBA{0, 80, 255, 255}
	ribbonColor   = color.RGBA{0, 80, 255, 90}
	collideColor  = color.RGBA{220, 0, 0, 120}
	startColor    = color.RGBA{0, 140, 0, 255}
	goalColor     = color.RGBA{220, 0, 0, 255}
)

func circlePolygon(c types.Circle, n int) plotter.XYs {
	pts := make(plotter.XYs, n+1)
	for i := 0; i <= n; i++ {
		p := c.Center.Polar(c.Radius, 2*math.Pi*float64(i)/float64(n))
		pts[i].X, pts[i].Y = p.X, p.Y
	}
	return pts
}

func toXYs(points []types.Vec2) plotter.XYs {
	xy := make(plotter.XYs, len(points))
	for i, p := range points {
		xy[i].X, xy[i].Y = p.X, p.Y
	}
	return xy
}

// ribbon offsets the path sideways by half the wingspan flown at each point.
func ribbon(path []types.Vec2, wingspans []float64, side float64) []types.Vec2 {
	out := make([]types.Vec2, 0, len(path))
	for i := range path {
		j, k := max(i-1, 0), min(i+1, len(path)-1)
		dir := path[k].Sub(path[j])
		if dir.Len() == 0 {
			continue
		}
		normal := types.NewVec2(-dir.Y, dir.X).Scale(side * wingspans[i] / 2 / dir.Len())
		out = append(out, path[i].Add(normal))
	}
	return out
}

func bounds(field *airspace.Field, path []types.Vec2) (xmin, xmax, ymin, ymax float64) {
	xmin, ymin = math.Inf(1), math.Inf(1)
	xmax, ymax = math.Inf(-1), math.Inf(-1)
	grow := func(x, y, r float64) {
		xmin, xmax = math.Min(xmin, x-r), math.Max(xmax, x+r)
		ymin, ymax = math.Min(ymin, y-r), math.Max(ymax, y+r)
	}
	for _, c := range field.Obstacles {
		grow(c.Center.X, c.Center.Y, c.Radius)
	}
	for _, p := range path {
		grow(p.X, p.Y, 0)
	}
	px := PAD_FRACTION * math.Max(1e-9, xmax-xmin)
	py := PAD_FRACTION * math.Max(1e-9, ymax-ymin)
	return xmin - px, xmax + px, ymin - py, ymax + py
}

// PathPlot draws the field, the flown path and its wingspan ribbon. Obstacles
// the path crosses are shaded red. best may be nil to draw the field alone.
func PathPlot(field *airspace.Field, best *route.Individual) (*plot.Plot, error) {
	p := plot.New()
	p.Title.Text = "Planned path"
	p.X.Label.Text = "x (m)"
	p.Y.Label.Text = "y (m)"
	p.Add(plotter.NewGrid())

	var path []types.Vec2
	crossed := map[int]bool{}
	if best != nil {
		path = best.Path()
		for _, j := range best.ObstaclesCrossed() {
			crossed[j] = true
		}
		p.Title.Text = fmt.Sprintf("Planned path: %.2f s, tangency %s", best.FlightTime(), flightplan.FormatTangency(best.Tangency()))
	}
	p.X.Min, p.X.Max, p.Y.Min, p.Y.Max = bounds(field, path)

	for i, c := range field.Obstacles {
		if c.IsPoint() {
			continue
		}
		poly, err := plotter.NewPolygon(circlePolygon(c, CIRCLE_VERTICES))
		if err != nil {
			return nil, err
		}
		poly.Color = obstacleColor
		if crossed[i] {
			poly.Color = collideColor
		}
		poly.LineStyle.Width = 0
		p.Add(poly)
	}

	if len(path) > 1 {
		wingspans := best.PathWingspans()
		for _, side := range []float64{-1, 1} {
			edge, err := plotter.NewLine(toXYs(ribbon(path, wingspans, side)))
			if err != nil {
				return nil, err
			}
			edge.Color = ribbonColor
			edge.Width = vg.Points(0.8)
			p.Add(edge)
			if side > 0 {
				p.Legend.Add("Wingspan", edge)
			}
		}

		line, err := plotter.NewLine(toXYs(path))
		if err != nil {
			return nil, err
		}
		line.Color = pathColor
		line.Width = vg.Points(1.8)
		p.Add(line)
		p.Legend.Add("Path", line)
	}

	for _, end := range []struct {
		name  string
		at    types.Vec2
		shape draw.GlyphDrawer
		color color.Color
	}{
		{"Start", field.Start(), draw.CircleGlyph{}, startColor},
		{"Goal", field.Goal(), draw.CrossGlyph{}, goalColor},
	} {
		s, err := plotter.NewScatter(plotter.XYs{{X: end.at.X, Y: end.at.Y}})
		if err != nil {
			return nil, err
		}
		s.GlyphStyle.Shape = end.shape
		s.GlyphStyle.Color = end.color
		s.GlyphStyle.Radius = vg.Points(4)
		p.Add(s)
		p.Legend.Add(end.name, s)
	}
	return p, nil
}

// TracePlot shows the mean feasible score per generation as bars and the
// best score so far as a line.
func TracePlot(trace []evolution.PerfPoint) (*plot.Plot, error) {
	if len(trace) == 0 {
		return nil, fmt.Errorf("report: empty trace")
	}
	p := plot.New()
	p.Title.Text = "Performance"
	p.X.Label.Text = "Generation"
	p.Y.Label.Text = "Score"
	p.Add(plotter.NewGrid())

	totals := make(plotter.Values, len(trace))
	var best plotter.XYs
	for i, point := range trace {
		totals[i] = point.TotalScore / math.Max(1, float64(point.Feasible))
		if !math.IsInf(point.BestScore, 0) {
			best = append(best, plotter.XY{X: float64(point.Generation), Y: point.BestScore})
		}
	}

	bars, err := plotter.NewBarChart(totals, vg.Points(4))
	if err != nil {
		return nil, err
	}
	bars.Color = obstacleColor
	bars.LineStyle.Width = 0
	bars.XMin = float64(trace[0].Generation)
	p.Add(bars)
	p.Legend.Add("Mean feasible score", bars)

	if len(best) > 0 {
		line, err := plotter.NewLine(best)
		if err != nil {
			return nil, err
		}
		line.Color = pathColor
		line.Width = vg.Points(1.5)
		p.Add(line)
		p.Legend.Add("Best so far", line)
	}
	return p, nil
}

// SavePath writes PathPlot to filename; the format follows the extension.
func SavePath(filename string, field *airspace.Field, best *route.Individual) error {
	p, err := PathPlot(field, best)
	if err != nil {
		return err
	}
	return p.Save(6*vg.Inch, 6*vg.Inch, filename)
}

func SaveTrace(filename string, trace []evolution.PerfPoint) error {
	p, err := TracePlot(trace)
	if err != nil {
		return err
	}
	return p.Save(7*vg.Inch, 4*vg.Inch, filename)
}
