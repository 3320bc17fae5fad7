package report

import (
	"io"
	"math"
	"os"
	"path/filepath"
	"testing"

	"morphing-planner/internal/planner/airspace"
	"morphing-planner/internal/planner/evolution"
	"morphing-planner/pkg/types"

	"github.com/labstack/gommon/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testField() *airspace.Field {
	return airspace.NewField(types.NewVec2(0, 0), types.NewVec2(30, 0), []types.Circle{
		types.NewCircle(10, 0, 2),
		types.NewCircle(20, 0, 2),
	})
}

func TestSavePathAndTrace(t *testing.T) {
	logger := log.New("test")
	logger.SetOutput(io.Discard)

	cfg := evolution.DefaultConfig()
	cfg.PopulationSize = 10
	cfg.Generations = 5
	cfg.Seed = 3
	pop, err := evolution.New(testField(), cfg, evolution.WithLogger(logger))
	require.NoError(t, err)
	result, err := pop.Run()
	require.NoError(t, err)

	dir := t.TempDir()
	pathPNG := filepath.Join(dir, "path.png")
	tracePNG := filepath.Join(dir, "trace.png")
	require.NoError(t, SavePath(pathPNG, testField(), result.Best))
	require.NoError(t, SaveTrace(tracePNG, result.Trace))

	for _, name := range []string{pathPNG, tracePNG} {
		info, err := os.Stat(name)
		require.NoError(t, err)
		assert.Positive(t, info.Size())
	}
}

func TestPathPlotWithoutPath(t *testing.T) {
	p, err := PathPlot(testField(), nil)
	require.NoError(t, err)
	assert.Less(t, p.X.Min, -2.0+1e-9)
	assert.Greater(t, p.X.Max, 30.0)
}

func TestTracePlotSkipsInfiniteBest(t *testing.T) {
	_, err := TracePlot(nil)
	assert.Error(t, err)

	_, err = TracePlot([]evolution.PerfPoint{
		{Generation: 0, TotalScore: 0, Feasible: 0, BestScore: math.Inf(1)},
		{Generation: 1, TotalScore: 500, Feasible: 2, BestScore: 240},
	})
	assert.NoError(t, err)
}

func TestRibbonOffsetsByHalfWingspan(t *testing.T) {
	path := []types.Vec2{types.NewVec2(0, 0), types.NewVec2(1, 0), types.NewVec2(2, 0)}
	left := ribbon(path, []float64{0.5, 0.5, 0.5}, 1)
	require.Len(t, left, 3)
	for i, p := range left {
		assert.InDelta(t, path[i].X, p.X, 1e-12)
		assert.InDelta(t, 0.25, p.Y, 1e-12)
	}
}
