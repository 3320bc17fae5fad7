package main

import (
	"errors"
	"flag"
	"fmt"
	"image/color"
	"math"
	"math/rand/v2"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"morphing-planner/internal/config"
	"morphing-planner/internal/planner/airspace"
	"morphing-planner/internal/planner/evolution"
	"morphing-planner/internal/planner/flightplan"
	"morphing-planner/internal/planner/route"
	"morphing-planner/internal/report"
	"morphing-planner/internal/ui"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
	"github.com/hajimehoshi/ebiten/v2/vector"
	"github.com/labstack/gommon/log"
)

const (
	SCREEN_WIDTH  = 1024
	SCREEN_HEIGHT = 768
	UI_HEIGHT     = 90
)

var (
	obstacleColor = color.RGBA{120, 120, 120, 255}
	crossedColor  = color.RGBA{220, 40, 40, 255}
	ribbonColor   = color.RGBA{60, 120, 255, 70}
	pathColor     = color.RGBA{100, 160, 255, 255}
	startColor    = color.RGBA{0, 200, 0, 255}
	goalColor     = color.RGBA{255, 80, 80, 255}
)

type Camera struct {
	X, Y                 float64
	PanStartX, PanStartY int
	Scale                float64
}

// runUpdate carries progress from the planner goroutine to the game loop.
type runUpdate struct {
	point  *evolution.PerfPoint
	result *evolution.Result
	err    error
}

type Game struct {
	width, height int
	camera        *Camera
	cfg           config.AppConfig
	logger        *log.Logger
	rng           *rand.Rand

	field   *airspace.Field
	best    *route.Individual
	trace   []evolution.PerfPoint
	running bool
	updates chan runUpdate
	status  string

	commandInput *ui.TextInput
}

func NewGame(screenWidth, screenHeight int, cfg config.AppConfig, field *airspace.Field) *Game {
	game := &Game{
		width:   screenWidth,
		height:  screenHeight,
		camera:  &Camera{Scale: 1},
		cfg:     cfg,
		logger:  cfg.NewLogger("client"),
		rng:     rand.New(rand.NewPCG(uint64(time.Now().UnixNano()), 1)),
		field:   field,
		updates: make(chan runUpdate, 256),
		status:  ui.HELP_TEXT,
	}

	game.commandInput = ui.NewTextInput(10, screenHeight-40, screenWidth/2, 30, func(cmd string) {
		game.executeCommand(cmd)
	})
	game.fitCamera()
	return game
}

func (g *Game) Update() error {
	g.drainUpdates()
	g.handleInput()
	g.commandInput.Update()
	return nil
}

func (g *Game) Draw(screen *ebiten.Image) {
	screen.Fill(color.RGBA{0, 0, 0, 255})

	g.drawField(screen)
	g.drawPath(screen)
	g.drawUI(screen)
	ebitenutil.DebugPrint(screen, "FPS: "+strconv.FormatFloat(ebiten.ActualFPS(), 'f', 2, 64))
}

func (g *Game) Layout(outsideWidth, outsideHeight int) (screenWidth, screenHeight int) {
	return g.width, g.height
}

func (g *Game) drainUpdates() {
	for {
		select {
		case u := <-g.updates:
			g.apply(u)
		default:
			return
		}
	}
}

func (g *Game) apply(u runUpdate) {
	switch {
	case u.point != nil:
		g.trace = append(g.trace, *u.point)
		g.status = fmt.Sprintf("generation %d/%d  best %.2f  feasible %d",
			u.point.Generation, g.cfg.GA.Generations, u.point.BestScore, u.point.Feasible)
	case u.result != nil:
		g.running = false
		g.best = u.result.Best
		if u.err != nil {
			g.status = "run failed: " + u.err.Error()
			return
		}
		g.status = fmt.Sprintf("done in %s: time %.2fs  crossed %v  %s",
			u.result.Elapsed.Round(time.Millisecond), g.best.FlightTime(), g.best.ObstaclesCrossed(),
			flightplan.FormatTangency(g.best.Tangency()))
	case u.err != nil:
		g.running = false
		g.status = "run failed: " + u.err.Error()
	}
}

func (g *Game) startRun() {
	if g.running {
		g.status = "a run is already in progress"
		return
	}
	pop, err := evolution.New(g.field, g.cfg.GA,
		evolution.WithLogger(g.cfg.NewLogger("evolution")),
		evolution.WithModel(g.cfg.Vehicle),
		evolution.WithEvaluator(g.cfg.Evaluator()),
		evolution.WithObserver(func(p evolution.PerfPoint) { g.updates <- runUpdate{point: &p} }),
	)
	if err != nil {
		g.status = err.Error()
		return
	}

	g.running = true
	g.best = nil
	g.trace = nil
	go func() {
		result, err := pop.Run()
		if result.Best == nil {
			g.updates <- runUpdate{err: err}
			return
		}
		g.updates <- runUpdate{result: &result, err: err}
	}()
}

func (g *Game) setField(field *airspace.Field) {
	g.field = field
	g.best = nil
	g.trace = nil
	g.fitCamera()
}

func (g *Game) newField() {
	field, err := airspace.Generate(g.rng, g.cfg.Field)
	if err != nil {
		g.status = err.Error()
		return
	}
	g.setField(field)
	g.status = fmt.Sprintf("new field with %d obstacles", field.Len()-2)
}

func (g *Game) handleInput() {
	if inpututil.IsMouseButtonJustPressed(ebiten.MouseButtonLeft) {
		x, y := ebiten.CursorPosition()
		g.commandInput.IsActive = g.commandInput.IsClicked(x, y)
	}

	if !g.commandInput.IsActive && !g.running {
		if inpututil.IsKeyJustPressed(ebiten.KeyR) {
			g.startRun()
		}
		if inpututil.IsKeyJustPressed(ebiten.KeyN) {
			g.newField()
		}
	}

	_, wy := ebiten.Wheel()
	if wy != 0 {
		cursorX, cursorY := ebiten.CursorPosition()
		worldX, worldY := g.screenToWorld(float64(cursorX), float64(cursorY))

		scale := g.camera.Scale
		if wy > 0 {
			scale *= 1.1
		} else {
			scale /= 1.1
		}
		g.camera.Scale = math.Max(2, math.Min(200, scale))

		newWorldX, newWorldY := g.screenToWorld(float64(cursorX), float64(cursorY))
		g.camera.X -= newWorldX - worldX
		g.camera.Y -= newWorldY - worldY
	}

	// Right mouse button for pan
	if ebiten.IsMouseButtonPressed(ebiten.MouseButtonRight) {
		dx, dy := ebiten.CursorPosition()
		if inpututil.IsMouseButtonJustPressed(ebiten.MouseButtonRight) {
			g.camera.PanStartX, g.camera.PanStartY = dx, dy
		} else {
			g.camera.X -= float64(dx-g.camera.PanStartX) / g.camera.Scale
			g.camera.Y += float64(dy-g.camera.PanStartY) / g.camera.Scale
			g.camera.PanStartX, g.camera.PanStartY = dx, dy
		}
	}
}

// World y points up, screen y points down.
func (g *Game) screenToWorld(sx, sy float64) (wx, wy float64) {
	wx = sx/g.camera.Scale + g.camera.X
	wy = (float64(g.height)-sy)/g.camera.Scale + g.camera.Y
	return
}

func (g *Game) worldToScreen(wx, wy float64) (sx, sy float64) {
	sx = (wx - g.camera.X) * g.camera.Scale
	sy = float64(g.height) - (wy-g.camera.Y)*g.camera.Scale
	return
}

// fitCamera frames the whole field above the command bar.
func (g *Game) fitCamera() {
	xmin, ymin := math.Inf(1), math.Inf(1)
	xmax, ymax := math.Inf(-1), math.Inf(-1)
	for _, c := range g.field.Obstacles {
		xmin, xmax = math.Min(xmin, c.Center.X-c.Radius), math.Max(xmax, c.Center.X+c.Radius)
		ymin, ymax = math.Min(ymin, c.Center.Y-c.Radius), math.Max(ymax, c.Center.Y+c.Radius)
	}
	w, h := math.Max(xmax-xmin, 1), math.Max(ymax-ymin, 1)
	g.camera.Scale = math.Min(float64(g.width-80)/w, float64(g.height-UI_HEIGHT-80)/h)
	g.camera.X = xmin - 40/g.camera.Scale
	g.camera.Y = ymin - float64(UI_HEIGHT+40)/g.camera.Scale
}

func (g *Game) drawField(screen *ebiten.Image) {
	crossed := map[int]bool{}
	if g.best != nil {
		for _, j := range g.best.ObstaclesCrossed() {
			crossed[j] = true
		}
	}

	for i, c := range g.field.Obstacles {
		sx, sy := g.worldToScreen(c.Center.X, c.Center.Y)
		if c.IsPoint() {
			continue
		}
		clr := obstacleColor
		if crossed[i] {
			clr = crossedColor
		}
		vector.StrokeCircle(screen, float32(sx), float32(sy), float32(c.Radius*g.camera.Scale), 1.5, clr, true)
		ebitenutil.DebugPrintAt(screen, strconv.Itoa(i), int(sx)-4, int(sy)-8)
	}

	start, goal := g.field.Start(), g.field.Goal()
	sx, sy := g.worldToScreen(start.X, start.Y)
	vector.DrawFilledCircle(screen, float32(sx), float32(sy), 5, startColor, true)
	gx, gy := g.worldToScreen(goal.X, goal.Y)
	vector.DrawFilledCircle(screen, float32(gx), float32(gy), 5, goalColor, true)
}

func (g *Game) drawPath(screen *ebiten.Image) {
	if g.best == nil {
		return
	}
	path := g.best.Path()
	wingspans := g.best.PathWingspans()
	for k := 0; k+1 < len(path); k++ {
		x0, y0 := g.worldToScreen(path[k].X, path[k].Y)
		x1, y1 := g.worldToScreen(path[k+1].X, path[k+1].Y)
		width := float32(wingspans[k] * g.camera.Scale)
		vector.StrokeLine(screen, float32(x0), float32(y0), float32(x1), float32(y1), width, ribbonColor, true)
		vector.StrokeLine(screen, float32(x0), float32(y0), float32(x1), float32(y1), 1.5, pathColor, true)
	}
}

// drawTrace plots the best score per generation in the lower right corner.
func (g *Game) drawTrace(screen *ebiten.Image, x, y, w, h float32) {
	vector.StrokeRect(screen, x, y, w, h, 1, color.White, false)
	if len(g.trace) < 2 {
		return
	}
	lo, hi := math.Inf(1), math.Inf(-1)
	for _, p := range g.trace {
		if !math.IsInf(p.BestScore, 0) {
			lo, hi = math.Min(lo, p.BestScore), math.Max(hi, p.BestScore)
		}
	}
	if math.IsInf(lo, 0) {
		return
	}
	span := math.Max(hi-lo, 1e-9)
	step := w / float32(len(g.trace)-1)
	for i := 1; i < len(g.trace); i++ {
		a, b := g.trace[i-1].BestScore, g.trace[i].BestScore
		if math.IsInf(a, 0) || math.IsInf(b, 0) {
			continue
		}
		ya := y + h - float32((a-lo)/span)*h
		yb := y + h - float32((b-lo)/span)*h
		vector.StrokeLine(screen, x+step*float32(i-1), ya, x+step*float32(i), yb, 1, pathColor, false)
	}
}

func (g *Game) drawUI(screen *ebiten.Image) {
	g.commandInput.Draw(screen)
	ebitenutil.DebugPrintAt(screen, g.status, 10, g.height-UI_HEIGHT+10)
	ebitenutil.DebugPrintAt(screen, fmt.Sprintf("pop %d  gen %d  %s  seed %d",
		g.cfg.GA.PopulationSize, g.cfg.GA.Generations, g.cfg.GA.Selection, g.cfg.GA.Seed), 10, g.height-UI_HEIGHT+26)
	g.drawTrace(screen, float32(g.width-230), float32(g.height-UI_HEIGHT+5), 220, float32(UI_HEIGHT-10))
}

func (g *Game) executeCommand(line string) {
	cmd, err := ui.ParseCommand(line)
	if err != nil {
		g.status = err.Error()
		return
	}

	switch cmd.Verb {
	case ui.RUN:
		g.startRun()
	case ui.NEW_FIELD:
		g.newField()
	case ui.LOAD_MAP:
		field, err := airspace.LoadMapFile(cmd.Arg)
		if err != nil {
			g.status = err.Error()
			return
		}
		g.setField(field)
		g.status = "loaded " + cmd.Arg
	case ui.SAVE_MAP:
		if err := airspace.SaveMapFile(cmd.Arg, g.field); err != nil {
			g.status = err.Error()
			return
		}
		g.status = "saved " + cmd.Arg
	case ui.EXPORT:
		g.export(cmd.Arg)
	case ui.POPULATION:
		g.cfg.GA.PopulationSize = cmd.N
		g.cfg.GA.TournamentSize = min(g.cfg.GA.TournamentSize, cmd.N)
	case ui.GENERATIONS:
		g.cfg.GA.Generations = cmd.N
	case ui.SELECTION:
		g.cfg.GA.Selection = cmd.Strategy
	case ui.SEED:
		g.cfg.GA.Seed = uint64(cmd.N)
	case ui.HELP:
		g.status = ui.HELP_TEXT
	}
	g.logger.Debugf("command %s %s", cmd.Verb, cmd.Arg)
}

func (g *Game) export(dir string) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		g.status = err.Error()
		return
	}
	if err := report.SavePath(filepath.Join(dir, g.cfg.Output.PathPlot), g.field, g.best); err != nil {
		g.status = err.Error()
		return
	}
	if len(g.trace) > 0 {
		if err := report.SaveTrace(filepath.Join(dir, g.cfg.Output.TracePlot), g.trace); err != nil {
			g.status = err.Error()
			return
		}
	}
	g.status = "exported to " + dir
}

func main() {
	configPath := flag.String("config", "", "YAML or TOML configuration file")
	mapPath := flag.String("map", "", "obstacle map to load instead of generating one")
	seed := flag.Uint64("seed", 0, "seed for the field generator and the GA (0 = clock)")
	flag.Parse()

	cfg := config.Default()
	if *configPath != "" {
		var err error
		if cfg, err = config.Load(*configPath); err != nil {
			log.Fatal(err)
		}
	}
	if *seed != 0 {
		cfg.GA.Seed = *seed
	}

	var field *airspace.Field
	var err error
	if *mapPath != "" {
		field, err = airspace.LoadMapFile(*mapPath)
	} else {
		fieldSeed := cfg.GA.Seed
		if fieldSeed == 0 {
			fieldSeed = uint64(time.Now().UnixNano())
		}
		field, err = airspace.Generate(rand.New(rand.NewPCG(fieldSeed, fieldSeed)), cfg.Field)
	}
	if err != nil {
		if errors.Is(err, airspace.ErrFieldTooDense) {
			log.Fatalf("%v: lower field.count or enlarge the map", err)
		}
		log.Fatal(err)
	}

	ebiten.SetWindowSize(SCREEN_WIDTH, SCREEN_HEIGHT)
	ebiten.SetWindowTitle("Morphing-wing Path Planner")
	ebiten.SetVsyncEnabled(true)

	game := NewGame(SCREEN_WIDTH, SCREEN_HEIGHT, cfg, field)

	if err := ebiten.RunGame(game); err != nil {
		log.Fatal(err)
	}
}
