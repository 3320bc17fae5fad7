package main

import (
	"errors"
	"flag"
	"math/rand/v2"
	"os"
	"path/filepath"
	"time"

	"morphing-planner/internal/config"
	"morphing-planner/internal/planner/airspace"
	"morphing-planner/internal/planner/evolution"
	"morphing-planner/internal/planner/flightplan"
	"morphing-planner/internal/report"

	"github.com/labstack/gommon/log"
)

func main() {
	configPath := flag.String("config", "", "YAML or TOML configuration file")
	mapPath := flag.String("map", "", "obstacle map to load instead of generating one")
	seed := flag.Uint64("seed", 0, "seed for the field generator and the GA (0 = from config or clock)")
	generations := flag.Int("generations", -1, "override ga.generations")
	population := flag.Int("population", -1, "override ga.population_size")
	selection := flag.String("selection", "", "override ga.selection (roulette, tournament, best_half, rank)")
	outDir := flag.String("out", "", "override output.dir")
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
	if *generations >= 0 {
		cfg.GA.Generations = *generations
	}
	if *population >= 0 {
		cfg.GA.PopulationSize = *population
		cfg.GA.TournamentSize = min(cfg.GA.TournamentSize, *population)
	}
	if *selection != "" {
		s, err := evolution.ParseStrategy(*selection)
		if err != nil {
			log.Fatal(err)
		}
		cfg.GA.Selection = s
	}
	if *outDir != "" {
		cfg.Output.Dir = *outDir
	}

	logger := cfg.NewLogger("planner")

	if err := os.MkdirAll(cfg.Output.Dir, 0o755); err != nil {
		log.Fatal(err)
	}

	field, err := loadField(cfg, *mapPath, logger)
	if err != nil {
		log.Fatal(err)
	}

	pop, err := evolution.New(field, cfg.GA,
		evolution.WithLogger(cfg.NewLogger("evolution")),
		evolution.WithModel(cfg.Vehicle),
		evolution.WithEvaluator(cfg.Evaluator()),
	)
	if err != nil {
		log.Fatal(err)
	}

	result, err := pop.Run()
	if err != nil && !errors.Is(err, evolution.ErrNoFeasiblePath) {
		log.Fatal(err)
	}

	best := result.Best
	logger.Infof("run %s seed %d finished in %s", result.RunID, result.Seed, result.Elapsed.Round(time.Millisecond))
	logger.Infof("best score %.4f flight time %.3fs crossed %v forced %v",
		best.Score(), best.FlightTime(), best.ObstaclesCrossed(), best.ForcedTurns())
	logger.Infof("tangency %s", flightplan.FormatTangency(best.Tangency()))

	pathFile := filepath.Join(cfg.Output.Dir, cfg.Output.PathPlot)
	if err := report.SavePath(pathFile, field, best); err != nil {
		log.Fatal(err)
	}
	traceFile := filepath.Join(cfg.Output.Dir, cfg.Output.TracePlot)
	if err := report.SaveTrace(traceFile, result.Trace); err != nil {
		log.Fatal(err)
	}
	logger.Infof("wrote %s and %s", pathFile, traceFile)

	if err != nil {
		logger.Warnf("%v", err)
		os.Exit(2)
	}
}

// loadField reads the map when one is given, otherwise generates a field and
// saves it next to the plots so the run can be reproduced.
func loadField(cfg config.AppConfig, mapPath string, logger *log.Logger) (*airspace.Field, error) {
	if mapPath != "" {
		field, err := airspace.LoadMapFile(mapPath)
		if err != nil {
			return nil, err
		}
		logger.Infof("loaded %d obstacles from %s", field.Len()-2, mapPath)
		return field, nil
	}

	seed := cfg.GA.Seed
	if seed == 0 {
		seed = uint64(time.Now().UnixNano())
	}
	field, err := airspace.Generate(rand.New(rand.NewPCG(seed, seed)), cfg.Field)
	if err != nil {
		return nil, err
	}
	logger.Infof("generated %d obstacles (seed %d)", field.Len()-2, seed)

	if cfg.Output.MapFile != "" {
		mapFile := filepath.Join(cfg.Output.Dir, cfg.Output.MapFile)
		if err := airspace.SaveMapFile(mapFile, field); err != nil {
			return nil, err
		}
		logger.Infof("saved map to %s", mapFile)
	}
	return field, nil
}
