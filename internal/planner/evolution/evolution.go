// Package evolution runs the genetic search over flight plans.
package evolution

import (
	"fmt"
	"math/rand/v2"
	"runtime"
	"slices"
	"time"

	"morphing-planner/internal/planner/aircraft"
	"morphing-planner/internal/planner/airspace"
	"morphing-planner/internal/planner/flightplan"
	"morphing-planner/internal/planner/route"

	"github.com/google/uuid"
	"github.com/labstack/gommon/log"
	"golang.org/x/sync/errgroup"
)

type Option func(*Population)

func WithLogger(logger *log.Logger) Option {
	return func(p *Population) { p.logger = logger }
}

// WithObserver registers a callback run synchronously after every generation.
func WithObserver(fn func(PerfPoint)) Option {
	return func(p *Population) { p.observer = fn }
}

func WithEvaluator(eval route.Evaluator) Option {
	return func(p *Population) { p.eval = eval }
}

func WithModel(model aircraft.Model) Option {
	return func(p *Population) { p.model = model }
}

// Population evolves flight plans through one obstacle field.
type Population struct {
	field    *airspace.Field
	cfg      Config
	model    aircraft.Model
	eval     route.Evaluator
	logger   *log.Logger
	observer func(PerfPoint)

	rng         *rand.Rand
	seed        uint64
	individuals []*route.Individual
	best        *route.Individual
	trace       []PerfPoint
}

func New(field *airspace.Field, cfg Config, opts ...Option) (*Population, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid GA config: %w", err)
	}
	if err := field.Validate(); err != nil {
		return nil, fmt.Errorf("invalid field: %w", err)
	}

	p := &Population{
		field: field,
		cfg:   cfg,
		model: aircraft.DefaultModel(),
		eval:  route.DefaultEvaluator(),
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.logger == nil {
		p.logger = log.New("evolution")
	}
	if err := p.model.Validate(); err != nil {
		return nil, fmt.Errorf("invalid vehicle model: %w", err)
	}

	p.seed = cfg.Seed
	if p.seed == 0 {
		p.seed = uint64(time.Now().UnixNano())
	}
	return p, nil
}

func (p *Population) Config() Config { return p.cfg }

// Individuals is the current generation.
func (p *Population) Individuals() []*route.Individual {
	return slices.Clone(p.individuals)
}

// Run evolves the population for the configured number of generations. Every
// call starts over from the same seed.
func (p *Population) Run() (Result, error) {
	start := time.Now()
	runID := uuid.New()

	p.rng = rand.New(rand.NewPCG(p.seed, p.seed^0x9e3779b97f4a7c15))
	p.best = nil
	p.trace = make([]PerfPoint, 0, p.cfg.Generations+1)

	p.logger.Infof("run %s: %d obstacles, population %d, %d generations, %s selection, seed %d",
		runID, p.field.Len(), p.cfg.PopulationSize, p.cfg.Generations, p.cfg.Selection, p.seed)

	if err := p.initialize(); err != nil {
		return Result{}, err
	}
	p.record(0)

	for gen := 1; gen <= p.cfg.Generations; gen++ {
		if err := p.step(); err != nil {
			return Result{}, fmt.Errorf("generation %d: %w", gen, err)
		}
		p.record(gen)
	}

	result := Result{
		RunID:   runID,
		Seed:    p.seed,
		Best:    p.best,
		Trace:   slices.Clone(p.trace),
		Elapsed: time.Since(start),
	}
	if !p.best.Feasible() {
		p.logger.Warnf("run %s: no feasible path after %d generations: %v", runID, p.cfg.Generations, p.best.Err())
		return result, ErrNoFeasiblePath
	}
	p.logger.Infof("run %s done in %s: %s", runID, result.Elapsed, p.best)
	return result, nil
}

// initialize draws random genomes and puts the direct plan in the last slot.
func (p *Population) initialize() error {
	n := p.field.Len()
	genomes := make([]flightplan.Genome, p.cfg.PopulationSize)
	for i := 0; i < len(genomes)-1; i++ {
		g, err := flightplan.NewRandomGenome(n, p.model, p.rng)
		if err != nil {
			return fmt.Errorf("initial genome %d: %w", i, err)
		}
		genomes[i] = g
	}
	canonical, err := flightplan.NewCanonicalGenome(n, p.model, p.rng)
	if err != nil {
		return fmt.Errorf("canonical genome: %w", err)
	}
	genomes[len(genomes)-1] = canonical

	individuals, err := p.evaluate(genomes)
	if err != nil {
		return err
	}
	p.individuals = individuals
	return nil
}

func (p *Population) step() error {
	selected := p.selectParents()
	next, err := p.breed(selected)
	if err != nil {
		return err
	}
	p.individuals = next
	return nil
}

func (p *Population) selectParents() []*route.Individual {
	var selected []*route.Individual
	switch p.cfg.Selection {
	case ROULETTE:
		selected = roulette(p.individuals, p.rng)
	case TOURNAMENT:
		selected = tournament(p.individuals, p.cfg.TournamentSize, p.rng)
	case BEST_HALF:
		selected = bestHalf(p.individuals)
	case RANK:
		selected = rank(p.individuals, p.cfg.RankAlpha, p.rng)
	}
	// elitism
	selected[len(selected)-1] = p.best
	return selected
}

// breed pairs the parents at random. Crossed pairs are mutated and rebuilt,
// the others pass through unchanged. With BEST_HALF the parents also carry over.
func (p *Population) breed(selected []*route.Individual) ([]*route.Individual, error) {
	next := make([]*route.Individual, 0, p.cfg.PopulationSize)
	if p.cfg.Selection == BEST_HALF {
		next = append(next, selected...)
	}

	parents := slices.Clone(selected)
	p.rng.Shuffle(len(parents), func(i, j int) { parents[i], parents[j] = parents[j], parents[i] })

	var genomes []flightplan.Genome
	var slots []int
	for i := 0; i+1 < len(parents); i += 2 {
		a, b := parents[i], parents[i+1]
		if p.rng.Float64() >= p.cfg.CrossoverRate {
			next = append(next, a, b)
			continue
		}
		c1, c2 := crossover(a.Genome(), b.Genome(), p.rng)
		for _, child := range [2]flightplan.Genome{c1, c2} {
			if _, err := mutate(&child, p.cfg, p.model, p.rng); err != nil {
				return nil, fmt.Errorf("mutation: %w", err)
			}
			slots = append(slots, len(next))
			next = append(next, nil)
			genomes = append(genomes, child)
		}
	}
	if len(parents)%2 == 1 {
		next = append(next, parents[len(parents)-1])
	}

	children, err := p.evaluate(genomes)
	if err != nil {
		return nil, err
	}
	for k, ind := range children {
		next[slots[k]] = ind
	}
	return next, nil
}

// evaluate builds and scores the genomes concurrently. Results keep the input order.
func (p *Population) evaluate(genomes []flightplan.Genome) ([]*route.Individual, error) {
	out := make([]*route.Individual, len(genomes))

	limit := p.cfg.Parallelism
	if limit == 0 {
		limit = runtime.GOMAXPROCS(0)
	}
	var g errgroup.Group
	g.SetLimit(limit)
	for i, genome := range genomes {
		g.Go(func() error {
			out[i] = route.New(p.field.Obstacles, genome, p.eval)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("evaluation: %w", err)
	}

	for i, ind := range out {
		if !ind.Feasible() {
			p.logger.Debugf("individual %d infeasible: %v", i, ind.Err())
		}
	}
	return out, nil
}
