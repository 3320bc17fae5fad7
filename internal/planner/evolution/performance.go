package evolution

import (
	"errors"
	"math"
	"time"

	"morphing-planner/internal/planner/route"

	"github.com/google/uuid"
)

var ErrNoFeasiblePath = errors.New("evolution: no feasible path found")

// PerfPoint summarises one generation. Generation 0 is the initial population.
type PerfPoint struct {
	Generation int `json:"generation"`
	// Sum of the finite scores.
	TotalScore float64 `json:"total_score"`
	Feasible   int     `json:"feasible"`
	// Best score seen so far in the run, never increasing.
	BestScore float64 `json:"best_score"`
}

// Result is what a run hands back. Best is set even when the run fails with
// ErrNoFeasiblePath.
type Result struct {
	RunID   uuid.UUID
	Seed    uint64
	Best    *route.Individual
	Trace   []PerfPoint
	Elapsed time.Duration
}

func (p *Population) record(generation int) PerfPoint {
	point := PerfPoint{Generation: generation}
	for _, ind := range p.individuals {
		if !math.IsInf(ind.Score(), 0) {
			point.TotalScore += ind.Score()
			point.Feasible++
		}
		if p.best == nil || ind.Score() < p.best.Score() {
			p.best = ind
		}
	}
	point.BestScore = p.best.Score()

	p.trace = append(p.trace, point)
	if p.observer != nil {
		p.observer(point)
	}
	p.logger.Debugf("generation %d: feasible %d/%d, total %.0f, best %.2f",
		generation, point.Feasible, len(p.individuals), point.TotalScore, point.BestScore)
	return point
}
