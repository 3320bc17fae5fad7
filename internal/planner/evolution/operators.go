package evolution

import (
	"math/rand/v2"

	"morphing-planner/internal/planner/aircraft"
	"morphing-planner/internal/planner/flightplan"
)

// Interior tangency mutations favour skipping an obstacle.
var tangencyChoices = []flightplan.Turn{
	flightplan.RIGHT_TURN,
	flightplan.LEFT_TURN,
	flightplan.NO_TURN,
	flightplan.NO_TURN,
	flightplan.NO_TURN,
}

// MAX_MUTATION_ROUNDS caps a wingspan mutation loop so a rate of 1 terminates.
const MAX_MUTATION_ROUNDS = 1000

// mutationRounds counts how many times a draw below rate succeeds in a row.
func mutationRounds(rate float64, rng *rand.Rand) int {
	k := 0
	for k < MAX_MUTATION_ROUNDS && rng.Float64() < rate {
		k++
	}
	return k
}

// crossover cuts the tangency once and swaps vehicle slots by coin flip. The
// two children are complementary.
func crossover(a, b flightplan.Genome, rng *rand.Rand) (flightplan.Genome, flightplan.Genome) {
	c1, c2 := a.Clone(), b.Clone()

	cut := rng.IntN(a.Len() + 1)
	for i := cut; i < a.Len(); i++ {
		c1.Tangency[i], c2.Tangency[i] = b.Tangency[i], a.Tangency[i]
	}
	for s := range c1.Slots {
		if rng.Float64() < 0.5 {
			c1.Slots[s], c2.Slots[s] = b.Slots[s], a.Slots[s]
		}
	}
	return c1, c2
}

// mutate edits g in place and reports whether anything was drawn.
func mutate(g *flightplan.Genome, cfg Config, model aircraft.Model, rng *rand.Rand) (bool, error) {
	if rng.Float64() >= cfg.MutationRate {
		return false, nil
	}
	n := g.Len()
	if n <= 2 {
		return false, nil
	}

	changed := false
	if rng.Float64() < cfg.TangencyMutationRate {
		p := 1 + rng.IntN(n-2)
		g.Tangency[p] = tangencyChoices[rng.IntN(len(tangencyChoices))]
		changed = true
	}

	for k := mutationRounds(cfg.ArcWingspanMutationRate, rng); k > 0; k-- {
		p := 1 + rng.IntN(n-2)
		if err := g.SetWingspan(flightplan.ArcSlot(p), model.RandomWingspan(rng), model); err != nil {
			return changed, err
		}
		changed = true
	}
	for k := mutationRounds(cfg.StraightWingspanMutationRate, rng); k > 0; k-- {
		p := 1 + rng.IntN(n-2)
		if err := g.SetWingspan(flightplan.StraightSlot(p), model.RandomWingspan(rng), model); err != nil {
			return changed, err
		}
		changed = true
	}
	return changed, nil
}
