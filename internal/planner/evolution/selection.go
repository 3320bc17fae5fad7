package evolution

import (
	"cmp"
	"math"
	"math/rand/v2"
	"slices"
	"sort"

	"morphing-planner/internal/planner/route"
)

func byScore(a, b *route.Individual) int {
	return cmp.Compare(a.Score(), b.Score())
}

func sortedByScore(pop []*route.Individual) []*route.Individual {
	sorted := slices.Clone(pop)
	slices.SortStableFunc(sorted, byScore)
	return sorted
}

// weightedDraw returns n indices drawn with replacement, proportionally to
// weights. All-zero weights fall back to uniform draws.
func weightedDraw(weights []float64, n int, rng *rand.Rand) []int {
	cumulative := make([]float64, len(weights))
	total := 0.0
	for i, w := range weights {
		if w > 0 && !math.IsInf(w, 0) {
			total += w
		}
		cumulative[i] = total
	}

	out := make([]int, n)
	for k := range out {
		if total == 0 {
			out[k] = rng.IntN(len(weights))
			continue
		}
		spin := rng.Float64() * total
		i := sort.SearchFloat64s(cumulative, spin)
		// skip zero-weight entries sharing the same cumulative value
		for i < len(cumulative)-1 && cumulative[i] <= spin {
			i++
		}
		out[k] = i
	}
	return out
}

// roulette draws with probability proportional to 1/score.
func roulette(pop []*route.Individual, rng *rand.Rand) []*route.Individual {
	weights := make([]float64, len(pop))
	for i, ind := range pop {
		s := ind.Score()
		if math.IsInf(s, 1) || math.IsNaN(s) {
			continue
		}
		weights[i] = 1 / math.Max(s, 1e-12)
	}
	selected := make([]*route.Individual, len(pop))
	for k, i := range weightedDraw(weights, len(pop), rng) {
		selected[k] = pop[i]
	}
	return selected
}

// tournament runs len(pop) tournaments between size distinct individuals.
func tournament(pop []*route.Individual, size int, rng *rand.Rand) []*route.Individual {
	size = min(size, len(pop))
	indices := make([]int, len(pop))
	for i := range indices {
		indices[i] = i
	}

	selected := make([]*route.Individual, len(pop))
	for k := range selected {
		// partial Fisher-Yates: the first size entries are a uniform sample
		for j := 0; j < size; j++ {
			r := j + rng.IntN(len(indices)-j)
			indices[j], indices[r] = indices[r], indices[j]
		}
		winner := pop[indices[0]]
		for _, i := range indices[1:size] {
			if pop[i].Score() < winner.Score() {
				winner = pop[i]
			}
		}
		selected[k] = winner
	}
	return selected
}

func bestHalf(pop []*route.Individual) []*route.Individual {
	return sortedByScore(pop)[:len(pop)/2]
}

// rank draws from the sorted population with weight exp(-alpha*rank).
func rank(pop []*route.Individual, alpha float64, rng *rand.Rand) []*route.Individual {
	sorted := sortedByScore(pop)
	weights := make([]float64, len(sorted))
	for r := range weights {
		weights[r] = math.Exp(-alpha * float64(r))
	}
	selected := make([]*route.Individual, len(sorted))
	for k, i := range weightedDraw(weights, len(sorted), rng) {
		selected[k] = sorted[i]
	}
	return selected
}
