package route

// Weights scales the three fitness terms. Lower scores are better.
type Weights struct {
	Collision float64 `yaml:"collision" toml:"collision" json:"collision"`
	Time      float64 `yaml:"time" toml:"time" json:"time"`
	Turn      float64 `yaml:"turn" toml:"turn" json:"turn"`
}

// DefaultWeights makes one collision outweigh any flight time.
func DefaultWeights() Weights {
	return Weights{
		Collision: 1e7,
		Time:      200,
		Turn:      10,
	}
}

// Evaluator scores a constructed path.
type Evaluator struct {
	Weights Weights
	// Used for any slot speed that is not positive.
	FallbackSpeed float64
}

func DefaultEvaluator() Evaluator {
	return Evaluator{
		Weights:       DefaultWeights(),
		FallbackSpeed: 5,
	}
}

func (e Evaluator) Score(collisions int, flightTime float64, turns int) float64 {
	return e.Weights.Collision*float64(collisions) + e.Weights.Time*flightTime + e.Weights.Turn*float64(turns)
}

// resampleSpeeds stretches the per-slot speeds to one value per path point:
// padded with the last value, or truncated.
func (e Evaluator) resampleSpeeds(speeds []float64, n int) []float64 {
	out := make([]float64, n)
	last := e.FallbackSpeed
	for i := range out {
		if i < len(speeds) {
			last = speeds[i]
			if !(last > 0) {
				last = e.FallbackSpeed
			}
		}
		out[i] = last
	}
	return out
}
