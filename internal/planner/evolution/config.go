package evolution

import (
	"fmt"
	"strings"
)

// Strategy picks the parents of the next generation.
type Strategy int

const (
	ROULETTE Strategy = iota
	TOURNAMENT
	BEST_HALF
	RANK
)

var StrategyStringMap = map[Strategy]string{
	ROULETTE:   "roulette",
	TOURNAMENT: "tournament",
	BEST_HALF:  "best_half",
	RANK:       "rank",
}

func (s Strategy) String() string {
	if name, ok := StrategyStringMap[s]; ok {
		return name
	}
	return fmt.Sprintf("Strategy(%d)", int(s))
}

// ParseStrategy accepts the lower-case names as well as the CamelCase ones used
// by older map tooling ("Roulette", "BestHalf").
func ParseStrategy(value string) (Strategy, error) {
	key := strings.ToLower(strings.ReplaceAll(strings.TrimSpace(value), "-", "_"))
	if key == "besthalf" {
		key = "best_half"
	}
	for s, name := range StrategyStringMap {
		if name == key {
			return s, nil
		}
	}
	return 0, fmt.Errorf("unknown selection strategy %q", value)
}

func (s Strategy) MarshalText() ([]byte, error) {
	if _, ok := StrategyStringMap[s]; !ok {
		return nil, fmt.Errorf("unknown selection strategy %d", int(s))
	}
	return []byte(s.String()), nil
}

func (s *Strategy) UnmarshalText(b []byte) error {
	parsed, err := ParseStrategy(string(b))
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}

// Config holds every knob of a run. It is copied into the population and never
// changed during the run.
type Config struct {
	PopulationSize int      `yaml:"population_size" toml:"population_size" json:"population_size"`
	Generations    int      `yaml:"generations" toml:"generations" json:"generations"`
	Selection      Strategy `yaml:"selection" toml:"selection" json:"selection"`

	CrossoverRate                float64 `yaml:"crossover_rate" toml:"crossover_rate" json:"crossover_rate"`
	MutationRate                 float64 `yaml:"mutation_rate" toml:"mutation_rate" json:"mutation_rate"`
	TangencyMutationRate         float64 `yaml:"tangency_mutation_rate" toml:"tangency_mutation_rate" json:"tangency_mutation_rate"`
	ArcWingspanMutationRate      float64 `yaml:"arc_wingspan_mutation_rate" toml:"arc_wingspan_mutation_rate" json:"arc_wingspan_mutation_rate"`
	StraightWingspanMutationRate float64 `yaml:"straight_wingspan_mutation_rate" toml:"straight_wingspan_mutation_rate" json:"straight_wingspan_mutation_rate"`

	RankAlpha      float64 `yaml:"rank_alpha" toml:"rank_alpha" json:"rank_alpha"`
	TournamentSize int     `yaml:"tournament_size" toml:"tournament_size" json:"tournament_size"`

	// Number of individuals built concurrently; 0 uses GOMAXPROCS.
	Parallelism int `yaml:"parallelism" toml:"parallelism" json:"parallelism"`
	// 0 draws a seed from the clock. The seed used is reported in the Result.
	Seed uint64 `yaml:"seed" toml:"seed" json:"seed"`
}

func DefaultConfig() Config {
	return Config{
		PopulationSize: 100,
		Generations:    100,
		Selection:      ROULETTE,

		CrossoverRate:                0.8,
		MutationRate:                 0.2,
		TangencyMutationRate:         0.3,
		ArcWingspanMutationRate:      0.1,
		StraightWingspanMutationRate: 0.5,

		RankAlpha:      0.05,
		TournamentSize: 2,
	}
}

func (c Config) Validate() error {
	if c.PopulationSize < 2 || c.PopulationSize%2 != 0 {
		return fmt.Errorf("population size must be even and at least 2, got %d", c.PopulationSize)
	}
	if c.Generations < 0 {
		return fmt.Errorf("generations must not be negative, got %d", c.Generations)
	}
	if _, ok := StrategyStringMap[c.Selection]; !ok {
		return fmt.Errorf("unknown selection strategy %d", int(c.Selection))
	}

	rates := []struct {
		name  string
		value float64
	}{
		{"crossover_rate", c.CrossoverRate},
		{"mutation_rate", c.MutationRate},
		{"tangency_mutation_rate", c.TangencyMutationRate},
		{"arc_wingspan_mutation_rate", c.ArcWingspanMutationRate},
		{"straight_wingspan_mutation_rate", c.StraightWingspanMutationRate},
	}
	for _, r := range rates {
		if !(r.value >= 0 && r.value <= 1) {
			return fmt.Errorf("%s must be in [0, 1], got %v", r.name, r.value)
		}
	}

	if c.RankAlpha < 0 {
		return fmt.Errorf("rank_alpha must not be negative, got %v", c.RankAlpha)
	}
	if c.TournamentSize < 2 || c.TournamentSize > c.PopulationSize {
		return fmt.Errorf("tournament size must be in [2, %d], got %d", c.PopulationSize, c.TournamentSize)
	}
	if c.Parallelism < 0 {
		return fmt.Errorf("parallelism must not be negative, got %d", c.Parallelism)
	}
	return nil
}
