package evolution

import (
	"encoding/json"
	"io"
	"math"
	"math/rand/v2"
	"testing"

	"morphing-planner/internal/planner/aircraft"
	"morphing-planner/internal/planner/airspace"
	"morphing-planner/internal/planner/flightplan"
	"morphing-planner/internal/planner/route"
	"morphing-planner/pkg/types"

	"github.com/google/uuid"
	"github.com/labstack/gommon/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func quietLogger() *log.Logger {
	logger := log.New("test")
	logger.SetOutput(io.Discard)
	return logger
}

func twoObstacleField() *airspace.Field {
	return airspace.NewField(types.NewVec2(0, 0), types.NewVec2(30, 0), []types.Circle{
		types.NewCircle(10, 0, 2),
		types.NewCircle(20, 0, 2),
	})
}

func smallConfig(strategy Strategy) Config {
	cfg := DefaultConfig()
	cfg.PopulationSize = 20
	cfg.Generations = 15
	cfg.Selection = strategy
	cfg.Seed = 99
	return cfg
}

func TestConfigValidate(t *testing.T) {
	require.NoError(t, DefaultConfig().Validate())

	cases := map[string]func(*Config){
		"odd population":   func(c *Config) { c.PopulationSize = 7 },
		"empty population": func(c *Config) { c.PopulationSize = 0 },
		"negative gens":    func(c *Config) { c.Generations = -1 },
		"crossover rate":   func(c *Config) { c.CrossoverRate = 1.5 },
		"mutation rate":    func(c *Config) { c.MutationRate = -0.1 },
		"nan rate":         func(c *Config) { c.StraightWingspanMutationRate = math.NaN() },
		"strategy":         func(c *Config) { c.Selection = Strategy(12) },
		"tournament size":  func(c *Config) { c.TournamentSize = 1 },
		"parallelism":      func(c *Config) { c.Parallelism = -2 },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			cfg := DefaultConfig()
			mutate(&cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestParseStrategy(t *testing.T) {
	for input, want := range map[string]Strategy{
		"roulette":   ROULETTE,
		"Tournament": TOURNAMENT,
		"BestHalf":   BEST_HALF,
		"best-half":  BEST_HALF,
		"rank":       RANK,
	} {
		got, err := ParseStrategy(input)
		require.NoError(t, err, input)
		assert.Equal(t, want, got, input)
	}
	_, err := ParseStrategy("lottery")
	assert.Error(t, err)

	raw, err := json.Marshal(DefaultConfig())
	require.NoError(t, err)
	assert.Contains(t, string(raw), `"selection":"roulette"`)

	var cfg Config
	require.NoError(t, json.Unmarshal([]byte(`{"selection":"rank"}`), &cfg))
	assert.Equal(t, RANK, cfg.Selection)
}

func TestNewRejectsBadInput(t *testing.T) {
	cfg := smallConfig(ROULETTE)
	cfg.PopulationSize = 3
	_, err := New(twoObstacleField(), cfg)
	assert.Error(t, err)

	_, err = New(&airspace.Field{}, smallConfig(ROULETTE))
	assert.Error(t, err)

	model := aircraft.DefaultModel()
	model.Mass = 0
	_, err = New(twoObstacleField(), smallConfig(ROULETTE), WithModel(model))
	assert.Error(t, err)
}

func TestBestScoreNeverIncreases(t *testing.T) {
	field, err := airspace.Generate(rand.New(rand.NewPCG(5, 5)), airspace.GeneratorConfig{
		Count: 6, RadiusMin: 0.6, RadiusMax: 2, Width: 30, Height: 30, MaxAttempts: 10000,
	})
	require.NoError(t, err)

	for strategy := range StrategyStringMap {
		t.Run(strategy.String(), func(t *testing.T) {
			cfg := smallConfig(strategy)
			var observed []PerfPoint

			pop, err := New(field, cfg,
				WithLogger(quietLogger()),
				WithObserver(func(p PerfPoint) { observed = append(observed, p) }),
			)
			require.NoError(t, err)

			result, err := pop.Run()
			require.NoError(t, err)

			require.Len(t, result.Trace, cfg.Generations+1)
			assert.Equal(t, result.Trace, observed)
			for i, p := range result.Trace {
				assert.Equal(t, i, p.Generation)
				assert.Positive(t, p.Feasible)
				if i > 0 {
					assert.LessOrEqual(t, p.BestScore, result.Trace[i-1].BestScore)
				}
			}
			assert.Equal(t, result.Best.Score(), result.Trace[len(result.Trace)-1].BestScore)
			assert.Len(t, pop.Individuals(), cfg.PopulationSize)
			assert.Equal(t, uint64(99), result.Seed)
		})
	}
}

func TestTwoObstacleScenario(t *testing.T) {
	model := aircraft.DefaultModel()
	fast, err := model.Derive(aircraft.B_MIN)
	require.NoError(t, err)
	slow, err := model.Derive(aircraft.B_MAX)
	require.NoError(t, err)

	for _, strategy := range []Strategy{ROULETTE, TOURNAMENT, BEST_HALF, RANK} {
		t.Run(strategy.String(), func(t *testing.T) {
			cfg := DefaultConfig()
			cfg.PopulationSize = 40
			cfg.Generations = 40
			cfg.Selection = strategy
			cfg.Seed = 1

			pop, err := New(twoObstacleField(), cfg, WithLogger(quietLogger()))
			require.NoError(t, err)
			result, err := pop.Run()
			require.NoError(t, err)

			best := result.Best
			require.True(t, best.Feasible())
			assert.Empty(t, best.ObstaclesCrossed())
			assert.Empty(t, best.ForcedTurns())
			assert.Less(t, best.Score(), route.DefaultWeights().Collision)
			assert.NotEqual(t, uuid.Nil, result.RunID)

			tangency := best.Tangency()
			assert.NotEqual(t, flightplan.NO_TURN, tangency[0])
			assert.NotEqual(t, flightplan.NO_TURN, tangency[len(tangency)-1])

			// every step flies between the fastest and slowest derived speed
			length := best.PathLength()
			assert.GreaterOrEqual(t, length, 30.0)
			assert.GreaterOrEqual(t, best.FlightTime(), length/fast.Speed-1e-9)
			assert.LessOrEqual(t, best.FlightTime(), length/slow.Speed+1e-9)

			speeds := best.Genome().Speeds()
			mean := 0.0
			for _, v := range speeds {
				mean += v
			}
			mean /= float64(len(speeds))
			assert.InEpsilon(t, length/mean, best.FlightTime(), 0.15)
		})
	}
}

func TestRunIsDeterministic(t *testing.T) {
	run := func() Result {
		cfg := smallConfig(TOURNAMENT)
		cfg.Parallelism = 4
		pop, err := New(twoObstacleField(), cfg, WithLogger(quietLogger()))
		require.NoError(t, err)
		result, err := pop.Run()
		require.NoError(t, err)
		return result
	}

	a, b := run(), run()
	assert.Equal(t, a.Trace, b.Trace)
	assert.Equal(t, a.Best.Path(), b.Best.Path())
	assert.Equal(t, a.Best.Tangency(), b.Best.Tangency())
	assert.NotEqual(t, a.RunID, b.RunID)
}

func TestZeroGenerationsKeepsInitialBest(t *testing.T) {
	cfg := smallConfig(RANK)
	cfg.Generations = 0

	pop, err := New(twoObstacleField(), cfg, WithLogger(quietLogger()))
	require.NoError(t, err)
	result, err := pop.Run()
	require.NoError(t, err)

	require.Len(t, result.Trace, 1)
	initial := pop.Individuals()
	// the direct plan always seeds the last slot
	assert.Equal(t, []flightplan.Turn{flightplan.RIGHT_TURN, flightplan.NO_TURN, flightplan.NO_TURN, flightplan.LEFT_TURN},
		initial[len(initial)-1].Tangency())
	for _, ind := range initial {
		assert.GreaterOrEqual(t, ind.Score(), result.Best.Score())
	}
}

func TestEvaluateKeepsInputOrder(t *testing.T) {
	cfg := smallConfig(ROULETTE)
	cfg.Parallelism = 3
	field := twoObstacleField()
	pop, err := New(field, cfg, WithLogger(quietLogger()))
	require.NoError(t, err)

	rng := rand.New(rand.NewPCG(5, 6))
	genomes := make([]flightplan.Genome, 17)
	for i := range genomes {
		genomes[i], err = flightplan.NewRandomGenome(field.Len(), aircraft.DefaultModel(), rng)
		require.NoError(t, err)
	}

	out, err := pop.evaluate(genomes)
	require.NoError(t, err)
	require.Len(t, out, len(genomes))
	for i, ind := range out {
		want := route.New(field.Obstacles, genomes[i], route.DefaultEvaluator())
		assert.Equal(t, want.Score(), ind.Score(), "individual %d", i)
		assert.Equal(t, want.Path(), ind.Path(), "individual %d", i)
	}
}
