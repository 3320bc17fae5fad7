package airspace

import (
	"cmp"
	"errors"
	"fmt"
	"math"
	"math/rand/v2"
	"slices"
	"strings"

	"morphing-planner/pkg/types"
)

var ErrFieldTooDense = errors.New("airspace: could not place every obstacle")

// Sorting decides the order in which obstacles are visited.
type Sorting int

const (
	SORT_DISTANCE Sorting = iota
	SORT_RANDOM
	SORT_CRESCENT
)

var SortingStringMap = map[Sorting]string{
	SORT_DISTANCE: "distance",
	SORT_RANDOM:   "random",
	SORT_CRESCENT: "crescent",
}

func (s Sorting) String() string {
	if name, ok := SortingStringMap[s]; ok {
		return name
	}
	return fmt.Sprintf("Sorting(%d)", int(s))
}

func ParseSorting(value string) (Sorting, error) {
	key := strings.ToLower(strings.TrimSpace(value))
	for s, name := range SortingStringMap {
		if name == key {
			return s, nil
		}
	}
	return 0, fmt.Errorf("unknown sorting %q", value)
}

func (s Sorting) MarshalText() ([]byte, error) {
	if _, ok := SortingStringMap[s]; !ok {
		return nil, fmt.Errorf("unknown sorting %d", int(s))
	}
	return []byte(s.String()), nil
}

func (s *Sorting) UnmarshalText(b []byte) error {
	parsed, err := ParseSorting(string(b))
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}

type GeneratorConfig struct {
	// Interior obstacles; start and goal are added on top.
	Count     int     `yaml:"count" toml:"count" json:"count"`
	RadiusMin float64 `yaml:"radius_min" toml:"radius_min" json:"radius_min"`
	RadiusMax float64 `yaml:"radius_max" toml:"radius_max" json:"radius_max"`
	Width     float64 `yaml:"width" toml:"width" json:"width"`
	Height    float64 `yaml:"height" toml:"height" json:"height"`
	Margin    float64 `yaml:"margin" toml:"margin" json:"margin"`
	Sorting   Sorting `yaml:"sorting" toml:"sorting" json:"sorting"`
	// Total placement attempts before giving up.
	MaxAttempts int `yaml:"max_attempts" toml:"max_attempts" json:"max_attempts"`
}

func DefaultGeneratorConfig() GeneratorConfig {
	return GeneratorConfig{
		Count:       15,
		RadiusMin:   0.6,
		RadiusMax:   2.0,
		Width:       30,
		Height:      30,
		Sorting:     SORT_DISTANCE,
		MaxAttempts: 100000,
	}
}

func (c GeneratorConfig) Validate() error {
	if c.Count < 0 {
		return fmt.Errorf("obstacle count must not be negative, got %d", c.Count)
	}
	if !(c.RadiusMin > 0) || c.RadiusMax < c.RadiusMin {
		return fmt.Errorf("radius range [%v, %v] is invalid", c.RadiusMin, c.RadiusMax)
	}
	if c.Margin < 0 {
		return fmt.Errorf("margin must not be negative, got %v", c.Margin)
	}
	span := 2 * (c.RadiusMax + c.Margin)
	if c.Width <= span || c.Height <= span {
		return fmt.Errorf("map %vx%v is too small for radius %v and margin %v", c.Width, c.Height, c.RadiusMax, c.Margin)
	}
	if _, ok := SortingStringMap[c.Sorting]; !ok {
		return fmt.Errorf("unknown sorting %d", int(c.Sorting))
	}
	if c.MaxAttempts <= 0 {
		return fmt.Errorf("max attempts must be positive, got %d", c.MaxAttempts)
	}
	return nil
}

func uniform(rng *rand.Rand, lo, hi float64) float64 {
	return lo + rng.Float64()*(hi-lo)
}

// Generate places Count+2 circles on integer centres. A candidate is kept when it
// sits at least RadiusMax beyond the rim of every circle already placed.
func Generate(rng *rand.Rand, cfg GeneratorConfig) (*Field, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	circles := make([]types.Circle, 0, cfg.Count+2)
	attempts := 0
	for len(circles) < cfg.Count+2 {
		if attempts >= cfg.MaxAttempts {
			return nil, fmt.Errorf("%w: placed %d of %d after %d attempts",
				ErrFieldTooDense, len(circles), cfg.Count+2, attempts)
		}
		attempts++

		radius := math.Round(uniform(rng, cfg.RadiusMin, cfg.RadiusMax)*1000) / 1000
		x := math.Trunc(uniform(rng, radius+cfg.Margin, cfg.Width-radius-cfg.Margin))
		y := math.Trunc(uniform(rng, radius+cfg.Margin, cfg.Height-radius-cfg.Margin))
		candidate := types.NewCircle(x, y, radius)

		free := true
		for _, c := range circles {
			if c.Center.DistanceTo(candidate.Center) < c.Radius+cfg.RadiusMax {
				free = false
				break
			}
		}
		if free {
			circles = append(circles, candidate)
		}
	}

	sortObstacles(circles, cfg.Sorting)
	circles[0].Radius = 0
	circles[len(circles)-1].Radius = 0
	return &Field{Obstacles: circles}, nil
}

func sortObstacles(circles []types.Circle, sorting Sorting) {
	switch sorting {
	case SORT_DISTANCE:
		origin := circles[0].Center
		slices.SortStableFunc(circles, func(a, b types.Circle) int {
			da, db := a.Center.Sub(origin), b.Center.Sub(origin)
			return cmp.Compare(da.Dot(da), db.Dot(db))
		})
	case SORT_CRESCENT:
		slices.SortStableFunc(circles, func(a, b types.Circle) int {
			return cmp.Compare(a.Center.X+a.Center.Y, b.Center.X+b.Center.Y)
		})
	case SORT_RANDOM:
	}
}
