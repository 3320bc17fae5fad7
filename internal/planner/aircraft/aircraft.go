package aircraft

import (
	"errors"
	"fmt"
	"math"
	"math/rand/v2"
)

const (
	B_MIN = 0.448 // minimum morphing wingspan (m)
	B_MAX = 0.667 // maximum morphing wingspan (m)
)

var ErrNoBankAngle = errors.New("aircraft: no admissible bank angle")

// BankAngleError reports a wingspan for which the turn performance is undefined.
type BankAngleError struct {
	Wingspan float64
	CosPhi   float64
}

func (e *BankAngleError) Error() string {
	return fmt.Sprintf("aircraft: wingspan %.4f gives cos(phi_max)=%.4f outside [-1,1]", e.Wingspan, e.CosPhi)
}

func (e *BankAngleError) Unwrap() error { return ErrNoBankAngle }

// Model holds the morphing-wing airframe constants.
type Model struct {
	Mass        float64 `yaml:"mass" toml:"mass" json:"mass"`                         // kg
	Gravity     float64 `yaml:"gravity" toml:"gravity" json:"gravity"`                // m/s^2
	AirDensity  float64 `yaml:"air_density" toml:"air_density" json:"air_density"`    // kg/m^3
	Cd0         float64 `yaml:"cd0" toml:"cd0" json:"cd0"`                            // zero-lift drag
	AlphaMax    float64 `yaml:"alpha_max" toml:"alpha_max" json:"alpha_max"`          // rad
	ThrustMax   float64 `yaml:"thrust_max" toml:"thrust_max" json:"thrust_max"`       // N
	Gamma       float64 `yaml:"gamma" toml:"gamma" json:"gamma"`                      // flight path angle, rad
	LiftSlope   float64 `yaml:"lift_slope" toml:"lift_slope" json:"lift_slope"`       // CL = LiftSlope * AlphaMax
	SurfaceA    float64 `yaml:"surface_a" toml:"surface_a" json:"surface_a"`          // S = a + b*exp(c*span)
	SurfaceB    float64 `yaml:"surface_b" toml:"surface_b" json:"surface_b"`          //
	SurfaceC    float64 `yaml:"surface_c" toml:"surface_c" json:"surface_c"`          //
	WingspanMin float64 `yaml:"wingspan_min" toml:"wingspan_min" json:"wingspan_min"` // m
	WingspanMax float64 `yaml:"wingspan_max" toml:"wingspan_max" json:"wingspan_max"` // m
}

func DefaultModel() Model {
	return Model{
		Mass:        0.12,
		Gravity:     9.81,
		AirDensity:  1.225,
		Cd0:         0.05,
		AlphaMax:    0.244346,
		ThrustMax:   1,
		Gamma:       1,
		LiftSlope:   3.683,
		SurfaceA:    0.0531,
		SurfaceB:    0.0012,
		SurfaceC:    4.6945,
		WingspanMin: B_MIN,
		WingspanMax: B_MAX,
	}
}

// Params is the vehicle state flown on one segment slot.
type Params struct {
	Wingspan      float64 `json:"wingspan"`
	Speed         float64 `json:"speed"`
	MinTurnRadius float64 `json:"min_turn_radius"`
	DragCoeff     float64 `json:"drag_coeff"`
}

func (m Model) LiftCoeff() float64 {
	return m.LiftSlope * m.AlphaMax
}

func (m Model) WingSurface(wingspan float64) float64 {
	return m.SurfaceA + m.SurfaceB*math.Exp(m.SurfaceC*wingspan)
}

// Derive computes level-flight speed and minimum turn radius for a wingspan.
func (m Model) Derive(wingspan float64) (Params, error) {
	if !(wingspan > 0) {
		return Params{}, &BankAngleError{Wingspan: wingspan, CosPhi: math.NaN()}
	}

	cl := m.LiftCoeff()
	surface := m.WingSurface(wingspan)
	speed := math.Sqrt(2 * m.Mass * m.Gravity / (m.AirDensity * surface * cl))
	lift := 0.5 * m.AirDensity * surface * cl * speed * speed
	cd := m.Cd0 + surface*cl*cl/(math.Pi*wingspan*wingspan)

	cosPhi := m.Mass * m.Gravity * math.Cos(m.Gamma) / (lift + m.ThrustMax*math.Sin(m.AlphaMax))
	if math.IsNaN(cosPhi) || cosPhi < -1 || cosPhi > 1 {
		return Params{}, &BankAngleError{Wingspan: wingspan, CosPhi: cosPhi}
	}
	phiMax := math.Acos(cosPhi)

	return Params{
		Wingspan:      wingspan,
		Speed:         speed,
		MinTurnRadius: speed * speed / (m.Gravity * math.Tan(phiMax)),
		DragCoeff:     cd,
	}, nil
}

func (m Model) RandomWingspan(rng *rand.Rand) float64 {
	return m.WingspanMin + rng.Float64()*(m.WingspanMax-m.WingspanMin)
}

// Random draws a wingspan uniformly in the morphing range and derives the rest.
func (m Model) Random(rng *rand.Rand) (Params, error) {
	return m.Derive(m.RandomWingspan(rng))
}

func (m Model) Validate() error {
	switch {
	case m.Mass <= 0:
		return fmt.Errorf("aircraft: mass must be positive, got %v", m.Mass)
	case m.Gravity <= 0:
		return fmt.Errorf("aircraft: gravity must be positive, got %v", m.Gravity)
	case m.AirDensity <= 0:
		return fmt.Errorf("aircraft: air density must be positive, got %v", m.AirDensity)
	case m.WingspanMin <= 0 || m.WingspanMax < m.WingspanMin:
		return fmt.Errorf("aircraft: invalid wingspan range [%v, %v]", m.WingspanMin, m.WingspanMax)
	}
	// Both ends of the range must be flyable.
	if _, err := m.Derive(m.WingspanMin); err != nil {
		return err
	}
	_, err := m.Derive(m.WingspanMax)
	return err
}
