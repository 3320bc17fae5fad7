package flightplan

import (
	"fmt"
	"math/rand/v2"

	"morphing-planner/internal/planner/aircraft"
)

// Genome is one candidate flight plan: a tangency directive per obstacle and
// 2N vehicle slots. Slot 2i is the arc around obstacle i, slot 2i+1 the straight leaving it.
type Genome struct {
	Tangency []Turn
	Slots    []aircraft.Params
}

func ArcSlot(i int) int      { return 2 * i }
func StraightSlot(i int) int { return 2*i + 1 }

// NewRandomGenome draws every directive and every slot wingspan uniformly.
// Ends only turn; interior obstacles may also be skipped.
func NewRandomGenome(n int, model aircraft.Model, rng *rand.Rand) (Genome, error) {
	g := Genome{
		Tangency: make([]Turn, n),
		Slots:    make([]aircraft.Params, 2*n),
	}
	for i := range g.Tangency {
		if i == 0 || i == n-1 {
			g.Tangency[i] = Turn(rng.IntN(2))
		} else {
			g.Tangency[i] = Turn(rng.IntN(3))
		}
	}
	for s := range g.Slots {
		p, err := model.Random(rng)
		if err != nil {
			return Genome{}, err
		}
		g.Slots[s] = p
	}
	g.clearEndTurnRadii()
	return g, nil
}

// NewCanonicalGenome is the direct plan [RT, NT..., LT] used to seed every population.
func NewCanonicalGenome(n int, model aircraft.Model, rng *rand.Rand) (Genome, error) {
	g, err := NewRandomGenome(n, model, rng)
	if err != nil {
		return Genome{}, err
	}
	for i := range g.Tangency {
		g.Tangency[i] = NO_TURN
	}
	g.Tangency[0] = RIGHT_TURN
	g.Tangency[n-1] = LEFT_TURN
	return g, nil
}

// NewUniformGenome sets every slot to the same wingspan. Tangency is copied.
func NewUniformGenome(tangency []Turn, wingspan float64, model aircraft.Model) (Genome, error) {
	p, err := model.Derive(wingspan)
	if err != nil {
		return Genome{}, err
	}
	g := Genome{
		Tangency: append([]Turn(nil), tangency...),
		Slots:    make([]aircraft.Params, 2*len(tangency)),
	}
	for s := range g.Slots {
		g.Slots[s] = p
	}
	g.clearEndTurnRadii()
	return g, nil
}

func (g *Genome) clearEndTurnRadii() {
	if len(g.Slots) == 0 {
		return
	}
	g.Slots[0].MinTurnRadius = 0
	g.Slots[len(g.Slots)-1].MinTurnRadius = 0
}

func (g Genome) Len() int {
	return len(g.Tangency)
}

func (g Genome) Clone() Genome {
	return Genome{
		Tangency: append([]Turn(nil), g.Tangency...),
		Slots:    append([]aircraft.Params(nil), g.Slots...),
	}
}

// SetWingspan re-derives one slot from a new wingspan.
func (g *Genome) SetWingspan(slot int, wingspan float64, model aircraft.Model) error {
	p, err := model.Derive(wingspan)
	if err != nil {
		return err
	}
	g.Slots[slot] = p
	if slot == 0 || slot == len(g.Slots)-1 {
		g.Slots[slot].MinTurnRadius = 0
	}
	return nil
}

func (g Genome) Speeds() []float64 {
	out := make([]float64, len(g.Slots))
	for i, p := range g.Slots {
		out[i] = p.Speed
	}
	return out
}

func (g Genome) Wingspans() []float64 {
	out := make([]float64, len(g.Slots))
	for i, p := range g.Slots {
		out[i] = p.Wingspan
	}
	return out
}

func (g Genome) MinTurnRadii() []float64 {
	out := make([]float64, len(g.Slots))
	for i, p := range g.Slots {
		out[i] = p.MinTurnRadius
	}
	return out
}

// TurnCount is the number of obstacles actually turned around.
func (g Genome) TurnCount() int {
	count := 0
	for _, t := range g.Tangency {
		if t != NO_TURN {
			count++
		}
	}
	return count
}

func (g Genome) Validate(n int) error {
	if len(g.Tangency) != n {
		return fmt.Errorf("genome has %d directives, field has %d obstacles", len(g.Tangency), n)
	}
	if len(g.Slots) != 2*n {
		return fmt.Errorf("genome has %d slots, want %d", len(g.Slots), 2*n)
	}
	if n < 2 {
		return fmt.Errorf("genome needs at least start and goal, got %d", n)
	}
	if g.Tangency[0] == NO_TURN || g.Tangency[n-1] == NO_TURN {
		return fmt.Errorf("start and goal directives must turn, got %s", FormatTangency(g.Tangency))
	}
	for i, t := range g.Tangency {
		if t != RIGHT_TURN && t != LEFT_TURN && t != NO_TURN {
			return fmt.Errorf("invalid directive %d at obstacle %d", int(t), i)
		}
	}
	if g.Slots[0].MinTurnRadius != 0 || g.Slots[2*n-1].MinTurnRadius != 0 {
		return fmt.Errorf("start and goal slots must not carry a turn radius")
	}
	return nil
}
