package flightplan

import (
	"fmt"
	"strings"
)

// Turn is the tangency directive for one obstacle.
type Turn int

const (
	RIGHT_TURN Turn = iota
	LEFT_TURN
	NO_TURN
)

var TurnStringMap = map[Turn]string{
	RIGHT_TURN: "RT",
	LEFT_TURN:  "LT",
	NO_TURN:    "NT",
}

func (t Turn) String() string {
	if s, ok := TurnStringMap[t]; ok {
		return s
	}
	return fmt.Sprintf("Turn(%d)", int(t))
}

func ParseTurn(value string) (Turn, error) {
	switch strings.ToUpper(strings.TrimSpace(value)) {
	case "RT", "R", "RIGHT":
		return RIGHT_TURN, nil
	case "LT", "L", "LEFT":
		return LEFT_TURN, nil
	case "NT", "N", "NONE":
		return NO_TURN, nil
	default:
		return NO_TURN, fmt.Errorf("unknown turn %q", value)
	}
}

func (t Turn) MarshalText() ([]byte, error) {
	return []byte(t.String()), nil
}

func (t *Turn) UnmarshalText(b []byte) error {
	parsed, err := ParseTurn(string(b))
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}

// Mode is a Dubins tangent family: departure turn, straight, arrival turn.
type Mode int

const (
	RSR Mode = iota
	LSL
	LSR
	RSL
)

var ModeStringMap = map[Mode]string{
	RSR: "RSR",
	LSL: "LSL",
	LSR: "LSR",
	RSL: "RSL",
}

func (m Mode) String() string {
	if s, ok := ModeStringMap[m]; ok {
		return s
	}
	return fmt.Sprintf("Mode(%d)", int(m))
}

// ModeFor joins the turn at the departure obstacle with the turn at the arrival obstacle.
func ModeFor(from, to Turn) (Mode, error) {
	switch {
	case from == RIGHT_TURN && to == RIGHT_TURN:
		return RSR, nil
	case from == RIGHT_TURN && to == LEFT_TURN:
		return RSL, nil
	case from == LEFT_TURN && to == LEFT_TURN:
		return LSL, nil
	case from == LEFT_TURN && to == RIGHT_TURN:
		return LSR, nil
	}
	return RSR, fmt.Errorf("no tangent family joins %s and %s", from, to)
}

func (m Mode) Departure() Turn {
	switch m {
	case RSR, RSL:
		return RIGHT_TURN
	default:
		return LEFT_TURN
	}
}

func (m Mode) Arrival() Turn {
	switch m {
	case RSR, LSR:
		return RIGHT_TURN
	default:
		return LEFT_TURN
	}
}

// Crossing reports whether the tangent passes between the two circles.
func (m Mode) Crossing() bool {
	return m == LSR || m == RSL
}

func FormatTangency(tangency []Turn) string {
	parts := make([]string, len(tangency))
	for i, t := range tangency {
		parts[i] = t.String()
	}
	return "[" + strings.Join(parts, " ") + "]"
}
