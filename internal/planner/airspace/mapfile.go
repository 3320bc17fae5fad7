package airspace

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"morphing-planner/pkg/types"
)

var ErrMalformedMap = errors.New("airspace: malformed map")

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}

// SaveMap writes the field as
//
//	[[x,y,r],...] ; INIT : [x, y] ; GOAL : [x, y]
func SaveMap(w io.Writer, field *Field) error {
	if err := field.Validate(); err != nil {
		return err
	}

	var sb strings.Builder
	sb.WriteByte('[')
	for i, c := range field.Interior() {
		if i > 0 {
			sb.WriteByte(',')
		}
		fmt.Fprintf(&sb, "[%s,%s,%s]", formatFloat(c.Center.X), formatFloat(c.Center.Y), formatFloat(c.Radius))
	}
	sb.WriteByte(']')

	start, goal := field.Start(), field.Goal()
	fmt.Fprintf(&sb, " ; INIT : [%s, %s]", formatFloat(start.X), formatFloat(start.Y))
	fmt.Fprintf(&sb, " ; GOAL : [%s, %s]", formatFloat(goal.X), formatFloat(goal.Y))

	_, err := io.WriteString(w, sb.String())
	return err
}

func LoadMap(r io.Reader) (*Field, error) {
	raw, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	content := strings.NewReplacer("\n", "", "\r", "").Replace(string(raw))

	parts := strings.Split(content, ";")
	if len(parts) != 3 {
		return nil, fmt.Errorf("%w: want 3 ';'-separated sections, got %d", ErrMalformedMap, len(parts))
	}

	var triples [][]float64
	if err := json.Unmarshal([]byte(strings.TrimSpace(parts[0])), &triples); err != nil {
		return nil, fmt.Errorf("%w: obstacles: %v", ErrMalformedMap, err)
	}
	interior := make([]types.Circle, 0, len(triples))
	for i, t := range triples {
		if len(t) != 3 {
			return nil, fmt.Errorf("%w: obstacle %d has %d values, want 3", ErrMalformedMap, i, len(t))
		}
		interior = append(interior, types.NewCircle(t[0], t[1], t[2]))
	}

	start, err := parsePoint(parts[1], "INIT")
	if err != nil {
		return nil, err
	}
	goal, err := parsePoint(parts[2], "GOAL")
	if err != nil {
		return nil, err
	}

	field := NewField(start, goal, interior)
	if err := field.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedMap, err)
	}
	return field, nil
}

func parsePoint(section, label string) (types.Vec2, error) {
	body, ok := strings.CutPrefix(strings.TrimSpace(section), label)
	if !ok {
		return types.Vec2{}, fmt.Errorf("%w: missing %s", ErrMalformedMap, label)
	}
	body, ok = strings.CutPrefix(strings.TrimSpace(body), ":")
	if !ok {
		return types.Vec2{}, fmt.Errorf("%w: missing ':' after %s", ErrMalformedMap, label)
	}

	var xy []float64
	if err := json.Unmarshal([]byte(strings.TrimSpace(body)), &xy); err != nil {
		return types.Vec2{}, fmt.Errorf("%w: %s: %v", ErrMalformedMap, label, err)
	}
	if len(xy) != 2 {
		return types.Vec2{}, fmt.Errorf("%w: %s has %d values, want 2", ErrMalformedMap, label, len(xy))
	}
	return types.NewVec2(xy[0], xy[1]), nil
}

func SaveMapFile(path string, field *Field) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	w := bufio.NewWriter(f)
	if err := SaveMap(w, field); err != nil {
		f.Close()
		return err
	}
	if err := w.Flush(); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func LoadMapFile(path string) (*Field, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	field, err := LoadMap(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return field, nil
}
