package ui

import (
	"testing"

	"morphing-planner/internal/planner/evolution"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseCommand(t *testing.T) {
	cases := []struct {
		line string
		want Command
	}{
		{"r", Command{Verb: RUN}},
		{"  NEW ", Command{Verb: NEW_FIELD}},
		{"load maps/a.map", Command{Verb: LOAD_MAP, Arg: "maps/a.map"}},
		{"p 40", Command{Verb: POPULATION, Arg: "40", N: 40}},
		{"GEN 0", Command{Verb: GENERATIONS, Arg: "0", N: 0}},
		{"seed 12", Command{Verb: SEED, Arg: "12", N: 12}},
		{"sel BestHalf", Command{Verb: SELECTION, Arg: "BestHalf", Strategy: evolution.BEST_HALF}},
		{"?", Command{Verb: HELP}},
	}
	for _, c := range cases {
		got, err := ParseCommand(c.line)
		require.NoError(t, err, c.line)
		assert.Equal(t, c.want, got, c.line)
	}
}

func TestParseCommandErrors(t *testing.T) {
	for _, line := range []string{
		"",
		"fly",
		"run now",
		"load",
		"p 7",
		"p many",
		"g -1",
		"sel lottery",
		"seed 1 2",
	} {
		_, err := ParseCommand(line)
		assert.Error(t, err, line)
	}
}

func TestTextInputHistory(t *testing.T) {
	var submitted []string
	ti := NewTextInput(10, 20, 200, 30, func(s string) { submitted = append(submitted, s) })

	ti.Text = "  run "
	ti.Submit()
	ti.Text = "gen 5"
	ti.Submit()
	ti.Text = "   "
	ti.Submit()

	assert.Equal(t, []string{"run", "gen 5"}, submitted)
	assert.Empty(t, ti.Text)

	assert.Equal(t, "gen 5", ti.Recall(-1))
	assert.Equal(t, "run", ti.Recall(-1))
	assert.Equal(t, "run", ti.Recall(-1))
	assert.Equal(t, "gen 5", ti.Recall(1))
	assert.Equal(t, "", ti.Recall(1))
}

func TestTextInputIsClicked(t *testing.T) {
	ti := NewTextInput(10, 20, 200, 30, nil)
	assert.True(t, ti.IsClicked(10, 20))
	assert.True(t, ti.IsClicked(110, 35))
	assert.False(t, ti.IsClicked(9, 35))
	assert.False(t, ti.IsClicked(110, 51))
}
