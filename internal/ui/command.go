package ui

import (
	"fmt"
	"strconv"
	"strings"

	"morphing-planner/internal/planner/evolution"
)

type Verb int

const (
	RUN Verb = iota
	NEW_FIELD
	LOAD_MAP
	SAVE_MAP
	EXPORT
	POPULATION
	GENERATIONS
	SELECTION
	SEED
	HELP
)

var VerbStringMap = map[Verb]string{
	RUN:         "RUN",
	NEW_FIELD:   "NEW",
	LOAD_MAP:    "LOAD",
	SAVE_MAP:    "SAVE",
	EXPORT:      "EXPORT",
	POPULATION:  "POP",
	GENERATIONS: "GEN",
	SELECTION:   "SEL",
	SEED:        "SEED",
	HELP:        "HELP",
}

var verbAliases = map[string]Verb{
	"R": RUN, "RUN": RUN,
	"N": NEW_FIELD, "NEW": NEW_FIELD,
	"L": LOAD_MAP, "LOAD": LOAD_MAP,
	"S": SAVE_MAP, "SAVE": SAVE_MAP,
	"E": EXPORT, "EXPORT": EXPORT,
	"P": POPULATION, "POP": POPULATION,
	"G": GENERATIONS, "GEN": GENERATIONS,
	"SEL": SELECTION, "SELECT": SELECTION,
	"SEED": SEED,
	"H": HELP, "HELP": HELP, "?": HELP,
}

const HELP_TEXT = "R run | N new field | L/S <file> load/save map | E <dir> export PNGs | " +
	"P <n> population | G <n> generations | SEL <strategy> | SEED <n>"

// Command is one parsed line of the viewer prompt.
type Command struct {
	Verb     Verb
	Arg      string
	N        int
	Strategy evolution.Strategy
}

func (v Verb) String() string {
	return VerbStringMap[v]
}

func ParseCommand(line string) (Command, error) {
	parts := strings.Fields(line)
	if len(parts) == 0 {
		return Command{}, fmt.Errorf("empty command")
	}
	verb, ok := verbAliases[strings.ToUpper(parts[0])]
	if !ok {
		return Command{}, fmt.Errorf("unknown command %q, try HELP", parts[0])
	}
	cmd := Command{Verb: verb}

	switch verb {
	case RUN, NEW_FIELD, HELP:
		if len(parts) != 1 {
			return Command{}, fmt.Errorf("%s takes no argument", verb)
		}
		return cmd, nil
	}

	if len(parts) != 2 {
		return Command{}, fmt.Errorf("%s takes exactly one argument", verb)
	}
	cmd.Arg = parts[1]

	switch verb {
	case POPULATION:
		n, err := strconv.Atoi(cmd.Arg)
		if err != nil || n < 2 || n%2 != 0 {
			return Command{}, fmt.Errorf("invalid population %q: must be even and at least 2", cmd.Arg)
		}
		cmd.N = n
	case GENERATIONS:
		n, err := strconv.Atoi(cmd.Arg)
		if err != nil || n < 0 {
			return Command{}, fmt.Errorf("invalid generation count %q", cmd.Arg)
		}
		cmd.N = n
	case SEED:
		n, err := strconv.Atoi(cmd.Arg)
		if err != nil || n < 0 {
			return Command{}, fmt.Errorf("invalid seed %q", cmd.Arg)
		}
		cmd.N = n
	case SELECTION:
		s, err := evolution.ParseStrategy(cmd.Arg)
		if err != nil {
			return Command{}, err
		}
		cmd.Strategy = s
	}
	return cmd, nil
}
