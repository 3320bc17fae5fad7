package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"net/http"
	"strings"

	"morphing-planner/internal/planner/airspace"
	"morphing-planner/internal/planner/evolution"
	"morphing-planner/internal/planner/flightplan"
	"morphing-planner/internal/planner/route"
)

const MAX_REQUEST_BYTES = 1 << 20

var errBadRequest = errors.New("bad request")

type PlanRequest struct {
	Map     string           `json:"map"`
	GA      evolution.Config `json:"ga"`
	Fitness route.Weights    `json:"fitness"`
}

type PlanResponse struct {
	RunID       string                `json:"run_id"`
	Seed        uint64                `json:"seed"`
	Score       float64               `json:"score"`
	FlightTime  float64               `json:"flight_time"`
	Tangency    []flightplan.Turn     `json:"tangency"`
	ForcedTurns []int                 `json:"forced_turns"`
	Crossed     []int                 `json:"obstacles_crossed"`
	Wingspans   []float64             `json:"wingspans"`
	Path        [][2]float64          `json:"path"`
	Trace       []evolution.PerfPoint `json:"trace"`
	ElapsedMS   int64                 `json:"elapsed_ms"`
}

type errorResponse struct {
	Error string `json:"error"`
}

// plan is a validated request ready to run.
type plan struct {
	field *airspace.Field
	ga    evolution.Config
	eval  route.Evaluator
}

// decodePlan validates raw against the request schema, overlays it on the
// server defaults and enforces the size limits.
func (s *Server) decodePlan(raw []byte) (plan, error) {
	if err := s.validator.ValidateBytes(raw); err != nil {
		return plan{}, fmt.Errorf("%w: %v", errBadRequest, err)
	}

	req := PlanRequest{GA: s.cfg.GA, Fitness: s.cfg.Fitness}
	if err := json.Unmarshal(raw, &req); err != nil {
		return plan{}, fmt.Errorf("%w: %v", errBadRequest, err)
	}
	if req.GA.PopulationSize > s.cfg.Server.MaxPopulation {
		return plan{}, fmt.Errorf("%w: population %d exceeds the limit of %d",
			errBadRequest, req.GA.PopulationSize, s.cfg.Server.MaxPopulation)
	}
	if req.GA.Generations > s.cfg.Server.MaxGenerations {
		return plan{}, fmt.Errorf("%w: %d generations exceed the limit of %d",
			errBadRequest, req.GA.Generations, s.cfg.Server.MaxGenerations)
	}
	if err := req.GA.Validate(); err != nil {
		return plan{}, fmt.Errorf("%w: %v", errBadRequest, err)
	}

	field, err := airspace.LoadMap(strings.NewReader(req.Map))
	if err != nil {
		return plan{}, fmt.Errorf("%w: %v", errBadRequest, err)
	}

	eval := s.cfg.Evaluator()
	eval.Weights = req.Fitness
	return plan{field: field, ga: req.GA, eval: eval}, nil
}

func (s *Server) run(p plan, observer func(evolution.PerfPoint)) (evolution.Result, error) {
	opts := []evolution.Option{
		evolution.WithLogger(s.cfg.NewLogger("evolution")),
		evolution.WithModel(s.cfg.Vehicle),
		evolution.WithEvaluator(p.eval),
	}
	if observer != nil {
		opts = append(opts, evolution.WithObserver(observer))
	}
	pop, err := evolution.New(p.field, p.ga, opts...)
	if err != nil {
		return evolution.Result{}, fmt.Errorf("%w: %v", errBadRequest, err)
	}
	return pop.Run()
}

func newPlanResponse(result evolution.Result) PlanResponse {
	best := result.Best
	path := best.Path()
	points := make([][2]float64, len(path))
	for i, p := range path {
		points[i] = [2]float64{p.X, p.Y}
	}
	trace := make([]evolution.PerfPoint, len(result.Trace))
	for i, point := range result.Trace {
		// JSON has no infinity
		if math.IsInf(point.BestScore, 0) {
			point.BestScore = -1
		}
		trace[i] = point
	}

	return PlanResponse{
		RunID:       result.RunID.String(),
		Seed:        result.Seed,
		Score:       best.Score(),
		FlightTime:  best.FlightTime(),
		Tangency:    best.Tangency(),
		ForcedTurns: best.ForcedTurns(),
		Crossed:     best.ObstaclesCrossed(),
		Wingspans:   best.Genome().Wingspans(),
		Path:        points,
		Trace:       trace,
		ElapsedMS:   result.Elapsed.Milliseconds(),
	}
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, errBadRequest):
		return http.StatusBadRequest
	case errors.Is(err, evolution.ErrNoFeasiblePath):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		s.logger.Errorf("write response: %v", err)
	}
}

func (s *Server) writeError(w http.ResponseWriter, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		s.logger.Errorf("plan failed: %v", err)
	} else {
		s.logger.Debugf("plan rejected (%d): %v", status, err)
	}
	s.writeJSON(w, status, errorResponse{Error: err.Error()})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handlePlan(w http.ResponseWriter, r *http.Request) {
	raw, err := io.ReadAll(io.LimitReader(r.Body, MAX_REQUEST_BYTES))
	if err != nil {
		s.writeError(w, fmt.Errorf("%w: %v", errBadRequest, err))
		return
	}
	p, err := s.decodePlan(raw)
	if err != nil {
		s.writeError(w, err)
		return
	}

	result, err := s.run(p, nil)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.logger.Infof("plan %s: %d obstacles, score %.2f", result.RunID, p.field.Len(), result.Best.Score())
	s.writeJSON(w, http.StatusOK, newPlanResponse(result))
}
