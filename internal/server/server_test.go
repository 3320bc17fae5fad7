package server

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"morphing-planner/internal/config"
	"morphing-planner/internal/planner/evolution"
	"morphing-planner/internal/planner/flightplan"

	"github.com/gorilla/websocket"
	"github.com/labstack/gommon/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const twoObstacleMap = "[[10,0,2],[20,0,2]] ; INIT : [0, 0] ; GOAL : [30, 0]"

func newTestServer(t *testing.T) *Server {
	t.Helper()
	cfg := config.Default()
	cfg.Log.Level = "off"
	cfg.Server.MaxPopulation = 50
	cfg.Server.MaxGenerations = 20

	logger := log.New("test")
	logger.SetOutput(io.Discard)
	s, err := New(cfg, logger)
	require.NoError(t, err)
	return s
}

func planBody(t *testing.T, mapText string, ga map[string]any) []byte {
	t.Helper()
	body, err := json.Marshal(map[string]any{"map": mapText, "ga": ga})
	require.NoError(t, err)
	return body
}

func smallGA() map[string]any {
	return map[string]any{"population_size": 10, "generations": 4, "seed": 5, "selection": "tournament"}
}

func TestHealth(t *testing.T) {
	s := newTestServer(t)
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}

func TestPlan(t *testing.T) {
	s := newTestServer(t)
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/plans", bytes.NewReader(planBody(t, twoObstacleMap, smallGA())))
	s.Handler().ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var resp PlanResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.NotEmpty(t, resp.RunID)
	assert.Equal(t, uint64(5), resp.Seed)
	assert.Len(t, resp.Trace, 5)
	assert.Len(t, resp.Tangency, 4)
	assert.Len(t, resp.Wingspans, 8)
	assert.NotEmpty(t, resp.Path)
	assert.Positive(t, resp.FlightTime)
	assert.NotEqual(t, flightplan.NO_TURN, resp.Tangency[0])
	assert.Contains(t, rec.Body.String(), `"tangency":["`)
}

func TestPlanRejectsBadRequests(t *testing.T) {
	s := newTestServer(t)
	cases := map[string][]byte{
		"not json":       []byte("{"),
		"missing map":    []byte(`{"ga": {"generations": 2}}`),
		"unknown field":  []byte(`{"map": "x", "speed": 3}`),
		"malformed map":  planBody(t, "[[1,2]] ; INIT : [0, 0]", smallGA()),
		"odd population": planBody(t, twoObstacleMap, map[string]any{"population_size": 9}),
		"over limit":     planBody(t, twoObstacleMap, map[string]any{"population_size": 100}),
		"too many gens":  planBody(t, twoObstacleMap, map[string]any{"population_size": 10, "generations": 500}),
		"bad strategy":   planBody(t, twoObstacleMap, map[string]any{"population_size": 10, "selection": "lottery"}),
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/v1/plans", bytes.NewReader(body)))
			assert.Equal(t, http.StatusBadRequest, rec.Code)

			var resp errorResponse
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
			assert.NotEmpty(t, resp.Error)
		})
	}
}

func TestMethodNotAllowed(t *testing.T) {
	s := newTestServer(t)
	cases := []struct {
		method, path string
	}{
		{http.MethodGet, "/api/v1/plans"},
		{http.MethodPut, "/api/v1/plans"},
		{http.MethodPost, "/api/v1/plans/stream"},
		{http.MethodPost, "/healthz"},
	}
	for _, c := range cases {
		rec := httptest.NewRecorder()
		s.Handler().ServeHTTP(rec, httptest.NewRequest(c.method, c.path, nil))
		assert.Equal(t, http.StatusMethodNotAllowed, rec.Code, "%s %s", c.method, c.path)
	}

	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/unknown", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestStatusFor(t *testing.T) {
	assert.Equal(t, http.StatusBadRequest, statusFor(fmt.Errorf("%w: x", errBadRequest)))
	assert.Equal(t, http.StatusUnprocessableEntity, statusFor(evolution.ErrNoFeasiblePath))
	assert.Equal(t, http.StatusInternalServerError, statusFor(errors.New("boom")))
}

func dialStream(t *testing.T, s *Server) *websocket.Conn {
	t.Helper()
	ts := httptest.NewServer(s.Handler())
	t.Cleanup(ts.Close)

	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/api/v1/plans/stream"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func TestStream(t *testing.T) {
	s := newTestServer(t)
	conn := dialStream(t, s)
	require.NoError(t, conn.WriteMessage(websocket.TextMessage, planBody(t, twoObstacleMap, smallGA())))

	var generations []evolution.PerfPoint
	for {
		var msg StreamMessage
		require.NoError(t, conn.ReadJSON(&msg))
		if msg.Type == MSG_GENERATION {
			require.NotNil(t, msg.Generation)
			generations = append(generations, *msg.Generation)
			continue
		}
		require.Equal(t, MSG_RESULT, msg.Type, msg.Error)
		require.NotNil(t, msg.Result)
		assert.Equal(t, generations, msg.Result.Trace)
		break
	}
	require.Len(t, generations, 5)
	for i, g := range generations {
		assert.Equal(t, i, g.Generation)
	}
}

func TestStreamBadRequest(t *testing.T) {
	s := newTestServer(t)
	conn := dialStream(t, s)
	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte(`{"ga": {}}`)))

	var msg StreamMessage
	require.NoError(t, conn.ReadJSON(&msg))
	assert.Equal(t, MSG_ERROR, msg.Type)
	assert.Equal(t, http.StatusBadRequest, msg.Status)
	assert.NotEmpty(t, msg.Error)
}
