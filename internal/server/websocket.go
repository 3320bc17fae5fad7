package server

import (
	"fmt"
	"math"
	"net/http"

	"morphing-planner/internal/planner/evolution"

	"github.com/gorilla/websocket"
)

const (
	MSG_GENERATION = "generation"
	MSG_RESULT     = "result"
	MSG_ERROR      = "error"
)

type StreamMessage struct {
	Type       string               `json:"type"`
	Generation *evolution.PerfPoint `json:"generation,omitempty"`
	Result     *PlanResponse        `json:"result,omitempty"`
	Error      string               `json:"error,omitempty"`
	Status     int                  `json:"status,omitempty"`
}

// handleStream reads one plan request, then pushes a message per generation
// followed by the result or an error.
func (s *Server) handleStream(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warnf("websocket upgrade: %v", err)
		return
	}
	defer conn.Close()
	conn.SetReadLimit(MAX_REQUEST_BYTES)

	_, raw, err := conn.ReadMessage()
	if err != nil {
		s.logger.Debugf("websocket closed before request: %v", err)
		return
	}

	send := func(msg StreamMessage) error {
		return conn.WriteJSON(msg)
	}
	fail := func(err error) {
		status := statusFor(err)
		if status == http.StatusInternalServerError {
			s.logger.Errorf("stream failed: %v", err)
		}
		if werr := send(StreamMessage{Type: MSG_ERROR, Error: err.Error(), Status: status}); werr != nil {
			s.logger.Debugf("websocket write: %v", werr)
		}
	}

	p, err := s.decodePlan(raw)
	if err != nil {
		fail(err)
		return
	}

	// The run cannot be cancelled; once the client is gone we stop writing.
	var writeErr error
	observer := func(point evolution.PerfPoint) {
		if writeErr != nil {
			return
		}
		if math.IsInf(point.BestScore, 0) {
			point.BestScore = -1
		}
		writeErr = send(StreamMessage{Type: MSG_GENERATION, Generation: &point})
	}

	result, err := s.run(p, observer)
	if writeErr != nil {
		s.logger.Debugf("client left during run: %v", writeErr)
		return
	}
	if err != nil {
		fail(err)
		return
	}

	response := newPlanResponse(result)
	if err := send(StreamMessage{Type: MSG_RESULT, Result: &response}); err != nil {
		s.logger.Debugf("websocket write: %v", err)
		return
	}
	_ = conn.WriteMessage(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, fmt.Sprintf("run %s done", result.RunID)))
}
