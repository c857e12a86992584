package httpapi

import (
	"bytes"
	"encoding/json"
	"net/http/httptest"
	"testing"

	"github.com/Prabhath77/soduku-containereized-np-solver/internal/aggregator"
	"github.com/Prabhath77/soduku-containereized-np-solver/internal/dispatcher"
	"github.com/Prabhath77/soduku-containereized-np-solver/internal/registry"
	"github.com/Prabhath77/soduku-containereized-np-solver/internal/sink"
)

func newTestServer() *Server {
	reg := registry.New()
	disp := dispatcher.New(0)
	agg := aggregator.New(reg, disp, sink.NewMemorySink())
	cfg := DefaultConfig()
	return New(cfg, reg, disp, agg)
}

func doJSON(s *Server, method, path string, body interface{}) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	rec := httptest.NewRecorder()
	s.server.Handler.ServeHTTP(rec, req)
	return rec
}

func TestHandleSolveTriviallySolvedByPropagation(t *testing.T) {
	s := newTestServer()
	rec := doJSON(s, "POST", "/solve", solveRequest{Board: [][]int{
		{1, 2, 3, 0},
		{3, 4, 1, 2},
		{2, 1, 4, 3},
		{4, 3, 2, 1},
	}})

	if rec.Code != 200 {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var resp solveResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Status != "completed" {
		t.Errorf("expected completed status, got %q", resp.Status)
	}
	if resp.SolvedBoard == nil {
		t.Error("expected a solved board in the response")
	}
}

func TestHandleSolveRejectsIllFormedClues(t *testing.T) {
	s := newTestServer()
	rec := doJSON(s, "POST", "/solve", solveRequest{Board: [][]int{
		{1, 1, 0, 0},
		{0, 0, 0, 0},
		{0, 0, 0, 0},
		{0, 0, 0, 0},
	}})
	if rec.Code != 400 {
		t.Fatalf("expected 400 for duplicated clue, got %d", rec.Code)
	}
}

func TestHandleSolveRejectsMalformedBoard(t *testing.T) {
	s := newTestServer()
	rec := doJSON(s, "POST", "/solve", solveRequest{Board: [][]int{
		{1, 2},
		{1, 2, 3},
	}})
	if rec.Code != 400 {
		t.Fatalf("expected 400 for ragged board, got %d", rec.Code)
	}
}

func TestQueueThenResultRoundTrip(t *testing.T) {
	s := newTestServer()
	rec := doJSON(s, "POST", "/solve", solveRequest{Board: [][]int{
		{1, 0, 0, 0},
		{0, 0, 0, 0},
		{0, 0, 0, 0},
		{0, 0, 0, 0},
	}})
	if rec.Code != 200 {
		t.Fatalf("solve failed: %d %s", rec.Code, rec.Body.String())
	}

	req := httptest.NewRequest("GET", "/queue?workerId=w1", nil)
	qrec := httptest.NewRecorder()
	s.server.Handler.ServeHTTP(qrec, req)
	if qrec.Code != 200 {
		t.Fatalf("expected a sub-job, got %d: %s", qrec.Code, qrec.Body.String())
	}

	var q queueResponse
	if err := json.NewDecoder(qrec.Body).Decode(&q); err != nil {
		t.Fatalf("decode: %v", err)
	}

	rrec := doJSON(s, "POST", "/result", resultRequest{
		ID:        q.ID,
		Values:    []int{1, 2, 3, 4},
		SureMask:  []bool{true, true, true, true},
		Iteration: q.Iteration,
	})
	if rrec.Code != 200 {
		t.Fatalf("expected 200 from /result, got %d: %s", rrec.Code, rrec.Body.String())
	}
}

func TestHandleStats(t *testing.T) {
	s := newTestServer()
	doJSON(s, "POST", "/solve", solveRequest{Board: [][]int{{0, 0}, {0, 0}}})

	req := httptest.NewRequest("GET", "/stats", nil)
	rec := httptest.NewRecorder()
	s.server.Handler.ServeHTTP(rec, req)

	var stats statsResponse
	if err := json.NewDecoder(rec.Body).Decode(&stats); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if stats.TotalJobs != 1 {
		t.Errorf("expected totalJobs=1, got %d", stats.TotalJobs)
	}
}
