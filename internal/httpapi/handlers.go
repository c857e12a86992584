package httpapi

import (
	"encoding/json"
	"net/http"

	"github.com/Prabhath77/soduku-containereized-np-solver/internal/board"
	"github.com/Prabhath77/soduku-containereized-np-solver/internal/partition"
	"github.com/Prabhath77/soduku-containereized-np-solver/internal/registry"
	"github.com/Prabhath77/soduku-containereized-np-solver/internal/solver"
)

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}

// handleSolve implements POST /solve (spec.md §6/§7).
func (s *Server) handleSolve(w http.ResponseWriter, r *http.Request) {
	var req solveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "malformed request body")
		return
	}

	b, err := board.FromRows(req.Board)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if !board.IsWellFormed(b) {
		writeError(w, http.StatusBadRequest, "ill-formed clue set")
		return
	}

	strategy, err := partition.ParseStrategy(s.cfg.DefaultStrategy)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	jobID := s.reg.NewJobID()
	job := registry.NewJob(jobID, b, strategy)
	s.reg.Add(job)

	if err := s.agg.Seed(job); err != nil {
		s.reg.Remove(jobID)
		writeError(w, http.StatusBadRequest, "unsolvable clues")
		return
	}

	job.Lock()
	resp := solveResponse{JobID: job.ID, Status: job.State.String()}
	if job.State == registry.StateSolved {
		resp.SolvedBoard = job.CurrentBlueprint.ToRows()
	} else {
		resp.PartialBoard = job.CurrentBlueprint.ToRows()
	}
	job.Unlock()

	writeJSON(w, http.StatusOK, resp)
}

// handleQueue implements GET /queue?workerId=… (spec.md §6).
func (s *Server) handleQueue(w http.ResponseWriter, r *http.Request) {
	workerID := r.URL.Query().Get("workerId")
	if workerID == "" {
		writeError(w, http.StatusBadRequest, "missing workerId")
		return
	}
	s.disp.Heartbeat(workerID)

	sj, ok := s.disp.Pull(workerID)
	if !ok {
		writeError(w, http.StatusNotFound, "no jobs")
		return
	}

	writeJSON(w, http.StatusOK, queueResponse{
		ID:             sj.SubJobID,
		Board:          toRows(sj.Spec.Values, sj.Spec.Cells),
		PartitionIndex: sj.Spec.Index,
		Iteration:      sj.Iteration,
		ContextBoard:   sj.ContextBlueprint.ToRows(),
		IsRequeue:      sj.IsRequeue,
	})
}

// handleResult implements POST /result (spec.md §6).
func (s *Server) handleResult(w http.ResponseWriter, r *http.Request) {
	var req resultRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.ID == "" {
		writeError(w, http.StatusBadRequest, "missing fields")
		return
	}

	sj, ok := s.disp.Submit(req.ID)
	if !ok {
		// Already-completed or unknown sub-job: tolerated duplicate.
		writeJSON(w, http.StatusOK, resultResponse{ID: req.ID, Status: "received"})
		return
	}

	job := s.reg.Get(sj.JobID)
	if job == nil {
		writeJSON(w, http.StatusOK, resultResponse{ID: req.ID, Status: "received"})
		return
	}

	s.agg.Submit(job, registry.Result{
		SubJobID:   sj.SubJobID,
		Spec:       sj.Spec,
		Values:     req.Values,
		SureMask:   req.SureMask,
		Iteration:  req.Iteration,
		Unsolvable: req.Unsolvable,
	})

	status := "received"
	if req.Unsolvable {
		status = "queued"
	}
	writeJSON(w, http.StatusOK, resultResponse{ID: req.ID, Status: status})
}

// handleHeartbeat implements POST /heartbeat (spec.md §6).
func (s *Server) handleHeartbeat(w http.ResponseWriter, r *http.Request) {
	var req heartbeatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.WorkerID == "" {
		writeError(w, http.StatusBadRequest, "missing workerId")
		return
	}
	s.disp.Heartbeat(req.WorkerID)
	w.WriteHeader(http.StatusOK)
}

// handleGrid implements GET /grid/:jobId (spec.md §6).
func (s *Server) handleGrid(w http.ResponseWriter, r *http.Request) {
	jobID := r.PathValue("jobId")
	job := s.reg.Get(jobID)
	if job == nil {
		writeError(w, http.StatusNotFound, "unknown job")
		return
	}

	job.Lock()
	resp := gridResponse{JobID: job.ID, PartialBoard: job.CurrentBlueprint.ToRows()}
	job.Unlock()
	writeJSON(w, http.StatusOK, resp)
}

// handleResultByID implements GET /result/:jobId (spec.md §6).
func (s *Server) handleResultByID(w http.ResponseWriter, r *http.Request) {
	s.writeSolvedOrProgress(w, r.PathValue("jobId"))
}

// handleFinalSolvedResults implements GET /FinalsolvedResults?jobId=…
// (spec.md §6).
func (s *Server) handleFinalSolvedResults(w http.ResponseWriter, r *http.Request) {
	s.writeSolvedOrProgress(w, r.URL.Query().Get("jobId"))
}

func (s *Server) writeSolvedOrProgress(w http.ResponseWriter, jobID string) {
	job := s.reg.Get(jobID)
	if job == nil {
		writeError(w, http.StatusNotFound, "unknown job")
		return
	}

	job.Lock()
	defer job.Unlock()

	switch job.State {
	case registry.StateSolved:
		writeJSON(w, http.StatusOK, solvedResponse{
			JobID:       job.ID,
			SolvedBoard: job.CurrentBlueprint.ToRows(),
			Status:      job.State.String(),
		})
	case registry.StateUnsolvable, registry.StateAbandoned:
		writeJSON(w, http.StatusOK, solvedResponse{JobID: job.ID, Status: job.State.String()})
	default:
		writeJSON(w, http.StatusOK, solvedResponse{
			JobID:    job.ID,
			Status:   "processing",
			Progress: progressPercent(job),
		})
	}
}

// handleTotalJobs implements GET /totalJobs (spec.md §6).
func (s *Server) handleTotalJobs(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, totalJobsResponse{TotalJobs: s.reg.TotalJobs()})
}

// handleStats is a supplemented gateway-style metrics endpoint (not in
// spec.md §6's table; mirrors concurrentapigateway.go's /metrics).
func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	active := 0
	for _, job := range s.reg.All() {
		job.Lock()
		if job.State == registry.StateActive {
			active++
		}
		job.Unlock()
	}
	writeJSON(w, http.StatusOK, statsResponse{
		TotalJobs:    s.reg.TotalJobs(),
		ActiveJobs:   active,
		QueueLength:  s.disp.QueueLength(),
		PendingPulls: s.disp.PendingCount(),
	})
}

// progressPercent estimates completion as the fraction of the current
// iteration's expected sub-jobs that have reported back.
func progressPercent(job *registry.Job) int {
	if job.ExpectedSubJobs == 0 {
		return 0
	}
	return (len(job.CompletedResults) * 100) / job.ExpectedSubJobs
}

// toRows shapes a partition's flat values back into the layout its
// cells describe: a single column (Nx1) for a COLUMN partition, or the
// rBlk x cBlk sub-grid for a BLOCK partition, so /queue's "board" field
// reads the same whichever strategy produced the partition.
func toRows(values []int, cells []solver.Cell) [][]int {
	if len(cells) == 0 {
		return nil
	}

	sameCol := true
	for _, c := range cells {
		if c.Col != cells[0].Col {
			sameCol = false
			break
		}
	}
	if sameCol {
		rows := make([][]int, len(values))
		for i, v := range values {
			rows[i] = []int{v}
		}
		return rows
	}

	minRow, maxRow, minCol, maxCol := cells[0].Row, cells[0].Row, cells[0].Col, cells[0].Col
	for _, c := range cells {
		if c.Row < minRow {
			minRow = c.Row
		}
		if c.Row > maxRow {
			maxRow = c.Row
		}
		if c.Col < minCol {
			minCol = c.Col
		}
		if c.Col > maxCol {
			maxCol = c.Col
		}
	}
	rows := make([][]int, maxRow-minRow+1)
	for i := range rows {
		rows[i] = make([]int, maxCol-minCol+1)
	}
	for i, c := range cells {
		rows[c.Row-minRow][c.Col-minCol] = values[i]
	}
	return rows
}
