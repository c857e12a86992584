package httpapi

import "github.com/Prabhath77/soduku-containereized-np-solver/internal/partition"

// Wire types mirror spec.md §6's endpoint table exactly, with explicit
// json tags and no map[string]interface{} ingestion anywhere, per
// concurrentjobscheduler.go's JobRequest/JobResult struct-field model.

type solveRequest struct {
	Board [][]int `json:"board"`
}

type solveResponse struct {
	JobID        string  `json:"jobId"`
	Status       string  `json:"status"`
	PartialBoard [][]int `json:"partialBoard,omitempty"`
	SolvedBoard  [][]int `json:"solvedBoard,omitempty"`
}

type queueResponse struct {
	ID             string          `json:"id"`
	Board          [][]int         `json:"board"`
	PartitionIndex partition.Index `json:"partitionIndex"`
	Iteration      int             `json:"iteration"`
	ContextBoard   [][]int         `json:"contextBoard"`
	IsRequeue      bool            `json:"isRequeue"`
}

type resultRequest struct {
	ID             string          `json:"id"`
	Values         []int           `json:"values"`
	SureMask       []bool          `json:"sureMask"`
	PartitionIndex partition.Index `json:"partitionIndex"`
	Iteration      int             `json:"iteration"`
	Unsolvable     bool            `json:"unsolvable"`
}

type resultResponse struct {
	ID     string `json:"id"`
	Status string `json:"status"`
}

type heartbeatRequest struct {
	WorkerID string `json:"workerId"`
}

type gridResponse struct {
	JobID        string  `json:"jobId"`
	PartialBoard [][]int `json:"partialBoard"`
}

type solvedResponse struct {
	JobID       string  `json:"jobId"`
	SolvedBoard [][]int `json:"solvedBoard,omitempty"`
	Status      string  `json:"status"`
	Progress    int     `json:"progress,omitempty"`
}

type totalJobsResponse struct {
	TotalJobs int64 `json:"totalJobs"`
}

type statsResponse struct {
	TotalJobs    int64 `json:"totalJobs"`
	ActiveJobs   int   `json:"activeJobs"`
	QueueLength  int   `json:"queueLength"`
	PendingPulls int   `json:"pendingPulls"`
}

type errorResponse struct {
	Error string `json:"error"`
}
