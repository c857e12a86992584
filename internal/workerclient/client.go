// Package workerclient implements the worker side of the master's HTTP
// protocol: pulling sub-jobs from /queue, posting /result, and sending
// /heartbeat. PullWithBackoff retries with bounded exponential backoff
// while the queue is empty; other failures are returned to the caller.
// Grounded on concurrentloadbalancer.go's http.Client{Timeout: ...}
// usage and concurrentjobscheduler.go's RetryManager.calculateRetryDelay
// backoff formula.
package workerclient

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/Prabhath77/soduku-containereized-np-solver/internal/partition"
)

// Config configures a Client's connection to the master.
type Config struct {
	MasterURL      string
	Timeout        time.Duration
	InitialBackoff time.Duration
	MaxBackoff     time.Duration
	BackoffFactor  float64
	MaxAttempts    int
}

// DefaultConfig returns a Config with the teacher's RetryManager
// defaults (InitialDelay/BackoffFactor=2.0) carried over.
func DefaultConfig(masterURL string) Config {
	return Config{
		MasterURL:      masterURL,
		Timeout:        10 * time.Second,
		InitialBackoff: 500 * time.Millisecond,
		MaxBackoff:     30 * time.Second,
		BackoffFactor:  2.0,
		MaxAttempts:    5,
	}
}

// Client is an HTTP client bound to one master endpoint.
type Client struct {
	cfg  Config
	http *http.Client
}

// New creates a Client for the given configuration.
func New(cfg Config) *Client {
	return &Client{
		cfg:  cfg,
		http: &http.Client{Timeout: cfg.Timeout},
	}
}

// SubJob is the worker-side view of a pulled unit of work.
type SubJob struct {
	ID             string          `json:"id"`
	Board          [][]int         `json:"board"`
	PartitionIndex partition.Index `json:"partitionIndex"`
	Iteration      int             `json:"iteration"`
	ContextBoard   [][]int         `json:"contextBoard"`
	IsRequeue      bool            `json:"isRequeue"`
}

// ResultPayload is what the worker posts back to /result.
type ResultPayload struct {
	ID             string          `json:"id"`
	Values         []int           `json:"values"`
	SureMask       []bool          `json:"sureMask"`
	PartitionIndex partition.Index `json:"partitionIndex"`
	Iteration      int             `json:"iteration"`
	Unsolvable     bool            `json:"unsolvable"`
}

// ErrNoWork is returned by Pull when the master's queue is empty.
var ErrNoWork = fmt.Errorf("workerclient: no work available")

// Pull polls the master's /queue endpoint once for workerID.
func (c *Client) Pull(workerID string) (*SubJob, error) {
	url := fmt.Sprintf("%s/queue?workerId=%s", c.cfg.MasterURL, workerID)
	resp, err := c.http.Get(url)
	if err != nil {
		return nil, fmt.Errorf("workerclient: pull: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, ErrNoWork
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("workerclient: pull: unexpected status %d", resp.StatusCode)
	}

	var sj SubJob
	if err := json.NewDecoder(resp.Body).Decode(&sj); err != nil {
		return nil, fmt.Errorf("workerclient: decoding sub-job: %w", err)
	}
	return &sj, nil
}

// Submit posts a completed or unsolvable result to /result.
func (c *Client) Submit(result ResultPayload) error {
	body, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("workerclient: encoding result: %w", err)
	}

	resp, err := c.http.Post(c.cfg.MasterURL+"/result", "application/json", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("workerclient: submit: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("workerclient: submit: unexpected status %d", resp.StatusCode)
	}
	return nil
}

// Heartbeat posts a liveness ping to /heartbeat.
func (c *Client) Heartbeat(workerID string) error {
	body, _ := json.Marshal(map[string]string{"workerId": workerID})
	resp, err := c.http.Post(c.cfg.MasterURL+"/heartbeat", "application/json", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("workerclient: heartbeat: %w", err)
	}
	defer resp.Body.Close()
	return nil
}

// PullWithBackoff retries Pull with exponentially increasing delay
// (capped at MaxBackoff) while Pull returns ErrNoWork, until a sub-job
// arrives or MaxAttempts is reached. Any other error, including a
// transport failure, is returned at once without a retry.
func (c *Client) PullWithBackoff(workerID string) (*SubJob, error) {
	delay := c.cfg.InitialBackoff
	var lastErr error

	for attempt := 1; attempt <= c.cfg.MaxAttempts; attempt++ {
		sj, err := c.Pull(workerID)
		if err == nil {
			return sj, nil
		}
		if err != ErrNoWork {
			return nil, err
		}
		lastErr = err

		time.Sleep(delay)
		delay = time.Duration(float64(delay) * c.cfg.BackoffFactor)
		if c.cfg.MaxBackoff > 0 && delay > c.cfg.MaxBackoff {
			delay = c.cfg.MaxBackoff
		}
	}
	return nil, lastErr
}
