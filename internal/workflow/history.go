package workflow

import "time"

// Status describes the outcome of one node attempt.
type Status string

const (
	StatusSuccess  Status = "success"
	StatusFailed   Status = "failed"
	StatusTimedOut Status = "timed_out"
	StatusSkipped  Status = "skipped"
)

// Record is one finalized node attempt. Records are appended to a run's
// history in execution order and never mutated afterwards.
type Record struct {
	NodeID    string        `json:"node_id"`
	Attempt   int           `json:"attempt"`
	StartedAt time.Time     `json:"started_at"`
	EndedAt   time.Time     `json:"ended_at"`
	Duration  time.Duration `json:"duration"`
	Status    Status        `json:"status"`
	Error     string        `json:"error,omitempty"`
}

// History is the ordered list of attempts observed during one run.
type History []Record

// Visited reports whether any attempt for the node appears in the history.
func (h History) Visited(nodeID string) bool {
	for _, record := range h {
		if record.NodeID == nodeID {
			return true
		}
	}
	return false
}

// Attempts counts the attempts recorded for the node.
func (h History) Attempts(nodeID string) int {
	count := 0
	for _, record := range h {
		if record.NodeID == nodeID {
			count++
		}
	}
	return count
}
