package pull

import (
	"sort"
	"time"
)

// Status describes how a single resource download ended.
type Status string

const (
	StatusSucceeded Status = "succeeded"
	StatusFailed    Status = "failed"
	StatusSkipped   Status = "skipped"
)

// Outcome records the result of one resource pull.
type Outcome struct {
	// Key is the normalized project/resource identity.
	Key string
	// Resource is the full tx resource id (o:org:p:project:r:resource).
	Resource string
	Status   Status
	// Detail carries trimmed tool output or an error summary for failures
	// and the skip reason for skipped items.
	Detail  string
	Elapsed time.Duration
}

// Report aggregates the outcomes of one download run.
type Report struct {
	RunID      string
	StartedAt  time.Time
	FinishedAt time.Time
	Outcomes   []Outcome
	// Aborted is set when a failure stopped the run before all items were
	// attempted. Unstarted items appear as skipped outcomes.
	Aborted bool
}

// Succeeded returns the number of successful downloads.
func (r *Report) Succeeded() int { return r.count(StatusSucceeded) }

// Failed returns the number of failed downloads.
func (r *Report) Failed() int { return r.count(StatusFailed) }

// Skipped returns the number of skipped downloads.
func (r *Report) Skipped() int { return r.count(StatusSkipped) }

func (r *Report) count(status Status) int {
	n := 0
	for _, outcome := range r.Outcomes {
		if outcome.Status == status {
			n++
		}
	}
	return n
}

// FailedKeys returns the sorted keys of failed outcomes.
func (r *Report) FailedKeys() []string {
	var keys []string
	for _, outcome := range r.Outcomes {
		if outcome.Status == StatusFailed {
			keys = append(keys, outcome.Key)
		}
	}
	sort.Strings(keys)
	return keys
}

// Success reports whether the run counts as successful. A run succeeds when
// at least one resource downloaded and no failure forced an abort; individual
// failures alongside successes still count as success.
func (r *Report) Success() bool {
	return r.Succeeded() > 0 && !r.Aborted
}

// Duration returns the wall-clock span of the run.
func (r *Report) Duration() time.Duration {
	return r.FinishedAt.Sub(r.StartedAt)
}
