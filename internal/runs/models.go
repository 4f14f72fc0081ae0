package runs

import "time"

// Run is one recorded download run.
type Run struct {
	ID           string
	StartedAt    time.Time
	FinishedAt   time.Time
	Organization string
	Mode         string
	Succeeded    int
	Failed       int
	Skipped      int
	// Files and Bytes come from the post-run output directory scan.
	Files int
	Bytes int64
	// Status is "success" or "failure".
	Status     string
	FailedKeys []string
	ReportPath string
}

// StatusSuccess and StatusFailure are the recorded run outcomes.
const (
	StatusSuccess = "success"
	StatusFailure = "failure"
)

// Duration returns the wall-clock span of the run.
func (r Run) Duration() time.Duration {
	return r.FinishedAt.Sub(r.StartedAt)
}
