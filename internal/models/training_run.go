package models

// TrainingRun records one call to the training endpoint
type TrainingRun struct {
	ID    int64  `json:"-"`
	RunID string `json:"run_id"`

	// Status
	Status string `json:"status"` // running, completed, failed

	Samples  int      `json:"samples"`
	Delayed  int      `json:"delayed"`
	Accuracy *float64 `json:"accuracy,omitempty"` // nil without a holdout set

	// Results
	ResultSummary string `json:"result_summary,omitempty"` // JSON encoded TrainingReport
	ErrorMessage  string `json:"error_message,omitempty"`

	StartTime int64 `json:"start_time"`         // Unix timestamp
	EndTime   int64 `json:"end_time,omitempty"` // Unix timestamp
}

// RunStatus constants
const (
	RunStatusRunning   = "running"
	RunStatusCompleted = "completed"
	RunStatusFailed    = "failed"
)

// RunFilter narrows a training run listing
type RunFilter struct {
	Status string `form:"status"`
	Limit  int    `form:"limit"`
	Offset int    `form:"offset"`
}
