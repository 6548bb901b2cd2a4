package models

import "time"

// TrainingReport summarizes one training run over the stored flight history
type TrainingReport struct {
	RunID          string             `json:"run_id"`
	Samples        int                `json:"samples"`
	TrainSamples   int                `json:"train_samples"`
	HoldoutSamples int                `json:"holdout_samples"`
	Delayed        int                `json:"delayed"`
	ClassWeights   map[string]float64 `json:"class_weights"`

	// Optimizer outcome
	Iterations int     `json:"iterations"`
	Status     string  `json:"status"`
	Loss       float64 `json:"loss"`

	Evaluation *Evaluation `json:"evaluation,omitempty"`

	DurationMs int64     `json:"duration_ms"`
	TrainedAt  time.Time `json:"trained_at"`
}

// Evaluation holds holdout metrics for a binary classifier.
// ConfusionMatrix is indexed [actual][predicted].
type Evaluation struct {
	ConfusionMatrix [2][2]int               `json:"confusion_matrix"`
	Accuracy        float64                 `json:"accuracy"`
	Classes         map[string]ClassMetrics `json:"classes"`
}

// ClassMetrics holds per-class precision, recall and F1
type ClassMetrics struct {
	Precision float64 `json:"precision"`
	Recall    float64 `json:"recall"`
	F1        float64 `json:"f1"`
	Support   int     `json:"support"`
}
