package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math/rand"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/jengzang/flight-delay-backend-go/internal/classifier"
	"github.com/jengzang/flight-delay-backend-go/internal/config"
	"github.com/jengzang/flight-delay-backend-go/internal/dataset"
	"github.com/jengzang/flight-delay-backend-go/internal/features"
	"github.com/jengzang/flight-delay-backend-go/internal/models"
	"github.com/jengzang/flight-delay-backend-go/internal/repository"
	"github.com/jengzang/flight-delay-backend-go/internal/stats"
)

// ErrNoTrainingData is returned when no stored flight carries both timestamps
var ErrNoTrainingData = errors.New("no flights with Fecha-I and Fecha-O to train on")

// servingModel is immutable once published
type servingModel struct {
	model     *classifier.Model
	trainedAt time.Time
}

// DelayService handles delay prediction, training and flight history
type DelayService struct {
	repo     *repository.FlightRepository
	runs     *repository.TrainingRunRepository
	opts     classifier.Options
	training config.TrainingConfig
	logger   *logrus.Logger

	current atomic.Pointer[servingModel]
	trainMu sync.Mutex
}

// NewDelayService creates a service that serves an unfit model until Train succeeds
func NewDelayService(repo *repository.FlightRepository, runs *repository.TrainingRunRepository, opts classifier.Options, training config.TrainingConfig, logger *logrus.Logger) *DelayService {
	s := &DelayService{
		repo:     repo,
		runs:     runs,
		opts:     opts,
		training: training,
		logger:   logger,
	}
	s.current.Store(&servingModel{model: classifier.New(opts)})
	return s
}

// Predict returns one delay label per flight, in input order
func (s *DelayService) Predict(flights []models.Flight) ([]int, error) {
	batch, err := features.Preprocess(flights)
	if err != nil {
		return nil, fmt.Errorf("failed to preprocess flights: %w", err)
	}

	x, err := features.Matrix(batch.Features)
	if err != nil {
		return nil, err
	}

	predictions, err := s.current.Load().model.Predict(x)
	if err != nil {
		return nil, fmt.Errorf("failed to predict: %w", err)
	}
	return predictions, nil
}

// Train fits a new model on the stored flight history and publishes it.
// Concurrent calls are serialized; Predict keeps using the previous model
// until the new one is published. Every call is recorded as a training run.
func (s *DelayService) Train(ctx context.Context) (*models.TrainingReport, error) {
	s.trainMu.Lock()
	defer s.trainMu.Unlock()

	run := &models.TrainingRun{RunID: uuid.NewString()}
	if err := s.runs.Create(ctx, run); err != nil {
		return nil, err
	}
	log := s.logger.WithField("run_id", run.RunID)

	report, err := s.train(ctx, log)
	if err != nil {
		if markErr := s.runs.MarkAsFailed(context.WithoutCancel(ctx), run.ID, err.Error()); markErr != nil {
			log.WithError(markErr).Error("Failed to record training failure")
		}
		return nil, err
	}
	report.RunID = run.RunID

	var accuracy *float64
	if report.Evaluation != nil {
		accuracy = &report.Evaluation.Accuracy
	}
	summary, err := json.Marshal(report)
	if err != nil {
		return nil, fmt.Errorf("failed to encode training report: %w", err)
	}
	if err := s.runs.MarkAsCompleted(context.WithoutCancel(ctx), run.ID, report.Samples, report.Delayed, accuracy, string(summary)); err != nil {
		log.WithError(err).Error("Failed to record training result")
	}

	return report, nil
}

func (s *DelayService) train(ctx context.Context, log *logrus.Entry) (*models.TrainingReport, error) {
	start := time.Now()

	history, err := s.repo.ListFlights(ctx, models.FlightFilter{})
	if err != nil {
		return nil, err
	}

	labeled := withTimestamps(history)
	if skipped := len(history) - len(labeled); skipped > 0 {
		log.WithField("skipped", skipped).Warn("Skipping flights without timestamps")
	}
	if len(labeled) == 0 {
		return nil, ErrNoTrainingData
	}

	batch, err := features.PreprocessWithLabel(labeled)
	if err != nil {
		return nil, fmt.Errorf("failed to preprocess training data: %w", err)
	}
	x, err := features.Matrix(batch.Features)
	if err != nil {
		return nil, err
	}

	trainIdx, holdoutIdx := split(len(x), s.training.HoldoutFraction, s.training.Seed)
	trainX, trainY := take(x, batch.Labels, trainIdx)

	model := classifier.New(s.opts)
	fit, err := model.Fit(trainX, trainY)
	if err != nil {
		return nil, fmt.Errorf("failed to fit model: %w", err)
	}

	report := &models.TrainingReport{
		Samples:        len(x),
		TrainSamples:   len(trainIdx),
		HoldoutSamples: len(holdoutIdx),
		Delayed:        countPositive(batch.Labels),
		ClassWeights: map[string]float64{
			"0": fit.ClassWeights[0],
			"1": fit.ClassWeights[1],
		},
		Iterations: fit.Iterations,
		Status:     fit.Status,
		Loss:       fit.Loss,
	}

	if len(holdoutIdx) > 0 {
		holdX, holdY := take(x, batch.Labels, holdoutIdx)
		evaluation, err := evaluate(model, holdX, holdY)
		if err != nil {
			return nil, err
		}
		report.Evaluation = evaluation
	}

	now := time.Now()
	s.current.Store(&servingModel{model: model, trainedAt: now})

	report.TrainedAt = now
	report.DurationMs = time.Since(start).Milliseconds()

	log.WithFields(logrus.Fields{
		"samples":    report.Samples,
		"delayed":    report.Delayed,
		"iterations": report.Iterations,
		"status":     report.Status,
	}).Info("Model trained")
	return report, nil
}

// Status describes the model currently serving predictions
func (s *DelayService) Status() models.ModelStatus {
	current := s.current.Load()

	coef, intercept, ok := current.model.Coefficients()
	if !ok {
		return models.ModelStatus{Fitted: false}
	}

	named := make(map[string]float64, len(coef))
	for i, c := range coef {
		named[features.Schema[i]] = c
	}
	trainedAt := current.trainedAt
	return models.ModelStatus{
		Fitted:       true,
		Coefficients: named,
		Intercept:    intercept,
		TrainedAt:    &trainedAt,
	}
}

// ListRuns returns recorded training runs, newest first
func (s *DelayService) ListRuns(ctx context.Context, filter models.RunFilter) ([]models.TrainingRun, error) {
	return s.runs.List(ctx, filter)
}

// GetRun returns one training run by its run ID
func (s *DelayService) GetRun(ctx context.Context, runID string) (*models.TrainingRun, error) {
	return s.runs.GetByRunID(ctx, runID)
}

// ImportCSV parses historical flights from CSV and stores them
func (s *DelayService) ImportCSV(ctx context.Context, reader io.Reader) (int, error) {
	flights, err := dataset.LoadCSV(reader, s.logger)
	if err != nil {
		return 0, err
	}

	n, err := s.repo.InsertFlights(ctx, flights)
	if err != nil {
		return 0, err
	}

	s.logger.WithField("flights", n).Info("Imported flight history")
	return n, nil
}

// Bootstrap imports training.csv_path into an empty history and trains when
// training.train_on_startup is set
func (s *DelayService) Bootstrap(ctx context.Context) error {
	if s.training.CSVPath != "" {
		total, err := s.repo.CountFlights(ctx)
		if err != nil {
			return err
		}
		if total == 0 {
			file, err := os.Open(s.training.CSVPath)
			if err != nil {
				return fmt.Errorf("failed to open training CSV: %w", err)
			}
			defer file.Close()

			if _, err := s.ImportCSV(ctx, file); err != nil {
				return err
			}
		} else {
			s.logger.WithField("flights", total).Info("Flight history already populated, skipping CSV import")
		}
	}

	if s.training.TrainOnStartup {
		if _, err := s.Train(ctx); err != nil {
			return err
		}
	}
	return nil
}

func withTimestamps(flights []models.Flight) []models.Flight {
	out := make([]models.Flight, 0, len(flights))
	for _, f := range flights {
		if f.HasTimestamps() {
			out = append(out, f)
		}
	}
	return out
}

// split shuffles row indices deterministically and cuts off a holdout share
func split(n int, holdoutFraction float64, seed int64) (train, holdout []int) {
	indices := make([]int, n)
	for i := range indices {
		indices[i] = i
	}
	if holdoutFraction <= 0 {
		return indices, nil
	}

	rng := rand.New(rand.NewSource(seed))
	rng.Shuffle(n, func(i, j int) {
		indices[i], indices[j] = indices[j], indices[i]
	})

	holdoutN := int(float64(n) * holdoutFraction)
	return indices[holdoutN:], indices[:holdoutN]
}

func take(x [][]float64, y []int, indices []int) ([][]float64, []int) {
	xs := make([][]float64, len(indices))
	ys := make([]int, len(indices))
	for i, idx := range indices {
		xs[i] = x[idx]
		ys[i] = y[idx]
	}
	return xs, ys
}

func countPositive(labels []int) int {
	n := 0
	for _, l := range labels {
		n += l
	}
	return n
}

func evaluate(model *classifier.Model, x [][]float64, y []int) (*models.Evaluation, error) {
	predicted, err := model.Predict(x)
	if err != nil {
		return nil, fmt.Errorf("failed to predict holdout: %w", err)
	}

	matrix, err := stats.ConfusionMatrix(y, predicted)
	if err != nil {
		return nil, err
	}

	classes := make(map[string]models.ClassMetrics, 2)
	for class := 0; class <= 1; class++ {
		precision, recall, f1, support := stats.PrecisionRecallF1(matrix, class)
		classes[fmt.Sprint(class)] = models.ClassMetrics{
			Precision: precision,
			Recall:    recall,
			F1:        f1,
			Support:   support,
		}
	}

	return &models.Evaluation{
		ConfusionMatrix: matrix,
		Accuracy:        stats.Accuracy(matrix),
		Classes:         classes,
	}, nil
}
