package service

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jengzang/flight-delay-backend-go/internal/classifier"
	"github.com/jengzang/flight-delay-backend-go/internal/config"
	"github.com/jengzang/flight-delay-backend-go/internal/database"
	"github.com/jengzang/flight-delay-backend-go/internal/models"
	"github.com/jengzang/flight-delay-backend-go/internal/repository"
)

// ---------------------------------------------------------------------------
// Test Helpers
// ---------------------------------------------------------------------------

func quietLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

func setupService(t *testing.T, training config.TrainingConfig) *DelayService {
	t.Helper()
	logger := quietLogger()

	db, err := database.Open(context.Background(), database.Config{Path: filepath.Join(t.TempDir(), "flights.db")}, logger)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	return NewDelayService(repository.NewFlightRepository(db), repository.NewTrainingRunRepository(db), classifier.DefaultOptions(), training, logger)
}

// historyCSV builds a history where LATAM international July flights are
// always 30 minutes late and Sky Airline national April flights leave on time
func historyCSV(delayed, onTime int) string {
	var b strings.Builder
	b.WriteString("Fecha-I,Fecha-O,MES,TIPOVUELO,OPERA\n")
	for i := 0; i < delayed; i++ {
		day := 1 + i%28
		fmt.Fprintf(&b, "2017-07-%02d 08:00:00,2017-07-%02d 08:30:00,7,I,Grupo LATAM\n", day, day)
	}
	for i := 0; i < onTime; i++ {
		day := 1 + i%28
		fmt.Fprintf(&b, "2017-04-%02d 14:00:00,2017-04-%02d 14:05:00,4,N,Sky Airline\n", day, day)
	}
	return b.String()
}

// ---------------------------------------------------------------------------
// Predict
// ---------------------------------------------------------------------------

func TestPredictUnfitReturnsZeros(t *testing.T) {
	svc := setupService(t, config.TrainingConfig{})

	got, err := svc.Predict([]models.Flight{
		{Airline: "Grupo LATAM", FlightType: "I", Month: 7},
		{Airline: "Aerolineas Argentinas", FlightType: "N", Month: 3},
	})
	require.NoError(t, err)
	assert.Equal(t, []int{0, 0}, got)
	assert.False(t, svc.Status().Fitted)
}

func TestPredictEmptyBatch(t *testing.T) {
	svc := setupService(t, config.TrainingConfig{})
	_, err := svc.Predict(nil)
	assert.Error(t, err)
}

// ---------------------------------------------------------------------------
// Train
// ---------------------------------------------------------------------------

func TestTrainThenPredict(t *testing.T) {
	ctx := context.Background()
	svc := setupService(t, config.TrainingConfig{HoldoutFraction: 0.33, Seed: 42})

	n, err := svc.ImportCSV(ctx, strings.NewReader(historyCSV(10, 20)))
	require.NoError(t, err)
	assert.Equal(t, 30, n)

	report, err := svc.Train(ctx)
	require.NoError(t, err)
	assert.Equal(t, 30, report.Samples)
	assert.Equal(t, 10, report.Delayed)
	assert.Equal(t, 9, report.HoldoutSamples)
	assert.Equal(t, 21, report.TrainSamples)
	require.NotNil(t, report.Evaluation)
	assert.Equal(t, 1.0, report.Evaluation.Accuracy)
	assert.Contains(t, report.ClassWeights, "1")

	status := svc.Status()
	require.True(t, status.Fitted)
	assert.Len(t, status.Coefficients, 10)
	assert.Greater(t, status.Coefficients["OPERA_Grupo LATAM"], status.Coefficients["OPERA_Sky Airline"])
	assert.NotNil(t, status.TrainedAt)

	run, err := svc.GetRun(ctx, report.RunID)
	require.NoError(t, err)
	assert.Equal(t, models.RunStatusCompleted, run.Status)
	assert.Equal(t, 30, run.Samples)
	require.NotNil(t, run.Accuracy)
	assert.Equal(t, 1.0, *run.Accuracy)
	assert.Contains(t, run.ResultSummary, report.RunID)

	heldOut := []models.Flight{
		{Airline: "Grupo LATAM", FlightType: "I", Month: 7},
		{Airline: "Sky Airline", FlightType: "N", Month: 4},
		{Airline: "Grupo LATAM", FlightType: "I", Month: 7},
	}
	got, err := svc.Predict(heldOut)
	require.NoError(t, err)
	require.Len(t, got, len(heldOut))
	assert.Equal(t, []int{1, 0, 1}, got)
}

func TestTrainWithoutHistory(t *testing.T) {
	svc := setupService(t, config.TrainingConfig{})
	_, err := svc.Train(context.Background())
	assert.ErrorIs(t, err, ErrNoTrainingData)
}

func TestTrainSkipsFlightsWithoutTimestamps(t *testing.T) {
	ctx := context.Background()
	svc := setupService(t, config.TrainingConfig{})

	_, err := svc.ImportCSV(ctx, strings.NewReader(historyCSV(3, 5)))
	require.NoError(t, err)
	_, err = svc.ImportCSV(ctx, strings.NewReader("OPERA,TIPOVUELO,MES\nCopa Air,I,4\n"))
	require.NoError(t, err)

	report, err := svc.Train(ctx)
	require.NoError(t, err)
	assert.Equal(t, 8, report.Samples)
	assert.Nil(t, report.Evaluation)
}

func TestTrainSingleClassKeepsPreviousModel(t *testing.T) {
	ctx := context.Background()
	svc := setupService(t, config.TrainingConfig{})

	_, err := svc.ImportCSV(ctx, strings.NewReader(historyCSV(0, 5)))
	require.NoError(t, err)

	_, err = svc.Train(ctx)
	assert.ErrorIs(t, err, classifier.ErrSingleClass)
	assert.False(t, svc.Status().Fitted)

	runs, err := svc.ListRuns(ctx, models.RunFilter{})
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, models.RunStatusFailed, runs[0].Status)
	assert.Contains(t, runs[0].ErrorMessage, "both classes")
}

func TestBootstrap(t *testing.T) {
	csvPath := filepath.Join(t.TempDir(), "data.csv")
	require.NoError(t, os.WriteFile(csvPath, []byte(historyCSV(6, 12)), 0o644))

	svc := setupService(t, config.TrainingConfig{CSVPath: csvPath, TrainOnStartup: true})
	require.NoError(t, svc.Bootstrap(context.Background()))
	assert.True(t, svc.Status().Fitted)

	// A populated history is not imported twice
	require.NoError(t, svc.Bootstrap(context.Background()))
	total, err := svc.repo.CountFlights(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(18), total)
}

func TestSplitDeterministic(t *testing.T) {
	trainA, holdA := split(10, 0.3, 7)
	trainB, holdB := split(10, 0.3, 7)
	assert.Equal(t, trainA, trainB)
	assert.Equal(t, holdA, holdB)
	assert.Len(t, holdA, 3)
	assert.ElementsMatch(t, []int{0, 1, 2, 3, 4, 5, 6, 7, 8, 9}, append(append([]int{}, trainA...), holdA...))

	train, hold := split(4, 0, 7)
	assert.Equal(t, []int{0, 1, 2, 3}, train)
	assert.Empty(t, hold)
}

// ---------------------------------------------------------------------------
// Summary
// ---------------------------------------------------------------------------

func TestSummary(t *testing.T) {
	ctx := context.Background()
	svc := setupService(t, config.TrainingConfig{})

	_, err := svc.ImportCSV(ctx, strings.NewReader(historyCSV(2, 2)))
	require.NoError(t, err)

	summary, err := svc.Summary(ctx, models.FlightFilter{})
	require.NoError(t, err)
	assert.Equal(t, 4, summary.Total)
	assert.Equal(t, 2, summary.Delayed)
	assert.Equal(t, 0.5, summary.DelayRate)
	assert.Equal(t, 17.5, summary.MeanMinDiff)
	assert.Equal(t, map[string]int{"morning": 2, "afternoon": 2}, summary.ByPeriod)
	assert.Equal(t, 1.0, summary.DelayRateByMonth[7])
	assert.Equal(t, 0.0, summary.DelayRateByMonth[4])
	// July 1st and 2nd fall outside Jul 15-31
	assert.Equal(t, 0.0, summary.HighSeasonShare)
}
