package service

import (
	"context"
	"fmt"

	"github.com/jengzang/flight-delay-backend-go/internal/features"
	"github.com/jengzang/flight-delay-backend-go/internal/models"
	"github.com/jengzang/flight-delay-backend-go/internal/stats"
)

// noPeriod is the summary key for departures on a period boundary
const noPeriod = "none"

// Summary aggregates delay statistics over stored flights with both timestamps
func (s *DelayService) Summary(ctx context.Context, filter models.FlightFilter) (*models.HistorySummary, error) {
	history, err := s.repo.ListFlights(ctx, filter)
	if err != nil {
		return nil, err
	}

	summary := &models.HistorySummary{
		ByPeriod:         make(map[string]int),
		DelayRateByMonth: make(map[int]float64),
	}

	var minDiffs []float64
	highSeason := 0
	monthTotal := make(map[int]int)
	monthDelayed := make(map[int]int)

	for i, f := range withTimestamps(history) {
		d, err := features.Derive(f)
		if err != nil {
			return nil, fmt.Errorf("flight %d: %w", i, err)
		}

		minDiffs = append(minDiffs, d.MinDiff)
		summary.Delayed += d.Delay
		if d.HighSeason {
			highSeason++
		}

		period := string(d.PeriodDay)
		if d.PeriodDay == features.PeriodNone {
			period = noPeriod
		}
		summary.ByPeriod[period]++

		monthTotal[f.Month]++
		monthDelayed[f.Month] += d.Delay
	}

	summary.Total = len(minDiffs)
	summary.DelayRate = stats.Ratio(summary.Delayed, summary.Total)
	summary.HighSeasonShare = stats.Ratio(highSeason, summary.Total)
	summary.MeanMinDiff = stats.Mean(minDiffs)
	summary.MedianMinDiff = stats.Median(minDiffs)
	summary.P90MinDiff = stats.Percentile(minDiffs, 90)
	summary.StdDevMinDiff = stats.StdDev(minDiffs)

	for month, total := range monthTotal {
		summary.DelayRateByMonth[month] = stats.Ratio(monthDelayed[month], total)
	}

	return summary, nil
}
