package models

import "time"

// Flight is a raw flight record as received from clients or read from the
// historical dataset. Timestamps use TimestampLayout and are optional at
// inference time.
type Flight struct {
	ID int64 `json:"-" csv:"-" db:"id"`

	Airline    string `json:"OPERA" csv:"OPERA" db:"airline"`
	FlightType string `json:"TIPOVUELO" csv:"TIPOVUELO" db:"flight_type"` // N (national) or I (international)
	Month      int    `json:"MES" csv:"MES" db:"month"`                   // 1-12

	ScheduledAt string `json:"Fecha-I,omitempty" csv:"Fecha-I" db:"scheduled_at"`
	ActualAt    string `json:"Fecha-O,omitempty" csv:"Fecha-O" db:"actual_at"`
}

// HasTimestamps reports whether both scheduled and actual departure are set
func (f Flight) HasTimestamps() bool {
	return f.ScheduledAt != "" && f.ActualAt != ""
}

// TimestampLayout is the date-time format of Fecha-I and Fecha-O
const TimestampLayout = "2006-01-02 15:04:05"

// FlightType constants
const (
	FlightTypeNational      = "N"
	FlightTypeInternational = "I"
)

// FlightFilter represents filter parameters for querying flight history
type FlightFilter struct {
	Airline    string `form:"airline"`
	FlightType string `form:"flightType"`
	Month      int    `form:"month"`
	Limit      int    `form:"limit"`
}

// PredictRequest is the body of POST /predict
type PredictRequest struct {
	Flights []Flight `json:"flights" binding:"required"`
}

// PredictResponse is the body returned by POST /predict
type PredictResponse struct {
	Predict []int `json:"predict"`
}

// HistorySummary aggregates delay statistics over stored flights
type HistorySummary struct {
	Total            int             `json:"total"`
	Delayed          int             `json:"delayed"`
	DelayRate        float64         `json:"delay_rate"`
	MeanMinDiff      float64         `json:"mean_min_diff"`
	MedianMinDiff    float64         `json:"median_min_diff"`
	P90MinDiff       float64         `json:"p90_min_diff"`
	StdDevMinDiff    float64         `json:"stddev_min_diff"`
	HighSeasonShare  float64         `json:"high_season_share"`
	ByPeriod         map[string]int  `json:"by_period"`
	DelayRateByMonth map[int]float64 `json:"delay_rate_by_month"`
}

// ModelStatus describes the model currently serving predictions
type ModelStatus struct {
	Fitted       bool               `json:"fitted"`
	Coefficients map[string]float64 `json:"coefficients,omitempty"`
	Intercept    float64            `json:"intercept"`
	TrainedAt    *time.Time         `json:"trained_at,omitempty"`
}
