package handler

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/jengzang/flight-delay-backend-go/internal/features"
	"github.com/jengzang/flight-delay-backend-go/internal/models"
	"github.com/jengzang/flight-delay-backend-go/pkg/response"
)

// Predictor is the part of the delay service used by PredictHandler
type Predictor interface {
	Predict(flights []models.Flight) ([]int, error)
}

// PredictHandler handles delay prediction requests
type PredictHandler struct {
	predictor Predictor
}

// NewPredictHandler creates a new predict handler
func NewPredictHandler(predictor Predictor) *PredictHandler {
	return &PredictHandler{predictor: predictor}
}

// Health handles GET /health
func (h *PredictHandler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "OK"})
}

// Predict handles POST /predict
func (h *PredictHandler) Predict(c *gin.Context) {
	var req models.PredictRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "Invalid request body: "+err.Error())
		return
	}

	// The whole batch is rejected if any record is invalid
	for i, f := range req.Flights {
		if err := validateFlight(f); err != nil {
			response.BadRequest(c, fmt.Sprintf("flight %d: %v", i, err))
			return
		}
	}

	if len(req.Flights) == 0 {
		c.JSON(http.StatusOK, models.PredictResponse{Predict: []int{}})
		return
	}

	predictions, err := h.predictor.Predict(req.Flights)
	if err != nil {
		response.InternalError(c, "Failed to predict delays", err)
		return
	}

	c.JSON(http.StatusOK, models.PredictResponse{Predict: predictions})
}

func validateFlight(f models.Flight) error {
	if f.Airline == "" {
		return fmt.Errorf("missing OPERA")
	}
	if f.FlightType != models.FlightTypeNational && f.FlightType != models.FlightTypeInternational {
		return fmt.Errorf("invalid TIPOVUELO %q", f.FlightType)
	}
	if f.Month < 1 || f.Month > 12 {
		return fmt.Errorf("invalid MES %d", f.Month)
	}
	for _, ts := range []string{f.ScheduledAt, f.ActualAt} {
		if ts == "" {
			continue
		}
		if _, err := features.ParseTimestamp(ts); err != nil {
			return err
		}
	}
	return nil
}
