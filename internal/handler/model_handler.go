package handler

import (
	"context"
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/jengzang/flight-delay-backend-go/internal/classifier"
	"github.com/jengzang/flight-delay-backend-go/internal/models"
	"github.com/jengzang/flight-delay-backend-go/internal/repository"
	"github.com/jengzang/flight-delay-backend-go/internal/service"
	"github.com/jengzang/flight-delay-backend-go/pkg/response"
)

// ModelService is the part of the delay service used by ModelHandler
type ModelService interface {
	Train(ctx context.Context) (*models.TrainingReport, error)
	Status() models.ModelStatus
	ImportCSV(ctx context.Context, reader io.Reader) (int, error)
	Summary(ctx context.Context, filter models.FlightFilter) (*models.HistorySummary, error)
	ListRuns(ctx context.Context, filter models.RunFilter) ([]models.TrainingRun, error)
	GetRun(ctx context.Context, runID string) (*models.TrainingRun, error)
}

// ModelHandler handles training and flight history requests
type ModelHandler struct {
	service ModelService
}

// NewModelHandler creates a new model handler
func NewModelHandler(service ModelService) *ModelHandler {
	return &ModelHandler{service: service}
}

// Train handles POST /api/v1/model/train
func (h *ModelHandler) Train(c *gin.Context) {
	report, err := h.service.Train(c.Request.Context())
	switch {
	case errors.Is(err, service.ErrNoTrainingData), errors.Is(err, classifier.ErrSingleClass):
		response.Error(c, http.StatusUnprocessableEntity, err.Error(), err)
		return
	case err != nil:
		response.InternalError(c, "Failed to train model", err)
		return
	}

	response.Success(c, report)
}

// GetStatus handles GET /api/v1/model
func (h *ModelHandler) GetStatus(c *gin.Context) {
	response.Success(c, h.service.Status())
}

// ListRuns handles GET /api/v1/model/runs
func (h *ModelHandler) ListRuns(c *gin.Context) {
	var filter models.RunFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		response.BadRequest(c, "Invalid query parameters")
		return
	}

	runs, err := h.service.ListRuns(c.Request.Context(), filter)
	if err != nil {
		response.InternalError(c, "Failed to list training runs", err)
		return
	}

	response.Success(c, runs)
}

// GetRun handles GET /api/v1/model/runs/:id
func (h *ModelHandler) GetRun(c *gin.Context) {
	run, err := h.service.GetRun(c.Request.Context(), c.Param("id"))
	if errors.Is(err, repository.ErrRunNotFound) {
		response.Error(c, http.StatusNotFound, "Training run not found", err)
		return
	}
	if err != nil {
		response.InternalError(c, "Failed to get training run", err)
		return
	}

	response.Success(c, run)
}

// ImportFlights handles POST /api/v1/flights/import. The CSV is read from the
// multipart field "file" when present, otherwise from the raw body.
func (h *ModelHandler) ImportFlights(c *gin.Context) {
	var reader io.Reader = c.Request.Body
	if file, err := c.FormFile("file"); err == nil {
		f, err := file.Open()
		if err != nil {
			response.BadRequest(c, "Failed to open uploaded file")
			return
		}
		defer f.Close()
		reader = f
	}

	n, err := h.service.ImportCSV(c.Request.Context(), reader)
	if err != nil {
		response.Error(c, http.StatusBadRequest, "Failed to import flights: "+err.Error(), err)
		return
	}

	response.Success(c, gin.H{"imported": n})
}

// GetSummary handles GET /api/v1/flights/summary
func (h *ModelHandler) GetSummary(c *gin.Context) {
	var filter models.FlightFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		response.BadRequest(c, "Invalid query parameters")
		return
	}

	summary, err := h.service.Summary(c.Request.Context(), filter)
	if err != nil {
		response.InternalError(c, "Failed to summarize flights", err)
		return
	}

	response.Success(c, summary)
}
