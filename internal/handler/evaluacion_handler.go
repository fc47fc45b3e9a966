package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/planucab-api/internal/models"
	"github.com/noah-isme/planucab-api/internal/service"
	"github.com/noah-isme/planucab-api/pkg/response"
)

type evaluacionService interface {
	List(ctx context.Context, ownerID int64) ([]models.Evaluacion, error)
	Get(ctx context.Context, ownerID, id int64) (*models.Evaluacion, error)
	Create(ctx context.Context, ownerID int64, req service.EvaluacionRequest) (*models.Evaluacion, error)
	Update(ctx context.Context, ownerID, id int64, req service.EvaluacionRequest) (*models.Evaluacion, error)
	Delete(ctx context.Context, ownerID, id int64) error
	Summary(ctx context.Context, ownerID int64) ([]models.SubjectSummary, error)
}

// EvaluacionHandler manages graded evaluation endpoints.
type EvaluacionHandler struct {
	service evaluacionService
}

// NewEvaluacionHandler constructs handler.
func NewEvaluacionHandler(svc evaluacionService) *EvaluacionHandler {
	return &EvaluacionHandler{service: svc}
}

// List godoc
// @Summary List evaluaciones
// @Tags Evaluaciones
// @Produce json
// @Param userId path int true "Owner ID"
// @Success 200 {object} response.Envelope
// @Router /users/{userId}/evaluaciones [get]
func (h *EvaluacionHandler) List(c *gin.Context) {
	ownerID, err := int64Param(c, "userId")
	if err != nil {
		response.Error(c, err)
		return
	}
	evaluaciones, err := h.service.List(c.Request.Context(), ownerID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, evaluaciones)
}

// Get godoc
// @Summary Get evaluacion
// @Tags Evaluaciones
// @Produce json
// @Param userId path int true "Owner ID"
// @Param id path int true "Evaluacion ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /users/{userId}/evaluaciones/{id} [get]
func (h *EvaluacionHandler) Get(c *gin.Context) {
	ownerID, id, err := ownerAndID(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	evaluacion, err := h.service.Get(c.Request.Context(), ownerID, id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, evaluacion)
}

// Create godoc
// @Summary Create evaluacion
// @Tags Evaluaciones
// @Accept json
// @Produce json
// @Param userId path int true "Owner ID"
// @Param payload body service.EvaluacionRequest true "Evaluacion payload"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope "WEIGHT_EXCEEDED when a subject would pass 100%"
// @Failure 409 {object} response.Envelope
// @Router /users/{userId}/evaluaciones [post]
func (h *EvaluacionHandler) Create(c *gin.Context) {
	ownerID, err := int64Param(c, "userId")
	if err != nil {
		response.Error(c, err)
		return
	}
	var req service.EvaluacionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, bindError(err))
		return
	}
	evaluacion, err := h.service.Create(c.Request.Context(), ownerID, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, evaluacion)
}

// Update godoc
// @Summary Update evaluacion
// @Tags Evaluaciones
// @Accept json
// @Produce json
// @Param userId path int true "Owner ID"
// @Param id path int true "Evaluacion ID"
// @Param payload body service.EvaluacionRequest true "Evaluacion payload"
// @Success 200 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /users/{userId}/evaluaciones/{id} [put]
func (h *EvaluacionHandler) Update(c *gin.Context) {
	ownerID, id, err := ownerAndID(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	var req service.EvaluacionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, bindError(err))
		return
	}
	evaluacion, err := h.service.Update(c.Request.Context(), ownerID, id, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, evaluacion)
}

// Delete godoc
// @Summary Delete evaluacion
// @Tags Evaluaciones
// @Param userId path int true "Owner ID"
// @Param id path int true "Evaluacion ID"
// @Success 204
// @Failure 404 {object} response.Envelope
// @Router /users/{userId}/evaluaciones/{id} [delete]
func (h *EvaluacionHandler) Delete(c *gin.Context) {
	ownerID, id, err := ownerAndID(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	if err := h.service.Delete(c.Request.Context(), ownerID, id); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// Summary godoc
// @Summary Grade summary per subject
// @Tags Evaluaciones
// @Produce json
// @Param userId path int true "Owner ID"
// @Success 200 {object} response.Envelope
// @Router /users/{userId}/evaluaciones/summary [get]
func (h *EvaluacionHandler) Summary(c *gin.Context) {
	ownerID, err := int64Param(c, "userId")
	if err != nil {
		response.Error(c, err)
		return
	}
	summary, err := h.service.Summary(c.Request.Context(), ownerID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, summary)
}
