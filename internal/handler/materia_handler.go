package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/planucab-api/internal/models"
	"github.com/noah-isme/planucab-api/pkg/response"
)

type materiaService interface {
	List(ctx context.Context) ([]models.Materia, error)
	Get(ctx context.Context, id int64) (*models.Materia, error)
}

// MateriaHandler serves the subject catalog.
type MateriaHandler struct {
	service materiaService
}

// NewMateriaHandler constructs handler.
func NewMateriaHandler(svc materiaService) *MateriaHandler {
	return &MateriaHandler{service: svc}
}

// List godoc
// @Summary List materias
// @Tags Materias
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /materias [get]
func (h *MateriaHandler) List(c *gin.Context) {
	items, err := h.service.List(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, items)
}

// Get godoc
// @Summary Get materia
// @Tags Materias
// @Produce json
// @Param id path int true "Materia ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /materias/{id} [get]
func (h *MateriaHandler) Get(c *gin.Context) {
	id, err := int64Param(c, "id")
	if err != nil {
		response.Error(c, err)
		return
	}
	materia, err := h.service.Get(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, materia)
}
