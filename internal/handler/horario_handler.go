package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/planucab-api/internal/models"
	"github.com/noah-isme/planucab-api/internal/service"
	"github.com/noah-isme/planucab-api/pkg/response"
)

type horarioService interface {
	List(ctx context.Context, ownerID int64) ([]models.Horario, error)
	Get(ctx context.Context, ownerID, id int64) (*models.Horario, error)
	Create(ctx context.Context, ownerID int64, req service.HorarioRequest) (*models.Horario, error)
	Update(ctx context.Context, ownerID, id int64, req service.HorarioRequest) (*models.Horario, error)
	Delete(ctx context.Context, ownerID, id int64) error
}

// HorarioHandler manages weekly class slot endpoints.
type HorarioHandler struct {
	service horarioService
}

// NewHorarioHandler constructs handler.
func NewHorarioHandler(svc horarioService) *HorarioHandler {
	return &HorarioHandler{service: svc}
}

// List godoc
// @Summary List horarios
// @Tags Horarios
// @Produce json
// @Param userId path int true "Owner ID"
// @Success 200 {object} response.Envelope
// @Router /users/{userId}/horarios [get]
func (h *HorarioHandler) List(c *gin.Context) {
	ownerID, err := int64Param(c, "userId")
	if err != nil {
		response.Error(c, err)
		return
	}
	horarios, err := h.service.List(c.Request.Context(), ownerID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, horarios)
}

// Get godoc
// @Summary Get horario
// @Tags Horarios
// @Produce json
// @Param userId path int true "Owner ID"
// @Param id path int true "Horario ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /users/{userId}/horarios/{id} [get]
func (h *HorarioHandler) Get(c *gin.Context) {
	ownerID, id, err := ownerAndID(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	horario, err := h.service.Get(c.Request.Context(), ownerID, id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, horario)
}

// Create godoc
// @Summary Create horario
// @Tags Horarios
// @Accept json
// @Produce json
// @Param userId path int true "Owner ID"
// @Param payload body service.HorarioRequest true "Horario payload"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /users/{userId}/horarios [post]
func (h *HorarioHandler) Create(c *gin.Context) {
	ownerID, err := int64Param(c, "userId")
	if err != nil {
		response.Error(c, err)
		return
	}
	var req service.HorarioRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, bindError(err))
		return
	}
	horario, err := h.service.Create(c.Request.Context(), ownerID, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, horario)
}

// Update godoc
// @Summary Update horario
// @Description When the subject is unchanged, professor, class type and color are copied to the owner's other slots of that subject.
// @Tags Horarios
// @Accept json
// @Produce json
// @Param userId path int true "Owner ID"
// @Param id path int true "Horario ID"
// @Param payload body service.HorarioRequest true "Horario payload"
// @Success 200 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /users/{userId}/horarios/{id} [put]
func (h *HorarioHandler) Update(c *gin.Context) {
	ownerID, id, err := ownerAndID(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	var req service.HorarioRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, bindError(err))
		return
	}
	horario, err := h.service.Update(c.Request.Context(), ownerID, id, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, horario)
}

// Delete godoc
// @Summary Delete horario
// @Tags Horarios
// @Param userId path int true "Owner ID"
// @Param id path int true "Horario ID"
// @Success 204
// @Failure 404 {object} response.Envelope
// @Router /users/{userId}/horarios/{id} [delete]
func (h *HorarioHandler) Delete(c *gin.Context) {
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
