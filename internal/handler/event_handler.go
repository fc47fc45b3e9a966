package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/planucab-api/internal/models"
	"github.com/noah-isme/planucab-api/internal/service"
	"github.com/noah-isme/planucab-api/pkg/response"
)

type eventService interface {
	List(ctx context.Context, ownerID int64) ([]models.Event, error)
	Get(ctx context.Context, ownerID, id int64) (*models.Event, error)
	Create(ctx context.Context, ownerID int64, req service.EventRequest) (*models.Event, error)
	Update(ctx context.Context, ownerID, id int64, req service.EventRequest) (*models.Event, error)
	Delete(ctx context.Context, ownerID, id int64) error
}

// EventHandler manages event endpoints.
type EventHandler struct {
	service eventService
}

// NewEventHandler constructs handler.
func NewEventHandler(svc eventService) *EventHandler {
	return &EventHandler{service: svc}
}

// List godoc
// @Summary List events
// @Tags Events
// @Produce json
// @Param userId path int true "Owner ID"
// @Success 200 {object} response.Envelope
// @Router /users/{userId}/events [get]
func (h *EventHandler) List(c *gin.Context) {
	ownerID, err := int64Param(c, "userId")
	if err != nil {
		response.Error(c, err)
		return
	}
	events, err := h.service.List(c.Request.Context(), ownerID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, events)
}

// Get godoc
// @Summary Get event
// @Tags Events
// @Produce json
// @Param userId path int true "Owner ID"
// @Param id path int true "Event ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /users/{userId}/events/{id} [get]
func (h *EventHandler) Get(c *gin.Context) {
	ownerID, id, err := ownerAndID(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	event, err := h.service.Get(c.Request.Context(), ownerID, id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, event)
}

// Create godoc
// @Summary Create event
// @Tags Events
// @Accept json
// @Produce json
// @Param userId path int true "Owner ID"
// @Param payload body service.EventRequest true "Event payload"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /users/{userId}/events [post]
func (h *EventHandler) Create(c *gin.Context) {
	ownerID, err := int64Param(c, "userId")
	if err != nil {
		response.Error(c, err)
		return
	}
	var req service.EventRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, bindError(err))
		return
	}
	event, err := h.service.Create(c.Request.Context(), ownerID, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, event)
}

// Update godoc
// @Summary Update event
// @Tags Events
// @Accept json
// @Produce json
// @Param userId path int true "Owner ID"
// @Param id path int true "Event ID"
// @Param payload body service.EventRequest true "Event payload"
// @Success 200 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /users/{userId}/events/{id} [put]
func (h *EventHandler) Update(c *gin.Context) {
	ownerID, id, err := ownerAndID(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	var req service.EventRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, bindError(err))
		return
	}
	event, err := h.service.Update(c.Request.Context(), ownerID, id, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, event)
}

// Delete godoc
// @Summary Delete event
// @Tags Events
// @Param userId path int true "Owner ID"
// @Param id path int true "Event ID"
// @Success 204
// @Failure 404 {object} response.Envelope
// @Router /users/{userId}/events/{id} [delete]
func (h *EventHandler) Delete(c *gin.Context) {
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
