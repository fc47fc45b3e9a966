package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/planucab-api/internal/models"
	"github.com/noah-isme/planucab-api/internal/service"
	"github.com/noah-isme/planucab-api/pkg/response"
)

type agendaService interface {
	Agenda(ctx context.Context, ownerID int64, from, to models.LocalDate) ([]models.Occurrence, error)
	Export(ctx context.Context, ownerID int64, from, to models.LocalDate, format string) (*service.AgendaExport, error)
}

// AgendaHandler exposes the expanded calendar view.
type AgendaHandler struct {
	service agendaService
}

// NewAgendaHandler constructs handler.
func NewAgendaHandler(svc agendaService) *AgendaHandler {
	return &AgendaHandler{service: svc}
}

// Agenda godoc
// @Summary Agenda between two dates
// @Description Events, evaluaciones and every weekly horario occurrence between from and to, both inclusive.
// @Tags Agenda
// @Produce json
// @Param userId path int true "Owner ID"
// @Param from query string true "First date (YYYY-MM-DD)"
// @Param to query string true "Last date (YYYY-MM-DD)"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /users/{userId}/agenda [get]
func (h *AgendaHandler) Agenda(c *gin.Context) {
	ownerID, from, to, ok := h.window(c)
	if !ok {
		return
	}
	items, err := h.service.Agenda(c.Request.Context(), ownerID, from, to)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, items, map[string]interface{}{
		"from":  from.String(),
		"to":    to.String(),
		"total": len(items),
	})
}

// Export godoc
// @Summary Export agenda
// @Tags Agenda
// @Produce text/csv
// @Produce application/pdf
// @Produce text/calendar
// @Param userId path int true "Owner ID"
// @Param from query string true "First date (YYYY-MM-DD)"
// @Param to query string true "Last date (YYYY-MM-DD)"
// @Param format query string false "csv, pdf or ics" default(csv)
// @Success 200 {file} file
// @Failure 400 {object} response.Envelope
// @Router /users/{userId}/agenda/export [get]
func (h *AgendaHandler) Export(c *gin.Context) {
	ownerID, from, to, ok := h.window(c)
	if !ok {
		return
	}
	result, err := h.service.Export(c.Request.Context(), ownerID, from, to, c.DefaultQuery("format", service.AgendaFormatCSV))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Attachment(c, result.Filename, result.ContentType, result.Body)
}

func (h *AgendaHandler) window(c *gin.Context) (int64, models.LocalDate, models.LocalDate, bool) {
	ownerID, err := int64Param(c, "userId")
	if err != nil {
		response.Error(c, err)
		return 0, models.LocalDate{}, models.LocalDate{}, false
	}
	from, err := dateQuery(c, "from")
	if err != nil {
		response.Error(c, err)
		return 0, models.LocalDate{}, models.LocalDate{}, false
	}
	to, err := dateQuery(c, "to")
	if err != nil {
		response.Error(c, err)
		return 0, models.LocalDate{}, models.LocalDate{}, false
	}
	return ownerID, from, to, true
}
