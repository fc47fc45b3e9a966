package handler

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/planucab-api/internal/models"
	appErrors "github.com/noah-isme/planucab-api/pkg/errors"
)

// int64Param reads a positive integer path parameter.
func int64Param(c *gin.Context, name string) (int64, error) {
	raw := c.Param(name)
	value, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || value <= 0 {
		return 0, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("%s must be a positive integer", name))
	}
	return value, nil
}

// ownerAndID reads the :userId and :id parameters of a block route.
func ownerAndID(c *gin.Context) (int64, int64, error) {
	ownerID, err := int64Param(c, "userId")
	if err != nil {
		return 0, 0, err
	}
	id, err := int64Param(c, "id")
	if err != nil {
		return 0, 0, err
	}
	return ownerID, id, nil
}

// dateQuery parses a required YYYY-MM-DD query parameter.
func dateQuery(c *gin.Context, name string) (models.LocalDate, error) {
	raw := c.Query(name)
	if raw == "" {
		return models.LocalDate{}, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("%s is required", name))
	}
	date, err := models.ParseLocalDate(raw)
	if err != nil {
		return models.LocalDate{}, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, fmt.Sprintf("%s: %v", name, err))
	}
	return date, nil
}

func bindError(err error) error {
	return appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload")
}
