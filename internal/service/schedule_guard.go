package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/planucab-api/internal/models"
	"github.com/noah-isme/planucab-api/internal/repository"
	appErrors "github.com/noah-isme/planucab-api/pkg/errors"
)

type conflictChecker interface {
	CheckNoConflict(ctx context.Context, ownerID int64, candidate models.TimeRange, exclude *models.BlockRef) error
}

type agendaInvalidator interface {
	InvalidateOwner(ctx context.Context, ownerID int64) error
}

// ScheduleGuard is shared by the Event, Horario and Evaluacion services. It serialises each
// owner's writes across all three kinds so a conflict check and the commit that follows it
// observe the same state.
type ScheduleGuard struct {
	locks    *OwnerLocks
	detector conflictChecker
	agenda   agendaInvalidator
	logger   *zap.Logger
}

// NewScheduleGuard constructs a guard. agenda may be nil when no read model is cached.
func NewScheduleGuard(locks *OwnerLocks, detector conflictChecker, agenda agendaInvalidator, logger *zap.Logger) *ScheduleGuard {
	if locks == nil {
		locks = NewOwnerLocks()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ScheduleGuard{locks: locks, detector: detector, agenda: agenda, logger: logger}
}

// SetAgenda attaches the cache invalidated after every committed write.
func (g *ScheduleGuard) SetAgenda(agenda agendaInvalidator) {
	g.agenda = agenda
}

// Lock acquires the owner's write lock.
func (g *ScheduleGuard) Lock(ownerID int64) func() {
	return g.locks.Lock(ownerID)
}

// Check runs the conflict detector for the candidate window.
func (g *ScheduleGuard) Check(ctx context.Context, ownerID int64, candidate models.TimeRange, exclude *models.BlockRef) error {
	return g.detector.CheckNoConflict(ctx, ownerID, candidate, exclude)
}

// Committed drops cached read models of the owner. Failures only get logged; the write already happened.
func (g *ScheduleGuard) Committed(ctx context.Context, ownerID int64) {
	if g.agenda == nil {
		return
	}
	if err := g.agenda.InvalidateOwner(ctx, ownerID); err != nil {
		g.logger.Warn("agenda cache invalidation failed", zap.Int64("owner_id", ownerID), zap.Error(err))
	}
}

func newValidator(validate *validator.Validate) *validator.Validate {
	if validate == nil {
		return validator.New()
	}
	return validate
}

func validationError(err error, message string) error {
	return appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, message)
}

// rangeError maps a window construction failure to INVALID_RANGE, anything else to a validation error.
func rangeError(err error) error {
	var invalid *models.InvalidRangeError
	if errors.As(err, &invalid) {
		return appErrors.Wrap(invalid, appErrors.ErrInvalidRange.Code, appErrors.ErrInvalidRange.Status, appErrors.ErrInvalidRange.Message)
	}
	return validationError(err, err.Error())
}

// storeError maps block store failures onto application errors.
func storeError(err error, kind models.BlockKind, action string) error {
	var persistErr *repository.PersistenceError
	switch {
	case errors.Is(err, repository.ErrNotFound):
		return appErrors.Clone(appErrors.ErrNotFound, fmt.Sprintf("%s not found", kind))
	case errors.As(err, &persistErr):
		return appErrors.Wrap(err, appErrors.ErrPersistence.Code, appErrors.ErrPersistence.Status, fmt.Sprintf("failed to %s %s", action, kind))
	default:
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, fmt.Sprintf("failed to %s %s", action, kind))
	}
}

// parseDatedWindow parses a start/end pair that must fall on a single calendar date.
func parseDatedWindow(rawStart, rawEnd string) (models.LocalDateTime, models.LocalDateTime, models.TimeRange, error) {
	var zero models.TimeRange
	start, err := models.ParseMinuteDateTime(rawStart)
	if err != nil {
		return models.LocalDateTime{}, models.LocalDateTime{}, zero, validationError(err, "start: "+err.Error())
	}
	end, err := models.ParseMinuteDateTime(rawEnd)
	if err != nil {
		return models.LocalDateTime{}, models.LocalDateTime{}, zero, validationError(err, "end: "+err.Error())
	}
	if !start.Date().Equal(end.Date()) {
		if end.Before(start) {
			return start, end, zero, rangeError(&models.InvalidRangeError{Start: start.Clock(), End: end.Clock()})
		}
		return start, end, zero, appErrors.Clone(appErrors.ErrValidation, "start and end must fall on the same date")
	}
	window, err := models.NewDatedRange(start.Date(), start.Clock(), end.Clock())
	if err != nil {
		return start, end, zero, rangeError(err)
	}
	return start, end, window, nil
}

func trimmed(value string) string {
	return strings.TrimSpace(value)
}
