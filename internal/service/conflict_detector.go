package service

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/noah-isme/planucab-api/internal/models"
	appErrors "github.com/noah-isme/planucab-api/pkg/errors"
)

type eventLister interface {
	FindByOwner(ctx context.Context, ownerID int64) ([]models.Event, error)
}

type horarioLister interface {
	FindByOwner(ctx context.Context, ownerID int64) ([]models.Horario, error)
}

type evaluacionLister interface {
	FindByOwner(ctx context.Context, ownerID int64) ([]models.Evaluacion, error)
}

// occupiedBlock is the kind-independent view of a stored block used for overlap checks.
type occupiedBlock struct {
	ref    models.BlockRef
	label  string
	window models.TimeRange
}

// ConflictDetector checks a candidate window against every block an owner already holds.
type ConflictDetector struct {
	events       eventLister
	horarios     horarioLister
	evaluaciones evaluacionLister
	metrics      *MetricsService
	logger       *zap.Logger
}

// NewConflictDetector constructs a ConflictDetector.
func NewConflictDetector(events eventLister, horarios horarioLister, evaluaciones evaluacionLister, metrics *MetricsService, logger *zap.Logger) *ConflictDetector {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ConflictDetector{events: events, horarios: horarios, evaluaciones: evaluaciones, metrics: metrics, logger: logger}
}

// CheckNoConflict returns the first stored block overlapping candidate as a wrapped
// *models.ScheduleConflictError. exclude skips one block, normally the one being updated.
func (d *ConflictDetector) CheckNoConflict(ctx context.Context, ownerID int64, candidate models.TimeRange, exclude *models.BlockRef) error {
	blocks, err := d.occupied(ctx, ownerID)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check schedule conflicts")
	}
	for _, block := range blocks {
		if exclude != nil && block.ref == *exclude {
			continue
		}
		if candidate.Overlaps(block.window) {
			d.metrics.RecordConflict(string(block.ref.Kind))
			return wrapConflict(block)
		}
	}
	return nil
}

func (d *ConflictDetector) occupied(ctx context.Context, ownerID int64) ([]occupiedBlock, error) {
	events, err := d.events.FindByOwner(ctx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("load events: %w", err)
	}
	horarios, err := d.horarios.FindByOwner(ctx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("load horarios: %w", err)
	}
	evaluaciones, err := d.evaluaciones.FindByOwner(ctx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("load evaluaciones: %w", err)
	}

	blocks := make([]occupiedBlock, 0, len(events)+len(horarios)+len(evaluaciones))
	add := func(ref models.BlockRef, label string, window models.TimeRange, err error) {
		if err != nil {
			d.logger.Warn("skipping stored block with unusable window",
				zap.Int64("owner_id", ownerID),
				zap.String("kind", string(ref.Kind)),
				zap.Int64("id", ref.ID),
				zap.Error(err),
			)
			return
		}
		blocks = append(blocks, occupiedBlock{ref: ref, label: label, window: window})
	}
	for _, e := range events {
		window, err := e.TimeRange()
		add(models.BlockRef{Kind: models.KindEvent, ID: e.ID}, e.Name, window, err)
	}
	for _, h := range horarios {
		window, err := h.TimeRange()
		add(models.BlockRef{Kind: models.KindHorario, ID: h.ID}, h.Subject, window, err)
	}
	for _, ev := range evaluaciones {
		window, err := ev.TimeRange()
		add(models.BlockRef{Kind: models.KindEvaluacion, ID: ev.ID}, ev.Title, window, err)
	}
	return blocks, nil
}

func wrapConflict(block occupiedBlock) error {
	conflict := &models.ScheduleConflictError{
		Kind:    block.ref.Kind,
		ID:      block.ref.ID,
		Label:   block.label,
		Window:  block.window.Label(),
		Message: fmt.Sprintf("conflicts with '%s' (%s)", block.label, block.window.Label()),
	}
	return appErrors.Wrap(conflict, appErrors.ErrScheduleConflict.Code, appErrors.ErrScheduleConflict.Status, "schedule "+conflict.Message)
}
