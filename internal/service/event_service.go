package service

import (
	"context"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/planucab-api/internal/models"
)

type eventStore interface {
	Save(ctx context.Context, ownerID int64, entity models.Event) (models.Event, error)
	FindByOwner(ctx context.Context, ownerID int64) ([]models.Event, error)
	FindByID(ctx context.Context, ownerID, id int64) (models.Event, error)
	Update(ctx context.Context, ownerID, id int64, value models.Event) (models.Event, error)
	Delete(ctx context.Context, ownerID, id int64) error
}

// EventRequest is the payload for creating or replacing an event.
type EventRequest struct {
	Name        string `json:"name" validate:"required,max=200"`
	Description string `json:"description" validate:"max=2000"`
	Start       string `json:"start" validate:"required"`
	End         string `json:"end" validate:"required"`
	ColorHex    string `json:"color_hex" validate:"omitempty,hexcolor"`
	Location    string `json:"location" validate:"max=200"`
}

// EventService manages one-off events.
type EventService struct {
	store     eventStore
	guard     *ScheduleGuard
	validator *validator.Validate
	logger    *zap.Logger
}

// NewEventService instantiates EventService.
func NewEventService(store eventStore, guard *ScheduleGuard, validate *validator.Validate, logger *zap.Logger) *EventService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &EventService{store: store, guard: guard, validator: newValidator(validate), logger: logger}
}

// List returns the owner's events.
func (s *EventService) List(ctx context.Context, ownerID int64) ([]models.Event, error) {
	events, err := s.store.FindByOwner(ctx, ownerID)
	if err != nil {
		return nil, storeError(err, models.KindEvent, "list")
	}
	return events, nil
}

// Get returns one event.
func (s *EventService) Get(ctx context.Context, ownerID, id int64) (*models.Event, error) {
	event, err := s.store.FindByID(ctx, ownerID, id)
	if err != nil {
		return nil, storeError(err, models.KindEvent, "load")
	}
	return &event, nil
}

// Create stores a new event after the conflict check.
func (s *EventService) Create(ctx context.Context, ownerID int64, req EventRequest) (*models.Event, error) {
	event, window, err := s.build(req)
	if err != nil {
		return nil, err
	}

	unlock := s.guard.Lock(ownerID)
	defer unlock()

	if err := s.guard.Check(ctx, ownerID, window, nil); err != nil {
		return nil, err
	}
	saved, err := s.store.Save(ctx, ownerID, event)
	if err != nil {
		return nil, storeError(err, models.KindEvent, "create")
	}
	s.guard.Committed(ctx, ownerID)
	s.logger.Info("event created", zap.Int64("owner_id", ownerID), zap.Int64("id", saved.ID))
	return &saved, nil
}

// Update replaces an event, excluding itself from the conflict check.
func (s *EventService) Update(ctx context.Context, ownerID, id int64, req EventRequest) (*models.Event, error) {
	event, window, err := s.build(req)
	if err != nil {
		return nil, err
	}

	unlock := s.guard.Lock(ownerID)
	defer unlock()

	if _, err := s.store.FindByID(ctx, ownerID, id); err != nil {
		return nil, storeError(err, models.KindEvent, "load")
	}
	if err := s.guard.Check(ctx, ownerID, window, &models.BlockRef{Kind: models.KindEvent, ID: id}); err != nil {
		return nil, err
	}
	updated, err := s.store.Update(ctx, ownerID, id, event)
	if err != nil {
		return nil, storeError(err, models.KindEvent, "update")
	}
	s.guard.Committed(ctx, ownerID)
	return &updated, nil
}

// Delete removes an event.
func (s *EventService) Delete(ctx context.Context, ownerID, id int64) error {
	unlock := s.guard.Lock(ownerID)
	defer unlock()

	if err := s.store.Delete(ctx, ownerID, id); err != nil {
		return storeError(err, models.KindEvent, "delete")
	}
	s.guard.Committed(ctx, ownerID)
	return nil
}

func (s *EventService) build(req EventRequest) (models.Event, models.TimeRange, error) {
	if err := s.validator.Struct(req); err != nil {
		return models.Event{}, models.TimeRange{}, validationError(err, "invalid event payload")
	}
	start, end, window, err := parseDatedWindow(req.Start, req.End)
	if err != nil {
		return models.Event{}, models.TimeRange{}, err
	}
	event := models.Event{
		Block:       models.Block{ColorHex: req.ColorHex, Location: trimmed(req.Location)},
		Name:        trimmed(req.Name),
		Description: req.Description,
		Start:       start,
		End:         end,
	}
	return event, window, nil
}
