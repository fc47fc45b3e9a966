package service

import (
	"context"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/planucab-api/internal/models"
)

type horarioStore interface {
	Save(ctx context.Context, ownerID int64, entity models.Horario) (models.Horario, error)
	FindByOwner(ctx context.Context, ownerID int64) ([]models.Horario, error)
	FindByID(ctx context.Context, ownerID, id int64) (models.Horario, error)
	UpdateMany(ctx context.Context, ownerID int64, values []models.Horario) ([]models.Horario, error)
	Delete(ctx context.Context, ownerID, id int64) error
}

type subjectResolver interface {
	CanonicalName(ctx context.Context, name string) string
}

// HorarioRequest is the payload for creating or replacing a weekly class slot.
type HorarioRequest struct {
	Subject   string `json:"subject" validate:"required,max=200"`
	Weekday   string `json:"weekday" validate:"required"`
	StartTime string `json:"start_time" validate:"required,datetime=15:04"`
	EndTime   string `json:"end_time" validate:"required,datetime=15:04"`
	Professor string `json:"professor" validate:"max=200"`
	ClassType string `json:"class_type" validate:"max=100"`
	ColorHex  string `json:"color_hex" validate:"omitempty,hexcolor"`
	Location  string `json:"location" validate:"max=200"`
}

// HorarioService manages weekly class slots.
type HorarioService struct {
	store     horarioStore
	guard     *ScheduleGuard
	subjects  subjectResolver
	validator *validator.Validate
	logger    *zap.Logger
}

// NewHorarioService instantiates HorarioService. subjects may be nil.
func NewHorarioService(store horarioStore, guard *ScheduleGuard, subjects subjectResolver, validate *validator.Validate, logger *zap.Logger) *HorarioService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &HorarioService{store: store, guard: guard, subjects: subjects, validator: newValidator(validate), logger: logger}
}

// List returns the owner's class slots.
func (s *HorarioService) List(ctx context.Context, ownerID int64) ([]models.Horario, error) {
	horarios, err := s.store.FindByOwner(ctx, ownerID)
	if err != nil {
		return nil, storeError(err, models.KindHorario, "list")
	}
	return horarios, nil
}

// Get returns one class slot.
func (s *HorarioService) Get(ctx context.Context, ownerID, id int64) (*models.Horario, error) {
	horario, err := s.store.FindByID(ctx, ownerID, id)
	if err != nil {
		return nil, storeError(err, models.KindHorario, "load")
	}
	return &horario, nil
}

// Create stores a new class slot after the conflict check.
func (s *HorarioService) Create(ctx context.Context, ownerID int64, req HorarioRequest) (*models.Horario, error) {
	horario, window, err := s.build(ctx, req)
	if err != nil {
		return nil, err
	}

	unlock := s.guard.Lock(ownerID)
	defer unlock()

	if err := s.guard.Check(ctx, ownerID, window, nil); err != nil {
		return nil, err
	}
	saved, err := s.store.Save(ctx, ownerID, horario)
	if err != nil {
		return nil, storeError(err, models.KindHorario, "create")
	}
	s.guard.Committed(ctx, ownerID)
	s.logger.Info("horario created", zap.Int64("owner_id", ownerID), zap.Int64("id", saved.ID), zap.String("subject", saved.Subject))
	return &saved, nil
}

// Update replaces a class slot. When the subject stays the same, professor, class type and
// color are copied to every other slot of that subject; their day, times and location stay.
func (s *HorarioService) Update(ctx context.Context, ownerID, id int64, req HorarioRequest) (*models.Horario, error) {
	horario, window, err := s.build(ctx, req)
	if err != nil {
		return nil, err
	}

	unlock := s.guard.Lock(ownerID)
	defer unlock()

	existing, err := s.store.FindByID(ctx, ownerID, id)
	if err != nil {
		return nil, storeError(err, models.KindHorario, "load")
	}
	if err := s.guard.Check(ctx, ownerID, window, &models.BlockRef{Kind: models.KindHorario, ID: id}); err != nil {
		return nil, err
	}

	horario.ID = id
	batch := []models.Horario{horario}
	if existing.Subject == horario.Subject {
		siblings, err := s.siblingsToSync(ctx, ownerID, horario)
		if err != nil {
			return nil, err
		}
		batch = append(batch, siblings...)
	}

	updated, err := s.store.UpdateMany(ctx, ownerID, batch)
	if err != nil {
		return nil, storeError(err, models.KindHorario, "update")
	}
	if len(batch) > 1 {
		s.logger.Info("horario fields propagated",
			zap.Int64("owner_id", ownerID),
			zap.String("subject", horario.Subject),
			zap.Int("siblings", len(batch)-1),
		)
	}
	s.guard.Committed(ctx, ownerID)
	return &updated[0], nil
}

// Delete removes a class slot.
func (s *HorarioService) Delete(ctx context.Context, ownerID, id int64) error {
	unlock := s.guard.Lock(ownerID)
	defer unlock()

	if err := s.store.Delete(ctx, ownerID, id); err != nil {
		return storeError(err, models.KindHorario, "delete")
	}
	s.guard.Committed(ctx, ownerID)
	return nil
}

func (s *HorarioService) siblingsToSync(ctx context.Context, ownerID int64, source models.Horario) ([]models.Horario, error) {
	all, err := s.store.FindByOwner(ctx, ownerID)
	if err != nil {
		return nil, storeError(err, models.KindHorario, "load")
	}
	var siblings []models.Horario
	for _, h := range all {
		if h.ID == source.ID || h.Subject != source.Subject {
			continue
		}
		if h.Professor == source.Professor && h.ClassType == source.ClassType && h.ColorHex == source.ColorHex {
			continue
		}
		h.Professor = source.Professor
		h.ClassType = source.ClassType
		h.ColorHex = source.ColorHex
		siblings = append(siblings, h)
	}
	return siblings, nil
}

func (s *HorarioService) build(ctx context.Context, req HorarioRequest) (models.Horario, models.TimeRange, error) {
	if err := s.validator.Struct(req); err != nil {
		return models.Horario{}, models.TimeRange{}, validationError(err, "invalid horario payload")
	}
	day, err := models.ParseWeekday(req.Weekday)
	if err != nil {
		return models.Horario{}, models.TimeRange{}, validationError(err, err.Error())
	}
	start, err := models.ParseClock(req.StartTime)
	if err != nil {
		return models.Horario{}, models.TimeRange{}, validationError(err, err.Error())
	}
	end, err := models.ParseClock(req.EndTime)
	if err != nil {
		return models.Horario{}, models.TimeRange{}, validationError(err, err.Error())
	}
	window, err := models.NewWeeklyRange(day.Time(), start, end)
	if err != nil {
		return models.Horario{}, models.TimeRange{}, rangeError(err)
	}

	subject := trimmed(req.Subject)
	if s.subjects != nil {
		subject = s.subjects.CanonicalName(ctx, subject)
	}
	horario := models.Horario{
		Block:     models.Block{ColorHex: req.ColorHex, Location: trimmed(req.Location)},
		Subject:   subject,
		Weekday:   day,
		StartTime: start,
		EndTime:   end,
		Professor: trimmed(req.Professor),
		ClassType: trimmed(req.ClassType),
	}
	return horario, window, nil
}
