package service

import (
	"context"
	"sort"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/planucab-api/internal/models"
)

type evaluacionStore interface {
	Save(ctx context.Context, ownerID int64, entity models.Evaluacion) (models.Evaluacion, error)
	FindByOwner(ctx context.Context, ownerID int64) ([]models.Evaluacion, error)
	FindByID(ctx context.Context, ownerID, id int64) (models.Evaluacion, error)
	Update(ctx context.Context, ownerID, id int64, value models.Evaluacion) (models.Evaluacion, error)
	Delete(ctx context.Context, ownerID, id int64) error
}

type weightChecker interface {
	CheckAllocations(ctx context.Context, ownerID int64, allocations []models.SubjectAllocation, excludeID int64) error
	Allocated(ctx context.Context, ownerID int64) (map[string]float64, error)
}

// SubjectAllocationRequest assigns part of a subject's grade to the evaluation.
type SubjectAllocationRequest struct {
	Name   string  `json:"name" validate:"required,max=200"`
	Weight float64 `json:"weight" validate:"gte=0,lte=100"`
}

// EvaluacionRequest is the payload for creating or replacing an evaluation.
type EvaluacionRequest struct {
	Title       string                     `json:"title" validate:"required,max=200"`
	Subjects    []SubjectAllocationRequest `json:"subjects" validate:"dive"`
	Grade       float64                    `json:"grade" validate:"gte=0,lte=20"`
	Professor   string                     `json:"professor" validate:"max=200"`
	Room        string                     `json:"room" validate:"max=100"`
	Description string                     `json:"description" validate:"max=2000"`
	Start       string                     `json:"start" validate:"required"`
	End         string                     `json:"end" validate:"required"`
	ColorHex    string                     `json:"color_hex" validate:"omitempty,hexcolor"`
	Location    string                     `json:"location" validate:"max=200"`
}

// EvaluacionService manages graded evaluations and their subject weights.
type EvaluacionService struct {
	store     evaluacionStore
	guard     *ScheduleGuard
	weights   weightChecker
	subjects  subjectResolver
	decimals  int
	validator *validator.Validate
	logger    *zap.Logger
}

// NewEvaluacionService instantiates EvaluacionService. subjects may be nil.
func NewEvaluacionService(store evaluacionStore, guard *ScheduleGuard, weights weightChecker, subjects subjectResolver, decimals int, validate *validator.Validate, logger *zap.Logger) *EvaluacionService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &EvaluacionService{
		store:     store,
		guard:     guard,
		weights:   weights,
		subjects:  subjects,
		decimals:  decimals,
		validator: newValidator(validate),
		logger:    logger,
	}
}

// List returns the owner's evaluations.
func (s *EvaluacionService) List(ctx context.Context, ownerID int64) ([]models.Evaluacion, error) {
	evaluaciones, err := s.store.FindByOwner(ctx, ownerID)
	if err != nil {
		return nil, storeError(err, models.KindEvaluacion, "list")
	}
	return evaluaciones, nil
}

// Get returns one evaluation.
func (s *EvaluacionService) Get(ctx context.Context, ownerID, id int64) (*models.Evaluacion, error) {
	evaluacion, err := s.store.FindByID(ctx, ownerID, id)
	if err != nil {
		return nil, storeError(err, models.KindEvaluacion, "load")
	}
	return &evaluacion, nil
}

// Create stores a new evaluation once every subject weight fits and the window is free.
func (s *EvaluacionService) Create(ctx context.Context, ownerID int64, req EvaluacionRequest) (*models.Evaluacion, error) {
	evaluacion, window, err := s.build(ctx, req)
	if err != nil {
		return nil, err
	}

	unlock := s.guard.Lock(ownerID)
	defer unlock()

	if err := s.weights.CheckAllocations(ctx, ownerID, evaluacion.Subjects, 0); err != nil {
		return nil, err
	}
	if err := s.guard.Check(ctx, ownerID, window, nil); err != nil {
		return nil, err
	}
	saved, err := s.store.Save(ctx, ownerID, evaluacion)
	if err != nil {
		return nil, storeError(err, models.KindEvaluacion, "create")
	}
	s.guard.Committed(ctx, ownerID)
	s.logger.Info("evaluacion created", zap.Int64("owner_id", ownerID), zap.Int64("id", saved.ID))
	return &saved, nil
}

// Update replaces an evaluation; its own previous weights and window are not counted.
func (s *EvaluacionService) Update(ctx context.Context, ownerID, id int64, req EvaluacionRequest) (*models.Evaluacion, error) {
	evaluacion, window, err := s.build(ctx, req)
	if err != nil {
		return nil, err
	}

	unlock := s.guard.Lock(ownerID)
	defer unlock()

	if _, err := s.store.FindByID(ctx, ownerID, id); err != nil {
		return nil, storeError(err, models.KindEvaluacion, "load")
	}
	if err := s.weights.CheckAllocations(ctx, ownerID, evaluacion.Subjects, id); err != nil {
		return nil, err
	}
	if err := s.guard.Check(ctx, ownerID, window, &models.BlockRef{Kind: models.KindEvaluacion, ID: id}); err != nil {
		return nil, err
	}
	updated, err := s.store.Update(ctx, ownerID, id, evaluacion)
	if err != nil {
		return nil, storeError(err, models.KindEvaluacion, "update")
	}
	s.guard.Committed(ctx, ownerID)
	return &updated, nil
}

// Delete removes an evaluation, releasing its subject weights.
func (s *EvaluacionService) Delete(ctx context.Context, ownerID, id int64) error {
	unlock := s.guard.Lock(ownerID)
	defer unlock()

	if err := s.store.Delete(ctx, ownerID, id); err != nil {
		return storeError(err, models.KindEvaluacion, "delete")
	}
	s.guard.Committed(ctx, ownerID)
	return nil
}

// Summary aggregates, per subject, how much weight is allocated and how many points
// (on the 0-20 scale) the graded evaluations have earned so far.
func (s *EvaluacionService) Summary(ctx context.Context, ownerID int64) ([]models.SubjectSummary, error) {
	evaluaciones, err := s.store.FindByOwner(ctx, ownerID)
	if err != nil {
		return nil, storeError(err, models.KindEvaluacion, "list")
	}
	allocated, err := s.weights.Allocated(ctx, ownerID)
	if err != nil {
		return nil, err
	}

	bySubject := make(map[string]*models.SubjectSummary)
	for _, ev := range evaluaciones {
		for _, alloc := range ev.Subjects {
			summary, ok := bySubject[alloc.Name]
			if !ok {
				summary = &models.SubjectSummary{Subject: alloc.Name}
				bySubject[alloc.Name] = summary
			}
			summary.Evaluations++
			summary.Points += ev.Grade * alloc.Weight / MaxSubjectWeight
		}
	}

	out := make([]models.SubjectSummary, 0, len(bySubject))
	for name, summary := range bySubject {
		summary.AllocatedWeight = allocated[name]
		summary.RemainingWeight = roundTo(MaxSubjectWeight-summary.AllocatedWeight, s.decimals)
		summary.Points = roundTo(summary.Points, s.decimals)
		out = append(out, *summary)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Subject < out[j].Subject })
	return out, nil
}

func (s *EvaluacionService) build(ctx context.Context, req EvaluacionRequest) (models.Evaluacion, models.TimeRange, error) {
	if err := s.validator.Struct(req); err != nil {
		return models.Evaluacion{}, models.TimeRange{}, validationError(err, "invalid evaluacion payload")
	}
	start, end, window, err := parseDatedWindow(req.Start, req.End)
	if err != nil {
		return models.Evaluacion{}, models.TimeRange{}, err
	}

	allocations := make([]models.SubjectAllocation, 0, len(req.Subjects))
	for _, item := range req.Subjects {
		name := trimmed(item.Name)
		if s.subjects != nil {
			name = s.subjects.CanonicalName(ctx, name)
		}
		allocations = append(allocations, models.SubjectAllocation{Name: name, Weight: item.Weight})
	}

	color := req.ColorHex
	if color == "" {
		color = models.DefaultEvaluacionColor
	}
	evaluacion := models.Evaluacion{
		Block:       models.Block{ColorHex: color, Location: trimmed(req.Location)},
		Title:       trimmed(req.Title),
		Subjects:    mergeAllocations(allocations),
		Grade:       req.Grade,
		Professor:   trimmed(req.Professor),
		Room:        trimmed(req.Room),
		Description: req.Description,
		Start:       start,
		End:         end,
	}
	return evaluacion, window, nil
}
