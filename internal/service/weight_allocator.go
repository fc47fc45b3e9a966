package service

import (
	"context"
	"math"

	"go.uber.org/zap"

	"github.com/noah-isme/planucab-api/internal/models"
	appErrors "github.com/noah-isme/planucab-api/pkg/errors"
)

// MaxSubjectWeight is the most a subject's evaluations may add up to.
const MaxSubjectWeight = 100.0

// WeightAllocator enforces that no subject's evaluation weights exceed 100% per owner.
type WeightAllocator struct {
	evaluaciones evaluacionLister
	decimals     int
	metrics      *MetricsService
	logger       *zap.Logger
}

// NewWeightAllocator constructs a WeightAllocator. Sums are rounded to decimals places before
// comparison; a negative value compares raw floating point sums.
func NewWeightAllocator(evaluaciones evaluacionLister, decimals int, metrics *MetricsService, logger *zap.Logger) *WeightAllocator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &WeightAllocator{evaluaciones: evaluaciones, decimals: decimals, metrics: metrics, logger: logger}
}

// CheckAllocation fails with a wrapped *models.WeightExceededError when adding newWeight to
// the owner's existing weights for subject would pass 100. excludeID (0 for none) is skipped.
func (a *WeightAllocator) CheckAllocation(ctx context.Context, ownerID int64, subject string, newWeight float64, excludeID int64) error {
	return a.CheckAllocations(ctx, ownerID, []models.SubjectAllocation{{Name: subject, Weight: newWeight}}, excludeID)
}

// CheckAllocations runs CheckAllocation for every allocation against a single snapshot.
// The first failing subject aborts the check.
func (a *WeightAllocator) CheckAllocations(ctx context.Context, ownerID int64, allocations []models.SubjectAllocation, excludeID int64) error {
	if len(allocations) == 0 {
		return nil
	}
	existing, err := a.totals(ctx, ownerID, excludeID)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load subject weights")
	}
	for _, alloc := range allocations {
		sum := existing[alloc.Name]
		if a.round(sum+alloc.Weight) > MaxSubjectWeight {
			a.metrics.RecordWeightRejection()
			exceeded := &models.WeightExceededError{Subject: alloc.Name, ExistingSum: a.round(sum), NewWeight: alloc.Weight}
			return appErrors.Wrap(exceeded, appErrors.ErrWeightExceeded.Code, appErrors.ErrWeightExceeded.Status, exceeded.Error())
		}
	}
	return nil
}

// Allocated returns the rounded weight already committed to each subject.
func (a *WeightAllocator) Allocated(ctx context.Context, ownerID int64) (map[string]float64, error) {
	totals, err := a.totals(ctx, ownerID, 0)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load subject weights")
	}
	for subject, sum := range totals {
		totals[subject] = a.round(sum)
	}
	return totals, nil
}

func (a *WeightAllocator) totals(ctx context.Context, ownerID, excludeID int64) (map[string]float64, error) {
	evaluaciones, err := a.evaluaciones.FindByOwner(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	totals := make(map[string]float64)
	for _, ev := range evaluaciones {
		if excludeID != 0 && ev.ID == excludeID {
			continue
		}
		for _, alloc := range ev.Subjects {
			totals[alloc.Name] += alloc.Weight
		}
	}
	return totals, nil
}

func (a *WeightAllocator) round(v float64) float64 {
	return roundTo(v, a.decimals)
}

func roundTo(v float64, decimals int) float64 {
	if decimals < 0 {
		return v
	}
	scale := math.Pow(10, float64(decimals))
	return math.Round(v*scale) / scale
}

// mergeAllocations folds repeated subject names into one entry, keeping first-seen order.
func mergeAllocations(allocations []models.SubjectAllocation) []models.SubjectAllocation {
	merged := make([]models.SubjectAllocation, 0, len(allocations))
	index := make(map[string]int, len(allocations))
	for _, alloc := range allocations {
		if i, ok := index[alloc.Name]; ok {
			merged[i].Weight += alloc.Weight
			continue
		}
		index[alloc.Name] = len(merged)
		merged = append(merged, alloc)
	}
	return merged
}
