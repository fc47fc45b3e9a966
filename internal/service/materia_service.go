package service

import (
	"context"
	"errors"
	"strings"

	"go.uber.org/zap"

	"github.com/noah-isme/planucab-api/internal/models"
	"github.com/noah-isme/planucab-api/internal/repository"
	appErrors "github.com/noah-isme/planucab-api/pkg/errors"
)

type materiaRepository interface {
	List(ctx context.Context) ([]models.Materia, error)
	FindByID(ctx context.Context, id int64) (*models.Materia, error)
	FindByName(ctx context.Context, name string) (*models.Materia, error)
}

// MateriaService serves the subject catalog.
type MateriaService struct {
	repo   materiaRepository
	logger *zap.Logger
}

// NewMateriaService instantiates MateriaService.
func NewMateriaService(repo materiaRepository, logger *zap.Logger) *MateriaService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &MateriaService{repo: repo, logger: logger}
}

// List returns the whole catalog.
func (s *MateriaService) List(ctx context.Context) ([]models.Materia, error) {
	items, err := s.repo.List(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list materias")
	}
	return items, nil
}

// Get returns one catalog entry.
func (s *MateriaService) Get(ctx context.Context, id int64) (*models.Materia, error) {
	materia, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "materia not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load materia")
	}
	return materia, nil
}

// FindByName returns the catalog entry whose name matches exactly.
func (s *MateriaService) FindByName(ctx context.Context, name string) (*models.Materia, error) {
	materia, err := s.repo.FindByName(ctx, name)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "materia not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load materia")
	}
	return materia, nil
}

// CanonicalName returns the catalog spelling of name when it matches an entry ignoring case
// and surrounding spaces. Unknown subjects come back trimmed but otherwise unchanged.
func (s *MateriaService) CanonicalName(ctx context.Context, name string) string {
	trimmedName := strings.TrimSpace(name)
	if materia, err := s.repo.FindByName(ctx, trimmedName); err == nil {
		return materia.Name
	}
	items, err := s.repo.List(ctx)
	if err != nil {
		s.logger.Warn("materia catalog unavailable", zap.Error(err))
		return trimmedName
	}
	for _, m := range items {
		if strings.EqualFold(m.Name, trimmedName) {
			return m.Name
		}
	}
	return trimmedName
}
