package repository

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/noah-isme/planucab-api/internal/models"
)

// DefaultMaterias is the catalog used when no catalog file is configured or present.
var DefaultMaterias = []models.Materia{
	{ID: 1, Name: "Ingeniería de Software", Semester: "4to Semestre", Credits: 5},
	{ID: 2, Name: "Programación Orientada a la Web", Semester: "4to Semestre", Credits: 4},
	{ID: 3, Name: "Organización del Computador", Semester: "4to Semestre", Credits: 4},
	{ID: 4, Name: "Interacción Humano - Computador", Semester: "4to Semestre", Credits: 3},
	{ID: 5, Name: "Cálculo Vectorial", Semester: "4to Semestre", Credits: 4},
	{ID: 6, Name: "Ingeniería Económica", Semester: "4to Semestre", Credits: 3},
	{ID: 7, Name: "Ecuaciones Diferenciales Ordinarias", Semester: "4to Semestre", Credits: 4},
}

type materiaCatalogFile struct {
	Materias []models.Materia `yaml:"materias"`
}

// MateriaRepository serves the read-only subject catalog.
type MateriaRepository struct {
	materias []models.Materia
	byID     map[int64]models.Materia
}

// NewMateriaRepository builds a repository over an in-memory catalog.
func NewMateriaRepository(materias []models.Materia) *MateriaRepository {
	sorted := append([]models.Materia(nil), materias...)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].ID < sorted[j].ID })
	byID := make(map[int64]models.Materia, len(sorted))
	for _, m := range sorted {
		byID[m.ID] = m
	}
	return &MateriaRepository{materias: sorted, byID: byID}
}

// LoadMateriaRepository reads a YAML catalog; a missing file or empty path yields DefaultMaterias.
func LoadMateriaRepository(path string) (*MateriaRepository, error) {
	if path == "" {
		return NewMateriaRepository(DefaultMaterias), nil
	}
	raw, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return NewMateriaRepository(DefaultMaterias), nil
	}
	if err != nil {
		return nil, fmt.Errorf("read materia catalog: %w", err)
	}
	return ParseMateriaCatalog(raw)
}

// ParseMateriaCatalog decodes a YAML document with a top-level "materias" list.
func ParseMateriaCatalog(raw []byte) (*MateriaRepository, error) {
	var file materiaCatalogFile
	if err := yaml.Unmarshal(raw, &file); err != nil {
		return nil, fmt.Errorf("decode materia catalog: %w", err)
	}
	if len(file.Materias) == 0 {
		return NewMateriaRepository(DefaultMaterias), nil
	}
	seen := make(map[int64]struct{}, len(file.Materias))
	for _, m := range file.Materias {
		if m.ID <= 0 || strings.TrimSpace(m.Name) == "" {
			return nil, fmt.Errorf("materia catalog entry %+v needs a positive id and a name", m)
		}
		if _, dup := seen[m.ID]; dup {
			return nil, fmt.Errorf("materia catalog has duplicate id %d", m.ID)
		}
		seen[m.ID] = struct{}{}
	}
	return NewMateriaRepository(file.Materias), nil
}

// List returns every catalog entry ordered by id.
func (r *MateriaRepository) List(ctx context.Context) ([]models.Materia, error) {
	return append([]models.Materia(nil), r.materias...), nil
}

// FindByID returns a catalog entry or ErrNotFound.
func (r *MateriaRepository) FindByID(ctx context.Context, id int64) (*models.Materia, error) {
	m, ok := r.byID[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &m, nil
}

// FindByName matches names exactly.
func (r *MateriaRepository) FindByName(ctx context.Context, name string) (*models.Materia, error) {
	for _, m := range r.materias {
		if m.Name == name {
			found := m
			return &found, nil
		}
	}
	return nil, ErrNotFound
}
