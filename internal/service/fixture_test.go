package service

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/noah-isme/planucab-api/internal/models"
	"github.com/noah-isme/planucab-api/internal/repository"
	appErrors "github.com/noah-isme/planucab-api/pkg/errors"
	"github.com/noah-isme/planucab-api/pkg/storage"
)

// toggleFiles lets a test make every write fail after the stores are open.
type toggleFiles struct {
	*storage.LocalStorage
	mu   sync.Mutex
	fail bool
}

func (f *toggleFiles) WriteAtomic(filename string, data []byte) error {
	f.mu.Lock()
	fail := f.fail
	f.mu.Unlock()
	if fail {
		return errors.New("disk full")
	}
	return f.LocalStorage.WriteAtomic(filename, data)
}

func (f *toggleFiles) setFail(v bool) {
	f.mu.Lock()
	f.fail = v
	f.mu.Unlock()
}

type invalidationRecorder struct {
	mu     sync.Mutex
	owners []int64
}

func (r *invalidationRecorder) InvalidateOwner(_ context.Context, ownerID int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.owners = append(r.owners, ownerID)
	return nil
}

func (r *invalidationRecorder) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.owners)
}

type scheduleFixture struct {
	files        *toggleFiles
	events       *repository.EventStore
	horarios     *repository.HorarioStore
	evaluaciones *repository.EvaluacionStore
	invalidated  *invalidationRecorder
	eventSvc     *EventService
	horarioSvc   *HorarioService
	evalSvc      *EvaluacionService
	agendaSvc    *AgendaService
}

func newScheduleFixture(t *testing.T) *scheduleFixture {
	t.Helper()
	local, err := storage.NewLocalStorage(t.TempDir())
	require.NoError(t, err)
	files := &toggleFiles{LocalStorage: local}

	events, err := repository.OpenBlockStore[models.Event, *models.Event](repository.StoreOptions{
		Kind: models.KindEvent, Files: files, Filename: "events.json",
	})
	require.NoError(t, err)
	horarios, err := repository.OpenBlockStore[models.Horario, *models.Horario](repository.StoreOptions{
		Kind: models.KindHorario, Files: files, Filename: "horarios.json",
	})
	require.NoError(t, err)
	evaluaciones, err := repository.OpenBlockStore[models.Evaluacion, *models.Evaluacion](repository.StoreOptions{
		Kind: models.KindEvaluacion, Files: files, Filename: "evaluaciones.json",
	})
	require.NoError(t, err)

	recorder := &invalidationRecorder{}
	detector := NewConflictDetector(events, horarios, evaluaciones, nil, nil)
	guard := NewScheduleGuard(NewOwnerLocks(), detector, recorder, nil)
	weights := NewWeightAllocator(evaluaciones, 2, nil, nil)
	materias := NewMateriaService(repository.NewMateriaRepository(repository.DefaultMaterias), nil)

	return &scheduleFixture{
		files:        files,
		events:       events,
		horarios:     horarios,
		evaluaciones: evaluaciones,
		invalidated:  recorder,
		eventSvc:     NewEventService(events, guard, nil, nil),
		horarioSvc:   NewHorarioService(horarios, guard, materias, nil, nil),
		evalSvc:      NewEvaluacionService(evaluaciones, guard, weights, materias, 2, nil, nil),
		agendaSvc:    NewAgendaService(events, horarios, evaluaciones, nil, AgendaConfig{MaxDays: 60}, nil),
	}
}

func requireCode(t *testing.T, err error, want *appErrors.Error) {
	t.Helper()
	require.Error(t, err)
	require.Equal(t, want.Code, appErrors.FromError(err).Code, "error: %v", err)
}

func horarioReq(subject, day, start, end string) HorarioRequest {
	return HorarioRequest{Subject: subject, Weekday: day, StartTime: start, EndTime: end}
}

func eventReq(name, start, end string) EventRequest {
	return EventRequest{Name: name, Start: start, End: end}
}

func evaluacionReq(title, start, end string, subjects ...SubjectAllocationRequest) EvaluacionRequest {
	return EvaluacionRequest{Title: title, Start: start, End: end, Subjects: subjects}
}

func weight(name string, w float64) SubjectAllocationRequest {
	return SubjectAllocationRequest{Name: name, Weight: w}
}
