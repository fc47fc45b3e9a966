package service

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/planucab-api/internal/models"
	appErrors "github.com/noah-isme/planucab-api/pkg/errors"
)

func TestEventCreateConflictsWithMondayHorario(t *testing.T) {
	f := newScheduleFixture(t)
	ctx := context.Background()

	_, err := f.horarioSvc.Create(ctx, 1, horarioReq("Calculus", "Lunes", "08:00", "09:30"))
	require.NoError(t, err)

	_, err = f.eventSvc.Create(ctx, 1, eventReq("Study group", "2024-03-04T09:00:00", "2024-03-04T10:00:00"))
	requireCode(t, err, appErrors.ErrScheduleConflict)
	var conflict *models.ScheduleConflictError
	require.True(t, errors.As(err, &conflict))
	assert.Equal(t, models.KindHorario, conflict.Kind)
	assert.Equal(t, "Calculus", conflict.Label)
	assert.Equal(t, "08:00 - 09:30", conflict.Window)

	event, err := f.eventSvc.Create(ctx, 1, eventReq("Study group", "2024-03-04T09:30:00", "2024-03-04T10:00:00"))
	require.NoError(t, err)
	assert.Equal(t, int64(1), event.ID)
	assert.Equal(t, int64(1), event.OwnerID)
}

func TestEventCreateOtherWeekdayOrOwnerDoesNotConflict(t *testing.T) {
	f := newScheduleFixture(t)
	ctx := context.Background()

	_, err := f.horarioSvc.Create(ctx, 1, horarioReq("Calculus", "Lunes", "08:00", "09:30"))
	require.NoError(t, err)

	_, err = f.eventSvc.Create(ctx, 1, eventReq("Tuesday", "2024-03-05T08:00", "2024-03-05T09:00"))
	require.NoError(t, err)
	_, err = f.eventSvc.Create(ctx, 2, eventReq("Other owner", "2024-03-04T08:00", "2024-03-04T09:00"))
	require.NoError(t, err)
}

func TestEventCreateOneMinuteOverlapConflicts(t *testing.T) {
	f := newScheduleFixture(t)
	ctx := context.Background()

	_, err := f.eventSvc.Create(ctx, 1, eventReq("A", "2024-03-06T10:00", "2024-03-06T11:00"))
	require.NoError(t, err)

	_, err = f.eventSvc.Create(ctx, 1, eventReq("B", "2024-03-06T10:59", "2024-03-06T12:00"))
	requireCode(t, err, appErrors.ErrScheduleConflict)

	_, err = f.eventSvc.Create(ctx, 1, eventReq("B", "2024-03-06T11:00", "2024-03-06T12:00"))
	require.NoError(t, err)
}

func TestEventCreateRejectsInvalidWindows(t *testing.T) {
	f := newScheduleFixture(t)
	ctx := context.Background()

	_, err := f.eventSvc.Create(ctx, 1, eventReq("Backwards", "2024-03-06T11:00", "2024-03-06T10:00"))
	requireCode(t, err, appErrors.ErrInvalidRange)
	var invalid *models.InvalidRangeError
	assert.True(t, errors.As(err, &invalid))

	_, err = f.eventSvc.Create(ctx, 1, eventReq("Empty", "2024-03-06T10:00", "2024-03-06T10:00"))
	requireCode(t, err, appErrors.ErrInvalidRange)

	_, err = f.eventSvc.Create(ctx, 1, eventReq("Overnight", "2024-03-06T22:00", "2024-03-07T01:00"))
	requireCode(t, err, appErrors.ErrValidation)

	_, err = f.eventSvc.Create(ctx, 1, eventReq("Garbage", "tomorrow", "2024-03-07T01:00"))
	requireCode(t, err, appErrors.ErrValidation)

	_, err = f.eventSvc.Create(ctx, 1, EventRequest{Start: "2024-03-06T10:00", End: "2024-03-06T11:00"})
	requireCode(t, err, appErrors.ErrValidation)

	assert.Equal(t, 0, f.events.Len())
	assert.Equal(t, 0, f.invalidated.count())
}

func TestEventCreateRejectsSubMinuteTimes(t *testing.T) {
	f := newScheduleFixture(t)
	ctx := context.Background()

	_, err := f.eventSvc.Create(ctx, 1, eventReq("A", "2024-03-06T10:00:00", "2024-03-06T11:00:45"))
	requireCode(t, err, appErrors.ErrValidation)
	assert.Contains(t, err.Error(), "end:")

	_, err = f.eventSvc.Create(ctx, 1, eventReq("Blink", "2024-03-06T10:00:00", "2024-03-06T10:00:30"))
	requireCode(t, err, appErrors.ErrValidation)
	assert.Equal(t, 0, f.events.Len())

	a, err := f.eventSvc.Create(ctx, 1, eventReq("A", "2024-03-06T10:00:00", "2024-03-06T11:00:00"))
	require.NoError(t, err)
	assert.Equal(t, "2024-03-06T11:00:00", a.End.String())

	_, err = f.eventSvc.Create(ctx, 1, eventReq("B", "2024-03-06T11:00", "2024-03-06T12:00"))
	require.NoError(t, err)
}

func TestEventErrorsDoNotRepeatTheirCause(t *testing.T) {
	f := newScheduleFixture(t)
	ctx := context.Background()

	_, err := f.eventSvc.Create(ctx, 1, eventReq("Backwards", "2024-03-06T11:00", "2024-03-06T10:00"))
	requireCode(t, err, appErrors.ErrInvalidRange)
	assert.Equal(t, appErrors.ErrInvalidRange.Message, appErrors.FromError(err).Message)

	_, err = f.eventSvc.Create(ctx, 1, eventReq("A", "2024-03-06T10:00", "2024-03-06T11:00"))
	require.NoError(t, err)
	_, err = f.eventSvc.Create(ctx, 1, eventReq("B", "2024-03-06T10:30", "2024-03-06T11:30"))
	requireCode(t, err, appErrors.ErrScheduleConflict)
	assert.Equal(t, 1, strings.Count(err.Error(), "conflicts with 'A'"), err.Error())
}

func TestEventUpdateExcludesItselfAndKeepsOldValueOnConflict(t *testing.T) {
	f := newScheduleFixture(t)
	ctx := context.Background()

	a, err := f.eventSvc.Create(ctx, 1, eventReq("A", "2024-03-06T10:00", "2024-03-06T11:00"))
	require.NoError(t, err)
	_, err = f.eventSvc.Create(ctx, 1, eventReq("B", "2024-03-06T12:00", "2024-03-06T13:00"))
	require.NoError(t, err)

	moved, err := f.eventSvc.Update(ctx, 1, a.ID, eventReq("A", "2024-03-06T10:30", "2024-03-06T11:30"))
	require.NoError(t, err)
	assert.Equal(t, a.ID, moved.ID)

	_, err = f.eventSvc.Update(ctx, 1, a.ID, eventReq("A", "2024-03-06T11:30", "2024-03-06T12:30"))
	requireCode(t, err, appErrors.ErrScheduleConflict)

	stored, err := f.eventSvc.Get(ctx, 1, a.ID)
	require.NoError(t, err)
	assert.Equal(t, "2024-03-06T10:30:00", stored.Start.String())
}

func TestEventUpdateAndDeleteMissing(t *testing.T) {
	f := newScheduleFixture(t)
	ctx := context.Background()

	_, err := f.eventSvc.Update(ctx, 1, 99, eventReq("A", "2024-03-06T10:00", "2024-03-06T11:00"))
	requireCode(t, err, appErrors.ErrNotFound)

	err = f.eventSvc.Delete(ctx, 1, 99)
	requireCode(t, err, appErrors.ErrNotFound)

	_, err = f.eventSvc.Create(ctx, 1, eventReq("A", "2024-03-06T10:00", "2024-03-06T11:00"))
	require.NoError(t, err)
	err = f.eventSvc.Delete(ctx, 1, 99)
	requireCode(t, err, appErrors.ErrNotFound)
}

func TestEventDeleteFreesTheWindow(t *testing.T) {
	f := newScheduleFixture(t)
	ctx := context.Background()

	a, err := f.eventSvc.Create(ctx, 1, eventReq("A", "2024-03-06T10:00", "2024-03-06T11:00"))
	require.NoError(t, err)
	require.NoError(t, f.eventSvc.Delete(ctx, 1, a.ID))

	b, err := f.eventSvc.Create(ctx, 1, eventReq("B", "2024-03-06T10:00", "2024-03-06T11:00"))
	require.NoError(t, err)
	assert.Greater(t, b.ID, a.ID)
	assert.Equal(t, 3, f.invalidated.count())
}

func TestEventCreatePersistenceFailure(t *testing.T) {
	f := newScheduleFixture(t)
	ctx := context.Background()

	f.files.setFail(true)
	_, err := f.eventSvc.Create(ctx, 1, eventReq("A", "2024-03-06T10:00", "2024-03-06T11:00"))
	requireCode(t, err, appErrors.ErrPersistence)

	list, err := f.eventSvc.List(ctx, 1)
	require.NoError(t, err)
	assert.Empty(t, list)
	assert.Equal(t, 0, f.invalidated.count())
}

func TestEventConcurrentOverlappingCreatesCommitOnce(t *testing.T) {
	f := newScheduleFixture(t)
	ctx := context.Background()

	const workers = 8
	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		succeeded int
	)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.eventSvc.Create(ctx, 1, eventReq("Race", "2024-03-06T10:00", "2024-03-06T11:00"))
			if err == nil {
				mu.Lock()
				succeeded++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, succeeded)
	assert.Equal(t, 1, f.events.Len())
}
