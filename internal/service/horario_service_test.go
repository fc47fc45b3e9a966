package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/planucab-api/internal/models"
	appErrors "github.com/noah-isme/planucab-api/pkg/errors"
)

func TestHorarioCreateNormalisesInput(t *testing.T) {
	f := newScheduleFixture(t)
	ctx := context.Background()

	h, err := f.horarioSvc.Create(ctx, 1, HorarioRequest{
		Subject:   "  cálculo vectorial ",
		Weekday:   "miercoles",
		StartTime: "07:00",
		EndTime:   "08:30",
		ColorHex:  "#2196F3",
	})
	require.NoError(t, err)
	assert.Equal(t, "Cálculo Vectorial", h.Subject)
	assert.Equal(t, models.Miercoles, h.Weekday)
	assert.Equal(t, models.NewClock(7, 0), h.StartTime)
}

func TestHorarioCreateValidation(t *testing.T) {
	f := newScheduleFixture(t)
	ctx := context.Background()

	_, err := f.horarioSvc.Create(ctx, 1, horarioReq("Calculus", "Someday", "08:00", "09:00"))
	requireCode(t, err, appErrors.ErrValidation)

	_, err = f.horarioSvc.Create(ctx, 1, horarioReq("Calculus", "Lunes", "8am", "09:00"))
	requireCode(t, err, appErrors.ErrValidation)

	_, err = f.horarioSvc.Create(ctx, 1, horarioReq("Calculus", "Lunes", "09:00", "08:00"))
	requireCode(t, err, appErrors.ErrInvalidRange)

	req := horarioReq("Calculus", "Lunes", "08:00", "09:00")
	req.ColorHex = "blue"
	_, err = f.horarioSvc.Create(ctx, 1, req)
	requireCode(t, err, appErrors.ErrValidation)
}

func TestHorarioCreateConflictsWithSameWeekday(t *testing.T) {
	f := newScheduleFixture(t)
	ctx := context.Background()

	_, err := f.horarioSvc.Create(ctx, 1, horarioReq("Calculus", "Lunes", "08:00", "09:30"))
	require.NoError(t, err)

	_, err = f.horarioSvc.Create(ctx, 1, horarioReq("Physics", "Monday", "09:00", "10:00"))
	requireCode(t, err, appErrors.ErrScheduleConflict)

	_, err = f.horarioSvc.Create(ctx, 1, horarioReq("Physics", "Martes", "09:00", "10:00"))
	require.NoError(t, err)
}

func TestHorarioCreateConflictsWithDatedEvaluacion(t *testing.T) {
	f := newScheduleFixture(t)
	ctx := context.Background()

	_, err := f.evalSvc.Create(ctx, 1, evaluacionReq("Parcial", "2024-03-07T10:00", "2024-03-07T12:00"))
	require.NoError(t, err)

	_, err = f.horarioSvc.Create(ctx, 1, horarioReq("Physics", "Jueves", "11:00", "12:00"))
	requireCode(t, err, appErrors.ErrScheduleConflict)
}

func TestHorarioUpdatePropagatesGenericFields(t *testing.T) {
	f := newScheduleFixture(t)
	ctx := context.Background()

	mon, err := f.horarioSvc.Create(ctx, 1, HorarioRequest{Subject: "Calculus", Weekday: "Lunes", StartTime: "08:00", EndTime: "09:30", Location: "A-1", Professor: "Old"})
	require.NoError(t, err)
	wed, err := f.horarioSvc.Create(ctx, 1, HorarioRequest{Subject: "Calculus", Weekday: "Miércoles", StartTime: "10:00", EndTime: "11:30", Location: "B-2", Professor: "Old"})
	require.NoError(t, err)
	other, err := f.horarioSvc.Create(ctx, 1, HorarioRequest{Subject: "Physics", Weekday: "Viernes", StartTime: "10:00", EndTime: "11:30", Professor: "Keep"})
	require.NoError(t, err)

	updated, err := f.horarioSvc.Update(ctx, 1, mon.ID, HorarioRequest{
		Subject: "Calculus", Weekday: "Lunes", StartTime: "08:30", EndTime: "10:00", Location: "A-3",
		Professor: "New", ClassType: "Teoría", ColorHex: "#123456",
	})
	require.NoError(t, err)
	assert.Equal(t, models.NewClock(8, 30), updated.StartTime)
	assert.Equal(t, "A-3", updated.Location)

	sibling, err := f.horarioSvc.Get(ctx, 1, wed.ID)
	require.NoError(t, err)
	assert.Equal(t, "New", sibling.Professor)
	assert.Equal(t, "Teoría", sibling.ClassType)
	assert.Equal(t, "#123456", sibling.ColorHex)
	assert.Equal(t, models.Miercoles, sibling.Weekday)
	assert.Equal(t, models.NewClock(10, 0), sibling.StartTime)
	assert.Equal(t, "B-2", sibling.Location)

	untouched, err := f.horarioSvc.Get(ctx, 1, other.ID)
	require.NoError(t, err)
	assert.Equal(t, "Keep", untouched.Professor)
}

func TestHorarioUpdateWithNewSubjectDoesNotPropagate(t *testing.T) {
	f := newScheduleFixture(t)
	ctx := context.Background()

	mon, err := f.horarioSvc.Create(ctx, 1, HorarioRequest{Subject: "Calculus", Weekday: "Lunes", StartTime: "08:00", EndTime: "09:30", Professor: "Old"})
	require.NoError(t, err)
	wed, err := f.horarioSvc.Create(ctx, 1, HorarioRequest{Subject: "Calculus", Weekday: "Miércoles", StartTime: "08:00", EndTime: "09:30", Professor: "Old"})
	require.NoError(t, err)

	_, err = f.horarioSvc.Update(ctx, 1, mon.ID, HorarioRequest{Subject: "Algebra", Weekday: "Lunes", StartTime: "08:00", EndTime: "09:30", Professor: "New"})
	require.NoError(t, err)

	sibling, err := f.horarioSvc.Get(ctx, 1, wed.ID)
	require.NoError(t, err)
	assert.Equal(t, "Old", sibling.Professor)
}

func TestHorarioUpdateRejectedLeavesSiblingsAlone(t *testing.T) {
	f := newScheduleFixture(t)
	ctx := context.Background()

	mon, err := f.horarioSvc.Create(ctx, 1, HorarioRequest{Subject: "Calculus", Weekday: "Lunes", StartTime: "08:00", EndTime: "09:30", Professor: "Old"})
	require.NoError(t, err)
	wed, err := f.horarioSvc.Create(ctx, 1, HorarioRequest{Subject: "Calculus", Weekday: "Miércoles", StartTime: "08:00", EndTime: "09:30", Professor: "Old"})
	require.NoError(t, err)
	_, err = f.eventSvc.Create(ctx, 1, eventReq("Dentist", "2024-03-04T10:00", "2024-03-04T11:00"))
	require.NoError(t, err)

	_, err = f.horarioSvc.Update(ctx, 1, mon.ID, HorarioRequest{Subject: "Calculus", Weekday: "Lunes", StartTime: "09:00", EndTime: "10:30", Professor: "New"})
	requireCode(t, err, appErrors.ErrScheduleConflict)

	sibling, err := f.horarioSvc.Get(ctx, 1, wed.ID)
	require.NoError(t, err)
	assert.Equal(t, "Old", sibling.Professor)
}

func TestHorarioUpdatePersistenceFailureRollsBackSiblings(t *testing.T) {
	f := newScheduleFixture(t)
	ctx := context.Background()

	mon, err := f.horarioSvc.Create(ctx, 1, HorarioRequest{Subject: "Calculus", Weekday: "Lunes", StartTime: "08:00", EndTime: "09:30", Professor: "Old"})
	require.NoError(t, err)
	wed, err := f.horarioSvc.Create(ctx, 1, HorarioRequest{Subject: "Calculus", Weekday: "Miércoles", StartTime: "08:00", EndTime: "09:30", Professor: "Old"})
	require.NoError(t, err)

	f.files.setFail(true)
	_, err = f.horarioSvc.Update(ctx, 1, mon.ID, HorarioRequest{Subject: "Calculus", Weekday: "Lunes", StartTime: "08:00", EndTime: "09:30", Professor: "New"})
	requireCode(t, err, appErrors.ErrPersistence)
	f.files.setFail(false)

	for _, id := range []int64{mon.ID, wed.ID} {
		h, err := f.horarioSvc.Get(ctx, 1, id)
		require.NoError(t, err)
		assert.Equal(t, "Old", h.Professor)
	}
}

func TestHorarioDeleteMissing(t *testing.T) {
	f := newScheduleFixture(t)
	err := f.horarioSvc.Delete(context.Background(), 7, 1)
	requireCode(t, err, appErrors.ErrNotFound)
}
