package errors

import (
	stdErrors "errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type detailErr struct{ label string }

func (d *detailErr) Error() string { return d.label }

func TestWrapKeepsCauseReachable(t *testing.T) {
	cause := &detailErr{label: "overlaps Calculus"}
	err := fmt.Errorf("create: %w", Wrap(cause, ErrScheduleConflict.Code, ErrScheduleConflict.Status, "schedule conflict"))

	appErr := FromError(err)
	require.NotNil(t, appErr)
	assert.Equal(t, "SCHEDULE_CONFLICT", appErr.Code)
	assert.Equal(t, http.StatusConflict, appErr.Status)

	var detail *detailErr
	require.True(t, stdErrors.As(err, &detail))
	assert.Equal(t, "overlaps Calculus", detail.label)
}

func TestFromErrorDefaultsToInternal(t *testing.T) {
	appErr := FromError(stdErrors.New("disk on fire"))
	assert.Equal(t, ErrInternal.Code, appErr.Code)
	assert.Equal(t, http.StatusInternalServerError, appErr.Status)
	assert.Nil(t, FromError(nil))
}

func TestCloneOverridesMessageOnly(t *testing.T) {
	clone := Clone(ErrNotFound, "event not found")
	assert.Equal(t, "event not found", clone.Message)
	assert.Equal(t, ErrNotFound.Code, clone.Code)
	assert.Equal(t, "resource not found", ErrNotFound.Message)
}

type overAllocated struct {
	Subject string `json:"subject"`
}

func (o *overAllocated) Error() string { return o.Subject + " over 100%" }

func (o *overAllocated) ErrorDetails() interface{} { return o }

func TestFromErrorCopiesDetails(t *testing.T) {
	cause := &overAllocated{Subject: "Física"}
	wrapped := Wrap(cause, ErrWeightExceeded.Code, ErrWeightExceeded.Status, "weight exceeded")

	appErr := FromError(fmt.Errorf("create: %w", wrapped))
	require.NotNil(t, appErr)
	assert.Equal(t, cause, appErr.Details)
	assert.Nil(t, wrapped.Details)
}

func TestErrorDoesNotRepeatCause(t *testing.T) {
	cause := &detailErr{label: "conflicts with 'Calculus' (10:00 - 11:00)"}

	assert.Equal(t, "schedule conflicts with 'Calculus' (10:00 - 11:00)",
		Wrap(cause, ErrScheduleConflict.Code, ErrScheduleConflict.Status, "schedule "+cause.label).Error())
	assert.Equal(t, cause.label, Wrap(cause, ErrValidation.Code, ErrValidation.Status, cause.label).Error())
	assert.Equal(t, "failed to persist changes: disk full",
		Wrap(stdErrors.New("disk full"), ErrPersistence.Code, ErrPersistence.Status, ErrPersistence.Message).Error())
}
