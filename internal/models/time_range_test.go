package models

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustDate(t *testing.T, raw string) LocalDate {
	t.Helper()
	d, err := ParseLocalDate(raw)
	require.NoError(t, err)
	return d
}

func mustDated(t *testing.T, date string, start, end ClockTime) TimeRange {
	t.Helper()
	r, err := NewDatedRange(mustDate(t, date), start, end)
	require.NoError(t, err)
	return r
}

func mustWeekly(t *testing.T, day time.Weekday, start, end ClockTime) TimeRange {
	t.Helper()
	r, err := NewWeeklyRange(day, start, end)
	require.NoError(t, err)
	return r
}

func TestNewRangeRejectsEmptyOrInverted(t *testing.T) {
	_, err := NewDatedRange(NewLocalDate(2025, 3, 10), NewClock(10, 0), NewClock(10, 0))
	var rangeErr *InvalidRangeError
	require.True(t, errors.As(err, &rangeErr))
	assert.Equal(t, NewClock(10, 0), rangeErr.Start)

	_, err = NewWeeklyRange(time.Monday, NewClock(11, 0), NewClock(9, 0))
	require.True(t, errors.As(err, &rangeErr))
}

func TestDatedRangesOverlap(t *testing.T) {
	base := mustDated(t, "2025-03-10", NewClock(9, 0), NewClock(10, 0))

	assert.True(t, base.Overlaps(mustDated(t, "2025-03-10", NewClock(9, 59), NewClock(11, 0))))
	assert.True(t, base.Overlaps(mustDated(t, "2025-03-10", NewClock(9, 15), NewClock(9, 45))))
	assert.False(t, base.Overlaps(mustDated(t, "2025-03-10", NewClock(10, 0), NewClock(11, 0))), "touching end")
	assert.False(t, base.Overlaps(mustDated(t, "2025-03-10", NewClock(8, 0), NewClock(9, 0))), "touching start")
	assert.False(t, base.Overlaps(mustDated(t, "2025-03-11", NewClock(9, 0), NewClock(10, 0))), "different date")
}

func TestWeeklyAgainstDatedRange(t *testing.T) {
	// 2025-03-10 is a Monday.
	calculus := mustWeekly(t, time.Monday, NewClock(8, 0), NewClock(9, 30))

	monday := mustDated(t, "2025-03-10", NewClock(9, 0), NewClock(10, 0))
	assert.True(t, calculus.Overlaps(monday))
	assert.True(t, monday.Overlaps(calculus))

	assert.False(t, calculus.Overlaps(mustDated(t, "2025-03-10", NewClock(9, 30), NewClock(10, 0))))
	assert.False(t, calculus.Overlaps(mustDated(t, "2025-03-11", NewClock(8, 0), NewClock(9, 0))))
	assert.True(t, calculus.Overlaps(mustDated(t, "2025-03-17", NewClock(8, 0), NewClock(8, 1))))
}

func TestWeeklyRangesOverlap(t *testing.T) {
	a := mustWeekly(t, time.Wednesday, NewClock(14, 0), NewClock(16, 0))

	assert.True(t, a.Overlaps(mustWeekly(t, time.Wednesday, NewClock(15, 0), NewClock(17, 0))))
	assert.False(t, a.Overlaps(mustWeekly(t, time.Wednesday, NewClock(16, 0), NewClock(17, 0))))
	assert.False(t, a.Overlaps(mustWeekly(t, time.Thursday, NewClock(14, 0), NewClock(16, 0))))
}

func TestTimeRangeLabels(t *testing.T) {
	weekly := mustWeekly(t, time.Monday, NewClock(8, 0), NewClock(9, 30))
	assert.Equal(t, "08:00 - 09:30", weekly.Label())
	assert.Equal(t, "Lunes 08:00 - 09:30", weekly.String())

	dated := mustDated(t, "2025-03-10", NewClock(9, 0), NewClock(10, 0))
	assert.Equal(t, "2025-03-10 09:00 - 10:00", dated.String())
}
