package models

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseWeekday(t *testing.T) {
	cases := map[string]Weekday{
		"Lunes":     Lunes,
		"miercoles": Miercoles,
		"MIÉRCOLES": Miercoles,
		"Sabado":    Sabado,
		"sunday":    Domingo,
		" Friday ":  Viernes,
	}
	for raw, want := range cases {
		got, err := ParseWeekday(raw)
		require.NoError(t, err, raw)
		assert.Equal(t, want, got, raw)
	}

	_, err := ParseWeekday("Funday")
	require.Error(t, err)
}

func TestWeekdayConversions(t *testing.T) {
	assert.Equal(t, time.Wednesday, Miercoles.Time())
	assert.Equal(t, Domingo, WeekdayOf(time.Sunday))
	assert.True(t, Jueves.Valid())
	assert.False(t, Weekday("Thursday").Valid())
}

func TestParseClock(t *testing.T) {
	c, err := ParseClock("09:30")
	require.NoError(t, err)
	assert.Equal(t, NewClock(9, 30), c)
	assert.Equal(t, "09:30", c.String())

	_, err = ParseClock("25:00")
	require.Error(t, err)
	_, err = ParseClock("9h")
	require.Error(t, err)
}

func TestLocalDateTimeJSON(t *testing.T) {
	date := NewLocalDate(2025, time.March, 10)
	dt := date.At(NewClock(9, 5))

	raw, err := json.Marshal(dt)
	require.NoError(t, err)
	assert.JSONEq(t, `"2025-03-10T09:05:00"`, string(raw))

	var decoded LocalDateTime
	require.NoError(t, json.Unmarshal([]byte(`"2025-03-10T09:05"`), &decoded))
	assert.True(t, decoded.Equal(dt))
	assert.True(t, decoded.Date().Equal(date))
	assert.Equal(t, NewClock(9, 5), decoded.Clock())
}

func TestLocalDateTimeMinutePrecision(t *testing.T) {
	want := NewLocalDate(2024, time.March, 6).At(NewClock(11, 0))

	exact, err := ParseMinuteDateTime("2024-03-06T11:00:00")
	require.NoError(t, err)
	assert.True(t, exact.Equal(want))

	_, err = ParseMinuteDateTime("2024-03-06T11:00:45")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "minute precision")
	_, err = ParseMinuteDateTime("2024-03-06T11:00:00.5")
	require.Error(t, err)

	var stored LocalDateTime
	require.NoError(t, json.Unmarshal([]byte(`"2024-03-06T11:00:45"`), &stored))
	assert.True(t, stored.Equal(want))
	raw, err := json.Marshal(stored)
	require.NoError(t, err)
	assert.JSONEq(t, `"2024-03-06T11:00:00"`, string(raw))
}

func TestLocalDateArithmetic(t *testing.T) {
	from := NewLocalDate(2025, time.March, 10)
	to := from.AddDays(13)

	assert.Equal(t, "2025-03-23", to.String())
	assert.Equal(t, 13, from.DaysUntil(to))
	assert.True(t, from.Before(to))
	assert.Equal(t, time.Monday, from.Weekday())
}
