package models

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

const (
	dateLayout     = "2006-01-02"
	dateTimeLayout = "2006-01-02T15:04:05"
	clockLayout    = "15:04"
)

// Weekday is the day a Horario repeats on, stored with the Spanish labels used by the clients.
type Weekday string

const (
	Lunes     Weekday = "Lunes"
	Martes    Weekday = "Martes"
	Miercoles Weekday = "Miércoles"
	Jueves    Weekday = "Jueves"
	Viernes   Weekday = "Viernes"
	Sabado    Weekday = "Sábado"
	Domingo   Weekday = "Domingo"
)

var weekdays = map[Weekday]time.Weekday{
	Lunes:     time.Monday,
	Martes:    time.Tuesday,
	Miercoles: time.Wednesday,
	Jueves:    time.Thursday,
	Viernes:   time.Friday,
	Sabado:    time.Saturday,
	Domingo:   time.Sunday,
}

// weekdayAliases maps folded (lowercase, accent-free) names to the canonical label.
var weekdayAliases = func() map[string]Weekday {
	aliases := make(map[string]Weekday, len(weekdays)*2)
	for label, day := range weekdays {
		aliases[foldName(string(label))] = label
		aliases[strings.ToLower(day.String())] = label
	}
	return aliases
}()

// ParseWeekday accepts Spanish or English day names, ignoring case and accents.
func ParseWeekday(raw string) (Weekday, error) {
	if day, ok := weekdayAliases[foldName(raw)]; ok {
		return day, nil
	}
	return "", fmt.Errorf("unknown weekday %q", raw)
}

// WeekdayOf returns the label for a time.Weekday.
func WeekdayOf(day time.Weekday) Weekday {
	for label, d := range weekdays {
		if d == day {
			return label
		}
	}
	return ""
}

// Valid reports whether the label is one of the seven known days.
func (d Weekday) Valid() bool {
	_, ok := weekdays[d]
	return ok
}

// Time converts the label to a time.Weekday. Unknown labels map to Sunday.
func (d Weekday) Time() time.Weekday {
	return weekdays[d]
}

func foldName(raw string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	folded, _, err := transform.String(t, strings.TrimSpace(raw))
	if err != nil {
		folded = strings.TrimSpace(raw)
	}
	return strings.ToLower(folded)
}

// ClockTime is a time of day with minute precision, counted from midnight.
type ClockTime int

// NewClock builds a ClockTime from hours and minutes.
func NewClock(hour, minute int) ClockTime {
	return ClockTime(hour*60 + minute)
}

// ParseClock parses a 24h "HH:mm" value.
func ParseClock(raw string) (ClockTime, error) {
	t, err := time.Parse(clockLayout, strings.TrimSpace(raw))
	if err != nil {
		return 0, fmt.Errorf("invalid time %q: expected HH:mm", raw)
	}
	return NewClock(t.Hour(), t.Minute()), nil
}

// Hour returns the hour component.
func (c ClockTime) Hour() int { return int(c) / 60 }

// Minute returns the minute component.
func (c ClockTime) Minute() int { return int(c) % 60 }

func (c ClockTime) String() string {
	return fmt.Sprintf("%02d:%02d", c.Hour(), c.Minute())
}

// MarshalJSON encodes the clock as "HH:mm".
func (c ClockTime) MarshalJSON() ([]byte, error) {
	return json.Marshal(c.String())
}

// UnmarshalJSON decodes "HH:mm".
func (c *ClockTime) UnmarshalJSON(data []byte) error {
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	parsed, err := ParseClock(raw)
	if err != nil {
		return err
	}
	*c = parsed
	return nil
}

// LocalDate is a calendar date without time zone.
type LocalDate struct {
	t time.Time
}

// NewLocalDate builds a date, normalising overflowing days the way time.Date does.
func NewLocalDate(year int, month time.Month, day int) LocalDate {
	return LocalDate{t: time.Date(year, month, day, 0, 0, 0, 0, time.UTC)}
}

// ParseLocalDate parses "YYYY-MM-DD".
func ParseLocalDate(raw string) (LocalDate, error) {
	t, err := time.Parse(dateLayout, strings.TrimSpace(raw))
	if err != nil {
		return LocalDate{}, fmt.Errorf("invalid date %q: expected YYYY-MM-DD", raw)
	}
	return LocalDate{t: t}, nil
}

// Weekday returns the day of the week of the date.
func (d LocalDate) Weekday() time.Weekday { return d.t.Weekday() }

// AddDays moves the date by n days.
func (d LocalDate) AddDays(n int) LocalDate { return LocalDate{t: d.t.AddDate(0, 0, n)} }

// Before reports whether d is strictly before o.
func (d LocalDate) Before(o LocalDate) bool { return d.t.Before(o.t) }

// After reports whether d is strictly after o.
func (d LocalDate) After(o LocalDate) bool { return d.t.After(o.t) }

// Equal reports whether both dates are the same day.
func (d LocalDate) Equal(o LocalDate) bool { return d.t.Equal(o.t) }

// IsZero reports whether the date is unset.
func (d LocalDate) IsZero() bool { return d.t.IsZero() }

// DaysUntil returns the number of days from d to o.
func (d LocalDate) DaysUntil(o LocalDate) int {
	return int(o.t.Sub(d.t).Hours() / 24)
}

// At combines the date with a time of day.
func (d LocalDate) At(c ClockTime) LocalDateTime {
	return LocalDateTime{t: d.t.Add(time.Duration(c) * time.Minute)}
}

// Time exposes the date as midnight UTC.
func (d LocalDate) Time() time.Time { return d.t }

func (d LocalDate) String() string {
	if d.t.IsZero() {
		return ""
	}
	return d.t.Format(dateLayout)
}

// MarshalJSON encodes the date as "YYYY-MM-DD".
func (d LocalDate) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.String())
}

// UnmarshalJSON decodes "YYYY-MM-DD".
func (d *LocalDate) UnmarshalJSON(data []byte) error {
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	if raw == "" {
		*d = LocalDate{}
		return nil
	}
	parsed, err := ParseLocalDate(raw)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// LocalDateTime is a naive date and time of day.
type LocalDateTime struct {
	t time.Time
}

// ParseLocalDateTime accepts "YYYY-MM-DDTHH:mm:ss" and "YYYY-MM-DDTHH:mm".
// Seconds are dropped: schedule windows are minute-granular.
func ParseLocalDateTime(raw string) (LocalDateTime, error) {
	t, err := parseDateTime(raw)
	if err != nil {
		return LocalDateTime{}, err
	}
	return LocalDateTime{t: t.Truncate(time.Minute)}, nil
}

// ParseMinuteDateTime is ParseLocalDateTime for client input: a value with
// non-zero seconds is rejected instead of truncated.
func ParseMinuteDateTime(raw string) (LocalDateTime, error) {
	t, err := parseDateTime(raw)
	if err != nil {
		return LocalDateTime{}, err
	}
	if t.Second() != 0 || t.Nanosecond() != 0 {
		return LocalDateTime{}, fmt.Errorf("date-time %q must have minute precision", strings.TrimSpace(raw))
	}
	return LocalDateTime{t: t}, nil
}

func parseDateTime(raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	for _, layout := range []string{dateTimeLayout, "2006-01-02T15:04"} {
		if t, err := time.Parse(layout, raw); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid date-time %q", raw)
}

// Date returns the calendar date part.
func (dt LocalDateTime) Date() LocalDate {
	return NewLocalDate(dt.t.Year(), dt.t.Month(), dt.t.Day())
}

// Clock returns the time-of-day part.
func (dt LocalDateTime) Clock() ClockTime {
	return NewClock(dt.t.Hour(), dt.t.Minute())
}

// Before reports whether dt is strictly before o.
func (dt LocalDateTime) Before(o LocalDateTime) bool { return dt.t.Before(o.t) }

// After reports whether dt is strictly after o.
func (dt LocalDateTime) After(o LocalDateTime) bool { return dt.t.After(o.t) }

// Equal reports whether both values are the same instant.
func (dt LocalDateTime) Equal(o LocalDateTime) bool { return dt.t.Equal(o.t) }

// Time exposes the value as a UTC time.Time.
func (dt LocalDateTime) Time() time.Time { return dt.t }

func (dt LocalDateTime) String() string {
	if dt.t.IsZero() {
		return ""
	}
	return dt.t.Format(dateTimeLayout)
}

// MarshalJSON encodes the value as "YYYY-MM-DDTHH:mm:ss".
func (dt LocalDateTime) MarshalJSON() ([]byte, error) {
	return json.Marshal(dt.String())
}

// UnmarshalJSON decodes the formats accepted by ParseLocalDateTime.
func (dt *LocalDateTime) UnmarshalJSON(data []byte) error {
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	if raw == "" {
		*dt = LocalDateTime{}
		return nil
	}
	parsed, err := ParseLocalDateTime(raw)
	if err != nil {
		return err
	}
	*dt = parsed
	return nil
}
